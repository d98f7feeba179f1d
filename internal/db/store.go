// Package db wraps all Postgres access. Every write path that can race with
// a concurrent ingestion run relies on a uniqueness constraint plus an
// explicit ON CONFLICT clause; there is no read-then-write anywhere.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store wraps database access helpers.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store backed by a pgx pool.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ping checks connectivity for the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// StorageError covers constraint violations outside the expected conflict
// clauses and connectivity loss to the store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// WeatherReading is one normalized observation from the weather station.
// All measurement fields are optional; a nil pointer persists as NULL.
type WeatherReading struct {
	StationID int64
	Instant   time.Time

	TempC       *float64
	FeelsLikeC  *float64
	DewPointC   *float64
	HumidityPct *int

	SolarWM2 *float64
	UVIndex  *int

	RainRateMMH   *float64
	RainDailyMM   *float64
	RainEventMM   *float64
	RainHourlyMM  *float64
	RainWeeklyMM  *float64
	RainMonthlyMM *float64
	RainYearlyMM  *float64

	WindMS     *float64
	WindGustMS *float64
	WindDirDeg *int

	PressureRelHPa *float64
	PressureAbsHPa *float64

	BatteryPct *int

	// Extras captures upstream blocks not yet modeled as columns (e.g. the
	// indoor sensor readings). Stored as jsonb.
	Extras map[string]any
}

// HydroReading is one observation for a river gauge or reservoir. The same
// (point, instant) may be reported by both feeds with different fields
// filled; the upsert merges them field by field.
type HydroReading struct {
	PointID int64
	Instant time.Time

	FlowM3s     *float64
	CapacityPct *float64
	LevelM      *float64

	// Extras keeps the raw upstream sub-documents used to derive the values,
	// for audit when the field-path heuristics misfire.
	Extras map[string]any
}
