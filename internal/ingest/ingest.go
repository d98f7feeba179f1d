// Package ingest implements the normalization pipeline: it pulls the two
// upstream providers, flattens their loosely-structured payloads into the
// canonical schema and persists them through conflict-tolerant upserts.
package ingest

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/tecnolord/meteohub/internal/config"
	"github.com/tecnolord/meteohub/internal/db"
	"github.com/tecnolord/meteohub/internal/provider"
)

// Store is the slice of the database layer the importers need. *db.Store
// satisfies it; tests plug in an in-memory fake.
type Store interface {
	EnsurePrincipal(ctx context.Context, email string) (int64, error)
	EnsureStation(ctx context.Context, code string, name *string, createdBy *int64) (int64, error)
	EnsureMembership(ctx context.Context, userID, stationID int64, role string) error
	EnsureHydroPoint(ctx context.Context, code, pointType string, name *string) (int64, error)
	InsertWeatherReading(ctx context.Context, r db.WeatherReading) (*int64, error)
	UpsertHydroReading(ctx context.Context, r db.HydroReading) (int64, error)
}

// WeatherProvider fetches the realtime weather-station document.
type WeatherProvider interface {
	FetchRealtime(ctx context.Context) (any, error)
}

// HydroProvider fetches the flow and capacity feeds.
type HydroProvider interface {
	FetchFeeds(ctx context.Context) (provider.ACAFeeds, error)
}

// Runner orchestrates the two importers. Each invocation runs to completion
// as one logical unit of work; scheduling is external.
type Runner struct {
	store   Store
	weather WeatherProvider
	hydro   HydroProvider
	cfg     config.Config
	log     *zap.Logger
	now     func() time.Time
	dryRun  bool
}

// NewRunner wires the importers with their collaborators.
func NewRunner(store Store, weather WeatherProvider, hydro HydroProvider, cfg config.Config, log *zap.Logger) *Runner {
	return &Runner{
		store:   store,
		weather: weather,
		hydro:   hydro,
		cfg:     cfg,
		log:     log,
		now:     time.Now,
		dryRun:  cfg.DryRun,
	}
}

// WeatherResult summarizes one weather pull. A nil ID means the reading for
// this (station, instant) already existed. JSON keys match the wire contract
// consumed by existing clients.
type WeatherResult struct {
	ID      *int64    `json:"id"`
	Station string    `json:"estacio"`
	Instant time.Time `json:"instant"`
}

// Created reports whether a new weather row was written.
func (r WeatherResult) Created() bool { return r.ID != nil }

// HydroInsert summarizes one processed monitoring point. Skipped points are
// absent from the result, not represented as failures.
type HydroInsert struct {
	Code        string    `json:"codi"`
	ID          int64     `json:"id"`
	FlowM3s     *float64  `json:"cabal_m3s"`
	CapacityPct *float64  `json:"capacitat_pct"`
	LevelM      *float64  `json:"nivell_m"`
	Instant     time.Time `json:"ts"`
}

// HydroResult summarizes one hydrology pull.
type HydroResult struct {
	OK      bool          `json:"ok"`
	Inserts []HydroInsert `json:"inserts"`
}

// PullSummary bundles the two importer summaries for the combined task.
type PullSummary struct {
	Meteo WeatherResult `json:"meteo"`
	Hidro HydroResult   `json:"hidro"`
}

// PullAll runs the weather importer followed unconditionally by the
// hydrology importer. Either failure aborts the run.
func (r *Runner) PullAll(ctx context.Context) (PullSummary, error) {
	meteo, err := r.PullWeather(ctx)
	if err != nil {
		return PullSummary{}, err
	}
	hidro, err := r.PullHydro(ctx)
	if err != nil {
		return PullSummary{}, err
	}
	return PullSummary{Meteo: meteo, Hidro: hidro}, nil
}
