package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

const insertWeatherReadingSQL = `
INSERT INTO weather_readings (
    station_id, instant,
    temp_c, feels_like_c, dew_point_c, humidity_pct,
    solar_wm2, uv_index,
    rain_rate_mmh, rain_daily_mm, rain_event_mm, rain_hourly_mm,
    rain_weekly_mm, rain_monthly_mm, rain_yearly_mm,
    wind_ms, wind_gust_ms, wind_dir_deg,
    pressure_rel_hpa, pressure_abs_hpa,
    battery_pct,
    extras
) VALUES (
    $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22
)
ON CONFLICT (station_id, instant) DO NOTHING
RETURNING id`

// InsertWeatherReading persists one weather observation. Readings are
// immutable: a second insert for the same (station, instant) is silently
// absorbed and reported with a nil id so callers can distinguish created
// from already-known.
func (s *Store) InsertWeatherReading(ctx context.Context, r WeatherReading) (*int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, insertWeatherReadingSQL,
		r.StationID, r.Instant,
		r.TempC, r.FeelsLikeC, r.DewPointC, r.HumidityPct,
		r.SolarWM2, r.UVIndex,
		r.RainRateMMH, r.RainDailyMM, r.RainEventMM, r.RainHourlyMM,
		r.RainWeeklyMM, r.RainMonthlyMM, r.RainYearlyMM,
		r.WindMS, r.WindGustMS, r.WindDirDeg,
		r.PressureRelHPa, r.PressureAbsHPa,
		r.BatteryPct,
		r.Extras,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		// Conflict: DO NOTHING emits no row through RETURNING.
		return nil, nil
	}
	if err != nil {
		return nil, &StorageError{Op: "insert weather reading", Err: err}
	}
	return &id, nil
}

const upsertHydroReadingSQL = `
INSERT INTO hydro_readings (point_id, instant, flow_m3s, capacity_pct, level_m, extras)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (point_id, instant) DO UPDATE
SET flow_m3s     = COALESCE(hydro_readings.flow_m3s, EXCLUDED.flow_m3s),
    capacity_pct = COALESCE(hydro_readings.capacity_pct, EXCLUDED.capacity_pct),
    level_m      = COALESCE(hydro_readings.level_m, EXCLUDED.level_m),
    extras       = COALESCE(hydro_readings.extras, EXCLUDED.extras)
RETURNING id`

// UpsertHydroReading persists one hydrology observation. Flow and capacity
// arrive from independently-polled feeds that may land imbalanced, so a
// conflicting insert merges field by field: each stored value is kept unless
// it is currently null (first writer wins per field).
func (s *Store) UpsertHydroReading(ctx context.Context, r HydroReading) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, upsertHydroReadingSQL,
		r.PointID, r.Instant, r.FlowM3s, r.CapacityPct, r.LevelM, r.Extras,
	).Scan(&id)
	if err != nil {
		return 0, &StorageError{Op: "upsert hydro reading", Err: err}
	}
	return id, nil
}
