package db

import (
	"context"
	"encoding/json"
	"time"
)

// WeatherItem is one weather reading as served by the query endpoints.
type WeatherItem struct {
	ID      int64     `json:"id"`
	Station string    `json:"station"`
	Instant time.Time `json:"instant"`

	TempC       *float64 `json:"temp_c,omitempty"`
	FeelsLikeC  *float64 `json:"feels_like_c,omitempty"`
	DewPointC   *float64 `json:"dew_point_c,omitempty"`
	HumidityPct *int     `json:"humidity_pct,omitempty"`

	SolarWM2 *float64 `json:"solar_wm2,omitempty"`
	UVIndex  *int     `json:"uv_index,omitempty"`

	RainRateMMH   *float64 `json:"rain_rate_mmh,omitempty"`
	RainDailyMM   *float64 `json:"rain_daily_mm,omitempty"`
	RainEventMM   *float64 `json:"rain_event_mm,omitempty"`
	RainHourlyMM  *float64 `json:"rain_hourly_mm,omitempty"`
	RainWeeklyMM  *float64 `json:"rain_weekly_mm,omitempty"`
	RainMonthlyMM *float64 `json:"rain_monthly_mm,omitempty"`
	RainYearlyMM  *float64 `json:"rain_yearly_mm,omitempty"`

	WindMS     *float64 `json:"wind_ms,omitempty"`
	WindGustMS *float64 `json:"wind_gust_ms,omitempty"`
	WindDirDeg *int     `json:"wind_dir_deg,omitempty"`

	PressureRelHPa *float64 `json:"pressure_rel_hpa,omitempty"`
	PressureAbsHPa *float64 `json:"pressure_abs_hpa,omitempty"`

	BatteryPct *int            `json:"battery_pct,omitempty"`
	Extras     json.RawMessage `json:"extras,omitempty"`
}

const latestWeatherSQL = `
    SELECT m.id, s.code, m.instant,
           m.temp_c, m.feels_like_c, m.dew_point_c, m.humidity_pct,
           m.solar_wm2, m.uv_index,
           m.rain_rate_mmh, m.rain_daily_mm, m.rain_event_mm, m.rain_hourly_mm,
           m.rain_weekly_mm, m.rain_monthly_mm, m.rain_yearly_mm,
           m.wind_ms, m.wind_gust_ms, m.wind_dir_deg,
           m.pressure_rel_hpa, m.pressure_abs_hpa,
           m.battery_pct, m.extras
    FROM weather_readings m
    JOIN stations s ON s.id = m.station_id
    WHERE ($1::text IS NULL OR s.code = $1)
    ORDER BY m.instant DESC
    LIMIT $2
`

// LatestWeather returns the most recent weather readings, optionally
// filtered by station code.
func (s *Store) LatestWeather(ctx context.Context, station *string, limit int) ([]WeatherItem, error) {
	rows, err := s.pool.Query(ctx, latestWeatherSQL, station, limit)
	if err != nil {
		return nil, &StorageError{Op: "latest weather", Err: err}
	}
	defer rows.Close()

	items := make([]WeatherItem, 0)
	for rows.Next() {
		var it WeatherItem
		if err := rows.Scan(
			&it.ID, &it.Station, &it.Instant,
			&it.TempC, &it.FeelsLikeC, &it.DewPointC, &it.HumidityPct,
			&it.SolarWM2, &it.UVIndex,
			&it.RainRateMMH, &it.RainDailyMM, &it.RainEventMM, &it.RainHourlyMM,
			&it.RainWeeklyMM, &it.RainMonthlyMM, &it.RainYearlyMM,
			&it.WindMS, &it.WindGustMS, &it.WindDirDeg,
			&it.PressureRelHPa, &it.PressureAbsHPa,
			&it.BatteryPct, &it.Extras,
		); err != nil {
			return nil, &StorageError{Op: "latest weather scan", Err: err}
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "latest weather rows", Err: err}
	}
	return items, nil
}

// HydroItem is one hydro reading joined with its point metadata.
type HydroItem struct {
	ID          int64           `json:"id"`
	Code        string          `json:"code"`
	Name        *string         `json:"name,omitempty"`
	Type        string          `json:"type"`
	Instant     time.Time       `json:"instant"`
	FlowM3s     *float64        `json:"flow_m3s,omitempty"`
	CapacityPct *float64        `json:"capacity_pct,omitempty"`
	LevelM      *float64        `json:"level_m,omitempty"`
	Extras      json.RawMessage `json:"extras,omitempty"`
}

const latestHydroSQL = `
    SELECT h.id, p.code, p.name, p.type, h.instant,
           h.flow_m3s, h.capacity_pct, h.level_m, h.extras
    FROM hydro_readings h
    JOIN hydro_points p ON p.id = h.point_id
    WHERE ($1::text IS NULL OR p.code = $1)
    ORDER BY h.instant DESC
    LIMIT $2
`

// LatestHydro returns the most recent hydrology readings, optionally
// filtered by point code.
func (s *Store) LatestHydro(ctx context.Context, code *string, limit int) ([]HydroItem, error) {
	rows, err := s.pool.Query(ctx, latestHydroSQL, code, limit)
	if err != nil {
		return nil, &StorageError{Op: "latest hydro", Err: err}
	}
	defer rows.Close()

	items := make([]HydroItem, 0)
	for rows.Next() {
		var it HydroItem
		if err := rows.Scan(
			&it.ID, &it.Code, &it.Name, &it.Type, &it.Instant,
			&it.FlowM3s, &it.CapacityPct, &it.LevelM, &it.Extras,
		); err != nil {
			return nil, &StorageError{Op: "latest hydro scan", Err: err}
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "latest hydro rows", Err: err}
	}
	return items, nil
}
