package ingest

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/tecnolord/meteohub/internal/db"
	"github.com/tecnolord/meteohub/internal/jsonpath"
	"github.com/tecnolord/meteohub/internal/units"
)

// PullWeather fetches one realtime document from the weather provider,
// normalizes it and persists it with insert-or-skip semantics on
// (station, instant).
func (r *Runner) PullWeather(ctx context.Context) (WeatherResult, error) {
	// Identity rows are committed before the fetch. A failed fetch leaves
	// them in place, which is a documented, retry-safe partial effect.
	var stationID int64
	if !r.dryRun {
		adminID, err := r.store.EnsurePrincipal(ctx, r.cfg.AdminEmail)
		if err != nil {
			return WeatherResult{}, err
		}
		var name *string
		if r.cfg.StationName != "" {
			name = &r.cfg.StationName
		}
		stationID, err = r.store.EnsureStation(ctx, r.cfg.StationCode, name, &adminID)
		if err != nil {
			return WeatherResult{}, err
		}
		if err := r.store.EnsureMembership(ctx, adminID, stationID, "owner"); err != nil {
			return WeatherResult{}, err
		}
	}

	doc, err := r.weather.FetchRealtime(ctx)
	if err != nil {
		return WeatherResult{}, err
	}

	instant := r.weatherInstant(doc)

	if r.dryRun {
		r.log.Info("dry-run: skipping weather persistence",
			zap.String("station", r.cfg.StationCode),
			zap.Time("instant", instant))
		return WeatherResult{Station: r.cfg.StationCode, Instant: instant}, nil
	}

	reading := buildWeatherReading(stationID, instant, doc)
	id, err := r.store.InsertWeatherReading(ctx, reading)
	if err != nil {
		return WeatherResult{}, err
	}

	if id == nil {
		r.log.Info("weather reading already known",
			zap.String("station", r.cfg.StationCode),
			zap.Time("instant", instant))
	} else {
		r.log.Info("weather reading stored",
			zap.Int64("id", *id),
			zap.String("station", r.cfg.StationCode),
			zap.Time("instant", instant))
	}

	return WeatherResult{ID: id, Station: r.cfg.StationCode, Instant: instant}, nil
}

// weatherInstant derives the canonical timestamp from the provider's
// top-level epoch-seconds field. A missing or unparseable value falls back
// to the current wall clock so a provider hiccup never blocks ingestion.
func (r *Runner) weatherInstant(doc any) time.Time {
	if sec := units.ToFloat(jsonpath.First(doc, jsonpath.Path{"time"})); sec != nil {
		return time.Unix(int64(*sec), 0).UTC()
	}
	return r.now().UTC().Truncate(time.Second)
}

// buildWeatherReading extracts the modeled fields. The provider's schema is
// stable, so each field maps to a single fixed path.
func buildWeatherReading(stationID int64, instant time.Time, doc any) db.WeatherReading {
	leaf := func(keys ...string) any {
		return jsonpath.First(doc, jsonpath.Path(keys))
	}

	reading := db.WeatherReading{
		StationID: stationID,
		Instant:   instant,

		TempC:       units.ToFloat(leaf("data", "outdoor", "temperature", "value")),
		FeelsLikeC:  units.ToFloat(leaf("data", "outdoor", "feels_like", "value")),
		DewPointC:   units.ToFloat(leaf("data", "outdoor", "dew_point", "value")),
		HumidityPct: units.ToInt(leaf("data", "outdoor", "humidity", "value")),

		SolarWM2: units.ToFloat(leaf("data", "solar_and_uvi", "solar", "value")),
		UVIndex:  units.ToInt(leaf("data", "solar_and_uvi", "uvi", "value")),

		RainRateMMH:   units.ToFloat(leaf("data", "rainfall", "rain_rate", "value")),
		RainDailyMM:   units.ToFloat(leaf("data", "rainfall", "daily", "value")),
		RainEventMM:   units.ToFloat(leaf("data", "rainfall", "event", "value")),
		RainHourlyMM:  units.ToFloat(leaf("data", "rainfall", "1_hour", "value")),
		RainWeeklyMM:  units.ToFloat(leaf("data", "rainfall", "weekly", "value")),
		RainMonthlyMM: units.ToFloat(leaf("data", "rainfall", "monthly", "value")),
		RainYearlyMM:  units.ToFloat(leaf("data", "rainfall", "yearly", "value")),

		WindMS:     units.KmhToMs(leaf("data", "wind", "wind_speed", "value")),
		WindGustMS: units.KmhToMs(leaf("data", "wind", "wind_gust", "value")),
		WindDirDeg: units.ToInt(leaf("data", "wind", "wind_direction", "value")),

		PressureRelHPa: units.ToFloat(leaf("data", "pressure", "relative", "value")),
		PressureAbsHPa: units.ToFloat(leaf("data", "pressure", "absolute", "value")),

		BatteryPct: batteryIndicator(leaf("data", "battery", "sensor_array", "value")),

		// Not-yet-modeled blocks ride along for later schema work.
		Extras: map[string]any{"indoor": jsonpath.First(doc, jsonpath.Path{"data", "indoor"})},
	}

	return reading
}

// batteryIndicator maps the boolean-like sensor_array flag onto a coarse
// 0/100 percentage. The device does not report a real battery level.
func batteryIndicator(v any) *int {
	n := units.ToInt(v)
	if n == nil {
		return nil
	}
	pct := 0
	if *n != 0 {
		pct = 100
	}
	return &pct
}
