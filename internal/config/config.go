package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultEcowittBaseURL  = "https://api.ecowitt.net/api/v3/device/real_time"
	defaultRiverFlowURL    = "http://aplicacions.aca.gencat.cat/aetr/vishid/v2/data/public/rivergauges/river_flow_6min"
	defaultReservoirCapURL = "http://aplicacions.aca.gencat.cat/aetr/vishid/v2/data/public/reservoir/capacity_6min"
	defaultAdminEmail      = "admin@example.com"
	defaultStationCode     = "home"
	defaultRequestTimeout  = 30 * time.Second
	maxHydroPoints         = 3
)

// Ecowitt holds the weather provider credentials and unit selectors sent as
// query parameters on every pull.
type Ecowitt struct {
	BaseURL        string
	ApplicationKey string
	APIKey         string
	MAC            string
	TempUnitID     string
	WindUnitID     string
	RainUnitID     string
	PressureUnitID string
}

// HydroPoint names one monitored site. FlowKey and CapacityKey index the
// site in the flow and capacity feeds respectively; they can differ because
// one physical site may be registered under a different code in each feed.
// An empty key skips that feed for the point.
type HydroPoint struct {
	Code          string
	Name          string
	PreferredType string
	FlowKey       string
	CapacityKey   string
}

// Config holds environment-driven settings for both binaries.
type Config struct {
	DatabaseURL    string
	Port           int
	StaticDir      string
	IngestAPIKey   string
	AdminEmail     string
	StationCode    string
	StationName    string
	Ecowitt        Ecowitt
	RiverFlowURL   string
	ReservoirURL   string
	HydroPoints    []HydroPoint
	RequestTimeout time.Duration
	PullInterval   time.Duration
	DryRun         bool
	LogLevel       string
	LogFormat      string
}

// Load reads configuration from environment variables (optionally .env).
func Load() (Config, error) {
	_ = godotenv.Load() // ignore missing file

	cfg := Config{
		Port:           8080,
		AdminEmail:     defaultAdminEmail,
		StationCode:    defaultStationCode,
		RiverFlowURL:   defaultRiverFlowURL,
		ReservoirURL:   defaultReservoirCapURL,
		RequestTimeout: defaultRequestTimeout,
		LogLevel:       "info",
		LogFormat:      "json",
	}

	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if cfg.DatabaseURL == "" {
		return cfg, errors.New("DATABASE_URL is required")
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil || port <= 0 {
			return cfg, fmt.Errorf("invalid PORT: %s", portStr)
		}
		cfg.Port = port
	}

	cfg.StaticDir = os.Getenv("STATIC_DIR")
	cfg.IngestAPIKey = os.Getenv("INGEST_API_KEY")

	if v := os.Getenv("ADMIN_EMAIL"); v != "" {
		cfg.AdminEmail = v
	}
	if v := firstEnv("STATION_CODE", "STATION_ID"); v != "" {
		cfg.StationCode = v
	}
	cfg.StationName = os.Getenv("STATION_NAME")

	cfg.Ecowitt = Ecowitt{
		BaseURL:        envOr("ECW_BASE_URL", defaultEcowittBaseURL),
		ApplicationKey: os.Getenv("ECW_APPLICATION_KEY"),
		APIKey:         os.Getenv("ECW_API_KEY"),
		MAC:            os.Getenv("ECW_MAC"),
		TempUnitID:     envOr("ECW_TEMP_UNITID", "1"),
		WindUnitID:     envOr("ECW_WIND_SPEED_UNITID", "8"),
		RainUnitID:     envOr("ECW_RAINFALL_UNITID", "12"),
		PressureUnitID: envOr("ECW_PRESSURE_UNITID", "3"),
	}

	if v := os.Getenv("ACA_RIVER_URL"); v != "" {
		cfg.RiverFlowURL = v
	}
	if v := os.Getenv("ACA_RESERVOIR_URL"); v != "" {
		cfg.ReservoirURL = v
	}
	cfg.HydroPoints = loadHydroPoints()

	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid REQUEST_TIMEOUT: %w", err)
		}
		cfg.RequestTimeout = d
	}

	if v := os.Getenv("PULL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid PULL_INTERVAL: %w", err)
		}
		cfg.PullInterval = d
	}

	dryRun := strings.TrimSpace(os.Getenv("DRY_RUN"))
	cfg.DryRun = dryRun == "1" || strings.EqualFold(dryRun, "true")

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}

	return cfg, nil
}

// loadHydroPoints reads up to three monitoring points from indexed env vars
// (ACA_POINT_1_CODE, ACA_POINT_1_NAME, ...). A point without a code is
// skipped. Flow/capacity lookup keys default to the site code.
func loadHydroPoints() []HydroPoint {
	points := make([]HydroPoint, 0, maxHydroPoints)
	for i := 1; i <= maxHydroPoints; i++ {
		prefix := fmt.Sprintf("ACA_POINT_%d_", i)
		code := strings.TrimSpace(os.Getenv(prefix + "CODE"))
		if code == "" {
			continue
		}
		p := HydroPoint{
			Code:          code,
			Name:          os.Getenv(prefix + "NAME"),
			PreferredType: envOr(prefix+"TYPE", "reservoir"),
			FlowKey:       envOr(prefix+"FLOW_KEY", code),
			CapacityKey:   os.Getenv(prefix + "CAP_KEY"),
		}
		// River gauges are not indexed in the capacity feed; only default
		// the capacity key for reservoir points.
		if p.CapacityKey == "" && p.PreferredType == "reservoir" {
			p.CapacityKey = code
		}
		points = append(points, p)
	}
	return points
}

// ListenAddr returns the host:port string for the HTTP server.
func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
