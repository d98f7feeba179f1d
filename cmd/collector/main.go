// The collector pulls both providers once and exits, which suits an external
// cron trigger. With PULL_INTERVAL set it instead schedules the pull
// internally and blocks until SIGINT/SIGTERM.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/tecnolord/meteohub/internal/config"
	"github.com/tecnolord/meteohub/internal/db"
	"github.com/tecnolord/meteohub/internal/ingest"
	"github.com/tecnolord/meteohub/internal/logger"
	"github.com/tecnolord/meteohub/internal/provider"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("collector failed: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	zlog, err := logger.New(cfg.LogLevel, cfg.LogFormat, "meteohub-collector")
	if err != nil {
		return err
	}
	defer zlog.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close()

	ecowitt := provider.NewEcowittClient(cfg.Ecowitt, cfg.RequestTimeout)
	aca := provider.NewACAClient(cfg.RiverFlowURL, cfg.ReservoirURL, cfg.RequestTimeout)
	runner := ingest.NewRunner(store, ecowitt, aca, cfg, zlog)

	if cfg.PullInterval <= 0 {
		return pullOnce(ctx, runner, cfg, zlog)
	}

	scheduler := gocron.NewScheduler(time.UTC)
	_, err = scheduler.Every(cfg.PullInterval).Do(func() {
		if err := pullOnce(ctx, runner, cfg, zlog); err != nil {
			zlog.Error("scheduled pull failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}

	zlog.Info("collector scheduled", zap.Duration("interval", cfg.PullInterval))
	scheduler.StartAsync()

	<-ctx.Done()
	scheduler.Stop()
	return nil
}

func pullOnce(ctx context.Context, runner *ingest.Runner, cfg config.Config, zlog *zap.Logger) error {
	pullCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout+30*time.Second)
	defer cancel()

	summary, err := runner.PullAll(pullCtx)
	if err != nil {
		return err
	}

	zlog.Info("pull completed",
		zap.Bool("weather_created", summary.Meteo.Created()),
		zap.String("station", summary.Meteo.Station),
		zap.Time("instant", summary.Meteo.Instant),
		zap.Int("hydro_points", len(summary.Hidro.Inserts)),
		zap.Bool("dry_run", cfg.DryRun))
	return nil
}
