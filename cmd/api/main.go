package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/tecnolord/meteohub/internal/config"
	"github.com/tecnolord/meteohub/internal/db"
	"github.com/tecnolord/meteohub/internal/httpserver"
	"github.com/tecnolord/meteohub/internal/ingest"
	"github.com/tecnolord/meteohub/internal/logger"
	"github.com/tecnolord/meteohub/internal/provider"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel, cfg.LogFormat, "meteohub-api")
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zlog.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		zlog.Fatal("db connection error", zap.Error(err))
	}
	defer store.Close()

	ecowitt := provider.NewEcowittClient(cfg.Ecowitt, cfg.RequestTimeout)
	aca := provider.NewACAClient(cfg.RiverFlowURL, cfg.ReservoirURL, cfg.RequestTimeout)
	runner := ingest.NewRunner(store, ecowitt, aca, cfg, zlog)

	srv := httpserver.New(cfg, store, runner, zlog)
	zlog.Info("REST API listening", zap.String("addr", cfg.ListenAddr()))

	if err := srv.Run(ctx); err != nil {
		zlog.Fatal("server error", zap.Error(err))
	}
}
