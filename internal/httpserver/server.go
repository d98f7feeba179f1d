// Package httpserver wires the REST API: query endpoints, health, and the
// API-key-gated ingestion task routes.
package httpserver

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tecnolord/meteohub/internal/config"
	"github.com/tecnolord/meteohub/internal/db"
	"github.com/tecnolord/meteohub/internal/ingest"
)

// Ingestor is the orchestrator surface the task routes invoke.
type Ingestor interface {
	PullAll(ctx context.Context) (ingest.PullSummary, error)
	PullHydro(ctx context.Context) (ingest.HydroResult, error)
}

// QueryStore is the read-side of the database layer used by the handlers.
type QueryStore interface {
	Ping(ctx context.Context) error
	LatestWeather(ctx context.Context, station *string, limit int) ([]db.WeatherItem, error)
	LatestHydro(ctx context.Context, code *string, limit int) ([]db.HydroItem, error)
}

// Server bundles router and dependencies for the REST API.
type Server struct {
	cfg    config.Config
	store  QueryStore
	runner Ingestor
	log    *zap.Logger
	engine *gin.Engine
}

// New constructs a server with routes and middleware.
func New(cfg config.Config, store QueryStore, runner Ingestor, log *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(log))
	engine.Use(corsMiddleware())

	server := &Server{cfg: cfg, store: store, runner: runner, log: log, engine: engine}
	server.registerRoutes()
	return server
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run starts the HTTP server and blocks until shutdown.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.ListenAddr(),
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/api/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "msg": "pong"})
	})

	s.engine.GET("/api/v1/weather/latest", s.handleLatestWeather)
	s.engine.GET("/api/v1/hydro/latest", s.handleLatestHydro)

	tasks := s.engine.Group("/", s.requireAPIKey())
	tasks.POST("/tasks/pull-ecowitt", s.handlePullAll)
	tasks.POST("/api/tasks/pull-ecowitt", s.handlePullAll)
	tasks.POST("/tasks/pull-aca", s.handlePullHydro)
	tasks.POST("/api/tasks/pull-aca", s.handlePullHydro)

	if s.cfg.StaticDir != "" {
		s.engine.StaticFile("/", filepath.Join(s.cfg.StaticDir, "index.html"))
		s.engine.Static("/frontend", s.cfg.StaticDir)
	}
}

// requireAPIKey rejects task invocations before any importer runs: 500 when
// the shared secret is unconfigured, 401 when the supplied key mismatches.
func (s *Server) requireAPIKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.cfg.IngestAPIKey == "" {
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				gin.H{"ok": false, "error": "server missing INGEST_API_KEY"})
			return
		}
		key := c.GetHeader("x-api-key")
		if key == "" {
			key = c.Query("key")
		}
		if key != s.cfg.IngestAPIKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				gin.H{"ok": false, "error": "invalid api key"})
			return
		}
		c.Next()
	}
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := uuid.NewString()
		c.Header("X-Request-Id", requestID)

		c.Next()

		log.Info("http request",
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)))
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, x-api-key")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
