package httpserver

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultListLimit = 50
	maxListLimit     = 1000
	pullTimeout      = 90 * time.Second
	queryTimeout     = 10 * time.Second
)

func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "ok"
	if err := s.store.Ping(ctx); err != nil {
		dbStatus = "down"
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":   true,
		"db":   dbStatus,
		"time": time.Now().UTC().Format(time.RFC3339),
	})
}

// handlePullAll runs the weather importer and then, unconditionally, the
// hydrology importer. 201 signals a freshly created weather row; 200 means
// the reading was already known.
func (s *Server) handlePullAll(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), pullTimeout)
	defer cancel()

	summary, err := s.runner.PullAll(ctx)
	if err != nil {
		s.log.Error("pull-ecowitt failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "pull failed"})
		return
	}

	status := http.StatusOK
	if summary.Meteo.Created() {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"ok": true, "meteo": summary.Meteo, "hidro": summary.Hidro})
}

// handlePullHydro runs the hydrology importer alone. Per-point skips are not
// failures, so success is always 201.
func (s *Server) handlePullHydro(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), pullTimeout)
	defer cancel()

	hidro, err := s.runner.PullHydro(ctx)
	if err != nil {
		s.log.Error("pull-aca failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "pull aca failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "hidro": hidro})
}

func (s *Server) handleLatestWeather(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	items, err := s.store.LatestWeather(ctx, optionalQuery(c, "station"), listLimit(c))
	if err != nil {
		s.log.Error("latest weather query failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "db query error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "items": items})
}

func (s *Server) handleLatestHydro(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	items, err := s.store.LatestHydro(ctx, optionalQuery(c, "point"), listLimit(c))
	if err != nil {
		s.log.Error("latest hydro query failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "db query error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "items": items})
}

func optionalQuery(c *gin.Context, name string) *string {
	if v := c.Query(name); v != "" {
		return &v
	}
	return nil
}

func listLimit(c *gin.Context) int {
	limit := defaultListLimit
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return limit
}
