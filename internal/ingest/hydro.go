package ingest

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/tecnolord/meteohub/internal/config"
	"github.com/tecnolord/meteohub/internal/db"
	"github.com/tecnolord/meteohub/internal/jsonpath"
	"github.com/tecnolord/meteohub/internal/units"
)

// The ACA feeds rename their containers and leaves across deployments and
// locales. These are the historically-observed variants; new ones get
// appended, never branched on per version.
var (
	flowPaths = []jsonpath.Path{
		{"popup", "river_flow", "value"},
		{"popup", "flux_riu", "value"},
		{"popup", "cabal_riu", "value"},
		{"finestra emergent", "river_flow", "valor"},
		{"finestra emergent", "flux_riu", "valor"},
		{"finestra emergent", "cabal_riu", "valor"},
		{"emergent", "river_flow", "valor"},
		{"emergent", "flux_riu", "valor"},
		{"emergent", "cabal_riu", "valor"},
		{"finestra", "flux_riu", "valor"},
		{"finestra", "cabal_riu", "valor"},
	}

	capacityPaths = []jsonpath.Path{
		{"popup", "capacity", "value"},
		{"popup", "capacitat", "valor"},
		{"finestra emergent", "capacitat", "valor"},
		{"emergent", "capacitat", "valor"},
		{"element emergent", "capacitat", "valor"},
	}

	levelPaths = []jsonpath.Path{
		{"popup", "level", "value"},
		{"finestra emergent", "nivell", "valor"},
		{"emergent", "nivell", "valor"},
	}

	flowTimePaths = []jsonpath.Path{
		{"popup", "river_flow", "time"},
		{"popup", "flux_riu", "time"},
		{"popup", "cabal_riu", "time"},
		{"finestra emergent", "river_flow", "hora"},
		{"finestra emergent", "flux_riu", "hora"},
		{"finestra emergent", "cabal_riu", "hora"},
		{"emergent", "river_flow", "hora"},
		{"emergent", "flux_riu", "hora"},
		{"emergent", "cabal_riu", "hora"},
	}

	capacityTimePaths = []jsonpath.Path{
		{"popup", "capacity", "time"},
		{"popup", "capacitat", "hora"},
		{"finestra emergent", "capacitat", "hora"},
		{"emergent", "capacitat", "hora"},
		{"element emergent", "capacitat", "hora"},
	}
)

// PullHydro fetches the flow and capacity feeds (all-or-nothing), resolves
// every configured monitoring point against both, and upserts one reading
// per point with field-by-field merge semantics. A point with no resolvable
// value is logged and skipped; it never aborts the run.
func (r *Runner) PullHydro(ctx context.Context) (HydroResult, error) {
	feeds, err := r.hydro.FetchFeeds(ctx)
	if err != nil {
		return HydroResult{}, err
	}

	fallback := r.now().UTC().Truncate(time.Second)
	inserts := make([]HydroInsert, 0, len(r.cfg.HydroPoints))

	for _, pt := range r.cfg.HydroPoints {
		var riverDoc, reservoirDoc any
		if pt.FlowKey != "" {
			riverDoc = feeds.Rivers[pt.FlowKey]
		}
		if pt.CapacityKey != "" {
			reservoirDoc = feeds.Reservoirs[pt.CapacityKey]
		}

		flow := units.ToFloat(jsonpath.Resolve(riverDoc, flowPaths))
		capacity := units.ToFloat(jsonpath.Resolve(reservoirDoc, capacityPaths))
		level := units.ToFloat(jsonpath.Resolve(reservoirDoc, levelPaths))

		if flow == nil && capacity == nil && level == nil {
			r.log.Warn("no values resolved for hydro point",
				zap.String("code", pt.Code),
				zap.String("flow_key", pt.FlowKey),
				zap.String("capacity_key", pt.CapacityKey))
			continue
		}

		instant := hydroInstant(riverDoc, reservoirDoc, fallback)
		pointType := classifyPoint(flow, capacity, pt)

		if r.dryRun {
			r.log.Info("dry-run: skipping hydro persistence",
				zap.String("code", pt.Code),
				zap.String("type", pointType),
				zap.Time("instant", instant),
				zap.Float64p("flow_m3s", flow),
				zap.Float64p("capacity_pct", capacity),
				zap.Float64p("level_m", level))
			continue
		}

		var name *string
		if pt.Name != "" {
			name = &pt.Name
		}
		pointID, err := r.store.EnsureHydroPoint(ctx, pt.Code, pointType, name)
		if err != nil {
			return HydroResult{}, err
		}

		id, err := r.store.UpsertHydroReading(ctx, db.HydroReading{
			PointID:     pointID,
			Instant:     instant,
			FlowM3s:     flow,
			CapacityPct: capacity,
			LevelM:      level,
			Extras: map[string]any{
				"river_raw":     riverDoc,
				"reservoir_raw": reservoirDoc,
			},
		})
		if err != nil {
			return HydroResult{}, err
		}

		r.log.Info("hydro reading upserted",
			zap.Int64("id", id),
			zap.String("code", pt.Code),
			zap.Time("instant", instant))

		inserts = append(inserts, HydroInsert{
			Code:        pt.Code,
			ID:          id,
			FlowM3s:     flow,
			CapacityPct: capacity,
			LevelM:      level,
			Instant:     instant,
		})
	}

	return HydroResult{OK: true, Inserts: inserts}, nil
}

// hydroInstant prefers the flow feed's observation time, then the capacity
// feed's, then the wall-clock fallback.
func hydroInstant(riverDoc, reservoirDoc any, fallback time.Time) time.Time {
	if ts, ok := parseInstant(jsonpath.Resolve(riverDoc, flowTimePaths)); ok {
		return ts
	}
	if ts, ok := parseInstant(jsonpath.Resolve(reservoirDoc, capacityTimePaths)); ok {
		return ts
	}
	return fallback
}

var instantLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"02/01/2006 15:04",
}

// parseInstant accepts the timestamp shapes the feeds have been seen to
// emit: epoch seconds or a handful of date-time string layouts (zoneless
// values are taken as UTC).
func parseInstant(v any) (time.Time, bool) {
	switch x := v.(type) {
	case float64:
		return time.Unix(int64(x), 0).UTC(), true
	case string:
		for _, layout := range instantLayouts {
			if ts, err := time.ParseInLocation(layout, x, time.UTC); err == nil {
				return ts.UTC(), true
			}
		}
	}
	return time.Time{}, false
}

// classifyPoint decides the point's type from which feeds produced a value:
// flow-only means a river gauge, capacity-only a reservoir, anything else
// keeps the configured preference.
func classifyPoint(flow, capacity *float64, pt config.HydroPoint) string {
	switch {
	case flow != nil && capacity == nil:
		return "river"
	case capacity != nil && flow == nil:
		return "reservoir"
	case pt.PreferredType != "":
		return pt.PreferredType
	default:
		return "reservoir"
	}
}
