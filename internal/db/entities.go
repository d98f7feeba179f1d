package db

import (
	"context"
)

// The ensure helpers are idempotent and race-safe: the unique constraint plus
// the conflict clause guarantee exactly one logical row per natural key, and
// RETURNING hands losers of a concurrent race the winner's id.

const ensurePrincipalSQL = `
INSERT INTO users (email, name, active)
VALUES ($1, $2, true)
ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
RETURNING id`

// EnsurePrincipal inserts the admin/owner user if absent and returns its id.
// The display name is seeded from the email on first creation and never
// touched on conflict.
func (s *Store) EnsurePrincipal(ctx context.Context, email string) (int64, error) {
	var id int64
	if err := s.pool.QueryRow(ctx, ensurePrincipalSQL, email, email).Scan(&id); err != nil {
		return 0, &StorageError{Op: "ensure principal", Err: err}
	}
	return id, nil
}

const ensureStationSQL = `
INSERT INTO stations (code, name, created_by)
VALUES ($1, $2, $3)
ON CONFLICT (code) DO UPDATE SET name = COALESCE(EXCLUDED.name, stations.name)
RETURNING id`

// EnsureStation upserts a weather station by code. The name is only updated
// when the new value is non-null (coalesce merge).
func (s *Store) EnsureStation(ctx context.Context, code string, name *string, createdBy *int64) (int64, error) {
	var id int64
	if err := s.pool.QueryRow(ctx, ensureStationSQL, code, name, createdBy).Scan(&id); err != nil {
		return 0, &StorageError{Op: "ensure station", Err: err}
	}
	return id, nil
}

const ensureMembershipSQL = `
INSERT INTO station_members (user_id, station_id, role)
VALUES ($1, $2, $3)
ON CONFLICT (user_id, station_id) DO NOTHING`

// EnsureMembership links a user to a station. An existing membership is
// never modified.
func (s *Store) EnsureMembership(ctx context.Context, userID, stationID int64, role string) error {
	if role == "" {
		role = "owner"
	}
	if _, err := s.pool.Exec(ctx, ensureMembershipSQL, userID, stationID, role); err != nil {
		return &StorageError{Op: "ensure membership", Err: err}
	}
	return nil
}

const ensureHydroPointSQL = `
INSERT INTO hydro_points (code, type, name, active)
VALUES ($1, $2, $3, true)
ON CONFLICT (code) DO UPDATE SET name = COALESCE(EXCLUDED.name, hydro_points.name)
RETURNING id`

// EnsureHydroPoint upserts a monitoring point by code with the same coalesce
// rule for the name. The active flag is always true on upsert.
func (s *Store) EnsureHydroPoint(ctx context.Context, code, pointType string, name *string) (int64, error) {
	var id int64
	if err := s.pool.QueryRow(ctx, ensureHydroPointSQL, code, pointType, name).Scan(&id); err != nil {
		return 0, &StorageError{Op: "ensure hydro point", Err: err}
	}
	return id, nil
}
