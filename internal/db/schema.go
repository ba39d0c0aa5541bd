package db

import (
	"context"
	"fmt"
)

// schemaStatements bootstrap the schema on startup. Statements are
// idempotent and run in order; courses.profile holds the ordered
// elevation-point array as JSONB and start_location feeds the nearby
// search.
var schemaStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS postgis`,
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		display_name TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS user_settings (
		user_id UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		distance_unit TEXT NOT NULL DEFAULT 'km',
		default_stoppage_sec DOUBLE PRECISION NOT NULL DEFAULT 60,
		sample_step_m DOUBLE PRECISION NOT NULL DEFAULT 50,
		grade_window_m DOUBLE PRECISION NOT NULL DEFAULT 100,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		token TEXT NOT NULL UNIQUE,
		expires_at TIMESTAMPTZ NOT NULL,
		revoked_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS courses (
		id UUID PRIMARY KEY,
		owner_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		activity TEXT NOT NULL DEFAULT 'run',
		visibility TEXT NOT NULL DEFAULT 'private',
		source_format TEXT NOT NULL,
		total_distance_m DOUBLE PRECISION NOT NULL,
		elevation_gain_m DOUBLE PRECISION NOT NULL,
		elevation_loss_m DOUBLE PRECISION NOT NULL,
		point_count INT NOT NULL,
		profile JSONB NOT NULL,
		start_location GEOGRAPHY(POINT, 4326),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_courses_owner ON courses(owner_id)`,
	`CREATE INDEX IF NOT EXISTS idx_courses_start_location ON courses USING GIST(start_location)`,
	`CREATE TABLE IF NOT EXISTS waypoints (
		id UUID PRIMARY KEY,
		course_id UUID NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		kind TEXT NOT NULL DEFAULT 'checkpoint',
		distance_m DOUBLE PRECISION NOT NULL,
		position INT NOT NULL,
		lat DOUBLE PRECISION NOT NULL,
		lng DOUBLE PRECISION NOT NULL,
		elevation_m DOUBLE PRECISION NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_waypoints_course ON waypoints(course_id)`,
	`CREATE TABLE IF NOT EXISTS plans (
		id UUID PRIMARY KEY,
		course_id UUID NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
		owner_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		pace_mode TEXT NOT NULL DEFAULT 'pace',
		pace_sec_per_unit DOUBLE PRECISION,
		pace_unit TEXT NOT NULL DEFAULT 'per_km',
		target_time_sec DOUBLE PRECISION,
		pacing_strategy TEXT NOT NULL DEFAULT 'flat',
		pacing_linear_pct DOUBLE PRECISION NOT NULL DEFAULT 0,
		default_stoppage_sec DOUBLE PRECISION NOT NULL DEFAULT 60,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_plans_course ON plans(course_id)`,
	`CREATE TABLE IF NOT EXISTS plan_stoppages (
		plan_id UUID NOT NULL REFERENCES plans(id) ON DELETE CASCADE,
		waypoint_id UUID NOT NULL REFERENCES waypoints(id) ON DELETE CASCADE,
		stoppage_sec DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (plan_id, waypoint_id)
	)`,
	`CREATE TABLE IF NOT EXISTS checkins (
		id UUID PRIMARY KEY,
		plan_id UUID NOT NULL REFERENCES plans(id) ON DELETE CASCADE,
		distance_m DOUBLE PRECISION NOT NULL,
		elapsed_sec DOUBLE PRECISION NOT NULL,
		note TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_checkins_plan ON checkins(plan_id)`,
}

// Migrate applies the schema statements in order.
func Migrate(ctx context.Context, q Querier) error {
	for _, stmt := range schemaStatements {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
