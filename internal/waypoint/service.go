package waypoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lancewilhelm/shpacer-sub001/internal/db"
	"github.com/lancewilhelm/shpacer-sub001/internal/pacing"
)

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

// Create inserts a waypoint and renumbers the course's positions by
// distance in the same transaction. Missing coordinates are derived
// from the course profile at the waypoint's distance.
func (s *Service) Create(ctx context.Context, courseID string, input Waypoint) (Waypoint, error) {
	if input.Name == "" {
		return Waypoint{}, errors.New("name required")
	}
	if input.Kind == "" {
		input.Kind = "aid"
	}
	if !validKinds[input.Kind] {
		return Waypoint{}, fmt.Errorf("unknown waypoint kind %q", input.Kind)
	}

	total, profile, err := s.courseExtent(ctx, courseID)
	if err != nil {
		return Waypoint{}, err
	}
	if input.DistanceM < 0 || input.DistanceM > total {
		return Waypoint{}, errDistanceOutsideCourse
	}
	if input.Lat == 0 && input.Lng == 0 {
		if p := pacing.PointAt(profile, input.DistanceM); p != nil {
			input.Lat, input.Lng = p.Lat, p.Lng
			if input.ElevationM == 0 {
				input.ElevationM = p.ElevationM
			}
		}
	}

	input.ID = uuid.NewString()
	input.CourseID = courseID

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Waypoint{}, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		INSERT INTO waypoints (id, course_id, name, kind, distance_m, position, lat, lng, elevation_m, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at
	`, input.ID, input.CourseID, input.Name, input.Kind, input.DistanceM, 0, input.Lat, input.Lng, input.ElevationM, input.Notes)
	if err := row.Scan(&input.CreatedAt); err != nil {
		return Waypoint{}, err
	}

	order, err := renumber(ctx, tx, courseID)
	if err != nil {
		return Waypoint{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Waypoint{}, err
	}
	input.Position = indexOf(order, input.ID)
	return input, nil
}

func (s *Service) Get(ctx context.Context, id string) (Waypoint, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, course_id, name, kind, distance_m, position, lat, lng, elevation_m, notes, created_at
		FROM waypoints WHERE id=$1
	`, id)
	var wp Waypoint
	if err := row.Scan(&wp.ID, &wp.CourseID, &wp.Name, &wp.Kind, &wp.DistanceM, &wp.Position,
		&wp.Lat, &wp.Lng, &wp.ElevationM, &wp.Notes, &wp.CreatedAt); err != nil {
		return Waypoint{}, err
	}
	return wp, nil
}

// ListByCourse returns a course's waypoints in position order.
func (s *Service) ListByCourse(ctx context.Context, courseID string) ([]Waypoint, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, course_id, name, kind, distance_m, position, lat, lng, elevation_m, notes, created_at
		FROM waypoints WHERE course_id=$1
		ORDER BY position
	`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var waypoints []Waypoint
	for rows.Next() {
		var wp Waypoint
		if err := rows.Scan(&wp.ID, &wp.CourseID, &wp.Name, &wp.Kind, &wp.DistanceM, &wp.Position,
			&wp.Lat, &wp.Lng, &wp.ElevationM, &wp.Notes, &wp.CreatedAt); err != nil {
			return nil, err
		}
		waypoints = append(waypoints, wp)
	}
	return waypoints, nil
}

// Update patches a waypoint and renumbers its course, since a new
// distance can reorder positions.
func (s *Service) Update(ctx context.Context, id string, patch Waypoint) (Waypoint, error) {
	wp, err := s.Get(ctx, id)
	if err != nil {
		return Waypoint{}, err
	}
	if patch.Name != "" {
		wp.Name = patch.Name
	}
	if patch.Kind != "" {
		if !validKinds[patch.Kind] {
			return Waypoint{}, fmt.Errorf("unknown waypoint kind %q", patch.Kind)
		}
		wp.Kind = patch.Kind
	}
	if patch.DistanceM != 0 {
		wp.DistanceM = patch.DistanceM
	}
	if patch.Lat != 0 {
		wp.Lat = patch.Lat
	}
	if patch.Lng != 0 {
		wp.Lng = patch.Lng
	}
	if patch.ElevationM != 0 {
		wp.ElevationM = patch.ElevationM
	}
	if patch.Notes != "" {
		wp.Notes = patch.Notes
	}

	total, _, err := s.courseExtent(ctx, wp.CourseID)
	if err != nil {
		return Waypoint{}, err
	}
	if wp.DistanceM < 0 || wp.DistanceM > total {
		return Waypoint{}, errDistanceOutsideCourse
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Waypoint{}, err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		UPDATE waypoints
		SET name=$2, kind=$3, distance_m=$4, lat=$5, lng=$6, elevation_m=$7, notes=$8
		WHERE id=$1
	`, wp.ID, wp.Name, wp.Kind, wp.DistanceM, wp.Lat, wp.Lng, wp.ElevationM, wp.Notes)
	if err != nil {
		return Waypoint{}, err
	}

	order, err := renumber(ctx, tx, wp.CourseID)
	if err != nil {
		return Waypoint{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Waypoint{}, err
	}
	wp.Position = indexOf(order, wp.ID)
	return wp, nil
}

// Delete removes an intermediate waypoint and renumbers the course.
// The start and finish marks created at import stay.
func (s *Service) Delete(ctx context.Context, id string) error {
	var courseID, kind string
	if err := s.db.QueryRow(ctx, `SELECT course_id, kind FROM waypoints WHERE id=$1`, id).Scan(&courseID, &kind); err != nil {
		return err
	}
	if kind == "start" || kind == "finish" {
		return errProtectedWaypoint
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM waypoints WHERE id=$1`, id); err != nil {
		return err
	}
	if _, err := renumber(ctx, tx, courseID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// renumber reassigns positions 0..n-1 ordered by distance, with the
// start pinned first and the finish pinned last on distance ties.
// Returns the ordered waypoint ids.
func renumber(ctx context.Context, tx pgx.Tx, courseID string) ([]string, error) {
	rows, err := tx.Query(ctx, `
		SELECT id FROM waypoints
		WHERE course_id=$1
		ORDER BY distance_m, CASE kind WHEN 'start' THEN 0 WHEN 'finish' THEN 2 ELSE 1 END, created_at
	`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, id := range ids {
		if _, err := tx.Exec(ctx, `UPDATE waypoints SET position=$2 WHERE id=$1`, id, i); err != nil {
			return nil, err
		}
	}
	return ids, nil
}

func (s *Service) courseExtent(ctx context.Context, courseID string) (float64, []pacing.ElevationPoint, error) {
	var total float64
	var profileJSON []byte
	err := s.db.QueryRow(ctx, `SELECT total_distance_m, profile FROM courses WHERE id=$1`, courseID).
		Scan(&total, &profileJSON)
	if err != nil {
		return 0, nil, fmt.Errorf("load course: %w", err)
	}
	var profile []pacing.ElevationPoint
	if len(profileJSON) > 0 {
		if err := json.Unmarshal(profileJSON, &profile); err != nil {
			return 0, nil, fmt.Errorf("decode profile: %w", err)
		}
	}
	return total, profile, nil
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return 0
}

var (
	errDistanceOutsideCourse = errors.New("distance_m outside course")
	errProtectedWaypoint     = errors.New("start and finish waypoints cannot be deleted")
)
