package library

import (
	"context"
	"errors"
	"sort"

	"github.com/jackc/pgx/v5"

	"github.com/lancewilhelm/shpacer-sub001/internal/db"
)

type Service struct {
	db db.Querier
}

func NewService(q db.Querier) *Service {
	return &Service{db: q}
}

func (s *Service) Publish(ctx context.Context, courseID, ownerID string) error {
	return s.setVisibility(ctx, courseID, ownerID, "public")
}

func (s *Service) Unpublish(ctx context.Context, courseID, ownerID string) error {
	return s.setVisibility(ctx, courseID, ownerID, "private")
}

func (s *Service) setVisibility(ctx context.Context, courseID, ownerID, visibility string) error {
	row := s.db.QueryRow(ctx, `
		UPDATE courses SET visibility=$3, updated_at=now()
		WHERE id=$1 AND owner_id=$2
		RETURNING id
	`, courseID, ownerID, visibility)
	var id string
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errCourseNotOwned
		}
		return err
	}
	return nil
}

func (s *Service) Recent(ctx context.Context) ([]CourseSummary, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, owner_id, name, description, activity, total_distance_m, elevation_gain_m,
		       ST_Y(start_location::geometry), ST_X(start_location::geometry), created_at
		FROM courses
		WHERE visibility='public'
		ORDER BY created_at DESC
		LIMIT 50
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSummaries(rows)
}

func (s *Service) Nearby(ctx context.Context, lat, lng, radiusKm float64) ([]CourseSummary, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, owner_id, name, description, activity, total_distance_m, elevation_gain_m,
		       ST_Y(start_location::geometry), ST_X(start_location::geometry), created_at
		FROM courses
		WHERE visibility='public'
		  AND ST_DWithin(start_location, ST_SetSRID(ST_MakePoint($1,$2), 4326)::geography, $3)
		ORDER BY created_at DESC
	`, lng, lat, radiusKm*1000)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	courses, err := scanSummaries(rows)
	if err != nil {
		return nil, err
	}
	return sortCourses(courses), nil
}

func scanSummaries(rows pgx.Rows) ([]CourseSummary, error) {
	var courses []CourseSummary
	for rows.Next() {
		var c CourseSummary
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Description, &c.Activity,
			&c.TotalDistanceM, &c.ElevationGainM, &c.Lat, &c.Lng, &c.CreatedAt); err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, nil
}

func sortCourses(courses []CourseSummary) []CourseSummary {
	sort.Slice(courses, func(i, j int) bool {
		return courses[i].CreatedAt.After(courses[j].CreatedAt)
	})
	return courses
}

var errCourseNotOwned = errors.New("course not found")
