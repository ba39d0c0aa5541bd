package course

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/lancewilhelm/shpacer-sub001/internal/db"
	"github.com/lancewilhelm/shpacer-sub001/internal/observability"
	"github.com/lancewilhelm/shpacer-sub001/internal/pacing"
)

type Service struct {
	db      db.Querier
	metrics *observability.Collector
	opts    pacing.Options
}

func NewService(q db.Querier, metrics *observability.Collector, opts pacing.Options) *Service {
	return &Service{db: q, metrics: metrics, opts: opts}
}

// Import decodes an uploaded route file, builds its elevation profile
// and stores the course together with its start and finish waypoints.
func (s *Service) Import(ctx context.Context, in ImportInput) (Course, error) {
	segments, err := decodeSegments(in.Format, in.Data)
	if err != nil {
		return Course{}, err
	}
	course, err := s.create(ctx, in, pacing.BuildProfile(segments...))
	if err != nil {
		return Course{}, err
	}
	s.metrics.RecordImport(in.Format)
	return course, nil
}

func (s *Service) create(ctx context.Context, in ImportInput, profile []pacing.ElevationPoint) (Course, error) {
	if len(profile) < 2 {
		return Course{}, errNoTrackPoints
	}
	activity, err := normalizeActivity(in.Activity)
	if err != nil {
		return Course{}, err
	}

	gain, loss := pacing.ProfileStats(profile)
	course := Course{
		ID:             uuid.NewString(),
		OwnerID:        in.OwnerID,
		Name:           in.Name,
		Description:    in.Description,
		Activity:       activity,
		Visibility:     "private",
		SourceFormat:   in.Format,
		TotalDistanceM: pacing.TotalDistance(profile),
		ElevationGainM: gain,
		ElevationLossM: loss,
		PointCount:     len(profile),
		Profile:        profile,
	}

	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return Course{}, err
	}
	startWKT := fmt.Sprintf("POINT(%v %v)", profile[0].Lng, profile[0].Lat)

	row := s.db.QueryRow(ctx, `
		INSERT INTO courses (id, owner_id, name, description, activity, visibility, source_format,
			total_distance_m, elevation_gain_m, elevation_loss_m, point_count, profile, start_location)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12, ST_GeogFromText($13))
		RETURNING created_at, updated_at
	`, course.ID, course.OwnerID, course.Name, course.Description, course.Activity, course.Visibility,
		course.SourceFormat, course.TotalDistanceM, course.ElevationGainM, course.ElevationLossM,
		course.PointCount, profileJSON, startWKT)
	if err := row.Scan(&course.CreatedAt, &course.UpdatedAt); err != nil {
		return Course{}, err
	}

	first, last := profile[0], profile[len(profile)-1]
	marks := []courseWaypoint{
		{ID: uuid.NewString(), Name: "Start", Kind: "start", DistanceM: 0, Lat: first.Lat, Lng: first.Lng, ElevationM: first.ElevationM},
		{ID: uuid.NewString(), Name: "Finish", Kind: "finish", DistanceM: course.TotalDistanceM, Lat: last.Lat, Lng: last.Lng, ElevationM: last.ElevationM},
	}
	for i, m := range marks {
		position := 0
		if i == len(marks)-1 {
			position = 1
		}
		_, err := s.db.Exec(ctx, `
			INSERT INTO waypoints (id, course_id, name, kind, distance_m, position, lat, lng, elevation_m, notes)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		`, m.ID, course.ID, m.Name, m.Kind, m.DistanceM, position, m.Lat, m.Lng, m.ElevationM, "")
		if err != nil {
			return Course{}, err
		}
	}
	return course, nil
}

func (s *Service) Get(ctx context.Context, id string) (Course, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, owner_id, name, description, activity, visibility, source_format,
			total_distance_m, elevation_gain_m, elevation_loss_m, point_count, profile, created_at, updated_at
		FROM courses WHERE id=$1
	`, id)

	var course Course
	var profileJSON []byte
	if err := row.Scan(&course.ID, &course.OwnerID, &course.Name, &course.Description, &course.Activity,
		&course.Visibility, &course.SourceFormat, &course.TotalDistanceM, &course.ElevationGainM,
		&course.ElevationLossM, &course.PointCount, &profileJSON, &course.CreatedAt, &course.UpdatedAt); err != nil {
		return Course{}, err
	}
	if len(profileJSON) > 0 {
		if err := json.Unmarshal(profileJSON, &course.Profile); err != nil {
			return Course{}, fmt.Errorf("decode profile: %w", err)
		}
	}
	return course, nil
}

// ListByOwner returns the owner's courses without their profiles.
func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]Course, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, owner_id, name, description, activity, visibility, source_format,
			total_distance_m, elevation_gain_m, elevation_loss_m, point_count, created_at, updated_at
		FROM courses WHERE owner_id=$1
		ORDER BY created_at DESC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courses []Course
	for rows.Next() {
		var c Course
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Description, &c.Activity, &c.Visibility,
			&c.SourceFormat, &c.TotalDistanceM, &c.ElevationGainM, &c.ElevationLossM, &c.PointCount,
			&c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, nil
}

func (s *Service) Update(ctx context.Context, id string, patch Course) (Course, error) {
	course, err := s.Get(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if patch.Name != "" {
		course.Name = patch.Name
	}
	if patch.Description != "" {
		course.Description = patch.Description
	}
	if patch.Activity != "" {
		activity, err := normalizeActivity(patch.Activity)
		if err != nil {
			return Course{}, err
		}
		course.Activity = activity
	}

	row := s.db.QueryRow(ctx, `
		UPDATE courses SET name=$2, description=$3, activity=$4, updated_at=now()
		WHERE id=$1
		RETURNING updated_at
	`, course.ID, course.Name, course.Description, course.Activity)
	if err := row.Scan(&course.UpdatedAt); err != nil {
		return Course{}, err
	}
	return course, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM courses WHERE id=$1`, id)
	return err
}

// ElevationSeries resamples the stored profile for charting. A stepM
// of 0 falls back to the configured sampling step.
func (s *Service) ElevationSeries(ctx context.Context, id string, stepM float64) ([]ElevationSample, error) {
	course, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(course.Profile) == 0 {
		return nil, nil
	}

	step := stepM
	if step <= 0 {
		step = s.opts.SampleStepM
	}
	if step < 1 {
		step = 1
	}

	total := pacing.TotalDistance(course.Profile)
	samples := make([]ElevationSample, 0, int(total/step)+2)
	appendSample := func(d float64) {
		samples = append(samples, ElevationSample{
			DistanceM:    d,
			ElevationM:   pacing.PointAt(course.Profile, d).ElevationM,
			GradePercent: pacing.GradeAt(course.Profile, d, s.opts.GradeWindowM),
		})
	}
	for d := 0.0; d < total; d += step {
		appendSample(d)
	}
	appendSample(total)
	return samples, nil
}

// ExportGeoJSON renders the course line and its waypoints as a
// FeatureCollection.
func (s *Service) ExportGeoJSON(ctx context.Context, id string) (*geojson.FeatureCollection, error) {
	course, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	waypoints, err := s.waypointsForCourse(ctx, id)
	if err != nil {
		return nil, err
	}

	line := make(orb.LineString, 0, len(course.Profile))
	for _, p := range course.Profile {
		line = append(line, orb.Point{p.Lng, p.Lat})
	}

	fc := geojson.NewFeatureCollection()
	lineFeature := geojson.NewFeature(line)
	lineFeature.Properties = geojson.Properties{
		"name":             course.Name,
		"activity":         course.Activity,
		"total_distance_m": course.TotalDistanceM,
		"elevation_gain_m": course.ElevationGainM,
		"elevation_loss_m": course.ElevationLossM,
	}
	fc.Append(lineFeature)

	for _, wp := range waypoints {
		f := geojson.NewFeature(orb.Point{wp.Lng, wp.Lat})
		f.Properties = geojson.Properties{
			"name":        wp.Name,
			"kind":        wp.Kind,
			"distance_m":  wp.DistanceM,
			"elevation_m": wp.ElevationM,
		}
		fc.Append(f)
	}
	return fc, nil
}

func (s *Service) waypointsForCourse(ctx context.Context, courseID string) ([]courseWaypoint, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, kind, distance_m, lat, lng, elevation_m
		FROM waypoints WHERE course_id=$1
		ORDER BY position
	`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var waypoints []courseWaypoint
	for rows.Next() {
		var wp courseWaypoint
		if err := rows.Scan(&wp.ID, &wp.Name, &wp.Kind, &wp.DistanceM, &wp.Lat, &wp.Lng, &wp.ElevationM); err != nil {
			return nil, err
		}
		waypoints = append(waypoints, wp)
	}
	return waypoints, nil
}

func normalizeActivity(activity string) (string, error) {
	switch activity {
	case "":
		return "run", nil
	case "run", "bike", "hike":
		return activity, nil
	default:
		return "", errors.New("activity must be run, bike, or hike")
	}
}
