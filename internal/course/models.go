package course

import (
	"time"

	"github.com/lancewilhelm/shpacer-sub001/internal/pacing"
)

type Course struct {
	ID             string                  `json:"id"`
	OwnerID        string                  `json:"owner_id"`
	Name           string                  `json:"name"`
	Description    string                  `json:"description"`
	Activity       string                  `json:"activity"`
	Visibility     string                  `json:"visibility"`
	SourceFormat   string                  `json:"source_format"`
	TotalDistanceM float64                 `json:"total_distance_m"`
	ElevationGainM float64                 `json:"elevation_gain_m"`
	ElevationLossM float64                 `json:"elevation_loss_m"`
	PointCount     int                     `json:"point_count"`
	Profile        []pacing.ElevationPoint `json:"profile,omitempty"`
	CreatedAt      time.Time               `json:"created_at"`
	UpdatedAt      time.Time               `json:"updated_at"`
}

// ImportInput is a parsed upload ready to become a course.
type ImportInput struct {
	OwnerID     string
	Name        string
	Description string
	Activity    string
	Format      string
	Data        []byte
}

// ElevationSample is one charting sample of the stored profile.
type ElevationSample struct {
	DistanceM    float64 `json:"distance_m"`
	ElevationM   float64 `json:"elevation_m"`
	GradePercent float64 `json:"grade_percent"`
}

type courseWaypoint struct {
	ID         string
	Name       string
	Kind       string
	DistanceM  float64
	Lat        float64
	Lng        float64
	ElevationM float64
}
