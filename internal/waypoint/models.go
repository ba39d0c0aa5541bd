package waypoint

import "time"

// Waypoint is a named mark on a course. Position is the rank along
// the course: 0 is the start, the highest position is the finish, and
// everything between is an intermediate stop eligible for stoppage
// time.
type Waypoint struct {
	ID         string    `json:"id"`
	CourseID   string    `json:"course_id"`
	Name       string    `json:"name"`
	Kind       string    `json:"kind"`
	DistanceM  float64   `json:"distance_m"`
	Position   int       `json:"position"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	ElevationM float64   `json:"elevation_m"`
	Notes      string    `json:"notes"`
	CreatedAt  time.Time `json:"created_at"`
}

var validKinds = map[string]bool{
	"start":      true,
	"finish":     true,
	"aid":        true,
	"water":      true,
	"checkpoint": true,
	"poi":        true,
}
