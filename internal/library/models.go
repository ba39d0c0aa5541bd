package library

import "time"

// CourseSummary is the browse card for the public course directory.
type CourseSummary struct {
	ID             string    `json:"id"`
	OwnerID        string    `json:"owner_id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Activity       string    `json:"activity"`
	TotalDistanceM float64   `json:"total_distance_m"`
	ElevationGainM float64   `json:"elevation_gain_m"`
	Lat            float64   `json:"lat"`
	Lng            float64   `json:"lng"`
	CreatedAt      time.Time `json:"created_at"`
}
