package pacing

import (
	"sort"

	"github.com/lancewilhelm/shpacer-sub001/internal/shared/geo"
)

// Coordinate is one raw route vertex. Importers set ElevationM to 0
// when the source carries no elevation.
type Coordinate struct {
	Lat        float64
	Lng        float64
	ElevationM float64
}

// ElevationPoint is one vertex of the distance-indexed profile.
// DistanceM is cumulative along the route and non-decreasing;
// consecutive duplicates are zero-length segments.
type ElevationPoint struct {
	DistanceM  float64 `json:"distance_m"`
	ElevationM float64 `json:"elevation_m"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
}

// ProfilePoint is an interpolated position on the profile.
type ProfilePoint struct {
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	ElevationM float64 `json:"elevation_m"`
}

// BuildProfile concatenates route segments in input order and emits
// one ElevationPoint per coordinate, accumulating geodesic distance
// between consecutive coordinates. Empty input yields an empty
// profile; downstream computations then report empty results instead
// of failing.
func BuildProfile(segments ...[]Coordinate) []ElevationPoint {
	var n int
	for _, seg := range segments {
		n += len(seg)
	}
	if n == 0 {
		return nil
	}
	profile := make([]ElevationPoint, 0, n)
	var cum float64
	for _, seg := range segments {
		for _, c := range seg {
			if len(profile) > 0 {
				prev := profile[len(profile)-1]
				cum += geo.HaversineM(prev.Lat, prev.Lng, c.Lat, c.Lng)
			}
			profile = append(profile, ElevationPoint{
				DistanceM:  cum,
				ElevationM: c.ElevationM,
				Lat:        c.Lat,
				Lng:        c.Lng,
			})
		}
	}
	return profile
}

// TotalDistance returns the profile's last cumulative distance.
func TotalDistance(profile []ElevationPoint) float64 {
	if len(profile) == 0 {
		return 0
	}
	return profile[len(profile)-1].DistanceM
}

// ProfileStats sums positive and negative elevation deltas between
// consecutive vertices. Loss is returned as a positive number.
func ProfileStats(profile []ElevationPoint) (gainM, lossM float64) {
	for i := 1; i < len(profile); i++ {
		d := profile[i].ElevationM - profile[i-1].ElevationM
		if d > 0 {
			gainM += d
		} else {
			lossM -= d
		}
	}
	return gainM, lossM
}

// PointAt linearly interpolates the profile at distance d. Queries at
// or beyond the profile ends return the end vertices; queries landing
// exactly on a vertex return that vertex with no interpolation error.
// Returns nil only for an empty profile.
func PointAt(profile []ElevationPoint, d float64) *ProfilePoint {
	if len(profile) == 0 {
		return nil
	}
	first, last := profile[0], profile[len(profile)-1]
	if d <= first.DistanceM {
		return &ProfilePoint{Lat: first.Lat, Lng: first.Lng, ElevationM: first.ElevationM}
	}
	if d >= last.DistanceM {
		return &ProfilePoint{Lat: last.Lat, Lng: last.Lng, ElevationM: last.ElevationM}
	}
	i := sort.Search(len(profile), func(i int) bool {
		return profile[i].DistanceM >= d
	})
	if profile[i].DistanceM == d {
		p := profile[i]
		return &ProfilePoint{Lat: p.Lat, Lng: p.Lng, ElevationM: p.ElevationM}
	}
	prev, next := profile[i-1], profile[i]
	frac := (d - prev.DistanceM) / (next.DistanceM - prev.DistanceM)
	return &ProfilePoint{
		Lat:        prev.Lat + frac*(next.Lat-prev.Lat),
		Lng:        prev.Lng + frac*(next.Lng-prev.Lng),
		ElevationM: prev.ElevationM + frac*(next.ElevationM-prev.ElevationM),
	}
}

// elevationAt is PointAt reduced to the elevation value; callers must
// ensure the profile is non-empty.
func elevationAt(profile []ElevationPoint, d float64) float64 {
	return PointAt(profile, d).ElevationM
}
