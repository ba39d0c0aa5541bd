package pacing

// Waypoint is the engine's view of a course waypoint. Order 0 is the
// start and the maximum order is the finish; both are excluded from
// stoppage accounting.
type Waypoint struct {
	ID        string  `json:"id"`
	DistanceM float64 `json:"distance_m"`
	Order     int     `json:"order"`
}

// maxWaypointOrder returns the highest order present, or 0 for an
// empty list.
func maxWaypointOrder(waypoints []Waypoint) int {
	var maxOrder int
	for _, w := range waypoints {
		if w.Order > maxOrder {
			maxOrder = w.Order
		}
	}
	return maxOrder
}

// stoppageAt resolves the rest duration planned at a single waypoint.
// Start and finish never carry stoppage.
func stoppageAt(w Waypoint, maxOrder int, overrides map[string]float64, defaultSec float64) float64 {
	if w.Order <= 0 || w.Order >= maxOrder {
		return 0
	}
	if sec, ok := overrides[w.ID]; ok {
		return sec
	}
	return defaultSec
}

// CumulativeStoppage sums planned rest time over all intermediate
// waypoints at or before targetDistance. A waypoint with an override
// entry contributes that duration, any other contributes defaultSec.
// An empty waypoint list yields 0.
func CumulativeStoppage(waypoints []Waypoint, overrides map[string]float64, defaultSec, targetDistance float64) float64 {
	maxOrder := maxWaypointOrder(waypoints)
	var total float64
	for _, w := range waypoints {
		if w.DistanceM > targetDistance {
			continue
		}
		total += stoppageAt(w, maxOrder, overrides, defaultSec)
	}
	return total
}
