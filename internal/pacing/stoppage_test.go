package pacing

import "testing"

func raceWaypoints() []Waypoint {
	return []Waypoint{
		{ID: "start", DistanceM: 0, Order: 0},
		{ID: "aid-1", DistanceM: 2000, Order: 1},
		{ID: "aid-2", DistanceM: 4000, Order: 2},
		{ID: "finish", DistanceM: 5000, Order: 3},
	}
}

func TestCumulativeStoppage(t *testing.T) {
	overrides := map[string]float64{"aid-1": 120}
	got := CumulativeStoppage(raceWaypoints(), overrides, 60, 5000)
	if got != 180 {
		t.Fatalf("cumulative stoppage: %v, want 180", got)
	}
}

func TestCumulativeStoppageDistanceCutoff(t *testing.T) {
	overrides := map[string]float64{"aid-1": 120}
	if got := CumulativeStoppage(raceWaypoints(), overrides, 60, 3000); got != 120 {
		t.Fatalf("stoppage up to 3000: %v, want 120", got)
	}
	if got := CumulativeStoppage(raceWaypoints(), overrides, 60, 1999); got != 0 {
		t.Fatalf("stoppage before first aid: %v, want 0", got)
	}
	// waypoint exactly at the target distance counts
	if got := CumulativeStoppage(raceWaypoints(), overrides, 60, 2000); got != 120 {
		t.Fatalf("stoppage at 2000: %v, want 120", got)
	}
}

func TestCumulativeStoppageExcludesEndpoints(t *testing.T) {
	overrides := map[string]float64{"start": 500, "finish": 500}
	if got := CumulativeStoppage(raceWaypoints(), overrides, 60, 5000); got != 120 {
		t.Fatalf("start/finish must not contribute: %v, want 120", got)
	}
	two := []Waypoint{
		{ID: "start", DistanceM: 0, Order: 0},
		{ID: "finish", DistanceM: 5000, Order: 1},
	}
	if got := CumulativeStoppage(two, nil, 60, 5000); got != 0 {
		t.Fatalf("start+finish only: %v, want 0", got)
	}
}

func TestCumulativeStoppageEmpty(t *testing.T) {
	if got := CumulativeStoppage(nil, nil, 60, 5000); got != 0 {
		t.Fatalf("empty waypoints: %v, want 0", got)
	}
}
