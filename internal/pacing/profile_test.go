package pacing

import (
	"math"
	"testing"
)

func TestBuildProfileCumulativeDistance(t *testing.T) {
	profile := BuildProfile([]Coordinate{
		{Lat: 0, Lng: 0, ElevationM: 10},
		{Lat: 0, Lng: 0.01, ElevationM: 20},
		{Lat: 0, Lng: 0.02, ElevationM: 15},
	})
	if len(profile) != 3 {
		t.Fatalf("expected 3 points, got %d", len(profile))
	}
	if profile[0].DistanceM != 0 {
		t.Fatalf("first point must start at 0, got %v", profile[0].DistanceM)
	}
	// 0.01 deg of longitude at the equator ~ 1113 m
	if profile[1].DistanceM < 1000 || profile[1].DistanceM > 1250 {
		t.Fatalf("unexpected segment distance: %v", profile[1].DistanceM)
	}
	if profile[2].DistanceM <= profile[1].DistanceM {
		t.Fatalf("distances must be non-decreasing")
	}
	if profile[1].ElevationM != 20 {
		t.Fatalf("elevation not carried through: %v", profile[1].ElevationM)
	}
}

func TestBuildProfileConcatenatesSegments(t *testing.T) {
	a := []Coordinate{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 0.01}}
	b := []Coordinate{{Lat: 0, Lng: 0.01}, {Lat: 0, Lng: 0.02}}
	profile := BuildProfile(a, b)
	if len(profile) != 4 {
		t.Fatalf("expected 4 points, got %d", len(profile))
	}
	// segment join is a zero-length hop, distance keeps accumulating
	if profile[2].DistanceM != profile[1].DistanceM {
		t.Fatalf("expected zero-length join, got %v vs %v", profile[2].DistanceM, profile[1].DistanceM)
	}
	if TotalDistance(profile) <= profile[1].DistanceM {
		t.Fatalf("second segment did not accumulate")
	}
}

func TestBuildProfileEmpty(t *testing.T) {
	if p := BuildProfile(); p != nil {
		t.Fatalf("expected nil profile, got %v", p)
	}
	if p := BuildProfile([]Coordinate{}); p != nil {
		t.Fatalf("expected nil profile for empty segment, got %v", p)
	}
	if d := TotalDistance(nil); d != 0 {
		t.Fatalf("expected 0 total for empty profile, got %v", d)
	}
}

func TestPointAtVertexExact(t *testing.T) {
	profile := []ElevationPoint{
		{DistanceM: 0, ElevationM: 10.1},
		{DistanceM: 123.456, ElevationM: 20.2},
		{DistanceM: 789.01, ElevationM: 15.15},
	}
	for _, p := range profile {
		got := PointAt(profile, p.DistanceM)
		if got == nil || got.ElevationM != p.ElevationM {
			t.Fatalf("vertex query at %v: got %+v, want elevation %v", p.DistanceM, got, p.ElevationM)
		}
	}
}

func TestPointAtInterpolates(t *testing.T) {
	profile := []ElevationPoint{
		{DistanceM: 0, ElevationM: 0, Lat: 1, Lng: 2},
		{DistanceM: 100, ElevationM: 10, Lat: 2, Lng: 4},
	}
	got := PointAt(profile, 50)
	if got == nil {
		t.Fatalf("expected point")
	}
	if math.Abs(got.ElevationM-5) > 1e-9 || math.Abs(got.Lat-1.5) > 1e-9 || math.Abs(got.Lng-3) > 1e-9 {
		t.Fatalf("bad interpolation: %+v", got)
	}
}

func TestPointAtClamped(t *testing.T) {
	profile := []ElevationPoint{
		{DistanceM: 0, ElevationM: 5},
		{DistanceM: 100, ElevationM: 15},
	}
	if got := PointAt(profile, -10); got.ElevationM != 5 {
		t.Fatalf("below start: %+v", got)
	}
	if got := PointAt(profile, 500); got.ElevationM != 15 {
		t.Fatalf("beyond end: %+v", got)
	}
	if got := PointAt(nil, 0); got != nil {
		t.Fatalf("empty profile must return nil, got %+v", got)
	}
}

func TestPointAtZeroLengthSegment(t *testing.T) {
	profile := []ElevationPoint{
		{DistanceM: 0, ElevationM: 0},
		{DistanceM: 150, ElevationM: 5},
		{DistanceM: 150, ElevationM: 7},
		{DistanceM: 300, ElevationM: 10},
	}
	if got := PointAt(profile, 150); got.ElevationM != 5 {
		t.Fatalf("duplicate distance should return first vertex, got %+v", got)
	}
	got := PointAt(profile, 225)
	if math.Abs(got.ElevationM-8.5) > 1e-9 {
		t.Fatalf("interpolation after duplicate: %+v", got)
	}
}

func TestProfileStats(t *testing.T) {
	profile := []ElevationPoint{
		{DistanceM: 0, ElevationM: 100},
		{DistanceM: 100, ElevationM: 130},
		{DistanceM: 200, ElevationM: 110},
		{DistanceM: 300, ElevationM: 150},
	}
	gain, loss := ProfileStats(profile)
	if gain != 70 || loss != 20 {
		t.Fatalf("gain=%v loss=%v, want 70/20", gain, loss)
	}
}

func TestGradeAtLinearClimb(t *testing.T) {
	profile := lineProfile(1000, 100, 10)
	if g := GradeAt(profile, 500, 100); math.Abs(g-10) > 1e-9 {
		t.Fatalf("grade at mid: %v, want 10", g)
	}
	// near the start the window clamps but the denominator stays fixed,
	// so reported grade tapers
	if g := GradeAt(profile, 0, 100); math.Abs(g-5) > 1e-9 {
		t.Fatalf("grade at start: %v, want 5", g)
	}
}

func TestGradeAtDegenerate(t *testing.T) {
	if g := GradeAt(nil, 10, 100); g != 0 {
		t.Fatalf("empty profile grade: %v", g)
	}
	profile := lineProfile(1000, 100, 10)
	if g := GradeAt(profile, 500, 0); g != 0 {
		t.Fatalf("zero window grade: %v", g)
	}
	single := []ElevationPoint{{DistanceM: 0, ElevationM: 100}}
	if g := GradeAt(single, 0, 100); g != 0 {
		t.Fatalf("single point grade: %v", g)
	}
}

// lineProfile builds a synthetic profile of the given length with a
// constant slope in percent, vertices every spacing meters.
func lineProfile(totalM, spacingM, slopePct float64) []ElevationPoint {
	var profile []ElevationPoint
	for d := 0.0; d <= totalM; d += spacingM {
		profile = append(profile, ElevationPoint{DistanceM: d, ElevationM: d * slopePct / 100.0})
	}
	if profile[len(profile)-1].DistanceM < totalM {
		profile = append(profile, ElevationPoint{DistanceM: totalM, ElevationM: totalM * slopePct / 100.0})
	}
	return profile
}

// flatProfile builds a synthetic flat profile at a fixed elevation.
func flatProfile(totalM, spacingM, elevM float64) []ElevationPoint {
	var profile []ElevationPoint
	for d := 0.0; d <= totalM; d += spacingM {
		profile = append(profile, ElevationPoint{DistanceM: d, ElevationM: elevM})
	}
	if profile[len(profile)-1].DistanceM < totalM {
		profile = append(profile, ElevationPoint{DistanceM: totalM, ElevationM: elevM})
	}
	return profile
}
