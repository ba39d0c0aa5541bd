package pacing

// GradeAt returns the windowed grade in percent at distance d: the
// elevation delta between d-window/2 and d+window/2, both clamped to
// the profile extent, divided by the window. The fixed denominator
// tapers reported grade toward the course ends. A degenerate window or
// an empty profile returns 0.
func GradeAt(profile []ElevationPoint, d, windowM float64) float64 {
	if len(profile) == 0 || windowM <= 0 {
		return 0
	}
	total := TotalDistance(profile)
	start := clamp(d-windowM/2, 0, total)
	end := clamp(d+windowM/2, 0, total)
	if end <= start {
		return 0
	}
	return (elevationAt(profile, end) - elevationAt(profile, start)) / windowM * 100.0
}
