package pacing

// PacePoint is one sample of the predicted-pace curve. PacePerUnit is
// nil when no valid pace target exists; the grade is reported either
// way so elevation charts stay usable without a pace.
type PacePoint struct {
	DistanceM    float64  `json:"distance_m"`
	PacePerUnit  *float64 `json:"pace_per_unit"`
	GradePercent float64  `json:"grade_percent"`
}

// PaceAt answers a point query at distance d, clamped to the course
// extent: the predicted pace in seconds per pace unit and the windowed
// grade. The prediction is base pace times grade factor times the
// normalization scale. The time-mode scale is deliberately not
// applied: the curve communicates local effort, the splits table
// communicates the cumulative schedule. Returns nil for an empty
// profile.
func PaceAt(in Inputs, d float64) *PacePoint {
	if len(in.Profile) == 0 {
		return nil
	}
	opts := in.Options.withDefaults()
	total := TotalDistance(in.Profile)
	d = clamp(d, 0, total)
	grade := GradeAt(in.Profile, d, opts.GradeWindowM)
	pt := &PacePoint{DistanceM: d, GradePercent: grade}

	totalStop := CumulativeStoppage(in.Waypoints, in.Overrides, in.DefaultStoppageSec, total)
	base, ok := basePacePerMeter(in.Config, total, totalStop)
	if !ok {
		return pt
	}
	norm := NormalizationScale(in.Profile, in.Config, opts)
	pace := base * MetersPerUnit(in.Config.PaceUnit) * PaceFactor(grade) * norm
	pt.PacePerUnit = &pace
	return pt
}

// Series samples the predicted-pace curve every stepM meters from the
// start through the exact course end. A non-positive stepM falls back
// to the sampling step from Options.
func Series(in Inputs, stepM float64) []PacePoint {
	if len(in.Profile) == 0 {
		return nil
	}
	opts := in.Options.withDefaults()
	if stepM <= 0 {
		stepM = opts.SampleStepM
	}
	total := TotalDistance(in.Profile)
	totalStop := CumulativeStoppage(in.Waypoints, in.Overrides, in.DefaultStoppageSec, total)
	base, ok := basePacePerMeter(in.Config, total, totalStop)
	norm := 1.0
	if ok {
		norm = NormalizationScale(in.Profile, in.Config, opts)
	}
	mpu := MetersPerUnit(in.Config.PaceUnit)

	sample := func(d float64) PacePoint {
		grade := GradeAt(in.Profile, d, opts.GradeWindowM)
		pt := PacePoint{DistanceM: d, GradePercent: grade}
		if ok {
			pace := base * mpu * PaceFactor(grade) * norm
			pt.PacePerUnit = &pace
		}
		return pt
	}

	points := make([]PacePoint, 0, int(total/stepM)+2)
	for d := 0.0; ; d += stepM {
		if d >= total {
			points = append(points, sample(total))
			break
		}
		points = append(points, sample(d))
	}
	return points
}
