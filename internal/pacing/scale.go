package pacing

// forEachStep walks [0, total) in fixed-size steps, invoking fn with
// each step's midpoint and length. The final step may be partial so
// the walk covers the course exactly.
func forEachStep(total, stepM float64, fn func(mid, stepLen float64)) {
	if total <= 0 {
		return
	}
	for pos := 0.0; pos < total; {
		stepLen := stepM
		if pos+stepLen > total {
			stepLen = total - pos
		}
		fn(pos+stepLen/2, stepLen)
		pos += stepLen
	}
}

// NormalizationScale returns the factor that, multiplied into every
// grade-adjusted pace, makes the distance-weighted mean pace equal the
// unadjusted target pace while preserving the shape of grade
// variation. Active only in ModeNormalized; inactive modes, profiles
// with fewer than 2 points and non-positive integrals all return 1.0.
func NormalizationScale(profile []ElevationPoint, cfg PlanConfig, opts Options) float64 {
	if cfg.PaceMode != ModeNormalized || len(profile) < 2 {
		return 1.0
	}
	opts = opts.withDefaults()
	total := TotalDistance(profile)
	if total <= 0 {
		return 1.0
	}
	var equivalent float64
	forEachStep(total, opts.SampleStepM, func(mid, stepLen float64) {
		equivalent += PaceFactor(GradeAt(profile, mid, opts.GradeWindowM)) * stepLen
	})
	if equivalent <= 0 {
		return 1.0
	}
	return total / equivalent
}

// TimeScale returns the factor applied to every segment's travel time
// so the unrounded course total, stoppages included, matches the
// target time. Active only in ModeTime with a positive target; a
// non-positive baseline integral returns 1.0.
func TimeScale(profile []ElevationPoint, cfg PlanConfig, opts Options, normScale, totalStoppage float64) float64 {
	if cfg.PaceMode != ModeTime || cfg.TargetTimeSec <= 0 || len(profile) < 2 {
		return 1.0
	}
	opts = opts.withDefaults()
	total := TotalDistance(profile)
	base, ok := basePacePerMeter(cfg, total, totalStoppage)
	if !ok {
		return 1.0
	}
	var travelBase float64
	forEachStep(total, opts.SampleStepM, func(mid, stepLen float64) {
		travelBase += base * PaceFactor(GradeAt(profile, mid, opts.GradeWindowM)) * normScale * stepLen
	})
	if travelBase <= 0 {
		return 1.0
	}
	return (cfg.TargetTimeSec - totalStoppage) / travelBase
}
