// Package pacing implements the grade-adjusted pacing engine: pure
// functions that turn an elevation profile, a plan configuration and
// waypoint stoppages into a continuous predicted-pace curve and a
// splits table with drift-corrected cumulative elapsed time.
//
// Nothing in this package performs I/O or holds state. Every function
// is deterministic in its inputs; callers recompute whenever the
// route, the plan or the stoppages change.
package pacing

import "math"

const (
	MetersPerKm   = 1000.0
	MetersPerMile = 1609.344

	// DefaultSampleStepM is the integration step for course-wide scans.
	DefaultSampleStepM = 50.0
	// DefaultGradeWindowM is the window over which instantaneous grade
	// is smoothed.
	DefaultGradeWindowM = 100.0

	minSampleStepM = 1.0
)

// PaceMode selects how a plan's target translates into predicted paces.
type PaceMode string

const (
	// ModePace applies the grade factors to the target pace as-is.
	ModePace PaceMode = "pace"
	// ModeNormalized scales adjusted paces so their distance-weighted
	// average equals the target pace.
	ModeNormalized PaceMode = "normalized"
	// ModeTime scales travel time so the course total, including
	// stoppages, equals the target time.
	ModeTime PaceMode = "time"
)

// PaceUnit is the distance unit a pace value refers to.
type PaceUnit string

const (
	UnitPerKm   PaceUnit = "per_km"
	UnitPerMile PaceUnit = "per_mile"
)

// PacingStrategy shapes effort along the course independent of terrain.
type PacingStrategy string

const (
	StrategyFlat   PacingStrategy = "flat"
	StrategyLinear PacingStrategy = "linear"
)

// PlanConfig carries the pacing targets for one plan. It is passed by
// value into every computation and never mutated by the engine.
type PlanConfig struct {
	// PaceSec is the target pace in seconds per PaceUnit. Zero or
	// negative means no explicit pace was supplied.
	PaceSec  float64  `json:"pace_sec"`
	PaceUnit PaceUnit `json:"pace_unit"`
	PaceMode PaceMode `json:"pace_mode"`
	// TargetTimeSec is the target total time. Required for ModeTime,
	// ignored otherwise.
	TargetTimeSec float64 `json:"target_time_sec"`

	PacingStrategy PacingStrategy `json:"pacing_strategy"`
	// PacingLinearPercent tilts effort from start to finish for
	// StrategyLinear, in [-50, 50]. Positive back-loads, negative
	// front-loads.
	PacingLinearPercent float64 `json:"pacing_linear_percent"`
}

// Options are the caller-tunable smoothing parameters.
type Options struct {
	// SampleStepM is the integration step, minimum 1 m.
	SampleStepM float64
	// GradeWindowM is the grade smoothing window.
	GradeWindowM float64
}

func (o Options) withDefaults() Options {
	if o.SampleStepM <= 0 {
		o.SampleStepM = DefaultSampleStepM
	}
	if o.SampleStepM < minSampleStepM {
		o.SampleStepM = minSampleStepM
	}
	if o.GradeWindowM <= 0 {
		o.GradeWindowM = DefaultGradeWindowM
	}
	return o
}

// Inputs bundles everything one plan computation depends on.
type Inputs struct {
	Profile   []ElevationPoint
	Config    PlanConfig
	Waypoints []Waypoint
	// Overrides maps waypoint id to an explicit stoppage in seconds.
	// Waypoints without an entry use DefaultStoppageSec.
	Overrides          map[string]float64
	DefaultStoppageSec float64
	Options            Options
}

// MetersPerUnit returns the meters covered by one pace unit.
func MetersPerUnit(u PaceUnit) float64 {
	if u == UnitPerMile {
		return MetersPerMile
	}
	return MetersPerKm
}

// SplitLengthM returns the split length for the unit: 1 km or 1 mile.
func SplitLengthM(u PaceUnit) float64 {
	return MetersPerUnit(u)
}

// basePacePerMeter resolves the effective base pace in seconds per
// meter. With an explicit pace it converts that; in time mode without
// one it derives a seed pace from the desired travel time, which
// cancels out once the time scale is applied. The bool reports whether
// pace-dependent outputs can be produced at all.
func basePacePerMeter(cfg PlanConfig, totalDistance, totalStoppage float64) (float64, bool) {
	if cfg.PaceSec > 0 {
		return cfg.PaceSec / MetersPerUnit(cfg.PaceUnit), true
	}
	if cfg.PaceMode == ModeTime && cfg.TargetTimeSec > 0 && totalDistance > 0 {
		desired := cfg.TargetTimeSec - totalStoppage
		if desired > 0 {
			return desired / totalDistance, true
		}
	}
	return 0, false
}

// strategyFactor returns the pacing-strategy multiplier at fractional
// course position t in [0, 1]. StrategyLinear tilts linearly around
// the course midpoint; everything else is flat.
func strategyFactor(cfg PlanConfig, t float64) float64 {
	if cfg.PacingStrategy != StrategyLinear {
		return 1.0
	}
	p := clamp(cfg.PacingLinearPercent/100.0, -0.5, 0.5)
	return 1.0 + (t-0.5)*p
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
