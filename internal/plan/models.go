package plan

import (
	"time"

	"github.com/lancewilhelm/shpacer-sub001/internal/pacing"
)

// Plan attaches a pacing configuration to a course. Pace and target
// time are optional: a plan without either still produces terrain
// columns, just no predicted paces.
type Plan struct {
	ID                 string    `json:"id"`
	CourseID           string    `json:"course_id"`
	OwnerID            string    `json:"owner_id"`
	Name               string    `json:"name"`
	PaceMode           string    `json:"pace_mode"`
	PaceSecPerUnit     float64   `json:"pace_sec_per_unit"`
	PaceUnit           string    `json:"pace_unit"`
	TargetTimeSec      float64   `json:"target_time_sec"`
	PacingStrategy     string    `json:"pacing_strategy"`
	PacingLinearPct    float64   `json:"pacing_linear_pct"`
	DefaultStoppageSec float64   `json:"default_stoppage_sec"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (p Plan) config() pacing.PlanConfig {
	return pacing.PlanConfig{
		PaceSec:             p.PaceSecPerUnit,
		PaceUnit:            pacing.PaceUnit(p.PaceUnit),
		PaceMode:            pacing.PaceMode(p.PaceMode),
		TargetTimeSec:       p.TargetTimeSec,
		PacingStrategy:      pacing.PacingStrategy(p.PacingStrategy),
		PacingLinearPercent: p.PacingLinearPct,
	}
}

// UpdateRequest patches a plan; nil fields keep their current value.
type UpdateRequest struct {
	Name               *string  `json:"name"`
	PaceMode           *string  `json:"pace_mode"`
	PaceSecPerUnit     *float64 `json:"pace_sec_per_unit"`
	PaceUnit           *string  `json:"pace_unit"`
	TargetTimeSec      *float64 `json:"target_time_sec"`
	PacingStrategy     *string  `json:"pacing_strategy"`
	PacingLinearPct    *float64 `json:"pacing_linear_pct"`
	DefaultStoppageSec *float64 `json:"default_stoppage_sec"`
}

// Stoppage is a per-plan rest override at one waypoint. Waypoints
// without an override use the plan's default.
type Stoppage struct {
	PlanID      string  `json:"plan_id"`
	WaypointID  string  `json:"waypoint_id"`
	StoppageSec float64 `json:"stoppage_sec"`
}

// ETA is the planned schedule entry for one waypoint. Arrival and
// departure are nil when the plan has no valid pace target.
type ETA struct {
	WaypointID   string   `json:"waypoint_id"`
	Name         string   `json:"name"`
	Kind         string   `json:"kind"`
	DistanceM    float64  `json:"distance_m"`
	StoppageSec  float64  `json:"stoppage_sec"`
	ArrivalSec   *float64 `json:"arrival_sec"`
	DepartureSec *float64 `json:"departure_sec"`
}

// Status compares an actual position and elapsed time against the plan
// schedule. DeltaSec is negative when the runner is ahead.
type Status struct {
	PlanID     string   `json:"plan_id"`
	DistanceM  float64  `json:"distance_m"`
	ElapsedSec float64  `json:"elapsed_sec"`
	PlannedSec *float64 `json:"planned_sec"`
	DeltaSec   *float64 `json:"delta_sec"`
	Ahead      bool     `json:"ahead"`
}
