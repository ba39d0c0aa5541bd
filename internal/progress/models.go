package progress

import (
	"time"

	"github.com/lancewilhelm/shpacer-sub001/internal/plan"
)

// Checkin is a reported position on race day. Status is computed against
// the plan schedule when the checkin is created and is not persisted.
type Checkin struct {
	ID         string       `json:"id"`
	PlanID     string       `json:"plan_id"`
	DistanceM  float64      `json:"distance_m"`
	ElapsedSec float64      `json:"elapsed_sec"`
	Note       string       `json:"note"`
	Status     *plan.Status `json:"status,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
}

type checkinEvent struct {
	Type    string  `json:"type"`
	Checkin Checkin `json:"checkin"`
}
