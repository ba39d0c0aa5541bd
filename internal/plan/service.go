package plan

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/lancewilhelm/shpacer-sub001/internal/db"
	"github.com/lancewilhelm/shpacer-sub001/internal/observability"
	"github.com/lancewilhelm/shpacer-sub001/internal/pacing"
	"github.com/lancewilhelm/shpacer-sub001/internal/stream"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// splitsCacheTTL bounds staleness from course edits that do not pass
// through plan invalidation, like waypoint moves.
const splitsCacheTTL = 10 * time.Minute

type Service struct {
	db      db.Querier
	cache   *redis.Client
	hub     *stream.Hub
	metrics *observability.Collector
	opts    pacing.Options
}

// NewService wires the plan service. cache, hub and metrics may be nil;
// the service then recomputes on every read and skips broadcasting.
func NewService(q db.Querier, cache *redis.Client, hub *stream.Hub, metrics *observability.Collector, opts pacing.Options) *Service {
	return &Service{db: q, cache: cache, hub: hub, metrics: metrics, opts: opts}
}

func (s *Service) Create(ctx context.Context, input Plan) (Plan, error) {
	applyDefaults(&input)
	if err := validatePlan(input); err != nil {
		return Plan{}, err
	}
	input.ID = uuid.NewString()
	row := s.db.QueryRow(ctx, `
		INSERT INTO plans (id, course_id, owner_id, name, pace_mode, pace_sec_per_unit, pace_unit,
			target_time_sec, pacing_strategy, pacing_linear_pct, default_stoppage_sec)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING created_at, updated_at
	`, input.ID, input.CourseID, input.OwnerID, input.Name, input.PaceMode, floatPtr(input.PaceSecPerUnit),
		input.PaceUnit, floatPtr(input.TargetTimeSec), input.PacingStrategy, input.PacingLinearPct,
		input.DefaultStoppageSec)
	if err := row.Scan(&input.CreatedAt, &input.UpdatedAt); err != nil {
		return Plan{}, err
	}
	return input, nil
}

func (s *Service) Get(ctx context.Context, id string) (Plan, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, course_id, owner_id, name, pace_mode, COALESCE(pace_sec_per_unit, 0), pace_unit,
			COALESCE(target_time_sec, 0), pacing_strategy, pacing_linear_pct, default_stoppage_sec,
			created_at, updated_at
		FROM plans WHERE id=$1
	`, id)
	var p Plan
	if err := row.Scan(&p.ID, &p.CourseID, &p.OwnerID, &p.Name, &p.PaceMode, &p.PaceSecPerUnit,
		&p.PaceUnit, &p.TargetTimeSec, &p.PacingStrategy, &p.PacingLinearPct, &p.DefaultStoppageSec,
		&p.CreatedAt, &p.UpdatedAt); err != nil {
		return Plan{}, err
	}
	return p, nil
}

func (s *Service) ListByCourse(ctx context.Context, courseID string) ([]Plan, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, course_id, owner_id, name, pace_mode, COALESCE(pace_sec_per_unit, 0), pace_unit,
			COALESCE(target_time_sec, 0), pacing_strategy, pacing_linear_pct, default_stoppage_sec,
			created_at, updated_at
		FROM plans WHERE course_id=$1
		ORDER BY created_at DESC
	`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []Plan
	for rows.Next() {
		var p Plan
		if err := rows.Scan(&p.ID, &p.CourseID, &p.OwnerID, &p.Name, &p.PaceMode, &p.PaceSecPerUnit,
			&p.PaceUnit, &p.TargetTimeSec, &p.PacingStrategy, &p.PacingLinearPct, &p.DefaultStoppageSec,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, nil
}

func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (Plan, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return Plan{}, err
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.PaceMode != nil {
		p.PaceMode = *req.PaceMode
	}
	if req.PaceSecPerUnit != nil {
		p.PaceSecPerUnit = *req.PaceSecPerUnit
	}
	if req.PaceUnit != nil {
		p.PaceUnit = *req.PaceUnit
	}
	if req.TargetTimeSec != nil {
		p.TargetTimeSec = *req.TargetTimeSec
	}
	if req.PacingStrategy != nil {
		p.PacingStrategy = *req.PacingStrategy
	}
	if req.PacingLinearPct != nil {
		p.PacingLinearPct = *req.PacingLinearPct
	}
	if req.DefaultStoppageSec != nil {
		p.DefaultStoppageSec = *req.DefaultStoppageSec
	}
	if err := validatePlan(p); err != nil {
		return Plan{}, err
	}

	row := s.db.QueryRow(ctx, `
		UPDATE plans
		SET name=$2, pace_mode=$3, pace_sec_per_unit=$4, pace_unit=$5, target_time_sec=$6,
			pacing_strategy=$7, pacing_linear_pct=$8, default_stoppage_sec=$9, updated_at=now()
		WHERE id=$1
		RETURNING updated_at
	`, p.ID, p.Name, p.PaceMode, floatPtr(p.PaceSecPerUnit), p.PaceUnit, floatPtr(p.TargetTimeSec),
		p.PacingStrategy, p.PacingLinearPct, p.DefaultStoppageSec)
	if err := row.Scan(&p.UpdatedAt); err != nil {
		return Plan{}, err
	}
	s.invalidate(ctx, id)
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM plans WHERE id=$1`, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *Service) Stoppages(ctx context.Context, planID string) ([]Stoppage, error) {
	rows, err := s.db.Query(ctx, `
		SELECT plan_id, waypoint_id, stoppage_sec
		FROM plan_stoppages WHERE plan_id=$1
		ORDER BY waypoint_id
	`, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stoppages []Stoppage
	for rows.Next() {
		var st Stoppage
		if err := rows.Scan(&st.PlanID, &st.WaypointID, &st.StoppageSec); err != nil {
			return nil, err
		}
		stoppages = append(stoppages, st)
	}
	return stoppages, nil
}

func (s *Service) SetStoppage(ctx context.Context, planID, waypointID string, sec float64) (Stoppage, error) {
	if sec < 0 {
		return Stoppage{}, errNegativeStoppage
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO plan_stoppages (plan_id, waypoint_id, stoppage_sec)
		VALUES ($1,$2,$3)
		ON CONFLICT (plan_id, waypoint_id) DO UPDATE SET stoppage_sec=EXCLUDED.stoppage_sec
	`, planID, waypointID, sec)
	if err != nil {
		return Stoppage{}, err
	}
	s.invalidate(ctx, planID)
	return Stoppage{PlanID: planID, WaypointID: waypointID, StoppageSec: sec}, nil
}

func (s *Service) DeleteStoppage(ctx context.Context, planID, waypointID string) error {
	_, err := s.db.Exec(ctx, `
		DELETE FROM plan_stoppages WHERE plan_id=$1 AND waypoint_id=$2
	`, planID, waypointID)
	if err != nil {
		return err
	}
	s.invalidate(ctx, planID)
	return nil
}

// Splits returns the cached splits table when present, otherwise
// recomputes and caches it.
func (s *Service) Splits(ctx context.Context, id string) ([]pacing.SplitRow, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rows, ok := s.cachedSplits(ctx, id); ok {
		return rows, nil
	}
	in, err := s.inputs(ctx, p)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	rows := pacing.Splits(in)
	s.metrics.RecordRecompute(p.PaceMode, time.Since(start))
	s.storeSplits(ctx, id, rows)
	return rows, nil
}

// Series samples the predicted-pace curve. A non-positive step falls
// back to the plan owner's sampling step.
func (s *Service) Series(ctx context.Context, id string, stepM float64) ([]pacing.PacePoint, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	in, err := s.inputs(ctx, p)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	points := pacing.Series(in, stepM)
	s.metrics.RecordRecompute(p.PaceMode, time.Since(start))
	return points, nil
}

// PaceAt answers a single point query for chart tooltips.
func (s *Service) PaceAt(ctx context.Context, id string, distanceM float64) (*pacing.PacePoint, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	in, err := s.inputs(ctx, p)
	if err != nil {
		return nil, err
	}
	return pacing.PaceAt(in, distanceM), nil
}

// ETAs predicts arrival and departure times for every course waypoint.
// Departure includes the waypoint's own stoppage, arrival does not.
func (s *Service) ETAs(ctx context.Context, id string) ([]ETA, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	in, err := s.inputs(ctx, p)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, name, kind, distance_m, position
		FROM waypoints WHERE course_id=$1
		ORDER BY position
	`, p.CourseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type detail struct {
		id       string
		name     string
		kind     string
		distance float64
		position int
	}
	var details []detail
	maxPosition := 0
	for rows.Next() {
		var d detail
		if err := rows.Scan(&d.id, &d.name, &d.kind, &d.distance, &d.position); err != nil {
			return nil, err
		}
		if d.position > maxPosition {
			maxPosition = d.position
		}
		details = append(details, d)
	}

	start := time.Now()
	etas := make([]ETA, 0, len(details))
	for _, d := range details {
		eta := ETA{WaypointID: d.id, Name: d.name, Kind: d.kind, DistanceM: d.distance}
		if d.position > 0 && d.position < maxPosition {
			eta.StoppageSec = p.DefaultStoppageSec
			if sec, ok := in.Overrides[d.id]; ok {
				eta.StoppageSec = sec
			}
		}
		if departure, ok := pacing.ElapsedAt(in, d.distance); ok {
			arrival := departure - eta.StoppageSec
			eta.ArrivalSec = &arrival
			eta.DepartureSec = &departure
		}
		etas = append(etas, eta)
	}
	s.metrics.RecordRecompute(p.PaceMode, time.Since(start))
	return etas, nil
}

// StatusAt reports how far ahead of or behind the plan a runner is at
// the given distance and elapsed time.
func (s *Service) StatusAt(ctx context.Context, id string, distanceM, elapsedSec float64) (Status, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return Status{}, err
	}
	in, err := s.inputs(ctx, p)
	if err != nil {
		return Status{}, err
	}
	st := Status{PlanID: id, DistanceM: distanceM, ElapsedSec: elapsedSec}
	if planned, ok := pacing.ElapsedAt(in, distanceM); ok {
		delta := elapsedSec - planned
		st.PlannedSec = &planned
		st.DeltaSec = &delta
		st.Ahead = delta < 0
	}
	return st, nil
}

// ExportCSV renders the splits table with raw seconds and meters;
// formatting is the client's concern.
func (s *Service) ExportCSV(ctx context.Context, id string) ([]byte, error) {
	rows, err := s.Splits(ctx, id)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"index", "start_m", "end_m", "distance_m", "gain_m", "loss_m",
		"avg_grade_percent", "pace_sec_per_unit", "elapsed_sec"})
	for _, r := range rows {
		_ = w.Write([]string{
			strconv.Itoa(r.Index),
			formatFloat(r.StartM),
			formatFloat(r.EndM),
			formatFloat(r.DistanceM),
			formatFloat(r.GainM),
			formatFloat(r.LossM),
			formatFloat(r.AvgGradePercent),
			formatFloatPtr(r.PacePerUnit),
			formatFloatPtr(r.ElapsedSec),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// inputs assembles everything one engine computation needs: the course
// profile, the engine view of the waypoints, the plan's stoppage
// overrides and the owner's sampling settings.
func (s *Service) inputs(ctx context.Context, p Plan) (pacing.Inputs, error) {
	var profileJSON []byte
	if err := s.db.QueryRow(ctx, `SELECT profile FROM courses WHERE id=$1`, p.CourseID).
		Scan(&profileJSON); err != nil {
		return pacing.Inputs{}, fmt.Errorf("load course: %w", err)
	}
	var profile []pacing.ElevationPoint
	if len(profileJSON) > 0 {
		if err := json.Unmarshal(profileJSON, &profile); err != nil {
			return pacing.Inputs{}, fmt.Errorf("decode profile: %w", err)
		}
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, distance_m, position FROM waypoints
		WHERE course_id=$1
		ORDER BY position
	`, p.CourseID)
	if err != nil {
		return pacing.Inputs{}, err
	}
	defer rows.Close()
	var waypoints []pacing.Waypoint
	for rows.Next() {
		var w pacing.Waypoint
		if err := rows.Scan(&w.ID, &w.DistanceM, &w.Order); err != nil {
			return pacing.Inputs{}, err
		}
		waypoints = append(waypoints, w)
	}

	overrides := map[string]float64{}
	orows, err := s.db.Query(ctx, `
		SELECT waypoint_id, stoppage_sec FROM plan_stoppages WHERE plan_id=$1
	`, p.ID)
	if err != nil {
		return pacing.Inputs{}, err
	}
	defer orows.Close()
	for orows.Next() {
		var id string
		var sec float64
		if err := orows.Scan(&id, &sec); err != nil {
			return pacing.Inputs{}, err
		}
		overrides[id] = sec
	}

	return pacing.Inputs{
		Profile:            profile,
		Config:             p.config(),
		Waypoints:          waypoints,
		Overrides:          overrides,
		DefaultStoppageSec: p.DefaultStoppageSec,
		Options:            s.optionsFor(ctx, p.OwnerID),
	}, nil
}

// optionsFor prefers the plan owner's sampling settings over the
// service defaults.
func (s *Service) optionsFor(ctx context.Context, ownerID string) pacing.Options {
	opts := s.opts
	var step, window float64
	err := s.db.QueryRow(ctx, `
		SELECT sample_step_m, grade_window_m FROM user_settings WHERE user_id=$1
	`, ownerID).Scan(&step, &window)
	if err != nil {
		return opts
	}
	if step > 0 {
		opts.SampleStepM = step
	}
	if window > 0 {
		opts.GradeWindowM = window
	}
	return opts
}

func (s *Service) cachedSplits(ctx context.Context, id string) ([]pacing.SplitRow, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.Get(ctx, splitsKey(id)).Bytes()
	if err != nil {
		return nil, false
	}
	var rows []pacing.SplitRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, false
	}
	return rows, true
}

func (s *Service) storeSplits(ctx context.Context, id string, rows []pacing.SplitRow) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, splitsKey(id), data, splitsCacheTTL).Err(); err != nil {
		log.Printf("splits cache set error: %v", err)
	}
}

// invalidate drops the cached splits and tells live subscribers to
// refetch. Called after every mutation that changes the schedule.
func (s *Service) invalidate(ctx context.Context, id string) {
	if s.cache != nil {
		if err := s.cache.Del(ctx, splitsKey(id)).Err(); err != nil {
			log.Printf("splits cache del error: %v", err)
		}
	}
	if s.hub != nil {
		payload, _ := json.Marshal(map[string]string{"type": "plan.updated", "plan_id": id})
		s.hub.Broadcast(id, payload)
	}
}

func splitsKey(id string) string {
	return "plans:" + id + ":splits"
}

func applyDefaults(p *Plan) {
	if p.PaceMode == "" {
		p.PaceMode = "pace"
	}
	if p.PaceUnit == "" {
		p.PaceUnit = "per_km"
	}
	if p.PacingStrategy == "" {
		p.PacingStrategy = "flat"
	}
}

func validatePlan(p Plan) error {
	switch p.PaceMode {
	case "pace", "normalized", "time":
	default:
		return fmt.Errorf("pace_mode must be pace, normalized or time")
	}
	switch p.PaceUnit {
	case "per_km", "per_mile":
	default:
		return fmt.Errorf("pace_unit must be per_km or per_mile")
	}
	switch p.PacingStrategy {
	case "flat", "linear":
	default:
		return fmt.Errorf("pacing_strategy must be flat or linear")
	}
	if p.PacingLinearPct < -50 || p.PacingLinearPct > 50 {
		return fmt.Errorf("pacing_linear_pct must be within [-50, 50]")
	}
	if p.PaceSecPerUnit < 0 {
		return fmt.Errorf("pace_sec_per_unit must not be negative")
	}
	if p.TargetTimeSec < 0 {
		return fmt.Errorf("target_time_sec must not be negative")
	}
	if p.DefaultStoppageSec < 0 {
		return fmt.Errorf("default_stoppage_sec must not be negative")
	}
	if p.PaceMode == "time" && p.TargetTimeSec == 0 {
		return errTimeModeNeedsTarget
	}
	return nil
}

// floatPtr maps the zero value to NULL so optional numeric columns
// stay distinguishable from a real zero.
func floatPtr(v float64) *float64 {
	if v == 0 {
		return nil
	}
	return &v
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

var (
	errTimeModeNeedsTarget = errors.New("time mode requires target_time_sec")
	errNegativeStoppage    = errors.New("stoppage_sec must not be negative")
)
