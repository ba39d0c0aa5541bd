package progress

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/lancewilhelm/shpacer-sub001/internal/db"
	"github.com/lancewilhelm/shpacer-sub001/internal/plan"
	"github.com/lancewilhelm/shpacer-sub001/internal/stream"
)

type Service struct {
	db    db.Querier
	plans *plan.Service
	hub   *stream.Hub
}

func NewService(q db.Querier, plans *plan.Service, hub *stream.Hub) *Service {
	return &Service{db: q, plans: plans, hub: hub}
}

func (s *Service) Create(ctx context.Context, planID string, input Checkin) (Checkin, error) {
	input.ID = uuid.NewString()
	input.PlanID = planID

	row := s.db.QueryRow(ctx, `
		INSERT INTO checkins (id, plan_id, distance_m, elapsed_sec, note)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at
	`, input.ID, planID, input.DistanceM, input.ElapsedSec, input.Note)
	if err := row.Scan(&input.CreatedAt); err != nil {
		return Checkin{}, err
	}

	// the checkin stands even when the schedule cannot be computed
	if st, err := s.plans.StatusAt(ctx, planID, input.DistanceM, input.ElapsedSec); err == nil {
		input.Status = &st
	}

	if s.hub != nil {
		payload, _ := json.Marshal(checkinEvent{Type: "checkin", Checkin: input})
		s.hub.Broadcast(planID, payload)
	}

	return input, nil
}

func (s *Service) List(ctx context.Context, planID string) ([]Checkin, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, plan_id, distance_m, elapsed_sec, note, created_at
		FROM checkins WHERE plan_id=$1
		ORDER BY created_at
	`, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var checkins []Checkin
	for rows.Next() {
		var ck Checkin
		if err := rows.Scan(&ck.ID, &ck.PlanID, &ck.DistanceM, &ck.ElapsedSec, &ck.Note, &ck.CreatedAt); err != nil {
			return nil, err
		}
		checkins = append(checkins, ck)
	}
	return checkins, nil
}
