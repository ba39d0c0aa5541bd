package plan

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"

	"github.com/lancewilhelm/shpacer-sub001/internal/pacing"
)

func newPlanApp(svc *Service) *fiber.App {
	app := fiber.New()
	RegisterRoutes(app.Group("/plans"), svc, func(c *fiber.Ctx) error {
		c.Locals("user_id", "user-1")
		return c.Next()
	})
	return app
}

func TestCreatePlanHandler(t *testing.T) {
	mock := newMock(t)
	pace := 360.0
	mock.ExpectQuery(`INSERT INTO plans`).
		WithArgs(pgxmock.AnyArg(), "course-1", "user-1", "Race Plan", "pace", &pace, "per_km",
			(*float64)(nil), "flat", 0.0, 60.0).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).
			AddRow(time.Now(), time.Now()))

	app := newPlanApp(NewService(mock, nil, nil, nil, pacing.Options{}))
	body := `{"course_id":"course-1","name":"Race Plan","pace_sec_per_unit":360,"default_stoppage_sec":60}`
	req := httptest.NewRequest(http.MethodPost, "/plans/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var created Plan
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.OwnerID != "user-1" || created.PaceMode != "pace" {
		t.Fatalf("unexpected plan: %+v", created)
	}
}

func TestCreatePlanHandlerRequiresFields(t *testing.T) {
	app := newPlanApp(NewService(nil, nil, nil, nil, pacing.Options{}))
	req := httptest.NewRequest(http.MethodPost, "/plans/", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCreatePlanHandlerParseError(t *testing.T) {
	app := newPlanApp(NewService(nil, nil, nil, nil, pacing.Options{}))
	req := httptest.NewRequest(http.MethodPost, "/plans/", strings.NewReader(`{`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestListPlansHandlerRequiresCourse(t *testing.T) {
	app := newPlanApp(NewService(nil, nil, nil, nil, pacing.Options{}))
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/plans/", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestListPlansHandler(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`SELECT id, course_id, owner_id, name, pace_mode`).
		WithArgs("course-1").
		WillReturnRows(planRow("plan-1"))

	app := newPlanApp(NewService(mock, nil, nil, nil, pacing.Options{}))
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/plans/?course_id=course-1", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var plans []Plan
	if err := json.NewDecoder(resp.Body).Decode(&plans); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(plans) != 1 || plans[0].ID != "plan-1" {
		t.Fatalf("unexpected plans: %+v", plans)
	}
}

func TestGetPlanHandlerNotFound(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`SELECT id, course_id, owner_id, name, pace_mode`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	app := newPlanApp(NewService(mock, nil, nil, nil, pacing.Options{}))
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/plans/missing", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestUpdatePlanHandler(t *testing.T) {
	mock := newMock(t)
	expectGetPlan(mock, "plan-1")
	pace := 360.0
	mock.ExpectQuery(`UPDATE plans`).
		WithArgs("plan-1", "Taper Plan", "pace", &pace, "per_km", (*float64)(nil), "flat", 0.0, 60.0).
		WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(time.Now()))

	app := newPlanApp(NewService(mock, nil, nil, nil, pacing.Options{}))
	req := httptest.NewRequest(http.MethodPut, "/plans/plan-1", strings.NewReader(`{"name":"Taper Plan"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var updated Plan
	if err := json.NewDecoder(resp.Body).Decode(&updated); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if updated.Name != "Taper Plan" {
		t.Fatalf("unexpected plan: %+v", updated)
	}
}

func TestDeletePlanHandler(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(`DELETE FROM plans`).
		WithArgs("plan-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	app := newPlanApp(NewService(mock, nil, nil, nil, pacing.Options{}))
	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/plans/plan-1", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
}

func TestSplitsHandler(t *testing.T) {
	mock := newMock(t)
	expectGetPlan(mock, "plan-1")
	expectInputs(mock, "plan-1")

	app := newPlanApp(NewService(mock, nil, nil, nil, pacing.Options{}))
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/plans/plan-1/splits", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var rows []pacing.SplitRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(rows) != 2 || rows[1].ElapsedSec == nil || *rows[1].ElapsedSec != 780 {
		t.Fatalf("unexpected splits: %+v", rows)
	}
}

func TestSeriesHandlerBadStep(t *testing.T) {
	app := newPlanApp(NewService(nil, nil, nil, nil, pacing.Options{}))
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/plans/plan-1/series?step=abc", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestPaceHandlerRequiresDistance(t *testing.T) {
	app := newPlanApp(NewService(nil, nil, nil, nil, pacing.Options{}))
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/plans/plan-1/pace", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestStatusHandlerRequiresParams(t *testing.T) {
	app := newPlanApp(NewService(nil, nil, nil, nil, pacing.Options{}))
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/plans/plan-1/status?distance=1000", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestSetStoppageHandler(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(`INSERT INTO plan_stoppages`).
		WithArgs("plan-1", "wp-aid", 30.0).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	app := newPlanApp(NewService(mock, nil, nil, nil, pacing.Options{}))
	req := httptest.NewRequest(http.MethodPut, "/plans/plan-1/stoppages/wp-aid", strings.NewReader(`{"stoppage_sec":30}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var st Stoppage
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if st.WaypointID != "wp-aid" || st.StoppageSec != 30 {
		t.Fatalf("unexpected stoppage: %+v", st)
	}
}

func TestSetStoppageHandlerRejectsNegative(t *testing.T) {
	app := newPlanApp(NewService(nil, nil, nil, nil, pacing.Options{}))
	req := httptest.NewRequest(http.MethodPut, "/plans/plan-1/stoppages/wp-aid", strings.NewReader(`{"stoppage_sec":-1}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestDeleteStoppageHandler(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(`DELETE FROM plan_stoppages`).
		WithArgs("plan-1", "wp-aid").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	app := newPlanApp(NewService(mock, nil, nil, nil, pacing.Options{}))
	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/plans/plan-1/stoppages/wp-aid", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
}

func TestExportCSVHandler(t *testing.T) {
	mock := newMock(t)
	expectGetPlan(mock, "plan-1")
	expectInputs(mock, "plan-1")

	app := newPlanApp(NewService(mock, nil, nil, nil, pacing.Options{}))
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/plans/plan-1/export/csv", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("unexpected content type %q", ct)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.HasPrefix(string(body), "index,") {
		t.Fatalf("unexpected export body: %q", body)
	}
}
