package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/timelime/internal/event"
	"github.com/hitoshi/timelime/internal/model"
	"github.com/hitoshi/timelime/internal/recurrence"
)

// --- モック定義 ---

// mockEventService はEventServiceInterfaceのモック実装。
type mockEventService struct {
	listFn          func(ctx context.Context) ([]model.Event, error)
	listActiveOnFn  func(ctx context.Context, day time.Time) ([]model.Event, error)
	getFn           func(ctx context.Context, id string) (*model.Event, error)
	createFn        func(ctx context.Context, in event.Input) (*model.Event, error)
	updateFn        func(ctx context.Context, id string, in event.Input) (*model.Event, error)
	deleteFn        func(ctx context.Context, id string) error
	deleteAllFn     func(ctx context.Context) error
	toggleCheckInFn func(ctx context.Context, id string, day time.Time) (*event.ToggleResult, error)
	statsAtFn       func(ctx context.Context, id string, today time.Time) (*event.Stats, error)
	periodsFn       func(ctx context.Context, id string, from, to time.Time) ([]recurrence.KeyedPeriod, error)
}

func (m *mockEventService) List(ctx context.Context) ([]model.Event, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockEventService) ListActiveOn(ctx context.Context, day time.Time) ([]model.Event, error) {
	if m.listActiveOnFn != nil {
		return m.listActiveOnFn(ctx, day)
	}
	return nil, nil
}

func (m *mockEventService) Get(ctx context.Context, id string) (*model.Event, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, nil
}

func (m *mockEventService) Create(ctx context.Context, in event.Input) (*model.Event, error) {
	if m.createFn != nil {
		return m.createFn(ctx, in)
	}
	return nil, nil
}

func (m *mockEventService) Update(ctx context.Context, id string, in event.Input) (*model.Event, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, in)
	}
	return nil, nil
}

func (m *mockEventService) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockEventService) DeleteAll(ctx context.Context) error {
	if m.deleteAllFn != nil {
		return m.deleteAllFn(ctx)
	}
	return nil
}

func (m *mockEventService) ToggleCheckIn(ctx context.Context, id string, day time.Time) (*event.ToggleResult, error) {
	if m.toggleCheckInFn != nil {
		return m.toggleCheckInFn(ctx, id, day)
	}
	return nil, nil
}

func (m *mockEventService) StatsAt(ctx context.Context, id string, today time.Time) (*event.Stats, error) {
	if m.statsAtFn != nil {
		return m.statsAtFn(ctx, id, today)
	}
	return nil, nil
}

func (m *mockEventService) Periods(ctx context.Context, id string, from, to time.Time) ([]recurrence.KeyedPeriod, error) {
	if m.periodsFn != nil {
		return m.periodsFn(ctx, id, from, to)
	}
	return nil, nil
}

// --- テストヘルパー ---

// withChiURLParam はテスト用にchiのURLパラメータを注入するヘルパー。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	return r.WithContext(ctx)
}

// parseAPIErrorResponse はレスポンスボディからAPIErrorレスポンスをパースするヘルパー。
func parseAPIErrorResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var result map[string]string
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return result
}

func sampleEvent(id string) model.Event {
	return model.Event{
		ID:               id,
		Title:            "Morning Run",
		Color:            "#FF5733",
		CheckInFrequency: model.FrequencyDaily,
		StartDate:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		CheckIns:         []model.CheckIn{},
		CreatedAt:        time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		UpdatedAt:        time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

// --- GET /api/events テスト ---

func TestEventHandler_ListEvents_Success(t *testing.T) {
	svc := &mockEventService{
		listFn: func(ctx context.Context) ([]model.Event, error) {
			return []model.Event{sampleEvent("ev-1"), sampleEvent("ev-2")}, nil
		},
	}
	h := NewEventHandler(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	w := httptest.NewRecorder()

	h.ListEvents(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var events []model.Event
	if err := json.NewDecoder(w.Body).Decode(&events); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("len(events) = %d, want 2", len(events))
	}
}

func TestEventHandler_ListEvents_FilterByDate(t *testing.T) {
	var gotDay time.Time
	svc := &mockEventService{
		listActiveOnFn: func(ctx context.Context, day time.Time) ([]model.Event, error) {
			gotDay = day
			return []model.Event{sampleEvent("ev-1")}, nil
		},
	}
	h := NewEventHandler(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/events?on=2024-03-15", nil)
	w := httptest.NewRecorder()

	h.ListEvents(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	if !gotDay.Equal(want) {
		t.Errorf("day = %v, want %v", gotDay, want)
	}
}

func TestEventHandler_ListEvents_InvalidDate(t *testing.T) {
	h := NewEventHandler(&mockEventService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/events?on=not-a-date", nil)
	w := httptest.NewRecorder()

	h.ListEvents(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

// --- POST /api/events テスト ---

func TestEventHandler_CreateEvent_Success(t *testing.T) {
	svc := &mockEventService{
		createFn: func(ctx context.Context, in event.Input) (*model.Event, error) {
			if in.Title != "Morning Run" {
				t.Errorf("title = %q, want %q", in.Title, "Morning Run")
			}
			if in.CheckInFrequency != "Daily" {
				t.Errorf("frequency = %q, want %q", in.CheckInFrequency, "Daily")
			}
			ev := sampleEvent("ev-new")
			return &ev, nil
		},
	}
	h := NewEventHandler(svc, nil)

	body := `{"title": "Morning Run", "color": "#FF5733", "checkInFrequency": "Daily", "startDate": "2024-03-01"}`
	req := httptest.NewRequest(http.MethodPost, "/api/events", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	h.CreateEvent(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}

	var created model.Event
	if err := json.NewDecoder(w.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if created.ID != "ev-new" {
		t.Errorf("id = %q, want %q", created.ID, "ev-new")
	}
}

func TestEventHandler_CreateEvent_InvalidJSON(t *testing.T) {
	h := NewEventHandler(&mockEventService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/events", bytes.NewBufferString(`{not json`))
	w := httptest.NewRecorder()

	h.CreateEvent(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	result := parseAPIErrorResponse(t, w)
	if result["code"] != "INVALID_REQUEST" {
		t.Errorf("code = %q, want %q", result["code"], "INVALID_REQUEST")
	}
}

func TestEventHandler_CreateEvent_ValidationError(t *testing.T) {
	svc := &mockEventService{
		createFn: func(ctx context.Context, in event.Input) (*model.Event, error) {
			return nil, model.NewInvalidColorError(in.Color)
		},
	}
	h := NewEventHandler(svc, nil)

	body := `{"title": "Run", "color": "red", "checkInFrequency": "Daily", "startDate": "2024-03-01"}`
	req := httptest.NewRequest(http.MethodPost, "/api/events", bytes.NewBufferString(body))
	w := httptest.NewRecorder()

	h.CreateEvent(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	result := parseAPIErrorResponse(t, w)
	if result["code"] != model.ErrCodeInvalidColor {
		t.Errorf("code = %q, want %q", result["code"], model.ErrCodeInvalidColor)
	}
}

// --- GET /api/events/{id} テスト ---

func TestEventHandler_GetEvent_Success(t *testing.T) {
	svc := &mockEventService{
		getFn: func(ctx context.Context, id string) (*model.Event, error) {
			if id != "ev-1" {
				t.Errorf("id = %q, want %q", id, "ev-1")
			}
			ev := sampleEvent("ev-1")
			return &ev, nil
		},
	}
	h := NewEventHandler(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/events/ev-1", nil)
	req = withChiURLParam(req, "id", "ev-1")
	w := httptest.NewRecorder()

	h.GetEvent(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestEventHandler_GetEvent_NotFound(t *testing.T) {
	svc := &mockEventService{
		getFn: func(ctx context.Context, id string) (*model.Event, error) {
			return nil, model.NewEventNotFoundError(id)
		},
	}
	h := NewEventHandler(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/events/missing", nil)
	req = withChiURLParam(req, "id", "missing")
	w := httptest.NewRecorder()

	h.GetEvent(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	result := parseAPIErrorResponse(t, w)
	if result["code"] != model.ErrCodeEventNotFound {
		t.Errorf("code = %q, want %q", result["code"], model.ErrCodeEventNotFound)
	}
}

func TestEventHandler_GetEvent_InternalError(t *testing.T) {
	svc := &mockEventService{
		getFn: func(ctx context.Context, id string) (*model.Event, error) {
			return nil, errors.New("storage exploded")
		},
	}
	h := NewEventHandler(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/events/ev-1", nil)
	req = withChiURLParam(req, "id", "ev-1")
	w := httptest.NewRecorder()

	h.GetEvent(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	result := parseAPIErrorResponse(t, w)
	if result["code"] != "INTERNAL_ERROR" {
		t.Errorf("code = %q, want %q", result["code"], "INTERNAL_ERROR")
	}
}

// --- DELETE テスト ---

func TestEventHandler_DeleteEvent_Success(t *testing.T) {
	deleted := false
	svc := &mockEventService{
		deleteFn: func(ctx context.Context, id string) error {
			deleted = true
			return nil
		},
	}
	h := NewEventHandler(svc, nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/events/ev-1", nil)
	req = withChiURLParam(req, "id", "ev-1")
	w := httptest.NewRecorder()

	h.DeleteEvent(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if !deleted {
		t.Error("Delete should have been called")
	}
}

func TestEventHandler_DeleteAllEvents_Success(t *testing.T) {
	svc := &mockEventService{}
	h := NewEventHandler(svc, nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/events", nil)
	w := httptest.NewRecorder()

	h.DeleteAllEvents(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
}

// --- POST /api/events/{id}/checkins/toggle テスト ---

func TestEventHandler_ToggleCheckIn_Added(t *testing.T) {
	svc := &mockEventService{
		toggleCheckInFn: func(ctx context.Context, id string, day time.Time) (*event.ToggleResult, error) {
			want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
			if !day.Equal(want) {
				t.Errorf("day = %v, want %v", day, want)
			}
			return &event.ToggleResult{Event: sampleEvent(id), Added: true}, nil
		},
	}
	h := NewEventHandler(svc, nil)

	body := `{"date": "2024-03-15"}`
	req := httptest.NewRequest(http.MethodPost, "/api/events/ev-1/checkins/toggle", bytes.NewBufferString(body))
	req = withChiURLParam(req, "id", "ev-1")
	w := httptest.NewRecorder()

	h.ToggleCheckIn(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var result toggleResponse
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.Action != "added" {
		t.Errorf("action = %q, want %q", result.Action, "added")
	}
}

func TestEventHandler_ToggleCheckIn_Removed(t *testing.T) {
	svc := &mockEventService{
		toggleCheckInFn: func(ctx context.Context, id string, day time.Time) (*event.ToggleResult, error) {
			return &event.ToggleResult{Event: sampleEvent(id), Removed: true}, nil
		},
	}
	h := NewEventHandler(svc, nil)

	body := `{"date": "2024-03-15"}`
	req := httptest.NewRequest(http.MethodPost, "/api/events/ev-1/checkins/toggle", bytes.NewBufferString(body))
	req = withChiURLParam(req, "id", "ev-1")
	w := httptest.NewRecorder()

	h.ToggleCheckIn(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var result toggleResponse
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.Action != "removed" {
		t.Errorf("action = %q, want %q", result.Action, "removed")
	}
}

func TestEventHandler_ToggleCheckIn_DefaultsToToday(t *testing.T) {
	var gotDay time.Time
	svc := &mockEventService{
		toggleCheckInFn: func(ctx context.Context, id string, day time.Time) (*event.ToggleResult, error) {
			gotDay = day
			return &event.ToggleResult{Event: sampleEvent(id), Added: true}, nil
		},
	}
	h := NewEventHandler(svc, nil)

	// 日付なしの空ボディは当日扱い
	req := httptest.NewRequest(http.MethodPost, "/api/events/ev-1/checkins/toggle", bytes.NewBufferString(`{}`))
	req = withChiURLParam(req, "id", "ev-1")
	w := httptest.NewRecorder()

	h.ToggleCheckIn(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotDay.IsZero() {
		t.Error("day should default to current time, got zero value")
	}
}

func TestEventHandler_ToggleCheckIn_EmptyBody(t *testing.T) {
	var gotDay time.Time
	svc := &mockEventService{
		toggleCheckInFn: func(ctx context.Context, id string, day time.Time) (*event.ToggleResult, error) {
			gotDay = day
			return &event.ToggleResult{Event: sampleEvent(id), Added: true}, nil
		},
	}
	h := NewEventHandler(svc, nil)

	// ボディそのものがないPOSTも当日扱いで受け付ける
	req := httptest.NewRequest(http.MethodPost, "/api/events/ev-1/checkins/toggle", nil)
	req = withChiURLParam(req, "id", "ev-1")
	w := httptest.NewRecorder()

	h.ToggleCheckIn(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotDay.IsZero() {
		t.Error("day should default to current time, got zero value")
	}
}

// --- GET /api/events/{id}/stats テスト ---

func TestEventHandler_GetStats_Success(t *testing.T) {
	svc := &mockEventService{
		statsAtFn: func(ctx context.Context, id string, today time.Time) (*event.Stats, error) {
			return &event.Stats{CurrentStreak: 3, LongestStreak: 7, TotalCheckIns: 20}, nil
		},
	}
	h := NewEventHandler(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/events/ev-1/stats?asOf=2024-03-15", nil)
	req = withChiURLParam(req, "id", "ev-1")
	w := httptest.NewRecorder()

	h.GetStats(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var stats event.Stats
	if err := json.NewDecoder(w.Body).Decode(&stats); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if stats.CurrentStreak != 3 || stats.LongestStreak != 7 || stats.TotalCheckIns != 20 {
		t.Errorf("stats = %+v, want {3 7 20}", stats)
	}
}

// --- GET /api/events/{id}/periods テスト ---

func TestEventHandler_GetPeriods_Success(t *testing.T) {
	svc := &mockEventService{
		periodsFn: func(ctx context.Context, id string, from, to time.Time) ([]recurrence.KeyedPeriod, error) {
			return []recurrence.KeyedPeriod{
				{Key: "2024-03-01", Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
				{Key: "2024-03-02", Date: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)},
			}, nil
		},
	}
	h := NewEventHandler(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/events/ev-1/periods?from=2024-03-01&to=2024-03-02", nil)
	req = withChiURLParam(req, "id", "ev-1")
	w := httptest.NewRecorder()

	h.GetPeriods(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var periods []periodResponse
	if err := json.NewDecoder(w.Body).Decode(&periods); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(periods) != 2 {
		t.Fatalf("len(periods) = %d, want 2", len(periods))
	}
	if periods[0].Key != "2024-03-01" || periods[0].Date != "2024-03-01" {
		t.Errorf("periods[0] = %+v, want key/date 2024-03-01", periods[0])
	}
}

func TestEventHandler_GetPeriods_MissingRange(t *testing.T) {
	h := NewEventHandler(&mockEventService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/events/ev-1/periods", nil)
	req = withChiURLParam(req, "id", "ev-1")
	w := httptest.NewRecorder()

	h.GetPeriods(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}
