// Package handler はHTTP APIのハンドラー群を提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/timelime/internal/event"
	"github.com/hitoshi/timelime/internal/metrics"
	"github.com/hitoshi/timelime/internal/model"
	"github.com/hitoshi/timelime/internal/recurrence"
)

// EventServiceInterface はイベントハンドラーが必要とするサービスインターフェース。
type EventServiceInterface interface {
	// List は全イベントを返す。
	List(ctx context.Context) ([]model.Event, error)
	// ListActiveOn は指定日にアクティブなイベントのみを返す。
	ListActiveOn(ctx context.Context, day time.Time) ([]model.Event, error)
	// Get は指定IDのイベントを取得する。
	Get(ctx context.Context, id string) (*model.Event, error)
	// Create はイベントを作成する。
	Create(ctx context.Context, in event.Input) (*model.Event, error)
	// Update はイベント定義を更新する。
	Update(ctx context.Context, id string, in event.Input) (*model.Event, error)
	// Delete はイベントを削除する。
	Delete(ctx context.Context, id string) error
	// DeleteAll は全イベントを削除する。
	DeleteAll(ctx context.Context) error
	// ToggleCheckIn は指定日のチェックインをトグルする。
	ToggleCheckIn(ctx context.Context, id string, day time.Time) (*event.ToggleResult, error)
	// StatsAt は指定日基準の集計値を返す。
	StatsAt(ctx context.Context, id string, today time.Time) (*event.Stats, error)
	// Periods は指定範囲の期待期間一覧を返す。
	Periods(ctx context.Context, id string, from, to time.Time) ([]recurrence.KeyedPeriod, error)
}

// EventHandler はイベント管理のHTTPハンドラー。
type EventHandler struct {
	service   EventServiceInterface
	collector metrics.MetricsCollector
}

// NewEventHandler はEventHandlerを生成する。
// collectorはnil可（記録をスキップする）。
func NewEventHandler(service EventServiceInterface, collector metrics.MetricsCollector) *EventHandler {
	return &EventHandler{
		service:   service,
		collector: collector,
	}
}

// eventRequest はイベント作成・更新リクエストのボディ。
// 日付は "2006-01-02" またはRFC3339で指定する。
type eventRequest struct {
	Title            string `json:"title"`
	Color            string `json:"color"`
	CheckInFrequency string `json:"checkInFrequency"`
	CustomDays       *int   `json:"customDays,omitempty"`
	StartDate        string `json:"startDate"`
	EndDate          string `json:"endDate,omitempty"`
}

// toggleRequest はチェックイントグルリクエストのボディ。
// dateを省略した場合は当日扱いとなる。
type toggleRequest struct {
	Date string `json:"date,omitempty"`
}

// toggleResponse はチェックイントグルのレスポンス。
type toggleResponse struct {
	Action string      `json:"action"`
	Event  model.Event `json:"event"`
}

// periodResponse は期待期間1件のレスポンス。
type periodResponse struct {
	Key  string `json:"key"`
	Date string `json:"date"`
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// ListEvents はイベント一覧を取得する。
// GET /api/events?on=2006-01-02
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	var events []model.Event
	var err error

	if on := r.URL.Query().Get("on"); on != "" {
		day, parseErr := parseDate(on)
		if parseErr != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidDateError(on))
			return
		}
		events, err = h.service.ListActiveOn(r.Context(), day)
	} else {
		events, err = h.service.List(r.Context())
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, events)
}

// CreateEvent はイベントを作成する。
// POST /api/events
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeEventInput(w, r)
	if !ok {
		return
	}

	created, err := h.service.Create(r.Context(), in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// GetEvent はイベント詳細を取得する。
// GET /api/events/:id
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	found, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, found)
}

// UpdateEvent はイベント定義を更新する。
// PUT /api/events/:id
func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeEventInput(w, r)
	if !ok {
		return
	}

	updated, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// DeleteEvent はイベントを削除する。
// DELETE /api/events/:id
func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteAllEvents は全イベントを削除する。
// DELETE /api/events
func (h *EventHandler) DeleteAllEvents(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteAll(r.Context()); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ToggleCheckIn はチェックインをトグルする。
// POST /api/events/:id/checkins/toggle
func (h *EventHandler) ToggleCheckIn(w http.ResponseWriter, r *http.Request) {
	// dateは省略可能なため、ボディなしのPOSTも受け付ける
	var req toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeInvalidRequestError(w)
		return
	}

	day := time.Now()
	if req.Date != "" {
		parsed, err := parseDate(req.Date)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidDateError(req.Date))
			return
		}
		day = parsed
	}

	result, err := h.service.ToggleCheckIn(r.Context(), chi.URLParam(r, "id"), day)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	action := "removed"
	if result.Added {
		action = "added"
	}
	if h.collector != nil {
		h.collector.RecordCheckInToggle(action)
	}
	writeJSON(w, http.StatusOK, toggleResponse{
		Action: action,
		Event:  result.Event,
	})
}

// GetStats はイベントの集計値を取得する。
// GET /api/events/:id/stats?asOf=2006-01-02
func (h *EventHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	today := time.Now()
	if asOf := r.URL.Query().Get("asOf"); asOf != "" {
		parsed, err := parseDate(asOf)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidDateError(asOf))
			return
		}
		today = parsed
	}

	stats, err := h.service.StatsAt(r.Context(), chi.URLParam(r, "id"), today)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// GetPeriods はイベントの期待期間一覧を取得する。
// GET /api/events/:id/periods?from=2006-01-02&to=2006-01-02
func (h *EventHandler) GetPeriods(w http.ResponseWriter, r *http.Request) {
	from, err := parseDate(r.URL.Query().Get("from"))
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidDateError(r.URL.Query().Get("from")))
		return
	}
	to, err := parseDate(r.URL.Query().Get("to"))
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidDateError(r.URL.Query().Get("to")))
		return
	}

	periods, err := h.service.Periods(r.Context(), chi.URLParam(r, "id"), from, to)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]periodResponse, 0, len(periods))
	for _, p := range periods {
		out = append(out, periodResponse{
			Key:  p.Key,
			Date: p.Date.Format("2006-01-02"),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// --- ヘルパー関数 ---

// decodeEventInput はイベント作成・更新リクエストを解析してevent.Inputへ変換する。
// 解析に失敗した場合はエラーレスポンスを書き込み、falseを返す。
func decodeEventInput(w http.ResponseWriter, r *http.Request) (event.Input, bool) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestError(w)
		return event.Input{}, false
	}

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidDateError(req.StartDate))
		return event.Input{}, false
	}

	in := event.Input{
		Title:            req.Title,
		Color:            req.Color,
		CheckInFrequency: model.Frequency(req.CheckInFrequency),
		CustomDays:       req.CustomDays,
		StartDate:        startDate,
	}

	if req.EndDate != "" {
		endDate, err := parseDate(req.EndDate)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidDateError(req.EndDate))
			return event.Input{}, false
		}
		in.EndDate = &endDate
	}

	return in, true
}

// parseDate は日付文字列を解析する。"2006-01-02" とRFC3339の両方を受け付ける。
func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// writeInvalidRequestError はリクエストボディ解析失敗のエラーレスポンスを書き込む。
func writeInvalidRequestError(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
		Code:     "INVALID_REQUEST",
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	})
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeEventNotFound:
		return http.StatusNotFound
	case model.ErrCodeInvalidTitle,
		model.ErrCodeInvalidColor,
		model.ErrCodeInvalidFrequency,
		model.ErrCodeInvalidDateRange,
		model.ErrCodeInvalidDate:
		return http.StatusBadRequest
	case model.ErrCodeInvalidImport:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
