package handler

import (
	"net/http"
	"time"

	"github.com/hitoshi/timelime/internal/grid"
	"github.com/hitoshi/timelime/internal/model"
)

// CalendarHandler はカレンダーグリッドのHTTPハンドラー。
// グリッド構築は純粋関数のため、サービス層を介さず直接呼び出す。
type CalendarHandler struct{}

// NewCalendarHandler はCalendarHandlerを生成する。
func NewCalendarHandler() *CalendarHandler {
	return &CalendarHandler{}
}

// gridCellResponse はグリッドのセル1個のレスポンス。
// 月の範囲外を埋めるパディングセルはdateがnullになる。
type gridCellResponse struct {
	Date *string `json:"date"`
}

// monthGridResponse は月グリッドのレスポンス。
type monthGridResponse struct {
	Month string               `json:"month"`
	Weeks [][]gridCellResponse `json:"weeks"`
}

// weekGridResponse は週グリッドのレスポンス。
type weekGridResponse struct {
	Days []string `json:"days"`
}

// GetMonthGrid は月グリッドを取得する。
// GET /api/calendar/month?month=2006-01
func (h *CalendarHandler) GetMonthGrid(w http.ResponseWriter, r *http.Request) {
	monthParam := r.URL.Query().Get("month")
	month, err := time.Parse("2006-01", monthParam)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidDateError(monthParam))
		return
	}

	weeks := grid.MonthGrid(month)
	out := monthGridResponse{
		Month: month.Format("2006-01"),
		Weeks: make([][]gridCellResponse, 0, len(weeks)),
	}
	for _, week := range weeks {
		cells := make([]gridCellResponse, 0, len(week))
		for _, day := range week {
			cells = append(cells, toGridCell(day))
		}
		out.Weeks = append(out.Weeks, cells)
	}

	writeJSON(w, http.StatusOK, out)
}

// GetWeekGrid は指定日を含む週のグリッドを取得する。
// GET /api/calendar/week?date=2006-01-02
func (h *CalendarHandler) GetWeekGrid(w http.ResponseWriter, r *http.Request) {
	dateParam := r.URL.Query().Get("date")
	day, err := parseDate(dateParam)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidDateError(dateParam))
		return
	}

	week := grid.WeekGrid(day)
	out := weekGridResponse{Days: make([]string, 0, len(week))}
	for _, d := range week {
		out.Days = append(out.Days, d.Format("2006-01-02"))
	}

	writeJSON(w, http.StatusOK, out)
}

// GetDimensions は頻度に応じたトラッキンググリッドの寸法を取得する。
// GET /api/calendar/dimensions?frequency=Daily&startDate=2006-01-02
func (h *CalendarHandler) GetDimensions(w http.ResponseWriter, r *http.Request) {
	freq := model.Frequency(r.URL.Query().Get("frequency"))
	if !freq.Valid() {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidFrequencyError(string(freq)))
		return
	}

	startParam := r.URL.Query().Get("startDate")
	startDate, err := parseDate(startParam)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidDateError(startParam))
		return
	}

	writeJSON(w, http.StatusOK, grid.DimensionsFor(freq, startDate))
}

// toGridCell はグリッドセルをレスポンス形式へ変換する。ゼロ値はパディングセル。
func toGridCell(day time.Time) gridCellResponse {
	if day.IsZero() {
		return gridCellResponse{Date: nil}
	}
	formatted := day.Format("2006-01-02")
	return gridCellResponse{Date: &formatted}
}
