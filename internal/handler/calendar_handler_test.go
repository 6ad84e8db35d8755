package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// --- GET /api/calendar/month テスト ---

func TestCalendarHandler_GetMonthGrid_Success(t *testing.T) {
	h := NewCalendarHandler()

	// 2024年3月は金曜始まり（週の先頭に5個のパディング）で5週
	req := httptest.NewRequest(http.MethodGet, "/api/calendar/month?month=2024-03", nil)
	w := httptest.NewRecorder()

	h.GetMonthGrid(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var result monthGridResponse
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.Month != "2024-03" {
		t.Errorf("month = %q, want %q", result.Month, "2024-03")
	}
	if len(result.Weeks) != 6 {
		t.Fatalf("len(weeks) = %d, want 6", len(result.Weeks))
	}
	for i, week := range result.Weeks {
		if len(week) != 7 {
			t.Errorf("week %d: len = %d, want 7", i, len(week))
		}
	}

	// 1日（金曜）の前はパディングセル
	firstWeek := result.Weeks[0]
	for i := 0; i < 5; i++ {
		if firstWeek[i].Date != nil {
			t.Errorf("cell %d should be padding, got %q", i, *firstWeek[i].Date)
		}
	}
	if firstWeek[5].Date == nil || *firstWeek[5].Date != "2024-03-01" {
		t.Errorf("cell 5 should be 2024-03-01, got %v", firstWeek[5].Date)
	}
}

func TestCalendarHandler_GetMonthGrid_InvalidMonth(t *testing.T) {
	h := NewCalendarHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/calendar/month?month=not-a-month", nil)
	w := httptest.NewRecorder()

	h.GetMonthGrid(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

// --- GET /api/calendar/week テスト ---

func TestCalendarHandler_GetWeekGrid_Success(t *testing.T) {
	h := NewCalendarHandler()

	// 2024-03-15は金曜。週は日曜の2024-03-10から始まる
	req := httptest.NewRequest(http.MethodGet, "/api/calendar/week?date=2024-03-15", nil)
	w := httptest.NewRecorder()

	h.GetWeekGrid(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var result weekGridResponse
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(result.Days) != 7 {
		t.Fatalf("len(days) = %d, want 7", len(result.Days))
	}
	if result.Days[0] != "2024-03-10" {
		t.Errorf("days[0] = %q, want %q", result.Days[0], "2024-03-10")
	}
	if result.Days[6] != "2024-03-16" {
		t.Errorf("days[6] = %q, want %q", result.Days[6], "2024-03-16")
	}
}

func TestCalendarHandler_GetWeekGrid_MissingDate(t *testing.T) {
	h := NewCalendarHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/calendar/week", nil)
	w := httptest.NewRecorder()

	h.GetWeekGrid(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

// --- GET /api/calendar/dimensions テスト ---

func TestCalendarHandler_GetDimensions_Success(t *testing.T) {
	h := NewCalendarHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/calendar/dimensions?frequency=Daily&startDate=2024-03-01", nil)
	w := httptest.NewRecorder()

	h.GetDimensions(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var result struct {
		Rows  int `json:"rows"`
		Cols  int `json:"cols"`
		Total int `json:"total"`
	}
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.Total != result.Rows*result.Cols {
		t.Errorf("total = %d, want rows*cols = %d", result.Total, result.Rows*result.Cols)
	}
	if result.Total == 0 {
		t.Error("total should be positive")
	}
}

func TestCalendarHandler_GetDimensions_InvalidFrequency(t *testing.T) {
	h := NewCalendarHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/calendar/dimensions?frequency=Hourly&startDate=2024-03-01", nil)
	w := httptest.NewRecorder()

	h.GetDimensions(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	result := parseAPIErrorResponse(t, w)
	if result["code"] != "INVALID_FREQUENCY" {
		t.Errorf("code = %q, want %q", result["code"], "INVALID_FREQUENCY")
	}
}
