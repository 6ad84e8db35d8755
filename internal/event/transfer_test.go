package event

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/timelime/internal/model"
)

// --- Export ---

// Exportがインデント付きJSON配列を返すことを検証
func TestService_Export(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	created, _ := svc.Create(ctx, validInput())
	svc.ToggleCheckIn(ctx, created.ID, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))

	data, err := svc.Export(ctx)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	var events []model.Event
	if err := json.Unmarshal(data, &events); err != nil {
		t.Fatalf("export data is not a valid event array: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}
	if len(events[0].CheckIns) != 1 {
		t.Errorf("len(CheckIns) = %d, want 1", len(events[0].CheckIns))
	}

	// インデント付きであること
	if string(data[0]) != "[" || !json.Valid(data) {
		t.Error("export should be a JSON array")
	}
	if !containsNewline(data) {
		t.Error("export should be pretty-printed")
	}
}

func containsNewline(data []byte) bool {
	for _, b := range data {
		if b == '\n' {
			return true
		}
	}
	return false
}

// 空のコレクションのExportが空配列を返すことを検証
func TestService_Export_Empty(t *testing.T) {
	svc, _ := newTestService()

	data, err := svc.Export(context.Background())
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	var events []model.Event
	if err := json.Unmarshal(data, &events); err != nil {
		t.Fatalf("export data is not a valid event array: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("len(events) = %d, want 0", len(events))
	}
}

// --- Import ---

func importPayload(id, title string) string {
	return `{
		"id": "` + id + `",
		"title": "` + title + `",
		"color": "#00AA00",
		"checkInFrequency": "Daily",
		"startDate": "2024-03-01T00:00:00Z",
		"checkIns": [],
		"createdAt": "2024-03-01T10:00:00Z",
		"updatedAt": "2024-03-01T10:00:00Z"
	}`
}

// 配列形式のインポートを検証
func TestService_Import_BareArray(t *testing.T) {
	svc, repo := newTestService()

	data := "[" + importPayload("id-1", "Running") + "," + importPayload("id-2", "Reading") + "]"
	result, err := svc.Import(context.Background(), []byte(data))
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	if result.Imported != 2 || result.Skipped != 0 {
		t.Errorf("result = %+v, want Imported=2 Skipped=0", result)
	}
	if len(repo.events) != 2 {
		t.Errorf("len(repo.events) = %d, want 2", len(repo.events))
	}
}

// エンベロープ形式のインポートを検証
func TestService_Import_Envelope(t *testing.T) {
	svc, repo := newTestService()

	data := `{"events": [` + importPayload("id-1", "Running") + `]}`
	result, err := svc.Import(context.Background(), []byte(data))
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	if result.Imported != 1 {
		t.Errorf("result.Imported = %d, want 1", result.Imported)
	}
	if len(repo.events) != 1 {
		t.Errorf("len(repo.events) = %d, want 1", len(repo.events))
	}
}

// 既存IDとの重複が先勝ちでスキップされることを検証
func TestService_Import_FirstWriteWins(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	data := "[" + importPayload("id-1", "Original") + "]"
	if _, err := svc.Import(ctx, []byte(data)); err != nil {
		t.Fatalf("first Import failed: %v", err)
	}

	again := "[" + importPayload("id-1", "Replacement") + "," + importPayload("id-2", "New") + "]"
	result, err := svc.Import(ctx, []byte(again))
	if err != nil {
		t.Fatalf("second Import failed: %v", err)
	}

	if result.Imported != 1 || result.Skipped != 1 {
		t.Errorf("result = %+v, want Imported=1 Skipped=1", result)
	}

	existing, _ := repo.FindByID(ctx, "id-1")
	if existing.Title != "Original" {
		t.Errorf("id-1 title = %q, want %q（既存優先）", existing.Title, "Original")
	}
}

// 同一ファイル内のID重複も先勝ちになることを検証
func TestService_Import_DuplicateWithinFile(t *testing.T) {
	svc, repo := newTestService()

	data := "[" + importPayload("id-1", "First") + "," + importPayload("id-1", "Second") + "]"
	result, err := svc.Import(context.Background(), []byte(data))
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	if result.Imported != 1 || result.Skipped != 1 {
		t.Errorf("result = %+v, want Imported=1 Skipped=1", result)
	}
	existing, _ := repo.FindByID(context.Background(), "id-1")
	if existing.Title != "First" {
		t.Errorf("id-1 title = %q, want %q", existing.Title, "First")
	}
}

// ID未設定のイベントに新規IDが採番されることを検証
func TestService_Import_MintsMissingID(t *testing.T) {
	svc, repo := newTestService()

	data := `[{
		"title": "No ID",
		"color": "#00AA00",
		"checkInFrequency": "Daily",
		"startDate": "2024-03-01T00:00:00Z"
	}]`
	result, err := svc.Import(context.Background(), []byte(data))
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if result.Imported != 1 {
		t.Errorf("result.Imported = %d, want 1", result.Imported)
	}
	if repo.events[0].ID == "" {
		t.Error("imported event should get a minted ID")
	}
}

// インポートされたチェックインが午前0時に正規化され、
// 同一暦日の重複が1件に畳まれることを検証
func TestService_Import_NormalizesCheckInDays(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	data := `[{
		"id": "id-1",
		"title": "Running",
		"color": "#00AA00",
		"checkInFrequency": "Daily",
		"startDate": "2024-03-01T00:00:00Z",
		"checkIns": [
			{"id": "c-1", "date": "2024-03-05T00:00:00Z", "timestamp": "2024-03-05T08:00:00Z"},
			{"id": "c-2", "date": "2024-03-05T12:30:00Z", "timestamp": "2024-03-05T12:30:00Z"},
			{"id": "c-3", "date": "2024-03-06T23:59:00Z", "timestamp": "2024-03-06T23:59:00Z"}
		]
	}]`
	if _, err := svc.Import(ctx, []byte(data)); err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	stored, _ := repo.FindByID(ctx, "id-1")
	if len(stored.CheckIns) != 2 {
		t.Fatalf("len(CheckIns) = %d, want 2（暦日ごとに1件）", len(stored.CheckIns))
	}
	for _, c := range stored.CheckIns {
		if h, m, s := c.Date.Clock(); h != 0 || m != 0 || s != 0 {
			t.Errorf("CheckIn %s の日付が正規化されていない: %v", c.ID, c.Date)
		}
	}
	// 先に現れたc-1が残り、同日のc-2は除去される
	if stored.CheckIns[0].ID != "c-1" {
		t.Errorf("CheckIns[0].ID = %q, want %q", stored.CheckIns[0].ID, "c-1")
	}

	stats, err := svc.StatsAt(ctx, "id-1", time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("StatsAt failed: %v", err)
	}
	if stats.TotalCheckIns != 2 {
		t.Errorf("TotalCheckIns = %d, want 2", stats.TotalCheckIns)
	}
	if stats.CurrentStreak != 2 {
		t.Errorf("CurrentStreak = %d, want 2", stats.CurrentStreak)
	}
}

// 解析不能・不正なデータがファイル全体の拒否になることを検証
func TestService_Import_Rejection(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"不正なJSON", `{not json`},
		{"配列でもエンベロープでもない", `{"items": []}`},
		{"eventsがリストでない", `{"events": 42}`},
		{"文字列トップレベル", `"events"`},
		{"タイトル空のイベント入り", `[{"title": "", "color": "#00AA00", "checkInFrequency": "Daily", "startDate": "2024-03-01T00:00:00Z"}]`},
		{"カラー不正のイベント入り", `[{"title": "X", "color": "green", "checkInFrequency": "Daily", "startDate": "2024-03-01T00:00:00Z"}]`},
		{"頻度不正のイベント入り", `[{"title": "X", "color": "#00AA00", "checkInFrequency": "Hourly", "startDate": "2024-03-01T00:00:00Z"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newTestService()

			_, err := svc.Import(context.Background(), []byte(tt.data))
			var apiErr *model.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %v", err)
			}
			if apiErr.Code != model.ErrCodeInvalidImport {
				t.Errorf("apiErr.Code = %q, want %q", apiErr.Code, model.ErrCodeInvalidImport)
			}
			if len(repo.events) != 0 {
				t.Errorf("rejected import should not persist events, got %d", len(repo.events))
			}
		})
	}
}

// エクスポート→インポートの往復で内容が保たれることを検証
func TestService_ExportImport_RoundTrip(t *testing.T) {
	source, _ := newTestService()
	ctx := context.Background()

	created, _ := source.Create(ctx, validInput())
	source.ToggleCheckIn(ctx, created.ID, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))

	data, err := source.Export(ctx)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	target, targetRepo := newTestService()
	result, err := target.Import(ctx, data)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if result.Imported != 1 {
		t.Errorf("result.Imported = %d, want 1", result.Imported)
	}

	restored, _ := targetRepo.FindByID(ctx, created.ID)
	if restored == nil {
		t.Fatal("expected restored event")
	}
	if restored.Title != created.Title || len(restored.CheckIns) != 1 {
		t.Errorf("restored event mismatch: %+v", restored)
	}
}
