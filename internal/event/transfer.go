package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/timelime/internal/dateutil"
	"github.com/hitoshi/timelime/internal/model"
)

// ImportResult はインポート処理の結果。
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// exportEnvelope はエクスポートファイルのエンベロープ形式。
// バックアップファイルと手動エクスポートの両方がこの形式を受け付ける。
type exportEnvelope struct {
	Events []model.Event `json:"events"`
}

// Export は全イベントをインデント付きJSON配列として書き出す。
// macOSアプリのevents.jsonと互換のスキーマを使用する。
func (s *Service) Export(ctx context.Context) ([]byte, error) {
	events, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("イベント一覧の取得に失敗しました: %w", err)
	}

	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("エクスポートデータのエンコードに失敗しました: %w", err)
	}
	return data, nil
}

// Import はエクスポートされたJSONを取り込む。
// トップレベルはイベント配列、または {"events": [...]} エンベロープの
// いずれかを受け付ける。どちらとしても解析できない場合はファイル全体を拒否する。
// 既存イベントとIDが重複する場合は既存を優先してスキップする（先勝ちマージ）。
func (s *Service) Import(ctx context.Context, data []byte) (*ImportResult, error) {
	incoming, err := parseImport(data)
	if err != nil {
		return nil, err
	}

	// 1件でも不正なイベントがあればファイル全体を拒否するため、
	// 永続化の前に全件を検証・正規化する。
	now := time.Now()
	normalized := make([]model.Event, 0, len(incoming))
	for _, e := range incoming {
		n, err := s.normalizeImported(e, now)
		if err != nil {
			return nil, err
		}
		normalized = append(normalized, n)
	}

	existing, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("イベント一覧の取得に失敗しました: %w", err)
	}
	seen := make(map[string]bool, len(existing))
	for _, e := range existing {
		seen[e.ID] = true
	}

	result := &ImportResult{}
	for _, e := range normalized {
		if seen[e.ID] {
			result.Skipped++
			continue
		}
		seen[e.ID] = true

		if err := s.repo.Create(ctx, e); err != nil {
			return nil, fmt.Errorf("イベントの保存に失敗しました: %w", err)
		}
		result.Imported++
	}

	slog.Info("import completed",
		slog.Int("imported", result.Imported),
		slog.Int("skipped", result.Skipped),
	)
	return result, nil
}

// parseImport はインポートデータを解析する。
// 配列形式とエンベロープ形式の両方を試し、どちらでもなければエラーを返す。
func parseImport(data []byte) ([]model.Event, error) {
	var events []model.Event
	if err := json.Unmarshal(data, &events); err == nil {
		return events, nil
	}

	var envelope exportEnvelope
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Events != nil {
		return envelope.Events, nil
	}

	return nil, model.NewInvalidImportError("イベント配列またはeventsエンベロープとして解析できません")
}

// normalizeImported はインポートされたイベント1件を検証・正規化する。
// いずれかのイベントが不正な場合、インポート全体が失敗する。
func (s *Service) normalizeImported(e model.Event, now time.Time) (model.Event, error) {
	e.Title = s.sanitizer.Sanitize(e.Title)
	if e.Title == "" {
		return e, model.NewInvalidImportError("タイトルが空のイベントが含まれています")
	}
	if !colorPattern.MatchString(e.Color) {
		return e, model.NewInvalidImportError(fmt.Sprintf("不正なカラー %q が含まれています", e.Color))
	}
	if !e.CheckInFrequency.Valid() {
		return e, model.NewInvalidImportError(fmt.Sprintf("不正な頻度 %q が含まれています", e.CheckInFrequency))
	}
	if e.StartDate.IsZero() {
		return e, model.NewInvalidImportError("開始日が欠落したイベントが含まれています")
	}

	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	e.CheckIns = normalizeCheckIns(e.CheckIns)
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = now
	}
	return e, nil
}

// normalizeCheckIns はチェックインの日付を午前0時に正規化し、
// 同一暦日の重複を除去する（先に現れたものを優先）。
// イベントごと・暦日ごとにチェックインは高々1件という不変条件を
// インポート経路でも維持する。
func normalizeCheckIns(checkIns []model.CheckIn) []model.CheckIn {
	normalized := make([]model.CheckIn, 0, len(checkIns))
	seen := make(map[string]bool, len(checkIns))
	for _, c := range checkIns {
		c.Date = dateutil.Normalize(c.Date)
		key := c.Date.Format("2006-01-02")
		if seen[key] {
			continue
		}
		seen[key] = true

		if c.ID == "" {
			c.ID = uuid.New().String()
		}
		normalized = append(normalized, c)
	}
	return normalized
}
