// Package event はイベント登録・チェックインのドメインロジックを提供する。
package event

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/timelime/internal/dateutil"
	"github.com/hitoshi/timelime/internal/model"
	"github.com/hitoshi/timelime/internal/recurrence"
	"github.com/hitoshi/timelime/internal/repository"
	"github.com/hitoshi/timelime/internal/security"
	"github.com/hitoshi/timelime/internal/streak"
)

// colorPattern はイベントカラーの許容フォーマット（#RRGGBB）。
var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Input はイベント作成・更新の入力。
type Input struct {
	Title            string
	Color            string
	CheckInFrequency model.Frequency
	CustomDays       *int
	StartDate        time.Time
	EndDate          *time.Time
}

// Stats はイベントの集計値。
type Stats struct {
	CurrentStreak int `json:"currentStreak"`
	LongestStreak int `json:"longestStreak"`
	TotalCheckIns int `json:"totalCheckIns"`
}

// ToggleResult はチェックイントグルの結果。
type ToggleResult struct {
	Event   model.Event
	Added   bool
	Removed bool
}

// Service はイベント管理のサービス層。
// 入力検証 → サニタイズ → 永続化のフローを統括する。
type Service struct {
	repo      repository.EventRepository
	sanitizer security.TitleSanitizerService
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.EventRepository, sanitizer security.TitleSanitizerService) *Service {
	return &Service{
		repo:      repo,
		sanitizer: sanitizer,
	}
}

// List は全イベントをCreatedAt昇順で返す。
func (s *Service) List(ctx context.Context) ([]model.Event, error) {
	return s.repo.List(ctx)
}

// ListActiveOn は指定日にアクティブなイベントのみを返す。
func (s *Service) ListActiveOn(ctx context.Context, day time.Time) ([]model.Event, error) {
	events, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	active := []model.Event{}
	for _, e := range events {
		if e.ActiveOn(day) {
			active = append(active, e)
		}
	}
	return active, nil
}

// Get は指定IDのイベントを取得する。存在しない場合はEVENT_NOT_FOUNDを返す。
func (s *Service) Get(ctx context.Context, id string) (*model.Event, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("イベントの検索に失敗しました: %w", err)
	}
	if event == nil {
		return nil, model.NewEventNotFoundError(id)
	}
	return event, nil
}

// Create は入力を検証してイベントを作成する。
func (s *Service) Create(ctx context.Context, in Input) (*model.Event, error) {
	normalized, err := s.validate(in)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	event := model.Event{
		ID:               uuid.New().String(),
		Title:            normalized.Title,
		Color:            normalized.Color,
		CheckInFrequency: normalized.CheckInFrequency,
		CustomDays:       normalized.CustomDays,
		StartDate:        dateutil.Normalize(normalized.StartDate),
		EndDate:          normalized.EndDate,
		CheckIns:         []model.CheckIn{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.repo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("イベントの保存に失敗しました: %w", err)
	}

	slog.Info("event created",
		slog.String("event_id", event.ID),
		slog.String("frequency", string(event.CheckInFrequency)),
	)
	return &event, nil
}

// Update は指定IDのイベントの定義フィールドを更新する。
// チェックイン履歴は維持される。
func (s *Service) Update(ctx context.Context, id string, in Input) (*model.Event, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	normalized, err := s.validate(in)
	if err != nil {
		return nil, err
	}

	updated := *existing
	updated.Title = normalized.Title
	updated.Color = normalized.Color
	updated.CheckInFrequency = normalized.CheckInFrequency
	updated.CustomDays = normalized.CustomDays
	updated.StartDate = dateutil.Normalize(normalized.StartDate)
	updated.EndDate = normalized.EndDate
	updated.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, updated); err != nil {
		return nil, fmt.Errorf("イベントの更新に失敗しました: %w", err)
	}

	slog.Info("event updated", slog.String("event_id", id))
	return &updated, nil
}

// Delete は指定IDのイベントを削除する。
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("イベントの削除に失敗しました: %w", err)
	}

	slog.Info("event deleted", slog.String("event_id", id))
	return nil
}

// DeleteAll は全イベントを削除する。
func (s *Service) DeleteAll(ctx context.Context) error {
	if err := s.repo.DeleteAll(ctx); err != nil {
		return fmt.Errorf("全イベントの削除に失敗しました: %w", err)
	}

	slog.Info("all events deleted")
	return nil
}

// ToggleCheckIn は指定日のチェックインをトグルする。
// チェックイン済みなら削除、未チェックなら追加する。
func (s *Service) ToggleCheckIn(ctx context.Context, id string, day time.Time) (*ToggleResult, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	had := existing.HasCheckIn(day)
	toggled := existing.ToggleCheckIn(day, time.Now())

	if err := s.repo.Update(ctx, toggled); err != nil {
		return nil, fmt.Errorf("チェックインの保存に失敗しました: %w", err)
	}

	slog.Info("check-in toggled",
		slog.String("event_id", id),
		slog.String("date", dateutil.Normalize(day).Format("2006-01-02")),
		slog.Bool("added", !had),
	)
	return &ToggleResult{
		Event:   toggled,
		Added:   !had,
		Removed: had,
	}, nil
}

// StatsAt は指定日を基準としたイベントの集計値を返す。
func (s *Service) StatsAt(ctx context.Context, id string, today time.Time) (*Stats, error) {
	event, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	return &Stats{
		CurrentStreak: streak.CurrentAt(*event, today),
		LongestStreak: streak.Longest(*event),
		TotalCheckIns: event.TotalCheckIns(),
	}, nil
}

// Periods は指定範囲内でイベントに期待される期間の一覧を返す。
// 範囲はイベントの開始日・終了日でクリップされる。
func (s *Service) Periods(ctx context.Context, id string, from, to time.Time) ([]recurrence.KeyedPeriod, error) {
	event, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	return recurrence.ExpectedPeriodKeys(*event, from, to), nil
}

// validate は入力を検証し、サニタイズ済みの入力を返す。
func (s *Service) validate(in Input) (Input, error) {
	in.Title = s.sanitizer.Sanitize(in.Title)
	if in.Title == "" {
		return in, model.NewInvalidTitleError()
	}

	if !colorPattern.MatchString(in.Color) {
		return in, model.NewInvalidColorError(in.Color)
	}

	if !in.CheckInFrequency.Valid() {
		return in, model.NewInvalidFrequencyError(string(in.CheckInFrequency))
	}
	if in.CheckInFrequency == model.FrequencyCustom {
		if in.CustomDays == nil || *in.CustomDays < 1 {
			return in, model.NewInvalidFrequencyError(string(in.CheckInFrequency))
		}
	} else {
		// Custom以外ではcustomDaysを保持しない
		in.CustomDays = nil
	}

	if in.StartDate.IsZero() {
		return in, model.NewInvalidDateError("startDate")
	}
	if in.EndDate != nil {
		normalized := dateutil.Normalize(*in.EndDate)
		if normalized.Before(dateutil.Normalize(in.StartDate)) {
			return in, model.NewInvalidDateRangeError()
		}
		in.EndDate = &normalized
	}

	return in, nil
}
