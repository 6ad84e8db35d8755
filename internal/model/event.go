// Package model はドメインモデルを定義する。
package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/timelime/internal/dateutil"
)

// Frequency はイベントのチェックイン頻度を表す。
type Frequency string

const (
	// FrequencyDaily は毎日のチェックイン頻度。
	FrequencyDaily Frequency = "Daily"
	// FrequencyWeekly は毎週のチェックイン頻度。
	FrequencyWeekly Frequency = "Weekly"
	// FrequencyMonthly は毎月のチェックイン頻度。
	FrequencyMonthly Frequency = "Monthly"
	// FrequencyYearly は毎年のチェックイン頻度。
	FrequencyYearly Frequency = "Yearly"
	// FrequencyCustom はN日ごとのカスタム頻度。間隔はEvent.CustomDaysで指定する。
	FrequencyCustom Frequency = "Custom"
)

// Valid は既知の頻度値かどうかを返す。
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly, FrequencyCustom:
		return true
	}
	return false
}

// CheckIn はイベントのある暦日に対する1回の記録を表す。
// Dateは「どの日の分としてカウントするか」（午前0時に正規化）、
// Timestampは「いつ記録されたか」であり、両者は独立している。
type CheckIn struct {
	ID        string    `json:"id"`
	Date      time.Time `json:"date"`
	Timestamp time.Time `json:"timestamp"`
}

// Event は繰り返し追跡するアクティビティを表す。
// CheckInsはこのEventが排他的に所有し、1暦日につき最大1件という
// 不変条件をAddCheckIn/RemoveCheckInが維持する。
// JSONタグは永続化スキーマ（macOSアプリと互換のcamelCase）に従う。
type Event struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Color            string     `json:"color"`
	CheckInFrequency Frequency  `json:"checkInFrequency"`
	CustomDays       *int       `json:"customDays"`
	StartDate        time.Time  `json:"startDate"`
	EndDate          *time.Time `json:"endDate,omitempty"`
	CheckIns         []CheckIn  `json:"checkIns"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// HasCheckIn は指定した暦日のチェックインが存在するかを返す。
// 比較は暦日単位で行い、時刻成分は無視する。
func (e Event) HasCheckIn(day time.Time) bool {
	for _, c := range e.CheckIns {
		if dateutil.SameDay(c.Date, day) {
			return true
		}
	}
	return false
}

// AddCheckIn は指定した暦日のチェックインを追加した新しいEventを返す。
// 冪等であり、同じ暦日のチェックインが既に存在する場合はレシーバを
// そのまま返す（重複追加もUpdatedAtの更新も行わない）。
func (e Event) AddCheckIn(day, now time.Time) Event {
	if e.HasCheckIn(day) {
		return e
	}

	checkIns := make([]CheckIn, len(e.CheckIns), len(e.CheckIns)+1)
	copy(checkIns, e.CheckIns)
	checkIns = append(checkIns, CheckIn{
		ID:        uuid.New().String(),
		Date:      dateutil.Normalize(day),
		Timestamp: now,
	})

	e.CheckIns = checkIns
	e.UpdatedAt = now
	return e
}

// RemoveCheckIn は指定した暦日のチェックインを取り除いた新しいEventを返す。
// 万一重複が存在しても該当日をすべて取り除く。
// 一致するチェックインが存在しない場合はレシーバをそのまま返し、
// UpdatedAtも更新しない（真の無操作は変更として観測されない）。
func (e Event) RemoveCheckIn(day, now time.Time) Event {
	if !e.HasCheckIn(day) {
		return e
	}

	checkIns := make([]CheckIn, 0, len(e.CheckIns))
	for _, c := range e.CheckIns {
		if !dateutil.SameDay(c.Date, day) {
			checkIns = append(checkIns, c)
		}
	}

	e.CheckIns = checkIns
	e.UpdatedAt = now
	return e
}

// ToggleCheckIn は指定した暦日のチェックインを反転させた新しいEventを返す。
// ビュー層に公開される唯一のチェックイン変更操作。
func (e Event) ToggleCheckIn(day, now time.Time) Event {
	if e.HasCheckIn(day) {
		return e.RemoveCheckIn(day, now)
	}
	return e.AddCheckIn(day, now)
}

// TotalCheckIns はチェックインの総数を返す。
func (e Event) TotalCheckIns() int {
	return len(e.CheckIns)
}

// ActiveOn は指定した暦日がイベントの有効期間内かを返す。
// StartDate以降で、EndDateが設定されていればその日以前であること。
func (e Event) ActiveOn(day time.Time) bool {
	d := dateutil.Normalize(day)
	if d.Before(dateutil.Normalize(e.StartDate)) {
		return false
	}
	if e.EndDate != nil && d.After(dateutil.Normalize(*e.EndDate)) {
		return false
	}
	return true
}

// CustomInterval はカスタム頻度の間隔日数を返す。
// CustomDaysが未設定または正でない場合は1にフォールバックする。
func (e Event) CustomInterval() int {
	if e.CustomDays == nil || *e.CustomDays < 1 {
		return 1
	}
	return *e.CustomDays
}
