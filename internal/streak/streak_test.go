package streak

import (
	"testing"
	"time"

	"github.com/hitoshi/timelime/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func eventWithCheckIns(days ...time.Time) model.Event {
	e := model.Event{
		ID:               "event-1",
		Title:            "Exercise",
		CheckInFrequency: model.FrequencyDaily,
		StartDate:        day(2024, time.January, 1),
	}
	for _, d := range days {
		e = e.AddCheckIn(d, d)
	}
	return e
}

// チェックインが無い場合のストリークを検証
func TestStreaks_Empty(t *testing.T) {
	e := eventWithCheckIns()

	if got := CurrentAt(e, day(2024, time.March, 5)); got != 0 {
		t.Errorf("CurrentAt(empty) = %d, want 0", got)
	}
	if got := Longest(e); got != 0 {
		t.Errorf("Longest(empty) = %d, want 0", got)
	}
}

// チェックイン1件のストリークを検証
func TestStreaks_Single(t *testing.T) {
	e := eventWithCheckIns(day(2024, time.March, 5))

	if got := CurrentAt(e, day(2024, time.March, 5)); got != 1 {
		t.Errorf("CurrentAt = %d, want 1", got)
	}
	if got := Longest(e); got != 1 {
		t.Errorf("Longest = %d, want 1", got)
	}
}

// 連続3日のストリークを当日基準で検証
func TestCurrentAt_ConsecutiveRun(t *testing.T) {
	e := eventWithCheckIns(
		day(2024, time.March, 1),
		day(2024, time.March, 2),
		day(2024, time.March, 3),
	)

	if got := CurrentAt(e, day(2024, time.March, 3)); got != 3 {
		t.Errorf("CurrentAt(as of 03-03) = %d, want 3", got)
	}
}

// 今日のチェックインが未記録でも、直近のチェックインが昨日なら
// ストリークが継続することを検証（todayは任意）
func TestCurrentAt_TodayOptional(t *testing.T) {
	e := eventWithCheckIns(
		day(2024, time.March, 1),
		day(2024, time.March, 2),
		day(2024, time.March, 3),
	)

	if got := CurrentAt(e, day(2024, time.March, 4)); got != 3 {
		t.Errorf("CurrentAt(as of 03-04) = %d, want 3", got)
	}
	// 2日以上空くとストリークは途切れる
	if got := CurrentAt(e, day(2024, time.March, 5)); got != 0 {
		t.Errorf("CurrentAt(as of 03-05) = %d, want 0", got)
	}
}

// 03-04の欠落が今日のチェックインと過去の連続3日を分断することを検証。
// 現在ストリークは今日の1件で止まり、最長ストリークは過去の3が残る。
func TestStreaks_GapBreaksContinuity(t *testing.T) {
	e := eventWithCheckIns(
		day(2024, time.March, 1),
		day(2024, time.March, 2),
		day(2024, time.March, 3),
		day(2024, time.March, 5),
	)

	if got := CurrentAt(e, day(2024, time.March, 5)); got != 1 {
		t.Errorf("CurrentAt(as of 03-05) = %d, want 1", got)
	}
	if got := Longest(e); got != 3 {
		t.Errorf("Longest = %d, want 3", got)
	}
}

// 最長ストリークがリセット後も最大値を追跡することを検証
func TestLongest_TracksMaximum(t *testing.T) {
	e := eventWithCheckIns(
		day(2024, time.January, 1),
		day(2024, time.January, 2),
		// 欠落
		day(2024, time.January, 10),
		day(2024, time.January, 11),
		day(2024, time.January, 12),
		day(2024, time.January, 13),
		// 欠落
		day(2024, time.February, 1),
	)

	if got := Longest(e); got != 4 {
		t.Errorf("Longest = %d, want 4", got)
	}
}

// 任意のイベントで longest >= current が成り立つことを検証
func TestLongest_AtLeastCurrent(t *testing.T) {
	events := []model.Event{
		eventWithCheckIns(),
		eventWithCheckIns(day(2024, time.March, 5)),
		eventWithCheckIns(day(2024, time.March, 3), day(2024, time.March, 4), day(2024, time.March, 5)),
		eventWithCheckIns(day(2024, time.March, 1), day(2024, time.March, 5)),
	}

	today := day(2024, time.March, 5)
	for i, e := range events {
		if cur, lon := CurrentAt(e, today), Longest(e); lon < cur {
			t.Errorf("event[%d]: Longest (%d) < CurrentAt (%d)", i, lon, cur)
		}
	}
}
