// Package streak はチェックインの連続日数（ストリーク）を計算する。
package streak

import (
	"sort"
	"time"

	"github.com/hitoshi/timelime/internal/dateutil"
	"github.com/hitoshi/timelime/internal/model"
)

// CurrentAt は基準日today時点での現在のストリークを返す。
//
// チェックインを日付降順に並べ、基準日から1日ずつ遡りながら連続する
// 日数を数える。今日のチェックインはまだ無くてもよい（基準日との差が
// ちょうど1日の最新チェックインからストリークは始まる）。差が2日以上
// 空いた時点で打ち切る。チェックインが無ければ0。
func CurrentAt(event model.Event, today time.Time) int {
	if len(event.CheckIns) == 0 {
		return 0
	}

	days := sortedDays(event, false)

	count := 0
	reference := dateutil.Normalize(today)

	for _, day := range days {
		diff := dateutil.DaysBetween(day, reference)
		if diff == 0 || diff == 1 {
			count++
			reference = day
			continue
		}
		break
	}

	return count
}

// Current は今日を基準とした現在のストリークを返す。
func Current(event model.Event) int {
	return CurrentAt(event, time.Now())
}

// Longest は過去最長のストリークを返す。
//
// チェックインを日付昇順に並べ、隣接する2件の差がちょうど1日なら
// 継続、1日を超えたらリセットして最大値を追跡する。1暦日1件の
// 不変条件により差が0になることはない。チェックインが無ければ0、
// 1件なら1。
func Longest(event model.Event) int {
	if len(event.CheckIns) == 0 {
		return 0
	}

	days := sortedDays(event, true)

	longest := 1
	running := 1

	for i := 1; i < len(days); i++ {
		diff := dateutil.DaysBetween(days[i-1], days[i])
		if diff == 1 {
			running++
			if running > longest {
				longest = running
			}
		} else if diff > 1 {
			running = 1
		}
	}

	return longest
}

// sortedDays はチェックインの暦日を昇順または降順で返す。
func sortedDays(event model.Event, ascending bool) []time.Time {
	days := make([]time.Time, len(event.CheckIns))
	for i, c := range event.CheckIns {
		days[i] = dateutil.Normalize(c.Date)
	}

	sort.Slice(days, func(i, j int) bool {
		if ascending {
			return days[i].Before(days[j])
		}
		return days[i].After(days[j])
	})

	return days
}
