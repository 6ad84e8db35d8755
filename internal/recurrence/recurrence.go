// Package recurrence はイベントの期待チェックイン期間の展開を提供する。
package recurrence

import (
	"time"

	"github.com/hitoshi/timelime/internal/dateutil"
	"github.com/hitoshi/timelime/internal/model"
	"github.com/hitoshi/timelime/internal/period"
)

// ExpectedPeriods はイベントの頻度に従い、指定範囲内で期待される
// チェックイン期間の先頭日を昇順で返す。
//
// 作業区間は [max(rangeStart, StartDate), min(rangeEnd, EndDate)] に
// クリップされ、クリップ後の開始が終了を超える場合は空を返す。
// 区間の先頭から頻度ごとのステップで刻む:
//
//	Daily  = 1日、Weekly = 7日、Custom = CustomDays日（1未満は1に補正）
//	Monthly = 暦月1ヶ月、Yearly = 暦年1年（日が存在しない場合は月末へ丸める）
//
// 戻り値は暦日であり期間キーではない。週単位で集計する呼び出し側は
// ExpectedPeriodKeysで週キーによる重複排除を行うこと。
func ExpectedPeriods(event model.Event, rangeStart, rangeEnd time.Time) []time.Time {
	start := dateutil.Normalize(rangeStart)
	if s := dateutil.Normalize(event.StartDate); s.After(start) {
		start = s
	}

	end := dateutil.Normalize(rangeEnd)
	if event.EndDate != nil {
		if e := dateutil.Normalize(*event.EndDate); e.Before(end) {
			end = e
		}
	}

	if start.After(end) {
		return nil
	}

	var periods []time.Time
	current := start

	for !current.After(end) {
		periods = append(periods, current)

		next := advance(current, event)
		// ステップが日付を前進させない場合は打ち切る
		if !next.After(current) {
			break
		}
		current = next
	}

	return periods
}

// advance は頻度に応じて日付を1ステップ進める。
func advance(current time.Time, event model.Event) time.Time {
	switch event.CheckInFrequency {
	case model.FrequencyWeekly:
		return current.AddDate(0, 0, 7)
	case model.FrequencyMonthly:
		return dateutil.AddMonthsClamped(current, 1)
	case model.FrequencyYearly:
		return dateutil.AddYearsClamped(current, 1)
	case model.FrequencyCustom:
		return current.AddDate(0, 0, event.CustomInterval())
	default:
		return current.AddDate(0, 0, 1)
	}
}

// KeyedPeriod は期間の先頭日とその期間キーの組。
type KeyedPeriod struct {
	Key  string
	Date time.Time
}

// ExpectedPeriodKeys はExpectedPeriodsの結果に期間キーを付与し、
// キー単位で重複を排除して返す。週単位の頻度では日刻みのステップが
// ISO週の境界に揃わないことがあり、同じ週キーが2回現れた場合は
// 最初の1件のみを残す。
func ExpectedPeriodKeys(event model.Event, rangeStart, rangeEnd time.Time) []KeyedPeriod {
	days := ExpectedPeriods(event, rangeStart, rangeEnd)
	if len(days) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(days))
	keyed := make([]KeyedPeriod, 0, len(days))

	for _, day := range days {
		key := period.Key(day, event.CheckInFrequency)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keyed = append(keyed, KeyedPeriod{Key: key, Date: day})
	}

	return keyed
}
