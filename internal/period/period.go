// Package period は頻度ごとの期間キーの符号化と比較を提供する。
//
// 期間キーは暦日と頻度から決まる正準な文字列で、重複排除と
// 「この期間は既に過ぎたか」の判定に使われる。固定幅のゼロ埋めに
// より、同一頻度のキー同士は文字列比較がそのまま時系列順となる。
//
//	Daily   → YYYY-MM-DD （2024-03-05）
//	Weekly  → YYYY-Www   （2024-W09、ISO週番号とISO年）
//	Monthly → YYYY-MM    （2024-03）
//	Yearly  → YYYY       （2024）
//
// 週キーの年は暦年ではなくISO年を使う。暦年を使うと年末年始の週で
// キーの辞書順が時系列順と食い違うため（2021-01-01は2020年第53週）。
package period

import (
	"fmt"
	"time"

	"github.com/hitoshi/timelime/internal/dateutil"
	"github.com/hitoshi/timelime/internal/model"
)

// Key は暦日と頻度から正準な期間キーを返す。
// Custom頻度は日単位で刻むため、Dailyと同じ日付キーを使う。
func Key(day time.Time, freq model.Frequency) string {
	switch freq {
	case model.FrequencyWeekly:
		year, week := dateutil.ISOWeek(day)
		return fmt.Sprintf("%04d-W%02d", year, week)
	case model.FrequencyMonthly:
		return day.Format("2006-01")
	case model.FrequencyYearly:
		return day.Format("2006")
	default:
		return day.Format("2006-01-02")
	}
}

// CurrentKeyAt は基準時刻nowにおける「現在の期間」のキーを返す。
func CurrentKeyAt(freq model.Frequency, now time.Time) string {
	return Key(now, freq)
}

// CurrentKey は現在時刻における期間キーを返す。
func CurrentKey(freq model.Frequency) string {
	return CurrentKeyAt(freq, time.Now())
}

// IsCurrentAt はキーが基準時刻nowの属する期間を指すかを返す。
func IsCurrentAt(key string, freq model.Frequency, now time.Time) bool {
	return key == CurrentKeyAt(freq, now)
}

// IsCurrent はキーが現在の期間を指すかを返す。
func IsCurrent(key string, freq model.Frequency) bool {
	return IsCurrentAt(key, freq, time.Now())
}

// IsPastAt はキーの期間が基準時刻nowの属する期間より前かを返す。
// 固定幅ゼロ埋めのキー形式により、文字列比較で時系列順が判定できる。
func IsPastAt(key string, freq model.Frequency, now time.Time) bool {
	return key < CurrentKeyAt(freq, now)
}

// IsPast はキーの期間が現在の期間より前かを返す。
func IsPast(key string, freq model.Frequency) bool {
	return IsPastAt(key, freq, time.Now())
}
