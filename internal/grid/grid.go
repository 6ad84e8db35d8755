// Package grid はカレンダー描画用の週整列グリッドを構築する。
//
// グリッドは日曜始まりの週を1行とする行列で、月の先頭・末尾の
// 部分週は空セルで埋められる。空セルはゼロ値のtime.Timeで表し、
// IsZeroで判定できる。構築はすべて入力日付のみに依存する純関数。
package grid

import (
	"time"

	"github.com/hitoshi/timelime/internal/dateutil"
	"github.com/hitoshi/timelime/internal/model"
)

// Week は日曜から土曜までの7セル。ゼロ値のセルは月グリッドの詰め物。
type Week [7]time.Time

// MonthGrid は指定日が属する月の週グリッドを返す。
// 先頭の週は月の1日が正しい曜日の列に来るよう左側が空セルで
// 埋められ、末尾の週も同様に右側が埋められる。
func MonthGrid(month time.Time) []Week {
	first := dateutil.StartOfMonth(month)
	daysCount := dateutil.DaysInMonth(first.Year(), first.Month())

	var weeks []Week
	var current Week

	// 1日を正しい曜日の列に合わせる（日曜=0列目）
	col := int(first.Weekday())

	for day := 0; day < daysCount; day++ {
		current[col] = first.AddDate(0, 0, day)
		col++

		if col == 7 {
			weeks = append(weeks, current)
			current = Week{}
			col = 0
		}
	}

	// 末尾の部分週（colが0なら最終週はちょうど埋まっている）
	if col > 0 {
		weeks = append(weeks, current)
	}

	return weeks
}

// WeekGrid は指定日が属する週の7日（日曜〜土曜）を返す。
func WeekGrid(referenceDay time.Time) Week {
	start := dateutil.StartOfWeek(referenceDay)

	var week Week
	for i := 0; i < 7; i++ {
		week[i] = start.AddDate(0, 0, i)
	}
	return week
}

// Dimensions は年間ビュー描画用のグリッド寸法。
type Dimensions struct {
	Rows  int `json:"rows"`
	Cols  int `json:"cols"`
	Total int `json:"total"`
}

// DimensionsFor は頻度ごとの年間グリッド寸法を返す。
// Dailyは開始日の属する年の日数を7列、Weeklyはその年のISO週数を
// 13列で並べる。MonthlyとYearlyは固定レイアウト。
func DimensionsFor(freq model.Frequency, startDate time.Time) Dimensions {
	year := startDate.Year()

	switch freq {
	case model.FrequencyDaily:
		days := dateutil.DaysInYear(year)
		return Dimensions{Rows: (days + 6) / 7, Cols: 7, Total: days}
	case model.FrequencyWeekly:
		weeks := dateutil.WeeksInISOYear(year)
		return Dimensions{Rows: (weeks + 12) / 13, Cols: 13, Total: weeks}
	case model.FrequencyMonthly:
		return Dimensions{Rows: 3, Cols: 4, Total: 12}
	default:
		return Dimensions{Rows: 1, Cols: 1, Total: 1}
	}
}
