// Package dateutil はカレンダー日付の基本演算を提供する。
//
// すべての関数は「カレンダー上の1日」を単位として動作する。時刻成分は
// Normalizeで切り捨てられ、タイムゾーン変換は行わない。「1日」とは
// 与えられたtime.TimeのLocationにおける暦日を指す。
package dateutil

import "time"

// Normalize は時刻成分を切り捨て、そのLocationにおける午前0時を返す。
func Normalize(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDay は2つの時刻が同一の暦日に属するかを返す。
func SameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// IsLeapYear はグレゴリオ暦の閏年判定を行う。
// 4で割り切れ、かつ100で割り切れない年、または400で割り切れる年が閏年。
func IsLeapYear(year int) bool {
	return (year%4 == 0 && year%100 != 0) || year%400 == 0
}

// DaysInYear は年の日数（365または366）を返す。
func DaysInYear(year int) int {
	if IsLeapYear(year) {
		return 366
	}
	return 365
}

// DaysInMonth は指定年月の日数を返す。
func DaysInMonth(year int, month time.Month) int {
	// 翌月の0日目 = 当月の末日
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ISOWeek はISO-8601の週番号（1〜53）と、その週が属するISO年を返す。
// 週は月曜始まりで、年の最初の木曜日を含む週が第1週となる。
// 最も近い木曜日にシフトし、年初からの日数を7で割る標準アルゴリズムを使う。
// 年初や年末の日付は前年・翌年のISO週に属することがあり、
// その場合ISO年は暦年と一致しない（例: 2021-01-01は2020年の第53週）。
func ISOWeek(t time.Time) (year, week int) {
	// 月曜=1 .. 日曜=7
	dayNum := int(t.Weekday())
	if dayNum == 0 {
		dayNum = 7
	}

	// 同じISO週の木曜日へシフトする
	thursday := Normalize(t).AddDate(0, 0, 4-dayNum)

	yearStart := time.Date(thursday.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	days := DaysBetween(yearStart, thursday)

	return thursday.Year(), days/7 + 1
}

// ISOWeekNumber はISO-8601の週番号（1〜53）を返す。
func ISOWeekNumber(t time.Time) int {
	_, week := ISOWeek(t)
	return week
}

// WeeksInISOYear は年のISO週数（52または53）を返す。
// 12月31日が木曜日の年、または12月31日が金曜日かつ閏年の年が53週となる。
func WeeksInISOYear(year int) int {
	dec31 := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	switch dec31.Weekday() {
	case time.Thursday:
		return 53
	case time.Friday:
		if IsLeapYear(year) {
			return 53
		}
	}
	return 52
}

// StartOfWeek は日付が属する週の先頭（日曜日）を返す。
// 週の区切りはカレンダーグリッドと同じ日曜始まりの慣習に従う。
// ISO週番号の計算（月曜始まり）とは独立している点に注意。
func StartOfWeek(t time.Time) time.Time {
	d := Normalize(t)
	return d.AddDate(0, 0, -int(d.Weekday()))
}

// EndOfWeek は日付が属する週の末尾（土曜日）を返す。
func EndOfWeek(t time.Time) time.Time {
	return StartOfWeek(t).AddDate(0, 0, 6)
}

// StartOfMonth は日付が属する月の1日を返す。
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// EndOfMonth は日付が属する月の末日を返す。
func EndOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location())
}

// StartOfYear は日付が属する年の1月1日を返す。
func StartOfYear(t time.Time) time.Time {
	return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
}

// EndOfYear は日付が属する年の12月31日を返す。
func EndOfYear(t time.Time) time.Time {
	return time.Date(t.Year(), time.December, 31, 0, 0, 0, 0, t.Location())
}

// DaysBetween は2つの日付の暦日差の絶対値を返す。時刻成分は無視する。
// DSTによる1日の長さの揺らぎの影響を受けないよう、両端をUTCの暦日に
// 写してから差を取る。
func DaysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)

	days := int(ub.Sub(ua) / (24 * time.Hour))
	if days < 0 {
		return -days
	}
	return days
}

// AddMonthsClamped は暦月単位で日付を進める。
// time.AddDateと異なり、進めた先の月に同じ「日」が存在しない場合は
// 翌月へ繰り越さず、その月の末日へ丸める（1月31日 + 1ヶ月 = 2月28/29日）。
func AddMonthsClamped(t time.Time, months int) time.Time {
	year := t.Year()
	month := int(t.Month()) + months

	// monthを1..12に正規化する
	year += (month - 1) / 12
	month = (month-1)%12 + 1
	if month < 1 {
		month += 12
		year--
	}

	day := t.Day()
	if max := DaysInMonth(year, time.Month(month)); day > max {
		day = max
	}

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, t.Location())
}

// AddYearsClamped は暦年単位で日付を進める。
// 2月29日を平年に進めた場合は2月28日へ丸める。
func AddYearsClamped(t time.Time, years int) time.Time {
	year := t.Year() + years

	day := t.Day()
	if max := DaysInMonth(year, t.Month()); day > max {
		day = max
	}

	return time.Date(year, t.Month(), day, 0, 0, 0, 0, t.Location())
}
