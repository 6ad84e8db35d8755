// Package ics はイベントのiCalendar形式へのエクスポートを提供する。
//
// 各イベントは繰り返しルール（RRULE）付きの終日VEVENTとして書き出され、
// カレンダーアプリに購読させることで定期イベントの予定を確認できる。
package ics

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/hitoshi/timelime/internal/model"
)

// prodID はエクスポートするカレンダーのPRODID。
const prodID = "-//timelime//timelime calendar//EN"

// calendarName はカレンダーアプリに表示される購読名。
const calendarName = "TimeLime"

// Export は全イベントをiCalendarとしてシリアライズする。
func Export(events []model.Event) []byte {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(prodID)
	cal.SetName(calendarName)
	cal.SetXWRCalName(calendarName)

	now := time.Now()
	for _, e := range events {
		addEvent(cal, e, now)
	}

	return []byte(cal.Serialize())
}

// addEvent はイベント1件をRRULE付きの終日VEVENTとして追加する。
func addEvent(cal *ical.Calendar, e model.Event, now time.Time) {
	ve := cal.AddEvent(e.ID)
	ve.SetDtStampTime(now)
	ve.SetSummary(e.Title)
	ve.SetAllDayStartAt(e.StartDate)
	ve.SetAllDayEndAt(e.StartDate.AddDate(0, 0, 1))
	ve.AddRrule(rrule(e))
}

// rrule はイベントの頻度をRRULE文字列へ変換する。
// カスタム頻度はFREQ=DAILYのINTERVALとして表現する。
func rrule(e model.Event) string {
	var rule string
	switch e.CheckInFrequency {
	case model.FrequencyWeekly:
		rule = "FREQ=WEEKLY"
	case model.FrequencyMonthly:
		rule = "FREQ=MONTHLY"
	case model.FrequencyYearly:
		rule = "FREQ=YEARLY"
	case model.FrequencyCustom:
		rule = fmt.Sprintf("FREQ=DAILY;INTERVAL=%d", e.CustomInterval())
	default:
		rule = "FREQ=DAILY"
	}

	if e.EndDate != nil {
		rule += ";UNTIL=" + e.EndDate.Format("20060102")
	}
	return rule
}
