// Package calendar holds the pure date arithmetic behind the weekly
// timetable: ISO week boundaries, day labels and class durations.  Every
// function works in the location of the instants it is given; callers
// convert to the studio timezone first.
package calendar

import "time"

// LabelKind classifies a date relative to today.
type LabelKind string

const (
    Today            LabelKind = "today"
    Tomorrow         LabelKind = "tomorrow"
    DayAfterTomorrow LabelKind = "day_after_tomorrow"
    Weekday          LabelKind = "weekday"
    Numeric          LabelKind = "numeric"
)

// Label is the display metadata attached to a schedule day.
type Label struct {
    Kind LabelKind `json:"kind"`
    Text string    `json:"text"`
}

// StartOfDay returns local midnight of t's calendar day.
func StartOfDay(t time.Time) time.Time {
    y, m, d := t.Date()
    return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last representable instant of t's calendar day.
func EndOfDay(t time.Time) time.Time {
    return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// WeekBounds returns midnight of the Monday on or before ref and the last
// instant of the Sunday that follows it.  Monday is day 1.
func WeekBounds(ref time.Time) (time.Time, time.Time) {
    offset := (int(ref.Weekday()) + 6) % 7
    monday := StartOfDay(ref).AddDate(0, 0, -offset)
    return monday, monday.AddDate(0, 0, 7).Add(-time.Nanosecond)
}

// WeekDays returns midnight of each day Monday..Sunday of ref's week.
func WeekDays(ref time.Time) []time.Time {
    monday, _ := WeekBounds(ref)
    days := make([]time.Time, 7)
    for i := range days {
        days[i] = monday.AddDate(0, 0, i)
    }
    return days
}

// DayOffset counts calendar days from today to date.  Wall-clock time and
// DST transitions do not affect the result.
func DayOffset(date, today time.Time) int {
    date = date.In(today.Location())
    y1, m1, d1 := date.Date()
    y2, m2, d2 := today.Date()
    a := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
    b := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
    return int(a.Sub(b) / (24 * time.Hour))
}

// DateLabel names date relative to today: the next three days get fixed
// labels, later days their weekday and past days a month-day number.
func DateLabel(date, today time.Time) Label {
    switch off := DayOffset(date, today); {
    case off == 0:
        return Label{Kind: Today, Text: "Today"}
    case off == 1:
        return Label{Kind: Tomorrow, Text: "Tomorrow"}
    case off == 2:
        return Label{Kind: DayAfterTomorrow, Text: "Day after tomorrow"}
    case off >= 3:
        return Label{Kind: Weekday, Text: date.In(today.Location()).Weekday().String()}
    default:
        return Label{Kind: Numeric, Text: date.In(today.Location()).Format("01-02")}
    }
}

// DurationMinutes returns the whole minutes between start and end, or 0
// when end is not after start.
func DurationMinutes(start, end time.Time) int {
    if !end.After(start) {
        return 0
    }
    return int(end.Sub(start) / time.Minute)
}
