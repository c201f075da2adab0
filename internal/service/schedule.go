package service

import (
    "context"

    "github.com/iliyamo/yoga-studio-booking/internal/calendar"
    "github.com/iliyamo/yoga-studio-booking/internal/model"
    "github.com/iliyamo/yoga-studio-booking/internal/observability"
)

// DayBucket is one day of the week view.  Sessions is never nil.
type DayBucket struct {
    Date     string              `json:"date"`
    Weekday  string              `json:"weekday"`
    Label    calendar.Label      `json:"label"`
    Sessions []model.SessionView `json:"sessions"`
}

// WeekView is the Monday..Sunday timetable containing a reference date.
type WeekView struct {
    WeekStart string      `json:"week_start"`
    WeekEnd   string      `json:"week_end"`
    Days      []DayBucket `json:"days"`
}

// WeekSchedule builds the week containing date (YYYY-MM-DD, studio
// timezone; empty means today).  Every day is present, and each bucket
// holds only that day's sessions in start order.
func (c *Catalog) WeekSchedule(ctx context.Context, date string) (*WeekView, error) {
    ctx, span := observability.StartSpan(ctx, "Catalog.WeekSchedule")
    defer span.End()

    today := c.clock.Now().In(c.loc)
    ref := today
    if date != "" {
        d, err := c.ParseDate(date)
        if err != nil {
            return nil, err
        }
        ref = d
    }
    monday, sunday := calendar.WeekBounds(ref)
    sessions, err := c.ListSessions(ctx, monday, sunday)
    if err != nil {
        return nil, err
    }

    days := calendar.WeekDays(ref)
    view := &WeekView{
        WeekStart: monday.Format(DateLayout),
        WeekEnd:   sunday.Format(DateLayout),
        Days:      make([]DayBucket, len(days)),
    }
    for i, d := range days {
        view.Days[i] = DayBucket{
            Date:     d.Format(DateLayout),
            Weekday:  d.Weekday().String(),
            Label:    calendar.DateLabel(d, today),
            Sessions: []model.SessionView{},
        }
    }
    for _, s := range sessions {
        i := calendar.DayOffset(s.StartTime, monday)
        if i < 0 || i >= len(view.Days) {
            continue
        }
        view.Days[i].Sessions = append(view.Days[i].Sessions, s)
    }
    return view, nil
}
