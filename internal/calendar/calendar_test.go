package calendar

import (
    "testing"
    "time"
)

func TestWeekBounds(t *testing.T) {
    shanghai, err := time.LoadLocation("Asia/Shanghai")
    if err != nil {
        t.Skipf("tzdata unavailable: %v", err)
    }
    tests := []struct {
        name       string
        ref        time.Time
        wantMonday time.Time
    }{
        {"monday morning", time.Date(2026, 10, 19, 8, 0, 0, 0, shanghai), time.Date(2026, 10, 19, 0, 0, 0, 0, shanghai)},
        {"midweek", time.Date(2026, 10, 22, 18, 30, 0, 0, shanghai), time.Date(2026, 10, 19, 0, 0, 0, 0, shanghai)},
        {"sunday late", time.Date(2026, 10, 25, 23, 59, 0, 0, shanghai), time.Date(2026, 10, 19, 0, 0, 0, 0, shanghai)},
        {"across month", time.Date(2026, 11, 1, 12, 0, 0, 0, shanghai), time.Date(2026, 10, 26, 0, 0, 0, 0, shanghai)},
        {"across year", time.Date(2027, 1, 2, 9, 0, 0, 0, time.UTC), time.Date(2026, 12, 28, 0, 0, 0, 0, time.UTC)},
    }
    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            monday, sunday := WeekBounds(tt.ref)
            if !monday.Equal(tt.wantMonday) {
                t.Fatalf("monday = %v, want %v", monday, tt.wantMonday)
            }
            if monday.Weekday() != time.Monday {
                t.Fatalf("monday weekday = %v", monday.Weekday())
            }
            if sunday.Weekday() != time.Sunday {
                t.Fatalf("sunday weekday = %v", sunday.Weekday())
            }
            if h, m, s := sunday.Clock(); h != 23 || m != 59 || s != 59 {
                t.Fatalf("sunday end clock = %02d:%02d:%02d", h, m, s)
            }
            if tt.ref.Before(monday) || tt.ref.After(sunday) {
                t.Fatalf("ref %v outside [%v, %v]", tt.ref, monday, sunday)
            }
        })
    }
}

func TestWeekBoundsAcrossDST(t *testing.T) {
    berlin, err := time.LoadLocation("Europe/Berlin")
    if err != nil {
        t.Skipf("tzdata unavailable: %v", err)
    }
    // Clocks go back on Sunday 2026-10-25.
    monday, sunday := WeekBounds(time.Date(2026, 10, 23, 10, 0, 0, 0, berlin))
    if got := monday.Format("2006-01-02 15:04"); got != "2026-10-19 00:00" {
        t.Fatalf("monday = %s", got)
    }
    if got := sunday.Format("2006-01-02 15:04:05"); got != "2026-10-25 23:59:59" {
        t.Fatalf("sunday = %s", got)
    }
}

func TestWeekDays(t *testing.T) {
    days := WeekDays(time.Date(2026, 10, 21, 15, 0, 0, 0, time.UTC))
    if len(days) != 7 {
        t.Fatalf("len = %d, want 7", len(days))
    }
    for i, d := range days {
        want := time.Weekday((i + 1) % 7)
        if d.Weekday() != want {
            t.Errorf("day %d weekday = %v, want %v", i, d.Weekday(), want)
        }
        if h, m, s := d.Clock(); h+m+s != 0 {
            t.Errorf("day %d not at midnight: %v", i, d)
        }
    }
}

func TestDateLabel(t *testing.T) {
    today := time.Date(2026, 10, 19, 21, 0, 0, 0, time.UTC) // Monday
    tests := []struct {
        date     time.Time
        wantKind LabelKind
        wantText string
    }{
        {time.Date(2026, 10, 19, 7, 0, 0, 0, time.UTC), Today, "Today"},
        {time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC), Tomorrow, "Tomorrow"},
        {time.Date(2026, 10, 21, 23, 59, 0, 0, time.UTC), DayAfterTomorrow, "Day after tomorrow"},
        {time.Date(2026, 10, 22, 9, 0, 0, 0, time.UTC), Weekday, "Thursday"},
        {time.Date(2026, 10, 30, 9, 0, 0, 0, time.UTC), Weekday, "Friday"},
        {time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC), Numeric, "10-18"},
    }
    for _, tt := range tests {
        got := DateLabel(tt.date, today)
        if got.Kind != tt.wantKind || got.Text != tt.wantText {
            t.Errorf("DateLabel(%v) = %+v, want {%s %s}", tt.date, got, tt.wantKind, tt.wantText)
        }
    }
}

func TestDurationMinutes(t *testing.T) {
    start := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
    if got := DurationMinutes(start, start.Add(75*time.Minute)); got != 75 {
        t.Fatalf("got %d, want 75", got)
    }
    if got := DurationMinutes(start, start.Add(90*time.Second)); got != 1 {
        t.Fatalf("got %d, want 1", got)
    }
    if got := DurationMinutes(start, start); got != 0 {
        t.Fatalf("got %d, want 0", got)
    }
    if got := DurationMinutes(start, start.Add(-time.Hour)); got != 0 {
        t.Fatalf("got %d, want 0", got)
    }
}
