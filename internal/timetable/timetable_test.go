package timetable

import (
    "strings"
    "testing"
    "time"
)

var now = time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)

func TestParseExpandsRepeats(t *testing.T) {
    doc := `
timezone: UTC
sessions:
  - name: Morning Vinyasa
    instructor: Mei
    date: 2026-10-20
    start: "07:00"
    duration: 1h
    capacity: 12
    repeat_weeks: 2
  - name: Yin
    instructor: Lu
    date: 2026-10-21
    start: "19:30"
    end: "20:45"
    capacity: 8
`
    got, err := Parse(strings.NewReader(doc), time.UTC, now)
    if err != nil {
        t.Fatalf("Parse: %v", err)
    }
    if len(got) != 4 {
        t.Fatalf("sessions = %d, want 4", len(got))
    }
    want := []time.Time{
        time.Date(2026, 10, 20, 7, 0, 0, 0, time.UTC),
        time.Date(2026, 10, 27, 7, 0, 0, 0, time.UTC),
        time.Date(2026, 11, 3, 7, 0, 0, 0, time.UTC),
    }
    for i, w := range want {
        if !got[i].StartTime.Equal(w) || got[i].EndTime.Sub(got[i].StartTime) != time.Hour {
            t.Errorf("session %d = %s..%s", i, got[i].StartTime, got[i].EndTime)
        }
    }
    if got[0].ID == got[1].ID {
        t.Error("repeated sessions share an id")
    }
    if d := got[3].EndTime.Sub(got[3].StartTime); d != 75*time.Minute {
        t.Errorf("yin length = %s", d)
    }
}

func TestParseUsesDefaultLocation(t *testing.T) {
    loc := time.FixedZone("studio", 8*3600)
    doc := "sessions:\n  - {name: Flow, date: 2026-10-20, start: \"09:00\", duration: 30m, capacity: 3}\n"
    got, err := Parse(strings.NewReader(doc), loc, now)
    if err != nil {
        t.Fatalf("Parse: %v", err)
    }
    if want := time.Date(2026, 10, 20, 1, 0, 0, 0, time.UTC); !got[0].StartTime.Equal(want) {
        t.Fatalf("start = %s, want %s", got[0].StartTime, want)
    }
}

func TestParseCollectsErrors(t *testing.T) {
    doc := `
sessions:
  - {name: "", date: 2026-10-20, start: "09:00", duration: 30m}
  - {name: Bad date, date: 2026-13-20, start: "09:00", duration: 30m}
  - {name: No length, date: 2026-10-20, start: "09:00"}
  - {name: Backwards, date: 2026-10-20, start: "09:00", end: "08:00"}
  - {name: Fine, date: 2026-10-20, start: "09:00", duration: 30m, capacity: 2}
`
    got, err := Parse(strings.NewReader(doc), time.UTC, now)
    if err == nil {
        t.Fatal("expected errors")
    }
    if n := strings.Count(err.Error(), "session "); n != 4 {
        t.Fatalf("reported %d problems: %v", n, err)
    }
    if len(got) != 1 || got[0].Name != "Fine" {
        t.Fatalf("valid sessions = %+v", got)
    }
}

func TestParseRejectsUnknownFields(t *testing.T) {
    doc := "sessions:\n  - {name: Flow, coach: Mei}\n"
    if _, err := Parse(strings.NewReader(doc), time.UTC, now); err == nil {
        t.Fatal("expected unknown field error")
    }
}
