// Package timetable reads class sessions from a YAML timetable file.
//
// A file looks like:
//
//	timezone: Asia/Shanghai
//	sessions:
//	  - name: Morning Vinyasa
//	    instructor: Mei
//	    date: 2026-10-20
//	    start: "07:00"
//	    duration: 60m
//	    capacity: 12
//	    repeat_weeks: 4
//
// Either end or duration gives the length.  repeat_weeks copies the entry
// onto the same weekday of the following weeks.
package timetable

import (
    "errors"
    "fmt"
    "io"
    "strings"
    "time"

    "github.com/google/uuid"
    "gopkg.in/yaml.v3"

    "github.com/iliyamo/yoga-studio-booking/internal/model"
)

// File is the document root.
type File struct {
    Timezone string  `yaml:"timezone"`
    Sessions []Entry `yaml:"sessions"`
}

// Entry is one row of the timetable.
type Entry struct {
    Name        string        `yaml:"name"`
    Description string        `yaml:"description"`
    Instructor  string        `yaml:"instructor"`
    Date        string        `yaml:"date"`
    Start       string        `yaml:"start"`
    End         string        `yaml:"end"`
    Duration    time.Duration `yaml:"duration"`
    Capacity    int           `yaml:"capacity"`
    RepeatWeeks int           `yaml:"repeat_weeks"`
}

// Parse decodes r and expands it into sessions.  def is used when the file
// names no timezone.  Every entry is checked; all problems are returned
// together.
func Parse(r io.Reader, def *time.Location, now time.Time) ([]model.ClassSession, error) {
    var f File
    dec := yaml.NewDecoder(r)
    dec.KnownFields(true)
    if err := dec.Decode(&f); err != nil {
        if errors.Is(err, io.EOF) {
            return nil, nil
        }
        return nil, fmt.Errorf("decode timetable: %w", err)
    }
    loc := def
    if f.Timezone != "" {
        l, err := time.LoadLocation(f.Timezone)
        if err != nil {
            return nil, fmt.Errorf("timezone %q: %w", f.Timezone, err)
        }
        loc = l
    }

    var (
        out  []model.ClassSession
        errs []error
    )
    for i, e := range f.Sessions {
        start, end, err := e.window(loc)
        if err != nil {
            errs = append(errs, fmt.Errorf("session %d (%s): %w", i+1, e.Name, err))
            continue
        }
        for w := 0; w <= e.RepeatWeeks; w++ {
            out = append(out, model.ClassSession{
                ID:          uuid.New(),
                Name:        strings.TrimSpace(e.Name),
                Description: strings.TrimSpace(e.Description),
                Instructor:  strings.TrimSpace(e.Instructor),
                StartTime:   start.AddDate(0, 0, 7*w),
                EndTime:     end.AddDate(0, 0, 7*w),
                Capacity:    e.Capacity,
                Status:      model.SessionScheduled,
                CreatedAt:   now,
                UpdatedAt:   now,
            })
        }
    }
    return out, errors.Join(errs...)
}

func (e Entry) window(loc *time.Location) (time.Time, time.Time, error) {
    if strings.TrimSpace(e.Name) == "" {
        return time.Time{}, time.Time{}, errors.New("name required")
    }
    if e.Capacity < 0 {
        return time.Time{}, time.Time{}, fmt.Errorf("capacity %d is negative", e.Capacity)
    }
    if e.RepeatWeeks < 0 {
        return time.Time{}, time.Time{}, fmt.Errorf("repeat_weeks %d is negative", e.RepeatWeeks)
    }
    start, err := time.ParseInLocation("2006-01-02 15:04", e.Date+" "+e.Start, loc)
    if err != nil {
        return time.Time{}, time.Time{}, fmt.Errorf("date/start: %w", err)
    }
    var end time.Time
    switch {
    case e.End != "":
        end, err = time.ParseInLocation("2006-01-02 15:04", e.Date+" "+e.End, loc)
        if err != nil {
            return time.Time{}, time.Time{}, fmt.Errorf("end: %w", err)
        }
    case e.Duration > 0:
        end = start.Add(e.Duration)
    default:
        return time.Time{}, time.Time{}, errors.New("end or duration required")
    }
    if !end.After(start) {
        return time.Time{}, time.Time{}, errors.New("end must be after start")
    }
    return start, end, nil
}
