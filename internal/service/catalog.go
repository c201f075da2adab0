package service

import (
    "context"
    "fmt"
    "time"

    "github.com/google/uuid"
    "go.uber.org/zap"

    "github.com/iliyamo/yoga-studio-booking/internal/calendar"
    "github.com/iliyamo/yoga-studio-booking/internal/clock"
    "github.com/iliyamo/yoga-studio-booking/internal/model"
    "github.com/iliyamo/yoga-studio-booking/internal/observability"
    "github.com/iliyamo/yoga-studio-booking/internal/repository"
)

// DateLayout is the wire format of calendar dates in query strings.
const DateLayout = "2006-01-02"

// Catalog projects stored sessions into client views.  Availability is
// recomputed from the ledger's confirmed count on every call.
type Catalog struct {
    sessions SessionStore
    clock    clock.Clock
    loc      *time.Location
    logger   *zap.Logger
}

// NewCatalog returns a Catalog presenting times in loc.
func NewCatalog(sessions SessionStore, clk clock.Clock, loc *time.Location, logger *zap.Logger) *Catalog {
    return &Catalog{sessions: sessions, clock: clk, loc: loc, logger: logger.Named("catalog")}
}

// Location is the studio timezone.
func (c *Catalog) Location() *time.Location { return c.loc }

func (c *Catalog) view(s model.ClassSession) model.SessionView {
    s.StartTime = s.StartTime.In(c.loc)
    s.EndTime = s.EndTime.In(c.loc)
    s.CreatedAt = s.CreatedAt.In(c.loc)
    s.UpdatedAt = s.UpdatedAt.In(c.loc)
    return model.SessionView{
        ClassSession:    s,
        Available:       s.IsAvailable(),
        Bookable:        s.IsAvailable() && s.Bookable(c.clock.Now()),
        DurationMinutes: calendar.DurationMinutes(s.StartTime, s.EndTime),
    }
}

// ListSessions returns views of the sessions starting within [start, end].
func (c *Catalog) ListSessions(ctx context.Context, start, end time.Time) ([]model.SessionView, error) {
    ctx, span := observability.StartSpan(ctx, "Catalog.ListSessions")
    sessions, err := c.sessions.ListSessions(ctx, start, end)
    observability.EndSpan(span, err)
    if err != nil {
        c.logger.Error("list sessions", zap.Error(err))
        return nil, err
    }
    out := make([]model.SessionView, 0, len(sessions))
    for _, s := range sessions {
        out = append(out, c.view(s))
    }
    return out, nil
}

// SessionsBetween resolves a YYYY-MM-DD range in the studio timezone.
// Both dates empty means the current week; a single date means that day.
func (c *Catalog) SessionsBetween(ctx context.Context, startDate, endDate string) ([]model.SessionView, error) {
    start, end, err := c.resolveRange(startDate, endDate)
    if err != nil {
        return nil, err
    }
    return c.ListSessions(ctx, start, end)
}

func (c *Catalog) resolveRange(startDate, endDate string) (time.Time, time.Time, error) {
    if startDate == "" && endDate == "" {
        start, end := calendar.WeekBounds(c.clock.Now().In(c.loc))
        return start, end, nil
    }
    if startDate == "" {
        startDate = endDate
    }
    if endDate == "" {
        endDate = startDate
    }
    start, err := c.ParseDate(startDate)
    if err != nil {
        return time.Time{}, time.Time{}, err
    }
    end, err := c.ParseDate(endDate)
    if err != nil {
        return time.Time{}, time.Time{}, err
    }
    if end.Before(start) {
        return time.Time{}, time.Time{}, fmt.Errorf("end_date before start_date: %w", repository.ErrInvalidInput)
    }
    return start, calendar.EndOfDay(end), nil
}

// ParseDate parses YYYY-MM-DD as local midnight in the studio timezone.
func (c *Catalog) ParseDate(s string) (time.Time, error) {
    t, err := time.ParseInLocation(DateLayout, s, c.loc)
    if err != nil {
        return time.Time{}, fmt.Errorf("date %q: %w", s, repository.ErrInvalidInput)
    }
    return t, nil
}

// GetSession returns one session view.
func (c *Catalog) GetSession(ctx context.Context, id uuid.UUID) (*model.SessionView, error) {
    ctx, span := observability.StartSpan(ctx, "Catalog.GetSession")
    s, err := c.sessions.GetSession(ctx, id)
    observability.EndSpan(span, err)
    if err != nil {
        return nil, err
    }
    v := c.view(*s)
    return &v, nil
}
