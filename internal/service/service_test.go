package service

import (
    "context"
    "errors"
    "fmt"
    "sync"
    "testing"
    "time"

    "github.com/google/uuid"
    "go.uber.org/zap"

    "github.com/iliyamo/yoga-studio-booking/internal/clock"
    "github.com/iliyamo/yoga-studio-booking/internal/model"
    "github.com/iliyamo/yoga-studio-booking/internal/queue"
    "github.com/iliyamo/yoga-studio-booking/internal/repository"
    "github.com/iliyamo/yoga-studio-booking/internal/repository/memstore"
)

// Monday 2026-10-19 08:00 UTC
var monday8am = time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)

type recorder struct {
    mu     sync.Mutex
    events []queue.Event
}

func (r *recorder) Publish(_ context.Context, ev queue.Event) error {
    r.mu.Lock()
    defer r.mu.Unlock()
    r.events = append(r.events, ev)
    return nil
}

func (r *recorder) types() []string {
    r.mu.Lock()
    defer r.mu.Unlock()
    out := make([]string, len(r.events))
    for i, ev := range r.events {
        out[i] = ev.Type
    }
    return out
}

type fixture struct {
    store   *memstore.Store
    clock   *clock.FakeClock
    events  *recorder
    catalog *Catalog
    ledger  *Ledger
    reviews *Reviews
}

func newFixture(t *testing.T, policy ReviewPolicy) *fixture {
    t.Helper()
    st := memstore.New()
    clk := clock.Fake(monday8am)
    rec := &recorder{}
    log := zap.NewNop()
    return &fixture{
        store:   st,
        clock:   clk,
        events:  rec,
        catalog: NewCatalog(st, clk, time.UTC, log),
        ledger:  NewLedger(st, clk, rec, log),
        reviews: NewReviews(st, st, st, policy, clk, rec, log),
    }
}

func (f *fixture) addSession(t *testing.T, name string, start time.Time, capacity int) uuid.UUID {
    t.Helper()
    s := &model.ClassSession{
        ID: uuid.New(), Name: name, Instructor: "Mei",
        StartTime: start, EndTime: start.Add(60 * time.Minute), Capacity: capacity,
        CreatedAt: monday8am, UpdatedAt: monday8am,
    }
    if err := f.store.CreateSession(context.Background(), s); err != nil {
        t.Fatalf("CreateSession: %v", err)
    }
    return s.ID
}

func TestLedgerConcurrentBooking(t *testing.T) {
    f := newFixture(t, PolicyAttended)
    const capacity, attempts = 4, 25
    id := f.addSession(t, "Hatha", monday8am.Add(3*time.Hour), capacity)

    var wg sync.WaitGroup
    results := make(chan error, attempts)
    for i := 0; i < attempts; i++ {
        wg.Add(1)
        go func(i int) {
            defer wg.Done()
            _, err := f.ledger.Book(context.Background(), id, fmt.Sprintf("u%d", i), "")
            results <- err
        }(i)
    }
    wg.Wait()
    close(results)
    var ok, full int
    for err := range results {
        switch repository.KindOf(err) {
        case repository.KindFull:
            full++
        case repository.KindInternal:
            if err != nil {
                t.Fatalf("unexpected error: %v", err)
            }
            ok++
        default:
            t.Fatalf("unexpected error: %v", err)
        }
    }
    if ok != capacity || full != attempts-capacity {
        t.Fatalf("ok=%d full=%d", ok, full)
    }
    v, err := f.catalog.GetSession(context.Background(), id)
    if err != nil {
        t.Fatal(err)
    }
    if v.BookedCount != capacity || v.Available {
        t.Fatalf("view = %+v", v)
    }
    f.ledger.Wait()
    if n := len(f.events.types()); n != capacity {
        t.Fatalf("published %d events, want %d", n, capacity)
    }
}

func TestLedgerCapacityOneScenario(t *testing.T) {
    ctx := context.Background()
    f := newFixture(t, PolicyAttended)
    id := f.addSession(t, "Yin", monday8am.Add(time.Hour), 1)

    a, err := f.ledger.Book(ctx, id, "A", "Ann")
    if err != nil {
        t.Fatalf("A books: %v", err)
    }
    if v, _ := f.catalog.GetSession(ctx, id); v.Available {
        t.Fatal("still available after A booked")
    }
    if _, err := f.ledger.Book(ctx, id, "B", "Bo"); !errors.Is(err, repository.ErrFull) {
        t.Fatalf("B err = %v, want Full", err)
    }
    if _, err := f.ledger.Cancel(ctx, a.ID); err != nil {
        t.Fatalf("A cancels: %v", err)
    }
    if v, _ := f.catalog.GetSession(ctx, id); !v.Available {
        t.Fatal("not available after A cancelled")
    }
    b, err := f.ledger.Book(ctx, id, "B", "Bo")
    if err != nil {
        t.Fatalf("B books: %v", err)
    }
    if b.ID == a.ID {
        t.Fatal("booking id reused")
    }
    f.ledger.Wait()
    want := []string{queue.TypeBookingConfirmed, queue.TypeBookingCancelled, queue.TypeBookingConfirmed}
    got := f.events.types()
    if len(got) != len(want) {
        t.Fatalf("events = %v", got)
    }
}

func TestLedgerCancelTwice(t *testing.T) {
    ctx := context.Background()
    f := newFixture(t, PolicyAttended)
    id := f.addSession(t, "Flow", monday8am.Add(time.Hour), 2)
    b, err := f.ledger.Book(ctx, id, "A", "")
    if err != nil {
        t.Fatal(err)
    }
    if _, err := f.ledger.Cancel(ctx, b.ID); err != nil {
        t.Fatal(err)
    }
    if _, err := f.ledger.Cancel(ctx, b.ID); repository.KindOf(err) != repository.KindAlreadyCancelled {
        t.Fatalf("second cancel err = %v", err)
    }
    if v, _ := f.catalog.GetSession(ctx, id); v.BookedCount != 0 {
        t.Fatalf("booked_count = %d", v.BookedCount)
    }
}

func TestLedgerRejectsStartedClassAndBlankUser(t *testing.T) {
    ctx := context.Background()
    f := newFixture(t, PolicyAttended)
    id := f.addSession(t, "Early", monday8am.Add(30*time.Minute), 5)
    if _, err := f.ledger.Book(ctx, id, "  ", "x"); !errors.Is(err, repository.ErrInvalidInput) {
        t.Fatalf("blank user err = %v", err)
    }
    f.clock.Advance(31 * time.Minute)
    if _, err := f.ledger.Book(ctx, id, "A", "x"); !errors.Is(err, repository.ErrSessionClosed) {
        t.Fatalf("started err = %v", err)
    }
}

func TestAvailableIsCountOnly(t *testing.T) {
    ctx := context.Background()
    f := newFixture(t, PolicyAttended)
    id := f.addSession(t, "Dawn", monday8am.Add(30*time.Minute), 2)
    if _, err := f.ledger.Book(ctx, id, "A", "Ann"); err != nil {
        t.Fatalf("book: %v", err)
    }
    v, _ := f.catalog.GetSession(ctx, id)
    if !v.Available || !v.Bookable {
        t.Fatalf("open session: available=%v bookable=%v", v.Available, v.Bookable)
    }

    // started, then completed: a seat is still free but cannot be booked
    f.clock.Advance(45 * time.Minute)
    v, _ = f.catalog.GetSession(ctx, id)
    if !v.Available || v.Bookable {
        t.Fatalf("started session: available=%v bookable=%v", v.Available, v.Bookable)
    }
    f.clock.Advance(time.Hour)
    if _, err := f.store.MarkFinished(ctx, f.clock.Now()); err != nil {
        t.Fatalf("MarkFinished: %v", err)
    }
    v, _ = f.catalog.GetSession(ctx, id)
    if v.Status != model.SessionCompleted || !v.Available || v.Bookable {
        t.Fatalf("completed session = %+v", v)
    }
}

type flakyLedger struct {
    LedgerStore
    failures int
    calls    int
}

func (f *flakyLedger) Book(ctx context.Context, b *model.Booking, now time.Time) error {
    f.calls++
    if f.calls <= f.failures {
        return fmt.Errorf("lock class: %w", repository.ErrTransient)
    }
    return f.LedgerStore.Book(ctx, b, now)
}

func TestLedgerRetriesTransientErrors(t *testing.T) {
    ctx := context.Background()
    f := newFixture(t, PolicyAttended)
    id := f.addSession(t, "Retry", monday8am.Add(time.Hour), 5)

    flaky := &flakyLedger{LedgerStore: f.store, failures: 2}
    l := NewLedger(flaky, f.clock, nil, zap.NewNop())
    if _, err := l.Book(ctx, id, "A", ""); err != nil {
        t.Fatalf("Book after 2 transient failures: %v", err)
    }
    if flaky.calls != 3 {
        t.Fatalf("calls = %d, want 3", flaky.calls)
    }

    always := &flakyLedger{LedgerStore: f.store, failures: 100}
    l = NewLedger(always, f.clock, nil, zap.NewNop())
    _, err := l.Book(ctx, id, "B", "")
    if repository.KindOf(err) != repository.KindInternal || err == nil {
        t.Fatalf("err = %v, want Internal", err)
    }
    if always.calls != maxAttempts {
        t.Fatalf("calls = %d, want %d", always.calls, maxAttempts)
    }
}

func TestLedgerDoesNotRetryDomainErrors(t *testing.T) {
    ctx := context.Background()
    f := newFixture(t, PolicyAttended)
    id := f.addSession(t, "Full", monday8am.Add(time.Hour), 0)
    counting := &flakyLedger{LedgerStore: f.store}
    l := NewLedger(counting, f.clock, nil, zap.NewNop())
    if _, err := l.Book(ctx, id, "A", ""); !errors.Is(err, repository.ErrFull) {
        t.Fatalf("err = %v", err)
    }
    if counting.calls != 1 {
        t.Fatalf("calls = %d, want 1", counting.calls)
    }
}

func TestListForUserPaging(t *testing.T) {
    ctx := context.Background()
    f := newFixture(t, PolicyAttended)
    for i := 0; i < 3; i++ {
        id := f.addSession(t, fmt.Sprintf("c%d", i), monday8am.Add(time.Duration(i+1)*time.Hour), 5)
        if _, err := f.ledger.Book(ctx, id, "A", ""); err != nil {
            t.Fatal(err)
        }
        f.clock.Advance(time.Minute)
    }
    page, err := f.ledger.ListForUser(ctx, "A", 2, 0)
    if err != nil {
        t.Fatal(err)
    }
    if len(page) != 2 || !page[0].CreatedAt.After(page[1].CreatedAt) {
        t.Fatalf("page = %+v", page)
    }
    rest, _ := f.ledger.ListForUser(ctx, "A", 2, 2)
    if len(rest) != 1 {
        t.Fatalf("rest = %+v", rest)
    }
    if _, err := f.ledger.ListForUser(ctx, "A", -1, 0); !errors.Is(err, repository.ErrInvalidInput) {
        t.Fatalf("negative limit err = %v", err)
    }
}

func TestReviewsAttendedPolicy(t *testing.T) {
    ctx := context.Background()
    f := newFixture(t, PolicyAttended)
    id := f.addSession(t, "Ashtanga", monday8am.Add(time.Hour), 5)
    if _, err := f.ledger.Book(ctx, id, "A", "Ann"); err != nil {
        t.Fatal(err)
    }
    in := ReviewInput{ClassID: id, UserID: "A", UserName: "Ann", Rating: 5, Content: " lovely ", Images: []string{"a.jpg", " "}}

    if _, err := f.reviews.Create(ctx, in); !errors.Is(err, repository.ErrNotEligible) {
        t.Fatalf("before class err = %v, want NotEligible", err)
    }
    f.clock.Advance(2 * time.Hour)
    rv, err := f.reviews.Create(ctx, in)
    if err != nil {
        t.Fatalf("after class: %v", err)
    }
    if rv.Content != "lovely" || len(rv.Images) != 1 {
        t.Fatalf("review = %+v", rv)
    }
    if _, err := f.reviews.Create(ctx, in); !errors.Is(err, repository.ErrDuplicateReview) {
        t.Fatalf("second review err = %v", err)
    }
    stranger := in
    stranger.UserID = "Z"
    if _, err := f.reviews.Create(ctx, stranger); !errors.Is(err, repository.ErrNotEligible) {
        t.Fatalf("stranger err = %v", err)
    }
    mine, err := f.reviews.GetForUser(ctx, id, "A")
    if err != nil || mine == nil || mine.ID != rv.ID {
        t.Fatalf("GetForUser = %+v, %v", mine, err)
    }
    none, err := f.reviews.GetForUser(ctx, id, "Z")
    if err != nil || none != nil {
        t.Fatalf("absent = %+v, %v", none, err)
    }
}

func TestReviewsAnyBookingPolicyAcceptsCancelled(t *testing.T) {
    ctx := context.Background()
    f := newFixture(t, PolicyAnyBooking)
    id := f.addSession(t, "Restorative", monday8am.Add(time.Hour), 5)
    b, err := f.ledger.Book(ctx, id, "A", "")
    if err != nil {
        t.Fatal(err)
    }
    if _, err := f.ledger.Cancel(ctx, b.ID); err != nil {
        t.Fatal(err)
    }
    if _, err := f.reviews.Create(ctx, ReviewInput{ClassID: id, UserID: "A", Rating: 3, Content: "ok"}); err != nil {
        t.Fatalf("Create: %v", err)
    }
}

func TestReviewsValidation(t *testing.T) {
    ctx := context.Background()
    f := newFixture(t, PolicyAnyBooking)
    id := f.addSession(t, "Power", monday8am.Add(time.Hour), 5)
    tests := []struct {
        name string
        in   ReviewInput
        want error
    }{
        {"rating too low", ReviewInput{ClassID: id, UserID: "A", Rating: 0, Content: "x"}, repository.ErrInvalidInput},
        {"rating too high", ReviewInput{ClassID: id, UserID: "A", Rating: 6, Content: "x"}, repository.ErrInvalidInput},
        {"blank content", ReviewInput{ClassID: id, UserID: "A", Rating: 4, Content: "   "}, repository.ErrInvalidInput},
        {"blank user", ReviewInput{ClassID: id, Rating: 4, Content: "x"}, repository.ErrInvalidInput},
        {"unknown class", ReviewInput{ClassID: uuid.New(), UserID: "A", Rating: 4, Content: "x"}, repository.ErrNotFound},
        {"no booking", ReviewInput{ClassID: id, UserID: "A", Rating: 4, Content: "x"}, repository.ErrNotEligible},
    }
    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            if _, err := f.reviews.Create(ctx, tt.in); !errors.Is(err, tt.want) {
                t.Fatalf("err = %v, want %v", err, tt.want)
            }
        })
    }
}

func TestWeekSchedule(t *testing.T) {
    ctx := context.Background()
    f := newFixture(t, PolicyAttended)
    wed := time.Date(2026, 10, 21, 0, 0, 0, 0, time.UTC)
    late := f.addSession(t, "Evening", wed.Add(19*time.Hour), 5)
    early := f.addSession(t, "Morning", wed.Add(7*time.Hour), 5)
    sun := f.addSession(t, "Sunday", time.Date(2026, 10, 25, 23, 0, 0, 0, time.UTC), 5)
    f.addSession(t, "Next week", time.Date(2026, 10, 26, 9, 0, 0, 0, time.UTC), 5)

    view, err := f.catalog.WeekSchedule(ctx, "2026-10-23")
    if err != nil {
        t.Fatal(err)
    }
    if view.WeekStart != "2026-10-19" || view.WeekEnd != "2026-10-25" {
        t.Fatalf("week = %s..%s", view.WeekStart, view.WeekEnd)
    }
    if len(view.Days) != 7 {
        t.Fatalf("days = %d", len(view.Days))
    }
    for i, d := range view.Days {
        if d.Sessions == nil {
            t.Errorf("day %d sessions nil", i)
        }
    }
    if view.Days[0].Weekday != "Monday" || view.Days[6].Weekday != "Sunday" {
        t.Fatalf("weekdays = %s..%s", view.Days[0].Weekday, view.Days[6].Weekday)
    }
    if view.Days[0].Label.Text != "Today" || view.Days[1].Label.Text != "Tomorrow" {
        t.Fatalf("labels = %+v %+v", view.Days[0].Label, view.Days[1].Label)
    }
    wd := view.Days[2].Sessions
    if len(wd) != 2 || wd[0].ID != early || wd[1].ID != late {
        t.Fatalf("wednesday = %+v", wd)
    }
    if wd[0].DurationMinutes != 60 || !wd[0].Available {
        t.Fatalf("view fields = %+v", wd[0])
    }
    if s := view.Days[6].Sessions; len(s) != 1 || s[0].ID != sun {
        t.Fatalf("sunday = %+v", s)
    }
    total := 0
    for _, d := range view.Days {
        total += len(d.Sessions)
    }
    if total != 3 {
        t.Fatalf("total sessions = %d, want 3", total)
    }
}

func TestSessionsBetween(t *testing.T) {
    ctx := context.Background()
    f := newFixture(t, PolicyAttended)
    thu := f.addSession(t, "Thu", time.Date(2026, 10, 22, 18, 0, 0, 0, time.UTC), 5)
    f.addSession(t, "Later", time.Date(2026, 11, 3, 18, 0, 0, 0, time.UTC), 5)

    week, err := f.catalog.SessionsBetween(ctx, "", "")
    if err != nil {
        t.Fatal(err)
    }
    if len(week) != 1 || week[0].ID != thu {
        t.Fatalf("current week = %+v", week)
    }
    day, err := f.catalog.SessionsBetween(ctx, "2026-10-22", "")
    if err != nil || len(day) != 1 {
        t.Fatalf("single day = %+v, %v", day, err)
    }
    if _, err := f.catalog.SessionsBetween(ctx, "22/10/2026", ""); !errors.Is(err, repository.ErrInvalidInput) {
        t.Fatalf("bad date err = %v", err)
    }
    if _, err := f.catalog.SessionsBetween(ctx, "2026-10-23", "2026-10-22"); !errors.Is(err, repository.ErrInvalidInput) {
        t.Fatalf("reversed range err = %v", err)
    }
}
