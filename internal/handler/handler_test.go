package handler

import (
    "context"
    "encoding/json"
    "errors"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/yoga-studio-booking/internal/chat"
    "github.com/iliyamo/yoga-studio-booking/internal/clock"
    "github.com/iliyamo/yoga-studio-booking/internal/middleware"
    "github.com/iliyamo/yoga-studio-booking/internal/model"
    "github.com/iliyamo/yoga-studio-booking/internal/repository/memstore"
    "github.com/iliyamo/yoga-studio-booking/internal/service"
)

var monday8am = time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)

type fakeAssistant struct {
    resp *chat.Response
    err  error
}

func (f fakeAssistant) Chat(context.Context, chat.Request) (*chat.Response, error) {
    return f.resp, f.err
}

type testServer struct {
    e      *echo.Echo
    store  *memstore.Store
    clock  *clock.FakeClock
    ledger *service.Ledger
}

func newTestServer(t *testing.T, assistant Assistant) *testServer {
    t.Helper()
    st := memstore.New()
    clk := clock.Fake(monday8am)
    log := zap.NewNop()

    catalog := service.NewCatalog(st, clk, time.UTC, log)
    ledger := service.NewLedger(st, clk, nil, log)
    reviews := service.NewReviews(st, st, st, service.PolicyAttended, clk, nil, log)

    e := echo.New()
    e.Validator = NewValidator()
    e.HTTPErrorHandler = ErrorHandler(log)

    ch := NewClassHandler(catalog)
    bh := NewBookingHandler(ledger)
    rh := NewReviewHandler(reviews)
    kh := NewKnowledgeHandler(service.NewKnowledge(st))
    chh := NewChatHandler(assistant, log)

    g := e.Group("/api/v1")
    g.GET("/classes", ch.List)
    g.GET("/classes/schedule", ch.Schedule)
    g.GET("/classes/bookings", bh.List)
    g.DELETE("/classes/bookings/:id", bh.Cancel)
    g.GET("/classes/:id", ch.Get)
    g.POST("/classes/:id/book", bh.Book)
    g.POST("/classes/:id/reviews", rh.Create)
    g.GET("/classes/:id/reviews", rh.List)
    g.GET("/classes/:id/reviews/mine", rh.Mine)
    g.GET("/knowledge-bases", kh.ListBases)
    g.GET("/knowledge-bases/:id/items", kh.ListItems)
    g.POST("/ai/chat", chh.Chat)
    e.GET("/healthz", Health)

    t.Cleanup(func() {
        ledger.Wait()
        reviews.Wait()
    })
    return &testServer{e: e, store: st, clock: clk, ledger: ledger}
}

func (s *testServer) addSession(t *testing.T, start time.Time, capacity int) uuid.UUID {
    t.Helper()
    sess := &model.ClassSession{
        ID: uuid.New(), Name: "Vinyasa", Instructor: "Mei",
        StartTime: start, EndTime: start.Add(time.Hour), Capacity: capacity,
    }
    if err := s.store.CreateSession(context.Background(), sess); err != nil {
        t.Fatalf("CreateSession: %v", err)
    }
    return sess.ID
}

func (s *testServer) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
    t.Helper()
    var req *http.Request
    if body != "" {
        req = httptest.NewRequest(method, target, strings.NewReader(body))
        req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    } else {
        req = httptest.NewRequest(method, target, nil)
    }
    rec := httptest.NewRecorder()
    s.e.ServeHTTP(rec, req)
    return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
    t.Helper()
    var v T
    if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
        t.Fatalf("decode %q: %v", rec.Body.String(), err)
    }
    return v
}

type errorBody struct {
    Error   string `json:"error"`
    Message string `json:"message"`
}

func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, kind string) {
    t.Helper()
    if rec.Code != status {
        t.Fatalf("status = %d, want %d (body %s)", rec.Code, status, rec.Body.String())
    }
    if got := decode[errorBody](t, rec); got.Error != kind {
        t.Fatalf("error = %q, want %q", got.Error, kind)
    }
}

func TestHealth(t *testing.T) {
    s := newTestServer(t, nil)
    rec := s.do(t, http.MethodGet, "/healthz", "")
    if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
        t.Fatalf("healthz = %d %q", rec.Code, rec.Body.String())
    }
}

func TestBookCapacityOneFlow(t *testing.T) {
    s := newTestServer(t, nil)
    id := s.addSession(t, monday8am.Add(4*time.Hour), 1)
    book := "/api/v1/classes/" + id.String() + "/book"

    rec := s.do(t, http.MethodPost, book, `{"user_id":"a","user_name":"Ann"}`)
    if rec.Code != http.StatusCreated {
        t.Fatalf("book A = %d %s", rec.Code, rec.Body.String())
    }
    bookingA := decode[model.Booking](t, rec)
    if bookingA.Status != model.BookingConfirmed || bookingA.ClassID != id {
        t.Fatalf("booking = %+v", bookingA)
    }

    view := decode[model.SessionView](t, s.do(t, http.MethodGet, "/api/v1/classes/"+id.String(), ""))
    if view.Available || view.BookedCount != 1 {
        t.Fatalf("after A: available=%v booked=%d", view.Available, view.BookedCount)
    }

    expectError(t, s.do(t, http.MethodPost, book, `{"user_id":"b"}`), http.StatusConflict, "Full")

    rec = s.do(t, http.MethodDelete, "/api/v1/classes/bookings/"+bookingA.ID.String(), "")
    if rec.Code != http.StatusNoContent {
        t.Fatalf("cancel = %d %s", rec.Code, rec.Body.String())
    }
    expectError(t, s.do(t, http.MethodDelete, "/api/v1/classes/bookings/"+bookingA.ID.String(), ""),
        http.StatusConflict, "AlreadyCancelled")

    view = decode[model.SessionView](t, s.do(t, http.MethodGet, "/api/v1/classes/"+id.String(), ""))
    if !view.Available {
        t.Fatal("session should be available after cancel")
    }
    if rec := s.do(t, http.MethodPost, book, `{"user_id":"b"}`); rec.Code != http.StatusCreated {
        t.Fatalf("book B = %d %s", rec.Code, rec.Body.String())
    }
}

func TestBookErrors(t *testing.T) {
    s := newTestServer(t, nil)
    id := s.addSession(t, monday8am.Add(4*time.Hour), 3)
    started := s.addSession(t, monday8am.Add(-10*time.Minute), 3)

    tests := []struct {
        name   string
        target string
        body   string
        status int
        kind   string
    }{
        {"bad uuid", "/api/v1/classes/nope/book", `{"user_id":"a"}`, http.StatusBadRequest, "InvalidInput"},
        {"missing user", "/api/v1/classes/" + id.String() + "/book", `{"user_name":"x"}`, http.StatusBadRequest, "InvalidInput"},
        {"malformed body", "/api/v1/classes/" + id.String() + "/book", `{"user_id":`, http.StatusBadRequest, "InvalidInput"},
        {"unknown class", "/api/v1/classes/" + uuid.NewString() + "/book", `{"user_id":"a"}`, http.StatusNotFound, "NotFound"},
        {"already started", "/api/v1/classes/" + started.String() + "/book", `{"user_id":"a"}`, http.StatusConflict, "SessionClosed"},
    }
    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            expectError(t, s.do(t, http.MethodPost, tt.target, tt.body), tt.status, tt.kind)
        })
    }

    if rec := s.do(t, http.MethodPost, "/api/v1/classes/"+id.String()+"/book", `{"user_id":"a"}`); rec.Code != http.StatusCreated {
        t.Fatalf("first book = %d", rec.Code)
    }
    expectError(t, s.do(t, http.MethodPost, "/api/v1/classes/"+id.String()+"/book", `{"user_id":"a"}`),
        http.StatusConflict, "DuplicateBooking")
}

func TestListBookingsPaging(t *testing.T) {
    s := newTestServer(t, nil)
    for i := 0; i < 3; i++ {
        id := s.addSession(t, monday8am.Add(time.Duration(i+2)*time.Hour), 5)
        if rec := s.do(t, http.MethodPost, "/api/v1/classes/"+id.String()+"/book", `{"user_id":"u1"}`); rec.Code != http.StatusCreated {
            t.Fatalf("book = %d", rec.Code)
        }
    }

    type page struct {
        Items  []model.Booking `json:"items"`
        Limit  int             `json:"limit"`
        Offset int             `json:"offset"`
    }
    got := decode[page](t, s.do(t, http.MethodGet, "/api/v1/classes/bookings?user_id=u1", ""))
    if len(got.Items) != 3 || got.Limit != service.DefaultLimit || got.Offset != 0 {
        t.Fatalf("default page = %d items, limit %d offset %d", len(got.Items), got.Limit, got.Offset)
    }
    got = decode[page](t, s.do(t, http.MethodGet, "/api/v1/classes/bookings?user_id=u1&limit=500&offset=2", ""))
    if len(got.Items) != 1 || got.Limit != service.MaxLimit || got.Offset != 2 {
        t.Fatalf("clamped page = %d items, limit %d offset %d", len(got.Items), got.Limit, got.Offset)
    }
    expectError(t, s.do(t, http.MethodGet, "/api/v1/classes/bookings?user_id=u1&limit=-1", ""), http.StatusBadRequest, "InvalidInput")
    expectError(t, s.do(t, http.MethodGet, "/api/v1/classes/bookings?user_id=u1&offset=x", ""), http.StatusBadRequest, "InvalidInput")
}

func TestClassesListAndSchedule(t *testing.T) {
    s := newTestServer(t, nil)
    s.addSession(t, monday8am.Add(2*time.Hour), 5)
    s.addSession(t, monday8am.Add(50*time.Hour), 5)

    list := decode[struct {
        Items []model.SessionView `json:"items"`
    }](t, s.do(t, http.MethodGet, "/api/v1/classes?start_date=2026-10-19", ""))
    if len(list.Items) != 1 || list.Items[0].DurationMinutes != 60 {
        t.Fatalf("single day = %+v", list.Items)
    }

    week := decode[service.WeekView](t, s.do(t, http.MethodGet, "/api/v1/classes/schedule?date=2026-10-22", ""))
    if week.WeekStart != "2026-10-19" || week.WeekEnd != "2026-10-25" || len(week.Days) != 7 {
        t.Fatalf("week = %s..%s with %d days", week.WeekStart, week.WeekEnd, len(week.Days))
    }
    if len(week.Days[0].Sessions) != 1 || len(week.Days[2].Sessions) != 1 {
        t.Fatalf("buckets: mon=%d wed=%d", len(week.Days[0].Sessions), len(week.Days[2].Sessions))
    }

    expectError(t, s.do(t, http.MethodGet, "/api/v1/classes?start_date=2026-13-01", ""), http.StatusBadRequest, "InvalidInput")
    expectError(t, s.do(t, http.MethodGet, "/api/v1/classes/"+uuid.NewString(), ""), http.StatusNotFound, "NotFound")
}

func TestReviewFlow(t *testing.T) {
    s := newTestServer(t, nil)
    id := s.addSession(t, monday8am.Add(time.Hour), 5)
    base := "/api/v1/classes/" + id.String()

    if rec := s.do(t, http.MethodPost, base+"/book", `{"user_id":"u1","user_name":"Uma"}`); rec.Code != http.StatusCreated {
        t.Fatalf("book = %d", rec.Code)
    }
    review := `{"user_id":"u1","user_name":"Uma","rating":5,"content":"great flow","images":["a.png"]}`

    // class has not started yet
    expectError(t, s.do(t, http.MethodPost, base+"/reviews", review), http.StatusForbidden, "NotEligible")

    mine := decode[struct {
        Item *model.Review `json:"item"`
    }](t, s.do(t, http.MethodGet, base+"/reviews/mine?user_id=u1", ""))
    if mine.Item != nil {
        t.Fatalf("mine before create = %+v", mine.Item)
    }

    s.clock.Advance(2 * time.Hour)
    rec := s.do(t, http.MethodPost, base+"/reviews", review)
    if rec.Code != http.StatusCreated {
        t.Fatalf("create review = %d %s", rec.Code, rec.Body.String())
    }
    expectError(t, s.do(t, http.MethodPost, base+"/reviews", review), http.StatusConflict, "DuplicateReview")
    expectError(t, s.do(t, http.MethodPost, base+"/reviews", `{"user_id":"u1","rating":9,"content":"x"}`),
        http.StatusBadRequest, "InvalidInput")

    mine = decode[struct {
        Item *model.Review `json:"item"`
    }](t, s.do(t, http.MethodGet, base+"/reviews/mine?user_id=u1", ""))
    if mine.Item == nil || mine.Item.Rating != 5 {
        t.Fatalf("mine = %+v", mine.Item)
    }
    list := decode[struct {
        Items []model.Review `json:"items"`
    }](t, s.do(t, http.MethodGet, base+"/reviews", ""))
    if len(list.Items) != 1 {
        t.Fatalf("reviews = %d", len(list.Items))
    }
}

func TestKnowledgeListing(t *testing.T) {
    s := newTestServer(t, nil)
    baseID := uuid.New()
    s.store.AddKnowledgeBase(
        model.KnowledgeBase{ID: baseID, Name: "Poses", Type: "text", CreatedAt: monday8am},
        model.KnowledgeItem{ID: uuid.New(), KnowledgeBaseID: baseID, Title: "Downward dog", Content: "hands and feet", ContentType: "text"},
    )

    bases := decode[struct {
        Items []model.KnowledgeBase `json:"items"`
    }](t, s.do(t, http.MethodGet, "/api/v1/knowledge-bases", ""))
    if len(bases.Items) != 1 {
        t.Fatalf("bases = %d", len(bases.Items))
    }
    items := decode[struct {
        Items []model.KnowledgeItem `json:"items"`
    }](t, s.do(t, http.MethodGet, "/api/v1/knowledge-bases/"+baseID.String()+"/items", ""))
    if len(items.Items) != 1 || items.Items[0].Title != "Downward dog" {
        t.Fatalf("items = %+v", items.Items)
    }
    expectError(t, s.do(t, http.MethodGet, "/api/v1/knowledge-bases/"+uuid.NewString()+"/items", ""), http.StatusNotFound, "NotFound")
}

func TestChat(t *testing.T) {
    body := `{"message":"how do I breathe in warrior two?"}`

    if rec := newTestServer(t, nil).do(t, http.MethodPost, "/api/v1/ai/chat", body); rec.Code != http.StatusServiceUnavailable {
        t.Fatalf("unconfigured chat = %d", rec.Code)
    }

    ok := newTestServer(t, fakeAssistant{resp: &chat.Response{Message: "slowly"}})
    rec := ok.do(t, http.MethodPost, "/api/v1/ai/chat", body)
    if rec.Code != http.StatusOK || decode[chat.Response](t, rec).Message != "slowly" {
        t.Fatalf("chat = %d %s", rec.Code, rec.Body.String())
    }
    expectError(t, ok.do(t, http.MethodPost, "/api/v1/ai/chat", `{"message":""}`), http.StatusBadRequest, "InvalidInput")

    upstream := []struct {
        err    error
        status int
    }{
        {chat.ErrInsufficientBalance, http.StatusPaymentRequired},
        {chat.ErrUnauthorized, http.StatusUnauthorized},
        {chat.ErrRateLimited, http.StatusTooManyRequests},
        {errors.New("connection reset"), http.StatusBadGateway},
    }
    for _, tt := range upstream {
        s := newTestServer(t, fakeAssistant{err: tt.err})
        if rec := s.do(t, http.MethodPost, "/api/v1/ai/chat", body); rec.Code != tt.status {
            t.Errorf("%v: status = %d, want %d", tt.err, rec.Code, tt.status)
        }
    }
}

type recordingAssistant struct {
    got chat.Request
}

func (r *recordingAssistant) Chat(_ context.Context, req chat.Request) (*chat.Response, error) {
    r.got = req
    return &chat.Response{Message: "ok"}, nil
}

func TestChatActsForIdentifiedUser(t *testing.T) {
    rec := &recordingAssistant{}
    e := echo.New()
    e.Validator = NewValidator()
    e.Use(middleware.Identity())
    e.POST("/ai/chat", NewChatHandler(rec, zap.NewNop()).Chat)

    send := func(body, header string) {
        req := httptest.NewRequest(http.MethodPost, "/ai/chat", strings.NewReader(body))
        req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
        if header != "" {
            req.Header.Set(middleware.HeaderUserID, header)
        }
        w := httptest.NewRecorder()
        e.ServeHTTP(w, req)
        if w.Code != http.StatusOK {
            t.Fatalf("chat = %d %s", w.Code, w.Body.String())
        }
    }

    send(`{"message":"book me in"}`, "u7")
    if rec.got.UserID != "u7" {
        t.Fatalf("header identity: user = %q", rec.got.UserID)
    }
    send(`{"message":"book me in","user_id":"u8"}`, "u7")
    if rec.got.UserID != "u8" {
        t.Fatalf("body identity: user = %q", rec.got.UserID)
    }
    send(`{"message":"book me in"}`, "")
    if rec.got.UserID != "" {
        t.Fatalf("anonymous: user = %q", rec.got.UserID)
    }
}

func TestUnknownRouteUsesErrorShape(t *testing.T) {
    s := newTestServer(t, nil)
    expectError(t, s.do(t, http.MethodGet, "/api/v1/nowhere", ""), http.StatusNotFound, "NotFound")
}
