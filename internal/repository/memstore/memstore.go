// Package memstore is an in-process implementation of the catalog, ledger,
// review and knowledge stores.  It backs STORE_DRIVER=memory and the
// property tests.
//
// Every class session lives in its own shard guarded by its own mutex; the
// shard mutex is the serialization point for Book, CancelBooking and
// UpdateCapacity on that class.  The store-wide RWMutex only protects the
// shard map and the secondary indexes and is never held across a
// check-and-insert.  When both are needed the shard lock is taken first.
package memstore

import (
    "context"
    "fmt"
    "sort"
    "strings"
    "sync"
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/yoga-studio-booking/internal/model"
    "github.com/iliyamo/yoga-studio-booking/internal/repository"
)

type shard struct {
    mu       sync.Mutex
    session  model.ClassSession
    bookings map[uuid.UUID]model.Booking
    active   map[string]uuid.UUID // user id -> confirmed booking
    touched  map[string]bool      // users with any booking row
}

func (s *shard) snapshot() model.ClassSession {
    out := s.session
    out.BookedCount = len(s.active)
    return out
}

type reviewKey struct {
    classID uuid.UUID
    userID  string
}

// Store is safe for concurrent use.
type Store struct {
    mu           sync.RWMutex
    shards       map[uuid.UUID]*shard
    bookingClass map[uuid.UUID]uuid.UUID
    userBookings map[string][]uuid.UUID

    reviewMu     sync.Mutex
    reviews      map[uuid.UUID][]model.Review
    reviewByUser map[reviewKey]uuid.UUID

    kbMu  sync.RWMutex
    bases map[uuid.UUID]model.KnowledgeBase
    items map[uuid.UUID][]model.KnowledgeItem
}

// New returns an empty Store.
func New() *Store {
    return &Store{
        shards:       make(map[uuid.UUID]*shard),
        bookingClass: make(map[uuid.UUID]uuid.UUID),
        userBookings: make(map[string][]uuid.UUID),
        reviews:      make(map[uuid.UUID][]model.Review),
        reviewByUser: make(map[reviewKey]uuid.UUID),
        bases:        make(map[uuid.UUID]model.KnowledgeBase),
        items:        make(map[uuid.UUID][]model.KnowledgeItem),
    }
}

func (st *Store) shard(id uuid.UUID) (*shard, bool) {
    st.mu.RLock()
    defer st.mu.RUnlock()
    sh, ok := st.shards[id]
    return sh, ok
}

// CreateSession adds a session.
func (st *Store) CreateSession(_ context.Context, s *model.ClassSession) error {
    if s.Status == "" {
        s.Status = model.SessionScheduled
    }
    if !s.EndTime.After(s.StartTime) || s.Capacity < 0 {
        return fmt.Errorf("create class %q: %w", s.Name, repository.ErrInvalidInput)
    }
    st.mu.Lock()
    defer st.mu.Unlock()
    if _, exists := st.shards[s.ID]; exists {
        return fmt.Errorf("create class %s: %w", s.ID, repository.ErrConflict)
    }
    sess := *s
    sess.BookedCount = 0
    st.shards[s.ID] = &shard{
        session:  sess,
        bookings: make(map[uuid.UUID]model.Booking),
        active:   make(map[string]uuid.UUID),
        touched:  make(map[string]bool),
    }
    return nil
}

// ListSessions returns sessions starting within [start, end] ordered by
// start_time then id.
func (st *Store) ListSessions(_ context.Context, start, end time.Time) ([]model.ClassSession, error) {
    st.mu.RLock()
    shards := make([]*shard, 0, len(st.shards))
    for _, sh := range st.shards {
        shards = append(shards, sh)
    }
    st.mu.RUnlock()

    out := make([]model.ClassSession, 0)
    for _, sh := range shards {
        sh.mu.Lock()
        s := sh.snapshot()
        sh.mu.Unlock()
        if s.StartTime.Before(start) || s.StartTime.After(end) {
            continue
        }
        out = append(out, s)
    }
    sort.Slice(out, func(i, j int) bool {
        if !out[i].StartTime.Equal(out[j].StartTime) {
            return out[i].StartTime.Before(out[j].StartTime)
        }
        return out[i].ID.String() < out[j].ID.String()
    })
    return out, nil
}

// GetSession returns one session with its current booked count.
func (st *Store) GetSession(_ context.Context, id uuid.UUID) (*model.ClassSession, error) {
    sh, ok := st.shard(id)
    if !ok {
        return nil, fmt.Errorf("class %s: %w", id, repository.ErrNotFound)
    }
    sh.mu.Lock()
    s := sh.snapshot()
    sh.mu.Unlock()
    return &s, nil
}

// UpdateCapacity changes capacity unless it would drop below occupancy.
func (st *Store) UpdateCapacity(_ context.Context, id uuid.UUID, capacity int, now time.Time) error {
    if capacity < 0 {
        return fmt.Errorf("capacity %d: %w", capacity, repository.ErrInvalidInput)
    }
    sh, ok := st.shard(id)
    if !ok {
        return fmt.Errorf("class %s: %w", id, repository.ErrNotFound)
    }
    sh.mu.Lock()
    defer sh.mu.Unlock()
    if booked := len(sh.active); capacity < booked {
        return fmt.Errorf("capacity %d below %d confirmed bookings: %w", capacity, booked, repository.ErrConflict)
    }
    sh.session.Capacity = capacity
    sh.session.UpdatedAt = now
    return nil
}

// MarkFinished completes scheduled sessions that have ended by now.
func (st *Store) MarkFinished(_ context.Context, now time.Time) (int64, error) {
    st.mu.RLock()
    shards := make([]*shard, 0, len(st.shards))
    for _, sh := range st.shards {
        shards = append(shards, sh)
    }
    st.mu.RUnlock()

    var n int64
    for _, sh := range shards {
        sh.mu.Lock()
        if sh.session.Status == model.SessionScheduled && !sh.session.EndTime.After(now) {
            sh.session.Status = model.SessionCompleted
            sh.session.UpdatedAt = now
            n++
        }
        sh.mu.Unlock()
    }
    return n, nil
}

// Book records a confirmed booking.  The whole check-and-insert runs
// under the class shard lock.
func (st *Store) Book(_ context.Context, b *model.Booking, now time.Time) error {
    sh, ok := st.shard(b.ClassID)
    if !ok {
        return fmt.Errorf("class %s: %w", b.ClassID, repository.ErrNotFound)
    }
    sh.mu.Lock()
    defer sh.mu.Unlock()

    if !sh.session.Bookable(now) {
        return fmt.Errorf("class %s: %w", b.ClassID, repository.ErrSessionClosed)
    }
    if sh.session.Capacity == 0 {
        return fmt.Errorf("class %s: %w", b.ClassID, repository.ErrFull)
    }
    if _, dup := sh.active[b.UserID]; dup {
        return fmt.Errorf("class %s user %s: %w", b.ClassID, b.UserID, repository.ErrDuplicateBooking)
    }
    if len(sh.active) >= sh.session.Capacity {
        return fmt.Errorf("class %s: %w", b.ClassID, repository.ErrFull)
    }

    b.Status = model.BookingConfirmed
    b.CreatedAt = now
    b.UpdatedAt = now
    sh.bookings[b.ID] = *b
    sh.active[b.UserID] = b.ID
    sh.touched[b.UserID] = true

    st.mu.Lock()
    st.bookingClass[b.ID] = b.ClassID
    st.userBookings[b.UserID] = append(st.userBookings[b.UserID], b.ID)
    st.mu.Unlock()
    return nil
}

// CancelBooking moves a confirmed booking to cancelled exactly once.
func (st *Store) CancelBooking(_ context.Context, id uuid.UUID, now time.Time) (*model.Booking, error) {
    st.mu.RLock()
    classID, ok := st.bookingClass[id]
    var sh *shard
    if ok {
        sh = st.shards[classID]
    }
    st.mu.RUnlock()
    if sh == nil {
        return nil, fmt.Errorf("booking %s: %w", id, repository.ErrNotFound)
    }

    sh.mu.Lock()
    defer sh.mu.Unlock()
    b, ok := sh.bookings[id]
    if !ok {
        return nil, fmt.Errorf("booking %s: %w", id, repository.ErrNotFound)
    }
    if b.Status != model.BookingConfirmed {
        return nil, fmt.Errorf("booking %s: %w", id, repository.ErrAlreadyCancelled)
    }
    b.Status = model.BookingCancelled
    b.UpdatedAt = now
    sh.bookings[id] = b
    delete(sh.active, b.UserID)
    return &b, nil
}

// ListBookingsForUser returns the user's bookings newest first.
func (st *Store) ListBookingsForUser(_ context.Context, userID string, limit, offset int) ([]model.Booking, error) {
    st.mu.RLock()
    ids := append([]uuid.UUID(nil), st.userBookings[userID]...)
    owners := make([]*shard, len(ids))
    for i, id := range ids {
        owners[i] = st.shards[st.bookingClass[id]]
    }
    st.mu.RUnlock()

    all := make([]model.Booking, 0, len(ids))
    for i, id := range ids {
        sh := owners[i]
        sh.mu.Lock()
        all = append(all, sh.bookings[id])
        sh.mu.Unlock()
    }
    sort.SliceStable(all, func(i, j int) bool {
        if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
            return all[i].CreatedAt.After(all[j].CreatedAt)
        }
        return all[i].ID.String() > all[j].ID.String()
    })
    return page(all, limit, offset), nil
}

// BookingState reports the user's ledger history for one class.
func (st *Store) BookingState(_ context.Context, classID uuid.UUID, userID string) (model.BookingState, error) {
    sh, ok := st.shard(classID)
    if !ok {
        return model.BookingState{}, nil
    }
    sh.mu.Lock()
    defer sh.mu.Unlock()
    _, confirmed := sh.active[userID]
    return model.BookingState{Any: sh.touched[userID], Confirmed: confirmed}, nil
}

// CreateReview stores rv unless the user already reviewed the class.
func (st *Store) CreateReview(_ context.Context, rv *model.Review) error {
    st.reviewMu.Lock()
    defer st.reviewMu.Unlock()
    key := reviewKey{classID: rv.ClassID, userID: rv.UserID}
    if _, dup := st.reviewByUser[key]; dup {
        return fmt.Errorf("class %s user %s: %w", rv.ClassID, rv.UserID, repository.ErrDuplicateReview)
    }
    st.reviews[rv.ClassID] = append(st.reviews[rv.ClassID], cloneReview(*rv))
    st.reviewByUser[key] = rv.ID
    return nil
}

// ListReviewsForClass returns a class's reviews newest first.
func (st *Store) ListReviewsForClass(_ context.Context, classID uuid.UUID, limit, offset int) ([]model.Review, error) {
    st.reviewMu.Lock()
    all := make([]model.Review, 0, len(st.reviews[classID]))
    for _, rv := range st.reviews[classID] {
        all = append(all, cloneReview(rv))
    }
    st.reviewMu.Unlock()
    sort.SliceStable(all, func(i, j int) bool {
        if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
            return all[i].CreatedAt.After(all[j].CreatedAt)
        }
        return all[i].ID.String() > all[j].ID.String()
    })
    return page(all, limit, offset), nil
}

// GetReviewForUser returns the user's review or nil.
func (st *Store) GetReviewForUser(_ context.Context, classID uuid.UUID, userID string) (*model.Review, error) {
    st.reviewMu.Lock()
    defer st.reviewMu.Unlock()
    id, ok := st.reviewByUser[reviewKey{classID: classID, userID: userID}]
    if !ok {
        return nil, nil
    }
    for _, rv := range st.reviews[classID] {
        if rv.ID == id {
            out := cloneReview(rv)
            return &out, nil
        }
    }
    return nil, nil
}

// reviews leave and enter the store with their own Images backing array
func cloneReview(rv model.Review) model.Review {
    rv.Images = append([]string{}, rv.Images...)
    return rv
}

// AddKnowledgeBase seeds a knowledge base.
func (st *Store) AddKnowledgeBase(base model.KnowledgeBase, items ...model.KnowledgeItem) {
    st.kbMu.Lock()
    defer st.kbMu.Unlock()
    st.bases[base.ID] = base
    for _, it := range items {
        it.KnowledgeBaseID = base.ID
        st.items[base.ID] = append(st.items[base.ID], it)
    }
}

// ListBases returns knowledge bases ordered by name.
func (st *Store) ListBases(_ context.Context, limit, offset int) ([]model.KnowledgeBase, error) {
    st.kbMu.RLock()
    all := make([]model.KnowledgeBase, 0, len(st.bases))
    for _, b := range st.bases {
        all = append(all, b)
    }
    st.kbMu.RUnlock()
    sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
    return page(all, limit, offset), nil
}

// GetBase returns one knowledge base.
func (st *Store) GetBase(_ context.Context, id uuid.UUID) (*model.KnowledgeBase, error) {
    st.kbMu.RLock()
    defer st.kbMu.RUnlock()
    b, ok := st.bases[id]
    if !ok {
        return nil, fmt.Errorf("knowledge base %s: %w", id, repository.ErrNotFound)
    }
    return &b, nil
}

// ListItems returns a base's items ordered by title.
func (st *Store) ListItems(_ context.Context, baseID uuid.UUID, limit, offset int) ([]model.KnowledgeItem, error) {
    st.kbMu.RLock()
    all := append([]model.KnowledgeItem(nil), st.items[baseID]...)
    st.kbMu.RUnlock()
    sort.Slice(all, func(i, j int) bool { return all[i].Title < all[j].Title })
    return page(all, limit, offset), nil
}

// SearchItems matches keywords against text items, case-insensitively.
func (st *Store) SearchItems(_ context.Context, baseID uuid.UUID, keywords []string, limit int) ([]model.KnowledgeItem, error) {
    st.kbMu.RLock()
    defer st.kbMu.RUnlock()
    out := make([]model.KnowledgeItem, 0)
    for bid, items := range st.items {
        if baseID != uuid.Nil && bid != baseID {
            continue
        }
        for _, it := range items {
            if it.ContentType != "text" || !containsAny(it.Title+" "+it.Content, keywords) {
                continue
            }
            out = append(out, it)
            if len(out) == limit {
                return out, nil
            }
        }
    }
    return out, nil
}

func containsAny(text string, keywords []string) bool {
    text = strings.ToLower(text)
    for _, kw := range keywords {
        if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
            return true
        }
    }
    return false
}

func page[T any](all []T, limit, offset int) []T {
    if offset >= len(all) {
        return []T{}
    }
    end := len(all)
    if limit > 0 && offset+limit < end {
        end = offset + limit
    }
    return all[offset:end]
}
