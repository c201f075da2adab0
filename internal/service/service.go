// Package service holds the booking domain: the catalog and schedule
// projections, the ledger, reviews and knowledge listing.  Services own
// "now", ids, retries and event publishing; stores own atomicity.
package service

import (
    "context"
    "errors"
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/yoga-studio-booking/internal/model"
    "github.com/iliyamo/yoga-studio-booking/internal/queue"
    "github.com/iliyamo/yoga-studio-booking/internal/repository"
)

// SessionStore answers catalog reads.
type SessionStore interface {
    ListSessions(ctx context.Context, start, end time.Time) ([]model.ClassSession, error)
    GetSession(ctx context.Context, id uuid.UUID) (*model.ClassSession, error)
}

// SessionAdmin holds the administrative catalog writes.
type SessionAdmin interface {
    CreateSession(ctx context.Context, s *model.ClassSession) error
    UpdateCapacity(ctx context.Context, id uuid.UUID, capacity int, now time.Time) error
    MarkFinished(ctx context.Context, now time.Time) (int64, error)
}

// LedgerStore is the only writer of bookings.
type LedgerStore interface {
    Book(ctx context.Context, b *model.Booking, now time.Time) error
    CancelBooking(ctx context.Context, id uuid.UUID, now time.Time) (*model.Booking, error)
    ListBookingsForUser(ctx context.Context, userID string, limit, offset int) ([]model.Booking, error)
    BookingState(ctx context.Context, classID uuid.UUID, userID string) (model.BookingState, error)
}

// ReviewStore is the only writer of reviews.
type ReviewStore interface {
    CreateReview(ctx context.Context, rv *model.Review) error
    ListReviewsForClass(ctx context.Context, classID uuid.UUID, limit, offset int) ([]model.Review, error)
    GetReviewForUser(ctx context.Context, classID uuid.UUID, userID string) (*model.Review, error)
}

// KnowledgeStore serves the read-only knowledge listing.
type KnowledgeStore interface {
    ListBases(ctx context.Context, limit, offset int) ([]model.KnowledgeBase, error)
    GetBase(ctx context.Context, id uuid.UUID) (*model.KnowledgeBase, error)
    ListItems(ctx context.Context, baseID uuid.UUID, limit, offset int) ([]model.KnowledgeItem, error)
    SearchItems(ctx context.Context, baseID uuid.UUID, keywords []string, limit int) ([]model.KnowledgeItem, error)
}

// EventPublisher delivers domain events.  Implementations may fail; the
// services only log it.
type EventPublisher interface {
    Publish(ctx context.Context, ev queue.Event) error
}

// Pagination bounds shared by every listing.
const (
    DefaultLimit = 20
    MaxLimit     = 100
)

// Page normalises limit and offset: limit 0 means DefaultLimit, anything
// above MaxLimit is clamped, negative values are rejected.
func Page(limit, offset int) (int, int, error) {
    if limit < 0 || offset < 0 {
        return 0, 0, repository.ErrInvalidInput
    }
    if limit == 0 {
        limit = DefaultLimit
    }
    if limit > MaxLimit {
        limit = MaxLimit
    }
    return limit, offset, nil
}

// retry policy for transient storage failures
const (
    maxAttempts  = 3
    retryBackoff = 20 * time.Millisecond
)

// withRetry runs fn until it succeeds, fails with a non-transient error or
// has been tried maxAttempts times.  Domain errors are returned at once.
func withRetry(ctx context.Context, fn func() error) error {
    var err error
    for attempt := 1; attempt <= maxAttempts; attempt++ {
        err = fn()
        if err == nil || !errors.Is(err, repository.ErrTransient) || attempt == maxAttempts {
            return err
        }
        t := time.NewTimer(retryBackoff * time.Duration(attempt))
        select {
        case <-ctx.Done():
            t.Stop()
            return ctx.Err()
        case <-t.C:
        }
    }
    return err
}
