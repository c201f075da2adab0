package service

import (
    "context"
    "fmt"
    "strings"
    "time"

    "github.com/google/uuid"
    "go.uber.org/zap"

    "github.com/iliyamo/yoga-studio-booking/internal/clock"
    "github.com/iliyamo/yoga-studio-booking/internal/model"
    "github.com/iliyamo/yoga-studio-booking/internal/observability"
    "github.com/iliyamo/yoga-studio-booking/internal/queue"
    "github.com/iliyamo/yoga-studio-booking/internal/repository"
)

// ReviewPolicy decides who may review a class.
type ReviewPolicy string

const (
    // PolicyAttended requires a confirmed booking for a class that has
    // already started.
    PolicyAttended ReviewPolicy = "attended"
    // PolicyAnyBooking accepts any booking row, cancelled ones included.
    PolicyAnyBooking ReviewPolicy = "any_booking"
)

// BookingStateReader is the read-only slice of the ledger reviews need.
type BookingStateReader interface {
    BookingState(ctx context.Context, classID uuid.UUID, userID string) (model.BookingState, error)
}

// ReviewInput is what a client submits.
type ReviewInput struct {
    ClassID  uuid.UUID
    UserID   string
    UserName string
    Rating   int
    Content  string
    Images   []string
}

// Reviews writes and lists reviews.  Eligibility is read from the ledger;
// reviews never touch booking rows.
type Reviews struct {
    store    ReviewStore
    sessions SessionStore
    bookings BookingStateReader
    policy   ReviewPolicy
    clock    clock.Clock
    logger   *zap.Logger
    events   notifier
}

// NewReviews returns a Reviews service.  pub may be nil.
func NewReviews(store ReviewStore, sessions SessionStore, bookings BookingStateReader, policy ReviewPolicy,
    clk clock.Clock, pub EventPublisher, logger *zap.Logger) *Reviews {
    logger = logger.Named("reviews")
    return &Reviews{
        store:    store,
        sessions: sessions,
        bookings: bookings,
        policy:   policy,
        clock:    clk,
        logger:   logger,
        events:   notifier{pub: pub, logger: logger},
    }
}

// Create validates in and stores it as a new review.  Checks run in this
// order: rating, content, class exists, eligibility, uniqueness.
func (r *Reviews) Create(ctx context.Context, in ReviewInput) (*model.Review, error) {
    ctx, span := observability.StartSpan(ctx, "Reviews.Create")
    rv, err := r.create(ctx, in)
    observability.EndSpan(span, err)
    if err != nil {
        if repository.KindOf(err) == repository.KindInternal {
            r.logger.Error("create review failed", zap.Stringer("class_id", in.ClassID), zap.Error(err))
        }
        return nil, err
    }
    r.logger.Info("review created", zap.Stringer("review_id", rv.ID), zap.Stringer("class_id", rv.ClassID))
    r.events.emit(ctx, queue.Event{
        Type:       queue.TypeReviewCreated,
        ReviewID:   rv.ID.String(),
        ClassID:    rv.ClassID.String(),
        UserID:     rv.UserID,
        UserName:   rv.UserName,
        Rating:     rv.Rating,
        OccurredAt: rv.CreatedAt,
    })
    return rv, nil
}

func (r *Reviews) create(ctx context.Context, in ReviewInput) (*model.Review, error) {
    now := r.clock.Now()
    rv := &model.Review{
        ID:        uuid.New(),
        ClassID:   in.ClassID,
        UserID:    strings.TrimSpace(in.UserID),
        UserName:  strings.TrimSpace(in.UserName),
        Rating:    in.Rating,
        Content:   strings.TrimSpace(in.Content),
        Images:    cleanImages(in.Images),
        CreatedAt: now,
        UpdatedAt: now,
    }
    if rv.UserID == "" {
        return nil, fmt.Errorf("user_id required: %w", repository.ErrInvalidInput)
    }
    if !rv.ValidRating() {
        return nil, fmt.Errorf("rating %d not in 1..5: %w", in.Rating, repository.ErrInvalidInput)
    }
    if rv.Content == "" {
        return nil, fmt.Errorf("content required: %w", repository.ErrInvalidInput)
    }
    session, err := r.sessions.GetSession(ctx, in.ClassID)
    if err != nil {
        return nil, err
    }
    ok, err := r.eligible(ctx, session, rv.UserID, now)
    if err != nil {
        return nil, err
    }
    if !ok {
        return nil, fmt.Errorf("class %s user %s: %w", in.ClassID, rv.UserID, repository.ErrNotEligible)
    }
    if err := r.store.CreateReview(ctx, rv); err != nil {
        return nil, err
    }
    return rv, nil
}

func (r *Reviews) eligible(ctx context.Context, s *model.ClassSession, userID string, now time.Time) (bool, error) {
    state, err := r.bookings.BookingState(ctx, s.ID, userID)
    if err != nil {
        return false, err
    }
    switch r.policy {
    case PolicyAnyBooking:
        return state.Any, nil
    default:
        return state.Confirmed && !s.StartTime.After(now), nil
    }
}

// ListForClass returns a page of a class's reviews, newest first.
func (r *Reviews) ListForClass(ctx context.Context, classID uuid.UUID, limit, offset int) ([]model.Review, error) {
    ctx, span := observability.StartSpan(ctx, "Reviews.ListForClass")
    defer span.End()
    limit, offset, err := Page(limit, offset)
    if err != nil {
        return nil, err
    }
    return r.store.ListReviewsForClass(ctx, classID, limit, offset)
}

// GetForUser returns the user's review of the class, or nil.
func (r *Reviews) GetForUser(ctx context.Context, classID uuid.UUID, userID string) (*model.Review, error) {
    ctx, span := observability.StartSpan(ctx, "Reviews.GetForUser")
    defer span.End()
    if strings.TrimSpace(userID) == "" {
        return nil, fmt.Errorf("user_id required: %w", repository.ErrInvalidInput)
    }
    return r.store.GetReviewForUser(ctx, classID, userID)
}

// Wait blocks until pending events have been handed to the publisher.
func (r *Reviews) Wait() { r.events.wait() }

func cleanImages(in []string) []string {
    out := make([]string, 0, len(in))
    for _, u := range in {
        if u = strings.TrimSpace(u); u != "" {
            out = append(out, u)
        }
    }
    return out
}
