package service

import (
    "context"
    "fmt"
    "strings"

    "github.com/google/uuid"
    "go.opentelemetry.io/otel/attribute"
    "go.uber.org/zap"

    "github.com/iliyamo/yoga-studio-booking/internal/clock"
    "github.com/iliyamo/yoga-studio-booking/internal/model"
    "github.com/iliyamo/yoga-studio-booking/internal/observability"
    "github.com/iliyamo/yoga-studio-booking/internal/queue"
    "github.com/iliyamo/yoga-studio-booking/internal/repository"
)

// Ledger books and cancels places.  The store makes each operation atomic
// per class; the ledger adds ids, the server clock, retries of transient
// failures and post-commit events.
type Ledger struct {
    store  LedgerStore
    clock  clock.Clock
    logger *zap.Logger
    events notifier
}

// NewLedger returns a Ledger.  pub may be nil.
func NewLedger(store LedgerStore, clk clock.Clock, pub EventPublisher, logger *zap.Logger) *Ledger {
    logger = logger.Named("ledger")
    return &Ledger{
        store:  store,
        clock:  clk,
        logger: logger,
        events: notifier{pub: pub, logger: logger},
    }
}

// Book reserves a place in classID for userID.
func (l *Ledger) Book(ctx context.Context, classID uuid.UUID, userID, userName string) (*model.Booking, error) {
    ctx, span := observability.StartSpan(ctx, "Ledger.Book")
    span.SetAttributes(attribute.String("class.id", classID.String()), attribute.String("user.id", userID))

    userID, userName = strings.TrimSpace(userID), strings.TrimSpace(userName)
    if userID == "" {
        err := fmt.Errorf("user_id required: %w", repository.ErrInvalidInput)
        observability.EndSpan(span, err)
        return nil, err
    }
    b := &model.Booking{ID: uuid.New(), ClassID: classID, UserID: userID, UserName: userName}
    err := withRetry(ctx, func() error {
        return l.store.Book(ctx, b, l.clock.Now())
    })
    observability.EndSpan(span, err)
    if err != nil {
        l.logFailure("book", err, zap.Stringer("class_id", classID), zap.String("user_id", userID))
        return nil, err
    }
    l.logger.Info("booking confirmed",
        zap.Stringer("booking_id", b.ID), zap.Stringer("class_id", classID), zap.String("user_id", userID))
    l.events.emit(ctx, queue.Event{
        Type:       queue.TypeBookingConfirmed,
        BookingID:  b.ID.String(),
        ClassID:    classID.String(),
        UserID:     userID,
        UserName:   userName,
        OccurredAt: b.CreatedAt,
    })
    return b, nil
}

// Cancel moves a confirmed booking to cancelled.
func (l *Ledger) Cancel(ctx context.Context, bookingID uuid.UUID) (*model.Booking, error) {
    ctx, span := observability.StartSpan(ctx, "Ledger.Cancel")
    span.SetAttributes(attribute.String("booking.id", bookingID.String()))

    var b *model.Booking
    err := withRetry(ctx, func() error {
        var err error
        b, err = l.store.CancelBooking(ctx, bookingID, l.clock.Now())
        return err
    })
    observability.EndSpan(span, err)
    if err != nil {
        l.logFailure("cancel", err, zap.Stringer("booking_id", bookingID))
        return nil, err
    }
    l.logger.Info("booking cancelled",
        zap.Stringer("booking_id", b.ID), zap.Stringer("class_id", b.ClassID), zap.String("user_id", b.UserID))
    l.events.emit(ctx, queue.Event{
        Type:       queue.TypeBookingCancelled,
        BookingID:  b.ID.String(),
        ClassID:    b.ClassID.String(),
        UserID:     b.UserID,
        UserName:   b.UserName,
        OccurredAt: b.UpdatedAt,
    })
    return b, nil
}

// ListForUser returns a page of the user's bookings, newest first.
func (l *Ledger) ListForUser(ctx context.Context, userID string, limit, offset int) ([]model.Booking, error) {
    ctx, span := observability.StartSpan(ctx, "Ledger.ListForUser")
    defer span.End()
    if strings.TrimSpace(userID) == "" {
        return nil, fmt.Errorf("user_id required: %w", repository.ErrInvalidInput)
    }
    limit, offset, err := Page(limit, offset)
    if err != nil {
        return nil, err
    }
    return l.store.ListBookingsForUser(ctx, userID, limit, offset)
}

// Wait blocks until pending events have been handed to the publisher.
func (l *Ledger) Wait() { l.events.wait() }

// domain outcomes are Info, storage trouble is Error
func (l *Ledger) logFailure(op string, err error, fields ...zap.Field) {
    fields = append(fields, zap.Error(err))
    if repository.KindOf(err) == repository.KindInternal {
        l.logger.Error(op+" failed", fields...)
        return
    }
    l.logger.Info(op+" rejected", fields...)
}
