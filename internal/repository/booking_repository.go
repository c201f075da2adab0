package repository

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/yoga-studio-booking/internal/model"
)

// BookingRepo is the ledger: the only writer of booking rows.  Book and
// CancelBooking lock the class_sessions row with SELECT ... FOR UPDATE
// before touching bookings, which makes every class an independent
// serialization domain.  The unique index over (class_id, active_user_id)
// is a second guard on one confirmed booking per user.
type BookingRepo struct {
    db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, class_id, user_id, user_name, status, created_at, updated_at`

func scanBooking(row rowScanner) (model.Booking, error) {
    var b model.Booking
    err := row.Scan(&b.ID, &b.ClassID, &b.UserID, &b.UserName, &b.Status, &b.CreatedAt, &b.UpdatedAt)
    return b, err
}

// Book inserts a confirmed booking for b.ClassID.  The caller assigns
// b.ID; Status and timestamps are filled in from now.  The checks run in
// this order: session exists, session open at now, capacity 0, duplicate
// confirmed booking, occupancy below capacity.
func (r *BookingRepo) Book(ctx context.Context, b *model.Booking, now time.Time) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return fmt.Errorf("begin: %w", classify(err))
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    var session model.ClassSession
    err = tx.QueryRowContext(ctx,
        `SELECT capacity, status, start_time FROM class_sessions WHERE id = ? FOR UPDATE`, b.ClassID,
    ).Scan(&session.Capacity, &session.Status, &session.StartTime)
    if errors.Is(err, sql.ErrNoRows) {
        return fmt.Errorf("class %s: %w", b.ClassID, ErrNotFound)
    }
    if err != nil {
        return fmt.Errorf("lock class %s: %w", b.ClassID, classify(err))
    }
    if !session.Bookable(now) {
        return fmt.Errorf("class %s: %w", b.ClassID, ErrSessionClosed)
    }
    if session.Capacity == 0 {
        return fmt.Errorf("class %s: %w", b.ClassID, ErrFull)
    }

    // locking reads: a plain read would count from the snapshot taken before
    // the class lock was granted
    var mine int
    err = tx.QueryRowContext(ctx,
        `SELECT COUNT(*) FROM bookings WHERE class_id = ? AND user_id = ? AND status = 'confirmed' FOR SHARE`,
        b.ClassID, b.UserID,
    ).Scan(&mine)
    if err != nil {
        return fmt.Errorf("check duplicate: %w", classify(err))
    }
    if mine > 0 {
        return fmt.Errorf("class %s user %s: %w", b.ClassID, b.UserID, ErrDuplicateBooking)
    }

    var booked int
    err = tx.QueryRowContext(ctx,
        `SELECT COUNT(*) FROM bookings WHERE class_id = ? AND status = 'confirmed' FOR SHARE`, b.ClassID,
    ).Scan(&booked)
    if err != nil {
        return fmt.Errorf("count bookings: %w", classify(err))
    }
    if booked >= session.Capacity {
        return fmt.Errorf("class %s: %w", b.ClassID, ErrFull)
    }

    b.Status = model.BookingConfirmed
    b.CreatedAt = now.UTC()
    b.UpdatedAt = b.CreatedAt
    _, err = tx.ExecContext(ctx,
        `INSERT INTO bookings (`+bookingColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
        b.ID, b.ClassID, b.UserID, b.UserName, b.Status, b.CreatedAt, b.UpdatedAt,
    )
    if err != nil {
        if IsDuplicateEntry(err) {
            return fmt.Errorf("class %s user %s: %w", b.ClassID, b.UserID, ErrDuplicateBooking)
        }
        return fmt.Errorf("insert booking: %w", classify(err))
    }
    if err := tx.Commit(); err != nil {
        return fmt.Errorf("commit: %w", classify(err))
    }
    committed = true
    return nil
}

// CancelBooking moves a confirmed booking to cancelled and returns the
// updated row.  Locks are taken class first, booking second, matching Book.
func (r *BookingRepo) CancelBooking(ctx context.Context, id uuid.UUID, now time.Time) (*model.Booking, error) {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, fmt.Errorf("begin: %w", classify(err))
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    var classID uuid.UUID
    err = tx.QueryRowContext(ctx, `SELECT class_id FROM bookings WHERE id = ?`, id).Scan(&classID)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, fmt.Errorf("booking %s: %w", id, ErrNotFound)
    }
    if err != nil {
        return nil, fmt.Errorf("find booking %s: %w", id, classify(err))
    }
    var locked uuid.UUID
    if err := tx.QueryRowContext(ctx, `SELECT id FROM class_sessions WHERE id = ? FOR UPDATE`, classID).Scan(&locked); err != nil {
        return nil, fmt.Errorf("lock class %s: %w", classID, classify(err))
    }
    b, err := scanBooking(tx.QueryRowContext(ctx,
        `SELECT `+bookingColumns+` FROM bookings WHERE id = ? FOR UPDATE`, id))
    if err != nil {
        return nil, fmt.Errorf("lock booking %s: %w", id, classify(err))
    }
    if b.Status != model.BookingConfirmed {
        return nil, fmt.Errorf("booking %s: %w", id, ErrAlreadyCancelled)
    }
    res, err := tx.ExecContext(ctx,
        `UPDATE bookings SET status = 'cancelled', updated_at = ? WHERE id = ? AND status = 'confirmed'`,
        now.UTC(), id)
    if err != nil {
        return nil, fmt.Errorf("cancel booking %s: %w", id, classify(err))
    }
    if n, err := res.RowsAffected(); err != nil {
        return nil, fmt.Errorf("cancel booking %s: %w", id, err)
    } else if n == 0 {
        return nil, fmt.Errorf("booking %s: %w", id, ErrAlreadyCancelled)
    }
    if err := tx.Commit(); err != nil {
        return nil, fmt.Errorf("commit: %w", classify(err))
    }
    committed = true
    b.Status = model.BookingCancelled
    b.UpdatedAt = now.UTC()
    return &b, nil
}

// ListBookingsForUser returns a page of the user's bookings, newest first.
func (r *BookingRepo) ListBookingsForUser(ctx context.Context, userID string, limit, offset int) ([]model.Booking, error) {
    q := `SELECT ` + bookingColumns + ` FROM bookings
          WHERE user_id = ?
          ORDER BY created_at DESC, id DESC
          LIMIT ? OFFSET ?`
    rows, err := r.db.QueryContext(ctx, q, userID, limit, offset)
    if err != nil {
        return nil, fmt.Errorf("list bookings: %w", err)
    }
    defer rows.Close()
    out := make([]model.Booking, 0)
    for rows.Next() {
        b, err := scanBooking(rows)
        if err != nil {
            return nil, fmt.Errorf("scan booking: %w", err)
        }
        out = append(out, b)
    }
    return out, rows.Err()
}

// BookingState reports what the ledger holds for (classID, userID).  It is
// read-only and used by the review store for eligibility.
func (r *BookingRepo) BookingState(ctx context.Context, classID uuid.UUID, userID string) (model.BookingState, error) {
    var st model.BookingState
    var total, confirmed int
    err := r.db.QueryRowContext(ctx,
        `SELECT COUNT(*), COALESCE(SUM(status = 'confirmed'), 0) FROM bookings WHERE class_id = ? AND user_id = ?`,
        classID, userID,
    ).Scan(&total, &confirmed)
    if err != nil {
        return st, fmt.Errorf("booking state: %w", err)
    }
    st.Any = total > 0
    st.Confirmed = confirmed > 0
    return st, nil
}
