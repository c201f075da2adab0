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

// ClassRepo manages persistence for class sessions.  booked_count is never
// stored; every read derives it from the confirmed rows in bookings.  All
// timestamps are stored in UTC.
type ClassRepo struct {
    db *sql.DB
}

// NewClassRepo returns a new ClassRepo bound to the given database.
func NewClassRepo(db *sql.DB) *ClassRepo { return &ClassRepo{db: db} }

// DB exposes the underlying sql.DB so callers can share the pool.
func (r *ClassRepo) DB() *sql.DB { return r.db }

const sessionColumns = `s.id, s.name, s.description, s.instructor, s.start_time, s.end_time,
       s.capacity, s.status, s.created_at, s.updated_at,
       (SELECT COUNT(*) FROM bookings b WHERE b.class_id = s.id AND b.status = 'confirmed') AS booked_count`

type rowScanner interface {
    Scan(dest ...any) error
}

func scanSession(row rowScanner) (model.ClassSession, error) {
    var s model.ClassSession
    err := row.Scan(&s.ID, &s.Name, &s.Description, &s.Instructor, &s.StartTime, &s.EndTime,
        &s.Capacity, &s.Status, &s.CreatedAt, &s.UpdatedAt, &s.BookedCount)
    return s, err
}

// ListSessions returns the sessions whose start_time falls within
// [start, end], both inclusive, ordered by start_time and then id.
func (r *ClassRepo) ListSessions(ctx context.Context, start, end time.Time) ([]model.ClassSession, error) {
    q := `SELECT ` + sessionColumns + `
          FROM class_sessions s
          WHERE s.start_time >= ? AND s.start_time <= ?
          ORDER BY s.start_time ASC, s.id ASC`
    rows, err := r.db.QueryContext(ctx, q, start.UTC(), end.UTC())
    if err != nil {
        return nil, fmt.Errorf("list sessions: %w", err)
    }
    defer rows.Close()
    var out []model.ClassSession
    for rows.Next() {
        s, err := scanSession(rows)
        if err != nil {
            return nil, fmt.Errorf("scan session: %w", err)
        }
        out = append(out, s)
    }
    return out, rows.Err()
}

// GetSession fetches a single session with its current booked_count.
func (r *ClassRepo) GetSession(ctx context.Context, id uuid.UUID) (*model.ClassSession, error) {
    q := `SELECT ` + sessionColumns + ` FROM class_sessions s WHERE s.id = ?`
    s, err := scanSession(r.db.QueryRowContext(ctx, q, id))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, fmt.Errorf("class %s: %w", id, ErrNotFound)
    }
    if err != nil {
        return nil, fmt.Errorf("get class %s: %w", id, err)
    }
    return &s, nil
}

// CreateSession inserts a new session.  The caller assigns ID and
// timestamps; Status defaults to scheduled when empty.
func (r *ClassRepo) CreateSession(ctx context.Context, s *model.ClassSession) error {
    if s.Status == "" {
        s.Status = model.SessionScheduled
    }
    if !s.EndTime.After(s.StartTime) || s.Capacity < 0 {
        return fmt.Errorf("create class %q: %w", s.Name, ErrInvalidInput)
    }
    const q = `INSERT INTO class_sessions
               (id, name, description, instructor, start_time, end_time, capacity, status, created_at, updated_at)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
    _, err := r.db.ExecContext(ctx, q, s.ID, s.Name, s.Description, s.Instructor,
        s.StartTime.UTC(), s.EndTime.UTC(), s.Capacity, s.Status, s.CreatedAt.UTC(), s.UpdatedAt.UTC())
    if err != nil {
        if IsDuplicateEntry(err) {
            return fmt.Errorf("create class %s: %w", s.ID, ErrConflict)
        }
        return fmt.Errorf("create class %s: %w", s.ID, err)
    }
    return nil
}

// UpdateCapacity changes a session's capacity.  The session row is locked
// the same way Book locks it, so the occupancy it compares against cannot
// move underneath.  Lowering capacity below the confirmed count returns
// ErrConflict; no booking is ever cancelled to make room.
func (r *ClassRepo) UpdateCapacity(ctx context.Context, id uuid.UUID, capacity int, now time.Time) error {
    if capacity < 0 {
        return fmt.Errorf("capacity %d: %w", capacity, ErrInvalidInput)
    }
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return fmt.Errorf("begin: %w", err)
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    var current int
    err = tx.QueryRowContext(ctx, `SELECT capacity FROM class_sessions WHERE id = ? FOR UPDATE`, id).Scan(&current)
    if errors.Is(err, sql.ErrNoRows) {
        return fmt.Errorf("class %s: %w", id, ErrNotFound)
    }
    if err != nil {
        return fmt.Errorf("lock class %s: %w", id, classify(err))
    }
    var booked int
    err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings WHERE class_id = ? AND status = 'confirmed' FOR SHARE`, id).Scan(&booked)
    if err != nil {
        return fmt.Errorf("count bookings: %w", classify(err))
    }
    if capacity < booked {
        return fmt.Errorf("capacity %d below %d confirmed bookings: %w", capacity, booked, ErrConflict)
    }
    if _, err := tx.ExecContext(ctx, `UPDATE class_sessions SET capacity = ?, updated_at = ? WHERE id = ?`,
        capacity, now.UTC(), id); err != nil {
        return fmt.Errorf("update capacity: %w", classify(err))
    }
    if err := tx.Commit(); err != nil {
        return fmt.Errorf("commit: %w", classify(err))
    }
    committed = true
    return nil
}

// MarkFinished moves every scheduled session whose end_time is not after
// now to completed and returns how many rows changed.
func (r *ClassRepo) MarkFinished(ctx context.Context, now time.Time) (int64, error) {
    const q = `UPDATE class_sessions SET status = 'completed', updated_at = ?
               WHERE status = 'scheduled' AND end_time <= ?`
    res, err := r.db.ExecContext(ctx, q, now.UTC(), now.UTC())
    if err != nil {
        return 0, fmt.Errorf("mark finished: %w", err)
    }
    return res.RowsAffected()
}
