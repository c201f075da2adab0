// Package repository defines error types that are reused across multiple
// repositories and the in-memory store.  These sentinel values allow
// higher layers such as services and handlers to distinguish between
// failure scenarios without inspecting driver errors.  Repositories wrap
// them with %w and context; callers test with errors.Is or map them with
// KindOf.
package repository

import (
    "errors"

    "github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a session, booking or knowledge base does
// not exist.  Handlers translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrFull is returned when a session has no free places left, including
// sessions with capacity 0.
var ErrFull = errors.New("class is full")

// ErrDuplicateBooking is returned when the user already holds a confirmed
// booking for the session.
var ErrDuplicateBooking = errors.New("user already booked this class")

// ErrAlreadyCancelled is returned when cancelling a booking that is no
// longer confirmed.
var ErrAlreadyCancelled = errors.New("booking already cancelled")

// ErrNotEligible is returned when the review policy does not allow the
// user to review the session.  Handlers translate this into 403.
var ErrNotEligible = errors.New("not eligible to review this class")

// ErrDuplicateReview is returned when the user already reviewed the
// session.
var ErrDuplicateReview = errors.New("review already exists")

// ErrInvalidInput is returned for malformed ids, ratings, blank content
// and similar caller mistakes.
var ErrInvalidInput = errors.New("invalid input")

// ErrConflict is returned when an update cannot be performed because of
// conflicting state, such as lowering capacity below the number of
// confirmed bookings.  Handlers translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrSessionClosed is returned when booking a session that has already
// started, was cancelled or is completed.
var ErrSessionClosed = errors.New("class is not open for booking")

// ErrTransient marks storage failures worth retrying: deadlocks and lock
// wait timeouts.  It never reaches clients as such.
var ErrTransient = errors.New("transient storage error")

// Error kinds reported to clients.
const (
    KindNotFound         = "NotFound"
    KindFull             = "Full"
    KindDuplicateBooking = "DuplicateBooking"
    KindAlreadyCancelled = "AlreadyCancelled"
    KindNotEligible      = "NotEligible"
    KindDuplicateReview  = "DuplicateReview"
    KindInvalidInput     = "InvalidInput"
    KindConflict         = "Conflict"
    KindSessionClosed    = "SessionClosed"
    KindInternal         = "Internal"
)

var kinds = []struct {
    err  error
    kind string
}{
    {ErrNotFound, KindNotFound},
    {ErrFull, KindFull},
    {ErrDuplicateBooking, KindDuplicateBooking},
    {ErrAlreadyCancelled, KindAlreadyCancelled},
    {ErrNotEligible, KindNotEligible},
    {ErrDuplicateReview, KindDuplicateReview},
    {ErrInvalidInput, KindInvalidInput},
    {ErrConflict, KindConflict},
    {ErrSessionClosed, KindSessionClosed},
}

// KindOf maps err onto the client-facing error taxonomy.  Unknown errors,
// transient ones included, are Internal.
func KindOf(err error) string {
    for _, k := range kinds {
        if errors.Is(err, k.err) {
            return k.kind
        }
    }
    return KindInternal
}

// MySQL server error numbers the repositories care about.
const (
    mysqlDuplicateEntry  = 1062
    mysqlLockWaitTimeout = 1205
    mysqlDeadlock        = 1213
)

// mysqlErrNumber extracts the server error number, or 0.
func mysqlErrNumber(err error) uint16 {
    var me *mysql.MySQLError
    if errors.As(err, &me) {
        return me.Number
    }
    return 0
}

// IsDuplicateEntry reports whether err is a unique key violation.
func IsDuplicateEntry(err error) bool {
    return mysqlErrNumber(err) == mysqlDuplicateEntry
}

// classify wraps deadlocks and lock wait timeouts in ErrTransient so the
// service layer can retry them.  Other errors pass through unchanged.
func classify(err error) error {
    if err == nil {
        return nil
    }
    switch mysqlErrNumber(err) {
    case mysqlDeadlock, mysqlLockWaitTimeout:
        return errors.Join(ErrTransient, err)
    }
    return err
}
