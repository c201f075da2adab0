package chat

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "strings"

    "github.com/google/uuid"

    "github.com/iliyamo/yoga-studio-booking/internal/model"
    "github.com/iliyamo/yoga-studio-booking/internal/repository"
)

// maxToolBookings caps query_user_bookings.
const maxToolBookings = 20

// Schedule is the catalog read the query_schedule tool needs.
// *service.Catalog implements it.
type Schedule interface {
    SessionsBetween(ctx context.Context, startDate, endDate string) ([]model.SessionView, error)
}

// Ledger is the booking surface the tools drive.  *service.Ledger
// implements it, so a booking made through chat takes the same per-class
// lock as one made over HTTP.
type Ledger interface {
    Book(ctx context.Context, classID uuid.UUID, userID, userName string) (*model.Booking, error)
    Cancel(ctx context.Context, bookingID uuid.UUID) (*model.Booking, error)
    ListForUser(ctx context.Context, userID string, limit, offset int) ([]model.Booking, error)
}

var errNoUser = fmt.Errorf("user_id required: %w", repository.ErrInvalidInput)

// RegisterBookingTools adds query_schedule, book_class, cancel_booking and
// query_user_bookings to t.
func RegisterBookingTools(t *Tools, schedule Schedule, ledger Ledger) {
    t.Register(FunctionSpec{
        Name:        "query_schedule",
        Description: "List yoga classes between two dates (YYYY-MM-DD, studio timezone). Omit both dates for the current week.",
        Parameters: object(map[string]any{
            "start_date": str("first day, YYYY-MM-DD"),
            "end_date":   str("last day, YYYY-MM-DD"),
        }),
    }, func(ctx context.Context, raw json.RawMessage) (any, error) {
        var args struct {
            StartDate string `json:"start_date"`
            EndDate   string `json:"end_date"`
        }
        if err := decodeArgs(raw, &args); err != nil {
            return nil, err
        }
        return schedule.SessionsBetween(ctx, args.StartDate, args.EndDate)
    })

    t.Register(FunctionSpec{
        Name:        "book_class",
        Description: "Book a place in a class for the current user.",
        Parameters: object(map[string]any{
            "class_id":  str("class id from query_schedule"),
            "user_id":   str("user id, used only when the conversation has none"),
            "user_name": str("display name for the booking"),
        }, "class_id"),
    }, func(ctx context.Context, raw json.RawMessage) (any, error) {
        var args struct {
            ClassID  string `json:"class_id"`
            UserID   string `json:"user_id"`
            UserName string `json:"user_name"`
        }
        if err := decodeArgs(raw, &args); err != nil {
            return nil, err
        }
        classID, err := parseID("class_id", args.ClassID)
        if err != nil {
            return nil, err
        }
        user := actingUser(ctx, args.UserID)
        if user == "" {
            return nil, errNoUser
        }
        return ledger.Book(ctx, classID, user, args.UserName)
    })

    t.Register(FunctionSpec{
        Name:        "cancel_booking",
        Description: "Cancel one of the current user's bookings.",
        Parameters: object(map[string]any{
            "booking_id": str("booking id from query_user_bookings"),
        }, "booking_id"),
    }, func(ctx context.Context, raw json.RawMessage) (any, error) {
        var args struct {
            BookingID string `json:"booking_id"`
        }
        if err := decodeArgs(raw, &args); err != nil {
            return nil, err
        }
        id, err := parseID("booking_id", args.BookingID)
        if err != nil {
            return nil, err
        }
        // with a known caller, only their own bookings may be cancelled
        if caller := callerFrom(ctx); caller != "" {
            if err := ownsBooking(ctx, ledger, caller, id); err != nil {
                return nil, err
            }
        }
        return ledger.Cancel(ctx, id)
    })

    t.Register(FunctionSpec{
        Name:        "query_user_bookings",
        Description: "List the current user's most recent bookings.",
        Parameters: object(map[string]any{
            "user_id": str("user id, used only when the conversation has none"),
        }),
    }, func(ctx context.Context, raw json.RawMessage) (any, error) {
        var args struct {
            UserID string `json:"user_id"`
        }
        if err := decodeArgs(raw, &args); err != nil {
            return nil, err
        }
        user := actingUser(ctx, args.UserID)
        if user == "" {
            return nil, errNoUser
        }
        return ledger.ListForUser(ctx, user, maxToolBookings, 0)
    })
}

func actingUser(ctx context.Context, fromModel string) string {
    if caller := callerFrom(ctx); caller != "" {
        return caller
    }
    return strings.TrimSpace(fromModel)
}

func ownsBooking(ctx context.Context, ledger Ledger, userID string, id uuid.UUID) error {
    for offset := 0; ; offset += 100 {
        page, err := ledger.ListForUser(ctx, userID, 100, offset)
        if err != nil {
            return err
        }
        for _, b := range page {
            if b.ID == id {
                return nil
            }
        }
        if len(page) < 100 {
            return fmt.Errorf("booking %s: %w", id, repository.ErrNotFound)
        }
    }
}

func decodeArgs(raw json.RawMessage, dst any) error {
    if err := json.Unmarshal(raw, dst); err != nil {
        return fmt.Errorf("arguments: %v: %w", err, repository.ErrInvalidInput)
    }
    return nil
}

func parseID(name, s string) (uuid.UUID, error) {
    id, err := uuid.Parse(strings.TrimSpace(s))
    if err != nil {
        return uuid.Nil, fmt.Errorf("%s %q: %w", name, s, repository.ErrInvalidInput)
    }
    return id, nil
}

func str(desc string) map[string]any {
    return map[string]any{"type": "string", "description": desc}
}

func object(props map[string]any, required ...string) map[string]any {
    o := map[string]any{"type": "object", "properties": props}
    if len(required) > 0 {
        o["required"] = required
    }
    return o
}

// toolError is what the model sees when a tool fails: the same kind and
// message a client would get.
func toolError(err error) map[string]string {
    kind := repository.KindOf(err)
    msg := err.Error()
    switch {
    case errors.Is(err, ErrUnknownTool):
        kind = "UnknownTool"
    case kind == repository.KindInternal:
        msg = "internal error"
    }
    return map[string]string{"error": kind, "message": msg}
}
