package model

import (
    "time"

    "github.com/google/uuid"
)

// Booking statuses.  CANCELLED is terminal.
const (
    BookingConfirmed = "confirmed"
    BookingCancelled = "cancelled"
)

// Booking records a user's claim on one seat in a class session.  Rows are
// never deleted; a cancelled booking stays in the ledger and re-booking
// creates a new row.
//
// Fields:
//  ID        – primary key identifier.
//  ClassID   – session being booked.
//  UserID    – opaque user identifier supplied by the client.
//  UserName  – display name at booking time.
//  Status    – confirmed or cancelled.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last status change.
type Booking struct {
    ID        uuid.UUID `json:"id"`         // bookings.id
    ClassID   uuid.UUID `json:"class_id"`   // bookings.class_id
    UserID    string    `json:"user_id"`    // bookings.user_id
    UserName  string    `json:"user_name"`  // bookings.user_name
    Status    string    `json:"status"`     // bookings.status
    CreatedAt time.Time `json:"created_at"` // bookings.created_at
    UpdatedAt time.Time `json:"updated_at"` // bookings.updated_at
}

// BookingState summarises a user's ledger history for one class.  It is
// what the review store needs to decide eligibility.
type BookingState struct {
    Any       bool // at least one booking row exists, any status
    Confirmed bool // a confirmed booking exists
}
