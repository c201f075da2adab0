// Package queue defines the domain events exchanged over RabbitMQ and the
// publisher and consumer that move them.
package queue

import (
    "fmt"
    "strings"
    "time"
)

// QueueName is the durable queue every booking event is routed to.
const QueueName = "booking.events"

// Event types.
const (
    TypeBookingConfirmed = "booking.confirmed"
    TypeBookingCancelled = "booking.cancelled"
    TypeReviewCreated    = "review.created"
)

// Event is published after a ledger or review write commits.  It carries
// enough for downstream consumers to log, notify or feed analytics without
// querying the primary database.
type Event struct {
    Type       string    `json:"type"`
    BookingID  string    `json:"booking_id,omitempty"`
    ReviewID   string    `json:"review_id,omitempty"`
    ClassID    string    `json:"class_id"`
    UserID     string    `json:"user_id"`
    UserName   string    `json:"user_name,omitempty"`
    Rating     int       `json:"rating,omitempty"`
    OccurredAt time.Time `json:"occurred_at"`
}

// LogLine renders the event as one human-friendly line ending in '\n'.
func (e Event) LogLine() string {
    var b strings.Builder
    fmt.Fprintf(&b, "[%s] %s | class_id=%s | user_id=%s", e.OccurredAt.UTC().Format(time.RFC3339), e.Type, e.ClassID, e.UserID)
    if e.UserName != "" {
        fmt.Fprintf(&b, " | user=%q", e.UserName)
    }
    if e.BookingID != "" {
        fmt.Fprintf(&b, " | booking_id=%s", e.BookingID)
    }
    if e.ReviewID != "" {
        fmt.Fprintf(&b, " | review_id=%s | rating=%d", e.ReviewID, e.Rating)
    }
    b.WriteByte('\n')
    return b.String()
}
