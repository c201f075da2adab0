package model

import (
    "time"

    "github.com/google/uuid"
)

// Session statuses.  Only SCHEDULED sessions accept new bookings.
const (
    SessionScheduled = "scheduled"
    SessionCancelled = "cancelled"
    SessionCompleted = "completed"
)

// ClassSession represents a single scheduled class occurrence with a
// fixed time window and capacity.  Sessions are created by studio
// administration; only capacity and status change afterwards.
//
// Fields:
//  ID          – primary key identifier.
//  Name        – class name shown to members.
//  Description – optional free text.
//  Instructor  – who leads the class.
//  StartTime   – when the class begins.
//  EndTime     – when the class ends (must be after StartTime).
//  Capacity    – maximum number of confirmed bookings.
//  Status      – scheduled, cancelled or completed.
//  BookedCount – confirmed bookings, computed at read time and never stored.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type ClassSession struct {
    ID          uuid.UUID `json:"id"`           // class_sessions.id
    Name        string    `json:"name"`         // class_sessions.name
    Description string    `json:"description"`  // class_sessions.description
    Instructor  string    `json:"instructor"`   // class_sessions.instructor
    StartTime   time.Time `json:"start_time"`   // class_sessions.start_time
    EndTime     time.Time `json:"end_time"`     // class_sessions.end_time
    Capacity    int       `json:"capacity"`     // class_sessions.capacity
    Status      string    `json:"status"`       // class_sessions.status
    BookedCount int       `json:"booked_count"` // derived
    CreatedAt   time.Time `json:"created_at"`   // class_sessions.created_at
    UpdatedAt   time.Time `json:"updated_at"`   // class_sessions.updated_at
}

// IsAvailable reports whether another booking would fit by count alone.
func (s *ClassSession) IsAvailable() bool {
    return s.BookedCount < s.Capacity
}

// Bookable reports whether the session accepts bookings at now.  Capacity
// is not considered here; the ledger checks it under the class lock.
func (s *ClassSession) Bookable(now time.Time) bool {
    return s.Status == SessionScheduled && now.Before(s.StartTime)
}

// SessionView is the projection returned to clients: the session plus the
// values derived from the ledger at read time.
type SessionView struct {
    ClassSession
    Available       bool `json:"available"` // booked_count < capacity
    Bookable        bool `json:"bookable"`  // available and still open for booking
    DurationMinutes int  `json:"duration_minutes"`
}
