package model

import (
    "time"

    "github.com/google/uuid"
)

// Review is a member's rating of a class they booked.  At most one review
// exists per (class, user) and reviews are immutable once written.
//
// Fields:
//  ID        – primary key identifier.
//  ClassID   – reviewed session.
//  UserID    – author.
//  UserName  – author display name.
//  Rating    – 1 to 5.
//  Content   – review text, never blank.
//  Images    – ordered image URLs.
//  CreatedAt – creation timestamp.
//  UpdatedAt – equal to CreatedAt; kept for schema symmetry.
type Review struct {
    ID        uuid.UUID `json:"id"`         // reviews.id
    ClassID   uuid.UUID `json:"class_id"`   // reviews.class_id
    UserID    string    `json:"user_id"`    // reviews.user_id
    UserName  string    `json:"user_name"`  // reviews.user_name
    Rating    int       `json:"rating"`     // reviews.rating
    Content   string    `json:"content"`    // reviews.content
    Images    []string  `json:"images"`     // reviews.images (JSON)
    CreatedAt time.Time `json:"created_at"` // reviews.created_at
    UpdatedAt time.Time `json:"updated_at"` // reviews.updated_at
}

// ValidRating reports whether the rating is within 1..5.
func (r *Review) ValidRating() bool {
    return r.Rating >= 1 && r.Rating <= 5
}
