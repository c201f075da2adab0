package model

import (
    "time"

    "github.com/google/uuid"
)

// KnowledgeBase groups reference material the AI assistant draws on.
type KnowledgeBase struct {
    ID          uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
    Name        string    `json:"name"`
    Description string    `json:"description"`
    Type        string    `json:"type"` // text, image, video, mixed
    CreatedAt   time.Time `json:"created_at"`
    UpdatedAt   time.Time `json:"updated_at"`
}

// KnowledgeItem is a single entry in a knowledge base.
type KnowledgeItem struct {
    ID              uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
    KnowledgeBaseID uuid.UUID `json:"knowledge_base_id" gorm:"type:char(36);index"`
    Title           string    `json:"title"`
    Content         string    `json:"content,omitempty"`
    ContentType     string    `json:"content_type"` // text, image, video
    FilePath        string    `json:"file_path,omitempty"`
    MimeType        string    `json:"mime_type,omitempty"`
    CreatedAt       time.Time `json:"created_at"`
    UpdatedAt       time.Time `json:"updated_at"`
}
