package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Document processing lifecycle.
const (
	DocumentStatusProcessing = "processing"
	DocumentStatusReady      = "ready"
	DocumentStatusError      = "error"
)

// Visibility levels shared by documents and tutors.
const (
	VisibilityPrivate = "private"
	VisibilityPublic  = "public"
)

// Document is an uploaded knowledge source owned by exactly one user.
// Content holds the extracted plain text so the document can be
// re-chunked and re-embedded without the original file.
type Document struct {
	ID           string    `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID      string    `gorm:"type:uuid;not null;index" json:"owner_id"`
	Title        string    `gorm:"size:256;not null" json:"title"`
	StoragePath  string    `gorm:"size:512" json:"storage_path"`
	MimeType     string    `gorm:"size:128" json:"mime_type"`
	Status       string    `gorm:"size:16;not null;default:processing;index" json:"status"`
	ErrorMessage string    `gorm:"type:text" json:"error_message,omitempty"`
	TokenLength  int       `json:"token_length"`
	Visibility   string    `gorm:"size:16;not null;default:private" json:"visibility"`
	Content      string    `gorm:"type:text" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}
