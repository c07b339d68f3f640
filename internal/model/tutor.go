package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tutor is a user-configured persona: a system prompt, completion
// parameters, and retrieval settings over its linked documents.
type Tutor struct {
	ID                  string    `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID             string    `gorm:"type:uuid;not null;index" json:"owner_id"`
	Name                string    `gorm:"size:128;not null" json:"name"`
	SystemPrompt        string    `gorm:"type:text;not null" json:"system_prompt"`
	Model               string    `gorm:"size:64;not null" json:"model"`
	Temperature         float32   `gorm:"not null;default:0.7" json:"temperature"`
	MaxTokens           int       `gorm:"not null;default:1000" json:"max_tokens"`
	UseRAG              bool      `gorm:"not null;default:true" json:"use_rag"`
	MaxContextChunks    int       `gorm:"not null;default:10" json:"max_context_chunks"`
	SimilarityThreshold float32   `gorm:"not null;default:0.1" json:"similarity_threshold"`
	Visibility          string    `gorm:"size:16;not null;default:private" json:"visibility"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func (t *Tutor) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// TutorDocument links a tutor to one of its knowledge documents.
type TutorDocument struct {
	TutorID    string    `gorm:"type:uuid;primaryKey" json:"tutor_id"`
	DocumentID string    `gorm:"type:uuid;primaryKey" json:"document_id"`
	CreatedAt  time.Time `json:"created_at"`
}
