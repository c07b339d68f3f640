package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// MessageSource records one retrieved chunk an assistant message was
// grounded on, kept for provenance and citation display.
type MessageSource struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	ChunkIndex int     `json:"chunk_index"`
	Text       string  `json:"text"`
	Similarity float32 `json:"similarity"`
	Tokens     int     `json:"tokens"`
}

// Message is one turn of a conversation, ordered by CreatedAt. Assistant
// messages carry the retrieval sources and token accounting of the answer
// that produced them; Sources is stored as a JSON array.
type Message struct {
	ID             string    `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID string    `gorm:"type:uuid;not null;index" json:"conversation_id"`
	UserID         string    `gorm:"type:uuid;not null;index" json:"user_id"`
	Role           string    `gorm:"size:16;not null" json:"role"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	Sources        string    `gorm:"type:text" json:"-"`
	Model          string    `gorm:"size:64" json:"model,omitempty"`
	TokensUsed     int       `json:"tokens_used,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// SetSources stores the retrieval provenance as JSON.
func (m *Message) SetSources(sources []MessageSource) {
	if len(sources) == 0 {
		m.Sources = ""
		return
	}
	b, _ := json.Marshal(sources)
	m.Sources = string(b)
}

// SourceList returns the parsed provenance; empty on parse error.
func (m *Message) SourceList() []MessageSource {
	if m.Sources == "" {
		return nil
	}
	var sources []MessageSource
	_ = json.Unmarshal([]byte(m.Sources), &sources)
	return sources
}
