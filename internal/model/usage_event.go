package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	UsageActionEmbedding  = "embedding"
	UsageActionCompletion = "completion"
)

// UsageEvent records one billable provider interaction for usage
// dashboards. CostEstimate is a heuristic from the static price tables,
// never a billing source of truth. TutorID is a pointer so events with no
// tutor, such as document embedding runs, store NULL instead of an empty
// string the uuid column would reject.
type UsageEvent struct {
	ID           string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       string    `gorm:"type:uuid;not null;index" json:"user_id"`
	TutorID      *string   `gorm:"type:uuid;index" json:"tutor_id,omitempty"`
	Action       string    `gorm:"size:16;not null;index" json:"action"`
	APICalls     int       `gorm:"not null;default:1" json:"api_calls"`
	TokensUsed   int       `gorm:"not null" json:"tokens_used"`
	CostEstimate float64   `gorm:"not null" json:"cost_estimate"`
	CreatedAt    time.Time `json:"created_at"`
}

func (e *UsageEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}
