package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"tutorhub/internal/model"
)

// UsageSummary aggregates a user's provider usage for dashboards.
type UsageSummary struct {
	TotalAPICalls    int64   `json:"total_api_calls"`
	TotalTokens      int64   `json:"total_tokens"`
	TotalCost        float64 `json:"total_cost"`
	EmbeddingTokens  int64   `json:"embedding_tokens"`
	CompletionTokens int64   `json:"completion_tokens"`
}

type UsageRepository struct {
	db *gorm.DB
}

func NewUsageRepository(db *gorm.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

func (r *UsageRepository) Create(ctx context.Context, event *model.UsageEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("create usage event failed: %w", err)
	}
	return nil
}

func (r *UsageRepository) SummaryByUser(ctx context.Context, userID string) (*UsageSummary, error) {
	var summary UsageSummary
	err := r.db.WithContext(ctx).
		Model(&model.UsageEvent{}).
		Select("COALESCE(SUM(api_calls), 0) AS total_api_calls, COALESCE(SUM(tokens_used), 0) AS total_tokens, COALESCE(SUM(cost_estimate), 0) AS total_cost").
		Where("user_id = ?", userID).
		Scan(&summary).Error
	if err != nil {
		return nil, fmt.Errorf("usage summary failed: %w", err)
	}

	type actionTokens struct {
		Action string
		Tokens int64
	}
	var byAction []actionTokens
	err = r.db.WithContext(ctx).
		Model(&model.UsageEvent{}).
		Select("action, COALESCE(SUM(tokens_used), 0) AS tokens").
		Where("user_id = ?", userID).
		Group("action").
		Scan(&byAction).Error
	if err != nil {
		return nil, fmt.Errorf("usage summary by action failed: %w", err)
	}
	for _, row := range byAction {
		switch row.Action {
		case model.UsageActionEmbedding:
			summary.EmbeddingTokens = row.Tokens
		case model.UsageActionCompletion:
			summary.CompletionTokens = row.Tokens
		}
	}
	return &summary, nil
}
