package app

import (
	"context"

	"tutorhub/internal/repository"
)

// UsageService exposes the per-user usage aggregates.
type UsageService struct {
	usageRepo *repository.UsageRepository
}

func NewUsageService(usageRepo *repository.UsageRepository) *UsageService {
	return &UsageService{usageRepo: usageRepo}
}

func (s *UsageService) Summary(ctx context.Context, userID string) (*repository.UsageSummary, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}
	return s.usageRepo.SummaryByUser(ctx, userID)
}
