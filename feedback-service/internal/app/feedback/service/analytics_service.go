package service

import (
	"context"
	"fmt"

	"feedbackhub/feedback-service/internal/app/feedback/analytics"
	"feedbackhub/feedback-service/internal/app/feedback/repository"
)

// AnalyticsService пересчитывает статистику на каждый запрос
type AnalyticsService struct {
	reviewRepo repository.ReviewRepository
}

func NewAnalyticsService(reviewRepo repository.ReviewRepository) *AnalyticsService {
	return &AnalyticsService{reviewRepo: reviewRepo}
}

func (s *AnalyticsService) Get(ctx context.Context, ownerID string, filters analytics.Filters) (*analytics.Snapshot, error) {
	reviews, err := s.reviewRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}

	snapshot := analytics.Aggregate(reviews, filters)
	return &snapshot, nil
}
