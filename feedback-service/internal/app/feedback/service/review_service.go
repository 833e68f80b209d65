package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"feedbackhub/feedback-service/internal/app/feedback/entity"
	"feedbackhub/feedback-service/internal/app/feedback/repository"
	"feedbackhub/pkg/logger"
)

// ReviewService - просмотр отзывов и смена статуса обработки
type ReviewService struct {
	reviewRepo repository.ReviewRepository
	now        func() time.Time
}

func NewReviewService(reviewRepo repository.ReviewRepository) *ReviewService {
	return &ReviewService{reviewRepo: reviewRepo, now: time.Now}
}

func (s *ReviewService) List(ctx context.Context, ownerID string) ([]entity.Review, error) {
	reviews, err := s.reviewRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

func (s *ReviewService) Get(ctx context.Context, id, ownerID string) (*entity.Review, error) {
	review, err := s.reviewRepo.GetByID(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) || errors.Is(err, repository.ErrInvalidReviewID) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return review, nil
}

// UpdateStatus меняет статус. Переход назад разрешен, отметки времени
// пересчитываются через Review.SetStatus
func (s *ReviewService) UpdateStatus(ctx context.Context, id, ownerID string, status entity.ReviewStatus) (*entity.Review, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	review, err := s.Get(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	previous := review.Status
	review.SetStatus(status, s.now().UTC())

	if err := s.reviewRepo.UpdateStatus(ctx, review); err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to update review status: %w", err)
	}

	logger.Info().
		Str("review_id", id).
		Str("owner_id", ownerID).
		Str("from", string(previous)).
		Str("to", string(status)).
		Msg("Review status updated")

	return review, nil
}
