package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"feedbackhub/feedback-service/internal/app/feedback/entity"
	"feedbackhub/feedback-service/internal/app/feedback/repository"
	"feedbackhub/pkg/logger"

	"github.com/google/uuid"
)

const defaultHistoryLimit = 50

// ProductService - отслеживаемые товары и журнал их удалений
type ProductService struct {
	productRepo repository.ProductRepository
	reviewRepo  repository.ReviewRepository
	historyRepo repository.ProductHistoryRepository
	cache       repository.Cache
	now         func() time.Time
}

// NewProductService создает сервис товаров. cache может быть nil
func NewProductService(
	productRepo repository.ProductRepository,
	reviewRepo repository.ReviewRepository,
	historyRepo repository.ProductHistoryRepository,
	cache repository.Cache,
) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		reviewRepo:  reviewRepo,
		historyRepo: historyRepo,
		cache:       cache,
		now:         time.Now,
	}
}

func (s *ProductService) List(ctx context.Context, ownerID string) ([]entity.Product, error) {
	products, err := s.productRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// Delete удаляет товар, при deleteReviews вместе с его отзывами.
// Запись в журнал пишется всегда
func (s *ProductService) Delete(ctx context.Context, ownerID string, id uuid.UUID, deleteReviews bool) (*entity.ProductHistory, error) {
	product, err := s.productRepo.GetByID(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	marketplace := entity.SourceKind(product.Platform).Marketplace()

	count, err := s.reviewRepo.CountByProduct(ctx, ownerID, marketplace, product.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to count product reviews: %w", err)
	}

	if deleteReviews && count > 0 {
		deleted, err := s.reviewRepo.DeleteByProduct(ctx, ownerID, marketplace, product.ProductID)
		if err != nil {
			return nil, fmt.Errorf("failed to delete product reviews: %w", err)
		}
		count = deleted

		// удаленные отзывы должны импортироваться заново
		if s.cache != nil {
			if err := s.cache.ForgetKnown(ctx, marketplace, ownerID); err != nil {
				logger.Warn().Err(err).Str("owner_id", ownerID).Msg("Failed to reset known review cache")
			}
		}
	}

	if err := s.productRepo.Delete(ctx, product.ID); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to delete product: %w", err)
	}

	entry := &entity.ProductHistory{
		ID:             uuid.New(),
		Platform:       product.Platform,
		ProductID:      product.ProductID,
		ProductName:    product.ProductName,
		OwnerID:        ownerID,
		Action:         entity.HistoryActionDeleted,
		ReviewsDeleted: deleteReviews,
		ReviewCount:    count,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.historyRepo.Add(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to record product history: %w", err)
	}

	logger.Info().
		Str("owner_id", ownerID).
		Str("platform", product.Platform).
		Str("product_id", product.ProductID).
		Bool("reviews_deleted", deleteReviews).
		Int64("review_count", count).
		Msg("Product deleted")

	return entry, nil
}

func (s *ProductService) History(ctx context.Context, ownerID string, limit int) ([]entity.ProductHistory, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	history, err := s.historyRepo.ListByOwner(ctx, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list product history: %w", err)
	}
	return history, nil
}

// Restore возвращает удаленный товар в отслеживаемые. Отзывы не восстанавливаются,
// их вернет следующий импорт
func (s *ProductService) Restore(ctx context.Context, ownerID string, historyID uuid.UUID) (*entity.Product, error) {
	entry, err := s.historyRepo.GetByID(ctx, historyID, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrHistoryNotFound) {
			return nil, ErrHistoryNotFound
		}
		return nil, fmt.Errorf("failed to get history entry: %w", err)
	}
	if entry.Action != entity.HistoryActionDeleted {
		return nil, ErrNotRestorable
	}

	now := s.now().UTC()
	product := &entity.Product{
		Platform:     entry.Platform,
		ProductID:    entry.ProductID,
		ProductName:  entry.ProductName,
		OwnerID:      ownerID,
		LastImported: now,
	}
	if err := s.productRepo.Upsert(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to restore product: %w", err)
	}

	restored := &entity.ProductHistory{
		ID:          uuid.New(),
		Platform:    entry.Platform,
		ProductID:   entry.ProductID,
		ProductName: entry.ProductName,
		OwnerID:     ownerID,
		Action:      entity.HistoryActionRestored,
		CreatedAt:   now,
	}
	if err := s.historyRepo.Add(ctx, restored); err != nil {
		logger.Warn().Err(err).Str("product_id", entry.ProductID).Msg("Failed to record product restore")
	}

	return product, nil
}
