package repository

import (
	"context"
	"errors"

	"feedbackhub/feedback-service/internal/app/feedback/entity"

	"github.com/google/uuid"
)

var (
	ErrReviewNotFound  = errors.New("review not found")
	ErrDuplicateReview = errors.New("review already exists")
	ErrProductNotFound = errors.New("product not found")
	ErrHistoryNotFound = errors.New("product history entry not found")
	ErrStatusNotFound  = errors.New("import status not found")
	ErrInvalidReviewID = errors.New("invalid review id")
)

// ReviewRepository - хранилище отзывов (MongoDB)
type ReviewRepository interface {
	Exists(ctx context.Context, marketplace entity.Marketplace, externalID, ownerID string) (bool, error)
	Create(ctx context.Context, review *entity.Review) error
	ListByOwner(ctx context.Context, ownerID string) ([]entity.Review, error)
	GetByID(ctx context.Context, id, ownerID string) (*entity.Review, error)
	UpdateStatus(ctx context.Context, review *entity.Review) error
	CountByProduct(ctx context.Context, ownerID string, marketplace entity.Marketplace, productID string) (int64, error)
	DeleteByProduct(ctx context.Context, ownerID string, marketplace entity.Marketplace, productID string) (int64, error)
}

// ProductRepository - отслеживаемые товары (PostgreSQL через GORM)
type ProductRepository interface {
	Upsert(ctx context.Context, product *entity.Product) error
	Get(ctx context.Context, platform, productID, ownerID string) (*entity.Product, error)
	GetByID(ctx context.Context, id uuid.UUID, ownerID string) (*entity.Product, error)
	ListByOwner(ctx context.Context, ownerID string) ([]entity.Product, error)
	ListAll(ctx context.Context) ([]entity.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ProductHistoryRepository - журнал удалений и восстановлений (PostgreSQL через pgx)
type ProductHistoryRepository interface {
	Add(ctx context.Context, entry *entity.ProductHistory) error
	GetByID(ctx context.Context, id uuid.UUID, ownerID string) (*entity.ProductHistory, error)
	ListByOwner(ctx context.Context, ownerID string, limit int) ([]entity.ProductHistory, error)
}

// Cache - Redis: известные внешние id и статус последнего импорта
type Cache interface {
	IsKnown(ctx context.Context, marketplace entity.Marketplace, ownerID, externalID string) (bool, error)
	MarkKnown(ctx context.Context, marketplace entity.Marketplace, ownerID, externalID string) error
	ForgetKnown(ctx context.Context, marketplace entity.Marketplace, ownerID string) error
	SaveImportStatus(ctx context.Context, ownerID string, result *entity.ImportResult) error
	GetImportStatus(ctx context.Context, ownerID string, source entity.SourceKind, identifier string) (*entity.ImportResult, error)
}
