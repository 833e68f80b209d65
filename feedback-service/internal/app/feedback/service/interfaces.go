package service

import (
	"context"

	"feedbackhub/feedback-service/internal/app/feedback/analytics"
	"feedbackhub/feedback-service/internal/app/feedback/dedup"
	"feedbackhub/feedback-service/internal/app/feedback/enrichment"
	"feedbackhub/feedback-service/internal/app/feedback/entity"

	"github.com/google/uuid"
)

// Deduplicator - шлюз дедупликации перед обогащением
type Deduplicator interface {
	Filter(ctx context.Context, marketplace entity.Marketplace, ownerID string, items []entity.RawItem) dedup.FilterResult
}

// Enricher - классификация и черновик ответа
type Enricher interface {
	Enrich(ctx context.Context, in enrichment.Input) (*enrichment.Result, error)
	EnrichEmail(ctx context.Context, in enrichment.Input) (*enrichment.Result, error)
}

type IngestionServiceInterface interface {
	Run(ctx context.Context, req entity.IngestRequest) (*entity.ImportResult, error)
	Status(ctx context.Context, ownerID string, src entity.SourceKind, identifier string) (*entity.ImportResult, error)
}

type ReviewServiceInterface interface {
	List(ctx context.Context, ownerID string) ([]entity.Review, error)
	Get(ctx context.Context, id, ownerID string) (*entity.Review, error)
	UpdateStatus(ctx context.Context, id, ownerID string, status entity.ReviewStatus) (*entity.Review, error)
}

type ProductServiceInterface interface {
	List(ctx context.Context, ownerID string) ([]entity.Product, error)
	Delete(ctx context.Context, ownerID string, id uuid.UUID, deleteReviews bool) (*entity.ProductHistory, error)
	History(ctx context.Context, ownerID string, limit int) ([]entity.ProductHistory, error)
	Restore(ctx context.Context, ownerID string, historyID uuid.UUID) (*entity.Product, error)
}

type AnalyticsServiceInterface interface {
	Get(ctx context.Context, ownerID string, filters analytics.Filters) (*analytics.Snapshot, error)
}

type MailboxServiceInterface interface {
	Threads(ctx context.Context, ownerID, mailbox string, syncType entity.SyncType) ([]entity.Thread, error)
}

type IngestPublisherInterface interface {
	Enqueue(ctx context.Context, req entity.IngestRequest) (*entity.IngestRequest, error)
}
