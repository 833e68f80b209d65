package handler

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"feedbackhub/feedback-service/internal/app/feedback/analytics"
	"feedbackhub/feedback-service/internal/app/feedback/entity"
)

type MockIngestionService struct {
	mock.Mock
}

func (m *MockIngestionService) Run(ctx context.Context, req entity.IngestRequest) (*entity.ImportResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ImportResult), args.Error(1)
}

func (m *MockIngestionService) Status(ctx context.Context, ownerID string, src entity.SourceKind, identifier string) (*entity.ImportResult, error) {
	args := m.Called(ctx, ownerID, src, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ImportResult), args.Error(1)
}

type MockIngestPublisher struct {
	mock.Mock
}

func (m *MockIngestPublisher) Enqueue(ctx context.Context, req entity.IngestRequest) (*entity.IngestRequest, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.IngestRequest), args.Error(1)
}

type MockReviewService struct {
	mock.Mock
}

func (m *MockReviewService) List(ctx context.Context, ownerID string) ([]entity.Review, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Review), args.Error(1)
}

func (m *MockReviewService) Get(ctx context.Context, id, ownerID string) (*entity.Review, error) {
	args := m.Called(ctx, id, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Review), args.Error(1)
}

func (m *MockReviewService) UpdateStatus(ctx context.Context, id, ownerID string, status entity.ReviewStatus) (*entity.Review, error) {
	args := m.Called(ctx, id, ownerID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Review), args.Error(1)
}

type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) List(ctx context.Context, ownerID string) ([]entity.Product, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Product), args.Error(1)
}

func (m *MockProductService) Delete(ctx context.Context, ownerID string, id uuid.UUID, deleteReviews bool) (*entity.ProductHistory, error) {
	args := m.Called(ctx, ownerID, id, deleteReviews)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ProductHistory), args.Error(1)
}

func (m *MockProductService) History(ctx context.Context, ownerID string, limit int) ([]entity.ProductHistory, error) {
	args := m.Called(ctx, ownerID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.ProductHistory), args.Error(1)
}

func (m *MockProductService) Restore(ctx context.Context, ownerID string, historyID uuid.UUID) (*entity.Product, error) {
	args := m.Called(ctx, ownerID, historyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Product), args.Error(1)
}

type MockAnalyticsService struct {
	mock.Mock
}

func (m *MockAnalyticsService) Get(ctx context.Context, ownerID string, filters analytics.Filters) (*analytics.Snapshot, error) {
	args := m.Called(ctx, ownerID, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*analytics.Snapshot), args.Error(1)
}

type MockMailboxService struct {
	mock.Mock
}

func (m *MockMailboxService) Threads(ctx context.Context, ownerID, mailbox string, syncType entity.SyncType) ([]entity.Thread, error) {
	args := m.Called(ctx, ownerID, mailbox, syncType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Thread), args.Error(1)
}
