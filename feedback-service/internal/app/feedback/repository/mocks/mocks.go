package mocks

import (
	"context"
	"sync"
	"time"

	"feedbackhub/feedback-service/internal/app/feedback/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockReviewRepository мок для ReviewRepository
type MockReviewRepository struct {
	mock.Mock
}

func (m *MockReviewRepository) Exists(ctx context.Context, marketplace entity.Marketplace, externalID, ownerID string) (bool, error) {
	args := m.Called(ctx, marketplace, externalID, ownerID)
	return args.Bool(0), args.Error(1)
}

func (m *MockReviewRepository) Create(ctx context.Context, review *entity.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *MockReviewRepository) ListByOwner(ctx context.Context, ownerID string) ([]entity.Review, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Review), args.Error(1)
}

func (m *MockReviewRepository) GetByID(ctx context.Context, id, ownerID string) (*entity.Review, error) {
	args := m.Called(ctx, id, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Review), args.Error(1)
}

func (m *MockReviewRepository) UpdateStatus(ctx context.Context, review *entity.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *MockReviewRepository) CountByProduct(ctx context.Context, ownerID string, marketplace entity.Marketplace, productID string) (int64, error) {
	args := m.Called(ctx, ownerID, marketplace, productID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReviewRepository) DeleteByProduct(ctx context.Context, ownerID string, marketplace entity.Marketplace, productID string) (int64, error) {
	args := m.Called(ctx, ownerID, marketplace, productID)
	return args.Get(0).(int64), args.Error(1)
}

// MockProductRepository мок для ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Upsert(ctx context.Context, product *entity.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Get(ctx context.Context, platform, productID, ownerID string) (*entity.Product, error) {
	args := m.Called(ctx, platform, productID, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Product), args.Error(1)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id uuid.UUID, ownerID string) (*entity.Product, error) {
	args := m.Called(ctx, id, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Product), args.Error(1)
}

func (m *MockProductRepository) ListByOwner(ctx context.Context, ownerID string) ([]entity.Product, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Product), args.Error(1)
}

func (m *MockProductRepository) ListAll(ctx context.Context) ([]entity.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Product), args.Error(1)
}

func (m *MockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockProductHistoryRepository мок для ProductHistoryRepository
type MockProductHistoryRepository struct {
	mock.Mock
}

func (m *MockProductHistoryRepository) Add(ctx context.Context, entry *entity.ProductHistory) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockProductHistoryRepository) GetByID(ctx context.Context, id uuid.UUID, ownerID string) (*entity.ProductHistory, error) {
	args := m.Called(ctx, id, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ProductHistory), args.Error(1)
}

func (m *MockProductHistoryRepository) ListByOwner(ctx context.Context, ownerID string, limit int) ([]entity.ProductHistory, error) {
	args := m.Called(ctx, ownerID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.ProductHistory), args.Error(1)
}

// MockCache мок для Cache
type MockCache struct {
	mock.Mock
}

func (m *MockCache) IsKnown(ctx context.Context, marketplace entity.Marketplace, ownerID, externalID string) (bool, error) {
	args := m.Called(ctx, marketplace, ownerID, externalID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) MarkKnown(ctx context.Context, marketplace entity.Marketplace, ownerID, externalID string) error {
	args := m.Called(ctx, marketplace, ownerID, externalID)
	return args.Error(0)
}

func (m *MockCache) ForgetKnown(ctx context.Context, marketplace entity.Marketplace, ownerID string) error {
	args := m.Called(ctx, marketplace, ownerID)
	return args.Error(0)
}

func (m *MockCache) SaveImportStatus(ctx context.Context, ownerID string, result *entity.ImportResult) error {
	args := m.Called(ctx, ownerID, result)
	return args.Error(0)
}

func (m *MockCache) GetImportStatus(ctx context.Context, ownerID string, source entity.SourceKind, identifier string) (*entity.ImportResult, error) {
	args := m.Called(ctx, ownerID, source, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ImportResult), args.Error(1)
}

// MockMessagePublisher мок для Kafka MessagePublisher, безопасен для параллельных вызовов
type MockMessagePublisher struct {
	mock.Mock
	mu       sync.Mutex
	Messages [][]byte
}

func (m *MockMessagePublisher) PublishMessage(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	m.Messages = append(m.Messages, value)
	m.mu.Unlock()
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockMessagePublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockMessagePublisher) Published() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.Messages...)
}

// MockRawArchiver мок для архива сырых ответов
type MockRawArchiver struct {
	mock.Mock
}

func (m *MockRawArchiver) Archive(ctx context.Context, ownerID string, src entity.SourceKind, identifier, servedBy string, result *entity.FetchResult, at time.Time) (string, error) {
	args := m.Called(ctx, ownerID, src, identifier, servedBy, result, at)
	return args.String(0), args.Error(1)
}
