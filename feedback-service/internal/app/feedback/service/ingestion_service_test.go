package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"feedbackhub/feedback-service/internal/app/feedback/config"
	"feedbackhub/feedback-service/internal/app/feedback/dedup"
	"feedbackhub/feedback-service/internal/app/feedback/enrichment"
	"feedbackhub/feedback-service/internal/app/feedback/entity"
	"feedbackhub/feedback-service/internal/app/feedback/repository"
	"feedbackhub/feedback-service/internal/app/feedback/repository/mocks"
	"feedbackhub/feedback-service/internal/app/feedback/source"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testASIN = "B0TEST1234"

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// memReviews - хранилище отзывов в памяти с уникальным ключом дедупликации
type memReviews struct {
	mu      sync.Mutex
	reviews map[string]entity.Review
	failOn  string
}

func newMemReviews() *memReviews {
	return &memReviews{reviews: map[string]entity.Review{}}
}

func dedupKey(m entity.Marketplace, externalID, ownerID string) string {
	return fmt.Sprintf("%s|%s|%s", m, externalID, ownerID)
}

func (r *memReviews) Exists(ctx context.Context, m entity.Marketplace, externalID, ownerID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.reviews[dedupKey(m, externalID, ownerID)]
	return ok, nil
}

func (r *memReviews) Create(ctx context.Context, review *entity.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if review.ExternalReviewID == r.failOn && r.failOn != "" {
		return errors.New("write concern error")
	}
	key := dedupKey(review.Marketplace, review.ExternalReviewID, review.OwnerID)
	if _, ok := r.reviews[key]; ok {
		return repository.ErrDuplicateReview
	}
	review.ID = primitive.NewObjectID()
	r.reviews[key] = *review
	return nil
}

func (r *memReviews) ListByOwner(ctx context.Context, ownerID string) ([]entity.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Review
	for _, rv := range r.reviews {
		if rv.OwnerID == ownerID {
			out = append(out, rv)
		}
	}
	return out, nil
}

func (r *memReviews) GetByID(ctx context.Context, id, ownerID string) (*entity.Review, error) {
	return nil, repository.ErrReviewNotFound
}

func (r *memReviews) UpdateStatus(ctx context.Context, review *entity.Review) error {
	return nil
}

func (r *memReviews) CountByProduct(ctx context.Context, ownerID string, m entity.Marketplace, productID string) (int64, error) {
	return 0, nil
}

func (r *memReviews) DeleteByProduct(ctx context.Context, ownerID string, m entity.Marketplace, productID string) (int64, error) {
	return 0, nil
}

func (r *memReviews) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reviews)
}

type fakeFetcher struct {
	result   *entity.FetchResult
	servedBy string
	err      error

	calls    atomic.Int32
	lastOpts entity.FetchOptions
}

func (f *fakeFetcher) Fetch(ctx context.Context, identifier string, opts entity.FetchOptions) (*entity.FetchResult, string, error) {
	f.calls.Add(1)
	f.lastOpts = opts
	return f.result, f.servedBy, f.err
}

// fakeEnricher считает одновременные вызовы и умеет ронять выбранные элементы
type fakeEnricher struct {
	failText  string
	delay     time.Duration
	inFlight  atomic.Int32
	highWater atomic.Int32
	email     atomic.Int32
}

func (e *fakeEnricher) Enrich(ctx context.Context, in enrichment.Input) (*enrichment.Result, error) {
	cur := e.inFlight.Add(1)
	defer e.inFlight.Add(-1)
	for {
		prev := e.highWater.Load()
		if cur <= prev || e.highWater.CompareAndSwap(prev, cur) {
			break
		}
	}
	if e.delay > 0 {
		time.Sleep(e.delay)
	}
	if e.failText != "" && in.Text == e.failText {
		return nil, fmt.Errorf("%w: model timeout", enrichment.ErrClassification)
	}
	return &enrichment.Result{
		Classification: entity.Classification{
			Sentiment: entity.SentimentNegative,
			Category:  entity.CategoryShippingDelivery,
			Severity:  entity.SeverityHigh,
		},
		Reply:   "Sorry!",
		Details: map[string]any{"reasoning": "late"},
	}, nil
}

func (e *fakeEnricher) EnrichEmail(ctx context.Context, in enrichment.Input) (*enrichment.Result, error) {
	e.email.Add(1)
	return e.Enrich(ctx, in)
}

func rawItems(n int) []entity.RawItem {
	items := make([]entity.RawItem, n)
	for i := range items {
		rating := float64(i%5 + 1)
		items[i] = entity.RawItem{
			ExternalID: fmt.Sprintf("R%d", i+1),
			Text:       fmt.Sprintf("review text %d", i+1),
			AuthorName: "Customer",
			Rating:     &rating,
			Timestamp:  fixedNow.Add(-time.Duration(i) * time.Hour),
		}
	}
	return items
}

func testIngestionConfig() config.IngestionConfig {
	return config.IngestionConfig{
		Concurrency:      5,
		FetchTimeout:     time.Second,
		MaxItems:         100,
		ContentCap:       5000,
		EmailQuickWindow: 24 * time.Hour,
		EmailQuickLimit:  50,
		EmailFullWindow:  720 * time.Hour,
		EmailFullLimit:   500,
	}
}

type ingestionFixture struct {
	service  *IngestionService
	fetcher  *fakeFetcher
	enricher *fakeEnricher
	reviews  *memReviews
	products *mocks.MockProductRepository
}

func newIngestionFixture(t *testing.T, kind entity.SourceKind, items []entity.RawItem, deps IngestionDeps) *ingestionFixture {
	t.Helper()

	f := &ingestionFixture{
		fetcher:  &fakeFetcher{result: &entity.FetchResult{Items: items, ProductName: "Test Kettle"}, servedBy: "primary"},
		enricher: &fakeEnricher{},
		reviews:  newMemReviews(),
		products: new(mocks.MockProductRepository),
	}
	f.service = NewIngestionService(
		map[entity.SourceKind]source.Fetcher{kind: f.fetcher},
		dedup.NewGate(f.reviews, nil),
		f.enricher,
		f.reviews,
		f.products,
		deps,
		testIngestionConfig(),
	)
	f.service.now = func() time.Time { return fixedNow }

	return f
}

func amazonRequest() entity.IngestRequest {
	return entity.IngestRequest{
		Source:     entity.SourceAmazon,
		Identifier: "https://www.amazon.com/Test-Kettle/dp/" + testASIN + "?th=1",
		OwnerID:    "owner-1",
	}
}

func TestIngestion_DedupIdempotence(t *testing.T) {
	f := newIngestionFixture(t, entity.SourceAmazon, rawItems(4), IngestionDeps{})
	f.products.On("Upsert", mock.Anything, mock.MatchedBy(func(p *entity.Product) bool {
		return p.Platform == "amazon" && p.ProductID == testASIN && p.OwnerID == "owner-1" && p.LastImported.Equal(fixedNow)
	})).Return(nil)

	first, err := f.service.Run(context.Background(), amazonRequest())
	require.NoError(t, err)
	assert.Equal(t, 4, first.Imported)
	assert.Equal(t, 0, first.Skipped)
	assert.Equal(t, "Test Kettle", first.ProductName)
	assert.Equal(t, "primary", first.ServedBy)

	second, err := f.service.Run(context.Background(), amazonRequest())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Imported)
	assert.Equal(t, 4, second.Skipped)
	assert.Equal(t, 4, second.Duplicates)
	assert.Equal(t, 0, second.Errors)

	assert.Equal(t, 4, f.reviews.count())
	f.products.AssertNumberOfCalls(t, "Upsert", 2)
}

func TestIngestion_PartialFailureIsolation(t *testing.T) {
	f := newIngestionFixture(t, entity.SourceAmazon, rawItems(10), IngestionDeps{})
	f.enricher.failText = "review text 3"
	f.products.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	result, err := f.service.Run(context.Background(), amazonRequest())

	require.NoError(t, err)
	assert.Equal(t, 9, result.Imported)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, result.Errors)
	assert.Equal(t, 9, f.reviews.count())
	assert.Contains(t, result.Message, "1 failed")
}

func TestIngestion_PersistFailureCounted(t *testing.T) {
	f := newIngestionFixture(t, entity.SourceAmazon, rawItems(3), IngestionDeps{})
	f.reviews.failOn = "R2"
	f.products.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	result, err := f.service.Run(context.Background(), amazonRequest())

	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 1, result.Errors)
}

func TestIngestion_ConcurrencyBound(t *testing.T) {
	f := newIngestionFixture(t, entity.SourceAmazon, rawItems(23), IngestionDeps{})
	f.enricher.delay = 5 * time.Millisecond
	f.products.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	result, err := f.service.Run(context.Background(), amazonRequest())

	require.NoError(t, err)
	assert.Equal(t, 23, result.Imported)
	assert.LessOrEqual(t, f.enricher.highWater.Load(), int32(5))
}

func TestIngestion_ValidationBeforeFetch(t *testing.T) {
	f := newIngestionFixture(t, entity.SourceAmazon, rawItems(1), IngestionDeps{})

	_, err := f.service.Run(context.Background(), entity.IngestRequest{
		Source:     entity.SourceAmazon,
		Identifier: "https://example.com/not-a-product",
		OwnerID:    "owner-1",
	})

	assert.ErrorIs(t, err, source.ErrInvalidIdentifier)
	assert.Equal(t, int32(0), f.fetcher.calls.Load())
	f.products.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestIngestion_RejectsUnknownSourceAndMissingOwner(t *testing.T) {
	f := newIngestionFixture(t, entity.SourceAmazon, nil, IngestionDeps{})

	_, err := f.service.Run(context.Background(), entity.IngestRequest{Source: "ebay", Identifier: "x", OwnerID: "owner-1"})
	assert.ErrorIs(t, err, ErrInvalidSource)
	assert.Equal(t, source.KindValidation, source.Classify(err))

	_, err = f.service.Run(context.Background(), entity.IngestRequest{Source: entity.SourceAmazon, Identifier: testASIN})
	assert.ErrorIs(t, err, ErrMissingOwner)
}

func TestIngestion_FetchFailureAborts(t *testing.T) {
	f := newIngestionFixture(t, entity.SourceAmazon, nil, IngestionDeps{})
	f.fetcher.err = &source.FallbackError{
		Router:    "amazon",
		Primary:   fmt.Errorf("rainforest: %w", source.ErrUnauthorized),
		Secondary: fmt.Errorf("scraper: %w", source.ErrUpstream),
	}

	result, err := f.service.Run(context.Background(), amazonRequest())

	assert.Nil(t, result)
	assert.ErrorIs(t, err, source.ErrFallbackAttempted)
	assert.Equal(t, source.KindAuth, source.Classify(err))
	f.products.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestIngestion_SourceNotConfigured(t *testing.T) {
	f := newIngestionFixture(t, entity.SourceAmazon, nil, IngestionDeps{})

	_, err := f.service.Run(context.Background(), entity.IngestRequest{
		Source:     entity.SourceWalmart,
		Identifier: "314022535",
		OwnerID:    "owner-1",
	})

	assert.ErrorIs(t, err, source.ErrNotConfigured)
}

func TestIngestion_ZeroItemsStillTracksProduct(t *testing.T) {
	f := newIngestionFixture(t, entity.SourceAmazon, nil, IngestionDeps{})
	f.products.On("Upsert", mock.Anything, mock.Anything).Return(nil).Once()

	result, err := f.service.Run(context.Background(), amazonRequest())

	require.NoError(t, err)
	assert.Equal(t, 0, result.Imported)
	assert.Equal(t, "No new feedback found", result.Message)
	f.products.AssertExpectations(t)
}

func TestIngestion_TrackingFailureKeepsResult(t *testing.T) {
	f := newIngestionFixture(t, entity.SourceAmazon, rawItems(2), IngestionDeps{})
	f.products.On("Upsert", mock.Anything, mock.Anything).Return(errors.New("postgres down"))

	result, err := f.service.Run(context.Background(), amazonRequest())

	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
}

func TestIngestion_EmailQuickSync(t *testing.T) {
	items := []entity.RawItem{
		{ExternalID: "thread-1", Text: "Where is my order?", AuthorName: "Jane", AuthorEmail: "jane@example.com", Timestamp: fixedNow},
	}
	f := newIngestionFixture(t, entity.SourceEmail, items, IngestionDeps{})
	f.products.On("Upsert", mock.Anything, mock.MatchedBy(func(p *entity.Product) bool {
		return p.Platform == "email" && p.ProductID == "support@shop.com" && p.ProductName == "support@shop.com"
	})).Return(nil)

	result, err := f.service.Run(context.Background(), entity.IngestRequest{
		Source:     entity.SourceEmail,
		Identifier: " Support@Shop.com ",
		OwnerID:    "owner-1",
		SyncType:   entity.SyncQuick,
	})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, int32(1), f.enricher.email.Load())
	assert.Equal(t, 50, f.fetcher.lastOpts.MaxItems)
	assert.Equal(t, fixedNow.Add(-24*time.Hour), f.fetcher.lastOpts.Since)

	stored, _ := f.reviews.ListByOwner(context.Background(), "owner-1")
	require.Len(t, stored, 1)
	assert.Equal(t, entity.MarketplaceMailbox, stored[0].Marketplace)
	assert.Equal(t, 0, stored[0].Rating)
	assert.Equal(t, "jane@example.com", stored[0].CustomerEmail)
}

func TestIngestion_EmailFullSync(t *testing.T) {
	f := newIngestionFixture(t, entity.SourceEmail, nil, IngestionDeps{})
	f.products.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	_, err := f.service.Run(context.Background(), entity.IngestRequest{
		Source:     entity.SourceEmail,
		Identifier: "support@shop.com",
		OwnerID:    "owner-1",
		SyncType:   entity.SyncFull,
	})

	require.NoError(t, err)
	assert.Equal(t, 500, f.fetcher.lastOpts.MaxItems)
	assert.Equal(t, fixedNow.Add(-720*time.Hour), f.fetcher.lastOpts.Since)
	assert.True(t, f.fetcher.lastOpts.FullSync)
}

func TestIngestion_ReviewMapping(t *testing.T) {
	rating := 3.6
	items := []entity.RawItem{{
		ExternalID: "R9",
		Title:      "Meh",
		Text:       "Took three weeks to arrive",
		Rating:     &rating,
		Verified:   true,
		Timestamp:  fixedNow.Add(-48 * time.Hour),
	}}
	f := newIngestionFixture(t, entity.SourceAmazon, items, IngestionDeps{})
	f.products.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	_, err := f.service.Run(context.Background(), amazonRequest())
	require.NoError(t, err)

	stored, _ := f.reviews.ListByOwner(context.Background(), "owner-1")
	require.Len(t, stored, 1)
	r := stored[0]
	assert.Equal(t, "R9", r.ExternalReviewID)
	assert.Equal(t, entity.MarketplaceAmazon, r.Marketplace)
	assert.Equal(t, testASIN, r.ProductID)
	assert.Equal(t, 4, r.Rating)
	assert.Equal(t, "Anonymous", r.CustomerName)
	assert.Equal(t, entity.StatusOpen, r.Status)
	assert.Equal(t, entity.CategoryShippingDelivery, r.Category)
	assert.Equal(t, "Sorry!", r.AISuggestedReply)
	assert.True(t, r.Verified)
	assert.Equal(t, fixedNow.Add(-48*time.Hour), r.CreatedAt)
}

func TestIngestion_SideEffects(t *testing.T) {
	cache := new(mocks.MockCache)
	events := new(mocks.MockMessagePublisher)
	archive := new(mocks.MockRawArchiver)

	f := newIngestionFixture(t, entity.SourceAmazon, rawItems(2), IngestionDeps{Cache: cache, Events: events, Archive: archive})
	f.products.On("Upsert", mock.Anything, mock.Anything).Return(nil)
	archive.On("Archive", mock.Anything, "owner-1", entity.SourceAmazon, testASIN, "primary", mock.Anything, fixedNow).
		Return("raw/owner-1/amazon/"+testASIN+"/1.json", nil)
	cache.On("MarkKnown", mock.Anything, entity.MarketplaceAmazon, "owner-1", mock.Anything).Return(nil)
	cache.On("SaveImportStatus", mock.Anything, "owner-1", mock.MatchedBy(func(r *entity.ImportResult) bool {
		return r.Imported == 2 && r.Identifier == testASIN
	})).Return(nil)
	events.On("PublishMessage", mock.Anything, "owner-1", mock.Anything).Return(errors.New("kafka unavailable"))

	result, err := f.service.Run(context.Background(), amazonRequest())

	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	cache.AssertNumberOfCalls(t, "MarkKnown", 2)
	cache.AssertExpectations(t)
	archive.AssertExpectations(t)

	published := events.Published()
	require.Len(t, published, 2)
	var event entity.ReviewEvent
	require.NoError(t, json.Unmarshal(published[0], &event))
	assert.Equal(t, entity.EventReviewImported, event.EventType)
	assert.Equal(t, "owner-1", event.OwnerID)
	assert.NotEmpty(t, event.ReviewID)
}

func TestIngestion_Status(t *testing.T) {
	cache := new(mocks.MockCache)
	f := newIngestionFixture(t, entity.SourceAmazon, nil, IngestionDeps{Cache: cache})
	stored := &entity.ImportResult{Source: entity.SourceAmazon, Identifier: testASIN, Imported: 3}
	cache.On("GetImportStatus", mock.Anything, "owner-1", entity.SourceAmazon, testASIN).Return(stored, nil)
	cache.On("GetImportStatus", mock.Anything, "owner-2", entity.SourceAmazon, testASIN).Return(nil, repository.ErrStatusNotFound)

	got, err := f.service.Status(context.Background(), "owner-1", entity.SourceAmazon, "amazon.com/dp/"+testASIN)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Imported)

	_, err = f.service.Status(context.Background(), "owner-2", entity.SourceAmazon, testASIN)
	assert.ErrorIs(t, err, ErrStatusNotFound)

	_, err = f.service.Status(context.Background(), "owner-1", entity.SourceKind("bogus"), "x")
	assert.ErrorIs(t, err, ErrInvalidSource)
	assert.Equal(t, source.KindValidation, source.Classify(err))
	cache.AssertNumberOfCalls(t, "GetImportStatus", 2)
}
