package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"feedbackhub/feedback-service/internal/app/feedback/config"
	"feedbackhub/feedback-service/internal/app/feedback/enrichment"
	"feedbackhub/feedback-service/internal/app/feedback/entity"
	"feedbackhub/feedback-service/internal/app/feedback/infrastructure"
	"feedbackhub/feedback-service/internal/app/feedback/repository"
	"feedbackhub/feedback-service/internal/app/feedback/scheduler"
	"feedbackhub/feedback-service/internal/app/feedback/source"
	"feedbackhub/pkg/logger"
	"feedbackhub/pkg/metrics"
)

const anonymousCustomer = "Anonymous"

// IngestionService - оркестратор импорта одного источника:
// Fetching -> Deduplicating -> Enriching -> Tracking -> Done.
// Ошибка выборки прерывает запуск, ошибки отдельных элементов только считаются.
type IngestionService struct {
	fetchers map[entity.SourceKind]source.Fetcher
	dedup    Deduplicator
	enricher Enricher
	reviews  repository.ReviewRepository
	products repository.ProductRepository

	// необязательные зависимости, nil - выключено
	cache   repository.Cache
	events  infrastructure.MessagePublisher
	archive infrastructure.RawArchiver

	cfg config.IngestionConfig
	now func() time.Time
}

// IngestionDeps - необязательные зависимости оркестратора
type IngestionDeps struct {
	Cache   repository.Cache
	Events  infrastructure.MessagePublisher
	Archive infrastructure.RawArchiver
}

func NewIngestionService(
	fetchers map[entity.SourceKind]source.Fetcher,
	dedup Deduplicator,
	enricher Enricher,
	reviews repository.ReviewRepository,
	products repository.ProductRepository,
	deps IngestionDeps,
	cfg config.IngestionConfig,
) *IngestionService {
	return &IngestionService{
		fetchers: fetchers,
		dedup:    dedup,
		enricher: enricher,
		reviews:  reviews,
		products: products,
		cache:    deps.Cache,
		events:   deps.Events,
		archive:  deps.Archive,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Run выполняет один импорт. Частичный успех - это успех со счетчиками
func (s *IngestionService) Run(ctx context.Context, req entity.IngestRequest) (*entity.ImportResult, error) {
	started := s.now()

	identifier, err := s.validate(req)
	if err != nil {
		return nil, err
	}
	req.Identifier = identifier
	marketplace := req.Source.Marketplace()

	log := logger.Component("ingestion").With().
		Str("source", string(req.Source)).
		Str("identifier", identifier).
		Str("owner_id", req.OwnerID).
		Logger()

	fetcher, ok := s.fetchers[req.Source]
	if !ok || fetcher == nil {
		err := fmt.Errorf("%s: %w", req.Source, source.ErrNotConfigured)
		metrics.RecordIngestionRun(string(req.Source), 0, 0, 0, time.Since(started), err)
		return nil, err
	}

	// Fetching
	fetched, servedBy, err := s.fetch(ctx, fetcher, req)
	if err != nil {
		log.Error().Err(err).Str("kind", string(source.Classify(err))).Msg("Fetch failed, aborting import")
		metrics.RecordIngestionRun(string(req.Source), 0, 0, 0, time.Since(started), err)
		return nil, err
	}
	s.archiveRaw(ctx, req, servedBy, fetched)

	// Deduplicating
	filtered := s.dedup.Filter(ctx, marketplace, req.OwnerID, fetched.Items)
	log.Debug().
		Int("fetched", len(fetched.Items)).
		Int("fresh", len(filtered.Fresh)).
		Int("duplicates", filtered.Duplicates).
		Msg("Deduplication finished")

	// Enriching + persist
	batch := scheduler.Run(ctx,
		scheduler.Options{Bound: s.cfg.Concurrency, Source: string(req.Source)},
		filtered.Fresh,
		func(item entity.RawItem) string { return item.ExternalID },
		func(ctx context.Context, item entity.RawItem) error {
			return s.importItem(ctx, req, item)
		},
	)

	// Tracking
	productName := s.track(ctx, req, fetched.ProductName)

	duplicates := filtered.Duplicates + batch.Skipped
	errorsCount := filtered.Failed + batch.Failed
	result := &entity.ImportResult{
		Source:      req.Source,
		Identifier:  identifier,
		Imported:    batch.Imported,
		Duplicates:  duplicates,
		Errors:      errorsCount,
		Skipped:     duplicates + errorsCount,
		ProductName: productName,
		ServedBy:    servedBy,
		FinishedAt:  s.now(),
	}
	result.Message = summary(result)

	s.saveStatus(ctx, req.OwnerID, result)
	metrics.RecordIngestionRun(string(req.Source), result.Imported, duplicates, errorsCount, time.Since(started), nil)

	log.Info().
		Str("provider", servedBy).
		Int("imported", result.Imported).
		Int("skipped", result.Skipped).
		Int("errors", result.Errors).
		Msg("Import finished")

	return result, nil
}

// Status - итог последнего импорта из Redis
func (s *IngestionService) Status(ctx context.Context, ownerID string, src entity.SourceKind, identifier string) (*entity.ImportResult, error) {
	if !src.Valid() {
		return nil, fmt.Errorf("%w: %w: %q", source.ErrInvalidIdentifier, ErrInvalidSource, src)
	}
	normalized, err := source.NormalizeIdentifier(src, identifier)
	if err != nil {
		return nil, err
	}
	if s.cache == nil {
		return nil, ErrStatusNotFound
	}

	result, err := s.cache.GetImportStatus(ctx, ownerID, src, normalized)
	if err != nil {
		if errors.Is(err, repository.ErrStatusNotFound) {
			return nil, ErrStatusNotFound
		}
		return nil, fmt.Errorf("failed to get import status: %w", err)
	}
	return result, nil
}

func (s *IngestionService) validate(req entity.IngestRequest) (string, error) {
	if req.OwnerID == "" {
		return "", ErrMissingOwner
	}
	if !req.Source.Valid() {
		return "", fmt.Errorf("%w: %w: %q", source.ErrInvalidIdentifier, ErrInvalidSource, req.Source)
	}
	if req.SyncType != "" && req.SyncType != entity.SyncQuick && req.SyncType != entity.SyncFull {
		return "", fmt.Errorf("%w: sync type %q", source.ErrInvalidIdentifier, req.SyncType)
	}
	return source.NormalizeIdentifier(req.Source, req.Identifier)
}

func (s *IngestionService) fetch(ctx context.Context, fetcher source.Fetcher, req entity.IngestRequest) (*entity.FetchResult, string, error) {
	if s.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.FetchTimeout)
		defer cancel()
	}

	fetched, servedBy, err := fetcher.Fetch(ctx, req.Identifier, s.fetchOptions(req))
	if err != nil {
		return nil, "", err
	}
	if fetched == nil {
		fetched = &entity.FetchResult{}
	}
	return fetched, servedBy, nil
}

func (s *IngestionService) fetchOptions(req entity.IngestRequest) entity.FetchOptions {
	full := req.SyncType == entity.SyncFull

	if req.Source == entity.SourceEmail {
		window, limit := s.cfg.EmailQuickWindow, s.cfg.EmailQuickLimit
		if full {
			window, limit = s.cfg.EmailFullWindow, s.cfg.EmailFullLimit
		}
		if req.MaxItems > 0 {
			limit = req.MaxItems
		}
		return entity.FetchOptions{MaxItems: limit, FullSync: full, Since: s.now().Add(-window)}
	}

	limit := s.cfg.MaxItems
	if req.MaxItems > 0 {
		limit = req.MaxItems
	}
	return entity.FetchOptions{MaxItems: limit, FullSync: full}
}

// importItem - обогащение и сохранение одного элемента
func (s *IngestionService) importItem(ctx context.Context, req entity.IngestRequest, item entity.RawItem) error {
	in := enrichment.Input{
		Text:        item.Text,
		Title:       item.Title,
		Author:      item.AuthorName,
		Marketplace: req.Source.Marketplace(),
		Rating:      starRating(item.Rating),
	}

	enrich := s.enricher.Enrich
	if req.Source == entity.SourceEmail {
		enrich = s.enricher.EnrichEmail
	}
	enriched, err := enrich(ctx, in)
	if err != nil {
		return &scheduler.ItemError{Stage: scheduler.StageEnrich, ExternalID: item.ExternalID, Err: err}
	}

	review := s.buildReview(req, item, enriched)
	if err := s.reviews.Create(ctx, review); err != nil {
		if errors.Is(err, repository.ErrDuplicateReview) {
			// гонка двух импортов, уникальный индекс отсек дубликат
			return scheduler.ErrDuplicate
		}
		return &scheduler.ItemError{Stage: scheduler.StagePersist, ExternalID: item.ExternalID, Err: err}
	}

	if s.cache != nil {
		if err := s.cache.MarkKnown(ctx, review.Marketplace, review.OwnerID, review.ExternalReviewID); err != nil {
			logger.Warn().Err(err).Str("external_id", review.ExternalReviewID).Msg("Failed to mark review as known")
		}
	}
	s.publishImported(ctx, review)

	return nil
}

func (s *IngestionService) buildReview(req entity.IngestRequest, item entity.RawItem, enriched *enrichment.Result) *entity.Review {
	createdAt := item.Timestamp
	if createdAt.IsZero() {
		createdAt = s.now()
	}

	name := strings.TrimSpace(item.AuthorName)
	if name == "" {
		name = anonymousCustomer
	}

	return &entity.Review{
		ExternalReviewID:  item.ExternalID,
		Marketplace:       req.Source.Marketplace(),
		OwnerID:           req.OwnerID,
		Title:             item.Title,
		Content:           capRunes(item.Text, s.cfg.ContentCap),
		CustomerName:      name,
		CustomerEmail:     item.AuthorEmail,
		Rating:            starRating(item.Rating),
		Sentiment:         enriched.Classification.Sentiment,
		Category:          enriched.Classification.Category,
		Severity:          enriched.Classification.Severity,
		AISuggestedReply:  enriched.Reply,
		AIAnalysisDetails: enriched.Details,
		Status:            entity.StatusOpen,
		ProductID:         req.Identifier,
		Verified:          item.Verified,
		CreatedAt:         createdAt,
	}
}

// track обновляет товар ровно один раз за запуск, даже если ничего не импортировано
func (s *IngestionService) track(ctx context.Context, req entity.IngestRequest, fetchedName string) string {
	name := fetchedName
	if req.Source == entity.SourceEmail {
		name = req.Identifier
	}

	product := &entity.Product{
		Platform:     req.Source.Platform(),
		ProductID:    req.Identifier,
		ProductName:  name,
		OwnerID:      req.OwnerID,
		LastImported: s.now(),
	}
	if err := s.products.Upsert(ctx, product); err != nil {
		logger.Error().Err(err).
			Str("source", string(req.Source)).
			Str("identifier", req.Identifier).
			Str("stage", "tracking").
			Msg("Failed to update tracked product")
		return name
	}
	return product.ProductName
}

func (s *IngestionService) archiveRaw(ctx context.Context, req entity.IngestRequest, servedBy string, fetched *entity.FetchResult) {
	if s.archive == nil || len(fetched.Items) == 0 {
		return
	}
	key, err := s.archive.Archive(ctx, req.OwnerID, req.Source, req.Identifier, servedBy, fetched, s.now())
	if err != nil {
		logger.Warn().Err(err).Str("identifier", req.Identifier).Msg("Failed to archive raw fetch")
		return
	}
	logger.Debug().Str("key", key).Msg("Raw fetch archived")
}

func (s *IngestionService) saveStatus(ctx context.Context, ownerID string, result *entity.ImportResult) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SaveImportStatus(ctx, ownerID, result); err != nil {
		logger.Warn().Err(err).Str("identifier", result.Identifier).Msg("Failed to save import status")
	}
}

func (s *IngestionService) publishImported(ctx context.Context, review *entity.Review) {
	if s.events == nil {
		return
	}

	event := entity.ReviewEvent{
		EventType:        entity.EventReviewImported,
		ReviewID:         review.ID.Hex(),
		Marketplace:      review.Marketplace,
		ExternalReviewID: review.ExternalReviewID,
		OwnerID:          review.OwnerID,
		ProductID:        review.ProductID,
		Rating:           review.Rating,
		Sentiment:        review.Sentiment,
		Severity:         review.Severity,
		Category:         review.Category,
		Timestamp:        s.now(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to marshal review event")
		return
	}
	// событие не критично: отзыв уже сохранен
	if err := s.events.PublishMessage(ctx, review.OwnerID, data); err != nil {
		logger.Warn().Err(err).Str("review_id", event.ReviewID).Msg("Failed to publish review imported event")
	}
}

func summary(r *entity.ImportResult) string {
	if r.Imported == 0 && r.Skipped == 0 {
		return "No new feedback found"
	}
	msg := fmt.Sprintf("Imported %d new items, skipped %d", r.Imported, r.Skipped)
	if r.Errors > 0 {
		msg += fmt.Sprintf(" (%d failed)", r.Errors)
	}
	return msg
}

func starRating(r *float64) int {
	if r == nil {
		return 0
	}
	v := int(math.Round(*r))
	return max(0, min(v, 5))
}

func capRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
