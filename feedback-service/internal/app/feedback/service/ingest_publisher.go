package service

import (
	"context"
	"encoding/json"
	"fmt"

	"feedbackhub/feedback-service/internal/app/feedback/entity"
	"feedbackhub/feedback-service/internal/app/feedback/infrastructure"
	"feedbackhub/feedback-service/internal/app/feedback/source"
	"feedbackhub/pkg/logger"
)

// IngestPublisher ставит импорт в очередь ingest_requests для воркера.
// Запрос валидируется до публикации, как и синхронный запуск
type IngestPublisher struct {
	producer infrastructure.MessagePublisher
}

func NewIngestPublisher(producer infrastructure.MessagePublisher) *IngestPublisher {
	return &IngestPublisher{producer: producer}
}

func (p *IngestPublisher) Enqueue(ctx context.Context, req entity.IngestRequest) (*entity.IngestRequest, error) {
	if p.producer == nil {
		return nil, ErrAsyncUnavailable
	}
	if req.OwnerID == "" {
		return nil, ErrMissingOwner
	}
	if !req.Source.Valid() {
		return nil, fmt.Errorf("%w: %w: %q", source.ErrInvalidIdentifier, ErrInvalidSource, req.Source)
	}

	identifier, err := source.NormalizeIdentifier(req.Source, req.Identifier)
	if err != nil {
		return nil, err
	}
	req.Identifier = identifier

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ingest request: %w", err)
	}
	if err := p.producer.PublishMessage(ctx, req.OwnerID, data); err != nil {
		return nil, fmt.Errorf("failed to enqueue ingest request: %w", err)
	}

	logger.Info().
		Str("source", string(req.Source)).
		Str("identifier", identifier).
		Str("owner_id", req.OwnerID).
		Msg("Ingest request enqueued")

	return &req, nil
}
