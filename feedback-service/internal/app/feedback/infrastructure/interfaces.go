package infrastructure

import (
	"context"
	"time"

	"feedbackhub/feedback-service/internal/app/feedback/entity"
)

// MessagePublisher - отправка сообщений в Kafka
type MessagePublisher interface {
	PublishMessage(ctx context.Context, key string, value []byte) error
	Close() error
}

// RawArchiver - архив сырых результатов выборки (MinIO)
type RawArchiver interface {
	Archive(ctx context.Context, ownerID string, src entity.SourceKind, identifier, servedBy string, result *entity.FetchResult, at time.Time) (string, error)
}
