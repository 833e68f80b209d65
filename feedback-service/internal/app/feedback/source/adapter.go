package source

import (
	"context"

	"feedbackhub/feedback-service/internal/app/feedback/entity"
)

// Adapter - источник сырых отзывов одного провайдера.
// Ничего не знает о дедупликации и AI.
type Adapter interface {
	Name() string
	// Configured проверяется до любого сетевого вызова
	Configured() bool
	Fetch(ctx context.Context, identifier string, opts entity.FetchOptions) (*entity.FetchResult, error)
}

// MailboxReader отдаёт письма ящика без группировки в RawItem
type MailboxReader interface {
	Configured() bool
	FetchMessages(ctx context.Context, mailbox string, opts entity.FetchOptions) ([]entity.EmailMessage, error)
}

// Fetcher - то, что оркестратор вызывает для получения элементов.
// Возвращает имя провайдера, который обслужил запрос.
type Fetcher interface {
	Fetch(ctx context.Context, identifier string, opts entity.FetchOptions) (*entity.FetchResult, string, error)
}

func floatPtr(v float64) *float64 {
	return &v
}
