package service

import (
	"context"
	"fmt"
	"time"

	"feedbackhub/feedback-service/internal/app/feedback/config"
	"feedbackhub/feedback-service/internal/app/feedback/email"
	"feedbackhub/feedback-service/internal/app/feedback/entity"
	"feedbackhub/feedback-service/internal/app/feedback/source"
)

// MailboxService - просмотр писем ящика потоками, без импорта
type MailboxService struct {
	reader source.MailboxReader
	cfg    config.IngestionConfig
	now    func() time.Time
}

func NewMailboxService(reader source.MailboxReader, cfg config.IngestionConfig) *MailboxService {
	return &MailboxService{reader: reader, cfg: cfg, now: time.Now}
}

func (s *MailboxService) Threads(ctx context.Context, ownerID, mailbox string, syncType entity.SyncType) ([]entity.Thread, error) {
	if ownerID == "" {
		return nil, ErrMissingOwner
	}
	address, err := source.NormalizeMailbox(mailbox)
	if err != nil {
		return nil, err
	}
	if s.reader == nil || !s.reader.Configured() {
		return nil, fmt.Errorf("mailbox: %w", source.ErrNotConfigured)
	}

	window, limit := s.cfg.EmailQuickWindow, s.cfg.EmailQuickLimit
	if syncType == entity.SyncFull {
		window, limit = s.cfg.EmailFullWindow, s.cfg.EmailFullLimit
	}

	messages, err := s.reader.FetchMessages(ctx, address, entity.FetchOptions{
		MaxItems: limit,
		FullSync: syncType == entity.SyncFull,
		Since:    s.now().Add(-window),
	})
	if err != nil {
		return nil, err
	}

	return email.GroupThreads(messages), nil
}
