package processor

import (
	"context"

	"github.com/robfig/cron/v3"

	"feedbackhub/feedback-service/internal/app/feedback/config"
	"feedbackhub/feedback-service/internal/app/feedback/entity"
	"feedbackhub/feedback-service/internal/app/feedback/repository"
	"feedbackhub/pkg/logger"
)

// IngestionRunner - оркестратор импорта
type IngestionRunner interface {
	Run(ctx context.Context, req entity.IngestRequest) (*entity.ImportResult, error)
}

// SyncStats итог одного прохода автосинхронизации
type SyncStats struct {
	Runs     int
	Failed   int
	Imported int
}

// CronScheduler периодически переимпортирует отслеживаемые товары.
// Товары площадок и почтовые ящики идут отдельными расписаниями,
// пересекающиеся запуски одной задачи пропускаются
type CronScheduler struct {
	cron      *cron.Cron
	products  repository.ProductRepository
	ingestion IngestionRunner

	productEntry cron.EntryID
	mailboxEntry cron.EntryID
}

func NewCronScheduler(products repository.ProductRepository, ingestion IngestionRunner) *CronScheduler {
	cronLog := logger.Component("cron")
	c := cron.New(
		cron.WithLogger(cron.PrintfLogger(&cronLog)),
		cron.WithChain(cron.Recover(cron.PrintfLogger(&cronLog)), cron.SkipIfStillRunning(cron.PrintfLogger(&cronLog))),
	)

	return &CronScheduler{
		cron:      c,
		products:  products,
		ingestion: ingestion,
	}
}

func (s *CronScheduler) Start(ctx context.Context, cfg config.CronConfig) error {
	logger.Info().
		Str("product_sync", cfg.ProductSync).
		Str("mailbox_sync", cfg.MailboxSync).
		Msg("Starting cron scheduler")

	var err error
	s.productEntry, err = s.cron.AddFunc(cfg.ProductSync, func() {
		s.SyncProducts(ctx)
	})
	if err != nil {
		return err
	}

	s.mailboxEntry, err = s.cron.AddFunc(cfg.MailboxSync, func() {
		s.SyncMailboxes(ctx)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	logger.Info().Msg("Cron scheduler started")

	return nil
}

func (s *CronScheduler) Stop() {
	logger.Info().Msg("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info().Msg("Cron scheduler stopped")
}

func (s *CronScheduler) GetEntries() []cron.Entry {
	return s.cron.Entries()
}

// SyncProducts - быстрый импорт каждого товара площадок
func (s *CronScheduler) SyncProducts(ctx context.Context) SyncStats {
	return s.sync(ctx, "products", func(src entity.SourceKind) bool {
		return src != entity.SourceEmail
	})
}

// SyncMailboxes - быстрый импорт каждого отслеживаемого ящика
func (s *CronScheduler) SyncMailboxes(ctx context.Context) SyncStats {
	return s.sync(ctx, "mailboxes", func(src entity.SourceKind) bool {
		return src == entity.SourceEmail
	})
}

func (s *CronScheduler) sync(ctx context.Context, job string, include func(entity.SourceKind) bool) SyncStats {
	var stats SyncStats

	products, err := s.products.ListAll(ctx)
	if err != nil {
		logger.Error().Err(err).Str("job", job).Msg("Failed to list tracked products")
		return stats
	}

	for _, p := range products {
		if ctx.Err() != nil {
			break
		}

		src := entity.SourceKind(p.Platform)
		if !src.Valid() || !include(src) {
			continue
		}

		stats.Runs++
		result, err := s.ingestion.Run(ctx, entity.IngestRequest{
			Source:     src,
			Identifier: p.ProductID,
			OwnerID:    p.OwnerID,
			SyncType:   entity.SyncQuick,
		})
		if err != nil {
			stats.Failed++
			logger.Warn().Err(err).
				Str("job", job).
				Str("source", string(src)).
				Str("identifier", p.ProductID).
				Str("owner_id", p.OwnerID).
				Msg("Auto-sync run failed")
			continue
		}
		stats.Imported += result.Imported
	}

	logger.Info().
		Str("job", job).
		Int("runs", stats.Runs).
		Int("failed", stats.Failed).
		Int("imported", stats.Imported).
		Msg("Auto-sync completed")

	return stats
}
