package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"feedbackhub/feedback-service/internal/app/feedback/entity"
	"feedbackhub/pkg/metrics"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const historyTable = "product_history"

// DBTX - общий интерфейс pgxpool.Pool, pgx.Tx и pgxmock
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// HistorySchema создает таблицу журнала, если её нет
const HistorySchema = `
CREATE TABLE IF NOT EXISTS product_history (
	id              UUID PRIMARY KEY,
	platform        VARCHAR(32)  NOT NULL,
	product_id      VARCHAR(256) NOT NULL,
	product_name    TEXT         NOT NULL DEFAULT '',
	owner_id        VARCHAR(128) NOT NULL,
	action          VARCHAR(16)  NOT NULL,
	reviews_deleted BOOLEAN      NOT NULL DEFAULT FALSE,
	review_count    BIGINT       NOT NULL DEFAULT 0,
	created_at      TIMESTAMPTZ  NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_product_history_owner ON product_history (owner_id, created_at DESC);`

type productHistoryRepository struct {
	db DBTX
}

// NewProductHistoryRepository создает репозиторий журнала товаров
func NewProductHistoryRepository(db DBTX) ProductHistoryRepository {
	return &productHistoryRepository{db: db}
}

// Add пишет запись журнала. Записи только добавляются
func (r *productHistoryRepository) Add(ctx context.Context, entry *entity.ProductHistory) error {
	timer := metrics.NewDbTimer(postgresStore, metrics.DbOpInsert, historyTable)

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO product_history (id, platform, product_id, product_name, owner_id, action, reviews_deleted, review_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(ctx, query,
		entry.ID,
		entry.Platform,
		entry.ProductID,
		entry.ProductName,
		entry.OwnerID,
		string(entry.Action),
		entry.ReviewsDeleted,
		entry.ReviewCount,
		entry.CreatedAt,
	)
	timer.Done(err)
	if err != nil {
		return fmt.Errorf("failed to insert product history: %w", err)
	}

	return nil
}

// GetByID получает запись журнала в пределах аккаунта
func (r *productHistoryRepository) GetByID(ctx context.Context, id uuid.UUID, ownerID string) (*entity.ProductHistory, error) {
	timer := metrics.NewDbTimer(postgresStore, metrics.DbOpSelect, historyTable)

	query := `
		SELECT id, platform, product_id, product_name, owner_id, action, reviews_deleted, review_count, created_at
		FROM product_history
		WHERE id = $1 AND owner_id = $2`

	var (
		entry  entity.ProductHistory
		action string
	)
	err := r.db.QueryRow(ctx, query, id, ownerID).Scan(
		&entry.ID,
		&entry.Platform,
		&entry.ProductID,
		&entry.ProductName,
		&entry.OwnerID,
		&action,
		&entry.ReviewsDeleted,
		&entry.ReviewCount,
		&entry.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			timer.Done(nil)
			return nil, ErrHistoryNotFound
		}
		timer.Done(err)
		return nil, fmt.Errorf("failed to get product history: %w", err)
	}
	timer.Done(nil)
	entry.Action = entity.HistoryAction(action)

	return &entry, nil
}

// ListByOwner возвращает последние записи журнала аккаунта
func (r *productHistoryRepository) ListByOwner(ctx context.Context, ownerID string, limit int) ([]entity.ProductHistory, error) {
	timer := metrics.NewDbTimer(postgresStore, metrics.DbOpSelect, historyTable)

	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, platform, product_id, product_name, owner_id, action, reviews_deleted, review_count, created_at
		FROM product_history
		WHERE owner_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, ownerID, limit)
	if err != nil {
		timer.Done(err)
		return nil, fmt.Errorf("failed to list product history: %w", err)
	}
	defer rows.Close()

	history := make([]entity.ProductHistory, 0)
	for rows.Next() {
		var (
			entry  entity.ProductHistory
			action string
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.Platform,
			&entry.ProductID,
			&entry.ProductName,
			&entry.OwnerID,
			&action,
			&entry.ReviewsDeleted,
			&entry.ReviewCount,
			&entry.CreatedAt,
		); err != nil {
			timer.Done(err)
			return nil, fmt.Errorf("failed to scan product history: %w", err)
		}
		entry.Action = entity.HistoryAction(action)
		history = append(history, entry)
	}
	if err := rows.Err(); err != nil {
		timer.Done(err)
		return nil, fmt.Errorf("failed to iterate product history: %w", err)
	}
	timer.Done(nil)

	return history, nil
}
