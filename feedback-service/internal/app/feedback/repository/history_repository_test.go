package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"feedbackhub/feedback-service/internal/app/feedback/entity"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var historyColumns = []string{
	"id", "platform", "product_id", "product_name", "owner_id",
	"action", "reviews_deleted", "review_count", "created_at",
}

func TestProductHistoryRepository_Add(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewProductHistoryRepository(mock)
	entry := &entity.ProductHistory{
		Platform:       "amazon",
		ProductID:      "B08N5WRWNW",
		ProductName:    "Echo Dot",
		OwnerID:        "owner-1",
		Action:         entity.HistoryActionDeleted,
		ReviewsDeleted: true,
		ReviewCount:    12,
	}

	mock.ExpectExec("INSERT INTO product_history").
		WithArgs(pgxmock.AnyArg(), "amazon", "B08N5WRWNW", "Echo Dot", "owner-1", "deleted", true, int64(12), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Add(context.Background(), entry)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductHistoryRepository_Add_ExecError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewProductHistoryRepository(mock)

	mock.ExpectExec("INSERT INTO product_history").
		WillReturnError(errors.New("connection refused"))

	err = repo.Add(context.Background(), &entity.ProductHistory{Action: entity.HistoryActionDeleted})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert product history")
}

func TestProductHistoryRepository_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewProductHistoryRepository(mock)
	id := uuid.New()
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT .+ FROM product_history").
		WithArgs(id, "owner-1").
		WillReturnRows(pgxmock.NewRows(historyColumns).
			AddRow(id, "walmart", "314022535", "Onn TV", "owner-1", "deleted", false, int64(0), created))

	entry, err := repo.GetByID(context.Background(), id, "owner-1")

	require.NoError(t, err)
	assert.Equal(t, id, entry.ID)
	assert.Equal(t, entity.HistoryActionDeleted, entry.Action)
	assert.Equal(t, "Onn TV", entry.ProductName)
	assert.Equal(t, created, entry.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductHistoryRepository_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewProductHistoryRepository(mock)
	id := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM product_history").
		WithArgs(id, "owner-1").
		WillReturnError(pgx.ErrNoRows)

	_, err = repo.GetByID(context.Background(), id, "owner-1")

	assert.ErrorIs(t, err, ErrHistoryNotFound)
}

func TestProductHistoryRepository_ListByOwner(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewProductHistoryRepository(mock)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT .+ FROM product_history").
		WithArgs("owner-1", 50).
		WillReturnRows(pgxmock.NewRows(historyColumns).
			AddRow(uuid.New(), "amazon", "B08N5WRWNW", "Echo Dot", "owner-1", "restored", false, int64(0), now).
			AddRow(uuid.New(), "amazon", "B08N5WRWNW", "Echo Dot", "owner-1", "deleted", true, int64(4), now.Add(-time.Hour)))

	history, err := repo.ListByOwner(context.Background(), "owner-1", 0)

	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, entity.HistoryActionRestored, history[0].Action)
	assert.True(t, history[1].ReviewsDeleted)
	assert.Equal(t, int64(4), history[1].ReviewCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductHistoryRepository_ListByOwner_QueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewProductHistoryRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM product_history").
		WithArgs("owner-1", 10).
		WillReturnError(errors.New("timeout"))

	_, err = repo.ListByOwner(context.Background(), "owner-1", 10)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list product history")
}
