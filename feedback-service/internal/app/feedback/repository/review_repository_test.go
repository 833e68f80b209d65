package repository

import (
	"context"
	"testing"
	"time"

	"feedbackhub/feedback-service/internal/app/feedback/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

const testNamespace = "feedbackhub.reviews"

func TestReviewRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("exists returns true when document found", func(mt *mtest.T) {
		repo := &reviewRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testNamespace, mtest.FirstBatch,
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}}))

		exists, err := repo.Exists(ctx, entity.MarketplaceAmazon, "R1", "owner-1")

		require.NoError(mt, err)
		assert.True(mt, exists)
	})

	mt.Run("exists returns false on empty result", func(mt *mtest.T) {
		repo := &reviewRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testNamespace, mtest.FirstBatch))

		exists, err := repo.Exists(ctx, entity.MarketplaceAmazon, "R1", "owner-1")

		require.NoError(mt, err)
		assert.False(mt, exists)
	})

	mt.Run("create assigns id and import time", func(mt *mtest.T) {
		repo := &reviewRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		review := &entity.Review{Marketplace: entity.MarketplaceWalmart, ExternalReviewID: "W1", OwnerID: "owner-1"}
		err := repo.Create(ctx, review)

		require.NoError(mt, err)
		assert.False(mt, review.ID.IsZero())
		assert.False(mt, review.ImportedAt.IsZero())
	})

	mt.Run("create maps duplicate key to ErrDuplicateReview", func(mt *mtest.T) {
		repo := &reviewRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: feedbackhub.reviews index: dedup_key_idx",
		}))

		err := repo.Create(ctx, &entity.Review{Marketplace: entity.MarketplaceAmazon, ExternalReviewID: "R1", OwnerID: "owner-1"})

		assert.ErrorIs(mt, err, ErrDuplicateReview)
	})

	mt.Run("list by owner decodes documents", func(mt *mtest.T) {
		repo := &reviewRepository{collection: mt.Coll}
		created := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testNamespace, mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: primitive.NewObjectID()},
				{Key: "marketplace", Value: "Amazon"},
				{Key: "owner_id", Value: "owner-1"},
				{Key: "content", Value: "Broke after a week"},
				{Key: "rating", Value: 1},
				{Key: "sentiment", Value: "negative"},
				{Key: "status", Value: "open"},
				{Key: "created_at", Value: created},
			},
			bson.D{
				{Key: "_id", Value: primitive.NewObjectID()},
				{Key: "marketplace", Value: "Shopify"},
				{Key: "owner_id", Value: "owner-1"},
				{Key: "content", Value: "Love it"},
				{Key: "rating", Value: 5},
			},
		))

		reviews, err := repo.ListByOwner(ctx, "owner-1")

		require.NoError(mt, err)
		require.Len(mt, reviews, 2)
		assert.Equal(mt, entity.MarketplaceAmazon, reviews[0].Marketplace)
		assert.Equal(mt, entity.SentimentNegative, reviews[0].Sentiment)
		assert.Equal(mt, 1, reviews[0].Rating)
		assert.True(mt, created.Equal(reviews[0].CreatedAt))
		assert.Equal(mt, "Love it", reviews[1].Content)
	})

	mt.Run("get by id rejects malformed id", func(mt *mtest.T) {
		repo := &reviewRepository{collection: mt.Coll}

		_, err := repo.GetByID(ctx, "not-an-object-id", "owner-1")

		assert.ErrorIs(mt, err, ErrInvalidReviewID)
	})

	mt.Run("get by id not found", func(mt *mtest.T) {
		repo := &reviewRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testNamespace, mtest.FirstBatch))

		_, err := repo.GetByID(ctx, primitive.NewObjectID().Hex(), "owner-1")

		assert.ErrorIs(mt, err, ErrReviewNotFound)
	})

	mt.Run("update status without match", func(mt *mtest.T) {
		repo := &reviewRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		review := &entity.Review{ID: primitive.NewObjectID(), OwnerID: "owner-1"}
		review.SetStatus(entity.StatusResolved, time.Now())
		err := repo.UpdateStatus(ctx, review)

		assert.ErrorIs(mt, err, ErrReviewNotFound)
	})

	mt.Run("update status success", func(mt *mtest.T) {
		repo := &reviewRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		review := &entity.Review{ID: primitive.NewObjectID(), OwnerID: "owner-1"}
		review.SetStatus(entity.StatusInProgress, time.Now())

		assert.NoError(mt, repo.UpdateStatus(ctx, review))
	})

	mt.Run("delete by product returns deleted count", func(mt *mtest.T) {
		repo := &reviewRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 3}))

		deleted, err := repo.DeleteByProduct(ctx, "owner-1", entity.MarketplaceAmazon, "B08N5WRWNW")

		require.NoError(mt, err)
		assert.Equal(mt, int64(3), deleted)
	})
}
