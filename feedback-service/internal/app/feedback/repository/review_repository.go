package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"feedbackhub/feedback-service/internal/app/feedback/entity"
	"feedbackhub/pkg/logger"
	"feedbackhub/pkg/metrics"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	reviewsCollection = "reviews"
	mongoStore        = "mongodb"
)

type reviewRepository struct {
	collection *mongo.Collection
}

// NewReviewRepository создает репозиторий отзывов и индексы коллекции.
// Частичный уникальный индекс по ключу дедупликации страхует от гонки двух импортов
func NewReviewRepository(db *mongo.Database) ReviewRepository {
	collection := db.Collection(reviewsCollection)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "marketplace", Value: 1},
				{Key: "external_review_id", Value: 1},
				{Key: "owner_id", Value: 1},
			},
			Options: options.Index().
				SetName("dedup_key_idx").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"external_review_id": bson.M{"$exists": true}}),
		},
		{
			Keys:    bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("owner_created_idx"),
		},
		{
			Keys:    bson.D{{Key: "owner_id", Value: 1}, {Key: "marketplace", Value: 1}, {Key: "product_id", Value: 1}},
			Options: options.Index().SetName("owner_product_idx"),
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		// индексы могут уже существовать, работу не прерываем
		logger.Warn().Err(err).Str("collection", reviewsCollection).Msg("Failed to create review indexes")
	}

	return &reviewRepository{collection: collection}
}

// Exists проверяет наличие отзыва по ключу дедупликации. Только чтение
func (r *reviewRepository) Exists(ctx context.Context, marketplace entity.Marketplace, externalID, ownerID string) (bool, error) {
	timer := metrics.NewDbTimer(mongoStore, metrics.DbOpSelect, reviewsCollection)

	filter := bson.M{
		"marketplace":        marketplace,
		"external_review_id": externalID,
		"owner_id":           ownerID,
	}
	opts := options.FindOne().SetProjection(bson.M{"_id": 1})

	var found struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	err := r.collection.FindOne(ctx, filter, opts).Decode(&found)
	if errors.Is(err, mongo.ErrNoDocuments) {
		timer.Done(nil)
		return false, nil
	}
	timer.Done(err)
	if err != nil {
		return false, fmt.Errorf("failed to check review existence: %w", err)
	}

	return true, nil
}

// Create сохраняет новый отзыв. Нарушение уникального индекса -> ErrDuplicateReview
func (r *reviewRepository) Create(ctx context.Context, review *entity.Review) error {
	timer := metrics.NewDbTimer(mongoStore, metrics.DbOpInsert, reviewsCollection)

	if review.ImportedAt.IsZero() {
		review.ImportedAt = time.Now().UTC()
	}

	result, err := r.collection.InsertOne(ctx, review)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			timer.Done(nil)
			return ErrDuplicateReview
		}
		timer.Done(err)
		return fmt.Errorf("failed to create review: %w", err)
	}
	timer.Done(nil)

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		review.ID = oid
	}

	return nil
}

// ListByOwner возвращает все отзывы аккаунта, новые сверху
func (r *reviewRepository) ListByOwner(ctx context.Context, ownerID string) ([]entity.Review, error) {
	timer := metrics.NewDbTimer(mongoStore, metrics.DbOpSelect, reviewsCollection)

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"owner_id": ownerID}, opts)
	if err != nil {
		timer.Done(err)
		return nil, fmt.Errorf("failed to find reviews: %w", err)
	}
	defer cursor.Close(ctx)

	reviews := make([]entity.Review, 0)
	if err := cursor.All(ctx, &reviews); err != nil {
		timer.Done(err)
		return nil, fmt.Errorf("failed to decode reviews: %w", err)
	}
	timer.Done(nil)

	return reviews, nil
}

// GetByID получает отзыв по ID в пределах аккаунта
func (r *reviewRepository) GetByID(ctx context.Context, id, ownerID string) (*entity.Review, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidReviewID
	}

	timer := metrics.NewDbTimer(mongoStore, metrics.DbOpSelect, reviewsCollection)

	var review entity.Review
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID, "owner_id": ownerID}).Decode(&review)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			timer.Done(nil)
			return nil, ErrReviewNotFound
		}
		timer.Done(err)
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	timer.Done(nil)

	return &review, nil
}

// UpdateStatus сохраняет только поля workflow, содержимое отзыва не трогается
func (r *reviewRepository) UpdateStatus(ctx context.Context, review *entity.Review) error {
	timer := metrics.NewDbTimer(mongoStore, metrics.DbOpUpdate, reviewsCollection)

	filter := bson.M{"_id": review.ID, "owner_id": review.OwnerID}
	update := bson.M{
		"$set": bson.M{
			"status":       review.Status,
			"responded_at": review.RespondedAt,
			"resolved_at":  review.ResolvedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	timer.Done(err)
	if err != nil {
		return fmt.Errorf("failed to update review status: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrReviewNotFound
	}

	return nil
}

func productFilter(ownerID string, marketplace entity.Marketplace, productID string) bson.M {
	return bson.M{
		"owner_id":    ownerID,
		"marketplace": marketplace,
		"product_id":  productID,
	}
}

// CountByProduct считает отзывы, привязанные к товару
func (r *reviewRepository) CountByProduct(ctx context.Context, ownerID string, marketplace entity.Marketplace, productID string) (int64, error) {
	timer := metrics.NewDbTimer(mongoStore, metrics.DbOpSelect, reviewsCollection)

	count, err := r.collection.CountDocuments(ctx, productFilter(ownerID, marketplace, productID))
	timer.Done(err)
	if err != nil {
		return 0, fmt.Errorf("failed to count reviews: %w", err)
	}

	return count, nil
}

// DeleteByProduct удаляет отзывы товара (каскад при удалении товара)
func (r *reviewRepository) DeleteByProduct(ctx context.Context, ownerID string, marketplace entity.Marketplace, productID string) (int64, error) {
	timer := metrics.NewDbTimer(mongoStore, metrics.DbOpDelete, reviewsCollection)

	result, err := r.collection.DeleteMany(ctx, productFilter(ownerID, marketplace, productID))
	timer.Done(err)
	if err != nil {
		return 0, fmt.Errorf("failed to delete reviews: %w", err)
	}

	return result.DeletedCount, nil
}
