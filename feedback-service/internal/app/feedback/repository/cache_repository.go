package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"feedbackhub/feedback-service/internal/app/feedback/entity"
	"feedbackhub/pkg/metrics"

	"github.com/redis/go-redis/v9"
)

const (
	knownKeyPrefix  = "known"
	statusKeyPrefix = "import:last"

	// известные id живут дольше статуса, это только ускоритель дедупликации
	knownKeysTTL = 30 * 24 * time.Hour
)

// redisCache реализует Cache поверх Redis
type redisCache struct {
	client    *redis.Client
	statusTTL time.Duration
}

// NewRedisCache создает кэш известных отзывов и статусов импорта
func NewRedisCache(client *redis.Client, statusTTL time.Duration) Cache {
	if statusTTL <= 0 {
		statusTTL = 24 * time.Hour
	}
	return &redisCache{client: client, statusTTL: statusTTL}
}

func knownKey(marketplace entity.Marketplace, ownerID string) string {
	return fmt.Sprintf("%s:%s:%s", knownKeyPrefix, ownerID, marketplace)
}

func statusKey(ownerID string, source entity.SourceKind, identifier string) string {
	return fmt.Sprintf("%s:%s:%s:%s", statusKeyPrefix, ownerID, source, identifier)
}

// IsKnown проверяет множество уже сохраненных внешних id
func (c *redisCache) IsKnown(ctx context.Context, marketplace entity.Marketplace, ownerID, externalID string) (bool, error) {
	known, err := c.client.SIsMember(ctx, knownKey(marketplace, ownerID), externalID).Result()
	if err != nil {
		metrics.RecordRedisError("sismember")
		return false, fmt.Errorf("failed to check known review: %w", err)
	}

	if known {
		metrics.RecordCacheHit(knownKeyPrefix)
	} else {
		metrics.RecordCacheMiss(knownKeyPrefix)
	}
	return known, nil
}

// MarkKnown добавляет внешний id после успешного сохранения отзыва
func (c *redisCache) MarkKnown(ctx context.Context, marketplace entity.Marketplace, ownerID, externalID string) error {
	key := knownKey(marketplace, ownerID)

	pipe := c.client.TxPipeline()
	pipe.SAdd(ctx, key, externalID)
	pipe.Expire(ctx, key, knownKeysTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		metrics.RecordRedisError("sadd")
		return fmt.Errorf("failed to mark review as known: %w", err)
	}

	return nil
}

// ForgetKnown сбрасывает множество площадки, например после каскадного удаления
func (c *redisCache) ForgetKnown(ctx context.Context, marketplace entity.Marketplace, ownerID string) error {
	if err := c.client.Del(ctx, knownKey(marketplace, ownerID)).Err(); err != nil {
		metrics.RecordRedisError("del")
		return fmt.Errorf("failed to forget known reviews: %w", err)
	}
	return nil
}

// SaveImportStatus сохраняет итог последнего импорта с TTL
func (c *redisCache) SaveImportStatus(ctx context.Context, ownerID string, result *entity.ImportResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal import status: %w", err)
	}

	key := statusKey(ownerID, result.Source, result.Identifier)
	if err := c.client.Set(ctx, key, data, c.statusTTL).Err(); err != nil {
		metrics.RecordRedisError("set")
		return fmt.Errorf("failed to save import status: %w", err)
	}

	return nil
}

// GetImportStatus возвращает итог последнего импорта или ErrStatusNotFound
func (c *redisCache) GetImportStatus(ctx context.Context, ownerID string, source entity.SourceKind, identifier string) (*entity.ImportResult, error) {
	data, err := c.client.Get(ctx, statusKey(ownerID, source, identifier)).Bytes()
	if err != nil {
		if err == redis.Nil {
			metrics.RecordCacheMiss(statusKeyPrefix)
			return nil, ErrStatusNotFound
		}
		metrics.RecordRedisError("get")
		return nil, fmt.Errorf("failed to get import status: %w", err)
	}
	metrics.RecordCacheHit(statusKeyPrefix)

	var result entity.ImportResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal import status: %w", err)
	}

	return &result, nil
}
