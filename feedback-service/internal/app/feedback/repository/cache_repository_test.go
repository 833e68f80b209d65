package repository

import (
	"context"
	"testing"
	"time"

	"feedbackhub/feedback-service/internal/app/feedback/entity"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// RedisCacheTestSuite тестовый suite для Redis кэша
type RedisCacheTestSuite struct {
	suite.Suite
	miniRedis *miniredis.Miniredis
	client    *redis.Client
	cache     Cache
}

func TestRedisCacheSuite(t *testing.T) {
	suite.Run(t, new(RedisCacheTestSuite))
}

func (s *RedisCacheTestSuite) SetupSuite() {
	var err error
	s.miniRedis, err = miniredis.Run()
	require.NoError(s.T(), err)

	s.client = redis.NewClient(&redis.Options{Addr: s.miniRedis.Addr()})
	s.cache = NewRedisCache(s.client, time.Hour)
}

func (s *RedisCacheTestSuite) SetupTest() {
	s.miniRedis.FlushAll()
}

func (s *RedisCacheTestSuite) TearDownSuite() {
	s.client.Close()
	s.miniRedis.Close()
}

// ===================== Known keys =====================

func (s *RedisCacheTestSuite) TestIsKnown_UnknownByDefault() {
	known, err := s.cache.IsKnown(context.Background(), entity.MarketplaceAmazon, "owner-1", "R1")

	s.NoError(err)
	s.False(known)
}

func (s *RedisCacheTestSuite) TestMarkKnown_ScopedByOwnerAndMarketplace() {
	ctx := context.Background()

	s.NoError(s.cache.MarkKnown(ctx, entity.MarketplaceAmazon, "owner-1", "R1"))

	known, err := s.cache.IsKnown(ctx, entity.MarketplaceAmazon, "owner-1", "R1")
	s.NoError(err)
	s.True(known)

	known, _ = s.cache.IsKnown(ctx, entity.MarketplaceAmazon, "owner-2", "R1")
	s.False(known)

	known, _ = s.cache.IsKnown(ctx, entity.MarketplaceWalmart, "owner-1", "R1")
	s.False(known)

	s.True(s.miniRedis.TTL("known:owner-1:Amazon") > 0)
}

func (s *RedisCacheTestSuite) TestForgetKnown() {
	ctx := context.Background()
	s.NoError(s.cache.MarkKnown(ctx, entity.MarketplaceShopify, "owner-1", "991"))

	s.NoError(s.cache.ForgetKnown(ctx, entity.MarketplaceShopify, "owner-1"))

	known, err := s.cache.IsKnown(ctx, entity.MarketplaceShopify, "owner-1", "991")
	s.NoError(err)
	s.False(known)
}

// ===================== Import status =====================

func (s *RedisCacheTestSuite) TestImportStatus_RoundTripWithTTL() {
	ctx := context.Background()
	result := &entity.ImportResult{
		Source:     entity.SourceWalmart,
		Identifier: "314022535",
		Imported:   4,
		Skipped:    1,
		ServedBy:   "walmart-ca",
	}

	s.NoError(s.cache.SaveImportStatus(ctx, "owner-1", result))

	stored, err := s.cache.GetImportStatus(ctx, "owner-1", entity.SourceWalmart, "314022535")
	s.NoError(err)
	s.Equal(4, stored.Imported)
	s.Equal("walmart-ca", stored.ServedBy)
	s.Equal(time.Hour, s.miniRedis.TTL("import:last:owner-1:walmart:314022535"))
}

func (s *RedisCacheTestSuite) TestImportStatus_NotFound() {
	_, err := s.cache.GetImportStatus(context.Background(), "owner-1", entity.SourceAmazon, "B08N5WRWNW")

	s.ErrorIs(err, ErrStatusNotFound)
}

func (s *RedisCacheTestSuite) TestImportStatus_Expires() {
	ctx := context.Background()
	s.NoError(s.cache.SaveImportStatus(ctx, "owner-1", &entity.ImportResult{Source: entity.SourceShopify, Identifier: "mug"}))

	s.miniRedis.FastForward(2 * time.Hour)

	_, err := s.cache.GetImportStatus(ctx, "owner-1", entity.SourceShopify, "mug")
	s.ErrorIs(err, ErrStatusNotFound)
}
