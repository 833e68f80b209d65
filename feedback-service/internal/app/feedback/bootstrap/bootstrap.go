// Package bootstrap собирает зависимости, общие для API и воркера
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"feedbackhub/feedback-service/internal/app/feedback/config"
	"feedbackhub/feedback-service/internal/app/feedback/dedup"
	"feedbackhub/feedback-service/internal/app/feedback/enrichment"
	"feedbackhub/feedback-service/internal/app/feedback/entity"
	"feedbackhub/feedback-service/internal/app/feedback/infrastructure/ai/openai"
	"feedbackhub/feedback-service/internal/app/feedback/infrastructure/messaging"
	"feedbackhub/feedback-service/internal/app/feedback/infrastructure/storage"
	"feedbackhub/feedback-service/internal/app/feedback/repository"
	"feedbackhub/feedback-service/internal/app/feedback/service"
	"feedbackhub/feedback-service/internal/app/feedback/source"
	"feedbackhub/pkg/logger"
)

const connectAttempts = 10

// Infra - подключения к внешним системам
type Infra struct {
	Mongo    *mongo.Client
	Gorm     *gorm.DB
	Pgx      *pgxpool.Pool
	Redis    *redis.Client
	Events   *messaging.KafkaProducer
	Requests *messaging.KafkaProducer
	// nil, если архив не настроен
	Archive *storage.RawArchive

	mongoDatabase string
}

// Connect поднимает все подключения с повторами, как при старте в Docker
func Connect(ctx context.Context, cfg *config.Config) (*Infra, error) {
	infra := &Infra{mongoDatabase: cfg.MongoDB.Database}
	var err error

	if infra.Mongo, err = connectMongoDB(cfg.MongoDB); err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	logger.Info().Str("database", cfg.MongoDB.Database).Msg("Connected to MongoDB")

	if infra.Gorm, err = connectGorm(cfg.Postgres); err != nil {
		infra.Close()
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	if err := infra.Gorm.AutoMigrate(&entity.Product{}); err != nil {
		infra.Close()
		return nil, fmt.Errorf("failed to migrate products: %w", err)
	}
	logger.Info().Str("database", cfg.Postgres.DBName).Msg("Connected to PostgreSQL (gorm)")

	if infra.Pgx, err = connectPgx(ctx, cfg.Postgres); err != nil {
		infra.Close()
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	if _, err := infra.Pgx.Exec(ctx, repository.HistorySchema); err != nil {
		infra.Close()
		return nil, fmt.Errorf("failed to create product history table: %w", err)
	}
	logger.Info().Msg("Connected to PostgreSQL (pgx)")

	if infra.Redis, err = connectRedis(ctx, cfg.Redis); err != nil {
		infra.Close()
		return nil, err
	}
	logger.Info().Str("address", cfg.Redis.Address()).Msg("Connected to Redis")

	infra.Events = messaging.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.EventsTopic)
	infra.Requests = messaging.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.RequestsTopic)
	logger.Info().
		Str("events_topic", cfg.Kafka.EventsTopic).
		Str("requests_topic", cfg.Kafka.RequestsTopic).
		Msg("Initialized Kafka producers")

	if cfg.Storage.Enabled() {
		s := cfg.Storage
		infra.Archive, err = storage.NewRawArchive(ctx, s.Endpoint, s.Region, s.Bucket, s.AccessKey, s.SecretKey, s.UseSSL)
		if err != nil {
			// архив не обязателен для импорта
			logger.Warn().Err(err).Msg("Raw archive unavailable, continuing without it")
			infra.Archive = nil
		} else {
			logger.Info().Str("bucket", s.Bucket).Msg("Raw archive enabled")
		}
	}

	return infra, nil
}

func (i *Infra) Close() {
	if i.Events != nil {
		i.Events.Close()
	}
	if i.Requests != nil {
		i.Requests.Close()
	}
	if i.Redis != nil {
		i.Redis.Close()
	}
	if i.Pgx != nil {
		i.Pgx.Close()
	}
	if i.Gorm != nil {
		if sqlDB, err := i.Gorm.DB(); err == nil {
			sqlDB.Close()
		}
	}
	if i.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := i.Mongo.Disconnect(ctx); err != nil {
			logger.Error().Err(err).Msg("Error disconnecting from MongoDB")
		}
	}
}

// Ping* используются healthcheck'ами
func (i *Infra) PingMongo(ctx context.Context) error { return i.Mongo.Ping(ctx, nil) }
func (i *Infra) PingRedis(ctx context.Context) error { return i.Redis.Ping(ctx).Err() }
func (i *Infra) PingPgx(ctx context.Context) error   { return i.Pgx.Ping(ctx) }

func (i *Infra) PingGorm(ctx context.Context) error {
	sqlDB, err := i.Gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Services - собранный слой бизнес-логики
type Services struct {
	Ingestion *service.IngestionService
	Reviews   *service.ReviewService
	Products  *service.ProductService
	Analytics *service.AnalyticsService
	Mailbox   *service.MailboxService
	Publisher *service.IngestPublisher

	ProductRepo repository.ProductRepository
}

func NewServices(cfg *config.Config, infra *Infra) *Services {
	db := infra.Mongo.Database(infra.mongoDatabase)

	reviewRepo := repository.NewReviewRepository(db)
	productRepo := repository.NewProductRepository(infra.Gorm)
	historyRepo := repository.NewProductHistoryRepository(infra.Pgx)
	cache := repository.NewRedisCache(infra.Redis, cfg.Redis.StatusTTL)

	if cfg.AI.APIKey == "" {
		logger.Warn().Msg("AI API key is empty, enrichment calls will fail")
	}
	aiClient := openai.NewClient(cfg.AI.APIKey, cfg.AI.BaseURL, cfg.AI.Model)
	enricher := enrichment.NewService(aiClient, cfg.AI.Timeout)

	mailbox := NewMailboxAdapter(cfg.Providers)
	fetchers := NewFetchers(cfg.Providers, ProviderTimeout(cfg.Ingestion.FetchTimeout), mailbox)

	deps := service.IngestionDeps{
		Cache:  cache,
		Events: infra.Events,
	}
	if infra.Archive != nil {
		deps.Archive = infra.Archive
	}

	return &Services{
		Ingestion: service.NewIngestionService(
			fetchers,
			dedup.NewGate(reviewRepo, cache),
			enricher,
			reviewRepo,
			productRepo,
			deps,
			cfg.Ingestion,
		),
		Reviews:     service.NewReviewService(reviewRepo),
		Products:    service.NewProductService(productRepo, reviewRepo, historyRepo, cache),
		Analytics:   service.NewAnalyticsService(reviewRepo),
		Mailbox:     service.NewMailboxService(mailbox, cfg.Ingestion),
		Publisher:   service.NewIngestPublisher(infra.Requests),
		ProductRepo: productRepo,
	}
}

// ProviderTimeout - лимит одного провайдера внутри роутера. Половина общего
// дедлайна загрузки, чтобы после зависшего основного осталось время на запасной
func ProviderTimeout(fetchTimeout time.Duration) time.Duration {
	return fetchTimeout / 2
}

// NewFetchers собирает роутеры провайдеров для каждого источника.
// Провайдер без ключа остается в роутере и пропускается при вызове
func NewFetchers(p config.ProvidersConfig, timeout time.Duration, mailbox *source.MailboxAdapter) map[entity.SourceKind]source.Fetcher {
	return map[entity.SourceKind]source.Fetcher{
		entity.SourceAmazon: &source.FallbackRouter{
			Name:      "amazon",
			Primary:   source.NewRainforestAdapter(providerClient("amazon-rainforest", p.AmazonPrimary, "api_key")),
			Secondary: source.NewScraperAdapter(providerClient("amazon-scraper", p.AmazonSecondary, "api_key")),
			Timeout:   timeout,
		},
		entity.SourceWalmart: &source.FallbackRouter{
			Name:      "walmart",
			Primary:   source.NewWalmartUSAdapter(providerClient("walmart-us", p.WalmartPrimary, "api_key")),
			Secondary: source.NewWalmartCAAdapter(providerClient("walmart-ca", p.WalmartRegional, "api_key")),
			Timeout:   timeout,
		},
		entity.SourceShopify: source.Single(
			source.NewShopifyAdapter(providerClient("shopify", p.Shopify, "api_token"), p.ShopDomain),
			timeout,
		),
		entity.SourceEmail: source.Single(mailbox, timeout),
	}
}

func NewMailboxAdapter(p config.ProvidersConfig) *source.MailboxAdapter {
	return source.NewMailboxAdapter(providerClient("email", p.Email, ""))
}

func providerClient(name string, p config.ProviderConfig, keyParam string) *source.ProviderClient {
	return source.NewProviderClient(source.ClientConfig{
		Name:     name,
		BaseURL:  p.BaseURL,
		APIKey:   p.APIKey,
		KeyParam: keyParam,
		RPS:      p.RPS,
		Timeout:  p.Timeout,
	})
}

func connectMongoDB(cfg config.MongoDBConfig) (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(cfg.URI)

	var client *mongo.Client
	var err error

	for i := 0; i < connectAttempts; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		client, err = mongo.Connect(ctx, clientOptions)
		cancel()
		if err == nil {
			pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
			err = client.Ping(pingCtx, nil)
			pingCancel()
			if err == nil {
				return client, nil
			}
		}

		logger.Warn().
			Int("attempt", i+1).
			Err(err).
			Msg("Failed to connect to MongoDB, retrying...")
		time.Sleep(3 * time.Second)
	}

	return nil, err
}

func connectGorm(cfg config.PostgresConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	}

	var db *gorm.DB
	var err error

	for i := 0; i < connectAttempts; i++ {
		db, err = gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
		if err == nil {
			sqlDB, sqlErr := db.DB()
			if sqlErr != nil {
				err = sqlErr
			} else if pingErr := sqlDB.Ping(); pingErr != nil {
				err = pingErr
			} else {
				sqlDB.SetMaxOpenConns(10)
				sqlDB.SetMaxIdleConns(5)
				sqlDB.SetConnMaxLifetime(5 * time.Minute)
				sqlDB.SetConnMaxIdleTime(1 * time.Minute)
				return db, nil
			}
		}
		logger.Warn().
			Int("attempt", i+1).
			Err(err).
			Msg("Failed to connect to PostgreSQL, retrying...")
		time.Sleep(3 * time.Second)
	}

	return nil, fmt.Errorf("failed to connect after %d attempts: %w", connectAttempts, err)
}

func connectPgx(ctx context.Context, cfg config.PostgresConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL())
	if err != nil {
		return nil, err
	}
	poolCfg.MaxConns = 5

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func connectRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	for i := 0; i < connectAttempts; i++ {
		if err := client.Ping(ctx).Err(); err == nil {
			return client, nil
		}
		logger.Warn().Int("attempt", i+1).Msg("Failed to connect to Redis, retrying...")
		time.Sleep(3 * time.Second)
	}

	client.Close()
	return nil, fmt.Errorf("failed to connect to Redis after %d attempts", connectAttempts)
}
