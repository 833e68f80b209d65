package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

type Config struct {
	ServiceName  string `env:"SERVICE_NAME" envDefault:"feedback-service"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	LogstashAddr string `env:"LOGSTASH_ADDR"`

	Server    ServerConfig    `envPrefix:"SERVER_"`
	MongoDB   MongoDBConfig   `envPrefix:"MONGODB_"`
	Postgres  PostgresConfig  `envPrefix:"POSTGRES_"`
	Redis     RedisConfig     `envPrefix:"REDIS_"`
	Kafka     KafkaConfig     `envPrefix:"KAFKA_"`
	JWT       JWTConfig       `envPrefix:"JWT_"`
	AI        AIConfig        `envPrefix:"AI_"`
	Providers ProvidersConfig `envPrefix:"PROVIDER_"`
	Ingestion IngestionConfig `envPrefix:"INGESTION_"`
	Cron      CronConfig      `envPrefix:"CRON_"`
	Storage   StorageConfig   `envPrefix:"STORAGE_"`
}

type ServerConfig struct {
	Host       string `env:"HOST" envDefault:"0.0.0.0"`
	Port       string `env:"PORT" envDefault:"8085"`
	WorkerPort string `env:"WORKER_PORT" envDefault:"8086"` // healthcheck воркера
}

type MongoDBConfig struct {
	URI      string `env:"URI" envDefault:"mongodb://localhost:27017"`
	Database string `env:"DATABASE" envDefault:"feedback_service"`
}

// PostgresConfig - товары (gorm) и журнал удалений (pgx) живут в одной базе
type PostgresConfig struct {
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     string `env:"PORT" envDefault:"5432"`
	User     string `env:"USER" envDefault:"postgres"`
	Password string `env:"PASSWORD" envDefault:"postgres"`
	DBName   string `env:"DB" envDefault:"feedback_service"`
	SSLMode  string `env:"SSLMODE" envDefault:"disable"`
}

type RedisConfig struct {
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     string `env:"PORT" envDefault:"6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
	// Срок жизни статуса последнего импорта
	StatusTTL time.Duration `env:"STATUS_TTL" envDefault:"24h"`
}

type KafkaConfig struct {
	Brokers       []string `env:"BROKERS" envDefault:"localhost:9092" envSeparator:","`
	EventsTopic   string   `env:"EVENTS_TOPIC" envDefault:"review_events"`     // REVIEW_IMPORTED
	RequestsTopic string   `env:"REQUESTS_TOPIC" envDefault:"ingest_requests"` // асинхронные запуски импорта
	GroupID       string   `env:"GROUP_ID" envDefault:"feedback-worker"`
	MinBytes      int      `env:"MIN_BYTES" envDefault:"1"`
	MaxBytes      int      `env:"MAX_BYTES" envDefault:"10485760"`
}

type JWTConfig struct {
	Secret string `env:"SECRET" envDefault:"your-secret-key-change-this-in-production"`
}

type AIConfig struct {
	APIKey  string        `env:"OPENAI_API_KEY"`
	BaseURL string        `env:"OPENAI_BASE_URL"`
	Model   string        `env:"MODEL" envDefault:"gpt-4o-mini"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"30s"`
}

type ProviderConfig struct {
	BaseURL string        `env:"BASE_URL"`
	APIKey  string        `env:"API_KEY"`
	RPS     float64       `env:"RPS" envDefault:"2"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"20s"`
}

type ProvidersConfig struct {
	AmazonPrimary   ProviderConfig `envPrefix:"AMAZON_RAINFOREST_"`
	AmazonSecondary ProviderConfig `envPrefix:"AMAZON_SCRAPER_"`
	WalmartPrimary  ProviderConfig `envPrefix:"WALMART_US_"`
	WalmartRegional ProviderConfig `envPrefix:"WALMART_CA_"`
	Shopify         ProviderConfig `envPrefix:"SHOPIFY_"`
	Email           ProviderConfig `envPrefix:"EMAIL_"`

	ShopDomain string `env:"SHOPIFY_SHOP_DOMAIN"`
}

type IngestionConfig struct {
	Concurrency  int           `env:"CONCURRENCY" envDefault:"5"`
	FetchTimeout time.Duration `env:"FETCH_TIMEOUT" envDefault:"45s"`
	MaxItems     int           `env:"MAX_ITEMS" envDefault:"100"`
	ContentCap   int           `env:"CONTENT_CAP" envDefault:"5000"`

	EmailQuickWindow time.Duration `env:"EMAIL_QUICK_WINDOW" envDefault:"24h"`
	EmailQuickLimit  int           `env:"EMAIL_QUICK_LIMIT" envDefault:"50"`
	EmailFullWindow  time.Duration `env:"EMAIL_FULL_WINDOW" envDefault:"720h"`
	EmailFullLimit   int           `env:"EMAIL_FULL_LIMIT" envDefault:"500"`
}

type CronConfig struct {
	ProductSync string `env:"PRODUCT_SYNC" envDefault:"0 */6 * * *"`
	MailboxSync string `env:"MAILBOX_SYNC" envDefault:"*/30 * * * *"`
}

// StorageConfig - архив сырых ответов провайдеров в MinIO, выключен без Endpoint
type StorageConfig struct {
	Endpoint  string `env:"MINIO_ENDPOINT"`
	Region    string `env:"MINIO_REGION" envDefault:"us-east-1"`
	Bucket    string `env:"MINIO_BUCKET" envDefault:"feedback-raw"`
	AccessKey string `env:"MINIO_ACCESS_KEY"`
	SecretKey string `env:"MINIO_SECRET_KEY"`
	UseSSL    bool   `env:"MINIO_USE_SSL" envDefault:"false"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Ingestion.Concurrency <= 0 {
		cfg.Ingestion.Concurrency = 5
	}
	return cfg, nil
}

func (c *ServerConfig) Address() string {
	return c.Host + ":" + c.Port
}

func (c *ServerConfig) WorkerAddress() string {
	return c.Host + ":" + c.WorkerPort
}

// DSN строка подключения для gorm (key=value формат)
func (c *PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.DBName, c.Port, c.SSLMode,
	)
}

// URL строка подключения для pgxpool
func (c *PostgresConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

func (c *RedisConfig) Address() string {
	return c.Host + ":" + c.Port
}

func (c *StorageConfig) Enabled() bool {
	return c.Endpoint != ""
}

func (p ProviderConfig) Configured() bool {
	return p.APIKey != "" && p.BaseURL != ""
}
