package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// HTTP Метрики
// =============================================================================

// HttpRequestsTotal - счётчик всех HTTP запросов
// Labels: service, method, path, status
var HttpRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	},
	[]string{"service", "method", "path", "status"},
)

// HttpRequestDuration - гистограмма времени ответа
var HttpRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	},
	[]string{"service", "method", "path"},
)

// HttpRequestsInFlight - текущее количество обрабатываемых запросов
var HttpRequestsInFlight = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "http_requests_in_flight",
		Help: "Current number of HTTP requests being processed",
	},
	[]string{"service"},
)

// =============================================================================
// Хранилища (MongoDB, PostgreSQL)
// =============================================================================

// DbQueryDuration - время выполнения запросов к хранилищам
var DbQueryDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	},
	[]string{"store", "operation", "collection"},
)

// DbErrors - счётчик ошибок хранилищ
var DbErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "db_errors_total",
		Help: "Total number of database errors",
	},
	[]string{"store", "operation"},
)

// =============================================================================
// Redis Метрики
// =============================================================================

var RedisCacheHits = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "redis_cache_hits_total",
		Help: "Total number of Redis cache hits",
	},
	[]string{"key_prefix"},
)

var RedisCacheMisses = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "redis_cache_misses_total",
		Help: "Total number of Redis cache misses",
	},
	[]string{"key_prefix"},
)

var RedisErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "redis_errors_total",
		Help: "Total number of Redis errors",
	},
	[]string{"operation"},
)

// =============================================================================
// Kafka Метрики
// =============================================================================

var KafkaMessagesProduced = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_messages_produced_total",
		Help: "Total number of Kafka messages produced",
	},
	[]string{"topic"},
)

var KafkaMessagesConsumed = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_messages_consumed_total",
		Help: "Total number of Kafka messages consumed",
	},
	[]string{"topic", "group"},
)

var KafkaProduceDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "kafka_produce_duration_seconds",
		Help:    "Duration of Kafka produce operations",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	},
	[]string{"topic"},
)

// KafkaErrors - ошибки Kafka
// operation: produce, consume
var KafkaErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_errors_total",
		Help: "Total number of Kafka errors",
	},
	[]string{"topic", "operation"},
)

// =============================================================================
// Ingestion Метрики
// =============================================================================

// IngestionRuns - запуски оркестратора
// result: success, failed
var IngestionRuns = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ingestion_runs_total",
		Help: "Total number of ingestion orchestrator runs",
	},
	[]string{"source", "result"},
)

// IngestionItems - исход обработки отдельных элементов
// outcome: imported, duplicate, failed
var IngestionItems = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ingestion_items_total",
		Help: "Total number of ingested items by outcome",
	},
	[]string{"source", "outcome"},
)

// IngestionDuration - длительность одного запуска
var IngestionDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "ingestion_run_duration_seconds",
		Help:    "Duration of ingestion orchestrator runs",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
	},
	[]string{"source"},
)

// EnrichmentInFlight - количество одновременно обогащаемых элементов
var EnrichmentInFlight = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "enrichment_in_flight",
		Help: "Current number of items in the enrichment stage",
	},
)

// AIRequestDuration - время вызова AI модели
// operation: classify, draft, classify_and_draft
var AIRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "ai_request_duration_seconds",
		Help:    "Duration of AI model calls",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	},
	[]string{"operation", "status"},
)

// ProviderRequests - запросы к внешним источникам отзывов
var ProviderRequests = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "provider_requests_total",
		Help: "Total number of requests to review providers",
	},
	[]string{"provider", "result"},
)

// ProviderFallbacks - какой провайдер обслужил запрос роутера
var ProviderFallbacks = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "provider_fallback_total",
		Help: "Requests served by a fallback router, by serving provider",
	},
	[]string{"router", "served_by"},
)

// ProviderBreakerState - состояние circuit breaker (0=closed, 1=half-open, 2=open)
var ProviderBreakerState = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "provider_circuit_breaker_state",
		Help: "Current state of the provider circuit breaker",
	},
	[]string{"provider"},
)
