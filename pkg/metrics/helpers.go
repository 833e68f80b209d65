package metrics

import (
	"time"
)

type DbOperation string

const (
	DbOpSelect DbOperation = "select"
	DbOpInsert DbOperation = "insert"
	DbOpUpdate DbOperation = "update"
	DbOpDelete DbOperation = "delete"
)

type DbTimer struct {
	store      string
	operation  DbOperation
	collection string
	start      time.Time
}

func NewDbTimer(store string, op DbOperation, collection string) *DbTimer {
	return &DbTimer{
		store:      store,
		operation:  op,
		collection: collection,
		start:      time.Now(),
	}
}

// Done фиксирует длительность и, при ошибке, счётчик ошибок
func (dt *DbTimer) Done(err error) {
	DbQueryDuration.WithLabelValues(dt.store, string(dt.operation), dt.collection).Observe(time.Since(dt.start).Seconds())
	if err != nil {
		DbErrors.WithLabelValues(dt.store, string(dt.operation)).Inc()
	}
}

func RecordCacheHit(keyPrefix string) {
	RedisCacheHits.WithLabelValues(keyPrefix).Inc()
}

func RecordCacheMiss(keyPrefix string) {
	RedisCacheMisses.WithLabelValues(keyPrefix).Inc()
}

func RecordRedisError(operation string) {
	RedisErrors.WithLabelValues(operation).Inc()
}

type KafkaProduceTimer struct {
	topic string
	start time.Time
}

func NewKafkaProduceTimer(topic string) *KafkaProduceTimer {
	return &KafkaProduceTimer{
		topic: topic,
		start: time.Now(),
	}
}

func (kt *KafkaProduceTimer) Success() {
	KafkaMessagesProduced.WithLabelValues(kt.topic).Inc()
	KafkaProduceDuration.WithLabelValues(kt.topic).Observe(time.Since(kt.start).Seconds())
}

func (kt *KafkaProduceTimer) Error() {
	KafkaErrors.WithLabelValues(kt.topic, "produce").Inc()
}

func RecordKafkaMessageConsumed(topic, group string) {
	KafkaMessagesConsumed.WithLabelValues(topic, group).Inc()
}

func RecordKafkaConsumeError(topic string) {
	KafkaErrors.WithLabelValues(topic, "consume").Inc()
}

// AITimer измеряет длительность одного вызова модели
type AITimer struct {
	operation string
	start     time.Time
}

func NewAITimer(operation string) *AITimer {
	return &AITimer{operation: operation, start: time.Now()}
}

func (t *AITimer) Done(err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	AIRequestDuration.WithLabelValues(t.operation, status).Observe(time.Since(t.start).Seconds())
}

// RecordIngestionRun фиксирует итог запуска оркестратора
func RecordIngestionRun(source string, imported, duplicates, failed int, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "failed"
	}
	IngestionRuns.WithLabelValues(source, result).Inc()
	IngestionDuration.WithLabelValues(source).Observe(duration.Seconds())

	IngestionItems.WithLabelValues(source, "imported").Add(float64(imported))
	IngestionItems.WithLabelValues(source, "duplicate").Add(float64(duplicates))
	IngestionItems.WithLabelValues(source, "failed").Add(float64(failed))
}

func RecordProviderRequest(provider string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	ProviderRequests.WithLabelValues(provider, result).Inc()
}

func RecordFallback(router, servedBy string) {
	ProviderFallbacks.WithLabelValues(router, servedBy).Inc()
}
