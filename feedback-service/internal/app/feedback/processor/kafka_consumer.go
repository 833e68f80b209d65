package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"feedbackhub/feedback-service/internal/app/feedback/entity"
	"feedbackhub/feedback-service/internal/app/feedback/source"
	"feedbackhub/pkg/logger"
	"feedbackhub/pkg/metrics"
)

const (
	defaultMaxAttempts  = 4
	defaultRetryBackoff = 2 * time.Second
)

var (
	// errMalformed - сообщение не разбирается, повторять бессмысленно
	errMalformed = errors.New("malformed ingest request")
	// errStopping - повтор прерван остановкой, offset не коммитится
	errStopping  = errors.New("consumer stopping")
)

// KafkaConsumer выполняет запросы импорта из топика ingest_requests
type KafkaConsumer struct {
	reader    *kafka.Reader
	topic     string
	groupID   string
	ingestion IngestionRunner
	stopChan  chan struct{}
	doneChan  chan struct{}

	// временные ошибки повторяются на месте: group reader коммитит
	// старший offset, пропущенное сообщение назад не вернется
	maxAttempts  int
	retryBackoff time.Duration
}

func NewKafkaConsumer(
	brokers []string,
	topic string,
	groupID string,
	minBytes int,
	maxBytes int,
	ingestion IngestionRunner,
) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       minBytes,
		MaxBytes:       maxBytes,
		StartOffset:    kafka.LastOffset,
		CommitInterval: time.Second,
		ReadBackoffMin: 100 * time.Millisecond,
		ReadBackoffMax: 1 * time.Second,
	})

	return &KafkaConsumer{
		reader:    reader,
		topic:     topic,
		groupID:   groupID,
		ingestion: ingestion,
		stopChan:  make(chan struct{}),
		doneChan:  make(chan struct{}),

		maxAttempts:  defaultMaxAttempts,
		retryBackoff: defaultRetryBackoff,
	}
}

// Start запускает чтение в отдельной горутине
func (c *KafkaConsumer) Start(ctx context.Context) {
	logger.Info().Str("topic", c.topic).Str("group", c.groupID).Msg("Starting Kafka consumer...")
	go c.consume(ctx)
}

func (c *KafkaConsumer) Stop() {
	logger.Info().Msg("Stopping Kafka consumer...")
	close(c.stopChan)
	<-c.doneChan
	c.reader.Close()
	logger.Info().Msg("Kafka consumer stopped")
}

func (c *KafkaConsumer) consume(ctx context.Context) {
	defer close(c.doneChan)

	for {
		select {
		case <-c.stopChan:
			return
		default:
			readCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			message, err := c.reader.FetchMessage(readCtx)
			cancel()

			if err != nil {
				if ctx.Err() != nil {
					return
				}
				if errors.Is(err, context.DeadlineExceeded) {
					continue
				}
				logger.Error().Err(err).Str("topic", c.topic).Msg("Error fetching message")
				metrics.RecordKafkaConsumeError(c.topic)
				time.Sleep(time.Second)
				continue
			}

			if err := c.handleMessage(ctx, message); err != nil {
				if ctx.Err() != nil || errors.Is(err, errStopping) {
					return
				}
				logger.Error().Err(err).Int64("offset", message.Offset).Msg("Giving up on ingest request")
				metrics.RecordKafkaConsumeError(c.topic)
			}

			if err := c.reader.CommitMessages(ctx, message); err != nil {
				logger.Error().Err(err).Msg("Error committing message")
			}
		}
	}
}

// handleMessage повторяет временные ошибки с растущей паузой, пока не кончатся
// попытки. Постоянная ошибка не повторяется, сообщение просто коммитится
func (c *KafkaConsumer) handleMessage(ctx context.Context, message kafka.Message) error {
	attempts := max(c.maxAttempts, 1)
	backoff := c.retryBackoff

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = c.processMessage(ctx, message)
		if err == nil || permanent(err) || attempt == attempts {
			break
		}

		logger.Warn().
			Err(err).
			Int64("offset", message.Offset).
			Int("attempt", attempt).
			Dur("backoff", backoff).
			Msg("Retrying ingest request")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.stopChan:
			return errStopping
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	if err != nil && permanent(err) {
		return nil
	}
	return err
}

// processMessage запускает оркестратор для одного запроса
func (c *KafkaConsumer) processMessage(ctx context.Context, message kafka.Message) error {
	metrics.RecordKafkaMessageConsumed(c.topic, c.groupID)

	var req entity.IngestRequest
	if err := json.Unmarshal(message.Value, &req); err != nil {
		logger.Warn().Err(err).Int64("offset", message.Offset).Msg("Dropping malformed ingest request")
		return fmt.Errorf("%w: %w", errMalformed, err)
	}

	logger.Info().
		Str("source", string(req.Source)).
		Str("identifier", req.Identifier).
		Str("owner_id", req.OwnerID).
		Int64("offset", message.Offset).
		Int("partition", message.Partition).
		Msg("Received ingest request")

	result, err := c.ingestion.Run(ctx, req)
	if err != nil {
		if permanent(err) {
			logger.Warn().Err(err).Str("source", string(req.Source)).Msg("Dropping ingest request")
		}
		return fmt.Errorf("failed to run import: %w", err)
	}

	logger.Info().
		Str("source", string(req.Source)).
		Str("identifier", result.Identifier).
		Int("imported", result.Imported).
		Int("skipped", result.Skipped).
		Msg(result.Message)

	return nil
}

// permanent - ошибка не исчезнет при повторе: сообщение коммитится
func permanent(err error) bool {
	if errors.Is(err, errMalformed) {
		return true
	}
	switch source.Classify(err) {
	case source.KindValidation, source.KindConfiguration, source.KindAuth:
		return true
	}
	return false
}
