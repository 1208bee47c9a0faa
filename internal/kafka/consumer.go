package kafka

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go-mediaflow/internal/observability"

	"go-mediaflow/pkg/models"

	kafka "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// BatchHandler processes one batch delivery and reports the identifiers
// of the records it could not process. Records it leaves untouched when
// the handler context expires must also be reported failed.
type BatchHandler func(ctx context.Context, batch []*models.Message) models.BatchOutcome

// ConsumerClient defines the interface for queue consumer operations
type ConsumerClient interface {
	Start(ctx context.Context, handler BatchHandler) error
	Close() error
}

// Consumer implements ConsumerClient with batch delivery, per-record
// failure routing to retry topics, and dead-lettering of the original
// envelope once the retry budget is spent.
type Consumer struct {
	reader           *kafka.Reader
	producer         ProducerClient
	logger           *logrus.Logger
	metrics          observability.MetricsCollector
	batchSize        int
	batchWindow      time.Duration
	handlerTimeout   time.Duration
	retryMax         int
	retryTopicPrefix string
	dlqTopic         string
	dedupeStore      DedupeStore
}

type ConsumerConfig struct {
	Brokers          []string
	Topic            string
	GroupID          string
	BatchSize        int
	BatchWindow      time.Duration
	HandlerTimeout   time.Duration
	RetryMax         int
	FetchMinBytes    int
	FetchMaxBytes    int
	RetryTopicPrefix string
	DLQTopic         string
	Metrics          observability.MetricsCollector
	DedupeStore      DedupeStore
}

// DedupeStore provides interface for message deduplication
type DedupeStore interface {
	Exists(messageID string) bool
	Add(messageID string) error
}

func NewConsumer(cfg ConsumerConfig, producer ProducerClient) *Consumer {
	if cfg.Metrics == nil {
		cfg.Metrics = observability.NewInMemoryMetrics()
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 5
	}
	if cfg.BatchWindow == 0 {
		cfg.BatchWindow = 5 * time.Second
	}
	if cfg.HandlerTimeout == 0 {
		cfg.HandlerTimeout = 30 * time.Second
	}

	// A worker drains its retry topics alongside the base topic, so a
	// redelivered record lands back in the same handler.
	topics := []string{cfg.Topic}
	if cfg.RetryTopicPrefix != "" {
		for attempt := 1; attempt <= cfg.RetryMax; attempt++ {
			topics = append(topics, fmt.Sprintf("%s-%d", cfg.RetryTopicPrefix, attempt))
		}
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupTopics: topics,
		GroupID:     cfg.GroupID,
		MinBytes:    cfg.FetchMinBytes,
		MaxBytes:    cfg.FetchMaxBytes,
		MaxWait:     cfg.BatchWindow,
		// Manual commits: a delivery is acknowledged only after its
		// failure, if any, has been routed forward.
		CommitInterval: 0,
		StartOffset:    kafka.LastOffset,
	})

	return &Consumer{
		reader:           reader,
		producer:         producer,
		logger:           observability.GetLogger(),
		metrics:          cfg.Metrics,
		batchSize:        cfg.BatchSize,
		batchWindow:      cfg.BatchWindow,
		handlerTimeout:   cfg.HandlerTimeout,
		retryMax:         cfg.RetryMax,
		retryTopicPrefix: cfg.RetryTopicPrefix,
		dlqTopic:         cfg.DLQTopic,
		dedupeStore:      cfg.DedupeStore,
	}
}

// Start consumes batches until ctx is canceled.
func (c *Consumer) Start(ctx context.Context, handler BatchHandler) error {
	c.logger.WithField("batch_size", c.batchSize).Info("Starting consumer")

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Consumer stopping due to context cancellation")
			return nil
		default:
		}

		batch := c.fetchBatch(ctx)
		if len(batch) == 0 {
			continue
		}
		c.processBatch(ctx, batch, handler)
	}
}

// fetchBatch blocks for the first message, then fills the batch for at
// most one batch window.
func (c *Consumer) fetchBatch(ctx context.Context) []kafka.Message {
	first, err := c.reader.FetchMessage(ctx)
	if err != nil {
		if ctx.Err() == nil {
			c.logger.WithError(err).Error("Failed to fetch message")
		}
		return nil
	}

	batch := []kafka.Message{first}
	if c.batchSize <= 1 {
		return batch
	}

	windowCtx, cancel := context.WithTimeout(ctx, c.batchWindow)
	defer cancel()
	for len(batch) < c.batchSize {
		msg, err := c.reader.FetchMessage(windowCtx)
		if err != nil {
			break
		}
		batch = append(batch, msg)
	}
	return batch
}

// processBatch converts a fetched batch, dispatches it, and commits the
// offsets only once every failure has been routed forward. A batch
// whose failures could not all be forwarded is left uncommitted and
// redelivered whole; effects are idempotent, so reprocessing the
// successful records is safe.
func (c *Consumer) processBatch(ctx context.Context, kafkaMsgs []kafka.Message, handler BatchHandler) {
	msgs := make([]*models.Message, 0, len(kafkaMsgs))
	for _, kafkaMsg := range kafkaMsgs {
		c.metrics.IncReceived()
		msgs = append(msgs, c.toInternalMessage(kafkaMsg))
	}

	if !c.dispatch(ctx, msgs, handler) {
		c.logger.WithField("batch_size", len(kafkaMsgs)).
			Warn("Not all failures were routed forward, leaving batch uncommitted for redelivery")
		return
	}
	c.commitMessages(kafkaMsgs)
}

// dispatch hands the batch to the handler under the handler deadline
// and routes each failed record independently; sibling records are
// unaffected by one record's failure. It reports whether every failed
// record was forwarded to a retry topic, the DLQ, or a terminal drop,
// so the caller knows the batch offsets are safe to commit.
func (c *Consumer) dispatch(ctx context.Context, msgs []*models.Message, handler BatchHandler) bool {
	batch := make([]*models.Message, 0, len(msgs))
	for _, msg := range msgs {
		if msgID, ok := msg.Headers[models.HeaderMessageID]; ok && c.dedupeStore != nil {
			if c.dedupeStore.Exists(msgID) {
				c.logger.WithFields(logrus.Fields{
					"message_id": msgID,
					"topic":      msg.Topic,
				}).Info("Duplicate message detected, skipping")
				continue
			}
		}
		batch = append(batch, msg)
	}
	if len(batch) == 0 {
		return true
	}

	handlerCtx, cancel := context.WithTimeout(ctx, c.handlerTimeout)
	outcome := handler(handlerCtx, batch)
	cancel()

	allRouted := true
	for _, msg := range batch {
		id := msg.Identifier()
		if outcome.Failed(id) {
			c.metrics.IncFailed()
			if !c.routeFailure(ctx, msg, outcome.FailureReason(id)) {
				allRouted = false
			}
			continue
		}
		c.metrics.IncProcessed()
		if msgID, ok := msg.Headers[models.HeaderMessageID]; ok && c.dedupeStore != nil {
			c.dedupeStore.Add(msgID)
		}
	}
	return allRouted
}

// routeFailure republishes a failed record to the next retry topic, or
// to the dead-letter topic once the attempt budget is exhausted. The
// record's value travels untouched either way, so the dead-letter queue
// holds original envelopes, not derived payloads. It reports whether
// the record was forwarded (or terminally dropped after a spent retry
// budget); false means the offset must not be committed.
func (c *Consumer) routeFailure(ctx context.Context, msg *models.Message, reason string) bool {
	retryCount := c.getRetryCount(msg)

	headers := make(map[string]string, len(msg.Headers)+4)
	for k, v := range msg.Headers {
		headers[k] = v
	}
	if _, ok := headers[models.HeaderOriginalTopic]; !ok {
		headers[models.HeaderOriginalTopic] = msg.Topic
	}
	if reason != "" {
		headers[models.HeaderFailureReason] = reason
	}

	logger := c.logger.WithFields(logrus.Fields{
		"message_id":  msg.Identifier(),
		"retry_count": retryCount,
		"reason":      reason,
	})

	if c.retryTopicPrefix != "" && retryCount < c.retryMax {
		headers[models.HeaderRetryCount] = strconv.Itoa(retryCount + 1)
		retryTopic := fmt.Sprintf("%s-%d", c.retryTopicPrefix, retryCount+1)
		if err := c.producer.Publish(ctx, retryTopic, msg.Key, msg.Value, headers); err != nil {
			logger.WithError(err).Error("Failed to send message to retry topic")
			return false
		}
		c.metrics.IncRetried()
		logger.WithField("topic", retryTopic).Info("Message sent to retry topic")
		return true
	}

	if c.dlqTopic != "" {
		headers[models.HeaderProcessedAt] = time.Now().Format(time.RFC3339)
		if err := c.producer.Publish(ctx, c.dlqTopic, msg.Key, msg.Value, headers); err != nil {
			logger.WithError(err).Error("Failed to send message to DLQ")
			return false
		}
		c.metrics.IncSentToDLQ()
		logger.WithField("topic", c.dlqTopic).Info("Message sent to DLQ")
		return true
	}

	if c.retryTopicPrefix == "" {
		// no forwarding path configured at all: the record must come
		// back via the uncommitted offset, not vanish
		logger.Error("No retry topic or DLQ configured, leaving record for redelivery")
		return false
	}

	c.metrics.IncDropped()
	logger.Warn("Retries exhausted and no DLQ configured, dropping message")
	return true
}

// commitMessages commits the batch offsets
func (c *Consumer) commitMessages(msgs []kafka.Message) {
	if err := c.reader.CommitMessages(context.Background(), msgs...); err != nil {
		c.logger.WithError(err).Error("Failed to commit messages")
	}
}

// toInternalMessage converts a Kafka message to the internal format
func (c *Consumer) toInternalMessage(kafkaMsg kafka.Message) *models.Message {
	headers := make(map[string]string)
	for _, h := range kafkaMsg.Headers {
		headers[h.Key] = string(h.Value)
	}

	return &models.Message{
		ID:        headers[models.HeaderMessageID],
		Topic:     kafkaMsg.Topic,
		Partition: kafkaMsg.Partition,
		Offset:    kafkaMsg.Offset,
		Key:       string(kafkaMsg.Key),
		Value:     kafkaMsg.Value,
		Headers:   headers,
		Timestamp: kafkaMsg.Time,
	}
}

// getRetryCount extracts the attempt count from message headers
func (c *Consumer) getRetryCount(msg *models.Message) int {
	if countStr, ok := msg.Headers[models.HeaderRetryCount]; ok {
		if count, err := strconv.Atoi(countStr); err == nil {
			return count
		}
	}
	return 0
}

// Close gracefully shuts down the consumer
func (c *Consumer) Close() error {
	c.logger.Info("Closing consumer")
	if err := c.reader.Close(); err != nil {
		return fmt.Errorf("failed to close consumer: %w", err)
	}
	return nil
}
