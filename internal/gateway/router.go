package gateway

import (
	"context"

	"go-mediaflow/internal/event"
	"go-mediaflow/internal/kafka"
	"go-mediaflow/internal/observability"
	"go-mediaflow/pkg/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Router is the fan-out stage between the inbound topic and the
// consumer queues. Storage events go to the ingest and notify queues
// unfiltered; metadata updates pass to the metadata queue only when
// their attribute is allow-listed, and are dropped silently otherwise.
type Router struct {
	producer      kafka.ProducerClient
	ingestTopic   string
	notifyTopic   string
	metadataTopic string
	logger        *logrus.Logger
	metrics       observability.MetricsCollector
}

func NewRouter(producer kafka.ProducerClient, ingestTopic, notifyTopic, metadataTopic string, metrics observability.MetricsCollector) *Router {
	if metrics == nil {
		metrics = observability.NewInMemoryMetrics()
	}
	return &Router{
		producer:      producer,
		ingestTopic:   ingestTopic,
		notifyTopic:   notifyTopic,
		metadataTopic: metadataTopic,
		logger:        observability.GetLogger(),
		metrics:       metrics,
	}
}

// HandleBatch routes each inbound record independently.
func (r *Router) HandleBatch(ctx context.Context, batch []*models.Message) models.BatchOutcome {
	var out models.BatchOutcome
	for i, msg := range batch {
		if err := ctx.Err(); err != nil {
			for _, rest := range batch[i:] {
				out.FailErr(rest.Identifier(), err)
			}
			break
		}
		if err := r.route(ctx, msg); err != nil {
			r.logger.WithFields(logrus.Fields{
				"message_id": msg.Identifier(),
			}).WithError(err).Error("Failed to route inbound event")
			out.FailErr(msg.Identifier(), err)
		}
	}
	return out
}

// route wraps one inbound payload in a TopicEnvelope and republishes it
// to every interested queue. The payload body is forwarded verbatim;
// only the envelope is added.
func (r *Router) route(ctx context.Context, msg *models.Message) error {
	decoded, err := event.DecodeBody(msg.Value, msg.Headers[models.HeaderMetadataType])
	if err != nil {
		return err
	}

	messageID := uuid.NewString()

	switch decoded.Kind {
	case event.KindStorageEvents:
		wrapped, err := event.Wrap(messageID, msg.Value, nil)
		if err != nil {
			return models.WrapError(models.KindMalformedEnvelope, err, "wrapping storage event")
		}
		headers := map[string]string{models.HeaderMessageID: messageID}
		for _, topic := range []string{r.ingestTopic, r.notifyTopic} {
			if err := r.producer.Publish(ctx, topic, msg.Key, wrapped, headers); err != nil {
				return models.WrapError(models.KindDownstreamUnavailable, err,
					"publishing storage event to %s", topic)
			}
		}
		r.logger.WithFields(logrus.Fields{
			"message_id": messageID,
			"records":    len(decoded.Storage),
		}).Info("Storage event fanned out")
		return nil

	case event.KindMetadataUpdate:
		attribute := decoded.Update.Attribute
		if !models.AttributeAllowed(attribute) {
			r.metrics.IncDropped()
			r.logger.WithFields(logrus.Fields{
				"id":        decoded.Update.ID,
				"attribute": attribute,
			}).Debug("Dropped metadata update outside attribute allow-list")
			return nil
		}
		wrapped, err := event.Wrap(messageID, msg.Value, map[string]string{
			event.AttrMetadataType: attribute,
		})
		if err != nil {
			return models.WrapError(models.KindMalformedEnvelope, err, "wrapping metadata update")
		}
		headers := map[string]string{
			models.HeaderMessageID:    messageID,
			models.HeaderMetadataType: attribute,
		}
		if err := r.producer.Publish(ctx, r.metadataTopic, msg.Key, wrapped, headers); err != nil {
			return models.WrapError(models.KindDownstreamUnavailable, err,
				"publishing metadata update to %s", r.metadataTopic)
		}
		r.logger.WithFields(logrus.Fields{
			"message_id": messageID,
			"id":         decoded.Update.ID,
			"attribute":  attribute,
		}).Info("Metadata update routed")
		return nil
	}

	return models.NewError(models.KindMalformedEnvelope, "unroutable payload shape")
}
