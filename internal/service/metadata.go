package service

import (
	"context"

	"go-mediaflow/internal/event"
	"go-mediaflow/internal/observability"
	"go-mediaflow/internal/store"
	"go-mediaflow/pkg/models"

	"github.com/sirupsen/logrus"
)

// MetadataService merges single attribute updates into existing asset
// records. The gateway only routes allow-listed attributes here; the
// service re-checks defensively and drops anything else without
// touching the store.
type MetadataService struct {
	store   store.AssetStore
	logger  *logrus.Logger
	metrics observability.MetricsCollector
}

func NewMetadataService(assets store.AssetStore, metrics observability.MetricsCollector) *MetadataService {
	if metrics == nil {
		metrics = observability.NewInMemoryMetrics()
	}
	return &MetadataService{
		store:   assets,
		logger:  observability.GetLogger(),
		metrics: metrics,
	}
}

// HandleBatch processes one batch delivery and reports per-record failures.
func (s *MetadataService) HandleBatch(ctx context.Context, batch []*models.Message) models.BatchOutcome {
	return processEach(ctx, batch, s.processRecord)
}

func (s *MetadataService) processRecord(ctx context.Context, msg *models.Message) error {
	decoded, err := event.Decode(msg)
	if err != nil {
		return err
	}
	if decoded.Kind != event.KindMetadataUpdate {
		return models.NewError(models.KindMalformedEnvelope,
			"expected an application event on the metadata queue")
	}

	update := decoded.Update
	if update.ID == "" || update.Value == "" || update.Attribute == "" {
		return models.NewError(models.KindMalformedEnvelope,
			"metadata update missing id, value, or attribute name")
	}
	if !models.AttributeAllowed(update.Attribute) {
		s.logger.WithFields(logrus.Fields{
			"id":        update.ID,
			"attribute": update.Attribute,
		}).Warn("Attribute not in allow-list reached metadata queue, dropping")
		s.metrics.IncDropped()
		return nil
	}

	if err := s.store.MergeAttribute(update.ID, update.Attribute, update.Value); err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{
		"id":        update.ID,
		"attribute": update.Attribute,
		"value":     update.Value,
	}).Info("Asset metadata updated")
	return nil
}
