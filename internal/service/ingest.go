package service

import (
	"context"

	"go-mediaflow/internal/event"
	"go-mediaflow/internal/observability"
	"go-mediaflow/internal/store"
	"go-mediaflow/pkg/models"

	"github.com/sirupsen/logrus"
)

// IngestService persists or removes asset metadata for storage events
// on the ingest queue. It has no knowledge of the retry budget or the
// dead-letter path; it only reports which records failed.
type IngestService struct {
	store   store.AssetStore
	logger  *logrus.Logger
	metrics observability.MetricsCollector
}

func NewIngestService(assets store.AssetStore, metrics observability.MetricsCollector) *IngestService {
	if metrics == nil {
		metrics = observability.NewInMemoryMetrics()
	}
	return &IngestService{
		store:   assets,
		logger:  observability.GetLogger(),
		metrics: metrics,
	}
}

// HandleBatch processes one batch delivery and reports per-record failures.
func (s *IngestService) HandleBatch(ctx context.Context, batch []*models.Message) models.BatchOutcome {
	return processEach(ctx, batch, s.processRecord)
}

func (s *IngestService) processRecord(ctx context.Context, msg *models.Message) error {
	decoded, err := event.Decode(msg)
	if err != nil {
		return err
	}
	if decoded.Kind != event.KindStorageEvents {
		return models.NewError(models.KindMalformedEnvelope,
			"expected storage records on the ingest queue")
	}

	for _, ev := range decoded.Storage {
		switch ev.EventName {
		case event.ObjectCreated:
			if !models.IsSupportedUpload(ev.Key) {
				return models.NewError(models.KindUnsupportedAssetType,
					"unsupported file type: %s", ev.Key)
			}
			if err := s.store.Save(ev.Key); err != nil {
				return err
			}
			s.logger.WithFields(logrus.Fields{
				"bucket": ev.Bucket,
				"key":    ev.Key,
			}).Info("Asset record saved")

		case event.ObjectRemoved:
			// removals are not filtered by extension; deleting an
			// absent record is a no-op
			if err := s.store.Delete(ev.Key); err != nil {
				return err
			}
			s.logger.WithField("key", ev.Key).Info("Asset record deleted")

		default:
			s.metrics.IncDropped()
			s.logger.WithField("key", ev.Key).Warn("Ignoring unrecognized storage event")
		}
	}
	return nil
}
