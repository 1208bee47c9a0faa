package service

import (
	"context"

	"go-mediaflow/internal/event"
	"go-mediaflow/internal/notify"
	"go-mediaflow/internal/observability"
	"go-mediaflow/pkg/models"

	"github.com/sirupsen/logrus"
)

// NotifyService sends a confirmation email for every accepted upload
// reaching its queue. Notification delivery is best effort: a send
// error is logged and the record still counts as processed, so this
// consumer never drives redeliveries of its own.
type NotifyService struct {
	mailer  notify.Mailer
	logger  *logrus.Logger
	metrics observability.MetricsCollector
}

func NewNotifyService(mailer notify.Mailer, metrics observability.MetricsCollector) *NotifyService {
	if metrics == nil {
		metrics = observability.NewInMemoryMetrics()
	}
	return &NotifyService{
		mailer:  mailer,
		logger:  observability.GetLogger(),
		metrics: metrics,
	}
}

// HandleBatch processes one batch delivery and reports per-record failures.
func (s *NotifyService) HandleBatch(ctx context.Context, batch []*models.Message) models.BatchOutcome {
	return processEach(ctx, batch, s.processRecord)
}

func (s *NotifyService) processRecord(ctx context.Context, msg *models.Message) error {
	decoded, err := event.Decode(msg)
	if err != nil {
		return err
	}
	if decoded.Kind != event.KindStorageEvents {
		s.logger.Warn("Ignoring non-storage payload on the notify queue")
		return nil
	}

	for _, ev := range decoded.Storage {
		if ev.EventName != event.ObjectCreated {
			continue
		}
		if !models.IsSupportedUpload(ev.Key) {
			s.logger.WithField("key", ev.Key).Info("Skipping confirmation email for invalid file type")
			continue
		}
		if err := s.mailer.SendConfirmation(ev.Bucket, ev.Key); err != nil {
			s.logger.WithFields(logrus.Fields{
				"bucket": ev.Bucket,
				"key":    ev.Key,
			}).WithError(err).Error("Failed to send confirmation email")
			continue
		}
		s.metrics.IncNotified()
		s.logger.WithField("key", ev.Key).Info("Confirmation email sent")
	}
	return nil
}
