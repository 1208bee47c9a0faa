package service

import (
	"context"

	"go-mediaflow/internal/event"
	"go-mediaflow/internal/notify"
	"go-mediaflow/internal/observability"
	"go-mediaflow/pkg/models"

	"github.com/sirupsen/logrus"
)

// RejectionService consumes original envelopes off the dead-letter
// queue and sends one rejection email per extractable file key. There
// is no escalation path past this consumer, so every error is logged
// per record and swallowed.
type RejectionService struct {
	mailer  notify.Mailer
	logger  *logrus.Logger
	metrics observability.MetricsCollector
}

func NewRejectionService(mailer notify.Mailer, metrics observability.MetricsCollector) *RejectionService {
	if metrics == nil {
		metrics = observability.NewInMemoryMetrics()
	}
	return &RejectionService{
		mailer:  mailer,
		logger:  observability.GetLogger(),
		metrics: metrics,
	}
}

// HandleBatch processes one batch delivery. The outcome is always
// empty: dead-lettered records are terminal.
func (s *RejectionService) HandleBatch(ctx context.Context, batch []*models.Message) models.BatchOutcome {
	for _, msg := range batch {
		s.processRecord(msg)
	}
	return models.BatchOutcome{}
}

func (s *RejectionService) processRecord(msg *models.Message) {
	fileKey := extractFileKey(msg)
	if fileKey == "" {
		s.logger.WithField("message_id", msg.Identifier()).Warn("No file key found in dead-letter record, skipping")
		return
	}

	notice := models.RejectionNotice{
		FileKey: fileKey,
		Reason:  models.ReasonUnsupportedType,
	}
	if err := s.mailer.SendRejection(notice); err != nil {
		s.logger.WithFields(logrus.Fields{
			"file_key": fileKey,
		}).WithError(err).Error("Failed to send rejection email")
		return
	}
	s.metrics.IncNotified()
	s.logger.WithField("file_key", fileKey).Info("Rejection email sent")
}

// extractFileKey pulls the key of the first storage record in the
// envelope; dead-letter envelopes are expected to hold a single event.
func extractFileKey(msg *models.Message) string {
	decoded, err := event.Decode(msg)
	if err != nil || decoded.Kind != event.KindStorageEvents || len(decoded.Storage) == 0 {
		return ""
	}
	return decoded.Storage[0].Key
}
