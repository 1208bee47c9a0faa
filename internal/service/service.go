package service

import (
	"context"

	"go-mediaflow/internal/observability"
	"go-mediaflow/pkg/models"

	"github.com/sirupsen/logrus"
)

// processEach runs fn over every record of a batch delivery
// independently: one record's failure never aborts its siblings, and
// records left untouched when the context expires are reported failed
// so the channel redelivers them.
func processEach(ctx context.Context, batch []*models.Message, fn func(context.Context, *models.Message) error) models.BatchOutcome {
	logger := observability.GetLogger()
	var out models.BatchOutcome

	for i, msg := range batch {
		if err := ctx.Err(); err != nil {
			for _, rest := range batch[i:] {
				out.FailErr(rest.Identifier(), err)
			}
			logger.WithFields(logrus.Fields{
				"unprocessed": len(batch) - i,
			}).Warn("Handler deadline expired mid-batch")
			break
		}

		if err := fn(ctx, msg); err != nil {
			logger.WithFields(logrus.Fields{
				"message_id": msg.Identifier(),
				"topic":      msg.Topic,
				"kind":       models.KindOf(err),
			}).WithError(err).Error("Record processing failed")
			out.FailErr(msg.Identifier(), err)
		}
	}
	return out
}
