package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"go-mediaflow/internal/observability"
	"go-mediaflow/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRejection_SendsNoticeForDeadLetteredUpload(t *testing.T) {
	mailer := NewMockMailer()
	metrics := observability.NewInMemoryMetrics()
	svc := NewRejectionService(mailer, metrics)

	outcome := svc.HandleBatch(context.Background(), []*models.Message{
		delivery(t, "msg-1", storageBody("ObjectCreated:Put", "album-bucket", "document.pdf"), nil),
	})

	assert.Empty(t, outcome.FailedMessageIDs)
	rejections := mailer.GetRejections()
	require.Len(t, rejections, 1)
	assert.Equal(t, "document.pdf", rejections[0].FileKey)
	assert.Equal(t, models.ReasonUnsupportedType, rejections[0].Reason)
	assert.Equal(t, int64(1), metrics.GetNotified())
}

func TestRejection_OnlyFirstRecordIsReported(t *testing.T) {
	mailer := NewMockMailer()
	svc := NewRejectionService(mailer, nil)

	body := fmt.Sprintf(`{"Records":[`+
		`{"eventName":"ObjectCreated:Put","s3":{"bucket":{"name":"b"},"object":{"key":%q}}},`+
		`{"eventName":"ObjectCreated:Put","s3":{"bucket":{"name":"b"},"object":{"key":%q}}}]}`,
		"first.pdf", "second.pdf")
	outcome := svc.HandleBatch(context.Background(), []*models.Message{
		delivery(t, "msg-1", body, nil),
	})

	assert.Empty(t, outcome.FailedMessageIDs)
	rejections := mailer.GetRejections()
	require.Len(t, rejections, 1)
	assert.Equal(t, "first.pdf", rejections[0].FileKey)
}

func TestRejection_MalformedRecordIsSkippedSilently(t *testing.T) {
	mailer := NewMockMailer()
	svc := NewRejectionService(mailer, nil)

	outcome := svc.HandleBatch(context.Background(), []*models.Message{
		rawDelivery("msg-1", []byte("not json")),
		delivery(t, "msg-2", updateBody("photo.JPG", "a caption"), nil),
	})

	assert.Empty(t, outcome.FailedMessageIDs)
	assert.Empty(t, mailer.GetRejections())
}

func TestRejection_MailerErrorIsSwallowed(t *testing.T) {
	mailer := NewMockMailer()
	mailer.RejectErr = errors.New("ses unavailable")
	svc := NewRejectionService(mailer, nil)

	outcome := svc.HandleBatch(context.Background(), []*models.Message{
		delivery(t, "msg-1", storageBody("ObjectCreated:Put", "album-bucket", "document.pdf"), nil),
	})

	// dead-lettered records are terminal, nothing is redelivered
	assert.Empty(t, outcome.FailedMessageIDs)
	assert.Empty(t, mailer.GetRejections())
}
