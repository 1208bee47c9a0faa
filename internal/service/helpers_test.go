package service

import (
	"fmt"
	"testing"

	"go-mediaflow/internal/event"
	"go-mediaflow/pkg/models"

	"github.com/stretchr/testify/require"
)

func storageBody(eventName, bucket, key string) string {
	return fmt.Sprintf(`{"Records":[{"eventName":%q,"s3":{"bucket":{"name":%q},"object":{"key":%q}}}]}`,
		eventName, bucket, key)
}

func updateBody(id, value string) string {
	return fmt.Sprintf(`{"id":%q,"value":%q}`, id, value)
}

// delivery builds a queue message the way the gateway would publish it:
// the body wrapped in a TopicEnvelope, message-id stamped in headers.
func delivery(t *testing.T, msgID, body string, attrs map[string]string) *models.Message {
	t.Helper()
	value, err := event.Wrap(msgID, []byte(body), attrs)
	require.NoError(t, err)
	return &models.Message{
		Topic:   "test-topic",
		Value:   value,
		Headers: map[string]string{models.HeaderMessageID: msgID},
	}
}

func rawDelivery(msgID string, value []byte) *models.Message {
	return &models.Message{
		Topic:   "test-topic",
		Value:   value,
		Headers: map[string]string{models.HeaderMessageID: msgID},
	}
}
