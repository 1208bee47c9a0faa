package gateway

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"go-mediaflow/internal/event"
	"go-mediaflow/internal/kafka"
	"go-mediaflow/internal/observability"
	"go-mediaflow/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testIngestTopic   = "media-ingest"
	testNotifyTopic   = "media-notify"
	testMetadataTopic = "media-metadata"
)

func newTestRouter(producer *kafka.MockProducer, metrics observability.MetricsCollector) *Router {
	return NewRouter(producer, testIngestTopic, testNotifyTopic, testMetadataTopic, metrics)
}

func storageBody(eventName, bucket, key string) []byte {
	return []byte(fmt.Sprintf(`{"Records":[{"eventName":%q,"s3":{"bucket":{"name":%q},"object":{"key":%q}}}]}`,
		eventName, bucket, key))
}

func updateBody(id, value string) []byte {
	return []byte(fmt.Sprintf(`{"id":%q,"value":%q}`, id, value))
}

func inbound(value []byte, headers map[string]string) *models.Message {
	return &models.Message{Topic: "media-events", Value: value, Headers: headers}
}

func topicsOf(published []kafka.PublishedMessage) []string {
	topics := make([]string, 0, len(published))
	for _, p := range published {
		topics = append(topics, p.Topic)
	}
	return topics
}

func TestRouter_StorageEventFansOutToIngestAndNotify(t *testing.T) {
	producer := kafka.NewMockProducer()
	router := newTestRouter(producer, nil)

	body := storageBody("ObjectCreated:Put", "album-bucket", "photo.JPG")
	outcome := router.HandleBatch(context.Background(), []*models.Message{inbound(body, nil)})

	assert.Empty(t, outcome.FailedMessageIDs)
	published := producer.GetPublishedMessages()
	require.Len(t, published, 2)
	assert.ElementsMatch(t, []string{testIngestTopic, testNotifyTopic}, topicsOf(published))

	// identical envelope on both queues, body forwarded verbatim
	assert.Equal(t, published[0].Value, published[1].Value)
	for _, p := range published {
		decoded, err := event.Decode(&models.Message{Value: p.Value, Headers: p.Headers})
		require.NoError(t, err)
		require.Equal(t, event.KindStorageEvents, decoded.Kind)
		require.Len(t, decoded.Storage, 1)
		assert.Equal(t, event.ObjectCreated, decoded.Storage[0].EventName)
		assert.Equal(t, "album-bucket", decoded.Storage[0].Bucket)
		assert.Equal(t, "photo.JPG", decoded.Storage[0].Key)
		assert.NotEmpty(t, p.Headers[models.HeaderMessageID])
	}
	assert.Equal(t, published[0].Headers[models.HeaderMessageID], published[1].Headers[models.HeaderMessageID])
}

func TestRouter_UnsupportedUploadStillFansOut(t *testing.T) {
	producer := kafka.NewMockProducer()
	router := newTestRouter(producer, nil)

	// validation belongs to the consumers; the router forwards everything
	body := storageBody("ObjectCreated:Put", "album-bucket", "document.pdf")
	outcome := router.HandleBatch(context.Background(), []*models.Message{inbound(body, nil)})

	assert.Empty(t, outcome.FailedMessageIDs)
	assert.Len(t, producer.GetPublishedMessages(), 2)
}

func TestRouter_AllowedUpdateRoutesToMetadata(t *testing.T) {
	producer := kafka.NewMockProducer()
	router := newTestRouter(producer, nil)

	msg := inbound(updateBody("photo.JPG", "Sunset over the bay"),
		map[string]string{models.HeaderMetadataType: "Caption"})
	outcome := router.HandleBatch(context.Background(), []*models.Message{msg})

	assert.Empty(t, outcome.FailedMessageIDs)
	published := producer.GetPublishedMessages()
	require.Len(t, published, 1)
	assert.Equal(t, testMetadataTopic, published[0].Topic)
	assert.Equal(t, "Caption", published[0].Headers[models.HeaderMetadataType])

	decoded, err := event.Decode(&models.Message{Value: published[0].Value, Headers: published[0].Headers})
	require.NoError(t, err)
	require.Equal(t, event.KindMetadataUpdate, decoded.Kind)
	assert.Equal(t, "photo.JPG", decoded.Update.ID)
	assert.Equal(t, "Sunset over the bay", decoded.Update.Value)
	assert.Equal(t, "Caption", decoded.Update.Attribute)
}

func TestRouter_DisallowedAttributeIsDropped(t *testing.T) {
	producer := kafka.NewMockProducer()
	metrics := observability.NewInMemoryMetrics()
	router := newTestRouter(producer, metrics)

	msg := inbound(updateBody("photo.JPG", "Reykjavik"),
		map[string]string{models.HeaderMetadataType: "Location"})
	outcome := router.HandleBatch(context.Background(), []*models.Message{msg})

	assert.Empty(t, outcome.FailedMessageIDs)
	assert.Empty(t, producer.GetPublishedMessages())
	assert.Equal(t, int64(1), metrics.GetDropped())
}

func TestRouter_MalformedPayloadFails(t *testing.T) {
	producer := kafka.NewMockProducer()
	router := newTestRouter(producer, nil)

	outcome := router.HandleBatch(context.Background(), []*models.Message{
		inbound([]byte("not json"), nil),
	})

	assert.Len(t, outcome.FailedMessageIDs, 1)
	assert.Empty(t, producer.GetPublishedMessages())
}

func TestRouter_PublishErrorFailsRecord(t *testing.T) {
	producer := kafka.NewMockProducer()
	producer.PublishFunc = func(ctx context.Context, topic, key string, value []byte, headers map[string]string) error {
		return errors.New("broker unreachable")
	}
	router := newTestRouter(producer, nil)

	body := storageBody("ObjectCreated:Put", "album-bucket", "photo.jpeg")
	outcome := router.HandleBatch(context.Background(), []*models.Message{inbound(body, nil)})

	require.Len(t, outcome.FailedMessageIDs, 1)
	reason := outcome.FailureReason(outcome.FailedMessageIDs[0])
	assert.Contains(t, reason, "broker unreachable")
}

func TestRouter_ExpiredContextFailsRemainingRecords(t *testing.T) {
	producer := kafka.NewMockProducer()
	router := newTestRouter(producer, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	first := inbound(storageBody("ObjectCreated:Put", "b", "a.jpeg"), nil)
	second := inbound(storageBody("ObjectCreated:Put", "b", "b.jpeg"), nil)
	second.Offset = 1
	outcome := router.HandleBatch(ctx, []*models.Message{first, second})

	assert.Len(t, outcome.FailedMessageIDs, 2)
	assert.Empty(t, producer.GetPublishedMessages())
}
