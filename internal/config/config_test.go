package config

import (
	"testing"

	"go-mediaflow/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig() *Config {
	return &Config{
		Kafka: KafkaConfig{Brokers: []string{"localhost:9092"}},
		Redis: RedisConfig{Address: "localhost:6379", Table: "assets"},
		Email: EmailConfig{Region: "eu-west-1", From: "a@b.c", To: []string{"x@y.z"}},
		ObjectStore: ObjectStoreConfig{
			Endpoint:  "localhost:9000",
			AccessKey: "key",
			SecretKey: "secret",
			Bucket:    "images",
		},
	}
}

func TestValidate_CompleteConfig(t *testing.T) {
	cfg := baseConfig()
	for _, role := range []string{"gateway", "ingest", "notify", "metadata", "rejection", "publish"} {
		assert.NoError(t, cfg.Validate(role), role)
	}
}

func TestValidate_MissingStoreSettings(t *testing.T) {
	cfg := baseConfig()
	cfg.Redis.Address = ""
	cfg.Redis.Table = ""

	err := cfg.Validate("ingest")
	require.Error(t, err)
	assert.Equal(t, models.KindMissingConfiguration, models.KindOf(err))
	assert.Contains(t, err.Error(), "REDIS_ADDRESS")
	assert.Contains(t, err.Error(), "ASSET_TABLE")

	// other roles do not need the store
	assert.NoError(t, cfg.Validate("notify"))
}

func TestValidate_MissingMailSettings(t *testing.T) {
	cfg := baseConfig()
	cfg.Email.To = nil

	err := cfg.Validate("rejection")
	require.Error(t, err)
	assert.Equal(t, models.KindMissingConfiguration, models.KindOf(err))
	assert.Contains(t, err.Error(), "EMAIL_TO")

	assert.NoError(t, cfg.Validate("ingest"))
}

func TestLoad_EveryQueueHasARetryPath(t *testing.T) {
	cfg := Load()

	// each consumer topic carries retry wiring by default so a failed
	// record is redelivered instead of silently acknowledged
	assert.Equal(t, "media-events-retry", cfg.Topics.InboundRetryPrefix)
	assert.Equal(t, "media-events-dlq", cfg.Topics.InboundDLQ)
	assert.Equal(t, "media-ingest-retry", cfg.Topics.IngestRetryPrefix)
	assert.Equal(t, "media-ingest-dlq", cfg.Topics.IngestDLQ)
	assert.Equal(t, "media-notify-retry", cfg.Topics.NotifyRetryPrefix)
	assert.Equal(t, "media-metadata-retry", cfg.Topics.MetadataRetryPrefix)
	assert.Equal(t, "media-metadata-dlq", cfg.Topics.MetadataDLQ)
}

func TestValidate_MissingBrokers(t *testing.T) {
	cfg := baseConfig()
	cfg.Kafka.Brokers = nil

	err := cfg.Validate("publish")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}
