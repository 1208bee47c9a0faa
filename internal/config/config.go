package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"go-mediaflow/pkg/models"

	"github.com/joho/godotenv"
)

type Config struct {
	Kafka       KafkaConfig
	Topics      TopicsConfig
	Consumer    ConsumerConfig
	Redis       RedisConfig
	Email       EmailConfig
	ObjectStore ObjectStoreConfig
	Logging     LoggingConfig
}

type KafkaConfig struct {
	Brokers []string
}

type TopicsConfig struct {
	Inbound             string
	Ingest              string
	Notify              string
	Metadata            string
	InboundRetryPrefix  string
	InboundDLQ          string
	IngestRetryPrefix   string
	IngestDLQ           string
	NotifyRetryPrefix   string
	MetadataRetryPrefix string
	MetadataDLQ         string
}

type ConsumerConfig struct {
	BatchSize      int
	BatchWindow    time.Duration
	RetryMax       int
	HandlerTimeout time.Duration
	FetchMinBytes  int
	FetchMaxBytes  int
}

type RedisConfig struct {
	Address   string
	Password  string
	DB        int
	Table     string
	DedupeTTL time.Duration
}

type EmailConfig struct {
	Region string
	From   string
	To     []string
}

type ObjectStoreConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

type LoggingConfig struct {
	Level string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment only")
	}
	return &Config{
		Kafka: KafkaConfig{
			Brokers: parseList(getEnv("KAFKA_BROKERS", "localhost:9092")),
		},
		Topics: TopicsConfig{
			Inbound:             getEnv("TOPIC_INBOUND", "media-events"),
			Ingest:              getEnv("TOPIC_INGEST", "media-ingest"),
			Notify:              getEnv("TOPIC_NOTIFY", "media-notify"),
			Metadata:            getEnv("TOPIC_METADATA", "media-metadata"),
			InboundRetryPrefix:  getEnv("TOPIC_INBOUND_RETRY_PREFIX", "media-events-retry"),
			InboundDLQ:          getEnv("TOPIC_INBOUND_DLQ", "media-events-dlq"),
			IngestRetryPrefix:   getEnv("TOPIC_INGEST_RETRY_PREFIX", "media-ingest-retry"),
			IngestDLQ:           getEnv("TOPIC_INGEST_DLQ", "media-ingest-dlq"),
			NotifyRetryPrefix:   getEnv("TOPIC_NOTIFY_RETRY_PREFIX", "media-notify-retry"),
			MetadataRetryPrefix: getEnv("TOPIC_METADATA_RETRY_PREFIX", "media-metadata-retry"),
			MetadataDLQ:         getEnv("TOPIC_METADATA_DLQ", "media-metadata-dlq"),
		},
		Consumer: ConsumerConfig{
			BatchSize:      getEnvInt("CONSUMER_BATCH_SIZE", 5),
			BatchWindow:    getEnvDuration("CONSUMER_BATCH_WINDOW", 5*time.Second),
			RetryMax:       getEnvInt("CONSUMER_RETRY_MAX", 3),
			HandlerTimeout: getEnvDuration("CONSUMER_HANDLER_TIMEOUT", 30*time.Second),
			FetchMinBytes:  getEnvInt("CONSUMER_FETCH_MIN_BYTES", 1024),
			FetchMaxBytes:  getEnvInt("CONSUMER_FETCH_MAX_BYTES", 10485760),
		},
		Redis: RedisConfig{
			Address:   getEnv("REDIS_ADDRESS", ""),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getEnvInt("REDIS_DB", 0),
			Table:     getEnv("ASSET_TABLE", ""),
			DedupeTTL: getEnvDuration("DEDUPE_TTL", time.Hour),
		},
		Email: EmailConfig{
			Region: getEnv("EMAIL_REGION", ""),
			From:   getEnv("EMAIL_FROM", ""),
			To:     parseList(getEnv("EMAIL_TO", "")),
		},
		ObjectStore: ObjectStoreConfig{
			Endpoint:  getEnv("OBJECTSTORE_ENDPOINT", ""),
			AccessKey: getEnv("OBJECTSTORE_ACCESS_KEY", ""),
			SecretKey: getEnv("OBJECTSTORE_SECRET_KEY", ""),
			UseSSL:    getEnvBool("OBJECTSTORE_USE_SSL", false),
			Bucket:    getEnv("OBJECTSTORE_BUCKET", ""),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}
}

// Validate checks that every setting the given role needs is present.
// Mains call it before touching any event; a missing setting aborts the
// process instead of surfacing later as per-record failures.
func (c *Config) Validate(role string) error {
	var missing []string

	if len(c.Kafka.Brokers) == 0 {
		missing = append(missing, "KAFKA_BROKERS")
	}

	needsStore := role == "ingest" || role == "metadata"
	needsMail := role == "notify" || role == "rejection"

	if needsStore {
		if c.Redis.Address == "" {
			missing = append(missing, "REDIS_ADDRESS")
		}
		if c.Redis.Table == "" {
			missing = append(missing, "ASSET_TABLE")
		}
	}
	if needsMail {
		if c.Email.Region == "" {
			missing = append(missing, "EMAIL_REGION")
		}
		if c.Email.From == "" {
			missing = append(missing, "EMAIL_FROM")
		}
		if len(c.Email.To) == 0 {
			missing = append(missing, "EMAIL_TO")
		}
	}
	if role == "gateway" {
		if c.ObjectStore.Endpoint == "" {
			missing = append(missing, "OBJECTSTORE_ENDPOINT")
		}
		if c.ObjectStore.AccessKey == "" {
			missing = append(missing, "OBJECTSTORE_ACCESS_KEY")
		}
		if c.ObjectStore.SecretKey == "" {
			missing = append(missing, "OBJECTSTORE_SECRET_KEY")
		}
		if c.ObjectStore.Bucket == "" {
			missing = append(missing, "OBJECTSTORE_BUCKET")
		}
	}

	if len(missing) > 0 {
		return models.NewError(models.KindMissingConfiguration,
			"missing required settings: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func parseList(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
