package store

import (
	"fmt"
	"time"

	"go-mediaflow/pkg/models"

	"github.com/go-redis/redis/v7"
)

// fileNameField holds the record's own key inside its hash, so a saved
// record is non-empty even before any attribute arrives.
const fileNameField = "fileName"

// AssetStore is the durable key-value capability consumers write
// through. Every operation is idempotent: Save is a put, MergeAttribute
// touches exactly one attribute, Delete of an absent key is a no-op.
type AssetStore interface {
	Save(fileName string) error
	MergeAttribute(fileName, attribute, value string) error
	Delete(fileName string) error
	Get(fileName string) (*models.AssetRecord, error)
}

// RedisAssetStore keeps one hash per asset under <table>:<fileName>.
type RedisAssetStore struct {
	client *redis.Client
	table  string
}

func NewRedisAssetStore(address, password string, db int, table string) *RedisAssetStore {
	return &RedisAssetStore{
		client: redis.NewClient(&redis.Options{
			Addr:     address,
			Password: password,
			DB:       db,
		}),
		table: table,
	}
}

func (s *RedisAssetStore) Ping() error {
	_, err := s.client.Ping().Result()
	return err
}

func (s *RedisAssetStore) key(fileName string) string {
	return fmt.Sprintf("%s:%s", s.table, fileName)
}

// Save upserts the record for fileName. Saving an already-present
// record leaves it, and its attributes, unchanged.
func (s *RedisAssetStore) Save(fileName string) error {
	_, err := s.client.HSet(s.key(fileName), fileNameField, fileName).Result()
	if err != nil {
		return models.WrapError(models.KindDownstreamUnavailable, err, "saving asset %q", fileName)
	}
	return nil
}

// MergeAttribute writes a single attribute field, leaving every other
// attribute of the record untouched.
func (s *RedisAssetStore) MergeAttribute(fileName, attribute, value string) error {
	key := s.key(fileName)
	_, err := s.client.HSet(key, attribute, value).Result()
	if err != nil {
		return models.WrapError(models.KindDownstreamUnavailable, err,
			"merging attribute %q for asset %q", attribute, fileName)
	}
	// a merge may arrive before the create event; keep the record keyed
	_, err = s.client.HSetNX(key, fileNameField, fileName).Result()
	if err != nil {
		return models.WrapError(models.KindDownstreamUnavailable, err, "keying asset %q", fileName)
	}
	return nil
}

// Delete removes the record. Deleting a key that does not exist is not
// an error.
func (s *RedisAssetStore) Delete(fileName string) error {
	_, err := s.client.Del(s.key(fileName)).Result()
	if err != nil {
		return models.WrapError(models.KindDownstreamUnavailable, err, "deleting asset %q", fileName)
	}
	return nil
}

// Get returns the record for fileName, or nil when none exists.
func (s *RedisAssetStore) Get(fileName string) (*models.AssetRecord, error) {
	fields, err := s.client.HGetAll(s.key(fileName)).Result()
	if err != nil {
		return nil, models.WrapError(models.KindDownstreamUnavailable, err, "reading asset %q", fileName)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	record := &models.AssetRecord{
		FileName:   fields[fileNameField],
		Attributes: make(map[string]string),
	}
	if record.FileName == "" {
		record.FileName = fileName
	}
	for field, value := range fields {
		if field == fileNameField {
			continue
		}
		record.Attributes[field] = value
	}
	return record, nil
}

func (s *RedisAssetStore) Close() error {
	return s.client.Close()
}

// RedisDedupeStore backs the consumer's duplicate check with SetNX+TTL,
// for deployments where workers are replicated and an in-process map
// cannot see a sibling's deliveries.
type RedisDedupeStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDedupeStore(address, password string, db int, ttl time.Duration) *RedisDedupeStore {
	return &RedisDedupeStore{
		client: redis.NewClient(&redis.Options{
			Addr:     address,
			Password: password,
			DB:       db,
		}),
		ttl: ttl,
	}
}

func (s *RedisDedupeStore) dedupeKey(messageID string) string {
	return "dedupe:" + messageID
}

func (s *RedisDedupeStore) Exists(messageID string) bool {
	n, err := s.client.Exists(s.dedupeKey(messageID)).Result()
	if err != nil {
		return false
	}
	return n > 0
}

func (s *RedisDedupeStore) Add(messageID string) error {
	_, err := s.client.SetNX(s.dedupeKey(messageID), 1, s.ttl).Result()
	return err
}

func (s *RedisDedupeStore) Close() error {
	return s.client.Close()
}
