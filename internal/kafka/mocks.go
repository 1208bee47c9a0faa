package kafka

import (
	"context"
	"sync"
)

// MockProducer records every publish instead of writing to a broker.
// Tests inspect the recorded messages to assert fan-out, retry-topic,
// and dead-letter routing without a live cluster.
type MockProducer struct {
	mu          sync.RWMutex
	published   []PublishedMessage
	PublishFunc func(ctx context.Context, topic, key string, value []byte, headers map[string]string) error
}

// PublishedMessage is one recorded publish.
type PublishedMessage struct {
	Topic   string
	Key     string
	Value   []byte
	Headers map[string]string
}

func NewMockProducer() *MockProducer {
	return &MockProducer{}
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value []byte, headers map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, topic, key, value, headers)
	}
	m.published = append(m.published, PublishedMessage{
		Topic:   topic,
		Key:     key,
		Value:   value,
		Headers: headers,
	})
	return nil
}

func (m *MockProducer) Close() error {
	return nil
}

func (m *MockProducer) GetPublishedMessages() []PublishedMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()

	messages := make([]PublishedMessage, len(m.published))
	copy(messages, m.published)
	return messages
}

// TopicMessages returns the recorded publishes for one topic, in order.
func (m *MockProducer) TopicMessages(topic string) []PublishedMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var messages []PublishedMessage
	for _, msg := range m.published {
		if msg.Topic == topic {
			messages = append(messages, msg)
		}
	}
	return messages
}

func (m *MockProducer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = nil
}

// MockDedupeStore is an in-memory DedupeStore double.
type MockDedupeStore struct {
	mu   sync.RWMutex
	seen map[string]bool
}

func NewMockDedupeStore() *MockDedupeStore {
	return &MockDedupeStore{seen: make(map[string]bool)}
}

func (m *MockDedupeStore) Exists(messageID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.seen[messageID]
}

func (m *MockDedupeStore) Add(messageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen[messageID] = true
	return nil
}
