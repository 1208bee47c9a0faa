package models

import (
	"fmt"
	"time"
)

// Message is one delivery from a queue topic: the raw transport envelope
// handed to a consumer, redelivered if it is not acknowledged.
type Message struct {
	ID        string            `json:"id"`
	Topic     string            `json:"topic"`
	Partition int               `json:"partition"`
	Offset    int64             `json:"offset"`
	Key       string            `json:"key"`
	Value     []byte            `json:"value"`
	Headers   map[string]string `json:"headers"`
	Timestamp time.Time         `json:"timestamp"`
}

// MessageHeader constants
const (
	HeaderMessageID     = "message-id"
	HeaderRetryCount    = "retry-count"
	HeaderOriginalTopic = "original-topic"
	HeaderFailureReason = "failure-reason"
	HeaderProcessedAt   = "processed-at"
	HeaderMetadataType  = "metadata-type"
)

// Identifier returns the stable identity used in failure reports: the
// message-id header when the gateway stamped one, otherwise the
// topic/partition/offset coordinate.
func (m *Message) Identifier() string {
	if m.Headers != nil {
		if id, ok := m.Headers[HeaderMessageID]; ok && id != "" {
			return id
		}
	}
	return fmt.Sprintf("%s/%d/%d", m.Topic, m.Partition, m.Offset)
}

// BatchOutcome reports which messages of one batch delivery failed.
// Any identifier not listed is considered processed and is not redelivered.
type BatchOutcome struct {
	FailedMessageIDs []string `json:"failedMessageIds"`

	reasons map[string]string
}

// Fail marks a message as failed exactly once.
func (o *BatchOutcome) Fail(id string) {
	for _, existing := range o.FailedMessageIDs {
		if existing == id {
			return
		}
	}
	o.FailedMessageIDs = append(o.FailedMessageIDs, id)
}

// FailErr marks a message as failed and keeps the error text for the
// delivery channel's failure-reason header.
func (o *BatchOutcome) FailErr(id string, err error) {
	o.Fail(id)
	if err == nil {
		return
	}
	if o.reasons == nil {
		o.reasons = make(map[string]string)
	}
	if _, ok := o.reasons[id]; !ok {
		o.reasons[id] = err.Error()
	}
}

// FailureReason returns the recorded error text for id, if any.
func (o *BatchOutcome) FailureReason(id string) string {
	return o.reasons[id]
}

// Failed reports whether the given identifier is in the failure set.
func (o *BatchOutcome) Failed(id string) bool {
	for _, existing := range o.FailedMessageIDs {
		if existing == id {
			return true
		}
	}
	return false
}
