package event

import (
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"go-mediaflow/pkg/models"
)

// EventName is the normalized storage event type.
type EventName string

const (
	ObjectCreated EventName = "ObjectCreated"
	ObjectRemoved EventName = "ObjectRemoved"
	UnknownEvent  EventName = "Unknown"
)

// AttrMetadataType is the envelope message attribute carrying the
// attribute name of a metadata update, kept out of the payload body.
const AttrMetadataType = "metadata_type"

// TopicEnvelope is the wrapper the gateway puts around every payload it
// republishes to a consumer queue. Message holds the original payload
// JSON verbatim.
type TopicEnvelope struct {
	Type              string                      `json:"Type,omitempty"`
	MessageID         string                      `json:"MessageId,omitempty"`
	Timestamp         string                      `json:"Timestamp,omitempty"`
	Message           string                      `json:"Message"`
	MessageAttributes map[string]MessageAttribute `json:"MessageAttributes,omitempty"`
}

// MessageAttribute is one typed attribute on a TopicEnvelope.
type MessageAttribute struct {
	Type  string `json:"Type"`
	Value string `json:"Value"`
}

// StorageEvent is one normalized object-store notification.
type StorageEvent struct {
	EventName EventName
	Bucket    string
	Key       string
}

// MetadataUpdate is one application-level attribute update signal.
type MetadataUpdate struct {
	ID        string
	Value     string
	Attribute string
}

// Kind tags which of the two expected payload shapes a delivery held.
type Kind int

const (
	KindStorageEvents Kind = iota + 1
	KindMetadataUpdate
)

// Decoded is the result of unwrapping a delivery: exactly one of
// Storage or Update is set, per Kind.
type Decoded struct {
	Kind    Kind
	Storage []StorageEvent
	Update  *MetadataUpdate
}

// storageRecord mirrors the S3-style notification record shape emitted
// by the object store.
type storageRecord struct {
	EventName string `json:"eventName"`
	S3        struct {
		Bucket struct {
			Name string `json:"name"`
		} `json:"bucket"`
		Object struct {
			Key string `json:"key"`
		} `json:"object"`
	} `json:"s3"`
}

// innerPayload covers both payload shapes; which one applies is decided
// after parsing, never assumed.
type innerPayload struct {
	Records []storageRecord `json:"Records"`
	ID      string          `json:"id"`
	Value   string          `json:"value"`
}

// Decode unwraps a queue delivery in two stages: the delivery value is
// parsed as a TopicEnvelope, then the envelope's Message is parsed as
// either a storage-event record set or a flat application payload.
// Either parse failing, or neither shape matching, is a
// MalformedEnvelope error the caller must report as a record failure.
func Decode(msg *models.Message) (*Decoded, error) {
	var env TopicEnvelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		return nil, models.WrapError(models.KindMalformedEnvelope, err, "parsing delivery body")
	}
	if env.Message == "" {
		return nil, models.NewError(models.KindMalformedEnvelope, "envelope has no Message field")
	}

	attribute := ""
	if attr, ok := env.MessageAttributes[AttrMetadataType]; ok {
		attribute = attr.Value
	}
	return DecodeBody([]byte(env.Message), attribute)
}

// DecodeBody parses a bare payload body, outside any TopicEnvelope.
// The gateway uses it on the inbound topic, where payloads arrive
// unwrapped and the attribute name travels in a transport header.
func DecodeBody(body []byte, attribute string) (*Decoded, error) {
	var payload innerPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, models.WrapError(models.KindMalformedEnvelope, err, "parsing payload")
	}

	if len(payload.Records) > 0 {
		events := make([]StorageEvent, 0, len(payload.Records))
		for _, rec := range payload.Records {
			events = append(events, StorageEvent{
				EventName: ParseEventName(rec.EventName),
				Bucket:    rec.S3.Bucket.Name,
				Key:       NormalizeKey(rec.S3.Object.Key),
			})
		}
		return &Decoded{Kind: KindStorageEvents, Storage: events}, nil
	}

	if payload.ID != "" || payload.Value != "" {
		return &Decoded{
			Kind: KindMetadataUpdate,
			Update: &MetadataUpdate{
				ID:        payload.ID,
				Value:     payload.Value,
				Attribute: attribute,
			},
		}, nil
	}

	return nil, models.NewError(models.KindMalformedEnvelope,
		"payload is neither a storage record set nor an application event")
}

// Wrap builds the TopicEnvelope JSON for republishing a payload to a
// consumer queue. The payload body is carried verbatim.
func Wrap(messageID string, body []byte, attributes map[string]string) ([]byte, error) {
	env := TopicEnvelope{
		Type:      "Notification",
		MessageID: messageID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Message:   string(body),
	}
	if len(attributes) > 0 {
		env.MessageAttributes = make(map[string]MessageAttribute, len(attributes))
		for name, value := range attributes {
			env.MessageAttributes[name] = MessageAttribute{Type: "String", Value: value}
		}
	}
	return json.Marshal(env)
}

// ParseEventName maps a raw storage event name, with or without the
// "s3:" prefix and action suffix, onto the normalized type.
func ParseEventName(raw string) EventName {
	name := strings.TrimPrefix(raw, "s3:")
	switch {
	case strings.HasPrefix(name, string(ObjectCreated)):
		return ObjectCreated
	case strings.HasPrefix(name, string(ObjectRemoved)):
		return ObjectRemoved
	default:
		return UnknownEvent
	}
}

// NormalizeKey undoes the URL encoding applied to object keys in
// notifications: '+' becomes a space, then percent escapes are decoded.
// A key with broken escapes is kept as delivered rather than dropped.
func NormalizeKey(raw string) string {
	decoded, err := url.QueryUnescape(raw)
	if err != nil {
		return strings.ReplaceAll(raw, "+", " ")
	}
	return decoded
}
