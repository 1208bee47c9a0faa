package event

import (
	"encoding/json"
	"testing"

	"go-mediaflow/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const storageRecordsJSON = `{
	"Records": [
		{
			"eventName": "ObjectCreated:Put",
			"s3": {
				"bucket": {"name": "images"},
				"object": {"key": "summer+holiday%2Fphoto.JPG"}
			}
		},
		{
			"eventName": "s3:ObjectRemoved:Delete",
			"s3": {
				"bucket": {"name": "images"},
				"object": {"key": "old.png"}
			}
		}
	]
}`

func wrapBody(t *testing.T, body string, attrs map[string]string) []byte {
	t.Helper()
	value, err := Wrap("msg-1", []byte(body), attrs)
	require.NoError(t, err)
	return value
}

func TestDecode_StorageEvents(t *testing.T) {
	msg := &models.Message{Value: wrapBody(t, storageRecordsJSON, nil)}

	decoded, err := Decode(msg)
	require.NoError(t, err)
	require.Equal(t, KindStorageEvents, decoded.Kind)
	require.Len(t, decoded.Storage, 2)

	assert.Equal(t, ObjectCreated, decoded.Storage[0].EventName)
	assert.Equal(t, "images", decoded.Storage[0].Bucket)
	assert.Equal(t, "summer holiday/photo.JPG", decoded.Storage[0].Key)

	assert.Equal(t, ObjectRemoved, decoded.Storage[1].EventName)
	assert.Equal(t, "old.png", decoded.Storage[1].Key)
}

func TestDecode_MetadataUpdate(t *testing.T) {
	body := `{"id":"photo.JPG","value":"2024-01-01"}`
	msg := &models.Message{Value: wrapBody(t, body, map[string]string{AttrMetadataType: "Date"})}

	decoded, err := Decode(msg)
	require.NoError(t, err)
	require.Equal(t, KindMetadataUpdate, decoded.Kind)
	require.NotNil(t, decoded.Update)

	assert.Equal(t, "photo.JPG", decoded.Update.ID)
	assert.Equal(t, "2024-01-01", decoded.Update.Value)
	assert.Equal(t, "Date", decoded.Update.Attribute)
}

func TestDecode_MetadataUpdateWithoutAttribute(t *testing.T) {
	msg := &models.Message{Value: wrapBody(t, `{"id":"photo.JPG","value":"x"}`, nil)}

	decoded, err := Decode(msg)
	require.NoError(t, err)
	require.Equal(t, KindMetadataUpdate, decoded.Kind)
	assert.Empty(t, decoded.Update.Attribute)
}

func TestDecode_Malformed(t *testing.T) {
	cases := map[string][]byte{
		"not json":            []byte("not json at all"),
		"no message field":    []byte(`{"Type":"Notification"}`),
		"inner not json":      wrapBody(t, "{{{", nil),
		"neither shape":       wrapBody(t, `{"foo":"bar"}`, nil),
		"empty records, rest": wrapBody(t, `{"Records":[]}`, nil),
	}

	for name, value := range cases {
		_, err := Decode(&models.Message{Value: value})
		require.Error(t, err, name)
		assert.Equal(t, models.KindMalformedEnvelope, models.KindOf(err), name)
	}
}

func TestDecodeBody_StorageEvents(t *testing.T) {
	decoded, err := DecodeBody([]byte(storageRecordsJSON), "")
	require.NoError(t, err)
	assert.Equal(t, KindStorageEvents, decoded.Kind)
}

func TestWrap_RoundTrip(t *testing.T) {
	value, err := Wrap("msg-9", []byte(`{"id":"a","value":"b"}`), map[string]string{AttrMetadataType: "Caption"})
	require.NoError(t, err)

	var env TopicEnvelope
	require.NoError(t, json.Unmarshal(value, &env))
	assert.Equal(t, "Notification", env.Type)
	assert.Equal(t, "msg-9", env.MessageID)
	assert.Equal(t, `{"id":"a","value":"b"}`, env.Message)
	assert.Equal(t, "Caption", env.MessageAttributes[AttrMetadataType].Value)
	assert.NotEmpty(t, env.Timestamp)
}

func TestParseEventName(t *testing.T) {
	assert.Equal(t, ObjectCreated, ParseEventName("ObjectCreated:Put"))
	assert.Equal(t, ObjectCreated, ParseEventName("s3:ObjectCreated:CompleteMultipartUpload"))
	assert.Equal(t, ObjectRemoved, ParseEventName("ObjectRemoved:DeleteMarkerCreated"))
	assert.Equal(t, UnknownEvent, ParseEventName("ReducedRedundancyLostObject"))
	assert.Equal(t, UnknownEvent, ParseEventName(""))
}

func TestNormalizeKey(t *testing.T) {
	assert.Equal(t, "summer holiday.jpeg", NormalizeKey("summer+holiday.jpeg"))
	assert.Equal(t, "café.png", NormalizeKey("caf%C3%A9.png"))
	assert.Equal(t, "plain.png", NormalizeKey("plain.png"))
	// broken escape: keep the delivered key, with '+' still unfolded
	assert.Equal(t, "bad escape.j%zzpeg", NormalizeKey("bad+escape.j%zzpeg"))
}
