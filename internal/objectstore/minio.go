package objectstore

import (
	"context"
	"encoding/json"
	"fmt"

	"go-mediaflow/internal/observability"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/notification"
	"github.com/sirupsen/logrus"
)

// listened covers creations and removals; other bucket events never
// enter the pipeline.
var listened = []string{
	"s3:ObjectCreated:*",
	"s3:ObjectRemoved:*",
}

// BucketListener subscribes to a bucket's notification stream and
// re-emits each batch of records as S3-style Records JSON, ready for
// the inbound topic.
type BucketListener struct {
	client *minio.Client
	bucket string
	logger *logrus.Logger
}

func NewBucketListener(endpoint, accessKey, secretKey string, useSSL bool, bucket string) (*BucketListener, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating object store client: %w", err)
	}
	return &BucketListener{
		client: client,
		bucket: bucket,
		logger: observability.GetLogger(),
	}, nil
}

// recordsPayload mirrors the notification body the store would deliver
// to a topic subscription directly.
type recordsPayload struct {
	Records []notification.Event `json:"Records"`
}

// Events streams marshaled storage-event payloads until ctx is
// canceled. Stream errors are logged and skipped; the underlying
// listener reconnects on its own.
func (l *BucketListener) Events(ctx context.Context) <-chan []byte {
	out := make(chan []byte)

	go func() {
		defer close(out)
		for info := range l.client.ListenBucketNotification(ctx, l.bucket, "", "", listened) {
			if info.Err != nil {
				l.logger.WithError(info.Err).Warn("Bucket notification stream error")
				continue
			}
			if len(info.Records) == 0 {
				continue
			}
			payload, err := json.Marshal(recordsPayload{Records: info.Records})
			if err != nil {
				l.logger.WithError(err).Error("Failed to encode bucket notification")
				continue
			}
			select {
			case out <- payload:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
