package storage

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/storage"
)

// Client archives images processed by the translator.
type Client interface {
	SaveBytes(ctx context.Context, bucketName string, objectName string, data []byte, contentType string) error
}

type gcsClient struct {
	storageClient *storage.Client
}

func New(storageClient *storage.Client) Client {
	return &gcsClient{storageClient: storageClient}
}

func (s *gcsClient) SaveBytes(ctx context.Context, bucketName string, objectName string, data []byte, contentType string) error {
	bucket := s.storageClient.Bucket(bucketName)
	writer := bucket.Object(objectName).NewWriter(ctx)
	writer.ContentType = contentType

	_, err := writer.Write(data)
	if err != nil {
		writer.Close()
		return fmt.Errorf("failed to write to GCS: %w", err)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}

	return nil
}

// Stage of the image being archived.
type Stage string

const (
	StageBefore Stage = "before"
	StageAfter  Stage = "after"
)

// ObjectName names an archived image, e.g. "image-1700000000-5f1c...-before.png".
// Both stages of one request share timestamp and id.
func ObjectName(timestamp time.Time, id string, stage Stage, extension string) string {
	return fmt.Sprintf("image-%d-%s-%s.%s", timestamp.UTC().Unix(), id, stage, extension)
}
