/*
Package storage provides the blob storage service backing file messages.

File payloads never pass through this server: clients upload directly to an
S3-compatible bucket through short-lived presigned URLs scoped to their
conversation, and download URLs are resolved on read paths the same way.
*/
package storage

import (
	"context"
	"time"
)

// PresignedURLDuration is the validity window for presigned upload and
// download URLs.
const PresignedURLDuration = 5 * time.Minute

// ServiceConfig holds the configuration required to connect to the storage service.
type ServiceConfig struct {
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// Service defines the public interface for the file storage service.
type Service interface {
	// PresignUpload generates a pre-signed URL for uploading a file.
	PresignUpload(ctx context.Context, key string, mimeType string, fileSize int64, duration time.Duration) (string, error)

	// PresignDownload generates a pre-signed URL for downloading a file.
	PresignDownload(ctx context.Context, key string, duration time.Duration) (string, error)

	// Delete removes the object specified by the given key.
	Delete(ctx context.Context, key string) error
}

// NewService is the factory function for Service. Only S3-compatible
// implementations are currently supported.
func NewService(cfg ServiceConfig) (Service, error) {
	return newS3Client(cfg)
}
