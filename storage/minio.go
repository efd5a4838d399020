package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"tipwave/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const audioPrefix = "audio/"

// MinioStore is a FileStore backed by a MinIO (or S3-compatible) bucket.
type MinioStore struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

// NewMinioStore connects to MinIO and ensures the bucket exists.
func NewMinioStore(cfg *config.Config) (*MinioStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.MinioBucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: cfg.MinioRegion}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.MinioBucket, err)
		}
	}

	return &MinioStore{
		client:  client,
		bucket:  cfg.MinioBucket,
		baseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}, nil
}

// SaveFile uploads the blob under an assigned object name.
func (s *MinioStore) SaveFile(ctx context.Context, originalName, contentType string, r io.Reader, size int64) (*SaveResult, error) {
	filename := assignFilename(originalName)

	_, err := s.client.PutObject(ctx, s.bucket, audioPrefix+filename, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload object %s: %w", filename, err)
	}

	return &SaveResult{
		Filename: filename,
		URL:      s.baseURL + "/files/" + filename,
	}, nil
}

// GetFileInfo stats the object and returns its size and MIME type.
func (s *MinioStore) GetFileInfo(ctx context.Context, filename string) (*FileInfo, error) {
	info, err := s.client.StatObject(ctx, s.bucket, audioPrefix+filename, minio.StatObjectOptions{})
	if err != nil {
		if isMinioNotFound(err) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to stat object %s: %w", filename, err)
	}

	return &FileInfo{
		Size:     info.Size,
		MimeType: info.ContentType,
	}, nil
}

// GetStreamingURL computes the streaming URL for an assigned filename.
func (s *MinioStore) GetStreamingURL(filename string) string {
	return s.baseURL + "/stream/" + filename
}

// DeleteFile removes the object from the bucket.
func (s *MinioStore) DeleteFile(ctx context.Context, filename string) error {
	// RemoveObject succeeds on missing keys, so stat first to surface
	// the not-found case to the caller.
	if _, err := s.client.StatObject(ctx, s.bucket, audioPrefix+filename, minio.StatObjectOptions{}); err != nil {
		if isMinioNotFound(err) {
			return ErrFileNotFound
		}
		return fmt.Errorf("failed to stat object %s before delete: %w", filename, err)
	}

	if err := s.client.RemoveObject(ctx, s.bucket, audioPrefix+filename, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove object %s: %w", filename, err)
	}
	return nil
}

// Open returns a reader over the stored object.
func (s *MinioStore) Open(ctx context.Context, filename string) (io.ReadCloser, error) {
	object, err := s.client.GetObject(ctx, s.bucket, audioPrefix+filename, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", filename, err)
	}
	return object, nil
}

func isMinioNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == 404
}

// BucketStats aggregates object counts and sizes for the status command.
type BucketStats struct {
	TotalObjects int64
	TotalSize    int64
	LastModified time.Time
}

// Stats walks the bucket and returns aggregate usage numbers.
func (s *MinioStore) Stats(ctx context.Context) (*BucketStats, error) {
	stats := &BucketStats{}

	objectCh := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Recursive: true})
	for object := range objectCh {
		if object.Err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", object.Err)
		}
		stats.TotalObjects++
		stats.TotalSize += object.Size
		if object.LastModified.After(stats.LastModified) {
			stats.LastModified = object.LastModified
		}
	}

	return stats, nil
}

// FormatSize renders a byte count in human units.
func FormatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
