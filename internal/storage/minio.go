package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioConfig locates the S3-compatible bucket.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// MinioBackend stores objects in a MinIO (or any S3) bucket.
type MinioBackend struct {
	client *minio.Client
	bucket string
}

// NewMinio connects to MinIO and creates the bucket if it does not exist.
// The bucket stays private; reads go through the API.
func NewMinio(ctx context.Context, cfg MinioConfig) (*MinioBackend, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("checking bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("creating bucket %s: %w", cfg.Bucket, err)
		}
	}

	return &MinioBackend{client: client, bucket: cfg.Bucket}, nil
}

func objectKey(path string) string {
	return strings.TrimPrefix(path, "/")
}

// Put uploads an object.
func (b *MinioBackend) Put(ctx context.Context, path string, r io.Reader, size int64, contentType string) error {
	_, err := b.client.PutObject(ctx, b.bucket, objectKey(path), r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

// Get opens an object for reading.
func (b *MinioBackend) Get(ctx context.Context, path string) (*Object, error) {
	obj, err := b.client.GetObject(ctx, b.bucket, objectKey(path), minio.GetObjectOptions{})
	if err != nil {
		return nil, translate(path, err)
	}
	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, translate(path, err)
	}
	return &Object{Body: obj, Size: info.Size, ContentType: info.ContentType}, nil
}

// Remove deletes an object. Removing a missing object is not an error.
func (b *MinioBackend) Remove(ctx context.Context, path string) error {
	if err := b.client.RemoveObject(ctx, b.bucket, objectKey(path), minio.RemoveObjectOptions{}); err != nil {
		return translate(path, err)
	}
	return nil
}

func translate(path string, err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	return fmt.Errorf("object %s: %w", path, err)
}
