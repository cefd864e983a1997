package services

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// StorageService wraps the object-storage bucket holding car images.
// Upload returns the public URL clients embed in listings.
type StorageService interface {
	Upload(ctx context.Context, objectPath string, reader io.Reader, size int64, contentType string) (string, error)
	Remove(ctx context.Context, objectPaths []string) error
	EnsureBucket(ctx context.Context) error
	ListObjects(ctx context.Context, prefix string) ([]string, error)
	PathFromURL(publicURL string) (string, bool)
}

type minioStorage struct {
	client        *minio.Client
	bucket        string
	publicBaseURL string
}

func NewMinioStorage(endpoint, accessKey, secretKey string, useSSL bool, bucket, publicBaseURL string) (StorageService, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, err
	}
	return &minioStorage{
		client:        client,
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}, nil
}

func (m *minioStorage) Upload(ctx context.Context, objectPath string, reader io.Reader, size int64, contentType string) (string, error) {
	_, err := m.client.PutObject(ctx, m.bucket, objectPath, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s/%s", m.publicBaseURL, m.bucket, objectPath), nil
}

// Remove deletes the given objects as one batch. The first per-object
// failure is returned after the batch drains.
func (m *minioStorage) Remove(ctx context.Context, objectPaths []string) error {
	objectsCh := make(chan minio.ObjectInfo, len(objectPaths))
	go func() {
		defer close(objectsCh)
		for _, path := range objectPaths {
			objectsCh <- minio.ObjectInfo{Key: path}
		}
	}()

	var firstErr error
	for result := range m.client.RemoveObjects(ctx, m.bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		if result.Err != nil && firstErr == nil {
			firstErr = fmt.Errorf("remove %s: %w", result.ObjectName, result.Err)
		}
	}
	return firstErr
}

func (m *minioStorage) EnsureBucket(ctx context.Context) error {
	found, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return err
	}
	if !found {
		return m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{})
	}
	return nil
}

func (m *minioStorage) ListObjects(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for object := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if object.Err != nil {
			return nil, object.Err
		}
		keys = append(keys, object.Key)
	}
	return keys, nil
}

// PathFromURL recovers the object path from a public URL previously
// returned by Upload. Unrecognized URLs report ok=false.
func (m *minioStorage) PathFromURL(publicURL string) (string, bool) {
	u, err := url.Parse(publicURL)
	if err != nil {
		return "", false
	}
	marker := "/" + m.bucket + "/"
	idx := strings.Index(u.Path, marker)
	if idx < 0 {
		return "", false
	}
	objectPath := u.Path[idx+len(marker):]
	if objectPath == "" {
		return "", false
	}
	return objectPath, true
}
