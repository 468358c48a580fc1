package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"idrepo/internal/apperror"
	"idrepo/internal/config"
)

// minioStore implements BlobStore against an S3-compatible backend (MinIO,
// AWS S3, etc.). It is safe for concurrent use by multiple goroutines.
type minioStore struct {
	client *minio.Client
}

// NewMinIO creates a blob store backed by MinIO. Buckets are created lazily
// per UIN, so only connectivity settings are validated here.
func NewMinIO(cfg config.MinIOConfig) (BlobStore, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("minio credentials are required")
	}

	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &minioStore{client: cli}, nil
}

func (m *minioStore) EnsureContainer(ctx context.Context, uin string) error {
	exists, err := m.client.BucketExists(ctx, uin)
	if err != nil {
		return apperror.Wrap(apperror.KindStorageAccess, "check container existence", err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, uin, minio.MakeBucketOptions{}); err != nil {
		return apperror.Wrap(apperror.KindStorageAccess, "create container", err)
	}
	return nil
}

func (m *minioStore) Put(ctx context.Context, uin, key string, data []byte) error {
	if err := m.EnsureContainer(ctx, uin); err != nil {
		return err
	}
	_, err := m.client.PutObject(ctx, uin, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/octet-stream"})
	return apperror.Wrap(apperror.KindStorageAccess, "store object", err)
}

func (m *minioStore) List(ctx context.Context, uin, prefix string) ([]Object, error) {
	objects := make([]Object, 0)
	for info := range m.client.ListObjects(ctx, uin, minio.ListObjectsOptions{Recursive: true}) {
		if info.Err != nil {
			return nil, apperror.Wrap(apperror.KindStorageAccess, "list objects", info.Err)
		}
		if !hasPrefixFold(info.Key, prefix) {
			continue
		}
		obj, err := m.client.GetObject(ctx, uin, info.Key, minio.GetObjectOptions{})
		if err != nil {
			return nil, apperror.Wrap(apperror.KindStorageAccess, "fetch object", err)
		}
		data, err := io.ReadAll(obj)
		obj.Close()
		if err != nil {
			return nil, apperror.Wrap(apperror.KindStorageAccess, "read object content", err)
		}
		objects = append(objects, Object{Key: info.Key, Data: data})
	}
	return objects, nil
}

// hasPrefixFold reports whether key starts with prefix, ignoring case.
func hasPrefixFold(key, prefix string) bool {
	return len(key) >= len(prefix) && strings.EqualFold(key[:len(prefix)], prefix)
}
