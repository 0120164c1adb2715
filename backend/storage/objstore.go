// Package storage хранит PDF-вложения заявок ЄДЕБО в MinIO.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"diwt-portal/backend/config"
)

type ObjectStore struct {
	mc     *minio.Client
	bucket string
}

// NewObjectStore создает клиент MinIO. Возвращает (nil, nil), если
// endpoint не задан — загрузка файлов тогда отключена, заявки ЄДЕБО
// принимаются без вложения.
func NewObjectStore(cfg *config.Config) (*ObjectStore, error) {
	if cfg.MinioEndpoint == "" {
		return nil, nil
	}
	if cfg.MinioAccessKey == "" || cfg.MinioSecretKey == "" {
		return nil, fmt.Errorf("minio access key and secret key are required")
	}

	mc, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &ObjectStore{mc: mc, bucket: cfg.MinioBucket}, nil
}

func (s *ObjectStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.mc.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := s.mc.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
	}
	return nil
}

// UploadCertificateFile кладет вложение заявки и возвращает подписанную
// ссылку на скачивание.
func (s *ObjectStore) UploadCertificateFile(ctx context.Context, certID, fileName string, reader io.Reader, size int64) (string, error) {
	key := fmt.Sprintf("edbo/%s/%s", certID, fileName)

	_, err := s.mc.PutObject(ctx, s.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: "application/pdf",
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}

	u, err := s.mc.PresignedGetObject(ctx, s.bucket, key, 7*24*time.Hour, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return u.String(), nil
}

func (s *ObjectStore) DeleteCertificateFiles(ctx context.Context, certID string) error {
	prefix := fmt.Sprintf("edbo/%s/", certID)
	for obj := range s.mc.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix}) {
		if obj.Err != nil {
			return obj.Err
		}
		if err := s.mc.RemoveObject(ctx, s.bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			return err
		}
	}
	return nil
}
