package filestore

import (
	miniodb "DocQA/backend/go/internal/database/minio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/minio/minio-go/v7"
)

// MinioStore keeps uploads as objects in a bucket. Extraction works on a
// temporary local copy.
type MinioStore struct {
	client *minio.Client
	bucket string
}

func NewMinioStore(client *minio.Client, bucket string) *MinioStore {
	return &MinioStore{client: client, bucket: bucket}
}

func (s *MinioStore) Save(ctx context.Context, name string, r io.Reader, size int64) error {
	_, err := s.client.PutObject(ctx, s.bucket, name, r, size, minio.PutObjectOptions{ContentType: "application/pdf"})
	if err != nil {
		return fmt.Errorf("failed to upload %s to bucket %s: %w", name, s.bucket, err)
	}
	return nil
}

func (s *MinioStore) LocalPath(ctx context.Context, name string) (string, func(), error) {
	tmp, err := os.CreateTemp("", "docqa-*-"+name)
	if err != nil {
		return "", nil, err
	}
	path := tmp.Name()
	tmp.Close()
	release := func() { os.Remove(path) }

	if err := s.client.FGetObject(ctx, s.bucket, name, path, minio.GetObjectOptions{}); err != nil {
		release()
		return "", nil, fmt.Errorf("failed to download %s from bucket %s: %w", name, s.bucket, err)
	}
	return path, release, nil
}

func (s *MinioStore) Delete(ctx context.Context, name string) error {
	return s.client.RemoveObject(ctx, s.bucket, name, minio.RemoveObjectOptions{})
}

func (s *MinioStore) HealthCheck(ctx context.Context) error {
	return miniodb.HealthCheck(ctx, s.client, s.bucket)
}
