// SPDX-License-Identifier: GPL-3.0-only

package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"admindesk-server/commons"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type AvatarStore struct {
	Client *minio.Client
	Bucket string
}

func NewAvatarStore() (*AvatarStore, error) {
	endpoint := commons.GetEnv("MINIO_ENDPOINT")
	if endpoint == "" {
		return nil, fmt.Errorf("MINIO_ENDPOINT environment variable is not set")
	}
	accessKey := commons.GetEnv("MINIO_ACCESS_KEY")
	secretKey := commons.GetEnv("MINIO_SECRET_KEY")
	if accessKey == "" || secretKey == "" {
		return nil, fmt.Errorf("MINIO_ACCESS_KEY and MINIO_SECRET_KEY environment variables are required")
	}
	useSSL := commons.GetEnv("MINIO_USE_SSL") == "true"
	bucket := commons.GetEnv("AVATARS_BUCKET", "avatars")

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object storage client: %w", err)
	}

	commons.Logger.Debugf("Object storage client initialized for %s", endpoint)
	return &AvatarStore{Client: client, Bucket: bucket}, nil
}

func (s *AvatarStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.Client.BucketExists(ctx, s.Bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", s.Bucket, err)
	}
	if !exists {
		if err := s.Client.MakeBucket(ctx, s.Bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", s.Bucket, err)
		}
		commons.Logger.Infof("Created avatar bucket %s", s.Bucket)
	}
	return nil
}

func (s *AvatarStore) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	_, err := s.Client.PutObject(ctx, s.Bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	commons.Logger.Debugf("Uploaded avatar object %s", key)
	return nil
}

// Delete is idempotent; removing a key that is already gone is not an error.
func (s *AvatarStore) Delete(ctx context.Context, key string) error {
	if err := s.Client.RemoveObject(ctx, s.Bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (s *AvatarStore) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := s.Client.PresignedGetObject(ctx, s.Bucket, key, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", key, err)
	}
	return u.String(), nil
}
