// Copyright 2023 the SDC AWS Processing Lambda authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Compile-time check to verify implements interface.
var _ Blobstore = (*MinIO)(nil)

// MinIO implements the Blobstore interface against an S3-compatible MinIO
// server. It is used for local development stacks.
type MinIO struct {
	client *minio.Client
}

// NewMinIO creates a MinIO client from the given configuration.
func NewMinIO(_ context.Context, cfg *Config) (Blobstore, error) {
	client, err := minio.New(cfg.MinIOEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIOAccessKey, cfg.MinIOSecretKey, ""),
		Secure: cfg.MinIOUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &MinIO{
		client: client,
	}, nil
}

// ObjectExists stats the object.
func (m *MinIO) ObjectExists(ctx context.Context, bucket, key string) (bool, error) {
	if _, err := m.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{}); err != nil {
		if isMinIONotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("storage.ObjectExists: %w", err)
	}
	return true, nil
}

// DownloadObject downloads the object to path.
func (m *MinIO) DownloadObject(ctx context.Context, bucket, key, path string) error {
	if err := m.client.FGetObject(ctx, bucket, key, path, minio.GetObjectOptions{}); err != nil {
		if isMinIONotFound(err) {
			return fmt.Errorf("storage.DownloadObject: %s/%s: %w", bucket, key, ErrNotFound)
		}
		return fmt.Errorf("storage.DownloadObject: %w", err)
	}
	return nil
}

// UploadObject uploads the file at path.
func (m *MinIO) UploadObject(ctx context.Context, bucket, key, path string) error {
	if _, err := m.client.FPutObject(ctx, bucket, key, path, minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	}); err != nil {
		return fmt.Errorf("storage.UploadObject: %w", err)
	}
	return nil
}

// CopyObject performs a server-side copy.
func (m *MinIO) CopyObject(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) error {
	dst := minio.CopyDestOptions{Bucket: dstBucket, Object: dstKey}
	src := minio.CopySrcOptions{Bucket: srcBucket, Object: srcKey}
	if _, err := m.client.CopyObject(ctx, dst, src); err != nil {
		if isMinIONotFound(err) {
			return fmt.Errorf("storage.CopyObject: %s/%s: %w", srcBucket, srcKey, ErrNotFound)
		}
		return fmt.Errorf("storage.CopyObject: %w", err)
	}
	return nil
}

// DeleteObject removes the object. Removing a missing object is not an error.
func (m *MinIO) DeleteObject(ctx context.Context, bucket, key string) error {
	if err := m.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
		if isMinIONotFound(err) {
			return nil
		}
		return fmt.Errorf("storage.DeleteObject: %w", err)
	}
	return nil
}

func isMinIONotFound(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket", "NotFound":
		return true
	}
	return false
}
