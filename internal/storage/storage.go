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

// Package storage is an interface over object storage.
package storage

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is the error returned when an object does not exist.
var ErrNotFound = errors.New("storage object not found")

// Blobstore defines the minimum interface for a blob storage system.
type Blobstore interface {
	// ObjectExists reports whether the object exists.
	ObjectExists(ctx context.Context, bucket, key string) (bool, error)

	// DownloadObject writes the object to the local file at path. It returns
	// ErrNotFound if the object does not exist.
	DownloadObject(ctx context.Context, bucket, key, path string) error

	// UploadObject creates or overwrites an object with the contents of the
	// local file at path.
	UploadObject(ctx context.Context, bucket, key, path string) error

	// CopyObject copies an object, possibly between buckets.
	CopyObject(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) error

	// DeleteObject deletes an object or does nothing if the object doesn't
	// exist.
	DeleteObject(ctx context.Context, bucket, key string) error
}

// BlobstoreFor returns the blob store for the given type, or an error if one
// does not exist.
func BlobstoreFor(ctx context.Context, cfg *Config) (Blobstore, error) {
	var (
		store Blobstore
		err   error
	)

	switch typ := cfg.Type; typ {
	case BlobstoreTypeAWSS3:
		store, err = NewAWSS3(ctx)
	case BlobstoreTypeMinIO:
		store, err = NewMinIO(ctx, cfg)
	case BlobstoreTypeFilesystem:
		store, err = NewFilesystemStorage(ctx, cfg.FilesystemRoot)
	case BlobstoreTypeMemory:
		store, err = NewMemory(ctx)
	case BlobstoreTypeNoop:
		store, err = NewNoop(ctx)
	default:
		return nil, fmt.Errorf("unknown blob store type: %v", typ)
	}
	if err != nil {
		return nil, err
	}

	return WithMetrics(store), nil
}
