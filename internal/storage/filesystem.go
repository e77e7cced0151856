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
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Compile-time check to verify implements interface.
var _ Blobstore = (*FilesystemStorage)(nil)

// FilesystemStorage implements Blobstore on the local disk. Each bucket is a
// directory under root.
type FilesystemStorage struct {
	root string
}

// NewFilesystemStorage creates a Blobstore rooted at the given directory.
func NewFilesystemStorage(_ context.Context, root string) (Blobstore, error) {
	if root == "" {
		return nil, fmt.Errorf("filesystem storage requires a root directory")
	}
	return &FilesystemStorage{root: root}, nil
}

func (s *FilesystemStorage) path(bucket, key string) string {
	return filepath.Join(s.root, bucket, filepath.FromSlash(key))
}

// ObjectExists reports whether the backing file exists.
func (s *FilesystemStorage) ObjectExists(_ context.Context, bucket, key string) (bool, error) {
	if _, err := os.Stat(s.path(bucket, key)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("storage.ObjectExists: %w", err)
	}
	return true, nil
}

// DownloadObject copies the backing file to path.
func (s *FilesystemStorage) DownloadObject(_ context.Context, bucket, key, path string) error {
	if err := copyFile(s.path(bucket, key), path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("storage.DownloadObject: %s/%s: %w", bucket, key, ErrNotFound)
		}
		return fmt.Errorf("storage.DownloadObject: %w", err)
	}
	return nil
}

// UploadObject copies path into the bucket directory.
func (s *FilesystemStorage) UploadObject(_ context.Context, bucket, key, path string) error {
	if err := copyFile(path, s.path(bucket, key)); err != nil {
		return fmt.Errorf("storage.UploadObject: %w", err)
	}
	return nil
}

// CopyObject copies one backing file to another.
func (s *FilesystemStorage) CopyObject(_ context.Context, srcBucket, srcKey, dstBucket, dstKey string) error {
	if err := copyFile(s.path(srcBucket, srcKey), s.path(dstBucket, dstKey)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("storage.CopyObject: %s/%s: %w", srcBucket, srcKey, ErrNotFound)
		}
		return fmt.Errorf("storage.CopyObject: %w", err)
	}
	return nil
}

// DeleteObject deletes the backing file, returns nil if it was successfully
// deleted, or if it doesn't exist.
func (s *FilesystemStorage) DeleteObject(_ context.Context, bucket, key string) error {
	if err := os.Remove(s.path(bucket, key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage.DeleteObject: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
