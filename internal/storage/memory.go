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
	"os"
	"sort"
	"sync"
)

// Compile-time check to verify implements interface.
var _ Blobstore = (*Memory)(nil)

// Memory implements Blobstore and keeps objects in memory. Every call is
// recorded so tests can assert on the storage traffic.
type Memory struct {
	lock sync.Mutex
	data map[string][]byte
	ops  []string
}

// NewMemory creates a Blobstore that writes data in memory.
func NewMemory(_ context.Context) (Blobstore, error) {
	return NewMemoryStore(), nil
}

// NewMemoryStore is NewMemory returning the concrete type.
func NewMemoryStore() *Memory {
	return &Memory{
		data: make(map[string][]byte),
	}
}

func memoryKey(bucket, key string) string {
	return bucket + "/" + key
}

// Put seeds an object.
func (s *Memory) Put(bucket, key string, contents []byte) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.data[memoryKey(bucket, key)] = contents
}

// Get returns the contents for the given object. If the object does not
// exist, it returns ErrNotFound.
func (s *Memory) Get(bucket, key string) ([]byte, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	v, ok := s.data[memoryKey(bucket, key)]
	if !ok {
		return nil, ErrNotFound
	}
	return v, nil
}

// Keys returns all stored objects as sorted "bucket/key" strings.
func (s *Memory) Keys() []string {
	s.lock.Lock()
	defer s.lock.Unlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Ops returns the recorded calls, in order, as "op bucket/key".
func (s *Memory) Ops() []string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]string(nil), s.ops...)
}

func (s *Memory) record(op, bucket, key string) {
	s.ops = append(s.ops, op+" "+memoryKey(bucket, key))
}

// ObjectExists reports whether the object is stored.
func (s *Memory) ObjectExists(_ context.Context, bucket, key string) (bool, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.record("exists", bucket, key)
	_, ok := s.data[memoryKey(bucket, key)]
	return ok, nil
}

// DownloadObject writes the object to path.
func (s *Memory) DownloadObject(_ context.Context, bucket, key, path string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.record("download", bucket, key)
	v, ok := s.data[memoryKey(bucket, key)]
	if !ok {
		return fmt.Errorf("storage.DownloadObject: %s/%s: %w", bucket, key, ErrNotFound)
	}
	if err := os.WriteFile(path, v, 0o600); err != nil {
		return fmt.Errorf("storage.DownloadObject: %w", err)
	}
	return nil
}

// UploadObject stores the contents of path.
func (s *Memory) UploadObject(_ context.Context, bucket, key, path string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.record("upload", bucket, key)
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("storage.UploadObject: %w", err)
	}
	s.data[memoryKey(bucket, key)] = b
	return nil
}

// CopyObject copies an object.
func (s *Memory) CopyObject(_ context.Context, srcBucket, srcKey, dstBucket, dstKey string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.record("copy", srcBucket, srcKey)
	v, ok := s.data[memoryKey(srcBucket, srcKey)]
	if !ok {
		return fmt.Errorf("storage.CopyObject: %s/%s: %w", srcBucket, srcKey, ErrNotFound)
	}
	s.data[memoryKey(dstBucket, dstKey)] = append([]byte(nil), v...)
	return nil
}

// DeleteObject deletes an object. It returns nil if the object was deleted or
// if the object no longer exists.
func (s *Memory) DeleteObject(_ context.Context, bucket, key string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.record("delete", bucket, key)
	delete(s.data, memoryKey(bucket, key))
	return nil
}
