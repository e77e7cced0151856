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

package lineage

import (
	"context"
	"sort"
	"sync"

	"github.com/swxsoc/sdc-aws-processing-lambda/internal/lineage/model"
)

// Compile-time check to verify implements interface.
var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-memory Store for tests and local runs. It assigns
// sequential ids and can be told to fail upcoming writes.
type MemoryStore struct {
	mu       sync.Mutex
	records  []*StoredRecord
	products map[model.Product]int64
	nextID   int64

	failures []error
	calls    int
}

// StoredRecord is a record as written to a MemoryStore.
type StoredRecord struct {
	FileID    int64
	ProductID int64
	StatusID  int64
	Record    model.LineageRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products: make(map[model.Product]int64),
	}
}

// FailWith makes the next len(errs) calls fail with the given errors, in order.
func (m *MemoryStore) FailWith(errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, errs...)
}

// Calls returns the number of store calls made, including failed ones.
func (m *MemoryStore) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Records returns the stored records in insertion order.
func (m *MemoryStore) Records() []*StoredRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*StoredRecord(nil), m.records...)
}

func (m *MemoryStore) nextFailure() error {
	m.calls++
	if len(m.failures) == 0 {
		return nil
	}
	err := m.failures[0]
	m.failures = m.failures[1:]
	return err
}

func (m *MemoryStore) InsertRecord(ctx context.Context, rec *model.LineageRecord) (int64, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.nextFailure(); err != nil {
		return 0, 0, err
	}

	key := rec.Product
	key.ID = 0
	key.ObservedAt = key.ObservedAt.UTC()
	productID, ok := m.products[key]
	if !ok {
		m.nextID++
		productID = m.nextID
		m.products[key] = productID
	}

	m.nextID++
	stored := &StoredRecord{
		FileID:    m.nextID,
		ProductID: productID,
		Record:    *rec,
	}
	stored.Record.OriginFileIDs = append([]int64(nil), rec.OriginFileIDs...)
	if rec.Status != nil {
		m.nextID++
		stored.StatusID = m.nextID
	}
	m.records = append(m.records, stored)

	return stored.FileID, stored.ProductID, nil
}

func (m *MemoryStore) FailedFiles(ctx context.Context) ([]*model.FailedFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.nextFailure(); err != nil {
		return nil, err
	}

	type location struct{ bucket, key string }
	latest := make(map[location]*StoredRecord)
	for _, r := range m.records {
		if r.Record.Status == nil {
			continue
		}
		latest[location{r.Record.Bucket, r.Record.Key}] = r
	}

	var failed []*model.FailedFile
	for _, r := range latest {
		if r.Record.Status.Code() != model.StatusFailed {
			continue
		}
		origins := append([]int64{}, r.Record.OriginFileIDs...)
		sort.Slice(origins, func(i, j int) bool { return origins[i] < origins[j] })
		failed = append(failed, &model.FailedFile{
			FileID:        r.FileID,
			StatusID:      r.StatusID,
			Bucket:        r.Record.Bucket,
			Key:           r.Record.Key,
			OriginFileIDs: origins,
		})
	}
	sort.Slice(failed, func(i, j int) bool { return failed[i].StatusID < failed[j].StatusID })
	return failed, nil
}
