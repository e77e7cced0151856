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

// Package lineage records the provenance and processing status of science
// files, retrying writes that fail for transient reasons.
package lineage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/database"
	lineagedb "github.com/swxsoc/sdc-aws-processing-lambda/internal/lineage/database"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/lineage/model"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/science"
	"github.com/swxsoc/sdc-aws-processing-lambda/pkg/logging"
)

// ErrInvalidPath is returned when the local file or its key cannot be
// described as a science product. It is never retried.
var ErrInvalidPath = errors.New("invalid lineage path")

// Store persists lineage records.
type Store interface {
	InsertRecord(ctx context.Context, rec *model.LineageRecord) (fileID, productID int64, err error)
	FailedFiles(ctx context.Context) ([]*model.FailedFile, error)
}

// Compile-time check to verify implements interface.
var _ Store = (*lineagedb.LineageDB)(nil)

// Tracker records lineage for files handled by the pipeline.
type Tracker interface {
	// Track records a file that exists locally at filePath and is (or will be)
	// stored at s3Bucket/s3Key. It returns the ids assigned by the store.
	Track(ctx context.Context, filePath, s3Key, s3Bucket string, originFileID *int64, status *model.Status) (fileID, productID int64, err error)

	// FailedFiles returns every file whose most recent status is FAILED.
	FailedFiles(ctx context.Context) ([]*model.FailedFile, error)
}

// Compile-time check to verify implements interface.
var _ Tracker = (*RetryingTracker)(nil)

// RetryingTracker writes to a Store, retrying transient failures with a
// jittered constant backoff.
type RetryingTracker struct {
	store  Store
	parser *science.Parser
	config *Config
}

// NewTracker creates a RetryingTracker.
func NewTracker(store Store, parser *science.Parser, config *Config) *RetryingTracker {
	return &RetryingTracker{
		store:  store,
		parser: parser,
		config: config,
	}
}

// Track implements Tracker.
func (t *RetryingTracker) Track(ctx context.Context, filePath, s3Key, s3Bucket string, originFileID *int64, status *model.Status) (int64, int64, error) {
	logger := logging.FromContext(ctx).Named("lineage")

	rec, err := t.buildRecord(filePath, s3Key, s3Bucket, originFileID, status)
	if err != nil {
		recordTrack(ctx, "INVALID")
		return 0, 0, err
	}

	var fileID, productID int64
	attempt := 0
	if err := t.retry(ctx, func(ctx context.Context) error {
		attempt++
		var err error
		fileID, productID, err = t.store.InsertRecord(ctx, rec)
		if err != nil && database.IsTransient(err) {
			logger.Warnw("transient lineage write failure", "key", s3Key, "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return err
	}); err != nil {
		recordTrack(ctx, "ERROR")
		return 0, 0, fmt.Errorf("tracking %s/%s after %d attempts: %w", s3Bucket, s3Key, attempt, err)
	}

	recordTrack(ctx, "OK")
	logger.Debugw("tracked file", "bucket", s3Bucket, "key", s3Key, "file_id", fileID, "product_id", productID)
	return fileID, productID, nil
}

// FailedFiles implements Tracker.
func (t *RetryingTracker) FailedFiles(ctx context.Context) ([]*model.FailedFile, error) {
	var failed []*model.FailedFile
	if err := t.retry(ctx, func(ctx context.Context) error {
		var err error
		failed, err = t.store.FailedFiles(ctx)
		if err != nil && database.IsTransient(err) {
			return retry.RetryableError(err)
		}
		return err
	}); err != nil {
		return nil, err
	}
	return failed, nil
}

func (t *RetryingTracker) retry(ctx context.Context, f retry.RetryFunc) error {
	unit := t.config.RetryUnit
	if unit <= 0 {
		unit = time.Second
	}
	attempts := t.config.MaxAttempts
	if attempts == 0 {
		attempts = 1
	}

	// Delays fall in [2u, 10u].
	b := retry.WithMaxRetries(attempts-1, retry.WithJitter(4*unit, retry.NewConstant(6*unit)))
	return retry.Do(ctx, b, f)
}

func (t *RetryingTracker) buildRecord(filePath, s3Key, s3Bucket string, originFileID *int64, status *model.Status) (*model.LineageRecord, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrInvalidPath, filePath)
	}

	parsed, err := t.parser.Parse(s3Key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPath, err)
	}

	var origins []int64
	if status != nil {
		origins = status.OriginFileIDs()
	}
	if originFileID != nil && !contains(origins, *originFileID) {
		origins = append(origins, *originFileID)
	}

	return &model.LineageRecord{
		Product: model.Product{
			Instrument: parsed.Instrument,
			Mode:       parsed.Mode,
			Level:      parsed.Level.String(),
			Version:    parsed.Version,
			ObservedAt: parsed.Time,
		},
		Bucket:        s3Bucket,
		Key:           s3Key,
		Filename:      science.Filename(s3Key),
		Status:        status,
		OriginFileIDs: origins,
	}, nil
}

func contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
