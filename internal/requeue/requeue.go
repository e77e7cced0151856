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

// Package requeue re-drives science files whose most recent processing
// attempt failed.
package requeue

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/lineage"
	"github.com/swxsoc/sdc-aws-processing-lambda/pkg/logging"
)

// Driver finds failed files and dispatches a new processing event for each.
type Driver struct {
	tracker    lineage.Tracker
	dispatcher Dispatcher
}

// NewDriver creates a Driver.
func NewDriver(tracker lineage.Tracker, dispatcher Dispatcher) *Driver {
	return &Driver{
		tracker:    tracker,
		dispatcher: dispatcher,
	}
}

// Requeue dispatches one event per failed file and returns the number
// dispatched. A dispatch failure does not stop the remaining files; all
// failures are returned together. Dispatched files are not marked, so a file
// that fails again is requeued again on the next run.
func (d *Driver) Requeue(ctx context.Context) (int, error) {
	logger := logging.FromContext(ctx).Named("requeue")

	failed, err := d.tracker.FailedFiles(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing failed files: %w", err)
	}
	logger.Infow("requeueing failed files", "count", len(failed))

	var (
		result     *multierror.Error
		dispatched int
	)
	for _, f := range failed {
		msg, err := NewMessage(f.Bucket, f.Key, f.StatusID)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}

		if err := d.dispatcher.Dispatch(ctx, msg); err != nil {
			logger.Errorw("failed to dispatch", "bucket", f.Bucket, "key", f.Key, "error", err)
			recordDispatch(ctx, false)
			result = multierror.Append(result, fmt.Errorf("dispatching %s/%s: %w", f.Bucket, f.Key, err))
			continue
		}

		logger.Infow("dispatched", "bucket", f.Bucket, "key", f.Key,
			"file_id", f.FileID, "idempotency_key", msg.IdempotencyKey)
		recordDispatch(ctx, true)
		dispatched++
	}

	return dispatched, result.ErrorOrNil()
}
