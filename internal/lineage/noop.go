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

	"github.com/swxsoc/sdc-aws-processing-lambda/internal/lineage/model"
	"github.com/swxsoc/sdc-aws-processing-lambda/pkg/logging"
)

// Compile-time check to verify implements interface.
var _ Tracker = (*Noop)(nil)

// Noop is used when no lineage database is configured. Files are logged and
// assigned zero ids.
type Noop struct{}

func NewNoop() Tracker {
	return &Noop{}
}

func (n *Noop) Track(ctx context.Context, filePath, s3Key, s3Bucket string, originFileID *int64, status *model.Status) (int64, int64, error) {
	logger := logging.FromContext(ctx).Named("lineage")
	fields := []interface{}{"bucket", s3Bucket, "key", s3Key}
	if status != nil {
		fields = append(fields, "status", status.Code())
	}
	logger.Infow("lineage tracking disabled, not recording file", fields...)
	return 0, 0, nil
}

func (n *Noop) FailedFiles(ctx context.Context) ([]*model.FailedFile, error) {
	return nil, nil
}
