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
	"time"

	"github.com/swxsoc/sdc-aws-processing-lambda/internal/metrics"
	"github.com/swxsoc/sdc-aws-processing-lambda/pkg/observability"

	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

const metricPrefix = metrics.MetricRoot + "storage"

var (
	operationTagKey = tag.MustNewKey("operation")

	mLatencyMs = stats.Float64(metricPrefix+"/latency", "storage operation latency", stats.UnitMilliseconds)
)

func init() {
	observability.CollectViews([]*view.View{
		{
			Name:        metricPrefix + "/request_count",
			Description: "Count of storage operations",
			TagKeys:     []tag.Key{operationTagKey, observability.ResultTagKey},
			Measure:     mLatencyMs,
			Aggregation: view.Count(),
		},
		{
			Name:        metricPrefix + "/latency",
			Description: "Distribution of storage operation latency",
			TagKeys:     []tag.Key{operationTagKey},
			Measure:     mLatencyMs,
			Aggregation: view.Distribution(5, 10, 50, 100, 250, 500, 1000, 5000, 10000, 60000),
		},
	}...)
}

// Compile-time check to verify implements interface.
var _ Blobstore = (*instrumented)(nil)

// instrumented records latency and result for every call to the wrapped
// Blobstore.
type instrumented struct {
	next Blobstore
}

// WithMetrics wraps a Blobstore with OpenCensus instrumentation.
func WithMetrics(b Blobstore) Blobstore {
	return &instrumented{next: b}
}

func record(ctx context.Context, op string, start time.Time, err error) {
	result := observability.ResultOK
	if err != nil {
		result = observability.ResultNotOK
	}
	operation := tag.Upsert(operationTagKey, op)
	observability.RecordLatency(ctx, start, mLatencyMs, &operation, &result)
}

func (i *instrumented) ObjectExists(ctx context.Context, bucket, key string) (ok bool, err error) {
	defer func(start time.Time) { record(ctx, "exists", start, err) }(time.Now())
	return i.next.ObjectExists(ctx, bucket, key)
}

func (i *instrumented) DownloadObject(ctx context.Context, bucket, key, path string) (err error) {
	defer func(start time.Time) { record(ctx, "download", start, err) }(time.Now())
	return i.next.DownloadObject(ctx, bucket, key, path)
}

func (i *instrumented) UploadObject(ctx context.Context, bucket, key, path string) (err error) {
	defer func(start time.Time) { record(ctx, "upload", start, err) }(time.Now())
	return i.next.UploadObject(ctx, bucket, key, path)
}

func (i *instrumented) CopyObject(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) (err error) {
	defer func(start time.Time) { record(ctx, "copy", start, err) }(time.Now())
	return i.next.CopyObject(ctx, srcBucket, srcKey, dstBucket, dstKey)
}

func (i *instrumented) DeleteObject(ctx context.Context, bucket, key string) (err error) {
	defer func(start time.Time) { record(ctx, "delete", start, err) }(time.Now())
	return i.next.DeleteObject(ctx, bucket, key)
}
