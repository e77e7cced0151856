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

package processing

import (
	"context"
	"time"

	"github.com/swxsoc/sdc-aws-processing-lambda/internal/metrics"
	"github.com/swxsoc/sdc-aws-processing-lambda/pkg/observability"

	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

const metricPrefix = metrics.MetricRoot + "processing"

const (
	outcomeOK        = "OK"
	outcomeNoOutput  = "NO_OUTPUT"
	outcomeNeedsData = "NEEDS_MORE_DATA"
	outcomeInvalid   = "INVALID"
	outcomeError     = "ERROR"
)

var (
	mFiles = stats.Int64(metricPrefix+"/files", "files processed", stats.UnitDimensionless)

	mCalibrationLatencyMs = stats.Float64(metricPrefix+"/calibration_latency",
		"calibration latency", stats.UnitMilliseconds)
)

func init() {
	observability.CollectViews([]*view.View{
		{
			Name:        metricPrefix + "/file_count",
			Description: "Count of processed files by instrument and result",
			TagKeys:     []tag.Key{observability.InstrumentTagKey, observability.ResultTagKey},
			Measure:     mFiles,
			Aggregation: view.Count(),
		},
		{
			Name:        metricPrefix + "/calibration_latency",
			Description: "Distribution of calibration latency",
			TagKeys:     []tag.Key{observability.InstrumentTagKey},
			Measure:     mCalibrationLatencyMs,
			Aggregation: view.Distribution(100, 500, 1000, 5000, 10000, 30000, 60000, 300000, 900000),
		},
	}...)
}

func recordOutcome(ctx context.Context, inst, outcome string) {
	mutators := []tag.Mutator{observability.ResultError(outcome)}
	if inst != "" {
		mutators = append(mutators, observability.Instrument(inst))
	}
	_ = stats.RecordWithTags(ctx, mutators, mFiles.M(1))
}

func recordCalibration(ctx context.Context, inst string, elapsed time.Duration) {
	_ = stats.RecordWithTags(ctx, []tag.Mutator{observability.Instrument(inst)},
		mCalibrationLatencyMs.M(float64(elapsed)/float64(time.Millisecond)))
}
