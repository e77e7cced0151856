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

	"github.com/swxsoc/sdc-aws-processing-lambda/internal/metrics"
	"github.com/swxsoc/sdc-aws-processing-lambda/pkg/observability"

	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

const metricPrefix = metrics.MetricRoot + "lineage"

var mTrackCount = stats.Int64(metricPrefix+"/track", "lineage writes", stats.UnitDimensionless)

func init() {
	observability.CollectViews([]*view.View{
		{
			Name:        metricPrefix + "/track_count",
			Description: "Count of lineage writes by result",
			TagKeys:     []tag.Key{observability.ResultTagKey},
			Measure:     mTrackCount,
			Aggregation: view.Count(),
		},
	}...)
}

func recordTrack(ctx context.Context, result string) {
	_ = stats.RecordWithTags(ctx, []tag.Mutator{observability.ResultError(result)}, mTrackCount.M(1))
}
