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

package observability

import (
	"context"
	"fmt"

	"contrib.go.opencensus.io/exporter/ocagent"
	"github.com/swxsoc/sdc-aws-processing-lambda/pkg/logging"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/trace"
)

var _ Exporter = (*opencensusExporter)(nil)

type opencensusExporter struct {
	exporter *ocagent.Exporter
	config   *OpenCensusConfig
	views    []*view.View
}

// NewOpenCensus creates a metrics and trace exporter that ships to an
// OpenCensus agent, tagged with the Lambda resource when there is one.
func NewOpenCensus(_ context.Context, config *OpenCensusConfig, rc *ResourceConfig) (Exporter, error) {
	oc, err := ocagent.NewExporter(ocagentOptions(config, rc)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create opencensus exporter: %w", err)
	}
	return &opencensusExporter{exporter: oc, config: config}, nil
}

func ocagentOptions(config *OpenCensusConfig, rc *ResourceConfig) []ocagent.ExporterOption {
	opts := []ocagent.ExporterOption{
		ocagent.WithServiceName(config.ServiceName),
		ocagent.WithResourceDetector(resourceDetector(rc)),
	}
	if config.Insecure {
		opts = append(opts, ocagent.WithInsecure())
	}
	if config.Endpoint != "" {
		opts = append(opts, ocagent.WithAddress(config.Endpoint))
	}
	return opts
}

// StartExporter registers the exporter and every collected view. Views
// registered here are unregistered again on Close.
func (e *opencensusExporter) StartExporter(ctx context.Context) error {
	logger := logging.FromContext(ctx).Named("observability")

	trace.ApplyConfig(trace.Config{
		DefaultSampler: trace.ProbabilitySampler(e.config.SampleRate),
	})
	trace.RegisterExporter(e.exporter)
	view.RegisterExporter(e.exporter)
	if e.config.ReportingPeriod > 0 {
		view.SetReportingPeriod(e.config.ReportingPeriod)
	}

	views := AllViews()
	if err := view.Register(views...); err != nil {
		return fmt.Errorf("failed to start opencensus exporter: view registration failed: %w", err)
	}
	e.views = views

	logger.Infow("exporting to opencensus agent",
		"service", e.config.ServiceName,
		"views", len(views),
		"sample_rate", e.config.SampleRate)
	return nil
}

// Close flushes pending data and halts the exporter.
func (e *opencensusExporter) Close() error {
	view.Unregister(e.views...)
	e.views = nil

	trace.UnregisterExporter(e.exporter)
	view.UnregisterExporter(e.exporter)

	if err := e.exporter.Stop(); err != nil {
		return fmt.Errorf("failed to stop exporter: %w", err)
	}
	return nil
}
