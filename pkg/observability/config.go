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

import "time"

// ExporterType represents a type of observability exporter.
type ExporterType string

const (
	ExporterOCAgent ExporterType = "OCAGENT"
	ExporterNoop    ExporterType = "NOOP"
)

// Config holds all of the configuration options for the observability exporter
type Config struct {
	ExporterType ExporterType `env:"OBSERVABILITY_EXPORTER,default=NOOP"`

	OpenCensus OpenCensusConfig
	Resource   ResourceConfig
}

// OpenCensusConfig holds the configuration options for the open census exporter
type OpenCensusConfig struct {
	SampleRate float64 `env:"TRACE_PROBABILITY,default=0.40"`

	Insecure bool   `env:"OCAGENT_INSECURE"`
	Endpoint string `env:"OCAGENT_TRACE_EXPORTER_ENDPOINT"`

	ServiceName     string        `env:"OBSERVABILITY_SERVICE_NAME,default=sdc-aws-processing"`
	ReportingPeriod time.Duration `env:"OBSERVABILITY_REPORTING_PERIOD,default=60s"`
}

// ResourceConfig describes where the process runs. The values are set by the
// Lambda runtime and are empty when running locally.
type ResourceConfig struct {
	Region          string `env:"AWS_REGION"`
	FunctionName    string `env:"AWS_LAMBDA_FUNCTION_NAME"`
	FunctionVersion string `env:"AWS_LAMBDA_FUNCTION_VERSION"`
	LogStream       string `env:"AWS_LAMBDA_LOG_STREAM_NAME"`
}
