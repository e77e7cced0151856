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
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/swxsoc/sdc-aws-processing-lambda/pkg/errcmp"
	"go.opencensus.io/resource"
)

func TestNewLambdaResource(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		cfg  *ResourceConfig
		exp  *resource.Resource
	}{
		{
			name: "nil",
		},
		{
			name: "local",
			cfg:  &ResourceConfig{Region: "us-east-1"},
		},
		{
			name: "function_only",
			cfg:  &ResourceConfig{FunctionName: "sdc-processing"},
			exp: &resource.Resource{
				Type: ResourceTypeLambda,
				Labels: map[string]string{
					"cloud.provider": "aws",
					"faas.name":      "sdc-processing",
				},
			},
		},
		{
			name: "full",
			cfg: &ResourceConfig{
				Region:          "us-east-1",
				FunctionName:    "sdc-processing",
				FunctionVersion: "$LATEST",
				LogStream:       "2023/01/17/[$LATEST]abc",
			},
			exp: &resource.Resource{
				Type: ResourceTypeLambda,
				Labels: map[string]string{
					"cloud.provider": "aws",
					"cloud.region":   "us-east-1",
					"faas.name":      "sdc-processing",
					"faas.version":   "$LATEST",
					"faas.instance":  "2023/01/17/[$LATEST]abc",
				},
			},
		},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := NewLambdaResource(tc.cfg)
			if diff := cmp.Diff(tc.exp, got); diff != "" {
				t.Errorf("mismatch (-want, +got):\n%s", diff)
			}
		})
	}
}

func TestOCAgentOptions(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		cfg  *OpenCensusConfig
		exp  int
	}{
		{name: "defaults", cfg: &OpenCensusConfig{ServiceName: "sdc-aws-processing"}, exp: 2},
		{name: "insecure", cfg: &OpenCensusConfig{ServiceName: "sdc-aws-processing", Insecure: true}, exp: 3},
		{name: "endpoint", cfg: &OpenCensusConfig{ServiceName: "sdc-aws-processing", Insecure: true, Endpoint: "collector:55678"}, exp: 4},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := len(ocagentOptions(tc.cfg, &ResourceConfig{})); got != tc.exp {
				t.Errorf("expected %d options, got %d", tc.exp, got)
			}
		})
	}
}

func TestNewFromEnv(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("noop", func(t *testing.T) {
		t.Parallel()

		exporter, err := NewFromEnv(&Config{ExporterType: ExporterNoop})
		if err != nil {
			t.Fatal(err)
		}
		if err := exporter.StartExporter(ctx); err != nil {
			t.Fatal(err)
		}
		if err := exporter.Close(); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		t.Parallel()

		_, err := NewFromEnv(&Config{ExporterType: "STACKDRIVER"})
		errcmp.MustMatch(t, err, "unknown observability exporter type")
	})
}
