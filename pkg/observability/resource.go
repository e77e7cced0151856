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

	"go.opencensus.io/resource"
)

// ResourceTypeLambda is the resource type reported from inside Lambda.
const ResourceTypeLambda = "aws.lambda"

// NewLambdaResource returns the resource describing the running function, or
// nil outside of Lambda.
func NewLambdaResource(c *ResourceConfig) *resource.Resource {
	if c == nil || c.FunctionName == "" {
		return nil
	}

	labels := map[string]string{
		"cloud.provider": "aws",
		"faas.name":      c.FunctionName,
	}
	if c.Region != "" {
		labels["cloud.region"] = c.Region
	}
	if c.FunctionVersion != "" {
		labels["faas.version"] = c.FunctionVersion
	}
	// The log stream is unique per execution environment.
	if c.LogStream != "" {
		labels["faas.instance"] = c.LogStream
	}

	return &resource.Resource{
		Type:   ResourceTypeLambda,
		Labels: labels,
	}
}

// resourceDetector merges OC_RESOURCE_TYPE and OC_RESOURCE_LABELS with the
// Lambda resource. Values from the environment win.
func resourceDetector(c *ResourceConfig) resource.Detector {
	return resource.MultiDetector(resource.FromEnv, func(context.Context) (*resource.Resource, error) {
		return NewLambdaResource(c), nil
	})
}
