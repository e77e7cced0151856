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

package requeue

// DispatcherType defines a specific requeue transport.
type DispatcherType string

const (
	DispatcherTypeSQS    DispatcherType = "SQS"
	DispatcherTypeLambda DispatcherType = "LAMBDA"
	DispatcherTypeNoop   DispatcherType = "NOOP"
)

// Config defines the requeue configuration.
type Config struct {
	Dispatcher DispatcherType `env:"REQUEUE_DISPATCHER, default=SQS"`
	QueueURL   string         `env:"REQUEUE_QUEUE_URL"`

	// FunctionName is set by the Lambda runtime.
	FunctionName string `env:"AWS_LAMBDA_FUNCTION_NAME"`
}
