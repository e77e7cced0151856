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

package alert

// AlerterType defines a specific alert transport.
type AlerterType string

const (
	AlerterTypeSNS  AlerterType = "SNS"
	AlerterTypeLog  AlerterType = "LOG"
	AlerterTypeNoop AlerterType = "NOOP"
)

// Config defines the alerting configuration.
type Config struct {
	Type     AlerterType `env:"ALERTER, default=LOG"`
	TopicARN string      `env:"ALERT_TOPIC_ARN"`
}
