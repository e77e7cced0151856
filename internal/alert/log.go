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

import (
	"context"

	"github.com/swxsoc/sdc-aws-processing-lambda/pkg/logging"
)

// Compile-time check to verify implements interface.
var _ Alerter = (*Log)(nil)

// Log writes alerts to the logger at error level.
type Log struct{}

func NewLog() Alerter {
	return &Log{}
}

func (l *Log) Alert(ctx context.Context, a *Alert) error {
	logging.FromContext(ctx).Named("alert").Errorw(a.Subject,
		"message", a.Message,
		"instrument", a.Instrument,
		"bucket", a.Bucket,
		"key", a.Key)
	return nil
}
