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

// Package alert sends operational notifications when a science file cannot
// be processed.
package alert

import (
	"context"
	"fmt"
)

// Alert describes a processing failure.
type Alert struct {
	Subject    string
	Message    string
	Instrument string
	Bucket     string
	Key        string
}

// String renders the alert as a plain-text message body.
func (a *Alert) String() string {
	return fmt.Sprintf("%s\n\ninstrument: %s\nfile: s3://%s/%s", a.Message, a.Instrument, a.Bucket, a.Key)
}

// Alerter delivers alerts.
type Alerter interface {
	Alert(ctx context.Context, a *Alert) error
}

// AlerterFor returns the alerter for the configured type.
func AlerterFor(ctx context.Context, cfg *Config) (Alerter, error) {
	switch typ := cfg.Type; typ {
	case AlerterTypeSNS:
		return NewSNS(ctx, cfg.TopicARN)
	case AlerterTypeLog:
		return NewLog(), nil
	case AlerterTypeNoop:
		return NewNoop(), nil
	default:
		return nil, fmt.Errorf("unknown alerter type: %v", typ)
	}
}
