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

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/swxsoc/sdc-aws-processing-lambda/pkg/logging"
)

// Dispatcher delivers a requeue message without waiting for it to be
// processed.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg *Message) error
}

// ErrNotConfigured is returned by the dispatcher used when neither a queue nor
// a function name is available.
var ErrNotConfigured = errors.New("requeue is not configured: set REQUEUE_QUEUE_URL or AWS_LAMBDA_FUNCTION_NAME")

// DispatcherFor returns the dispatcher for the configured type. The SQS
// default falls back to invoking the function itself when no queue URL is
// set. With neither available, the returned dispatcher fails on each
// Dispatch so the processing path still starts.
func DispatcherFor(ctx context.Context, cfg *Config) (Dispatcher, error) {
	logger := logging.FromContext(ctx).Named("requeue")

	switch typ := cfg.Dispatcher; typ {
	case DispatcherTypeSQS:
		if cfg.QueueURL != "" {
			return NewSQS(ctx, cfg.QueueURL)
		}
		if cfg.FunctionName != "" {
			logger.Infow("no queue url set, requeueing through lambda", "function", cfg.FunctionName)
			return NewLambda(ctx, cfg.FunctionName)
		}
		logger.Warnw("no queue url or function name set, requeue is disabled")
		return &unconfigured{}, nil
	case DispatcherTypeLambda:
		return NewLambda(ctx, cfg.FunctionName)
	case DispatcherTypeNoop:
		return NewNoop(), nil
	default:
		return nil, fmt.Errorf("unknown requeue dispatcher type: %v", typ)
	}
}

var _ Dispatcher = (*unconfigured)(nil)

type unconfigured struct{}

func (u *unconfigured) Dispatch(context.Context, *Message) error {
	return ErrNotConfigured
}

// Compile-time check to verify implements interface.
var _ Dispatcher = (*Noop)(nil)

// Noop logs and discards messages.
type Noop struct{}

func NewNoop() Dispatcher {
	return &Noop{}
}

func (n *Noop) Dispatch(ctx context.Context, msg *Message) error {
	logging.FromContext(ctx).Named("requeue").Infow("not dispatching",
		"bucket", msg.Bucket, "key", msg.Key, "idempotency_key", msg.IdempotencyKey)
	return nil
}

// Compile-time check to verify implements interface.
var _ Dispatcher = (*Memory)(nil)

// Memory records messages for tests.
type Memory struct {
	mu       sync.Mutex
	messages []*Message
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Dispatch(_ context.Context, msg *Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

// Messages returns the dispatched messages in order.
func (m *Memory) Messages() []*Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Message(nil), m.messages...)
}
