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
	"sync"
)

// Compile-time check to verify implements interface.
var _ Alerter = (*Memory)(nil)

// Memory records alerts for tests.
type Memory struct {
	mu     sync.Mutex
	alerts []*Alert
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Alert(_ context.Context, a *Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *a
	m.alerts = append(m.alerts, &cp)
	return nil
}

// Alerts returns the recorded alerts in order.
func (m *Memory) Alerts() []*Alert {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Alert(nil), m.alerts...)
}
