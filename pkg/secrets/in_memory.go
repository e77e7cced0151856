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

package secrets

import (
	"context"
	"fmt"
	"sync"
)

// Compile-time check to verify implements interface.
var _ SecretManager = (*InMemory)(nil)

// InMemory is an in-memory secret manager, primarily used for testing.
type InMemory struct {
	mu      sync.Mutex
	secrets map[string]string
}

// NewInMemory creates a new in-memory secret manager.
func NewInMemory(_ context.Context) (SecretManager, error) {
	return &InMemory{
		secrets: make(map[string]string),
	}, nil
}

// NewInMemoryFromMap creates a new in-memory secret manager from the map.
func NewInMemoryFromMap(_ context.Context, m map[string]string) (*InMemory, error) {
	n := make(map[string]string, len(m))
	for k, v := range m {
		n[k] = v
	}
	return &InMemory{
		secrets: n,
	}, nil
}

// GetSecretValue returns the secret if it exists, otherwise an error.
func (sm *InMemory) GetSecretValue(_ context.Context, k string) (string, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	v, ok := sm.secrets[k]
	if !ok {
		return "", fmt.Errorf("secret %q does not exist", k)
	}
	return v, nil
}

// Set creates or replaces a secret.
func (sm *InMemory) Set(k, v string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.secrets[k] = v
}
