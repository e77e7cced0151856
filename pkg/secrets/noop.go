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
)

// Compile-time check to verify implements interface.
var _ SecretManager = (*Noop)(nil)

// Noop is a secret manager that never has secrets.
type Noop struct{}

// NewNoop creates a new noop secret manager.
func NewNoop(_ context.Context) (SecretManager, error) {
	return &Noop{}, nil
}

// GetSecretValue always returns an error.
func (sm *Noop) GetSecretValue(_ context.Context, k string) (string, error) {
	return "", fmt.Errorf("secret %q requested, but no secret manager is configured", k)
}
