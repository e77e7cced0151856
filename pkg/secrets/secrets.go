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

// Package secrets defines a minimum abstract interface for a secret manager.
// Allows for a different implementation to be bound within the
// serverenv.ServerEnv.
package secrets

import (
	"context"
	"fmt"
)

// SecretManager defines the minimum shared functionality for a secret manager
// used by this application.
type SecretManager interface {
	GetSecretValue(ctx context.Context, name string) (string, error)
}

// SecretManagerFor returns the secret manager for the given type, wrapped
// with JSON expansion and caching as configured.
func SecretManagerFor(ctx context.Context, config *Config) (SecretManager, error) {
	var (
		sm  SecretManager
		err error
	)

	switch typ := config.Type; typ {
	case SecretManagerTypeAWSSecretsManager:
		sm, err = NewAWSSecretsManager(ctx)
	case SecretManagerTypeInMemory:
		sm, err = NewInMemory(ctx)
	case SecretManagerTypeNoop:
		sm, err = NewNoop(ctx)
	default:
		return nil, fmt.Errorf("unknown secret manager type: %v", typ)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create secret manager: %w", err)
	}

	if config.SecretExpansion {
		sm = WrapJSONExpander(sm)
	}

	if config.SecretCacheTTL > 0 {
		sm, err = WrapCacher(ctx, sm, config.SecretCacheTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to create secret manager cache: %w", err)
		}
	}

	return sm, nil
}
