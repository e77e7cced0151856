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
	"strings"

	"github.com/sethvargo/go-envconfig"
	"github.com/swxsoc/sdc-aws-processing-lambda/pkg/logging"
)

// SecretPrefix is the prefix that, when an environment value starts with it,
// is resolved through the configured secret store.
const SecretPrefix = "secret://"

// Resolver returns an envconfig mutator that replaces secret:// references
// with their values. It returns nil when sm is nil. Comma separated values are
// resolved individually.
func Resolver(sm SecretManager) envconfig.MutatorFunc {
	if sm == nil {
		return nil
	}

	return func(ctx context.Context, key, value string) (string, error) {
		vals := strings.Split(value, ",")
		resolved := make([]string, len(vals))

		for i, val := range vals {
			s, err := resolve(ctx, sm, key, val)
			if err != nil {
				return "", err
			}
			resolved[i] = s
		}

		return strings.Join(resolved, ","), nil
	}
}

func resolve(ctx context.Context, sm SecretManager, envName, secretRef string) (string, error) {
	if !strings.HasPrefix(secretRef, SecretPrefix) {
		return secretRef, nil
	}
	secretRef = strings.TrimPrefix(secretRef, SecretPrefix)

	logging.FromContext(ctx).Debugw("resolving secret value", "env", envName)

	v, err := sm.GetSecretValue(ctx, secretRef)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %q: %w", secretRef, err)
	}
	return v, nil
}
