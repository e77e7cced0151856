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
	"encoding/json"
	"fmt"
	"strings"
)

// Compile-time check to verify implements interface.
var _ SecretManager = (*JSONExpander)(nil)

// JSONExpander resolves a single field out of a JSON secret.
type JSONExpander struct {
	sm SecretManager
}

// WrapJSONExpander wraps an existing SecretManager with json-expansion logic.
func WrapJSONExpander(sm SecretManager) SecretManager {
	return &JSONExpander{sm: sm}
}

// GetSecretValue implements the SecretManager interface. A name of the form
// "secret.field" returns field from the JSON object stored in secret, which
// is how the individual credentials of an RDS secret are addressed:
//
//	rds-credentials.password
//
// Names without a period are passed through unchanged. Numeric fields, such
// as an RDS port, are returned in their JSON text form.
func (sm *JSONExpander) GetSecretValue(ctx context.Context, name string) (string, error) {
	secretName, field, ok := strings.Cut(name, ".")
	if !ok {
		return sm.sm.GetSecretValue(ctx, name)
	}

	raw, err := sm.sm.GetSecretValue(ctx, secretName)
	if err != nil {
		return "", err
	}

	var m map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return "", fmt.Errorf("secret %q is not a JSON object: %w", secretName, err)
	}

	v, ok := m[field]
	if !ok {
		return "", fmt.Errorf("secret %q is missing key %q", secretName, field)
	}

	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s, nil
	}
	return string(v), nil
}
