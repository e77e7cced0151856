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

package database

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/swxsoc/sdc-aws-processing-lambda/pkg/secrets"
)

// rdsSecret is the JSON document RDS stores for a managed credential.
type rdsSecret struct {
	Username string          `json:"username"`
	Password string          `json:"password"`
	Host     string          `json:"host"`
	Port     json.RawMessage `json:"port"`
	DBName   string          `json:"dbname"`
	Engine   string          `json:"engine"`
}

// ResolveRDSSecret fetches the secret named by RDSSecretARN and returns a copy
// of the configuration with its credentials applied. It returns c unchanged
// when no secret is configured.
func (c *Config) ResolveRDSSecret(ctx context.Context, sm secrets.SecretManager) (*Config, error) {
	if c.RDSSecretARN == "" {
		return c, nil
	}
	if sm == nil {
		return nil, fmt.Errorf("RDS_SECRET_ARN is set, but no secret manager is configured")
	}

	raw, err := sm.GetSecretValue(ctx, c.RDSSecretARN)
	if err != nil {
		return nil, fmt.Errorf("failed to read database secret: %w", err)
	}

	var s rdsSecret
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("failed to parse database secret: %w", err)
	}
	if s.Engine != "" && s.Engine != "postgres" {
		return nil, fmt.Errorf("unsupported database engine %q", s.Engine)
	}

	out := *c
	if s.Username != "" {
		out.User = s.Username
	}
	if s.Password != "" {
		out.Password = s.Password
	}
	if s.Host != "" {
		out.Host = s.Host
	}
	if s.DBName != "" {
		out.Name = s.DBName
	}
	if len(s.Port) > 0 {
		port, err := parsePort(s.Port)
		if err != nil {
			return nil, fmt.Errorf("failed to parse database secret: %w", err)
		}
		out.Port = port
	}
	return &out, nil
}

// parsePort accepts the port as either a JSON number or string.
func parsePort(raw json.RawMessage) (string, error) {
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.Itoa(n), nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("invalid port %s", raw)
	}
	if _, err := strconv.Atoi(s); err != nil {
		return "", fmt.Errorf("invalid port %q", s)
	}
	return s, nil
}
