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

package migrate

import (
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/database"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/setup"
	"github.com/swxsoc/sdc-aws-processing-lambda/pkg/secrets"
)

// Compile-time check to assert this config matches requirements.
var (
	_ setup.DatabaseConfigProvider      = (*Config)(nil)
	_ setup.SecretManagerConfigProvider = (*Config)(nil)
)

// Config is the configuration for the migrate binary.
type Config struct {
	Database      database.Config
	SecretManager secrets.Config

	// Command is one of up, down, steps, or version.
	Command string `env:"MIGRATE_COMMAND, default=up"`
	// Steps is the number of migrations applied by the steps command. Negative
	// values roll back.
	Steps int `env:"MIGRATE_STEPS"`
	// Migrations is the directory holding the migration files, or any source
	// URL golang-migrate understands.
	Migrations string `env:"MIGRATIONS, default=migrations"`
}

func (c *Config) DatabaseConfig() *database.Config {
	return &c.Database
}

func (c *Config) SecretManagerConfig() *secrets.Config {
	return &c.SecretManager
}
