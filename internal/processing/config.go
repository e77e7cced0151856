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

package processing

import (
	"time"

	"github.com/swxsoc/sdc-aws-processing-lambda/internal/alert"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/database"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/lineage"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/requeue"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/setup"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/storage"
	"github.com/swxsoc/sdc-aws-processing-lambda/pkg/observability"
	"github.com/swxsoc/sdc-aws-processing-lambda/pkg/secrets"
)

// Compile-time check to assert this config matches requirements.
var (
	_ setup.AlerterConfigProvider               = (*Config)(nil)
	_ setup.BlobstoreConfigProvider             = (*Config)(nil)
	_ setup.DatabaseConfigProvider              = (*Config)(nil)
	_ setup.InstrumentConfigProvider            = (*Config)(nil)
	_ setup.LineageConfigProvider               = (*Config)(nil)
	_ setup.ObservabilityExporterConfigProvider = (*Config)(nil)
	_ setup.RequeueConfigProvider               = (*Config)(nil)
	_ setup.SecretManagerConfigProvider         = (*Config)(nil)
)

// Config represents the configuration and associated environment variables
// for the processor.
type Config struct {
	Alert                 alert.Config
	Database              database.Config
	Lineage               lineage.Config
	ObservabilityExporter observability.Config
	Requeue               requeue.Config
	SecretManager         secrets.Config
	Storage               storage.Config

	Environment string `env:"LAMBDA_ENVIRONMENT, default=DEVELOPMENT"`
	Port        string `env:"PORT, default=8080"`

	// DryRun parses, calibrates and derives keys but never transfers objects
	// or writes lineage.
	DryRun bool `env:"DRY_RUN"`

	// ScratchDir is the parent of the per-file working directories.
	ScratchDir string `env:"SCRATCH_DIR, default=/tmp"`

	// When UseFixtureData is set, the file at FixtureDataPath is calibrated
	// instead of the object named by the event.
	UseFixtureData  bool   `env:"USE_FIXTURE_DATA"`
	FixtureDataPath string `env:"FIXTURE_DATA_PATH"`

	InstrumentConfigFile string        `env:"INSTRUMENT_CONFIG_PATH"`
	StorageTimeout       time.Duration `env:"STORAGE_TIMEOUT, default=5m"`
}

// LocalFixturePath returns the fixture file to use in place of a download, or
// the empty string.
func (c *Config) LocalFixturePath() string {
	if !c.UseFixtureData {
		return ""
	}
	return c.FixtureDataPath
}

func (c *Config) AlerterConfig() *alert.Config {
	return &c.Alert
}

func (c *Config) BlobstoreConfig() *storage.Config {
	return &c.Storage
}

func (c *Config) DatabaseConfig() *database.Config {
	return &c.Database
}

// InstrumentConfigPath returns the instrument YAML path. Empty selects the
// embedded default.
func (c *Config) InstrumentConfigPath() string {
	return c.InstrumentConfigFile
}

func (c *Config) LineageConfig() *lineage.Config {
	return &c.Lineage
}

func (c *Config) ObservabilityExporterConfig() *observability.Config {
	return &c.ObservabilityExporter
}

func (c *Config) RequeueConfig() *requeue.Config {
	return &c.Requeue
}

func (c *Config) SecretManagerConfig() *secrets.Config {
	return &c.SecretManager
}
