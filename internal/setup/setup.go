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

// Package setup provides common logic for configuring the various binaries.
package setup

import (
	"context"
	"fmt"

	"github.com/swxsoc/sdc-aws-processing-lambda/internal/alert"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/calibration"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/database"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/instrument"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/lineage"
	lineagedb "github.com/swxsoc/sdc-aws-processing-lambda/internal/lineage/database"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/requeue"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/serverenv"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/storage"
	"github.com/swxsoc/sdc-aws-processing-lambda/pkg/logging"
	"github.com/swxsoc/sdc-aws-processing-lambda/pkg/observability"
	"github.com/swxsoc/sdc-aws-processing-lambda/pkg/secrets"

	"github.com/sethvargo/go-envconfig"
)

// AlerterConfigProvider signals that the config provided knows how to
// configure an alerter.
type AlerterConfigProvider interface {
	AlerterConfig() *alert.Config
}

// BlobstoreConfigProvider provides the information about current storage
// configuration.
type BlobstoreConfigProvider interface {
	BlobstoreConfig() *storage.Config
}

// DatabaseConfigProvider ensures that the environment config can provide a DB
// config. A database is only connected when the config is enabled.
type DatabaseConfigProvider interface {
	DatabaseConfig() *database.Config
}

// InstrumentConfigProvider signals that the mission configuration and the
// calibration registry should be loaded.
type InstrumentConfigProvider interface {
	InstrumentConfigPath() string
}

// LineageConfigProvider signals that a lineage tracker should be installed.
// The tracker is backed by the database when one is connected and is a no-op
// otherwise.
type LineageConfigProvider interface {
	LineageConfig() *lineage.Config
}

// ObservabilityExporterConfigProvider signals that the config knows how to
// configure an observability exporter.
type ObservabilityExporterConfigProvider interface {
	ObservabilityExporterConfig() *observability.Config
}

// RequeueConfigProvider signals that a requeue dispatcher should be
// installed.
type RequeueConfigProvider interface {
	RequeueConfig() *requeue.Config
}

// SecretManagerConfigProvider signals that the config knows how to configure
// a secret manager.
type SecretManagerConfigProvider interface {
	SecretManagerConfig() *secrets.Config
}

// Setup runs common initialization code for all binaries.
func Setup(ctx context.Context, config interface{}) (*serverenv.ServerEnv, error) {
	return SetupWith(ctx, config, envconfig.OsLookuper())
}

// SetupWith processes the given configuration using envconfig. It is
// responsible for establishing database connections, resolving secrets, and
// wiring the processing dependencies. The caller must call Close on the
// returned env.
func SetupWith(ctx context.Context, config interface{}, l envconfig.Lookuper) (env *serverenv.ServerEnv, retErr error) {
	logger := logging.FromContext(ctx).Named("setup")

	var (
		opts     []serverenv.Option
		mutators []envconfig.MutatorFunc
		sm       secrets.SecretManager
		db       *database.DB
		exporter observability.Exporter
	)

	// Release anything already opened if a later step fails.
	defer func() {
		if retErr == nil {
			return
		}
		if db != nil {
			db.Close(ctx)
		}
		if exporter != nil {
			_ = exporter.Close()
		}
	}()

	// The secret manager has to exist before the rest of the config is
	// processed, since values may be secret:// references.
	if provider, ok := config.(SecretManagerConfigProvider); ok {
		logger.Infow("configuring secret manager")

		smConfig := provider.SecretManagerConfig()
		if err := envconfig.ProcessWith(ctx, smConfig, l); err != nil {
			return nil, fmt.Errorf("unable to process secret manager env: %w", err)
		}

		var err error
		sm, err = secrets.SecretManagerFor(ctx, smConfig)
		if err != nil {
			return nil, fmt.Errorf("unable to connect to secret manager: %w", err)
		}
		opts = append(opts, serverenv.WithSecretManager(sm))
		mutators = append(mutators, secrets.Resolver(sm))
	}

	if err := envconfig.ProcessWith(ctx, config, l, mutators...); err != nil {
		return nil, fmt.Errorf("error loading environment variables: %w", err)
	}

	if provider, ok := config.(ObservabilityExporterConfigProvider); ok {
		logger.Infow("configuring observability exporter")

		var err error
		exporter, err = observability.NewFromEnv(provider.ObservabilityExporterConfig())
		if err != nil {
			return nil, fmt.Errorf("unable to create observability exporter: %w", err)
		}
		if err := exporter.StartExporter(ctx); err != nil {
			return nil, fmt.Errorf("failed to start observability exporter: %w", err)
		}
		opts = append(opts, serverenv.WithObservabilityExporter(exporter))
	}

	var instruments *instrument.Config
	if provider, ok := config.(InstrumentConfigProvider); ok {
		logger.Infow("loading instrument configuration", "path", provider.InstrumentConfigPath())

		var err error
		instruments, err = instrument.Load(provider.InstrumentConfigPath())
		if err != nil {
			return nil, fmt.Errorf("unable to load instrument configuration: %w", err)
		}
		opts = append(opts,
			serverenv.WithInstruments(instruments),
			serverenv.WithCalibrators(calibration.NewRegistryFromConfig(instruments)))
	}

	if provider, ok := config.(BlobstoreConfigProvider); ok {
		logger.Infow("configuring blobstore")

		blobstore, err := storage.BlobstoreFor(ctx, provider.BlobstoreConfig())
		if err != nil {
			return nil, fmt.Errorf("unable to connect to storage system: %w", err)
		}
		opts = append(opts, serverenv.WithBlobstore(blobstore))
	}

	if provider, ok := config.(DatabaseConfigProvider); ok {
		dbConfig := provider.DatabaseConfig()
		if !dbConfig.Enabled() {
			logger.Warnw("no database configured, lineage tracking is disabled")
		} else {
			logger.Infow("configuring database")

			resolved, err := dbConfig.ResolveRDSSecret(ctx, sm)
			if err != nil {
				return nil, fmt.Errorf("unable to resolve database credentials: %w", err)
			}

			db, err = database.NewFromEnv(ctx, resolved)
			if err != nil {
				return nil, fmt.Errorf("unable to connect to database: %w", err)
			}
			opts = append(opts, serverenv.WithDatabase(db))
		}
	}

	if provider, ok := config.(LineageConfigProvider); ok {
		var tracker lineage.Tracker = lineage.NewNoop()
		if db != nil {
			parser := instrument.Default().Parser()
			if instruments != nil {
				parser = instruments.Parser()
			}
			tracker = lineage.NewTracker(lineagedb.New(db), parser, provider.LineageConfig())
		}
		opts = append(opts, serverenv.WithTracker(tracker))
	}

	if provider, ok := config.(AlerterConfigProvider); ok {
		alerter, err := alert.AlerterFor(ctx, provider.AlerterConfig())
		if err != nil {
			return nil, fmt.Errorf("unable to create alerter: %w", err)
		}
		opts = append(opts, serverenv.WithAlerter(alerter))
	}

	if provider, ok := config.(RequeueConfigProvider); ok {
		dispatcher, err := requeue.DispatcherFor(ctx, provider.RequeueConfig())
		if err != nil {
			return nil, fmt.Errorf("unable to create requeue dispatcher: %w", err)
		}
		opts = append(opts, serverenv.WithDispatcher(dispatcher))
	}

	return serverenv.New(ctx, opts...), nil
}
