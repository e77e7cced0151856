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

// Package serverenv defines common parameters for the processing environment.
package serverenv

import (
	"context"
	"fmt"

	"github.com/swxsoc/sdc-aws-processing-lambda/internal/alert"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/calibration"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/database"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/instrument"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/lineage"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/requeue"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/storage"
	"github.com/swxsoc/sdc-aws-processing-lambda/pkg/observability"
	"github.com/swxsoc/sdc-aws-processing-lambda/pkg/secrets"
)

// ServerEnv represents latent environment configuration for the processor and
// its operator tools.
type ServerEnv struct {
	alerter       alert.Alerter
	blobstore     storage.Blobstore
	calibrators   *calibration.Registry
	database      *database.DB
	dispatcher    requeue.Dispatcher
	exporter      observability.Exporter
	instruments   *instrument.Config
	secretManager secrets.SecretManager
	tracker       lineage.Tracker
}

// Option defines function types to modify the ServerEnv on creation.
type Option func(*ServerEnv) *ServerEnv

// New creates a new ServerEnv with the requested options.
func New(ctx context.Context, opts ...Option) *ServerEnv {
	env := &ServerEnv{}

	for _, f := range opts {
		env = f(env)
	}

	return env
}

// WithAlerter installs the alerter used to report failed files.
func WithAlerter(a alert.Alerter) Option {
	return func(s *ServerEnv) *ServerEnv {
		s.alerter = a
		return s
	}
}

// WithBlobstore installs the object storage.
func WithBlobstore(b storage.Blobstore) Option {
	return func(s *ServerEnv) *ServerEnv {
		s.blobstore = b
		return s
	}
}

// WithCalibrators installs the calibration registry.
func WithCalibrators(r *calibration.Registry) Option {
	return func(s *ServerEnv) *ServerEnv {
		s.calibrators = r
		return s
	}
}

// WithDatabase attaches a database to the environment.
func WithDatabase(db *database.DB) Option {
	return func(s *ServerEnv) *ServerEnv {
		s.database = db
		return s
	}
}

// WithDispatcher installs the requeue dispatcher.
func WithDispatcher(d requeue.Dispatcher) Option {
	return func(s *ServerEnv) *ServerEnv {
		s.dispatcher = d
		return s
	}
}

// WithObservabilityExporter creates an Option to install a specific
// observability exporter system.
func WithObservabilityExporter(oe observability.Exporter) Option {
	return func(s *ServerEnv) *ServerEnv {
		s.exporter = oe
		return s
	}
}

// WithInstruments installs the mission configuration.
func WithInstruments(c *instrument.Config) Option {
	return func(s *ServerEnv) *ServerEnv {
		s.instruments = c
		return s
	}
}

// WithSecretManager creates an Option to install a specific secret manager to
// use.
func WithSecretManager(sm secrets.SecretManager) Option {
	return func(s *ServerEnv) *ServerEnv {
		s.secretManager = sm
		return s
	}
}

// WithTracker installs the lineage tracker.
func WithTracker(t lineage.Tracker) Option {
	return func(s *ServerEnv) *ServerEnv {
		s.tracker = t
		return s
	}
}

func (s *ServerEnv) Alerter() alert.Alerter {
	return s.alerter
}

func (s *ServerEnv) Blobstore() storage.Blobstore {
	return s.blobstore
}

func (s *ServerEnv) Calibrators() *calibration.Registry {
	return s.calibrators
}

// Database returns the database, or nil when lineage tracking is disabled.
func (s *ServerEnv) Database() *database.DB {
	return s.database
}

func (s *ServerEnv) Dispatcher() requeue.Dispatcher {
	return s.dispatcher
}

func (s *ServerEnv) Instruments() *instrument.Config {
	return s.instruments
}

func (s *ServerEnv) ObservabilityExporter() observability.Exporter {
	return s.exporter
}

func (s *ServerEnv) SecretManager() secrets.SecretManager {
	return s.secretManager
}

func (s *ServerEnv) Tracker() lineage.Tracker {
	return s.tracker
}

// Close shuts down the server env, closing database connections and flushing
// metrics.
func (s *ServerEnv) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}

	if s.database != nil {
		s.database.Close(ctx)
	}

	if s.exporter != nil {
		if err := s.exporter.Close(); err != nil {
			return fmt.Errorf("failed to close observability exporter: %w", err)
		}
	}

	return nil
}
