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

// Package migrate applies the schema migrations to the lineage database.
package migrate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/serverenv"
	"github.com/swxsoc/sdc-aws-processing-lambda/pkg/logging"
	"go.uber.org/zap"

	// Migration drivers.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// ErrUnknownCommand is returned for a command other than up, down, steps or
// version.
var ErrUnknownCommand = errors.New("unknown migrate command")

const (
	commandUp      = "up"
	commandDown    = "down"
	commandSteps   = "steps"
	commandVersion = "version"
)

// Migration runs a single migrate command.
type Migration struct {
	config  *Config
	command string
	env     *serverenv.ServerEnv
}

// New validates the command and requires a connected database.
func New(config *Config, env *serverenv.ServerEnv) (*Migration, error) {
	command := strings.ToLower(strings.TrimSpace(config.Command))
	switch command {
	case commandUp, commandDown, commandVersion:
	case commandSteps:
		if config.Steps == 0 {
			return nil, fmt.Errorf("steps command requires MIGRATE_STEPS")
		}
	default:
		return nil, fmt.Errorf("%q: %w", config.Command, ErrUnknownCommand)
	}

	if env.Database() == nil {
		return nil, fmt.Errorf("migrate.New requires Database present in the ServerEnv")
	}

	return &Migration{
		config:  config,
		command: command,
		env:     env,
	}, nil
}

// Run executes the configured command. Running up or down when nothing
// changes is not an error.
func (m *Migration) Run(ctx context.Context) error {
	logger := logging.FromContext(ctx).Named("migrate")

	dbConfig, err := m.config.Database.ResolveRDSSecret(ctx, m.env.SecretManager())
	if err != nil {
		return fmt.Errorf("failed to resolve database credentials: %w", err)
	}

	mg, err := migrate.New(sourceURL(m.config.Migrations), dbConfig.ConnectionURL())
	if err != nil {
		return fmt.Errorf("failed to create migrate: %w", err)
	}
	defer func() {
		srcErr, dbErr := mg.Close()
		if srcErr != nil {
			logger.Errorw("failed to close migration source", "error", srcErr)
		}
		if dbErr != nil {
			logger.Errorw("failed to close migration database", "error", dbErr)
		}
	}()
	mg.Log = &migrateLogger{logger: logger}

	switch m.command {
	case commandUp:
		err = mg.Up()
	case commandDown:
		err = mg.Down()
	case commandSteps:
		err = mg.Steps(m.config.Steps)
	case commandVersion:
		version, dirty, verr := mg.Version()
		if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
			return fmt.Errorf("failed to read version: %w", verr)
		}
		logger.Infow("schema version", "version", version, "dirty", dirty)
		return nil
	}

	if errors.Is(err, migrate.ErrNoChange) {
		logger.Infow("no migrations to apply", "command", m.command)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to run %s: %w", m.command, err)
	}
	return nil
}

// Version returns the current schema version. A database with no migrations
// applied reports version 0.
func (m *Migration) Version(ctx context.Context) (uint, bool, error) {
	dbConfig, err := m.config.Database.ResolveRDSSecret(ctx, m.env.SecretManager())
	if err != nil {
		return 0, false, fmt.Errorf("failed to resolve database credentials: %w", err)
	}

	mg, err := migrate.New(sourceURL(m.config.Migrations), dbConfig.ConnectionURL())
	if err != nil {
		return 0, false, fmt.Errorf("failed to create migrate: %w", err)
	}
	defer mg.Close()

	version, dirty, err := mg.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read version: %w", err)
	}
	return version, dirty, nil
}

func sourceURL(s string) string {
	if strings.Contains(s, "://") {
		return s
	}
	return "file://" + s
}

// migrateLogger adapts zap to the migrate.Logger interface.
type migrateLogger struct {
	logger *zap.SugaredLogger
}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	l.logger.Infof(strings.TrimSpace(format), v...)
}

func (l *migrateLogger) Verbose() bool {
	return false
}
