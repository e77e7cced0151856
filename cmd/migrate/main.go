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

// This package runs the lineage database migrations.
package main

import (
	"context"
	"fmt"

	"github.com/swxsoc/sdc-aws-processing-lambda/internal/buildinfo"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/interrupt"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/migrate"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/setup"
	"github.com/swxsoc/sdc-aws-processing-lambda/pkg/logging"
)

func main() {
	ctx, done := interrupt.Context()

	logger := logging.NewLoggerFromEnv().
		With("build_id", buildinfo.Processor.ID()).
		With("build_tag", buildinfo.Processor.Tag())
	ctx = logging.WithLogger(ctx, logger)

	err := realMain(ctx)
	done()

	if err != nil {
		logger.Fatal(err)
	}
}

func realMain(ctx context.Context) error {
	logger := logging.FromContext(ctx)

	var config migrate.Config
	env, err := setup.Setup(ctx, &config)
	if err != nil {
		return fmt.Errorf("setup.Setup: %w", err)
	}
	defer env.Close(ctx)

	m, err := migrate.New(&config, env)
	if err != nil {
		return fmt.Errorf("migrate.New: %w", err)
	}

	logger.Infow("beginning migration", "command", config.Command)
	if err := m.Run(ctx); err != nil {
		return fmt.Errorf("migrate.Run: %w", err)
	}
	logger.Infow("migration completed")

	return nil
}
