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

// This package is a command line tool for running the processing pipeline
// against a single object, re-driving failed files, and checking how a
// filename parses.
package main

import (
	"os"

	"github.com/swxsoc/sdc-aws-processing-lambda/internal/interrupt"
	"github.com/swxsoc/sdc-aws-processing-lambda/pkg/logging"
)

func main() {
	ctx, done := interrupt.Context()

	logger := logging.NewLoggerFromEnv().Named("sdc")
	ctx = logging.WithLogger(ctx, logger)

	err := newRootCommand(newRootOptions()).ExecuteContext(ctx)
	done()

	if err != nil {
		logger.Errorw("command failed", "error", err)
		os.Exit(1)
	}
}
