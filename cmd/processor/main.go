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

// This package is the science file processing service. It runs as a Lambda
// function when started by the Lambda runtime and as an HTTP server otherwise.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/buildinfo"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/handler"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/interrupt"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/processing"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/requeue"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/server"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/setup"
	"github.com/swxsoc/sdc-aws-processing-lambda/pkg/logging"
)

func main() {
	ctx, done := interrupt.Context()

	logger := logging.NewLoggerFromEnv().
		With("build_id", buildinfo.Processor.ID()).
		With("build_tag", buildinfo.Processor.Tag())
	ctx = logging.WithLogger(ctx, logger)

	defer func() {
		done()
		if r := recover(); r != nil {
			logger.Fatalw("application panic", "panic", r)
		}
	}()

	err := realMain(ctx)
	done()

	if err != nil {
		logger.Fatal(err)
	}
	logger.Info("successful shutdown")
}

func realMain(ctx context.Context) error {
	logger := logging.FromContext(ctx)

	var config processing.Config
	env, err := setup.Setup(ctx, &config)
	if err != nil {
		return fmt.Errorf("setup.Setup: %w", err)
	}
	defer env.Close(ctx)

	processor, err := processing.NewProcessor(&config, env)
	if err != nil {
		return fmt.Errorf("processing.NewProcessor: %w", err)
	}
	h := handler.New(processor, requeue.NewDriver(env.Tracker(), env.Dispatcher()))

	if onLambda() {
		logger.Infow("starting lambda handler", "environment", config.Environment)
		lambda.StartWithOptions(h, lambda.WithContext(ctx))
		return nil
	}

	srv := server.New(config.Port, h.Routes(ctx, env.Database()))
	logger.Infow("starting http server", "port", config.Port, "environment", config.Environment)
	return srv.ServeHTTPHandler(ctx)
}

// onLambda reports whether the process was started by the Lambda runtime.
func onLambda() bool {
	return os.Getenv("AWS_LAMBDA_RUNTIME_API") != ""
}
