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

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/processing"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/requeue"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/setup"
)

func newRequeueCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "requeue",
		Short: "Re-dispatch every file whose latest attempt failed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var config processing.Config
			env, err := setup.SetupWith(ctx, &config, opts.lookuper)
			if err != nil {
				return fmt.Errorf("setup.SetupWith: %w", err)
			}
			defer env.Close(ctx)

			n, err := requeue.NewDriver(env.Tracker(), env.Dispatcher()).Requeue(ctx)
			fmt.Fprintf(cmd.OutOrStdout(), "requeued %d file(s)\n", n)
			return err
		},
	}
}
