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
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"
)

// rootOptions are shared by every subcommand.
type rootOptions struct {
	envFile  string
	lookuper envconfig.Lookuper
	now      func() time.Time
}

func newRootOptions() *rootOptions {
	return &rootOptions{
		lookuper: envconfig.OsLookuper(),
		now:      time.Now,
	}
}

func newRootCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sdc",
		Short: "Operate the science file processing pipeline",
		Long: `sdc runs the processing pipeline outside of Lambda.

Configuration is read from the environment exactly as the processor reads it.
Use --env-file to load variables from a dotenv file first; variables already
set in the environment take precedence.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.envFile == "" {
				return nil
			}
			if err := godotenv.Load(opts.envFile); err != nil {
				return fmt.Errorf("failed to load %s: %w", opts.envFile, err)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "dotenv file to load before reading configuration")

	cmd.AddCommand(newProcessCommand(opts))
	cmd.AddCommand(newRequeueCommand(opts))
	cmd.AddCommand(newParseCommand(opts))

	return cmd
}
