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
	"strconv"

	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/processing"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/setup"
	"gopkg.in/yaml.v3"
)

type reportView struct {
	Bucket            string         `yaml:"bucket"`
	Key               string         `yaml:"key"`
	Instrument        string         `yaml:"instrument,omitempty"`
	Level             string         `yaml:"level,omitempty"`
	DestinationBucket string         `yaml:"destination_bucket,omitempty"`
	Status            string         `yaml:"status,omitempty"`
	Reason            string         `yaml:"reason,omitempty"`
	Products          []*productView `yaml:"products,omitempty"`
}

type productView struct {
	Key    string `yaml:"key"`
	Level  string `yaml:"level"`
	Pushed bool   `yaml:"pushed"`
}

func newReportView(r *processing.Report) *reportView {
	v := &reportView{
		Bucket:            r.Bucket,
		Key:               r.Key,
		Instrument:        r.Instrument,
		DestinationBucket: r.DestinationBucket,
		Status:            string(r.Status),
		Reason:            r.Reason,
	}
	if r.Parsed != nil {
		v.Level = r.Parsed.Level.String()
	}
	for _, p := range r.Products {
		pv := &productView{Key: p.Key, Pushed: p.Pushed}
		if p.Parsed != nil {
			pv.Level = p.Parsed.Level.String()
		}
		v.Products = append(v.Products, pv)
	}
	return v
}

func newProcessCommand(opts *rootOptions) *cobra.Command {
	var (
		bucket string
		key    string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "process --bucket BUCKET --key KEY",
		Short: "Process a single object",
		Long: `Process downloads, calibrates, and files a single object, then prints a
report of what was done. With --dry-run nothing is downloaded, uploaded, or
recorded.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			overrides := map[string]string{}
			if dryRun {
				overrides["DRY_RUN"] = strconv.FormatBool(true)
			}
			l := envconfig.MultiLookuper(envconfig.MapLookuper(overrides), opts.lookuper)

			var config processing.Config
			env, err := setup.SetupWith(ctx, &config, l)
			if err != nil {
				return fmt.Errorf("setup.SetupWith: %w", err)
			}
			defer env.Close(ctx)

			processor, err := processing.NewProcessor(&config, env, processing.WithClock(opts.now))
			if err != nil {
				return fmt.Errorf("processing.NewProcessor: %w", err)
			}

			report, err := processor.ProcessFile(ctx, bucket, key)
			if report != nil {
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				if encErr := enc.Encode(newReportView(report)); encErr != nil {
					return fmt.Errorf("failed to write report: %w", encErr)
				}
				if encErr := enc.Close(); encErr != nil {
					return fmt.Errorf("failed to write report: %w", encErr)
				}
			}
			return err
		},
	}

	cmd.Flags().StringVar(&bucket, "bucket", "", "bucket holding the object")
	cmd.Flags().StringVar(&key, "key", "", "object key")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "calibrate without transferring objects or recording lineage")
	_ = cmd.MarkFlagRequired("bucket")
	_ = cmd.MarkFlagRequired("key")

	return cmd
}
