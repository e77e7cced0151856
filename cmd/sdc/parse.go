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

	"github.com/spf13/cobra"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/instrument"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/science"
	"gopkg.in/yaml.v3"
)

type parsedView struct {
	Mission           string `yaml:"mission,omitempty"`
	Instrument        string `yaml:"instrument"`
	Mode              string `yaml:"mode,omitempty"`
	Level             string `yaml:"level"`
	Time              string `yaml:"time"`
	Version           string `yaml:"version"`
	Extension         string `yaml:"extension"`
	DestinationBucket string `yaml:"destination_bucket"`
	DestinationKey    string `yaml:"destination_key"`
}

func newParseCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "parse FILENAME",
		Short: "Show how a filename parses and where its product would be filed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := opts.lookuper.Lookup("INSTRUMENT_CONFIG_PATH")
			instruments, err := instrument.Load(path)
			if err != nil {
				return err
			}

			parsed, err := instruments.Parser().Parse(args[0])
			if err != nil {
				return err
			}
			inst, err := instruments.Lookup(parsed.Instrument)
			if err != nil {
				return err
			}

			filename := science.Filename(args[0])
			view := &parsedView{
				Mission:           parsed.Mission,
				Instrument:        parsed.Instrument,
				Mode:              parsed.Mode,
				Level:             parsed.Level.String(),
				Time:              parsed.Time.Format(time.RFC3339),
				Version:           parsed.Version,
				Extension:         parsed.Extension,
				DestinationBucket: inst.Bucket,
				DestinationKey:    science.DestinationKey(parsed, filename, opts.now()),
			}

			b, err := yaml.Marshal(view)
			if err != nil {
				return fmt.Errorf("failed to encode: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	}
}
