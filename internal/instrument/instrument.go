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

// Package instrument loads the static mission configuration: which
// instruments exist, which bucket receives their products and how their files
// are calibrated.
package instrument

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/swxsoc/sdc-aws-processing-lambda/internal/science"
	"gopkg.in/yaml.v3"
)

// DefaultNeedsDataExitCode is the calibration exit status that signals
// missing reference data when an instrument does not configure its own.
// It matches EX_TEMPFAIL from sysexits.h.
const DefaultNeedsDataExitCode = 75

// ErrUnknownInstrument is returned when a filename names an instrument that
// is not configured.
var ErrUnknownInstrument = errors.New("unknown instrument")

//go:embed config.yaml
var defaultConfig []byte

// Config is the mission configuration. It is immutable after Load.
type Config struct {
	Mission     string        `yaml:"mission"`
	Instruments []*Instrument `yaml:"instruments"`

	byName map[string]*Instrument
}

// Instrument describes a single instrument.
type Instrument struct {
	Name        string      `yaml:"name"`
	FullName    string      `yaml:"full_name"`
	TargetName  string      `yaml:"target_name"`
	Bucket      string      `yaml:"bucket"`
	Calibration Calibration `yaml:"calibration"`
}

// Calibration references the program that calibrates an instrument's files.
type Calibration struct {
	Command           []string `yaml:"command"`
	NeedsDataExitCode int      `yaml:"needs_data_exit_code"`
}

// Load reads the configuration at path, or the embedded default when path is
// empty.
func Load(path string) (*Config, error) {
	if path == "" {
		return Parse(defaultConfig)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read instrument config: %w", err)
	}
	return Parse(data)
}

// Default returns the embedded configuration.
func Default() *Config {
	cfg, err := Parse(defaultConfig)
	if err != nil {
		panic(fmt.Errorf("embedded instrument config is invalid: %w", err))
	}
	return cfg
}

// Parse decodes and validates a YAML configuration.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse instrument config: %w", err)
	}

	if cfg.Mission == "" {
		return nil, fmt.Errorf("instrument config: mission is required")
	}
	if len(cfg.Instruments) == 0 {
		return nil, fmt.Errorf("instrument config: at least one instrument is required")
	}

	cfg.byName = make(map[string]*Instrument, len(cfg.Instruments))
	for i, inst := range cfg.Instruments {
		if inst == nil || inst.Name == "" {
			return nil, fmt.Errorf("instrument config: instruments[%d]: name is required", i)
		}
		name := strings.ToLower(inst.Name)
		if _, ok := cfg.byName[name]; ok {
			return nil, fmt.Errorf("instrument config: duplicate instrument %q", inst.Name)
		}
		if inst.Bucket == "" {
			return nil, fmt.Errorf("instrument config: %s: bucket is required", inst.Name)
		}
		if inst.Calibration.NeedsDataExitCode == 0 {
			inst.Calibration.NeedsDataExitCode = DefaultNeedsDataExitCode
		}
		inst.Name = name
		cfg.byName[name] = inst
	}

	return &cfg, nil
}

// Lookup returns the instrument with the given short name. Names are matched
// case-insensitively.
func (c *Config) Lookup(name string) (*Instrument, error) {
	inst, ok := c.byName[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownInstrument, name)
	}
	return inst, nil
}

// Names returns the sorted instrument short names.
func (c *Config) Names() []string {
	names := make([]string, 0, len(c.byName))
	for name := range c.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Parser returns a filename parser for the configured mission.
func (c *Config) Parser() *science.Parser {
	return science.NewParser(c.Mission)
}
