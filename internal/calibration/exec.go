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

package calibration

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/swxsoc/sdc-aws-processing-lambda/internal/instrument"
	"github.com/swxsoc/sdc-aws-processing-lambda/pkg/logging"
)

// Compile-time check to verify implements interface.
var _ Calibrator = (*ExecCalibrator)(nil)

// ExecCalibrator runs an external program. The input path is appended as the
// final argument. Each non-empty line the program prints on stdout is an
// output path; relative paths are resolved against the input's directory.
// Exiting with NeedsDataExitCode yields a NeedsMoreData result.
type ExecCalibrator struct {
	Command           []string
	NeedsDataExitCode int
}

// NewExecCalibrator creates a calibrator from an instrument's configuration.
func NewExecCalibrator(c instrument.Calibration) *ExecCalibrator {
	code := c.NeedsDataExitCode
	if code == 0 {
		code = instrument.DefaultNeedsDataExitCode
	}
	return &ExecCalibrator{
		Command:           c.Command,
		NeedsDataExitCode: code,
	}
}

func (e *ExecCalibrator) Calibrate(ctx context.Context, path string) (*Result, error) {
	logger := logging.FromContext(ctx).Named("calibration")

	if len(e.Command) == 0 {
		return nil, fmt.Errorf("calibration command is empty")
	}

	args := append(append([]string(nil), e.Command[1:]...), path)
	cmd := exec.CommandContext(ctx, e.Command[0], args...)
	cmd.Dir = filepath.Dir(path)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debugw("running calibration", "command", e.Command, "path", path)
	err := cmd.Run()
	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		logger.Infow("calibration stderr", "path", path, "stderr", msg)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == e.NeedsDataExitCode {
			reason := strings.TrimSpace(stderr.String())
			if reason == "" {
				reason = "calibration reported missing data"
			}
			return NeedsMoreData(reason), nil
		}
		return nil, fmt.Errorf("running %s: %w", e.Command[0], err)
	}

	var outputs []string
	scanner := bufio.NewScanner(&stdout)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !filepath.IsAbs(line) {
			line = filepath.Join(filepath.Dir(path), line)
		}
		outputs = append(outputs, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading calibration output: %w", err)
	}

	return OK(outputs...), nil
}

// NewRegistryFromConfig registers an ExecCalibrator for every configured
// instrument that names a command.
func NewRegistryFromConfig(cfg *instrument.Config) *Registry {
	r := NewRegistry()
	for _, inst := range cfg.Instruments {
		if len(inst.Calibration.Command) == 0 {
			continue
		}
		r.Register(inst.Name, NewExecCalibrator(inst.Calibration))
	}
	return r
}
