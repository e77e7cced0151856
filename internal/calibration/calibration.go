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

// Package calibration invokes the per-instrument routines that transform a
// science file into its next processing level.
package calibration

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrNeedsMoreData may be returned (wrapped) by a Calibrator to signal that
	// the input cannot be calibrated until more data arrives. Invoke converts
	// it into a NeedsMoreData result.
	ErrNeedsMoreData = errors.New("calibration needs more data")

	// ErrNoCalibrator is returned when no calibrator is registered for an
	// instrument.
	ErrNoCalibrator = errors.New("no calibrator registered")
)

// Outcome classifies a calibration result.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeNeedsMoreData
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "OK"
	case OutcomeNeedsMoreData:
		return "NEEDS_MORE_DATA"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Result is the outcome of a calibration run. Outputs are local paths of the
// produced files and may be empty.
type Result struct {
	Outcome Outcome
	Outputs []string
	Reason  string
}

// OK returns a successful result.
func OK(outputs ...string) *Result {
	return &Result{Outcome: OutcomeOK, Outputs: outputs}
}

// NeedsMoreData returns a recoverable result.
func NeedsMoreData(reason string) *Result {
	return &Result{Outcome: OutcomeNeedsMoreData, Reason: reason}
}

// Calibrator transforms the file at path.
type Calibrator interface {
	Calibrate(ctx context.Context, path string) (*Result, error)
}

// CalibratorFunc adapts a function to a Calibrator.
type CalibratorFunc func(ctx context.Context, path string) (*Result, error)

func (f CalibratorFunc) Calibrate(ctx context.Context, path string) (*Result, error) {
	return f(ctx, path)
}

// Invoke runs c and normalizes its result: a nil result is treated as OK
// with no outputs, and an error wrapping ErrNeedsMoreData becomes a
// NeedsMoreData result.
func Invoke(ctx context.Context, c Calibrator, path string) (*Result, error) {
	result, err := c.Calibrate(ctx, path)
	if err != nil {
		if errors.Is(err, ErrNeedsMoreData) {
			return NeedsMoreData(err.Error()), nil
		}
		return nil, err
	}
	if result == nil {
		return OK(), nil
	}
	return result, nil
}

// Registry maps instrument short names to calibrators.
type Registry struct {
	mu          sync.RWMutex
	calibrators map[string]Calibrator
}

func NewRegistry() *Registry {
	return &Registry{
		calibrators: make(map[string]Calibrator),
	}
}

// Register sets the calibrator for an instrument, replacing any existing one.
func (r *Registry) Register(name string, c Calibrator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calibrators[strings.ToLower(name)] = c
}

// Lookup returns the calibrator for an instrument.
func (r *Registry) Lookup(name string) (Calibrator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.calibrators[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w for %q", ErrNoCalibrator, name)
	}
	return c, nil
}

// Names returns the registered instrument names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.calibrators))
	for name := range r.calibrators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
