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

package instrument

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/swxsoc/sdc-aws-processing-lambda/pkg/errcmp"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	if got, want := cfg.Mission, "hermes"; got != want {
		t.Errorf("expected %q to be %q", got, want)
	}

	want := []string{"eea", "merit", "nemisis", "spani"}
	if diff := cmp.Diff(want, cfg.Names()); diff != "" {
		t.Errorf("mismatch (-want, +got):\n%s", diff)
	}

	for _, name := range want {
		inst, err := cfg.Lookup(name)
		if err != nil {
			t.Fatal(err)
		}
		if got, want := inst.Bucket, "hermes-"+name; got != want {
			t.Errorf("expected %q to be %q", got, want)
		}
		if got, want := inst.Calibration.NeedsDataExitCode, DefaultNeedsDataExitCode; got != want {
			t.Errorf("expected %d to be %d", got, want)
		}
	}
}

func TestLookup(t *testing.T) {
	t.Parallel()

	cfg := Default()

	if _, err := cfg.Lookup("EEA"); err != nil {
		t.Errorf("expected case-insensitive match: %v", err)
	}

	_, err := cfg.Lookup("nope")
	if !errors.Is(err, ErrUnknownInstrument) {
		t.Errorf("expected %v to be %v", err, ErrUnknownInstrument)
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		yaml string
		err  string
	}{
		{
			name: "valid",
			yaml: `
mission: test
instruments:
  - name: INSTR
    bucket: instr-bucket
    calibration:
      command: ["true"]
      needs_data_exit_code: 3
`,
		},
		{
			name: "missing_mission",
			yaml: `
instruments:
  - name: instr
    bucket: b
`,
			err: "mission is required",
		},
		{
			name: "no_instruments",
			yaml: "mission: test\n",
			err:  "at least one instrument",
		},
		{
			name: "missing_bucket",
			yaml: `
mission: test
instruments:
  - name: instr
`,
			err: "bucket is required",
		},
		{
			name: "duplicate",
			yaml: `
mission: test
instruments:
  - name: instr
    bucket: a
  - name: INSTR
    bucket: b
`,
			err: "duplicate instrument",
		},
		{
			name: "unknown_field",
			yaml: `
mission: test
colour: blue
instruments:
  - name: instr
    bucket: a
`,
			err: "failed to parse",
		},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg, err := Parse([]byte(tc.yaml))
			errcmp.MustMatch(t, err, tc.err)
			if err != nil {
				return
			}

			inst, err := cfg.Lookup("instr")
			if err != nil {
				t.Fatal(err)
			}
			if got, want := inst.Calibration.NeedsDataExitCode, 3; got != want {
				t.Errorf("expected %d to be %d", got, want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "instruments.yaml")
	data := []byte("mission: test\ninstruments:\n  - name: instr\n    bucket: b\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := cfg.Mission, "test"; got != want {
		t.Errorf("expected %q to be %q", got, want)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("expected error loading missing file")
	}

	cfg, err = Load("")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := cfg.Mission, "hermes"; got != want {
		t.Errorf("expected %q to be %q", got, want)
	}
}
