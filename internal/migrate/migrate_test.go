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

package migrate

import (
	"testing"

	"github.com/swxsoc/sdc-aws-processing-lambda/internal/database"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/project"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/serverenv"
	"github.com/swxsoc/sdc-aws-processing-lambda/pkg/errcmp"
)

func TestNew(t *testing.T) {
	t.Parallel()

	ctx := project.TestContext(t)
	env := serverenv.New(ctx, serverenv.WithDatabase(&database.DB{}))

	cases := []struct {
		name    string
		config  *Config
		env     *serverenv.ServerEnv
		err     string
		unknown bool
	}{
		{
			name:   "up",
			config: &Config{Command: "up"},
			env:    env,
		},
		{
			name:   "mixed_case",
			config: &Config{Command: " Down "},
			env:    env,
		},
		{
			name:   "steps",
			config: &Config{Command: "steps", Steps: -1},
			env:    env,
		},
		{
			name:   "steps_missing_count",
			config: &Config{Command: "steps"},
			env:    env,
			err:    "requires MIGRATE_STEPS",
		},
		{
			name:    "unknown",
			config:  &Config{Command: "sideways"},
			env:     env,
			unknown: true,
		},
		{
			name:   "no_database",
			config: &Config{Command: "up"},
			env:    serverenv.New(ctx),
			err:    "requires Database",
		},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := New(tc.config, tc.env)
			if tc.unknown {
				errcmp.MustBe(t, err, ErrUnknownCommand)
				return
			}
			errcmp.MustMatch(t, err, tc.err)
		})
	}
}

func TestSourceURL(t *testing.T) {
	t.Parallel()

	if got, want := sourceURL("/srv/migrations"), "file:///srv/migrations"; got != want {
		t.Errorf("expected %q to be %q", got, want)
	}
	if got, want := sourceURL("s3://bucket/migrations"), "s3://bucket/migrations"; got != want {
		t.Errorf("expected %q to be %q", got, want)
	}
}

func TestRun(t *testing.T) {
	t.Parallel()

	ctx := project.TestContext(t)
	db, dbConfig := database.NewTestDatabaseWithConfig(t)
	env := serverenv.New(ctx, serverenv.WithDatabase(db))

	run := func(command string, steps int) *Migration {
		t.Helper()

		m, err := New(&Config{
			Database:   *dbConfig,
			Command:    command,
			Steps:      steps,
			Migrations: project.Root("migrations"),
		}, env)
		if err != nil {
			t.Fatal(err)
		}
		if err := m.Run(ctx); err != nil {
			t.Fatalf("%s: %v", command, err)
		}
		return m
	}

	// The test database is already fully migrated.
	m := run("up", 0)
	version, dirty, err := m.Version(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if version == 0 || dirty {
		t.Fatalf("expected clean non-zero version, got %d (dirty=%t)", version, dirty)
	}

	run("steps", -1)
	run("version", 0)
	run("up", 0)

	after, _, err := m.Version(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if after != version {
		t.Errorf("expected %d to be %d", after, version)
	}
}
