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

package setup_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/sethvargo/go-envconfig"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/alert"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/database"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/lineage"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/processing"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/project"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/requeue"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/setup"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/storage"
	"github.com/swxsoc/sdc-aws-processing-lambda/pkg/errcmp"
)

func baseEnv() map[string]string {
	return map[string]string{
		"BLOBSTORE":              "MEMORY",
		"SECRET_MANAGER":         "IN_MEMORY",
		"ALERTER":                "NOOP",
		"REQUEUE_DISPATCHER":     "NOOP",
		"OBSERVABILITY_EXPORTER": "NOOP",
	}
}

func TestSetupWith(t *testing.T) {
	t.Parallel()

	ctx := project.TestContext(t)

	var config processing.Config
	env, err := setup.SetupWith(ctx, &config, envconfig.MapLookuper(baseEnv()))
	if err != nil {
		t.Fatal(err)
	}
	defer env.Close(ctx)

	if _, ok := env.Blobstore().(storage.Blobstore); !ok {
		t.Errorf("expected blobstore to exist")
	}
	if env.Instruments() == nil {
		t.Fatal("expected instruments to be loaded")
	}
	if got, want := env.Instruments().Mission, "hermes"; got != want {
		t.Errorf("expected %q to be %q", got, want)
	}
	if _, err := env.Calibrators().Lookup("eea"); err != nil {
		t.Errorf("expected eea calibrator: %v", err)
	}
	if env.Database() != nil {
		t.Errorf("expected no database")
	}
	if _, ok := env.Tracker().(*lineage.Noop); !ok {
		t.Errorf("expected %T to be Noop", env.Tracker())
	}
	if _, ok := env.Alerter().(*alert.Noop); !ok {
		t.Errorf("expected %T to be Noop", env.Alerter())
	}
	if _, ok := env.Dispatcher().(*requeue.Noop); !ok {
		t.Errorf("expected %T to be Noop", env.Dispatcher())
	}
	if env.SecretManager() == nil {
		t.Errorf("expected secret manager to exist")
	}

	if got, want := config.ScratchDir, "/tmp"; got != want {
		t.Errorf("expected %q to be %q", got, want)
	}
}

func TestSetupWith_Errors(t *testing.T) {
	t.Parallel()

	badConfig := filepath.Join(t.TempDir(), "instruments.yaml")
	if err := os.WriteFile(badConfig, []byte("mission: hermes\ninstruments: []\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "bad_blobstore",
			env:     map[string]string{"BLOBSTORE": "TAPE"},
			wantErr: "unknown blob store type",
		},
		{
			name:    "bad_instruments",
			env:     map[string]string{"INSTRUMENT_CONFIG_PATH": badConfig},
			wantErr: "at least one instrument",
		},
		{
			name:    "rds_secret_missing",
			env:     map[string]string{"RDS_SECRET_ARN": "arn:aws:secretsmanager:us-east-1:1:secret:db"},
			wantErr: "unable to resolve database credentials",
		},
		{
			name:    "lambda_without_function",
			env:     map[string]string{"REQUEUE_DISPATCHER": "LAMBDA"},
			wantErr: "AWS_LAMBDA_FUNCTION_NAME",
		},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctx := project.TestContext(t)

			env := baseEnv()
			for k, v := range tc.env {
				env[k] = v
			}

			var config processing.Config
			_, err := setup.SetupWith(ctx, &config, envconfig.MapLookuper(env))
			errcmp.MustMatch(t, err, tc.wantErr)
		})
	}
}

func TestSetupWith_DefaultRequeue(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		env      map[string]string
		wantType string
	}{
		{
			name:     "function_name_only",
			env:      map[string]string{"AWS_LAMBDA_FUNCTION_NAME": "sdc-processing"},
			wantType: "*requeue.Lambda",
		},
		{
			name:     "queue_url",
			env:      map[string]string{"REQUEUE_QUEUE_URL": "https://sqs.us-east-1.amazonaws.com/123/requeue"},
			wantType: "*requeue.SQS",
		},
		{
			name:     "neither",
			wantType: "*requeue.unconfigured",
		},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctx := project.TestContext(t)

			env := baseEnv()
			delete(env, "REQUEUE_DISPATCHER")
			for k, v := range tc.env {
				env[k] = v
			}

			var config processing.Config
			senv, err := setup.SetupWith(ctx, &config, envconfig.MapLookuper(env))
			if err != nil {
				t.Fatal(err)
			}
			defer senv.Close(ctx)

			if got := fmt.Sprintf("%T", senv.Dispatcher()); got != tc.wantType {
				t.Errorf("expected %s to be %s", got, tc.wantType)
			}
		})
	}
}

func TestSetupWith_Database(t *testing.T) {
	t.Parallel()

	ctx := project.TestContext(t)
	_, dbConfig := database.NewTestDatabaseWithConfig(t)

	config := processing.Config{Database: *dbConfig}
	env, err := setup.SetupWith(ctx, &config, envconfig.MapLookuper(baseEnv()))
	if err != nil {
		t.Fatal(err)
	}
	defer env.Close(ctx)

	if env.Database() == nil {
		t.Fatal("expected database to be connected")
	}
	if _, ok := env.Tracker().(*lineage.RetryingTracker); !ok {
		t.Errorf("expected %T to be RetryingTracker", env.Tracker())
	}
}
