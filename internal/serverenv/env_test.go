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

package serverenv

import (
	"context"
	"errors"
	"testing"

	"github.com/swxsoc/sdc-aws-processing-lambda/internal/alert"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/calibration"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/instrument"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/lineage"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/requeue"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/storage"
	"github.com/swxsoc/sdc-aws-processing-lambda/pkg/errcmp"
)

type fakeExporter struct {
	closed bool
	err    error
}

func (f *fakeExporter) StartExporter(context.Context) error { return nil }

func (f *fakeExporter) Close() error {
	f.closed = true
	return f.err
}

func TestServerEnv(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	alerter := alert.NewMemory()
	blobstore := storage.NewMemoryStore()
	calibrators := calibration.NewRegistry()
	dispatcher := requeue.NewMemory()
	instruments := instrument.Default()
	tracker := lineage.NewNoop()
	exporter := &fakeExporter{}

	env := New(ctx,
		WithAlerter(alerter),
		WithBlobstore(blobstore),
		WithCalibrators(calibrators),
		WithDispatcher(dispatcher),
		WithInstruments(instruments),
		WithTracker(tracker),
		WithObservabilityExporter(exporter),
	)

	if env.Alerter() != alerter {
		t.Errorf("unexpected alerter")
	}
	if env.Blobstore() != blobstore {
		t.Errorf("unexpected blobstore")
	}
	if env.Calibrators() != calibrators {
		t.Errorf("unexpected calibrators")
	}
	if env.Dispatcher() != dispatcher {
		t.Errorf("unexpected dispatcher")
	}
	if env.Instruments() != instruments {
		t.Errorf("unexpected instruments")
	}
	if env.Tracker() != tracker {
		t.Errorf("unexpected tracker")
	}
	if env.Database() != nil {
		t.Errorf("expected no database")
	}
	if env.SecretManager() != nil {
		t.Errorf("expected no secret manager")
	}

	if err := env.Close(ctx); err != nil {
		t.Fatal(err)
	}
	if !exporter.closed {
		t.Errorf("expected exporter to be closed")
	}
}

func TestServerEnv_Close(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	var env *ServerEnv
	if err := env.Close(ctx); err != nil {
		t.Fatal(err)
	}

	env = New(ctx, WithObservabilityExporter(&fakeExporter{err: errors.New("flush failed")}))
	errcmp.MustMatch(t, env.Close(ctx), "flush failed")
}
