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

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/instrument"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/lineage"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/lineage/model"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/project"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/requeue"
	"github.com/swxsoc/sdc-aws-processing-lambda/pkg/logging"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func contains(s, substr string) bool {
	return strings.Contains(s, substr)
}

type fakeProcessor struct {
	mu    sync.Mutex
	calls []FileEvent
	fail  map[string]error
	panic bool
}

func (f *fakeProcessor) Process(_ context.Context, bucket, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.panic {
		panic("calibration exploded")
	}
	f.calls = append(f.calls, FileEvent{Bucket: bucket, Key: key})
	return f.fail[key]
}

type fakeRequeuer struct {
	n   int
	err error
}

func (f *fakeRequeuer) Requeue(context.Context) (int, error) {
	return f.n, f.err
}

func s3Payload(keys ...string) []byte {
	records := make([]string, 0, len(keys))
	for _, k := range keys {
		records = append(records,
			fmt.Sprintf(`{"s3":{"bucket":{"name":"raw-bucket"},"object":{"key":%s}}}`, quote(k)))
	}
	return []byte(`{"Records":[` + strings.Join(records, ",") + `]}`)
}

func TestHandle(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		payload   []byte
		processor *fakeProcessor
		requeuer  Requeuer
		exp       Response
		expCalls  []FileEvent
	}{
		{
			name:      "success",
			payload:   s3Payload("a.bin"),
			processor: &fakeProcessor{},
			exp:       Response{StatusCode: http.StatusOK, Body: `"File Processed Successfully"`},
			expCalls:  []FileEvent{{Bucket: "raw-bucket", Key: "a.bin"}},
		},
		{
			name:    "partial_failure",
			payload: s3Payload("a.bin", "b.bin"),
			processor: &fakeProcessor{
				fail: map[string]error{"a.bin": errors.New("no calibrator")},
			},
			exp: Response{
				StatusCode: http.StatusInternalServerError,
				Body:       quote("1 error occurred:\n\t* raw-bucket/a.bin: no calibrator\n\n"),
			},
			expCalls: []FileEvent{
				{Bucket: "raw-bucket", Key: "a.bin"},
				{Bucket: "raw-bucket", Key: "b.bin"},
			},
		},
		{
			name:      "invalid_payload",
			payload:   []byte(`nope`),
			processor: &fakeProcessor{},
			exp: Response{
				StatusCode: http.StatusInternalServerError,
				Body:       quote("failed to decode event: invalid character 'o' in literal null (expecting 'u')"),
			},
		},
		{
			name:      "requeue",
			payload:   []byte(`{}`),
			processor: &fakeProcessor{},
			requeuer:  &fakeRequeuer{n: 3},
			exp:       Response{StatusCode: http.StatusOK, Body: `"Requeued 3 file(s)"`},
		},
		{
			name:      "sns_wrapped_empty",
			payload:   []byte(`{"Records":[{"EventSource":"aws:sns","Sns":{"Message":"{\"Records\":[]}"}}]}`),
			processor: &fakeProcessor{},
			requeuer:  &fakeRequeuer{n: 2},
			exp:       Response{StatusCode: http.StatusOK, Body: `"Requeued 2 file(s)"`},
		},
		{
			name:      "requeue_error",
			payload:   []byte(`{"Records":[]}`),
			processor: &fakeProcessor{},
			requeuer:  &fakeRequeuer{err: errors.New("listing failed files: db down")},
			exp: Response{
				StatusCode: http.StatusInternalServerError,
				Body:       `"listing failed files: db down"`,
			},
		},
		{
			name:      "requeue_not_configured",
			payload:   []byte(`{}`),
			processor: &fakeProcessor{},
			exp: Response{
				StatusCode: http.StatusInternalServerError,
				Body:       `"event has no records and requeue is not configured"`,
			},
		},
		{
			name:      "panic",
			payload:   s3Payload("a.bin"),
			processor: &fakeProcessor{panic: true},
			exp: Response{
				StatusCode: http.StatusInternalServerError,
				Body:       `"internal error: calibration exploded"`,
			},
		},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctx := project.TestContext(t)

			h := New(tc.processor, tc.requeuer)
			got := h.Handle(ctx, tc.payload)
			if diff := cmp.Diff(tc.exp, got); diff != "" {
				t.Errorf("mismatch (-want, +got):\n%s", diff)
			}
			if diff := cmp.Diff(tc.expCalls, tc.processor.calls); diff != "" {
				t.Errorf("calls mismatch (-want, +got):\n%s", diff)
			}
		})
	}
}

func TestInvoke(t *testing.T) {
	t.Parallel()

	ctx := project.TestContext(t)

	h := New(&fakeProcessor{}, nil)
	b, err := h.Invoke(ctx, s3Payload("a.bin"))
	if err != nil {
		t.Fatal(err)
	}

	if got, want := string(b), `{"statusCode":200,"body":"\"File Processed Successfully\""}`; got != want {
		t.Errorf("expected %s to be %s", got, want)
	}
}

func TestHandle_ErrorLogging(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		processor *fakeProcessor
		message   string
		expStack  bool
		expError  string
	}{
		{
			name: "process_error",
			processor: &fakeProcessor{
				fail: map[string]error{"a.bin": fmt.Errorf("calibrating: %w", errors.New("no calibration table"))},
			},
			message:  "failed to process file",
			expError: "calibrating: no calibration table",
		},
		{
			name:      "panic",
			processor: &fakeProcessor{panic: true},
			message:   "panic while handling event",
			expStack:  true,
		},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			core, logs := observer.New(zap.ErrorLevel)
			ctx := logging.WithLogger(project.TestContext(t), zap.New(core).Sugar())

			New(tc.processor, nil).Handle(ctx, s3Payload("a.bin"))

			entries := logs.FilterMessage(tc.message).All()
			if len(entries) != 1 {
				t.Fatalf("expected 1 %q entry, got %d", tc.message, len(entries))
			}
			fields := entries[0].ContextMap()

			if _, ok := fields["stack"]; ok != tc.expStack {
				t.Errorf("expected stack field present to be %t", tc.expStack)
			}
			if tc.expError != "" {
				if got := fields["error"]; got != tc.expError {
					t.Errorf("expected error field %q, got %v", tc.expError, got)
				}
			}
		})
	}
}

// TestHandle_Requeue drives an empty event through the real requeue driver and
// feeds each dispatched payload back into the handler.
func TestHandle_Requeue(t *testing.T) {
	t.Parallel()

	ctx := project.TestContext(t)

	instruments := instrument.Default()
	store := lineage.NewMemoryStore()
	tracker := lineage.NewTracker(store, instruments.Parser(), &lineage.Config{
		RetryUnit:   time.Millisecond,
		MaxAttempts: 1,
	})

	dir := t.TempDir()
	keys := []string{
		"unprocessed/hermes_EEA_l0_2023001-000000_v01.bin",
		"unprocessed/hermes_EEA_l0_2023002-000000_v01.bin",
	}
	for _, key := range keys {
		local := filepath.Join(dir, filepath.Base(key))
		if err := os.WriteFile(local, []byte("raw"), 0o600); err != nil {
			t.Fatal(err)
		}
		status := model.NewStatus(model.StatusFailed, "needs more data")
		if _, _, err := tracker.Track(ctx, local, key, "raw-bucket", nil, status); err != nil {
			t.Fatal(err)
		}
	}

	dispatcher := requeue.NewMemory()
	processor := &fakeProcessor{}
	h := New(processor, requeue.NewDriver(tracker, dispatcher))

	resp := h.Handle(ctx, []byte(`{"Records":[]}`))
	if diff := cmp.Diff(Response{StatusCode: http.StatusOK, Body: `"Requeued 2 file(s)"`}, resp); diff != "" {
		t.Fatalf("mismatch (-want, +got):\n%s", diff)
	}

	messages := dispatcher.Messages()
	if got, want := len(messages), 2; got != want {
		t.Fatalf("expected %d to be %d", got, want)
	}

	for _, msg := range messages {
		if resp := h.Handle(ctx, msg.Body); resp.StatusCode != http.StatusOK {
			t.Errorf("redelivery of %s failed: %#v", msg.Key, resp)
		}
	}

	exp := []FileEvent{
		{Bucket: "raw-bucket", Key: keys[0]},
		{Bucket: "raw-bucket", Key: keys[1]},
	}
	if diff := cmp.Diff(exp, processor.calls); diff != "" {
		t.Errorf("calls mismatch (-want, +got):\n%s", diff)
	}
}
