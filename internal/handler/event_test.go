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
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/requeue"
)

func TestParseEvent(t *testing.T) {
	t.Parallel()

	const s3Record = `{"Records":[{"eventSource":"aws:s3","s3":{"bucket":{"name":"raw-bucket"},"object":{"key":"unprocessed/hermes_EEA_l0_2023001-000000_v01.bin"}}}]}`

	cases := []struct {
		name string
		raw  string
		exp  *Event
		err  string
	}{
		{
			name: "direct_s3",
			raw:  s3Record,
			exp: &Event{Files: []FileEvent{
				{Bucket: "raw-bucket", Key: "unprocessed/hermes_EEA_l0_2023001-000000_v01.bin"},
			}},
		},
		{
			name: "sns_wrapped",
			raw:  `{"Records":[{"EventSource":"aws:sns","Sns":{"Message":` + quote(s3Record) + `}}]}`,
			exp: &Event{Files: []FileEvent{
				{Bucket: "raw-bucket", Key: "unprocessed/hermes_EEA_l0_2023001-000000_v01.bin"},
			}},
		},
		{
			name: "sqs_wrapped",
			raw:  `{"Records":[{"eventSource":"aws:sqs","body":` + quote(s3Record) + `}]}`,
			exp: &Event{Files: []FileEvent{
				{Bucket: "raw-bucket", Key: "unprocessed/hermes_EEA_l0_2023001-000000_v01.bin"},
			}},
		},
		{
			name: "url_encoded_key",
			raw:  `{"Records":[{"s3":{"bucket":{"name":"b"},"object":{"key":"raw/my+file%3A1.bin"}}}]}`,
			exp: &Event{Files: []FileEvent{
				{Bucket: "b", Key: "raw/my file:1.bin"},
			}},
		},
		{
			name: "multiple_records",
			raw:  `{"Records":[{"s3":{"bucket":{"name":"b"},"object":{"key":"one"}}},{"s3":{"bucket":{"name":"b"},"object":{"key":"two"}}}]}`,
			exp: &Event{Files: []FileEvent{
				{Bucket: "b", Key: "one"},
				{Bucket: "b", Key: "two"},
			}},
		},
		{
			name: "empty_object",
			raw:  `{}`,
			exp:  &Event{Requeue: true},
		},
		{
			name: "empty_records",
			raw:  `{"Records":[]}`,
			exp:  &Event{Requeue: true},
		},
		{
			name: "sns_wrapped_empty",
			raw:  `{"Records":[{"EventSource":"aws:sns","Sns":{"Message":` + quote(`{"Records":[]}`) + `}}]}`,
			exp:  &Event{Requeue: true},
		},
		{
			name: "sqs_wrapped_empty",
			raw:  `{"Records":[{"eventSource":"aws:sqs","body":"{}"}]}`,
			exp:  &Event{Requeue: true},
		},
		{
			name: "invalid_json",
			raw:  `{`,
			err:  "failed to decode event",
		},
		{
			name: "unsupported_source",
			raw:  `{"Records":[{"eventSource":"aws:kinesis"}]}`,
			err:  `unsupported event source "aws:kinesis"`,
		},
		{
			name: "missing_key",
			raw:  `{"Records":[{"s3":{"bucket":{"name":"b"},"object":{"key":""}}}]}`,
			err:  "missing bucket or key",
		},
		{
			name: "bad_escape",
			raw:  `{"Records":[{"s3":{"bucket":{"name":"b"},"object":{"key":"%zz"}}}]}`,
			err:  `failed to decode event: invalid URL escape "%zz"`,
		},
		{
			name: "bad_escape_wrapped",
			raw:  `{"Records":[{"Sns":{"Message":` + quote(`{"Records":[{"s3":{"bucket":{"name":"b"},"object":{"key":"%zz"}}}]}`) + `}}]}`,
			err:  "record 0: failed to decode wrapped message",
		},
		{
			name: "bad_wrapped_message",
			raw:  `{"Records":[{"Sns":{"Message":"not json"}}]}`,
			err:  "failed to decode wrapped message",
		},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseEvent([]byte(tc.raw))
			if tc.err != "" {
				if err == nil || !contains(err.Error(), tc.err) {
					t.Fatalf("expected error containing %q, got %v", tc.err, err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tc.exp, got); diff != "" {
				t.Errorf("mismatch (-want, +got):\n%s", diff)
			}
		})
	}
}

func TestParseEvent_TooDeep(t *testing.T) {
	t.Parallel()

	raw := `{"Records":[{"s3":{"bucket":{"name":"b"},"object":{"key":"k"}}}]}`
	for i := 0; i < maxDepth; i++ {
		raw = `{"Records":[{"body":` + quote(raw) + `}]}`
	}

	if _, err := ParseEvent([]byte(raw)); err == nil || !contains(err.Error(), "nested too deeply") {
		t.Errorf("expected nesting error, got %v", err)
	}
}

func TestParseEvent_RequeuePayload(t *testing.T) {
	t.Parallel()

	key := "unprocessed/hermes eea/hermes_EEA_l0_2023001-000000_v01.bin"
	payload, err := requeue.NewEventPayload("raw-bucket", key)
	if err != nil {
		t.Fatal(err)
	}

	got, err := ParseEvent(payload)
	if err != nil {
		t.Fatal(err)
	}

	exp := &Event{Files: []FileEvent{{Bucket: "raw-bucket", Key: key}}}
	if diff := cmp.Diff(exp, got); diff != "" {
		t.Errorf("mismatch (-want, +got):\n%s", diff)
	}
}
