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
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/project"
)

func TestRoutes(t *testing.T) {
	t.Parallel()

	ctx := project.TestContext(t)

	h := New(&fakeProcessor{}, &fakeRequeuer{n: 1})
	srv := httptest.NewServer(h.Routes(ctx, nil))
	t.Cleanup(srv.Close)

	t.Run("health", func(t *testing.T) {
		t.Parallel()

		resp, err := srv.Client().Get(srv.URL + "/health")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()

		if got, want := resp.StatusCode, http.StatusOK; got != want {
			t.Errorf("expected %d to be %d", got, want)
		}
	})

	t.Run("event", func(t *testing.T) {
		t.Parallel()

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, srv.URL+"/",
			bytes.NewReader(s3Payload("a.bin")))
		if err != nil {
			t.Fatal(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Amzn-Trace-Id", "Root=1-5759e988-bd862e3fe1be46a994272793")

		resp, err := srv.Client().Do(req)
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()

		if got, want := resp.StatusCode, http.StatusOK; got != want {
			t.Errorf("expected %d to be %d", got, want)
		}
		if got, want := resp.Header.Get("X-Request-Id"), "1-5759e988-bd862e3fe1be46a994272793"; got != want {
			t.Errorf("expected request id %q to be %q", got, want)
		}

		var got Response
		if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
			t.Fatal(err)
		}
		exp := Response{StatusCode: http.StatusOK, Body: `"File Processed Successfully"`}
		if diff := cmp.Diff(exp, got); diff != "" {
			t.Errorf("mismatch (-want, +got):\n%s", diff)
		}
	})

	t.Run("method_not_allowed", func(t *testing.T) {
		t.Parallel()

		resp, err := srv.Client().Get(srv.URL + "/")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()

		if got, want := resp.StatusCode, http.StatusMethodNotAllowed; got != want {
			t.Errorf("expected %d to be %d", got, want)
		}
	})
}
