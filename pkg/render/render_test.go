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

package render

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hashicorp/go-multierror"
)

func TestRenderJSON(t *testing.T) {
	t.Parallel()

	var merr *multierror.Error
	merr = multierror.Append(merr, errors.New("one"), errors.New("two"))

	cases := []struct {
		name string
		code int
		data interface{}
		exp  string
	}{
		{
			name: "nil_ok",
			code: http.StatusOK,
			exp:  `{"ok":true}`,
		},
		{
			name: "nil_error",
			code: http.StatusBadRequest,
			exp:  `{"error":"Bad Request"}`,
		},
		{
			name: "struct",
			code: http.StatusOK,
			data: struct {
				Body string `json:"body"`
			}{Body: "hello"},
			exp: `{"body":"hello"}`,
		},
		{
			name: "error",
			code: http.StatusInternalServerError,
			data: errors.New("oops"),
			exp:  `{"error":"oops"}`,
		},
		{
			name: "multierror",
			code: http.StatusInternalServerError,
			data: merr,
			exp:  `{"errors":["one","two"]}`,
		},
		{
			name: "unencodable",
			code: http.StatusOK,
			data: map[string]interface{}{"ch": make(chan int)},
			exp:  `{"error":"Internal Server Error"}`,
		},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r := NewRenderer()
			w := httptest.NewRecorder()
			r.RenderJSON(w, tc.code, tc.data)

			if got, want := w.Header().Get("Content-Type"), "application/json"; got != want {
				t.Errorf("expected %q to be %q", got, want)
			}
			if got, want := w.Body.String(), tc.exp; got != want {
				t.Errorf("expected %q to be %q", got, want)
			}
		})
	}
}

func TestMarshal(t *testing.T) {
	t.Parallel()

	r := NewRenderer()
	for i := 0; i < 3; i++ {
		b, err := r.Marshal(map[string]int{"n": i})
		if err != nil {
			t.Fatal(err)
		}
		if got, want := string(b), `{"n":`+string(rune('0'+i))+`}`; got != want {
			t.Errorf("expected %q to be %q", got, want)
		}
	}
}
