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

// Package render encodes responses as JSON for both the HTTP and the Lambda
// invocation paths.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/hashicorp/go-multierror"
)

const (
	contentTypeJSON = "application/json"

	errorTemplate = `{"error":%q}`
	okBody        = `{"ok":true}`
)

// Renderer encodes values using pooled buffers.
type Renderer struct {
	pool *sync.Pool
}

// NewRenderer creates a new renderer.
func NewRenderer() *Renderer {
	return &Renderer{
		pool: &sync.Pool{
			New: func() interface{} {
				return bytes.NewBuffer(make([]byte, 0, 1024))
			},
		},
	}
}

type errorBody struct {
	Error string `json:"error"`
}

type errorsBody struct {
	Errors []string `json:"errors"`
}

// normalize converts errors into a serializable shape. A multierror becomes a
// list of messages.
func normalize(data interface{}) interface{} {
	switch typ := data.(type) {
	case *multierror.Error:
		msgs := make([]string, 0, len(typ.Errors))
		for _, err := range typ.Errors {
			msgs = append(msgs, err.Error())
		}
		return &errorsBody{Errors: msgs}
	case error:
		return &errorBody{Error: typ.Error()}
	default:
		return data
	}
}

// Marshal encodes data as JSON without a trailing newline.
func (r *Renderer) Marshal(data interface{}) ([]byte, error) {
	b := r.pool.Get().(*bytes.Buffer)
	b.Reset()
	defer r.pool.Put(b)

	if err := json.NewEncoder(b).Encode(normalize(data)); err != nil {
		return nil, fmt.Errorf("failed to encode %T: %w", data, err)
	}
	return append([]byte(nil), bytes.TrimSuffix(b.Bytes(), []byte("\n"))...), nil
}

// RenderJSON writes data to w with the given status code. Nil data renders a
// generic body for the code.
func (r *Renderer) RenderJSON(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", contentTypeJSON)

	if data == nil {
		w.WriteHeader(code)
		if code >= 200 && code < 300 {
			fmt.Fprint(w, okBody)
			return
		}
		fmt.Fprintf(w, errorTemplate, http.StatusText(code))
		return
	}

	b, err := r.Marshal(data)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, errorTemplate, http.StatusText(http.StatusInternalServerError))
		return
	}

	w.WriteHeader(code)
	_, _ = w.Write(b)
}
