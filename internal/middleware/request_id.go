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

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const (
	contextKeyRequestID = contextKey("request_id")

	// RequestIDHeader carries the request ID in and out of the service.
	RequestIDHeader = "X-Request-Id"

	maxRequestIDLength = 128
)

// PopulateRequestID stores a request ID on the context and echoes it in the
// response. An inbound X-Request-Id wins, then the Root of an X-Amzn-Trace-Id
// so log lines line up with the load balancer and X-Ray. Otherwise a random
// UUID is used.
func PopulateRequestID() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			id := RequestIDFromContext(ctx)
			if id == "" {
				id = inboundRequestID(r)
			}
			if id == "" {
				u, err := uuid.NewRandom()
				if err != nil {
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					return
				}
				id = u.String()
			}

			if id != RequestIDFromContext(ctx) {
				ctx = withRequestID(ctx, id)
				r = r.Clone(ctx)
			}
			w.Header().Set(RequestIDHeader, id)

			next.ServeHTTP(w, r)
		})
	}
}

// inboundRequestID returns a usable ID from the request headers, or "".
func inboundRequestID(r *http.Request) string {
	if v := r.Header.Get(RequestIDHeader); validRequestID(v) {
		return v
	}
	if root := traceRoot(r.Header.Get(amznTraceHeader)); validRequestID(root) {
		return root
	}
	return ""
}

// traceRoot extracts the Root field from an X-Amzn-Trace-Id value such as
// "Root=1-5759e988-bd862e3fe1be46a994272793;Parent=53995c3f42cd8ad8;Sampled=1".
func traceRoot(v string) string {
	for _, part := range strings.Split(v, ";") {
		k, val, ok := strings.Cut(strings.TrimSpace(part), "=")
		if ok && k == "Root" {
			return val
		}
	}
	return ""
}

func validRequestID(v string) bool {
	if v == "" || len(v) > maxRequestIDLength {
		return false
	}
	for _, c := range v {
		if c <= ' ' || c > '~' {
			return false
		}
	}
	return true
}

// RequestIDFromContext pulls the request ID from the context, if one was set.
// If one was not set, it returns the empty string.
func RequestIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(contextKeyRequestID).(string); ok {
		return v
	}
	return ""
}

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKeyRequestID, id)
}
