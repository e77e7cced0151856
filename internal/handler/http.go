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
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/database"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/middleware"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/server"
	"github.com/swxsoc/sdc-aws-processing-lambda/pkg/logging"
)

// maxPayloadBytes matches the Lambda synchronous invocation payload limit.
const maxPayloadBytes = 6 << 20

// Routes serves the handler over HTTP for local runs. db may be nil.
func (h *Handler) Routes(ctx context.Context, db *database.DB) *mux.Router {
	logger := logging.FromContext(ctx).Named("handler")

	r := mux.NewRouter()
	r.Use(middleware.Recovery())
	r.Use(middleware.PopulateRequestID())
	r.Use(middleware.PopulateLogger(logger))

	r.Handle("/health", server.HandleHealthz(db)).Methods(http.MethodGet)
	r.Handle("/", h.handleEvent()).Methods(http.MethodPost)

	return r
}

func (h *Handler) handleEvent() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
		if err != nil {
			h.renderer.RenderJSON(w, http.StatusBadRequest, err)
			return
		}

		resp := h.Handle(r.Context(), body)
		h.renderer.RenderJSON(w, resp.StatusCode, resp)
	})
}
