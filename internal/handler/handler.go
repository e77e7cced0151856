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

// Package handler adapts invocation payloads to the processing pipeline and
// converts its errors into status codes.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/hashicorp/go-multierror"
	"github.com/swxsoc/sdc-aws-processing-lambda/pkg/logging"
	"github.com/swxsoc/sdc-aws-processing-lambda/pkg/render"
)

// SuccessMessage is the body returned when every file was processed.
const SuccessMessage = "File Processed Successfully"

// Response is returned to the invoker.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// FileProcessor processes a single object.
type FileProcessor interface {
	Process(ctx context.Context, bucket, key string) error
}

// Requeuer re-drives failed files.
type Requeuer interface {
	Requeue(ctx context.Context) (int, error)
}

// Compile-time check to verify implements interface.
var _ lambda.Handler = (*Handler)(nil)

// Handler is the single entry point for invocations.
type Handler struct {
	processor FileProcessor
	requeuer  Requeuer
	renderer  *render.Renderer
}

func New(processor FileProcessor, requeuer Requeuer) *Handler {
	return &Handler{
		processor: processor,
		requeuer:  requeuer,
		renderer:  render.NewRenderer(),
	}
}

// Invoke implements lambda.Handler.
func (h *Handler) Invoke(ctx context.Context, payload []byte) ([]byte, error) {
	resp := h.Handle(ctx, payload)
	b, err := h.renderer.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	return b, nil
}

// Handle processes every file named by the payload. A payload with no records
// runs the requeue driver instead. Errors never escape: they are logged and
// reported as a 500.
func (h *Handler) Handle(ctx context.Context, payload []byte) (resp Response) {
	logger := logging.FromContext(ctx).Named("handler")

	defer func() {
		if p := recover(); p != nil {
			logger.Errorw("panic while handling event", "panic", p, "stack", string(debug.Stack()))
			resp = errorResponse(fmt.Errorf("internal error: %v", p))
		}
	}()

	event, err := ParseEvent(payload)
	if err != nil {
		logger.Errorw("failed to parse event", "error", err)
		return errorResponse(err)
	}

	if event.Requeue {
		if h.requeuer == nil {
			return errorResponse(fmt.Errorf("event has no records and requeue is not configured"))
		}

		n, err := h.requeuer.Requeue(ctx)
		if err != nil {
			logger.Errorw("requeue failed", "dispatched", n, "error", err)
			return errorResponse(err)
		}
		logger.Infow("requeued failed files", "count", n)
		return successResponse(fmt.Sprintf("Requeued %d file(s)", n))
	}

	var merr *multierror.Error
	for _, f := range event.Files {
		if err := h.processor.Process(ctx, f.Bucket, f.Key); err != nil {
			logger.Errorw("failed to process file",
				"bucket", f.Bucket,
				"key", f.Key,
				"error", err)
			merr = multierror.Append(merr, fmt.Errorf("%s/%s: %w", f.Bucket, f.Key, err))
		}
	}

	if err := merr.ErrorOrNil(); err != nil {
		return errorResponse(err)
	}
	return successResponse(SuccessMessage)
}

func successResponse(msg string) Response {
	return Response{
		StatusCode: http.StatusOK,
		Body:       jsonString(msg),
	}
}

func errorResponse(err error) Response {
	return Response{
		StatusCode: http.StatusInternalServerError,
		Body:       jsonString(err.Error()),
	}
}

// jsonString encodes s as a JSON string literal.
func jsonString(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(b)
}
