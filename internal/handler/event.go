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
	"encoding/json"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
)

// FileEvent names one object to process.
type FileEvent struct {
	Bucket string
	Key    string
}

// Event is a decoded invocation payload.
type Event struct {
	// Requeue is set when the payload, once unwrapped, names no files.
	Requeue bool
	Files   []FileEvent
}

// envelope matches the S3, SNS and SQS notification shapes. Field names are
// matched case-insensitively, so eventSource and EventSource both bind.
type envelope struct {
	Records []*record `json:"Records"`
}

type record struct {
	EventSource string           `json:"eventSource"`
	SNS         *snsEntity       `json:"Sns"`
	S3          *events.S3Entity `json:"s3"`
	Body        *string          `json:"body"`
}

type snsEntity struct {
	Message string `json:"Message"`
}

// maxDepth bounds how many envelopes may wrap an S3 record.
const maxDepth = 4

// ParseEvent decodes an invocation payload. S3 keys are URL-decoded while
// decoding, so a malformed escape fails the whole payload.
func ParseEvent(raw []byte) (*Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("failed to decode event: %w", err)
	}

	files, err := collect(env.Records, 0)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return &Event{Requeue: true}, nil
	}
	return &Event{Files: files}, nil
}

func collect(records []*record, depth int) ([]FileEvent, error) {
	if depth >= maxDepth {
		return nil, fmt.Errorf("event nested too deeply")
	}

	var files []FileEvent
	for i, r := range records {
		if r == nil {
			return nil, fmt.Errorf("record %d is empty", i)
		}

		var inner string
		switch {
		case r.S3 != nil:
			key := r.S3.Object.URLDecodedKey
			if r.S3.Bucket.Name == "" || key == "" {
				return nil, fmt.Errorf("record %d: missing bucket or key", i)
			}
			files = append(files, FileEvent{Bucket: r.S3.Bucket.Name, Key: key})
			continue
		case r.SNS != nil:
			inner = r.SNS.Message
		case r.Body != nil:
			inner = *r.Body
		default:
			return nil, fmt.Errorf("record %d: unsupported event source %q", i, r.EventSource)
		}

		var env envelope
		if err := json.Unmarshal([]byte(inner), &env); err != nil {
			return nil, fmt.Errorf("record %d: failed to decode wrapped message: %w", i, err)
		}
		nested, err := collect(env.Records, depth+1)
		if err != nil {
			return nil, err
		}
		files = append(files, nested...)
	}
	return files, nil
}
