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

package requeue

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
)

// Message is a single requeue dispatch.
type Message struct {
	// IdempotencyKey is stable for a given file and failure, so consumers can
	// drop duplicate deliveries.
	IdempotencyKey string
	Bucket         string
	Key            string
	Body           []byte
}

// NewMessage builds the dispatch for a failed file. statusID is the id of the
// failing status.
func NewMessage(bucket, key string, statusID int64) (*Message, error) {
	body, err := NewEventPayload(bucket, key)
	if err != nil {
		return nil, err
	}
	return &Message{
		IdempotencyKey: IdempotencyKey(bucket, key, statusID),
		Bucket:         bucket,
		Key:            key,
		Body:           body,
	}, nil
}

// IdempotencyKey derives a name-based UUID from the file location and the
// failing status.
func IdempotencyKey(bucket, key string, statusID int64) string {
	name := fmt.Sprintf("s3://%s/%s#%d", bucket, key, statusID)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

// NewEventPayload returns an SNS notification wrapping a single-record S3
// object-created event, the same shape the bucket notifications deliver.
func NewEventPayload(bucket, key string) ([]byte, error) {
	s3Event := events.S3Event{
		Records: []events.S3EventRecord{
			{
				EventVersion: "2.1",
				EventSource:  "aws:s3",
				EventName:    "ObjectCreated:Put",
				S3: events.S3Entity{
					SchemaVersion: "1.0",
					Bucket: events.S3Bucket{
						Name: bucket,
						Arn:  "arn:aws:s3:::" + bucket,
					},
					Object: events.S3Object{
						Key: EncodeKey(key),
					},
				},
			},
		},
	}

	inner, err := json.Marshal(s3Event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal s3 event: %w", err)
	}

	snsEvent := events.SNSEvent{
		Records: []events.SNSEventRecord{
			{
				EventVersion: "1.0",
				EventSource:  "aws:sns",
				SNS: events.SNSEntity{
					Type:    "Notification",
					Subject: "Amazon S3 Notification",
					Message: string(inner),
				},
			},
		},
	}

	b, err := json.Marshal(snsEvent)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sns event: %w", err)
	}
	return b, nil
}

// EncodeKey encodes an object key the way S3 encodes keys in event
// notifications: form-encoded with path separators left intact.
func EncodeKey(key string) string {
	return strings.ReplaceAll(url.QueryEscape(key), "%2F", "/")
}
