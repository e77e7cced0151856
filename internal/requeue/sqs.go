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
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"
)

const idempotencyAttribute = "idempotency_key"

// Compile-time check to verify implements interface.
var _ Dispatcher = (*SQS)(nil)

// SQS sends requeue messages to the processing queue.
type SQS struct {
	svc      sqsiface.SQSAPI
	queueURL string
}

// NewSQS creates a dispatcher using the ambient AWS credentials.
func NewSQS(_ context.Context, queueURL string) (Dispatcher, error) {
	if queueURL == "" {
		return nil, fmt.Errorf("REQUEUE_QUEUE_URL is required for the SQS dispatcher")
	}

	sess, err := session.NewSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return NewSQSWithClient(sqs.New(sess), queueURL), nil
}

// NewSQSWithClient creates a dispatcher using the given client.
func NewSQSWithClient(svc sqsiface.SQSAPI, queueURL string) *SQS {
	return &SQS{
		svc:      svc,
		queueURL: queueURL,
	}
}

func (s *SQS) Dispatch(ctx context.Context, msg *Message) error {
	in := &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueURL),
		MessageBody: aws.String(string(msg.Body)),
		MessageAttributes: map[string]*sqs.MessageAttributeValue{
			idempotencyAttribute: {
				DataType:    aws.String("String"),
				StringValue: aws.String(msg.IdempotencyKey),
			},
		},
	}

	// FIFO queues deduplicate on their own.
	if strings.HasSuffix(s.queueURL, ".fifo") {
		in.MessageDeduplicationId = aws.String(msg.IdempotencyKey)
		in.MessageGroupId = aws.String(msg.Bucket)
	}

	if _, err := s.svc.SendMessageWithContext(ctx, in); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}
