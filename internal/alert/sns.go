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

package alert

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sns"
	"github.com/aws/aws-sdk-go/service/sns/snsiface"
)

// SNS subjects are limited to 100 characters.
const maxSubjectLength = 100

// Compile-time check to verify implements interface.
var _ Alerter = (*SNS)(nil)

// SNS publishes alerts to a topic.
type SNS struct {
	svc      snsiface.SNSAPI
	topicARN string
}

// NewSNS creates an alerter that publishes to topicARN using the ambient AWS
// credentials.
func NewSNS(_ context.Context, topicARN string) (Alerter, error) {
	if topicARN == "" {
		return nil, fmt.Errorf("ALERT_TOPIC_ARN is required for the SNS alerter")
	}

	sess, err := session.NewSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return NewSNSWithClient(sns.New(sess), topicARN), nil
}

// NewSNSWithClient creates an alerter using the given client.
func NewSNSWithClient(svc snsiface.SNSAPI, topicARN string) *SNS {
	return &SNS{
		svc:      svc,
		topicARN: topicARN,
	}
}

func (s *SNS) Alert(ctx context.Context, a *Alert) error {
	subject := a.Subject
	if len(subject) > maxSubjectLength {
		subject = subject[:maxSubjectLength]
	}

	if _, err := s.svc.PublishWithContext(ctx, &sns.PublishInput{
		TopicArn: aws.String(s.topicARN),
		Subject:  aws.String(subject),
		Message:  aws.String(a.String()),
		MessageAttributes: map[string]*sns.MessageAttributeValue{
			"instrument": {
				DataType:    aws.String("String"),
				StringValue: aws.String(valueOr(a.Instrument, "unknown")),
			},
		},
	}); err != nil {
		return fmt.Errorf("failed to publish alert: %w", err)
	}
	return nil
}

// SNS rejects empty string attribute values.
func valueOr(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
