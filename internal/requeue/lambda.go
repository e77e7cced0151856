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
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	awslambda "github.com/aws/aws-sdk-go/service/lambda"
	"github.com/aws/aws-sdk-go/service/lambda/lambdaiface"
)

// Compile-time check to verify implements interface.
var _ Dispatcher = (*Lambda)(nil)

// Lambda asynchronously invokes a function with the requeue payload.
type Lambda struct {
	svc          lambdaiface.LambdaAPI
	functionName string
}

// NewLambda creates a dispatcher using the ambient AWS credentials.
func NewLambda(_ context.Context, functionName string) (Dispatcher, error) {
	if functionName == "" {
		return nil, fmt.Errorf("AWS_LAMBDA_FUNCTION_NAME is required for the LAMBDA dispatcher")
	}

	sess, err := session.NewSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return NewLambdaWithClient(awslambda.New(sess), functionName), nil
}

// NewLambdaWithClient creates a dispatcher using the given client.
func NewLambdaWithClient(svc lambdaiface.LambdaAPI, functionName string) *Lambda {
	return &Lambda{
		svc:          svc,
		functionName: functionName,
	}
}

func (l *Lambda) Dispatch(ctx context.Context, msg *Message) error {
	clientContext, err := json.Marshal(map[string]interface{}{
		"custom": map[string]string{
			idempotencyAttribute: msg.IdempotencyKey,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal client context: %w", err)
	}

	if _, err := l.svc.InvokeWithContext(ctx, &awslambda.InvokeInput{
		FunctionName:   aws.String(l.functionName),
		InvocationType: aws.String(awslambda.InvocationTypeEvent),
		ClientContext:  aws.String(base64.StdEncoding.EncodeToString(clientContext)),
		Payload:        msg.Body,
	}); err != nil {
		return fmt.Errorf("failed to invoke %s: %w", l.functionName, err)
	}
	return nil
}
