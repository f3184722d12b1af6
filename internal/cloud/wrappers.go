// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// This file implements a wrapper around the standard Generative AI client.
// The wrapper uses the Decorator design pattern to add rate limiting and a
// retry mechanism to the Generative AI model without altering its code.
//
// Why this is important:
//   - Rate Limiting: Services like Vertex AI have quotas on how many requests
//     you can make per minute. This wrapper prevents the application from
//     exceeding those limits, which would otherwise result in errors.
//   - Retry Logic: Network requests can sometimes fail for transient reasons.
//     The wrapper automatically retries a failed request, making the
//     application more resilient.
package cloud

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

type retryCountKey struct{}

// QuotaAwareGenerativeAIModel decorates the genai model handle with a rate
// limiter and per-request retry state. Pipeline commands only ever talk to
// the model through this wrapper.
type QuotaAwareGenerativeAIModel struct {
	GenerativeContentConfig *genai.GenerateContentConfig
	ModelName               string
	ModelHandle             *genai.Models
	RateLimit               rate.Limiter
}

// NewQuotaAwareModel creates a QuotaAwareGenerativeAIModel around the given
// model handle. requestsPerSecond caps the sustained call rate and the burst
// size of the underlying token bucket.
func NewQuotaAwareModel(config *genai.GenerateContentConfig, name string, handle *genai.Models, requestsPerSecond int) *QuotaAwareGenerativeAIModel {
	return &QuotaAwareGenerativeAIModel{
		GenerativeContentConfig: config,
		ModelName:               name,
		ModelHandle:             handle,
		RateLimit:               *rate.NewLimiter(rate.Every(time.Second), requestsPerSecond),
	}
}

// GenerateContent forwards to the wrapped model once the rate limiter admits
// the request, retrying transient failures up to MaxRetries with a backoff.
//
// Logic Flow:
//  1. Block on the rate limiter until a slot is available.
//  2. Call the underlying GenerateContent.
//  3. On failure, read the retry count from the context; if retries remain,
//     back off and recurse with an incremented count, otherwise return the
//     error.
func (q *QuotaAwareGenerativeAIModel) GenerateContent(ctx context.Context, content []*genai.Content) (*genai.GenerateContentResponse, error) {
	if err := q.RateLimit.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := q.ModelHandle.GenerateContent(ctx, q.ModelName, content, q.GenerativeContentConfig)
	if err != nil {
		retryCount, ok := ctx.Value(retryCountKey{}).(int)
		if !ok {
			retryCount = 0
		}
		if retryCount >= MaxRetries {
			return nil, errors.New("failed generation on max retries")
		}
		// Give the service time to recover before retrying.
		select {
		case <-time.After(time.Duration(retryCount+1) * 5 * time.Second):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return q.GenerateContent(context.WithValue(ctx, retryCountKey{}, retryCount+1), content)
	}
	return resp, nil
}
