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

package platform

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/hooptuber/highlight-pipeline/internal/config"
)

// QuotaAwareModel decorates the Gemini client with a token-bucket rate
// limiter and bounded exponential backoff. It is the same decorator
// shape the teacher built around genai.Models.GenerateContent, retargeted
// with the retry policy the Python original actually used for shot
// analysis (base 5s, factor 2, 3 attempts total) instead of the
// teacher's own 1-retry-per-minute, 3-attempt policy.
type QuotaAwareModel struct {
	models  *genai.Models
	cfg     config.AnalyzerModel
	limiter *rate.Limiter
}

// NewQuotaAwareModel builds the decorator from an open genai.Client.
func NewQuotaAwareModel(client *genai.Client, cfg config.AnalyzerModel) *QuotaAwareModel {
	rps := cfg.RequestsPerMinute
	if rps <= 0 {
		rps = 60
	}
	return &QuotaAwareModel{
		models:  client.Models,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(float64(rps)/60.0), rps),
	}
}

// GenerateContent waits for a rate-limiter token, then calls the model,
// retrying only on errors that look transient (503, UNAVAILABLE, or a
// context deadline/timeout) with base*factor^attempt second backoff, up
// to MaxAttempts total tries.
func (q *QuotaAwareModel) GenerateContent(ctx context.Context, contents []*genai.Content, generateCfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	if err := q.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("platform: rate limiter wait: %w", err)
	}

	maxAttempts := q.cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	base := float64(q.cfg.BackoffBaseSeconds)
	if base <= 0 {
		base = 5
	}
	factor := q.cfg.BackoffFactor
	if factor <= 0 {
		factor = 2
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		resp, err := q.models.GenerateContent(ctx, q.cfg.Model, contents, generateCfg)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !isRetryable(err) || attempt == maxAttempts-1 {
			break
		}

		wait := time.Duration(base*math.Pow(factor, float64(attempt))) * time.Second
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("platform: generate content failed after %d attempts: %w", maxAttempts, lastErr)
}

// isRetryable reports whether err looks like a transient service fault
// rather than a caller mistake — 503/UNAVAILABLE responses or a deadline
// exceeded, matching the retry condition in the Python original's
// process_video_and_summarize.
func isRetryable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToUpper(err.Error())
	return strings.Contains(msg, "503") ||
		strings.Contains(msg, "UNAVAILABLE") ||
		strings.Contains(msg, "TIMEOUT")
}
