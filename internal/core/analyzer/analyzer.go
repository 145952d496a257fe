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

package analyzer

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/hooptuber/highlight-pipeline/internal/core/model"
)

// Model is the subset of platform.QuotaAwareModel the Analyzer needs,
// kept narrow so tests can substitute a fake.
type Model interface {
	GenerateContent(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// FileWaiter polls the Vertex AI File Service for a file to leave the
// "processing" state. Only used by the local-temp-file fallback path;
// the primary gs:// reference path never needs it.
type FileWaiter interface {
	UploadFromPath(ctx context.Context, path, displayName, mimeType string) (*genai.File, error)
	GetFile(ctx context.Context, name string) (*genai.File, error)
}

// Analyzer drives the shot-detection prompt against a video and returns
// normalized, validated shot events.
type Analyzer struct {
	model        Model
	waiter       FileWaiter
	pollInterval time.Duration
	genCfg       *genai.GenerateContentConfig
}

// New builds an Analyzer. waiter may be nil if the fallback path (local,
// non-GCS files) is never exercised by the caller.
func New(m Model, waiter FileWaiter, pollIntervalSeconds int, genCfg *genai.GenerateContentConfig) *Analyzer {
	if pollIntervalSeconds <= 0 {
		pollIntervalSeconds = 5
	}
	return &Analyzer{
		model:        m,
		waiter:       waiter,
		pollInterval: time.Duration(pollIntervalSeconds) * time.Second,
		genCfg:       genCfg,
	}
}

// AnalyzeGcsUri runs shot detection directly against a `gs://` reference,
// the primary path adopted from the teacher's own "Muziris Change": no
// upload-and-poll round trip, just a genai.FileData pointed at the
// object already in Cloud Storage.
func (a *Analyzer) AnalyzeGcsUri(ctx context.Context, gcsUri, mimeType string, durationSec float64) ([]model.ShotEvent, error) {
	prompt, err := buildPrompt()
	if err != nil {
		return nil, fmt.Errorf("analyzer: building prompt: %w", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: prompt},
				{FileData: &genai.FileData{FileURI: gcsUri, MIMEType: mimeType}},
			},
		},
	}

	resp, err := a.model.GenerateContent(ctx, contents, a.genCfg)
	if err != nil {
		return nil, fmt.Errorf("analyzer: generate content: %w", err)
	}

	raw, err := responseText(resp)
	if err != nil {
		return nil, fmt.Errorf("analyzer: reading model response: %w", err)
	}

	return parseShotEvents(raw, durationSec)
}

// AnalyzeLocalFile uploads a local file to the File Service and polls
// until it becomes active before analyzing it. This fallback exists for
// the case where a file has been produced by a local subprocess (e.g.
// ConvertToMp4) and has no GCS URI of its own yet.
func (a *Analyzer) AnalyzeLocalFile(ctx context.Context, path, displayName, mimeType string, durationSec float64) ([]model.ShotEvent, error) {
	if a.waiter == nil {
		return nil, fmt.Errorf("analyzer: no file waiter configured for local-file fallback")
	}

	file, err := a.waiter.UploadFromPath(ctx, path, displayName, mimeType)
	if err != nil {
		return nil, fmt.Errorf("analyzer: uploading %s to file service: %w", path, err)
	}

	if err := a.ensureFileActive(ctx, file); err != nil {
		return nil, err
	}

	prompt, err := buildPrompt()
	if err != nil {
		return nil, fmt.Errorf("analyzer: building prompt: %w", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: prompt},
				{FileData: &genai.FileData{FileURI: file.URI, MIMEType: mimeType}},
			},
		},
	}

	resp, err := a.model.GenerateContent(ctx, contents, a.genCfg)
	if err != nil {
		return nil, fmt.Errorf("analyzer: generate content: %w", err)
	}

	raw, err := responseText(resp)
	if err != nil {
		return nil, fmt.Errorf("analyzer: reading model response: %w", err)
	}

	return parseShotEvents(raw, durationSec)
}

// ensureFileActive polls the File Service every pollInterval until the
// file leaves FileStateProcessing, matching the original worker's
// upload+poll contract (kept only as the fallback path).
func (a *Analyzer) ensureFileActive(ctx context.Context, file *genai.File) error {
	for file.State == genai.FileStateProcessing {
		select {
		case <-time.After(a.pollInterval):
		case <-ctx.Done():
			return ctx.Err()
		}
		updated, err := a.waiter.GetFile(ctx, file.Name)
		if err != nil {
			return fmt.Errorf("analyzer: polling file state: %w", err)
		}
		file = updated
	}
	if file.State == genai.FileStateFailed {
		return fmt.Errorf("analyzer: file %s failed processing", file.Name)
	}
	return nil
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("analyzer: empty response from model")
	}
	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		text += part.Text
	}
	if text == "" {
		return "", fmt.Errorf("analyzer: model response had no text parts")
	}
	return text, nil
}
