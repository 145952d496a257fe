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

// Package renderer implements mode=render: given a Job with a
// user-supplied, already-edited list of clip ranges, it stitches exactly
// those ranges, in the order given, into a final video. Unlike the
// Worker's analysis pipeline, it never calls the Analyzer and never
// re-merges overlapping ranges — the user's edit is authoritative.
package renderer

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"

	"github.com/hooptuber/highlight-pipeline/internal/core/mediatoolkit"
	"github.com/hooptuber/highlight-pipeline/internal/core/model"
	"github.com/hooptuber/highlight-pipeline/internal/platform"
)

// Renderer renders a Job's user-supplied final clip list into a single
// output video and commits the result.
type Renderer struct {
	gcs          platform.GcsPort
	jobs         *platform.JobStore
	toolkit      *mediatoolkit.Toolkit
	outputBucket string
}

// New builds a Renderer.
func New(gcs platform.GcsPort, jobs *platform.JobStore, toolkit *mediatoolkit.Toolkit, outputBucket string) *Renderer {
	return &Renderer{gcs: gcs, jobs: jobs, toolkit: toolkit, outputBucket: outputBucket}
}

// RenderEnvelope is the Subscriber handler for mode=render Jobs.
func (r *Renderer) RenderEnvelope(ctx context.Context, env model.Envelope, finalClips []model.ClipRange) error {
	if env.Mode != model.ModeRender {
		return fmt.Errorf("renderer: envelope for job %s has mode %q, not %q", env.JobID, env.Mode, model.ModeRender)
	}

	job, err := r.jobs.Get(ctx, env.JobID)
	if err != nil {
		return fmt.Errorf("renderer: loading job %s: %w", env.JobID, err)
	}
	if job.Terminal() {
		return nil
	}
	if len(finalClips) == 0 {
		return r.commitError(ctx, env.JobID, fmt.Errorf("renderer: job %s has no final clips to render", env.JobID))
	}

	if err := r.jobs.Merge(ctx, env.JobID, map[string]interface{}{
		"status":    model.JobStatusRendering,
		"startedAt": firestore.ServerTimestamp,
	}); err != nil {
		return fmt.Errorf("renderer: marking job %s rendering: %w", env.JobID, err)
	}

	outputURI, err := r.render(ctx, env, finalClips)
	if err != nil {
		return r.commitError(ctx, env.JobID, err)
	}

	updates := map[string]interface{}{
		"status":           model.JobStatusReady,
		"finalVideoGcsUri": outputURI,
		"completedAt":      firestore.ServerTimestamp,
	}
	if err := r.jobs.Merge(ctx, env.JobID, updates); err != nil {
		return fmt.Errorf("renderer: committing ready state for job %s: %w", env.JobID, err)
	}
	return nil
}

func (r *Renderer) render(ctx context.Context, env model.Envelope, finalClips []model.ClipRange) (string, error) {
	bucket, key, err := platform.ParseGcsUri(env.VideoGcsUri)
	if err != nil {
		return "", err
	}

	sourceFile, err := os.CreateTemp("", "hooptuber-render-source-*.mp4")
	if err != nil {
		return "", fmt.Errorf("renderer: creating source temp file: %w", err)
	}
	sourcePath := sourceFile.Name()
	sourceFile.Close()
	defer os.Remove(sourcePath)

	if _, err := r.gcs.DownloadToFile(ctx, bucket, key, sourcePath); err != nil {
		return "", err
	}

	clipPaths := make([]string, 0, len(finalClips))
	defer func() {
		for _, p := range clipPaths {
			os.Remove(p)
		}
	}()

	for _, clip := range finalClips {
		clipFile, err := os.CreateTemp("", "hooptuber-render-clip-*.mp4")
		if err != nil {
			return "", fmt.Errorf("renderer: creating clip temp file: %w", err)
		}
		clipPath := clipFile.Name()
		clipFile.Close()
		clipPaths = append(clipPaths, clipPath)

		if err := r.toolkit.ExtractRange(ctx, sourcePath, clipPath, clip.StartSeconds, clip.Duration()); err != nil {
			return "", err
		}
	}

	outputFile, err := os.CreateTemp("", "hooptuber-render-output-*.mp4")
	if err != nil {
		return "", fmt.Errorf("renderer: creating output temp file: %w", err)
	}
	outputPath := outputFile.Name()
	outputFile.Close()
	defer os.Remove(outputPath)

	if len(clipPaths) == 1 {
		// ffmpeg's concat demuxer requires at least 2 entries to behave
		// predictably across builds; a single clip is just copied through.
		if err := r.toolkit.ExtractRange(ctx, sourcePath, outputPath, finalClips[0].StartSeconds, finalClips[0].Duration()); err != nil {
			return "", err
		}
	} else if err := r.toolkit.Concatenate(ctx, clipPaths, outputPath); err != nil {
		return "", err
	}

	outFile, err := os.Open(outputPath)
	if err != nil {
		return "", fmt.Errorf("renderer: opening rendered output: %w", err)
	}
	defer outFile.Close()

	outputKey := fmt.Sprintf("%s/final_render.mp4", env.JobID)
	if err := r.gcs.UploadStream(ctx, r.outputBucket, outputKey, "video/mp4", outFile); err != nil {
		return "", err
	}

	return platform.FormatGcsUri(r.outputBucket, outputKey), nil
}

func (r *Renderer) commitError(ctx context.Context, jobID string, cause error) error {
	updates := map[string]interface{}{
		"status":       model.JobStatusError,
		"errorMessage": cause.Error(),
		"completedAt":  firestore.ServerTimestamp,
	}
	if err := r.jobs.Merge(ctx, jobID, updates); err != nil {
		return fmt.Errorf("renderer: committing error state for job %s: %w", jobID, err)
	}
	return cause
}
