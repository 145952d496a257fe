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

package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/hooptuber/highlight-pipeline/internal/core/analyzer"
	"github.com/hooptuber/highlight-pipeline/internal/core/clipplanner"
	"github.com/hooptuber/highlight-pipeline/internal/core/cor"
	"github.com/hooptuber/highlight-pipeline/internal/core/mediatoolkit"
	"github.com/hooptuber/highlight-pipeline/internal/core/model"
	"github.com/hooptuber/highlight-pipeline/internal/platform"
)

// Worker processes one Job envelope at a time through either the
// analysis-mode pipeline (download, analyze, plan, render, upload,
// commit) or the vertex-mode pipeline, which is the same chain minus
// the render/highlight-upload steps. Render-mode envelopes are routed
// to the separate renderer package by the caller wiring Subscribe's
// handler, not by this type.
type Worker struct {
	gcs                      platform.GcsPort
	jobs                     *platform.JobStore
	analysisChain            cor.Chain
	vertexChain              cor.Chain
	timeout                  time.Duration
	deleteSourceAfterSuccess bool
}

// New assembles the analysis-mode and vertex-mode COR chains from their
// constituent commands. Vertex skips RenderHighlightCommand entirely, so
// UploadArtifactsCommand finds no local highlight file and uploads only
// the analysis.json artifact, per the "events only, no output video" rule.
func New(gcs platform.GcsPort, jobs *platform.JobStore, a *analyzer.Analyzer, toolkit *mediatoolkit.Toolkit, outputBucket string, planParams clipplanner.Params, deleteSourceAfterSuccess bool) *Worker {
	analysisChain := cor.NewBaseChain("worker.analysis_chain")
	analysisChain.AddCommand(NewDownloadSourceCommand(gcs, toolkit))
	analysisChain.AddCommand(NewAnalyzeCommand(a))
	analysisChain.AddCommand(NewPlanCommand(planParams))
	analysisChain.AddCommand(NewRenderHighlightCommand(toolkit))
	analysisChain.AddCommand(NewUploadArtifactsCommand(gcs, outputBucket, toolkit))

	vertexChain := cor.NewBaseChain("worker.vertex_chain")
	vertexChain.AddCommand(NewDownloadSourceCommand(gcs, toolkit))
	vertexChain.AddCommand(NewAnalyzeCommand(a))
	vertexChain.AddCommand(NewPlanCommand(planParams))
	vertexChain.AddCommand(NewUploadArtifactsCommand(gcs, outputBucket, toolkit))

	return &Worker{
		gcs:                      gcs,
		jobs:                     jobs,
		analysisChain:            analysisChain,
		vertexChain:              vertexChain,
		timeout:                  30 * time.Minute,
		deleteSourceAfterSuccess: deleteSourceAfterSuccess,
	}
}

// ProcessEnvelope is the Subscriber handler for analysis- and vertex-mode
// Jobs. It implements the idempotent-replay short circuit, the
// processing/done/error status transitions, and the optional
// source-blob cleanup; the chains themselves only ever run the happy path.
func (w *Worker) ProcessEnvelope(ctx context.Context, env model.Envelope) error {
	var chain cor.Chain
	switch env.Mode {
	case model.ModeAnalysis:
		chain = w.analysisChain
	case model.ModeVertex:
		chain = w.vertexChain
	default:
		return fmt.Errorf("worker: envelope for job %s has mode %q, not %q or %q", env.JobID, env.Mode, model.ModeAnalysis, model.ModeVertex)
	}

	job, err := w.jobs.Get(ctx, env.JobID)
	if err != nil {
		return fmt.Errorf("worker: loading job %s: %w", env.JobID, err)
	}
	if job.Terminal() {
		// Redelivered message for a job already resolved: nothing to do.
		return nil
	}

	if err := w.jobs.Merge(ctx, env.JobID, map[string]interface{}{
		"status":    model.JobStatusProcessing,
		"startedAt": firestore.ServerTimestamp,
	}); err != nil {
		return fmt.Errorf("worker: marking job %s processing: %w", env.JobID, err)
	}

	runCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(runCtx)
	defer chainCtx.Close()

	chainCtx.Add(KeyEnvelope, env)
	chainCtx.Add(cor.CtxIn, env)

	chain.Execute(chainCtx)

	if chainCtx.HasErrors() {
		return w.commitError(ctx, env.JobID, chainCtx.GetErrors())
	}
	return w.commitDone(ctx, env, chainCtx)
}

func (w *Worker) commitError(ctx context.Context, jobID string, errs map[string]error) error {
	var combined error
	for name, err := range errs {
		combined = fmt.Errorf("%s: %w", name, err)
		break
	}
	updates := map[string]interface{}{
		"status":       model.JobStatusError,
		"errorMessage": combined.Error(),
		"completedAt":  firestore.ServerTimestamp,
	}
	if err := w.jobs.Merge(ctx, jobID, updates); err != nil {
		return fmt.Errorf("worker: committing error state for job %s: %w", jobID, err)
	}
	return combined
}

func (w *Worker) commitDone(ctx context.Context, env model.Envelope, chainCtx cor.Context) error {
	events, _ := chainCtx.Get(KeyShotEvents).([]model.ShotEvent)
	analysisURI, _ := chainCtx.Get(KeyAnalysisURI).(string)
	highlightURI, _ := chainCtx.Get(KeyHighlightURI).(string)
	highlightDuration, _ := chainCtx.Get(KeyHighlightDurationSec).(float64)
	durationSec, _ := chainCtx.Get(KeyDurationSec).(float64)

	updates := map[string]interface{}{
		"status":                   model.JobStatusDone,
		"shotEvents":               events,
		"videoDurationSec":         durationSec,
		"analysisGcsUri":           analysisURI,
		"highlightDurationSeconds": highlightDuration,
		"completedAt":              firestore.ServerTimestamp,
	}
	if highlightURI != "" {
		updates["outputGcsUri"] = highlightURI
	}

	if err := w.jobs.Merge(ctx, env.JobID, updates); err != nil {
		return fmt.Errorf("worker: committing done state for job %s: %w", env.JobID, err)
	}

	if w.deleteSourceAfterSuccess {
		sourceBucket, sourceKey, err := platform.ParseGcsUri(env.VideoGcsUri)
		if err != nil {
			slog.Error("worker: source uri unparseable, skipping cleanup", "jobId", env.JobID, "error", err)
			return nil
		}
		if err := w.gcs.Delete(ctx, sourceBucket, sourceKey); err != nil {
			// Cleanup failure doesn't fail an already-successful job.
			slog.Error("worker: deleting source after success", "jobId", env.JobID, "error", err)
		}
	}

	return nil
}
