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
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hooptuber/highlight-pipeline/internal/core/analyzer"
	"github.com/hooptuber/highlight-pipeline/internal/core/clipplanner"
	"github.com/hooptuber/highlight-pipeline/internal/core/cor"
	"github.com/hooptuber/highlight-pipeline/internal/core/mediatoolkit"
	"github.com/hooptuber/highlight-pipeline/internal/core/model"
	"github.com/hooptuber/highlight-pipeline/internal/platform"
)

// DownloadSourceCommand downloads the envelope's source object into a
// temp file registered on the chain context for cleanup, and converts it
// to MP4 when ffprobe can't read it directly, matching happy-path step 3.
type DownloadSourceCommand struct {
	cor.BaseCommand
	gcs     platform.GcsPort
	toolkit *mediatoolkit.Toolkit
}

func NewDownloadSourceCommand(gcs platform.GcsPort, toolkit *mediatoolkit.Toolkit) *DownloadSourceCommand {
	return &DownloadSourceCommand{BaseCommand: *cor.NewBaseCommand("worker.download_source"), gcs: gcs, toolkit: toolkit}
}

func (c *DownloadSourceCommand) Execute(ctx cor.Context) {
	env := ctx.Get(KeyEnvelope).(model.Envelope)

	bucket, key, err := platform.ParseGcsUri(env.VideoGcsUri)
	if err != nil {
		c.fail(ctx, err)
		return
	}

	tmpFile, err := os.CreateTemp("", "hooptuber-source-*"+filepath.Ext(key))
	if err != nil {
		c.fail(ctx, fmt.Errorf("creating temp file: %w", err))
		return
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()

	if _, err := c.gcs.DownloadToFile(ctx.GetContext(), bucket, key, tmpPath); err != nil {
		c.fail(ctx, err)
		return
	}
	ctx.AddTempFile(tmpPath)

	duration, err := c.toolkit.ProbeDurationSeconds(ctx.GetContext(), tmpPath)
	if err != nil {
		// Unreadable container: re-encode into a clean MP4 and probe that instead.
		converted, convErr := os.CreateTemp("", "hooptuber-converted-*.mp4")
		if convErr != nil {
			c.fail(ctx, fmt.Errorf("creating converted temp file: %w", convErr))
			return
		}
		convertedPath := converted.Name()
		converted.Close()

		if convErr := c.toolkit.ConvertToMp4(ctx.GetContext(), tmpPath, convertedPath); convErr != nil {
			c.fail(ctx, fmt.Errorf("probing failed (%v) and conversion also failed: %w", err, convErr))
			return
		}
		ctx.AddTempFile(convertedPath)

		duration, err = c.toolkit.ProbeDurationSeconds(ctx.GetContext(), convertedPath)
		if err != nil {
			c.fail(ctx, fmt.Errorf("probing converted file: %w", err))
			return
		}
		tmpPath = convertedPath
	}

	c.GetSuccessCounter().Add(ctx.GetContext(), 1)
	ctx.Add(KeySourcePath, tmpPath)
	ctx.Add(KeyDurationSec, duration)
	ctx.Add(cor.CtxOut, tmpPath)
}

func (c *DownloadSourceCommand) fail(ctx cor.Context, err error) {
	c.GetErrorCounter().Add(ctx.GetContext(), 1)
	ctx.AddError(c.GetName(), err)
}

// AnalyzeCommand runs the Analyzer against the envelope's gs:// source
// directly (the primary, no-upload-needed path), producing shot events.
type AnalyzeCommand struct {
	cor.BaseCommand
	analyzer *analyzer.Analyzer
}

func NewAnalyzeCommand(a *analyzer.Analyzer) *AnalyzeCommand {
	return &AnalyzeCommand{BaseCommand: *cor.NewBaseCommand("worker.analyze"), analyzer: a}
}

func (c *AnalyzeCommand) Execute(ctx cor.Context) {
	env := ctx.Get(KeyEnvelope).(model.Envelope)
	duration, _ := ctx.Get(KeyDurationSec).(float64)

	events, err := c.analyzer.AnalyzeGcsUri(ctx.GetContext(), env.VideoGcsUri, "video/mp4", duration)
	if err != nil {
		c.GetErrorCounter().Add(ctx.GetContext(), 1)
		ctx.AddError(c.GetName(), err)
		return
	}

	c.GetSuccessCounter().Add(ctx.GetContext(), 1)
	ctx.Add(KeyShotEvents, events)
	ctx.Add(cor.CtxOut, events)
}

// PlanCommand turns shot events into merged clip ranges.
type PlanCommand struct {
	cor.BaseCommand
	params clipplanner.Params
}

func NewPlanCommand(params clipplanner.Params) *PlanCommand {
	return &PlanCommand{BaseCommand: *cor.NewBaseCommand("worker.plan"), params: params}
}

func (c *PlanCommand) Execute(ctx cor.Context) {
	events, _ := ctx.Get(KeyShotEvents).([]model.ShotEvent)
	duration, _ := ctx.Get(KeyDurationSec).(float64)

	ranges := clipplanner.Plan(events, duration, c.params)

	c.GetSuccessCounter().Add(ctx.GetContext(), 1)
	ctx.Add(KeyClipRanges, ranges)
	ctx.Add(cor.CtxOut, ranges)
}

// RenderHighlightCommand extracts each planned range and concatenates
// them into a single highlight file. It is a no-op (not an error) when
// there are no ranges to render, per the empty-events edge case.
type RenderHighlightCommand struct {
	cor.BaseCommand
	toolkit *mediatoolkit.Toolkit
}

func NewRenderHighlightCommand(toolkit *mediatoolkit.Toolkit) *RenderHighlightCommand {
	return &RenderHighlightCommand{BaseCommand: *cor.NewBaseCommand("worker.render_highlight"), toolkit: toolkit}
}

func (c *RenderHighlightCommand) Execute(ctx cor.Context) {
	ranges, _ := ctx.Get(KeyClipRanges).([]model.ClipRange)
	if len(ranges) == 0 {
		c.GetSuccessCounter().Add(ctx.GetContext(), 1)
		// No makes to render: still produce a CtxOut so the chain's
		// piping doesn't starve the next command's default input key.
		ctx.Add(cor.CtxOut, KeySourcePath)
		return
	}

	sourcePath := ctx.Get(KeySourcePath).(string)

	clipPaths := make([]string, 0, len(ranges))
	for _, r := range ranges {
		clip, err := os.CreateTemp("", "hooptuber-clip-*.mp4")
		if err != nil {
			c.fail(ctx, fmt.Errorf("creating clip temp file: %w", err))
			return
		}
		clipPath := clip.Name()
		clip.Close()
		ctx.AddTempFile(clipPath)

		if err := c.toolkit.ExtractRange(ctx.GetContext(), sourcePath, clipPath, r.StartSeconds, r.Duration()); err != nil {
			c.fail(ctx, err)
			return
		}
		clipPaths = append(clipPaths, clipPath)
	}

	highlight, err := os.CreateTemp("", "hooptuber-highlight-*.mp4")
	if err != nil {
		c.fail(ctx, fmt.Errorf("creating highlight temp file: %w", err))
		return
	}
	highlightPath := highlight.Name()
	highlight.Close()
	ctx.AddTempFile(highlightPath)

	if err := c.toolkit.Concatenate(ctx.GetContext(), clipPaths, highlightPath); err != nil {
		c.fail(ctx, err)
		return
	}

	c.GetSuccessCounter().Add(ctx.GetContext(), 1)
	ctx.Add(KeyHighlightLocalPath, highlightPath)
	ctx.Add(cor.CtxOut, highlightPath)
}

func (c *RenderHighlightCommand) fail(ctx cor.Context, err error) {
	c.GetErrorCounter().Add(ctx.GetContext(), 1)
	ctx.AddError(c.GetName(), err)
}

// UploadArtifactsCommand uploads the analysis JSON and, if one was
// rendered, the highlight video, to the configured output bucket.
type UploadArtifactsCommand struct {
	cor.BaseCommand
	gcs          platform.GcsPort
	outputBucket string
	toolkit      *mediatoolkit.Toolkit
}

func NewUploadArtifactsCommand(gcs platform.GcsPort, outputBucket string, toolkit *mediatoolkit.Toolkit) *UploadArtifactsCommand {
	return &UploadArtifactsCommand{
		BaseCommand:  *cor.NewBaseCommand("worker.upload_artifacts"),
		gcs:          gcs,
		outputBucket: outputBucket,
		toolkit:      toolkit,
	}
}

func (c *UploadArtifactsCommand) Execute(ctx cor.Context) {
	env := ctx.Get(KeyEnvelope).(model.Envelope)
	events, _ := ctx.Get(KeyShotEvents).([]model.ShotEvent)

	analysisBytes, err := json.Marshal(events)
	if err != nil {
		c.fail(ctx, fmt.Errorf("marshaling analysis artifact: %w", err))
		return
	}
	analysisKey := fmt.Sprintf("%s/analysis.json", env.JobID)
	if err := c.gcs.UploadStream(ctx.GetContext(), c.outputBucket, analysisKey, "application/json", bytes.NewReader(analysisBytes)); err != nil {
		c.fail(ctx, err)
		return
	}
	ctx.Add(KeyAnalysisURI, platform.FormatGcsUri(c.outputBucket, analysisKey))

	highlightLocal, _ := ctx.Get(KeyHighlightLocalPath).(string)
	if highlightLocal == "" {
		// ClipPlanner produced no ranges: skip highlight upload, per the
		// empty-events edge case in the happy-path contract.
		c.GetSuccessCounter().Add(ctx.GetContext(), 1)
		return
	}

	highlightFile, err := os.Open(highlightLocal)
	if err != nil {
		c.fail(ctx, fmt.Errorf("opening rendered highlight: %w", err))
		return
	}
	defer highlightFile.Close()

	highlightKey := fmt.Sprintf("%s/highlight.mp4", env.JobID)
	if err := c.gcs.UploadStream(ctx.GetContext(), c.outputBucket, highlightKey, "video/mp4", highlightFile); err != nil {
		c.fail(ctx, err)
		return
	}

	duration, err := c.toolkit.ProbeDurationSeconds(ctx.GetContext(), highlightLocal)
	if err != nil {
		c.fail(ctx, fmt.Errorf("probing rendered highlight: %w", err))
		return
	}

	c.GetSuccessCounter().Add(ctx.GetContext(), 1)
	ctx.Add(KeyHighlightURI, platform.FormatGcsUri(c.outputBucket, highlightKey))
	ctx.Add(KeyHighlightDurationSec, duration)
}

func (c *UploadArtifactsCommand) fail(ctx cor.Context, err error) {
	c.GetErrorCounter().Add(ctx.GetContext(), 1)
	ctx.AddError(c.GetName(), err)
}
