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

// Package main also holds the Pub/Sub listener that dispatches each
// incoming Job envelope to the Worker's analysis pipeline or the
// Renderer's render pipeline, depending on the envelope's mode.
package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hooptuber/highlight-pipeline/internal/core/model"
	"github.com/hooptuber/highlight-pipeline/internal/core/renderer"
	"github.com/hooptuber/highlight-pipeline/internal/core/worker"
	"github.com/hooptuber/highlight-pipeline/internal/platform"
)

// SetupListeners starts the streaming-pull receive loop in a background
// goroutine. It blocks on services.Subscriber.Subscribe internally, so the
// caller gets control back immediately; a failed Subscribe is logged
// rather than crashing the process, since the HTTP server should keep
// serving reads (job status, highlights) even if the bus connection drops.
func SetupListeners(ctx context.Context, services *platform.ServiceClients, w *worker.Worker, r *renderer.Renderer) {
	go func() {
		err := services.Subscriber.Subscribe(ctx, func(handlerCtx context.Context, env model.Envelope) error {
			return dispatch(handlerCtx, w, r, env)
		})
		if err != nil && ctx.Err() == nil {
			slog.Error("pubsub subscribe loop exited", "error", err)
		}
	}()
}

// dispatch routes an envelope to the analysis or render pipeline by mode.
func dispatch(ctx context.Context, w *worker.Worker, r *renderer.Renderer, env model.Envelope) error {
	switch env.Mode {
	case model.ModeAnalysis, model.ModeVertex:
		return w.ProcessEnvelope(ctx, env)
	case model.ModeRender:
		return r.RenderEnvelope(ctx, env, env.FinalClips)
	default:
		return fmt.Errorf("server: envelope for job %s has unknown mode %q", env.JobID, env.Mode)
	}
}
