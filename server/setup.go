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

// Package main contains the setup and initialization logic for the
// application's state: a centralized container for the configuration,
// the GCP service clients, the Analyzer/Worker/Renderer pipeline, and
// the HTTP handlers, all wired together once at process startup.
package main

import (
	"context"
	"log"
	"os"

	"google.golang.org/genai"

	"github.com/hooptuber/highlight-pipeline/internal/api"
	"github.com/hooptuber/highlight-pipeline/internal/config"
	"github.com/hooptuber/highlight-pipeline/internal/core/analyzer"
	"github.com/hooptuber/highlight-pipeline/internal/core/clipplanner"
	"github.com/hooptuber/highlight-pipeline/internal/core/mediatoolkit"
	"github.com/hooptuber/highlight-pipeline/internal/core/renderer"
	"github.com/hooptuber/highlight-pipeline/internal/core/worker"
	"github.com/hooptuber/highlight-pipeline/internal/platform"
)

// StateManager holds every shared dependency the server needs, built once
// at startup so no component reaches for a package-level global client.
type StateManager struct {
	config   *config.Config
	services *platform.ServiceClients
	worker   *worker.Worker
	renderer *renderer.Renderer
	handlers *api.Handlers
}

var state = &StateManager{}

// SetupOS points the config loader at the checked-in TOML files and
// selects the runtime overlay from the PIPELINE_RUNTIME environment
// variable (prod deployments set it; local/test runs leave it unset and
// get the base .env.toml values only).
func SetupOS() error {
	if err := os.Setenv(config.EnvConfigFilePrefix, "."); err != nil {
		return err
	}
	if runtime := os.Getenv("PIPELINE_RUNTIME"); runtime != "" {
		return os.Setenv(config.EnvConfigRuntime, runtime)
	}
	return nil
}

// GetConfig lazily loads and caches the application configuration.
func GetConfig() *config.Config {
	if state.config == nil {
		if err := SetupOS(); err != nil {
			log.Fatalf("failed to setup environment for config loading: %v\n", err)
		}
		cfg, err := config.Load()
		if err != nil {
			log.Fatalf("failed to load config: %v\n", err)
		}
		state.config = cfg
	}
	return state.config
}

// InitState builds every GCP client, the Analyzer/Worker/Renderer
// pipeline, and the HTTP handlers, and stores them on the package-level
// state for main and the Pub/Sub listener to use.
func InitState(ctx context.Context) {
	cfg := GetConfig()

	services, err := platform.NewServiceClients(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize service clients: %v\n", err)
	}
	state.services = services

	genCfg := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr(cfg.Analyzer.Temperature),
		TopP:              genai.Ptr(cfg.Analyzer.TopP),
		TopK:              genai.Ptr(cfg.Analyzer.TopK),
		MaxOutputTokens:   cfg.Analyzer.MaxOutputTokens,
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: cfg.Analyzer.SystemInstructions}}},
		ResponseMIMEType:  "application/json",
	}
	fileWaiter := platform.NewFileServiceAdapter(services.GenAI)
	shotAnalyzer := analyzer.New(services.Analyzer, fileWaiter, cfg.Analyzer.PollIntervalSeconds, genCfg)

	toolkit := mediatoolkit.New(cfg.Worker.FfmpegPath, cfg.Worker.FfprobePath)
	planParams := clipplanner.Params{
		ClipDurationSeconds: float64(cfg.ClipPlanner.ClipDurationSeconds),
		PreRollSeconds:      float64(cfg.ClipPlanner.PreRollSeconds),
		MergeGapSeconds:     float64(cfg.ClipPlanner.MergeGapSeconds),
	}

	state.worker = worker.New(services.GCS, services.JobStore, shotAnalyzer, toolkit, cfg.Storage.OutputBucket, planParams, cfg.Worker.DeleteSourceAfterSuccess)
	state.renderer = renderer.New(services.GCS, services.JobStore, toolkit, cfg.Storage.OutputBucket)

	state.handlers = api.New(services.GCS, services.JobStore, services.Publisher, cfg.Storage.RawBucket, cfg.Storage.OutputBucket, cfg.API.UploadRateLimitPerMinute)

	SetupListeners(ctx, state.services, state.worker, state.renderer)
}
