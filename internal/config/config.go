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

// Package config loads the application's hierarchical TOML configuration:
// a base file plus a runtime-specific overlay, selected by environment
// variables so the same binary runs unmodified across dev/test/prod.
package config

// Application holds process-wide identity and GCP project settings.
type Application struct {
	Name                      string `toml:"name"`
	GoogleProjectId           string `toml:"google_project_id"`
	GoogleLocation            string `toml:"google_location"`
	SignerServiceAccountEmail string `toml:"signer_service_account_email"`
	Port                      string `toml:"port"`
}

// Storage names the GCS buckets used for source video and rendered output.
type Storage struct {
	RawBucket    string `toml:"raw_bucket"`
	OutputBucket string `toml:"output_bucket"`
}

// Firestore names the document-store collection backing the Job entity.
type Firestore struct {
	JobCollection string `toml:"job_collection"`
}

// PubSub names the topic the API publishes job envelopes to, and the
// subscription the Worker consumes from.
type PubSub struct {
	Topic            string `toml:"topic"`
	Subscription      string `toml:"subscription"`
	PublishTimeoutSec int    `toml:"publish_timeout_seconds"`
}

// AnalyzerModel configures the multimodal model invocation for shot detection.
type AnalyzerModel struct {
	Model               string  `toml:"model"`
	SystemInstructions  string  `toml:"system_instructions"`
	Temperature         float32 `toml:"temperature"`
	TopP                float32 `toml:"top_p"`
	TopK                float32 `toml:"top_k"`
	MaxOutputTokens     int32   `toml:"max_output_tokens"`
	RequestsPerMinute   int     `toml:"requests_per_minute"`
	PollIntervalSeconds int     `toml:"poll_interval_seconds"`
	MaxAttempts         int     `toml:"max_attempts"`
	BackoffBaseSeconds  int     `toml:"backoff_base_seconds"`
	BackoffFactor       float64 `toml:"backoff_factor"`
}

// ClipPlannerDefaults configures the merge-gap sweep used to turn shot
// timestamps into renderable clip ranges.
type ClipPlannerDefaults struct {
	ClipDurationSeconds int `toml:"clip_duration_seconds"`
	PreRollSeconds      int `toml:"pre_roll_seconds"`
	MergeGapSeconds     int `toml:"merge_gap_seconds"`
}

// Worker configures the Worker tier's concurrency and lifecycle policies.
type Worker struct {
	Slots                    int    `toml:"slots"`
	DeleteSourceAfterSuccess bool   `toml:"delete_source_after_success"`
	FfmpegPath               string `toml:"ffmpeg_path"`
	FfprobePath              string `toml:"ffprobe_path"`
}

// API configures HTTP-tier behavior not covered elsewhere.
type API struct {
	UploadRateLimitPerMinute int `toml:"upload_rate_limit_per_minute"`
}

// Config is the root configuration object, loaded once at startup and
// passed by value to every component that needs it.
type Config struct {
	Application   Application         `toml:"application"`
	Storage       Storage             `toml:"storage"`
	Firestore     Firestore           `toml:"firestore"`
	PubSub        PubSub              `toml:"pubsub"`
	Analyzer      AnalyzerModel       `toml:"analyzer"`
	ClipPlanner   ClipPlannerDefaults `toml:"clip_planner"`
	Worker        Worker              `toml:"worker"`
	API           API                 `toml:"api"`
}

// New returns a Config pre-populated with the defaults spec.md calls out
// explicitly (clip duration 5s, pre-roll 1s, merge gap 0s, 3 analyzer
// attempts with 5s/factor-2 backoff, 5s file-activation poll). Values not
// set here must come from the TOML files; callers should treat a Config
// built only from New() as incomplete until Load has run.
func New() *Config {
	return &Config{
		ClipPlanner: ClipPlannerDefaults{
			ClipDurationSeconds: 5,
			PreRollSeconds:      1,
			MergeGapSeconds:     0,
		},
		Analyzer: AnalyzerModel{
			PollIntervalSeconds: 5,
			MaxAttempts:         3,
			BackoffBaseSeconds:  5,
			BackoffFactor:       2,
		},
		Worker: Worker{
			Slots:       4,
			FfmpegPath:  "ffmpeg",
			FfprobePath: "ffprobe",
		},
		API: API{
			UploadRateLimitPerMinute: 1,
		},
	}
}
