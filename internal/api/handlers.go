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

// Package api implements the HTTP surface of the pipeline: ingest
// (streaming multipart and two-phase presigned), job polling, signed-URL
// download, highlight listing and mutation, stream redirects, and
// engagement counters. Handlers never talk to GCS/Firestore/Pub/Sub
// directly; everything goes through the platform ports so tests can
// substitute fakes.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hooptuber/highlight-pipeline/internal/platform"
)

// Handlers holds the adapters and configuration every route needs.
type Handlers struct {
	gcs          platform.GcsPort
	jobs         *platform.JobStore
	publisher    *platform.Publisher
	rawBucket    string
	outputBucket string

	uploadLimiter *keyedLimiter
}

// New builds the Handlers set. uploadRateLimitPerMinute configures the
// token bucket applied to POST /upload (spec calls for 1/minute per key).
func New(gcs platform.GcsPort, jobs *platform.JobStore, publisher *platform.Publisher, rawBucket, outputBucket string, uploadRateLimitPerMinute int) *Handlers {
	return &Handlers{
		gcs:           gcs,
		jobs:          jobs,
		publisher:     publisher,
		rawBucket:     rawBucket,
		outputBucket:  outputBucket,
		uploadLimiter: newKeyedLimiter(uploadRateLimitPerMinute),
	}
}

// Register wires every route in the HTTP surface onto r.
func (h *Handlers) Register(r *gin.RouterGroup) {
	r.GET("/", h.index)
	r.GET("/healthz", h.healthz)

	r.POST("/upload", h.rateLimitUpload(), h.upload)
	r.POST("/upload/init", h.uploadInit)
	r.POST("/upload/complete", h.uploadComplete)
	r.POST("/publish_job", h.publishJob)
	r.POST("/publish_render_job", h.publishRenderJob)

	r.GET("/jobs/:id", h.getJob)
	r.GET("/jobs/:id/download", h.downloadJob)
	r.GET("/jobs/:id/highlight-data", h.highlightData)
	r.GET("/stream/:id", h.streamRedirect)

	r.GET("/highlights", h.listHighlights)
	r.PATCH("/highlights/:id", h.patchHighlight)
	r.DELETE("/highlights/:id", h.deleteHighlight)

	r.POST("/video/engagement/view", h.engagementView)
	r.POST("/video/engagement/like", h.engagementLike)
}

func (h *Handlers) index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"detail": "hooptuber highlight pipeline"})
}

func (h *Handlers) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// errJSON writes the error-taxonomy shape spec.md §7 requires from every
// handler: a JSON object with a human-readable "detail" string.
func errJSON(c *gin.Context, status int, detail string) {
	c.JSON(status, gin.H{"detail": detail})
}
