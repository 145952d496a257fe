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

package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hooptuber/highlight-pipeline/internal/core/model"
	"github.com/hooptuber/highlight-pipeline/internal/platform"
)

const (
	downloadUrlTTL = 30 * time.Minute
	streamUrlTTL   = 60 * time.Minute
)

// getJob implements GET /jobs/{id}: a cheap, high-cadence-safe read of
// the Job document as-is.
func (h *Handlers) getJob(c *gin.Context) {
	job, err := h.jobs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		errJSON(c, http.StatusNotFound, fmt.Sprintf("job %s not found", c.Param("id")))
		return
	}
	c.JSON(http.StatusOK, job)
}

// downloadJob implements GET /jobs/{id}/download: 404 unknown, 409 not
// yet done, else a signed URL for both the rendered highlight and the
// source, with shot events inlined when an analysis artifact exists.
func (h *Handlers) downloadJob(c *gin.Context) {
	jobID := c.Param("id")
	job, err := h.jobs.Get(c.Request.Context(), jobID)
	if err != nil {
		errJSON(c, http.StatusNotFound, fmt.Sprintf("job %s not found", jobID))
		return
	}
	if job.Status != model.JobStatusDone || job.OutputGcsUri == "" {
		errJSON(c, http.StatusConflict, fmt.Sprintf("job %s is not ready for download (status=%s)", jobID, job.Status))
		return
	}

	outBucket, outKey, err := platform.ParseGcsUri(job.OutputGcsUri)
	if err != nil {
		errJSON(c, http.StatusInternalServerError, fmt.Sprintf("invalid output uri: %v", err))
		return
	}
	signedURL, err := h.gcs.SignRead(c.Request.Context(), outBucket, outKey, downloadUrlTTL)
	if err != nil {
		errJSON(c, http.StatusInternalServerError, fmt.Sprintf("signing download url: %v", err))
		return
	}

	var sourceURL string
	if srcBucket, srcKey, err := platform.ParseGcsUri(job.VideoGcsUri); err == nil {
		sourceURL, _ = h.gcs.SignRead(c.Request.Context(), srcBucket, srcKey, downloadUrlTTL)
	}

	resp := gin.H{
		"ok":               true,
		"url":              signedURL,
		"expiresInMinutes": int(downloadUrlTTL.Minutes()),
		"sourceVideoUrl":   sourceURL,
	}
	if job.AnalysisGcsUri != "" {
		resp["shot_events"] = job.ShotEvents
	}
	c.JSON(http.StatusOK, resp)
}

// highlightData implements GET /jobs/{id}/highlight-data: the same
// readiness gate as downloadJob, returning the raw events plus their
// derived (startSec, endSec) ranges instead of a download URL for the
// rendered artifact.
func (h *Handlers) highlightData(c *gin.Context) {
	jobID := c.Param("id")
	job, err := h.jobs.Get(c.Request.Context(), jobID)
	if err != nil {
		errJSON(c, http.StatusNotFound, fmt.Sprintf("job %s not found", jobID))
		return
	}
	if job.Status != model.JobStatusDone || job.OutputGcsUri == "" {
		errJSON(c, http.StatusConflict, fmt.Sprintf("job %s is not ready (status=%s)", jobID, job.Status))
		return
	}

	var sourceURL string
	if srcBucket, srcKey, err := platform.ParseGcsUri(job.VideoGcsUri); err == nil {
		sourceURL, err = h.gcs.SignRead(c.Request.Context(), srcBucket, srcKey, downloadUrlTTL)
		if err != nil {
			errJSON(c, http.StatusInternalServerError, fmt.Sprintf("signing source url: %v", err))
			return
		}
	}

	ranges := make([]model.ClipRange, 0, len(job.ShotEvents))
	for _, e := range job.ShotEvents {
		if e.Deleted || !e.Show {
			continue
		}
		ranges = append(ranges, model.ClipRange{StartSeconds: e.TimestampSeconds, EndSeconds: e.TimestampEndSeconds})
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":             true,
		"sourceVideoUrl": sourceURL,
		"rawEvents":      job.ShotEvents,
		"ranges":         ranges,
	})
}

// streamRedirect implements GET /stream/{id}: a 307 to a fresh signed
// URL of the source video, so the client seeks/ranges directly against
// the object store rather than proxying through the API.
func (h *Handlers) streamRedirect(c *gin.Context) {
	jobID := c.Param("id")
	job, err := h.jobs.Get(c.Request.Context(), jobID)
	if err != nil {
		errJSON(c, http.StatusNotFound, fmt.Sprintf("job %s not found", jobID))
		return
	}

	bucket, key, err := platform.ParseGcsUri(job.VideoGcsUri)
	if err != nil {
		errJSON(c, http.StatusInternalServerError, fmt.Sprintf("invalid source uri: %v", err))
		return
	}
	signedURL, err := h.gcs.SignRead(c.Request.Context(), bucket, key, streamUrlTTL)
	if err != nil {
		errJSON(c, http.StatusInternalServerError, fmt.Sprintf("signing stream url: %v", err))
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, signedURL)
}
