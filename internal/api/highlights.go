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
	"log/slog"
	"net/http"
	"strconv"

	"cloud.google.com/go/firestore"
	"github.com/gin-gonic/gin"

	"github.com/hooptuber/highlight-pipeline/internal/core/model"
	"github.com/hooptuber/highlight-pipeline/internal/platform"
)

const (
	defaultHighlightsPageSize = 20
	maxHighlightsPageSize     = 100
)

// listHighlights implements GET /highlights: filtered by ownerEmail
// (preferred) or userId, done jobs only, newest-finished first, opaque
// pageToken cursor, with per-item signed URLs when signed=true.
func (h *Handlers) listHighlights(c *gin.Context) {
	ownerEmail := c.Query("ownerEmail")
	userID := c.Query("userId")
	if ownerEmail == "" && userID == "" {
		errJSON(c, http.StatusBadRequest, "ownerEmail or userId is required")
		return
	}

	field, value := "ownerEmail", ownerEmail
	if ownerEmail == "" {
		field, value = "userId", userID
	}

	pageSize := defaultHighlightsPageSize
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			errJSON(c, http.StatusBadRequest, "limit must be an integer")
			return
		}
		pageSize = n
	}
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxHighlightsPageSize {
		pageSize = maxHighlightsPageSize
	}

	var cursor *firestore.DocumentSnapshot
	if token := c.Query("pageToken"); token != "" {
		snap, err := h.jobs.DocByID(c.Request.Context(), token)
		if err != nil {
			errJSON(c, http.StatusBadRequest, fmt.Sprintf("invalid pageToken: %v", err))
			return
		}
		cursor = snap
	}

	jobs, last, err := h.jobs.ListByOwnerPage(c.Request.Context(), field, value, pageSize, cursor)
	if err != nil {
		errJSON(c, http.StatusInternalServerError, fmt.Sprintf("listing highlights: %v", err))
		return
	}

	signed := c.Query("signed") == "true"
	items := make([]gin.H, 0, len(jobs))
	for _, job := range jobs {
		item := gin.H{
			"jobId":                    job.JobID,
			"title":                    job.Title,
			"status":                   job.Status,
			"visibility":               job.Visibility,
			"outputGcsUri":             job.OutputGcsUri,
			"videoDurationSec":         job.VideoDurationSec,
			"highlightDurationSeconds": job.HighlightDurationSeconds,
			"likesCount":               job.LikesCount,
			"viewsCount":               job.ViewsCount,
		}
		if signed && job.OutputGcsUri != "" {
			if bucket, key, err := platform.ParseGcsUri(job.OutputGcsUri); err == nil {
				if url, err := h.gcs.SignRead(c.Request.Context(), bucket, key, downloadUrlTTL); err == nil {
					item["signedUrl"] = url
				}
			}
		}
		items = append(items, item)
	}

	var nextPageToken string
	if last != nil && len(jobs) == pageSize {
		nextPageToken = last.Ref.ID
	}

	c.JSON(http.StatusOK, gin.H{"items": items, "nextPageToken": nextPageToken})
}

type patchHighlightRequest struct {
	Title                *string           `json:"title"`
	Visibility           *model.Visibility `json:"visibility"`
	HighlightVideoLength *float64          `json:"highlightVideoLength"`
}

// patchHighlight implements PATCH /highlights/{id}: a partial update of
// the title, visibility, and cached duration fields a client is allowed
// to edit after the fact.
func (h *Handlers) patchHighlight(c *gin.Context) {
	jobID := c.Param("id")
	if _, err := h.jobs.Get(c.Request.Context(), jobID); err != nil {
		errJSON(c, http.StatusNotFound, fmt.Sprintf("job %s not found", jobID))
		return
	}

	var req patchHighlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errJSON(c, http.StatusBadRequest, fmt.Sprintf("invalid body: %v", err))
		return
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Visibility != nil {
		updates["visibility"] = *req.Visibility
	}
	if req.HighlightVideoLength != nil {
		updates["highlightDurationSeconds"] = *req.HighlightVideoLength
	}
	if len(updates) == 0 {
		c.JSON(http.StatusOK, gin.H{"ok": true, "updated": false})
		return
	}

	if err := h.jobs.Merge(c.Request.Context(), jobID, updates); err != nil {
		errJSON(c, http.StatusInternalServerError, fmt.Sprintf("updating job %s: %v", jobID, err))
		return
	}

	item, err := h.jobs.Get(c.Request.Context(), jobID)
	if err != nil {
		errJSON(c, http.StatusInternalServerError, fmt.Sprintf("reloading job %s: %v", jobID, err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "updated": true, "item": item})
}

// deleteHighlight implements DELETE /highlights/{id}: a soft delete —
// status flips to deleted so listings exclude it, and the source blob is
// removed from object storage on a best-effort basis. The document and
// its rendered/analysis artifacts are kept so a deleted highlight can
// still be inspected or restored by an operator.
func (h *Handlers) deleteHighlight(c *gin.Context) {
	jobID := c.Param("id")
	job, err := h.jobs.Get(c.Request.Context(), jobID)
	if err != nil {
		errJSON(c, http.StatusNotFound, fmt.Sprintf("job %s not found", jobID))
		return
	}

	if err := h.jobs.Merge(c.Request.Context(), jobID, map[string]interface{}{
		"status":    model.JobStatusDeleted,
		"deletedAt": firestore.ServerTimestamp,
	}); err != nil {
		errJSON(c, http.StatusInternalServerError, fmt.Sprintf("deleting job %s: %v", jobID, err))
		return
	}

	if bucket, key, err := platform.ParseGcsUri(job.VideoGcsUri); err == nil {
		if err := h.gcs.Delete(c.Request.Context(), bucket, key); err != nil {
			slog.Error("deleteHighlight: source blob cleanup failed", "jobId", jobID, "error", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "deleted": true})
}
