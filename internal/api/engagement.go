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

	"cloud.google.com/go/firestore"
	"github.com/gin-gonic/gin"
)

type engagementViewRequest struct {
	HighlightID string `json:"highlightId"`
}

// engagementView implements POST /video/engagement/view: an atomic
// viewsCount increment plus a lastViewedAt stamp, with no read-modify-write
// race between concurrent viewers.
func (h *Handlers) engagementView(c *gin.Context) {
	var req engagementViewRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.HighlightID == "" {
		errJSON(c, http.StatusBadRequest, "highlightId is required")
		return
	}

	if _, err := h.jobs.Get(c.Request.Context(), req.HighlightID); err != nil {
		errJSON(c, http.StatusNotFound, fmt.Sprintf("highlight %s not found", req.HighlightID))
		return
	}

	if err := h.jobs.IncrementCounter(c.Request.Context(), req.HighlightID, "viewsCount", 1); err != nil {
		errJSON(c, http.StatusInternalServerError, fmt.Sprintf("incrementing views: %v", err))
		return
	}
	_ = h.jobs.Merge(c.Request.Context(), req.HighlightID, map[string]interface{}{
		"lastViewedAt": firestore.ServerTimestamp,
	})

	job, err := h.jobs.Get(c.Request.Context(), req.HighlightID)
	if err != nil {
		errJSON(c, http.StatusInternalServerError, fmt.Sprintf("reloading highlight %s: %v", req.HighlightID, err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "viewsCount": job.ViewsCount})
}

type engagementLikeRequest struct {
	HighlightID string `json:"highlightId"`
	Delta       int    `json:"delta"`
}

// engagementLike implements POST /video/engagement/like: delta must be
// -1 (unlike), 0 (no-op status check), or +1 (like). The viewer's email
// is tracked via ArrayUnion/ArrayRemove on likedByEmails so concurrent
// likes from different users never clobber each other, and so the
// response can report whether the current viewer is already a liker.
func (h *Handlers) engagementLike(c *gin.Context) {
	var req engagementLikeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.HighlightID == "" {
		errJSON(c, http.StatusBadRequest, "highlightId is required")
		return
	}
	if req.Delta != -1 && req.Delta != 0 && req.Delta != 1 {
		errJSON(c, http.StatusBadRequest, "delta must be -1, 0, or 1")
		return
	}

	viewerEmail := c.GetHeader("x-user-email")

	switch req.Delta {
	case 1:
		if err := h.jobs.IncrementCounter(c.Request.Context(), req.HighlightID, "likesCount", 1); err != nil {
			errJSON(c, http.StatusInternalServerError, fmt.Sprintf("incrementing likes: %v", err))
			return
		}
		if viewerEmail != "" {
			_ = h.jobs.AddToEmailSet(c.Request.Context(), req.HighlightID, "likedByEmails", viewerEmail)
		}
		_ = h.jobs.Merge(c.Request.Context(), req.HighlightID, map[string]interface{}{
			"lastLikedAt": firestore.ServerTimestamp,
		})
	case -1:
		if err := h.jobs.IncrementCounter(c.Request.Context(), req.HighlightID, "likesCount", -1); err != nil {
			errJSON(c, http.StatusInternalServerError, fmt.Sprintf("decrementing likes: %v", err))
			return
		}
		if viewerEmail != "" {
			_ = h.jobs.RemoveFromEmailSet(c.Request.Context(), req.HighlightID, "likedByEmails", viewerEmail)
		}
	}

	job, err := h.jobs.Get(c.Request.Context(), req.HighlightID)
	if err != nil {
		errJSON(c, http.StatusNotFound, fmt.Sprintf("highlight %s not found", req.HighlightID))
		return
	}

	likedByCurrentUser := false
	for _, email := range job.LikedByEmails {
		if email == viewerEmail && viewerEmail != "" {
			likedByCurrentUser = true
			break
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":                 true,
		"likesCount":         job.LikesCount,
		"likedByCurrentUser": likedByCurrentUser,
	})
}
