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
	"io"
	"net/http"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hooptuber/highlight-pipeline/internal/core/model"
	"github.com/hooptuber/highlight-pipeline/internal/platform"
)

// signedUploadTTL is how long a two-phase upload URL stays valid. The
// upload_pending Job itself does not expire; /upload/complete does not
// check its age.
const signedUploadTTL = 15 * time.Minute

// upload implements POST /upload: it streams the multipart "video" part
// directly into the raw bucket, never buffering the body to disk or to
// an in-memory byte slice, then creates and publishes the Job. This
// diverges deliberately from the teacher's /uploads handler, which saves
// to a local temp file with c.SaveUploadedFile before re-reading and
// re-uploading it.
func (h *Handlers) upload(c *gin.Context) {
	mr, err := c.Request.MultipartReader()
	if err != nil {
		errJSON(c, http.StatusBadRequest, "expected multipart/form-data body")
		return
	}

	var (
		userID       string
		ownerEmail   = c.GetHeader("x-owner-email")
		uploaded     bool
		jobID        = uuid.NewString()
		videoGcsUri  string
		originalName string
	)

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			errJSON(c, http.StatusBadRequest, fmt.Sprintf("reading multipart body: %v", err))
			return
		}

		switch part.FormName() {
		case "userId":
			userID = readSmallPart(part)
		case "video":
			if part.FileName() == "" {
				errJSON(c, http.StatusBadRequest, "video part must be a file")
				return
			}
			contentType := part.Header.Get("Content-Type")
			if contentType == "" {
				contentType = "application/octet-stream"
			}
			key := fmt.Sprintf("uploads/%s/%s", jobID, part.FileName())
			if err := h.gcs.UploadStream(c.Request.Context(), h.rawBucket, key, contentType, part); err != nil {
				errJSON(c, http.StatusInternalServerError, fmt.Sprintf("uploading video: %v", err))
				return
			}
			videoGcsUri = platform.FormatGcsUri(h.rawBucket, key)
			originalName = part.FileName()
			uploaded = true
		}
	}

	if !uploaded {
		errJSON(c, http.StatusBadRequest, "missing required \"video\" file part")
		return
	}

	job := &model.Job{
		JobID:            jobID,
		UserID:           userID,
		OwnerEmail:       ownerEmail,
		Status:           model.JobStatusQueued,
		Mode:             model.ModeAnalysis,
		Visibility:       model.VisibilityPrivate,
		OriginalFileName: originalName,
		VideoGcsUri:      videoGcsUri,
	}
	if err := h.jobs.Create(c.Request.Context(), job); err != nil {
		errJSON(c, http.StatusInternalServerError, fmt.Sprintf("creating job: %v", err))
		return
	}
	_ = h.jobs.Merge(c.Request.Context(), jobID, map[string]interface{}{
		"queuedAt": firestore.ServerTimestamp,
	})

	env := model.Envelope{
		JobID:       jobID,
		VideoGcsUri: videoGcsUri,
		OutBucket:   h.outputBucket,
		UserID:      userID,
		OwnerEmail:  ownerEmail,
		Visibility:  model.VisibilityPrivate,
		Mode:        model.ModeAnalysis,
	}
	if err := h.publisher.Publish(c.Request.Context(), env); err != nil {
		_ = h.jobs.Merge(c.Request.Context(), jobID, map[string]interface{}{
			"status":       model.JobStatusPublishError,
			"errorMessage": err.Error(),
		})
		errJSON(c, http.StatusBadGateway, fmt.Sprintf("publishing job: %v", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":          true,
		"jobId":       jobID,
		"status":      model.JobStatusQueued,
		"videoGcsUri": videoGcsUri,
	})
}

// readSmallPart drains a non-file multipart part (a plain form field)
// into a string; these are small by construction (ids, emails), unlike
// the video part, which is never buffered this way.
func readSmallPart(part io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(part, 4096))
	return string(data)
}

type uploadInitRequest struct {
	Filename         string  `json:"filename"`
	ContentType      string  `json:"contentType"`
	UserID           string  `json:"userId"`
	VideoDurationSec float64 `json:"videoDurationSec"`
}

// uploadInit implements POST /upload/init: mints a Job in upload_pending
// and a signed PUT URL the client uses to push bytes directly to the
// object store, bypassing the API's own bandwidth entirely.
func (h *Handlers) uploadInit(c *gin.Context) {
	var req uploadInitRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Filename == "" {
		errJSON(c, http.StatusBadRequest, "filename is required")
		return
	}
	contentType := req.ContentType
	if contentType == "" {
		contentType = "video/mp4"
	}

	jobID := uuid.NewString()
	key := fmt.Sprintf("uploads/%s/%s", jobID, req.Filename)

	uploadURL, err := h.gcs.SignWrite(c.Request.Context(), h.rawBucket, key, contentType, signedUploadTTL)
	if err != nil {
		errJSON(c, http.StatusInternalServerError, fmt.Sprintf("signing upload url: %v", err))
		return
	}
	videoGcsUri := platform.FormatGcsUri(h.rawBucket, key)

	job := &model.Job{
		JobID:            jobID,
		UserID:           req.UserID,
		Status:           model.JobStatusUploadPending,
		Mode:             model.ModeAnalysis,
		Visibility:       model.VisibilityPrivate,
		OriginalFileName: req.Filename,
		VideoGcsUri:      videoGcsUri,
		VideoDurationSec: req.VideoDurationSec,
	}
	if err := h.jobs.Create(c.Request.Context(), job); err != nil {
		errJSON(c, http.StatusInternalServerError, fmt.Sprintf("creating job: %v", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":          true,
		"jobId":       jobID,
		"uploadUrl":   uploadURL,
		"videoGcsUri": videoGcsUri,
	})
}

type uploadCompleteRequest struct {
	JobID  string `json:"jobId"`
	UserID string `json:"userId"`
}

// uploadComplete implements POST /upload/complete: confirms the client's
// direct PUT landed, flips the Job to queued, and publishes the envelope
// the Worker consumes.
func (h *Handlers) uploadComplete(c *gin.Context) {
	var req uploadCompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.JobID == "" {
		errJSON(c, http.StatusBadRequest, "jobId is required")
		return
	}

	job, err := h.jobs.Get(c.Request.Context(), req.JobID)
	if err != nil {
		errJSON(c, http.StatusNotFound, fmt.Sprintf("job %s not found", req.JobID))
		return
	}

	bucket, key, err := platform.ParseGcsUri(job.VideoGcsUri)
	if err != nil {
		errJSON(c, http.StatusBadRequest, fmt.Sprintf("job has no valid source uri: %v", err))
		return
	}
	exists, err := h.gcs.Exists(c.Request.Context(), bucket, key)
	if err != nil {
		errJSON(c, http.StatusInternalServerError, fmt.Sprintf("checking uploaded object: %v", err))
		return
	}
	if !exists {
		errJSON(c, http.StatusBadRequest, "uploaded object not found; complete the PUT before calling /upload/complete")
		return
	}

	if err := h.jobs.Merge(c.Request.Context(), req.JobID, map[string]interface{}{
		"status":   model.JobStatusQueued,
		"queuedAt": firestore.ServerTimestamp,
	}); err != nil {
		errJSON(c, http.StatusInternalServerError, fmt.Sprintf("marking job queued: %v", err))
		return
	}

	env := model.Envelope{
		JobID:       req.JobID,
		VideoGcsUri: job.VideoGcsUri,
		OutBucket:   h.outputBucket,
		UserID:      req.UserID,
		OwnerEmail:  job.OwnerEmail,
		Visibility:  job.Visibility,
		Mode:        model.ModeAnalysis,
	}
	if err := h.publisher.Publish(c.Request.Context(), env); err != nil {
		_ = h.jobs.Merge(c.Request.Context(), req.JobID, map[string]interface{}{
			"status":       model.JobStatusPublishError,
			"errorMessage": err.Error(),
		})
		errJSON(c, http.StatusBadGateway, fmt.Sprintf("publishing job: %v", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "jobId": req.JobID, "status": model.JobStatusQueued})
}

type publishJobRequest struct {
	JobID       string `json:"jobId"`
	VideoGcsUri string `json:"videoGcsUri"`
	UserID      string `json:"userId"`
}

// publishJob implements POST /publish_job: a manual re-enqueue path for a
// Job already recorded in the store, letting an operator recover a
// publish_error without re-uploading the source.
func (h *Handlers) publishJob(c *gin.Context) {
	var req publishJobRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.JobID == "" || req.VideoGcsUri == "" {
		errJSON(c, http.StatusBadRequest, "jobId and videoGcsUri are required")
		return
	}

	// Reset the status so the Worker's terminal-state short circuit does
	// not skip a job that is being re-enqueued out of publish_error.
	if err := h.jobs.Merge(c.Request.Context(), req.JobID, map[string]interface{}{
		"status":   model.JobStatusQueued,
		"queuedAt": firestore.ServerTimestamp,
	}); err != nil {
		errJSON(c, http.StatusInternalServerError, fmt.Sprintf("marking job queued: %v", err))
		return
	}

	env := model.Envelope{
		JobID:       req.JobID,
		VideoGcsUri: req.VideoGcsUri,
		OutBucket:   h.outputBucket,
		UserID:      req.UserID,
		Mode:        model.ModeAnalysis,
	}
	if err := h.publisher.Publish(c.Request.Context(), env); err != nil {
		errJSON(c, http.StatusBadGateway, fmt.Sprintf("publishing job: %v", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type publishRenderJobRequest struct {
	JobID       string            `json:"jobId"`
	VideoGcsUri string            `json:"videoGcsUri"`
	UserID      string            `json:"userId"`
	FinalClips  []model.ClipRange `json:"finalClips"`
}

// publishRenderJob implements POST /publish_render_job: the mode=render
// entry point named in spec.md's test scenarios (render mode is
// triggered by an explicit, user-edited clip list, never by the
// Analyzer), distinct from publishJob's mode=analysis envelope.
func (h *Handlers) publishRenderJob(c *gin.Context) {
	var req publishRenderJobRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.JobID == "" || req.VideoGcsUri == "" || len(req.FinalClips) == 0 {
		errJSON(c, http.StatusBadRequest, "jobId, videoGcsUri, and a non-empty finalClips are required")
		return
	}

	if err := h.jobs.Merge(c.Request.Context(), req.JobID, map[string]interface{}{
		"status":   model.JobStatusQueued,
		"mode":     model.ModeRender,
		"queuedAt": firestore.ServerTimestamp,
	}); err != nil {
		errJSON(c, http.StatusInternalServerError, fmt.Sprintf("marking job queued for render: %v", err))
		return
	}

	env := model.Envelope{
		JobID:       req.JobID,
		VideoGcsUri: req.VideoGcsUri,
		OutBucket:   h.outputBucket,
		UserID:      req.UserID,
		Mode:        model.ModeRender,
		FinalClips:  req.FinalClips,
	}
	if err := h.publisher.Publish(c.Request.Context(), env); err != nil {
		_ = h.jobs.Merge(c.Request.Context(), req.JobID, map[string]interface{}{
			"status":       model.JobStatusRenderPublishError,
			"errorMessage": err.Error(),
		})
		errJSON(c, http.StatusBadGateway, fmt.Sprintf("publishing render job: %v", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
