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

// This file tests request-validation paths that return before the
// handler ever touches h.jobs/h.gcs/h.publisher, so a zero-value
// Handlers (no real Firestore/GCS/Pub/Sub clients) is sufficient.
package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newTestHandlers() *Handlers {
	return &Handlers{uploadLimiter: newKeyedLimiter(1)}
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestUploadInit_RejectsMissingFilename(t *testing.T) {
	h := newTestHandlers()
	router := gin.New()
	router.POST("/upload/init", h.uploadInit)

	rec := postJSON(router, "/upload/init", `{"userId":"u1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "filename")
}

func TestUploadComplete_RejectsMissingJobID(t *testing.T) {
	h := newTestHandlers()
	router := gin.New()
	router.POST("/upload/complete", h.uploadComplete)

	rec := postJSON(router, "/upload/complete", `{"userId":"u1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "jobId")
}

func TestPublishJob_RejectsMissingVideoGcsUri(t *testing.T) {
	h := newTestHandlers()
	router := gin.New()
	router.POST("/publish_job", h.publishJob)

	rec := postJSON(router, "/publish_job", `{"jobId":"job-1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPublishRenderJob_RejectsEmptyFinalClips(t *testing.T) {
	h := newTestHandlers()
	router := gin.New()
	router.POST("/publish_render_job", h.publishRenderJob)

	rec := postJSON(router, "/publish_render_job", `{"jobId":"job-1","videoGcsUri":"gs://b/k","finalClips":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "finalClips")
}

func TestListHighlights_RequiresOwnerOrUser(t *testing.T) {
	h := newTestHandlers()
	router := gin.New()
	router.GET("/highlights", h.listHighlights)

	req := httptest.NewRequest(http.MethodGet, "/highlights", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListHighlights_RejectsNonIntegerLimit(t *testing.T) {
	h := newTestHandlers()
	router := gin.New()
	router.GET("/highlights", h.listHighlights)

	req := httptest.NewRequest(http.MethodGet, "/highlights?ownerEmail=coach@example.com&limit=abc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "limit")
}

func TestEngagementView_RequiresHighlightID(t *testing.T) {
	h := newTestHandlers()
	router := gin.New()
	router.POST("/video/engagement/view", h.engagementView)

	rec := postJSON(router, "/video/engagement/view", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEngagementLike_RejectsOutOfRangeDelta(t *testing.T) {
	h := newTestHandlers()
	router := gin.New()
	router.POST("/video/engagement/like", h.engagementLike)

	rec := postJSON(router, "/video/engagement/like", `{"highlightId":"job-1","delta":2}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "delta")
}

func TestEngagementLike_RequiresHighlightID(t *testing.T) {
	h := newTestHandlers()
	router := gin.New()
	router.POST("/video/engagement/like", h.engagementLike)

	rec := postJSON(router, "/video/engagement/like", `{"delta":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIndexAndHealthz(t *testing.T) {
	h := newTestHandlers()
	router := gin.New()
	router.GET("/", h.index)
	router.GET("/healthz", h.healthz)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok":true`)
}
