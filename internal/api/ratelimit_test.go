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
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestKeyedLimiter_AllowsUpToPerMinuteThenBlocks(t *testing.T) {
	k := newKeyedLimiter(1)
	assert.True(t, k.allow("owner:a@example.com"))
	assert.False(t, k.allow("owner:a@example.com"))
}

func TestKeyedLimiter_TracksKeysIndependently(t *testing.T) {
	k := newKeyedLimiter(1)
	assert.True(t, k.allow("owner:a@example.com"))
	assert.True(t, k.allow("owner:b@example.com"))
}

func TestRateLimitKey_PrefersOwnerEmailHeader(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/upload", nil)
	c.Request.Header.Set("x-owner-email", "coach@example.com")
	c.Request.RemoteAddr = "10.0.0.1:1234"

	assert.Equal(t, "owner:coach@example.com", rateLimitKey(c))
}

func TestRateLimitKey_FallsBackToClientIP(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/upload", nil)
	c.Request.RemoteAddr = "10.0.0.1:1234"

	assert.Equal(t, "ip:10.0.0.1", rateLimitKey(c))
}

func TestRateLimitUpload_BlocksSecondRequestWithinWindow(t *testing.T) {
	h := &Handlers{uploadLimiter: newKeyedLimiter(1)}

	router := gin.New()
	router.POST("/upload", h.rateLimitUpload(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/upload", nil)
	req.Header.Set("x-owner-email", "coach@example.com")

	first := httptest.NewRecorder()
	router.ServeHTTP(first, req)
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	router.ServeHTTP(second, req)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}
