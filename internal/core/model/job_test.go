package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJob_Terminal(t *testing.T) {
	cases := []struct {
		status JobStatus
		want   bool
	}{
		{JobStatusUploadPending, false},
		{JobStatusUploading, false},
		{JobStatusQueued, false},
		{JobStatusProcessing, false},
		{JobStatusRendering, false},
		{JobStatusDone, true},
		{JobStatusReady, true},
		{JobStatusError, true},
		{JobStatusPublishError, true},
		{JobStatusRenderPublishError, true},
		{JobStatusDeleted, true},
	}
	for _, c := range cases {
		j := &Job{Status: c.status}
		assert.Equal(t, c.want, j.Terminal(), "status %s", c.status)
	}
}

func TestClipRange_Duration(t *testing.T) {
	r := ClipRange{StartSeconds: 10, EndSeconds: 16.5}
	assert.Equal(t, 6.5, r.Duration())
}
