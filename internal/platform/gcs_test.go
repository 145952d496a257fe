package platform

import (
	"testing"

	"github.com/zeebo/assert"
)

func TestParseGcsUri(t *testing.T) {
	bucket, key, err := ParseGcsUri("gs://hooptuber-raw/jobs/abc123/source.mp4")
	assert.Nil(t, err)
	assert.Equal(t, "hooptuber-raw", bucket)
	assert.Equal(t, "jobs/abc123/source.mp4", key)
}

func TestParseGcsUri_RejectsNonGcsScheme(t *testing.T) {
	_, _, err := ParseGcsUri("https://storage.googleapis.com/hooptuber-raw/source.mp4")
	assert.NotNil(t, err)
}

func TestParseGcsUri_RejectsMissingKey(t *testing.T) {
	_, _, err := ParseGcsUri("gs://hooptuber-raw")
	assert.NotNil(t, err)
}

func TestFormatGcsUri(t *testing.T) {
	assert.Equal(t, "gs://bucket/key", FormatGcsUri("bucket", "key"))
}
