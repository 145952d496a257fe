package mediatoolkit

import (
	"testing"

	"github.com/zeebo/assert"
)

func TestFormatSeconds(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0.000"},
		{5, "5.000"},
		{12.5, "12.500"},
		{1.0001, "1.000"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, formatSeconds(c.in))
	}
}

func TestNew_DefaultsPathsToBareCommandNames(t *testing.T) {
	tk := New("", "")
	assert.Equal(t, "ffmpeg", tk.FfmpegPath)
	assert.Equal(t, "ffprobe", tk.FfprobePath)
}

func TestNew_KeepsExplicitPaths(t *testing.T) {
	tk := New("/usr/local/bin/ffmpeg", "/usr/local/bin/ffprobe")
	assert.Equal(t, "/usr/local/bin/ffmpeg", tk.FfmpegPath)
	assert.Equal(t, "/usr/local/bin/ffprobe", tk.FfprobePath)
}
