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

// Package mediatoolkit wraps the ffmpeg/ffprobe subprocess invocations the
// pipeline needs: probing duration, extracting a sub-range with a stream
// copy, concatenating ranges, and re-encoding an arbitrary upload into a
// playable MP4. Every invocation uses an explicit argument vector, never
// a shell string.
package mediatoolkit

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/h2non/filetype"
)

// Toolkit holds the resolved paths to the ffmpeg/ffprobe binaries.
type Toolkit struct {
	FfmpegPath  string
	FfprobePath string
}

// New returns a Toolkit, defaulting both paths to the bare command name
// (resolved via PATH) when empty.
func New(ffmpegPath, ffprobePath string) *Toolkit {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Toolkit{FfmpegPath: ffmpegPath, FfprobePath: ffprobePath}
}

// ProbeDurationSeconds returns the duration of the media file at path,
// rounded up to the next whole second (spec requires a ceiling, not the
// teacher's int(duration)+1, which overshoots on exact integers).
func (t *Toolkit) ProbeDurationSeconds(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, t.FfprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	cmd.Stderr = os.Stderr
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("mediatoolkit: ffprobe: %w", err)
	}

	raw := strings.TrimSpace(string(out))
	duration, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("mediatoolkit: invalid duration %q: %w", raw, err)
	}
	return math.Ceil(duration), nil
}

// ExtractRange stream-copies [startSeconds, startSeconds+durationSeconds)
// of srcPath into a new file at destPath, without re-encoding.
func (t *Toolkit) ExtractRange(ctx context.Context, srcPath, destPath string, startSeconds, durationSeconds float64) error {
	cmd := exec.CommandContext(ctx, t.FfmpegPath,
		"-ss", formatSeconds(startSeconds),
		"-i", srcPath,
		"-t", formatSeconds(durationSeconds),
		"-c", "copy",
		"-avoid_negative_ts", "make_zero",
		"-y", destPath,
	)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("mediatoolkit: ffmpeg extract %s [%v,+%v): %w", srcPath, startSeconds, durationSeconds, err)
	}
	return nil
}

// Concatenate joins clipPaths in order into a single file at destPath
// using ffmpeg's concat demuxer, which requires a plain text filelist of
// `file '<abspath>'` lines and works only because all inputs share the
// same codec (they were all produced by ExtractRange's stream copy).
func (t *Toolkit) Concatenate(ctx context.Context, clipPaths []string, destPath string) error {
	listFile, err := os.CreateTemp("", "concat-list-*.txt")
	if err != nil {
		return fmt.Errorf("mediatoolkit: creating concat list: %w", err)
	}
	defer os.Remove(listFile.Name())

	var sb strings.Builder
	for _, p := range clipPaths {
		abs, err := filepath.Abs(p)
		if err != nil {
			listFile.Close()
			return fmt.Errorf("mediatoolkit: resolving clip path %s: %w", p, err)
		}
		sb.WriteString(fmt.Sprintf("file '%s'\n", abs))
	}
	if _, err := listFile.WriteString(sb.String()); err != nil {
		listFile.Close()
		return fmt.Errorf("mediatoolkit: writing concat list: %w", err)
	}
	if err := listFile.Close(); err != nil {
		return fmt.Errorf("mediatoolkit: closing concat list: %w", err)
	}

	cmd := exec.CommandContext(ctx, t.FfmpegPath,
		"-f", "concat",
		"-safe", "0",
		"-i", listFile.Name(),
		"-c", "copy",
		"-y", destPath,
	)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("mediatoolkit: ffmpeg concat into %s: %w", destPath, err)
	}
	return nil
}

// ConvertToMp4 re-encodes srcPath into an H.264/AAC MP4 with the moov
// atom moved to the front (faststart), so browsers can begin playback
// before the whole file downloads. The source's magic number is sniffed
// first and used to give the ffmpeg input a correctly-extensioned temp
// copy, since ffmpeg occasionally misdetects container formats from an
// extension-less input.
func (t *Toolkit) ConvertToMp4(ctx context.Context, srcPath, destPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("mediatoolkit: opening source %s: %w", srcPath, err)
	}
	defer src.Close()

	header := make([]byte, 261)
	if _, err := src.Read(header); err != nil && err != io.EOF {
		return fmt.Errorf("mediatoolkit: reading header of %s: %w", srcPath, err)
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("mediatoolkit: rewinding %s: %w", srcPath, err)
	}

	ext := "mp4"
	if kind, _ := filetype.Match(header); kind != filetype.Unknown {
		ext = kind.Extension
	}

	typedInput, err := os.CreateTemp("", "mediatoolkit-input-*."+ext)
	if err != nil {
		return fmt.Errorf("mediatoolkit: creating typed temp input: %w", err)
	}
	defer os.Remove(typedInput.Name())

	if _, err := io.Copy(typedInput, src); err != nil {
		typedInput.Close()
		return fmt.Errorf("mediatoolkit: copying into typed temp input: %w", err)
	}
	if err := typedInput.Close(); err != nil {
		return fmt.Errorf("mediatoolkit: closing typed temp input: %w", err)
	}

	cmd := exec.CommandContext(ctx, t.FfmpegPath,
		"-y", "-hide_banner",
		"-i", typedInput.Name(),
		"-c:v", "libx264",
		"-c:a", "aac",
		"-movflags", "+faststart",
		"-f", "mp4", destPath,
	)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("mediatoolkit: ffmpeg convert %s: %w", srcPath, err)
	}
	return nil
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}
