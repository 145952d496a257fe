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

// Package clipplanner turns a list of shot events into a merged,
// non-overlapping set of clip ranges. It is a pure in-memory algorithm
// with no I/O and no external dependency.
package clipplanner

import (
	"sort"

	"github.com/hooptuber/highlight-pipeline/internal/core/model"
)

// Params configures the candidate-window and merge-gap rules.
type Params struct {
	ClipDurationSeconds float64
	PreRollSeconds      float64
	MergeGapSeconds     float64
}

// DefaultParams matches the defaults named in the clip planning contract:
// a 5s clip, 1s of pre-roll before the shot, and no merge gap tolerance.
func DefaultParams() Params {
	return Params{ClipDurationSeconds: 5, PreRollSeconds: 1, MergeGapSeconds: 0}
}

// Plan filters events to makes, builds a pre-roll candidate window for
// each, and sweeps them into a minimal set of non-overlapping ranges.
// Events with a timestamp beyond durationSec are ignored. An empty or
// all-miss input produces an empty output.
//
// As a side effect, Plan assigns TimestampEndSeconds on each make event
// in the given slice to its own candidate window's end, in place, since
// events shares a backing array with whatever the caller stores. This is
// the one point where a clip window is assigned to an event.
func Plan(events []model.ShotEvent, durationSec float64, p Params) []model.ClipRange {
	windows := make([]model.ClipRange, 0, len(events))
	for i := range events {
		e := &events[i]
		if e.Outcome != model.OutcomeMake {
			continue
		}
		if durationSec > 0 && e.TimestampSeconds > durationSec {
			continue
		}
		start := e.TimestampSeconds - p.PreRollSeconds
		if start < 0 {
			start = 0
		}
		end := start + p.ClipDurationSeconds
		e.TimestampEndSeconds = end
		windows = append(windows, model.ClipRange{
			StartSeconds: start,
			EndSeconds:   end,
		})
	}

	if len(windows) == 0 {
		return nil
	}

	sort.Slice(windows, func(i, j int) bool {
		return windows[i].StartSeconds < windows[j].StartSeconds
	})

	merged := make([]model.ClipRange, 0, len(windows))
	current := windows[0]
	for _, next := range windows[1:] {
		if next.StartSeconds <= current.EndSeconds+p.MergeGapSeconds {
			if next.EndSeconds > current.EndSeconds {
				current.EndSeconds = next.EndSeconds
			}
			continue
		}
		merged = append(merged, current)
		current = next
	}
	merged = append(merged, current)

	return merged
}
