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

package model

// Outcome is the normalized result of a shot attempt. The Analyzer maps
// both "Make"/"Miss"/"Undetermined" and raw model synonyms onto these
// four values during validation.
type Outcome string

const (
	OutcomeMake         Outcome = "make"
	OutcomeMiss         Outcome = "miss"
	OutcomeUndetermined Outcome = "undetermined"
	OutcomeOther        Outcome = "other"
)

// ShotEvent is one detected shot attempt, normalized from whichever of
// the Analyzer's two tolerated JSON schemas the model returned.
type ShotEvent struct {
	ID string `firestore:"id" json:"id"`

	// TimestampSeconds is the offset into the source video, in seconds,
	// clamped to [0, videoDurationSec] during validation.
	TimestampSeconds float64 `firestore:"timestampSeconds" json:"timestampSeconds"`
	// TimestampEndSeconds is set by ClipPlanner once a clip window is
	// assigned; zero until then.
	TimestampEndSeconds float64 `firestore:"timestampEndSeconds,omitempty" json:"timestampEndSeconds,omitempty"`

	Outcome     Outcome `firestore:"outcome" json:"outcome"`
	Subject     string  `firestore:"subject,omitempty" json:"subject,omitempty"`
	ShotType    string  `firestore:"shotType,omitempty" json:"shotType,omitempty"`
	ShotLocation string `firestore:"shotLocation,omitempty" json:"shotLocation,omitempty"`

	// Show controls whether this event survives into the rendered
	// highlight; set false for misses and undetermined attempts.
	Show    bool `firestore:"show" json:"show"`
	Deleted bool `firestore:"deleted,omitempty" json:"deleted,omitempty"`
}

// ClipRange is a contiguous, renderable window of the source video,
// produced by ClipPlanner from a set of ShotEvents or supplied directly
// by a user in render mode.
type ClipRange struct {
	StartSeconds float64 `json:"startSeconds"`
	EndSeconds   float64 `json:"endSeconds"`
}

// Duration returns the length of the range in seconds.
func (c ClipRange) Duration() float64 {
	return c.EndSeconds - c.StartSeconds
}
