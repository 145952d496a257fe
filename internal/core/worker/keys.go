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

// Package worker assembles the Job-processing COR chain: download the
// source, analyze it for shot events, plan clip ranges, render the
// highlight, upload the artifacts, and commit the final Job state.
package worker

// Context keys used to pass domain objects between commands, following
// the teacher's convention of named accessor functions rather than bare
// string literals scattered across files.
const (
	KeyEnvelope            = "__ENVELOPE__"
	KeyJob                 = "__JOB__"
	KeySourcePath          = "__SOURCE_PATH__"
	KeyDurationSec         = "__DURATION_SEC__"
	KeyShotEvents          = "__SHOT_EVENTS__"
	KeyClipRanges          = "__CLIP_RANGES__"
	KeyHighlightLocalPath  = "__HIGHLIGHT_LOCAL_PATH__"
	KeyHighlightURI        = "__HIGHLIGHT_URI__"
	KeyHighlightDurationSec = "__HIGHLIGHT_DURATION_SEC__"
	KeyAnalysisURI         = "__ANALYSIS_URI__"
)
