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

package analyzer

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/hooptuber/highlight-pipeline/internal/core/model"
)

// codeFencePattern strips a leading/trailing markdown code fence, matching
// the original worker's strip_code_fences regex exactly.
var codeFencePattern = regexp.MustCompile("(?s)^```[a-zA-Z]*\n|\n```$")

func stripCodeFences(s string) string {
	return codeFencePattern.ReplaceAllString(strings.TrimSpace(s), "")
}

// richSchemaEvent is prompt_4's {Subject,Location,ShotType,TimeStamp,Outcome} shape.
type richSchemaEvent struct {
	Subject   string `json:"Subject"`
	Location  string `json:"Location"`
	ShotType  string `json:"ShotType"`
	TimeStamp string `json:"TimeStamp"`
	Outcome   string `json:"Outcome"`
}

// compactSchemaEvent is prompt_6's {SR,SL,ST,TS,MM} shape.
type compactSchemaEvent struct {
	SR string `json:"SR"`
	SL string `json:"SL"`
	ST string `json:"ST"`
	TS string `json:"TS"`
	MM string `json:"MM"`
}

// parseShotEvents decodes raw model output, tolerating either of the two
// schemas the prompt may be answered in, strips code fences first, and
// normalizes into model.ShotEvent. Events without a parseable timestamp
// are dropped; timestamps are clamped to [0, durationSec] when durationSec > 0.
func parseShotEvents(raw string, durationSec float64) ([]model.ShotEvent, error) {
	clean := stripCodeFences(raw)

	var rich []richSchemaEvent
	if err := json.Unmarshal([]byte(clean), &rich); err == nil && len(rich) > 0 && rich[0].TimeStamp != "" {
		return normalizeRich(rich, durationSec), nil
	}

	var compact []compactSchemaEvent
	if err := json.Unmarshal([]byte(clean), &compact); err == nil {
		return normalizeCompact(compact, durationSec), nil
	}

	return nil, fmt.Errorf("analyzer: could not parse model output as either known schema: %s", truncate(clean, 200))
}

func normalizeRich(events []richSchemaEvent, durationSec float64) []model.ShotEvent {
	out := make([]model.ShotEvent, 0, len(events))
	for _, e := range events {
		ev, ok := toShotEvent(e.TimeStamp, e.Outcome, e.Subject, e.ShotType, e.Location, durationSec)
		if ok {
			out = append(out, ev)
		}
	}
	return out
}

func normalizeCompact(events []compactSchemaEvent, durationSec float64) []model.ShotEvent {
	out := make([]model.ShotEvent, 0, len(events))
	for _, e := range events {
		ev, ok := toShotEvent(e.TS, e.MM, e.SR, e.ST, e.SL, durationSec)
		if ok {
			out = append(out, ev)
		}
	}
	return out
}

func toShotEvent(timestamp, outcomeRaw, subject, shotType, shotLocation string, durationSec float64) (model.ShotEvent, bool) {
	seconds, err := timestampToSeconds(timestamp)
	if err != nil {
		return model.ShotEvent{}, false
	}
	if seconds < 0 {
		seconds = 0
	}
	if durationSec > 0 && seconds > durationSec {
		seconds = durationSec
	}

	outcome := normalizeOutcome(outcomeRaw)

	return model.ShotEvent{
		ID:               uuid.New().String(),
		TimestampSeconds: seconds,
		Outcome:          outcome,
		Subject:          subject,
		ShotType:         shotType,
		ShotLocation:     shotLocation,
		Show:             outcome == model.OutcomeMake,
	}, true
}

// normalizeOutcome lowercases and maps the model's "Make"/"Miss"/
// "Undetermined"/"Other" (and close synonyms) onto the four canonical
// Outcome values. An empty outcome is treated as undetermined; anything
// else unrecognized is "other" rather than collapsed into undetermined.
func normalizeOutcome(raw string) model.Outcome {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	switch trimmed {
	case "make", "made", "makes":
		return model.OutcomeMake
	case "miss", "missed", "misses":
		return model.OutcomeMiss
	case "", "undetermined":
		return model.OutcomeUndetermined
	default:
		return model.OutcomeOther
	}
}

// timestampToSeconds parses "HH:MM:SS" (the format every prompt variant
// requests) into whole seconds.
func timestampToSeconds(ts string) (float64, error) {
	parts := strings.Split(strings.TrimSpace(ts), ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("analyzer: invalid timestamp %q, expected HH:MM:SS", ts)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("analyzer: invalid hour in %q: %w", ts, err)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("analyzer: invalid minute in %q: %w", ts, err)
	}
	sec, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, fmt.Errorf("analyzer: invalid second in %q: %w", ts, err)
	}
	return float64(h*3600+m*60) + math.Floor(sec), nil
}

// secondsToTimestamp is the inverse of timestampToSeconds, for round-trip tests.
func secondsToTimestamp(totalSeconds float64) string {
	n := int(totalSeconds)
	h := n / 3600
	m := (n % 3600) / 60
	s := n % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
