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

// Package analyzer drives the multimodal model over a source video to
// produce a list of shot events, tolerating either of the two response
// schemas the prompt may come back in.
package analyzer

import (
	"bytes"
	"text/template"

	"github.com/hooptuber/highlight-pipeline/internal/core/model"
)

// promptTemplate asks for the compact {SR,SL,ST,TS,MM} schema, restricted
// to players actively participating in the game, matching prompt_6 of
// the original worker's prompt library. A worked example is injected via
// few-shot prompting the same way the teacher's MediaSummaryCreator does.
const promptTemplate = `Act as a world-class basketball analyst with a deep understanding of shot mechanics, court geography, and statistical analysis. Your task is to analyze the entire video and identify every distinct shot attempt only from players actively participating in the ongoing game.

Please ignore shots taken by people who are not part of the active game (warmup shooters, sideline players, bystanders).

For each shot attempt from active players only, provide:
- Subject Recognition (SR): the player taking the shot.
- Shot Location (SL): one of Right corner/Right baseline, Left corner/Left baseline, Right wing, Left wing, Right elbow, Left elbow, Right block, Left block, Top of the key, Mid-range, In the paint, Other.
- Shot Type (ST): 'Jumpshot' or 'Layup'.
- Time Stamp of Shot (TS): formatted as HH:MM:SS.
- Make/Miss (MM): 'Make', 'Miss', or 'Undetermined' if unclear.

Respond with a structured JSON array only, no code fences, no extra text, in this shape:
{{.EXAMPLE_JSON}}
`

var parsedPromptTemplate = template.Must(template.New("analyzer-prompt").Parse(promptTemplate))

// buildPrompt renders the analyzer's prompt with a worked JSON example.
func buildPrompt() (string, error) {
	var buf bytes.Buffer
	params := map[string]interface{}{
		"EXAMPLE_JSON": model.GetExampleCompactSchemaResponse(),
	}
	if err := parsedPromptTemplate.Execute(&buf, params); err != nil {
		return "", err
	}
	return buf.String(), nil
}
