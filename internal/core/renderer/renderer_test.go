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

package renderer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hooptuber/highlight-pipeline/internal/core/mediatoolkit"
	"github.com/hooptuber/highlight-pipeline/internal/core/model"
)

func TestRenderEnvelope_RejectsWrongMode(t *testing.T) {
	r := New(nil, nil, mediatoolkit.New("", ""), "out-bucket")
	err := r.RenderEnvelope(nil, model.Envelope{JobID: "job-1", Mode: model.ModeAnalysis}, nil)
	assert.Error(t, err)
}
