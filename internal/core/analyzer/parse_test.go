package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hooptuber/highlight-pipeline/internal/core/model"
)

func TestParseShotEvents_CompactSchema(t *testing.T) {
	raw := "```json\n" + `[
  {"SR": "Player 23", "SL": "Top of the key", "ST": "Jumpshot", "TS": "00:01:12", "MM": "Make"},
  {"SR": "Player 7", "SL": "Left wing", "ST": "Layup", "TS": "00:02:45", "MM": "Miss"}
]` + "\n```"

	events, err := parseShotEvents(raw, 300)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, model.OutcomeMake, events[0].Outcome)
	assert.Equal(t, 72.0, events[0].TimestampSeconds)
	assert.True(t, events[0].Show)
	assert.Equal(t, model.OutcomeMiss, events[1].Outcome)
	assert.False(t, events[1].Show)
}

func TestParseShotEvents_RichSchema(t *testing.T) {
	raw := `[
  {"Subject": "Player in white", "Location": "Left elbow", "ShotType": "Jumpshot", "TimeStamp": "00:00:30", "Outcome": "Make"}
]`
	events, err := parseShotEvents(raw, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 30.0, events[0].TimestampSeconds)
	assert.Equal(t, "Left elbow", events[0].ShotLocation)
}

func TestParseShotEvents_ClampsToDuration(t *testing.T) {
	raw := `[{"SR": "x", "SL": "y", "ST": "Layup", "TS": "01:00:00", "MM": "Make"}]`
	events, err := parseShotEvents(raw, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 10.0, events[0].TimestampSeconds)
}

func TestParseShotEvents_UnparseableReturnsError(t *testing.T) {
	_, err := parseShotEvents("not json at all", 0)
	assert.Error(t, err)
}

func TestTimestampSecondsRoundTrip(t *testing.T) {
	for _, n := range []float64{0, 1, 59, 60, 3599, 3600, 7384} {
		ts := secondsToTimestamp(n)
		back, err := timestampToSeconds(ts)
		require.NoError(t, err)
		assert.Equal(t, n, back)
	}
}

func TestNormalizeOutcome_Synonyms(t *testing.T) {
	cases := map[string]model.Outcome{
		"Make":         model.OutcomeMake,
		"made":         model.OutcomeMake,
		"MAKES":        model.OutcomeMake,
		"Miss":         model.OutcomeMiss,
		"missed":       model.OutcomeMiss,
		"Undetermined": model.OutcomeUndetermined,
		"":             model.OutcomeUndetermined,
		"unclear":      model.OutcomeOther,
		"blocked":      model.OutcomeOther,
	}
	for raw, want := range cases {
		assert.Equal(t, want, normalizeOutcome(raw), "input %q", raw)
	}
}

func TestStripCodeFences(t *testing.T) {
	in := "```json\n[1,2,3]\n```"
	assert.Equal(t, "[1,2,3]", stripCodeFences(in))
}
