package clipplanner

import (
	"testing"

	"github.com/zeebo/assert"

	"github.com/hooptuber/highlight-pipeline/internal/core/model"
)

func makeEvent(ts float64, outcome model.Outcome) model.ShotEvent {
	return model.ShotEvent{TimestampSeconds: ts, Outcome: outcome}
}

func TestPlan_EmptyInput(t *testing.T) {
	ranges := Plan(nil, 0, DefaultParams())
	assert.Equal(t, 0, len(ranges))
}

func TestPlan_FiltersToMakesOnly(t *testing.T) {
	events := []model.ShotEvent{
		makeEvent(10, model.OutcomeMiss),
		makeEvent(20, model.OutcomeUndetermined),
	}
	ranges := Plan(events, 0, DefaultParams())
	assert.Equal(t, 0, len(ranges))
}

func TestPlan_SingleMake_AppliesPreRollAndDuration(t *testing.T) {
	events := []model.ShotEvent{makeEvent(10, model.OutcomeMake)}
	ranges := Plan(events, 0, DefaultParams())
	assert.Equal(t, 1, len(ranges))
	assert.Equal(t, 9.0, ranges[0].StartSeconds)
	assert.Equal(t, 14.0, ranges[0].EndSeconds)
}

func TestPlan_PreRollClampsToZero(t *testing.T) {
	events := []model.ShotEvent{makeEvent(0.5, model.OutcomeMake)}
	ranges := Plan(events, 0, DefaultParams())
	assert.Equal(t, 1, len(ranges))
	assert.Equal(t, 0.0, ranges[0].StartSeconds)
}

func TestPlan_AssignsEndTimestampOnMakeEvents(t *testing.T) {
	events := []model.ShotEvent{
		makeEvent(10, model.OutcomeMake),
		makeEvent(20, model.OutcomeMiss),
	}
	Plan(events, 0, DefaultParams())
	assert.Equal(t, 14.0, events[0].TimestampEndSeconds)
	assert.Equal(t, 0.0, events[1].TimestampEndSeconds)
}

func TestPlan_MergesOverlappingWindows(t *testing.T) {
	// Windows at [9,14) and [12,17) overlap and must merge into [9,17).
	events := []model.ShotEvent{
		makeEvent(10, model.OutcomeMake),
		makeEvent(13, model.OutcomeMake),
	}
	ranges := Plan(events, 0, DefaultParams())
	assert.Equal(t, 1, len(ranges))
	assert.Equal(t, 9.0, ranges[0].StartSeconds)
	assert.Equal(t, 17.0, ranges[0].EndSeconds)
}

func TestPlan_SeparateWindowsBeyondMergeGapStayDistinct(t *testing.T) {
	events := []model.ShotEvent{
		makeEvent(10, model.OutcomeMake),
		makeEvent(100, model.OutcomeMake),
	}
	ranges := Plan(events, 0, DefaultParams())
	assert.Equal(t, 2, len(ranges))
}

func TestPlan_MergeGapToleratesSmallSeparation(t *testing.T) {
	// [9,14) and [16,21): gap is 2s, within mergeGap=3.
	events := []model.ShotEvent{
		makeEvent(10, model.OutcomeMake),
		makeEvent(17, model.OutcomeMake),
	}
	p := Params{ClipDurationSeconds: 5, PreRollSeconds: 1, MergeGapSeconds: 3}
	ranges := Plan(events, 0, p)
	assert.Equal(t, 1, len(ranges))
	assert.Equal(t, 9.0, ranges[0].StartSeconds)
	assert.Equal(t, 21.0, ranges[0].EndSeconds)
}

func TestPlan_IgnoresTimestampsBeyondKnownDuration(t *testing.T) {
	events := []model.ShotEvent{
		makeEvent(10, model.OutcomeMake),
		makeEvent(500, model.OutcomeMake),
	}
	ranges := Plan(events, 60, DefaultParams())
	assert.Equal(t, 1, len(ranges))
}

func TestPlan_OutputInvariants(t *testing.T) {
	events := []model.ShotEvent{
		makeEvent(10, model.OutcomeMake),
		makeEvent(30, model.OutcomeMake),
		makeEvent(31, model.OutcomeMake),
		makeEvent(90, model.OutcomeMake),
	}
	p := DefaultParams()
	ranges := Plan(events, 0, p)

	for i, r := range ranges {
		assert.True(t, r.Duration() >= p.ClipDurationSeconds)
		if i > 0 {
			prev := ranges[i-1]
			assert.True(t, r.StartSeconds > prev.EndSeconds+p.MergeGapSeconds)
		}
	}
}
