package engine

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExplainReinforcedHypothesis(t *testing.T) {
	kb := parseKB(t, weatherRules)
	snap := snapshotOf(t,
		given("today", "dry", 1.0),
		given("temperature", "warm", 1.0),
		given("sky", "overcast", 1.0),
	)
	res, err := Infer(context.Background(), kb, snap)
	require.NoError(t, err)

	e := Explain(res, snap, tomorrowRain)
	require.True(t, e.Known)
	assert.InDelta(t, 0.8425, e.CF, 1e-9)
	require.Len(t, e.Steps, 2)

	first := e.Steps[0]
	assert.Equal(t, 1, first.Rule.ID)
	assert.InDelta(t, 1.0, first.AntecedentCF, 1e-9)
	assert.InDelta(t, 0.65, first.Contribution, 1e-9)
	assert.InDelta(t, 0.65, first.Combined, 1e-9)
	require.Len(t, first.Leaves, 2)
	for _, lv := range first.Leaves {
		assert.True(t, lv.Known)
		assert.InDelta(t, 1.0, lv.CF, 1e-9)
	}

	second := e.Steps[1]
	assert.Equal(t, 2, second.Rule.ID)
	assert.InDelta(t, 0.8425, second.Combined, 1e-9)
}

func TestExplainUnknownHypothesis(t *testing.T) {
	kb := parseKB(t, weatherRules)
	snap := snapshotOf(t, given("today", "rain", 1.0))
	res, err := Infer(context.Background(), kb, snap)
	require.NoError(t, err)

	e := Explain(res, snap, tomorrowRain)
	assert.False(t, e.Known)
	assert.Empty(t, e.Steps)
	assert.Contains(t, e.RenderASCII(), "unknown")
}

func TestExplainRenderASCII(t *testing.T) {
	kb := parseKB(t, weatherRules)
	snap := snapshotOf(t,
		given("today", "rain", 1.0),
		given("rainfall", "low", 1.0),
	)
	res, err := Infer(context.Background(), kb, snap)
	require.NoError(t, err)

	out := Explain(res, snap, tomorrowDry).RenderASCII()
	assert.Contains(t, out, "tomorrow is dry = 0.6000")
	assert.Contains(t, out, "└── rule 0 (line 2)")
	assert.Contains(t, out, "today is rain = 1.0000")
	assert.Contains(t, out, "running 0.6000")
}

func TestExplainRenderJSONMarksUnknownLeaves(t *testing.T) {
	kb := parseKB(t, `sky is clear OR pressure is rising then tomorrow is dry \cf 0.7`)
	snap := snapshotOf(t, given("pressure", "rising", 0.5))
	res, err := Infer(context.Background(), kb, snap)
	require.NoError(t, err)

	raw, err := Explain(res, snap, tomorrowDry).RenderJSON()
	require.NoError(t, err)

	var decoded struct {
		Hypothesis string  `json:"hypothesis"`
		CF         float64 `json:"cf"`
		Known      bool    `json:"known"`
		Steps      []struct {
			Leaves []struct {
				Condition string   `json:"condition"`
				CF        *float64 `json:"cf"`
			} `json:"leaves"`
		} `json:"steps"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &decoded))

	assert.Equal(t, "tomorrow is dry", decoded.Hypothesis)
	assert.True(t, decoded.Known)
	assert.InDelta(t, 0.35, decoded.CF, 1e-9)
	require.Len(t, decoded.Steps, 1)
	require.Len(t, decoded.Steps[0].Leaves, 2)
	assert.Nil(t, decoded.Steps[0].Leaves[0].CF, "unasserted alternative serializes as null")
	require.NotNil(t, decoded.Steps[0].Leaves[1].CF)
	assert.InDelta(t, 0.5, *decoded.Steps[0].Leaves[1].CF, 1e-9)
}

func TestExplainRenderMarkdown(t *testing.T) {
	kb := parseKB(t, weatherRules)
	snap := snapshotOf(t,
		given("today", "rain", 1.0),
		given("rainfall", "low", 1.0),
	)
	res, err := Infer(context.Background(), kb, snap)
	require.NoError(t, err)

	md := Explain(res, snap, tomorrowDry).RenderMarkdown()
	assert.True(t, strings.HasPrefix(md, "## tomorrow is dry"))
	assert.Contains(t, md, "**Rule 0**")
}
