package engine

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestEvalSetMatchesIndividualRuns(t *testing.T) {
	defer goleak.VerifyNone(t)

	kb := parseKB(t, weatherRules)
	sources := []Source{
		snapshotOf(t, given("today", "rain", 1.0), given("rainfall", "low", 1.0)),
		snapshotOf(t, given("today", "dry", 1.0), given("temperature", "warm", 1.0), given("sky", "overcast", 1.0)),
		snapshotOf(t),
	}

	batch, err := EvalSet(context.Background(), kb, sources)
	require.NoError(t, err)
	require.Len(t, batch, len(sources))

	for i, src := range sources {
		solo, err := Infer(context.Background(), kb, src)
		require.NoError(t, err)
		if diff := cmp.Diff(solo, batch[i]); diff != "" {
			t.Errorf("source %d: batch result differs (-solo +batch):\n%s", i, diff)
		}
	}
}

func TestEvalSetCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	kb := parseKB(t, weatherRules)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := EvalSet(ctx, kb, []Source{snapshotOf(t, given("today", "rain", 1.0))})
	assert.Nil(t, results)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEvalSetEmpty(t *testing.T) {
	kb := parseKB(t, weatherRules)
	results, err := EvalSet(context.Background(), kb, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}
