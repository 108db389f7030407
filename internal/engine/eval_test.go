package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"credence/internal/rules"
)

func leaf(subject, state string) rules.Leaf {
	return rules.Leaf{Cond: rules.Condition{Subject: subject, State: state}}
}

func TestEvalLeaf(t *testing.T) {
	src := MapSource{
		{Subject: "today", State: "rain"}: 0.8,
		{Subject: "today", State: "dry"}:  -0.4,
		{Subject: "sky", State: "clear"}:  0,
	}

	assert.Equal(t, 0.8, EvalAntecedent(leaf("today", "rain"), src))
	assert.Equal(t, -0.4, EvalAntecedent(leaf("today", "dry"), src))
	assert.Equal(t, 0.0, EvalAntecedent(leaf("sky", "clear"), src), "explicit zero")
	assert.Equal(t, 0.0, EvalAntecedent(leaf("wind", "high"), src), "unknown counts as zero")
}

func TestEvalAnd(t *testing.T) {
	src := MapSource{
		{Subject: "a", State: "x"}: 0.9,
		{Subject: "b", State: "x"}: 0.3,
		{Subject: "c", State: "x"}: -0.8,
	}

	and := func(leaves ...rules.Antecedent) rules.And { return rules.And{Children: leaves} }

	assert.InDelta(t, 0.3, EvalAntecedent(and(leaf("a", "x"), leaf("b", "x")), src), 1e-12)
	// A negative operand is not short-circuited away; it wins the minimum.
	assert.InDelta(t, -0.8, EvalAntecedent(and(leaf("a", "x"), leaf("c", "x")), src), 1e-12)
	// An unknown operand drags the conjunction to 0.
	assert.InDelta(t, 0.0, EvalAntecedent(and(leaf("a", "x"), leaf("z", "x")), src), 1e-12)
	assert.InDelta(t, 0.9, EvalAntecedent(and(leaf("a", "x")), src), 1e-12)
}

func TestEvalOr(t *testing.T) {
	src := MapSource{
		{Subject: "a", State: "x"}: 0.9,
		{Subject: "c", State: "x"}: -0.8,
		{Subject: "d", State: "x"}: -0.5,
	}

	or := func(leaves ...rules.Antecedent) rules.Or { return rules.Or{Children: leaves} }

	assert.InDelta(t, 0.9, EvalAntecedent(or(leaf("a", "x"), leaf("c", "x")), src), 1e-12)
	assert.InDelta(t, -0.5, EvalAntecedent(or(leaf("c", "x"), leaf("d", "x")), src), 1e-12)
	// Unknown (0) outranks any negative alternative.
	assert.InDelta(t, 0.0, EvalAntecedent(or(leaf("c", "x"), leaf("z", "x")), src), 1e-12)
}

func TestEvalLeaves(t *testing.T) {
	src := MapSource{{Subject: "a", State: "x"}: 0.7}
	ante := rules.And{Children: []rules.Antecedent{leaf("a", "x"), leaf("b", "y")}}

	leaves := EvalLeaves(ante, src)
	assert.Len(t, leaves, 2)
	assert.True(t, leaves[0].Known)
	assert.Equal(t, 0.7, leaves[0].CF)
	assert.False(t, leaves[1].Known)
	assert.Equal(t, 0.0, leaves[1].CF)
}
