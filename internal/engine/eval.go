// Package engine evaluates rule antecedents and drives forward
// inference to a fixpoint. It is a pure consumer of the rules and
// evidence packages: given the same knowledge base and the same
// evidence snapshot it always produces the same result.
package engine

import (
	"credence/internal/cf"
	"credence/internal/rules"
)

// Source answers certainty lookups during evaluation. The boolean
// distinguishes "no value" from an explicit certainty of 0; both
// evaluate identically, but diagnostics report them differently.
// evidence.Snapshot is the usual implementation.
type Source interface {
	Lookup(c rules.Condition) (float64, bool)
}

// MapSource is the trivial Source over a plain map.
type MapSource map[rules.Condition]float64

func (m MapSource) Lookup(c rules.Condition) (float64, bool) {
	v, ok := m[c]
	return v, ok
}

// layered consults asserted evidence first and falls back to values
// derived by earlier passes. Asserted evidence always wins, so a user
// assertion cannot be overridden by a rule conclusion.
type layered struct {
	evidence Source
	derived  map[rules.Condition]float64
}

func (l layered) Lookup(c rules.Condition) (float64, bool) {
	if v, ok := l.evidence.Lookup(c); ok {
		return v, true
	}
	v, ok := l.derived[c]
	return v, ok
}

// EvalAntecedent computes the certainty of an antecedent tree against
// src. Leaves read the source, with unknown conditions counting as 0;
// And takes the minimum over its children, Or the maximum. Every
// child is evaluated: negative and zero certainties take part in the
// arithmetic instead of short-circuiting it.
func EvalAntecedent(a rules.Antecedent, src Source) float64 {
	switch n := a.(type) {
	case rules.Leaf:
		v, ok := src.Lookup(n.Cond)
		if !ok {
			return cf.Unknown
		}
		return v
	case rules.And:
		if len(n.Children) == 0 {
			return cf.Unknown
		}
		v := EvalAntecedent(n.Children[0], src)
		for _, c := range n.Children[1:] {
			if w := EvalAntecedent(c, src); w < v {
				v = w
			}
		}
		return v
	case rules.Or:
		if len(n.Children) == 0 {
			return cf.Unknown
		}
		v := EvalAntecedent(n.Children[0], src)
		for _, c := range n.Children[1:] {
			if w := EvalAntecedent(c, src); w > v {
				v = w
			}
		}
		return v
	default:
		return cf.Unknown
	}
}

// LeafValue is one antecedent clause as seen during an evaluation.
type LeafValue struct {
	Cond  rules.Condition
	CF    float64
	Known bool
}

// EvalLeaves reports every leaf of a in source order with the value
// it evaluated to, for diagnostics and explanations.
func EvalLeaves(a rules.Antecedent, src Source) []LeafValue {
	var out []LeafValue
	a.Walk(func(c rules.Condition) {
		v, ok := src.Lookup(c)
		if !ok {
			v = cf.Unknown
		}
		out = append(out, LeafValue{Cond: c, CF: v, Known: ok})
	})
	return out
}
