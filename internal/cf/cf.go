// Package cf implements MYCIN-style certainty factor arithmetic.
//
// A certainty factor is a float64 in [-1, 1]: +1 is certain belief,
// -1 certain disbelief, 0 carries no information. The package is pure
// arithmetic; parsing, storage, and presentation live elsewhere.
package cf

import "math"

// Bounds of the certainty scale.
const (
	Min = -1.0
	Max = 1.0
)

// Unknown is the certainty used for conditions with no asserted or
// derived value. It is the identity of Combine, so unknown evidence
// never shifts a conclusion.
const Unknown = 0.0

// Valid reports whether v is a usable certainty factor: a real number
// within [Min, Max]. NaN and infinities are rejected.
func Valid(v float64) bool {
	return !math.IsNaN(v) && v >= Min && v <= Max
}

// Clamp forces v into [Min, Max]. Combination of in-range inputs stays
// in range up to float rounding; Clamp absorbs that rounding at the
// boundaries.
func Clamp(v float64) float64 {
	if v < Min {
		return Min
	}
	if v > Max {
		return Max
	}
	return v
}

// Fired is the contribution a rule makes to its hypothesis: the
// antecedent certainty scaled by the rule's own certainty. A negative
// antecedent reverses the rule's direction; a zero antecedent
// contributes nothing.
func Fired(antecedent, rule float64) float64 {
	return antecedent * rule
}

// Combine merges two certainty factors bearing on the same hypothesis
// using the MYCIN combination function:
//
//	both non-negative:  a + b*(1-a)
//	both non-positive:  a + b*(1+a)
//	opposite signs:     (a + b) / (1 - min(|a|, |b|))
//
// It is commutative and order-independent, 0 is its identity, and the
// result stays in [Min, Max] for in-range inputs. Total contradiction
// (+1 against -1) has a zero denominator and is defined as 0.
func Combine(a, b float64) float64 {
	switch {
	case a >= 0 && b >= 0:
		return Clamp(a + b*(1-a))
	case a <= 0 && b <= 0:
		return Clamp(a + b*(1+a))
	default:
		den := 1 - math.Min(math.Abs(a), math.Abs(b))
		if den == 0 {
			return 0
		}
		return Clamp((a + b) / den)
	}
}

// CombineAll folds Combine over vs, starting from the identity.
func CombineAll(vs ...float64) float64 {
	acc := Unknown
	for _, v := range vs {
		acc = Combine(acc, v)
	}
	return acc
}

// Complement returns the certainty implied for each of n sibling
// states of a subject when one of its states is asserted at v.
// Belief in one state spreads disbelief across the others: v of
// exactly 1 implies a total of -1, 0 < v < 1 implies v-1, and
// non-positive v implies nothing (returns 0).
func Complement(v float64, n int) float64 {
	if n <= 0 || v <= 0 || !Valid(v) {
		return 0
	}
	total := v - 1
	if v == Max {
		total = Min
	}
	return Clamp(total / float64(n))
}
