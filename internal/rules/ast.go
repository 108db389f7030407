// Package rules implements the production-rule language: parsing rule
// files into an ordered, immutable knowledge base, and watching rule
// files for live reload.
//
// The surface grammar is one rule per line:
//
//	<subject> is <state> [AND|OR <subject> is <state> ...] then <subject> is <state> \cf <float>
//
// Connectors are uniform within a rule (no mixing), keywords are
// case-sensitive, '#' starts a comment, and the certainty factor must
// lie in [-1, 1]. Evaluation semantics live in the engine package;
// this package is purely syntactic.
package rules

import "strings"

// Condition is the atom of the rule language: a subject observed in a
// state, e.g. "today is rain". Conditions appear both as antecedent
// clauses and as consequents, which is what lets one rule's conclusion
// feed another rule's premise. The zero value is no condition.
type Condition struct {
	Subject string
	State   string
}

func (c Condition) String() string {
	return c.Subject + " is " + c.State
}

// IsZero reports whether c is the empty condition.
func (c Condition) IsZero() bool {
	return c.Subject == "" && c.State == ""
}

// Antecedent is the premise of a rule as an evaluation tree. Leaves
// name conditions; interior nodes combine their children with AND
// (conjunction) or OR (disjunction). The surface grammar only produces
// flat trees, one connector deep, but consumers walk the general
// shape.
type Antecedent interface {
	// Walk calls fn for every leaf condition in source order.
	Walk(fn func(Condition))
	String() string
}

// Leaf is a single condition premise.
type Leaf struct {
	Cond Condition
}

func (l Leaf) Walk(fn func(Condition)) { fn(l.Cond) }
func (l Leaf) String() string          { return l.Cond.String() }

// And holds with the certainty of its least certain child.
type And struct {
	Children []Antecedent
}

func (a And) Walk(fn func(Condition)) { walkChildren(a.Children, fn) }
func (a And) String() string          { return joinChildren(a.Children, " AND ") }

// Or holds with the certainty of its most certain child.
type Or struct {
	Children []Antecedent
}

func (o Or) Walk(fn func(Condition)) { walkChildren(o.Children, fn) }
func (o Or) String() string          { return joinChildren(o.Children, " OR ") }

func walkChildren(children []Antecedent, fn func(Condition)) {
	for _, c := range children {
		c.Walk(fn)
	}
}

func joinChildren(children []Antecedent, sep string) string {
	parts := make([]string, len(children))
	for i, c := range children {
		parts[i] = c.String()
	}
	return strings.Join(parts, sep)
}

// Rule is one production: when the antecedent holds with some
// certainty, the consequent gains (or, for negative certainties,
// loses) belief scaled by the rule's CF.
type Rule struct {
	ID         int // position in load order, 0-based
	Antecedent Antecedent
	Consequent Condition
	CF         float64
	Line       int    // 1-based line in the source file
	Text       string // the source line, trimmed
}

func (r *Rule) String() string {
	if r.Text != "" {
		return r.Text
	}
	return r.Antecedent.String() + " then " + r.Consequent.String()
}
