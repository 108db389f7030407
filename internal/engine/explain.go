package engine

import (
	"encoding/json"
	"fmt"
	"strings"

	"credence/internal/rules"
)

// Explanation traces how one hypothesis got its certainty: every rule
// that fired for it in the final pass, with the leaf values its
// antecedent saw and the running combined value.
type Explanation struct {
	Hypothesis rules.Condition
	CF         float64
	Known      bool
	Steps      []Step
}

// Step is one rule firing contributing to the hypothesis.
type Step struct {
	Rule         *rules.Rule
	Leaves       []LeafValue
	AntecedentCF float64
	Contribution float64
	Combined     float64
}

// Explain reconstructs the derivation of c from a finished inference
// run. src must be the evidence the run was given; leaf values are
// re-read against the fixpoint state, which at convergence is what the
// final pass saw.
func Explain(res *Result, src Source, c rules.Condition) *Explanation {
	e := &Explanation{Hypothesis: c}
	e.CF, e.Known = res.Lookup(c)

	view := layered{evidence: src, derived: res.Derived}
	for _, f := range res.Firings {
		if f.Rule.Consequent != c {
			continue
		}
		e.Steps = append(e.Steps, Step{
			Rule:         f.Rule,
			Leaves:       EvalLeaves(f.Rule.Antecedent, view),
			AntecedentCF: f.AntecedentCF,
			Contribution: f.Contribution,
			Combined:     f.Combined,
		})
	}
	return e
}

// RenderASCII renders the explanation as an indented tree for
// terminal output.
func (e *Explanation) RenderASCII() string {
	var b strings.Builder
	if !e.Known {
		fmt.Fprintf(&b, "%s is unknown: no rule concluded it\n", e.Hypothesis)
		return b.String()
	}

	fmt.Fprintf(&b, "%s = %.4f\n", e.Hypothesis, e.CF)
	for i, st := range e.Steps {
		branch, indent := "├──", "│   "
		if i == len(e.Steps)-1 {
			branch, indent = "└──", "    "
		}
		fmt.Fprintf(&b, "%s rule %d (line %d): %s\n", branch, st.Rule.ID, st.Rule.Line, st.Rule)
		for _, lv := range st.Leaves {
			if lv.Known {
				fmt.Fprintf(&b, "%s  %s = %.4f\n", indent, lv.Cond, lv.CF)
			} else {
				fmt.Fprintf(&b, "%s  %s = unknown\n", indent, lv.Cond)
			}
		}
		fmt.Fprintf(&b, "%s  antecedent %.4f * cf %.2f -> %+.4f (running %.4f)\n",
			indent, st.AntecedentCF, st.Rule.CF, st.Contribution, st.Combined)
	}
	return b.String()
}

// RenderMarkdown renders the explanation as markdown, for display
// through a terminal markdown renderer.
func (e *Explanation) RenderMarkdown() string {
	var b strings.Builder
	if !e.Known {
		fmt.Fprintf(&b, "## %s\n\nUnknown: no rule concluded it.\n", e.Hypothesis)
		return b.String()
	}

	fmt.Fprintf(&b, "## %s = %.4f\n\n", e.Hypothesis, e.CF)
	for _, st := range e.Steps {
		fmt.Fprintf(&b, "**Rule %d** (line %d): `%s`\n\n", st.Rule.ID, st.Rule.Line, st.Rule)
		for _, lv := range st.Leaves {
			if lv.Known {
				fmt.Fprintf(&b, "- %s = %.4f\n", lv.Cond, lv.CF)
			} else {
				fmt.Fprintf(&b, "- %s = unknown\n", lv.Cond)
			}
		}
		fmt.Fprintf(&b, "- antecedent %.4f * cf %.2f contributes %+.4f, running total %.4f\n\n",
			st.AntecedentCF, st.Rule.CF, st.Contribution, st.Combined)
	}
	return b.String()
}

type explanationJSON struct {
	Hypothesis string     `json:"hypothesis"`
	CF         float64    `json:"cf"`
	Known      bool       `json:"known"`
	Steps      []stepJSON `json:"steps,omitempty"`
}

type stepJSON struct {
	Rule         string     `json:"rule"`
	Line         int        `json:"line"`
	RuleCF       float64    `json:"rule_cf"`
	Leaves       []leafJSON `json:"leaves"`
	AntecedentCF float64    `json:"antecedent_cf"`
	Contribution float64    `json:"contribution"`
	Combined     float64    `json:"combined"`
}

type leafJSON struct {
	Condition string   `json:"condition"`
	CF        *float64 `json:"cf"` // null when unknown
}

// RenderJSON renders the explanation as indented JSON.
func (e *Explanation) RenderJSON() (string, error) {
	out := explanationJSON{
		Hypothesis: e.Hypothesis.String(),
		CF:         e.CF,
		Known:      e.Known,
	}
	for _, st := range e.Steps {
		sj := stepJSON{
			Rule:         st.Rule.String(),
			Line:         st.Rule.Line,
			RuleCF:       st.Rule.CF,
			AntecedentCF: st.AntecedentCF,
			Contribution: st.Contribution,
			Combined:     st.Combined,
		}
		for _, lv := range st.Leaves {
			lj := leafJSON{Condition: lv.Cond.String()}
			if lv.Known {
				v := lv.CF
				lj.CF = &v
			}
			sj.Leaves = append(sj.Leaves, lj)
		}
		out.Steps = append(out.Steps, sj)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding explanation: %w", err)
	}
	return string(data), nil
}
