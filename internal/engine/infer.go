package engine

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"credence/internal/cf"
	"credence/internal/rules"
)

// Fixpoint defaults. Tolerance is the largest change any derived value
// may make in a pass for the run to count as settled; MaxPasses bounds
// rule sets whose conclusions never settle (mutual negation can cycle
// forever).
const (
	DefaultTolerance = 1e-9
	DefaultMaxPasses = 50
)

// ConvergenceWarning reports that inference stopped at the pass bound
// with derived values still moving. The result that carries it is the
// best effort of the final pass, not garbage; callers decide whether
// to surface or log it.
type ConvergenceWarning struct {
	Passes   int
	MaxDelta float64
}

func (w *ConvergenceWarning) Error() string {
	return fmt.Sprintf("inference did not settle after %d passes (last change %g)", w.Passes, w.MaxDelta)
}

// Firing records one rule moving its hypothesis during the final pass.
type Firing struct {
	Rule         *rules.Rule
	AntecedentCF float64
	Contribution float64 // AntecedentCF scaled by the rule's CF
	Combined     float64 // hypothesis value after combining this firing
}

// Result is the outcome of one inference run.
type Result struct {
	// Derived maps each concluded hypothesis to its certainty.
	// Hypotheses none of whose rules fired are absent: unknown, not 0.
	Derived map[rules.Condition]float64
	// Firings are the final pass's rule firings in rule order.
	Firings []Firing
	// Passes is the number of forward passes executed.
	Passes    int
	Converged bool
	// Warning is set when Converged is false.
	Warning *ConvergenceWarning
}

// Lookup returns the derived certainty for c, comma-ok.
func (r *Result) Lookup(c rules.Condition) (float64, bool) {
	v, ok := r.Derived[c]
	return v, ok
}

// Option adjusts an inference run.
type Option func(*options)

type options struct {
	tolerance float64
	maxPasses int
	logger    *zap.Logger
}

func newOptions(opts []Option) options {
	o := options{
		tolerance: DefaultTolerance,
		maxPasses: DefaultMaxPasses,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithTolerance sets the settle tolerance. Non-positive values keep
// the default.
func WithTolerance(tol float64) Option {
	return func(o *options) {
		if tol > 0 {
			o.tolerance = tol
		}
	}
}

// WithMaxPasses sets the pass bound. Values below 1 keep the default.
func WithMaxPasses(n int) Option {
	return func(o *options) {
		if n >= 1 {
			o.maxPasses = n
		}
	}
}

// WithLogger attaches a logger; pass summaries log at debug level.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Infer runs forward passes over kb against the asserted evidence in
// src until derived values settle or the pass bound is hit.
//
// Each pass walks every rule in load order, evaluates its antecedent
// against the evidence plus the previous pass's conclusions, and
// combines the non-zero contributions per hypothesis. Asserted
// evidence beats derived values for the same condition. A contribution
// of exactly 0 is the combination identity and never marks a
// hypothesis as known.
//
// The only error returned is ctx's: a run cut short by cancellation
// has no result. A run that merely fails to settle returns the final
// pass's result with Converged false and Warning set.
func Infer(ctx context.Context, kb *rules.KnowledgeBase, src Source, opts ...Option) (*Result, error) {
	o := newOptions(opts)
	ruleList := kb.Rules()

	derived := make(map[rules.Condition]float64)
	var firings []Firing
	passes := 0
	lastDelta := 0.0

	for passes < o.maxPasses {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		passes++

		view := layered{evidence: src, derived: derived}
		next := make(map[rules.Condition]float64, len(derived))
		firings = firings[:0]

		for _, r := range ruleList {
			antecedent := EvalAntecedent(r.Antecedent, view)
			contribution := cf.Fired(antecedent, r.CF)
			if contribution == 0 {
				continue
			}
			combined := contribution
			if prior, known := next[r.Consequent]; known {
				combined = cf.Combine(prior, contribution)
			}
			next[r.Consequent] = combined
			firings = append(firings, Firing{
				Rule:         r,
				AntecedentCF: antecedent,
				Contribution: contribution,
				Combined:     combined,
			})
		}

		lastDelta = maxDelta(derived, next)
		derived = next
		o.logger.Debug("inference pass",
			zap.Int("pass", passes),
			zap.Int("derived", len(derived)),
			zap.Float64("max_delta", lastDelta))

		if lastDelta <= o.tolerance {
			return &Result{
				Derived:   derived,
				Firings:   append([]Firing(nil), firings...),
				Passes:    passes,
				Converged: true,
			}, nil
		}
	}

	warning := &ConvergenceWarning{Passes: passes, MaxDelta: lastDelta}
	o.logger.Warn("inference did not settle",
		zap.Int("passes", passes),
		zap.Float64("max_delta", lastDelta))
	return &Result{
		Derived: derived,
		Firings: append([]Firing(nil), firings...),
		Passes:  passes,
		Warning: warning,
	}, nil
}

// maxDelta is the largest absolute change between two derived maps,
// counting hypotheses that appear or vanish as moving from or to 0.
func maxDelta(prev, next map[rules.Condition]float64) float64 {
	d := 0.0
	for c, v := range next {
		if dd := math.Abs(v - prev[c]); dd > d {
			d = dd
		}
	}
	for c, v := range prev {
		if _, ok := next[c]; !ok {
			if dd := math.Abs(v); dd > d {
				d = dd
			}
		}
	}
	return d
}
