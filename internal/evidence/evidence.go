// Package evidence holds user-asserted observations: conditions with
// a certainty factor attached. A Set is mutable and validated at the
// door; the engine only ever sees immutable Snapshots of it.
package evidence

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"credence/internal/cf"
	"credence/internal/rules"
)

// InvalidEvidenceError reports an assertion rejected at assert time.
// The set is unchanged when one is returned.
type InvalidEvidenceError struct {
	Cond   rules.Condition
	CF     float64
	Reason string
}

func (e *InvalidEvidenceError) Error() string {
	return fmt.Sprintf("invalid evidence %q = %g: %s", e.Cond.String(), e.CF, e.Reason)
}

// Assertion is one condition with its asserted certainty.
type Assertion struct {
	Cond rules.Condition
	CF   float64
}

// Set is a mutable collection of assertions, safe for concurrent use.
// Every mutation bumps the version, which is how consumers notice that
// previously derived results have gone stale.
type Set struct {
	mu      sync.RWMutex
	values  map[rules.Condition]float64
	order   []rules.Condition
	version uint64
}

// NewSet returns an empty evidence set.
func NewSet() *Set {
	return &Set{values: make(map[rules.Condition]float64)}
}

// Assert records c at certainty v. Re-asserting a known condition
// overwrites its value. Out-of-range or non-real certainties and
// empty conditions are rejected with *InvalidEvidenceError.
func (s *Set) Assert(c rules.Condition, v float64) error {
	if c.Subject == "" || c.State == "" {
		return &InvalidEvidenceError{Cond: c, CF: v, Reason: "condition needs both subject and state"}
	}
	if !cf.Valid(v) {
		return &InvalidEvidenceError{Cond: c, CF: v, Reason: "certainty factor outside [-1, 1]"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, seen := s.values[c]; !seen {
		s.order = append(s.order, c)
	}
	s.values[c] = v
	s.version++
	return nil
}

// Retract removes the assertion for c, reporting whether one existed.
func (s *Set) Retract(c rules.Condition) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, seen := s.values[c]; !seen {
		return false
	}
	delete(s.values, c)
	for i, o := range s.order {
		if o == c {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.version++
	return true
}

// Clear removes every assertion.
func (s *Set) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.values) == 0 {
		return
	}
	s.values = make(map[rules.Condition]float64)
	s.order = nil
	s.version++
}

// Lookup returns the asserted certainty for c. The boolean
// distinguishes "not asserted" from an explicit 0.
func (s *Set) Lookup(c rules.Condition) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[c]
	return v, ok
}

// Len returns the number of assertions.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

// Version returns the mutation counter.
func (s *Set) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Assertions returns the assertions in the order first made.
func (s *Set) Assertions() []Assertion {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Assertion, 0, len(s.order))
	for _, c := range s.order {
		out = append(out, Assertion{Cond: c, CF: s.values[c]})
	}
	return out
}

// Snapshot returns an immutable copy of the current assertions. The
// engine evaluates snapshots only, so a set mutated mid-inference
// cannot corrupt the run; the version tells callers which state the
// result belongs to.
func (s *Set) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	values := make(map[rules.Condition]float64, len(s.values))
	for c, v := range s.values {
		values[c] = v
	}
	order := make([]rules.Condition, len(s.order))
	copy(order, s.order)
	return Snapshot{values: values, order: order, version: s.version}
}

// Snapshot is a frozen view of an evidence set.
type Snapshot struct {
	values  map[rules.Condition]float64
	order   []rules.Condition
	version uint64
}

// Lookup returns the asserted certainty for c, comma-ok.
func (s Snapshot) Lookup(c rules.Condition) (float64, bool) {
	v, ok := s.values[c]
	return v, ok
}

// Len returns the number of assertions.
func (s Snapshot) Len() int { return len(s.values) }

// Version returns the set version the snapshot was taken at.
func (s Snapshot) Version() uint64 { return s.version }

// Assertions returns the assertions in the order first made.
func (s Snapshot) Assertions() []Assertion {
	out := make([]Assertion, 0, len(s.order))
	for _, c := range s.order {
		out = append(out, Assertion{Cond: c, CF: s.values[c]})
	}
	return out
}

// ParseAssertion parses the command-line form of an assertion,
// "subject is state = cf", e.g. "today is rain = 0.8".
func ParseAssertion(text string) (Assertion, error) {
	eq := strings.LastIndex(text, "=")
	if eq < 0 {
		return Assertion{}, fmt.Errorf("assertion %q: want \"subject is state = cf\"", text)
	}

	cfText := strings.TrimSpace(text[eq+1:])
	v, err := strconv.ParseFloat(cfText, 64)
	if err != nil {
		return Assertion{}, fmt.Errorf("assertion %q: certainty %q is not a number", text, cfText)
	}

	fields := strings.Fields(text[:eq])
	if len(fields) != 3 || fields[1] != "is" {
		return Assertion{}, fmt.Errorf("assertion %q: condition must be \"subject is state\"", text)
	}
	return Assertion{Cond: rules.Condition{Subject: fields[0], State: fields[2]}, CF: v}, nil
}
