package rules

// KnowledgeBase is an ordered, immutable collection of rules. It is
// built once by the parser, then only read: reloading a rule file
// produces a whole new KnowledgeBase and consumers swap the pointer.
// That makes a single KB safe to share across concurrent evaluations
// without locking.
type KnowledgeBase struct {
	name         string
	rules        []*Rule
	byConsequent map[Condition][]*Rule

	conditions []Condition // distinct antecedent conditions, first-appearance order
	hypotheses []Condition // distinct consequents, first-appearance order
	hash       string
}

// Subject groups the states a subject is observed in across all
// antecedents, in first-appearance order. The evidence form of the
// console is built from this.
type Subject struct {
	Name   string
	States []string
}

func newKnowledgeBase(name string) *KnowledgeBase {
	return &KnowledgeBase{
		name:         name,
		byConsequent: make(map[Condition][]*Rule),
	}
}

func (kb *KnowledgeBase) add(r *Rule) {
	r.ID = len(kb.rules)
	kb.rules = append(kb.rules, r)
	kb.byConsequent[r.Consequent] = append(kb.byConsequent[r.Consequent], r)
}

// seal computes the derived views once all rules are added.
func (kb *KnowledgeBase) seal(hash string) {
	kb.hash = hash
	seenCond := make(map[Condition]bool)
	seenHyp := make(map[Condition]bool)
	for _, r := range kb.rules {
		r.Antecedent.Walk(func(c Condition) {
			if !seenCond[c] {
				seenCond[c] = true
				kb.conditions = append(kb.conditions, c)
			}
		})
		if !seenHyp[r.Consequent] {
			seenHyp[r.Consequent] = true
			kb.hypotheses = append(kb.hypotheses, r.Consequent)
		}
	}
}

// Name returns the source label the KB was parsed from.
func (kb *KnowledgeBase) Name() string { return kb.name }

// Len returns the number of rules.
func (kb *KnowledgeBase) Len() int { return len(kb.rules) }

// Hash is a content hash of the source text, including comments.
// Sessions store it so stale conclusions can be flagged after the
// rule file changes.
func (kb *KnowledgeBase) Hash() string { return kb.hash }

// Rules returns the rules in load order.
func (kb *KnowledgeBase) Rules() []*Rule {
	out := make([]*Rule, len(kb.rules))
	copy(out, kb.rules)
	return out
}

// ByConsequent returns the rules concluding c, in load order.
func (kb *KnowledgeBase) ByConsequent(c Condition) []*Rule {
	rs := kb.byConsequent[c]
	out := make([]*Rule, len(rs))
	copy(out, rs)
	return out
}

// Conditions returns the distinct conditions appearing in antecedents,
// in first-appearance order. This is the vocabulary a user can assert
// evidence against.
func (kb *KnowledgeBase) Conditions() []Condition {
	out := make([]Condition, len(kb.conditions))
	copy(out, kb.conditions)
	return out
}

// Hypotheses returns the distinct consequents, in first-appearance
// order.
func (kb *KnowledgeBase) Hypotheses() []Condition {
	out := make([]Condition, len(kb.hypotheses))
	copy(out, kb.hypotheses)
	return out
}

// Subjects returns the antecedent vocabulary grouped by subject, both
// subjects and their states in first-appearance order.
func (kb *KnowledgeBase) Subjects() []Subject {
	index := make(map[string]int)
	var out []Subject
	for _, c := range kb.conditions {
		i, ok := index[c.Subject]
		if !ok {
			i = len(out)
			index[c.Subject] = i
			out = append(out, Subject{Name: c.Subject})
		}
		out[i].States = append(out[i].States, c.State)
	}
	return out
}

// Siblings returns how many states other than c.State the subject of
// c is observed in across antecedents. The console's complement fill
// divides implied disbelief across these.
func (kb *KnowledgeBase) Siblings(c Condition) int {
	n := 0
	for _, cond := range kb.conditions {
		if cond.Subject == c.Subject && cond.State != c.State {
			n++
		}
	}
	return n
}
