package rules

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"credence/internal/cf"
)

const cfMarker = `\cf`

// ParseError describes one rejected rule line. Rejecting a line never
// aborts the load: the parser reports the error and keeps going, so a
// single typo cannot take down the rest of the knowledge base.
type ParseError struct {
	Name   string // source label, usually the file path
	Line   int    // 1-based
	Text   string // the offending line, trimmed
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.Name, e.Line, e.Reason)
}

// Parse reads an entire rule file from r. It returns the knowledge
// base built from the well-formed lines, a ParseError per rejected
// line, and an error only when reading itself fails.
func Parse(r io.Reader, name string) (*KnowledgeBase, []ParseError, error) {
	kb := newKnowledgeBase(name)
	var errs []ParseError

	hash := sha256.New()
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()
		hash.Write([]byte(raw))
		hash.Write([]byte{'\n'})

		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		rule, reason := parseRule(line)
		if reason != "" {
			errs = append(errs, ParseError{Name: name, Line: lineNo, Text: line, Reason: reason})
			continue
		}
		rule.Line = lineNo
		kb.add(rule)
	}
	if err := scanner.Err(); err != nil {
		return kb, errs, fmt.Errorf("reading %s: %w", name, err)
	}

	kb.seal(hex.EncodeToString(hash.Sum(nil)))
	return kb, errs, nil
}

// ParseString parses rule text held in memory.
func ParseString(src, name string) (*KnowledgeBase, []ParseError) {
	kb, errs, _ := Parse(strings.NewReader(src), name)
	return kb, errs
}

// ParseFile parses the rule file at path.
func ParseFile(path string) (*KnowledgeBase, []ParseError, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening rules: %w", err)
	}
	defer f.Close()
	return Parse(f, path)
}

// parseRule parses one non-blank, non-comment line. It returns the
// rule, or an empty reason string replaced by a human-readable cause
// of rejection.
func parseRule(line string) (*Rule, string) {
	cfIdx := strings.LastIndex(line, cfMarker)
	if cfIdx < 0 {
		return nil, `missing \cf marker`
	}

	cfText := strings.TrimSpace(line[cfIdx+len(cfMarker):])
	if cfText == "" {
		return nil, "missing certainty factor value"
	}
	value, err := strconv.ParseFloat(cfText, 64)
	if err != nil {
		return nil, fmt.Sprintf("certainty factor %q is not a number", cfText)
	}
	if !cf.Valid(value) {
		return nil, fmt.Sprintf("certainty factor %g outside [-1, 1]", value)
	}

	fields := strings.Fields(line[:cfIdx])
	thenIdx := -1
	for i, f := range fields {
		if f != "then" {
			continue
		}
		if thenIdx >= 0 {
			return nil, "more than one then keyword"
		}
		thenIdx = i
	}
	if thenIdx < 0 {
		return nil, "missing then keyword"
	}

	consequent, reason := parseClause(fields[thenIdx+1:])
	if reason != "" {
		return nil, "consequent: " + reason
	}
	antecedent, reason := parseAntecedent(fields[:thenIdx])
	if reason != "" {
		return nil, reason
	}

	return &Rule{
		Antecedent: antecedent,
		Consequent: consequent,
		CF:         value,
		Text:       line,
	}, ""
}

// parseClause expects exactly the three tokens of "subject is state".
func parseClause(tokens []string) (Condition, string) {
	if len(tokens) == 0 {
		return Condition{}, "missing clause"
	}
	if len(tokens) != 3 || tokens[1] != "is" {
		return Condition{}, fmt.Sprintf("%q is not of the form 'subject is state'", strings.Join(tokens, " "))
	}
	return Condition{Subject: tokens[0], State: tokens[2]}, ""
}

// parseAntecedent parses "clause (AND clause)*" or "clause (OR
// clause)*". Mixing the two connectors in one rule is rejected.
func parseAntecedent(tokens []string) (Antecedent, string) {
	if len(tokens) == 0 {
		return nil, "empty antecedent"
	}

	var leaves []Antecedent
	connector := ""
	i := 0
	for {
		if i == len(tokens) && connector != "" {
			return nil, "nothing follows " + connector
		}
		if len(tokens)-i < 3 {
			return nil, fmt.Sprintf("incomplete clause %q, want 'subject is state'", strings.Join(tokens[i:], " "))
		}
		cond, reason := parseClause(tokens[i : i+3])
		if reason != "" {
			return nil, reason
		}
		leaves = append(leaves, Leaf{Cond: cond})
		i += 3
		if i == len(tokens) {
			break
		}

		switch c := tokens[i]; c {
		case "AND", "OR":
			if connector == "" {
				connector = c
			} else if connector != c {
				return nil, "cannot mix AND and OR in one rule"
			}
		default:
			return nil, fmt.Sprintf("expected AND or OR, found %q", c)
		}
		i++
	}

	if len(leaves) == 1 {
		return leaves[0], ""
	}
	if connector == "OR" {
		return Or{Children: leaves}, ""
	}
	return And{Children: leaves}, ""
}
