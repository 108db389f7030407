package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"credence/cmd/credence/ui"
	"credence/internal/engine"
	"credence/internal/evidence"
	"credence/internal/rules"
	"credence/internal/verdict"
)

var (
	evalEvidence []string
	evalJSONOut  bool
	evalAll      bool
	evalExplain  string
)

// evalCmd runs one inference pass over the rule file and prints the
// derived hypotheses.
var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate evidence against the rule file once",
	Long: `Parses the rule file, asserts the given evidence, runs inference to
a fixpoint and prints every hypothesis with its certainty and verdict.

Examples:
  credence eval -e "today is rain = 0.8"
  credence eval -r examples/weather.rules -e "today is rain = 1" -e "mood is lazy = 0.5"
  credence eval -e "today is rain = 0.8" --json
  credence eval -e "today is rain = 0.8" --explain "tomorrow is rain"`,
	SilenceUsage: true,
	RunE:         runEval,
}

func init() {
	evalCmd.Flags().StringArrayVarP(&evalEvidence, "evidence", "e", nil,
		`Evidence assertion "subject is state = cf" (repeatable)`)
	evalCmd.Flags().BoolVar(&evalJSONOut, "json", false, "Machine-readable output")
	evalCmd.Flags().BoolVar(&evalAll, "all", false, "Include the asserted evidence in the output")
	evalCmd.Flags().StringVar(&evalExplain, "explain", "",
		`Also print the derivation of "subject is state"`)
}

func runEval(cmd *cobra.Command, args []string) error {
	kb, parseErrs, err := loadKB()
	if err != nil {
		return err
	}

	set, err := assertEvidence(evalEvidence)
	if err != nil {
		return err
	}
	snap := set.Snapshot()

	res, err := engine.Infer(cmd.Context(), kb, snap, inferOpts()...)
	if err != nil {
		return err
	}

	if evalJSONOut {
		err = printEvalJSON(kb, snap, res)
	} else {
		err = printEvalTable(kb, snap, res)
	}
	if err != nil {
		return err
	}

	// Skipped lines still evaluate (partial knowledge base), but a
	// one-shot eval should not exit clean over a broken file.
	if n := len(parseErrs); n > 0 {
		return fmt.Errorf("%d rule line(s) failed to parse; run \"credence check %s\"", n, cfg.Rules.Path)
	}
	return nil
}

func printEvalTable(kb *rules.KnowledgeBase, snap evidence.Snapshot, res *engine.Result) error {
	styles := ui.NewStyles(ui.ThemeByName(cfg.UI.Theme))

	firings := make(map[rules.Condition]int)
	for _, f := range res.Firings {
		firings[f.Rule.Consequent]++
	}

	table := ui.NewSimpleTable("Hypotheses", []string{"Hypothesis", "CF", "Verdict", "Rules"})
	var tones []lipgloss.Style
	for _, h := range kb.Hypotheses() {
		if v, known := res.Lookup(h); known {
			table.AddRow(h.String(), fmt.Sprintf("%+.4f", v),
				verdict.Of(v).String(), strconv.Itoa(firings[h]))
			tones = append(tones, styles.Tone(verdict.Of(v).Tone()))
		} else {
			table.AddRow(h.String(), "", "unknown", "0")
			tones = append(tones, styles.Undecided)
		}
	}
	table.CellStyle = func(row, col int) *lipgloss.Style {
		if col == 1 || col == 2 {
			return &tones[row]
		}
		return nil
	}
	fmt.Print(table.View(styles))

	if evalAll && snap.Len() > 0 {
		ev := ui.NewSimpleTable("Evidence", []string{"Condition", "CF"})
		for _, a := range snap.Assertions() {
			ev.AddRow(a.Cond.String(), fmt.Sprintf("%+.4f", a.CF))
		}
		fmt.Print(ev.View(styles))
	}

	if res.Warning != nil {
		fmt.Println(styles.Warning.Render(res.Warning.Error()))
	}
	fmt.Println(styles.Muted.Render(fmt.Sprintf("%d rules · %d evidence · %d passes",
		kb.Len(), snap.Len(), res.Passes)))

	if evalExplain != "" {
		hyp, err := parseHypothesis([]string{evalExplain})
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Print(engine.Explain(res, snap, hyp).RenderASCII())
	}
	return nil
}

type evalResultJSON struct {
	Hypothesis string   `json:"hypothesis"`
	CF         *float64 `json:"cf"` // null when unknown
	Verdict    string   `json:"verdict"`
	Firings    int      `json:"firings"`
}

type evalEvidenceJSON struct {
	Condition string  `json:"condition"`
	CF        float64 `json:"cf"`
}

type evalOutputJSON struct {
	Rules       string             `json:"rules"`
	Passes      int                `json:"passes"`
	Converged   bool               `json:"converged"`
	Warning     string             `json:"warning,omitempty"`
	Results     []evalResultJSON   `json:"results"`
	Evidence    []evalEvidenceJSON `json:"evidence,omitempty"`
	Explanation json.RawMessage    `json:"explanation,omitempty"`
}

func printEvalJSON(kb *rules.KnowledgeBase, snap evidence.Snapshot, res *engine.Result) error {
	firings := make(map[rules.Condition]int)
	for _, f := range res.Firings {
		firings[f.Rule.Consequent]++
	}

	out := evalOutputJSON{
		Rules:     cfg.Rules.Path,
		Passes:    res.Passes,
		Converged: res.Converged,
	}
	if res.Warning != nil {
		out.Warning = res.Warning.Error()
	}
	for _, h := range kb.Hypotheses() {
		rj := evalResultJSON{Hypothesis: h.String(), Verdict: "unknown"}
		if v, known := res.Lookup(h); known {
			value := v
			rj.CF = &value
			rj.Verdict = verdict.Of(v).String()
			rj.Firings = firings[h]
		}
		out.Results = append(out.Results, rj)
	}
	if evalAll {
		for _, a := range snap.Assertions() {
			out.Evidence = append(out.Evidence, evalEvidenceJSON{
				Condition: a.Cond.String(), CF: a.CF,
			})
		}
	}
	if evalExplain != "" {
		hyp, err := parseHypothesis([]string{evalExplain})
		if err != nil {
			return err
		}
		doc, err := engine.Explain(res, snap, hyp).RenderJSON()
		if err != nil {
			return err
		}
		out.Explanation = json.RawMessage(doc)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
