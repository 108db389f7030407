package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"credence/cmd/credence/ui"
)

// rulesCmd lists the parsed rules and the evidence vocabulary.
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List parsed rules and the evidence vocabulary",
	Long: `Shows every rule the file parses to, with its ID, source line and
certainty factor, followed by the conditions evidence can be asserted
against (grouped by subject) and the hypotheses rules conclude.`,
	SilenceUsage: true,
	RunE:         runRules,
}

func runRules(cmd *cobra.Command, args []string) error {
	kb, parseErrs, err := loadKB()
	if err != nil {
		return err
	}

	styles := ui.NewStyles(ui.ThemeByName(cfg.UI.Theme))

	table := ui.NewSimpleTable(fmt.Sprintf("Rules (%s)", kb.Name()),
		[]string{"ID", "Line", "CF", "Rule"})
	for _, r := range kb.Rules() {
		table.AddRow(strconv.Itoa(r.ID), strconv.Itoa(r.Line),
			fmt.Sprintf("%.2f", r.CF), r.String())
	}
	fmt.Print(table.View(styles))

	fmt.Println(styles.Title.Render("Evidence vocabulary"))
	for _, subj := range kb.Subjects() {
		fmt.Printf("  %s:", subj.Name)
		for _, state := range subj.States {
			fmt.Printf(" %s", state)
		}
		fmt.Println()
	}

	fmt.Println()
	fmt.Println(styles.Title.Render("Hypotheses"))
	for _, h := range kb.Hypotheses() {
		fmt.Printf("  %s (%d rule(s))\n", h, len(kb.ByConsequent(h)))
	}

	if n := len(parseErrs); n > 0 {
		fmt.Println()
		fmt.Println(styles.Warning.Render(
			fmt.Sprintf("%d line(s) skipped, run `credence check` for diagnostics", n)))
	}
	return nil
}
