package main

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"credence/internal/engine"
)

var (
	whyEvidence []string
	whyJSONOut  bool
	whyPretty   bool
)

// whyCmd explains how a hypothesis got its certainty.
var whyCmd = &cobra.Command{
	Use:   "why [subject is state]",
	Short: "Explain the derivation of a hypothesis",
	Long: `Runs inference on the given evidence and prints the derivation tree
for one hypothesis: every rule that fired for it, the leaf values its
antecedent saw, and the running combined certainty.

Examples:
  credence why -e "today is rain = 0.8" tomorrow is rain
  credence why -e "today is rain = 0.8" "tomorrow is rain" --json`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         runWhy,
}

func init() {
	whyCmd.Flags().StringArrayVarP(&whyEvidence, "evidence", "e", nil,
		`Evidence assertion "subject is state = cf" (repeatable)`)
	whyCmd.Flags().BoolVar(&whyJSONOut, "json", false, "Machine-readable output")
	whyCmd.Flags().BoolVar(&whyPretty, "pretty", false, "Render the explanation as rich markdown")
}

func runWhy(cmd *cobra.Command, args []string) error {
	hyp, err := parseHypothesis(args)
	if err != nil {
		return err
	}

	kb, _, err := loadKB()
	if err != nil {
		return err
	}

	set, err := assertEvidence(whyEvidence)
	if err != nil {
		return err
	}
	snap := set.Snapshot()

	res, err := engine.Infer(cmd.Context(), kb, snap, inferOpts()...)
	if err != nil {
		return err
	}

	exp := engine.Explain(res, snap, hyp)

	switch {
	case whyJSONOut:
		doc, err := exp.RenderJSON()
		if err != nil {
			return err
		}
		fmt.Println(doc)
	case whyPretty:
		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(100),
		)
		if err != nil {
			return err
		}
		out, err := renderer.Render(exp.RenderMarkdown())
		if err != nil {
			return err
		}
		fmt.Print(out)
	default:
		fmt.Print(exp.RenderASCII())
	}
	return nil
}
