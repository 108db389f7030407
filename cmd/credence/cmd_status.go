package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"credence/internal/rules"
)

// statusCmd shows the configuration in effect and rule file stats.
var statusCmd = &cobra.Command{
	Use:          "status",
	Short:        "Show configuration and rule file status",
	SilenceUsage: true,
	RunE:         showStatus,
}

func showStatus(cmd *cobra.Command, args []string) error {
	fmt.Println("credence status")
	fmt.Println("===============")
	fmt.Printf("Version: %s\n", rootCmd.Version)
	fmt.Printf("Config:  %s\n", cfgPath)
	fmt.Println()

	kb, parseErrs, err := rules.ParseFile(cfg.Rules.Path)
	if err != nil {
		fmt.Printf("✗ Rules: %s (%v)\n", cfg.Rules.Path, err)
	} else {
		fmt.Printf("✓ Rules: %s\n", cfg.Rules.Path)
		fmt.Printf("  Rules:      %d\n", kb.Len())
		fmt.Printf("  Subjects:   %d\n", len(kb.Subjects()))
		fmt.Printf("  Hypotheses: %d\n", len(kb.Hypotheses()))
		fmt.Printf("  Hash:       %.12s\n", kb.Hash())
		if n := len(parseErrs); n > 0 {
			fmt.Printf("  Skipped:    %d line(s), run `credence check`\n", n)
		}
	}
	fmt.Printf("  Watch:      %v (debounce %s)\n", cfg.Rules.Watch, cfg.Debounce())
	fmt.Println()

	fmt.Printf("Inference: tolerance %g, max %d passes\n",
		cfg.Inference.Tolerance, cfg.Inference.MaxPasses)
	fmt.Printf("UI:        theme %s, complement fill %v\n",
		cfg.UI.Theme, cfg.UI.ComplementFill)
	fmt.Println()

	if cfg.Store.Path == "" {
		fmt.Println("✗ Session store disabled")
		return nil
	}
	st, err := openSessionStore()
	if err != nil {
		fmt.Printf("✗ Session store: %v\n", err)
		return nil
	}
	defer st.Close()
	n, err := st.Count()
	if err != nil {
		return err
	}
	fmt.Printf("✓ Session store: %s (%d session(s))\n", st.Path(), n)
	return nil
}
