package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"credence/internal/rules"
)

// checkCmd validates rule files without evaluating anything.
var checkCmd = &cobra.Command{
	Use:   "check [file...]",
	Short: "Validate rule files",
	Long: `Parses each rule file and prints a diagnostic for every line that
fails to parse, in file:line: message form. With no arguments the
configured rule file is checked. Exits non-zero if any line is bad.`,
	SilenceUsage: true,
	RunE:         runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	paths := args
	if len(paths) == 0 {
		paths = []string{cfg.Rules.Path}
	}

	problems := 0
	for _, path := range paths {
		kb, parseErrs, err := rules.ParseFile(path)
		if err != nil {
			fmt.Printf("%s: %v\n", path, err)
			problems++
			continue
		}

		for _, pe := range parseErrs {
			fmt.Println(pe.Error())
		}
		problems += len(parseErrs)

		if len(parseErrs) == 0 {
			fmt.Printf("%s: %d rules ok\n", path, kb.Len())
		} else {
			fmt.Printf("%s: %d rules loaded, %d line(s) skipped\n", path, kb.Len(), len(parseErrs))
		}
	}

	if problems > 0 {
		return fmt.Errorf("%d problem(s) found", problems)
	}
	return nil
}
