package main

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"credence/cmd/credence/ui"
	"credence/internal/engine"
	"credence/internal/evidence"
	"credence/internal/rules"
	"credence/internal/store"
	"credence/internal/verdict"
)

// sessionsCmd manages saved console sessions.
var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage saved sessions",
	Long: `List and manage sessions saved from the console.

Subcommands:
  list       - List all saved sessions
  show       - Show one session's evidence and conclusions
  delete     - Delete a session
  recompute  - Re-run sessions against the current rule file`,
	SilenceUsage: true,
	RunE:         runSessionsList,
}

var sessionsListCmd = &cobra.Command{
	Use:          "list",
	Short:        "List all saved sessions",
	SilenceUsage: true,
	RunE:         runSessionsList,
}

var sessionsShowCmd = &cobra.Command{
	Use:          "show <name-or-id>",
	Short:        "Show one session's evidence and conclusions",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runSessionsShow,
}

var sessionsDeleteCmd = &cobra.Command{
	Use:          "delete <name-or-id>",
	Short:        "Delete a session",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runSessionsDelete,
}

var sessionsRecomputeCmd = &cobra.Command{
	Use:   "recompute [name-or-id]",
	Short: "Re-run sessions against the current rule file",
	Long: `Re-runs saved evidence through the engine with the rule file as it
stands now and reports every conclusion that changed. Without an
argument all sessions are recomputed, concurrently.`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runSessionsRecompute,
}

func init() {
	sessionsCmd.AddCommand(sessionsListCmd, sessionsShowCmd, sessionsDeleteCmd, sessionsRecomputeCmd)
}

func openSessionStore() (*store.Store, error) {
	if cfg.Store.Path == "" {
		return nil, fmt.Errorf("session store is disabled (store.path is empty)")
	}
	return store.Open(cfg.Store.Path, logger)
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	st, err := openSessionStore()
	if err != nil {
		return err
	}
	defer st.Close()

	sessions, err := st.List()
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("No saved sessions.")
		return nil
	}

	styles := ui.NewStyles(ui.ThemeByName(cfg.UI.Theme))
	table := ui.NewSimpleTable("Sessions", []string{"Name", "Updated", "Rules", "Conclusions"})
	for _, s := range sessions {
		table.AddRow(s.Name, s.UpdatedAt.Local().Format("2006-01-02 15:04"),
			s.RulesPath, strconv.Itoa(len(s.Results)))
	}
	fmt.Print(table.View(styles))
	fmt.Printf("Total: %d session(s)\n", len(sessions))
	return nil
}

func runSessionsShow(cmd *cobra.Command, args []string) error {
	st, err := openSessionStore()
	if err != nil {
		return err
	}
	defer st.Close()

	s, err := st.Get(args[0])
	if err != nil {
		return err
	}

	styles := ui.NewStyles(ui.ThemeByName(cfg.UI.Theme))

	fmt.Println(styles.Title.Render(s.Name))
	fmt.Printf("  id:      %s\n", s.ID)
	fmt.Printf("  rules:   %s\n", s.RulesPath)
	fmt.Printf("  created: %s\n", s.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Printf("  updated: %s\n", s.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Println()

	ev := ui.NewSimpleTable("Evidence", []string{"Condition", "CF"})
	for _, a := range s.Assertions {
		ev.AddRow(a.Cond.String(), fmt.Sprintf("%+.4f", a.CF))
	}
	fmt.Print(ev.View(styles))

	if len(s.Results) > 0 {
		rt := ui.NewSimpleTable("Conclusions", []string{"Hypothesis", "CF", "Verdict"})
		for _, c := range sortedConditions(s.Results) {
			v := s.Results[c]
			rt.AddRow(c.String(), fmt.Sprintf("%+.4f", v), verdict.Of(v).String())
		}
		fmt.Print(rt.View(styles))
	}

	// Flag conclusions that predate the current rule file.
	if kb, _, err := rules.ParseFile(s.RulesPath); err == nil && kb.Hash() != s.RulesHash {
		fmt.Println(styles.Warning.Render(
			"rule file has changed since this session was saved; run `credence sessions recompute " + s.Name + "`"))
	}
	return nil
}

func runSessionsDelete(cmd *cobra.Command, args []string) error {
	st, err := openSessionStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Delete(args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted session %q.\n", args[0])
	return nil
}

func runSessionsRecompute(cmd *cobra.Command, args []string) error {
	st, err := openSessionStore()
	if err != nil {
		return err
	}
	defer st.Close()

	kb, _, err := loadKB()
	if err != nil {
		return err
	}

	var sessions []*store.Session
	if len(args) == 1 {
		s, err := st.Get(args[0])
		if err != nil {
			return err
		}
		sessions = append(sessions, s)
	} else {
		list, err := st.List()
		if err != nil {
			return err
		}
		for _, item := range list {
			s, err := st.Get(item.ID)
			if err != nil {
				return err
			}
			sessions = append(sessions, s)
		}
	}
	if len(sessions) == 0 {
		fmt.Println("No saved sessions.")
		return nil
	}

	sources := make([]engine.Source, len(sessions))
	for i, s := range sessions {
		set := evidence.NewSet()
		for _, a := range s.Assertions {
			if err := set.Assert(a.Cond, a.CF); err != nil {
				return fmt.Errorf("session %q: %w", s.Name, err)
			}
		}
		sources[i] = set.Snapshot()
	}

	results, err := engine.EvalSet(cmd.Context(), kb, sources, inferOpts()...)
	if err != nil {
		return err
	}

	styles := ui.NewStyles(ui.ThemeByName(cfg.UI.Theme))
	for i, s := range sessions {
		changes := diffConclusions(s.Results, results[i].Derived)
		switch {
		case len(changes) == 0 && s.RulesHash == kb.Hash():
			fmt.Printf("%s: unchanged\n", s.Name)
		case len(changes) == 0:
			fmt.Printf("%s: rule file changed, conclusions held\n", s.Name)
		default:
			fmt.Printf("%s: %d conclusion(s) changed\n", s.Name, len(changes))
			for _, line := range changes {
				fmt.Println(styles.Info.Render("  " + line))
			}
		}

		s.Results = make(map[rules.Condition]float64, len(results[i].Derived))
		for c, v := range results[i].Derived {
			s.Results[c] = v
		}
		s.RulesPath = cfg.Rules.Path
		s.RulesHash = kb.Hash()
		if err := st.Save(s); err != nil {
			return fmt.Errorf("saving session %q: %w", s.Name, err)
		}
	}
	return nil
}

// diffConclusions lists human-readable changes between two derived
// maps, in a stable order.
func diffConclusions(before, after map[rules.Condition]float64) []string {
	var out []string
	for _, c := range sortedConditions(after) {
		v := after[c]
		prev, had := before[c]
		switch {
		case !had:
			out = append(out, fmt.Sprintf("%s: unknown -> %+.4f", c, v))
		case math.Abs(prev-v) > 1e-9:
			out = append(out, fmt.Sprintf("%s: %+.4f -> %+.4f", c, prev, v))
		}
	}
	for _, c := range sortedConditions(before) {
		if _, still := after[c]; !still {
			out = append(out, fmt.Sprintf("%s: %+.4f -> unknown", c, before[c]))
		}
	}
	return out
}

func sortedConditions(m map[rules.Condition]float64) []rules.Condition {
	out := make([]rules.Condition, 0, len(m))
	for c := range m {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Subject != out[j].Subject {
			return out[i].Subject < out[j].Subject
		}
		return out[i].State < out[j].State
	})
	return out
}
