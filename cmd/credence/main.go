// Package main provides the credence CLI entry point.
//
// credence reads plain-text certainty rules, takes evidence with
// confidence values attached, and derives how strongly each hypothesis
// is believed or disbelieved. Run without arguments for the
// interactive console; the subcommands cover one-shot evaluation,
// rule-file validation, and saved-session management.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"credence/cmd/credence/console"
	"credence/internal/config"
	"credence/internal/engine"
	"credence/internal/evidence"
	"credence/internal/rules"
	"credence/internal/store"
)

var (
	// Global flags
	cfgPath   string
	rulesFlag string
	verbose   bool
	watchFlag bool

	// Loaded in PersistentPreRunE
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:     "credence",
	Short:   "credence - certainty-factor reasoning over plain-text rules",
	Version: "0.2.0",
	Long: `credence is an uncertain-reasoning engine in the MYCIN tradition.

Rules are plain text ("today is rain then tomorrow is rain \cf 0.65"),
evidence carries certainty factors in [-1, 1], and conclusions from
several rules are combined with the MYCIN algebra instead of boolean
logic.

Run without arguments to start the interactive evidence console.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}
		if rulesFlag != "" {
			cfg.Rules.Path = rulesFlag
		}
		if cmd.Flags().Changed("watch") {
			cfg.Rules.Watch = watchFlag
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("config: %w", err)
		}

		// The console owns the terminal; logging would paint over it.
		if cmd.Name() == cmd.Root().Name() {
			logger = zap.NewNop()
			return nil
		}

		logger, err = buildLogger(cfg, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConsole()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "credence.yaml", "Config file path")
	rootCmd.PersistentFlags().StringVarP(&rulesFlag, "rules", "r", "", "Rule file (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.Flags().BoolVar(&watchFlag, "watch", false, "Reload the rule file on change")

	rootCmd.AddCommand(evalCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(whyCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildLogger maps the logging config onto zap.
func buildLogger(cfg *config.Config, verbose bool) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.Logging.Format == "json" {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}
	level, err := zapcore.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", cfg.Logging.Level, err)
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}

// runConsole launches the interactive evidence console.
func runConsole() error {
	kb, parseErrs, err := rules.ParseFile(cfg.Rules.Path)
	if err != nil {
		return err
	}

	var st *store.Store
	if cfg.Store.Path != "" {
		st, err = store.Open(cfg.Store.Path, logger)
		if err != nil {
			return fmt.Errorf("opening session store: %w", err)
		}
		defer st.Close()
	}

	return console.Run(console.Options{
		KB:        kb,
		ParseErrs: parseErrs,
		Config:    cfg,
		Store:     st,
		Logger:    logger,
	})
}

// loadKB parses the configured rule file, logging skipped lines.
func loadKB() (*rules.KnowledgeBase, []rules.ParseError, error) {
	kb, parseErrs, err := rules.ParseFile(cfg.Rules.Path)
	if err != nil {
		return nil, nil, err
	}
	for _, pe := range parseErrs {
		logger.Warn("skipped rule line", zap.String("diagnostic", pe.Error()))
	}
	return kb, parseErrs, nil
}

// assertEvidence parses -e flags into a validated evidence set.
func assertEvidence(flags []string) (*evidence.Set, error) {
	set := evidence.NewSet()
	for _, text := range flags {
		a, err := evidence.ParseAssertion(text)
		if err != nil {
			return nil, err
		}
		if err := set.Assert(a.Cond, a.CF); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// inferOpts maps the inference config onto engine options.
func inferOpts() []engine.Option {
	return []engine.Option{
		engine.WithTolerance(cfg.Inference.Tolerance),
		engine.WithMaxPasses(cfg.Inference.MaxPasses),
		engine.WithLogger(logger),
	}
}

// parseHypothesis reads a "subject is state" argument, given either as
// one quoted argument or as three bare words.
func parseHypothesis(args []string) (rules.Condition, error) {
	fields := strings.Fields(strings.Join(args, " "))
	if len(fields) != 3 || fields[1] != "is" {
		return rules.Condition{}, fmt.Errorf("hypothesis must be \"subject is state\", got %q", strings.Join(args, " "))
	}
	return rules.Condition{Subject: fields[0], State: fields[2]}, nil
}
