// Package console implements the interactive evidence console: an
// evidence entry form on the left, live hypothesis verdicts on the
// right, and an explanation overlay for tracing any conclusion.
package console

import (
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"credence/cmd/credence/ui"
	"credence/internal/config"
	"credence/internal/engine"
	"credence/internal/evidence"
	"credence/internal/rules"
	"credence/internal/store"
)

// recomputeDelay is how long the console waits after the last keystroke
// before re-running inference. Short enough to feel live, long enough
// not to fire on every character of "0.85".
const recomputeDelay = 250 * time.Millisecond

// focusZone determines which pane receives navigation keys.
type focusZone int

const (
	zoneForm focusZone = iota
	zoneHypotheses
)

// field is one evidence input in the form, bound to a condition from
// the rule vocabulary.
type field struct {
	cond  rules.Condition
	input textinput.Model
	err   string // parse problem with the current text, empty when clean
	auto  bool   // value came from complement fill, not the user
}

// group is the form section for one subject.
type group struct {
	subject string
	fields  []int // indexes into Model.fields
}

// Options configures a console session.
type Options struct {
	KB        *rules.KnowledgeBase
	ParseErrs []rules.ParseError // rejected lines from the initial load
	Config    *config.Config
	Store     *store.Store // nil disables session saving
	Logger    *zap.Logger
}

// Model is the bubbletea model for the console.
type Model struct {
	kb     *rules.KnowledgeBase
	cfg    *config.Config
	styles ui.Styles
	logger *zap.Logger
	store  *store.Store

	// Evidence form
	fields []field
	groups []group
	focus  int

	zone     focusZone
	hypIndex int

	// Inference state. snapshot is the evidence view result was
	// computed from; its version tells stale results from fresh.
	evidence *evidence.Set
	snapshot evidence.Snapshot
	result   *engine.Result
	evalSeq  int

	complementFill bool
	parseErrs      []rules.ParseError
	status         string

	// Explanation overlay
	showExplain bool
	explainVP   viewport.Model
	renderer    *glamour.TermRenderer

	showHelp bool

	// Save prompt
	saving    bool
	saveInput textinput.Model

	width  int
	height int
	ready  bool
}

// Messages for tea updates.
type (
	// recomputeMsg fires after the debounce delay; stale sequence
	// numbers are dropped.
	recomputeMsg struct{ seq int }

	// inferenceDoneMsg carries a finished run and the evidence
	// snapshot it was computed from.
	inferenceDoneMsg struct {
		snapshot evidence.Snapshot
		result   *engine.Result
		err      error
	}

	// savedMsg reports the outcome of a session save.
	savedMsg struct {
		name string
		err  error
	}

	// RulesReloadedMsg is sent from outside the program when the
	// watched rule file has been reparsed.
	RulesReloadedMsg struct {
		KB   *rules.KnowledgeBase
		Errs []rules.ParseError
	}
)

// New builds a console model over the given knowledge base.
func New(opts Options) Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ev := evidence.NewSet()
	m := Model{
		kb:             opts.KB,
		cfg:            cfg,
		styles:         ui.NewStyles(ui.ThemeByName(cfg.UI.Theme)),
		logger:         logger,
		store:          opts.Store,
		evidence:       ev,
		snapshot:       ev.Snapshot(),
		complementFill: cfg.UI.ComplementFill,
		parseErrs:      opts.ParseErrs,
	}
	m.buildForm(nil)

	si := textinput.New()
	si.Placeholder = "session name"
	si.Prompt = "│ "
	si.CharLimit = 64
	si.Width = 32
	si.PromptStyle = m.styles.Prompt
	m.saveInput = si

	return m
}

// buildForm rebuilds the evidence fields from the current knowledge
// base. keep maps conditions to input text to carry across a reload.
func (m *Model) buildForm(keep map[rules.Condition]string) {
	m.fields = m.fields[:0]
	m.groups = m.groups[:0]

	for _, subj := range m.kb.Subjects() {
		g := group{subject: subj.Name}
		for _, state := range subj.States {
			cond := rules.Condition{Subject: subj.Name, State: state}

			in := textinput.New()
			in.Placeholder = "unknown"
			in.Prompt = ""
			in.CharLimit = 12
			in.Width = 9
			in.TextStyle = m.styles.FieldValue
			if text, ok := keep[cond]; ok {
				in.SetValue(text)
			}

			g.fields = append(g.fields, len(m.fields))
			m.fields = append(m.fields, field{cond: cond, input: in})
		}
		m.groups = append(m.groups, g)
	}

	if m.focus >= len(m.fields) {
		m.focus = 0
	}
	if len(m.fields) > 0 && m.zone == zoneForm {
		m.fields[m.focus].input.Focus()
	}
	if hyps := m.kb.Hypotheses(); m.hypIndex >= len(hyps) {
		m.hypIndex = 0
	}
}

// Init starts cursor blinking and computes the initial (empty
// evidence) result so the hypotheses pane is populated from the start.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.recomputeNow())
}

// Run starts the console program, wiring a rule file watcher into it
// when watching is enabled.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen())

	if opts.Config != nil && opts.Config.Rules.Watch {
		w := rules.NewWatcher(opts.Config.Rules.Path, opts.Config.Debounce(), opts.Logger,
			func(kb *rules.KnowledgeBase, errs []rules.ParseError) {
				p.Send(RulesReloadedMsg{KB: kb, Errs: errs})
			})
		if err := w.Start(); err != nil {
			return err
		}
		defer w.Stop()
	}

	_, err := p.Run()
	return err
}
