package console

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"credence/internal/cf"
	"credence/internal/engine"
	"credence/internal/evidence"
	"credence/internal/rules"
	"credence/internal/store"
)

// Update routes messages to the active mode: explanation overlay, save
// prompt, or the two-pane main screen.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.explainVP.Width = max(20, msg.Width-6)
		m.explainVP.Height = max(5, msg.Height-6)
		// Re-renders at the new width next time the overlay opens.
		m.renderer = nil
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case recomputeMsg:
		if msg.seq != m.evalSeq {
			return m, nil // superseded by a newer edit
		}
		return m, m.runInference()

	case inferenceDoneMsg:
		if msg.err != nil {
			m.status = m.styles.Error.Render(msg.err.Error())
			return m, nil
		}
		if msg.snapshot.Version() != m.evidence.Version() {
			return m, nil // evidence moved on while inference ran
		}
		m.snapshot = msg.snapshot
		m.result = msg.result
		return m, nil

	case savedMsg:
		m.saving = false
		m.saveInput.Blur()
		if msg.err != nil {
			m.status = m.styles.Error.Render("save failed: " + msg.err.Error())
		} else {
			m.status = m.styles.Success.Render(fmt.Sprintf("saved session %q", msg.name))
		}
		if m.zone == zoneForm && len(m.fields) > 0 {
			m.fields[m.focus].input.Focus()
		}
		return m, nil

	case RulesReloadedMsg:
		return m.applyReload(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.showExplain {
		switch msg.String() {
		case "esc", "q", "enter":
			m.showExplain = false
			return m, nil
		}
		var cmd tea.Cmd
		m.explainVP, cmd = m.explainVP.Update(msg)
		return m, cmd
	}

	if m.showHelp {
		switch msg.String() {
		case "esc", "q", "?", "enter":
			m.showHelp = false
		}
		return m, nil
	}

	if m.saving {
		switch msg.String() {
		case "esc":
			m.saving = false
			m.saveInput.Blur()
			if m.zone == zoneForm && len(m.fields) > 0 {
				m.fields[m.focus].input.Focus()
			}
			return m, nil
		case "enter":
			name := strings.TrimSpace(m.saveInput.Value())
			if name == "" {
				m.status = m.styles.Warning.Render("session needs a name")
				return m, nil
			}
			return m, m.saveSession(name)
		}
		var cmd tea.Cmd
		m.saveInput, cmd = m.saveInput.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "tab":
		m.toggleZone()
		return m, nil
	case "ctrl+f":
		m.complementFill = !m.complementFill
		if m.complementFill {
			m.status = "complement fill on"
		} else {
			m.status = "complement fill off"
		}
		return m, nil
	case "ctrl+s":
		m.openSavePrompt()
		return m, nil
	case "ctrl+r":
		m.status = "recomputing"
		return m, m.recomputeNow()
	}

	if m.zone == zoneHypotheses {
		return m.handleHypothesesKey(msg)
	}
	return m.handleFormKey(msg)
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if len(m.fields) == 0 {
		if msg.String() == "q" || msg.String() == "esc" {
			return m, tea.Quit
		}
		return m, nil
	}

	switch msg.String() {
	case "esc":
		m.toggleZone()
		return m, nil
	case "up", "shift+tab":
		m.moveFocus(-1)
		return m, nil
	case "down":
		m.moveFocus(1)
		return m, nil
	case "enter":
		var cmds []tea.Cmd
		if m.syncField(m.focus) {
			cmds = append(cmds, m.scheduleRecompute())
		}
		if m.applyComplementFill(m.focus) {
			cmds = append(cmds, m.scheduleRecompute())
		}
		m.moveFocus(1)
		return m, tea.Batch(cmds...)
	}

	var cmd tea.Cmd
	f := &m.fields[m.focus]
	before := f.input.Value()
	f.input, cmd = f.input.Update(msg)
	if f.input.Value() != before {
		f.auto = false
		if m.syncField(m.focus) {
			return m, tea.Batch(cmd, m.scheduleRecompute())
		}
	}
	return m, cmd
}

func (m Model) handleHypothesesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	hyps := m.kb.Hypotheses()
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc":
		m.toggleZone()
		return m, nil
	case "up", "k":
		if m.hypIndex > 0 {
			m.hypIndex--
		}
		return m, nil
	case "down", "j":
		if m.hypIndex < len(hyps)-1 {
			m.hypIndex++
		}
		return m, nil
	case "enter", "e":
		m.openExplanation()
		return m, nil
	case "s":
		m.openSavePrompt()
		return m, nil
	case "?":
		m.showHelp = true
		return m, nil
	}
	return m, nil
}

// openSavePrompt switches to the session-name prompt. Reached by
// ctrl+s anywhere or plain s from the hypotheses pane, where no text
// input is eating keystrokes.
func (m *Model) openSavePrompt() {
	if m.store == nil {
		m.status = m.styles.Warning.Render("session store is disabled")
		return
	}
	m.saving = true
	m.saveInput.SetValue("")
	m.saveInput.Focus()
	if m.zone == zoneForm && len(m.fields) > 0 {
		m.fields[m.focus].input.Blur()
	}
}

func (m *Model) toggleZone() {
	if len(m.fields) == 0 {
		m.zone = zoneHypotheses
		return
	}
	if m.zone == zoneForm {
		m.fields[m.focus].input.Blur()
		m.zone = zoneHypotheses
	} else {
		m.zone = zoneForm
		m.fields[m.focus].input.Focus()
	}
}

func (m *Model) moveFocus(delta int) {
	if len(m.fields) == 0 {
		return
	}
	m.fields[m.focus].input.Blur()
	m.focus = (m.focus + delta + len(m.fields)) % len(m.fields)
	m.fields[m.focus].input.Focus()
}

// syncField reconciles one field's text with the evidence set.
// Reports whether the set changed.
func (m *Model) syncField(i int) bool {
	f := &m.fields[i]
	text := strings.TrimSpace(f.input.Value())

	before := m.evidence.Version()
	if text == "" {
		f.err = ""
		m.evidence.Retract(f.cond)
		return m.evidence.Version() != before
	}

	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		f.err = "not a number"
		m.evidence.Retract(f.cond)
		return m.evidence.Version() != before
	}
	if asserted := m.evidence.Assert(f.cond, v); asserted != nil {
		var invalid *evidence.InvalidEvidenceError
		if errors.As(asserted, &invalid) {
			f.err = invalid.Reason
		} else {
			f.err = asserted.Error()
		}
		m.evidence.Retract(f.cond)
		return m.evidence.Version() != before
	}
	f.err = ""
	return m.evidence.Version() != before
}

// applyComplementFill spreads the implied disbelief of field i's value
// across its sibling states. Manual entries are never overwritten;
// only empty or previously auto-filled fields are touched.
func (m *Model) applyComplementFill(i int) bool {
	if !m.complementFill {
		return false
	}
	f := m.fields[i]
	v, known := m.evidence.Lookup(f.cond)
	if !known || v <= 0 {
		return false
	}
	n := m.kb.Siblings(f.cond)
	if n == 0 {
		return false
	}
	share := cf.Complement(v, n)

	changed := false
	for j := range m.fields {
		sib := &m.fields[j]
		if j == i || sib.cond.Subject != f.cond.Subject {
			continue
		}
		if strings.TrimSpace(sib.input.Value()) != "" && !sib.auto {
			continue
		}
		sib.input.SetValue(strconv.FormatFloat(share, 'g', 4, 64))
		sib.auto = true
		if m.syncField(j) {
			changed = true
		}
	}
	return changed
}

// scheduleRecompute arms the debounce timer; only the newest sequence
// number survives to trigger inference.
func (m *Model) scheduleRecompute() tea.Cmd {
	m.evalSeq++
	seq := m.evalSeq
	return tea.Tick(recomputeDelay, func(time.Time) tea.Msg {
		return recomputeMsg{seq: seq}
	})
}

// recomputeNow skips the debounce.
func (m Model) recomputeNow() tea.Cmd {
	seq := m.evalSeq
	return func() tea.Msg {
		return recomputeMsg{seq: seq}
	}
}

func (m Model) runInference() tea.Cmd {
	kb := m.kb
	cfg := m.cfg
	logger := m.logger
	snap := m.evidence.Snapshot()
	return func() tea.Msg {
		res, err := engine.Infer(context.Background(), kb, snap,
			engine.WithTolerance(cfg.Inference.Tolerance),
			engine.WithMaxPasses(cfg.Inference.MaxPasses),
			engine.WithLogger(logger))
		return inferenceDoneMsg{snapshot: snap, result: res, err: err}
	}
}

func (m Model) saveSession(name string) tea.Cmd {
	st := m.store
	kb := m.kb
	snap := m.evidence.Snapshot()
	res := m.result
	return func() tea.Msg {
		sess := &store.Session{
			Name:       name,
			RulesPath:  kb.Name(),
			RulesHash:  kb.Hash(),
			Assertions: snap.Assertions(),
		}
		if res != nil {
			sess.Results = make(map[rules.Condition]float64, len(res.Derived))
			for c, v := range res.Derived {
				sess.Results[c] = v
			}
		}
		if err := st.Save(sess); err != nil {
			return savedMsg{name: name, err: err}
		}
		return savedMsg{name: name}
	}
}

// applyReload swaps in a reparsed knowledge base, carrying entered
// evidence over for conditions that still exist.
func (m Model) applyReload(msg RulesReloadedMsg) (tea.Model, tea.Cmd) {
	keep := make(map[rules.Condition]string, len(m.fields))
	for _, f := range m.fields {
		if text := strings.TrimSpace(f.input.Value()); text != "" {
			keep[f.cond] = text
		}
	}

	m.kb = msg.KB
	m.parseErrs = msg.Errs
	m.evidence.Clear()
	m.result = nil
	m.buildForm(keep)
	for i := range m.fields {
		m.syncField(i)
	}
	m.snapshot = m.evidence.Snapshot()

	if n := len(msg.Errs); n > 0 {
		m.status = m.styles.Warning.Render(
			fmt.Sprintf("rules reloaded: %d rules, %d line(s) skipped", m.kb.Len(), n))
	} else {
		m.status = m.styles.Success.Render(
			fmt.Sprintf("rules reloaded: %d rules", m.kb.Len()))
	}
	m.logger.Info("console picked up rule reload",
		zap.Int("rules", m.kb.Len()),
		zap.Int("parse_errors", len(msg.Errs)))

	return m, m.recomputeNow()
}

// openExplanation fills the overlay with the derivation of the
// selected hypothesis.
func (m *Model) openExplanation() {
	hyps := m.kb.Hypotheses()
	if len(hyps) == 0 {
		m.status = "no hypotheses to explain"
		return
	}
	if m.result == nil {
		m.status = "no results yet"
		return
	}

	exp := engine.Explain(m.result, m.snapshot, hyps[m.hypIndex])
	text := exp.RenderASCII()
	if m.renderer == nil {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(max(40, m.width-8)),
		)
		if err == nil {
			m.renderer = r
		}
	}
	if m.renderer != nil {
		if out, err := m.renderer.Render(exp.RenderMarkdown()); err == nil {
			text = out
		}
	}

	m.explainVP.SetContent(text)
	m.explainVP.GotoTop()
	m.showExplain = true
}
