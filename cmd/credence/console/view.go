package console

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"credence/internal/verdict"
)

// View renders the console: header, evidence form beside the
// hypotheses pane, and a footer with status and key help. The
// explanation overlay replaces the panes while open.
func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}

	var b strings.Builder
	b.WriteString(m.styles.Header.Render(m.headerLine()))
	b.WriteString("\n\n")

	if m.showExplain {
		b.WriteString(m.styles.Panel.Render(m.explainVP.View()))
		b.WriteString("\n")
		b.WriteString(m.styles.Footer.Render("↑/↓ scroll · esc close"))
		return b.String()
	}

	if m.showHelp {
		b.WriteString(m.styles.Panel.Render(m.viewHelp()))
		b.WriteString("\n")
		b.WriteString(m.styles.Footer.Render("esc close"))
		return b.String()
	}

	left := m.styles.Panel.Render(m.viewForm())
	right := m.styles.Panel.Render(m.viewHypotheses())
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right))
	b.WriteString("\n")

	if m.saving {
		b.WriteString(m.styles.Prompt.Render("save session as: "))
		b.WriteString(m.saveInput.View())
		b.WriteString("\n")
	}

	b.WriteString(m.viewFooter())
	return b.String()
}

func (m Model) headerLine() string {
	return fmt.Sprintf(" credence · %s · %d rules ", m.kb.Name(), m.kb.Len())
}

func (m Model) viewForm() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Evidence"))
	b.WriteString("\n")

	if len(m.fields) == 0 {
		b.WriteString(m.styles.Muted.Render("rule file has no conditions"))
		return b.String()
	}

	for gi, g := range m.groups {
		if gi > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.styles.Subtitle.Render(g.subject))
		b.WriteString("\n")
		for _, fi := range g.fields {
			f := m.fields[fi]

			marker := "  "
			label := m.styles.FieldLabel.Render(f.cond.State)
			if m.zone == zoneForm && fi == m.focus {
				marker = m.styles.Selected.Render("> ")
				label = m.styles.Selected.Render(f.cond.State)
			}

			fmt.Fprintf(&b, "%s%-24s %s", marker, label, f.input.View())
			if f.err != "" {
				b.WriteString("  ")
				b.WriteString(m.styles.Error.Render(f.err))
			} else if f.auto {
				b.WriteString("  ")
				b.WriteString(m.styles.Muted.Render("(fill)"))
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m Model) viewHypotheses() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Hypotheses"))
	b.WriteString("\n")

	hyps := m.kb.Hypotheses()
	if len(hyps) == 0 {
		b.WriteString(m.styles.Muted.Render("rule file concludes nothing"))
		return b.String()
	}

	for i, h := range hyps {
		marker := "  "
		if m.zone == zoneHypotheses && i == m.hypIndex {
			marker = m.styles.Selected.Render("> ")
		}

		line := m.styles.Muted.Render(h.String() + ": unknown")
		if m.result != nil {
			if v, known := m.result.Lookup(h); known {
				tone := m.styles.Tone(verdict.Of(v).Tone())
				line = fmt.Sprintf("%s  %s",
					tone.Render(fmt.Sprintf("%+.4f", v)),
					tone.Render(verdict.Describe(h, v)))
			}
		}
		fmt.Fprintf(&b, "%s%s\n", marker, line)
	}

	if m.result != nil {
		b.WriteString("\n")
		if m.result.Warning != nil {
			b.WriteString(m.styles.Warning.Render(m.result.Warning.Error()))
			b.WriteString("\n")
		}
		b.WriteString(m.styles.Muted.Render(fmt.Sprintf("%d evidence · %d passes",
			m.snapshot.Len(), m.result.Passes)))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewFooter() string {
	var parts []string

	if len(m.parseErrs) > 0 {
		parts = append(parts, m.styles.Warning.Render(
			fmt.Sprintf("%d line(s) skipped, run `credence check`", len(m.parseErrs))))
	}
	if m.complementFill {
		parts = append(parts, m.styles.Badge.Render("fill"))
	}
	if m.status != "" {
		parts = append(parts, m.status)
	}

	help := "tab panes · ↑/↓ move · enter next · ctrl+f fill · ctrl+s save · ctrl+r recompute · ctrl+c quit"
	if m.zone == zoneHypotheses {
		help = "tab panes · ↑/↓ select · enter explain · s save · ? help · q quit"
	}
	parts = append(parts, m.styles.Muted.Render(help))

	return m.styles.Footer.Render(strings.Join(parts, "  ·  "))
}

// viewHelp is the key reference overlay.
func (m Model) viewHelp() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Keys"))
	b.WriteString("\n\n")

	rows := [][2]string{
		{"tab", "switch between evidence and hypotheses"},
		{"↑/↓  shift+tab", "move between evidence fields"},
		{"enter", "apply the field and move to the next"},
		{"ctrl+f", "toggle complement fill for sibling states"},
		{"ctrl+r", "recompute without waiting for the debounce"},
		{"ctrl+s  s", "save the session (plain s from the hypotheses pane)"},
		{"enter  e", "explain the selected hypothesis"},
		{"?", "this overlay"},
		{"q  ctrl+c", "quit"},
	}
	for _, r := range rows {
		b.WriteString("  ")
		b.WriteString(m.styles.Bold.Render(fmt.Sprintf("%-15s", r[0])))
		b.WriteString(" ")
		b.WriteString(m.styles.Body.Render(r[1]))
		b.WriteString("\n")
	}
	return b.String()
}
