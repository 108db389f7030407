package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestSimpleTable(t *testing.T) {
	table := NewSimpleTable("Hypotheses", []string{"Hypothesis", "CF"})
	table.AddRow("tomorrow is rain", "+0.8425")

	styles := DefaultStyles()
	view := table.View(styles)

	t.Logf("View:\n%q", view)

	if !strings.Contains(view, "Hypotheses") {
		t.Error("View missing title")
	}
	if !strings.Contains(view, "tomorrow is rain") {
		t.Error("View missing cell content")
	}
	if !strings.Contains(view, "+0.8425") {
		t.Error("View missing CF column")
	}
}

func TestSimpleTableEmpty(t *testing.T) {
	table := NewSimpleTable("Empty", []string{"A"})
	if got := table.View(DefaultStyles()); got != "" {
		t.Errorf("empty table should render nothing, got %q", got)
	}
}

func TestSimpleTableCellStyle(t *testing.T) {
	table := NewSimpleTable("", []string{"A", "B"})
	table.AddRow("x", "y")

	var calls int
	bold := lipgloss.NewStyle().Bold(true)
	table.CellStyle = func(row, col int) *lipgloss.Style {
		calls++
		if col == 1 {
			return &bold
		}
		return nil
	}

	view := table.View(DefaultStyles())
	if calls != 2 {
		t.Errorf("CellStyle called %d times, want 2", calls)
	}
	if !strings.Contains(view, "x") || !strings.Contains(view, "y") {
		t.Error("View missing styled cells")
	}
}
