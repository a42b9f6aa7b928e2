// Package ui provides an optional terminal board over the task graph.
package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/taskweave/taskweave/internal/selector"
	"github.com/taskweave/taskweave/internal/store"
	"github.com/taskweave/taskweave/internal/view"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	headerStyle = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Faint(true)
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	wipStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	blockStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// RunTUI starts the board for the tasks file at path. The board is a
// read-only viewer; it reloads the file once per second.
func RunTUI(ctx context.Context, path, schemaPath string) error {
	if !IsTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY")
	}
	model := &boardModel{path: path, schemaPath: schemaPath, tickInterval: time.Second}
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

type boardModel struct {
	path         string
	schemaPath   string
	tickInterval time.Duration

	loadErr error
	rows    []view.Row
	counts  map[store.Status]int
	next    string
	filter  store.Status
}

type tickMsg time.Time

func (m *boardModel) Init() tea.Cmd {
	m.refresh()
	return tickCmd(m.tickInterval)
}

func (m *boardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r", "f5":
			m.refresh()
			return m, nil
		case "1":
			m.filter = store.StatusPending
			return m, nil
		case "2":
			m.filter = store.StatusInProgress
			return m, nil
		case "3":
			m.filter = store.StatusBlocked
			return m, nil
		case "4":
			m.filter = store.StatusDone
			return m, nil
		case "0":
			m.filter = ""
			return m, nil
		}
	case tickMsg:
		m.refresh()
		return m, tickCmd(m.tickInterval)
	}
	return m, nil
}

func (m *boardModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("taskweave") + "\n\n")

	if m.loadErr != nil {
		b.WriteString("Error loading tasks file:\n  " + m.loadErr.Error() + "\n\n")
		m.writeFooter(&b)
		return b.String()
	}

	b.WriteString(headerStyle.Render("Overview") + "\n")
	fmt.Fprintf(&b, "  pending: %d  in-progress: %d  blocked: %d  deferred: %d  done: %d\n\n",
		m.counts[store.StatusPending], m.counts[store.StatusInProgress],
		m.counts[store.StatusBlocked], m.counts[store.StatusDeferred],
		m.counts[store.StatusDone])

	b.WriteString(headerStyle.Render("Next up") + "\n")
	if m.next == "" {
		b.WriteString(dimStyle.Render("  nothing eligible") + "\n\n")
	} else {
		b.WriteString("  " + m.next + "\n\n")
	}

	if m.filter != "" {
		fmt.Fprintf(&b, "Filter: %s (0 to clear)\n\n", m.filter)
	}

	b.WriteString(headerStyle.Render("Nodes") + "\n")
	for _, row := range m.rows {
		if m.filter != "" && store.NormalizeStatus(row.Status) != m.filter {
			continue
		}
		fmt.Fprintf(&b, "  %-6s %s %s\n", row.Addr, statusGlyph(row.Status), row.Title)
	}
	b.WriteString("\n")

	m.writeFooter(&b)
	return b.String()
}

func (m *boardModel) writeFooter(b *strings.Builder) {
	b.WriteString(dimStyle.Render(
		fmt.Sprintf("q quit · r refresh · 1-4 filter · 0 clear · reloads every %s", m.tickInterval)))
	b.WriteString("\n")
}

func (m *boardModel) refresh() {
	doc, err := store.LoadWithSchema(m.path, m.schemaPath)
	if err != nil {
		m.loadErr = err
		m.rows = nil
		return
	}
	m.loadErr = nil
	m.rows = view.Rows(doc)
	m.counts = view.Counts(doc)
	m.next = ""
	if n, ok := selector.Next(doc); ok {
		m.next = fmt.Sprintf("%s  %s", n.Addr, n.Title())
	}
}

func statusGlyph(s store.Status) string {
	switch store.NormalizeStatus(s) {
	case store.StatusDone:
		return doneStyle.Render("✓")
	case store.StatusInProgress:
		return wipStyle.Render("▸")
	case store.StatusBlocked:
		return blockStyle.Render("✗")
	case store.StatusDeferred:
		return dimStyle.Render("~")
	default:
		return "·"
	}
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
