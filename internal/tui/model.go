// Package tui is a terminal front end for the layer editor.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/joeblew999/geo-layers/internal/service"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	headerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	emptyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
)

// ApplyFunc writes a new draw order back to the map.
type ApplyFunc func(drawOrder []service.LayerConfig) error

// Model edits one map's layer order. Every change is applied through the
// ApplyFunc given to New as soon as it happens.
type Model struct {
	editor *service.LayerEditor[service.LayerConfig]
	cursor service.Position
	help   help.Model
	status string
	err    error
}

var _ tea.Model = (*Model)(nil)

// New creates a model over the map's draw order.
func New(drawOrder []service.LayerConfig, apply ApplyFunc) *Model {
	m := &Model{help: help.New()}
	m.editor = service.NewLayerEditor(drawOrder, func(layers []service.LayerConfig) {
		if apply == nil {
			return
		}
		m.err = apply(layers)
	})
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	m.status = ""
	switch {
	case key.Matches(keyMsg, keys.Quit):
		return m, tea.Quit
	case key.Matches(keyMsg, keys.Up):
		m.moveCursor(-1)
	case key.Matches(keyMsg, keys.Down):
		m.moveCursor(1)
	case key.Matches(keyMsg, keys.Switch):
		m.switchSection()
	case key.Matches(keyMsg, keys.MoveUp):
		m.reorder(-1)
	case key.Matches(keyMsg, keys.MoveDown):
		m.reorder(1)
	case key.Matches(keyMsg, keys.Remove):
		m.remove()
	case key.Matches(keyMsg, keys.Restore):
		m.restore()
	}
	return m, nil
}

// Err returns the error from the most recent ApplyFunc call, or nil if it
// succeeded.
func (m *Model) Err() error {
	return m.err
}

// Cursor returns the selected row.
func (m *Model) Cursor() service.Position {
	return m.cursor
}

// Editor returns the underlying editor.
func (m *Model) Editor() *service.LayerEditor[service.LayerConfig] {
	return m.editor
}

func (m *Model) moveCursor(delta int) {
	n := m.editor.Count(m.cursor.Section)
	if n == 0 {
		return
	}
	m.cursor.Row = min(max(m.cursor.Row+delta, 0), n-1)
}

func (m *Model) switchSection() {
	if m.cursor.Section == service.SectionOperational {
		m.cursor.Section = service.SectionRemoved
	} else {
		m.cursor.Section = service.SectionOperational
	}
	m.clampCursor()
}

// reorder swaps the selected row with its neighbour. Removed rows stay put
// since the editor clamps moves outside the operational list.
func (m *Model) reorder(delta int) {
	if m.editor.Count(m.cursor.Section) == 0 {
		return
	}
	to := service.Position{Section: m.cursor.Section, Row: m.cursor.Row + delta}
	if to.Row < 0 || to.Row >= m.editor.Count(to.Section) {
		return
	}
	if m.editor.Reorder(m.cursor, to) {
		m.cursor = to
		return
	}
	m.status = "Only layers on the map can be reordered"
}

func (m *Model) remove() {
	if m.cursor.Section != service.SectionOperational || m.editor.Count(service.SectionOperational) == 0 {
		return
	}
	name := m.editor.At(m.cursor).DisplayName()
	m.editor.Remove(m.cursor.Row)
	m.status = fmt.Sprintf("Removed %s", name)
	m.clampCursor()
}

func (m *Model) restore() {
	if m.cursor.Section != service.SectionRemoved || m.editor.Count(service.SectionRemoved) == 0 {
		return
	}
	name := m.editor.At(m.cursor).DisplayName()
	m.editor.Restore(m.cursor.Row)
	m.status = fmt.Sprintf("Restored %s on top", name)
	m.clampCursor()
}

func (m *Model) clampCursor() {
	n := m.editor.Count(m.cursor.Section)
	m.cursor.Row = max(min(m.cursor.Row, n-1), 0)
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Map layers"))
	b.WriteString("\n\n")
	m.renderSection(&b, service.SectionOperational, "On the map (top first)", "No layers on the map")
	b.WriteString("\n")
	m.renderSection(&b, service.SectionRemoved, "Removed", "Nothing removed")

	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render("Error: "+m.err.Error()) + "\n")
	} else if m.status != "" {
		b.WriteString("\n" + statusStyle.Render(m.status) + "\n")
	}
	b.WriteString("\n" + m.help.View(keys))
	return b.String()
}

func (m *Model) renderSection(b *strings.Builder, section service.Section, title, empty string) {
	b.WriteString(headerStyle.Render(title))
	b.WriteString("\n")
	rows := m.editor.List(section)
	if len(rows) == 0 {
		b.WriteString("  " + emptyStyle.Render(empty) + "\n")
		return
	}
	for _, r := range rows {
		line := "  " + r.Name
		if m.cursor.Section == section && m.cursor.Row == r.Index {
			line = selectedStyle.Render("> " + r.Name)
		}
		b.WriteString(line + "\n")
	}
}
