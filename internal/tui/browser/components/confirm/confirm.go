// Package confirm is the yes/no dialog shown before an item is deleted.
package confirm

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mattsolo1/grove-ged/pkg/models"
)

// ConfirmedMsg carries the item the user agreed to delete.
type ConfirmedMsg struct {
	Item models.Item
}

// CancelledMsg is sent when the user backs out.
type CancelledMsg struct{}

var (
	borderColor = lipgloss.Color("#ef4444")
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(borderColor).Padding(1, 2)
	titleStyle  = lipgloss.NewStyle().Bold(true)
	pathStyle   = lipgloss.NewStyle().Faint(true)
	warnStyle   = lipgloss.NewStyle().Foreground(borderColor)
)

type Model struct {
	Active bool
	Item   models.Item
	keys   keyMap
}

func New() Model {
	return Model{keys: defaultKeyMap}
}

// Activate opens the dialog for item.
func (m *Model) Activate(item models.Item) {
	m.Item = item
	m.Active = true
}

// Prompt is the question asked for the current item.
func (m Model) Prompt() string {
	return fmt.Sprintf("Delete %s %q?", m.Item.Kind.Label(), m.Item.FileName())
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.Active {
		return m, nil
	}
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Confirm):
			m.Active = false
			item := m.Item
			return m, func() tea.Msg { return ConfirmedMsg{Item: item} }
		case key.Matches(msg, m.keys.Cancel):
			m.Active = false
			return m, func() tea.Msg { return CancelledMsg{} }
		}
	}
	return m, nil
}

func (m Model) View() string {
	if !m.Active {
		return ""
	}

	lines := []string{titleStyle.Render(m.Prompt())}
	if m.Item.Path != "" {
		lines = append(lines, pathStyle.Render(m.Item.Path))
	}
	if !m.Item.IsDocument() {
		n := m.Item.ChildCount()
		switch {
		case n == 1:
			lines = append(lines, warnStyle.Render("Its 1 item is deleted too."))
		case n > 1:
			lines = append(lines, warnStyle.Render(fmt.Sprintf("Its %d items are deleted too.", n)))
		}
	}
	box := boxStyle.Render(strings.Join(lines, "\n"))

	hint := lipgloss.NewStyle().
		Faint(true).
		Width(lipgloss.Width(box)).
		Align(lipgloss.Center).
		Render(fmt.Sprintf("%s  %s", m.keys.Confirm.Help().Desc, m.keys.Cancel.Help().Desc))

	return lipgloss.JoinVertical(lipgloss.Left, box, hint)
}

type keyMap struct {
	Confirm key.Binding
	Cancel  key.Binding
}

var defaultKeyMap = keyMap{
	Confirm: key.NewBinding(
		key.WithKeys("y", "Y"),
		key.WithHelp("y", "y: delete"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("n", "N", "esc"),
		key.WithHelp("n/esc", "n/esc: keep"),
	),
}
