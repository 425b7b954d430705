package confirm

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsolo1/grove-ged/pkg/models"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestConfirmCarriesItem(t *testing.T) {
	m := New()
	item := models.Item{ID: "x", Name: "Bills", Kind: models.KindBinder, Path: "Archives/2024/Bills",
		Container: &models.ContainerInfo{ChildCount: 3}}
	m.Activate(item)

	view := m.View()
	assert.Contains(t, view, `Delete binder "Bills"?`)
	assert.Contains(t, view, "Archives/2024/Bills")
	assert.Contains(t, view, "Its 3 items are deleted too.")

	m, cmd := m.Update(runes("y"))
	assert.False(t, m.Active)
	require.NotNil(t, cmd)
	assert.Equal(t, ConfirmedMsg{Item: item}, cmd())
}

func TestCancelAndInactive(t *testing.T) {
	m := New()
	_, cmd := m.Update(runes("y"))
	assert.Nil(t, cmd, "inactive dialog ignores keys")

	m.Activate(models.Item{ID: "d", Name: "a.pdf", Kind: models.KindDocument})
	m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.Active)
	require.NotNil(t, cmd)
	assert.Equal(t, CancelledMsg{}, cmd())
	assert.Empty(t, m.View())
}
