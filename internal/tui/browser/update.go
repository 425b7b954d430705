package browser

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mattsolo1/grove-ged/internal/tui/browser/components/confirm"
	"github.com/mattsolo1/grove-ged/pkg/models"
	"github.com/mattsolo1/grove-ged/pkg/search"
	"github.com/mattsolo1/grove-ged/pkg/service"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case stateChangedMsg:
		m.refresh()
		return m, nil

	case actionDoneMsg:
		m.refresh()
		m.finishAction(msg)
		return m, nil

	case openedMsg:
		m.refresh()
		if msg.err != nil {
			m.setStatus(service.ErrorText(msg.err), true)
			return m, nil
		}
		m.focusOn(msg.item)
		return m, nil

	case moveTargetsMsg:
		if msg.err != nil {
			m.svc.HideModal()
			m.mode = modeBrowse
			m.setStatus(service.ErrorText(msg.err), true)
			return m, nil
		}
		m.moveTargets = msg.targets
		m.moveCursor = 0
		return m, nil

	case confirm.ConfirmedMsg:
		item := msg.Item
		return m, runCmd(m.ctx, "delete", fmt.Sprintf("Deleted %s", item.Name), func(ctx context.Context) error {
			return m.svc.Delete(ctx, item)
		})

	case confirm.CancelledMsg:
		m.svc.HideModal()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) refresh() {
	m.view = m.svc.Snapshot()
	m.clamp()
}

// finishAction updates the status line once an action returns. Errors of a
// modal action stay in the modal, which the service keeps open.
func (m *Model) finishAction(msg actionDoneMsg) {
	if msg.err != nil {
		if modal := m.view.UI.Modal; modal != nil && modal.Error != "" {
			if modal.Kind != service.ModalDelete {
				return
			}
			// The confirmation is already gone.
			m.svc.HideModal()
		}
		m.setStatus(fmt.Sprintf("%s: %s", msg.what, service.ErrorText(msg.err)), true)
		return
	}
	if m.mode == modePrompt || m.mode == modeMove {
		if m.view.UI.Modal == nil {
			m.mode = modeBrowse
		}
	}
	if msg.done != "" {
		m.setStatus(msg.done, false)
	}
}

// focusOn moves the focus below a container that was just opened, or onto a
// selected document.
func (m *Model) focusOn(item models.Item) {
	level := item.Level()
	for i, it := range m.view.Nav.Listing(level) {
		if it.ID == item.ID {
			m.cursor[level] = i
		}
	}
	if item.IsDocument() {
		m.focus = level
		return
	}
	child := level.Child()
	if child == models.LevelDivider && len(m.view.Nav.Listing(child)) == 0 {
		child = models.LevelDocument
	}
	if m.isVisible(child) {
		m.focus = child
		m.cursor[child] = 0
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.confirm.Active {
		var cmd tea.Cmd
		m.confirm, cmd = m.confirm.Update(msg)
		return m, cmd
	}
	if m.help.ShowAll {
		if key.Matches(msg, m.keys.Help) || key.Matches(msg, m.keys.Back) || key.Matches(msg, m.keys.Quit) {
			m.help.ShowAll = false
		}
		return m, nil
	}

	switch m.mode {
	case modeSearch:
		return m.handleSearchKey(msg)
	case modeResults:
		return m.handleResultsKey(msg)
	case modePrompt:
		return m.handlePromptKey(msg)
	case modeMove:
		return m.handleMoveKey(msg)
	case modeFavorites:
		return m.handleFavoritesKey(msg)
	}
	return m.handleBrowseKey(msg)
}

func (m Model) handleBrowseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.view.Connection.State == service.ConnDisconnected {
		switch {
		case key.Matches(msg, m.keys.Refresh):
			m.setStatus("Reconnecting...", false)
			return m, reconnectCmd(m.ctx, m.svc)
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Favorites):
			m.mode = modeFavorites
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = true
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = true

	case key.Matches(msg, m.keys.Up):
		if m.cursor[m.focus] > 0 {
			m.cursor[m.focus]--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor[m.focus] < len(m.view.Nav.Listing(m.focus))-1 {
			m.cursor[m.focus]++
		}

	case key.Matches(msg, m.keys.Left):
		levels := m.visibleLevels()
		for i := len(levels) - 1; i >= 0; i-- {
			if levels[i] < m.focus {
				m.focus = levels[i]
				break
			}
		}

	case key.Matches(msg, m.keys.Right):
		for _, l := range m.visibleLevels() {
			if l > m.focus {
				m.focus = l
				break
			}
		}

	case key.Matches(msg, m.keys.Open):
		item, ok := m.current()
		if !ok {
			return m, nil
		}
		if item.IsDocument() {
			m.svc.OpenPreview(&item)
		}
		return m, selectCmd(m.ctx, m.svc, item)

	case key.Matches(msg, m.keys.Back):
		if m.view.UI.Preview != nil {
			m.svc.OpenPreview(nil)
		} else if m.view.Search.Active {
			m.svc.Search.Clear()
		}

	case key.Matches(msg, m.keys.Search):
		m.mode = modeSearch
		m.searchInput.SetValue(m.view.Search.Query)
		m.searchInput.CursorEnd()
		cmd := m.searchInput.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.FilterTag):
		cmd := m.openPrompt(promptTag, m.focus, nil, "")
		return m, cmd

	case key.Matches(msg, m.keys.Create):
		if m.focus == models.LevelDocument {
			m.setStatus("Documents are added with 'ged upload'", true)
			return m, nil
		}
		var parent *models.Item
		if m.focus > models.LevelCabinet {
			p, ok := m.view.Nav.Selected(m.focus.Parent())
			if !ok {
				m.setStatus(fmt.Sprintf("Select a %s first", m.focus.Parent()), true)
				return m, nil
			}
			parent = &p
		}
		m.svc.ShowModal(service.ModalCreate, m.focus, parent)
		cmd := m.openPrompt(promptCreate, m.focus, parent, "")
		return m, cmd

	case key.Matches(msg, m.keys.Rename):
		item, ok := m.current()
		if !ok {
			return m, nil
		}
		m.svc.ShowModal(service.ModalRename, item.Level(), &item)
		cmd := m.openPrompt(promptRename, item.Level(), &item, item.BaseName())
		return m, cmd

	case key.Matches(msg, m.keys.Delete):
		item, ok := m.current()
		if !ok {
			return m, nil
		}
		m.svc.ShowModal(service.ModalDelete, item.Level(), &item)
		m.confirm.Activate(item)

	case key.Matches(msg, m.keys.Move):
		item, ok := m.current()
		if !ok {
			return m, nil
		}
		if item.Level() == models.LevelCabinet {
			m.setStatus("Cabinets cannot be moved", true)
			return m, nil
		}
		m.svc.OpenMoveTarget(item)
		m.moveItem = item
		m.moveTargets = nil
		m.mode = modeMove
		return m, moveTargetsCmd(m.ctx, m.svc, item)

	case key.Matches(msg, m.keys.Favorite):
		item, ok := m.current()
		if !ok {
			return m, nil
		}
		return m, runCmd(m.ctx, "favorite", "", func(ctx context.Context) error {
			return m.svc.ToggleFavorite(ctx, item)
		})

	case key.Matches(msg, m.keys.Favorites):
		m.mode = modeFavorites

	case key.Matches(msg, m.keys.Details):
		item, ok := m.current()
		if !ok {
			return m, nil
		}
		if m.view.UI.Preview != nil && m.view.UI.Preview.ID == item.ID {
			m.svc.OpenPreview(nil)
		} else {
			m.svc.OpenPreview(&item)
		}

	case key.Matches(msg, m.keys.URL):
		item, ok := m.current()
		if !ok || !item.IsDocument() {
			return m, nil
		}
		m.setStatus(m.svc.Client.DownloadURL(item.ID, ""), false)

	case key.Matches(msg, m.keys.Refresh):
		m.setStatus("Reconnecting...", false)
		return m, reconnectCmd(m.ctx, m.svc)
	}
	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.searchInput.Blur()
		m.searchInput.SetValue("")
		m.svc.Search.Clear()
		m.mode = modeBrowse
		return m, nil
	case tea.KeyEnter:
		q := strings.TrimSpace(m.searchInput.Value())
		if utf8.RuneCountInString(q) < search.MinQueryLength {
			m.setStatus(fmt.Sprintf("Type at least %d characters", search.MinQueryLength), true)
			return m, nil
		}
		m.searchInput.Blur()
		m.mode = modeResults
		m.resultCursor = 0
		m.setStatus("", false)
		return m, runCmd(m.ctx, "search", "", func(ctx context.Context) error {
			return m.svc.Search.Search(ctx, q)
		})
	}
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	if m.searchInput.Value() != m.view.Search.Query {
		m.svc.Search.SetQuery(m.searchInput.Value())
	}
	return m, cmd
}

func (m Model) handleResultsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	results := m.view.Search.Results
	switch {
	case key.Matches(msg, m.keys.Back):
		m.svc.Search.Clear()
		m.mode = modeBrowse
	case key.Matches(msg, m.keys.Search):
		m.mode = modeSearch
		cmd := m.searchInput.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.Up):
		if m.resultCursor > 0 {
			m.resultCursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.resultCursor < len(results)-1 {
			m.resultCursor++
		}
	case key.Matches(msg, m.keys.Details):
		if m.resultCursor < len(results) {
			item := results[m.resultCursor]
			m.svc.OpenPreview(&item)
		}
	case key.Matches(msg, m.keys.Open):
		if m.resultCursor >= len(results) {
			return m, nil
		}
		item := results[m.resultCursor]
		m.mode = modeBrowse
		m.searchInput.SetValue("")
		return m, revealCmd(m.ctx, m.svc, item)
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	}
	return m, nil
}

// openPrompt shows the one-line dialog.
func (m *Model) openPrompt(kind promptKind, level models.Level, target *models.Item, value string) tea.Cmd {
	m.mode = modePrompt
	m.promptKind = kind
	m.promptLevel = level
	m.promptTarget = target
	m.prompt.SetValue(value)
	m.prompt.CursorEnd()
	switch kind {
	case promptCreate:
		m.prompt.Placeholder = fmt.Sprintf("new %s name", level)
	case promptRename:
		m.prompt.Placeholder = "new name"
	case promptTag:
		m.prompt.Placeholder = "tag name"
	}
	return m.prompt.Focus()
}

func (m Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.prompt.Blur()
		m.svc.HideModal()
		m.mode = modeBrowse
		return m, nil
	case tea.KeyEnter:
		value := m.prompt.Value()
		switch m.promptKind {
		case promptCreate:
			level := m.promptLevel
			parentID := ""
			if m.promptTarget != nil {
				parentID = m.promptTarget.ID
			}
			return m, runCmd(m.ctx, "create", fmt.Sprintf("Created %s %q", level, strings.TrimSpace(value)), func(ctx context.Context) error {
				_, err := m.svc.CreateItem(ctx, parentID, value, level)
				return err
			})
		case promptRename:
			item := *m.promptTarget
			return m, runCmd(m.ctx, "rename", "Renamed", func(ctx context.Context) error {
				_, err := m.svc.Rename(ctx, item, value)
				return err
			})
		case promptTag:
			tag := strings.TrimSpace(value)
			m.prompt.Blur()
			if tag == "" {
				m.mode = modeBrowse
				return m, nil
			}
			m.mode = modeResults
			m.resultCursor = 0
			return m, runCmd(m.ctx, "tag filter", "", func(ctx context.Context) error {
				return m.svc.FilterByTag(ctx, tag)
			})
		}
	}
	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

func (m Model) handleMoveKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.svc.HideModal()
		m.mode = modeBrowse
	case key.Matches(msg, m.keys.Up):
		if m.moveCursor > 0 {
			m.moveCursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.moveCursor < len(m.moveTargets)-1 {
			m.moveCursor++
		}
	case key.Matches(msg, m.keys.Open):
		if m.moveCursor >= len(m.moveTargets) {
			return m, nil
		}
		item, dest := m.moveItem, m.moveTargets[m.moveCursor].node
		return m, runCmd(m.ctx, "move", fmt.Sprintf("Moved %s to %s", item.Name, dest.Path), func(ctx context.Context) error {
			_, err := m.svc.Move(ctx, item, dest.ID)
			return err
		})
	}
	return m, nil
}

func (m Model) handleFavoritesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	favs := m.view.Favorites
	switch {
	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Favorites):
		m.mode = modeBrowse
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.favCursor > 0 {
			m.favCursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.favCursor < len(favs)-1 {
			m.favCursor++
		}
	case key.Matches(msg, m.keys.Details):
		if m.favCursor < len(favs) {
			item := favs[m.favCursor]
			m.svc.OpenPreview(&item)
		}
	case key.Matches(msg, m.keys.Favorite):
		if m.favCursor >= len(favs) {
			return m, nil
		}
		item := favs[m.favCursor]
		return m, runCmd(m.ctx, "favorite", "", func(ctx context.Context) error {
			return m.svc.ToggleFavorite(ctx, item)
		})
	case key.Matches(msg, m.keys.Open):
		if m.favCursor >= len(favs) || m.view.Connection.State != service.ConnConnected {
			return m, nil
		}
		m.mode = modeBrowse
		return m, revealCmd(m.ctx, m.svc, favs[m.favCursor])
	}
	return m, nil
}
