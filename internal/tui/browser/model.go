package browser

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mattsolo1/grove-ged/internal/tui/browser/components/confirm"
	"github.com/mattsolo1/grove-ged/pkg/models"
	"github.com/mattsolo1/grove-ged/pkg/service"
)

type mode int

const (
	modeBrowse mode = iota
	modeSearch      // typing a query
	modeResults     // moving through overlay results
	modePrompt      // one-line text dialog
	modeMove        // picking a destination container
	modeFavorites   // favorites list
)

type promptKind int

const (
	promptCreate promptKind = iota
	promptRename
	promptTag
)

// Model is the column browser.
type Model struct {
	ctx  context.Context
	svc  *service.Service
	keys KeyMap
	help help.Model

	width  int
	height int

	view   service.View
	mode   mode
	focus  models.Level
	cursor [models.LevelCount]int

	searchInput   textinput.Model
	resultCursor  int
	prompt        textinput.Model
	promptKind    promptKind
	promptLevel   models.Level
	promptTarget  *models.Item
	moveItem      models.Item
	moveTargets   []moveTarget
	moveCursor    int
	favCursor     int
	confirm       confirm.Model
	status        string
	statusIsError bool
}

// New creates the browser over svc. Calls into svc use ctx.
func New(ctx context.Context, svc *service.Service) Model {
	si := textinput.New()
	si.Placeholder = "search names and paths..."
	si.Prompt = "/ "
	si.CharLimit = 256

	pr := textinput.New()
	pr.CharLimit = 255

	return Model{
		ctx:         ctx,
		svc:         svc,
		keys:        keys,
		help:        help.New(),
		view:        svc.Snapshot(),
		searchInput: si,
		prompt:      pr,
		confirm:     confirm.New(),
	}
}

// Init connects to the service.
func (m Model) Init() tea.Cmd {
	return tea.Batch(connectCmd(m.ctx, m.svc), textinput.Blink)
}

// StateChanged returns the message a program should receive whenever the
// service state changes.
func StateChanged() tea.Msg { return stateChangedMsg{} }

// visibleLevels lists the columns worth drawing: cabinets always, deeper
// levels once they have a listing or are loading.
func (m Model) visibleLevels() []models.Level {
	out := []models.Level{models.LevelCabinet}
	for _, l := range models.Levels()[1:] {
		if m.view.Nav.Listings[l] != nil || m.view.Nav.Loading[l] {
			out = append(out, l)
		}
	}
	return out
}

func (m Model) isVisible(level models.Level) bool {
	for _, l := range m.visibleLevels() {
		if l == level {
			return true
		}
	}
	return false
}

// current returns the item under the cursor in the focused column.
func (m Model) current() (models.Item, bool) {
	items := m.view.Nav.Listing(m.focus)
	c := m.cursor[m.focus]
	if c < 0 || c >= len(items) {
		return models.Item{}, false
	}
	return items[c], true
}

// clamp keeps the cursors and the focus inside what the snapshot shows.
func (m *Model) clamp() {
	for _, l := range models.Levels() {
		n := len(m.view.Nav.Listings[l])
		if m.cursor[l] >= n {
			m.cursor[l] = n - 1
		}
		if m.cursor[l] < 0 {
			m.cursor[l] = 0
		}
	}
	for !m.isVisible(m.focus) && m.focus > models.LevelCabinet {
		m.focus--
	}
	m.resultCursor = clampIndex(m.resultCursor, len(m.view.Search.Results))
	m.favCursor = clampIndex(m.favCursor, len(m.view.Favorites))
	m.moveCursor = clampIndex(m.moveCursor, len(m.moveTargets))
}

func clampIndex(i, n int) int {
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusIsError = isErr
}
