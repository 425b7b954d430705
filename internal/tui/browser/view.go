package browser

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mattsolo1/grove-ged/pkg/models"
	"github.com/mattsolo1/grove-ged/pkg/search"
	"github.com/mattsolo1/grove-ged/pkg/service"
)

const minColumnWidth = 18

func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	if m.help.ShowAll {
		b.WriteString(m.help.View(m.keys))
		return b.String()
	}

	var body string
	switch {
	case m.mode == modeFavorites:
		body = m.renderFavorites()
	case m.view.Connection.State == service.ConnDisconnected:
		body = m.renderDisconnected()
	case m.mode == modeMove:
		body = m.renderMoveTargets()
	case m.mode == modeSearch || m.mode == modeResults || m.view.Search.Active:
		body = m.renderResults()
	default:
		body = m.renderColumns()
	}
	if p := m.view.UI.Preview; p != nil {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, " ", m.renderDetails(*p))
	}
	b.WriteString(body)
	b.WriteString("\n")

	switch {
	case m.confirm.Active:
		b.WriteString(m.confirm.View())
		b.WriteString("\n")
	case m.mode == modePrompt:
		b.WriteString(m.renderPrompt())
		b.WriteString("\n")
	}

	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) renderHeader() string {
	conn := m.view.Connection
	var state string
	switch conn.State {
	case service.ConnConnected:
		state = okStyle.Render("● connected")
	case service.ConnDisconnected:
		state = errorStyle.Render("● disconnected")
	default:
		state = warnStyle.Render("● checking")
	}
	parts := []string{headerStyle.Render("ged"), state}
	if conn.URL != "" {
		parts = append(parts, mutedStyle.Render(conn.URL))
	}

	var crumbs []string
	for _, c := range m.view.Nav.Breadcrumb() {
		crumbs = append(crumbs, c.Name)
	}
	line := strings.Join(parts, "  ")
	if len(crumbs) > 0 {
		line += "\n" + mutedStyle.Render(strings.Join(crumbs, " › "))
	}
	return line
}

func (m Model) renderDisconnected() string {
	msg := "Cannot reach the document service."
	if e := m.view.Connection.Error; e != "" {
		msg += "\n" + mutedStyle.Render(e)
	}
	msg += "\n\nPress R to retry, F for cached favorites."
	return disconnectedBanner.Render(msg)
}

func (m Model) bodyHeight() int {
	// Header, status and short help lines.
	h := m.height - 6
	if h < 3 {
		h = 3
	}
	return h
}

func (m Model) renderColumns() string {
	levels := m.visibleLevels()
	width := m.width / len(levels)
	if m.view.UI.Preview != nil {
		width = (m.width * 2 / 3) / len(levels)
	}
	if width < minColumnWidth {
		width = minColumnWidth
	}

	cols := make([]string, 0, len(levels))
	for _, l := range levels {
		cols = append(cols, m.renderColumn(l, width))
	}
	out := lipgloss.JoinHorizontal(lipgloss.Top, cols...)
	if e := m.view.Nav.Error; e != "" {
		out += "\n" + errorStyle.Render(e)
	}
	return out
}

func (m Model) renderColumn(level models.Level, width int) string {
	title := columnTitleStyle
	if level == m.focus {
		title = focusedTitleStyle
	}
	lines := []string{title.Render(strings.ToUpper(level.Plural()[:1]) + level.Plural()[1:])}

	items := m.view.Nav.Listing(level)
	switch {
	case m.view.Nav.Loading[level]:
		lines = append(lines, mutedStyle.Render("loading..."))
	case len(items) == 0:
		lines = append(lines, mutedStyle.Render("(empty)"))
	}

	selected, _ := m.view.Nav.Selected(level)
	start, end := window(m.cursor[level], len(items), m.bodyHeight()-1)
	for i := start; i < end; i++ {
		it := items[i]
		line := truncate(m.itemLabel(it), width-3)
		switch {
		case level == m.focus && i == m.cursor[level]:
			line = cursorStyle.Render(line)
		case it.ID == selected.ID:
			line = selectedStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return columnStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func (m Model) itemLabel(it models.Item) string {
	if it.IsDocument() {
		label := it.FileName()
		if m.svc.Favorites.IsFavorite(it.ID) {
			label = "★ " + label
		}
		return label
	}
	if n := it.ChildCount(); n > 0 {
		return fmt.Sprintf("%s (%d)", it.Name, n)
	}
	return it.Name
}

// window returns the slice bounds that keep cursor visible in height rows.
func window(cursor, n, height int) (int, int) {
	if height <= 0 || n <= height {
		return 0, n
	}
	start := cursor - height/2
	if start < 0 {
		start = 0
	}
	if start+height > n {
		start = n - height
	}
	return start, start + height
}

func (m Model) renderResults() string {
	s := m.view.Search
	var lines []string
	if m.mode == modeSearch {
		lines = append(lines, m.searchInput.View())
	} else if label := s.Label(); label != "" {
		lines = append(lines, headerStyle.Render(label))
	}

	switch {
	case s.Loading:
		lines = append(lines, mutedStyle.Render("searching..."))
	case s.Error != "":
		lines = append(lines, errorStyle.Render(s.Error))
	case s.Active && len(s.Results) == 0:
		lines = append(lines, mutedStyle.Render("No results"))
	case !s.Active:
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("Type at least %d characters", search.MinQueryLength)))
	}

	start, end := window(m.resultCursor, len(s.Results), m.bodyHeight()-2)
	for i := start; i < end; i++ {
		it := s.Results[i]
		line := fmt.Sprintf("%-9s %s", it.Kind.Label(), it.Path)
		if it.Path == "" {
			line = fmt.Sprintf("%-9s %s", it.Kind.Label(), it.Name)
		}
		line = truncate(line, m.width-4)
		if m.mode == modeResults && i == m.resultCursor {
			line = cursorStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderFavorites() string {
	title := "Favorites"
	if m.view.Provisional {
		title += mutedStyle.Render(" (syncing)")
	}
	lines := []string{headerStyle.Render(title)}
	if len(m.view.Favorites) == 0 {
		lines = append(lines, mutedStyle.Render("No favorites yet. Press f on a document to add one."))
	}
	for i, it := range m.view.Favorites {
		line := truncate("★ "+it.FileName()+"  "+it.Path, m.width-4)
		if i == m.favCursor {
			line = cursorStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderMoveTargets() string {
	lines := []string{headerStyle.Render(fmt.Sprintf("Move %q to:", m.moveItem.Name))}
	if modal := m.view.UI.Modal; modal != nil && modal.Error != "" {
		lines = append(lines, errorStyle.Render(modal.Error))
	}
	if m.moveTargets == nil {
		lines = append(lines, mutedStyle.Render("loading..."))
	}
	start, end := window(m.moveCursor, len(m.moveTargets), m.bodyHeight()-2)
	for i := start; i < end; i++ {
		t := m.moveTargets[i]
		line := strings.Repeat("  ", t.depth) + t.node.Name + mutedStyle.Render(" "+t.node.Kind.Label())
		if i == m.moveCursor {
			line = cursorStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderDetails(it models.Item) string {
	rows := [][2]string{
		{"Name", it.FileName()},
		{"Kind", it.Kind.Label()},
		{"Path", it.Path},
	}
	if it.Document != nil {
		rows = append(rows,
			[2]string{"Size", humanSize(it.Document.Size)},
			[2]string{"Type", it.Document.MimeType},
		)
	} else {
		rows = append(rows, [2]string{"Items", fmt.Sprint(it.ChildCount())})
	}
	if !it.ModifiedAt.IsZero() {
		rows = append(rows, [2]string{"Modified", it.ModifiedAt.Format("2006-01-02 15:04")})
	}

	var lines []string
	for _, r := range rows {
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("%-9s", r[0]))+" "+r[1])
	}
	if it.IsDocument() {
		tagNames, ok := m.svc.Tags.ForItem(it.ID)
		if !ok {
			tagNames = it.Tags
		}
		var chips []string
		for _, t := range tagNames {
			chips = append(chips, tagStyle(m.svc.Tags.Color(t)).Render("#"+t))
		}
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("%-9s", "Tags"))+" "+strings.Join(chips, " "))
		if m.svc.Favorites.IsFavorite(it.ID) {
			lines = append(lines, warnStyle.Render("★ favorite"))
		}
		lines = append(lines, mutedStyle.Render(m.svc.Client.PreviewURL(it.ID, "")))
	}
	width := m.width / 3
	if width < 30 {
		width = 30
	}
	return detailsStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func (m Model) renderPrompt() string {
	var title string
	switch m.promptKind {
	case promptCreate:
		title = fmt.Sprintf("New %s", m.promptLevel)
		if m.promptTarget != nil {
			title += " in " + m.promptTarget.Name
		}
	case promptRename:
		title = fmt.Sprintf("Rename %q", m.promptTarget.Name)
		if ext := m.promptTarget.Extension(); ext != "" {
			title += mutedStyle.Render(" (." + ext + " is kept)")
		}
	case promptTag:
		title = "Filter by tag"
	}
	lines := []string{headerStyle.Render(title), m.prompt.View()}
	if modal := m.view.UI.Modal; modal != nil {
		if modal.Busy {
			lines = append(lines, mutedStyle.Render("working..."))
		} else if modal.Error != "" {
			lines = append(lines, errorStyle.Render(modal.Error))
		}
	}
	lines = append(lines, mutedStyle.Render("enter to confirm, esc to cancel"))
	return dialogStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) renderStatus() string {
	if m.status == "" {
		return ""
	}
	if m.statusIsError {
		return errorStyle.Render(m.status)
	}
	return mutedStyle.Render(m.status)
}

func truncate(s string, max int) string {
	if max <= 3 {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
