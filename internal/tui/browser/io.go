package browser

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mattsolo1/grove-ged/pkg/models"
	"github.com/mattsolo1/grove-ged/pkg/service"
)

// stateChangedMsg is sent whenever the service reports a change.
type stateChangedMsg struct{}

// actionDoneMsg reports the end of an asynchronous action.
type actionDoneMsg struct {
	what string
	err  error
	// done is shown in the status line on success.
	done string
}

// openedMsg reports that item is now selected.
type openedMsg struct {
	item models.Item
	err  error
}

type moveTargetsMsg struct {
	targets []moveTarget
	err     error
}

// moveTarget is one line of the flattened container tree.
type moveTarget struct {
	node  models.TreeNode
	depth int
}

func runCmd(ctx context.Context, what, done string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{what: what, err: fn(ctx), done: done}
	}
}

func connectCmd(ctx context.Context, svc *service.Service) tea.Cmd {
	return runCmd(ctx, "connect", "", svc.Connect)
}

func reconnectCmd(ctx context.Context, svc *service.Service) tea.Cmd {
	return runCmd(ctx, "reconnect", "Reconnected", svc.Reconnect)
}

func selectCmd(ctx context.Context, svc *service.Service, item models.Item) tea.Cmd {
	return func() tea.Msg {
		return openedMsg{item: item, err: svc.Select(ctx, item)}
	}
}

// revealCmd selects every ancestor of item by walking its path, then item
// itself, so a search result opens in place in the columns.
func revealCmd(ctx context.Context, svc *service.Service, item models.Item) tea.Cmd {
	return func() tea.Msg {
		segs := strings.Split(strings.Trim(item.Path, "/"), "/")
		if item.Path == "" || len(segs) == 0 {
			return openedMsg{item: item, err: svc.Select(ctx, item)}
		}
		level := models.LevelCabinet
		for _, seg := range segs {
			nav := svc.Nav.Snapshot()
			candidates := nav.Listing(level)
			if level == models.LevelDivider {
				candidates = append(append([]models.Item{}, candidates...), nav.Listing(models.LevelDocument)...)
			}
			found, ok := findByName(candidates, seg)
			if !ok {
				return openedMsg{item: item, err: fmt.Errorf("%s is no longer listed", item.Path)}
			}
			if err := svc.Select(ctx, found); err != nil {
				return openedMsg{item: item, err: err}
			}
			if found.ID == item.ID || found.IsDocument() {
				return openedMsg{item: found}
			}
			level = found.Level().Child()
		}
		return openedMsg{item: item}
	}
}

func findByName(items []models.Item, name string) (models.Item, bool) {
	for _, it := range items {
		if it.Name == name || it.FileName() == name {
			return it, true
		}
	}
	return models.Item{}, false
}

func moveTargetsCmd(ctx context.Context, svc *service.Service, item models.Item) tea.Cmd {
	return func() tea.Msg {
		tree, err := svc.MoveTargets(ctx, int(models.LevelDivider))
		if err != nil {
			return moveTargetsMsg{err: err}
		}
		var targets []moveTarget
		for _, root := range tree {
			root.Walk(func(n models.TreeNode, depth int) {
				// An item cannot move into itself or below itself.
				if n.ID == item.ID || (item.Path != "" && len(n.Path) > len(item.Path) && n.Path[:len(item.Path)+1] == item.Path+"/") {
					return
				}
				targets = append(targets, moveTarget{node: n, depth: depth})
			})
		}
		return moveTargetsMsg{targets: targets}
	}
}
