package cmd

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-ged/internal/logging"
	"github.com/mattsolo1/grove-ged/internal/tui/browser"
	"github.com/mattsolo1/grove-ged/pkg/service"
)

// NewTuiCmd creates the `ged tui` command.
func NewTuiCmd(svc **service.Service) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Browse the document store in an interactive terminal UI",
		Long: `Launch an interactive Terminal User Interface that shows the hierarchy as
columns, from cabinets down to documents, with search, tag filters,
favorites and the create, rename, move and delete dialogs.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Check for TTY
			if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
				return fmt.Errorf("TUI mode requires an interactive terminal")
			}

			s := *svc

			// Log lines would tear the alternate screen.
			restore := logging.Silence()
			defer restore()

			model := browser.New(cmd.Context(), s)
			p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))

			// Change callbacks may fire inside Update, so Send must not block it.
			s.SetOnChange(func() { go p.Send(browser.StateChanged()) })
			defer s.SetOnChange(nil)

			if _, err := p.Run(); err != nil {
				return fmt.Errorf("error running TUI: %w", err)
			}
			return nil
		},
	}
	return cmd
}
