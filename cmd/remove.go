package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-ged/pkg/service"
)

func NewRemoveCmd(svc **service.Service) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "remove <id>",
		Short:   "Delete an item and everything below it",
		Aliases: []string{"rm"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s := *svc
			if err := connect(ctx, s); err != nil {
				return err
			}

			item, err := fetchItem(ctx, s, args[0])
			if err != nil {
				return err
			}

			if !yes {
				if !isatty.IsTerminal(os.Stdin.Fd()) {
					return fmt.Errorf("refusing to delete %s without --yes", item.Path)
				}
				what := item.Path
				if n := item.ChildCount(); n > 0 {
					what = fmt.Sprintf("%s and its %d children", item.Path, n)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Delete %s %s? [y/N] ", kindLabel(item.Kind), what)
				answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
					fmt.Fprintln(cmd.ErrOrStderr(), "Aborted")
					return nil
				}
			}

			if err := s.Delete(ctx, *item); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", item.Path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}
