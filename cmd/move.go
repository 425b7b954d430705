package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-ged/pkg/service"
)

func NewMoveCmd(svc **service.Service) *cobra.Command {
	var out outputFormat

	cmd := &cobra.Command{
		Use:     "move <id> <destination-id>",
		Short:   "Move an item into another container",
		Aliases: []string{"mv"},
		Long: `Move an item and everything below it into another container.
Use 'ged tree --json' to find destination IDs.`,
		Args: cobra.ExactArgs(2),
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
			moved, err := s.Move(ctx, *item, args[1])
			if err != nil {
				return err
			}
			if out.structured() {
				return out.emit(cmd.OutOrStdout(), moved)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved %s to %s\nNew ID: %s\n", item.Name, moved.Path, moved.ID)
			return nil
		},
	}

	addOutputFlags(cmd, &out)
	return cmd
}
