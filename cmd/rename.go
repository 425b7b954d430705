package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-ged/pkg/service"
)

func NewRenameCmd(svc **service.Service) *cobra.Command {
	var out outputFormat

	cmd := &cobra.Command{
		Use:   "rename <id> <new-name>",
		Short: "Rename an item",
		Long: `Rename an item. For documents the extension is kept, so only the base
name needs to be given. The ID of the item changes with its name.

Examples:
  ged rename <doc-id> march-invoice   # invoice.pdf -> march-invoice.pdf`,
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
			updated, err := s.Rename(ctx, *item, args[1])
			if err != nil {
				return err
			}
			if out.structured() {
				return out.emit(cmd.OutOrStdout(), updated)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s -> %s\nNew ID: %s\n", item.Name, updated.Name, updated.ID)
			return nil
		},
	}

	addOutputFlags(cmd, &out)
	return cmd
}
