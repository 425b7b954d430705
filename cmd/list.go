package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-ged/pkg/models"
	"github.com/mattsolo1/grove-ged/pkg/navigation"
	"github.com/mattsolo1/grove-ged/pkg/service"
)

func NewListCmd(svc **service.Service) *cobra.Command {
	var (
		out       outputFormat
		partition bool
	)

	cmd := &cobra.Command{
		Use:     "list [id]",
		Short:   "List cabinets or the children of an item",
		Aliases: []string{"ls"},
		Long: `List the cabinets, or the children of the container with the given ID.

Examples:
  ged ls                     # List cabinets
  ged ls <cabinet-id>        # List the shelves of a cabinet
  ged ls <folder-id> --split # Show dividers and documents separately`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s := *svc
			if err := connect(ctx, s); err != nil {
				return err
			}

			var (
				items []models.Item
				err   error
			)
			if len(args) == 0 {
				items, err = s.Client.Cabinets(ctx)
			} else {
				items, err = s.Client.Children(ctx, args[0])
			}
			if err != nil {
				return fmt.Errorf("list: %w", err)
			}

			if partition {
				dividers, documents := navigation.Partition(items)
				if out.structured() {
					return out.emit(cmd.OutOrStdout(), map[string][]models.Item{
						"dividers":  dividers,
						"documents": documents,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Dividers:")
				printItemsTable(cmd.OutOrStdout(), dividers)
				fmt.Fprintln(cmd.OutOrStdout(), "\nDocuments:")
				printItemsTable(cmd.OutOrStdout(), documents)
				return nil
			}

			if out.structured() {
				return out.emit(cmd.OutOrStdout(), items)
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "Nothing here")
				return nil
			}
			printItemsTable(cmd.OutOrStdout(), items)
			return nil
		},
	}

	addOutputFlags(cmd, &out)
	cmd.Flags().BoolVar(&partition, "split", false, "Split a folder listing into dividers and documents")

	return cmd
}
