package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-ged/pkg/models"
	"github.com/mattsolo1/grove-ged/pkg/service"
)

func NewCreateCmd(svc **service.Service) *cobra.Command {
	var (
		out      outputFormat
		parentID string
		kind     string
	)

	cmd := &cobra.Command{
		Use:     "create <name>",
		Short:   "Create a cabinet or a container",
		Aliases: []string{"mkdir"},
		Long: `Create a container. Without --parent a cabinet is created; with a parent
the new item is one level below it.

Examples:
  ged create Archives                       # New cabinet
  ged create 2024 --parent <cabinet-id>     # New shelf in a cabinet
  ged create Q1 --parent <folder-id> --kind divider`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s := *svc
			if err := connect(ctx, s); err != nil {
				return err
			}

			level := models.LevelCabinet
			if parentID != "" {
				parent, err := fetchItem(ctx, s, parentID)
				if err != nil {
					return err
				}
				level = parent.Level().Child()
			}
			if kind != "" {
				want, err := models.ParseLevel(kind)
				if err != nil {
					return err
				}
				if want != level {
					return fmt.Errorf("a %s cannot be created here; the parent takes a %s", want, level)
				}
			}

			item, err := s.CreateItem(ctx, parentID, args[0], level)
			if err != nil {
				return err
			}
			if out.structured() {
				return out.emit(cmd.OutOrStdout(), item)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s %s (%s)\n", kindLabel(item.Kind), item.Name, item.ID)
			return nil
		},
	}

	addOutputFlags(cmd, &out)
	cmd.Flags().StringVarP(&parentID, "parent", "p", "", "ID of the parent container")
	cmd.Flags().StringVarP(&kind, "kind", "k", "", "Expected kind of the new item, checked against the parent")
	return cmd
}
