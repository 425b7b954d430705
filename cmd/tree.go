package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-ged/pkg/models"
	"github.com/mattsolo1/grove-ged/pkg/service"
)

func NewTreeCmd(svc **service.Service) *cobra.Command {
	var (
		out   outputFormat
		depth int
	)

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the container tree",
		Long: `Print the containers of the store as a tree. Documents are not listed.

Examples:
  ged tree             # Cabinets down to folders
  ged tree --depth 2   # Cabinets, shelves and binders only`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s := *svc
			if err := connect(ctx, s); err != nil {
				return err
			}

			tree, err := s.MoveTargets(ctx, depth)
			if err != nil {
				return err
			}
			if out.structured() {
				return out.emit(cmd.OutOrStdout(), tree)
			}
			for _, root := range tree {
				root.Walk(func(n models.TreeNode, d int) {
					fmt.Fprintf(cmd.OutOrStdout(), "%s%s  (%s)\n", strings.Repeat("  ", d), n.Name, kindLabel(n.Kind))
				})
			}
			return nil
		},
	}

	addOutputFlags(cmd, &out)
	cmd.Flags().IntVar(&depth, "depth", 4, "Maximum depth below the cabinets")
	return cmd
}
