package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-ged/pkg/service"
)

func NewFavoritesCmd(svc **service.Service) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "favorites",
		Short:   "List and change favorite documents",
		Aliases: []string{"fav"},
	}

	var out outputFormat
	list := &cobra.Command{
		Use:   "list",
		Short: "List favorite documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s := *svc
			// A failed load falls back to the local copy.
			if err := s.Favorites.Load(ctx); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: service unavailable, showing cached favorites (%s)\n", service.ErrorText(err))
			}
			items := s.Favorites.Items()
			if out.structured() {
				return out.emit(cmd.OutOrStdout(), items)
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "No favorites")
				return nil
			}
			printItemsTable(cmd.OutOrStdout(), items)
			return nil
		},
	}
	addOutputFlags(list, &out)

	add := &cobra.Command{
		Use:   "add <id>",
		Short: "Mark a document as favorite",
		Args:  cobra.ExactArgs(1),
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
			if err := s.Favorites.Load(ctx); err != nil {
				return err
			}
			if s.Favorites.IsFavorite(item.ID) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is already a favorite\n", item.Name)
				return nil
			}
			if err := s.ToggleFavorite(ctx, *item); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s to favorites\n", item.Name)
			return nil
		},
	}

	remove := &cobra.Command{
		Use:     "remove <id>",
		Short:   "Remove a document from the favorites",
		Aliases: []string{"rm"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s := *svc
			if err := connect(ctx, s); err != nil {
				return err
			}
			if err := s.Favorites.Load(ctx); err != nil {
				return err
			}
			if err := s.Favorites.Remove(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Removed from favorites")
			return nil
		},
	}

	cmd.AddCommand(list, add, remove)
	return cmd
}
