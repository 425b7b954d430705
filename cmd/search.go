package cmd

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-ged/pkg/gateway"
	"github.com/mattsolo1/grove-ged/pkg/models"
	"github.com/mattsolo1/grove-ged/pkg/search"
	"github.com/mattsolo1/grove-ged/pkg/service"
)

func NewSearchCmd(svc **service.Service) *cobra.Command {
	var (
		out        outputFormat
		searchType string
		searchExt  string
		searchTag  string
	)

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search items by name, or list the items carrying a tag",
		Long: `Search the whole store by name.

Examples:
  ged search invoice               # Items whose name contains "invoice"
  ged search report --ext pdf      # PDF documents only
  ged search march --type dossier  # Folders only
  ged search --tag urgent          # Everything tagged "urgent"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s := *svc
			query := strings.TrimSpace(strings.Join(args, " "))

			if searchTag == "" && utf8.RuneCountInString(query) < search.MinQueryLength {
				return fmt.Errorf("query must be at least %d characters", search.MinQueryLength)
			}
			if err := connect(ctx, s); err != nil {
				return err
			}

			if searchTag != "" {
				if err := s.FilterByTag(ctx, searchTag); err != nil {
					return err
				}
			} else {
				filters := gateway.SearchFilters{Extension: searchExt}
				if searchType != "" {
					level, err := models.ParseLevel(searchType)
					if err != nil {
						return err
					}
					filters.Kind = level.Kind()
				}
				s.Search.SetFilters(filters)
				if err := s.Search.Search(ctx, query); err != nil {
					return err
				}
			}

			state := s.Search.Snapshot()
			if out.structured() {
				return out.emit(cmd.OutOrStdout(), state.Results)
			}
			if len(state.Results) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "No results found")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d results)\n\n", state.Label(), len(state.Results))
			printItemsTable(cmd.OutOrStdout(), state.Results)
			return nil
		},
	}

	addOutputFlags(cmd, &out)
	cmd.Flags().StringVarP(&searchType, "type", "t", "", "Only items of this kind (cabinet, shelf, binder, folder, divider, document)")
	cmd.Flags().StringVar(&searchExt, "ext", "", "Only documents with this extension")
	cmd.Flags().StringVar(&searchTag, "tag", "", "List the items carrying this tag instead of searching")
	cmd.MarkFlagsMutuallyExclusive("tag", "ext")
	cmd.MarkFlagsMutuallyExclusive("tag", "type")

	return cmd
}
