package cmd

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-ged/pkg/service"
)

func NewStatsCmd(svc **service.Service) *cobra.Command {
	var out outputFormat

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show counts and sizes for the whole store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s := *svc
			if err := connect(ctx, s); err != nil {
				return err
			}

			stats, err := s.Client.Stats(ctx)
			if err != nil {
				return fmt.Errorf("load stats: %w", err)
			}
			if out.structured() {
				return out.emit(cmd.OutOrStdout(), stats)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "Cabinets:\t%d\n", stats.Cabinets)
			fmt.Fprintf(tw, "Shelves:\t%d\n", stats.Shelves)
			fmt.Fprintf(tw, "Binders:\t%d\n", stats.Binders)
			fmt.Fprintf(tw, "Folders:\t%d\n", stats.Folders)
			fmt.Fprintf(tw, "Documents:\t%d\n", stats.Documents)
			fmt.Fprintf(tw, "Total size:\t%s\n", humanSize(stats.TotalSize))
			if len(stats.Extensions) > 0 {
				exts := make([]string, 0, len(stats.Extensions))
				for ext := range stats.Extensions {
					exts = append(exts, ext)
				}
				sort.Slice(exts, func(i, j int) bool {
					if stats.Extensions[exts[i]] != stats.Extensions[exts[j]] {
						return stats.Extensions[exts[i]] > stats.Extensions[exts[j]]
					}
					return exts[i] < exts[j]
				})
				fmt.Fprintln(tw, "\nExtension\tCount")
				for _, ext := range exts {
					fmt.Fprintf(tw, ".%s\t%d\n", ext, stats.Extensions[ext])
				}
			}
			return tw.Flush()
		},
	}

	addOutputFlags(cmd, &out)
	return cmd
}
