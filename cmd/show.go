package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-ged/pkg/service"
)

func NewShowCmd(svc **service.Service) *cobra.Command {
	var out outputFormat

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show the details of an item",
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
			if item.IsDocument() && !item.TagsKnown {
				if tags, err := s.Tags.LoadForItem(ctx, item.ID); err == nil {
					item.Tags, item.TagsKnown = tags, true
				}
			}

			if out.structured() {
				return out.emit(cmd.OutOrStdout(), item)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "Name:\t%s\n", item.Name)
			fmt.Fprintf(tw, "Kind:\t%s\n", kindLabel(item.Kind))
			fmt.Fprintf(tw, "Path:\t%s\n", item.Path)
			fmt.Fprintf(tw, "ID:\t%s\n", item.ID)
			if !item.CreatedAt.IsZero() {
				fmt.Fprintf(tw, "Created:\t%s\n", item.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			if !item.ModifiedAt.IsZero() {
				fmt.Fprintf(tw, "Modified:\t%s\n", item.ModifiedAt.Format("2006-01-02 15:04:05"))
			}
			if item.IsDocument() {
				fmt.Fprintf(tw, "Size:\t%s\n", humanSize(item.Document.Size))
				if item.Document.Extension != "" {
					fmt.Fprintf(tw, "Extension:\t.%s\n", item.Document.Extension)
				}
				if item.Document.MimeType != "" {
					fmt.Fprintf(tw, "Type:\t%s\n", item.Document.MimeType)
				}
				fmt.Fprintf(tw, "Tags:\t%s\n", strings.Join(item.Tags, ", "))
				fmt.Fprintf(tw, "Download:\t%s\n", s.Client.DownloadURL(item.ID, ""))
			} else {
				fmt.Fprintf(tw, "Children:\t%d\n", item.ChildCount())
			}
			return tw.Flush()
		},
	}

	addOutputFlags(cmd, &out)
	return cmd
}
