package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-ged/pkg/models"
	"github.com/mattsolo1/grove-ged/pkg/service"
)

func NewTagsCmd(svc **service.Service) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "Manage tags and tag assignments",
		Long: `Manage the tag registry and the tags of individual items. Counts are
always the ones reported by the service.

Examples:
  ged tags list
  ged tags create urgent --color "#ef4444"
  ged tags add <doc-id> urgent
  ged tags set <doc-id> paid archived`,
	}

	cmd.AddCommand(newTagsListCmd(svc))
	cmd.AddCommand(newTagsCreateCmd(svc))
	cmd.AddCommand(newTagsDeleteCmd(svc))
	cmd.AddCommand(newTagsItemCmd(svc))
	cmd.AddCommand(newTagsAddCmd(svc))
	cmd.AddCommand(newTagsRemoveCmd(svc))
	cmd.AddCommand(newTagsSetCmd(svc))

	return cmd
}

func newTagsListCmd(svc **service.Service) *cobra.Command {
	var out outputFormat
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tags with their usage counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s := *svc
			if err := connect(ctx, s); err != nil {
				return err
			}
			if err := s.Tags.LoadAll(ctx); err != nil {
				return err
			}
			return printTags(cmd, out, s.Tags.All())
		},
	}
	addOutputFlags(cmd, &out)
	return cmd
}

func printTags(cmd *cobra.Command, out outputFormat, all []models.Tag) error {
	if out.structured() {
		return out.emit(cmd.OutOrStdout(), all)
	}
	if len(all) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "No tags defined")
		return nil
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tCOLOR\tCOUNT")
	for _, t := range all {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", t.Name, t.Color, t.Count)
	}
	return tw.Flush()
}

func newTagsCreateCmd(svc **service.Service) *cobra.Command {
	var color string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Define a new tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s := *svc
			if err := connect(ctx, s); err != nil {
				return err
			}
			tag, err := s.Tags.Create(ctx, args[0], color)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created tag %s (%s)\n", tag.Name, tag.Color)
			return nil
		},
	}
	cmd.Flags().StringVarP(&color, "color", "c", models.DefaultTagColor, "Display color")
	return cmd
}

func newTagsDeleteCmd(svc **service.Service) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a tag and remove it from every item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s := *svc
			if err := connect(ctx, s); err != nil {
				return err
			}
			if err := s.Tags.Delete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted tag %s\n", args[0])
			return nil
		},
	}
}

func newTagsItemCmd(svc **service.Service) *cobra.Command {
	var out outputFormat
	cmd := &cobra.Command{
		Use:   "item <id>",
		Short: "Show the tags of an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s := *svc
			if err := connect(ctx, s); err != nil {
				return err
			}
			tags, err := s.Tags.LoadForItem(ctx, args[0])
			if err != nil {
				return err
			}
			return printItemTags(cmd, out, tags)
		},
	}
	addOutputFlags(cmd, &out)
	return cmd
}

func printItemTags(cmd *cobra.Command, out outputFormat, tags []string) error {
	if out.structured() {
		return out.emit(cmd.OutOrStdout(), tags)
	}
	if len(tags) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "(no tags)")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), strings.Join(tags, ", "))
	return nil
}

func newTagsAddCmd(svc **service.Service) *cobra.Command {
	var out outputFormat
	cmd := &cobra.Command{
		Use:   "add <id> <tag>",
		Short: "Add a tag to an item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s := *svc
			if err := connect(ctx, s); err != nil {
				return err
			}
			tags, err := s.Tags.AddToItem(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			return printItemTags(cmd, out, tags)
		},
	}
	addOutputFlags(cmd, &out)
	return cmd
}

func newTagsRemoveCmd(svc **service.Service) *cobra.Command {
	var out outputFormat
	cmd := &cobra.Command{
		Use:   "remove <id> <tag>",
		Short: "Remove a tag from an item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s := *svc
			if err := connect(ctx, s); err != nil {
				return err
			}
			tags, err := s.Tags.RemoveFromItem(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			return printItemTags(cmd, out, tags)
		},
	}
	addOutputFlags(cmd, &out)
	return cmd
}

func newTagsSetCmd(svc **service.Service) *cobra.Command {
	var out outputFormat
	cmd := &cobra.Command{
		Use:   "set <id> [tag]...",
		Short: "Replace the tags of an item; no tags clears them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s := *svc
			if err := connect(ctx, s); err != nil {
				return err
			}
			tags, err := s.Tags.SetForItem(ctx, args[0], args[1:])
			if err != nil {
				return err
			}
			return printItemTags(cmd, out, tags)
		},
	}
	addOutputFlags(cmd, &out)
	return cmd
}
