package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-ged/pkg/gateway"
	"github.com/mattsolo1/grove-ged/pkg/service"
)

func NewUploadCmd(svc **service.Service) *cobra.Command {
	var (
		out  outputFormat
		name string
	)

	cmd := &cobra.Command{
		Use:   "upload <parent-id> <file>...",
		Short: "Upload documents into a container",
		Long: `Upload one or more local files. Several files go in a single request;
the service renames a file when the name is already taken.

Examples:
  ged upload <folder-id> scan.pdf
  ged upload <folder-id> scan.pdf --name march-invoice.pdf
  ged upload <divider-id> *.png`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s := *svc
			parentID, paths := args[0], args[1:]
			if name != "" && len(paths) > 1 {
				return errors.New("--name can only be used with a single file")
			}
			if err := connect(ctx, s); err != nil {
				return err
			}

			var files []gateway.File
			for _, p := range paths {
				f, closeFn, err := gateway.OpenFile(p, name)
				if err != nil {
					return err
				}
				defer closeFn()
				files = append(files, f)
			}

			items, err := s.Upload(ctx, parentID, files)
			if err != nil {
				return err
			}
			if out.structured() {
				return out.emit(cmd.OutOrStdout(), items)
			}
			if len(items) < len(files) {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %d of %d files were not stored\n", len(files)-len(items), len(files))
			}
			printItemsTable(cmd.OutOrStdout(), items)
			return nil
		},
	}

	addOutputFlags(cmd, &out)
	cmd.Flags().StringVarP(&name, "name", "n", "", "Name to store a single file under")
	return cmd
}
