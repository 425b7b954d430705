package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-ged/pkg/service"
)

func NewURLCmd(svc **service.Service) *cobra.Command {
	var (
		preview bool
		base    string
	)

	cmd := &cobra.Command{
		Use:   "url <id>",
		Short: "Print the download or preview URL of a document",
		Long: `Print the URL a browser can open to fetch a document. The URL is built
from the active endpoint (or --base) without contacting the service.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc
			if base == "" {
				// Resolve once so the URL points at a live endpoint.
				base = s.Resolver.Resolve(cmd.Context())
			}
			if preview {
				fmt.Fprintln(cmd.OutOrStdout(), s.Client.PreviewURL(args[0], base))
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), s.Client.DownloadURL(args[0], base))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&preview, "preview", false, "Print the inline preview URL instead")
	cmd.Flags().StringVar(&base, "base", "", "Base URL to use instead of the active endpoint")
	return cmd
}
