package cmd

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-ged/cmd/config"
	"github.com/mattsolo1/grove-ged/pkg/endpoint"
	"github.com/mattsolo1/grove-ged/pkg/service"
)

func NewDoctorCmd(svc **service.Service) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration and connectivity",
		Long: `The doctor command prints the effective configuration, probes every
candidate endpoint, checks the service health, and reports the requests it
made along the way.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s := *svc
			w := cmd.OutOrStdout()

			settings, err := config.Load()
			if err != nil {
				return err
			}
			fmt.Fprintln(w, "Configuration")
			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			for _, kv := range config.Describe(settings) {
				fmt.Fprintf(tw, "  %s\t%s\n", kv[0], kv[1])
			}
			tw.Flush()

			urls, source := s.Resolver.Candidates()
			fmt.Fprintf(w, "\nCandidates (%s)\n", source)
			printProbeResults(cmd, s.Resolver.ProbeAll(ctx))

			issues := 0
			conn, err := s.Ping(ctx)
			fmt.Fprintln(w)
			if err != nil {
				issues++
				fmt.Fprintf(w, "Service: unreachable (%s)\n", conn.Error)
				if source == endpoint.SourceFallback {
					fmt.Fprintln(w, "  Set GED_API_URLS or run 'ged endpoints set <url>'")
				}
			} else {
				fmt.Fprintf(w, "Service: %s at %s\n", conn.Health.Status, conn.URL)
				if !conn.Health.StorageRootExists {
					issues++
					fmt.Fprintln(w, "  The storage root is missing on the server")
				}
				if len(urls) > 0 && conn.URL != urls[0] {
					fmt.Fprintf(w, "  Note: the first candidate %s did not answer\n", urls[0])
				}
			}

			if cached, err := s.State.LoadFavorites(); err == nil {
				fmt.Fprintf(w, "Cached favorites: %d (in %s)\n", len(cached), s.State.DataDir())
			}

			summary, err := s.Client.Metrics().Summary()
			if err != nil {
				return fmt.Errorf("gather metrics: %w", err)
			}
			if len(summary) > 0 {
				fmt.Fprintln(w, "\nRequests")
				tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "  OP\tCOUNT\tCODES\tTIME")
				for _, op := range summary {
					codes := make([]string, 0, len(op.Codes))
					for code, n := range op.Codes {
						codes = append(codes, fmt.Sprintf("%s×%d", code, n))
					}
					sort.Strings(codes)
					fmt.Fprintf(tw, "  %s\t%d\t%s\t%.0fms\n", op.Op, op.Requests, strings.Join(codes, " "), op.Seconds*1000)
				}
				tw.Flush()
			}

			if issues == 0 {
				fmt.Fprintln(w, "\nNo issues found.")
			} else {
				fmt.Fprintf(w, "\nFound %d issue(s)\n", issues)
			}
			return nil
		},
	}
}
