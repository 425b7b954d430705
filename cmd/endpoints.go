package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-ged/pkg/endpoint"
	"github.com/mattsolo1/grove-ged/pkg/service"
)

func NewEndpointsCmd(svc **service.Service) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "endpoints",
		Short: "Show or change the candidate service URLs",
		Long: `The client probes candidate URLs in order and uses the first one whose
/health answers. Candidates come from, in priority order: the stored
override list, GED_API_URLS (or --api-url), and the built-in defaults.

Examples:
  ged endpoints list
  ged endpoints set http://nas.local:8000 http://localhost:8000
  ged endpoints probe
  ged endpoints reset`,
	}

	var out outputFormat
	list := &cobra.Command{
		Use:   "list",
		Short: "List the candidate URLs and where they come from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc
			urls, source := s.Resolver.Candidates()
			if out.structured() {
				return out.emit(cmd.OutOrStdout(), map[string]any{"source": source, "candidates": urls})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Source: %s\n", source)
			for i, u := range urls {
				fmt.Fprintf(cmd.OutOrStdout(), "  %d. %s\n", i+1, u)
			}
			return nil
		},
	}
	addOutputFlags(list, &out)

	set := &cobra.Command{
		Use:   "set <url>...",
		Short: "Store an override list of candidate URLs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s := *svc
			var urls []string
			for _, a := range args {
				urls = append(urls, endpoint.SplitList(a)...)
			}
			if err := s.Resolver.SetOverrides(urls); err != nil {
				return err
			}
			conn, err := s.Ping(ctx)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Saved, but no candidate answered: %s\n", conn.Error)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved. Using %s\n", conn.URL)
			return nil
		},
	}

	reset := &cobra.Command{
		Use:   "reset",
		Short: "Remove the override list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc
			if err := s.Resolver.ClearOverrides(); err != nil {
				return err
			}
			urls, source := s.Resolver.Candidates()
			fmt.Fprintf(cmd.OutOrStdout(), "Override removed. Candidates now from %s: %v\n", source, urls)
			return nil
		},
	}

	var probeOut outputFormat
	probe := &cobra.Command{
		Use:   "probe",
		Short: "Probe every candidate and report the results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc
			results := s.Resolver.ProbeAll(cmd.Context())
			if probeOut.structured() {
				return probeOut.emit(cmd.OutOrStdout(), results)
			}
			printProbeResults(cmd, results)
			return nil
		},
	}
	addOutputFlags(probe, &probeOut)

	cmd.AddCommand(list, set, reset, probe)
	return cmd
}

func printProbeResults(cmd *cobra.Command, results []endpoint.ProbeResult) {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "URL\tSTATUS\tLATENCY\tERROR")
	for _, r := range results {
		status := "down"
		if r.OK {
			status = "up"
		} else if r.Status != 0 {
			status = fmt.Sprintf("HTTP %d", r.Status)
		}
		errText := r.Error
		if errText == "" {
			errText = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.URL, status, r.Latency.Round(1e6), errText)
	}
	tw.Flush()
}
