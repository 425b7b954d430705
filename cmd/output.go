package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/mattsolo1/grove-ged/pkg/models"
	"github.com/mattsolo1/grove-ged/pkg/service"
)

// outputFormat selects between the table and a structured encoding.
type outputFormat struct {
	json bool
	yaml bool
}

func addOutputFlags(cmd *cobra.Command, o *outputFormat) {
	cmd.Flags().BoolVar(&o.json, "json", false, "Output in JSON format")
	cmd.Flags().BoolVar(&o.yaml, "yaml", false, "Output in YAML format")
	cmd.MarkFlagsMutuallyExclusive("json", "yaml")
}

func (o outputFormat) structured() bool {
	return o.json || o.yaml
}

// emit writes v as JSON or YAML. YAML goes through the JSON form so both
// encodings share the wire field names.
func (o outputFormat) emit(w io.Writer, v any) error {
	if o.json {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(v)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(generic)
}

var titleCaser = cases.Title(language.English)

func kindLabel(k models.Kind) string {
	return titleCaser.String(k.Label())
}

func printItemsTable(w io.Writer, items []models.Item) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "KIND\tNAME\tSIZE\tMODIFIED\tTAGS\tID")
	fmt.Fprintln(tw, "--------\t-----------------------------\t--------\t----------------\t----------\t--")

	for _, it := range items {
		size := "-"
		if it.IsDocument() {
			size = humanSize(it.Document.Size)
		} else if it.Container != nil {
			size = fmt.Sprintf("%d items", it.Container.ChildCount)
		}
		modified := "-"
		if !it.ModifiedAt.IsZero() {
			modified = it.ModifiedAt.Format("2006-01-02 15:04")
		}
		tags := strings.Join(it.Tags, ",")
		if tags == "" {
			tags = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			kindLabel(it.Kind), truncateString(it.Name, 29), size, modified, tags, it.ID)
	}

	tw.Flush()
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}

func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

// connect checks the service before a command talks to it, so an
// unreachable endpoint is reported once with a hint.
func connect(ctx context.Context, s *service.Service) error {
	conn, err := s.Ping(ctx)
	if err != nil {
		return fmt.Errorf("cannot reach the document service at %s: %s\nSet GED_API_URLS or run 'ged endpoints set <url>'", conn.URL, conn.Error)
	}
	return nil
}

// fetchItem loads the item behind id.
func fetchItem(ctx context.Context, s *service.Service, id string) (*models.Item, error) {
	item, err := s.Client.Item(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("look up %s: %w", id, err)
	}
	return item, nil
}
