// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/convertly/internal/ledger"
	"github.com/pdiddy/convertly/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List handled requests from the ledger",
	Long: `History prints recent requests recorded by the server, newest first.
Filter by operation (youtube, instagram, convert:pdf-to-doc,
convert:doc-to-pdf) or status, print per-operation totals with --summary,
or export with --json or --yaml.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of records")
	historyCmd.Flags().String("operation", "", "only show this operation")
	historyCmd.Flags().String("status", "", "only show this status: succeeded, rejected, failed")
	historyCmd.Flags().Bool("summary", false, "print per-operation totals instead of records")
	historyCmd.Flags().Bool("json", false, "output records as JSON")
	historyCmd.Flags().Bool("yaml", false, "output records as YAML")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Ledger.Path == "" {
		return fmt.Errorf("ledger is disabled (ledger.path is empty)")
	}
	store, err := ledger.Open(cfg.Ledger)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	out := cmd.OutOrStdout()

	if summary, _ := cmd.Flags().GetBool("summary"); summary {
		sums, err := store.Summarize(ctx)
		if err != nil {
			return err
		}
		formatSummary(out, sums)
		return nil
	}

	limit, _ := cmd.Flags().GetInt("limit")
	operation, _ := cmd.Flags().GetString("operation")
	status, _ := cmd.Flags().GetString("status")
	records, err := store.List(ctx, ledger.QueryOptions{
		Limit:     limit,
		Operation: operation,
		Status:    types.RequestStatus(status),
	})
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return ledger.WriteJSON(out, records)
	}
	if asYAML, _ := cmd.Flags().GetBool("yaml"); asYAML {
		return ledger.WriteYAML(out, records)
	}
	formatHistory(out, records)
	return nil
}

func formatHistory(w io.Writer, records []types.RequestRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No requests recorded.")
		return
	}

	fmt.Fprintf(w, "%-20s  %-20s  %-10s  %-8s  %-40s  %s\n",
		"Started", "Operation", "Status", "Took", "Source", "Error")
	fmt.Fprintln(w, strings.Repeat("-", 120))
	for _, r := range records {
		source := r.Source
		if len(source) > 40 {
			source = source[:37] + "..."
		}
		fmt.Fprintf(w, "%-20s  %-20s  %-10s  %-8s  %-40s  %s\n",
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Operation, r.Status, r.Duration().Round(time.Millisecond), source, r.Error)
	}
	fmt.Fprintf(w, "\n%d requests\n", len(records))
}

func formatSummary(w io.Writer, sums []ledger.OperationSummary) {
	if len(sums) == 0 {
		fmt.Fprintln(w, "No requests recorded.")
		return
	}
	fmt.Fprintf(w, "%-20s  %9s  %8s  %6s  %5s\n", "Operation", "Succeeded", "Rejected", "Failed", "Total")
	fmt.Fprintln(w, strings.Repeat("-", 58))
	for _, s := range sums {
		fmt.Fprintf(w, "%-20s  %9d  %8d  %6d  %5d\n", s.Operation, s.Succeeded, s.Rejected, s.Failed, s.Total())
	}
}
