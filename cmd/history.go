package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/manifests/app"
	"github.com/kilianp07/manifests/core/metrics"
	"github.com/kilianp07/manifests/infra/report"
	"github.com/kilianp07/manifests/pkg/export"
)

var (
	historySince   time.Duration
	historyOutcome string
	historyFile    string
	historyLimit   int
	historyFormat  string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Query past run summaries",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().DurationVar(&historySince, "since", 0, "only runs newer than this duration")
	historyCmd.Flags().StringVar(&historyOutcome, "outcome", "", "filter by outcome (success, partial, failed)")
	historyCmd.Flags().StringVar(&historyFile, "file", "", "only runs that processed a matching source path")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "keep the most recent runs, 0 for all")
	historyCmd.Flags().StringVarP(&historyFormat, "format", "f", "json", "output format: json or csv")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	q := report.Query{Outcome: metrics.Outcome(historyOutcome), File: historyFile, Limit: historyLimit}
	if historySince > 0 {
		q.Start = time.Now().Add(-historySince)
	}
	return withService(func(ctx context.Context, svc *app.Service) error {
		entries, err := svc.History().Query(ctx, q)
		if err != nil {
			return err
		}
		switch historyFormat {
		case "csv":
			return export.WriteCSV(cmd.OutOrStdout(), entries)
		case "json":
			return export.WriteJSON(cmd.OutOrStdout(), entries)
		default:
			return fmt.Errorf("unknown format %q", historyFormat)
		}
	})
}
