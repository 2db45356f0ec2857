package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/manifests/app"
	"github.com/kilianp07/manifests/pkg/export"
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Run one consolidation pass",
	RunE:  runMerge,
}

func init() {
	rootCmd.AddCommand(mergeCmd)
}

func runMerge(cmd *cobra.Command, _ []string) error {
	return withService(func(ctx context.Context, svc *app.Service) error {
		sum, ran, err := svc.RunOnce(ctx)
		if !ran && err == nil {
			_, werr := fmt.Fprintln(cmd.ErrOrStderr(), "another run holds the lock, nothing done")
			return werr
		}
		if werr := export.WriteSummary(cmd.OutOrStdout(), sum); werr != nil && err == nil {
			err = werr
		}
		return err
	})
}
