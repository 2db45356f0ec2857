package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kilianp07/manifests/app"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Merge whenever a source file lands or a remote trigger arrives",
	RunE: func(*cobra.Command, []string) error {
		return withService(func(ctx context.Context, svc *app.Service) error {
			return svc.Watch(ctx)
		})
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
