package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kilianp07/manifests/app"
	"github.com/kilianp07/manifests/core/resolve"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Probe the reference data",
}

var resolveVehicleCmd = &cobra.Command{
	Use:   "vehicle <plate>...",
	Short: "Resolve vehicle plates",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(ctx context.Context, svc *app.Service) error {
			res, err := resolve.NewVehicleResolver(svc.Store()).ResolveMany(ctx, args)
			if err != nil {
				return err
			}
			for _, id := range args {
				r := res[id]
				if !r.Found {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\tnot found\n", id)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\tactive=%t\n", r.ID, r.Status, r.Class, r.Active)
			}
			return nil
		})
	},
}

var resolveClientCmd = &cobra.Command{
	Use:   "client <name>",
	Short: "Resolve a client name",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(ctx context.Context, svc *app.Service) error {
			cr, err := resolve.LoadClientResolver(ctx, svc.Store())
			if err != nil {
				return err
			}
			name := strings.Join(args, " ")
			r := cr.Resolve(name)
			if !r.Found {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\tnot found\n", name)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\tscore=%.2f\tactive=%t\n", name, r.CanonicalName, r.Method, r.Score, r.Active)
			return nil
		})
	},
}

func init() {
	resolveCmd.AddCommand(resolveVehicleCmd, resolveClientCmd)
	rootCmd.AddCommand(resolveCmd)
}
