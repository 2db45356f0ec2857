package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kilianp07/manifests/core/merge"
	"github.com/kilianp07/manifests/infra/logger"
)

var ledgerOut string

var ledgerCmd = &cobra.Command{
	Use:   "ledger <file>",
	Short: "Apply the block transforms to a single ledger file",
	Args:  cobra.ExactArgs(1),
	RunE:  runLedger,
}

func init() {
	ledgerCmd.Flags().StringVarP(&ledgerOut, "out", "o", "", "output file (default <file>_ledger<ext>)")
	rootCmd.AddCommand(ledgerCmd)
}

func runLedger(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	in := args[0]
	out := ledgerOut
	if out == "" {
		ext := filepath.Ext(in)
		out = strings.TrimSuffix(in, ext) + "_ledger" + ext
	}
	m := merge.New(cfg.Merge, merge.Deps{Logger: logger.New("ledger")})
	rep, err := m.WriteLedger(in, out)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	for _, g := range rep.Groups {
		if _, err := fmt.Fprintf(w, "rows %d-%d\t%d members\ttotal %s\n", g.StartRow, g.EndRow, g.Members, g.Total.StringFixed(2)); err != nil {
			return err
		}
	}
	for _, u := range rep.Unterminated {
		if _, err := fmt.Fprintf(w, "unterminated: %s\n", u); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "wrote %s\n", out)
	return err
}
