package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"go-og-audit/internal/clierr"
	"go-og-audit/internal/store"
)

func newHistoryCmd(o *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recorded audit runs, or the pages of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.setup(cmd)
			if err != nil {
				return err
			}
			defer e.close()
			if e.cfg.History.DSN == "" {
				return clierr.New(clierr.CodeConfig, "audit history is disabled: set HISTORY.dsn in the config file")
			}
			h, err := store.OpenSQLite(e.cfg.History.DSN)
			if err != nil {
				return err
			}
			defer h.Close()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			defer tw.Flush()
			if len(args) == 1 {
				pages, err := h.ListPages(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(tw, "PATH\tSCORE\tISSUES")
				for _, p := range pages {
					fmt.Fprintf(tw, "%s\t%d\t%v\n", p.Path, p.Score, p.Issues)
				}
				return nil
			}
			runs, err := h.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			fmt.Fprintln(tw, "ID\tSITE\tAUDITED\tPAGES\tAVERAGE")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n", r.ID, r.BaseURL, r.AuditedAt.Local().Format(time.DateTime), r.TotalPages, r.AverageScore)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to list (0 for all)")
	return cmd
}
