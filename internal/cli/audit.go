package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"go-og-audit/internal/audit"
	"go-og-audit/internal/feeds"
	"go-og-audit/internal/inventory"
	"go-og-audit/internal/metatags"
	"go-og-audit/internal/score"
	"go-og-audit/internal/sitemap"
	"go-og-audit/internal/store"
	"go-og-audit/internal/validate"
)

func newAuditCmd(o *rootOptions) *cobra.Command {
	var (
		concurrency int
		paths       []string
	)
	cmd := &cobra.Command{
		Use:   "audit <site>",
		Short: "Audit every page of a site and write the inventory",
		Long: `Discovers pages through robots.txt and sitemap.xml (falling back to the site feed,
configured PATHS or an interactive prompt), validates each page and writes the inventory file.
Individual low scores do not make the command fail.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.setup(cmd)
			if err != nil {
				return err
			}
			defer e.close()
			if cmd.Flags().Changed("concurrency") {
				e.cfg.Concurrency = concurrency
			}
			if len(paths) > 0 {
				e.cfg.Paths = paths
			}

			deps := audit.Deps{
				Validator: validate.New(e.client, metatags.New(e.cfg.Scanner), score.New(score.DefaultWeights())),
				Sitemap:   sitemap.New(e.client, nil),
				Inventory: inventory.New(e.cfg.Inventory),
				Prompter:  audit.LinePrompter{In: cmd.InOrStdin(), Out: cmd.OutOrStdout()},
			}
			if e.cfg.FeedFallback {
				deps.Feeds = feeds.NewFinder(e.client, 0)
			}
			if e.cfg.History.DSN != "" {
				h, err := store.OpenSQLite(e.cfg.History.DSN)
				if err != nil {
					return err
				}
				defer h.Close()
				deps.History = h
			}

			inv, err := audit.New(deps, audit.Options{Concurrency: e.cfg.Concurrency, Paths: e.cfg.Paths}).Audit(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			s := audit.Summarize(inv.Pages)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Audited %d pages of %s, average score %d\n", inv.TotalPages, inv.BaseURL, inv.AverageScore)
			fmt.Fprintf(out, "Perfect (>=90): %d  Good (70-89): %d  Needs work (<70): %d\n", s.Perfect, s.Good, s.NeedsWork)
			fmt.Fprintf(out, "Inventory written to %s\n", e.cfg.Inventory)
			return nil
		},
	}
	cmd.Flags().IntVar(&concurrency, "concurrency", 1, "pages validated at the same time (overrides CONCURRENCY)")
	cmd.Flags().StringSliceVar(&paths, "paths", nil, "paths to audit when no sitemap is found (overrides PATHS)")
	return cmd
}
