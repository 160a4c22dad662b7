package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"go-og-audit/internal/clierr"
	"go-og-audit/internal/metatags"
	"go-og-audit/internal/model"
	"go-og-audit/internal/score"
	"go-og-audit/internal/validate"
)

func newValidateCmd(o *rootOptions) *cobra.Command {
	var (
		asJSON    bool
		threshold int
	)
	cmd := &cobra.Command{
		Use:   "validate <url>",
		Short: "Validate the Open Graph tags of a single page",
		Long:  "Fetches the page, checks its social preview tags and image, and prints a 0-100 score. Exits with status 2 when the score is below the threshold.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.setup(cmd)
			if err != nil {
				return err
			}
			defer e.close()
			if cmd.Flags().Changed("threshold") {
				e.cfg.Threshold = threshold
			}

			v := validate.New(e.client, metatags.New(e.cfg.Scanner), score.New(score.DefaultWeights()))
			res, err := v.Validate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(res); err != nil {
					return fmt.Errorf("encode result: %w", err)
				}
			} else {
				printResult(out, res)
			}
			if res.Score < e.cfg.Threshold {
				return clierr.Newf(clierr.CodeBelowPass, "score %d is below threshold %d", res.Score, e.cfg.Threshold)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	cmd.Flags().IntVar(&threshold, "threshold", 0, "minimum acceptable score (overrides THRESHOLD)")
	return cmd
}

func printResult(w io.Writer, res model.ValidationResult) {
	fmt.Fprintf(w, "%s\nScore: %d/%d\n\n", res.URL, res.Score, res.MaxScore)
	for _, c := range res.Checks {
		fmt.Fprintf(w, "  [%s] %-16s %s\n", statusLabel(c.Status), c.Name, c.Message)
		if c.Recommendation != "" {
			fmt.Fprintf(w, "         -> %s\n", c.Recommendation)
		}
	}
}

func statusLabel(s model.Status) string {
	switch s {
	case model.StatusPass:
		return "PASS"
	case model.StatusWarn:
		return "WARN"
	default:
		return "FAIL"
	}
}
