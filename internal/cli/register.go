package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"go-og-audit/internal/audit"
	"go-og-audit/internal/inventory"
)

func newRegisterCmd(o *rootOptions) *cobra.Command {
	var base string
	cmd := &cobra.Command{
		Use:   "register <path>...",
		Short: "Add pages to the inventory without auditing them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.setup(cmd)
			if err != nil {
				return err
			}
			defer e.close()
			if base != "" {
				if base, err = audit.NormalizeOrigin(base); err != nil {
					return err
				}
			}
			inv, added, err := inventory.New(e.cfg.Inventory).Register(args, base)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %d new pages, %d total\n", added, inv.TotalPages)
			return nil
		},
	}
	cmd.Flags().StringVar(&base, "base", "", "site origin used when the inventory does not exist yet")
	return cmd
}
