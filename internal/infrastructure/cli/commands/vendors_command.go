package commands

import (
	"github.com/spf13/cobra"

	"github.com/doeshing/formatapi/internal/domain"
	"github.com/doeshing/formatapi/internal/infrastructure/cli/helpers"
)

// NewVendorsCommand creates the vendors command
func NewVendorsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "vendors",
		Short: "List the vendors recognised by URL and key prefix",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			helpers.RenderVendors(cmd.OutOrStdout(), domain.Vendors)
			return nil
		},
	}
}
