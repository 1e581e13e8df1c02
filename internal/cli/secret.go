package cli

import (
	"fmt"

	"github.com/daily-ledger/pkg/keygen"
	"github.com/spf13/cobra"
)

// NewGenSecretCommand creates the gen-secret command.
func NewGenSecretCommand() *cobra.Command {
	var length int

	cmd := &cobra.Command{
		Use:   "gen-secret",
		Short: "Print a random value for JWT_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := keygen.GenerateSecret(length)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), secret)
			return nil
		},
	}

	cmd.Flags().IntVar(&length, "length", 48, "secret length (minimum 32)")
	return cmd
}
