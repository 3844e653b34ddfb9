package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.pilab.hu/esign/internal/app"
)

func newTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Mint a provider access token and print it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				tok, err := a.Lifecycle.Token(cmd.Context())
				if err != nil {
					return err
				}

				fmt.Fprintln(cmd.OutOrStdout(), tok.Value)
				fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", tok.ExpiresAt.Format(time.RFC3339))

				return nil
			})
		},
	}
}
