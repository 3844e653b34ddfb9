package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.pilab.hu/esign/internal/app"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <envelopeId>",
		Short: "Print the lifecycle status of an envelope",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				tok, err := a.Lifecycle.Token(cmd.Context())
				if err != nil {
					return err
				}

				status, completed, err := a.Lifecycle.EnvelopeStatus(cmd.Context(), tok.Value, args[0])
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "envelope:  %s\nstatus:    %s\ncompleted: %t\n", args[0], status, completed)

				return nil
			})
		},
	}
}
