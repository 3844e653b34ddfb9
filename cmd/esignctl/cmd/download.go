package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.pilab.hu/esign/internal/app"
)

func newDownloadCmd() *cobra.Command {
	var (
		output   string
		combined bool
	)

	cmd := &cobra.Command{
		Use:   "download <envelopeId>",
		Short: "Download the signed document of an envelope",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				tok, err := a.Lifecycle.Token(cmd.Context())
				if err != nil {
					return err
				}

				var pdf []byte
				if combined {
					pdf, err = a.Lifecycle.DownloadCombined(cmd.Context(), tok.Value, args[0])
				} else {
					pdf, err = a.Lifecycle.DownloadSigned(cmd.Context(), tok.Value, args[0])
				}
				if err != nil {
					return err
				}

				if err := os.WriteFile(output, pdf, 0o600); err != nil {
					return fmt.Errorf("failed to write %s: %w", output, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %d bytes to %s\n", len(pdf), output)

				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "signed_document.pdf", "output file")
	cmd.Flags().BoolVar(&combined, "combined", false, "download all documents combined into one PDF")

	return cmd
}
