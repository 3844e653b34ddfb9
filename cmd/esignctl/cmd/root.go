package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.pilab.hu/esign/config"
	"go.pilab.hu/esign/internal/app"
	"go.pilab.hu/esign/log"
)

const appName = "esignctl"

var (
	cfgFile   string
	verbose   bool
	appLogger log.Logger = log.Nop()
	appConfig *config.Config
)

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "esignctl drives the e-signature envelope lifecycle from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := zerolog.WarnLevel
			if verbose {
				level = zerolog.DebugLevel
			}
			appLogger = log.NewZerologAdapter(level, true)

			cfg, err := config.LoadConfigFile(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			appConfig = cfg

			return nil
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./esign_config.yaml, /etc/esign/ or $HOME/.esign/)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newTokenCmd(), newStatusCmd(), newDownloadCmd(), newServeCmd())

	return root
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// withApp wires the pipeline for the duration of fn.
func withApp(ctx context.Context, fn func(*app.App) error) error {
	a, err := app.New(ctx, appConfig, appLogger)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	return fn(a)
}
