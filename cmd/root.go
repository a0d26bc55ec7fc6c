package cmd

import (
	"context"
	"fmt"
	"os"

	"ferreteria/internal/app"
	"ferreteria/internal/config"
	"ferreteria/internal/logging"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "ferreteria",
	Short: "Hardware store catalog service",
	Long: `Ferreteria keeps the product catalog of a hardware store in sync with
its document collection. It serves a public storefront and a staff
management API, records purchases and prints stock reports.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Root returns the root command with every subcommand attached.
func Root() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default ./ferreteria.yaml)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(reportCmd)
}

// bootstrap loads the configuration, installs the logger and wires the app.
// The returned cleanup closes the app and flushes the logger.
func bootstrap(ctx context.Context) (*app.App, func(), error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}

	_, syncLogger, err := logging.Init(cfg.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	a, err := app.NewApp(ctx, cfg)
	if err != nil {
		syncLogger()
		return nil, nil, err
	}

	cleanup := func() {
		if err := a.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "error closing backends: %v\n", err)
		}
		syncLogger()
	}
	return a, cleanup, nil
}
