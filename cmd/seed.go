package cmd

import (
	"fmt"

	"ferreteria/internal/app"

	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the starter inventory into an empty collection",
	RunE:  runSeed,
}

func runSeed(cmd *cobra.Command, args []string) error {
	a, cleanup, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	added, err := app.Seed(cmd.Context(), a.Repos.Products)
	if err != nil {
		return fmt.Errorf("seed failed: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d products into %s\n", added, a.Config.Catalog.Backend)
	return nil
}
