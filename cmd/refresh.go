package cmd

import (
	"fmt"
	"text/tabwriter"

	"ferreteria/internal/services"

	"github.com/spf13/cobra"
)

var filterQuery string

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch the catalog and print it",
	RunE:  runRefresh,
}

func init() {
	refreshCmd.Flags().StringVarP(&filterQuery, "query", "q", "", "Only print products whose name contains the query")
}

func runRefresh(cmd *cobra.Command, args []string) error {
	a, cleanup, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	if err := a.Store.FetchAll(cmd.Context()); err != nil {
		return fmt.Errorf("refresh failed: %w", err)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRODUCTO\tMARCA\tPRECIO\tSTOCK\tCATEGORIA")
	for _, p := range a.Store.Filter(filterQuery) {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			p.ID, p.ProductName, p.Brand, services.FormatPrice(p.Price), p.StockQuantity, p.Category)
	}
	return w.Flush()
}
