package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var reportOut string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Write the stock statistics report as a PDF",
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVarP(&reportOut, "out", "o", "reporte_productos.pdf", "Output PDF file")
}

func runReport(cmd *cobra.Command, args []string) error {
	a, cleanup, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	f, err := os.Create(reportOut)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", reportOut, err)
	}
	defer f.Close()

	if err := a.Reports.WritePDF(cmd.Context(), f, true); err != nil {
		os.Remove(reportOut)
		return fmt.Errorf("report failed: %w", err)
	}
	zap.S().Infof("Report written to %s", reportOut)
	fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", reportOut)
	return nil
}
