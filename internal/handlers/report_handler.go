package handlers

import (
	"bytes"

	"ferreteria/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ReportHandler serves sales and the stock statistics report.
type ReportHandler struct {
	reports *services.ReportService
	sales   *services.SaleService
}

func NewReportHandler(reports *services.ReportService, sales *services.SaleService) *ReportHandler {
	return &ReportHandler{reports: reports, sales: sales}
}

// RegisterRoutes mounts /sales and /reports on router.
func (h *ReportHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/sales", h.HandleListSales)
	router.Get("/reports/stock", h.HandleStockReport)
	router.Get("/reports/stock.pdf", h.HandleStockReportPDF)
}

func (h *ReportHandler) HandleListSales(c *fiber.Ctx) error {
	sales, err := h.sales.GetAllSales(c.UserContext())
	if err != nil {
		return writeError(c, "Could not retrieve sales", err)
	}
	return c.JSON(sales)
}

// HandleStockReport returns the report as JSON. ?refresh=true re-fetches
// the catalog first.
func (h *ReportHandler) HandleStockReport(c *fiber.Ctx) error {
	report, err := h.reports.Build(c.UserContext(), c.QueryBool("refresh"))
	if err != nil {
		return writeError(c, "Could not build the report", err)
	}
	return c.JSON(report)
}

// HandleStockReportPDF returns the report as a PDF download.
func (h *ReportHandler) HandleStockReportPDF(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := h.reports.WritePDF(c.UserContext(), &buf, c.QueryBool("refresh")); err != nil {
		return writeError(c, "Could not generate the report", err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="reporte_productos.pdf"`)
	return c.Send(buf.Bytes())
}
