package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"ferreteria/internal/repositories"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
	chart "github.com/wcharczuk/go-chart/v2"
	"go.uber.org/zap"
)

const reportTitle = "Reporte de Productos"

// StockRow is one product line of the statistics report.
type StockRow struct {
	ProductID     string `json:"productId"`
	ProductName   string `json:"productName"`
	StockQuantity int    `json:"stockQuantity"`
	UnitsSold     int    `json:"unitsSold"`
}

// StockReport summarizes stock and sales per product.
type StockReport struct {
	GeneratedAt    time.Time       `json:"generatedAt"`
	Rows           []StockRow      `json:"rows"`
	TotalUnits     int             `json:"totalUnits"`
	TotalSold      int             `json:"totalSold"`
	InventoryValue decimal.Decimal `json:"inventoryValue"`
}

// ReportService builds the statistics report from the catalog store.
type ReportService struct {
	store    *CatalogStore
	saleRepo repositories.SaleRepository
}

// NewReportService creates a report service. saleRepo may be nil, in which
// case units sold are reported as zero.
func NewReportService(store *CatalogStore, saleRepo repositories.SaleRepository) *ReportService {
	return &ReportService{store: store, saleRepo: saleRepo}
}

// Build computes the report. With refresh set the catalog is fetched first.
func (s *ReportService) Build(ctx context.Context, refresh bool) (*StockReport, error) {
	if refresh {
		if err := s.store.FetchAll(ctx); err != nil {
			return nil, err
		}
	}

	sold := make(map[string]int)
	if s.saleRepo != nil {
		sales, err := s.saleRepo.GetAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("list sales: %w: %w", ErrRemoteUnavailable, err)
		}
		for _, sale := range sales {
			sold[sale.ProductID] += sale.Quantity
		}
	}

	report := &StockReport{GeneratedAt: time.Now(), Rows: []StockRow{}}
	for _, p := range s.store.Snapshot() {
		row := StockRow{
			ProductID:     p.ID,
			ProductName:   p.ProductName,
			StockQuantity: p.StockQuantity,
			UnitsSold:     sold[p.ID],
		}
		report.Rows = append(report.Rows, row)
		report.TotalUnits += row.StockQuantity
		report.TotalSold += row.UnitsSold
		value := decimal.NewFromFloat(p.Price).Mul(decimal.NewFromInt(int64(p.StockQuantity)))
		report.InventoryValue = report.InventoryValue.Add(value)
	}
	return report, nil
}

// WritePDF renders the report as a PDF: a bar chart of stock per product
// followed by one line per product.
func (s *ReportService) WritePDF(ctx context.Context, w io.Writer, refresh bool) error {
	report, err := s.Build(ctx, refresh)
	if err != nil {
		return err
	}
	return RenderStockPDF(report, w)
}

// RenderStockPDF writes report to w. The chart is left out when there is
// nothing to plot or it fails to render.
func RenderStockPDF(report *StockReport, w io.Writer) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(reportTitle, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(reportTitle), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, report.GeneratedAt.Format("02/01/2006 15:04"), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	if png, err := renderStockChart(report); err != nil {
		zap.L().Warn("stock chart not rendered", zap.Error(err))
	} else if png != nil {
		opts := fpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader("stock-chart", opts, bytes.NewReader(png))
		pdf.ImageOptions("stock-chart", 10, pdf.GetY(), 190, 0, true, opts, 0, "")
		pdf.Ln(6)
	}

	pdf.SetFont("Helvetica", "", 11)
	if len(report.Rows) == 0 {
		pdf.CellFormat(0, 7, tr("Sin productos registrados."), "", 1, "L", false, 0, "")
	}
	for _, row := range report.Rows {
		line := fmt.Sprintf("%s: %d unidades", row.ProductName, row.StockQuantity)
		if row.UnitsSold > 0 {
			line += fmt.Sprintf(" (%d vendidas)", row.UnitsSold)
		}
		pdf.CellFormat(0, 7, tr(line), "", 1, "L", false, 0, "")
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 7, tr(fmt.Sprintf("Total en stock: %d unidades", report.TotalUnits)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, tr(fmt.Sprintf("Total vendido: %d unidades", report.TotalSold)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, tr("Valor del inventario: C$ "+report.InventoryValue.StringFixed(2)), "", 1, "L", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write report pdf: %w", err)
	}
	return nil
}

// renderStockChart returns nil without error when no product has stock.
func renderStockChart(report *StockReport) (png []byte, err error) {
	if report.TotalUnits == 0 {
		return nil, nil
	}
	bars := make([]chart.Value, 0, len(report.Rows))
	for _, row := range report.Rows {
		bars = append(bars, chart.Value{Value: float64(row.StockQuantity), Label: row.ProductName})
	}

	width := 200 + len(bars)*70
	if width < 800 {
		width = 800
	}
	graph := chart.BarChart{
		Title:      "Stock por producto",
		Background: chart.Style{Padding: chart.Box{Top: 40}},
		Width:      width,
		Height:     512,
		BarWidth:   40,
		BarSpacing: 30,
		Bars:       bars,
	}

	defer func() {
		if r := recover(); r != nil {
			png, err = nil, fmt.Errorf("chart renderer panicked: %v", r)
		}
	}()
	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
