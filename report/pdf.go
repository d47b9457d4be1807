package report

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// Page geometry in points, top-left origin (A4).
const (
	pageHeight   = 842.0
	marginLeft   = 100.0
	firstLineY   = 42.0
	bottomLimit  = pageHeight - 50
	strategyStep = 15.0
)

// PDFRenderer renders the offset report locally.
type PDFRenderer struct {
	// Now stamps the "Generated on" line; defaults to time.Now.
	Now func() time.Time
	// Compress toggles stream compression in the output.
	Compress bool
}

func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{Now: time.Now, Compress: true}
}

func (r *PDFRenderer) Render(ctx context.Context, req Request) (Artifact, error) {
	if err := ctx.Err(); err != nil {
		return Artifact{}, &ExportFailure{Cause: "export cancelled", Err: err}
	}

	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	generated := now()

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetCompression(r.Compress)
	pdf.SetTitle("Carbon Offset Report", false)
	pdf.SetCreationDate(generated)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Text(marginLeft, firstLineY, "Carbon Offset Report")

	pdf.SetFont("Helvetica", "", 11)
	pdf.Text(marginLeft, firstLineY+20, "Generated on: "+generated.Format("2006-01-02 15:04:05"))

	pdf.SetFont("Helvetica", "", 12)
	pdf.Text(marginLeft, firstLineY+50, fmt.Sprintf("Total Emissions: %s tCO2e", FormatTonnes(decimal.NewFromFloat(req.BaselineEmissions), 1)))
	pdf.Text(marginLeft, firstLineY+65, fmt.Sprintf("Total Offset: %s tCO2e", FormatTonnes(decimal.NewFromFloat(req.TotalOffset), 1)))
	pdf.Text(marginLeft, firstLineY+80, fmt.Sprintf("Net Emissions: %s tCO2e", FormatTonnes(decimal.NewFromFloat(req.NetEmissions), 1)))
	pdf.Text(marginLeft, firstLineY+95, fmt.Sprintf("Reduction Achieved: %s%%", FormatTonnes(decimal.NewFromFloat(req.ReductionPercentage), 0)))

	y := firstLineY + 120
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(marginLeft, y, "Offset Strategies:")
	y += 20
	pdf.SetFont("Helvetica", "", 11)

	for _, s := range req.Strategies {
		if y > bottomLimit {
			pdf.AddPage()
			pdf.SetFont("Helvetica", "", 11)
			y = firstLineY
		}
		pdf.Text(marginLeft, y, StrategyLineText(s))
		y += strategyStep
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return Artifact{}, &ExportFailure{Cause: "could not render PDF", Err: err}
	}
	return Artifact{
		Filename:    DefaultFilename,
		ContentType: ContentTypePDF,
		Data:        buf.Bytes(),
		Pages:       pdf.PageCount(),
	}, nil
}

// StrategyLineText is the report line for one strategy,
// e.g. "- Tree Planting: -25.00 tCO2e (83.3%)".
func StrategyLineText(s StrategyLine) string {
	return fmt.Sprintf("- %s: -%s tCO2e (%s%%)",
		s.Type,
		FormatTonnes(decimal.NewFromFloat(s.Impact), 2),
		decimal.NewFromFloat(s.Percentage).StringFixed(1),
	)
}
