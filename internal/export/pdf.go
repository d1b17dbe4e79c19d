// Package export renders planning results to PDF and Excel files.
package export

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/piwi3910/SheetPlan/internal/engine"
	"github.com/piwi3910/SheetPlan/internal/model"
)

// blankColor represents an RGB color for a placed blank.
type blankColor struct {
	R, G, B int
}

// Horizontal and rotated blanks are drawn in different colors so mixed
// layouts read at a glance.
var (
	horizontalColor = blankColor{R: 76, G: 175, B: 80}  // green
	verticalColor   = blankColor{R: 33, G: 150, B: 243} // blue
)

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	statsHeight  = 20.0
	drawAreaTop  = marginTop + headerHeight + 5.0
)

// PlanningSheet is everything printed on a production planning sheet.
type PlanningSheet struct {
	Job         model.Job
	Candidate   model.OptimizationCandidate
	Plan        *model.Plan // Optional, nil before the plan is saved
	Cost        *model.CostSummary
	Ranking     []model.OptimizationCandidate
	GeneratedAt time.Time
}

// ExportPlanningPDF writes the planning sheet for a job: the chosen layout
// drawn to scale, followed by a summary page with the strategy comparison,
// the stock size ranking, sheet totals and a QR job ticket.
func ExportPlanningPDF(path string, sheet PlanningSheet) error {
	if !sheet.Candidate.BestLayout.Fits() {
		return fmt.Errorf("%w: candidate %s fits no blanks", model.ErrIncompatible, sheet.Candidate.StockSheetSize.ID)
	}
	if sheet.GeneratedAt.IsZero() {
		sheet.GeneratedAt = time.Now()
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)

	pdf.AddPage()
	renderLayoutPage(pdf, sheet)

	pdf.AddPage()
	if err := renderSummaryPage(pdf, sheet); err != nil {
		return err
	}

	return pdf.OutputFileAndClose(path)
}

// renderLayoutPage draws the best layout of the selected stock size.
func renderLayoutPage(pdf *fpdf.Fpdf, sheet PlanningSheet) {
	stock := sheet.Candidate.StockSheetSize
	layout := sheet.Candidate.BestLayout

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	title := fmt.Sprintf("Job %s: %s on %s (%.0f x %.0f mm)", sheet.Job.ID, sheet.Job.Title, stock.Name, stock.Width, stock.Height)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, title, "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	stats := fmt.Sprintf("Layout: %s %s | Blanks/sheet: %d | Efficiency: %.2f%% | Wastage: %.2f%%",
		layout.Type, plainText(layout.GridPattern), layout.BlanksPerSheet, layout.EfficiencyPercentage, layout.WastagePercentage)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, stats, "", 0, "L", false, 0, "")

	drawWidth := pageWidth - marginLeft - marginRight
	drawHeight := pageHeight - drawAreaTop - marginBottom - statsHeight

	scale := math.Min(drawWidth/stock.Width, drawHeight/stock.Height)
	canvasW := stock.Width * scale
	canvasH := stock.Height * scale
	offsetX := marginLeft + (drawWidth-canvasW)/2
	offsetY := drawAreaTop

	// Board color
	pdf.SetFillColor(235, 228, 210)
	pdf.SetDrawColor(100, 100, 100)
	pdf.SetLineWidth(0.5)
	pdf.Rect(offsetX, offsetY, canvasW, canvasH, "FD")

	drawOffcuts(pdf, model.DetectOffcuts(stock.Size(), layout, nil), scale, offsetX, offsetY)

	blank := sheet.Job.Blank
	for i, p := range engine.Placements(blank, layout) {
		col := horizontalColor
		if p.Rotated {
			col = verticalColor
		}
		pw := p.Width * scale
		ph := p.Height * scale
		px := offsetX + p.X*scale
		py := offsetY + p.Y*scale

		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.SetDrawColor(30, 30, 30)
		pdf.SetLineWidth(0.3)
		pdf.Rect(px, py, pw, ph, "FD")

		if pw > 8 && ph > 5 {
			pdf.SetFont("Helvetica", "", labelFontSize(pw, ph))
			pdf.SetTextColor(0, 0, 0)
			num := fmt.Sprintf("%d", i+1)
			numW := pdf.GetStringWidth(num)
			if numW < pw-1 {
				pdf.SetXY(px+(pw-numW)/2, py+ph/2-2)
				pdf.CellFormat(numW, 4, num, "", 0, "C", false, 0, "")
			}
		}
	}

	drawDimensionAnnotations(pdf, stock.Size(), offsetX, offsetY, canvasW, canvasH)
	drawLegend(pdf, blank, layout, offsetY+canvasH+6)
}

// drawOffcuts renders reusable remnants with a hatch pattern.
func drawOffcuts(pdf *fpdf.Fpdf, offcuts []model.Offcut, scale, offsetX, offsetY float64) {
	for _, o := range offcuts {
		zx := offsetX + o.X*scale
		zy := offsetY + o.Y*scale
		zw := o.Width * scale
		zh := o.Height * scale

		pdf.SetFillColor(255, 236, 200)
		pdf.SetDrawColor(200, 120, 0)
		pdf.SetLineWidth(0.3)
		pdf.Rect(zx, zy, zw, zh, "FD")
		drawHatchPattern(pdf, zx, zy, zw, zh)

		if zw > 20 && zh > 8 {
			pdf.SetFont("Helvetica", "B", 6)
			pdf.SetTextColor(160, 90, 0)
			label := fmt.Sprintf("OFFCUT %.0fx%.0f", o.Width, o.Height)
			labelW := pdf.GetStringWidth(label)
			if labelW < zw-2 {
				pdf.SetXY(zx+(zw-labelW)/2, zy+zh/2-2)
				pdf.CellFormat(labelW, 4, label, "", 0, "C", false, 0, "")
			}
		}
	}
	pdf.SetTextColor(0, 0, 0)
}

// drawHatchPattern draws diagonal lines inside a rectangle.
func drawHatchPattern(pdf *fpdf.Fpdf, x, y, w, h float64) {
	pdf.SetDrawColor(200, 120, 0)
	pdf.SetLineWidth(0.15)

	spacing := 4.0
	maxDist := w + h

	for d := spacing; d < maxDist; d += spacing {
		x1 := x + math.Max(0, d-h)
		y1 := y + math.Min(h, d)
		x2 := x + math.Min(w, d)
		y2 := y + math.Max(0, d-w)

		pdf.Line(x1, y1, x2, y2)
	}
}

// drawDimensionAnnotations adds width and height labels outside the sheet rectangle.
func drawDimensionAnnotations(pdf *fpdf.Fpdf, stock model.Size, offsetX, offsetY, canvasW, canvasH float64) {
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(80, 80, 80)

	widthLabel := fmt.Sprintf("%.0f mm", stock.Width)
	wLabelW := pdf.GetStringWidth(widthLabel)
	pdf.SetXY(offsetX+(canvasW-wLabelW)/2, offsetY+canvasH+1)
	pdf.CellFormat(wLabelW, 4, widthLabel, "", 0, "C", false, 0, "")

	heightLabel := fmt.Sprintf("%.0f mm", stock.Height)
	pdf.TransformBegin()
	pdf.TransformRotate(90, offsetX-3, offsetY+canvasH/2)
	hLabelW := pdf.GetStringWidth(heightLabel)
	pdf.SetXY(offsetX-3-hLabelW/2, offsetY+canvasH/2-2)
	pdf.CellFormat(hLabelW, 4, heightLabel, "", 0, "C", false, 0, "")
	pdf.TransformEnd()

	pdf.SetTextColor(0, 0, 0)
}

// drawLegend explains the blank colors and lists each band of the layout.
func drawLegend(pdf *fpdf.Fpdf, blank model.Size, layout model.Layout, startY float64) {
	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, startY)
	pdf.CellFormat(20, 4, "Bands:", "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	xPos := marginLeft + 22
	maxX := pageWidth - marginRight

	for _, b := range layout.Bands {
		col := horizontalColor
		placed := blank
		if b.Orientation == model.OrientationVertical {
			col = verticalColor
			placed = blank.Rotated()
		}
		label := fmt.Sprintf("%s: %d row(s) x %d of %.0fx%.0f", b.Orientation, b.Rows, b.PerRow, placed.Width, placed.Height)
		labelW := pdf.GetStringWidth(label) + 6

		if xPos+labelW > maxX {
			startY += 5
			xPos = marginLeft
		}

		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.Rect(xPos, startY+0.5, 3, 3, "F")
		pdf.SetXY(xPos+4, startY)
		pdf.CellFormat(labelW-4, 4, label, "", 0, "L", false, 0, "")

		xPos += labelW + 2
	}
}

// renderSummaryPage draws the figures behind the decision.
func renderSummaryPage(pdf *fpdf.Fpdf, sheet PlanningSheet) error {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 10, "Production Planning Sheet", "", 0, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+12, pageWidth-marginRight, marginTop+12)

	if err := renderTicket(pdf, pageWidth-marginRight-ticketWidth, marginTop+16, newTicketInfo(sheet)); err != nil {
		return err
	}

	y := marginTop + 18
	y = renderKeyValues(pdf, y, "Job", jobItems(sheet))
	y += 4

	y = renderTable(pdf, y, "Strategy Comparison",
		[]float64{35, 40, 30, 30, 30, 30, 20},
		[]string{"Strategy", "Pattern", "Blanks/Sheet", "Efficiency", "Wastage", "Sheets", "Best"},
		comparisonRows(sheet))
	y += 4

	if len(sheet.Ranking) > 0 {
		renderTable(pdf, y, "Stock Size Ranking",
			[]float64{12, 45, 35, 25, 25, 22, 22, 22},
			[]string{"#", "Size", "Dimensions", "Blanks", "Efficiency", "Sheets", "Stock", "Short"},
			rankingRows(sheet.Ranking, 8))
	}

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	footer := fmt.Sprintf("Generated by SheetPlan on %s", sheet.GeneratedAt.Format("2006-01-02 15:04"))
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 4, footer, "", 0, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	return nil
}

type keyValue struct {
	label string
	value string
}

func jobItems(sheet PlanningSheet) []keyValue {
	c := sheet.Candidate
	items := []keyValue{
		{"Job", fmt.Sprintf("%s %s", sheet.Job.ID, sheet.Job.Title)},
		{"Blank", fmt.Sprintf("%.0f x %.0f mm", sheet.Job.Blank.Width, sheet.Job.Blank.Height)},
		{"Quantity", fmt.Sprintf("%d", sheet.Job.Quantity)},
		{"Stock Size", fmt.Sprintf("%s (%.0f x %.0f mm)", c.StockSheetSize.Name, c.StockSheetSize.Width, c.StockSheetSize.Height)},
		{"Required Sheets", fmt.Sprintf("%d (stock %d, short %d)", c.RequiredSheets, c.StockSheetSize.AvailableStock, c.StockShortage)},
	}
	if p := sheet.Plan; p != nil {
		items = append(items,
			keyValue{"Plan Status", string(p.Status)},
			keyValue{"Total Sheets", fmt.Sprintf("%d base + %d additional = %d", p.BaseRequiredSheets, p.AdditionalSheets, p.FinalTotalSheets)},
			keyValue{"Wastage", fmt.Sprintf("%.2f%%", p.WastagePercentage)},
		)
		if p.WastageJustification != "" {
			items = append(items, keyValue{"Justification", p.WastageJustification})
		}
	}
	if cs := sheet.Cost; cs != nil {
		items = append(items,
			keyValue{"Cost per Sheet", cs.CostPerSheet.StringFixed(2)},
			keyValue{"Material Cost", cs.MaterialCost.StringFixed(2)},
			keyValue{"Wastage Cost", cs.WastageCost.StringFixed(2)},
		)
	}
	return items
}

func renderKeyValues(pdf *fpdf.Fpdf, y float64, title string, items []keyValue) float64 {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, title, "", 0, "L", false, 0, "")
	y += 8

	pdf.SetFont("Helvetica", "", 9)
	for _, item := range items {
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(35, 5, item.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(120, 5, item.value, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		y += 5
	}
	return y
}

func renderTable(pdf *fpdf.Fpdf, y float64, title string, colWidths []float64, headers []string, rows [][]string) float64 {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, title, "", 0, "L", false, 0, "")
	y += 8

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetFillColor(230, 230, 230)
	xPos := marginLeft
	for i, header := range headers {
		pdf.SetXY(xPos, y)
		pdf.CellFormat(colWidths[i], 5, header, "1", 0, "C", true, 0, "")
		xPos += colWidths[i]
	}
	y += 5

	pdf.SetFont("Helvetica", "", 8)
	for i, row := range rows {
		if i%2 == 0 {
			pdf.SetFillColor(245, 245, 245)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}
		xPos = marginLeft
		for j, cell := range row {
			pdf.SetXY(xPos, y)
			pdf.CellFormat(colWidths[j], 5, cell, "1", 0, "C", true, 0, "")
			xPos += colWidths[j]
		}
		y += 5
	}
	return y
}

func comparisonRows(sheet PlanningSheet) [][]string {
	var rows [][]string
	for _, c := range engine.CompareLayouts(sheet.Candidate.Layouts, sheet.Job.Quantity) {
		best := ""
		if c.IsBest {
			best = "*"
		}
		sheets := "-"
		if c.RequiredSheets > 0 {
			sheets = fmt.Sprintf("%d", c.RequiredSheets)
		}
		rows = append(rows, []string{
			c.Name,
			plainText(c.GridPattern),
			fmt.Sprintf("%d", c.BlanksPerSheet),
			fmt.Sprintf("%.2f%%", c.Efficiency),
			fmt.Sprintf("%.2f%%", c.Wastage),
			sheets,
			best,
		})
	}
	return rows
}

// rankingRows formats at most limit candidates.
func rankingRows(ranking []model.OptimizationCandidate, limit int) [][]string {
	var rows [][]string
	for i, c := range ranking {
		if i >= limit {
			break
		}
		s := c.StockSheetSize
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			s.Name,
			fmt.Sprintf("%.0f x %.0f", s.Width, s.Height),
			fmt.Sprintf("%d", c.BestLayout.BlanksPerSheet),
			fmt.Sprintf("%.2f%%", c.BestLayout.EfficiencyPercentage),
			fmt.Sprintf("%d", c.RequiredSheets),
			fmt.Sprintf("%d", s.AvailableStock),
			fmt.Sprintf("%d", c.StockShortage),
		})
	}
	return rows
}

// labelFontSize returns an appropriate font size based on the rectangle dimensions.
func labelFontSize(w, h float64) float64 {
	minDim := math.Min(w, h)
	switch {
	case minDim > 40:
		return 8
	case minDim > 20:
		return 7
	default:
		return 6
	}
}

// plainText swaps characters the core PDF fonts cannot encode.
func plainText(s string) string {
	return strings.ReplaceAll(s, "×", "x")
}
