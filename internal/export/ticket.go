package export

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/piwi3910/SheetPlan/internal/model"
)

// TicketInfo holds the data encoded into a job ticket QR code.
type TicketInfo struct {
	JobID          string  `json:"job"`
	Title          string  `json:"title"`
	StockSizeID    string  `json:"stock_size"`
	SheetWidth     float64 `json:"sheet_width_mm"`
	SheetHeight    float64 `json:"sheet_height_mm"`
	BlanksPerSheet int     `json:"blanks_per_sheet"`
	Sheets         int     `json:"sheets"`
	Sheet          int     `json:"sheet,omitempty"` // 1-based sheet number on stack labels
}

func newTicketInfo(sheet PlanningSheet) TicketInfo {
	c := sheet.Candidate
	info := TicketInfo{
		JobID:          sheet.Job.ID,
		Title:          sheet.Job.Title,
		StockSizeID:    c.StockSheetSize.ID,
		SheetWidth:     c.StockSheetSize.Width,
		SheetHeight:    c.StockSheetSize.Height,
		BlanksPerSheet: c.BestLayout.BlanksPerSheet,
		Sheets:         c.RequiredSheets,
	}
	if sheet.Plan != nil && sheet.Plan.FinalTotalSheets > 0 {
		info.Sheets = sheet.Plan.FinalTotalSheets
	}
	return info
}

// Label layout constants for Avery 5160-compatible labels (3 columns, 10 rows per page).
// Each label cell is approximately 66.7mm x 25.4mm on US Letter paper.
const (
	labelMarginTop  = 12.7 // mm
	labelMarginLeft = 4.8  // mm
	ticketWidth     = 66.7 // mm per label
	ticketHeight    = 25.4 // mm per label
	labelCols       = 3
	labelRows       = 10
	labelsPerPage   = labelCols * labelRows
	qrSize          = 20.0 // QR code size in mm
	labelPadding    = 2.0  // mm internal padding
)

// ExportSheetLabels writes one QR-coded label per planned sheet, so each sheet
// on the press stack can be traced back to its job. The plan must have a
// selected stock size.
func ExportSheetLabels(path string, job model.Job, plan model.Plan) error {
	if !plan.HasSelection() {
		return fmt.Errorf("%w: plan for job %s has no selected stock size", model.ErrPreconditionFailed, job.ID)
	}
	if plan.FinalTotalSheets <= 0 {
		return fmt.Errorf("%w: plan for job %s has no sheets", model.ErrPreconditionFailed, job.ID)
	}

	base := newTicketInfo(PlanningSheet{Job: job, Candidate: *plan.SelectedCandidate, Plan: &plan})
	labels := CollectSheetLabels(base)

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)

	for i, info := range labels {
		if i%labelsPerPage == 0 {
			pdf.AddPage()
		}

		posOnPage := i % labelsPerPage
		col := posOnPage % labelCols
		row := posOnPage / labelCols

		x := labelMarginLeft + float64(col)*ticketWidth
		y := labelMarginTop + float64(row)*ticketHeight

		if err := renderTicket(pdf, x, y, info); err != nil {
			return fmt.Errorf("render label for sheet %d: %w", info.Sheet, err)
		}
	}

	return pdf.OutputFileAndClose(path)
}

// CollectSheetLabels numbers one label per sheet of the ticket.
func CollectSheetLabels(base TicketInfo) []TicketInfo {
	labels := make([]TicketInfo, 0, base.Sheets)
	for i := 1; i <= base.Sheets; i++ {
		info := base
		info.Sheet = i
		labels = append(labels, info)
	}
	return labels
}

// renderTicket draws a single ticket at the given position.
func renderTicket(pdf *fpdf.Fpdf, x, y float64, info TicketInfo) error {
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, ticketWidth, ticketHeight, "D")

	qrData, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("marshal ticket: %w", err)
	}

	qrPNG, err := qrcode.Encode(string(qrData), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("generate QR code: %w", err)
	}

	imgName := fmt.Sprintf("qr_%s_%d", info.JobID, info.Sheet)
	pdf.RegisterImageOptionsReader(imgName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qrPNG))

	qrX := x + ticketWidth - qrSize - labelPadding
	qrY := y + (ticketHeight-qrSize)/2
	pdf.ImageOptions(imgName, qrX, qrY, qrSize, qrSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	textX := x + labelPadding
	textW := ticketWidth - qrSize - 3*labelPadding

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(textX, y+labelPadding)

	title := fmt.Sprintf("%s %s", info.JobID, info.Title)
	if pdf.GetStringWidth(title) > textW {
		for len(title) > 0 && pdf.GetStringWidth(title+"...") > textW {
			title = title[:len(title)-1]
		}
		title += "..."
	}
	pdf.CellFormat(textW, 4.5, title, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetXY(textX, y+labelPadding+5)
	dims := fmt.Sprintf("%.0f x %.0f mm, %d up", info.SheetWidth, info.SheetHeight, info.BlanksPerSheet)
	pdf.CellFormat(textW, 3.5, dims, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 6)
	pdf.SetTextColor(100, 100, 100)
	pdf.SetXY(textX, y+labelPadding+9)
	count := fmt.Sprintf("%d sheets", info.Sheets)
	if info.Sheet > 0 {
		count = fmt.Sprintf("Sheet %d of %d", info.Sheet, info.Sheets)
	}
	pdf.CellFormat(textW, 3, count, "", 1, "L", false, 0, "")

	pdf.SetTextColor(0, 0, 0)
	return nil
}
