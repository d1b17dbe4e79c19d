package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/SheetPlan/internal/engine"
	"github.com/piwi3910/SheetPlan/internal/model"
)

// Sheet names used by ExportRankingXLSX.
const (
	RankingSheet    = "Ranking"
	StrategiesSheet = "Strategies"
)

var rankingHeader = []interface{}{
	"Rank", "Size ID", "Name", "Width (mm)", "Height (mm)", "Best Layout", "Pattern",
	"Blanks/Sheet", "Efficiency %", "Wastage %", "Required Sheets", "Available", "Shortage", "Unit Cost",
}

var strategiesHeader = []interface{}{
	"Size ID", "Strategy", "Pattern", "Blanks/Sheet", "Efficiency %", "Wastage %", "Required Sheets", "Best",
}

// ExportRankingXLSX writes a ranked candidate list to an Excel workbook with a
// ranking sheet and a per-strategy breakdown sheet.
func ExportRankingXLSX(path string, blank model.Size, quantity int, ranking []model.OptimizationCandidate) error {
	if len(ranking) == 0 {
		return fmt.Errorf("%w: no candidates to export", model.ErrNoViableCandidate)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(RankingSheet)
	if err != nil {
		return fmt.Errorf("create ranking sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("delete default sheet: %w", err)
	}
	if _, err := f.NewSheet(StrategiesSheet); err != nil {
		return fmt.Errorf("create strategies sheet: %w", err)
	}

	if err := f.SetCellValue(RankingSheet, "A1", fmt.Sprintf("Blank %.0f x %.0f mm, quantity %d", blank.Width, blank.Height, quantity)); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"E6E6E6"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	if err := writeRow(f, RankingSheet, 3, rankingHeader); err != nil {
		return err
	}
	if err := f.SetCellStyle(RankingSheet, "A3", "N3", headerStyle); err != nil {
		return err
	}
	if err := writeRow(f, StrategiesSheet, 1, strategiesHeader); err != nil {
		return err
	}
	if err := f.SetCellStyle(StrategiesSheet, "A1", "H1", headerStyle); err != nil {
		return err
	}

	strategyRow := 2
	for i, c := range ranking {
		s := c.StockSheetSize
		unitCost := ""
		if s.UnitCost != nil {
			unitCost = s.UnitCost.StringFixed(2)
		}
		row := []interface{}{
			i + 1, s.ID, s.Name, s.Width, s.Height, string(c.BestLayout.Type), c.BestLayout.GridPattern,
			c.BestLayout.BlanksPerSheet, c.BestLayout.EfficiencyPercentage, c.BestLayout.WastagePercentage,
			c.RequiredSheets, s.AvailableStock, c.StockShortage, unitCost,
		}
		if err := writeRow(f, RankingSheet, i+4, row); err != nil {
			return err
		}

		for _, sc := range engine.CompareLayouts(c.Layouts, quantity) {
			row := []interface{}{
				s.ID, sc.Name, sc.GridPattern, sc.BlanksPerSheet, sc.Efficiency, sc.Wastage, sc.RequiredSheets, sc.IsBest,
			}
			if err := writeRow(f, StrategiesSheet, strategyRow, row); err != nil {
				return err
			}
			strategyRow++
		}
	}

	if err := f.SetColWidth(RankingSheet, "B", "C", 18); err != nil {
		return err
	}
	if err := f.SetColWidth(StrategiesSheet, "A", "C", 16); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}
