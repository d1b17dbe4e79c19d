package export

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/SheetPlan/internal/model"
)

func TestExportRankingXLSX(t *testing.T) {
	ranked := buildTestCandidates(t)
	job := testJob()
	path := filepath.Join(t.TempDir(), "ranking.xlsx")

	if err := ExportRankingXLSX(path, job.Blank, job.Quantity, ranked); err != nil {
		t.Fatalf("ExportRankingXLSX returned error: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("failed to open workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != RankingSheet || sheets[1] != StrategiesSheet {
		t.Fatalf("unexpected sheets %v", sheets)
	}

	rows, err := f.GetRows(RankingSheet)
	if err != nil {
		t.Fatalf("failed to read ranking: %v", err)
	}
	// Title, blank row, header, one row per candidate
	if len(rows) != 3+len(ranked) {
		t.Fatalf("expected %d rows, got %d", 3+len(ranked), len(rows))
	}
	if rows[2][0] != "Rank" {
		t.Errorf("expected header row, got %v", rows[2])
	}
	if rows[3][1] != ranked[0].StockSheetSize.ID {
		t.Errorf("expected first candidate %s, got %s", ranked[0].StockSheetSize.ID, rows[3][1])
	}
	if rows[3][13] != "3.20" {
		t.Errorf("expected unit cost 3.20, got %q", rows[3][13])
	}

	strategies, err := f.GetRows(StrategiesSheet)
	if err != nil {
		t.Fatalf("failed to read strategies: %v", err)
	}
	if len(strategies) != 1+3*len(ranked) {
		t.Errorf("expected %d strategy rows, got %d", 1+3*len(ranked), len(strategies))
	}
}

func TestExportRankingXLSX_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")

	err := ExportRankingXLSX(path, model.Size{Width: 100, Height: 150}, 10, nil)
	if !errors.Is(err, model.ErrNoViableCandidate) {
		t.Fatalf("expected ErrNoViableCandidate, got %v", err)
	}
}
