package export

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/piwi3910/SheetPlan/internal/costing"
	"github.com/piwi3910/SheetPlan/internal/engine"
	"github.com/piwi3910/SheetPlan/internal/model"
)

func testJob() model.Job {
	return model.Job{
		ID:         "J-1001",
		Title:      "Folding carton",
		MaterialID: "m1",
		Quantity:   950,
		Blank:      model.Size{Width: 100, Height: 150},
		Department: "planning",
	}
}

// buildTestCandidates ranks three stock sizes for the test job.
func buildTestCandidates(t *testing.T) []model.OptimizationCandidate {
	t.Helper()
	cost := decimal.RequireFromString("3.20")
	sizes := []model.StockSheetSize{
		{ID: "b1", Name: "B1", MaterialID: "m1", Width: 1000, Height: 1400, AvailableStock: 40, UnitCost: &cost},
		{ID: "b2", Name: "B2", MaterialID: "m1", Width: 700, Height: 1000, AvailableStock: 5},
		{ID: "sra3", Name: "SRA3", MaterialID: "m1", Width: 320, Height: 450, AvailableStock: 500},
	}
	job := testJob()
	ranked, err := engine.NewRanker(2).RankCandidates(t.Context(), sizes, job.Blank, job.Quantity)
	if err != nil {
		t.Fatalf("RankCandidates returned error: %v", err)
	}
	return ranked
}

func assertFileWritten(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("file was not created: %v", err)
	}
	if info.Size() < 500 {
		t.Errorf("file seems too small: %d bytes", info.Size())
	}
}

func TestExportPlanningPDF_CreatesFile(t *testing.T) {
	ranked := buildTestCandidates(t)
	path := filepath.Join(t.TempDir(), "plan.pdf")

	err := ExportPlanningPDF(path, PlanningSheet{
		Job:         testJob(),
		Candidate:   ranked[0],
		Ranking:     ranked,
		GeneratedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("ExportPlanningPDF returned error: %v", err)
	}
	assertFileWritten(t, path)
}

func TestExportPlanningPDF_WithPlanAndCost(t *testing.T) {
	ranked := buildTestCandidates(t)
	selected := ranked[0]
	path := filepath.Join(t.TempDir(), "planned.pdf")

	summary, err := costing.Estimate(selected.RequiredSheets, 1, &selected, nil)
	if err != nil {
		t.Fatalf("Estimate returned error: %v", err)
	}
	plan := model.NewPlan("J-1001", time.Now())
	plan.SelectedCandidate = &selected
	plan.Status = model.PlanPlanned
	plan.BaseRequiredSheets = selected.RequiredSheets
	plan.AdditionalSheets = 1
	plan.FinalTotalSheets = selected.RequiredSheets + 1
	plan.WastagePercentage = 9.09
	plan.WastageJustification = "Make-ready sheet"

	err = ExportPlanningPDF(path, PlanningSheet{
		Job:       testJob(),
		Candidate: selected,
		Plan:      &plan,
		Cost:      &summary,
		Ranking:   ranked,
	})
	if err != nil {
		t.Fatalf("ExportPlanningPDF returned error: %v", err)
	}
	assertFileWritten(t, path)
}

func TestExportPlanningPDF_MixedLayout(t *testing.T) {
	job := testJob()
	job.Blank = model.Size{Width: 300, Height: 200}
	size := model.StockSheetSize{ID: "s1", Name: "Small", Width: 1000, Height: 700, AvailableStock: 10}

	candidate, err := engine.Evaluate(size, job.Blank, job.Quantity)
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if !candidate.BestLayout.IsMixed() {
		t.Fatalf("expected a mixed layout, got %s", candidate.BestLayout.GridPattern)
	}

	path := filepath.Join(t.TempDir(), "mixed.pdf")
	if err := ExportPlanningPDF(path, PlanningSheet{Job: job, Candidate: candidate}); err != nil {
		t.Fatalf("ExportPlanningPDF returned error: %v", err)
	}
	assertFileWritten(t, path)
}

func TestExportPlanningPDF_ZeroFitCandidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "none.pdf")

	err := ExportPlanningPDF(path, PlanningSheet{Job: testJob()})
	if !errors.Is(err, model.ErrIncompatible) {
		t.Fatalf("expected ErrIncompatible, got %v", err)
	}
	if _, statErr := os.Stat(path); statErr == nil {
		t.Error("expected no file to be written")
	}
}

func TestRankingRows_Limit(t *testing.T) {
	ranked := buildTestCandidates(t)

	rows := rankingRows(ranked, 2)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "1" || rows[0][1] != ranked[0].StockSheetSize.Name {
		t.Errorf("unexpected first row %v", rows[0])
	}
}

func TestComparisonRows_MarksBest(t *testing.T) {
	ranked := buildTestCandidates(t)

	rows := comparisonRows(PlanningSheet{Job: testJob(), Candidate: ranked[0]})
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	best := 0
	for _, r := range rows {
		if r[6] == "*" {
			best++
		}
	}
	if best != 1 {
		t.Errorf("expected exactly one best strategy, got %d", best)
	}
}

func TestLabelFontSize(t *testing.T) {
	tests := []struct {
		w, h float64
		want float64
	}{
		{50, 50, 8},
		{30, 50, 7},
		{10, 50, 6},
	}
	for _, tt := range tests {
		if got := labelFontSize(tt.w, tt.h); got != tt.want {
			t.Errorf("labelFontSize(%v, %v) = %v, want %v", tt.w, tt.h, got, tt.want)
		}
	}
}
