package project

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/piwi3910/SheetPlan/internal/engine"
	"github.com/piwi3910/SheetPlan/internal/model"
)

func bundleFixture(t *testing.T) (model.Job, model.Plan) {
	t.Helper()
	job := model.Job{ID: "J-7", Title: "Cartons", Quantity: 950, Blank: model.Size{Width: 100, Height: 150}}
	c, err := engine.Evaluate(model.StockSheetSize{ID: "b1", Name: "B1", Width: 1000, Height: 1400, AvailableStock: 40}, job.Blank, job.Quantity)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	plan := model.NewPlan(job.ID, time.Now())
	plan.SelectedCandidate = &c
	plan.Status = model.PlanPlanned
	plan.BaseRequiredSheets = c.RequiredSheets
	plan.AdditionalSheets = 1
	plan.FinalTotalSheets = c.RequiredSheets + 1
	return job, plan
}

func TestExportAndImportBundle(t *testing.T) {
	job, plan := bundleFixture(t)
	path := filepath.Join(t.TempDir(), "out", "J-7.json")

	if err := ExportBundle(path, job, plan, []model.OptimizationCandidate{*plan.SelectedCandidate}); err != nil {
		t.Fatalf("ExportBundle failed: %v", err)
	}

	b, err := ImportBundle(path)
	if err != nil {
		t.Fatalf("ImportBundle failed: %v", err)
	}
	if b.Version != BundleVersion || b.CreatedAt == "" {
		t.Errorf("unexpected header %q %q", b.Version, b.CreatedAt)
	}
	if b.Job.ID != "J-7" || b.Plan.FinalTotalSheets != plan.FinalTotalSheets {
		t.Errorf("unexpected bundle %+v", b)
	}
	if b.Plan.SelectedCandidate == nil || b.Plan.SelectedCandidate.BestLayout.BlanksPerSheet != 92 {
		t.Error("expected selected candidate with 92 blanks per sheet")
	}
	if len(b.Ranking) != 1 {
		t.Errorf("expected 1 ranked candidate, got %d", len(b.Ranking))
	}
}

func TestExportBundle_MismatchedJob(t *testing.T) {
	job, plan := bundleFixture(t)
	plan.JobID = "other"

	err := ExportBundle(filepath.Join(t.TempDir(), "b.json"), job, plan, nil)
	if !errors.Is(err, model.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestImportBundle_Invalid(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		data string
	}{
		{"not json", "{not json}"},
		{"missing version", `{"job":{"id":"J"},"plan":{"job_id":"J","status":"draft"}}`},
		{"bad total", `{"version":"1.0.0","job":{"id":"J"},"plan":{"job_id":"J","status":"planned","base_required_sheets":10,"additional_sheets":1,"final_total_sheets":12}}`},
		{"bad status", `{"version":"1.0.0","job":{"id":"J"},"plan":{"job_id":"J","status":"cancelled"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".json")
			if err := os.WriteFile(path, []byte(tt.data), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := ImportBundle(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestImportBundle_MissingFile(t *testing.T) {
	if _, err := ImportBundle(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
