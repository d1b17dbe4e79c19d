package export

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/piwi3910/SheetPlan/internal/model"
)

func plannedPlan(t *testing.T, extra int) model.Plan {
	t.Helper()
	ranked := buildTestCandidates(t)
	selected := ranked[0]
	p := model.NewPlan("J-1001", time.Now())
	p.SelectedCandidate = &selected
	p.Status = model.PlanPlanned
	p.BaseRequiredSheets = selected.RequiredSheets
	p.AdditionalSheets = extra
	p.FinalTotalSheets = selected.RequiredSheets + extra
	return p
}

func TestExportSheetLabels_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.pdf")

	if err := ExportSheetLabels(path, testJob(), plannedPlan(t, 1)); err != nil {
		t.Fatalf("ExportSheetLabels returned error: %v", err)
	}
	assertFileWritten(t, path)
}

func TestExportSheetLabels_MultiplePages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "many.pdf")
	p := plannedPlan(t, labelsPerPage)

	if err := ExportSheetLabels(path, testJob(), p); err != nil {
		t.Fatalf("ExportSheetLabels returned error: %v", err)
	}
	assertFileWritten(t, path)
}

func TestExportSheetLabels_NoSelection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "none.pdf")
	p := model.NewPlan("J-1001", time.Now())

	err := ExportSheetLabels(path, testJob(), p)
	if !errors.Is(err, model.ErrPreconditionFailed) {
		t.Fatalf("expected ErrPreconditionFailed, got %v", err)
	}
}

func TestCollectSheetLabels(t *testing.T) {
	base := TicketInfo{JobID: "J-1001", Sheets: 3, BlanksPerSheet: 92}

	labels := CollectSheetLabels(base)

	if len(labels) != 3 {
		t.Fatalf("expected 3 labels, got %d", len(labels))
	}
	for i, l := range labels {
		if l.Sheet != i+1 {
			t.Errorf("label %d: expected sheet %d, got %d", i, i+1, l.Sheet)
		}
		if l.JobID != "J-1001" || l.Sheets != 3 {
			t.Errorf("label %d lost ticket data: %+v", i, l)
		}
	}
}

func TestNewTicketInfo_UsesPlanTotal(t *testing.T) {
	p := plannedPlan(t, 2)

	info := newTicketInfo(PlanningSheet{Job: testJob(), Candidate: *p.SelectedCandidate, Plan: &p})

	if info.Sheets != p.FinalTotalSheets {
		t.Errorf("expected %d sheets, got %d", p.FinalTotalSheets, info.Sheets)
	}
	if info.BlanksPerSheet != p.SelectedCandidate.BestLayout.BlanksPerSheet {
		t.Errorf("expected %d blanks per sheet, got %d", p.SelectedCandidate.BestLayout.BlanksPerSheet, info.BlanksPerSheet)
	}

	data, err := json.Marshal(info)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["job"] != "J-1001" {
		t.Errorf("expected job key in QR payload, got %v", decoded)
	}
	if _, ok := decoded["sheet"]; ok {
		t.Error("expected sheet number omitted on the planning ticket")
	}
}
