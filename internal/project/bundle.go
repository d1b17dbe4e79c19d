package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/piwi3910/SheetPlan/internal/model"
)

// BundleVersion is written into every plan bundle.
const BundleVersion = "1.0.0"

// Bundle is a self-contained archive of one job's planning decision.
type Bundle struct {
	Version   string                        `json:"version"`
	CreatedAt string                        `json:"created_at"`
	Job       model.Job                     `json:"job"`
	Plan      model.Plan                    `json:"plan"`
	Ranking   []model.OptimizationCandidate `json:"ranking,omitempty"`
}

// ExportBundle writes a job, its plan and the ranking it was chosen from to a
// single JSON file at the specified path.
func ExportBundle(path string, job model.Job, plan model.Plan, ranking []model.OptimizationCandidate) error {
	if plan.JobID != job.ID {
		return fmt.Errorf("%w: plan belongs to job %s, not %s", model.ErrInvalidInput, plan.JobID, job.ID)
	}
	b := Bundle{
		Version:   BundleVersion,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Job:       job,
		Plan:      plan,
		Ranking:   ranking,
	}
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal bundle: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write bundle file: %w", err)
	}
	return nil
}

// ImportBundle reads a bundle file and checks that the plan still satisfies
// its sheet total.
func ImportBundle(path string) (Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Bundle{}, fmt.Errorf("failed to read bundle file: %w", err)
	}
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return Bundle{}, fmt.Errorf("failed to parse bundle file: %w", err)
	}
	if b.Version == "" {
		return Bundle{}, fmt.Errorf("invalid bundle file: missing version field")
	}
	if b.Plan.JobID != b.Job.ID {
		return Bundle{}, fmt.Errorf("%w: bundle plan belongs to job %s, not %s", model.ErrInvalidInput, b.Plan.JobID, b.Job.ID)
	}
	if b.Plan.FinalTotalSheets != b.Plan.BaseRequiredSheets+b.Plan.AdditionalSheets {
		return Bundle{}, fmt.Errorf("%w: bundle sheet total %d does not match %d + %d", model.ErrInvalidInput,
			b.Plan.FinalTotalSheets, b.Plan.BaseRequiredSheets, b.Plan.AdditionalSheets)
	}
	if !b.Plan.Status.Valid() {
		return Bundle{}, fmt.Errorf("%w: bundle plan has unknown status %q", model.ErrInvalidInput, b.Plan.Status)
	}
	return b, nil
}
