// Package planning runs the Draft → Planned → Applied lifecycle of a job's
// production plan.
package planning

import (
	"fmt"

	"github.com/piwi3910/SheetPlan/internal/model"
)

// CanSave reports whether a plan in the given status may be saved.
func CanSave(status model.PlanStatus) error {
	if status == model.PlanApplied {
		return fmt.Errorf("%w: plan is already applied", model.ErrConflict)
	}
	return nil
}

// CanApply reports whether a plan may be applied. Applied plans conflict;
// plans without a selected stock size fail the precondition.
func CanApply(p model.Plan) error {
	if p.Status == model.PlanApplied {
		return fmt.Errorf("%w: plan for job %s is already applied", model.ErrConflict, p.JobID)
	}
	if !p.HasSelection() {
		return fmt.Errorf("%w: no stock size selected for job %s", model.ErrPreconditionFailed, p.JobID)
	}
	return nil
}
