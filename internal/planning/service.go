package planning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/piwi3910/SheetPlan/internal/costing"
	"github.com/piwi3910/SheetPlan/internal/engine"
	"github.com/piwi3910/SheetPlan/internal/model"
	"github.com/piwi3910/SheetPlan/internal/wastage"
)

// SaveRequest is an operator's selection for a job.
type SaveRequest struct {
	JobID            string
	Candidate        *model.OptimizationCandidate
	AdditionalSheets int
	Justification    string
	// Confirmed acknowledges wastage above the confirmation threshold.
	Confirmed bool
}

// Service runs plan operations against a Repository.
type Service struct {
	repo            Repository
	ranker          *engine.Ranker
	defaultUnitCost *decimal.Decimal
	now             func() time.Time
}

// NewService creates a Service. defaultUnitCost prices sheets when neither the
// stock size nor the material carries a price; it may be nil.
func NewService(repo Repository, ranker *engine.Ranker, defaultUnitCost *decimal.Decimal) *Service {
	if ranker == nil {
		ranker = engine.NewRanker(0)
	}
	return &Service{
		repo:            repo,
		ranker:          ranker,
		defaultUnitCost: defaultUnitCost,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// StartPlanning returns the job's plan, creating an empty draft when the job
// has none yet.
func (s *Service) StartPlanning(ctx context.Context, jobID string) (model.Plan, error) {
	var plan model.Plan
	err := s.repo.InTx(ctx, func(tx Tx) error {
		if _, err := tx.LoadJob(ctx, jobID); err != nil {
			return err
		}
		p, err := tx.LoadPlan(ctx, jobID)
		if err == nil {
			plan = p
			return nil
		}
		if !errors.Is(err, model.ErrNotFound) {
			return err
		}
		plan = model.NewPlan(jobID, s.now())
		return tx.SavePlan(ctx, plan)
	})
	if err != nil {
		return model.Plan{}, fmt.Errorf("start planning %s: %w", jobID, err)
	}
	slog.Debug("planning started", "job_id", jobID, "status", plan.Status)
	return plan, nil
}

// GetPlan returns the job's plan.
func (s *Service) GetPlan(ctx context.Context, jobID string) (model.Plan, error) {
	var plan model.Plan
	err := s.repo.InTx(ctx, func(tx Tx) error {
		p, err := tx.LoadPlan(ctx, jobID)
		plan = p
		return err
	})
	if err != nil {
		return model.Plan{}, fmt.Errorf("get plan %s: %w", jobID, err)
	}
	return plan, nil
}

// RankForJob ranks the stock sizes of the job's material for its blank and quantity.
func (s *Service) RankForJob(ctx context.Context, jobID string) ([]model.OptimizationCandidate, error) {
	var (
		job   model.Job
		sizes []model.StockSheetSize
	)
	err := s.repo.InTx(ctx, func(tx Tx) error {
		var err error
		if job, err = tx.LoadJob(ctx, jobID); err != nil {
			return err
		}
		sizes, err = tx.StockSizes(ctx, job.MaterialID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("rank sizes for %s: %w", jobID, err)
	}

	ranked, err := s.ranker.RankCandidates(ctx, sizes, job.Blank, job.Quantity)
	if err != nil {
		return nil, fmt.Errorf("rank sizes for %s: %w", jobID, err)
	}
	slog.Debug("ranked stock sizes", "job_id", jobID, "candidates", len(ranked), "sizes", len(sizes))
	return ranked, nil
}

// SavePlan records the selection, recomputing sheet totals, wastage and cost,
// and moves the plan to Planned. Wastage that needs a justification or a
// confirmation is rejected until the request carries it. A selection short of
// stock is saved with a warning; see Plan.StockShortfall.
func (s *Service) SavePlan(ctx context.Context, req SaveRequest) (model.Plan, error) {
	if req.AdditionalSheets < 0 {
		return model.Plan{}, fmt.Errorf("save plan %s: %w: additional sheets must not be negative", req.JobID, model.ErrInvalidInput)
	}

	var plan model.Plan
	err := s.repo.InTx(ctx, func(tx Tx) error {
		job, err := tx.LoadJob(ctx, req.JobID)
		if err != nil {
			return err
		}
		p, err := tx.LoadPlan(ctx, req.JobID)
		switch {
		case errors.Is(err, model.ErrNotFound):
			p = model.NewPlan(req.JobID, s.now())
		case err != nil:
			return err
		}
		if err := CanSave(p.Status); err != nil {
			return err
		}

		if err := s.applySelection(ctx, tx, &p, job, req); err != nil {
			return err
		}
		p.Status = model.PlanPlanned
		p.UpdatedAt = s.now()
		if err := tx.SavePlan(ctx, p); err != nil {
			return err
		}
		plan = p
		return nil
	})
	if err != nil {
		return model.Plan{}, fmt.Errorf("save plan %s: %w", req.JobID, err)
	}

	slog.Info("plan saved",
		"job_id", plan.JobID,
		"final_sheets", plan.FinalTotalSheets,
		"wastage_pct", plan.WastagePercentage,
		"material_cost", plan.MaterialCost.StringFixed(2),
	)
	if short := plan.StockShortfall(); short > 0 {
		slog.Warn("saved plan exceeds available stock",
			"job_id", plan.JobID,
			"stock_size", plan.SelectedCandidate.StockSheetSize.ID,
			"available", plan.SelectedCandidate.StockSheetSize.AvailableStock,
			"shortfall", short,
		)
	}
	return plan, nil
}

func (s *Service) applySelection(ctx context.Context, tx Tx, p *model.Plan, job model.Job, req SaveRequest) error {
	p.SelectedCandidate = nil
	if req.Candidate != nil {
		c := *req.Candidate
		if err := refreshStock(ctx, tx, job.MaterialID, &c); err != nil {
			return err
		}
		p.SelectedCandidate = &c
	}
	p.AdditionalSheets = req.AdditionalSheets
	p.WastageJustification = strings.TrimSpace(req.Justification)
	p.BaseRequiredSheets = 0
	p.WastagePercentage = 0
	p.MaterialCost = decimal.Zero
	p.WastageCost = decimal.Zero

	if req.Candidate != nil {
		base, err := model.RequiredSheets(job.Quantity, req.Candidate.BestLayout.BlanksPerSheet)
		if err != nil {
			return err
		}
		p.BaseRequiredSheets = base

		verdict, err := wastage.Classify(base, req.AdditionalSheets)
		if err != nil {
			return err
		}
		if verdict.RequiresJustification && p.WastageJustification == "" {
			return fmt.Errorf("%w: %s", model.ErrJustificationRequired, verdict.Message)
		}
		if verdict.RequiresConfirmation && !req.Confirmed {
			return fmt.Errorf("%w: %s", model.ErrConfirmationRequired, verdict.Message)
		}
		p.WastagePercentage = verdict.WastagePercentage
	}
	p.FinalTotalSheets = p.BaseRequiredSheets + p.AdditionalSheets

	cost, err := costing.Estimate(p.BaseRequiredSheets, p.AdditionalSheets, req.Candidate, s.materialUnitCost(ctx, tx, job.MaterialID))
	if err != nil {
		return err
	}
	p.MaterialCost = cost.MaterialCost
	p.WastageCost = cost.WastageCost
	return nil
}

// refreshStock replaces the candidate's stock count with the current one so
// the saved plan shows any shortfall apply will hit.
func refreshStock(ctx context.Context, tx Tx, materialID string, c *model.OptimizationCandidate) error {
	sizes, err := tx.StockSizes(ctx, materialID)
	if err != nil {
		return err
	}
	for _, s := range sizes {
		if s.ID == c.StockSheetSize.ID {
			c.StockSheetSize.AvailableStock = s.AvailableStock
			c.StockShortage = model.StockShortage(c.RequiredSheets, s.AvailableStock)
			c.HasStock = c.StockShortage == 0
			return nil
		}
	}
	return nil
}

// materialUnitCost falls back to the configured price when the material has
// none or the lookup fails.
func (s *Service) materialUnitCost(ctx context.Context, tx Tx, materialID string) *decimal.Decimal {
	if materialID == "" {
		return s.defaultUnitCost
	}
	price, err := tx.MaterialUnitCost(ctx, materialID)
	if err != nil {
		slog.Warn("material price lookup failed", "material_id", materialID, "error", err)
		return s.defaultUnitCost
	}
	if price == nil {
		return s.defaultUnitCost
	}
	return price
}

// ApplyPlan freezes the plan, deducts its sheets from stock and advances the
// job to the next department in one transaction. Of several concurrent calls
// for one job exactly one succeeds; the others get ErrConflict.
func (s *Service) ApplyPlan(ctx context.Context, jobID, actor string) (model.Plan, error) {
	var (
		plan model.Plan
		dept string
	)
	err := s.repo.InTx(ctx, func(tx Tx) error {
		p, err := tx.LoadPlan(ctx, jobID)
		if err != nil {
			return err
		}
		if err := CanApply(p); err != nil {
			return err
		}

		at := s.now()
		if err := tx.MarkApplied(ctx, jobID, actor, at); err != nil {
			return err
		}
		if err := tx.DeductStock(ctx, p.SelectedCandidate.StockSheetSize.ID, p.FinalTotalSheets, jobID); err != nil {
			return err
		}
		if dept, err = tx.AdvanceJob(ctx, jobID, actor); err != nil {
			return err
		}

		p.Status = model.PlanApplied
		p.AppliedBy = actor
		p.AppliedAt = &at
		p.UpdatedAt = at
		plan = p
		return nil
	})
	if err != nil {
		return model.Plan{}, fmt.Errorf("apply plan %s: %w", jobID, err)
	}

	slog.Info("plan applied",
		"job_id", jobID,
		"actor", actor,
		"stock_size", plan.SelectedCandidate.StockSheetSize.ID,
		"sheets", plan.FinalTotalSheets,
		"department", dept,
	)
	return plan, nil
}
