package planning

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/piwi3910/SheetPlan/internal/model"
)

// PlanStore reads and writes one plan per job.
type PlanStore interface {
	LoadJob(ctx context.Context, jobID string) (model.Job, error)
	// LoadPlan returns ErrNotFound when the job has no plan yet.
	LoadPlan(ctx context.Context, jobID string) (model.Plan, error)
	// SavePlan inserts or updates the plan keyed by job.
	SavePlan(ctx context.Context, p model.Plan) error
	// MarkApplied flips the plan to applied unless it already is, in which
	// case it returns ErrConflict.
	MarkApplied(ctx context.Context, jobID, actor string, at time.Time) error
}

// Catalog supplies stock sizes and material prices.
type Catalog interface {
	StockSizes(ctx context.Context, materialID string) ([]model.StockSheetSize, error)
	MaterialUnitCost(ctx context.Context, materialID string) (*decimal.Decimal, error)
}

// StockLedger deducts sheets from a stock size.
type StockLedger interface {
	// DeductStock returns ErrInsufficientStock when fewer sheets are available.
	DeductStock(ctx context.Context, sizeID string, sheets int, jobID string) error
}

// Workflow moves jobs between departments.
type Workflow interface {
	// AdvanceJob moves the job to the next department and returns it.
	AdvanceJob(ctx context.Context, jobID, actor string) (string, error)
}

// Tx is the unit of work a plan operation runs in.
type Tx interface {
	PlanStore
	Catalog
	StockLedger
	Workflow
}

// Repository runs fn inside a transaction. Any error returned by fn rolls
// back every change made through the Tx.
type Repository interface {
	InTx(ctx context.Context, fn func(Tx) error) error
}
