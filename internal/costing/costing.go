// Package costing estimates material cost for a plan.
package costing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/piwi3910/SheetPlan/internal/model"
)

// CostPerSheet picks the stock size price, then the material price, then zero.
func CostPerSheet(candidate *model.OptimizationCandidate, materialUnitCost *decimal.Decimal) decimal.Decimal {
	if candidate != nil && candidate.StockSheetSize.UnitCost != nil {
		return *candidate.StockSheetSize.UnitCost
	}
	if materialUnitCost != nil {
		return *materialUnitCost
	}
	return decimal.Zero
}

// Estimate prices base plus additional sheets. WastageCost is the share of
// MaterialCost spent on additional sheets and is not added to TotalCost.
// A missing price yields zero costs, not an error.
func Estimate(base, additional int, candidate *model.OptimizationCandidate, materialUnitCost *decimal.Decimal) (model.CostSummary, error) {
	if base < 0 || additional < 0 {
		return model.CostSummary{}, fmt.Errorf("%w: sheet counts must not be negative (base %d, additional %d)", model.ErrInvalidInput, base, additional)
	}

	cps := CostPerSheet(candidate, materialUnitCost)
	total := base + additional
	material := cps.Mul(decimal.NewFromInt(int64(total))).Round(2)

	return model.CostSummary{
		CostPerSheet: cps,
		TotalSheets:  total,
		MaterialCost: material,
		WastageCost:  cps.Mul(decimal.NewFromInt(int64(additional))).Round(2),
		TotalCost:    material,
	}, nil
}
