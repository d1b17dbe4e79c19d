package costing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/SheetPlan/internal/model"
)

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestEstimate_UsesStockSizePrice(t *testing.T) {
	c := &model.OptimizationCandidate{StockSheetSize: model.StockSheetSize{ID: "b1", UnitCost: price("12.345")}}

	got, err := Estimate(11, 2, c, price("99"))
	require.NoError(t, err)

	assert.Equal(t, 13, got.TotalSheets)
	assert.True(t, got.CostPerSheet.Equal(decimal.RequireFromString("12.345")))
	assert.Equal(t, "160.49", got.MaterialCost.StringFixed(2))
	assert.Equal(t, "24.69", got.WastageCost.StringFixed(2))
	assert.True(t, got.TotalCost.Equal(got.MaterialCost))
}

func TestEstimate_FallsBackToMaterialPrice(t *testing.T) {
	c := &model.OptimizationCandidate{StockSheetSize: model.StockSheetSize{ID: "b1"}}

	got, err := Estimate(10, 1, c, price("4.50"))
	require.NoError(t, err)
	assert.Equal(t, "49.50", got.MaterialCost.StringFixed(2))
	assert.Equal(t, "4.50", got.WastageCost.StringFixed(2))
}

func TestEstimate_NoPriceIsZero(t *testing.T) {
	got, err := Estimate(10, 1, nil, nil)
	require.NoError(t, err)
	assert.True(t, got.MaterialCost.IsZero())
	assert.True(t, got.WastageCost.IsZero())
	assert.True(t, got.TotalCost.IsZero())
}

func TestEstimate_InvalidInput(t *testing.T) {
	_, err := Estimate(-1, 0, nil, nil)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}
