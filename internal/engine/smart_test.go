package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/SheetPlan/internal/model"
)

func smartFor(t *testing.T, sheet, blank model.Size) model.Layout {
	t.Helper()
	h, err := ComputeLayout(sheet, blank, model.OrientationHorizontal)
	require.NoError(t, err)
	v, err := ComputeLayout(sheet, blank, model.OrientationVertical)
	require.NoError(t, err)
	s, err := ComputeSmartLayout(sheet, blank, h, v)
	require.NoError(t, err)
	return s
}

func TestSmartLayout_MixedBeatsPureLayouts(t *testing.T) {
	sheet := model.Size{Width: 1000, Height: 1400}
	blank := model.Size{Width: 100, Height: 150}
	s := smartFor(t, sheet, blank)

	assert.Equal(t, model.LayoutSmart, s.Type)
	assert.Equal(t, 92, s.BlanksPerSheet)
	assert.True(t, s.IsMixed())
	assert.Equal(t, "10 × 8 + 6 × 2", s.GridPattern)
	assert.Equal(t, 10, s.BlanksPerRow)
	assert.Equal(t, 10, s.BlanksPerColumn)
	assert.Equal(t, 1000.0, s.UsedWidth)
	assert.Equal(t, 1400.0, s.UsedHeight)
	assert.Equal(t, 100.0, s.EfficiencyPercentage)

	require.Len(t, s.Bands, 2)
	assert.Equal(t, model.OrientationHorizontal, s.Bands[0].Orientation)
	assert.Equal(t, 8, s.Bands[0].Rows)
	assert.Equal(t, model.OrientationVertical, s.Bands[1].Orientation)
	assert.Equal(t, 2, s.Bands[1].Rows)
}

func TestSmartLayout_SmallSheet(t *testing.T) {
	// H fits 3×3=9, V fits 5×2=10; two horizontal rows plus one vertical row fit 11.
	s := smartFor(t, model.Size{Width: 1000, Height: 700}, model.Size{Width: 300, Height: 200})

	assert.Equal(t, 11, s.BlanksPerSheet)
	assert.Equal(t, "3 × 2 + 5 × 1", s.GridPattern)

	placements := Placements(model.Size{Width: 300, Height: 200}, s)
	assert.Len(t, placements, 11)
	assert.NoError(t, ValidatePlacements(model.Size{Width: 1000, Height: 700}, placements))
}

func TestSmartLayout_FallbackRelabelsMoreEfficientPure(t *testing.T) {
	sheet := model.Size{Width: 1000, Height: 700}
	blank := model.Size{Width: 100, Height: 100}
	s := smartFor(t, sheet, blank)

	assert.Equal(t, model.LayoutSmart, s.Type)
	assert.Equal(t, 70, s.BlanksPerSheet)
	assert.Equal(t, "10 × 7", s.GridPattern)
	assert.False(t, s.IsMixed())
}

func TestSmartLayout_OnlyOneOrientationFits(t *testing.T) {
	// Horizontal rows are too tall for the sheet, vertical fits one row of 3.
	s := smartFor(t, model.Size{Width: 1000, Height: 200}, model.Size{Width: 150, Height: 300})

	assert.Equal(t, 3, s.BlanksPerSheet)
	assert.Equal(t, model.LayoutSmart, s.Type)
	require.Len(t, s.Bands, 1)
	assert.Equal(t, model.OrientationVertical, s.Bands[0].Orientation)
}

func TestSmartLayout_ZeroFit(t *testing.T) {
	s := smartFor(t, model.Size{Width: 100, Height: 100}, model.Size{Width: 200, Height: 300})
	assert.Equal(t, 0, s.BlanksPerSheet)
	assert.Equal(t, model.LayoutSmart, s.Type)
}

func TestSmartLayout_InvalidInput(t *testing.T) {
	_, err := ComputeSmartLayout(model.Size{Width: 100, Height: 100}, model.Size{}, model.Layout{}, model.Layout{})
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

// The smart layout never places fewer blanks than the better pure layout,
// and each of its bands is a valid grid.
func TestSmartLayout_NeverWorseThanPure(t *testing.T) {
	sheets := []model.Size{{Width: 1000, Height: 700}, {Width: 1020, Height: 720}, {Width: 640, Height: 450}, {Width: 1000, Height: 1400}, {Width: 333, Height: 517}}
	blanks := []model.Size{{Width: 100, Height: 150}, {Width: 210, Height: 297}, {Width: 95, Height: 95}, {Width: 300, Height: 200}, {Width: 120, Height: 85}}

	for _, sheet := range sheets {
		for _, blank := range blanks {
			set, err := GetAllLayouts(sheet, blank)
			require.NoError(t, err)

			pure := max(set.Horizontal.BlanksPerSheet, set.Vertical.BlanksPerSheet)
			assert.GreaterOrEqual(t, set.Smart.BlanksPerSheet, pure, "%v on %v", blank, sheet)
			assert.InDelta(t, 100.0, set.Smart.EfficiencyPercentage+set.Smart.WastagePercentage, 0.0001)

			total := 0
			for _, b := range set.Smart.Bands {
				assert.Equal(t, b.Rows*b.PerRow, b.Blanks())
				total += b.Blanks()
			}
			assert.Equal(t, set.Smart.BlanksPerSheet, total)

			assert.NoError(t, ValidatePlacements(sheet, Placements(blank, set.Smart)), "%v on %v", blank, sheet)
		}
	}
}

// Mixed layouts describe themselves per band: the summary counts are the
// widest band and the total rows, and the blanks are the sum of the bands.
func TestSmartLayout_MixedSummaryCounts(t *testing.T) {
	cases := []struct {
		sheet, blank model.Size
	}{
		{model.Size{Width: 1000, Height: 1400}, model.Size{Width: 100, Height: 150}},
		{model.Size{Width: 1000, Height: 700}, model.Size{Width: 300, Height: 200}},
		{model.Size{Width: 1000, Height: 700}, model.Size{Width: 100, Height: 150}},
	}
	for _, tc := range cases {
		s := smartFor(t, tc.sheet, tc.blank)
		require.True(t, s.IsMixed(), "%v on %v", tc.blank, tc.sheet)

		widest, rows, blanks := 0, 0, 0
		for _, b := range s.Bands {
			widest = max(widest, b.PerRow)
			rows += b.Rows
			blanks += b.Rows * b.PerRow
		}
		assert.Equal(t, widest, s.BlanksPerRow, "%v on %v", tc.blank, tc.sheet)
		assert.Equal(t, rows, s.BlanksPerColumn, "%v on %v", tc.blank, tc.sheet)
		assert.Equal(t, blanks, s.BlanksPerSheet, "%v on %v", tc.blank, tc.sheet)
	}
}

// The band search scores a number of plans linear in the rows that fit,
// even for a blank that is tiny next to the sheet.
func TestSearchBands_LinearInRows(t *testing.T) {
	sheet := model.Size{Width: 1000, Height: 1400}
	for _, blank := range []model.Size{{Width: 5, Height: 7}, {Width: 2, Height: 3}, {Width: 1, Height: 1.5}} {
		h, err := ComputeLayout(sheet, blank, model.OrientationHorizontal)
		require.NoError(t, err)
		v, err := ComputeLayout(sheet, blank, model.OrientationVertical)
		require.NoError(t, err)

		best, found, scored := searchBands(sheet, blank, h, v)
		require.True(t, found)

		rows := h.BlanksPerColumn + v.BlanksPerColumn
		assert.LessOrEqual(t, scored, 3*rows+2, "%v: scored %d plans for %d rows", blank, scored, rows)
		assert.GreaterOrEqual(t, best.BlanksPerSheet, max(h.BlanksPerSheet, v.BlanksPerSheet), "%v", blank)
		assert.LessOrEqual(t, best.UsedHeight, sheet.Height+tolerance)
		assert.LessOrEqual(t, best.UsedWidth, sheet.Width+tolerance)
	}
}
