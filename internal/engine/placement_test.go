package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/SheetPlan/internal/model"
)

func TestPlacements_GridLayout(t *testing.T) {
	sheet := model.Size{Width: 1000, Height: 1400}
	l, err := ComputeLayout(sheet, testBlank, model.OrientationVertical)
	require.NoError(t, err)

	ps := Placements(testBlank, l)
	require.Len(t, ps, 84)
	assert.True(t, ps[0].Rotated)
	assert.Equal(t, 150.0, ps[0].Width)
	assert.Equal(t, 100.0, ps[0].Height)

	last := ps[len(ps)-1]
	assert.Equal(t, 750.0, last.X)
	assert.Equal(t, 1300.0, last.Y)
	assert.NoError(t, ValidatePlacements(sheet, ps))
}

func TestPlacements_MixedBandsStackFromTop(t *testing.T) {
	sheet := model.Size{Width: 1000, Height: 1400}
	set, err := GetAllLayouts(sheet, testBlank)
	require.NoError(t, err)

	ps := Placements(testBlank, set.Smart)
	require.Len(t, ps, 92)
	// First vertical blank starts right below eight horizontal rows.
	assert.False(t, ps[79].Rotated)
	assert.True(t, ps[80].Rotated)
	assert.Equal(t, 1200.0, ps[80].Y)
	assert.NoError(t, ValidatePlacements(sheet, ps))
}

func TestValidatePlacements_DetectsOverlap(t *testing.T) {
	ps := []Placement{
		{X: 0, Y: 0, Width: 100, Height: 100},
		{X: 50, Y: 50, Width: 100, Height: 100},
	}
	assert.Error(t, ValidatePlacements(model.Size{Width: 500, Height: 500}, ps))
}

func TestValidatePlacements_TouchingIsFine(t *testing.T) {
	ps := []Placement{
		{X: 0, Y: 0, Width: 100, Height: 100},
		{X: 100, Y: 0, Width: 100, Height: 100},
	}
	assert.NoError(t, ValidatePlacements(model.Size{Width: 200, Height: 100}, ps))
}

func TestValidatePlacements_OutOfBounds(t *testing.T) {
	ps := []Placement{{X: 450, Y: 0, Width: 100, Height: 100}}
	assert.Error(t, ValidatePlacements(model.Size{Width: 500, Height: 500}, ps))
}
