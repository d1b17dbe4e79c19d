package model

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Offcut represents a usable rectangular remnant left over after cutting a sheet.
type Offcut struct {
	ID     string           `json:"id"`
	X      float64          `json:"x"`      // Position on the sheet (mm from left)
	Y      float64          `json:"y"`      // Position on the sheet (mm from top)
	Width  float64          `json:"width"`  // Usable width (mm)
	Height float64          `json:"height"` // Usable height (mm)
	Value  *decimal.Decimal `json:"value,omitempty"`
}

// Area returns the area of the offcut in square mm.
func (o Offcut) Area() float64 {
	return o.Width * o.Height
}

// ToStockSheetSize converts an offcut into a stock size that can be ranked for later jobs.
func (o Offcut) ToStockSheetSize(materialID string) StockSheetSize {
	s := NewStockSheetSize("Offcut "+Size{Width: o.Width, Height: o.Height}.String(), o.Width, o.Height, 1)
	s.MaterialID = materialID
	s.UnitCost = o.Value
	return s
}

// MinOffcutDimension is the minimum width or height (in mm) for a remnant
// to be considered a usable offcut. Remnants smaller than this are waste.
const MinOffcutDimension = 50.0

// MinOffcutArea is the minimum area (in sq mm) for a remnant to be considered usable.
const MinOffcutArea = 10000.0 // 100mm x 100mm equivalent

// DetectOffcuts returns the right and bottom strips a layout leaves on the sheet
// when they are large enough to reuse, largest first. When unitCost is set each
// offcut carries a value proportional to its share of the sheet area.
func DetectOffcuts(sheet Size, layout Layout, unitCost *decimal.Decimal) []Offcut {
	if !layout.Fits() {
		return []Offcut{{
			ID:     uuid.New().String()[:8],
			Width:  sheet.Width,
			Height: sheet.Height,
			Value:  unitCost,
		}}
	}

	var offcuts []Offcut

	// Right strip: full sheet height to the right of the widest row
	rightW := sheet.Width - layout.UsedWidth
	if rightW >= MinOffcutDimension && sheet.Height >= MinOffcutDimension && rightW*sheet.Height >= MinOffcutArea {
		offcuts = append(offcuts, Offcut{
			ID:     uuid.New().String()[:8],
			X:      layout.UsedWidth,
			Width:  rightW,
			Height: sheet.Height,
		})
	}

	// Bottom strip: below the last row, limited to the used width to avoid the right strip
	bottomH := sheet.Height - layout.UsedHeight
	if bottomH >= MinOffcutDimension && layout.UsedWidth >= MinOffcutDimension && bottomH*layout.UsedWidth >= MinOffcutArea {
		offcuts = append(offcuts, Offcut{
			ID:     uuid.New().String()[:8],
			Y:      layout.UsedHeight,
			Width:  layout.UsedWidth,
			Height: bottomH,
		})
	}

	if unitCost != nil && sheet.Area() > 0 {
		for i := range offcuts {
			v := unitCost.Mul(decimal.NewFromFloat(offcuts[i].Area() / sheet.Area())).Round(2)
			offcuts[i].Value = &v
		}
	}

	sort.Slice(offcuts, func(i, j int) bool {
		return offcuts[i].Area() > offcuts[j].Area()
	})

	return offcuts
}

// TotalOffcutArea returns the total area of all offcuts in square mm.
func TotalOffcutArea(offcuts []Offcut) float64 {
	var total float64
	for _, o := range offcuts {
		total += o.Area()
	}
	return total
}
