package engine

import (
	"fmt"

	"github.com/piwi3910/SheetPlan/internal/model"
)

// Placement is one blank positioned on the sheet, origin at the top-left corner.
type Placement struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width"`  // As placed, after rotation
	Height  float64 `json:"height"` // As placed, after rotation
	Rotated bool    `json:"rotated"`
}

type rect struct {
	x, y, w, h float64
}

func (p Placement) rect() rect {
	return rect{x: p.X, y: p.Y, w: p.Width, h: p.Height}
}

// Placements expands a layout's bands into blank rectangles. Bands are stacked
// from the top of the sheet, rows are filled left to right.
func Placements(blank model.Size, layout model.Layout) []Placement {
	out := make([]Placement, 0, layout.BlanksPerSheet)
	y := 0.0
	for _, b := range layout.Bands {
		ps := placedSize(blank, b.Orientation)
		for r := 0; r < b.Rows; r++ {
			for c := 0; c < b.PerRow; c++ {
				out = append(out, Placement{
					X:       float64(c) * ps.Width,
					Y:       y,
					Width:   ps.Width,
					Height:  ps.Height,
					Rotated: b.Orientation == model.OrientationVertical,
				})
			}
			y += ps.Height
		}
	}
	return out
}

// ValidatePlacements checks that every blank lies inside the sheet and that no
// two blanks overlap.
func ValidatePlacements(sheet model.Size, placements []Placement) error {
	bounds := rect{w: sheet.Width, h: sheet.Height}
	for i, p := range placements {
		if !containsRect(bounds, p.rect()) {
			return fmt.Errorf("blank %d at (%.1f, %.1f) exceeds sheet %s", i, p.X, p.Y, sheet)
		}
	}
	for i := 0; i < len(placements); i++ {
		for j := i + 1; j < len(placements); j++ {
			if rectsOverlap(placements[i].rect(), placements[j].rect()) {
				return fmt.Errorf("blanks %d and %d overlap", i, j)
			}
		}
	}
	return nil
}

// rectsOverlap returns true if two rectangles overlap (not just touch).
func rectsOverlap(a, b rect) bool {
	return a.x < b.x+b.w-tolerance && a.x+a.w > b.x+tolerance &&
		a.y < b.y+b.h-tolerance && a.y+a.h > b.y+tolerance
}

// containsRect returns true if outer fully contains inner.
func containsRect(outer, inner rect) bool {
	return outer.x <= inner.x+tolerance && outer.y <= inner.y+tolerance &&
		outer.x+outer.w >= inner.x+inner.w-tolerance &&
		outer.y+outer.h >= inner.y+inner.h-tolerance
}
