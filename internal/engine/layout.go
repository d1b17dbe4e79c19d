package engine

import (
	"fmt"
	"math"

	"github.com/piwi3910/SheetPlan/internal/model"
)

// tolerance absorbs float noise when dividing or summing mm values.
const tolerance = 0.001

// fitCount returns how many pieces of length size fit into avail.
func fitCount(avail, size float64) int {
	if size <= 0 || avail <= 0 {
		return 0
	}
	return int(math.Floor(avail/size + tolerance/size))
}

// placedSize returns the blank as laid on the sheet in the given orientation.
func placedSize(blank model.Size, o model.Orientation) model.Size {
	if o == model.OrientationVertical {
		return blank.Rotated()
	}
	return blank
}

func validateInputs(sheet, blank model.Size) error {
	if err := sheet.Validate("sheet"); err != nil {
		return err
	}
	return blank.Validate("blank")
}

// ComputeLayout lays the blank on the sheet as a single grid in one orientation.
// A blank that does not fit yields BlanksPerSheet 0 and 100% wastage.
func ComputeLayout(sheet, blank model.Size, o model.Orientation) (model.Layout, error) {
	if err := validateInputs(sheet, blank); err != nil {
		return model.Layout{}, err
	}

	p := placedSize(blank, o)
	perRow := fitCount(sheet.Width, p.Width)
	perCol := fitCount(sheet.Height, p.Height)

	l := model.Layout{
		Type:            layoutTypeFor(o),
		BlanksPerRow:    perRow,
		BlanksPerColumn: perCol,
		BlanksPerSheet:  perRow * perCol,
		UsedWidth:       float64(perRow) * p.Width,
		UsedHeight:      float64(perCol) * p.Height,
		GridPattern:     fmt.Sprintf("%d × %d", perRow, perCol),
	}
	if l.BlanksPerSheet > 0 {
		l.Bands = []model.Band{{
			Orientation: o,
			Rows:        perCol,
			PerRow:      perRow,
			RowHeight:   p.Height,
			RowWidth:    l.UsedWidth,
		}}
	}
	applyWastage(&l, sheet)
	return l, nil
}

func layoutTypeFor(o model.Orientation) model.LayoutType {
	if o == model.OrientationVertical {
		return model.LayoutVertical
	}
	return model.LayoutHorizontal
}

// applyWastage fills the wastage fields from UsedWidth and UsedHeight.
// The wasted area is the full-height strip right of the used width plus the
// strip below the used height across the used width.
func applyWastage(l *model.Layout, sheet model.Size) {
	l.WastageWidth = sheet.Width - l.UsedWidth
	l.WastageHeight = sheet.Height - l.UsedHeight
	l.WastageArea = l.WastageWidth*sheet.Height + l.WastageHeight*l.UsedWidth
	l.WastagePercentage = model.Round2(l.WastageArea / sheet.Area() * 100)
	l.EfficiencyPercentage = model.Round2(100 - l.WastagePercentage)
}

// GetAllLayouts evaluates the horizontal, vertical and smart strategies.
// Best is the most efficient of them; on equal efficiency the earlier of
// horizontal, vertical, smart wins.
func GetAllLayouts(sheet, blank model.Size) (model.LayoutSet, error) {
	h, err := ComputeLayout(sheet, blank, model.OrientationHorizontal)
	if err != nil {
		return model.LayoutSet{}, err
	}
	v, err := ComputeLayout(sheet, blank, model.OrientationVertical)
	if err != nil {
		return model.LayoutSet{}, err
	}
	s, err := ComputeSmartLayout(sheet, blank, h, v)
	if err != nil {
		return model.LayoutSet{}, err
	}

	best := h
	for _, l := range []model.Layout{v, s} {
		if l.EfficiencyPercentage > best.EfficiencyPercentage {
			best = l
		}
	}

	return model.LayoutSet{
		Horizontal: h,
		Vertical:   v,
		Smart:      s,
		Best:       best,
	}, nil
}
