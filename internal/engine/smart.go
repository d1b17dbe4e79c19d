package engine

import (
	"fmt"
	"strings"

	"github.com/piwi3910/SheetPlan/internal/model"
)

// bandPlan is one candidate stacking of horizontal and vertical rows.
type bandPlan struct {
	first, second model.Orientation
	firstRows     int
	secondRows    int
}

// ComputeSmartLayout mixes horizontal and vertical rows in bands to beat both
// pure layouts. Three searches are run: horizontal rows first with vertical
// rows in the remainder, the symmetric vertical-first search, and two-group
// splits of the row count in both orders. The layout with the most blanks
// wins, then the higher efficiency. When nothing beats the better pure
// layout's blank count, the more efficient pure layout is returned relabelled
// as smart.
//
// The search is a bounded heuristic, linear in the number of rows that fit.
func ComputeSmartLayout(sheet, blank model.Size, horizontal, vertical model.Layout) (model.Layout, error) {
	if err := validateInputs(sheet, blank); err != nil {
		return model.Layout{}, err
	}

	best, found, _ := searchBands(sheet, blank, horizontal, vertical)

	pureBest := max(horizontal.BlanksPerSheet, vertical.BlanksPerSheet)
	if found && best.BlanksPerSheet > pureBest {
		return best, nil
	}

	fallback := horizontal
	if vertical.EfficiencyPercentage > horizontal.EfficiencyPercentage {
		fallback = vertical
	}
	fallback.Type = model.LayoutSmart
	fallback.Bands = append([]model.Band(nil), fallback.Bands...)
	return fallback, nil
}

// searchBands scores every band plan and builds the layout of the winner
// only. It also returns how many plans were scored.
func searchBands(sheet, blank model.Size, horizontal, vertical model.Layout) (model.Layout, bool, int) {
	hRowsMax := horizontal.BlanksPerColumn
	if horizontal.BlanksPerRow == 0 {
		hRowsMax = 0
	}
	vRowsMax := vertical.BlanksPerColumn
	if vertical.BlanksPerRow == 0 {
		vRowsMax = 0
	}
	hRowH := blank.Height
	vRowH := blank.Width

	var (
		bestPlan  bandPlan
		bestScore planScore
		found     bool
		scored    int
	)
	try := func(p bandPlan) {
		scored++
		sc, ok := scorePlan(sheet, blank, horizontal, vertical, p)
		if !ok {
			return
		}
		if !found || sc.beats(bestScore) {
			bestPlan, bestScore, found = p, sc, true
		}
	}

	// rowsAfter is how many rows of height rowH fit below used mm.
	rowsAfter := func(used, rowH float64, limit int) int {
		if limit == 0 {
			return 0
		}
		return min(fitCount(sheet.Height-used, rowH), limit)
	}

	// Horizontal-first: fixed horizontal rows, vertical rows fill the rest.
	for hRows := 0; hRows <= hRowsMax; hRows++ {
		try(bandPlan{model.OrientationHorizontal, model.OrientationVertical, hRows, rowsAfter(float64(hRows)*hRowH, vRowH, vRowsMax)})
	}

	// Vertical-first: symmetric.
	for vRows := 0; vRows <= vRowsMax; vRows++ {
		try(bandPlan{model.OrientationVertical, model.OrientationHorizontal, vRows, rowsAfter(float64(vRows)*vRowH, hRowH, hRowsMax)})
	}

	// Alternating: both groups non-empty, in both orders. For a fixed number
	// of horizontal rows any split with fewer vertical rows than fit places
	// fewer blanks, so only the fullest split is scored.
	if hRowsMax > 0 && vRowsMax > 0 {
		for hRows := 1; hRows <= hRowsMax; hRows++ {
			vRows := rowsAfter(float64(hRows)*hRowH, vRowH, vRowsMax)
			if vRows == 0 {
				break
			}
			try(bandPlan{model.OrientationHorizontal, model.OrientationVertical, hRows, vRows})
			try(bandPlan{model.OrientationVertical, model.OrientationHorizontal, vRows, hRows})
		}
	}

	if !found {
		return model.Layout{}, false, scored
	}
	l, ok := measureBands(sheet, blank, horizontal, vertical, bestPlan)
	return l, ok, scored
}

// planScore ranks a band plan without building its layout.
type planScore struct {
	blanks     int
	efficiency float64
}

func (a planScore) beats(b planScore) bool {
	if a.blanks != b.blanks {
		return a.blanks > b.blanks
	}
	return a.efficiency > b.efficiency
}

// scorePlan computes blanks and efficiency the way measureBands does. It
// reports false when the plan places nothing or overflows the sheet.
func scorePlan(sheet, blank model.Size, horizontal, vertical model.Layout, p bandPlan) (planScore, bool) {
	type bandPart struct {
		o    model.Orientation
		rows int
	}
	parts := [2]bandPart{{p.first, p.firstRows}, {p.second, p.secondRows}}

	var l model.Layout
	for _, pt := range parts {
		perRow := horizontal.BlanksPerRow
		if pt.o == model.OrientationVertical {
			perRow = vertical.BlanksPerRow
		}
		if pt.rows*perRow == 0 {
			continue
		}
		ps := placedSize(blank, pt.o)
		l.BlanksPerSheet += pt.rows * perRow
		l.UsedWidth = max(l.UsedWidth, float64(perRow)*ps.Width)
		l.UsedHeight += float64(pt.rows) * ps.Height
	}
	if l.BlanksPerSheet == 0 || l.UsedHeight > sheet.Height+tolerance || l.UsedWidth > sheet.Width+tolerance {
		return planScore{}, false
	}
	applyWastage(&l, sheet)
	return planScore{blanks: l.BlanksPerSheet, efficiency: l.EfficiencyPercentage}, true
}

// measureBands builds the layout for a band plan. It reports false when the
// plan places nothing or overflows the sheet.
func measureBands(sheet, blank model.Size, horizontal, vertical model.Layout, p bandPlan) (model.Layout, bool) {
	band := func(o model.Orientation, rows int) model.Band {
		perRow := horizontal.BlanksPerRow
		if o == model.OrientationVertical {
			perRow = vertical.BlanksPerRow
		}
		ps := placedSize(blank, o)
		return model.Band{
			Orientation: o,
			Rows:        rows,
			PerRow:      perRow,
			RowHeight:   ps.Height,
			RowWidth:    float64(perRow) * ps.Width,
		}
	}

	var bands []model.Band
	for _, b := range []model.Band{band(p.first, p.firstRows), band(p.second, p.secondRows)} {
		if b.Blanks() > 0 {
			bands = append(bands, b)
		}
	}
	if len(bands) == 0 {
		return model.Layout{}, false
	}

	l := model.Layout{Type: model.LayoutSmart, Bands: bands}
	patterns := make([]string, 0, len(bands))
	for _, b := range bands {
		l.BlanksPerSheet += b.Blanks()
		l.BlanksPerColumn += b.Rows
		l.BlanksPerRow = max(l.BlanksPerRow, b.PerRow)
		l.UsedWidth = max(l.UsedWidth, b.RowWidth)
		l.UsedHeight += b.Height()
		patterns = append(patterns, fmt.Sprintf("%d × %d", b.PerRow, b.Rows))
	}
	if l.UsedHeight > sheet.Height+tolerance || l.UsedWidth > sheet.Width+tolerance {
		return model.Layout{}, false
	}
	l.GridPattern = strings.Join(patterns, " + ")
	applyWastage(&l, sheet)
	return l, true
}
