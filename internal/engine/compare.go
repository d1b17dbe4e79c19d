package engine

import (
	"github.com/piwi3910/SheetPlan/internal/model"
)

// StrategyComparison holds the figures of one cutting strategy for a quantity.
type StrategyComparison struct {
	Name           string           `json:"name"`
	Type           model.LayoutType `json:"type"`
	GridPattern    string           `json:"grid_pattern"`
	BlanksPerSheet int              `json:"blanks_per_sheet"`
	Efficiency     float64          `json:"efficiency"`
	Wastage        float64          `json:"wastage"`
	RequiredSheets int              `json:"required_sheets"` // 0 when the strategy fits no blanks
	IsBest         bool             `json:"is_best"`
}

// CompareLayouts returns the horizontal, vertical and smart strategies side by
// side with the sheets each would need for quantity.
func CompareLayouts(set model.LayoutSet, quantity int) []StrategyComparison {
	entries := []struct {
		name   string
		layout model.Layout
	}{
		{"Horizontal", set.Horizontal},
		{"Vertical", set.Vertical},
		{"Smart", set.Smart},
	}

	results := make([]StrategyComparison, 0, len(entries))
	bestMarked := false
	for _, e := range entries {
		c := StrategyComparison{
			Name:           e.name,
			Type:           e.layout.Type,
			GridPattern:    e.layout.GridPattern,
			BlanksPerSheet: e.layout.BlanksPerSheet,
			Efficiency:     e.layout.EfficiencyPercentage,
			Wastage:        e.layout.WastagePercentage,
		}
		if sheets, err := model.RequiredSheets(quantity, e.layout.BlanksPerSheet); err == nil {
			c.RequiredSheets = sheets
		}
		if !bestMarked && e.layout.Type == set.Best.Type {
			c.IsBest = true
			bestMarked = true
		}
		results = append(results, c)
	}
	return results
}
