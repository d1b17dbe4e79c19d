package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/piwi3910/SheetPlan/internal/engine"
	"github.com/piwi3910/SheetPlan/internal/model"
)

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseSize reads "WIDTHxHEIGHT" in mm. x, X, × and * are accepted separators.
func parseSize(s string) (model.Size, error) {
	normalized := strings.NewReplacer("×", "x", "X", "x", "*", "x").Replace(strings.TrimSpace(s))
	parts := strings.Split(normalized, "x")
	if len(parts) != 2 {
		return model.Size{}, fmt.Errorf("%w: size %q must look like 1000x700", model.ErrInvalidInput, s)
	}
	w, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return model.Size{}, fmt.Errorf("%w: width in %q: %v", model.ErrInvalidInput, s, err)
	}
	h, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return model.Size{}, fmt.Errorf("%w: height in %q: %v", model.ErrInvalidInput, s, err)
	}
	size := model.Size{Width: w, Height: h}
	if err := size.Validate("size"); err != nil {
		return model.Size{}, err
	}
	return size, nil
}

// parseStockFlag reads "ID=WIDTHxHEIGHT[:STOCK[:COST]]".
func parseStockFlag(s string) (model.StockSheetSize, error) {
	id, rest, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(id) == "" {
		return model.StockSheetSize{}, fmt.Errorf("%w: stock size %q must look like b1=1000x700[:stock[:cost]]", model.ErrInvalidInput, s)
	}
	fields := strings.Split(rest, ":")
	dims, err := parseSize(fields[0])
	if err != nil {
		return model.StockSheetSize{}, err
	}
	size := model.StockSheetSize{
		ID:     strings.TrimSpace(id),
		Name:   strings.TrimSpace(id),
		Width:  dims.Width,
		Height: dims.Height,
	}
	if len(fields) > 1 && fields[1] != "" {
		if size.AvailableStock, err = strconv.Atoi(fields[1]); err != nil || size.AvailableStock < 0 {
			return model.StockSheetSize{}, fmt.Errorf("%w: stock in %q", model.ErrInvalidInput, s)
		}
	}
	if len(fields) > 2 && fields[2] != "" {
		cost, err := decimal.NewFromString(fields[2])
		if err != nil || cost.IsNegative() {
			return model.StockSheetSize{}, fmt.Errorf("%w: cost in %q", model.ErrInvalidInput, s)
		}
		size.UnitCost = &cost
	}
	return size, nil
}

func parseDecimalFlag(name, s string) (*decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || d.IsNegative() {
		return nil, fmt.Errorf("%w: --%s must be a non-negative amount, got %q", model.ErrInvalidInput, name, s)
	}
	return &d, nil
}

func printComparison(w io.Writer, rows []engine.StrategyComparison) {
	fmt.Fprintf(w, "%-11s %-18s %8s %10s %9s %7s\n", "STRATEGY", "PATTERN", "BLANKS", "EFFICIENCY", "WASTAGE", "SHEETS")
	for _, r := range rows {
		best := ""
		if r.IsBest {
			best = "  ← best"
		}
		sheets := "-"
		if r.RequiredSheets > 0 {
			sheets = strconv.Itoa(r.RequiredSheets)
		}
		fmt.Fprintf(w, "%-11s %-18s %8d %9.2f%% %8.2f%% %7s%s\n",
			r.Name, r.GridPattern, r.BlanksPerSheet, r.Efficiency, r.Wastage, sheets, best)
	}
}

func printRanking(w io.Writer, ranked []model.OptimizationCandidate) {
	fmt.Fprintf(w, "%-4s %-10s %-20s %-12s %-18s %10s %7s %7s %7s\n",
		"#", "ID", "NAME", "SIZE", "LAYOUT", "EFFICIENCY", "SHEETS", "STOCK", "SHORT")
	for i, c := range ranked {
		s := c.StockSheetSize
		fmt.Fprintf(w, "%-4d %-10s %-20s %-12s %-18s %9.2f%% %7d %7d %7d\n",
			i+1, s.ID, truncate(s.Name, 20), s.Size().String(),
			fmt.Sprintf("%s %s", c.BestLayout.Type, c.BestLayout.GridPattern),
			c.BestLayout.EfficiencyPercentage, c.RequiredSheets, s.AvailableStock, c.StockShortage)
	}
}

func printPlan(w io.Writer, p model.Plan) {
	fmt.Fprintf(w, "Job:         %s\n", p.JobID)
	fmt.Fprintf(w, "Status:      %s\n", p.Status)
	if p.SelectedCandidate != nil {
		s := p.SelectedCandidate.StockSheetSize
		l := p.SelectedCandidate.BestLayout
		fmt.Fprintf(w, "Stock size:  %s %s (%s)\n", s.ID, s.Name, s.Size())
		fmt.Fprintf(w, "Layout:      %s %s, %d per sheet, %.2f%% efficient\n", l.Type, l.GridPattern, l.BlanksPerSheet, l.EfficiencyPercentage)
	} else {
		fmt.Fprintln(w, "Stock size:  (none selected)")
	}
	fmt.Fprintf(w, "Sheets:      %d base + %d additional = %d\n", p.BaseRequiredSheets, p.AdditionalSheets, p.FinalTotalSheets)
	if short := p.StockShortfall(); short > 0 && p.Status != model.PlanApplied {
		fmt.Fprintf(w, "Shortfall:   %d sheet(s), only %d in stock\n", short, p.SelectedCandidate.StockSheetSize.AvailableStock)
	}
	fmt.Fprintf(w, "Wastage:     %.2f%%\n", p.WastagePercentage)
	if p.WastageJustification != "" {
		fmt.Fprintf(w, "Reason:      %s\n", p.WastageJustification)
	}
	fmt.Fprintf(w, "Cost:        %s (wastage %s)\n", p.MaterialCost.StringFixed(2), p.WastageCost.StringFixed(2))
	if p.AppliedAt != nil {
		fmt.Fprintf(w, "Applied:     %s by %s\n", p.AppliedAt.Format("2006-01-02 15:04"), p.AppliedBy)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
