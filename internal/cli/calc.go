package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/piwi3910/SheetPlan/internal/costing"
	"github.com/piwi3910/SheetPlan/internal/engine"
	"github.com/piwi3910/SheetPlan/internal/export"
	"github.com/piwi3910/SheetPlan/internal/model"
	"github.com/piwi3910/SheetPlan/internal/project"
	"github.com/piwi3910/SheetPlan/internal/wastage"
)

func newLayoutCmd(a *app) *cobra.Command {
	var (
		sheetFlag string
		blankFlag string
		quantity  int
	)
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Compare cutting strategies for a blank on one sheet",
		Example: `  sheetplan layout --sheet 1000x1400 --blank 100x150
  sheetplan layout --sheet 1000x700 --blank 300x200 --quantity 5000 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sheet, err := parseSize(sheetFlag)
			if err != nil {
				return err
			}
			blank, err := parseSize(blankFlag)
			if err != nil {
				return err
			}
			if quantity < 0 {
				return fmt.Errorf("%w: --quantity must not be negative", model.ErrInvalidInput)
			}

			set, err := engine.GetAllLayouts(sheet, blank)
			if err != nil {
				return err
			}
			offcuts := model.DetectOffcuts(sheet, set.Best, nil)

			if a.jsonOutput {
				return writeJSON(a.out, struct {
					Layouts    model.LayoutSet             `json:"layouts"`
					Comparison []engine.StrategyComparison `json:"comparison,omitempty"`
					Placements []engine.Placement          `json:"placements"`
					Offcuts    []model.Offcut              `json:"offcuts"`
				}{
					Layouts:    set,
					Comparison: comparisonFor(set, quantity),
					Placements: engine.Placements(blank, set.Best),
					Offcuts:    offcuts,
				})
			}

			fmt.Fprintf(a.out, "Sheet %s, blank %s\n\n", sheet, blank)
			printComparison(a.out, engine.CompareLayouts(set, max(quantity, 1)))
			fmt.Fprintf(a.out, "\nBest: %s %s, %d per sheet, %.2f%% efficient\n",
				set.Best.Type, set.Best.GridPattern, set.Best.BlanksPerSheet, set.Best.EfficiencyPercentage)
			for _, o := range offcuts {
				fmt.Fprintf(a.out, "Offcut: %.0f x %.0f mm at (%.0f, %.0f)\n", o.Width, o.Height, o.X, o.Y)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sheetFlag, "sheet", "", "Stock sheet size, e.g. 1000x700 (mm)")
	cmd.Flags().StringVar(&blankFlag, "blank", "", "Blank size, e.g. 100x150 (mm)")
	cmd.Flags().IntVar(&quantity, "quantity", 0, "Blanks needed, adds sheet counts to the comparison")
	_ = cmd.MarkFlagRequired("sheet")
	_ = cmd.MarkFlagRequired("blank")
	return cmd
}

func comparisonFor(set model.LayoutSet, quantity int) []engine.StrategyComparison {
	if quantity <= 0 {
		return nil
	}
	return engine.CompareLayouts(set, quantity)
}

func newRankCmd(a *app) *cobra.Command {
	var (
		blankFlag   string
		quantity    int
		sizeFlags   []string
		catalogPath string
		material    string
		xlsxPath    string
	)
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank stock sizes for a blank and quantity",
		Long: `Rank stock sizes by efficiency, stock availability and shortage.

Sizes come from repeated --size flags, or from a catalog file filtered by
--material when no --size is given.`,
		Example: `  sheetplan rank --blank 100x150 --quantity 950 --size b1=1000x1400:40 --size b2=700x1000:5
  sheetplan rank --blank 100x150 --quantity 950 --catalog catalog.json --material "Folding Box Board"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			blank, err := parseSize(blankFlag)
			if err != nil {
				return err
			}

			var sizes []model.StockSheetSize
			if len(sizeFlags) > 0 {
				for _, f := range sizeFlags {
					s, err := parseStockFlag(f)
					if err != nil {
						return err
					}
					sizes = append(sizes, s)
				}
			} else {
				if sizes, err = catalogSizes(catalogPath, material); err != nil {
					return err
				}
			}

			ranked, err := a.ranker().RankCandidates(cmd.Context(), sizes, blank, quantity)
			if err != nil {
				return err
			}

			if xlsxPath != "" {
				path, err := a.reportPath(xlsxPath)
				if err != nil {
					return err
				}
				if err := export.ExportRankingXLSX(path, blank, quantity, ranked); err != nil {
					return err
				}
				if !a.jsonOutput {
					fmt.Fprintf(a.out, "Wrote %s\n", path)
				}
			}

			if a.jsonOutput {
				return writeJSON(a.out, ranked)
			}
			printRanking(a.out, ranked)
			return nil
		},
	}
	cmd.Flags().StringVar(&blankFlag, "blank", "", "Blank size, e.g. 100x150 (mm)")
	cmd.Flags().IntVar(&quantity, "quantity", 0, "Blanks needed")
	cmd.Flags().StringArrayVar(&sizeFlags, "size", nil, "Candidate stock size ID=WxH[:stock[:cost]], repeatable")
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "Catalog file (default ~/.sheetplan/catalog.json)")
	cmd.Flags().StringVar(&material, "material", "", "Only rank sizes of this material (catalog name)")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Also write the ranking to this Excel file")
	_ = cmd.MarkFlagRequired("blank")
	_ = cmd.MarkFlagRequired("quantity")
	return cmd
}

// catalogSizes loads the catalog file and returns the sizes of one material,
// or every size when material is empty.
func catalogSizes(path, material string) ([]model.StockSheetSize, error) {
	if path == "" {
		p, err := project.DefaultCatalogPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	c, err := project.LoadCatalog(path)
	if err != nil {
		return nil, err
	}
	if material == "" {
		return c.Sizes, nil
	}
	m := c.FindMaterialByName(material)
	if m == nil {
		return nil, fmt.Errorf("material %q: %w", material, model.ErrNotFound)
	}
	return c.SizesForMaterial(m.ID), nil
}

func newWastageCmd(a *app) *cobra.Command {
	var base, additional int
	cmd := &cobra.Command{
		Use:     "wastage",
		Short:   "Classify additional sheets against the wastage policy",
		Example: `  sheetplan wastage --base 11 --additional 2`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := wastage.Classify(base, additional)
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return writeJSON(a.out, v)
			}
			fmt.Fprintf(a.out, "Wastage: %.2f%%\n%s\n", v.WastagePercentage, v.Message)
			if v.RequiresJustification {
				fmt.Fprintln(a.out, "Justification: required")
			}
			if v.RequiresConfirmation {
				fmt.Fprintln(a.out, "Confirmation:  required")
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&base, "base", 0, "Base required sheets")
	cmd.Flags().IntVar(&additional, "additional", 0, "Additional sheets")
	_ = cmd.MarkFlagRequired("base")
	return cmd
}

func newCostCmd(a *app) *cobra.Command {
	var (
		base, additional int
		sheetCost        string
		materialCost     string
	)
	cmd := &cobra.Command{
		Use:   "cost",
		Short: "Estimate material cost for a sheet count",
		Long: `Estimate material cost. The sheet price is --sheet-cost when given,
otherwise --material-cost, otherwise the configured material unit cost.`,
		Example: `  sheetplan cost --base 11 --additional 1 --sheet-cost 3.20`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sheetPrice, err := parseDecimalFlag("sheet-cost", sheetCost)
			if err != nil {
				return err
			}
			fallback, err := parseDecimalFlag("material-cost", materialCost)
			if err != nil {
				return err
			}
			if fallback == nil {
				if fallback, err = a.cfg.UnitCost(); err != nil {
					return err
				}
			}

			candidate := &model.OptimizationCandidate{StockSheetSize: model.StockSheetSize{UnitCost: sheetPrice}}
			summary, err := costing.Estimate(base, additional, candidate, fallback)
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return writeJSON(a.out, summary)
			}
			fmt.Fprintf(a.out, "Cost per sheet: %s\n", summary.CostPerSheet.StringFixed(2))
			fmt.Fprintf(a.out, "Total sheets:   %d\n", summary.TotalSheets)
			fmt.Fprintf(a.out, "Material cost:  %s\n", summary.MaterialCost.StringFixed(2))
			fmt.Fprintf(a.out, "Wastage cost:   %s\n", summary.WastageCost.StringFixed(2))
			return nil
		},
	}
	cmd.Flags().IntVar(&base, "base", 0, "Base required sheets")
	cmd.Flags().IntVar(&additional, "additional", 0, "Additional sheets")
	cmd.Flags().StringVar(&sheetCost, "sheet-cost", "", "Price per sheet of the stock size")
	cmd.Flags().StringVar(&materialCost, "material-cost", "", "Fallback price per sheet of the material")
	_ = cmd.MarkFlagRequired("base")
	return cmd
}
