package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/piwi3910/SheetPlan/internal/importer"
	"github.com/piwi3910/SheetPlan/internal/model"
	"github.com/piwi3910/SheetPlan/internal/project"
)

func newCatalogCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage materials and stock sheet sizes",
	}
	cmd.AddCommand(newCatalogImportCmd(a), newCatalogMergeCmd(a), newCatalogListCmd(a))
	return cmd
}

func newCatalogImportCmd(a *app) *cobra.Command {
	var (
		material string
		gsm      int
		category string
		price    string
	)
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import stock sizes into the database from CSV, Excel or a catalog JSON file",
		Long: `Import stock sizes into the database.

CSV and Excel files hold one stock size per row with columns such as id, name,
width, height, stock, cost and default. Their sizes are filed under --material,
which is created when it does not exist. JSON files are full catalogs with
their own materials.`,
		Example: `  sheetplan catalog import sizes.csv --material "Folding Box Board" --price 3.20
  sheetplan catalog import catalog.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			unitCost, err := parseDecimalFlag("price", price)
			if err != nil {
				return err
			}

			st, closeFn, err := a.openStore()
			if err != nil {
				return err
			}
			defer closeFn()
			ctx := cmd.Context()

			var (
				c        model.Catalog
				warnings []string
			)
			switch ext := strings.ToLower(filepath.Ext(path)); ext {
			case ".json":
				if c, err = project.ReadCatalog(path); err != nil {
					return err
				}
			case ".csv", ".txt", ".xlsx", ".xlsm":
				if material == "" {
					return fmt.Errorf("%w: --material is required for %s files", model.ErrInvalidInput, ext)
				}
				res := importer.ImportCSV(path)
				if ext == ".xlsx" || ext == ".xlsm" {
					res = importer.ImportExcel(path)
				}
				warnings = res.Warnings
				for _, e := range res.Errors {
					fmt.Fprintf(cmd.ErrOrStderr(), "error: %s\n", e)
				}
				if len(res.Sizes) == 0 {
					return fmt.Errorf("%w: no stock sizes imported from %s", model.ErrInvalidInput, path)
				}

				m, err := st.MaterialByName(ctx, material)
				if errors.Is(err, model.ErrNotFound) {
					m = model.NewMaterial(material, gsm, category)
				} else if err != nil {
					return err
				}
				if unitCost != nil {
					if err := st.UpsertMaterial(ctx, m, unitCost); err != nil {
						return err
					}
				}
				for i := range res.Sizes {
					res.Sizes[i].MaterialID = m.ID
				}
				c = model.Catalog{Materials: []model.Material{m}, Sizes: res.Sizes}
			default:
				return fmt.Errorf("%w: unsupported file type %q", model.ErrInvalidInput, ext)
			}

			for _, w := range warnings {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
			}
			if err := st.ImportCatalog(ctx, c); err != nil {
				return err
			}

			if a.jsonOutput {
				return writeJSON(a.out, c)
			}
			fmt.Fprintf(a.out, "Imported %d stock size(s) for %d material(s)\n", len(c.Sizes), len(c.Materials))
			return nil
		},
	}
	cmd.Flags().StringVar(&material, "material", "", "Material name for CSV and Excel rows")
	cmd.Flags().IntVar(&gsm, "gsm", 0, "Grammage when the material is created")
	cmd.Flags().StringVar(&category, "category", "", "Category when the material is created")
	cmd.Flags().StringVar(&price, "price", "", "Material price per sheet, used when a size has no cost")
	return cmd
}

func newCatalogMergeCmd(a *app) *cobra.Command {
	var into string
	cmd := &cobra.Command{
		Use:   "merge FILE",
		Short: "Merge a catalog JSON file into the local catalog file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if into == "" {
				p, err := project.DefaultCatalogPath()
				if err != nil {
					return err
				}
				into = p
			}
			existing, err := project.LoadCatalog(into)
			if err != nil {
				return err
			}
			imported, err := project.ReadCatalog(args[0])
			if err != nil {
				return err
			}

			merged, added := project.MergeCatalog(existing, imported)
			if err := merged.Validate(); err != nil {
				return err
			}
			if err := project.SaveCatalog(into, merged); err != nil {
				return err
			}

			if a.jsonOutput {
				return writeJSON(a.out, map[string]interface{}{"catalog": into, "added": added, "sizes": len(merged.Sizes)})
			}
			fmt.Fprintf(a.out, "Added %d stock size(s) to %s (%d total)\n", added, into, len(merged.Sizes))
			return nil
		},
	}
	cmd.Flags().StringVar(&into, "into", "", "Catalog file to merge into (default ~/.sheetplan/catalog.json)")
	return cmd
}

func newCatalogListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list MATERIAL",
		Short: "List the stock sizes of a material in the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, closeFn, err := a.openStore()
			if err != nil {
				return err
			}
			defer closeFn()

			ctx := cmd.Context()
			m, err := st.MaterialByName(ctx, args[0])
			if err != nil {
				return err
			}
			sizes, err := st.StockSizes(ctx, m.ID)
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return writeJSON(a.out, sizes)
			}
			printSizes(a, m, sizes)
			return nil
		},
	}
}

func printSizes(a *app, m model.Material, sizes []model.StockSheetSize) {
	fmt.Fprintf(a.out, "%s (%s)\n", m.Name, m.ID)
	fmt.Fprintf(a.out, "%-10s %-20s %-12s %8s %8s %s\n", "ID", "NAME", "SIZE", "STOCK", "COST", "DEFAULT")
	for _, s := range sizes {
		cost := "-"
		if s.UnitCost != nil {
			cost = s.UnitCost.StringFixed(2)
		}
		def := ""
		if s.IsDefault {
			def = "yes"
		}
		fmt.Fprintf(a.out, "%-10s %-20s %-12s %8d %8s %s\n", s.ID, truncate(s.Name, 20), s.Size(), s.AvailableStock, cost, def)
	}
}
