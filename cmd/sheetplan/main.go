// SheetPlan: sheet layout optimization and production planning for print shops.
//
// Build:
//   go build -o sheetplan ./cmd/sheetplan
//
// Quick start:
//   sheetplan layout --sheet 1000x1400 --blank 100x150
//   sheetplan catalog import sizes.csv --material "Folding Box Board"
//   sheetplan job create --id J-1001 --material "Folding Box Board" --quantity 950 --blank 100x150
//   sheetplan plan save J-1001 && sheetplan plan apply J-1001 --actor planner

package main

import (
	"fmt"
	"os"

	"github.com/piwi3910/SheetPlan/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}
