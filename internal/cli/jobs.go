package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/piwi3910/SheetPlan/internal/importer"
	"github.com/piwi3910/SheetPlan/internal/model"
	"github.com/piwi3910/SheetPlan/internal/store"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, closeFn, err := a.openStore()
			if err != nil {
				return err
			}
			defer closeFn()

			v, err := st.SchemaVersion()
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return writeJSON(a.out, map[string]interface{}{"db_path": a.cfg.DBPath, "version": v})
			}
			fmt.Fprintf(a.out, "Database %s at schema version %d\n", a.cfg.DBPath, v)
			return nil
		},
	}
}

func newJobCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "job",
		Short: "Create and inspect jobs",
	}
	cmd.AddCommand(newJobCreateCmd(a), newJobShowCmd(a))
	return cmd
}

func newJobCreateCmd(a *app) *cobra.Command {
	var (
		job       model.Job
		material  string
		blankFlag string
		dxfPath   string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a job for a blank and quantity",
		Example: `  sheetplan job create --id J-1001 --title "Folding carton" --material "Folding Box Board" --quantity 950 --blank 100x150
  sheetplan job create --title "Sleeve" --material "Art Paper" --quantity 5000 --dxf sleeve.dxf`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case blankFlag != "" && dxfPath != "":
				return fmt.Errorf("%w: use either --blank or --dxf", model.ErrInvalidInput)
			case dxfPath != "":
				res := importer.ImportBlankDXF(dxfPath)
				for _, w := range res.Warnings {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
				}
				if len(res.Errors) > 0 {
					return fmt.Errorf("%w: %s: %s", model.ErrInvalidInput, dxfPath, res.Errors[0])
				}
				job.Blank = res.Blank
			default:
				blank, err := parseSize(blankFlag)
				if err != nil {
					return err
				}
				job.Blank = blank
			}

			st, closeFn, err := a.openStore()
			if err != nil {
				return err
			}
			defer closeFn()

			ctx := cmd.Context()
			m, err := st.MaterialByName(ctx, material)
			if err != nil {
				return err
			}
			job.MaterialID = m.ID

			created, err := st.CreateJob(ctx, job)
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return writeJSON(a.out, created)
			}
			fmt.Fprintf(a.out, "Created job %s: %d x %s blanks of %s, in %s\n",
				created.ID, created.Quantity, created.Blank, m.Name, created.Department)
			return nil
		},
	}
	cmd.Flags().StringVar(&job.ID, "id", "", "Job ID (generated when empty)")
	cmd.Flags().StringVar(&job.Title, "title", "", "Job title")
	cmd.Flags().StringVar(&material, "material", "", "Material name")
	cmd.Flags().IntVar(&job.Quantity, "quantity", 0, "Blanks to produce")
	cmd.Flags().StringVar(&blankFlag, "blank", "", "Blank size, e.g. 100x150 (mm)")
	cmd.Flags().StringVar(&dxfPath, "dxf", "", "Read the blank size from a die-line DXF")
	cmd.Flags().StringVar(&job.Department, "department", "", fmt.Sprintf("Starting department (default %s)", store.Departments[0]))
	_ = cmd.MarkFlagRequired("material")
	_ = cmd.MarkFlagRequired("quantity")
	return cmd
}

func newJobShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show JOB_ID",
		Short: "Show a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, closeFn, err := a.openStore()
			if err != nil {
				return err
			}
			defer closeFn()

			job, err := st.LoadJob(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return writeJSON(a.out, job)
			}
			fmt.Fprintf(a.out, "Job:        %s %s\n", job.ID, job.Title)
			fmt.Fprintf(a.out, "Material:   %s\n", job.MaterialID)
			fmt.Fprintf(a.out, "Blank:      %s mm\n", job.Blank)
			fmt.Fprintf(a.out, "Quantity:   %d\n", job.Quantity)
			fmt.Fprintf(a.out, "Department: %s\n", job.Department)
			return nil
		},
	}
}
