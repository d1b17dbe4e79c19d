package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/piwi3910/SheetPlan/internal/costing"
	"github.com/piwi3910/SheetPlan/internal/export"
	"github.com/piwi3910/SheetPlan/internal/model"
	"github.com/piwi3910/SheetPlan/internal/planning"
	"github.com/piwi3910/SheetPlan/internal/project"
)

func newPlanCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Plan production for a job",
		Long: `Plan production for a job. A plan moves from draft to planned when a
stock size is saved, and to applied when stock is deducted and the job
moves on to the next department. Applied plans cannot be changed.`,
	}
	cmd.AddCommand(
		newPlanStartCmd(a),
		newPlanShowCmd(a),
		newPlanRankCmd(a),
		newPlanSaveCmd(a),
		newPlanApplyCmd(a),
		newPlanExportCmd(a),
	)
	return cmd
}

func (a *app) printPlan(p model.Plan) error {
	if a.jsonOutput {
		return writeJSON(a.out, p)
	}
	printPlan(a.out, p)
	return nil
}

func newPlanStartCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "start JOB_ID",
		Short: "Open a draft plan for a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, closeFn, err := a.service()
			if err != nil {
				return err
			}
			defer closeFn()

			p, err := svc.StartPlanning(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.printPlan(p)
		},
	}
}

func newPlanShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show JOB_ID",
		Short: "Show the plan of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, closeFn, err := a.service()
			if err != nil {
				return err
			}
			defer closeFn()

			p, err := svc.GetPlan(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.printPlan(p)
		},
	}
}

func newPlanRankCmd(a *app) *cobra.Command {
	var xlsxPath string
	cmd := &cobra.Command{
		Use:   "rank JOB_ID",
		Short: "Rank the stock sizes of the job's material",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, st, closeFn, err := a.service()
			if err != nil {
				return err
			}
			defer closeFn()

			ctx := cmd.Context()
			ranked, err := svc.RankForJob(ctx, args[0])
			if err != nil {
				return err
			}
			if xlsxPath != "" {
				job, err := st.LoadJob(ctx, args[0])
				if err != nil {
					return err
				}
				path, err := a.reportPath(xlsxPath)
				if err != nil {
					return err
				}
				if err := export.ExportRankingXLSX(path, job.Blank, job.Quantity, ranked); err != nil {
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
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Also write the ranking to this Excel file")
	return cmd
}

func newPlanSaveCmd(a *app) *cobra.Command {
	var (
		sizeID string
		req    planning.SaveRequest
	)
	cmd := &cobra.Command{
		Use:   "save JOB_ID",
		Short: "Save the stock size and additional sheets for a job",
		Long: `Save the stock size and additional sheets for a job. Without --size the
best ranked stock size is used. Additional sheets above 10% of the base need
--justification; above 25% they also need --confirm.`,
		Example: `  sheetplan plan save J-1001 --size b1 --additional 2 --justification "Make-ready"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, closeFn, err := a.service()
			if err != nil {
				return err
			}
			defer closeFn()

			ctx := cmd.Context()
			ranked, err := svc.RankForJob(ctx, args[0])
			if err != nil {
				return err
			}
			candidate, err := pickCandidate(ranked, sizeID)
			if err != nil {
				return err
			}

			req.JobID = args[0]
			req.Candidate = &candidate
			p, err := svc.SavePlan(ctx, req)
			if err != nil {
				return err
			}
			if short := p.StockShortfall(); short > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: stock size %s is %d sheet(s) short, apply will fail until stock is added\n",
					p.SelectedCandidate.StockSheetSize.ID, short)
			}
			return a.printPlan(p)
		},
	}
	cmd.Flags().StringVar(&sizeID, "size", "", "Stock size ID (default: best ranked)")
	cmd.Flags().IntVar(&req.AdditionalSheets, "additional", 0, "Additional sheets over the base requirement")
	cmd.Flags().StringVar(&req.Justification, "justification", "", "Reason for additional sheets")
	cmd.Flags().BoolVar(&req.Confirmed, "confirm", false, "Confirm high wastage")
	return cmd
}

// pickCandidate returns the ranked candidate for sizeID, or the best one when
// sizeID is empty.
func pickCandidate(ranked []model.OptimizationCandidate, sizeID string) (model.OptimizationCandidate, error) {
	if len(ranked) == 0 {
		return model.OptimizationCandidate{}, model.ErrNoViableCandidate
	}
	if sizeID == "" {
		return ranked[0], nil
	}
	for _, c := range ranked {
		if c.StockSheetSize.ID == sizeID {
			return c, nil
		}
	}
	return model.OptimizationCandidate{}, fmt.Errorf("%w: stock size %s is not a viable candidate", model.ErrIncompatible, sizeID)
}

func newPlanApplyCmd(a *app) *cobra.Command {
	var actor string
	cmd := &cobra.Command{
		Use:   "apply JOB_ID",
		Short: "Apply a planned job: deduct stock and advance the job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, closeFn, err := a.service()
			if err != nil {
				return err
			}
			defer closeFn()

			p, err := svc.ApplyPlan(cmd.Context(), args[0], actor)
			if err != nil {
				return err
			}
			return a.printPlan(p)
		},
	}
	cmd.Flags().StringVar(&actor, "actor", "", "Who applies the plan")
	_ = cmd.MarkFlagRequired("actor")
	return cmd
}

func newPlanExportCmd(a *app) *cobra.Command {
	var pdfPath, labelsPath, bundlePath string
	cmd := &cobra.Command{
		Use:   "export JOB_ID",
		Short: "Export the planning sheet, sheet labels or a plan bundle",
		Long: `Export the planning sheet PDF, QR sheet labels and a JSON plan bundle.
Bare file names are written to the configured report directory.`,
		Example: `  sheetplan plan export J-1001 --pdf J-1001.pdf --labels J-1001-labels.pdf`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if pdfPath == "" && labelsPath == "" && bundlePath == "" {
				return fmt.Errorf("%w: give at least one of --pdf, --labels, --bundle", model.ErrInvalidInput)
			}

			svc, st, closeFn, err := a.service()
			if err != nil {
				return err
			}
			defer closeFn()

			ctx := cmd.Context()
			job, err := st.LoadJob(ctx, args[0])
			if err != nil {
				return err
			}
			plan, err := svc.GetPlan(ctx, job.ID)
			if err != nil {
				return err
			}
			ranked, err := svc.RankForJob(ctx, job.ID)
			if err != nil && !errors.Is(err, model.ErrNoViableCandidate) {
				return err
			}

			var written []string
			if pdfPath != "" {
				sheet, err := a.planningSheet(cmd, st, job, plan, ranked)
				if err != nil {
					return err
				}
				path, err := a.reportPath(pdfPath)
				if err != nil {
					return err
				}
				if err := export.ExportPlanningPDF(path, sheet); err != nil {
					return err
				}
				written = append(written, path)
			}
			if labelsPath != "" {
				path, err := a.reportPath(labelsPath)
				if err != nil {
					return err
				}
				if err := export.ExportSheetLabels(path, job, plan); err != nil {
					return err
				}
				written = append(written, path)
			}
			if bundlePath != "" {
				path, err := a.reportPath(bundlePath)
				if err != nil {
					return err
				}
				if err := project.ExportBundle(path, job, plan, ranked); err != nil {
					return err
				}
				written = append(written, path)
			}

			if a.jsonOutput {
				return writeJSON(a.out, map[string]interface{}{"job_id": job.ID, "files": written})
			}
			for _, w := range written {
				fmt.Fprintf(a.out, "Wrote %s\n", w)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&pdfPath, "pdf", "", "Planning sheet PDF path")
	cmd.Flags().StringVar(&labelsPath, "labels", "", "QR sheet labels PDF path")
	cmd.Flags().StringVar(&bundlePath, "bundle", "", "JSON plan bundle path")
	return cmd
}

// planningSheet assembles the PDF input. Without a saved selection the best
// ranked candidate is shown.
func (a *app) planningSheet(cmd *cobra.Command, st planning.Catalog, job model.Job, plan model.Plan, ranked []model.OptimizationCandidate) (export.PlanningSheet, error) {
	sheet := export.PlanningSheet{Job: job, Ranking: ranked}
	if plan.HasSelection() {
		sheet.Candidate = *plan.SelectedCandidate
		sheet.Plan = &plan
	} else {
		c, err := pickCandidate(ranked, "")
		if err != nil {
			return export.PlanningSheet{}, err
		}
		sheet.Candidate = c
	}

	fallback, err := st.MaterialUnitCost(cmd.Context(), job.MaterialID)
	if err != nil || fallback == nil {
		if fallback, err = a.cfg.UnitCost(); err != nil {
			return export.PlanningSheet{}, err
		}
	}
	base := sheet.Candidate.RequiredSheets
	additional := 0
	if sheet.Plan != nil {
		base, additional = plan.BaseRequiredSheets, plan.AdditionalSheets
	}
	summary, err := costing.Estimate(base, additional, &sheet.Candidate, fallback)
	if err != nil {
		return export.PlanningSheet{}, err
	}
	sheet.Cost = &summary
	return sheet, nil
}
