package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/piwi3910/SheetPlan/internal/model"
	"github.com/piwi3910/SheetPlan/internal/store"
)

// jobReport is the planning history of one job.
type jobReport struct {
	Job            model.Job             `json:"job"`
	Plan           *model.Plan           `json:"plan,omitempty"`
	StockMovements []store.StockMovement `json:"stock_movements"`
	Events         []store.JobEvent      `json:"events"`
}

func newReportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "report JOB_ID",
		Short: "Show a job's plan, stock movements and department history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, closeFn, err := a.openStore()
			if err != nil {
				return err
			}
			defer closeFn()

			ctx := cmd.Context()
			r := jobReport{}
			if r.Job, err = st.LoadJob(ctx, args[0]); err != nil {
				return err
			}
			p, err := st.LoadPlan(ctx, args[0])
			switch {
			case err == nil:
				r.Plan = &p
			case !errors.Is(err, model.ErrNotFound):
				return err
			}
			if r.StockMovements, err = st.StockMovements(ctx, args[0]); err != nil {
				return err
			}
			if r.Events, err = st.JobEvents(ctx, args[0]); err != nil {
				return err
			}

			if a.jsonOutput {
				return writeJSON(a.out, r)
			}
			fmt.Fprintf(a.out, "Job %s %s, %d x %s mm, now in %s\n\n", r.Job.ID, r.Job.Title, r.Job.Quantity, r.Job.Blank, r.Job.Department)
			if r.Plan != nil {
				printPlan(a.out, *r.Plan)
			} else {
				fmt.Fprintln(a.out, "No plan yet")
			}
			if len(r.StockMovements) > 0 {
				fmt.Fprintln(a.out, "\nStock movements:")
				for _, m := range r.StockMovements {
					fmt.Fprintf(a.out, "  %s  %-10s %+6d  balance %d\n", m.CreatedAt.Format("2006-01-02 15:04"), m.StockSizeID, m.Sheets, m.BalanceAfter)
				}
			}
			if len(r.Events) > 0 {
				fmt.Fprintln(a.out, "\nDepartment history:")
				for _, e := range r.Events {
					fmt.Fprintf(a.out, "  %s  %s -> %s by %s\n", e.CreatedAt.Format("2006-01-02 15:04"), e.FromDepartment, e.ToDepartment, e.Actor)
				}
			}
			return nil
		},
	}
}
