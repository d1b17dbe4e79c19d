package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/piwi3910/SheetPlan/internal/model"
	"github.com/piwi3910/SheetPlan/internal/planning"
)

// Departments in workflow order. Applying a plan moves a job one step forward.
var Departments = []string{"prepress", "planning", "printing", "cutting", "finishing", "dispatch"}

const timeLayout = time.RFC3339Nano

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries holds every statement the store runs, against a DB or a Tx.
type queries struct {
	q   querier
	now func() time.Time
}

// Store is the SQLite persistence layer. It implements planning.Repository.
type Store struct {
	queries
	db *sql.DB
}

var _ planning.Repository = (*Store)(nil)

// New wraps an opened and migrated database.
func New(db *sql.DB) *Store {
	return &Store{
		queries: queries{q: db, now: func() time.Time { return time.Now().UTC() }},
		db:      db,
	}
}

// InTx runs fn in a transaction and commits when it returns nil.
func (s *Store) InTx(ctx context.Context, fn func(planning.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(&queries{q: tx, now: s.now}); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func decimalPtr(n decimal.NullDecimal) *decimal.Decimal {
	if !n.Valid {
		return nil
	}
	d := n.Decimal
	return &d
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// LoadJob returns a job by ID.
func (q *queries) LoadJob(ctx context.Context, jobID string) (model.Job, error) {
	var j model.Job
	err := q.q.QueryRowContext(ctx, `
		SELECT id, title, material_id, quantity, blank_width, blank_height, department
		FROM jobs WHERE id = ?`, jobID).
		Scan(&j.ID, &j.Title, &j.MaterialID, &j.Quantity, &j.Blank.Width, &j.Blank.Height, &j.Department)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Job{}, fmt.Errorf("job %s: %w", jobID, model.ErrNotFound)
	}
	if err != nil {
		return model.Job{}, fmt.Errorf("load job: %w", err)
	}
	return j, nil
}

// LoadPlan returns the plan of a job.
func (q *queries) LoadPlan(ctx context.Context, jobID string) (model.Plan, error) {
	var (
		p                       model.Plan
		candidate               sql.NullString
		status                  string
		appliedAt               sql.NullString
		createdAt, updatedAt    string
		materialCost, wasteCost decimal.Decimal
	)
	err := q.q.QueryRowContext(ctx, `
		SELECT job_id, selected_candidate, base_required_sheets, additional_sheets, final_total_sheets,
		       wastage_percentage, wastage_justification, status, material_cost, wastage_cost,
		       applied_by, applied_at, created_at, updated_at
		FROM job_plans WHERE job_id = ?`, jobID).
		Scan(&p.JobID, &candidate, &p.BaseRequiredSheets, &p.AdditionalSheets, &p.FinalTotalSheets,
			&p.WastagePercentage, &p.WastageJustification, &status, &materialCost, &wasteCost,
			&p.AppliedBy, &appliedAt, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Plan{}, fmt.Errorf("plan for job %s: %w", jobID, model.ErrNotFound)
	}
	if err != nil {
		return model.Plan{}, fmt.Errorf("load plan: %w", err)
	}

	p.Status = model.PlanStatus(status)
	p.MaterialCost = materialCost
	p.WastageCost = wasteCost
	if candidate.Valid && candidate.String != "" {
		var c model.OptimizationCandidate
		if err := json.Unmarshal([]byte(candidate.String), &c); err != nil {
			return model.Plan{}, fmt.Errorf("decode selected candidate: %w", err)
		}
		p.SelectedCandidate = &c
	}
	if appliedAt.Valid {
		t, err := parseTime(appliedAt.String)
		if err != nil {
			return model.Plan{}, err
		}
		p.AppliedAt = &t
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return model.Plan{}, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return model.Plan{}, err
	}
	return p, nil
}

// SavePlan inserts the plan or updates the existing one. An applied plan is
// never overwritten; the write reports ErrConflict instead.
func (q *queries) SavePlan(ctx context.Context, p model.Plan) error {
	if !p.Status.Valid() {
		return fmt.Errorf("%w: unknown plan status %q", model.ErrInvalidInput, p.Status)
	}

	var candidate sql.NullString
	if p.SelectedCandidate != nil {
		b, err := json.Marshal(p.SelectedCandidate)
		if err != nil {
			return fmt.Errorf("encode selected candidate: %w", err)
		}
		candidate = sql.NullString{String: string(b), Valid: true}
	}
	var appliedAt sql.NullString
	if p.AppliedAt != nil {
		appliedAt = sql.NullString{String: p.AppliedAt.UTC().Format(timeLayout), Valid: true}
	}

	res, err := q.q.ExecContext(ctx, `
		INSERT INTO job_plans (
			job_id, selected_candidate, base_required_sheets, additional_sheets, final_total_sheets,
			wastage_percentage, wastage_justification, status, material_cost, wastage_cost,
			applied_by, applied_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(job_id) DO UPDATE SET
			selected_candidate = excluded.selected_candidate,
			base_required_sheets = excluded.base_required_sheets,
			additional_sheets = excluded.additional_sheets,
			final_total_sheets = excluded.final_total_sheets,
			wastage_percentage = excluded.wastage_percentage,
			wastage_justification = excluded.wastage_justification,
			status = excluded.status,
			material_cost = excluded.material_cost,
			wastage_cost = excluded.wastage_cost,
			applied_by = excluded.applied_by,
			applied_at = excluded.applied_at,
			updated_at = excluded.updated_at
		WHERE job_plans.status <> 'applied'`,
		p.JobID, candidate, p.BaseRequiredSheets, p.AdditionalSheets, p.FinalTotalSheets,
		p.WastagePercentage, p.WastageJustification, string(p.Status), p.MaterialCost.String(), p.WastageCost.String(),
		p.AppliedBy, appliedAt, p.CreatedAt.UTC().Format(timeLayout), p.UpdatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("save plan: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save plan rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: plan for job %s is applied", model.ErrConflict, p.JobID)
	}
	return nil
}

// MarkApplied flips the plan to applied. Only the first caller changes a row;
// later callers get ErrConflict.
func (q *queries) MarkApplied(ctx context.Context, jobID, actor string, at time.Time) error {
	ts := at.UTC().Format(timeLayout)
	res, err := q.q.ExecContext(ctx, `
		UPDATE job_plans
		SET status = 'applied', applied_by = ?, applied_at = ?, updated_at = ?
		WHERE job_id = ? AND status <> 'applied'`,
		actor, ts, ts, jobID)
	if err != nil {
		return fmt.Errorf("update plan status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update plan status rows affected: %w", err)
	}
	if n == 0 {
		if _, err := q.LoadPlan(ctx, jobID); err != nil {
			return err
		}
		return fmt.Errorf("%w: plan for job %s is already applied", model.ErrConflict, jobID)
	}
	return nil
}

// DeductStock removes sheets from a stock size and records the movement.
func (q *queries) DeductStock(ctx context.Context, sizeID string, sheets int, jobID string) error {
	if sheets < 0 {
		return fmt.Errorf("%w: cannot deduct %d sheets", model.ErrInvalidInput, sheets)
	}
	res, err := q.q.ExecContext(ctx, `
		UPDATE stock_sizes SET available_stock = available_stock - ?
		WHERE id = ? AND available_stock >= ?`, sheets, sizeID, sheets)
	if err != nil {
		return fmt.Errorf("deduct stock: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deduct stock rows affected: %w", err)
	}

	var balance int
	if err := q.q.QueryRowContext(ctx, `SELECT available_stock FROM stock_sizes WHERE id = ?`, sizeID).Scan(&balance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("stock size %s: %w", sizeID, model.ErrNotFound)
		}
		return fmt.Errorf("read stock balance: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: stock size %s has %d sheets, %d needed", model.ErrInsufficientStock, sizeID, balance, sheets)
	}

	if _, err := q.q.ExecContext(ctx, `
		INSERT INTO stock_movements (id, stock_size_id, job_id, sheets, balance_after, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), sizeID, jobID, -sheets, balance, q.now().Format(timeLayout)); err != nil {
		return fmt.Errorf("insert stock movement: %w", err)
	}
	return nil
}

// AdvanceJob moves the job to the next department and records the event.
func (q *queries) AdvanceJob(ctx context.Context, jobID, actor string) (string, error) {
	job, err := q.LoadJob(ctx, jobID)
	if err != nil {
		return "", err
	}
	next, err := NextDepartment(job.Department)
	if err != nil {
		return "", err
	}

	if _, err := q.q.ExecContext(ctx, `UPDATE jobs SET department = ? WHERE id = ?`, next, jobID); err != nil {
		return "", fmt.Errorf("advance job: %w", err)
	}
	if _, err := q.q.ExecContext(ctx, `
		INSERT INTO job_events (id, job_id, from_department, to_department, actor, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), jobID, job.Department, next, actor, q.now().Format(timeLayout)); err != nil {
		return "", fmt.Errorf("insert job event: %w", err)
	}
	return next, nil
}

// NextDepartment returns the department after current.
func NextDepartment(current string) (string, error) {
	for i, d := range Departments {
		if d != current {
			continue
		}
		if i == len(Departments)-1 {
			return "", fmt.Errorf("%w: job is already in %s", model.ErrPreconditionFailed, current)
		}
		return Departments[i+1], nil
	}
	return "", fmt.Errorf("%w: unknown department %q", model.ErrInvalidInput, current)
}

// StockSizes returns the stock sizes of a material ordered by ID.
func (q *queries) StockSizes(ctx context.Context, materialID string) ([]model.StockSheetSize, error) {
	rows, err := q.q.QueryContext(ctx, `
		SELECT id, material_id, name, width, height, unit_cost, available_stock, is_default
		FROM stock_sizes WHERE material_id = ? ORDER BY id`, materialID)
	if err != nil {
		return nil, fmt.Errorf("query stock sizes: %w", err)
	}
	defer rows.Close()

	var sizes []model.StockSheetSize
	for rows.Next() {
		var (
			s    model.StockSheetSize
			cost decimal.NullDecimal
		)
		if err := rows.Scan(&s.ID, &s.MaterialID, &s.Name, &s.Width, &s.Height, &cost, &s.AvailableStock, &s.IsDefault); err != nil {
			return nil, fmt.Errorf("scan stock size: %w", err)
		}
		s.UnitCost = decimalPtr(cost)
		sizes = append(sizes, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stock sizes: %w", err)
	}
	return sizes, nil
}

// MaterialUnitCost returns the material's sheet price, or nil when it has none.
func (q *queries) MaterialUnitCost(ctx context.Context, materialID string) (*decimal.Decimal, error) {
	var cost decimal.NullDecimal
	err := q.q.QueryRowContext(ctx, `SELECT unit_cost FROM materials WHERE id = ?`, materialID).Scan(&cost)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("material %s: %w", materialID, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load material cost: %w", err)
	}
	return decimalPtr(cost), nil
}
