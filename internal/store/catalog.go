package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/piwi3910/SheetPlan/internal/model"
)

// StockMovement is one change to a stock size's sheet count.
type StockMovement struct {
	ID           string    `json:"id"`
	StockSizeID  string    `json:"stock_size_id"`
	JobID        string    `json:"job_id"`
	Sheets       int       `json:"sheets"` // Negative for deductions
	BalanceAfter int       `json:"balance_after"`
	CreatedAt    time.Time `json:"created_at"`
}

// JobEvent records a job moving between departments.
type JobEvent struct {
	ID             string    `json:"id"`
	JobID          string    `json:"job_id"`
	FromDepartment string    `json:"from_department"`
	ToDepartment   string    `json:"to_department"`
	Actor          string    `json:"actor"`
	CreatedAt      time.Time `json:"created_at"`
}

// UpsertMaterial inserts a material or updates the one with the same ID.
func (s *Store) UpsertMaterial(ctx context.Context, m model.Material, unitCost *decimal.Decimal) error {
	if m.ID == "" {
		return fmt.Errorf("%w: material id is required", model.ErrInvalidInput)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO materials (id, name, gsm, category, unit_cost) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, gsm = excluded.gsm, category = excluded.category, unit_cost = excluded.unit_cost`,
		m.ID, m.Name, m.GSM, m.Category, nullDecimal(unitCost))
	if err != nil {
		return fmt.Errorf("upsert material: %w", err)
	}
	return nil
}

// MaterialByName returns the material with the given name.
func (s *Store) MaterialByName(ctx context.Context, name string) (model.Material, error) {
	var m model.Material
	err := s.db.QueryRowContext(ctx, `SELECT id, name, gsm, category FROM materials WHERE name = ?`, name).
		Scan(&m.ID, &m.Name, &m.GSM, &m.Category)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Material{}, fmt.Errorf("material %q: %w", name, model.ErrNotFound)
	}
	if err != nil {
		return model.Material{}, fmt.Errorf("load material: %w", err)
	}
	return m, nil
}

// ImportCatalog writes every material and stock size of the catalog in one
// transaction. Existing rows with the same IDs are replaced.
func (s *Store) ImportCatalog(ctx context.Context, c model.Catalog) error {
	if err := c.Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import transaction: %w", err)
	}

	for _, m := range c.Materials {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO materials (id, name, gsm, category) VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET name = excluded.name, gsm = excluded.gsm, category = excluded.category`,
			m.ID, m.Name, m.GSM, m.Category); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("import material %s: %w", m.Name, err)
		}
	}
	for _, sz := range c.Sizes {
		if sz.IsDefault {
			if _, err := tx.ExecContext(ctx, `UPDATE stock_sizes SET is_default = 0 WHERE material_id = ? AND id <> ?`, sz.MaterialID, sz.ID); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("clear default stock size: %w", err)
			}
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO stock_sizes (id, material_id, name, width, height, unit_cost, available_stock, is_default)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				material_id = excluded.material_id, name = excluded.name,
				width = excluded.width, height = excluded.height, unit_cost = excluded.unit_cost,
				available_stock = excluded.available_stock, is_default = excluded.is_default`,
			sz.ID, sz.MaterialID, sz.Name, sz.Width, sz.Height, nullDecimal(sz.UnitCost), sz.AvailableStock, sz.IsDefault); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("import stock size %s: %w", sz.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import transaction: %w", err)
	}
	return nil
}

// StockSize returns one stock size by ID.
func (s *Store) StockSize(ctx context.Context, id string) (model.StockSheetSize, error) {
	var (
		sz   model.StockSheetSize
		cost decimal.NullDecimal
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, material_id, name, width, height, unit_cost, available_stock, is_default
		FROM stock_sizes WHERE id = ?`, id).
		Scan(&sz.ID, &sz.MaterialID, &sz.Name, &sz.Width, &sz.Height, &cost, &sz.AvailableStock, &sz.IsDefault)
	if errors.Is(err, sql.ErrNoRows) {
		return model.StockSheetSize{}, fmt.Errorf("stock size %s: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return model.StockSheetSize{}, fmt.Errorf("load stock size: %w", err)
	}
	sz.UnitCost = decimalPtr(cost)
	return sz, nil
}

// CreateJob inserts a job in the first department unless one is set.
func (s *Store) CreateJob(ctx context.Context, j model.Job) (model.Job, error) {
	if j.Quantity <= 0 {
		return model.Job{}, fmt.Errorf("%w: quantity must be positive, got %d", model.ErrInvalidInput, j.Quantity)
	}
	if err := j.Blank.Validate("blank"); err != nil {
		return model.Job{}, err
	}
	if j.ID == "" {
		j.ID = uuid.New().String()[:8]
	}
	if j.Department == "" {
		j.Department = Departments[0]
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO jobs (id, title, material_id, quantity, blank_width, blank_height, department, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID, j.Title, j.MaterialID, j.Quantity, j.Blank.Width, j.Blank.Height, j.Department, s.now().Format(timeLayout))
	if err != nil {
		return model.Job{}, fmt.Errorf("insert job: %w", err)
	}
	return j, nil
}

// StockMovements returns the stock movements recorded for a job, oldest first.
func (s *Store) StockMovements(ctx context.Context, jobID string) ([]StockMovement, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, stock_size_id, job_id, sheets, balance_after, created_at
		FROM stock_movements WHERE job_id = ? ORDER BY created_at, id`, jobID)
	if err != nil {
		return nil, fmt.Errorf("query stock movements: %w", err)
	}
	defer rows.Close()

	var out []StockMovement
	for rows.Next() {
		var (
			m  StockMovement
			ts string
		)
		if err := rows.Scan(&m.ID, &m.StockSizeID, &m.JobID, &m.Sheets, &m.BalanceAfter, &ts); err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		if m.CreatedAt, err = parseTime(ts); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stock movements: %w", err)
	}
	return out, nil
}

// JobEvents returns the department changes of a job, oldest first.
func (s *Store) JobEvents(ctx context.Context, jobID string) ([]JobEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, job_id, from_department, to_department, actor, created_at
		FROM job_events WHERE job_id = ? ORDER BY created_at, id`, jobID)
	if err != nil {
		return nil, fmt.Errorf("query job events: %w", err)
	}
	defer rows.Close()

	var out []JobEvent
	for rows.Next() {
		var (
			e  JobEvent
			ts string
		)
		if err := rows.Scan(&e.ID, &e.JobID, &e.FromDepartment, &e.ToDepartment, &e.Actor, &ts); err != nil {
			return nil, fmt.Errorf("scan job event: %w", err)
		}
		if e.CreatedAt, err = parseTime(ts); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate job events: %w", err)
	}
	return out, nil
}
