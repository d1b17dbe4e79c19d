package planning

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/SheetPlan/internal/engine"
	"github.com/piwi3910/SheetPlan/internal/model"
)

// memRepo is an in-memory Repository. InTx works on a copy of the state and
// commits it only when fn succeeds.
type memRepo struct {
	mu    sync.Mutex
	state memState
}

type memState struct {
	jobs     map[string]model.Job
	plans    map[string]model.Plan
	sizes    map[string]model.StockSheetSize
	prices   map[string]decimal.Decimal
	depts    []string
	advances int
}

func (s memState) clone() memState {
	c := memState{
		jobs:     make(map[string]model.Job, len(s.jobs)),
		plans:    make(map[string]model.Plan, len(s.plans)),
		sizes:    make(map[string]model.StockSheetSize, len(s.sizes)),
		prices:   s.prices,
		depts:    s.depts,
		advances: s.advances,
	}
	for k, v := range s.jobs {
		c.jobs[k] = v
	}
	for k, v := range s.plans {
		c.plans[k] = v
	}
	for k, v := range s.sizes {
		c.sizes[k] = v
	}
	return c
}

func (r *memRepo) InTx(ctx context.Context, fn func(Tx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx := &memTx{state: r.state.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	r.state = tx.state
	return nil
}

type memTx struct {
	state memState
}

func (t *memTx) LoadJob(ctx context.Context, jobID string) (model.Job, error) {
	j, ok := t.state.jobs[jobID]
	if !ok {
		return model.Job{}, fmt.Errorf("job %s: %w", jobID, model.ErrNotFound)
	}
	return j, nil
}

func (t *memTx) LoadPlan(ctx context.Context, jobID string) (model.Plan, error) {
	p, ok := t.state.plans[jobID]
	if !ok {
		return model.Plan{}, fmt.Errorf("plan %s: %w", jobID, model.ErrNotFound)
	}
	return p, nil
}

func (t *memTx) SavePlan(ctx context.Context, p model.Plan) error {
	t.state.plans[p.JobID] = p
	return nil
}

func (t *memTx) MarkApplied(ctx context.Context, jobID, actor string, at time.Time) error {
	p := t.state.plans[jobID]
	if p.Status == model.PlanApplied {
		return model.ErrConflict
	}
	p.Status = model.PlanApplied
	p.AppliedBy = actor
	p.AppliedAt = &at
	t.state.plans[jobID] = p
	return nil
}

func (t *memTx) StockSizes(ctx context.Context, materialID string) ([]model.StockSheetSize, error) {
	var out []model.StockSheetSize
	for _, s := range t.state.sizes {
		if s.MaterialID == materialID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (t *memTx) MaterialUnitCost(ctx context.Context, materialID string) (*decimal.Decimal, error) {
	p, ok := t.state.prices[materialID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (t *memTx) DeductStock(ctx context.Context, sizeID string, sheets int, jobID string) error {
	s, ok := t.state.sizes[sizeID]
	if !ok {
		return model.ErrNotFound
	}
	if s.AvailableStock < sheets {
		return fmt.Errorf("%w: %d available, %d needed", model.ErrInsufficientStock, s.AvailableStock, sheets)
	}
	s.AvailableStock -= sheets
	t.state.sizes[sizeID] = s
	return nil
}

func (t *memTx) AdvanceJob(ctx context.Context, jobID, actor string) (string, error) {
	j := t.state.jobs[jobID]
	j.Department = "printing"
	t.state.jobs[jobID] = j
	t.state.advances++
	return j.Department, nil
}

func newTestService(t *testing.T, stock int) (*Service, *memRepo) {
	t.Helper()
	repo := &memRepo{state: memState{
		jobs: map[string]model.Job{
			"JOB-1": {ID: "JOB-1", MaterialID: "fbb", Quantity: 950, Blank: model.Size{Width: 100, Height: 150}, Department: "planning"},
		},
		plans: map[string]model.Plan{},
		sizes: map[string]model.StockSheetSize{
			"b1": {ID: "b1", MaterialID: "fbb", Width: 1000, Height: 1400, AvailableStock: stock},
			"s1": {ID: "s1", MaterialID: "fbb", Width: 1000, Height: 700, AvailableStock: 100},
		},
		prices: map[string]decimal.Decimal{"fbb": decimal.RequireFromString("2.50")},
	}}
	svc := NewService(repo, engine.NewRanker(2), nil)
	svc.now = func() time.Time { return time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC) }
	return svc, repo
}

func bestCandidate(t *testing.T, svc *Service) *model.OptimizationCandidate {
	t.Helper()
	ranked, err := svc.RankForJob(context.Background(), "JOB-1")
	require.NoError(t, err)
	require.NotEmpty(t, ranked)
	return &ranked[0]
}

func TestStartPlanning_CreatesDraftOnce(t *testing.T) {
	svc, repo := newTestService(t, 50)
	ctx := context.Background()

	p, err := svc.StartPlanning(ctx, "JOB-1")
	require.NoError(t, err)
	assert.Equal(t, model.PlanDraft, p.Status)

	repo.state.plans["JOB-1"] = model.Plan{JobID: "JOB-1", Status: model.PlanPlanned}
	p, err = svc.StartPlanning(ctx, "JOB-1")
	require.NoError(t, err)
	assert.Equal(t, model.PlanPlanned, p.Status, "existing plan is returned unchanged")
}

func TestStartPlanning_UnknownJob(t *testing.T) {
	svc, _ := newTestService(t, 50)
	_, err := svc.StartPlanning(context.Background(), "NOPE")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestSavePlan_ComputesTotalsAndCost(t *testing.T) {
	svc, _ := newTestService(t, 50)
	ctx := context.Background()
	c := bestCandidate(t, svc)

	p, err := svc.SavePlan(ctx, SaveRequest{JobID: "JOB-1", Candidate: c})
	require.NoError(t, err)

	assert.Equal(t, model.PlanPlanned, p.Status)
	assert.Equal(t, c.RequiredSheets, p.BaseRequiredSheets)
	assert.Equal(t, p.BaseRequiredSheets+p.AdditionalSheets, p.FinalTotalSheets)
	expected := decimal.RequireFromString("2.50").Mul(decimal.NewFromInt(int64(p.FinalTotalSheets)))
	assert.True(t, p.MaterialCost.Equal(expected), "material cost %s", p.MaterialCost)
	assert.True(t, p.WastageCost.IsZero())
}

func TestSavePlan_RequiresJustification(t *testing.T) {
	svc, _ := newTestService(t, 50)
	ctx := context.Background()
	c := bestCandidate(t, svc)
	require.Equal(t, 11, c.RequiredSheets)

	extra := 2 // 18.18%
	_, err := svc.SavePlan(ctx, SaveRequest{JobID: "JOB-1", Candidate: c, AdditionalSheets: extra})
	assert.ErrorIs(t, err, model.ErrJustificationRequired)

	p, err := svc.SavePlan(ctx, SaveRequest{JobID: "JOB-1", Candidate: c, AdditionalSheets: extra, Justification: "make-ready"})
	require.NoError(t, err)
	assert.Equal(t, "make-ready", p.WastageJustification)
	assert.Greater(t, p.WastagePercentage, 10.0)
}

func TestSavePlan_RequiresConfirmation(t *testing.T) {
	svc, _ := newTestService(t, 50)
	ctx := context.Background()
	c := bestCandidate(t, svc)
	extra := c.RequiredSheets // 100%

	_, err := svc.SavePlan(ctx, SaveRequest{JobID: "JOB-1", Candidate: c, AdditionalSheets: extra, Justification: "proofs"})
	assert.ErrorIs(t, err, model.ErrConfirmationRequired)

	p, err := svc.SavePlan(ctx, SaveRequest{JobID: "JOB-1", Candidate: c, AdditionalSheets: extra, Justification: "proofs", Confirmed: true})
	require.NoError(t, err)
	assert.Equal(t, 100.0, p.WastagePercentage)
	assert.False(t, p.WastageCost.IsZero())
}

func TestSavePlan_NegativeAdditional(t *testing.T) {
	svc, _ := newTestService(t, 50)
	_, err := svc.SavePlan(context.Background(), SaveRequest{JobID: "JOB-1", AdditionalSheets: -1})
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestApplyPlan_Lifecycle(t *testing.T) {
	svc, repo := newTestService(t, 50)
	ctx := context.Background()
	c := bestCandidate(t, svc)

	_, err := svc.SavePlan(ctx, SaveRequest{JobID: "JOB-1", Candidate: c, AdditionalSheets: 1})
	require.NoError(t, err)

	p, err := svc.ApplyPlan(ctx, "JOB-1", "alice")
	require.NoError(t, err)
	assert.Equal(t, model.PlanApplied, p.Status)
	assert.Equal(t, "alice", p.AppliedBy)
	require.NotNil(t, p.AppliedAt)

	assert.Equal(t, 50-p.FinalTotalSheets, repo.state.sizes[c.StockSheetSize.ID].AvailableStock)
	assert.Equal(t, "printing", repo.state.jobs["JOB-1"].Department)

	_, err = svc.ApplyPlan(ctx, "JOB-1", "bob")
	assert.ErrorIs(t, err, model.ErrConflict)

	_, err = svc.SavePlan(ctx, SaveRequest{JobID: "JOB-1", Candidate: c})
	assert.ErrorIs(t, err, model.ErrConflict)
}

func TestApplyPlan_WithoutSelection(t *testing.T) {
	svc, _ := newTestService(t, 50)
	ctx := context.Background()

	_, err := svc.StartPlanning(ctx, "JOB-1")
	require.NoError(t, err)

	_, err = svc.ApplyPlan(ctx, "JOB-1", "alice")
	assert.ErrorIs(t, err, model.ErrPreconditionFailed)
}

func TestApplyPlan_InsufficientStockRollsBack(t *testing.T) {
	svc, repo := newTestService(t, 3)
	ctx := context.Background()

	ranked, err := svc.RankForJob(ctx, "JOB-1")
	require.NoError(t, err)
	var c *model.OptimizationCandidate
	for i := range ranked {
		if ranked[i].StockSheetSize.ID == "b1" {
			c = &ranked[i]
		}
	}
	require.NotNil(t, c)

	_, err = svc.SavePlan(ctx, SaveRequest{JobID: "JOB-1", Candidate: c})
	require.NoError(t, err)

	_, err = svc.ApplyPlan(ctx, "JOB-1", "alice")
	assert.ErrorIs(t, err, model.ErrInsufficientStock)

	assert.Equal(t, model.PlanPlanned, repo.state.plans["JOB-1"].Status)
	assert.Equal(t, 3, repo.state.sizes["b1"].AvailableStock)
	assert.Equal(t, "planning", repo.state.jobs["JOB-1"].Department)
}

func TestApplyPlan_ConcurrentExactlyOneWins(t *testing.T) {
	svc, repo := newTestService(t, 500)
	ctx := context.Background()
	c := bestCandidate(t, svc)
	_, err := svc.SavePlan(ctx, SaveRequest{JobID: "JOB-1", Candidate: c})
	require.NoError(t, err)

	const callers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.ApplyPlan(ctx, "JOB-1", fmt.Sprintf("op-%d", i))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case assert.ErrorIs(t, err, model.ErrConflict):
				conflicts++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, callers-1, conflicts)
	assert.Equal(t, 1, repo.state.advances)
}

func TestSavePlan_ReportsShortfallFromCurrentStock(t *testing.T) {
	svc, repo := newTestService(t, 50)
	ctx := context.Background()
	c := bestCandidate(t, svc)
	require.Equal(t, "b1", c.StockSheetSize.ID)
	require.True(t, c.HasStock)

	// stock drops between ranking and saving
	b1 := repo.state.sizes["b1"]
	b1.AvailableStock = 5
	repo.state.sizes["b1"] = b1

	p, err := svc.SavePlan(ctx, SaveRequest{JobID: "JOB-1", Candidate: c, AdditionalSheets: 1})
	require.NoError(t, err)
	assert.Equal(t, model.PlanPlanned, p.Status)
	assert.Equal(t, 12-5, p.StockShortfall())
	assert.False(t, p.SelectedCandidate.HasStock)
	assert.Equal(t, 11-5, p.SelectedCandidate.StockShortage)
	assert.Equal(t, 50, c.StockSheetSize.AvailableStock, "caller's candidate is not modified")

	_, err = svc.ApplyPlan(ctx, "JOB-1", "alice")
	assert.ErrorIs(t, err, model.ErrInsufficientStock)
	assert.Equal(t, 5, repo.state.sizes["b1"].AvailableStock)
}
