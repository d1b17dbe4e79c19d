package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/piwi3910/SheetPlan/internal/model"
)

// EfficiencyTolerance is the efficiency difference, in percentage points,
// below which two candidates count as equally efficient.
const EfficiencyTolerance = 0.01

// Ranker evaluates candidate stock sizes for a blank and quantity.
// It holds no state between calls and is safe for concurrent use.
type Ranker struct {
	// Workers bounds the number of sizes evaluated in parallel. Zero uses GOMAXPROCS.
	Workers int
}

// NewRanker returns a Ranker with the given worker limit.
func NewRanker(workers int) *Ranker {
	return &Ranker{Workers: workers}
}

func (r *Ranker) limit() int {
	if r == nil || r.Workers <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return r.Workers
}

// Evaluate builds the candidate for one stock size. Sizes that fit no blanks
// return ErrIncompatible.
func Evaluate(size model.StockSheetSize, blank model.Size, quantity int) (model.OptimizationCandidate, error) {
	set, err := GetAllLayouts(size.Size(), blank)
	if err != nil {
		return model.OptimizationCandidate{}, fmt.Errorf("stock size %s: %w", size.ID, err)
	}
	if !set.Best.Fits() {
		return model.OptimizationCandidate{}, fmt.Errorf("%w: blank %s does not fit stock size %s (%s)", model.ErrIncompatible, blank, size.ID, size.Size())
	}
	required, err := model.RequiredSheets(quantity, set.Best.BlanksPerSheet)
	if err != nil {
		return model.OptimizationCandidate{}, err
	}
	shortage := model.StockShortage(required, size.AvailableStock)
	return model.OptimizationCandidate{
		StockSheetSize: size,
		BestLayout:     set.Best,
		Layouts:        set,
		RequiredSheets: required,
		HasStock:       shortage == 0,
		StockShortage:  shortage,
	}, nil
}

// RankCandidates evaluates every size and returns the viable ones ranked best
// first. Sizes that fit no blanks are left out; if none remain the error is
// ErrNoViableCandidate.
func (r *Ranker) RankCandidates(ctx context.Context, sizes []model.StockSheetSize, blank model.Size, quantity int) ([]model.OptimizationCandidate, error) {
	if err := blank.Validate("blank"); err != nil {
		return nil, err
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive, got %d", model.ErrInvalidInput, quantity)
	}
	for _, s := range sizes {
		if err := s.Size().Validate("stock size " + s.ID); err != nil {
			return nil, err
		}
	}

	results := make([]*model.OptimizationCandidate, len(sizes))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.limit())
	for i, s := range sizes {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			c, err := Evaluate(s, blank, quantity)
			if err != nil {
				if isIncompatible(err) {
					return nil
				}
				return err
			}
			results[i] = &c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ranked := make([]model.OptimizationCandidate, 0, len(sizes))
	for _, c := range results {
		if c != nil {
			ranked = append(ranked, *c)
		}
	}
	if len(ranked) == 0 {
		return nil, fmt.Errorf("%w: none of %d stock sizes fits blank %s", model.ErrNoViableCandidate, len(sizes), blank)
	}

	SortCandidates(ranked)
	return ranked, nil
}

// FindBestSize returns the top ranked candidate.
func (r *Ranker) FindBestSize(ctx context.Context, sizes []model.StockSheetSize, blank model.Size, quantity int) (model.OptimizationCandidate, error) {
	ranked, err := r.RankCandidates(ctx, sizes, blank, quantity)
	if err != nil {
		return model.OptimizationCandidate{}, err
	}
	return ranked[0], nil
}

// SortCandidates orders candidates by efficiency, highest first. Candidates
// within EfficiencyTolerance of a group's leading candidate share a group;
// inside a group those with enough stock come first, then smaller shortage,
// then stock size ID.
func SortCandidates(cs []model.OptimizationCandidate) {
	sort.SliceStable(cs, func(i, j int) bool {
		ei, ej := cs[i].BestLayout.EfficiencyPercentage, cs[j].BestLayout.EfficiencyPercentage
		if ei != ej {
			return ei > ej
		}
		return cs[i].StockSheetSize.ID < cs[j].StockSheetSize.ID
	})

	for start := 0; start < len(cs); {
		leader := cs[start].BestLayout.EfficiencyPercentage
		end := start + 1
		for end < len(cs) && math.Abs(leader-cs[end].BestLayout.EfficiencyPercentage) <= EfficiencyTolerance+1e-9 {
			end++
		}
		group := cs[start:end]
		sort.SliceStable(group, func(i, j int) bool {
			if group[i].HasStock != group[j].HasStock {
				return group[i].HasStock
			}
			if group[i].StockShortage != group[j].StockShortage {
				return group[i].StockShortage < group[j].StockShortage
			}
			return group[i].StockSheetSize.ID < group[j].StockSheetSize.ID
		})
		start = end
	}
}

func isIncompatible(err error) bool {
	return errors.Is(err, model.ErrIncompatible)
}
