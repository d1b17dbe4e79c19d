package model

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Orientation is the way a blank is laid on the sheet.
type Orientation int

const (
	OrientationHorizontal Orientation = iota // Blank width runs along the sheet width
	OrientationVertical                      // Blank rotated 90°, height runs along the sheet width
)

func (o Orientation) String() string {
	switch o {
	case OrientationVertical:
		return "Vertical"
	default:
		return "Horizontal"
	}
}

// LayoutType identifies the cutting strategy that produced a layout.
type LayoutType string

const (
	LayoutHorizontal LayoutType = "horizontal"
	LayoutVertical   LayoutType = "vertical"
	LayoutSmart      LayoutType = "smart"
)

// Size is a rectangle in mm. It is used both for blanks and for stock sheets.
type Size struct {
	Width  float64 `json:"width"`  // mm
	Height float64 `json:"height"` // mm
}

// BlankDimensions is the product piece cut from a stock sheet.
type BlankDimensions = Size

// Area returns the area in square mm.
func (s Size) Area() float64 {
	return s.Width * s.Height
}

// Rotated returns the size turned by 90°.
func (s Size) Rotated() Size {
	return Size{Width: s.Height, Height: s.Width}
}

// Validate reports ErrInvalidInput for dimensions that are not positive
// finite numbers.
func (s Size) Validate(what string) error {
	if !PositiveFinite(s.Width) || !PositiveFinite(s.Height) {
		return fmt.Errorf("%w: %s dimensions must be positive, got %.2f x %.2f", ErrInvalidInput, what, s.Width, s.Height)
	}
	return nil
}

// PositiveFinite reports whether v is a usable dimension: greater than zero,
// not NaN and not infinite.
func PositiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

func (s Size) String() string {
	return fmt.Sprintf("%.0f×%.0f", s.Width, s.Height)
}

// StockSheetSize is a purchasable sheet size of one material.
type StockSheetSize struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	MaterialID     string           `json:"material_id"`
	Width          float64          `json:"width"`  // mm
	Height         float64          `json:"height"` // mm
	UnitCost       *decimal.Decimal `json:"unit_cost,omitempty"`
	AvailableStock int              `json:"available_stock"`
	IsDefault      bool             `json:"is_default"`
}

// NewStockSheetSize creates a stock size with a generated ID.
func NewStockSheetSize(name string, w, h float64, available int) StockSheetSize {
	return StockSheetSize{
		ID:             uuid.New().String()[:8],
		Name:           name,
		Width:          w,
		Height:         h,
		AvailableStock: available,
	}
}

// Size returns the sheet dimensions.
func (s StockSheetSize) Size() Size {
	return Size{Width: s.Width, Height: s.Height}
}

// Band is a run of identical rows of blanks in one orientation.
// Rows are stacked from the top of the sheet in slice order.
type Band struct {
	Orientation Orientation `json:"orientation"`
	Rows        int         `json:"rows"`
	PerRow      int         `json:"per_row"`
	RowHeight   float64     `json:"row_height"` // mm
	RowWidth    float64     `json:"row_width"`  // mm, PerRow * placed blank width
}

// Blanks returns the number of blanks in the band.
func (b Band) Blanks() int {
	return b.Rows * b.PerRow
}

// Height returns the total height of the band in mm.
func (b Band) Height() float64 {
	return float64(b.Rows) * b.RowHeight
}

// Layout is one cutting strategy for a blank on a sheet.
//
// For a single grid BlanksPerSheet == BlanksPerRow*BlanksPerColumn. A mixed
// smart layout is a stack of grids: each Band holds Rows*PerRow blanks and
// BlanksPerSheet is the sum over Bands, so the product of the two summary
// counts does not apply.
type Layout struct {
	Type LayoutType `json:"type"`
	// BlanksPerRow is the per-row count of the grid. For mixed layouts it
	// is the widest band's PerRow.
	BlanksPerRow int `json:"blanks_per_row"`
	// BlanksPerColumn is the number of rows. For mixed layouts it is the
	// total rows over all bands.
	BlanksPerColumn      int        `json:"blanks_per_column"`
	BlanksPerSheet       int        `json:"blanks_per_sheet"`
	UsedWidth            float64    `json:"used_width"`
	UsedHeight           float64    `json:"used_height"`
	WastageWidth         float64    `json:"wastage_width"`
	WastageHeight        float64    `json:"wastage_height"`
	WastageArea          float64    `json:"wastage_area"`
	WastagePercentage    float64    `json:"wastage_percentage"`
	EfficiencyPercentage float64    `json:"efficiency_percentage"`
	GridPattern          string     `json:"grid_pattern"`
	Bands                []Band     `json:"bands,omitempty"`
}

// Fits reports whether at least one blank fits.
func (l Layout) Fits() bool {
	return l.BlanksPerSheet > 0
}

// IsMixed reports whether the layout combines both orientations.
func (l Layout) IsMixed() bool {
	seen := map[Orientation]bool{}
	for _, b := range l.Bands {
		if b.Rows > 0 {
			seen[b.Orientation] = true
		}
	}
	return len(seen) > 1
}

// LayoutSet holds every strategy evaluated for one sheet, plus the best of them.
type LayoutSet struct {
	Horizontal Layout `json:"horizontal"`
	Vertical   Layout `json:"vertical"`
	Smart      Layout `json:"smart"`
	Best       Layout `json:"best"`
}

// OptimizationCandidate is a stock size evaluated for a blank and quantity.
type OptimizationCandidate struct {
	StockSheetSize StockSheetSize `json:"stock_sheet_size"`
	BestLayout     Layout         `json:"best_layout"`
	Layouts        LayoutSet      `json:"layouts"`
	RequiredSheets int            `json:"required_sheets"`
	HasStock       bool           `json:"has_stock"`
	StockShortage  int            `json:"stock_shortage"`
}

// PlanStatus is the lifecycle state of a production plan.
type PlanStatus string

const (
	PlanDraft   PlanStatus = "draft"
	PlanPlanned PlanStatus = "planned"
	PlanApplied PlanStatus = "applied"
)

// Valid reports whether s is a known status.
func (s PlanStatus) Valid() bool {
	switch s {
	case PlanDraft, PlanPlanned, PlanApplied:
		return true
	}
	return false
}

// Job is the slice of a job card the planning engine needs.
type Job struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	MaterialID string `json:"material_id"`
	Quantity   int    `json:"quantity"`
	Blank      Size   `json:"blank"`
	Department string `json:"department"`
}

// Plan is the production planning decision for one job.
type Plan struct {
	JobID                string                 `json:"job_id"`
	SelectedCandidate    *OptimizationCandidate `json:"selected_candidate,omitempty"`
	BaseRequiredSheets   int                    `json:"base_required_sheets"`
	AdditionalSheets     int                    `json:"additional_sheets"`
	FinalTotalSheets     int                    `json:"final_total_sheets"`
	WastagePercentage    float64                `json:"wastage_percentage"`
	WastageJustification string                 `json:"wastage_justification,omitempty"`
	Status               PlanStatus             `json:"status"`
	MaterialCost         decimal.Decimal        `json:"material_cost"`
	WastageCost          decimal.Decimal        `json:"wastage_cost"`
	AppliedBy            string                 `json:"applied_by,omitempty"`
	AppliedAt            *time.Time             `json:"applied_at,omitempty"`
	CreatedAt            time.Time              `json:"created_at"`
	UpdatedAt            time.Time              `json:"updated_at"`
}

// NewPlan returns an empty draft plan for a job.
func NewPlan(jobID string, now time.Time) Plan {
	return Plan{
		JobID:     jobID,
		Status:    PlanDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// HasSelection reports whether a stock size has been chosen.
func (p Plan) HasSelection() bool {
	return p.SelectedCandidate != nil
}

// StockShortfall returns how many of the final sheets the selected stock size
// lacked when the plan was saved. Applying a plan with a shortfall fails with
// ErrInsufficientStock.
func (p Plan) StockShortfall() int {
	if p.SelectedCandidate == nil {
		return 0
	}
	return StockShortage(p.FinalTotalSheets, p.SelectedCandidate.StockSheetSize.AvailableStock)
}

// CostSummary is the material cost breakdown for a plan.
type CostSummary struct {
	CostPerSheet decimal.Decimal `json:"cost_per_sheet"`
	TotalSheets  int             `json:"total_sheets"`
	MaterialCost decimal.Decimal `json:"material_cost"`
	WastageCost  decimal.Decimal `json:"wastage_cost"` // Informational, already part of MaterialCost
	TotalCost    decimal.Decimal `json:"total_cost"`
}

// WastageVerdict is the policy classification of additional sheets over base.
// The band and its flags follow WastagePercentage as reported, rounded to two
// decimals.
type WastageVerdict struct {
	WastagePercentage     float64 `json:"wastage_percentage"`
	RequiresJustification bool    `json:"requires_justification"`
	RequiresConfirmation  bool    `json:"requires_confirmation"`
	Message               string  `json:"message"`
}
