// Package wastage classifies additional sheets against the base requirement.
package wastage

import (
	"fmt"

	"github.com/piwi3910/SheetPlan/internal/model"
)

// Policy thresholds in percent of the base sheet count.
const (
	ConfirmationThreshold  = 25.0
	JustificationThreshold = 10.0
	AcceptableThreshold    = 3.0
)

const (
	msgHigh       = "High wastage detected (>25%). Confirmation required."
	msgJustify    = "Wastage exceeds 10%. Justification required."
	msgAcceptable = "Wastage within acceptable range (3-10%)"
	msgLow        = "Low wastage (<3%)"
)

// Percentage returns additional/base*100 rounded to two decimals.
func Percentage(base, additional int) (float64, error) {
	if base <= 0 {
		return 0, fmt.Errorf("%w: base required sheets must be positive, got %d", model.ErrInvalidInput, base)
	}
	if additional < 0 {
		return 0, fmt.Errorf("%w: additional sheets must not be negative, got %d", model.ErrInvalidInput, additional)
	}
	return model.Round2(float64(additional) / float64(base) * 100), nil
}

// Classify returns the policy verdict for additional sheets over base. The
// band is picked from the reported two-decimal percentage, so 10.004% reads
// as 10.00 and stays in the acceptable band.
func Classify(base, additional int) (model.WastageVerdict, error) {
	pct, err := Percentage(base, additional)
	if err != nil {
		return model.WastageVerdict{}, err
	}

	v := model.WastageVerdict{WastagePercentage: pct}
	switch {
	case pct > ConfirmationThreshold:
		v.RequiresJustification = true
		v.RequiresConfirmation = true
		v.Message = msgHigh
	case pct > JustificationThreshold:
		v.RequiresJustification = true
		v.Message = msgJustify
	case pct >= AcceptableThreshold:
		v.Message = msgAcceptable
	default:
		v.Message = msgLow
	}
	return v, nil
}
