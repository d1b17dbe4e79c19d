package model

import (
	"fmt"
	"math"
)

// RequiredSheets returns ceil(quantity / blanksPerSheet).
// A layout that fits no blanks is reported as ErrIncompatible rather than divided by.
func RequiredSheets(quantity, blanksPerSheet int) (int, error) {
	if quantity <= 0 {
		return 0, fmt.Errorf("%w: quantity must be positive, got %d", ErrInvalidInput, quantity)
	}
	if blanksPerSheet <= 0 {
		return 0, fmt.Errorf("%w: no blanks fit on the sheet", ErrIncompatible)
	}
	return int(math.Ceil(float64(quantity) / float64(blanksPerSheet))), nil
}

// StockShortage returns how many sheets are missing from available stock.
func StockShortage(requiredSheets, availableStock int) int {
	if shortage := requiredSheets - availableStock; shortage > 0 {
		return shortage
	}
	return 0
}

// SpareBlanks returns the blanks produced beyond the requested quantity
// when sheets are cut with the given layout.
func SpareBlanks(quantity, sheets, blanksPerSheet int) int {
	spare := sheets*blanksPerSheet - quantity
	if spare < 0 {
		return 0
	}
	return spare
}

// Round2 rounds to two decimals, the precision percentages are reported at.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}
