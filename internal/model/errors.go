package model

import "errors"

// Error kinds returned by the planning engine. Callers match them with errors.Is;
// the returned errors wrap these with context.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrIncompatible       = errors.New("incompatible stock size")
	ErrNoViableCandidate  = errors.New("no viable candidate")
	ErrConflict           = errors.New("conflict")
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrNotFound           = errors.New("not found")

	ErrJustificationRequired = errors.New("wastage justification required")
	ErrConfirmationRequired  = errors.New("wastage confirmation required")
	ErrInsufficientStock     = errors.New("insufficient stock")
)
