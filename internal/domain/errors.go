package domain

import "errors"

// Error taxonomy shared by every feature package. Feature packages wrap
// these with %w so handlers can map them with errors.Is.
var (
	ErrValidation        = errors.New("validation error")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrTransientDispatch = errors.New("transient dispatch error")
)
