package apperr

import "errors"

// Sentinel errors shared by all services. Handlers map them to HTTP
// statuses with errors.Is; ownership mismatch and nonexistence both
// surface as ErrNotFound so callers cannot tell them apart.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)
