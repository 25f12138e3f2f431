package transfer

import "errors"

// Failure taxonomy for one transfer attempt. Components wrap these with %w
// so callers can classify with errors.Is without parsing messages.
var (
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrSourceRead    = errors.New("source read failed")
	ErrSinkWrite     = errors.New("sink write failed")
	ErrNotFound      = errors.New("source object not found")
	ErrAccessDenied  = errors.New("source access denied")
	ErrCancelled     = errors.New("transfer cancelled")
)
