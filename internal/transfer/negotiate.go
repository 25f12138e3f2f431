package transfer

import "fmt"

// NegotiateWriteUnit clamps the requested write unit to the sink's
// negotiated maximum. Pure; it is the caller's job to warn when the
// request was clamped.
func NegotiateWriteUnit(requested, sinkMax int) (int, error) {
	if requested <= 0 {
		return 0, fmt.Errorf("%w: write unit must be positive, got %d", ErrInvalidConfig, requested)
	}
	if sinkMax <= 0 {
		return 0, fmt.Errorf("%w: sink max write unit must be positive, got %d", ErrInvalidConfig, sinkMax)
	}
	if requested > sinkMax {
		return sinkMax, nil
	}
	return requested, nil
}
