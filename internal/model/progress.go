package model

import "fmt"

// IndeterminateFraction is what producers report when the total size is
// unknown. Any negative fraction is treated the same way.
const IndeterminateFraction = -1.0

// ProgressEvent is one progress update of a single phase, or of the
// composite stream once the aggregator has weighted it.
type ProgressEvent struct {
	// Fraction is between 0 and 1. Producers may report a negative value
	// when they cannot compute one.
	Fraction float64

	// Message is a short human readable status line.
	Message string
}

// IsIndeterminate reports whether the producer could not compute a fraction.
func (p ProgressEvent) IsIndeterminate() bool {
	return p.Fraction < 0
}

// Percent returns the fraction as a whole percentage clamped to 0..100.
func (p ProgressEvent) Percent() int {
	return int(Clamp01(p.Fraction)*100 + 0.5)
}

// String implements fmt.Stringer.
func (p ProgressEvent) String() string {
	return fmt.Sprintf("%d%% %s", p.Percent(), p.Message)
}

// Clamp01 bounds v to the closed interval [0, 1].
func Clamp01(v float64) float64 {
	switch {
	case v < 0 || v != v:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
