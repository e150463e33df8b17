package adjuster

import "time"

// FixedSource returns hard-coded tunables: a zero renewal interval
// and a 1.5 scale factor. It exists so that renewal timing and
// scaling math can be exercised deterministically, without
// environment setup. Never wire it into a deployed process.
type FixedSource struct{}

// NewFixedSource returns the deterministic parameter source.
func NewFixedSource() FixedSource {
	return FixedSource{}
}

// RenewalInterval always returns zero, so dependent logic renews
// immediately instead of waiting out a timer.
func (FixedSource) RenewalInterval() (time.Duration, error) {
	return 0, nil
}

// ScaleFactor always returns 1.5.
func (FixedSource) ScaleFactor() (float64, error) {
	return 1.5, nil
}

// Verify interface compliance at compile time.
var _ ParamSource = FixedSource{}
