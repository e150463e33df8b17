// Package adjuster maintains an upper bound on the gas price the
// transaction submitter is willing to pay. The bound is periodically
// recomputed as the average observed gas price multiplied by a
// configurable scale factor.
package adjuster

import "time"

// ParamSource supplies the two dynamic tunables of the adjuster:
// the interval between renewals of the gas price cap, and the
// multiplier applied to the average observed price to derive it.
//
// Implementations must not cache either value. Both may be changed
// for an already running process by an administrator, for example
// when the configured settings turn out not to be flexible enough
// for the current network price. Every read must reflect the backing
// source at call time.
//
// Reads are independent, stateless and safe for concurrent use.
// A read fails only on misconfiguration of the backing source; that
// failure is fatal for the caller, since operating with an undefined
// gas price cap is unsafe.
type ParamSource interface {
	// RenewalInterval returns how long to wait between renewals
	// of the gas price cap.
	RenewalInterval() (time.Duration, error)

	// ScaleFactor returns the multiplier applied to the average
	// observed gas price when computing the cap. No bound is
	// enforced here; the adjuster rejects non-positive values.
	ScaleFactor() (float64, error)
}
