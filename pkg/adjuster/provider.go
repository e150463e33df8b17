package adjuster

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/holiman/uint256"
)

// ErrNotReady indicates the adjuster has not computed its first cap.
var ErrNotReady = errors.New("gas price cap not ready")

// PriceCap is a point-in-time upper bound on the gas price.
// Immutable after publication; safe to share across goroutines.
type PriceCap struct {
	// Value is the cap itself: AvgPrice scaled by ScaleFactor.
	Value *uint256.Int

	// AvgPrice is the average observed gas price the cap was derived from.
	AvgPrice *uint256.Int

	// ScaleFactor is the multiplier in effect at renewal time.
	ScaleFactor float64

	// BlockNumber is the latest block observed before renewal.
	BlockNumber uint64

	// RenewedAt is when the cap was computed.
	RenewedAt time.Time
}

// CapReader provides read-only access to the current price cap.
// Implemented by CapProvider; consumers should depend on this interface.
type CapReader interface {
	Current(ctx context.Context) (*PriceCap, error)
}

// ReadinessChecker provides health check functionality.
// Implemented by CapProvider; used by health probes.
type ReadinessChecker interface {
	Ready() bool
}

// CapProvider serves the most recently computed price cap.
//
// Writes happen once per renewal interval; reads happen on every
// submission and API request. atomic.Pointer gives lock-free reads
// with zero allocations on the hot path.
//
// Thread safety: all methods are safe for concurrent use.
type CapProvider struct {
	current  atomic.Pointer[PriceCap]
	renewals atomic.Uint64
}

// NewCapProvider creates an empty CapProvider.
func NewCapProvider() *CapProvider {
	return &CapProvider{}
}

// Update atomically replaces the current cap.
// The provided cap must be treated as immutable after this call.
func (p *CapProvider) Update(cap *PriceCap) {
	p.current.Store(cap)
	p.renewals.Add(1)
}

// Current returns the latest price cap.
// Returns ErrNotReady if no cap has been computed yet.
func (p *CapProvider) Current(ctx context.Context) (*PriceCap, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cap := p.current.Load()
	if cap == nil {
		return nil, ErrNotReady
	}
	return cap, nil
}

// CappedGasPrice bounds a suggested gas price by the current cap.
// Returns the suggested price unchanged when it is at or below the
// cap, the cap value otherwise.
func (p *CapProvider) CappedGasPrice(ctx context.Context, suggested *uint256.Int) (*uint256.Int, error) {
	cap, err := p.Current(ctx)
	if err != nil {
		return nil, err
	}

	if suggested.Gt(cap.Value) {
		return new(uint256.Int).Set(cap.Value), nil
	}
	return new(uint256.Int).Set(suggested), nil
}

// Ready returns true once the first cap has been computed.
// Used for health/readiness checks.
func (p *CapProvider) Ready() bool {
	return p.current.Load() != nil
}

// RenewalCount returns the total number of cap renewals.
// Useful for metrics and debugging.
func (p *CapProvider) RenewalCount() uint64 {
	return p.renewals.Load()
}

// Verify interface compliance at compile time.
var (
	_ CapReader        = (*CapProvider)(nil)
	_ ReadinessChecker = (*CapProvider)(nil)
)
