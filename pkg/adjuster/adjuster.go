package adjuster

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/branched-services/go-gas-adjuster/pkg/eth"
	"github.com/holiman/uint256"
)

// Adjuster maintains the gas price cap by:
// 1. Sampling the network gas price on a fixed interval
// 2. Renewing the cap (average * scale factor) on the renewal interval
// 3. Publishing each new cap through the provider
//
// The renewal interval and scale factor are read from the ParamSource
// on every renewal, never once at startup, so both can be retuned for
// a running process.
type Adjuster struct {
	// Dependencies (injected)
	prices   eth.PriceReader
	blocks   eth.BlockReader
	params   ParamSource
	provider *CapProvider
	logger   *slog.Logger

	// Configuration
	sampleInterval time.Duration
	statsWindow    int

	// Internal state
	stats     *PriceStats
	lastBlock atomic.Uint64
	chainID   uint64

	// Lifecycle
	mu      sync.Mutex
	running bool
}

// Option configures an Adjuster.
type Option func(*Adjuster)

// WithSampleInterval sets how often the network gas price is sampled.
func WithSampleInterval(d time.Duration) Option {
	return func(a *Adjuster) {
		a.sampleInterval = d
	}
}

// WithStatsWindow sets the number of price samples kept for averaging.
func WithStatsWindow(n int) Option {
	return func(a *Adjuster) {
		a.statsWindow = n
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Adjuster) {
		a.logger = l
	}
}

// New creates a new Adjuster with the given dependencies and options.
func New(
	prices eth.PriceReader,
	blocks eth.BlockReader,
	params ParamSource,
	provider *CapProvider,
	opts ...Option,
) *Adjuster {
	a := &Adjuster{
		prices:         prices,
		blocks:         blocks,
		params:         params,
		provider:       provider,
		logger:         slog.Default(),
		sampleInterval: 15 * time.Second,
		statsWindow:    100,
	}

	for _, opt := range opts {
		opt(a)
	}

	a.stats = NewPriceStats(a.statsWindow)
	a.logger = a.logger.With("component", "adjuster")

	return a
}

// Run starts the adjuster. Blocks until the context is canceled.
// A misconfigured parameter source aborts the run: the process must
// not keep submitting with an undefined gas price cap.
func (a *Adjuster) Run(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return fmt.Errorf("adjuster already running")
	}
	a.running = true
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.running = false
		a.mu.Unlock()
	}()

	chainID, err := a.blocks.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("getting chain ID: %w", err)
	}
	a.chainID = chainID
	a.logger.Info("connected to chain", "chain_id", chainID)

	if err := a.bootstrap(ctx); err != nil {
		return fmt.Errorf("bootstrapping: %w", err)
	}

	// The interval is re-read after every renewal. A zero interval
	// renews back to back; the fixed test source relies on that.
	interval, err := a.params.RenewalInterval()
	if err != nil {
		return fmt.Errorf("reading renewal interval: %w", err)
	}

	sampleTicker := time.NewTicker(a.sampleInterval)
	defer sampleTicker.Stop()

	renewTimer := time.NewTimer(interval)
	defer renewTimer.Stop()

	a.logger.Info("adjuster running",
		"sample_interval", a.sampleInterval,
		"stats_window", a.statsWindow,
		"renewal_interval", interval,
	)

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("adjuster stopping")
			return nil

		case <-sampleTicker.C:
			a.sample(ctx)

		case <-renewTimer.C:
			if err := a.renew(ctx); err != nil {
				return fmt.Errorf("renewing gas price cap: %w", err)
			}

			interval, err = a.params.RenewalInterval()
			if err != nil {
				return fmt.Errorf("reading renewal interval: %w", err)
			}
			renewTimer.Reset(interval)
		}
	}
}

// bootstrap warms up the statistics and computes the first cap.
func (a *Adjuster) bootstrap(ctx context.Context) error {
	if hist, err := a.prices.FeeHistory(ctx, a.statsWindow); err != nil {
		a.logger.Warn("failed to load fee history", "error", err)
	} else {
		for _, baseFee := range hist.BaseFees {
			a.stats.Add(baseFee)
		}
		a.logger.Info("fee history loaded",
			"oldest_block", hist.OldestBlock,
			"samples", a.stats.Len(),
		)
	}

	a.sample(ctx)

	// First renewal also validates both tunables before serving.
	return a.renew(ctx)
}

// sample records the node's suggested gas price and the latest base fee.
// RPC failures keep the previous samples; the cap simply ages.
func (a *Adjuster) sample(ctx context.Context) {
	price, err := a.prices.GasPrice(ctx)
	if err != nil {
		a.logger.Warn("failed to sample gas price", "error", err)
	} else {
		a.stats.Add(price)
	}

	block, err := a.blocks.LatestBlock(ctx)
	if err != nil {
		a.logger.Warn("failed to fetch latest block", "error", err)
		return
	}

	a.lastBlock.Store(block.Number)
	if block.BaseFee != nil {
		a.stats.Add(block.BaseFee)
	}
}

// renew reads the scale factor and publishes a new cap.
// Parameter errors are fatal; an empty sample window is not.
func (a *Adjuster) renew(ctx context.Context) error {
	scale, err := a.params.ScaleFactor()
	if err != nil {
		return fmt.Errorf("reading scale factor: %w", err)
	}
	if scale <= 0 {
		return fmt.Errorf("scale factor must be positive, got %g", scale)
	}

	avg := a.stats.Average()
	if avg == nil {
		a.logger.Warn("no price samples yet, keeping previous cap")
		return nil
	}

	cap := &PriceCap{
		Value:       scalePrice(avg, scale),
		AvgPrice:    avg,
		ScaleFactor: scale,
		BlockNumber: a.lastBlock.Load(),
		RenewedAt:   time.Now(),
	}
	a.provider.Update(cap)

	a.logger.Debug("gas price cap renewed",
		"cap_wei", cap.Value.String(),
		"avg_wei", avg.String(),
		"scale", scale,
		"block", cap.BlockNumber,
	)

	return nil
}

// scalePrice multiplies a price by a float factor using integer math,
// parts per thousand, to stay exact on large wei values.
func scalePrice(price *uint256.Int, scale float64) *uint256.Int {
	parts := uint64(scale * 1000)
	scaled := new(uint256.Int).Mul(price, uint256.NewInt(parts))
	return scaled.Div(scaled, uint256.NewInt(1000))
}
