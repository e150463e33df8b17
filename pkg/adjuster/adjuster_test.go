package adjuster

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/branched-services/go-gas-adjuster/pkg/eth"
	"github.com/holiman/uint256"
)

func testMocks(gasPrice uint64) (*mockPriceReader, *mockBlockReader) {
	prices := &mockPriceReader{
		gasPriceFunc: func(ctx context.Context) (*uint256.Int, error) {
			return uint256.NewInt(gasPrice), nil
		},
		feeHistoryFunc: func(ctx context.Context, blocks int) (*eth.FeeHistory, error) {
			return &eth.FeeHistory{}, nil
		},
	}
	blocks := &mockBlockReader{
		chainIDFunc: func(ctx context.Context) (uint64, error) {
			return 1, nil
		},
		latestBlockFunc: func(ctx context.Context) (*eth.Block, error) {
			return &eth.Block{
				Number:  100,
				BaseFee: uint256.NewInt(gasPrice),
			}, nil
		},
	}
	return prices, blocks
}

func TestAdjuster_Run(t *testing.T) {
	prices, blocks := testMocks(1_000_000_000)

	params := &stubParams{
		intervalFunc: func() (time.Duration, error) { return 50 * time.Millisecond, nil },
		scaleFunc:    func() (float64, error) { return 2.0, nil },
	}

	provider := NewCapProvider()
	a := New(prices, blocks, params, provider,
		WithSampleInterval(10*time.Millisecond),
		WithStatsWindow(5),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	if err := a.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	cap, err := provider.Current(context.Background())
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}

	// All samples are 1 gwei, so cap = 1 gwei * 2.0
	if cap.Value.Uint64() != 2_000_000_000 {
		t.Errorf("cap = %d, want 2000000000", cap.Value.Uint64())
	}
	if cap.AvgPrice.Uint64() != 1_000_000_000 {
		t.Errorf("avg = %d, want 1000000000", cap.AvgPrice.Uint64())
	}
	if cap.ScaleFactor != 2.0 {
		t.Errorf("scale = %v, want 2.0", cap.ScaleFactor)
	}
	if cap.BlockNumber != 100 {
		t.Errorf("block = %d, want 100", cap.BlockNumber)
	}
}

// A scale factor change between renewals must be reflected without a
// restart: the adjuster re-reads the source on every cycle.
func TestAdjuster_Run_FreshParams(t *testing.T) {
	prices, blocks := testMocks(1_000_000_000)

	var scaleCalls atomic.Uint64
	params := &stubParams{
		intervalFunc: func() (time.Duration, error) { return 10 * time.Millisecond, nil },
		scaleFunc: func() (float64, error) {
			if scaleCalls.Add(1) == 1 {
				return 2.0, nil
			}
			return 3.0, nil
		},
	}

	provider := NewCapProvider()
	a := New(prices, blocks, params, provider,
		WithSampleInterval(10*time.Millisecond),
		WithStatsWindow(5),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	if err := a.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if provider.RenewalCount() < 2 {
		t.Fatalf("RenewalCount() = %d, want at least 2", provider.RenewalCount())
	}

	cap, err := provider.Current(context.Background())
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	if cap.ScaleFactor != 3.0 {
		t.Errorf("scale = %v after change, want 3.0", cap.ScaleFactor)
	}
	if cap.Value.Uint64() != 3_000_000_000 {
		t.Errorf("cap = %d, want 3000000000", cap.Value.Uint64())
	}
}

func TestAdjuster_Run_Misconfigured(t *testing.T) {
	prices, blocks := testMocks(1_000_000_000)

	params := &stubParams{
		scaleFunc: func() (float64, error) {
			return 0, &MisconfigError{Name: EnvScaleFactor, Err: errNotSet}
		},
	}

	provider := NewCapProvider()
	a := New(prices, blocks, params, provider)

	err := a.Run(context.Background())
	if err == nil {
		t.Fatal("Run() error = nil, want misconfiguration")
	}

	var misconfig *MisconfigError
	if !errors.As(err, &misconfig) {
		t.Errorf("Run() error = %v, want *MisconfigError", err)
	}
	if provider.Ready() {
		t.Error("Ready() = true after misconfigured run, want false")
	}
}

func TestAdjuster_Run_NonPositiveScale(t *testing.T) {
	prices, blocks := testMocks(1_000_000_000)

	params := &stubParams{
		scaleFunc: func() (float64, error) { return -1.0, nil },
	}

	provider := NewCapProvider()
	a := New(prices, blocks, params, provider)

	err := a.Run(context.Background())
	if err == nil {
		t.Fatal("Run() error = nil, want scale rejection")
	}
	if !strings.Contains(err.Error(), "must be positive") {
		t.Errorf("Run() error = %v, want positive-scale message", err)
	}
}

func TestAdjuster_Run_AlreadyRunning(t *testing.T) {
	prices, blocks := testMocks(1_000_000_000)

	params := &stubParams{
		intervalFunc: func() (time.Duration, error) { return time.Second, nil },
		scaleFunc:    func() (float64, error) { return 1.5, nil },
	}

	a := New(prices, blocks, params, NewCapProvider())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan struct{})
	go func() {
		close(started)
		a.Run(ctx)
	}()
	<-started
	time.Sleep(20 * time.Millisecond)

	if err := a.Run(ctx); err == nil {
		t.Error("second Run() error = nil, want already running")
	}
}

func TestScalePrice(t *testing.T) {
	u256 := func(v uint64) *uint256.Int { return uint256.NewInt(v) }

	tests := []struct {
		name  string
		price *uint256.Int
		scale float64
		want  *uint256.Int
	}{
		{name: "identity", price: u256(1000), scale: 1.0, want: u256(1000)},
		{name: "one and a half", price: u256(1_000_000_000), scale: 1.5, want: u256(1_500_000_000)},
		{name: "double", price: u256(7), scale: 2.0, want: u256(14)},
		{name: "fractional result truncates", price: u256(10), scale: 1.25, want: u256(12)},
		{name: "sub-thousandth rounds down", price: u256(1000), scale: 1.0004, want: u256(1000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scalePrice(tt.price, tt.scale)
			if !got.Eq(tt.want) {
				t.Errorf("scalePrice(%s, %g) = %s, want %s",
					tt.price, tt.scale, got, tt.want)
			}
		})
	}
}
