package adjuster

import (
	"context"
	"time"

	"github.com/branched-services/go-gas-adjuster/pkg/eth"
	"github.com/holiman/uint256"
)

type mockPriceReader struct {
	gasPriceFunc   func(ctx context.Context) (*uint256.Int, error)
	feeHistoryFunc func(ctx context.Context, blocks int) (*eth.FeeHistory, error)
}

func (m *mockPriceReader) GasPrice(ctx context.Context) (*uint256.Int, error) {
	if m.gasPriceFunc != nil {
		return m.gasPriceFunc(ctx)
	}
	return nil, nil
}

func (m *mockPriceReader) FeeHistory(ctx context.Context, blocks int) (*eth.FeeHistory, error) {
	if m.feeHistoryFunc != nil {
		return m.feeHistoryFunc(ctx, blocks)
	}
	return &eth.FeeHistory{}, nil
}

type mockBlockReader struct {
	blockByNumberFunc func(ctx context.Context, number *uint256.Int) (*eth.Block, error)
	latestBlockFunc   func(ctx context.Context) (*eth.Block, error)
	chainIDFunc       func(ctx context.Context) (uint64, error)
}

func (m *mockBlockReader) BlockByNumber(ctx context.Context, number *uint256.Int) (*eth.Block, error) {
	if m.blockByNumberFunc != nil {
		return m.blockByNumberFunc(ctx, number)
	}
	return nil, nil
}

func (m *mockBlockReader) LatestBlock(ctx context.Context) (*eth.Block, error) {
	if m.latestBlockFunc != nil {
		return m.latestBlockFunc(ctx)
	}
	return nil, nil
}

func (m *mockBlockReader) ChainID(ctx context.Context) (uint64, error) {
	if m.chainIDFunc != nil {
		return m.chainIDFunc(ctx)
	}
	return 0, nil
}

type stubParams struct {
	intervalFunc func() (time.Duration, error)
	scaleFunc    func() (float64, error)
}

func (s *stubParams) RenewalInterval() (time.Duration, error) {
	if s.intervalFunc != nil {
		return s.intervalFunc()
	}
	return 0, nil
}

func (s *stubParams) ScaleFactor() (float64, error) {
	if s.scaleFunc != nil {
		return s.scaleFunc()
	}
	return 1.5, nil
}
