package adjuster

import (
	"context"
	"testing"

	"github.com/holiman/uint256"
)

// BenchmarkPriceStats_Add measures the cost of recording a sample.
// This happens once per sampling interval.
func BenchmarkPriceStats_Add(b *testing.B) {
	stats := NewPriceStats(1000)
	price := uint256.NewInt(1_000_000_000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		stats.Add(price)
	}
}

// BenchmarkPriceStats_Average measures the cost of a renewal's averaging pass.
func BenchmarkPriceStats_Average(b *testing.B) {
	stats := NewPriceStats(1000)
	for i := 0; i < 1000; i++ {
		stats.Add(uint256.NewInt(uint64(i) + 1_000_000_000))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = stats.Average()
	}
}

// BenchmarkCapProvider_Current measures the hot-path read.
// Every submission and API request goes through this.
func BenchmarkCapProvider_Current(b *testing.B) {
	p := NewCapProvider()
	p.Update(&PriceCap{Value: uint256.NewInt(1_500_000_000)})
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = p.Current(ctx)
	}
}
