package adjuster

import (
	"sync"

	"github.com/holiman/uint256"
)

// PriceStats stores recently observed gas prices in a fixed-size
// ring buffer and computes their average.
// Safe for concurrent access from multiple goroutines.
//
// Writes happen once per sampling interval, so RWMutex gives optimal
// read performance without lock-free complexity.
type PriceStats struct {
	mu      sync.RWMutex
	samples []*uint256.Int
	size    int
	head    int // next write position
	count   int // number of stored samples
}

// NewPriceStats creates a PriceStats with the given capacity.
func NewPriceStats(size int) *PriceStats {
	if size < 1 {
		size = 100
	}
	return &PriceStats{
		samples: make([]*uint256.Int, size),
		size:    size,
	}
}

// Add records an observed gas price. If the buffer is full, the
// oldest sample is overwritten. Nil samples are ignored.
func (s *PriceStats) Add(price *uint256.Int) {
	if price == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.samples[s.head] = new(uint256.Int).Set(price)
	s.head = (s.head + 1) % s.size
	if s.count < s.size {
		s.count++
	}
}

// Average returns the mean of the stored samples, or nil if no
// sample has been recorded yet.
func (s *PriceStats) Average() *uint256.Int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.count == 0 {
		return nil
	}

	sum := new(uint256.Int)
	for i := 0; i < s.count; i++ {
		idx := (s.head - 1 - i + s.size) % s.size
		sum.Add(sum, s.samples[idx])
	}
	return sum.Div(sum, uint256.NewInt(uint64(s.count)))
}

// Latest returns the most recently recorded sample, or nil if empty.
func (s *PriceStats) Latest() *uint256.Int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.count == 0 {
		return nil
	}

	idx := (s.head - 1 + s.size) % s.size
	return new(uint256.Int).Set(s.samples[idx])
}

// Snapshot returns a copy of all stored samples, newest first.
// The returned slice is owned by the caller and safe to modify.
func (s *PriceStats) Snapshot() []*uint256.Int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*uint256.Int, s.count)
	for i := 0; i < s.count; i++ {
		idx := (s.head - 1 - i + s.size) % s.size
		result[i] = new(uint256.Int).Set(s.samples[idx])
	}
	return result
}

// Len returns the number of samples currently stored.
func (s *PriceStats) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}

// Cap returns the maximum capacity of the buffer.
func (s *PriceStats) Cap() int {
	return s.size
}

// Clear removes all samples.
func (s *PriceStats) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.samples {
		s.samples[i] = nil
	}
	s.head = 0
	s.count = 0
}
