package numerator

import (
	"context"
	"sync"
	"time"
)

// MemoryGenerator keeps sequences in process memory.
// Used by the in-memory storage backend and in unit tests.
type MemoryGenerator struct {
	mu   sync.Mutex
	seqs map[string]int64
}

// NewMemoryGenerator creates an empty generator.
func NewMemoryGenerator() *MemoryGenerator {
	return &MemoryGenerator{seqs: make(map[string]int64)}
}

// GetNextNumber implements Generator.
func (m *MemoryGenerator) GetNextNumber(_ context.Context, cfg Config, _ *Options, period time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := cfg.Key(period)
	m.seqs[key]++
	return cfg.Format(period, m.seqs[key]), nil
}

var _ Generator = (*MemoryGenerator)(nil)
