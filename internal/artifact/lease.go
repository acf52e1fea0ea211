// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package artifact

import (
	"path/filepath"
	"sync"

	"github.com/pdiddy/convertly/internal/metrics"
)

// leaseTable is a reference count per cleaned path.
type leaseTable struct {
	mu      sync.Mutex
	counts  map[string]int
	metrics *metrics.Metrics
}

func newLeaseTable(m *metrics.Metrics) *leaseTable {
	return &leaseTable{counts: make(map[string]int), metrics: m}
}

func (t *leaseTable) acquire(path string) func() {
	key := leaseKey(path)

	t.mu.Lock()
	t.counts[key]++
	t.metrics.SetLeases(len(t.counts))
	t.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			if t.counts[key] <= 1 {
				delete(t.counts, key)
			} else {
				t.counts[key]--
			}
			t.metrics.SetLeases(len(t.counts))
		})
	}
}

func (t *leaseTable) held(path string) bool {
	key := leaseKey(path)
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[key] > 0
}

func leaseKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
