package usage

import (
	"context"
	"sync"
)

// MemoryStore implements ConditionalStore in process memory.
// Useful for tests, the CLI and single-instance deployments.
type MemoryStore struct {
	mu     sync.Mutex
	counts map[Key]int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{counts: make(map[Key]int64)}
}

// Get returns the stored counter.
func (ms *MemoryStore) Get(ctx context.Context, key Key) (int64, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	count, ok := ms.counts[key]
	return count, ok, nil
}

// Increment adds one to the counter.
func (ms *MemoryStore) Increment(ctx context.Context, key Key) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.counts[key]++
	return ms.counts[key], nil
}

// IncrementIfBelow adds one to the counter while it is below max.
func (ms *MemoryStore) IncrementIfBelow(ctx context.Context, key Key, max int64) (int64, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	current := ms.counts[key]
	if current >= max {
		return current, false, nil
	}

	ms.counts[key] = current + 1
	return current + 1, true, nil
}

// Len returns the number of stored records across all periods.
func (ms *MemoryStore) Len() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return len(ms.counts)
}
