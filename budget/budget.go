// Package budget caps how many backing-store bytes a group of arenas may hold.
//
// A Budget is consulted whenever an arena reserves or grows its backing store.
// Requests never block: a request that would exceed the limit is refused and
// the arena reports out-of-memory to its caller.
package budget

import (
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// ErrExceeded indicates a reservation would exceed the budget limit.
var ErrExceeded = errors.New("budget: limit exceeded")

// Budget tracks reserved bytes against an optional hard limit.
// A nil *Budget is valid and unlimited.
type Budget struct {
	limit int64
	sem   *semaphore.Weighted // nil if unlimited
	used  atomic.Int64
}

// New creates a budget. A limit <= 0 means unlimited (tracking only).
func New(limit int64) *Budget {
	b := &Budget{limit: limit}
	if limit > 0 {
		b.sem = semaphore.NewWeighted(limit)
	}
	return b
}

// Reserve takes n bytes from the budget without blocking.
func (b *Budget) Reserve(n int64) error {
	if b == nil || n <= 0 {
		return nil
	}
	if b.sem != nil && !b.sem.TryAcquire(n) {
		return fmt.Errorf("%w: want %d bytes, %d of %d in use", ErrExceeded, n, b.used.Load(), b.limit)
	}
	b.used.Add(n)
	return nil
}

// Release returns n bytes to the budget.
func (b *Budget) Release(n int64) {
	if b == nil || n <= 0 {
		return
	}
	if b.sem != nil {
		b.sem.Release(n)
	}
	b.used.Add(-n)
}

// Used returns the number of bytes currently reserved.
func (b *Budget) Used() int64 {
	if b == nil {
		return 0
	}
	return b.used.Load()
}

// Limit returns the configured limit, or 0 when unlimited.
func (b *Budget) Limit() int64 {
	if b == nil {
		return 0
	}
	return b.limit
}
