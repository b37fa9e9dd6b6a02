// Package slab provides Repository, a slot store whose removals leave holes
// that later insertions refill, lowest slot first.
//
// Values never move once inserted: the index returned by Insert stays valid
// until that value is removed. Occupancy is kept in a bitset next to the
// value slice, so Insert is a word scan and Remove is a bit flip.
package slab

import (
	"iter"

	"github.com/bits-and-blooms/bitset"
)

// Repository holds values of type T in stable slots.
// The zero value is an empty, usable repository.
//
// NOT thread-safe.
type Repository[T any] struct {
	values []T // len(values) == capacity
	used   *bitset.BitSet
	n      int
}

// New constructs an empty repository.
func New[T any]() *Repository[T] {
	return &Repository[T]{}
}

// WithCapacity constructs an empty repository that can hold at least
// capacity values without growing.
func WithCapacity[T any](capacity int) *Repository[T] {
	r := New[T]()
	r.Reserve(capacity)
	return r
}

// GrowthFor returns the capacity the repository grows to from start so that
// at least want values fit. Each step grows by half plus a constant.
func GrowthFor[N ~int | ~int64](start, want N) N {
	for start < want {
		start = 8 + start + (start+1)/2
	}
	return start
}

// Capacity returns the number of values the repository can hold without
// reallocating.
func (r *Repository[T]) Capacity() int { return len(r.values) }

// Len returns the number of values present.
func (r *Repository[T]) Len() int { return r.n }

// IsEmpty reports whether the repository holds no values.
func (r *Repository[T]) IsEmpty() bool { return r.n == 0 }

// Reserve makes room for at least additional more values, growing by the
// default policy.
func (r *Repository[T]) Reserve(additional int) {
	if r.Capacity() < r.n+additional {
		r.resize(GrowthFor(r.Capacity(), r.n+additional))
	}
}

// ReserveExact makes room for at least additional more values without
// over-allocating.
func (r *Repository[T]) ReserveExact(additional int) {
	if r.Capacity() < r.n+additional {
		r.resize(r.n + additional)
	}
}

func (r *Repository[T]) resize(capacity int) {
	values := make([]T, capacity)
	copy(values, r.values)
	used := bitset.New(uint(capacity))
	if r.used != nil {
		used.InPlaceUnion(r.used)
	}
	r.values = values
	r.used = used
}

// Insert stores v in the lowest free slot and returns its index.
func (r *Repository[T]) Insert(v T) int {
	r.Reserve(1)
	idx, ok := r.used.NextClear(0)
	if !ok || int(idx) >= len(r.values) {
		panic("slab: occupancy bitset out of sync with capacity")
	}
	r.used.Set(idx)
	r.values[idx] = v
	r.n++
	return int(idx)
}

// Remove takes the value out of slot i. It returns false if the slot is empty
// or out of range.
func (r *Repository[T]) Remove(i int) (T, bool) {
	var zero T
	if !r.Contains(i) {
		return zero, false
	}
	v := r.values[i]
	r.values[i] = zero
	r.used.Clear(uint(i))
	r.n--
	return v, true
}

// Contains reports whether slot i holds a value.
func (r *Repository[T]) Contains(i int) bool {
	return i >= 0 && i < len(r.values) && r.used.Test(uint(i))
}

// Get returns the value in slot i.
func (r *Repository[T]) Get(i int) (T, bool) {
	if !r.Contains(i) {
		var zero T
		return zero, false
	}
	return r.values[i], true
}

// Ptr returns a pointer to the value in slot i, or nil if the slot is empty.
// The pointer is invalidated by the next growth.
func (r *Repository[T]) Ptr(i int) *T {
	if !r.Contains(i) {
		return nil
	}
	return &r.values[i]
}

// Clear removes all values and keeps the capacity.
func (r *Repository[T]) Clear() {
	if r.Capacity() == 0 {
		return
	}
	clear(r.values)
	r.used.ClearAll()
	r.n = 0
}

// Indices iterates the occupied slots in ascending order.
func (r *Repository[T]) Indices() iter.Seq[int] {
	return func(yield func(int) bool) {
		if r.used == nil {
			return
		}
		for i, ok := r.used.NextSet(0); ok && int(i) < len(r.values); i, ok = r.used.NextSet(i + 1) {
			if !yield(int(i)) {
				return
			}
		}
	}
}

// All iterates (index, value) pairs in ascending slot order.
func (r *Repository[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := range r.Indices() {
			if !yield(i, r.values[i]) {
				return
			}
		}
	}
}
