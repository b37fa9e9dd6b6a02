// Package backing provides the raw byte storage an arena carves blocks from.
//
// Two kinds exist: Heap stores live in a Go byte slice, Mmap stores live in an
// anonymous private mapping outside the Go heap. Both grow by copying into a
// larger region, so slices returned by Bytes are invalidated by Grow.
package backing

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed indicates the store was used after Close.
	ErrClosed = errors.New("backing: store closed")

	// ErrNegativeSize indicates a negative length was requested.
	ErrNegativeSize = errors.New("backing: negative size")
)

// Kind selects the storage implementation.
type Kind uint8

const (
	// Heap keeps the bytes in a Go slice.
	Heap Kind = iota
	// Mmap keeps the bytes in an anonymous mapping (falls back to Heap where
	// mmap is unavailable).
	Mmap
)

func (k Kind) String() string {
	switch k {
	case Heap:
		return "heap"
	case Mmap:
		return "mmap"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// ParseKind maps "heap" or "mmap" to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "heap", "":
		return Heap, nil
	case "mmap":
		return Mmap, nil
	default:
		return Heap, fmt.Errorf("backing: unknown kind %q", s)
	}
}

// Store is a growable, contiguous byte region.
type Store interface {
	// Bytes returns the whole region. The slice is valid until Grow or Close.
	Bytes() []byte

	// Len returns the current length in bytes.
	Len() int64

	// Grow extends the region to at least n bytes, preserving its contents.
	// Requests smaller than Len are no-ops.
	Grow(n int64) error

	// Close releases the region. Calling Close twice is a no-op.
	Close() error

	// Kind reports the implementation in use.
	Kind() Kind
}

// New creates a store of the given kind with an initial length of size bytes.
func New(kind Kind, size int64) (Store, error) {
	if size < 0 {
		return nil, ErrNegativeSize
	}
	switch kind {
	case Heap:
		return newHeap(size), nil
	case Mmap:
		return newMapped(size)
	default:
		return nil, fmt.Errorf("backing: unknown kind %d", kind)
	}
}
