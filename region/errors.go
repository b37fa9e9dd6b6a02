package region

import "errors"

var (
	// ErrOutOfMemory indicates the backing store (or its budget) cannot grow
	// to the requested capacity.
	ErrOutOfMemory = errors.New("region: out of memory")

	// ErrArenaExhausted indicates no untouched space of the requested size
	// remains above the high-water mark.
	ErrArenaExhausted = errors.New("region: arena exhausted")

	// ErrBadSize indicates a carve size that is not positive or not aligned.
	ErrBadSize = errors.New("region: size must be positive and aligned")

	// ErrOutOfRange indicates a byte range outside the carved part of the arena.
	ErrOutOfRange = errors.New("region: range outside carved space")

	// ErrClosed indicates the arena was used after Close.
	ErrClosed = errors.New("region: arena closed")
)
