package alloc

import (
	"errors"

	"github.com/joshuapare/arenakit/region"
)

var (
	// ErrOutOfMemory indicates the arena cannot provide the requested block.
	// It is the same value as region.ErrOutOfMemory.
	ErrOutOfMemory = region.ErrOutOfMemory

	// ErrInvalidHandle indicates a double free or a handle that does not name
	// a live block of this allocator.
	ErrInvalidHandle = errors.New("alloc: double free or invalid handle")

	// ErrInvalidSize indicates a request for zero or negative bytes.
	ErrInvalidSize = errors.New("alloc: size must be positive")

	// ErrClosed indicates the allocator was used after Close.
	ErrClosed = errors.New("alloc: allocator closed")
)
