// Package alloc provides the allocator facade: the only API callers use to
// obtain and release regions of an arena.
//
// # Overview
//
// An Allocator owns one region.Arena and one freelist.Index. Requests are
// rounded up to a size class, served from the free-list index when a fitting
// Free block exists (splitting off any remainder), and carved from untouched
// arena space otherwise. Releases coalesce with Free address neighbours
// immediately.
//
// # Handles
//
// Allocate returns a Handle, an opaque value naming the arena, its reset
// generation, the allocation sequence and the block offset. Deallocate, Bytes
// and Size validate every field, so the following are all rejected with
// ErrInvalidHandle rather than corrupting state:
//
//   - double free
//   - a handle from another allocator
//   - a handle minted before Reset
//   - a handle whose offset has since been reallocated
//
// # Usage Example
//
//	a, err := alloc.New(alloc.WithCapacity(1 << 20))
//	if err != nil {
//	    return err
//	}
//	defer a.Close()
//
//	h, err := a.Allocate(200) // served from the 208-byte class
//	if err != nil {
//	    return err
//	}
//	buf, _ := a.Bytes(h)
//	copy(buf, payload)
//
//	if err := a.Deallocate(h); err != nil {
//	    return err
//	}
//
// # Growth
//
// By default the arena has a fixed capacity and Allocate fails with
// ErrOutOfMemory once the untouched tail cannot hold a request that no Free
// block can serve. WithMaxCapacity lets the arena grow up to a cap instead.
//
// # Thread Safety
//
// Allocator instances are not thread-safe. Callers that share one across
// goroutines must hold a single lock around every call.
package alloc
