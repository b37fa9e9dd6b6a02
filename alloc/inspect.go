package alloc

import "github.com/joshuapare/arenakit/block"

// The methods below are read-only views used by the verify package.

// ID returns the arena identity carried by this allocator's handles.
func (a *Allocator) ID() uint32 { return a.arena.ID() }

// Generation returns the arena reset generation.
func (a *Allocator) Generation() uint32 { return a.arena.Generation() }

// Capacity returns the reserved arena size in bytes.
func (a *Allocator) Capacity() int64 { return a.arena.Capacity() }

// HighWater returns the carved prefix of the arena in bytes.
func (a *Allocator) HighWater() int64 { return a.arena.HighWater() }

// Alignment returns the alignment of every block offset and size.
func (a *Allocator) Alignment() int64 { return a.classes.Alignment() }

// Blocks calls fn for every descriptor in ascending offset order until fn
// returns false.
func (a *Allocator) Blocks(fn func(e block.Entry) bool) {
	for _, e := range a.arena.Blocks().ByOffset() {
		if !fn(e) {
			return
		}
	}
}

// FreeContains reports whether id is filed in the free-list index under the
// class its size maps to.
func (a *Allocator) FreeContains(id block.ID) bool { return a.free.Contains(id) }

// FreeBlocks calls fn for every block filed in the free-list index until fn
// returns false.
func (a *Allocator) FreeBlocks(fn func(class int, id block.ID, off, size int64) bool) {
	a.free.Walk(fn)
}

// FreeClass returns the class a Free block of size bytes must be filed under.
func (a *Allocator) FreeClass(size int64) int { return a.classes.FloorClass(size) }
