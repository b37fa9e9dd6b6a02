// Package freelist implements the segregated free-list index of an arena.
//
// Each size class keeps its Free blocks in an ordered set keyed by
// (size, offset), so the first entry at or above a requested size is the best
// fit and, among equal sizes, the lowest address. A bitset of non-empty
// classes lets Find skip straight to the next class that can serve a request.
//
// Release merges a freed block with its address neighbours whenever they are
// Free and contiguous, on every call.
package freelist

import (
	"errors"
	"math"

	"github.com/bits-and-blooms/bitset"
	"github.com/google/btree"

	"github.com/joshuapare/arenakit/block"
	"github.com/joshuapare/arenakit/sizeclass"
)

// ErrNotAllocated indicates Release was called on a block that is not Allocated.
var ErrNotAllocated = errors.New("freelist: block is not allocated")

// btreeDegree keeps nodes around two cache lines of entries.
const btreeDegree = 16

// entry is one Free block filed under a class.
type entry struct {
	size int64
	off  int64
	id   block.ID
}

func lessEntry(a, b entry) bool {
	if a.size != b.size {
		return a.size < b.size
	}
	return a.off < b.off
}

// Stats counts index operations.
type Stats struct {
	Inserts          int // Blocks filed into a class
	Removes          int // Blocks taken out of a class
	CoalesceForward  int // Merges with the higher-address neighbour
	CoalesceBackward int // Merges with the lower-address neighbour
}

// Index files Free descriptors of one block.Table by size class.
//
// NOT thread-safe.
type Index struct {
	classes  *sizeclass.Table
	table    *block.Table
	sets     []*btree.BTreeG[entry] // one per bucketed class, plus the large class
	nonEmpty *bitset.BitSet
	count    int
	bytes    int64
	stats    Stats
}

// New creates an empty index over table.
func New(classes *sizeclass.Table, table *block.Table) *Index {
	n := classes.NumClasses() + 1
	fl := btree.NewFreeListG[entry](btree.DefaultFreeListSize)
	idx := &Index{
		classes:  classes,
		table:    table,
		sets:     make([]*btree.BTreeG[entry], n),
		nonEmpty: bitset.New(uint(n)),
	}
	for c := range idx.sets {
		idx.sets[c] = btree.NewWithFreeListG[entry](btreeDegree, lessEntry, fl)
	}
	return idx
}

// Insert files the descriptor id as Free under the class its size maps to.
func (x *Index) Insert(id block.ID) {
	d := x.table.Ptr(id)
	if d == nil {
		return
	}
	d.State = block.Free
	d.Seq = 0
	d.Class = x.classes.FloorClass(d.Size)
	if _, replaced := x.sets[d.Class].ReplaceOrInsert(entry{size: d.Size, off: d.Off, id: id}); !replaced {
		x.count++
		x.bytes += d.Size
	}
	x.nonEmpty.Set(uint(d.Class))
	x.stats.Inserts++
}

// Remove takes id out of its class. It reports whether id was filed.
func (x *Index) Remove(id block.ID) bool {
	d, ok := x.table.Get(id)
	if !ok || d.State != block.Free || d.Class < 0 || d.Class >= len(x.sets) {
		return false
	}
	set := x.sets[d.Class]
	if _, found := set.Delete(entry{size: d.Size, off: d.Off, id: id}); !found {
		return false
	}
	if set.Len() == 0 {
		x.nonEmpty.Clear(uint(d.Class))
	}
	x.count--
	x.bytes -= d.Size
	x.stats.Removes++
	return true
}

// Find returns the smallest Free block of at least size bytes, preferring the
// lowest address among equal sizes. It returns (block.None, false) when no
// block fits; that is a normal condition, not an error.
//
// Blocks are filed by floor class, so a block of at least size bytes can sit
// in FloorClass(size) without being a class size itself. The walk starts
// there and the pivot skips the smaller entries of that class.
func (x *Index) Find(size int64) (block.ID, bool) {
	start := x.classes.FloorClass(size)
	pivot := entry{size: size, off: math.MinInt64}
	for c, ok := x.nonEmpty.NextSet(uint(start)); ok; c, ok = x.nonEmpty.NextSet(c + 1) {
		var hit entry
		found := false
		x.sets[c].AscendGreaterOrEqual(pivot, func(e entry) bool {
			hit, found = e, true
			return false
		})
		if found {
			return hit.id, true
		}
	}
	return block.None, false
}

// Release marks the Allocated block id Free, merges it with Free neighbours
// and files the result. It returns the ID of the merged block.
func (x *Index) Release(id block.ID) (block.ID, error) {
	d, ok := x.table.Get(id)
	if !ok || d.State != block.Allocated {
		return block.None, ErrNotAllocated
	}
	off, size := d.Off, d.Size

	// Higher-address neighbour.
	if nid, ok := x.table.StartingAt(off + size); ok {
		if n, _ := x.table.Get(nid); n.State == block.Free {
			x.Remove(nid)
			x.table.Remove(nid)
			size += n.Size
			x.stats.CoalesceForward++
		}
	}

	// Lower-address neighbour.
	if pid, ok := x.table.EndingAt(off); ok {
		if p, _ := x.table.Get(pid); p.State == block.Free {
			x.Remove(pid)
			x.table.Remove(pid)
			off = p.Off
			size += p.Size
			x.stats.CoalesceBackward++
		}
	}

	x.table.Resize(id, off, size)
	x.Insert(id)
	return id, nil
}

// Contains reports whether id is filed in the class its size maps to.
func (x *Index) Contains(id block.ID) bool {
	d, ok := x.table.Get(id)
	if !ok {
		return false
	}
	c := x.classes.FloorClass(d.Size)
	return x.sets[c].Has(entry{size: d.Size, off: d.Off, id: id})
}

// Walk calls fn for every filed block, class by class, in (size, offset)
// order. Returning false stops the walk.
func (x *Index) Walk(fn func(class int, id block.ID, off, size int64) bool) {
	for c, set := range x.sets {
		keep := true
		set.Ascend(func(e entry) bool {
			keep = fn(c, e.id, e.off, e.size)
			return keep
		})
		if !keep {
			return
		}
	}
}

// Len returns the number of filed blocks.
func (x *Index) Len() int { return x.count }

// Bytes returns the total size of filed blocks.
func (x *Index) Bytes() int64 { return x.bytes }

// ClassLen returns the number of blocks filed under class c.
func (x *Index) ClassLen(c int) int {
	if c < 0 || c >= len(x.sets) {
		return 0
	}
	return x.sets[c].Len()
}

// Largest returns the size of the largest filed block, or 0.
func (x *Index) Largest() int64 {
	for c := len(x.sets) - 1; c >= 0; c-- {
		if e, ok := x.sets[c].Max(); ok {
			return e.size
		}
	}
	return 0
}

// Stats returns the operation counters.
func (x *Index) Stats() Stats { return x.stats }

// Reset empties every class in O(classes).
func (x *Index) Reset() {
	for _, set := range x.sets {
		set.Clear(false)
	}
	x.nonEmpty.ClearAll()
	x.count = 0
	x.bytes = 0
}
