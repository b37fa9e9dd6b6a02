// Package verify audits an allocator's bookkeeping. It is meant for tests:
// run Audit after a scenario, or register Cleanup to audit at teardown.
//
// Audit checks that:
//   - no block is both Allocated and filed in the free-list index, and every
//     Free block is filed under the class its size maps to
//   - descriptors tile [0, high-water) without gaps or overlaps and the
//     high-water mark does not exceed the capacity
//   - no two adjacent blocks are both Free
//   - optionally, that no Allocated block remains
package verify

import (
	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/joshuapare/arenakit/block"
)

// Inspector is the read-only view Audit needs. *alloc.Allocator implements it.
type Inspector interface {
	Capacity() int64
	HighWater() int64
	Alignment() int64
	Blocks(fn func(e block.Entry) bool)
	FreeContains(id block.ID) bool
	FreeBlocks(fn func(class int, id block.ID, off, size int64) bool)
	FreeClass(size int64) int
}

// Options selects optional checks.
type Options struct {
	// ExpectAllReleased reports every remaining Allocated block as a leak.
	ExpectAllReleased bool
	// Ledger, when set, is cross-checked against the Allocated blocks.
	Ledger *Ledger
}

// Audit walks every descriptor and the free-list index of a.
func Audit(a Inspector, opts Options) *Report {
	r := &Report{
		Capacity:  a.Capacity(),
		HighWater: a.HighWater(),
		blocks:    make(map[int64]block.Descriptor),
		allocated: roaring64.New(),
	}
	align := a.Alignment()
	if align <= 0 {
		align = 1
	}

	byID := make(map[block.ID]block.Descriptor)
	var (
		prev    block.Descriptor
		hasPrev bool
		end     int64
	)
	a.Blocks(func(e block.Entry) bool {
		d := e.Descriptor
		byID[e.ID] = d
		r.blocks[d.Off] = d
		r.Blocks++

		switch d.State {
		case block.Allocated:
			r.Allocated++
			r.AllocatedBytes += d.Size
			r.allocated.Add(uint64(d.Off))
			if a.FreeContains(e.ID) {
				r.add(KindDoubleOwned, d, "allocated block is filed in the free-list index")
			}
			if opts.ExpectAllReleased {
				r.add(KindLeak, d, "block still allocated (seq %d)", d.Seq)
			}
		case block.Free:
			r.Free++
			r.FreeBytes += d.Size
			if !a.FreeContains(e.ID) {
				r.add(KindUnindexed, d, "free block is not filed under class %d", a.FreeClass(d.Size))
			}
		}

		if d.Size <= 0 {
			r.add(KindBounds, d, "non-positive size")
		}
		if d.Off%align != 0 || d.Size%align != 0 {
			r.add(KindMisaligned, d, "not a multiple of %d", align)
		}
		if d.End() > r.Capacity {
			r.add(KindBounds, d, "ends at 0x%X beyond capacity 0x%X", d.End(), r.Capacity)
		}

		switch {
		case d.Off > end:
			r.add(KindGap, block.Descriptor{Off: end, Size: d.Off - end},
				"no descriptor covers the bytes below block 0x%X", d.Off)
		case d.Off < end:
			r.add(KindOverlap, d, "starts inside a block ending at 0x%X", end)
		}
		if hasPrev && prev.End() == d.Off && prev.State == block.Free && d.State == block.Free {
			r.add(KindUncoalesced, d, "adjacent to free block at 0x%X", prev.Off)
		}

		end = max(end, d.End())
		prev, hasPrev = d, true
		return true
	})

	if end < r.HighWater {
		r.add(KindGap, block.Descriptor{Off: end, Size: r.HighWater - end},
			"carved bytes up to high-water 0x%X have no descriptor", r.HighWater)
	}
	if end > r.HighWater {
		r.add(KindBounds, block.Descriptor{Off: r.HighWater, Size: end - r.HighWater},
			"descriptors extend past high-water 0x%X", r.HighWater)
	}
	if r.HighWater > r.Capacity {
		r.add(KindBounds, block.Descriptor{Off: r.Capacity, Size: r.HighWater - r.Capacity},
			"high-water 0x%X beyond capacity 0x%X", r.HighWater, r.Capacity)
	}

	seen := make(map[block.ID]bool)
	a.FreeBlocks(func(class int, id block.ID, off, size int64) bool {
		r.Filed++
		filed := block.Descriptor{Off: off, Size: size, State: block.Free}
		d, ok := byID[id]
		switch {
		case !ok:
			r.add(KindStaleIndex, filed, "index entry names no descriptor")
		case d.Off != off || d.Size != size:
			r.add(KindStaleIndex, filed, "index entry disagrees with descriptor %s", d)
		case d.State != block.Free:
			// Already reported as double-owned.
		case class != a.FreeClass(size):
			r.add(KindMisfiled, d, "filed under class %d, want %d", class, a.FreeClass(size))
		}
		if seen[id] {
			r.add(KindStaleIndex, filed, "block filed more than once")
		}
		seen[id] = true
		return true
	})

	if opts.Ledger != nil {
		opts.Ledger.Check(r)
	}
	return r
}
