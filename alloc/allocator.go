package alloc

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/joshuapare/arenakit/block"
	"github.com/joshuapare/arenakit/freelist"
	"github.com/joshuapare/arenakit/internal/backing"
	"github.com/joshuapare/arenakit/internal/logger"
	"github.com/joshuapare/arenakit/region"
	"github.com/joshuapare/arenakit/sizeclass"
)

// Allocator hands out regions of one arena.
//
// Allocate serves a request from the free-list index when possible and
// carves fresh space otherwise; Deallocate validates the handle and returns
// the block to the index, coalescing with Free neighbours.
//
// NOT thread-safe.
type Allocator struct {
	arena   *region.Arena
	classes *sizeclass.Table
	free    *freelist.Index
	log     *slog.Logger

	seq       uint32 // Last stamped allocation sequence
	live      int    // Allocated blocks
	liveBytes int64  // Bytes held by Allocated blocks

	stats  counters
	closed bool
}

// counters tracks facade-level activity. Arena and index counters are
// merged in by Stats.
type counters struct {
	allocCalls     int
	fastPath       int   // Served from the free-list index
	slowPath       int   // Served by carving
	splits         int   // Free blocks split on reuse
	frees          int   // Successful deallocations
	rejected       int   // Deallocate calls refused with ErrInvalidHandle
	outOfMemory    int   // Allocate calls that returned ErrOutOfMemory
	resets         int   // Reset calls
	bytesAllocated int64 // Class-rounded bytes handed out
	bytesFreed     int64 // Class-rounded bytes returned
}

// New creates an allocator with its own arena.
func New(opts ...Option) (*Allocator, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	classes, err := sizeclass.New(o.classes)
	if err != nil {
		return nil, err
	}
	log := o.logger
	if log == nil {
		log = logger.L
	}

	arena, err := region.New(region.Config{
		Capacity:    o.capacity,
		MaxCapacity: o.maxCapacity,
		Growable:    o.growable,
		Alignment:   classes.Alignment(),
		Backing:     o.backing,
		Budget:      o.budget,
		Logger:      log,
	})
	if err != nil {
		return nil, err
	}

	return &Allocator{
		arena:   arena,
		classes: classes,
		free:    freelist.New(classes, arena.Blocks()),
		log:     log,
	}, nil
}

// Allocate returns a handle to at least size bytes. The block is rounded up
// to its size class, so Size may report more than was asked for.
func (a *Allocator) Allocate(size int64) (Handle, error) {
	if a.closed {
		return Handle{}, ErrClosed
	}
	if size <= 0 {
		return Handle{}, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	a.stats.allocCalls++

	need := a.classes.Round(size)
	if need < size {
		// Rounding overflowed int64.
		a.stats.outOfMemory++
		return Handle{}, fmt.Errorf("%w: request of %d bytes cannot be rounded", ErrOutOfMemory, size)
	}

	tbl := a.arena.Blocks()
	id, ok := a.free.Find(need)
	if ok {
		a.free.Remove(id)
		a.split(id, need)
		a.stats.fastPath++
	} else {
		var err error
		id, err = a.carve(need)
		if err != nil {
			if errors.Is(err, region.ErrArenaExhausted) {
				a.stats.outOfMemory++
				a.log.Debug("allocate: out of memory",
					"size", size,
					"class_size", need,
					"capacity", a.arena.Capacity(),
					"high_water", a.arena.HighWater(),
					"free_bytes", a.free.Bytes(),
					"largest_free", a.free.Largest(),
				)
				// The exhaustion cause is reported as text only; callers match
				// ErrOutOfMemory.
				return Handle{}, fmt.Errorf("%w: %d bytes (class size %d): %v", ErrOutOfMemory, size, need, err)
			}
			return Handle{}, err
		}
		a.stats.slowPath++
	}

	a.seq++
	if a.seq == 0 {
		a.seq = 1
	}
	d := tbl.Ptr(id)
	d.State = block.Allocated
	d.Class = a.classes.Class(need)
	d.Seq = a.seq

	a.live++
	a.liveBytes += d.Size
	a.stats.bytesAllocated += d.Size

	return Handle{
		arena: a.arena.ID(),
		gen:   a.arena.Generation(),
		seq:   d.Seq,
		off:   d.Off,
	}, nil
}

// carve takes need bytes of untouched space. A Free block ending at the
// high-water mark is extended by the shortfall instead of being left behind a
// fresh block.
func (a *Allocator) carve(need int64) (block.ID, error) {
	tbl := a.arena.Blocks()
	if id, ok := tbl.EndingAt(a.arena.HighWater()); ok {
		if d, _ := tbl.Get(id); d.State == block.Free && d.Size < need {
			a.free.Remove(id)
			if err := a.arena.Extend(id, need-d.Size); err != nil {
				a.free.Insert(id)
				return block.None, err
			}
			return id, nil
		}
	}
	return a.arena.Carve(need)
}

// split trims the unfiled Free block id to need bytes and files the
// remainder. The remainder's upper neighbour is never Free, because id was
// already coalesced, so no merge is needed.
func (a *Allocator) split(id block.ID, need int64) {
	tbl := a.arena.Blocks()
	d, _ := tbl.Get(id)
	if d.Size == need {
		return
	}
	tbl.Resize(id, d.Off, need)
	tail := tbl.Add(block.Descriptor{
		Off:   d.Off + need,
		Size:  d.Size - need,
		State: block.Free,
	})
	a.free.Insert(tail)
	a.stats.splits++
}

// Deallocate releases the block named by h. A handle that does not name a
// live block of this allocator is refused with ErrInvalidHandle and nothing
// changes.
func (a *Allocator) Deallocate(h Handle) error {
	id, d, err := a.resolve(h)
	if err != nil {
		if errors.Is(err, ErrInvalidHandle) {
			a.stats.rejected++
			a.log.Warn("deallocate: rejected handle", "handle", h.String(), "err", err)
		}
		return err
	}

	if _, err := a.free.Release(id); err != nil {
		// resolve checked the state, so this is a broken index.
		return fmt.Errorf("alloc: release %s: %w", d, err)
	}
	a.live--
	a.liveBytes -= d.Size
	a.stats.frees++
	a.stats.bytesFreed += d.Size
	return nil
}

// resolve maps h to its descriptor, checking every field of the handle.
func (a *Allocator) resolve(h Handle) (block.ID, block.Descriptor, error) {
	var none block.Descriptor
	if a.closed {
		return block.None, none, ErrClosed
	}
	switch {
	case h.IsZero():
		return block.None, none, fmt.Errorf("%w: zero handle", ErrInvalidHandle)
	case h.arena != a.arena.ID():
		return block.None, none, fmt.Errorf("%w: handle belongs to arena %d, not %d", ErrInvalidHandle, h.arena, a.arena.ID())
	case h.gen != a.arena.Generation():
		return block.None, none, fmt.Errorf("%w: handle from generation %d, arena is at %d", ErrInvalidHandle, h.gen, a.arena.Generation())
	case h.off < 0 || h.off >= a.arena.HighWater():
		return block.None, none, fmt.Errorf("%w: offset 0x%X outside carved space", ErrInvalidHandle, h.off)
	}

	id, ok := a.arena.Blocks().StartingAt(h.off)
	if !ok {
		return block.None, none, fmt.Errorf("%w: no block starts at 0x%X", ErrInvalidHandle, h.off)
	}
	d, _ := a.arena.Blocks().Get(id)
	if d.State != block.Allocated {
		return block.None, none, fmt.Errorf("%w: block at 0x%X is %s", ErrInvalidHandle, h.off, d.State)
	}
	if d.Seq != h.seq {
		return block.None, none, fmt.Errorf("%w: block at 0x%X was reallocated (seq %d, handle %d)", ErrInvalidHandle, h.off, d.Seq, h.seq)
	}
	return id, d, nil
}

// Reset releases every block at once and invalidates all outstanding
// handles. Reserved capacity is kept.
func (a *Allocator) Reset() {
	if a.closed {
		return
	}
	a.arena.Reset()
	a.free.Reset()
	a.live = 0
	a.liveBytes = 0
	a.stats.resets++
}

// Bytes returns the block's bytes. The slice is valid until the arena grows,
// is reset or is closed.
func (a *Allocator) Bytes(h Handle) ([]byte, error) {
	_, d, err := a.resolve(h)
	if err != nil {
		return nil, err
	}
	return a.arena.Slice(d.Off, d.Size)
}

// Size returns the class-rounded size of the block named by h.
func (a *Allocator) Size(h Handle) (int64, error) {
	_, d, err := a.resolve(h)
	if err != nil {
		return 0, err
	}
	return d.Size, nil
}

// Backing reports the storage implementation of the arena.
func (a *Allocator) Backing() backing.Kind { return a.arena.Backing() }

// Classes returns the size-class table in use.
func (a *Allocator) Classes() *sizeclass.Table { return a.classes }

// Close releases the arena. Handles become invalid. Calling Close twice is a
// no-op.
func (a *Allocator) Close() error {
	if a.closed {
		return nil
	}
	if a.live > 0 {
		a.log.Debug("close with live blocks", "live", a.live, "live_bytes", a.liveBytes)
	}
	a.closed = true
	a.free.Reset()
	return a.arena.Close()
}
