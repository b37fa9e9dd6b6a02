// Package region implements the arena: the contiguous backing store blocks
// are carved from, plus the descriptor table that tiles its carved part.
//
// Carving is a bump pointer. Space below the high-water mark is owned by
// descriptors (the allocator moves it between Free and Allocated); space
// above it is untouched. The arena never lowers the high-water mark except on
// Reset, which drops every descriptor in O(1) and bumps the generation so
// handles minted before it can be recognised as stale.
package region

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/joshuapare/arenakit/block"
	"github.com/joshuapare/arenakit/budget"
	"github.com/joshuapare/arenakit/internal/backing"
	"github.com/joshuapare/arenakit/internal/format"
	"github.com/joshuapare/arenakit/internal/logger"
	"github.com/joshuapare/arenakit/slab"
)

// nextID hands out arena identities. Zero is never used so a zero handle is
// always foreign.
var nextID atomic.Uint32

// Config configures an Arena.
type Config struct {
	Capacity    int64          // Bytes reserved up front
	MaxCapacity int64          // Hard cap for Reserve and growth (0 = format.MaxArenaSize)
	Growable    bool           // Carve grows the store instead of failing when the tail is short
	Alignment   int64          // Required alignment of carve sizes (0 = format.DefaultAlignment)
	Backing     backing.Kind   // Storage implementation
	Budget      *budget.Budget // Optional shared byte budget
	Logger      *slog.Logger   // Optional; defaults to logger.L
}

// Stats holds arena counters.
type Stats struct {
	Capacity  int64 // Current reserved bytes
	HighWater int64 // Bytes carved since the last reset
	Carves    int   // Carve calls that succeeded
	Extends   int   // Extend calls that succeeded
	Grows     int   // Backing store growths
	GrowBytes int64 // Total bytes added by growths
	Resets    int   // Reset calls
	Exhausted int   // Carve calls that failed
}

// Arena owns one backing store and the descriptors carved from it.
//
// NOT thread-safe. An Arena is exclusively owned by one allocator.
type Arena struct {
	id     uint32
	gen    uint32
	store  backing.Store
	budget *budget.Budget
	blocks *block.Table
	log    *slog.Logger

	capacity    int64
	maxCapacity int64
	growable    bool
	align       int64
	hwm         int64

	stats  Stats
	closed bool
}

// New creates an arena and reserves cfg.Capacity bytes.
func New(cfg Config) (*Arena, error) {
	if cfg.Alignment == 0 {
		cfg.Alignment = format.DefaultAlignment
	}
	if !format.IsPow2(cfg.Alignment) {
		return nil, fmt.Errorf("region: alignment %d is not a power of two", cfg.Alignment)
	}
	if cfg.MaxCapacity <= 0 || cfg.MaxCapacity > format.MaxArenaSize {
		cfg.MaxCapacity = format.MaxArenaSize
	}
	if cfg.Capacity < 0 {
		return nil, fmt.Errorf("region: negative capacity %d", cfg.Capacity)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.L
	}

	store, err := backing.New(cfg.Backing, 0)
	if err != nil {
		return nil, err
	}

	a := &Arena{
		id:          nextID.Add(1),
		store:       store,
		budget:      cfg.Budget,
		blocks:      block.NewTable(),
		log:         cfg.Logger,
		maxCapacity: cfg.MaxCapacity,
		growable:    cfg.Growable,
		align:       cfg.Alignment,
	}
	if err := a.Reserve(cfg.Capacity); err != nil {
		_ = store.Close()
		return nil, err
	}
	return a, nil
}

// ID returns the arena identity carried by its handles.
func (a *Arena) ID() uint32 { return a.id }

// Generation returns the reset generation.
func (a *Arena) Generation() uint32 { return a.gen }

// Capacity returns the reserved size in bytes.
func (a *Arena) Capacity() int64 { return a.capacity }

// HighWater returns the number of bytes carved since the last reset.
func (a *Arena) HighWater() int64 { return a.hwm }

// Remaining returns the untouched bytes above the high-water mark.
func (a *Arena) Remaining() int64 { return a.capacity - a.hwm }

// Growable reports whether Carve grows the store on demand.
func (a *Arena) Growable() bool { return a.growable }

// Blocks returns the descriptor table tiling [0, HighWater()).
func (a *Arena) Blocks() *block.Table { return a.blocks }

// Backing reports the storage implementation in use.
func (a *Arena) Backing() backing.Kind { return a.store.Kind() }

// Stats returns a snapshot of the arena counters.
func (a *Arena) Stats() Stats {
	s := a.stats
	s.Capacity = a.capacity
	s.HighWater = a.hwm
	return s
}

// Reserve grows the backing store to at least capacity bytes. Smaller
// requests are no-ops.
func (a *Arena) Reserve(capacity int64) error {
	if a.closed {
		return ErrClosed
	}
	if capacity <= a.capacity {
		return nil
	}
	if capacity > a.maxCapacity {
		return fmt.Errorf("%w: %d bytes requested, limit %d", ErrOutOfMemory, capacity, a.maxCapacity)
	}

	extra := capacity - a.capacity
	if err := a.budget.Reserve(extra); err != nil {
		return fmt.Errorf("%w: %w", ErrOutOfMemory, err)
	}
	if err := a.store.Grow(capacity); err != nil {
		a.budget.Release(extra)
		return fmt.Errorf("%w: %w", ErrOutOfMemory, err)
	}

	if a.capacity > 0 {
		a.stats.Grows++
		a.stats.GrowBytes += extra
	}
	a.log.Debug("arena reserve",
		"arena", a.id,
		"from", a.capacity,
		"to", capacity,
		"backing", a.store.Kind().String(),
	)
	a.capacity = capacity
	return nil
}

// Carve creates a descriptor for the next size untouched bytes and advances
// the high-water mark. The new block is Allocated with a zero sequence; the
// caller stamps it. size must be positive and aligned.
//
// When the tail is too short, a growable arena grows by half its capacity
// plus a constant (repeated until the block fits, rounded to pages, capped at
// the maximum); otherwise Carve fails with ErrArenaExhausted.
func (a *Arena) Carve(size int64) (block.ID, error) {
	if a.closed {
		return block.None, ErrClosed
	}
	if size <= 0 || !format.IsAligned(size, a.align) {
		return block.None, fmt.Errorf("%w: %d", ErrBadSize, size)
	}

	want, ok := format.AddChecked(a.hwm, size)
	if !ok {
		a.stats.Exhausted++
		return block.None, fmt.Errorf("%w: %d bytes past high-water 0x%X", ErrArenaExhausted, size, a.hwm)
	}
	if want > a.capacity {
		if err := a.growFor(want); err != nil {
			a.stats.Exhausted++
			a.log.Debug("arena exhausted",
				"arena", a.id,
				"need", size,
				"remaining", a.Remaining(),
				"err", err,
			)
			return block.None, err
		}
	}

	id := a.blocks.Add(block.Descriptor{
		Off:   a.hwm,
		Size:  size,
		State: block.Allocated,
	})
	a.hwm = want
	a.stats.Carves++
	return id, nil
}

// Extend lengthens the block id, which must end at the high-water mark, by
// extra untouched bytes and advances the high-water mark. Growth and failure
// follow Carve. The block keeps its ID and state.
func (a *Arena) Extend(id block.ID, extra int64) error {
	if a.closed {
		return ErrClosed
	}
	if extra <= 0 || !format.IsAligned(extra, a.align) {
		return fmt.Errorf("%w: %d", ErrBadSize, extra)
	}
	d, ok := a.blocks.Get(id)
	if !ok || d.End() != a.hwm {
		return fmt.Errorf("%w: block %d does not end at high-water 0x%X", ErrOutOfRange, id, a.hwm)
	}

	want, ok := format.AddChecked(a.hwm, extra)
	if !ok {
		a.stats.Exhausted++
		return fmt.Errorf("%w: %d bytes past high-water 0x%X", ErrArenaExhausted, extra, a.hwm)
	}
	if want > a.capacity {
		if err := a.growFor(want); err != nil {
			a.stats.Exhausted++
			return err
		}
	}

	a.blocks.Resize(id, d.Off, d.Size+extra)
	a.hwm = want
	a.stats.Extends++
	return nil
}

func (a *Arena) growFor(want int64) error {
	if !a.growable {
		return fmt.Errorf("%w: need %d bytes, %d remaining", ErrArenaExhausted, want-a.hwm, a.Remaining())
	}
	next := min(format.AlignPage(slab.GrowthFor(a.capacity, want)), a.maxCapacity)
	if next < want {
		return fmt.Errorf("%w: need %d bytes, growth capped at %d", ErrArenaExhausted, want-a.hwm, a.maxCapacity)
	}
	if err := a.Reserve(next); err != nil {
		return fmt.Errorf("%w: %w", ErrArenaExhausted, err)
	}
	return nil
}

// Reset forgets every descriptor, lowers the high-water mark to zero and
// bumps the generation. It runs in O(1) and keeps the reserved capacity.
//
// Slices obtained before Reset still alias the store; using them after Reset
// is a caller bug the allocator cannot detect.
func (a *Arena) Reset() {
	a.blocks.Reset()
	a.hwm = 0
	a.gen++
	a.stats.Resets++
	a.log.Debug("arena reset", "arena", a.id, "generation", a.gen)
}

// Slice returns the bytes [off, off+size) of the carved space. The slice is
// valid until the next growth, Reset or Close.
func (a *Arena) Slice(off, size int64) ([]byte, error) {
	if a.closed {
		return nil, ErrClosed
	}
	data, ok := format.Slice(a.store.Bytes(), off, size, a.hwm)
	if !ok {
		return nil, fmt.Errorf("%w: [0x%X+%d) above high-water 0x%X", ErrOutOfRange, off, size, a.hwm)
	}
	return data, nil
}

// Close releases the backing store and returns its bytes to the budget.
// Calling Close twice is a no-op.
func (a *Arena) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	a.budget.Release(a.capacity)
	a.blocks.Reset()
	a.capacity, a.hwm = 0, 0
	return a.store.Close()
}
