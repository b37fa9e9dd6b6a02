package alloc

import "fmt"

// Handle is an opaque reference to an allocated block. The zero Handle never
// names a block.
type Handle struct {
	arena uint32 // Identity of the owning arena
	gen   uint32 // Arena generation at allocation time
	seq   uint32 // Allocation sequence of the block
	off   int64  // Block offset in the arena
}

// Offset returns the block's byte offset within its arena.
func (h Handle) Offset() int64 { return h.off }

// IsZero reports whether h is the zero Handle.
func (h Handle) IsZero() bool { return h == Handle{} }

func (h Handle) String() string {
	if h.IsZero() {
		return "handle(zero)"
	}
	return fmt.Sprintf("handle(arena=%d gen=%d seq=%d off=0x%X)", h.arena, h.gen, h.seq, h.off)
}
