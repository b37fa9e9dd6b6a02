// Package block defines the descriptor record for one region of an arena and
// the table that stores every descriptor of an arena.
//
// Descriptors live out-of-band: the arena's bytes carry no headers, so a
// block's payload is exactly [Off, Off+Size).
package block

import "fmt"

// State is the liveness of a block.
type State uint8

const (
	// Free blocks are owned by the free-list index.
	Free State = iota
	// Allocated blocks are owned by exactly one outstanding handle.
	Allocated
)

func (s State) String() string {
	switch s {
	case Free:
		return "free"
	case Allocated:
		return "allocated"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// ID identifies a descriptor within its Table. IDs are reused after removal.
type ID int

// None is the ID that refers to no descriptor.
const None ID = -1

// Descriptor describes one contiguous region of the arena.
type Descriptor struct {
	Off   int64 // Byte offset into the arena
	Size  int64 // Byte length
	State State
	Class int    // Size class the block is filed under
	Seq   uint32 // Allocation sequence stamped when handed out (Allocated only)
}

// End returns the offset one past the last byte of the block.
func (d Descriptor) End() int64 { return d.Off + d.Size }

// Overlaps reports whether d and o share at least one byte.
func (d Descriptor) Overlaps(o Descriptor) bool {
	return d.Off < o.End() && o.Off < d.End()
}

func (d Descriptor) String() string {
	return fmt.Sprintf("[0x%X+%d %s class=%d]", d.Off, d.Size, d.State, d.Class)
}
