package block

import (
	"cmp"
	"iter"
	"slices"

	"github.com/joshuapare/arenakit/slab"
)

// Table stores the descriptors of one arena. Besides the slot store it keeps
// two indexes for O(1) neighbour lookup during coalescing:
//   - byStart: block offset -> ID (higher-address neighbour of x is byStart[x.End()])
//   - byEnd:   block end offset -> ID (lower-address neighbour of x is byEnd[x.Off])
//
// NOT thread-safe.
type Table struct {
	slots   *slab.Repository[Descriptor]
	byStart map[int64]ID
	byEnd   map[int64]ID
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{
		slots:   slab.New[Descriptor](),
		byStart: make(map[int64]ID, 64),
		byEnd:   make(map[int64]ID, 64),
	}
}

// Add stores d and returns its ID.
func (t *Table) Add(d Descriptor) ID {
	id := ID(t.slots.Insert(d))
	t.byStart[d.Off] = id
	t.byEnd[d.End()] = id
	return id
}

// Get returns the descriptor for id.
func (t *Table) Get(id ID) (Descriptor, bool) {
	return t.slots.Get(int(id))
}

// Ptr returns a mutable pointer to the descriptor for id, or nil. The pointer
// is valid until the next Add. Callers must use Resize, not the pointer, to
// change Off or Size.
func (t *Table) Ptr(id ID) *Descriptor {
	return t.slots.Ptr(int(id))
}

// StartingAt returns the block whose first byte is off.
func (t *Table) StartingAt(off int64) (ID, bool) {
	id, ok := t.byStart[off]
	return id, ok
}

// EndingAt returns the block whose end offset is off.
func (t *Table) EndingAt(off int64) (ID, bool) {
	id, ok := t.byEnd[off]
	return id, ok
}

// Resize moves the bounds of id and keeps both indexes in step.
func (t *Table) Resize(id ID, off, size int64) {
	d := t.slots.Ptr(int(id))
	if d == nil {
		return
	}
	if t.byStart[d.Off] == id {
		delete(t.byStart, d.Off)
	}
	if t.byEnd[d.End()] == id {
		delete(t.byEnd, d.End())
	}
	d.Off, d.Size = off, size
	t.byStart[off] = id
	t.byEnd[off+size] = id
}

// Remove deletes id and returns the descriptor it held.
func (t *Table) Remove(id ID) (Descriptor, bool) {
	d, ok := t.slots.Remove(int(id))
	if !ok {
		return d, false
	}
	if t.byStart[d.Off] == id {
		delete(t.byStart, d.Off)
	}
	if t.byEnd[d.End()] == id {
		delete(t.byEnd, d.End())
	}
	return d, true
}

// Len returns the number of descriptors.
func (t *Table) Len() int { return t.slots.Len() }

// Reset drops every descriptor in O(1); the old storage is left to the GC.
func (t *Table) Reset() {
	t.slots = slab.New[Descriptor]()
	t.byStart = make(map[int64]ID, 64)
	t.byEnd = make(map[int64]ID, 64)
}

// All iterates descriptors in slot order.
func (t *Table) All() iter.Seq2[ID, Descriptor] {
	return func(yield func(ID, Descriptor) bool) {
		for i, d := range t.slots.All() {
			if !yield(ID(i), d) {
				return
			}
		}
	}
}

// Entry pairs a descriptor with its ID.
type Entry struct {
	ID ID
	Descriptor
}

// ByOffset returns every descriptor sorted by offset.
func (t *Table) ByOffset() []Entry {
	out := make([]Entry, 0, t.Len())
	for id, d := range t.All() {
		out = append(out, Entry{ID: id, Descriptor: d})
	}
	slices.SortFunc(out, func(a, b Entry) int { return cmp.Compare(a.Off, b.Off) })
	return out
}
