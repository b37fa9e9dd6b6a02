package verify

import (
	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/joshuapare/arenakit/block"
)

// Handle is anything that names a block by offset. alloc.Handle satisfies it.
type Handle interface {
	Offset() int64
}

// Ledger records which handles a scenario has been issued and released, so
// Audit can compare the caller's view of live blocks with the arena's.
type Ledger struct {
	live     *roaring64.Bitmap
	issued   int
	released int
	errs     []Violation
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{live: roaring64.New()}
}

// Issue records a handle returned by Allocate.
func (l *Ledger) Issue(h Handle) {
	l.issued++
	if !l.live.CheckedAdd(uint64(h.Offset())) {
		l.errs = append(l.errs, Violation{
			Kind:    KindLedger,
			Off:     h.Offset(),
			State:   block.Allocated,
			Message: "offset issued again while still live",
		})
	}
}

// Release records a handle passed to a successful Deallocate.
func (l *Ledger) Release(h Handle) {
	l.released++
	if !l.live.CheckedRemove(uint64(h.Offset())) {
		l.errs = append(l.errs, Violation{
			Kind:    KindLedger,
			Off:     h.Offset(),
			State:   block.Free,
			Message: "released offset was not live",
		})
	}
}

// Reset forgets every live offset, matching an allocator Reset.
func (l *Ledger) Reset() { l.live.Clear() }

// Len returns the number of live offsets.
func (l *Ledger) Len() int { return int(l.live.GetCardinality()) }

// Issued returns the number of Issue calls.
func (l *Ledger) Issued() int { return l.issued }

// Released returns the number of Release calls.
func (l *Ledger) Released() int { return l.released }

// Outstanding returns the live offsets in ascending order.
func (l *Ledger) Outstanding() []int64 {
	raw := l.live.ToArray()
	out := make([]int64, len(raw))
	for i, v := range raw {
		out[i] = int64(v)
	}
	return out
}

// Check adds a violation to r for every offset the ledger holds that r does
// not show as Allocated, for every Allocated block the ledger does not hold,
// and for every misuse recorded by Issue or Release.
func (l *Ledger) Check(r *Report) {
	r.Violations = append(r.Violations, l.errs...)

	missing := roaring64.AndNot(l.live, r.allocated)
	for _, off := range missing.ToArray() {
		d, ok := r.blocks[int64(off)]
		if !ok {
			d = block.Descriptor{Off: int64(off)}
		}
		r.add(KindLedger, d, "ledger holds a live handle the arena does not show as allocated")
	}

	unknown := roaring64.AndNot(r.allocated, l.live)
	for _, off := range unknown.ToArray() {
		r.add(KindLedger, r.blocks[int64(off)], "allocated block not held by the ledger")
	}
}
