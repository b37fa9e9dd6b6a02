package verify

import (
	"errors"
	"fmt"
	"strings"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/joshuapare/arenakit/block"
)

// ErrInvariantViolation is wrapped by Report.Err when any check failed.
var ErrInvariantViolation = errors.New("verify: arena invariant violated")

// Kind classifies a violation.
type Kind string

const (
	KindDoubleOwned Kind = "double-owned" // Allocated block also filed as Free
	KindUnindexed   Kind = "unindexed"    // Free block missing from the index
	KindMisfiled    Kind = "misfiled"     // Free block filed under the wrong class
	KindStaleIndex  Kind = "stale-index"  // Index entry with no matching Free descriptor
	KindGap         Kind = "gap"          // Carved bytes covered by no descriptor
	KindOverlap     Kind = "overlap"      // Bytes covered by two descriptors
	KindBounds      Kind = "bounds"       // Descriptor or high-water mark beyond capacity
	KindMisaligned  Kind = "misaligned"   // Offset or size not a multiple of the alignment
	KindUncoalesced Kind = "uncoalesced"  // Two adjacent Free blocks
	KindLeak        Kind = "leak"         // Allocated block left when none was expected
	KindLedger      Kind = "ledger"       // Disagreement between ledger and arena
)

// Violation is one failed check.
type Violation struct {
	Kind    Kind
	Off     int64
	Size    int64
	State   block.State
	Message string
}

func (v Violation) Error() string {
	return fmt.Sprintf("%s at 0x%X (+%d, %s): %s", v.Kind, v.Off, v.Size, v.State, v.Message)
}

// Report is the outcome of one Audit.
type Report struct {
	Violations []Violation

	Capacity  int64
	HighWater int64

	Blocks         int
	Allocated      int
	AllocatedBytes int64
	Free           int
	FreeBytes      int64
	Filed          int // Entries in the free-list index

	blocks    map[int64]block.Descriptor // By offset
	allocated *roaring64.Bitmap          // Offsets of Allocated blocks
}

func (r *Report) add(kind Kind, d block.Descriptor, format string, args ...any) {
	r.Violations = append(r.Violations, Violation{
		Kind:    kind,
		Off:     d.Off,
		Size:    d.Size,
		State:   d.State,
		Message: fmt.Sprintf(format, args...),
	})
}

// OK reports whether no check failed.
func (r *Report) OK() bool { return len(r.Violations) == 0 }

// Count returns the number of violations of kind k.
func (r *Report) Count(k Kind) int {
	n := 0
	for _, v := range r.Violations {
		if v.Kind == k {
			n++
		}
	}
	return n
}

// Err returns nil for a clean report. Otherwise the error wraps
// ErrInvariantViolation and every Violation, so errors.As can extract them.
func (r *Report) Err() error {
	if r.OK() {
		return nil
	}
	errs := make([]error, 0, len(r.Violations)+1)
	errs = append(errs, fmt.Errorf("%w: %d violation(s)", ErrInvariantViolation, len(r.Violations)))
	for _, v := range r.Violations {
		errs = append(errs, v)
	}
	return errors.Join(errs...)
}

func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "blocks=%d allocated=%d/%dB free=%d/%dB filed=%d hwm=%d cap=%d",
		r.Blocks, r.Allocated, r.AllocatedBytes, r.Free, r.FreeBytes, r.Filed, r.HighWater, r.Capacity)
	for _, v := range r.Violations {
		b.WriteString("\n  ")
		b.WriteString(v.Error())
	}
	return b.String()
}
