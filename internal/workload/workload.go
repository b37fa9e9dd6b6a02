// Package workload generates deterministic allocation patterns and replays
// them against any allocator with an Allocate/Deallocate/Reset surface.
//
// Plans are generated up front so random number generation stays out of the
// measured loop.
package workload

import (
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"strings"

	"github.com/bits-and-blooms/bitset"
)

// ErrUnknownKind indicates a workload name that ParseKind does not recognise.
var ErrUnknownKind = errors.New("workload: unknown kind")

// Kind names an allocation pattern.
type Kind string

const (
	// Churn keeps a fixed number of blocks live and replaces one at a time.
	Churn Kind = "churn"
	// Mixed draws small, medium and large sizes and frees at random.
	Mixed Kind = "mixed"
	// Scoped allocates a batch per scope and resets at scope end.
	Scoped Kind = "scoped"
	// Fill allocates until the budget of operations or the arena runs out, then
	// frees everything in random order.
	Fill Kind = "fill"
)

// Kinds lists every pattern.
var Kinds = []Kind{Churn, Mixed, Scoped, Fill}

// ParseKind parses a workload name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(s))
	if slices.Contains(Kinds, k) {
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// OpKind is the action of one Op.
type OpKind uint8

const (
	OpAlloc OpKind = iota
	OpFree
	OpReset
)

// Op is one step of a Plan. Alloc stores its result in Slot; Free releases
// the block held in Slot.
type Op struct {
	Kind OpKind
	Size int64
	Slot int
}

// Plan is a generated op sequence.
type Plan struct {
	Kind  Kind
	Ops   []Op
	Slots int // Number of distinct slots referenced
}

// Config shapes a generated plan.
type Config struct {
	Ops     int   // Approximate number of operations
	Live    int   // Blocks kept live by churn and mixed
	MinSize int64 // Smallest request
	MaxSize int64 // Largest request for churn, scoped and fill
	Scope   int   // Allocations per scope for scoped
	Seed    int64
}

// DefaultConfig is used by the benchmark driver when no flags are given.
var DefaultConfig = Config{
	Ops:     100_000,
	Live:    1024,
	MinSize: 16,
	MaxSize: 4096,
	Scope:   256,
	Seed:    1,
}

func (c Config) validate() error {
	switch {
	case c.Ops <= 0:
		return fmt.Errorf("workload: ops must be positive, got %d", c.Ops)
	case c.Live <= 0:
		return fmt.Errorf("workload: live must be positive, got %d", c.Live)
	case c.MinSize <= 0 || c.MaxSize < c.MinSize:
		return fmt.Errorf("workload: bad size range [%d, %d]", c.MinSize, c.MaxSize)
	case c.Scope <= 0:
		return fmt.Errorf("workload: scope must be positive, got %d", c.Scope)
	}
	return nil
}

// Generate builds the plan for kind. Plans for churn, mixed and fill end
// with every block freed; scoped plans end with a reset.
func Generate(kind Kind, cfg Config) (*Plan, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	g := &generator{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}
	switch kind {
	case Churn:
		g.churn()
	case Mixed:
		g.mixed()
	case Scoped:
		g.scoped()
	case Fill:
		g.fill()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return &Plan{Kind: kind, Ops: g.ops, Slots: g.slots}, nil
}

type generator struct {
	cfg   Config
	rng   *rand.Rand
	ops   []Op
	slots int
}

func (g *generator) size() int64 {
	return g.cfg.MinSize + g.rng.Int63n(g.cfg.MaxSize-g.cfg.MinSize+1)
}

// mixedSize draws 80% small, 15% medium and 5% large requests.
func (g *generator) mixedSize() int64 {
	switch p := g.rng.Intn(100); {
	case p < 80:
		return g.cfg.MinSize + g.rng.Int63n(256)
	case p < 95:
		return 256 + g.rng.Int63n(8<<10)
	default:
		return 8<<10 + g.rng.Int63n(56<<10)
	}
}

func (g *generator) alloc(slot int, size int64) {
	g.ops = append(g.ops, Op{Kind: OpAlloc, Size: size, Slot: slot})
	g.slots = max(g.slots, slot+1)
}

func (g *generator) free(slot int) {
	g.ops = append(g.ops, Op{Kind: OpFree, Slot: slot})
}

func (g *generator) freeAll(slots []int) {
	g.rng.Shuffle(len(slots), func(i, j int) { slots[i], slots[j] = slots[j], slots[i] })
	for _, s := range slots {
		g.free(s)
	}
}

func (g *generator) churn() {
	live := min(g.cfg.Live, g.cfg.Ops)
	for s := range live {
		g.alloc(s, g.size())
	}
	for len(g.ops)+2 <= g.cfg.Ops {
		s := g.rng.Intn(live)
		g.free(s)
		g.alloc(s, g.size())
	}
	all := make([]int, live)
	for i := range all {
		all[i] = i
	}
	g.freeAll(all)
}

func (g *generator) mixed() {
	var live, idle []int
	next := 0
	for len(g.ops) < g.cfg.Ops {
		grow := len(live) == 0 || (len(live) < g.cfg.Live && g.rng.Intn(10) < 6)
		if grow {
			var s int
			if n := len(idle); n > 0 {
				s, idle = idle[n-1], idle[:n-1]
			} else {
				s, next = next, next+1
			}
			g.alloc(s, g.mixedSize())
			live = append(live, s)
			continue
		}
		i := g.rng.Intn(len(live))
		s := live[i]
		live[i] = live[len(live)-1]
		live = live[:len(live)-1]
		g.free(s)
		idle = append(idle, s)
	}
	g.freeAll(live)
}

func (g *generator) scoped() {
	for len(g.ops) < g.cfg.Ops {
		for s := range g.cfg.Scope {
			g.alloc(s, g.size())
		}
		g.ops = append(g.ops, Op{Kind: OpReset})
	}
}

func (g *generator) fill() {
	n := max(g.cfg.Ops/2, 1)
	all := make([]int, n)
	for s := range n {
		g.alloc(s, g.size())
		all[s] = s
	}
	g.freeAll(all)
}

// Target is an allocator a plan can be replayed against.
type Target[H any] interface {
	Allocate(size int64) (H, error)
	Deallocate(h H) error
	Reset()
}

// Result counts what a replay did.
type Result struct {
	Allocs int   // Successful allocations
	Frees  int   // Successful frees
	Resets int   // Resets
	Failed int   // Allocations refused with the tolerated error
	Bytes  int64 // Requested bytes of successful allocations
	Peak   int   // Most blocks live at once
}

// Run replays p against t. Allocation errors matching full (via errors.Is)
// are counted in Result.Failed and leave the slot empty; frees of empty slots
// are skipped. Any other error stops the replay. A nil full tolerates
// nothing.
func Run[H any](t Target[H], p *Plan, full error) (Result, error) {
	var (
		res   Result
		slots = make([]H, p.Slots)
		held  = bitset.New(uint(p.Slots))
		live  int
		zero  H
	)
	for i, op := range p.Ops {
		switch op.Kind {
		case OpAlloc:
			h, err := t.Allocate(op.Size)
			if err != nil {
				if full != nil && errors.Is(err, full) {
					res.Failed++
					continue
				}
				return res, fmt.Errorf("workload: op %d alloc %d bytes: %w", i, op.Size, err)
			}
			slots[op.Slot] = h
			held.Set(uint(op.Slot))
			res.Allocs++
			res.Bytes += op.Size
			live++
			res.Peak = max(res.Peak, live)

		case OpFree:
			if !held.Test(uint(op.Slot)) {
				continue
			}
			if err := t.Deallocate(slots[op.Slot]); err != nil {
				return res, fmt.Errorf("workload: op %d free slot %d: %w", i, op.Slot, err)
			}
			slots[op.Slot] = zero
			held.Clear(uint(op.Slot))
			res.Frees++
			live--

		case OpReset:
			t.Reset()
			clear(slots)
			held.ClearAll()
			res.Resets++
			live = 0
		}
	}
	return res, nil
}

// GoHeap is a Target backed by plain make, for comparison. Frees and resets
// drop the reference and leave reclamation to the garbage collector.
type GoHeap struct{}

func (GoHeap) Allocate(size int64) ([]byte, error) { return make([]byte, size), nil }

func (GoHeap) Deallocate([]byte) error { return nil }

func (GoHeap) Reset() {}
