package alloc

import (
	"log/slog"

	"github.com/joshuapare/arenakit/budget"
	"github.com/joshuapare/arenakit/internal/backing"
	"github.com/joshuapare/arenakit/sizeclass"
)

// DefaultCapacity is the arena size used when WithCapacity is not given.
const DefaultCapacity = 1 << 20

type options struct {
	capacity    int64
	maxCapacity int64
	growable    bool
	classes     sizeclass.Config
	backing     backing.Kind
	budget      *budget.Budget
	logger      *slog.Logger
}

func defaultOptions() options {
	return options{
		capacity: DefaultCapacity,
		classes:  sizeclass.DefaultConfig,
		backing:  backing.Heap,
	}
}

// Option configures an Allocator.
type Option func(*options)

// WithCapacity sets the bytes reserved up front.
func WithCapacity(n int64) Option {
	return func(o *options) { o.capacity = n }
}

// WithMaxCapacity lets the arena grow on demand up to max bytes
// (0 = the package-wide arena limit).
func WithMaxCapacity(max int64) Option {
	return func(o *options) {
		o.growable = true
		o.maxCapacity = max
	}
}

// WithSizeClasses selects the size-class strategy.
func WithSizeClasses(cfg sizeclass.Config) Option {
	return func(o *options) { o.classes = cfg }
}

// WithBacking selects the backing store implementation.
func WithBacking(kind backing.Kind) Option {
	return func(o *options) { o.backing = kind }
}

// WithBudget charges the arena's reserved bytes against b.
func WithBudget(b *budget.Budget) Option {
	return func(o *options) { o.budget = b }
}

// WithLogger sets the logger for grow, exhaustion, rejection and reset events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}
