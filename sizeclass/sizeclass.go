// Package sizeclass maps allocation requests to segregated size classes.
//
// Classes grow linearly up to SmallMax, then geometrically up to MediumMax.
// Everything above MediumMax shares a single large class and is rounded to
// LargeAlign. Every class size is a multiple of Alignment, so every block
// carved or split from an arena stays aligned.
package sizeclass

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/joshuapare/arenakit/internal/format"
)

// ErrBadConfig indicates an inconsistent Config.
var ErrBadConfig = errors.New("sizeclass: invalid config")

// Config defines the size class strategy.
// Different configurations trade internal fragmentation against class count.
type Config struct {
	// Name for this configuration (for benchmarking)
	Name string

	Alignment int64 // Block alignment, a power of two

	// Small allocation settings (linear increments)
	SmallIncrement int64 // Step between small classes, a multiple of Alignment
	SmallMax       int64 // Largest linear class

	// Medium allocation settings (geometric growth)
	MediumMax    int64   // Largest bucketed class; larger requests go to the large class
	GrowthFactor float64 // Ratio between consecutive medium classes

	LargeAlign int64 // Rounding for large requests, a power of two
}

// Predefined configurations.
var (
	// ConfigFine: many buckets, little internal fragmentation.
	ConfigFine = Config{
		Name:           "Fine",
		Alignment:      format.DefaultAlignment,
		SmallIncrement: 16,
		SmallMax:       256,
		MediumMax:      16384,
		GrowthFactor:   1.25,
		LargeAlign:     format.PageSize,
	}

	// ConfigBalanced: good balance between class count and granularity.
	ConfigBalanced = Config{
		Name:           "Balanced",
		Alignment:      format.DefaultAlignment,
		SmallIncrement: 16,
		SmallMax:       512,
		MediumMax:      65536,
		GrowthFactor:   1.5,
		LargeAlign:     format.PageSize,
	}

	// ConfigCoarse: few buckets, faster lookups, more rounding waste.
	ConfigCoarse = Config{
		Name:           "Coarse",
		Alignment:      format.DefaultAlignment,
		SmallIncrement: 32,
		SmallMax:       512,
		MediumMax:      65536,
		GrowthFactor:   2.0,
		LargeAlign:     format.PageSize,
	}

	// DefaultConfig is used when none is specified.
	DefaultConfig = ConfigBalanced
)

// Presets lists the predefined configurations by name.
var Presets = map[string]Config{
	"fine":     ConfigFine,
	"balanced": ConfigBalanced,
	"coarse":   ConfigCoarse,
}

// Validate checks the internal consistency of c.
func (c Config) Validate() error {
	switch {
	case !format.IsPow2(c.Alignment):
		return fmt.Errorf("%w: alignment %d is not a power of two", ErrBadConfig, c.Alignment)
	case c.SmallIncrement <= 0 || !format.IsAligned(c.SmallIncrement, c.Alignment):
		return fmt.Errorf("%w: small increment %d must be a positive multiple of %d", ErrBadConfig, c.SmallIncrement, c.Alignment)
	case c.SmallMax < c.SmallIncrement:
		return fmt.Errorf("%w: small max %d below increment %d", ErrBadConfig, c.SmallMax, c.SmallIncrement)
	case c.MediumMax < c.SmallMax:
		return fmt.Errorf("%w: medium max %d below small max %d", ErrBadConfig, c.MediumMax, c.SmallMax)
	case c.MediumMax > c.SmallMax && c.GrowthFactor <= 1:
		return fmt.Errorf("%w: growth factor %.2f must exceed 1", ErrBadConfig, c.GrowthFactor)
	case !format.IsPow2(c.LargeAlign) || c.LargeAlign < c.Alignment:
		return fmt.Errorf("%w: large align %d must be a power of two >= alignment", ErrBadConfig, c.LargeAlign)
	}
	return nil
}

// Table holds the computed class sizes.
type Table struct {
	config Config
	sizes  []int64 // Size of each bucketed class, ascending
}

// New computes the class table for config.
func New(config Config) (*Table, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	t := &Table{
		config: config,
		sizes:  make([]int64, 0, 64),
	}

	// Phase 1: small classes (linear increments)
	var size int64
	for size = config.SmallIncrement; size <= config.SmallMax; size += config.SmallIncrement {
		t.sizes = append(t.sizes, size)
	}

	// Phase 2: medium classes (geometric growth)
	size = t.sizes[len(t.sizes)-1]
	for size < config.MediumMax {
		next := format.Align(int64(math.Ceil(float64(size)*config.GrowthFactor)), config.Alignment)
		if next <= size {
			next = size + config.Alignment // Ensure progress
		}
		next = min(next, format.Align(config.MediumMax, config.Alignment))
		t.sizes = append(t.sizes, next)
		size = next
	}
	return t, nil
}

// MustNew is New for known-good configs such as the presets.
func MustNew(config Config) *Table {
	t, err := New(config)
	if err != nil {
		panic(err)
	}
	return t
}

// Config returns the configuration the table was built from.
func (t *Table) Config() Config { return t.config }

// NumClasses returns the number of bucketed classes (excluding the large class).
func (t *Table) NumClasses() int { return len(t.sizes) }

// Large returns the index of the large class.
func (t *Table) Large() int { return len(t.sizes) }

// Alignment returns the alignment every class size honours.
func (t *Table) Alignment() int64 { return t.config.Alignment }

// MaxBucketed returns the size of the largest bucketed class.
func (t *Table) MaxBucketed() int64 { return t.sizes[len(t.sizes)-1] }

// ClassSize returns the size of class c. The large class has no fixed size
// and reports 0.
func (t *Table) ClassSize(c int) int64 {
	if c < 0 || c >= len(t.sizes) {
		return 0
	}
	return t.sizes[c]
}

// Class returns the class a request of size bytes is served from: the
// smallest class whose size is >= size, or the large class.
func (t *Table) Class(size int64) int {
	c, _ := slices.BinarySearch(t.sizes, size)
	return c
}

// Round returns the number of bytes actually handed out for a request of
// size bytes.
func (t *Table) Round(size int64) int64 {
	if size <= 0 {
		return 0
	}
	c := t.Class(size)
	if c < len(t.sizes) {
		return t.sizes[c]
	}
	return format.Align(size, t.config.LargeAlign)
}

// FloorClass returns the class a free block of size bytes is filed under:
// the largest class whose size is <= size, so that every block in class c
// can serve any request rounded to class c. Blocks smaller than the first
// class are filed under class 0.
func (t *Table) FloorClass(size int64) int {
	if size > t.MaxBucketed() {
		return t.Large()
	}
	c, found := slices.BinarySearch(t.sizes, size)
	if found {
		return c
	}
	return max(c-1, 0)
}

// String returns a human-readable description of the table.
func (t *Table) String() string {
	return fmt.Sprintf("%s(%d classes, %d..%d)", t.config.Name, len(t.sizes), t.sizes[0], t.MaxBucketed())
}
