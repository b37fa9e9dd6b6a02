// Package format holds the layout constants and alignment arithmetic used by
// every layer of the arena. It has no dependencies so that the leaf packages
// (block, sizeclass, region) can share one definition of "aligned".
package format

const (
	// PageSize is the granularity the arena grows in.
	PageSize = 4096

	// DefaultAlignment is the alignment of every block offset and size.
	DefaultAlignment = 16

	// MaxArenaSize caps a single arena. Offsets stay well inside int64 and
	// handle offsets fit in the 48 bits the auditor ledger keys on.
	MaxArenaSize int64 = 1 << 40
)
