package alloc

import (
	"log/slog"

	"github.com/joshuapare/arenakit/region"
)

// Stats is a snapshot of allocator activity and arena occupancy.
type Stats struct {
	AllocCalls     int   // Allocate calls with a valid size
	FastPath       int   // Requests served from the free-list index
	SlowPath       int   // Requests served by carving fresh space
	Splits         int   // Free blocks split on reuse
	Frees          int   // Successful Deallocate calls
	Rejected       int   // Deallocate calls refused with ErrInvalidHandle
	OutOfMemory    int   // Allocate calls that failed with ErrOutOfMemory
	Resets         int   // Reset calls
	BytesAllocated int64 // Class-rounded bytes handed out
	BytesFreed     int64 // Class-rounded bytes returned

	Live      int   // Allocated blocks now
	LiveBytes int64 // Bytes held by Allocated blocks
	FreeCount int   // Blocks in the free-list index
	FreeBytes int64 // Bytes in the free-list index
	Largest   int64 // Largest free block

	CoalesceForward  int // Merges with the higher-address neighbour
	CoalesceBackward int // Merges with the lower-address neighbour

	Arena region.Stats
}

// Stats returns a snapshot of the allocator counters.
func (a *Allocator) Stats() Stats {
	fs := a.free.Stats()
	return Stats{
		AllocCalls:       a.stats.allocCalls,
		FastPath:         a.stats.fastPath,
		SlowPath:         a.stats.slowPath,
		Splits:           a.stats.splits,
		Frees:            a.stats.frees,
		Rejected:         a.stats.rejected,
		OutOfMemory:      a.stats.outOfMemory,
		Resets:           a.stats.resets,
		BytesAllocated:   a.stats.bytesAllocated,
		BytesFreed:       a.stats.bytesFreed,
		Live:             a.live,
		LiveBytes:        a.liveBytes,
		FreeCount:        a.free.Len(),
		FreeBytes:        a.free.Bytes(),
		Largest:          a.free.Largest(),
		CoalesceForward:  fs.CoalesceForward,
		CoalesceBackward: fs.CoalesceBackward,
		Arena:            a.arena.Stats(),
	}
}

// Fragmentation returns 1 - largest/free over the free-list index: 0 when all
// free space is one block (or there is none), approaching 1 as it scatters.
func (s Stats) Fragmentation() float64 {
	if s.FreeBytes == 0 {
		return 0
	}
	return 1 - float64(s.Largest)/float64(s.FreeBytes)
}

// FastPathRate returns the share of successful allocations served without
// carving.
func (s Stats) FastPathRate() float64 {
	n := s.FastPath + s.SlowPath
	if n == 0 {
		return 0
	}
	return float64(s.FastPath) / float64(n)
}

// LogValue groups the headline counters for structured logging.
func (s Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("alloc_calls", s.AllocCalls),
		slog.Int("frees", s.Frees),
		slog.Int("rejected", s.Rejected),
		slog.Int("out_of_memory", s.OutOfMemory),
		slog.Int("live", s.Live),
		slog.Int64("live_bytes", s.LiveBytes),
		slog.Int("free_blocks", s.FreeCount),
		slog.Int64("free_bytes", s.FreeBytes),
		slog.Int64("capacity", s.Arena.Capacity),
		slog.Int64("high_water", s.Arena.HighWater),
		slog.Int("grows", s.Arena.Grows),
		slog.Float64("fragmentation", s.Fragmentation()),
	)
}
