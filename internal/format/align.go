package format

// Alignment utilities shared by the arena, the size-class table and the allocator.
// All alignments are powers of two so rounding is a mask operation.

// Align returns n rounded up to the next multiple of align.
// align must be a power of two.
//
// Example:
//
//	Align(1, 16)  = 16
//	Align(16, 16) = 16
//	Align(17, 16) = 32
func Align(n, align int64) int64 {
	mask := align - 1
	return (n + mask) &^ mask
}

// IsAligned reports whether n is a multiple of align.
func IsAligned(n, align int64) bool {
	return n&(align-1) == 0
}

// IsPow2 reports whether n is a positive power of two.
func IsPow2(n int64) bool {
	return n > 0 && n&(n-1) == 0
}

// AlignPage returns n rounded up to the next page boundary.
func AlignPage(n int64) int64 {
	return Align(n, PageSize)
}
