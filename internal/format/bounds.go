package format

import "math"

// AddChecked returns a + b, with ok = false when the sum would overflow int64.
func AddChecked(a, b int64) (int64, bool) {
	switch {
	case b > 0 && a > math.MaxInt64-b:
		return 0, false
	case b < 0 && a < math.MinInt64-b:
		return 0, false
	default:
		return a + b, true
	}
}

// Slice returns data[off : off+n] with its capacity clipped to n, or ok =
// false when the range is negative, overflows or extends beyond limit.
// Pass len(data) as limit to bound by the slice itself.
func Slice(data []byte, off, n, limit int64) ([]byte, bool) {
	if off < 0 || n < 0 || limit > int64(len(data)) {
		return nil, false
	}
	end, ok := AddChecked(off, n)
	if !ok || end > limit {
		return nil, false
	}
	return data[off:end:end], true
}
