package format

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddChecked(t *testing.T) {
	sum, ok := AddChecked(10, 5)
	require.True(t, ok)
	require.Equal(t, int64(15), sum)

	_, ok = AddChecked(math.MaxInt64, 1)
	require.False(t, ok, "expected overflow when adding to MaxInt64")
	_, ok = AddChecked(math.MinInt64, -1)
	require.False(t, ok, "expected underflow when subtracting from MinInt64")
}

func TestSlice(t *testing.T) {
	data := []byte{0, 1, 2, 3, 4}

	got, ok := Slice(data, 1, 3, int64(len(data)))
	require.True(t, ok)
	require.Equal(t, []byte{1, 2, 3}, got)
	require.Equal(t, 3, cap(got))

	_, ok = Slice(data, 4, 2, int64(len(data)))
	require.False(t, ok, "range beyond len")
	_, ok = Slice(data, 2, 2, 3)
	require.False(t, ok, "range beyond limit")
	_, ok = Slice(data, -1, 1, 5)
	require.False(t, ok, "negative offset")
	_, ok = Slice(data, 1, -1, 5)
	require.False(t, ok, "negative length")
	_, ok = Slice(data, 1, math.MaxInt64, 5)
	require.False(t, ok, "overflow")
	_, ok = Slice(data, 0, 1, 6)
	require.False(t, ok, "limit beyond len")
}
