package backing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func eachKind(t *testing.T, fn func(t *testing.T, kind Kind)) {
	t.Helper()
	for _, kind := range []Kind{Heap, Mmap} {
		t.Run(kind.String(), func(t *testing.T) {
			fn(t, kind)
		})
	}
}

func TestStore_GrowPreservesContents(t *testing.T) {
	eachKind(t, func(t *testing.T, kind Kind) {
		s, err := New(kind, 4096)
		require.NoError(t, err)
		defer s.Close()

		data := s.Bytes()
		require.Len(t, data, 4096)
		for i := range data {
			data[i] = byte(i)
		}

		require.NoError(t, s.Grow(3*4096))
		require.Equal(t, int64(3*4096), s.Len())

		grown := s.Bytes()
		for i := range 4096 {
			require.Equal(t, byte(i), grown[i], "byte %d lost on grow", i)
		}
		require.Zero(t, grown[4096], "new space must be zeroed")
	})
}

func TestStore_GrowSmallerIsNoop(t *testing.T) {
	eachKind(t, func(t *testing.T, kind Kind) {
		s, err := New(kind, 8192)
		require.NoError(t, err)
		defer s.Close()

		require.NoError(t, s.Grow(100))
		require.Equal(t, int64(8192), s.Len())
	})
}

func TestStore_ZeroLength(t *testing.T) {
	eachKind(t, func(t *testing.T, kind Kind) {
		s, err := New(kind, 0)
		require.NoError(t, err)
		require.Zero(t, s.Len())
		require.NoError(t, s.Grow(4096))
		require.Equal(t, int64(4096), s.Len())
		require.NoError(t, s.Close())
	})
}

func TestStore_CloseTwiceAndUseAfterClose(t *testing.T) {
	eachKind(t, func(t *testing.T, kind Kind) {
		s, err := New(kind, 4096)
		require.NoError(t, err)
		require.NoError(t, s.Close())
		require.NoError(t, s.Close())
		require.ErrorIs(t, s.Grow(8192), ErrClosed)
	})
}

func TestNew_NegativeSize(t *testing.T) {
	_, err := New(Heap, -1)
	require.ErrorIs(t, err, ErrNegativeSize)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("mmap")
	require.NoError(t, err)
	require.Equal(t, Mmap, k)

	k, err = ParseKind("")
	require.NoError(t, err)
	require.Equal(t, Heap, k)

	_, err = ParseKind("shm")
	require.Error(t, err)
}
