package freelist

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/arenakit/block"
	"github.com/joshuapare/arenakit/sizeclass"
)

func newTestIndex(t testing.TB) (*Index, *block.Table) {
	t.Helper()
	tbl := block.NewTable()
	return New(sizeclass.MustNew(sizeclass.ConfigBalanced), tbl), tbl
}

// addAllocated lays out contiguous Allocated blocks starting at 0.
func addAllocated(tbl *block.Table, sizes ...int64) []block.ID {
	ids := make([]block.ID, 0, len(sizes))
	var off int64
	for _, sz := range sizes {
		ids = append(ids, tbl.Add(block.Descriptor{Off: off, Size: sz, State: block.Allocated}))
		off += sz
	}
	return ids
}

func TestIndex_FindEmpty(t *testing.T) {
	x, _ := newTestIndex(t)
	id, ok := x.Find(16)
	require.False(t, ok)
	require.Equal(t, block.None, id)
}

func TestIndex_FindBestFit(t *testing.T) {
	x, tbl := newTestIndex(t)
	ids := addAllocated(tbl, 256, 64, 128, 64, 96, 64)
	// Free 256, 128, 96 (non-adjacent so nothing merges).
	for _, i := range []int{0, 2, 4} {
		_, err := x.Release(ids[i])
		require.NoError(t, err)
	}
	require.Equal(t, 3, x.Len())

	id, ok := x.Find(80)
	require.True(t, ok)
	require.Equal(t, ids[4], id, "96 is the smallest block >= 80")

	id, ok = x.Find(112)
	require.True(t, ok)
	require.Equal(t, ids[2], id)

	id, ok = x.Find(200)
	require.True(t, ok)
	require.Equal(t, ids[0], id, "served from a next-larger class")

	_, ok = x.Find(512)
	require.False(t, ok)
}

func TestIndex_FindTieBreaksOnLowestAddress(t *testing.T) {
	x, tbl := newTestIndex(t)
	ids := addAllocated(tbl, 64, 16, 64, 16, 64, 16)
	for _, i := range []int{4, 0, 2} {
		_, err := x.Release(ids[i])
		require.NoError(t, err)
	}

	id, ok := x.Find(64)
	require.True(t, ok)
	require.Equal(t, ids[0], id)

	require.True(t, x.Remove(ids[0]))
	id, ok = x.Find(64)
	require.True(t, ok)
	require.Equal(t, ids[2], id)
}

func TestIndex_ReleaseCoalescesBothSides(t *testing.T) {
	x, tbl := newTestIndex(t)
	ids := addAllocated(tbl, 64, 64, 64)
	a, b, c := ids[0], ids[1], ids[2]

	_, err := x.Release(a)
	require.NoError(t, err)
	_, err = x.Release(c)
	require.NoError(t, err)
	require.Equal(t, 2, x.Len(), "A and C are not adjacent")

	merged, err := x.Release(b)
	require.NoError(t, err)
	require.Equal(t, 1, x.Len())
	require.Equal(t, 1, tbl.Len(), "merged-away descriptors are dropped")

	d, ok := tbl.Get(merged)
	require.True(t, ok)
	require.Equal(t, int64(0), d.Off)
	require.Equal(t, int64(192), d.Size)
	require.Equal(t, block.Free, d.State)

	id, ok := x.Find(192)
	require.True(t, ok)
	require.Equal(t, merged, id)

	st := x.Stats()
	require.Equal(t, 1, st.CoalesceForward)
	require.Equal(t, 1, st.CoalesceBackward)
}

func TestIndex_FindMergedBlockBetweenClassSizes(t *testing.T) {
	x, tbl := newTestIndex(t)
	ids := addAllocated(tbl, 1024, 1024, 1024, 16)

	var merged block.ID
	for _, i := range []int{0, 2, 1} {
		var err error
		merged, err = x.Release(ids[i])
		require.NoError(t, err)
	}
	require.Equal(t, 1, x.Len())

	d, ok := tbl.Get(merged)
	require.True(t, ok)
	require.Equal(t, int64(3072), d.Size)
	classes := sizeclass.MustNew(sizeclass.ConfigBalanced)
	require.NotEqual(t, int64(3072), classes.ClassSize(d.Class), "3072 must not be a class size")

	id, ok := x.Find(3072)
	require.True(t, ok, "a free block of exactly 3072 bytes exists")
	require.Equal(t, merged, id)

	id, ok = x.Find(2000)
	require.True(t, ok)
	require.Equal(t, merged, id)

	_, ok = x.Find(3073)
	require.False(t, ok)
}

func TestIndex_ReleaseRejectsFreeBlock(t *testing.T) {
	x, tbl := newTestIndex(t)
	ids := addAllocated(tbl, 64)
	_, err := x.Release(ids[0])
	require.NoError(t, err)

	_, err = x.Release(ids[0])
	require.ErrorIs(t, err, ErrNotAllocated)
	_, err = x.Release(block.ID(42))
	require.ErrorIs(t, err, ErrNotAllocated)
	require.Equal(t, 1, x.Len())
}

func TestIndex_ContainsAndRemove(t *testing.T) {
	x, tbl := newTestIndex(t)
	ids := addAllocated(tbl, 64, 32)
	require.False(t, x.Contains(ids[0]))

	_, err := x.Release(ids[0])
	require.NoError(t, err)
	require.True(t, x.Contains(ids[0]))
	require.Equal(t, int64(64), x.Bytes())

	require.True(t, x.Remove(ids[0]))
	require.False(t, x.Remove(ids[0]), "already removed")
	require.Zero(t, x.Len())
	require.Zero(t, x.Bytes())
}

func TestIndex_LargeClass(t *testing.T) {
	x, tbl := newTestIndex(t)
	classes := sizeclass.MustNew(sizeclass.ConfigBalanced)
	ids := addAllocated(tbl, 1<<20, 16, 1<<19, 16)
	_, err := x.Release(ids[0])
	require.NoError(t, err)
	_, err = x.Release(ids[2])
	require.NoError(t, err)

	require.Equal(t, 2, x.ClassLen(classes.Large()))

	id, ok := x.Find(600 << 10)
	require.True(t, ok)
	require.Equal(t, ids[0], id, "512KiB block is too small, only 1MiB fits")

	id, ok = x.Find(300 << 10)
	require.True(t, ok)
	require.Equal(t, ids[2], id)
	require.Equal(t, int64(1<<20), x.Largest())
}

func TestIndex_Reset(t *testing.T) {
	x, tbl := newTestIndex(t)
	ids := addAllocated(tbl, 64, 16, 64)
	_, _ = x.Release(ids[0])
	_, _ = x.Release(ids[2])

	x.Reset()
	require.Zero(t, x.Len())
	require.Zero(t, x.Bytes())
	_, ok := x.Find(16)
	require.False(t, ok)
	require.Zero(t, x.Largest())
}

func TestIndex_WalkOrderAndStop(t *testing.T) {
	x, tbl := newTestIndex(t)
	ids := addAllocated(tbl, 64, 16, 32, 16, 64, 16)
	for _, i := range []int{0, 2, 4} {
		_, _ = x.Release(ids[i])
	}

	var sizes []int64
	x.Walk(func(_ int, _ block.ID, _, size int64) bool {
		sizes = append(sizes, size)
		return true
	})
	require.Equal(t, []int64{32, 64, 64}, sizes)

	n := 0
	x.Walk(func(int, block.ID, int64, int64) bool {
		n++
		return false
	})
	require.Equal(t, 1, n)
}

// Test_Fuzz_ReleaseNeverLeavesAdjacentFree frees random blocks of a tiled
// table and checks that no two Free blocks ever touch.
func Test_Fuzz_ReleaseNeverLeavesAdjacentFree(t *testing.T) {
	x, tbl := newTestIndex(t)
	rng := rand.New(rand.NewSource(42)) // Fixed seed for reproducibility

	sizes := make([]int64, 200)
	for i := range sizes {
		sizes[i] = int64(16 * (1 + rng.Intn(32)))
	}
	ids := addAllocated(tbl, sizes...)
	rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })

	var total int64
	for _, s := range sizes {
		total += s
	}

	for step, id := range ids {
		_, err := x.Release(id)
		require.NoError(t, err, "step %d", step)

		var prev block.Descriptor
		var covered int64
		for i, e := range tbl.ByOffset() {
			if i > 0 {
				require.Equal(t, prev.End(), e.Off, "step %d: gap or overlap", step)
				require.False(t, prev.State == block.Free && e.State == block.Free,
					"step %d: adjacent free blocks at 0x%X and 0x%X", step, prev.Off, e.Off)
			}
			covered += e.Size
			prev = e.Descriptor
		}
		require.Equal(t, total, covered, "step %d", step)
	}

	require.Equal(t, 1, x.Len())
	require.Equal(t, total, x.Bytes())
}
