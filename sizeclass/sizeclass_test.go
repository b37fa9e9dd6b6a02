package sizeclass

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_PresetsAreValid(t *testing.T) {
	for name, cfg := range Presets {
		tbl, err := New(cfg)
		require.NoError(t, err, name)
		require.Positive(t, tbl.NumClasses(), name)
		require.Equal(t, tbl.NumClasses(), tbl.Large())
	}
}

func TestTable_ClassSizesAscendingAndAligned(t *testing.T) {
	for name, cfg := range Presets {
		tbl := MustNew(cfg)
		prev := int64(0)
		for c := range tbl.NumClasses() {
			sz := tbl.ClassSize(c)
			require.Greater(t, sz, prev, "%s class %d", name, c)
			require.Zero(t, sz%cfg.Alignment, "%s class %d size %d unaligned", name, c, sz)
			prev = sz
		}
		require.Equal(t, cfg.MediumMax, tbl.MaxBucketed(), name)
	}
}

func TestTable_RoundBalanced(t *testing.T) {
	tbl := MustNew(ConfigBalanced)

	require.Equal(t, int64(16), tbl.Round(1))
	require.Equal(t, int64(16), tbl.Round(16))
	require.Equal(t, int64(32), tbl.Round(17))
	require.Equal(t, int64(512), tbl.Round(500))
	require.Equal(t, int64(768), tbl.Round(513), "first geometric class is 512*1.5")
	require.Equal(t, int64(0), tbl.Round(0))

	// Large requests round to pages.
	require.Equal(t, int64(65536+4096), tbl.Round(65537))
	require.Equal(t, tbl.Large(), tbl.Class(65537))
}

func TestTable_RoundNeverShrinksRequest(t *testing.T) {
	tbl := MustNew(ConfigFine)
	for size := int64(1); size < 40000; size += 7 {
		r := tbl.Round(size)
		require.GreaterOrEqual(t, r, size)
		require.Zero(t, r%tbl.Alignment())
	}
}

func TestTable_FloorClass(t *testing.T) {
	tbl := MustNew(ConfigCoarse)

	require.Equal(t, 0, tbl.FloorClass(16), "smaller than first class files under 0")
	require.Equal(t, 0, tbl.FloorClass(32))
	require.Equal(t, 0, tbl.FloorClass(48))
	require.Equal(t, 1, tbl.FloorClass(64))
	require.Equal(t, tbl.Large(), tbl.FloorClass(tbl.MaxBucketed()+16))
	require.Equal(t, tbl.NumClasses()-1, tbl.FloorClass(tbl.MaxBucketed()))
}

func TestTable_FloorClassServesRoundedRequests(t *testing.T) {
	tbl := MustNew(ConfigBalanced)
	for size := int64(16); size <= tbl.MaxBucketed(); size += 16 {
		c := tbl.FloorClass(size)
		if c == 0 && size < tbl.ClassSize(0) {
			continue
		}
		require.GreaterOrEqual(t, size, tbl.ClassSize(c), "block of %d filed too high", size)
		if c+1 < tbl.NumClasses() {
			require.Less(t, size, tbl.ClassSize(c+1), "block of %d filed too low", size)
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	bad := []Config{
		{Alignment: 12, SmallIncrement: 12, SmallMax: 24, MediumMax: 24, LargeAlign: 4096},
		{Alignment: 16, SmallIncrement: 24, SmallMax: 48, MediumMax: 48, LargeAlign: 4096},
		{Alignment: 16, SmallIncrement: 16, SmallMax: 8, MediumMax: 64, LargeAlign: 4096},
		{Alignment: 16, SmallIncrement: 16, SmallMax: 64, MediumMax: 32, LargeAlign: 4096},
		{Alignment: 16, SmallIncrement: 16, SmallMax: 64, MediumMax: 256, GrowthFactor: 1, LargeAlign: 4096},
		{Alignment: 16, SmallIncrement: 16, SmallMax: 64, MediumMax: 64, LargeAlign: 8},
	}
	for i, cfg := range bad {
		_, err := New(cfg)
		require.ErrorIs(t, err, ErrBadConfig, "config %d", i)
	}
}

func TestNew_LinearOnly(t *testing.T) {
	tbl, err := New(Config{
		Name: "Linear", Alignment: 8, SmallIncrement: 8, SmallMax: 64, MediumMax: 64, LargeAlign: 64,
	})
	require.NoError(t, err)
	require.Equal(t, 8, tbl.NumClasses())
	require.Equal(t, int64(128), tbl.Round(65))
	require.Contains(t, tbl.String(), "Linear")
}
