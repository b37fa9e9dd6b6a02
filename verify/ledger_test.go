package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/arenakit/block"
)

type off int64

func (o off) Offset() int64 { return int64(o) }

func Test_Ledger_Outstanding(t *testing.T) {
	l := NewLedger()
	l.Issue(off(128))
	l.Issue(off(0))
	l.Issue(off(64))
	l.Release(off(0))

	assert.Equal(t, []int64{64, 128}, l.Outstanding())
	assert.Equal(t, 2, l.Len())
	assert.Equal(t, 3, l.Issued())
	assert.Equal(t, 1, l.Released())

	l.Reset()
	assert.Empty(t, l.Outstanding())
}

func Test_Ledger_CheckBothDirections(t *testing.T) {
	r := newRig(4096)
	r.carve(64) // 0: held by ledger
	b := r.carve(64)
	r.carve(64) // 128: not held by ledger
	_, err := r.free.Release(b)
	require.NoError(t, err)

	l := NewLedger()
	l.Issue(off(0))
	l.Issue(off(64)) // freed in the arena but the ledger never saw it

	rep := Audit(r, Options{Ledger: l})
	require.Equal(t, 2, rep.Count(KindLedger), rep.String())

	offs := []int64{rep.Violations[0].Off, rep.Violations[1].Off}
	assert.ElementsMatch(t, []int64{64, 128}, offs)
	for _, v := range rep.Violations {
		if v.Off == 64 {
			assert.Equal(t, block.Free, v.State)
		}
	}
}

func Test_Ledger_Misuse(t *testing.T) {
	l := NewLedger()
	l.Issue(off(0))
	l.Issue(off(0))
	l.Release(off(32))

	r := newRig(4096)
	r.carve(16)
	rep := Audit(r, Options{Ledger: l})
	assert.Equal(t, 2, rep.Count(KindLedger), rep.String())
}
