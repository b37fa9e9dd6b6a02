package budget

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBudget_Limit(t *testing.T) {
	b := New(100)

	require.NoError(t, b.Reserve(50))
	assert.Equal(t, int64(50), b.Used())

	require.NoError(t, b.Reserve(40))
	assert.Equal(t, int64(90), b.Used())

	err := b.Reserve(20)
	require.ErrorIs(t, err, ErrExceeded)
	assert.Equal(t, int64(90), b.Used(), "refused reservation must not be counted")

	b.Release(50)
	assert.Equal(t, int64(40), b.Used())

	require.NoError(t, b.Reserve(20))
	assert.Equal(t, int64(60), b.Used())
}

func TestBudget_Unlimited(t *testing.T) {
	b := New(0)
	require.NoError(t, b.Reserve(1<<30))
	assert.Equal(t, int64(1<<30), b.Used())
	assert.Zero(t, b.Limit())

	b.Release(1 << 29)
	assert.Equal(t, int64(1<<29), b.Used())
}

func TestBudget_Nil(t *testing.T) {
	var b *Budget
	require.NoError(t, b.Reserve(10))
	b.Release(10)
	assert.Zero(t, b.Used())
	assert.Zero(t, b.Limit())
}

func TestBudget_NonPositiveIgnored(t *testing.T) {
	b := New(10)
	require.NoError(t, b.Reserve(0))
	require.NoError(t, b.Reserve(-5))
	b.Release(-5)
	assert.Zero(t, b.Used())
}
