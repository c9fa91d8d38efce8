package conv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUint64ToInt64(t *testing.T) {
	got, err := Uint64ToInt64(math.MaxInt64)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), got)

	_, err = Uint64ToInt64(math.MaxInt64 + 1)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestUint64ToInt(t *testing.T) {
	got, err := Uint64ToInt(42)
	require.NoError(t, err)
	assert.Equal(t, 42, got)

	_, err = Uint64ToInt(math.MaxUint64)
	assert.ErrorIs(t, err, ErrOverflow)
}
