package randsrc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadFillsBuffer(t *testing.T) {
	buf := make([]byte, 32)
	err := Read(buf, 0)
	require.NoError(t, err)

	zero := make([]byte, 32)
	require.NotEqual(t, zero, buf, "expected non-zero random bytes")
}

func TestUint32AndUint64Distinct(t *testing.T) {
	a, err := Uint32()
	require.NoError(t, err)
	b, err := Uint32()
	require.NoError(t, err)
	require.NotEqual(t, a, b)

	x, err := Uint64()
	require.NoError(t, err)
	y, err := Uint64()
	require.NoError(t, err)
	require.NotEqual(t, x, y)
}
