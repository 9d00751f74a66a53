package librecast

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestContext(t *testing.T) *Context {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "librecast.db")
	ctx, err := NewContext(WithDatabasePath(dbPath), WithoutNetworking())
	require.NoError(t, err)
	t.Cleanup(func() { ctx.Close() })
	return ctx
}

func TestNewContextAssignsID(t *testing.T) {
	ctx := newTestContext(t)
	id, err := ctx.ID()
	require.NoError(t, err)
	require.NotZero(t, id)
}

func TestContextIDOnNilReceiver(t *testing.T) {
	var ctx *Context
	_, err := ctx.ID()
	require.ErrorIs(t, err, ErrCtxRequired)
}

func TestContextCloseIsIdempotent(t *testing.T) {
	ctx := newTestContext(t)
	require.NoError(t, ctx.Close())
	require.NoError(t, ctx.Close())
}

func TestContextCloseOnNilIsSafe(t *testing.T) {
	var ctx *Context
	require.NoError(t, ctx.Close())
}

func TestNewContextWithoutNetworkingHasNoTap(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "librecast.db")
	// WithoutNetworking is the norm for tests since TAP creation needs
	// CAP_NET_ADMIN; here we only confirm that a distinct database path
	// produces a fresh, independently closable Context.
	ctx, err := NewContext(WithDatabasePath(dbPath), WithoutNetworking())
	require.NoError(t, err)
	require.Empty(t, ctx.TapName())
	require.NoError(t, ctx.Close())
}
