package bridge

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFakeManagerEnsureBridgeIdempotent(t *testing.T) {
	m := NewFakeManager()
	require.NoError(t, m.EnsureBridge("lcbr0"))
	require.NoError(t, m.EnsureBridge("lcbr0"))
	require.True(t, m.Bridges["lcbr0"])
}

func TestFakeManagerAttachRequiresBridge(t *testing.T) {
	m := NewFakeManager()
	err := m.AttachInterface("lcbr0", "tap0")
	require.Error(t, err)
}

func TestFakeManagerAttachInterface(t *testing.T) {
	m := NewFakeManager()
	require.NoError(t, m.EnsureBridge("lcbr0"))
	require.NoError(t, m.AttachInterface("lcbr0", "tap0"))
	require.Contains(t, m.Attached["lcbr0"], "tap0")
}
