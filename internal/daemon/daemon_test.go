package daemon

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunningTrueForSelf(t *testing.T) {
	path := filepath.Join(t.TempDir(), "librecastd.pid")
	require.NoError(t, os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644))
	require.True(t, Running(path))
}

func TestRunningFalseMissingLockfile(t *testing.T) {
	require.False(t, Running(filepath.Join(t.TempDir(), "does-not-exist.pid")))
}

func TestRunningFalseGarbagePid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "librecastd.pid")
	require.NoError(t, os.WriteFile(path, []byte("not-a-pid"), 0o644))
	require.False(t, Running(path))
}

func TestRunningFalseForImplausiblePid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "librecastd.pid")
	// PID far beyond any real process; kill(2) should return ESRCH.
	require.NoError(t, os.WriteFile(path, []byte("999999999"), 0o644))
	require.False(t, Running(path))
}
