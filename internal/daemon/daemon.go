// Package daemon implements the lifecycle probe used to detect whether a
// sibling librecast daemon instance is running, via a PID lockfile.
package daemon

import (
	"os"
	"strconv"
	"strings"
	"syscall"
)

// DefaultLockfile is the conventional path a librecast daemon writes its
// PID to on startup.
const DefaultLockfile = "/var/run/librecastd.pid"

// Running reports whether the process whose PID is recorded in path is
// currently alive. Any failure reading or parsing the lockfile, or
// signalling the process, is treated as "not running" — there is no
// distinct error return, matching the probe's binary outcome in the spec.
func Running(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}

	pidStr := strings.TrimSpace(string(data))
	pid, err := strconv.ParseInt(pidStr, 10, 64)
	if err != nil {
		return false
	}

	// signal 0 performs no actual signalling, just existence/permission
	// checks, mirroring kill(pid, 0) in the C original.
	err = syscall.Kill(int(pid), syscall.Signal(0))
	return err == nil
}
