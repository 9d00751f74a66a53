// Package bridge is the link-layer glue librecast uses to stand up a local
// multicast fabric: TAP interface creation and attaching it to a
// process-wide bridge. The spec treats this as out-of-scope "trivial glue
// around the hard part" (§1), so this package stays a thin, direct port of
// the C original's ioctl calls rather than a full netlink bridge manager.
package bridge

import (
	"errors"
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/librecast/librecast/internal/logging"
)

// DefaultBridgeName is the process-wide bridge every Context's TAP
// interface is attached to.
const DefaultBridgeName = "lcbr0"

const (
	tunDevice  = "/dev/net/tun"
	iffTap     = 0x0002
	iffNoPi    = 0x1000
	tunSetIff  = 0x400454ca
	sizeofIfr  = 40
	ifNameSize = 16
)

// Errors returned by this package, grouped with the rest of the
// "resource construction" error kind from the spec's taxonomy.
var (
	ErrTapOpen      = errors.New("bridge: failed to open tun device")
	ErrTapCreate    = errors.New("bridge: failed to create tap interface")
	ErrIfUp         = errors.New("bridge: failed to bring interface up")
	ErrBridgeAdd    = errors.New("bridge: failed to create bridge")
	ErrBridgeAttach = errors.New("bridge: failed to attach interface to bridge")
)

// TAP is a created TAP interface: a raw file descriptor and its
// kernel-assigned name.
type TAP struct {
	FD   int
	Name string
}

type ifReq struct {
	Name  [ifNameSize]byte
	Flags uint16
	_     [sizeofIfr - ifNameSize - 2]byte
}

// NewTAP opens /dev/net/tun, requests a fresh TAP interface (no packet
// info prefix, matching IFF_TAP|IFF_NO_PI in the C original) and brings it
// up. The caller owns the returned fd and must close it.
func NewTAP() (*TAP, error) {
	fd, err := unix.Open(tunDevice, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTapOpen, err)
	}

	var req ifReq
	req.Flags = iffTap | iffNoPi
	if err := ioctl(fd, tunSetIff, unsafe.Pointer(&req)); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("%w: %v", ErrTapCreate, err)
	}

	name := nullTerminatedString(req.Name[:])
	logging.Debug("created tap interface %s", name)

	if err := SetLinkUp(name); err != nil {
		unix.Close(fd)
		return nil, err
	}

	return &TAP{FD: fd, Name: name}, nil
}

// Close closes the TAP file descriptor. Safe to call on a nil TAP.
func (t *TAP) Close() error {
	if t == nil {
		return nil
	}
	return unix.Close(t.FD)
}

// SetLinkUp brings ifname administratively up, the Go equivalent of the C
// original's ioctl(SIOCSIFFLAGS) dance via a throwaway control socket.
func SetLinkUp(ifname string) error {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM, 0)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIfUp, err)
	}
	defer unix.Close(fd)

	var req ifReq
	copy(req.Name[:], ifname)

	if err := ioctl(fd, unix.SIOCGIFFLAGS, unsafe.Pointer(&req)); err != nil {
		return fmt.Errorf("%w: %v", ErrIfUp, err)
	}
	req.Flags |= unix.IFF_UP
	if err := ioctl(fd, unix.SIOCSIFFLAGS, unsafe.Pointer(&req)); err != nil {
		return fmt.Errorf("%w: %v", ErrIfUp, err)
	}

	return nil
}

func ioctl(fd int, request uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), request, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

func nullTerminatedString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
