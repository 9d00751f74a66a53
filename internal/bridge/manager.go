package bridge

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/librecast/librecast/internal/logging"
)

// Linux bridge ioctls, historically exposed by libbridge (brctl); not
// present in golang.org/x/sys/unix as named constants, so kept as raw
// request numbers the way the C original's <linux/if_bridge.h> does.
const (
	sioctlBrAddBr = 0x89a0
	sioctlBrDelBr = 0x89a1
	sioctlBrAddIf = 0x89a2
)

// Manager creates and populates the process-wide bridge interface a
// Context's TAP is attached to. It is defined as an interface so tests can
// substitute a fake that doesn't require real netlink privileges.
type Manager interface {
	EnsureBridge(name string) error
	AttachInterface(bridgeName, ifaceName string) error
}

// LinuxManager drives the real kernel bridge ioctls.
type LinuxManager struct{}

var _ Manager = LinuxManager{}

// EnsureBridge creates name if it doesn't already exist, and brings it up.
// Idempotent: an already-existing bridge is not an error.
func (LinuxManager) EnsureBridge(name string) error {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM, 0)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBridgeAdd, err)
	}
	defer unix.Close(fd)

	namePtr, err := bytePointer(name)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBridgeAdd, err)
	}

	if err := ioctl(fd, sioctlBrAddBr, namePtr); err != nil {
		if errors.Is(err, unix.EEXIST) {
			logging.Debug("bridge %s already exists", name)
		} else {
			return fmt.Errorf("%w: %v", ErrBridgeAdd, err)
		}
	} else {
		logging.Debug("bridge %s created", name)
	}

	return SetLinkUp(name)
}

// AttachInterface adds ifaceName as a port of bridgeName.
func (LinuxManager) AttachInterface(bridgeName, ifaceName string) error {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM, 0)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBridgeAttach, err)
	}
	defer unix.Close(fd)

	ifIndex, err := unix.IfNameToIndex(ifaceName)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBridgeAttach, err)
	}

	var req ifReq
	copy(req.Name[:], bridgeName)
	// the kernel ABI packs the attached interface's index where the ifreq
	// union would carry ifr_ifindex
	*(*int32)(unsafe.Pointer(&req.Flags)) = int32(ifIndex)

	if err := ioctl(fd, sioctlBrAddIf, unsafe.Pointer(&req)); err != nil {
		return fmt.Errorf("%w: %v", ErrBridgeAttach, err)
	}

	logging.Debug("attached %s to bridge %s", ifaceName, bridgeName)
	return nil
}

func bytePointer(s string) (unsafe.Pointer, error) {
	b, err := unix.BytePtrFromString(s)
	if err != nil {
		return nil, err
	}
	return unsafe.Pointer(b), nil
}

// FakeManager is an in-memory Manager used by tests that must not touch
// real kernel networking state.
type FakeManager struct {
	Bridges  map[string]bool
	Attached map[string][]string
}

var _ Manager = (*FakeManager)(nil)

func NewFakeManager() *FakeManager {
	return &FakeManager{Bridges: map[string]bool{}, Attached: map[string][]string{}}
}

func (f *FakeManager) EnsureBridge(name string) error {
	f.Bridges[name] = true
	return nil
}

func (f *FakeManager) AttachInterface(bridgeName, ifaceName string) error {
	if !f.Bridges[bridgeName] {
		return fmt.Errorf("bridge %s does not exist", bridgeName)
	}
	f.Attached[bridgeName] = append(f.Attached[bridgeName], ifaceName)
	return nil
}
