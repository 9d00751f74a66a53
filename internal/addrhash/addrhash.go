// Package addrhash derives per-channel IPv6 multicast group addresses from
// a base prefix and a channel URI, per the librecast addressing scheme.
package addrhash

import (
	"crypto/sha1"
	"encoding/binary"
	"errors"
	"net"
)

// ErrInvalidBaseAddr is returned when the supplied base address does not
// parse as an IPv6 address.
var ErrInvalidBaseAddr = errors.New("addrhash: invalid base address")

// GroupAddress computes the multicast group address for name within base,
// following flags. The mapping is:
//
//  1. digest := SHA1(name || big-endian(flags))
//  2. binaddr := 16-byte form of base
//  3. binaddr[2:16] ^= digest[0:14]
//
// The first two bytes of base (the multicast scope/flags nibbles) are left
// untouched, so the scope of base is always preserved in the result.
//
// flags is hashed in network byte order, unlike the C original which hashed
// it in host byte order (undefined for flags != 0); this makes GroupAddress
// well-defined for any flags value, not only 0.
func GroupAddress(base net.IP, name string, flags uint32) (net.IP, error) {
	binaddr := base.To16()
	if binaddr == nil {
		return nil, ErrInvalidBaseAddr
	}
	// copy so we never mutate the caller's IP
	addr := make(net.IP, 16)
	copy(addr, binaddr)

	var flagBytes [4]byte
	binary.BigEndian.PutUint32(flagBytes[:], flags)

	h := sha1.New()
	h.Write([]byte(name))
	h.Write(flagBytes[:])
	digest := h.Sum(nil)

	for i := 0; i < 14; i++ {
		addr[i+2] ^= digest[i]
	}

	return addr, nil
}
