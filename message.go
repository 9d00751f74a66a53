package librecast

import "net"

// Opcode mirrors internal/wire.Opcode at the public API surface.
type Opcode = uint8

// OpSet is the only opcode the messaging substrate itself acts on.
const OpSet Opcode = 0x01

// Payload is the ownership strategy for a Message's bytes. It replaces the
// C original's pointer-plus-free-hook design (§9 REDESIGN FLAGS:
// "Pointer-based Message with a user-provided free function should become
// ownership of the payload via a sum type") with two concrete
// implementations: an inline owned buffer, or a view into externally-owned
// memory plus a release callback.
type Payload interface {
	// Bytes returns the payload content. The returned slice must not be
	// retained past Release being called.
	Bytes() []byte
	// Release returns ownership of any external memory backing the
	// payload. It is safe to call multiple times.
	Release()
}

// ownedPayload is a Payload backed by a buffer allocated and owned by
// librecast itself (e.g. freshly read off the wire); Release is a no-op
// and the buffer is reclaimed by the garbage collector.
type ownedPayload struct {
	data []byte
}

func (p ownedPayload) Bytes() []byte { return p.data }
func (p ownedPayload) Release()      {}

// NewPayload wraps data as an owned payload: a straightforward copy-free
// buffer whose lifetime is managed by Go's garbage collector.
func NewPayload(data []byte) Payload {
	return ownedPayload{data: data}
}

// viewPayload is a Payload over memory owned by the caller; release is
// invoked exactly once when librecast is done with the bytes (e.g. after a
// datagram carrying them has been written).
type viewPayload struct {
	data    []byte
	release func()
	done    bool
}

func (p *viewPayload) Bytes() []byte { return p.data }
func (p *viewPayload) Release() {
	if p.done {
		return
	}
	p.done = true
	if p.release != nil {
		p.release()
	}
}

// NewViewPayload wraps data, a slice the caller continues to own, with a
// release hook librecast calls exactly once when it is finished with the
// bytes (e.g. immediately after Channel.Send writes them to the wire).
func NewViewPayload(data []byte, release func()) Payload {
	return &viewPayload{data: data, release: release}
}

// Message is the in-memory representation of a librecast datagram, either
// about to be sent or just received.
type Message struct {
	Seq     uint64
	Rnd     uint64
	Op      Opcode
	Payload Payload

	// SocketID is the id of the Socket a received Message arrived on; zero
	// for an outbound Message that has not yet been sent.
	SocketID uint32
	Src      net.IP
	Dst      net.IP
}

// NewMessage builds an outbound Message with the given opcode, wrapping
// payload as an owned payload without copying it.
func NewMessage(op Opcode, payload []byte) *Message {
	return &Message{Op: op, Payload: NewPayload(payload)}
}

// Data returns the message's payload bytes, or nil if the message carries
// no payload.
func (m *Message) Data() []byte {
	if m == nil || m.Payload == nil {
		return nil
	}
	return m.Payload.Bytes()
}

// Free releases the message's payload, matching lc_msg_free's ownership
// release semantics in the C original for non-owned payloads.
func (m *Message) Free() {
	if m == nil || m.Payload == nil {
		return
	}
	m.Payload.Release()
}
