// Package wire encodes and decodes the fixed header + payload librecast
// uses on the wire, and the SET payload sub-framing.
package wire

import (
	"encoding/binary"
	"errors"
)

// Opcode identifies the purpose of a message body.
type Opcode uint8

// SET is the only opcode the messaging substrate itself interprets; any
// other value is carried opaquely to the application callback.
const SET Opcode = 0x01

// HeaderSize is the packed, no-padding size of Header on the wire.
const HeaderSize = 8 + 8 + 1 + 8

// Header is the fixed framing that precedes every librecast payload.
//
//	offset  size  field
//	0       8     seq   (big-endian uint64)
//	8       8     rnd   (big-endian uint64)
//	16      1     op    (uint8 opcode)
//	17      8     len   (big-endian uint64)
type Header struct {
	Seq uint64
	Rnd uint64
	Op  Opcode
	Len uint64
}

// ErrTruncated is returned when a buffer is too short to hold a header, or
// when a header's declared Len exceeds the bytes actually available.
var ErrTruncated = errors.New("wire: truncated message")

// EncodeHeader writes h in wire format.
func EncodeHeader(h Header) []byte {
	buf := make([]byte, HeaderSize)
	binary.BigEndian.PutUint64(buf[0:8], h.Seq)
	binary.BigEndian.PutUint64(buf[8:16], h.Rnd)
	buf[16] = byte(h.Op)
	binary.BigEndian.PutUint64(buf[17:25], h.Len)
	return buf
}

// DecodeHeader parses a header from the front of buf. It does not validate
// that len(buf) covers Len bytes of payload; callers must do that against
// the actual datagram size with the returned Header before trusting Len.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, ErrTruncated
	}
	return Header{
		Seq: binary.BigEndian.Uint64(buf[0:8]),
		Rnd: binary.BigEndian.Uint64(buf[8:16]),
		Op:  Opcode(buf[16]),
		Len: binary.BigEndian.Uint64(buf[17:25]),
	}, nil
}

// Encode concatenates header and payload into a single outbound datagram.
func Encode(h Header, payload []byte) []byte {
	h.Len = uint64(len(payload))
	buf := make([]byte, 0, HeaderSize+len(payload))
	buf = append(buf, EncodeHeader(h)...)
	buf = append(buf, payload...)
	return buf
}

// Decode splits a received datagram into its header and payload. The
// receiver must not trust Len beyond the bytes actually delivered: if the
// header claims more payload than buf contains, Decode returns
// ErrTruncated and the datagram should be dropped.
func Decode(buf []byte) (Header, []byte, error) {
	h, err := DecodeHeader(buf)
	if err != nil {
		return Header{}, nil, err
	}
	rest := buf[HeaderSize:]
	if uint64(len(rest)) < h.Len {
		return Header{}, nil, ErrTruncated
	}
	payload := make([]byte, h.Len)
	copy(payload, rest[:h.Len])
	return h, payload, nil
}

// EncodeSetPayload frames a key/value SET body as
// [keylen (big-endian uint64) || key || value].
func EncodeSetPayload(key, value []byte) []byte {
	buf := make([]byte, 8+len(key)+len(value))
	binary.BigEndian.PutUint64(buf[0:8], uint64(len(key)))
	copy(buf[8:8+len(key)], key)
	copy(buf[8+len(key):], value)
	return buf
}

// DecodeSetPayload splits a SET body back into key and value; value length
// is inferred as len(payload) - 8 - keylen.
func DecodeSetPayload(payload []byte) (key, value []byte, err error) {
	if len(payload) < 8 {
		return nil, nil, ErrTruncated
	}
	keylen := binary.BigEndian.Uint64(payload[0:8])
	rest := payload[8:]
	if uint64(len(rest)) < keylen {
		return nil, nil, ErrTruncated
	}
	key = rest[:keylen]
	value = rest[keylen:]
	return key, value, nil
}
