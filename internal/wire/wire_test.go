package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeaderRoundtrip(t *testing.T) {
	h := Header{Seq: 42, Rnd: 0xdeadbeef, Op: SET, Len: 5}
	encoded := Encode(h, []byte("hello"))

	decodedHeader, payload, err := Decode(encoded)
	require.NoError(t, err)
	require.Equal(t, h.Seq, decodedHeader.Seq)
	require.Equal(t, h.Rnd, decodedHeader.Rnd)
	require.Equal(t, h.Op, decodedHeader.Op)
	require.Equal(t, h.Len, decodedHeader.Len)
	require.Equal(t, []byte("hello"), payload)
}

func TestDecodeRejectsTruncatedHeader(t *testing.T) {
	_, _, err := Decode([]byte{1, 2, 3})
	require.ErrorIs(t, err, ErrTruncated)
}

func TestDecodeRejectsLenBeyondDatagram(t *testing.T) {
	h := Header{Seq: 1, Rnd: 1, Op: SET, Len: 100}
	buf := EncodeHeader(h)
	buf = append(buf, []byte("short")...)

	_, _, err := Decode(buf)
	require.ErrorIs(t, err, ErrTruncated)
}

func TestSetPayloadRoundtrip(t *testing.T) {
	payload := EncodeSetPayload([]byte("mykey"), []byte("myvalue"))
	key, value, err := DecodeSetPayload(payload)
	require.NoError(t, err)
	require.Equal(t, []byte("mykey"), key)
	require.Equal(t, []byte("myvalue"), value)
}

func TestSetPayloadEmptyValue(t *testing.T) {
	payload := EncodeSetPayload([]byte("k"), nil)
	key, value, err := DecodeSetPayload(payload)
	require.NoError(t, err)
	require.Equal(t, []byte("k"), key)
	require.Empty(t, value)
}
