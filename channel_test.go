package librecast

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewChannelRequiresContext(t *testing.T) {
	var ctx *Context
	_, err := ctx.NewChannel("test/requires-ctx")
	require.ErrorIs(t, err, ErrCtxRequired)
}

func TestNewChannelAddressIsDeterministic(t *testing.T) {
	ctx := newTestContext(t)

	a, err := ctx.NewChannel("test/deterministic")
	require.NoError(t, err)
	t.Cleanup(a.Free)

	b, err := ctx.NewChannel("test/deterministic")
	require.NoError(t, err)
	t.Cleanup(b.Free)

	require.True(t, a.GroupAddr().Equal(b.GroupAddr()))

	other, err := ctx.NewChannel("test/different")
	require.NoError(t, err)
	t.Cleanup(other.Free)
	require.False(t, a.GroupAddr().Equal(other.GroupAddr()))
}

func TestBindRequiresSocket(t *testing.T) {
	ctx := newTestContext(t)
	ch, err := ctx.NewChannel("test/bind-requires-socket")
	require.NoError(t, err)
	t.Cleanup(ch.Free)

	err = ch.Bind(nil)
	require.ErrorIs(t, err, ErrSocketRequired)
}

func TestSendRequiresBoundSocket(t *testing.T) {
	ctx := newTestContext(t)
	ch, err := ctx.NewChannel("test/send-requires-bind")
	require.NoError(t, err)
	t.Cleanup(ch.Free)

	err = ch.Send(NewMessage(0, []byte("hi")))
	require.ErrorIs(t, err, ErrSocketRequired)
}

func TestByAddressRoundtrip(t *testing.T) {
	ctx := newTestContext(t)
	ch, err := ctx.NewChannel("test/by-address")
	require.NoError(t, err)
	t.Cleanup(ch.Free)

	found, ok := ByAddress(ch.GroupAddr().String())
	require.True(t, ok)
	require.Equal(t, ch.ID(), found.ID())

	ch.Free()
	_, ok = ByAddress(ch.GroupAddr().String())
	require.False(t, ok)
}

func TestHandleReceivedAdvancesSeqMonotonically(t *testing.T) {
	ctx := newTestContext(t)
	ch, err := ctx.NewChannel("test/clock-monotonic")
	require.NoError(t, err)
	t.Cleanup(ch.Free)

	ch.handleReceived(&Message{Seq: 5, Rnd: 42, Op: 0, Payload: NewPayload(nil)})
	seq, rnd := ch.Clock()
	require.Equal(t, uint64(6), seq)
	require.Equal(t, uint64(42), rnd)

	// a late/out-of-order lower seq must not move the clock backwards: the
	// local seq keeps advancing from its own prior value instead
	ch.handleReceived(&Message{Seq: 1, Rnd: 7, Op: 0, Payload: NewPayload(nil)})
	seq, rnd = ch.Clock()
	require.Equal(t, uint64(7), seq)
	require.Equal(t, uint64(7), rnd)
}

func TestHandleReceivedSetDoesNotPanic(t *testing.T) {
	ctx := newTestContext(t)
	ch, err := ctx.NewChannel("test/handle-set")
	require.NoError(t, err)
	t.Cleanup(ch.Free)

	key := []byte("brightness")
	val := []byte("42")
	payload := make([]byte, 8+len(key)+len(val))
	payload[7] = byte(len(key))
	copy(payload[8:], key)
	copy(payload[8+len(key):], val)

	require.NotPanics(t, func() {
		ch.handleReceived(&Message{Seq: 1, Rnd: 1, Op: OpSet, Payload: NewPayload(payload)})
	})
}
