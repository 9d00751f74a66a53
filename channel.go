package librecast

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/librecast/librecast/internal/addrhash"
	"github.com/librecast/librecast/internal/logging"
	"github.com/librecast/librecast/internal/randsrc"
	"github.com/librecast/librecast/internal/store"
	"github.com/librecast/librecast/internal/wire"
)

// DefaultBaseAddr is the global-scope multicast prefix channel addresses are
// derived from when no other base is supplied.
const DefaultBaseAddr = "ff3e::"

// DefaultPort is the UDP port every channel's resolved group address uses.
const DefaultPort = 4242

// storeTimeout bounds how long the message-log and keyval inserts for one
// received message may take together before the receive loop gives up on
// them; store operations never
// block the wire-level clock update.
const storeTimeout = 2 * time.Second

// Channel binds a URI to a resolved IPv6 multicast group address, tracks
// its Lamport-style seq/rnd clock, and is attached to at most one Socket
// for send/receive.
type Channel struct {
	id  uint32
	uri string
	ctx *Context

	groupAddr net.IP
	addr      *net.UDPAddr

	mu     sync.Mutex
	socket *Socket
	seq    uint64
	rnd    uint64
}

// NewChannel computes chan's group address via the address hasher,
// resolves it, and registers it so it can be found by ByAddress.
func (ctx *Context) NewChannel(uri string) (*Channel, error) {
	if ctx == nil {
		return nil, ErrCtxRequired
	}

	base := net.ParseIP(DefaultBaseAddr)
	groupIP, err := addrhash.GroupAddress(base, uri, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBaseAddr, err)
	}

	ch := &Channel{
		id:        global.nextChannelID(),
		uri:       uri,
		ctx:       ctx,
		groupAddr: groupIP,
		addr:      &net.UDPAddr{IP: groupIP, Port: DefaultPort},
	}

	global.addChannel(ch)
	logging.Debug("channel %d (%s) group address %s", ch.id, uri, groupIP)
	return ch, nil
}

// ID returns the Channel's process-wide id.
func (c *Channel) ID() uint32 { return c.id }

// URI returns the channel's originating URI.
func (c *Channel) URI() string { return c.uri }

// GroupAddr returns the channel's resolved IPv6 multicast group address.
func (c *Channel) GroupAddr() net.IP { return c.groupAddr }

// Clock returns the channel's current (seq, rnd) pair.
func (c *Channel) Clock() (seq, rnd uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq, c.rnd
}

// Bind sets SO_REUSEADDR on sock, binds it to the channel's resolved
// address, and records the back-reference.
func (c *Channel) Bind(sock *Socket) error {
	if c == nil {
		return ErrChannelRequired
	}
	if sock == nil {
		return ErrSocketRequired
	}
	if err := sock.bind(c.addr); err != nil {
		return err
	}

	c.mu.Lock()
	c.socket = sock
	c.mu.Unlock()

	logging.Debug("bound socket %d to channel %d", sock.id, c.id)
	return nil
}

// Unbind clears the socket reference; it does not close the descriptor.
func (c *Channel) Unbind() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.socket = nil
}

// Socket returns the Socket this channel is currently bound to, or nil.
func (c *Channel) Socket() *Socket {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.socket
}

// SocketRaw is the escape-hatch accessor for the bound socket's raw conn.
func (c *Channel) SocketRaw() net.PacketConn {
	sock := c.Socket()
	if sock == nil {
		return nil
	}
	return sock.Raw()
}

// Join joins the channel's multicast group on every interface the OS
// enumerates; it succeeds if at least one interface join succeeds. If
// interface enumeration itself fails, it falls back to a single
// default-interface join.
func (c *Channel) Join() error {
	sock := c.Socket()
	if sock == nil {
		return ErrSocketRequired
	}

	ifaces, err := net.Interfaces()
	if err != nil {
		logging.Debug("failed to enumerate interfaces, falling back to default: %v", err)
		if joinErr := sock.joinGroup(nil, c.addr); joinErr != nil {
			return ErrMcastJoin
		}
		return nil
	}

	joins := 0
	for i := range ifaces {
		iface := ifaces[i]
		if joinErr := sock.joinGroup(&iface, c.addr); joinErr != nil {
			logging.Debug("multicast join failed on %s: %v", iface.Name, joinErr)
			continue
		}
		joins++
	}
	if joins == 0 {
		return ErrMcastJoin
	}
	return nil
}

// Part drops membership on the default interface.
func (c *Channel) Part() error {
	sock := c.Socket()
	if sock == nil {
		return ErrSocketRequired
	}
	if err := sock.leaveGroup(nil, c.addr); err != nil {
		return fmt.Errorf("%w: %v", ErrMcastPart, err)
	}
	return nil
}

// ByAddress returns the registered channel whose group address stringifies
// to addrText, if any is currently live.
func ByAddress(addrText string) (*Channel, bool) {
	return global.channelByAddress(addrText)
}

// Send pre-increments the channel's seq, draws a fresh nonce, encodes the
// header and payload, and transmits via the bound socket. On return,
// ownership of msg's payload is released.
func (c *Channel) Send(msg *Message) error {
	defer msg.Free()
	if c == nil {
		return ErrChannelRequired
	}
	sock := c.Socket()
	if sock == nil {
		return ErrSocketRequired
	}

	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.mu.Unlock()

	rnd, err := randsrc.Uint64()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRandom, err)
	}

	payload := msg.Data()
	header := wire.Header{Seq: seq, Rnd: rnd, Op: wire.Opcode(msg.Op), Len: uint64(len(payload))}
	datagram := wire.Encode(header, payload)

	if err := sock.setMulticastLoopback(true); err != nil {
		logging.Debug("failed to set multicast loopback on socket %d: %v", sock.id, err)
	}
	if c.ctx != nil {
		if tapName := c.ctx.TapName(); tapName != "" {
			if iface, ifErr := net.InterfaceByName(tapName); ifErr == nil {
				if setErr := sock.setMulticastInterface(iface); setErr != nil {
					logging.Debug("failed to set multicast interface %s: %v", tapName, setErr)
				}
			}
		}
	}

	_, err = sock.writeTo(datagram, c.addr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSend, err)
	}

	c.mu.Lock()
	c.rnd = rnd
	c.mu.Unlock()

	return nil
}

// SetVal frames a SET payload of [keylen || key || val] and sends it on
// this channel. The keyval_channel row is written on the receiving end, by
// handleReceived, not here — see SPEC_FULL.md §4.G.
func (c *Channel) SetVal(key, val []byte) error {
	payload := wire.EncodeSetPayload(key, val)
	return c.Send(NewMessage(Opcode(wire.SET), payload))
}

// Free removes the channel from the process registry; its resolved address
// is left to the garbage collector.
func (c *Channel) Free() {
	if c == nil {
		return
	}
	global.removeChannel(c)
}

// handleReceived applies the clock-update contract
// (seq' = max(received_seq+1, seq+1), rnd' = received_rnd), logs the
// message, and — when the opcode is SET — updates the per-channel keyval
// store, resolving the §9 open question in favor of writing
// keyval_channel on receipt.
func (c *Channel) handleReceived(msg *Message) {
	c.mu.Lock()
	bySeq := msg.Seq + 1
	byLocal := c.seq + 1
	if bySeq > byLocal {
		c.seq = bySeq
	} else {
		c.seq = byLocal
	}
	c.rnd = msg.Rnd
	c.mu.Unlock()

	if c.ctx == nil || c.ctx.store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	srcText := ""
	if msg.Src != nil {
		srcText = msg.Src.String()
	}
	dstText := ""
	if msg.Dst != nil {
		dstText = msg.Dst.String()
	}

	if err := c.ctx.store.InsertMessage(ctx, store.MessageRow{
		Src:     srcText,
		Dst:     dstText,
		Seq:     msg.Seq,
		Rnd:     msg.Rnd,
		Channel: c.uri,
		Msg:     msg.Data(),
	}); err != nil {
		logging.Error("failed to log message for channel %d: %v", c.id, err)
	}

	if wire.Opcode(msg.Op) == wire.SET {
		key, value, err := wire.DecodeSetPayload(msg.Data())
		if err != nil {
			logging.Debug("dropping malformed SET payload on channel %d: %v", c.id, err)
			return
		}
		if err := c.ctx.store.InsertKeyValChannel(ctx, store.KeyValRow{
			Src:     srcText,
			Seq:     msg.Seq,
			Rnd:     msg.Rnd,
			Channel: c.uri,
			Key:     string(key),
			Value:   string(value),
		}); err != nil {
			logging.Error("failed to record keyval for channel %d: %v", c.id, err)
		}
	}
}
