package commands

import (
	"fmt"

	lc "github.com/librecast/librecast"
)

// connection bundles the Context/Socket/Channel triple every subcommand
// needs, and is torn down in reverse acquisition order by Close.
type connection struct {
	ctx  *lc.Context
	sock *lc.Socket
	ch   *lc.Channel
}

// connect opens a Context against the process-wide bridge, derives the
// channel for uri, binds a fresh Socket to it and joins the multicast
// group. No base address is taken here: Channel derivation always uses
// lc.DefaultBaseAddr, matching the rest of the package.
func connect(uri string) (*connection, error) {
	ctx, err := lc.NewContext()
	if err != nil {
		return nil, fmt.Errorf("opening context: %w", err)
	}

	ch, err := ctx.NewChannel(uri)
	if err != nil {
		ctx.Close()
		return nil, fmt.Errorf("deriving channel %q: %w", uri, err)
	}

	sock, err := ctx.NewSocket()
	if err != nil {
		ch.Free()
		ctx.Close()
		return nil, fmt.Errorf("creating socket: %w", err)
	}

	if err := ch.Bind(sock); err != nil {
		sock.Close()
		ch.Free()
		ctx.Close()
		return nil, fmt.Errorf("binding channel: %w", err)
	}

	if err := ch.Join(); err != nil {
		sock.Close()
		ch.Free()
		ctx.Close()
		return nil, fmt.Errorf("joining group: %w", err)
	}

	return &connection{ctx: ctx, sock: sock, ch: ch}, nil
}

// Close releases the socket, channel and context in that order.
func (c *connection) Close() {
	if c == nil {
		return
	}
	if c.ch != nil {
		c.ch.Part()
	}
	if c.sock != nil {
		c.sock.Close()
	}
	if c.ch != nil {
		c.ch.Free()
	}
	if c.ctx != nil {
		c.ctx.Close()
	}
}
