package librecast

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"syscall"
	"time"

	"golang.org/x/net/ipv6"
	"golang.org/x/sys/unix"

	"github.com/librecast/librecast/internal/logging"
	"github.com/librecast/librecast/internal/wire"
)

// maxDatagramSize bounds a single read; payload is effectively
// maxDatagramSize - wire.HeaderSize, matching the spec's 1500-byte default
// MTU budget.
const maxDatagramSize = 1500

// Socket owns an IPv6 UDP endpoint and at most one receive worker. Per
// §3/§4.F, a Socket is created unbound; a Channel supplies the local
// address via Bind. Go's net package couples socket-creation with bind, so
// the underlying conn is created lazily on the first Bind rather than in
// NewSocket — the observable invariants (one conn, ≤1 listener,
// IPV6_RECVPKTINFO-equivalent ancillary data enabled) are unchanged.
type Socket struct {
	id  uint32
	ctx *Context

	mu        sync.Mutex
	udpConn   *net.UDPConn
	pconn     *ipv6.PacketConn
	listening bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewSocket creates a Socket bound to ctx. The underlying OS socket is not
// created until a Channel binds to it.
func (ctx *Context) NewSocket() (*Socket, error) {
	if ctx == nil {
		return nil, ErrCtxRequired
	}
	sock := &Socket{id: global.nextSocketID(), ctx: ctx}
	global.addSocket(sock)
	logging.Debug("socket %d created", sock.id)
	return sock, nil
}

// ID returns the Socket's process-wide id.
func (s *Socket) ID() uint32 { return s.id }

// bind sets SO_REUSEADDR and binds the underlying conn to addr, enabling
// IPv6 destination-address ancillary data on every subsequent read (the Go
// equivalent of IPV6_RECVPKTINFO).
func (s *Socket) bind(addr *net.UDPAddr) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var sockErr error
			err := c.Control(func(fd uintptr) {
				sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
			})
			if err != nil {
				return err
			}
			return sockErr
		},
	}

	pc, err := lc.ListenPacket(context.Background(), "udp6", addr.String())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSocketBind, err)
	}

	udpConn := pc.(*net.UDPConn)
	pconn := ipv6.NewPacketConn(udpConn)
	if err := pconn.SetControlMessage(ipv6.FlagDst, true); err != nil {
		udpConn.Close()
		return fmt.Errorf("%w: %v", ErrSocketBind, err)
	}

	s.udpConn = udpConn
	s.pconn = pconn
	return nil
}

// Listen starts exactly one receive worker for this Socket. A second call
// without an intervening ListenCancel returns ErrSocketListening.
//
// onMsg and onErr run on the worker goroutine: they must not block
// indefinitely, and must not call ListenCancel on this Socket, since
// ListenCancel waits for that same goroutine to exit.
func (s *Socket) Listen(onMsg func(*Message), onErr func(error)) error {
	s.mu.Lock()
	if s.pconn == nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: socket is not bound to a channel", ErrSocketRequired)
	}
	if s.listening {
		s.mu.Unlock()
		return ErrSocketListening
	}
	workerCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.listening = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.receiveLoop(workerCtx, onMsg, onErr)

	return nil
}

// ListenCancel requests cancellation of the running worker, if any, at its
// next cancellation point (the blocking receive) and joins it.
func (s *Socket) ListenCancel() error {
	s.mu.Lock()
	if !s.listening {
		s.mu.Unlock()
		return nil
	}
	cancel := s.cancel
	conn := s.udpConn
	s.mu.Unlock()

	cancel()
	// Unblock a pending ReadFrom: closing isn't appropriate here since the
	// Socket may be reused, so nudge it out with an immediate deadline
	// instead, the cooperative-cancellation point the spec calls for.
	if conn != nil {
		_ = conn.SetReadDeadline(time.Now())
	}
	s.wg.Wait()

	s.mu.Lock()
	s.listening = false
	s.cancel = nil
	if conn != nil {
		_ = conn.SetReadDeadline(time.Time{})
	}
	s.mu.Unlock()

	return nil
}

// Close cancels any listener, closes the descriptor, and removes the
// Socket from the process registry.
func (s *Socket) Close() error {
	if s == nil {
		return nil
	}
	if err := s.ListenCancel(); err != nil {
		return err
	}

	s.mu.Lock()
	conn := s.udpConn
	s.mu.Unlock()

	global.removeSocket(s.id)
	if conn != nil {
		return conn.Close()
	}
	return nil
}

// Raw returns the underlying descriptor, an escape hatch for
// selection/polling, matching lc_socket_raw in the C original.
func (s *Socket) Raw() net.PacketConn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.udpConn
}

// joinGroup joins addr's multicast group on iface (the default interface,
// if iface is nil). The Socket must already be bound.
func (s *Socket) joinGroup(iface *net.Interface, addr *net.UDPAddr) error {
	s.mu.Lock()
	pconn := s.pconn
	s.mu.Unlock()
	if pconn == nil {
		return ErrSocketRequired
	}
	return pconn.JoinGroup(iface, addr)
}

// leaveGroup drops membership of addr's multicast group on iface.
func (s *Socket) leaveGroup(iface *net.Interface, addr *net.UDPAddr) error {
	s.mu.Lock()
	pconn := s.pconn
	s.mu.Unlock()
	if pconn == nil {
		return ErrSocketRequired
	}
	return pconn.LeaveGroup(iface, addr)
}

// setMulticastLoopback toggles local delivery of this socket's own
// multicast sends, the Go equivalent of IPV6_MULTICAST_LOOP.
func (s *Socket) setMulticastLoopback(on bool) error {
	s.mu.Lock()
	pconn := s.pconn
	s.mu.Unlock()
	if pconn == nil {
		return ErrSocketRequired
	}
	return pconn.SetMulticastLoopback(on)
}

// setMulticastInterface pins the outgoing interface for multicast sends,
// the Go equivalent of IPV6_MULTICAST_IF.
func (s *Socket) setMulticastInterface(iface *net.Interface) error {
	s.mu.Lock()
	pconn := s.pconn
	s.mu.Unlock()
	if pconn == nil {
		return ErrSocketRequired
	}
	return pconn.SetMulticastInterface(iface)
}

// writeTo transmits datagram to addr via the bound conn.
func (s *Socket) writeTo(datagram []byte, addr *net.UDPAddr) (int, error) {
	s.mu.Lock()
	pconn := s.pconn
	s.mu.Unlock()
	if pconn == nil {
		return 0, ErrSocketRequired
	}
	return pconn.WriteTo(datagram, nil, addr)
}

func (s *Socket) receiveLoop(ctx context.Context, onMsg func(*Message), onErr func(error)) {
	defer s.wg.Done()

	buf := make([]byte, maxDatagramSize)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, cm, srcAddr, err := s.pconn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			if onErr != nil {
				onErr(err)
			}
			continue
		}

		header, payload, err := wire.Decode(buf[:n])
		if err != nil {
			logging.Debug("dropping datagram on socket %d: %v", s.id, err)
			continue
		}

		var dst net.IP
		if cm != nil {
			dst = cm.Dst
		}
		var src net.IP
		if udpAddr, ok := srcAddr.(*net.UDPAddr); ok {
			src = udpAddr.IP
		}

		msg := &Message{
			Seq:      header.Seq,
			Rnd:      header.Rnd,
			Op:       uint8(header.Op),
			Payload:  NewPayload(payload),
			SocketID: s.id,
			Src:      src,
			Dst:      dst,
		}

		if dst != nil {
			if ch, ok := global.channelByAddress(dst.String()); ok {
				ch.handleReceived(msg)
			}
		}

		if onMsg != nil {
			onMsg(msg)
		}
	}
}
