package librecast

import (
	"sync"
	"sync/atomic"

	"github.com/librecast/librecast/internal/randsrc"
)

// registry replaces the C original's three raw singly-linked lists
// (ctx_list/sock_list/chan_list) and three unsynchronized global counters
// with a single synchronized object, per §9 REDESIGN FLAGS: "Global mutable
// id and list state becomes a Runtime object ... that carries the id
// counters and registries." Ids remain process-wide, backed by atomic
// counters seeded from randomness, as the spec recommends.
type registry struct {
	ctxCounter  atomic.Uint32
	sockCounter atomic.Uint32
	chanCounter atomic.Uint32

	mu       sync.RWMutex
	contexts map[uint32]*Context
	sockets  map[uint32]*Socket
	channels map[uint32]*Channel
	byAddr   map[string]*Channel
}

var global = newRegistry()

func newRegistry() *registry {
	r := &registry{
		contexts: make(map[uint32]*Context),
		sockets:  make(map[uint32]*Socket),
		channels: make(map[uint32]*Channel),
		byAddr:   make(map[string]*Channel),
	}
	seed(&r.ctxCounter)
	seed(&r.sockCounter)
	seed(&r.chanCounter)
	return r
}

func seed(counter *atomic.Uint32) {
	v, err := randsrc.Uint32()
	if err != nil {
		// entropy failure at process init is exceedingly unlikely; fall
		// back to zero rather than panic, matching the spec's "errors are
		// reported, not fatal to the process" posture for non-constructor
		// paths.
		v = 0
	}
	counter.Store(v)
}

func (r *registry) nextContextID() uint32 { return r.ctxCounter.Add(1) }
func (r *registry) nextSocketID() uint32  { return r.sockCounter.Add(1) }
func (r *registry) nextChannelID() uint32 { return r.chanCounter.Add(1) }

func (r *registry) addContext(c *Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contexts[c.id] = c
}

func (r *registry) removeContext(id uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.contexts, id)
}

func (r *registry) addSocket(s *Socket) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sockets[s.id] = s
}

func (r *registry) removeSocket(id uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sockets, id)
}

func (r *registry) addChannel(c *Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels[c.id] = c
	r.byAddr[c.groupAddr.String()] = c
}

// removeChannel deletes c from both indexes, resolving the §9 open question
// "registry entries are never removed on free" in favor of removal.
func (r *registry) removeChannel(c *Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.channels, c.id)
	if existing, ok := r.byAddr[c.groupAddr.String()]; ok && existing == c {
		delete(r.byAddr, c.groupAddr.String())
	}
}

func (r *registry) channelByAddress(addrText string) (*Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byAddr[addrText]
	return c, ok
}
