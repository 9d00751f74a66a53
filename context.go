package librecast

import (
	"fmt"
	"sync"

	"github.com/librecast/librecast/internal/bridge"
	"github.com/librecast/librecast/internal/logging"
	"github.com/librecast/librecast/internal/store"
)

// Context is the top-level, process-anchored handle: it owns a store
// connection and a TAP interface attached to the process-wide bridge. The
// Sockets and Channels created from it hold non-owning references back to
// it; the Context itself keeps no list of them.
type Context struct {
	id uint32

	mu         sync.Mutex
	closed     bool
	store      *store.Store
	tap        *bridge.TAP
	bridge     bridge.Manager
	bridgeName string
}

// ContextOption customizes NewContext.
type ContextOption func(*contextConfig)

type contextConfig struct {
	databasePath  string
	bridgeName    string
	bridgeManager bridge.Manager
	skipNetworking bool
}

// WithDatabasePath overrides store.DefaultPath for this Context.
func WithDatabasePath(path string) ContextOption {
	return func(c *contextConfig) { c.databasePath = path }
}

// WithBridgeName overrides bridge.DefaultBridgeName for this Context.
func WithBridgeName(name string) ContextOption {
	return func(c *contextConfig) { c.bridgeName = name }
}

// WithBridgeManager substitutes the bridge.Manager used to create/attach
// the TAP interface; tests use this to inject bridge.NewFakeManager and
// avoid requiring real kernel networking privileges.
func WithBridgeManager(m bridge.Manager) ContextOption {
	return func(c *contextConfig) { c.bridgeManager = m }
}

// WithoutNetworking skips TAP creation and bridge attachment entirely,
// leaving the Context with only a store. This has no equivalent in the C
// original (every Context always owns a TAP); it exists purely so that
// unit tests exercising the messaging object model do not require
// CAP_NET_ADMIN. Production callers should not use it.
func WithoutNetworking() ContextOption {
	return func(c *contextConfig) { c.skipNetworking = true }
}

// NewContext creates a Context: seeds ids, ensures the process-wide bridge
// exists, creates a TAP interface, attaches it to the bridge, opens the
// store and creates schema. Any failure after TAP creation tears down what
// was already built before returning the error (§4.E).
func NewContext(opts ...ContextOption) (*Context, error) {
	cfg := contextConfig{
		databasePath: store.DefaultPath,
		bridgeName:   bridge.DefaultBridgeName,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.bridgeManager == nil {
		cfg.bridgeManager = bridge.LinuxManager{}
	}

	ctx := &Context{
		id:         global.nextContextID(),
		bridge:     cfg.bridgeManager,
		bridgeName: cfg.bridgeName,
	}

	if !cfg.skipNetworking {
		if err := cfg.bridgeManager.EnsureBridge(cfg.bridgeName); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBridgeInit, err)
		}

		tap, err := bridge.NewTAP()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTapCreate, err)
		}
		ctx.tap = tap

		if err := cfg.bridgeManager.AttachInterface(cfg.bridgeName, tap.Name); err != nil {
			ctx.Close()
			return nil, fmt.Errorf("%w: %v", ErrBridgeInit, err)
		}
	}

	db, err := store.Open(cfg.databasePath)
	if err != nil {
		ctx.Close()
		return nil, fmt.Errorf("%w: %v", ErrStoreOpen, err)
	}
	if err := db.CreateSchema(); err != nil {
		db.Close()
		ctx.Close()
		return nil, fmt.Errorf("%w: %v", ErrStoreOpen, err)
	}
	ctx.store = db

	global.addContext(ctx)
	logging.Debug("context %d created", ctx.id)
	return ctx, nil
}

// ID returns the Context's process-wide id.
func (ctx *Context) ID() (uint32, error) {
	if ctx == nil {
		return 0, ErrCtxRequired
	}
	return ctx.id, nil
}

// TapName returns the kernel-assigned name of this Context's TAP
// interface, or "" if the Context was created WithoutNetworking.
func (ctx *Context) TapName() string {
	if ctx == nil || ctx.tap == nil {
		return ""
	}
	return ctx.tap.Name
}

// Close closes the TAP fd and the store, and removes the Context from the
// process registry. Safe to call on a nil Context or more than once.
func (ctx *Context) Close() error {
	if ctx == nil {
		return nil
	}
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	if ctx.closed {
		return nil
	}
	ctx.closed = true

	var err error
	if ctx.tap != nil {
		if cerr := ctx.tap.Close(); cerr != nil {
			err = cerr
		}
	}
	if ctx.store != nil {
		if cerr := ctx.store.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	global.removeContext(ctx.id)
	return err
}
