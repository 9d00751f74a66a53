package librecast

import "errors"

// Error kinds, grouped per §7 of the spec: resource construction,
// parameter/state, address/hashing, network runtime, store, thread, and
// randomness/misc. Callers should compare with errors.Is rather than
// matching on message text.
var (
	// Resource construction
	ErrTapCreate   = errors.New("librecast: failed to create tap interface")
	ErrBridgeInit  = errors.New("librecast: failed to initialize bridge")
	ErrStoreOpen   = errors.New("librecast: failed to open store")

	// Parameter / state
	ErrCtxRequired     = errors.New("librecast: context required")
	ErrSocketRequired  = errors.New("librecast: socket required")
	ErrChannelRequired = errors.New("librecast: channel required")
	ErrSocketListening = errors.New("librecast: socket already has a listener")
	ErrMsgAttrUnknown  = errors.New("librecast: unknown message attribute")

	// Address / hashing
	ErrInvalidBaseAddr = errors.New("librecast: invalid base address")
	ErrHash            = errors.New("librecast: hashing failed")

	// Network runtime
	ErrSocketBind = errors.New("librecast: socket bind failed")
	ErrMcastJoin  = errors.New("librecast: multicast join failed")
	ErrMcastPart  = errors.New("librecast: multicast leave failed")
	ErrSend       = errors.New("librecast: send failed")

	// Store
	ErrStoreExec = errors.New("librecast: store operation failed")

	// Thread / worker
	ErrWorkerCancel = errors.New("librecast: listener cancellation failed")
	ErrWorkerJoin   = errors.New("librecast: listener join failed")

	// Randomness / misc
	ErrRandom = errors.New("librecast: random source failed")
	ErrAlloc  = errors.New("librecast: allocation failed")
)
