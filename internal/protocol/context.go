package protocol

import (
	"sync"
	"time"

	"github.com/epics-extensions/qtedm-runtime/internal/obslog"
)

// Default tick intervals per §4.1: CA polls roughly every 50ms, PVA
// collects monitor events roughly every 100ms.
const (
	caTickInterval  = 50 * time.Millisecond
	pvaTickInterval = 100 * time.Millisecond
)

// Context is a lazily-initialized, idempotent wrapper around one
// protocol's Transport (§4.1). Contexts never block the UI thread; all
// they do is start the transport and forward its events to a sink.
type Context struct {
	kind        Kind
	tickEvery   time.Duration
	mu          sync.Mutex
	transport   Transport
	initialized bool
	log         *obslog.Logger
}

var (
	caOnce  sync.Once
	pvaOnce sync.Once
	caCtx   *Context
	pvaCtx  *Context
)

// CA returns the process-wide Channel Access context singleton.
func CA() *Context {
	caOnce.Do(func() {
		caCtx = &Context{kind: KindCA, tickEvery: caTickInterval, log: obslog.Default()}
	})
	return caCtx
}

// PVA returns the process-wide PVAccess context singleton.
func PVA() *Context {
	pvaOnce.Do(func() {
		pvaCtx = &Context{kind: KindPVA, tickEvery: pvaTickInterval, log: obslog.Default()}
	})
	return pvaCtx
}

// EnsureInitializedWith idempotently initializes the context with the
// given transport factory. Only the first call's factory takes effect;
// later calls are no-ops, matching ensureInitializedForProtocol's
// idempotency contract (§4.1). Returns the live transport either way.
func (c *Context) EnsureInitializedWith(newTransport func() Transport, sink func(Event)) Transport {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.initialized {
		return c.transport
	}
	c.transport = newTransport()
	if err := c.transport.Start(sink); err != nil {
		c.log.ProtocolUnavailable(c.kind.String(), err)
		// §7 kind 2: subscribes succeed structurally but never connect.
		c.initialized = true
		return c.transport
	}
	c.initialized = true
	return c.transport
}

// IsInitialized reports whether the context has completed its first
// (possibly failed) initialization attempt.
func (c *Context) IsInitialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initialized
}

// Transport returns the underlying transport, or nil before
// initialization.
func (c *Context) Transport() Transport {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transport
}

// TickInterval returns the configured I/O-progress cadence for this
// protocol (50ms for CA, 100ms for PVA).
func (c *Context) TickInterval() time.Duration {
	return c.tickEvery
}

// resetForTest restores both singletons to their zero state. Test-only.
func resetForTest() {
	caCtx = nil
	pvaCtx = nil
	caOnce = sync.Once{}
	pvaOnce = sync.Once{}
}
