package channel

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/epics-extensions/qtedm-runtime/internal/obslog"
	"github.com/epics-extensions/qtedm-runtime/internal/protocol"
	"github.com/epics-extensions/qtedm-runtime/internal/pvref"
)

// minNotifyInterval is the per-channel notification floor from §4.2/§5:
// subscribers are never notified more than 10x/second for one channel.
const minNotifyInterval = 100 * time.Millisecond

// putConnectTimeout bounds the temporary-channel put path (§4.2, §5).
const putConnectTimeout = 1 * time.Second

// Hooks lets an external observer (C11's statistics tracker) count
// channel lifecycle and protocol events without the manager importing it.
type Hooks struct {
	ChannelCreated    func(pvName string)
	ChannelDestroyed  func(pvName string)
	Connected         func(pvName string)
	Disconnected      func(pvName string)
	EventReceived     func(kind protocol.Kind)
	SubscriptionAdded func(pvName string)
	SubscriptionDone  func(pvName string)
}

type subscriber struct {
	id         uint64
	value      ValueCallback
	connection ConnectionCallback
	access     AccessRightsCallback
	removed    bool
}

type managedChannel struct {
	key Key

	kind      protocol.Kind
	wireName  string // PV name with any pva:// prefix and field path stripped
	ref       pvref.Reference
	transport protocol.Transport
	handle    protocol.TransportChannel

	connected            bool
	controlInfoRequested bool
	canRead, canWrite    bool

	cached Data

	subs        []*subscriber
	fanoutDepth int // >0 while delivering callbacks; deferred removals queue behind this

	updateCount      int
	lastNotifyAt     time.Time
	neverNotified    bool
	lastNotifiedNum  float64
	lastNotifiedSev  int
	lastNotifiedStr  string
	lastNotifiedEnum int
}

// Manager is C4: the shared channel manager. One Manager instance is
// normally a process-wide singleton (see New/Default), but the type takes
// no global state itself so tests can construct independent instances.
type Manager struct {
	mu       sync.Mutex
	channels map[Key]*managedChannel
	byID     map[uint64]*managedChannel
	byHandle map[protocol.TransportChannel]*managedChannel
	nextID   uint64

	transportFor func(protocol.Kind) protocol.Transport

	group singleflight.Group

	hooks Hooks
	log   *obslog.Logger
	audit Auditor

	resetAt time.Time
}

// Auditor is the subset of C12's logger Manager needs for the put path
// (§4.2 "A successful numeric/enum/string put is reported to the audit
// logger before returning").
type Auditor interface {
	LogPut(pvName, widgetType, value string)
}

// New constructs a Manager. transportFor resolves which protocol.Transport
// backs a given pvName's protocol (decided by the caller from a parsed
// pvref.Reference); a nil Auditor disables audit logging (i.e. -nolog).
func New(transportFor func(protocol.Kind) protocol.Transport, audit Auditor, hooks Hooks) *Manager {
	return &Manager{
		channels:     make(map[Key]*managedChannel),
		byID:         make(map[uint64]*managedChannel),
		byHandle:     make(map[protocol.TransportChannel]*managedChannel),
		transportFor: transportFor,
		hooks:        hooks,
		log:          obslog.Default(),
		audit:        audit,
		resetAt:      time.Now(),
	}
}

// Subscribe implements §4.2's contract: shared channels by Key, synchronous
// delivery of cached state to a new subscriber of an already-connected
// channel, and structural survival across reconnects.
func (m *Manager) Subscribe(key Key, value ValueCallback, connection ConnectionCallback, access AccessRightsCallback) *Handle {
	m.mu.Lock()
	ch, created := m.findOrCreateChannelLocked(key)
	id := m.nextID + 1
	m.nextID = id
	sub := &subscriber{id: id, value: value, connection: connection, access: access}
	ch.subs = append(ch.subs, sub)
	m.byID[id] = ch
	connectedSnapshot := ch.connected
	dataSnapshot := ch.cached.clone()
	canRead, canWrite := ch.canRead, ch.canWrite
	m.mu.Unlock()

	if created {
		if m.hooks.ChannelCreated != nil {
			m.hooks.ChannelCreated(key.PVName)
		}
		m.startChannel(ch)
	}
	if m.hooks.SubscriptionAdded != nil {
		m.hooks.SubscriptionAdded(key.PVName)
	}

	// Deliver cached state synchronously so the widget never flickers
	// through a false "disconnected" frame at construction (§4.2).
	if connectedSnapshot {
		if connection != nil {
			connection(true, dataSnapshot)
		}
		if access != nil {
			access(canRead, canWrite)
		}
		if value != nil && dataSnapshot.HasValue {
			value(dataSnapshot)
		}
	}

	return newHandle(id, m)
}

func (m *Manager) findOrCreateChannelLocked(key Key) (*managedChannel, bool) {
	if ch, ok := m.channels[key]; ok {
		return ch, false
	}
	ch := &managedChannel{key: key, neverNotified: true}
	m.channels[key] = ch
	return ch, true
}

func (m *Manager) startChannel(ch *managedChannel) {
	ref, err := pvref.Parse(ch.key.PVName)
	if err != nil {
		m.log.ChannelFailure(ch.key.PVName, err)
		return
	}
	kind := protocol.KindCA
	if ref.Protocol == pvref.ProtocolPVA {
		kind = protocol.KindPVA
	}
	m.mu.Lock()
	ch.kind = kind
	ch.wireName = ref.PVName
	ch.ref = ref
	m.mu.Unlock()

	// singleflight collapses concurrent first-subscribers racing to open
	// the same key into one CreateChannel call.
	_, _, _ = m.group.Do(ch.key.PVName+fmt.Sprintf("|%d|%d", ch.key.RequestedType, ch.key.ElementCount), func() (any, error) {
		transport := m.transportFor(kind)
		m.mu.Lock()
		ch.transport = transport
		m.mu.Unlock()
		if transport == nil {
			m.log.ChannelFailure(ch.key.PVName, fmt.Errorf("no transport available"))
			return nil, nil
		}
		wireName := ref.PVName
		if fieldPath := ref.WireFieldPath(); fieldPath != "" {
			wireName = wireName + "." + fieldPath
		}
		handle, err := transport.CreateChannel(wireName, ch.key.ElementCount)
		if err != nil {
			m.log.ChannelFailure(ch.key.PVName, err)
			return nil, nil
		}
		m.mu.Lock()
		ch.handle = handle
		m.byHandle[handle] = ch
		m.mu.Unlock()
		return nil, nil
	})
}

// unsubscribe implements subscriptionOwner. It marks the subscriber for
// removal; if called during fan-out (fanoutDepth > 0) the actual slice
// compaction is deferred to avoid mutating the list mid-iteration (§5
// "Shared-resource policy").
func (m *Manager) unsubscribe(id uint64) {
	m.mu.Lock()
	ch, ok := m.byID[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.byID, id)
	for _, s := range ch.subs {
		if s.id == id {
			s.removed = true
			break
		}
	}
	if ch.fanoutDepth == 0 {
		m.compactLocked(ch)
	}
	destroy := ch.fanoutDepth == 0 && len(ch.subs) == 0
	if destroy {
		delete(m.channels, ch.key)
		if ch.handle != nil {
			delete(m.byHandle, ch.handle)
		}
	}
	m.mu.Unlock()

	if destroy {
		if ch.transport != nil && ch.handle != nil {
			ch.transport.DestroyChannel(ch.handle)
		}
		if m.hooks.ChannelDestroyed != nil {
			m.hooks.ChannelDestroyed(ch.key.PVName)
		}
	}
	if m.hooks.SubscriptionDone != nil {
		m.hooks.SubscriptionDone(ch.key.PVName)
	}
}

func (m *Manager) compactLocked(ch *managedChannel) {
	live := ch.subs[:0]
	for _, s := range ch.subs {
		if !s.removed {
			live = append(live, s)
		}
	}
	ch.subs = live
}

// Dispatch applies a protocol.Event to the channel it targets, resolved by
// the transport handle the event carries. This is the entry point the
// protocol sink registered in EnsureInitializedWith calls for every event;
// it re-validates the channel is still live (it may have been destroyed
// between enqueue and dequeue of a cross-thread event, §5) before touching
// the cache.
func (m *Manager) Dispatch(ev protocol.Event) {
	m.mu.Lock()
	ch, ok := m.byHandle[ev.Channel]
	m.mu.Unlock()
	if !ok {
		return
	}
	m.applyAndNotify(ch, ev)
}

// HandleEvent is Dispatch's key-addressed counterpart, used directly by
// tests that drive the manager without a real transport handle.
func (m *Manager) HandleEvent(key Key, ev protocol.Event) {
	m.mu.Lock()
	ch, ok := m.channels[key]
	m.mu.Unlock()
	if !ok {
		return // channel destroyed between enqueue and dequeue
	}
	m.applyAndNotify(ch, ev)
}

// applyAndNotify updates ch's cache under the manager's mutex, then invokes
// subscriber callbacks without holding it (§5: callbacks never run while
// the manager's internal lock is held).
func (m *Manager) applyAndNotify(ch *managedChannel, ev protocol.Event) {
	m.mu.Lock()
	key := ch.key
	kind := ch.kind

	var notifyValue, notifyConn, notifyAccess bool
	var dataSnapshot Data
	connectedNow := ch.connected
	canRead, canWrite := ch.canRead, ch.canWrite

	switch ev.Kind {
	case protocol.EventConnection:
		ch.connected = ev.Connected
		ch.cached.Connected = ev.Connected
		if ev.Connected {
			ch.cached.NativeFieldType = ev.NativeKind
			ch.cached.NativeElemCount = ev.NativeCount
			ch.controlInfoRequested = false
			if isNumericOrEnum(ev.NativeKind) && ch.transport != nil && !ch.controlInfoRequested {
				ch.controlInfoRequested = true
				go ch.transport.RequestControlInfo(ch.handle)
			}
		} else {
			ch.cached.HasValue = false
			ch.controlInfoRequested = false
		}
		notifyConn = true
		dataSnapshot = ch.cached.clone()

	case protocol.EventValue:
		applyValue(&ch.cached, ev)
		if ch.ref.HasIndices() {
			applyPVAPath(&ch.cached, ch.ref, ev)
		}
		ch.updateCount++
		if isEnumCarryingLabel(ch.cached) {
			enrichEnumString(&ch.cached)
		}
		changed := valueChanged(ch, ev)
		elapsed := ch.neverNotified || time.Since(ch.lastNotifyAt) >= minNotifyInterval
		if changed && elapsed {
			recordNotified(ch, ev)
			ch.lastNotifyAt = time.Now()
			ch.neverNotified = false
			notifyValue = true
			dataSnapshot = ch.cached.clone()
		}

	case protocol.EventControlInfo:
		ch.cached.HasControlInfo = ev.HasControl
		ch.cached.DisplayLow = ev.ControlInfo.DisplayLow
		ch.cached.DisplayHigh = ev.ControlInfo.DisplayHigh
		ch.cached.Precision = ev.ControlInfo.Precision
		ch.cached.HasPrecision = true
		ch.cached.Units = ev.ControlInfo.Units
		ch.cached.HasUnits = ev.ControlInfo.Units != ""
		if len(ev.EnumLabels) > 0 {
			ch.cached.EnumLabels = append([]string(nil), ev.EnumLabels...)
			enrichEnumString(&ch.cached)
		}
		notifyValue = true
		dataSnapshot = ch.cached.clone()

	case protocol.EventAccessRights:
		ch.canRead, ch.canWrite = ev.CanRead, ev.CanWrite
		notifyAccess = true
		canRead, canWrite = ev.CanRead, ev.CanWrite
	}

	ch.fanoutDepth++
	subs := append([]*subscriber(nil), ch.subs...)
	m.mu.Unlock()

	if m.hooks.EventReceived != nil {
		m.hooks.EventReceived(kind)
	}
	if notifyConn && !connectedNow && ev.Connected && m.hooks.Connected != nil {
		m.hooks.Connected(key.PVName)
	}
	if notifyConn && connectedNow && !ev.Connected && m.hooks.Disconnected != nil {
		m.hooks.Disconnected(key.PVName)
	}

	for _, s := range subs {
		if s.removed {
			continue
		}
		if notifyConn && s.connection != nil {
			s.connection(ev.Connected, dataSnapshot)
		}
		if notifyValue && s.value != nil {
			s.value(dataSnapshot)
		}
		if notifyAccess && s.access != nil {
			s.access(canRead, canWrite)
		}
	}

	m.mu.Lock()
	ch.fanoutDepth--
	destroy := false
	if ch.fanoutDepth == 0 {
		m.compactLocked(ch)
		if len(ch.subs) == 0 && m.channels[ch.key] == ch {
			delete(m.channels, ch.key)
			if ch.handle != nil {
				delete(m.byHandle, ch.handle)
			}
			destroy = true
		}
	}
	m.mu.Unlock()

	if destroy {
		if ch.transport != nil && ch.handle != nil {
			ch.transport.DestroyChannel(ch.handle)
		}
		if m.hooks.ChannelDestroyed != nil {
			m.hooks.ChannelDestroyed(ch.key.PVName)
		}
	}
}

func isNumericOrEnum(k protocol.FieldKind) bool {
	return k == protocol.FieldNumeric || k == protocol.FieldEnum
}

func isEnumCarryingLabel(d Data) bool {
	return d.IsEnum && len(d.EnumLabels) > 0
}

func enrichEnumString(d *Data) {
	if d.EnumOrdinal >= 0 && d.EnumOrdinal < len(d.EnumLabels) {
		d.StringValue = d.EnumLabels[d.EnumOrdinal]
		d.IsString = true
	}
}

func applyValue(d *Data, ev protocol.Event) {
	d.HasValue = ev.HasValue
	d.Severity = ev.Severity
	d.Status = ev.Status
	d.Timestamp = time.Now()
	d.NativeFieldType = ev.NativeKind
	d.IsNumeric = ev.NativeKind == protocol.FieldNumeric
	d.IsString = ev.NativeKind == protocol.FieldString
	d.IsEnum = ev.NativeKind == protocol.FieldEnum
	d.IsCharArray = ev.NativeKind == protocol.FieldCharArray
	d.IsArray = ev.NativeKind == protocol.FieldArray
	d.NumericValue = ev.Numeric
	d.StringValue = ev.String
	d.EnumOrdinal = ev.EnumOrdinal
	if ev.ArrayValues != nil {
		d.ArrayValues = append([]float64(nil), ev.ArrayValues...)
	}
	if ev.CharArray != nil {
		d.CharArray = append([]byte(nil), ev.CharArray...)
	}
	if len(ev.EnumLabels) > 0 {
		d.EnumLabels = append([]string(nil), ev.EnumLabels...)
	}
}

// applyPVAPath implements S7's client-side index navigation (§9): the
// dotted path's bracketed index selects a single scalar out of the array
// the server delivered for the unindexed field, overriding the generic
// array decoding applyValue just did.
func applyPVAPath(d *Data, ref pvref.Reference, ev protocol.Event) {
	scalar, ok := ref.Extract(ev.ArrayValues)
	if !ok {
		return
	}
	d.NumericValue = scalar
	d.IsNumeric = true
	d.IsArray = false
}

// valueChanged implements §4.2's change gate: at least one of {numeric,
// string, enum, severity} must differ from the last notified values.
func valueChanged(ch *managedChannel, ev protocol.Event) bool {
	if ch.neverNotified {
		return true
	}
	return ch.lastNotifiedNum != ev.Numeric ||
		ch.lastNotifiedStr != ev.String ||
		ch.lastNotifiedEnum != ev.EnumOrdinal ||
		ch.lastNotifiedSev != ev.Severity
}

func recordNotified(ch *managedChannel, ev protocol.Event) {
	ch.lastNotifiedNum = ev.Numeric
	ch.lastNotifiedStr = ev.String
	ch.lastNotifiedEnum = ev.EnumOrdinal
	ch.lastNotifiedSev = ev.Severity
}

// --- Statistics accessors (§4.2 contract) -----------------------------

func (m *Manager) UniqueChannelCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.channels)
}

func (m *Manager) TotalSubscriptionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, ch := range m.channels {
		for _, s := range ch.subs {
			if !s.removed {
				total++
			}
		}
	}
	return total
}

func (m *Manager) ConnectedChannelCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, ch := range m.channels {
		if ch.connected {
			n++
		}
	}
	return n
}

func (m *Manager) ChannelSummaries() []Summary {
	m.mu.Lock()
	defer m.mu.Unlock()
	elapsed := time.Since(m.resetAt).Seconds()
	out := make([]Summary, 0, len(m.channels))
	for _, ch := range m.channels {
		rate := 0.0
		if elapsed > 0 {
			rate = float64(ch.updateCount) / elapsed
		}
		out = append(out, Summary{
			PVName:          ch.key.PVName,
			Connected:       ch.connected,
			Writable:        ch.canWrite,
			SubscriberCount: len(ch.subs),
			UpdateCount:     ch.updateCount,
			UpdateRate:      rate,
			Severity:        ch.cached.Severity,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PVName < out[j].PVName })
	return out
}

func (m *Manager) ResetUpdateCounters() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.channels {
		ch.updateCount = 0
	}
	m.resetAt = time.Now()
}

func (m *Manager) ElapsedSecondsSinceReset() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return time.Since(m.resetAt).Seconds()
}

// ensureConnectedTemp is used by the put path (put.go) to find the
// transport/handle pair for a single Put call. If any channel for pvName,
// under any Key, is already connected, its pair is returned with a no-op
// cleanup. Otherwise it subscribes (creating the channel if needed),
// waits up to putConnectTimeout for connection, and hands back the pair;
// the returned cleanup then releases the temporary subscription, which
// does not destroy the channel if other subscribers remain on it (§4.2's
// find-or-create-temporary-channel rule).
func (m *Manager) ensureConnectedTemp(ctx context.Context, pvName string) (protocol.Transport, protocol.TransportChannel, func(), error) {
	m.mu.Lock()
	for k, ch := range m.channels {
		if k.PVName == pvName && ch.connected && ch.transport != nil && ch.handle != nil {
			transport, handle := ch.transport, ch.handle
			m.mu.Unlock()
			return transport, handle, func() {}, nil
		}
	}
	m.mu.Unlock()

	key := Key{PVName: pvName, RequestedType: TypeDouble, ElementCount: 1}
	connected := make(chan struct{}, 1)
	sub := m.Subscribe(key, nil, func(ok bool, _ Data) {
		if ok {
			select {
			case connected <- struct{}{}:
			default:
			}
		}
	}, nil)
	cleanup := func() { sub.Reset() }

	timeoutCtx, cancel := context.WithTimeout(ctx, putConnectTimeout)
	defer cancel()

	select {
	case <-connected:
		m.mu.Lock()
		ch, ok := m.channels[key]
		var transport protocol.Transport
		var handle protocol.TransportChannel
		if ok {
			transport, handle = ch.transport, ch.handle
		}
		m.mu.Unlock()
		if transport == nil || handle == nil {
			cleanup()
			return nil, nil, func() {}, fmt.Errorf("channel: transport unavailable for %q", pvName)
		}
		return transport, handle, cleanup, nil
	case <-timeoutCtx.Done():
		cleanup()
		return nil, nil, func() {}, fmt.Errorf("channel: timed out connecting to %q", pvName)
	}
}
