package protocol

import (
	"context"
	"errors"
	"sync"
	"time"
)

// simChannel is the Simulated transport's TransportChannel implementation.
type simChannel struct {
	name string
}

func (c *simChannel) Name() string { return c.name }

// Simulated is an in-memory stand-in for a real CA/PVA client binding. It
// lets the engine run end-to-end (connect, subscribe, put) without a live
// IOC, and is what the CLI's default run mode and the test suite use. A
// test or operator can feed it values via PushValue/SetConnected.
type Simulated struct {
	mu       sync.Mutex
	sink     func(Event)
	channels map[string]*simChannel
	values   map[string]simState
	stopped  bool
}

type simState struct {
	connected bool
	kind      FieldKind
	numeric   float64
	str       string
	enumOrd   int
	enumLbls  []string
	severity  int
	status    int
	control   ControlInfo
	hasCtrl   bool
}

// NewSimulated constructs an empty simulated transport. Every channel name
// is disconnected until SetConnected or PushValue establishes it.
func NewSimulated() *Simulated {
	return &Simulated{
		channels: make(map[string]*simChannel),
		values:   make(map[string]simState),
	}
}

func (s *Simulated) Start(sink func(Event)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sink = sink
	s.stopped = false
	return nil
}

func (s *Simulated) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	s.sink = nil
}

func (s *Simulated) CreateChannel(pvName string, elementCount int) (TransportChannel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.channels[pvName]
	if !ok {
		ch = &simChannel{name: pvName}
		s.channels[pvName] = ch
	}
	st := s.values[pvName]
	// Deliver cached connection state synchronously-ish (next tick) if one
	// already exists, mirroring a real library replaying state to a late
	// subscriber.
	if st.connected {
		go s.emit(Event{Channel: ch, Kind: EventConnection, Connected: true, NativeKind: st.kind, NativeCount: elementCount})
	}
	return ch, nil
}

func (s *Simulated) DestroyChannel(ch TransportChannel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := ch.(*simChannel); ok {
		delete(s.channels, c.name)
	}
}

func (s *Simulated) RequestControlInfo(ch TransportChannel) {
	s.mu.Lock()
	c, ok := ch.(*simChannel)
	if !ok {
		s.mu.Unlock()
		return
	}
	st, exists := s.values[c.name]
	s.mu.Unlock()
	if !exists || !st.hasCtrl {
		return
	}
	s.emit(Event{Channel: ch, Kind: EventControlInfo, ControlInfo: st.control, HasControl: true, EnumLabels: st.enumLbls})
}

func (s *Simulated) Put(ctx context.Context, ch TransportChannel, v any) error {
	c, ok := ch.(*simChannel)
	if !ok {
		return errors.New("protocol: invalid channel handle")
	}
	s.mu.Lock()
	st := s.values[c.name]
	if !st.connected {
		s.mu.Unlock()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(10 * time.Millisecond):
			return errors.New("protocol: put to disconnected channel")
		}
	}
	switch val := v.(type) {
	case float64:
		st.numeric = val
		st.kind = FieldNumeric
	case string:
		st.str = val
		st.kind = FieldString
	case int:
		st.enumOrd = val
		st.kind = FieldEnum
	}
	s.values[c.name] = st
	s.mu.Unlock()
	s.pushLocked(c.name)
	return nil
}

// SetConnected establishes or tears down a channel's connection state and
// notifies any open channel handle for that name.
func (s *Simulated) SetConnected(pvName string, connected bool, kind FieldKind) {
	s.mu.Lock()
	st := s.values[pvName]
	st.connected = connected
	st.kind = kind
	s.values[pvName] = st
	ch, exists := s.channels[pvName]
	s.mu.Unlock()
	if !exists {
		return
	}
	s.emit(Event{Channel: ch, Kind: EventConnection, Connected: connected, NativeKind: kind})
}

// PushValue simulates a server-side value/alarm update for pvName.
func (s *Simulated) PushValue(pvName string, numeric float64, severity, status int) {
	s.mu.Lock()
	st := s.values[pvName]
	st.numeric = numeric
	st.severity = severity
	st.status = status
	s.values[pvName] = st
	s.mu.Unlock()
	s.pushLocked(pvName)
}

// PushEnum simulates an enum value update plus its label set.
func (s *Simulated) PushEnum(pvName string, ordinal int, labels []string, severity int) {
	s.mu.Lock()
	st := s.values[pvName]
	st.enumOrd = ordinal
	st.enumLbls = labels
	st.severity = severity
	st.kind = FieldEnum
	s.values[pvName] = st
	s.mu.Unlock()
	s.pushLocked(pvName)
}

// SetAccessRights simulates a server access-rights report for pvName
// (real CA/PVA bindings report this once on connect and again on change).
func (s *Simulated) SetAccessRights(pvName string, canRead, canWrite bool) {
	s.mu.Lock()
	ch, exists := s.channels[pvName]
	s.mu.Unlock()
	if !exists {
		return
	}
	s.emit(Event{Channel: ch, Kind: EventAccessRights, CanRead: canRead, CanWrite: canWrite})
}

// SetControlInfo simulates a DBR_CTRL_* response for pvName.
func (s *Simulated) SetControlInfo(pvName string, info ControlInfo) {
	s.mu.Lock()
	st := s.values[pvName]
	st.control = info
	st.hasCtrl = true
	s.values[pvName] = st
	s.mu.Unlock()
}

// Value returns the last numeric value recorded for pvName, via PushValue
// or a successful Put (0 if the PV has none).
func (s *Simulated) Value(pvName string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[pvName].numeric
}

// StringValue returns the last string value recorded for pvName.
func (s *Simulated) StringValue(pvName string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[pvName].str
}

// EnumOrdinal returns the last enum ordinal recorded for pvName.
func (s *Simulated) EnumOrdinal(pvName string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[pvName].enumOrd
}

func (s *Simulated) pushLocked(pvName string) {
	s.mu.Lock()
	ch, exists := s.channels[pvName]
	st := s.values[pvName]
	s.mu.Unlock()
	if !exists {
		return
	}
	s.emit(Event{
		Channel:     ch,
		Kind:        EventValue,
		NativeKind:  st.kind,
		Numeric:     st.numeric,
		String:      st.str,
		EnumOrdinal: st.enumOrd,
		EnumLabels:  st.enumLbls,
		Severity:    st.severity,
		Status:      st.status,
		HasValue:    true,
	})
}

func (s *Simulated) emit(ev Event) {
	s.mu.Lock()
	sink := s.sink
	stopped := s.stopped
	s.mu.Unlock()
	if stopped || sink == nil {
		return
	}
	sink(ev)
}
