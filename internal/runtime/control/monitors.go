package control

import "github.com/epics-extensions/qtedm-runtime/internal/channel"

// TextMonitor is a read-only string display (§4.6).
type TextMonitor struct {
	pvName string
	mgr    *channel.Manager

	handle    *channel.Handle
	value     string
	connected bool
	severity  int
}

func NewTextMonitor(pvName string, mgr *channel.Manager) *TextMonitor {
	return &TextMonitor{pvName: pvName, mgr: mgr}
}

func (t *TextMonitor) Start() {
	if t.pvName == "" {
		return
	}
	key := channel.Key{PVName: t.pvName, RequestedType: channel.TypeString, ElementCount: 1}
	t.handle = t.mgr.Subscribe(key,
		func(d channel.Data) { t.value, t.severity = d.StringValue, d.Severity },
		func(connected bool, d channel.Data) { t.connected = connected },
		nil,
	)
}

func (t *TextMonitor) Stop() {
	if t.handle != nil {
		t.handle.Reset()
		t.handle = nil
	}
	t.value, t.connected, t.severity = "", false, 0
}

func (t *TextMonitor) Value() string   { return t.value }
func (t *TextMonitor) Connected() bool { return t.connected }
func (t *TextMonitor) Severity() int   { return t.severity }

// ByteMonitor displays a numeric value interpreted bit-by-bit (§4.6).
type ByteMonitor struct {
	pvName string
	mgr    *channel.Manager

	handle    *channel.Handle
	raw       uint32
	connected bool
	severity  int
}

func NewByteMonitor(pvName string, mgr *channel.Manager) *ByteMonitor {
	return &ByteMonitor{pvName: pvName, mgr: mgr}
}

func (b *ByteMonitor) Start() {
	if b.pvName == "" {
		return
	}
	key := channel.Key{PVName: b.pvName, RequestedType: channel.TypeDouble, ElementCount: 1}
	b.handle = b.mgr.Subscribe(key,
		func(d channel.Data) { b.raw, b.severity = uint32(int64(d.NumericValue)), d.Severity },
		func(connected bool, d channel.Data) { b.connected = connected },
		nil,
	)
}

func (b *ByteMonitor) Stop() {
	if b.handle != nil {
		b.handle.Reset()
		b.handle = nil
	}
	b.raw, b.connected, b.severity = 0, false, 0
}

// Bit reports whether bit n (0 = least significant) is set.
func (b *ByteMonitor) Bit(n int) bool {
	if n < 0 || n > 31 {
		return false
	}
	return b.raw&(1<<uint(n)) != 0
}

func (b *ByteMonitor) Connected() bool { return b.connected }
func (b *ByteMonitor) Severity() int   { return b.severity }
