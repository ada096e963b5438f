// Package control implements C9: the control widget runtimes (slider,
// wheel-switch, text entries, choice-button, menu, message-button,
// related-display, shell-command, text-monitor, byte-monitor, strip-chart,
// cartesian-plot, heatmap, image) per §4.6. Every write path, regardless
// of widget type, reports through the shared channel manager's audit
// integration (C5).
package control

import (
	"context"
	"math"

	"github.com/epics-extensions/qtedm-runtime/internal/channel"
)

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// access tracks the last access-rights report for a channel so an
// activation can be silently ignored per §4.6/§7 kind 5.
type access struct {
	canRead, canWrite bool
}

// NumericInput drives a slider, wheel-switch, or numeric text-entry: one
// writable double channel, last-known value mirrored from the server.
type NumericInput struct {
	pvName     string
	widgetType string
	mgr        *channel.Manager

	handle    *channel.Handle
	value     float64
	connected bool
	access    access
}

// NewNumericInput constructs a slider/wheel-switch/numeric-text-entry
// runtime. widgetType names the concrete widget for audit records
// ("Slider", "WheelSwitch", "TextEntry").
func NewNumericInput(pvName, widgetType string, mgr *channel.Manager) *NumericInput {
	return &NumericInput{pvName: pvName, widgetType: widgetType, mgr: mgr}
}

func (n *NumericInput) Start() {
	if n.pvName == "" {
		return
	}
	key := channel.Key{PVName: n.pvName, RequestedType: channel.TypeDouble, ElementCount: 1}
	n.handle = n.mgr.Subscribe(key,
		func(d channel.Data) { n.value = d.NumericValue; n.connected = d.Connected },
		func(connected bool, d channel.Data) { n.connected = connected },
		func(canRead, canWrite bool) { n.access = access{canRead, canWrite} },
	)
}

func (n *NumericInput) Stop() {
	if n.handle != nil {
		n.handle.Reset()
		n.handle = nil
	}
	n.value, n.connected, n.access = 0, false, access{}
}

// Value returns the widget's last-known server value (what it displays
// when an activation is ignored).
func (n *NumericInput) Value() float64 { return n.value }

// Activate implements §4.6: on activation with value v, write iff
// connected, write-access granted, and v is finite; otherwise ignore
// silently.
func (n *NumericInput) Activate(ctx context.Context, v float64) {
	if !n.connected || !n.access.canWrite || !finite(v) {
		return
	}
	_ = n.mgr.PutNumeric(ctx, n.pvName, v, n.widgetType)
}

// StringInput drives a string text-entry.
type StringInput struct {
	pvName string
	mgr    *channel.Manager

	handle    *channel.Handle
	value     string
	connected bool
	access    access
}

func NewStringInput(pvName string, mgr *channel.Manager) *StringInput {
	return &StringInput{pvName: pvName, mgr: mgr}
}

func (s *StringInput) Start() {
	if s.pvName == "" {
		return
	}
	key := channel.Key{PVName: s.pvName, RequestedType: channel.TypeString, ElementCount: 1}
	s.handle = s.mgr.Subscribe(key,
		func(d channel.Data) { s.value = d.StringValue; s.connected = d.Connected },
		func(connected bool, d channel.Data) { s.connected = connected },
		func(canRead, canWrite bool) { s.access = access{canRead, canWrite} },
	)
}

func (s *StringInput) Stop() {
	if s.handle != nil {
		s.handle.Reset()
		s.handle = nil
	}
	s.value, s.connected, s.access = "", false, access{}
}

func (s *StringInput) Value() string { return s.value }

func (s *StringInput) Activate(ctx context.Context, v string) {
	if !s.connected || !s.access.canWrite {
		return
	}
	_ = s.mgr.PutString(ctx, s.pvName, v, "TextEntry")
}

// EnumInput drives a choice-button or menu: subscribes DBR_TIME_ENUM,
// requests DBR_CTRL_ENUM once on connect to cache labels.
type EnumInput struct {
	pvName     string
	widgetType string
	mgr        *channel.Manager

	handle    *channel.Handle
	ordinal   int
	labels    []string
	connected bool
	access    access
}

func NewEnumInput(pvName, widgetType string, mgr *channel.Manager) *EnumInput {
	return &EnumInput{pvName: pvName, widgetType: widgetType, mgr: mgr}
}

func (e *EnumInput) Start() {
	if e.pvName == "" {
		return
	}
	key := channel.Key{PVName: e.pvName, RequestedType: channel.TypeEnum, ElementCount: 1}
	e.handle = e.mgr.Subscribe(key,
		func(d channel.Data) {
			e.ordinal = d.EnumOrdinal
			e.connected = d.Connected
			if len(d.EnumLabels) > 0 {
				e.labels = d.EnumLabels
			}
		},
		func(connected bool, d channel.Data) {
			e.connected = connected
			if connected && len(d.EnumLabels) > 0 {
				e.labels = d.EnumLabels
			}
		},
		func(canRead, canWrite bool) { e.access = access{canRead, canWrite} },
	)
}

func (e *EnumInput) Stop() {
	if e.handle != nil {
		e.handle.Reset()
		e.handle = nil
	}
	e.ordinal, e.labels, e.connected, e.access = 0, nil, false, access{}
}

func (e *EnumInput) Ordinal() int     { return e.ordinal }
func (e *EnumInput) Labels() []string { return e.labels }

// Activate implements §4.6/§8: ordinal must be in [0, labelCount); the
// boundary ordinal == labelCount is rejected, 0 is accepted, negative is
// rejected.
func (e *EnumInput) Activate(ctx context.Context, ordinal int) {
	if !e.access.canWrite {
		return
	}
	if ordinal < 0 || ordinal >= len(e.labels) {
		return
	}
	_ = e.mgr.PutEnum(ctx, e.pvName, ordinal, e.widgetType)
}

// MessageButton issues a configured press-value on press and an optional
// release-value on release (§4.6).
type MessageButton struct {
	pvName               string
	press, release       string
	hasPress, hasRelease bool
	mgr                  *channel.Manager

	handle    *channel.Handle
	connected bool
	access    access
}

func NewMessageButton(pvName, pressValue, releaseValue string, hasPress, hasRelease bool, mgr *channel.Manager) *MessageButton {
	return &MessageButton{pvName: pvName, press: pressValue, release: releaseValue, hasPress: hasPress, hasRelease: hasRelease, mgr: mgr}
}

func (b *MessageButton) Start() {
	if b.pvName == "" {
		return
	}
	key := channel.Key{PVName: b.pvName, RequestedType: channel.TypeString, ElementCount: 1}
	b.handle = b.mgr.Subscribe(key,
		nil,
		func(connected bool, d channel.Data) { b.connected = connected },
		func(canRead, canWrite bool) { b.access = access{canRead, canWrite} },
	)
}

func (b *MessageButton) Stop() {
	if b.handle != nil {
		b.handle.Reset()
		b.handle = nil
	}
	b.connected, b.access = false, access{}
}

func (b *MessageButton) Press(ctx context.Context) {
	if !b.hasPress || !b.connected || !b.access.canWrite {
		return
	}
	_ = b.mgr.PutString(ctx, b.pvName, b.press, "MessageButton")
}

func (b *MessageButton) Release(ctx context.Context) {
	if !b.hasRelease || !b.connected || !b.access.canWrite {
		return
	}
	_ = b.mgr.PutString(ctx, b.pvName, b.release, "MessageButton")
}
