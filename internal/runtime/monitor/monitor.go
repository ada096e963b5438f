// Package monitor implements C8, the single-channel monitor runtime used
// by meters, bars, and scales (§4.5): one channel, no visibility/calc, an
// on-connect DBR_CTRL_DOUBLE fetch, and a change-gated update emission.
package monitor

import (
	"math"

	"github.com/epics-extensions/qtedm-runtime/internal/channel"
	"github.com/epics-extensions/qtedm-runtime/internal/coordinator"
	"github.com/epics-extensions/qtedm-runtime/internal/palette"
)

const epsilon = 1e-12

// State is the widget-visible result of one evaluation.
type State struct {
	Connected  bool
	Severity   int
	Value      float64
	HOPR, LOPR float64
	Precision  int
	Units      string
}

// Runtime is C8: one meter/bar/scale's live state while executing.
type Runtime struct {
	pvName string
	mgr    *channel.Manager
	cw     coordinator.Widget

	handle *channel.Handle

	state    State
	hasState bool
	onUpdate func(State)
}

// New constructs a Runtime bound to pvName. onUpdate fires whenever the
// computed state passes the change gate.
func New(pvName string, mgr *channel.Manager, cw coordinator.Widget, onUpdate func(State)) *Runtime {
	return &Runtime{pvName: pvName, mgr: mgr, cw: cw, onUpdate: onUpdate}
}

func (r *Runtime) Start() {
	if r.pvName == "" {
		return
	}
	key := channel.Key{PVName: r.pvName, RequestedType: channel.TypeDouble, ElementCount: 1}
	r.handle = r.mgr.Subscribe(key,
		func(d channel.Data) { r.onValue(d) },
		func(connected bool, d channel.Data) { r.onConnection(connected, d) },
		nil,
	)
}

func (r *Runtime) Stop() {
	if r.handle != nil {
		r.handle.Reset()
		r.handle = nil
	}
	r.state = State{}
	r.hasState = false
}

func (r *Runtime) onConnection(connected bool, d channel.Data) {
	next := r.state
	next.Connected = connected
	if !connected {
		next.Severity = 3
		r.emit(next)
		return
	}
	if d.HasControlInfo {
		next.HOPR, next.LOPR, next.Precision, next.Units = d.DisplayHigh, d.DisplayLow, d.Precision, d.Units
	}
	r.emit(next)
}

func (r *Runtime) onValue(d channel.Data) {
	if math.IsNaN(d.NumericValue) || math.IsInf(d.NumericValue, 0) {
		return
	}
	next := r.state
	next.Connected = true
	next.Value = d.NumericValue
	next.Severity = d.Severity
	if d.HasControlInfo {
		next.HOPR, next.LOPR, next.Precision, next.Units = d.DisplayHigh, d.DisplayLow, d.Precision, d.Units
	}

	if r.hasState && math.Abs(next.Value-r.state.Value) <= epsilon && next.Severity == r.state.Severity {
		return
	}
	r.emit(next)
}

func (r *Runtime) emit(next State) {
	r.state = next
	r.hasState = true
	if r.onUpdate != nil {
		r.onUpdate(next)
	}
	if r.cw != nil {
		coordinator.Default().RequestUpdate(r.cw)
	}
}

// CurrentState returns the most recently computed widget state.
func (r *Runtime) CurrentState() State { return r.state }

// Color resolves the alarm-severity paint color for the current state.
func (r *Runtime) Color() palette.RGB {
	if !r.state.Connected {
		return palette.Disconnected
	}
	return palette.AlarmColor(palette.Severity(r.state.Severity))
}
