// Package graphic implements C7, the graphic-element runtime template
// shared by shapes, text, and images (§4.4): up to five auxiliary
// channels (A-E), dynamic color, dynamic visibility, and a once-compiled
// calc expression.
package graphic

import (
	"github.com/epics-extensions/qtedm-runtime/internal/calc"
	"github.com/epics-extensions/qtedm-runtime/internal/channel"
	"github.com/epics-extensions/qtedm-runtime/internal/coordinator"
	"github.com/epics-extensions/qtedm-runtime/internal/obslog"
	"github.com/epics-extensions/qtedm-runtime/internal/palette"
)

const epsilon = 1e-12

// ColorMode selects how a graphic element picks its paint color.
type ColorMode int

const (
	ColorStatic ColorMode = iota
	ColorAlarm
	ColorDiscrete
)

// VisibilityMode selects how a graphic element's visibility is derived.
type VisibilityMode int

const (
	VisibilityStatic VisibilityMode = iota
	VisibilityIfNotZero
	VisibilityIfZero
	VisibilityCalc
)

// Config is the design-time configuration of one graphic element (§3
// GraphicState).
type Config struct {
	Channels    [5]string // A..E, empty slot is unused
	ColorMode   ColorMode
	VisMode     VisibilityMode
	CalcExpr    string
	StaticColor palette.RGB
	// Discrete maps a slot-0 numeric value to a color (§9's open
	// framing: the original ADL grammar calls this the element's
	// "discrete state" color list; no further structure is specified).
	Discrete map[float64]palette.RGB
}

// State is the computed, widget-visible result of one evaluation (§4.4
// step 5).
type State struct {
	Connected bool
	Visible   bool
	Severity  int
	Color     palette.RGB
}

type slot struct {
	name      string
	connected bool
	value     float64
	severity  int
	status    int

	elementCount int
	hopr, lopr   float64
	precision    int
}

// Runtime is C7: one graphic element's live state while executing.
type Runtime struct {
	cfg Config
	mgr *channel.Manager
	cw  coordinator.Widget

	slots   [5]slot
	handles [5]*channel.Handle

	program      *calc.Program
	neverVisible bool

	state    State
	onUpdate func(State)

	log *obslog.Logger
}

// New constructs a Runtime. onUpdate is called (on the UI thread) every
// time the computed State changes; cw, if non-nil, is scheduled for a
// repaint via the coordinator instead of being called directly.
func New(cfg Config, mgr *channel.Manager, cw coordinator.Widget, onUpdate func(State)) *Runtime {
	r := &Runtime{cfg: cfg, mgr: mgr, cw: cw, onUpdate: onUpdate, log: obslog.Default()}
	for i, name := range cfg.Channels {
		r.slots[i].name = name
	}
	return r
}

func (r *Runtime) channelsConfigured() int {
	n := 0
	for _, name := range r.cfg.Channels {
		if name != "" {
			n++
		}
	}
	return n
}

// Start implements §4.4 steps 1-3. A graphic element with no configured
// channel (§4.7 HasChannel is false) never connects and is immediately
// visible; one with a channel subscribes regardless of its color/visibility
// mode, since §4.7's HasChannel ∧ ¬Connected placeholder row is keyed on the
// raw channel slot, not on whether the mode would otherwise consume it.
func (r *Runtime) Start() {
	if r.channelsConfigured() == 0 {
		r.setState(State{Connected: true, Visible: true, Severity: 0, Color: r.resolveColor(0)})
		return
	}

	if r.cfg.VisMode == VisibilityCalc {
		trimmed := r.cfg.CalcExpr
		prog, err := calc.Compile(trimmed)
		if err != nil {
			r.log.ConfigError("calc expression", err, "expr", trimmed)
			r.neverVisible = true
		} else {
			r.program = prog
		}
	}

	for i, name := range r.cfg.Channels {
		if name == "" {
			continue
		}
		idx := i
		key := channel.Key{PVName: name, RequestedType: channel.TypeDouble, ElementCount: 1}
		r.handles[idx] = r.mgr.Subscribe(key,
			func(d channel.Data) { r.onValue(idx, d) },
			func(connected bool, d channel.Data) { r.onConnection(idx, connected, d) },
			nil,
		)
	}
}

// Stop releases every subscription and resets runtime state.
func (r *Runtime) Stop() {
	for i := range r.handles {
		if r.handles[i] != nil {
			r.handles[i].Reset()
			r.handles[i] = nil
		}
	}
	r.slots = [5]slot{}
	r.program = nil
	r.neverVisible = false
}

func (r *Runtime) onConnection(slotIdx int, connected bool, d channel.Data) {
	r.slots[slotIdx].connected = connected
	if connected {
		r.slots[slotIdx].elementCount = d.NativeElemCount
		if r.slots[slotIdx].elementCount < 1 {
			r.slots[slotIdx].elementCount = 1
		}
		r.slots[slotIdx].hopr = d.DisplayHigh
		r.slots[slotIdx].lopr = d.DisplayLow
		r.slots[slotIdx].precision = d.Precision
	}
	r.evaluate()
}

func (r *Runtime) onValue(slotIdx int, d channel.Data) {
	s := &r.slots[slotIdx]
	s.value = d.NumericValue
	s.severity = d.Severity
	s.status = d.Status
	if d.HasControlInfo {
		s.hopr, s.lopr, s.precision = d.DisplayHigh, d.DisplayLow, d.Precision
	}
	r.evaluate()
}

// evaluate implements §4.4 step 4.
func (r *Runtime) evaluate() {
	if r.channelsConfigured() == 0 {
		r.setState(State{Connected: true, Visible: true, Severity: 0, Color: r.resolveColor(0)})
		return
	}

	for i, name := range r.cfg.Channels {
		if name == "" {
			continue
		}
		if !r.slots[i].connected {
			r.setState(State{Connected: false, Severity: 3, Visible: true, Color: palette.Disconnected})
			return
		}
	}

	s0 := r.slots[0]
	severity := s0.severity
	visible := r.computeVisibility(s0)
	r.setState(State{Connected: true, Visible: visible, Severity: severity, Color: r.resolveColor(severity)})
}

func (r *Runtime) computeVisibility(s0 slot) bool {
	if r.neverVisible {
		return false
	}
	switch r.cfg.VisMode {
	case VisibilityStatic:
		return true
	case VisibilityIfNotZero:
		return abs(s0.value) > epsilon
	case VisibilityIfZero:
		return abs(s0.value) <= epsilon
	case VisibilityCalc:
		if r.program == nil {
			return false
		}
		elementCount := s0.elementCount
		if elementCount < 1 {
			elementCount = 1
		}
		in := calc.Inputs{
			r.slots[0].value, r.slots[1].value, r.slots[2].value, r.slots[3].value,
			0, 0,
			float64(elementCount), s0.hopr, float64(s0.status), float64(s0.severity),
			float64(s0.precision), s0.lopr,
		}
		result, err := r.program.Eval(in)
		if err != nil {
			r.log.ConfigError("calc evaluation", err, "expr", r.program.Source())
			return false
		}
		return result != 0
	default:
		return true
	}
}

func (r *Runtime) resolveColor(severity int) palette.RGB {
	switch r.cfg.ColorMode {
	case ColorAlarm:
		return palette.AlarmColor(palette.Severity(severity))
	case ColorDiscrete:
		if c, ok := r.cfg.Discrete[r.slots[0].value]; ok {
			return c
		}
		return r.cfg.StaticColor
	default:
		return r.cfg.StaticColor
	}
}

func (r *Runtime) setState(s State) {
	if s == r.state {
		return
	}
	r.state = s
	if r.onUpdate != nil {
		r.onUpdate(s)
	}
	if r.cw != nil {
		coordinator.Default().RequestUpdate(r.cw)
	}
}

// CurrentState returns the most recently computed widget state.
func (r *Runtime) CurrentState() State { return r.state }

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
