package display

import (
	"fmt"

	"github.com/epics-extensions/qtedm-runtime/internal/audit"
	"github.com/epics-extensions/qtedm-runtime/internal/channel"
	"github.com/epics-extensions/qtedm-runtime/internal/coordinator"
	"github.com/epics-extensions/qtedm-runtime/internal/protocol"
	"github.com/epics-extensions/qtedm-runtime/internal/stats"
)

// Engine wires the shared channel manager (C4), update coordinator (C6),
// audit logger (C12), and statistics tracker (C11) together for the
// lifetime of one process, and tracks the Display currently loaded into
// it (§4.9 "four singletons ... own the process's entire EPICS-facing
// state").
type Engine struct {
	Manager     *channel.Manager
	Coordinator *coordinator.Coordinator
	Audit       *audit.Logger
	Stats       *stats.Tracker

	newTransport func(protocol.Kind) func() protocol.Transport

	current   *Display
	executing bool
}

// NewEngine constructs an Engine. auditEnabled/displayFile configure the
// audit logger (§4.8); newCA/newPVA are transport factories (protocol.
// NewSimulated for the CLI's default headless run, or a real CA/PVA
// binding).
func NewEngine(auditEnabled bool, displayFile string, newCA, newPVA func() protocol.Transport) *Engine {
	st := stats.New()
	al := audit.New(auditEnabled, displayFile)
	cw := coordinator.New()

	e := &Engine{
		Coordinator: cw,
		Audit:       al,
		Stats:       st,
	}

	mgr := channel.New(e.transportFor(newCA, newPVA), al, st.Hooks())
	e.Manager = mgr
	st.BindManager(mgr)
	return e
}

// transportFor resolves protocol.Kind to the lazily-initialized singleton
// context for that protocol, starting it against the engine's own
// Manager.Dispatch sink the first time it is needed (§4.1).
func (e *Engine) transportFor(newCA, newPVA func() protocol.Transport) func(protocol.Kind) protocol.Transport {
	return func(kind protocol.Kind) protocol.Transport {
		switch kind {
		case protocol.KindPVA:
			return protocol.PVA().EnsureInitializedWith(newPVA, e.dispatch)
		default:
			return protocol.CA().EnsureInitializedWith(newCA, e.dispatch)
		}
	}
}

func (e *Engine) dispatch(ev protocol.Event) {
	e.Manager.Dispatch(ev)
}

// Open loads path, replacing any currently-open display (§4.9 "Replace"
// policy: the previous display's widgets stop executing and are
// discarded before the new one starts).
func (e *Engine) Open(path string) (*Display, error) {
	b := &Builder{Manager: e.Manager, Coordinator: e.Coordinator}
	d, err := Load(path, b)
	if err != nil {
		return nil, fmt.Errorf("engine: open %s: %w", path, err)
	}
	e.Close()
	e.Audit.SetDisplayFile(path)
	e.current = d
	if e.executing {
		d.SetExecute(true)
	}
	e.Stats.NoteDisplayOpened()
	return d, nil
}

// Close stops the current display's widgets, if any, without opening a
// replacement.
func (e *Engine) Close() {
	if e.current == nil {
		return
	}
	e.current.SetExecute(false)
	e.current = nil
	e.Stats.NoteDisplayClosed()
}

// SetExecute toggles execute mode for the currently loaded display, and
// remembers the mode for the next Open (§4.7's cascade starts the moment a
// display is loaded in execute mode).
func (e *Engine) SetExecute(on bool) {
	e.executing = on
	if e.current != nil {
		e.current.SetExecute(on)
	}
}

// Current returns the currently loaded Display, or nil.
func (e *Engine) Current() *Display { return e.current }

// SetExecute recursively applies execute mode to every top-level widget,
// in declaration order, mirroring §4.7's cascade.
func (d *Display) SetExecute(on bool) {
	for _, w := range d.Widgets {
		w.SetExecute(on)
	}
	d.applyZOrder()
}
