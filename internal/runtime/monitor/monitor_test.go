package monitor

import (
	"math"
	"testing"
	"time"

	"github.com/epics-extensions/qtedm-runtime/internal/channel"
	"github.com/epics-extensions/qtedm-runtime/internal/palette"
	"github.com/epics-extensions/qtedm-runtime/internal/protocol"
)

func newTestManager(t *testing.T) (*channel.Manager, *protocol.Simulated) {
	t.Helper()
	sim := protocol.NewSimulated()
	mgr := channel.New(func(protocol.Kind) protocol.Transport { return sim }, nil, channel.Hooks{})
	if err := sim.Start(mgr.Dispatch); err != nil {
		t.Fatalf("sim.Start: %v", err)
	}
	return mgr, sim
}

func TestOnConnectionMarksDisconnectedAsInvalidSeverity(t *testing.T) {
	mgr, sim := newTestManager(t)
	var got State
	r := New("meter:pv", mgr, nil, func(s State) { got = s })
	r.Start()
	defer r.Stop()

	sim.SetConnected("meter:pv", true, protocol.FieldNumeric)
	sim.PushValue("meter:pv", 1, 0, 0)
	sim.SetConnected("meter:pv", false, protocol.FieldNumeric)

	if got.Connected {
		t.Error("state should report disconnected")
	}
	if got.Severity != 3 {
		t.Errorf("Severity = %d, want 3 (INVALID) on disconnect", got.Severity)
	}
}

func TestOnValueIgnoresNonFiniteValue(t *testing.T) {
	mgr, sim := newTestManager(t)
	emits := 0
	r := New("finite:pv", mgr, nil, func(State) { emits++ })
	r.Start()
	defer r.Stop()

	sim.SetConnected("finite:pv", true, protocol.FieldNumeric)
	emits = 0 // ignore the connection emit; only count value emits below

	// PushValue with a non-finite value is impossible to construct through
	// Simulated directly (its numeric field is always finite), so exercise
	// the guard at the unit level via onValue.
	r.onValue(channel.Data{NumericValue: math.NaN(), Connected: true})
	if emits != 0 || math.IsNaN(r.CurrentState().Value) {
		t.Error("a NaN value must never become the current state")
	}
}

func TestOnValueChangeGateSuppressesUnchangedValueAndSeverity(t *testing.T) {
	mgr, sim := newTestManager(t)
	emits := 0
	r := New("gate:pv", mgr, nil, func(State) { emits++ })
	r.Start()
	defer r.Stop()

	sim.SetConnected("gate:pv", true, protocol.FieldNumeric)
	sim.PushValue("gate:pv", 5, 0, 0)
	before := emits

	sim.PushValue("gate:pv", 5, 0, 0) // identical value+severity
	if emits != before {
		t.Errorf("emits = %d, want %d (unchanged value+severity should not re-emit)", emits, before)
	}

	// Wait out the manager's 100 ms per-channel notification floor.
	time.Sleep(110 * time.Millisecond)
	sim.PushValue("gate:pv", 5, 2, 0) // severity changed
	if emits != before+1 {
		t.Errorf("emits = %d, want %d (severity change should emit)", emits, before+1)
	}
}

func TestColorReflectsConnectionAndSeverity(t *testing.T) {
	mgr, sim := newTestManager(t)
	r := New("color:pv", mgr, nil, nil)
	r.Start()
	defer r.Stop()

	if got := r.Color(); got != palette.Disconnected {
		t.Errorf("Color() before connect = %+v, want palette.Disconnected", got)
	}

	sim.SetConnected("color:pv", true, protocol.FieldNumeric)
	sim.PushValue("color:pv", 1, 1, 0) // MINOR

	want := palette.AlarmColor(palette.Severity(1))
	if got := r.Color(); got != want {
		t.Errorf("Color() = %+v, want %+v (MINOR)", got, want)
	}
}

func TestStopClearsState(t *testing.T) {
	mgr, sim := newTestManager(t)
	r := New("stop:pv", mgr, nil, nil)
	r.Start()
	sim.SetConnected("stop:pv", true, protocol.FieldNumeric)
	sim.PushValue("stop:pv", 3, 0, 0)

	r.Stop()
	if r.hasState {
		t.Error("Stop should clear hasState")
	}
	if r.CurrentState() != (State{}) {
		t.Errorf("CurrentState() after Stop = %+v, want zero value", r.CurrentState())
	}
}
