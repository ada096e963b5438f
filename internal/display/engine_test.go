package display

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/epics-extensions/qtedm-runtime/internal/protocol"
	"github.com/epics-extensions/qtedm-runtime/internal/runtime/graphic"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	sim := protocol.NewSimulated()
	newTransport := func() protocol.Transport { return sim }
	return NewEngine(false, "", newTransport, newTransport)
}

func writeDisplay(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "panel.adl")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

const simpleDisplay = `rectangle {
	object { x=0 y=0 width=1 height=1 }
}
`

func TestEngineOpenLoadsDisplayAndTracksCurrent(t *testing.T) {
	e := newTestEngine(t)
	path := writeDisplay(t, simpleDisplay)

	d, err := e.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if e.Current() != d {
		t.Error("Current() should return the just-opened display")
	}
	if len(d.Widgets) != 1 {
		t.Fatalf("got %d widgets, want 1", len(d.Widgets))
	}
}

func TestEngineOpenReplacesPreviousDisplay(t *testing.T) {
	e := newTestEngine(t)
	first, err := e.Open(writeDisplay(t, simpleDisplay))
	if err != nil {
		t.Fatalf("Open (first): %v", err)
	}
	e.SetExecute(true)

	second, err := e.Open(writeDisplay(t, simpleDisplay))
	if err != nil {
		t.Fatalf("Open (second): %v", err)
	}
	if e.Current() == first {
		t.Error("Current() should now be the second display, not the first")
	}
	if e.Current() != second {
		t.Error("Current() should be the second display")
	}
}

func TestEngineSetExecuteAppliesToCurrentAndCarriesToNextOpen(t *testing.T) {
	e := newTestEngine(t)
	d1, err := e.Open(writeDisplay(t, simpleDisplay))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	rt1 := d1.Widgets[0].Extra.(*graphic.Runtime)
	if rt1.CurrentState().Connected {
		t.Error("a not-yet-executing display's widgets should not have started")
	}

	e.SetExecute(true)
	if !rt1.CurrentState().Connected {
		t.Error("SetExecute(true) should start the current display's widgets")
	}

	d2, err := e.Open(writeDisplay(t, simpleDisplay))
	if err != nil {
		t.Fatalf("Open (second): %v", err)
	}
	rt2 := d2.Widgets[0].Extra.(*graphic.Runtime)
	if !rt2.CurrentState().Connected {
		t.Error("execute mode should carry over to the next opened display")
	}
}

func TestEngineCloseStopsCurrentDisplay(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Open(writeDisplay(t, simpleDisplay))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	e.Close()
	if e.Current() != nil {
		t.Error("Current() should be nil after Close")
	}
}

func TestEngineOpenMissingFileFails(t *testing.T) {
	e := newTestEngine(t)
	if _, err := e.Open(filepath.Join(t.TempDir(), "missing.adl")); err == nil {
		t.Error("Open of a missing file should fail")
	}
}
