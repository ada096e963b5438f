package display

import (
	"testing"

	"github.com/epics-extensions/qtedm-runtime/internal/adl"
	"github.com/epics-extensions/qtedm-runtime/internal/channel"
	"github.com/epics-extensions/qtedm-runtime/internal/composite"
	"github.com/epics-extensions/qtedm-runtime/internal/coordinator"
	"github.com/epics-extensions/qtedm-runtime/internal/protocol"
	"github.com/epics-extensions/qtedm-runtime/internal/runtime/control"
)

func newTestBuilder(t *testing.T) *Builder {
	t.Helper()
	sim := protocol.NewSimulated()
	mgr := channel.New(func(protocol.Kind) protocol.Transport { return sim }, nil, channel.Hooks{})
	if err := sim.Start(mgr.Dispatch); err != nil {
		t.Fatalf("sim.Start: %v", err)
	}
	return &Builder{Manager: mgr, Coordinator: coordinator.New()}
}

func mustParse(t *testing.T, src string) []*adl.Node {
	t.Helper()
	nodes, err := adl.Parse(src)
	if err != nil {
		t.Fatalf("adl.Parse: %v", err)
	}
	return nodes
}

func TestBuildDispatchesEachKnownElementKeyword(t *testing.T) {
	src := `rectangle {
	object { x=0 y=0 width=1 height=1 }
}
meter {
	object { x=0 y=0 width=1 height=1 }
	monitor { chan="m:pv" }
}
slider {
	object { x=0 y=0 width=1 height=1 }
	control { chan="s:pv" }
}
"message button" {
	object { x=0 y=0 width=1 height=1 }
	control { chan="b:pv" }
	press_msg="1"
}
`
	b := newTestBuilder(t)
	d, err := b.Build("test.adl", mustParse(t, src))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(d.Widgets) != 4 {
		t.Fatalf("got %d widgets, want 4", len(d.Widgets))
	}
	kinds := map[Kind]bool{}
	for _, w := range d.Widgets {
		kinds[w.Kind] = true
	}
	for _, want := range []Kind{KindRectangle, KindMeter, KindSlider, KindMessageButton} {
		if !kinds[want] {
			t.Errorf("missing widget of kind %v", want)
		}
	}
}

func TestBuildSkipsUnknownElementKeyword(t *testing.T) {
	src := `futureWidgetKind {
	object { x=0 y=0 width=1 height=1 }
}
`
	b := newTestBuilder(t)
	d, err := b.Build("test.adl", mustParse(t, src))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(d.Widgets) != 0 {
		t.Errorf("got %d widgets, want 0 (unknown keyword skipped)", len(d.Widgets))
	}
}

func TestBuildFileAndDisplayBlocksSetNameAndBounds(t *testing.T) {
	src := `file {
	name="panel.adl"
}
display {
	object { x=1 y=2 width=300 height=400 }
}
rectangle {
	object { x=0 y=0 width=1 height=1 }
}
`
	b := newTestBuilder(t)
	d, err := b.Build("test.adl", mustParse(t, src))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if d.Name != "panel.adl" {
		t.Errorf("Name = %q, want panel.adl", d.Name)
	}
	if d.Bounds != (adl.Rect{X: 1, Y: 2, Width: 300, Height: 400}) {
		t.Errorf("Bounds = %+v, want {1 2 300 400}", d.Bounds)
	}
}

func TestBuildNestedCompositeWiresChildren(t *testing.T) {
	src := `composite {
	object { x=0 y=0 width=10 height=10 }
	children {
		rectangle {
			object { x=0 y=0 width=1 height=1 }
		}
		text {
			object { x=0 y=0 width=1 height=1 }
		}
	}
}
`
	b := newTestBuilder(t)
	d, err := b.Build("test.adl", mustParse(t, src))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(d.Widgets) != 1 || d.Widgets[0].Kind != KindComposite {
		t.Fatalf("expected a single top-level composite widget, got %+v", d.Widgets)
	}
	comp, ok := d.Widgets[0].Elem.(*composite.Composite)
	if !ok {
		t.Fatalf("Elem is %T, want *composite.Composite", d.Widgets[0].Elem)
	}
	if len(comp.ZOrder()) != 2 {
		t.Errorf("composite has %d children, want 2", len(comp.ZOrder()))
	}
}

func TestBuildTextEntryPicksStringOrNumericByFormat(t *testing.T) {
	stringSrc := `"text entry" {
	object { x=0 y=0 width=1 height=1 }
	control { chan="te:pv" }
	format="string"
}
`
	numericSrc := `"text entry" {
	object { x=0 y=0 width=1 height=1 }
	control { chan="te2:pv" }
}
`
	b := newTestBuilder(t)

	sd, err := b.Build("test.adl", mustParse(t, stringSrc))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, ok := sd.Widgets[0].Extra.(*control.StringInput); !ok {
		t.Errorf("format=string text entry Extra = %T, want *control.StringInput", sd.Widgets[0].Extra)
	}

	nd, err := b.Build("test.adl", mustParse(t, numericSrc))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, ok := nd.Widgets[0].Extra.(*control.NumericInput); !ok {
		t.Errorf("default-format text entry Extra = %T, want *control.NumericInput", nd.Widgets[0].Extra)
	}
}
