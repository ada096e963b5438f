// Package display implements the Display/Composite/Widget data model
// (§3) and the engine that wires the shared channel manager (C4), update
// coordinator (C6), composite tree (C10), and audit logger (C12)
// together for one loaded display file.
package display

import (
	"github.com/epics-extensions/qtedm-runtime/internal/adl"
	"github.com/epics-extensions/qtedm-runtime/internal/composite"
)

// Kind names a widget's concrete runtime shape, used for audit records
// and z-order bucketing (§9's "tagged-variant... one dispatch function
// per operation" instruction, applied instead of a deep class hierarchy).
type Kind string

const (
	KindRectangle      Kind = "Rectangle"
	KindOval           Kind = "Oval"
	KindArc            Kind = "Arc"
	KindPolygon        Kind = "Polygon"
	KindPolyline       Kind = "Polyline"
	KindText           Kind = "Text"
	KindImage          Kind = "Image"
	KindMeter          Kind = "Meter"
	KindBar            Kind = "Bar"
	KindScale          Kind = "Scale"
	KindSlider         Kind = "Slider"
	KindWheelSwitch    Kind = "WheelSwitch"
	KindTextEntry      Kind = "TextEntry"
	KindChoiceButton   Kind = "ChoiceButton"
	KindMenu           Kind = "Menu"
	KindMessageButton  Kind = "MessageButton"
	KindRelatedDisplay Kind = "RelatedDisplay"
	KindShellCommand   Kind = "ShellCommand"
	KindTextMonitor    Kind = "TextMonitor"
	KindByteMonitor    Kind = "ByteMonitor"
	KindStripChart     Kind = "StripChart"
	KindCartesianPlot  Kind = "CartesianPlot"
	KindHeatmap        Kind = "Heatmap"
	KindComposite      Kind = "Composite"
)

// Widget is one instantiated, executing element of a loaded Display. The
// concrete runtime (graphic.Runtime, monitor.Runtime, a control.*, or a
// *composite.Composite) is held behind the composite.Element interface so
// the tree can treat every kind uniformly for execute/visibility/z-order
// purposes; Extra holds kind-specific accessors callers can type-assert.
type Widget struct {
	Kind  Kind
	Rect  adl.Rect
	Name  string
	Elem  composite.Element
	Extra any
}

func (w *Widget) SetExecute(on bool)                 { w.Elem.SetExecute(on) }
func (w *Widget) Classify() composite.Classification { return w.Elem.Classify() }
func (w *Widget) SetVisible(v bool)                  { w.Elem.SetVisible(v) }

// Display is the root widget collection for one panel (§3).
type Display struct {
	Path    string
	Name    string
	Bounds  adl.Rect
	Widgets []*Widget

	order []*Widget // current z-order, recomputed by applyZOrder
}

// ZOrder returns the display's current top-level paint order (the same
// three-bucket discipline composites use, applied once at the root).
func (d *Display) ZOrder() []*Widget {
	if d.order != nil {
		return d.order
	}
	return d.Widgets
}

func (d *Display) applyZOrder() {
	var static, dynamic, interactive []*Widget
	for _, w := range d.Widgets {
		switch w.Classify() {
		case composite.ClassStatic:
			static = append(static, w)
		case composite.ClassDynamic:
			dynamic = append(dynamic, w)
		default:
			interactive = append(interactive, w)
		}
	}
	order := make([]*Widget, 0, len(d.Widgets))
	order = append(order, static...)
	order = append(order, dynamic...)
	order = append(order, interactive...)
	d.order = order
}
