package control

import (
	"github.com/epics-extensions/qtedm-runtime/internal/channel"
	"github.com/epics-extensions/qtedm-runtime/internal/coordinator"
)

// trace is one cartesian-plot X/Y (or Y-only) data source.
type trace struct {
	xName, yName     string
	xHandle, yHandle *channel.Handle
	x, y             []float64
}

// CartesianPlot keeps one trace buffer per configured trace; like
// StripChart it bypasses the update coordinator (§4.3).
type CartesianPlot struct {
	mgr    *channel.Manager
	cw     coordinator.Widget
	traces []*trace
}

// TraceSpec configures one trace; XName may be empty for a Y-vs-index plot.
type TraceSpec struct {
	XName, YName string
}

func NewCartesianPlot(specs []TraceSpec, mgr *channel.Manager, cw coordinator.Widget) *CartesianPlot {
	cp := &CartesianPlot{mgr: mgr, cw: cw}
	for _, spec := range specs {
		cp.traces = append(cp.traces, &trace{xName: spec.XName, yName: spec.YName})
	}
	return cp
}

func (cp *CartesianPlot) Start() {
	for _, t := range cp.traces {
		tt := t
		if tt.yName != "" {
			key := channel.Key{PVName: tt.yName, RequestedType: channel.TypeArray, ElementCount: 0}
			tt.yHandle = cp.mgr.Subscribe(key, func(d channel.Data) { cp.setY(tt, d.ArrayValues) }, nil, nil)
		}
		if tt.xName != "" {
			key := channel.Key{PVName: tt.xName, RequestedType: channel.TypeArray, ElementCount: 0}
			tt.xHandle = cp.mgr.Subscribe(key, func(d channel.Data) { cp.setX(tt, d.ArrayValues) }, nil, nil)
		}
	}
}

func (cp *CartesianPlot) Stop() {
	for _, t := range cp.traces {
		if t.xHandle != nil {
			t.xHandle.Reset()
			t.xHandle = nil
		}
		if t.yHandle != nil {
			t.yHandle.Reset()
			t.yHandle = nil
		}
		t.x, t.y = nil, nil
	}
}

func (cp *CartesianPlot) setX(t *trace, values []float64) {
	t.x = append([]float64(nil), values...)
	cp.repaint()
}

func (cp *CartesianPlot) setY(t *trace, values []float64) {
	t.y = append([]float64(nil), values...)
	cp.repaint()
}

func (cp *CartesianPlot) repaint() {
	if cp.cw != nil {
		coordinator.DirectRepaint(cp.cw)
	}
}

// TraceData returns trace i's current (x, y) buffers. x is nil for a
// Y-vs-index trace.
func (cp *CartesianPlot) TraceData(i int) (x, y []float64) {
	if i < 0 || i >= len(cp.traces) {
		return nil, nil
	}
	return cp.traces[i].x, cp.traces[i].y
}
