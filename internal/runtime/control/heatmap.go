package control

import (
	"github.com/epics-extensions/qtedm-runtime/internal/channel"
	"github.com/epics-extensions/qtedm-runtime/internal/coordinator"
)

// Heatmap keeps a 2-D buffer sized from X/Y dimension sources, which may
// themselves be PVs (§4.6).
type Heatmap struct {
	mgr *channel.Manager
	cw  coordinator.Widget

	dataName, widthName, heightName       string
	dataHandle, widthHandle, heightHandle *channel.Handle

	width, height int
	data          []float64
}

func NewHeatmap(dataName, widthName, heightName string, mgr *channel.Manager, cw coordinator.Widget) *Heatmap {
	return &Heatmap{mgr: mgr, cw: cw, dataName: dataName, widthName: widthName, heightName: heightName}
}

func (h *Heatmap) Start() {
	if h.widthName != "" {
		key := channel.Key{PVName: h.widthName, RequestedType: channel.TypeDouble, ElementCount: 1}
		h.widthHandle = h.mgr.Subscribe(key, func(d channel.Data) { h.width = int(d.NumericValue) }, nil, nil)
	}
	if h.heightName != "" {
		key := channel.Key{PVName: h.heightName, RequestedType: channel.TypeDouble, ElementCount: 1}
		h.heightHandle = h.mgr.Subscribe(key, func(d channel.Data) { h.height = int(d.NumericValue) }, nil, nil)
	}
	if h.dataName != "" {
		key := channel.Key{PVName: h.dataName, RequestedType: channel.TypeArray, ElementCount: 0}
		h.dataHandle = h.mgr.Subscribe(key, func(d channel.Data) { h.setData(d.ArrayValues) }, nil, nil)
	}
}

func (h *Heatmap) Stop() {
	for _, handle := range []*channel.Handle{h.dataHandle, h.widthHandle, h.heightHandle} {
		if handle != nil {
			handle.Reset()
		}
	}
	h.dataHandle, h.widthHandle, h.heightHandle = nil, nil, nil
	h.width, h.height, h.data = 0, 0, nil
}

func (h *Heatmap) setData(values []float64) {
	h.data = append([]float64(nil), values...)
	if h.cw != nil {
		coordinator.DirectRepaint(h.cw)
	}
}

// At returns the value at (x, y), or 0 if out of the current buffer's
// bounds (dimensions may not have been resolved yet).
func (h *Heatmap) At(x, y int) float64 {
	if h.width <= 0 || x < 0 || x >= h.width || y < 0 {
		return 0
	}
	idx := y*h.width + x
	if idx < 0 || idx >= len(h.data) {
		return 0
	}
	return h.data[idx]
}

func (h *Heatmap) Dimensions() (width, height int) { return h.width, h.height }
