package control

import "github.com/epics-extensions/qtedm-runtime/internal/channel"

// Image is monitor-only (§4.6): an optional channel selects among a
// configured set of image frames/states; image decoding itself is out of
// scope (§1).
type Image struct {
	pvName string
	mgr    *channel.Manager

	handle    *channel.Handle
	value     float64
	connected bool
}

func NewImage(pvName string, mgr *channel.Manager) *Image {
	return &Image{pvName: pvName, mgr: mgr}
}

func (img *Image) Start() {
	if img.pvName == "" {
		img.connected = true
		return
	}
	key := channel.Key{PVName: img.pvName, RequestedType: channel.TypeDouble, ElementCount: 1}
	img.handle = img.mgr.Subscribe(key,
		func(d channel.Data) { img.value = d.NumericValue },
		func(connected bool, d channel.Data) { img.connected = connected },
		nil,
	)
}

func (img *Image) Stop() {
	if img.handle != nil {
		img.handle.Reset()
		img.handle = nil
	}
	img.value, img.connected = 0, false
}

func (img *Image) Value() float64  { return img.value }
func (img *Image) Connected() bool { return img.connected }
