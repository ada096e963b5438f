package control

import (
	"time"

	"github.com/epics-extensions/qtedm-runtime/internal/channel"
	"github.com/epics-extensions/qtedm-runtime/internal/coordinator"
)

// StripChartPoint is one ring-buffer sample.
type StripChartPoint struct {
	At    time.Time
	Value float64
}

// pen is one strip-chart trace: one channel and its ring buffer.
type pen struct {
	pvName string
	handle *channel.Handle
	buf    []StripChartPoint
	next   int
	filled bool
}

// StripChart keeps one ring buffer per pen, sized from the configured
// time span and update period (§4.6); its visual rate is intrinsic to
// correctness, so it bypasses the update coordinator and repaints
// directly (§4.3).
type StripChart struct {
	mgr    *channel.Manager
	cw     coordinator.Widget
	period time.Duration
	pens   []*pen
}

// NewStripChart constructs a strip chart over pvNames, each pen's ring
// buffer sized to hold timeSpan/updatePeriod + 1 samples (one sample when
// updatePeriod is not positive).
func NewStripChart(pvNames []string, timeSpan, updatePeriod time.Duration, mgr *channel.Manager, cw coordinator.Widget) *StripChart {
	capacity := 1
	if updatePeriod > 0 {
		capacity = int(timeSpan/updatePeriod) + 1
	}
	sc := &StripChart{mgr: mgr, cw: cw, period: updatePeriod}
	for _, name := range pvNames {
		sc.pens = append(sc.pens, &pen{pvName: name, buf: make([]StripChartPoint, capacity)})
	}
	return sc
}

func (sc *StripChart) Start() {
	for _, p := range sc.pens {
		if p.pvName == "" {
			continue
		}
		pp := p
		key := channel.Key{PVName: pp.pvName, RequestedType: channel.TypeDouble, ElementCount: 1}
		pp.handle = sc.mgr.Subscribe(key,
			func(d channel.Data) { sc.push(pp, d.NumericValue) },
			nil, nil,
		)
	}
}

func (sc *StripChart) Stop() {
	for _, p := range sc.pens {
		if p.handle != nil {
			p.handle.Reset()
			p.handle = nil
		}
		p.next, p.filled = 0, false
	}
}

func (sc *StripChart) push(p *pen, value float64) {
	p.buf[p.next] = StripChartPoint{At: time.Now(), Value: value}
	p.next = (p.next + 1) % len(p.buf)
	if p.next == 0 {
		p.filled = true
	}
	if sc.cw != nil {
		coordinator.DirectRepaint(sc.cw)
	}
}

// Samples returns pen index i's buffered points in chronological order.
func (sc *StripChart) Samples(i int) []StripChartPoint {
	if i < 0 || i >= len(sc.pens) {
		return nil
	}
	p := sc.pens[i]
	if !p.filled {
		return append([]StripChartPoint(nil), p.buf[:p.next]...)
	}
	out := make([]StripChartPoint, 0, len(p.buf))
	out = append(out, p.buf[p.next:]...)
	out = append(out, p.buf[:p.next]...)
	return out
}
