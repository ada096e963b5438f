// Package stats implements C11: pure in-memory counters for channel and
// protocol activity, exposed both as a plain snapshot (for the stats
// dialog / `qtedm stats`) and as Prometheus metrics (§4.8).
package stats

import (
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/epics-extensions/qtedm-runtime/internal/channel"
	"github.com/epics-extensions/qtedm-runtime/internal/protocol"
)

// Snapshot is a point-in-time read of the tracker's counters.
type Snapshot struct {
	ChannelsCreated   int64
	ChannelsDestroyed int64
	Connected         int64
	Disconnected      int64
	CAEvents          int64
	PVAEvents         int64
	UpdatesRequested  int64
	UpdatesExecuted   int64
	DisplaysOpened    int64
	DisplaysClosed    int64
	Channels          []channel.Summary
}

// Tracker is C11. It registers itself into a channel.Manager's Hooks and
// separately into the coordinator/display lifecycle via its own Note*
// methods.
type Tracker struct {
	channelsCreated   atomic.Int64
	channelsDestroyed atomic.Int64
	connected         atomic.Int64
	disconnected      atomic.Int64
	caEvents          atomic.Int64
	pvaEvents         atomic.Int64
	updatesRequested  atomic.Int64
	updatesExecuted   atomic.Int64
	displaysOpened    atomic.Int64
	displaysClosed    atomic.Int64

	mu  sync.Mutex
	mgr *channel.Manager

	registry *prometheus.Registry
	metrics  promMetrics
}

type promMetrics struct {
	channelsCreated   prometheus.Counter
	channelsDestroyed prometheus.Counter
	connected         prometheus.Counter
	disconnected      prometheus.Counter
	events            *prometheus.CounterVec
	updatesRequested  prometheus.Counter
	updatesExecuted   prometheus.Counter
}

// New constructs a Tracker and a Prometheus registry exposing its
// counters under the "qtedm_" namespace.
func New() *Tracker {
	t := &Tracker{registry: prometheus.NewRegistry()}
	t.metrics = promMetrics{
		channelsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "qtedm_channels_created_total", Help: "Channels created by the shared channel manager.",
		}),
		channelsDestroyed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "qtedm_channels_destroyed_total", Help: "Channels destroyed by the shared channel manager.",
		}),
		connected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "qtedm_channel_connections_total", Help: "Channel connection transitions.",
		}),
		disconnected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "qtedm_channel_disconnections_total", Help: "Channel disconnection transitions.",
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "qtedm_protocol_events_total", Help: "Protocol events received, by protocol.",
		}, []string{"protocol"}),
		updatesRequested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "qtedm_repaints_requested_total", Help: "Widget repaints requested of the update coordinator.",
		}),
		updatesExecuted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "qtedm_repaints_executed_total", Help: "Widget repaints actually performed.",
		}),
	}
	t.registry.MustRegister(
		t.metrics.channelsCreated, t.metrics.channelsDestroyed,
		t.metrics.connected, t.metrics.disconnected,
		t.metrics.events, t.metrics.updatesRequested, t.metrics.updatesExecuted,
	)
	return t
}

// Registry exposes the Prometheus registry for wiring into promhttp.
func (t *Tracker) Registry() *prometheus.Registry { return t.registry }

// Hooks returns a channel.Hooks wired to this tracker's counters.
func (t *Tracker) Hooks() channel.Hooks {
	return channel.Hooks{
		ChannelCreated: func(string) { t.channelsCreated.Add(1); t.metrics.channelsCreated.Inc() },
		ChannelDestroyed: func(string) {
			t.channelsDestroyed.Add(1)
			t.metrics.channelsDestroyed.Inc()
		},
		Connected:    func(string) { t.connected.Add(1); t.metrics.connected.Inc() },
		Disconnected: func(string) { t.disconnected.Add(1); t.metrics.disconnected.Inc() },
		EventReceived: func(kind protocol.Kind) {
			if kind == protocol.KindPVA {
				t.pvaEvents.Add(1)
				t.metrics.events.WithLabelValues("pva").Inc()
			} else {
				t.caEvents.Add(1)
				t.metrics.events.WithLabelValues("ca").Inc()
			}
		},
	}
}

// BindManager lets Snapshot include a live per-channel breakdown.
func (t *Tracker) BindManager(mgr *channel.Manager) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mgr = mgr
}

// NoteUpdateRequested/NoteUpdateExecuted instrument the update
// coordinator (C6), which has no reason to import this package directly.
func (t *Tracker) NoteUpdateRequested() {
	t.updatesRequested.Add(1)
	t.metrics.updatesRequested.Inc()
}

func (t *Tracker) NoteUpdateExecuted() {
	t.updatesExecuted.Add(1)
	t.metrics.updatesExecuted.Inc()
}

// NoteDisplayOpened/NoteDisplayClosed instrument display lifecycle.
func (t *Tracker) NoteDisplayOpened() { t.displaysOpened.Add(1) }
func (t *Tracker) NoteDisplayClosed() { t.displaysClosed.Add(1) }

// Snapshot reads every counter, plus a per-channel rollup when a manager
// is bound. Per-channel rates are (updateCount since last reset) /
// (elapsed since last reset), per §4.8.
func (t *Tracker) Snapshot() Snapshot {
	s := Snapshot{
		ChannelsCreated:   t.channelsCreated.Load(),
		ChannelsDestroyed: t.channelsDestroyed.Load(),
		Connected:         t.connected.Load(),
		Disconnected:      t.disconnected.Load(),
		CAEvents:          t.caEvents.Load(),
		PVAEvents:         t.pvaEvents.Load(),
		UpdatesRequested:  t.updatesRequested.Load(),
		UpdatesExecuted:   t.updatesExecuted.Load(),
		DisplaysOpened:    t.displaysOpened.Load(),
		DisplaysClosed:    t.displaysClosed.Load(),
	}
	t.mu.Lock()
	mgr := t.mgr
	t.mu.Unlock()
	if mgr != nil {
		s.Channels = mgr.ChannelSummaries()
	}
	return s
}
