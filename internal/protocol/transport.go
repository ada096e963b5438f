// Package protocol implements C3: lazy-initialized singleton contexts for
// the two EPICS wire protocols (Channel Access and PVAccess), each driving
// its underlying client library's I/O progress on a periodic tick without
// ever blocking the UI thread (§4.1, §5).
//
// The actual CA/PVA client libraries are external collaborators (§1); this
// package defines the Transport seam a real binding would implement and
// ships a Simulated transport (internal/protocol/simulated.go) used by the
// CLI's headless front-end and by tests.
package protocol

import "context"

// Kind identifies which wire protocol a Transport/Context serves.
type Kind int

const (
	KindCA Kind = iota
	KindPVA
)

func (k Kind) String() string {
	if k == KindPVA {
		return "pva"
	}
	return "ca"
}

// FieldKind narrows the native type of a server field into the coarse
// categories the runtime state machines need (§3 ChannelData flags).
type FieldKind int

const (
	FieldUnknown FieldKind = iota
	FieldNumeric
	FieldString
	FieldEnum
	FieldCharArray
	FieldArray
)

// Event is one protocol callback payload, already deep-copied off the
// library's worker thread (§4.2, §5 "Cross-thread boundary"). The shared
// channel manager re-validates the channel identity before applying it.
type Event struct {
	Channel     TransportChannel
	Connected   bool // valid when Kind == EventConnection
	Kind        EventKind
	NativeKind  FieldKind
	NativeCount int
	Numeric     float64
	String      string
	EnumOrdinal int
	EnumLabels  []string
	ArrayValues []float64
	CharArray   []byte
	Severity    int
	Status      int
	HasValue    bool
	ControlInfo ControlInfo
	HasControl  bool
	CanRead     bool
	CanWrite    bool
}

// EventKind discriminates the Event union.
type EventKind int

const (
	EventConnection EventKind = iota
	EventValue
	EventControlInfo
	EventAccessRights
)

// ControlInfo mirrors the DBR_CTRL_* payload (§3 PvLimits, §4.2 "Enum
// enrichment").
type ControlInfo struct {
	DisplayLow  float64
	DisplayHigh float64
	Precision   int
	Units       string
	EnumLabels  []string
}

// TransportChannel is an opaque handle identifying one protocol-level
// channel. Implementations compare handles by identity.
type TransportChannel interface {
	Name() string
}

// Transport is the seam a CA or PVA client binding implements. All methods
// are called from the UI thread; events reach the caller-supplied sink
// passed to Start.
type Transport interface {
	// Start begins the transport's periodic I/O-progress tick. It must
	// return immediately. Simulated calls sink synchronously from the
	// method that produced the event (SetConnected, PushValue, Put, ...),
	// except for CreateChannel's replay of a cached connection, which runs
	// on its own goroutine.
	Start(sink func(Event)) error
	// Stop halts the tick and releases resources.
	Stop()
	// CreateChannel opens (or reopens) a channel for the given field path,
	// requesting the coarse field kind and element count. Connection and
	// value events for the returned handle arrive via sink.
	CreateChannel(pvName string, elementCount int) (TransportChannel, error)
	// DestroyChannel releases a channel created by CreateChannel.
	DestroyChannel(ch TransportChannel)
	// RequestControlInfo issues a one-shot control-info request for a
	// connected, numeric-or-enum channel (§4.2 "On Up: ... issue a one-shot
	// control-info request").
	RequestControlInfo(ch TransportChannel)
	// Put writes v to the channel. ctx bounds the wait per §5 ("bounded
	// (<=1s) wait for connection").
	Put(ctx context.Context, ch TransportChannel, v any) error
}
