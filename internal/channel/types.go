// Package channel implements C4 (the shared channel manager) and C5 (the
// audit-logged put path): deduplicated PV subscriptions, cached channel
// data fan-out, and protocol-routed writes (§3, §4.2, §5).
package channel

import (
	"time"

	"github.com/epics-extensions/qtedm-runtime/internal/protocol"
)

// Key uniquely identifies a channel configuration. Two subscribers with an
// identical Key share one channel; different keys against the same PV name
// are distinct channels (§3 ChannelKey).
type Key struct {
	PVName        string
	RequestedType RequestedType
	ElementCount  int
}

// RequestedType narrows the DBR-style request shape a subscriber wants.
// This stands in for the real DBR_TIME_* / NTScalar* constants (§6).
type RequestedType int

const (
	TypeDouble RequestedType = iota
	TypeString
	TypeEnum
	TypeCharArray
	TypeArray
)

// Data is the cached per-channel snapshot delivered to subscribers (§3
// ChannelData). The invariant `connected == false => !HasValue` is
// maintained by the manager, never by callers.
type Data struct {
	Connected bool

	NativeFieldType protocol.FieldKind
	NativeElemCount int

	NumericValue float64
	StringValue  string
	EnumOrdinal  int
	ArrayValues  []float64
	CharArray    []byte

	Severity  int
	Status    int
	Timestamp time.Time

	DisplayLow  float64
	DisplayHigh float64
	Precision   int
	Units       string
	EnumLabels  []string

	HasValue       bool
	IsNumeric      bool
	IsString       bool
	IsEnum         bool
	IsCharArray    bool
	IsArray        bool
	HasControlInfo bool
	HasUnits       bool
	HasPrecision   bool

	CanRead  bool
	CanWrite bool
}

// clone returns a deep-enough copy for safe fan-out (slices are copied so a
// subscriber mutating its view can't corrupt the cache or another
// subscriber's view).
func (d Data) clone() Data {
	out := d
	if d.ArrayValues != nil {
		out.ArrayValues = append([]float64(nil), d.ArrayValues...)
	}
	if d.CharArray != nil {
		out.CharArray = append([]byte(nil), d.CharArray...)
	}
	if d.EnumLabels != nil {
		out.EnumLabels = append([]string(nil), d.EnumLabels...)
	}
	return out
}

// Summary is the per-channel rollup used by the statistics dialog (§4.8,
// C11) and by the manager's own statistics accessors.
type Summary struct {
	PVName          string
	Connected       bool
	Writable        bool
	SubscriberCount int
	UpdateCount     int
	UpdateRate      float64
	Severity        int
}

// ValueCallback is invoked on the UI thread with a freshly delivered
// snapshot (§3 Subscription).
type ValueCallback func(Data)

// ConnectionCallback is invoked when a channel's connection state flips.
type ConnectionCallback func(connected bool, data Data)

// AccessRightsCallback is invoked when the server-reported read/write
// rights change.
type AccessRightsCallback func(canRead, canWrite bool)
