package protocol

import (
	"context"
	"testing"
	"time"
)

func TestCreateChannelReplaysCachedConnectionState(t *testing.T) {
	sim := NewSimulated()
	var events []Event
	if err := sim.Start(func(ev Event) { events = append(events, ev) }); err != nil {
		t.Fatalf("Start: %v", err)
	}

	sim.SetConnected("late:pv", true, FieldNumeric)
	if _, err := sim.CreateChannel("late:pv", 1); err != nil {
		t.Fatalf("CreateChannel: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for len(events) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if len(events) == 0 {
		t.Fatal("a late subscriber should be replayed the already-connected state")
	}
	if events[0].Kind != EventConnection || !events[0].Connected {
		t.Errorf("replayed event = %+v, want a connected EventConnection", events[0])
	}
}

func TestSetAccessRightsEmitsEventForExistingChannel(t *testing.T) {
	sim := NewSimulated()
	var got Event
	if err := sim.Start(func(ev Event) { got = ev }); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := sim.CreateChannel("rw:pv", 1); err != nil {
		t.Fatalf("CreateChannel: %v", err)
	}

	sim.SetAccessRights("rw:pv", true, false)
	if got.Kind != EventAccessRights || got.CanRead != true || got.CanWrite != false {
		t.Errorf("event = %+v, want AccessRights{CanRead:true, CanWrite:false}", got)
	}
}

func TestSetAccessRightsIsNoopForUnknownChannel(t *testing.T) {
	sim := NewSimulated()
	called := false
	if err := sim.Start(func(Event) { called = true }); err != nil {
		t.Fatalf("Start: %v", err)
	}
	sim.SetAccessRights("never:created", true, true)
	if called {
		t.Error("SetAccessRights for a channel never created via CreateChannel should be a no-op")
	}
}

func TestRequestControlInfoEmitsCachedInfoOnly(t *testing.T) {
	sim := NewSimulated()
	var got Event
	count := 0
	if err := sim.Start(func(ev Event) { got = ev; count++ }); err != nil {
		t.Fatalf("Start: %v", err)
	}
	ch, err := sim.CreateChannel("ctrl:pv", 1)
	if err != nil {
		t.Fatalf("CreateChannel: %v", err)
	}

	sim.RequestControlInfo(ch) // no control info set yet: must not emit
	if count != 0 {
		t.Fatalf("RequestControlInfo with no cached info emitted %d events, want 0", count)
	}

	sim.SetControlInfo("ctrl:pv", ControlInfo{DisplayHigh: 10, DisplayLow: 0, Precision: 2})
	sim.RequestControlInfo(ch)
	if got.Kind != EventControlInfo || got.ControlInfo.DisplayHigh != 10 {
		t.Errorf("event = %+v, want EventControlInfo with DisplayHigh=10", got)
	}
}

func TestPutWritesValueAndReadBackAccessors(t *testing.T) {
	sim := NewSimulated()
	if err := sim.Start(func(Event) {}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	ch, err := sim.CreateChannel("put:pv", 1)
	if err != nil {
		t.Fatalf("CreateChannel: %v", err)
	}
	sim.SetConnected("put:pv", true, FieldNumeric)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := sim.Put(ctx, ch, 42.0); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if got := sim.Value("put:pv"); got != 42.0 {
		t.Errorf("Value() = %v, want 42", got)
	}

	if err := sim.Put(ctx, ch, "hello"); err != nil {
		t.Fatalf("Put (string): %v", err)
	}
	if got := sim.StringValue("put:pv"); got != "hello" {
		t.Errorf("StringValue() = %q, want hello", got)
	}

	if err := sim.Put(ctx, ch, 3); err != nil {
		t.Fatalf("Put (enum ordinal): %v", err)
	}
	if got := sim.EnumOrdinal("put:pv"); got != 3 {
		t.Errorf("EnumOrdinal() = %d, want 3", got)
	}
}

func TestPutToDisconnectedChannelFailsRatherThanHanging(t *testing.T) {
	sim := NewSimulated()
	if err := sim.Start(func(Event) {}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	ch, err := sim.CreateChannel("discon:pv", 1)
	if err != nil {
		t.Fatalf("CreateChannel: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := sim.Put(ctx, ch, 1.0); err == nil {
		t.Error("Put to a disconnected channel should fail")
	}
}

func TestStopSuppressesFurtherEvents(t *testing.T) {
	sim := NewSimulated()
	count := 0
	if err := sim.Start(func(Event) { count++ }); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := sim.CreateChannel("stopped:pv", 1); err != nil {
		t.Fatalf("CreateChannel: %v", err)
	}
	sim.Stop()
	sim.PushValue("stopped:pv", 1, 0, 0)
	if count != 0 {
		t.Errorf("events emitted after Stop = %d, want 0", count)
	}
}

func TestDestroyChannelRemovesItFromTheRegistry(t *testing.T) {
	sim := NewSimulated()
	var events []Event
	if err := sim.Start(func(ev Event) { events = append(events, ev) }); err != nil {
		t.Fatalf("Start: %v", err)
	}
	ch, err := sim.CreateChannel("gone:pv", 1)
	if err != nil {
		t.Fatalf("CreateChannel: %v", err)
	}
	sim.DestroyChannel(ch)

	sim.SetAccessRights("gone:pv", true, true) // must be a no-op: channel no longer exists
	if len(events) != 0 {
		t.Errorf("got %d events after DestroyChannel, want 0", len(events))
	}
}
