package coordinator

import (
	"testing"
	"time"
)

type countingWidget struct{ repaints int }

func (w *countingWidget) Repaint() { w.repaints++ }

func TestRequestUpdateDedupsByIdentity(t *testing.T) {
	c := New()
	w := &countingWidget{}
	c.RequestUpdate(w)
	c.RequestUpdate(w)
	c.RequestUpdate(w)
	if got := c.PendingCount(); got != 1 {
		t.Errorf("PendingCount() = %d, want 1 (same widget requested thrice)", got)
	}
}

func TestRequestUpdateDistinguishesWidgets(t *testing.T) {
	c := New()
	c.RequestUpdate(&countingWidget{})
	c.RequestUpdate(&countingWidget{})
	if got := c.PendingCount(); got != 2 {
		t.Errorf("PendingCount() = %d, want 2 (distinct widget identities)", got)
	}
}

func TestTickRepaintsEveryPendingWidgetOnce(t *testing.T) {
	c := New()
	w1, w2 := &countingWidget{}, &countingWidget{}
	c.RequestUpdate(w1)
	c.RequestUpdate(w2)

	c.tick(c.lastTick.Add(c.interval))

	if w1.repaints != 1 || w2.repaints != 1 {
		t.Errorf("repaints = %d, %d, want 1, 1", w1.repaints, w2.repaints)
	}
	if got := c.PendingCount(); got != 0 {
		t.Errorf("PendingCount() after tick = %d, want 0", got)
	}
}

func TestTickEscalatesIntervalAfterLateStreak(t *testing.T) {
	c := New()
	start := c.interval
	firedAt := c.lastTick

	for i := 0; i < lateStreakToSlow; i++ {
		firedAt = firedAt.Add(c.interval + lateThreshold + time.Millisecond)
		c.tick(firedAt)
	}

	if c.interval <= start {
		t.Errorf("interval after %d late ticks = %v, want > %v", lateStreakToSlow, c.interval, start)
	}
}

func TestTickDeescalatesIntervalAfterOnTimeStreak(t *testing.T) {
	c := New()
	c.interval = maxInterval
	firedAt := c.lastTick

	for i := 0; i < onTimeStreakToFast; i++ {
		firedAt = firedAt.Add(c.interval)
		c.tick(firedAt)
	}

	if c.interval >= maxInterval {
		t.Errorf("interval after %d on-time ticks = %v, want < %v", onTimeStreakToFast, c.interval, maxInterval)
	}
}

func TestIntervalNeverExceedsMaxOrMin(t *testing.T) {
	c := New()
	c.interval = maxInterval
	firedAt := c.lastTick
	for i := 0; i < lateStreakToSlow*3; i++ {
		firedAt = firedAt.Add(c.interval + lateThreshold + time.Millisecond)
		c.tick(firedAt)
	}
	if c.interval > maxInterval {
		t.Errorf("interval = %v, exceeds maxInterval %v", c.interval, maxInterval)
	}

	c.interval = minInterval
	firedAt = c.lastTick
	for i := 0; i < onTimeStreakToFast*3; i++ {
		firedAt = firedAt.Add(c.interval)
		c.tick(firedAt)
	}
	if c.interval < minInterval {
		t.Errorf("interval = %v, below minInterval %v", c.interval, minInterval)
	}
}

func TestDirectRepaintBypassesPendingSet(t *testing.T) {
	w := &countingWidget{}
	DirectRepaint(w)
	if w.repaints != 1 {
		t.Errorf("repaints = %d, want 1", w.repaints)
	}
}

func TestDirectRepaintNilIsNoop(t *testing.T) {
	DirectRepaint(nil) // must not panic
}
