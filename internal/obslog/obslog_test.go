package obslog

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func newRecordingLogger() (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	return New(slog.New(h)), &buf
}

func TestConfigErrorLogsConstructAndError(t *testing.T) {
	l, buf := newRecordingLogger()
	l.ConfigError("calc expression", errors.New("boom"), "expr", "A>5")

	out := buf.String()
	for _, want := range []string{"configuration error", "calc expression", "boom", "A>5"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q missing %q", out, want)
		}
	}
}

func TestChannelFailureLogsPVName(t *testing.T) {
	l, buf := newRecordingLogger()
	l.ChannelFailure("test:pv", errors.New("disconnected"))

	out := buf.String()
	if !strings.Contains(out, "test:pv") || !strings.Contains(out, "channel failure") {
		t.Errorf("log output = %q, missing pv or message", out)
	}
}

func TestTypeMismatchLogsPVAndWidget(t *testing.T) {
	l, buf := newRecordingLogger()
	l.TypeMismatch("enum:pv", "TextMonitor")

	out := buf.String()
	if !strings.Contains(out, "enum:pv") || !strings.Contains(out, "TextMonitor") {
		t.Errorf("log output = %q, missing pv or widget", out)
	}
}

func TestNewWithNilBaseFallsBackToDefault(t *testing.T) {
	l := New(nil)
	if l == nil {
		t.Fatal("New(nil) should not return nil")
	}
}

func TestParseTrackMemEmptyIsDisabled(t *testing.T) {
	if _, _, ok := ParseTrackMem(""); ok {
		t.Error("empty spec should disable tracking")
	}
	if _, _, ok := ParseTrackMem("   "); ok {
		t.Error("blank spec should disable tracking")
	}
}

func TestParseTrackMemIntervalOnly(t *testing.T) {
	interval, path, ok := ParseTrackMem("5")
	if !ok {
		t.Fatal("ParseTrackMem(\"5\") should succeed")
	}
	if interval != 5*time.Second {
		t.Errorf("interval = %v, want 5s", interval)
	}
	if path != "" {
		t.Errorf("path = %q, want empty", path)
	}
}

func TestParseTrackMemIntervalAndPath(t *testing.T) {
	interval, path, ok := ParseTrackMem("10:/tmp/mem.csv")
	if !ok {
		t.Fatal("ParseTrackMem should succeed")
	}
	if interval != 10*time.Second {
		t.Errorf("interval = %v, want 10s", interval)
	}
	if path != "/tmp/mem.csv" {
		t.Errorf("path = %q, want /tmp/mem.csv", path)
	}
}

func TestParseTrackMemRejectsNonPositiveOrInvalidSeconds(t *testing.T) {
	for _, spec := range []string{"0", "-1", "abc", "abc:/tmp/x"} {
		if _, _, ok := ParseTrackMem(spec); ok {
			t.Errorf("ParseTrackMem(%q) should fail", spec)
		}
	}
}

func TestMemTrackerStopWithoutPathDoesNotBlock(t *testing.T) {
	tr := NewMemTracker(10*time.Millisecond, "")
	time.Sleep(25 * time.Millisecond)
	tr.Stop() // must return promptly, not hang
}
