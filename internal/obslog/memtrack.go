package obslog

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// MemTracker samples runtime.MemStats on a fixed interval and appends a CSV
// row per sample, mirroring the legacy memory_tracker's TRACK_MEM behavior:
// TRACK_MEM=<intervalSeconds>[:<path>]. With no path the rows go to stderr.
type MemTracker struct {
	interval time.Duration
	path     string
	stop     chan struct{}
	done     chan struct{}
}

// ParseTrackMem parses the TRACK_MEM environment variable value. It returns
// ok=false when spec is empty (tracking disabled).
func ParseTrackMem(spec string) (interval time.Duration, path string, ok bool) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return 0, "", false
	}
	parts := strings.SplitN(spec, ":", 2)
	seconds, err := strconv.Atoi(parts[0])
	if err != nil || seconds <= 0 {
		return 0, "", false
	}
	if len(parts) == 2 {
		path = parts[1]
	}
	return time.Duration(seconds) * time.Second, path, true
}

// NewMemTracker starts sampling immediately in a background goroutine.
func NewMemTracker(interval time.Duration, path string) *MemTracker {
	t := &MemTracker{interval: interval, path: path, stop: make(chan struct{}), done: make(chan struct{})}
	go t.run()
	return t
}

func (t *MemTracker) run() {
	defer close(t.done)

	var out *os.File
	if t.path != "" {
		f, err := os.OpenFile(t.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err == nil {
			out = f
			defer f.Close()
			if stat, _ := f.Stat(); stat != nil && stat.Size() == 0 {
				fmt.Fprintln(out, "timestamp,allocBytes,totalAllocBytes,sysBytes,numGC,numGoroutine")
			}
		}
	}

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			return
		case now := <-ticker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			line := fmt.Sprintf("%s,%d,%d,%d,%d,%d",
				now.Format(time.RFC3339), m.Alloc, m.TotalAlloc, m.Sys, m.NumGC, runtime.NumGoroutine())
			if out != nil {
				fmt.Fprintln(out, line)
			} else {
				fmt.Fprintln(os.Stderr, "[track-mem] "+line)
			}
		}
	}
}

// Stop halts the sampling goroutine and waits for it to exit.
func (t *MemTracker) Stop() {
	close(t.stop)
	<-t.done
}
