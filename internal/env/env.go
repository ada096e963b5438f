// Package env reads the environment variables and CLI-adjacent settings
// documented in spec.md §6: QTEDM_NOLOG, EPICS_DISPLAY_PATH, TRACK_MEM, and
// QTEDM_TIMING_DIAGNOSTICS.
package env

import (
	"os"
	"strings"
)

// Settings is the resolved view of flags + environment for one process run.
// Flags take precedence over environment variables where both exist
// (NoLog, Execute); TRACK_MEM and the display search path have no flag
// equivalent.
type Settings struct {
	NoLog             bool
	Execute           bool
	DisplayPath       []string // EPICS_DISPLAY_PATH, colon-separated
	TrackMemSpec      string   // raw TRACK_MEM value, parsed by obslog.ParseTrackMem
	TimingDiagnostics bool
	MetricsAddr       string
}

// Load resolves Settings from the environment, then applies flag overrides.
func Load(flagNoLog, flagExecute bool, metricsAddr string) Settings {
	s := Settings{
		NoLog:             flagNoLog || boolEnv("QTEDM_NOLOG"),
		Execute:           flagExecute,
		DisplayPath:       splitPath(os.Getenv("EPICS_DISPLAY_PATH")),
		TrackMemSpec:      os.Getenv("TRACK_MEM"),
		TimingDiagnostics: boolEnv("QTEDM_TIMING_DIAGNOSTICS"),
		MetricsAddr:       metricsAddr,
	}
	return s
}

func boolEnv(name string) bool {
	v := strings.TrimSpace(os.Getenv(name))
	return v == "1" || strings.EqualFold(v, "true")
}

func splitPath(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ":")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Resolve searches DisplayPath (then the current directory) for name,
// returning the first existing match, or name unchanged if none is found
// (the caller reports the resulting open error).
func (s Settings) Resolve(name string) string {
	if _, err := os.Stat(name); err == nil {
		return name
	}
	for _, dir := range s.DisplayPath {
		candidate := strings.TrimRight(dir, "/") + "/" + name
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return name
}
