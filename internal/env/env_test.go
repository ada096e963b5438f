package env

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("QTEDM_NOLOG", "")
	s := Load(true, true, ":9090")
	if !s.NoLog {
		t.Error("NoLog flag should win when set")
	}
	if !s.Execute {
		t.Error("Execute flag should be carried through")
	}
	if s.MetricsAddr != ":9090" {
		t.Errorf("MetricsAddr = %q, want :9090", s.MetricsAddr)
	}
}

func TestLoadNoLogFromEnvironment(t *testing.T) {
	t.Setenv("QTEDM_NOLOG", "true")
	s := Load(false, false, "")
	if !s.NoLog {
		t.Error("QTEDM_NOLOG=true should set NoLog even without the flag")
	}
}

func TestLoadDisplayPathSplitsOnColonAndSkipsEmpty(t *testing.T) {
	t.Setenv("EPICS_DISPLAY_PATH", "/a/b::/c/d")
	s := Load(false, false, "")
	want := []string{"/a/b", "/c/d"}
	if len(s.DisplayPath) != len(want) {
		t.Fatalf("DisplayPath = %v, want %v", s.DisplayPath, want)
	}
	for i := range want {
		if s.DisplayPath[i] != want[i] {
			t.Errorf("DisplayPath[%d] = %q, want %q", i, s.DisplayPath[i], want[i])
		}
	}
}

func TestLoadEmptyDisplayPathIsNil(t *testing.T) {
	t.Setenv("EPICS_DISPLAY_PATH", "")
	s := Load(false, false, "")
	if s.DisplayPath != nil {
		t.Errorf("DisplayPath = %v, want nil", s.DisplayPath)
	}
}

func TestLoadTimingDiagnosticsBoolEnv(t *testing.T) {
	t.Setenv("QTEDM_TIMING_DIAGNOSTICS", "1")
	s := Load(false, false, "")
	if !s.TimingDiagnostics {
		t.Error("QTEDM_TIMING_DIAGNOSTICS=1 should set TimingDiagnostics")
	}
}

func TestResolveFindsNameRelativeToCwdFirst(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "direct.adl")
	if err := os.WriteFile(path, []byte(""), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	s := Settings{DisplayPath: []string{"/does/not/exist"}}
	if got := s.Resolve(path); got != path {
		t.Errorf("Resolve(%q) = %q, want unchanged", path, got)
	}
}

func TestResolveSearchesDisplayPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "found.adl")
	if err := os.WriteFile(path, []byte(""), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	s := Settings{DisplayPath: []string{"/does/not/exist", dir}}
	if got := s.Resolve("found.adl"); got != path {
		t.Errorf("Resolve(\"found.adl\") = %q, want %q", got, path)
	}
}

func TestResolveFallsBackToNameWhenNotFoundAnywhere(t *testing.T) {
	s := Settings{DisplayPath: []string{"/does/not/exist"}}
	if got := s.Resolve("missing.adl"); got != "missing.adl" {
		t.Errorf("Resolve(\"missing.adl\") = %q, want unchanged", got)
	}
}
