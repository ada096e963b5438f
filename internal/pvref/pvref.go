// Package pvref parses the PvReference text identifiers described in
// spec.md §3 and implements the PVA sub-path navigation from §9: stripping
// bracketed indices before the wire-level subscribe and re-applying them
// client-side during extraction.
package pvref

import (
	"fmt"
	"strconv"
	"strings"
)

// Protocol identifies which EPICS wire protocol a reference targets.
type Protocol int

const (
	ProtocolCA Protocol = iota
	ProtocolPVA
)

func (p Protocol) String() string {
	if p == ProtocolPVA {
		return "pva"
	}
	return "ca"
}

const pvaPrefix = "pva://"

// PathSegment is one element of a dotted PVA sub-path, optionally carrying
// a bracketed array index ("dimension[0]" -> Name: "dimension", Index: 0,
// HasIndex: true).
type PathSegment struct {
	Name     string
	Index    int
	HasIndex bool
}

// Reference is a parsed PvReference.
type Reference struct {
	Raw      string
	Protocol Protocol
	PVName   string        // server-side PV / channel name, no sub-path
	Path     []PathSegment // PVA structure navigation (empty for CA)
}

// Parse splits a raw PvReference into protocol, PV name, and PVA sub-path.
// A leading "pva://" selects PVA; otherwise the reference is CA (§3).
func Parse(raw string) (Reference, error) {
	trimmed := strings.TrimSpace(raw)
	ref := Reference{Raw: raw}

	rest := trimmed
	if strings.HasPrefix(trimmed, pvaPrefix) {
		ref.Protocol = ProtocolPVA
		rest = trimmed[len(pvaPrefix):]
	} else {
		ref.Protocol = ProtocolCA
	}

	if rest == "" {
		return Reference{}, fmt.Errorf("pvref: empty PV name in %q", raw)
	}

	segments := strings.Split(rest, ".")
	ref.PVName = segments[0]
	// The PV name itself may carry a bracketed index (rare, but the grammar
	// doesn't forbid it for the first segment).
	name, idx, has, err := splitIndex(segments[0])
	if err != nil {
		return Reference{}, err
	}
	ref.PVName = name
	if has {
		ref.Path = append(ref.Path, PathSegment{Name: name, Index: idx, HasIndex: true})
	}

	for _, seg := range segments[1:] {
		name, idx, has, err := splitIndex(seg)
		if err != nil {
			return Reference{}, err
		}
		ref.Path = append(ref.Path, PathSegment{Name: name, Index: idx, HasIndex: has})
	}

	return ref, nil
}

func splitIndex(seg string) (name string, index int, has bool, err error) {
	open := strings.IndexByte(seg, '[')
	if open < 0 {
		return seg, 0, false, nil
	}
	if !strings.HasSuffix(seg, "]") {
		return "", 0, false, fmt.Errorf("pvref: malformed index in %q", seg)
	}
	name = seg[:open]
	idxStr := seg[open+1 : len(seg)-1]
	idx, convErr := strconv.Atoi(idxStr)
	if convErr != nil {
		return "", 0, false, fmt.Errorf("pvref: non-integer index in %q: %w", seg, convErr)
	}
	return name, idx, true, nil
}

// WireFieldPath returns the dotted field path to request from the server,
// with every bracketed index stripped (§9: "the server will only serve the
// unindexed field"). The indices are re-applied locally by Extract.
func (r Reference) WireFieldPath() string {
	if len(r.Path) == 0 {
		return ""
	}
	names := make([]string, len(r.Path))
	for i, seg := range r.Path {
		names[i] = seg.Name
	}
	return strings.Join(names, ".")
}

// HasIndices reports whether any path segment carries a bracketed index
// that must be applied client-side after the unindexed field arrives.
func (r Reference) HasIndices() bool {
	for _, seg := range r.Path {
		if seg.HasIndex {
			return true
		}
	}
	return false
}

// Extract resolves r's bracketed index against the array the server
// delivered for WireFieldPath, returning the single scalar it addresses
// (§9: indices are re-applied client-side, not requested over the wire).
// It reports false when r carries no index or the index is out of range.
func (r Reference) Extract(values []float64) (float64, bool) {
	for _, seg := range r.Path {
		if !seg.HasIndex {
			continue
		}
		if seg.Index < 0 || seg.Index >= len(values) {
			return 0, false
		}
		return values[seg.Index], true
	}
	return 0, false
}
