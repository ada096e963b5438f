package adl

import (
	"fmt"
	"strconv"
	"strings"
)

// Write serializes nodes back into ADL text, one top-level block at a
// time, in declaration order. Output uses a one-tab-per-level indent and
// the quoting convention that Parse accepts, so Write(Parse(text)) is
// byte-equal for text produced by Write (§8's round-trip law).
func Write(nodes []*Node) string {
	var b strings.Builder
	for _, n := range nodes {
		writeBlock(&b, n, 0)
	}
	return b.String()
}

func writeBlock(b *strings.Builder, n *Node, depth int) {
	indent := strings.Repeat("\t", depth)
	fmt.Fprintf(b, "%s%s {\n", indent, quoteIfNeeded(n.Name))
	inner := strings.Repeat("\t", depth+1)
	for _, a := range n.Attrs {
		fmt.Fprintf(b, "%s%s=%s\n", inner, a.Key, formatValue(a.Value, a.Quoted))
	}
	for _, c := range n.Children {
		writeBlock(b, c, depth+1)
	}
	fmt.Fprintf(b, "%s}\n", indent)
}

// quoteIfNeeded quotes a block name containing a space, matching ADL's
// `"basic attribute" { ... }` / `"dynamic attribute" { ... }` spelling.
func quoteIfNeeded(name string) string {
	if strings.ContainsAny(name, " \t") {
		return strconv.Quote(name)
	}
	return name
}

func formatValue(v string, quoted bool) string {
	if !quoted {
		return v
	}
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range v {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
