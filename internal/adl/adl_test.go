package adl

import "testing"

func TestParseSimpleBlock(t *testing.T) {
	src := `rectangle {
	object {
		x=10
		y=20
		width=30
		height=40
	}
}
`
	nodes, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(nodes) != 1 {
		t.Fatalf("got %d top-level nodes, want 1", len(nodes))
	}
	n := nodes[0]
	if n.Name != "rectangle" {
		t.Errorf("Name = %q, want rectangle", n.Name)
	}
	rect := n.ObjectRect()
	if rect != (Rect{X: 10, Y: 20, Width: 30, Height: 40}) {
		t.Errorf("ObjectRect() = %+v, want {10 20 30 40}", rect)
	}
}

func TestParseQuotedTwoWordBlockName(t *testing.T) {
	src := `rectangle {
	"basic attribute" {
		clr=14
	}
}
`
	nodes, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	basic := nodes[0].Child("basic attribute")
	if basic == nil {
		t.Fatal("expected a \"basic attribute\" child")
	}
	if got := basic.AttrInt("clr", -1); got != 14 {
		t.Errorf("clr = %d, want 14", got)
	}
}

func TestParseMultipleChildrenSameName(t *testing.T) {
	src := `composite {
	children {
		text { value=a }
	}
	children {
		text { value=b }
	}
}
`
	nodes, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	kids := nodes[0].ChildrenNamed("children")
	if len(kids) != 2 {
		t.Fatalf("got %d children blocks, want 2", len(kids))
	}
}

func TestWriteParseRoundTrip(t *testing.T) {
	src := `rectangle {
	object {
		x=1
		y=2
		width=3
		height=4
	}
	"dynamic attribute" {
		vis=calc
		calc="A#0"
	}
}
`
	nodes, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	out := Write(nodes)

	reparsed, err := Parse(out)
	if err != nil {
		t.Fatalf("Parse(Write(nodes)): %v", err)
	}
	out2 := Write(reparsed)
	if out != out2 {
		t.Errorf("Write is not idempotent:\n--- first ---\n%s\n--- second ---\n%s", out, out2)
	}

	rect := reparsed[0].ObjectRect()
	if rect != (Rect{X: 1, Y: 2, Width: 3, Height: 4}) {
		t.Errorf("round-tripped rect = %+v, want {1 2 3 4}", rect)
	}
	dyn := reparsed[0].Child("dynamic attribute")
	if dyn == nil {
		t.Fatal("round trip lost the \"dynamic attribute\" child")
	}
	if calc, _ := dyn.Attr("calc"); calc != "A#0" {
		t.Errorf("calc = %q, want %q", calc, "A#0")
	}
}

func TestAttrHelpersDefaults(t *testing.T) {
	n := &Node{}
	if got := n.AttrString("missing", "fallback"); got != "fallback" {
		t.Errorf("AttrString default = %q, want fallback", got)
	}
	if got := n.AttrInt("missing", 7); got != 7 {
		t.Errorf("AttrInt default = %d, want 7", got)
	}
	if got := n.AttrFloat("missing", 1.5); got != 1.5 {
		t.Errorf("AttrFloat default = %v, want 1.5", got)
	}
}

func TestParseUnterminatedBlockFails(t *testing.T) {
	if _, err := Parse("rectangle {\n  object {\n"); err == nil {
		t.Error("Parse of unterminated block should fail")
	}
}
