package calc

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct{ in, want string }{
		{"A==B", "A=B"},
		{"A!=B", "A#B"},
		{"A>=B", "A>=B"},
		{"A<=B", "A<=B"},
		{"A+B", "A+B"},
	}
	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Errorf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestCompileAndEvalArithmetic(t *testing.T) {
	p, err := Compile("A+B*2")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	var in Inputs
	in[0], in[1] = 3, 4
	got, err := p.Eval(in)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if got != 11 {
		t.Errorf("A+B*2 with A=3,B=4 = %v, want 11", got)
	}
}

func TestLegacyEqualityIsComparisonNotAssignment(t *testing.T) {
	// §8 boundary behavior: "A=B" evaluates as equality (1 or 0), not
	// assignment, once normalized and compiled.
	p, err := Compile("A=B")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	var in Inputs
	in[0], in[1] = 5, 5
	got, err := p.Eval(in)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if got != 1 {
		t.Errorf("A=B with A==B==5 = %v, want 1 (true)", got)
	}

	in[1] = 6
	got, err = p.Eval(in)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if got != 0 {
		t.Errorf("A=B with A=5,B=6 = %v, want 0 (false)", got)
	}
}

func TestLegacyInequality(t *testing.T) {
	p, err := Compile("A#B")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	var in Inputs
	in[0], in[1] = 1, 2
	got, err := p.Eval(in)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if got != 1 {
		t.Errorf("A#B with A=1,B=2 = %v, want 1 (true)", got)
	}
}

func TestCompileEmptyExpressionFails(t *testing.T) {
	if _, err := Compile("   "); err == nil {
		t.Error("Compile(empty) should fail")
	}
}

func TestCompileInvalidExpressionFails(t *testing.T) {
	if _, err := Compile("A +* B"); err == nil {
		t.Error("Compile(malformed) should fail")
	}
}

func TestSourcePreservesOriginalText(t *testing.T) {
	p, err := Compile("A==B")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if p.Source() != "A==B" {
		t.Errorf("Source() = %q, want original %q", p.Source(), "A==B")
	}
}
