// Package calc adapts github.com/expr-lang/expr to the MEDM calc-expression
// convention described in spec.md §4.4, §9: infix expressions over twelve
// inputs named A through L, normalized once and compiled once at widget
// start, then evaluated per update. The compiler/evaluator themselves are
// treated as an external, plugged-in library (§2 C2) — this package owns
// only the normalization and the input-vector convention.
package calc

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// InputCount is the number of named inputs (A..L) a calc expression may
// reference.
const InputCount = 12

// Inputs is the 12-slot argument vector passed to Eval, indexed A=0..L=11.
type Inputs [InputCount]float64

var inputNames = [InputCount]string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L"}

// Program is a compiled calc expression, ready for repeated evaluation.
type Program struct {
	source string
	vm     *vm.Program
}

// Normalize applies the legacy operator mapping documented in §4.4 step 2
// and §9: a fresh user-facing "==" and "!=" are rewritten to the single-
// character legacy forms ("=" for equality, "#" for inequality) before
// compilation, because the MEDM calc grammar these displays were authored
// against used those forms and `=` there means comparison, not assignment
// (§8 boundary behavior: "A=B" evaluates as equality).
func Normalize(expression string) string {
	out := strings.ReplaceAll(expression, "==", "=")
	out = strings.ReplaceAll(out, "!=", "#")
	return out
}

// toExprSyntax reverses the legacy single-character forms into the
// "==" / "!=" syntax expr-lang actually parses, so a normalized legacy
// expression and a plain modern one compile identically. A bare '=' not
// already part of ">=" or "<=" is legacy equality; '#' is legacy
// inequality.
func toExprSyntax(normalized string) string {
	var b strings.Builder
	runes := []rune(normalized)
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '=':
			if i > 0 && (runes[i-1] == '>' || runes[i-1] == '<' || runes[i-1] == '!' || runes[i-1] == '=') {
				b.WriteRune('=')
			} else {
				b.WriteString("==")
			}
		case '#':
			b.WriteString("!=")
		default:
			b.WriteRune(runes[i])
		}
	}
	return b.String()
}

// Compile normalizes and compiles expression once. Compilation failures are
// a configuration error (§7 kind 1): the caller logs once and treats the
// widget as "never visible" per §4.4 step 2.
func Compile(expression string) (*Program, error) {
	trimmed := strings.TrimSpace(expression)
	if trimmed == "" {
		return nil, fmt.Errorf("calc: empty expression")
	}
	normalized := Normalize(trimmed)
	exprSyntax := toExprSyntax(normalized)

	env := make(map[string]float64, InputCount)
	for _, name := range inputNames {
		env[name] = 0
	}

	program, err := expr.Compile(exprSyntax, expr.Env(env))
	if err != nil {
		return nil, fmt.Errorf("calc: compile %q: %w", expression, err)
	}
	return &Program{source: expression, vm: program}, nil
}

// Eval runs the compiled program against the 12-input vector and returns
// the numeric result. Comparison and logical operators (the common MEDM
// visibility case) evaluate to a Go bool, not a float64; that result is
// coerced to the 1.0/0.0 truth value §8 documents rather than rejected. A
// non-nil error means evaluation failed at runtime (divide by zero, an
// operand the expression can't use, ...); callers treat that the same as
// "visible = false" per §4.4 step 4 Calc case.
func (p *Program) Eval(in Inputs) (float64, error) {
	env := make(map[string]any, InputCount)
	for i, name := range inputNames {
		env[name] = in[i]
	}
	out, err := expr.Run(p.vm, env)
	if err != nil {
		return 0, fmt.Errorf("calc: eval %q: %w", p.source, err)
	}
	switch result := out.(type) {
	case float64:
		return result, nil
	case int:
		return float64(result), nil
	case bool:
		if result {
			return 1.0, nil
		}
		return 0.0, nil
	default:
		return 0, fmt.Errorf("calc: eval %q: non-numeric result %T", p.source, out)
	}
}

// Source returns the original (un-normalized) expression text.
func (p *Program) Source() string { return p.source }
