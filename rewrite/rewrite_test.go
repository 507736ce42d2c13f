package rewrite

import (
	"testing"

	"github.com/scizzorz/mask/ast"
	"github.com/scizzorz/mask/lexer"
	"github.com/scizzorz/mask/parser"
)

func parseAndRewrite(t *testing.T, input string) (*ast.Program, []error) {
	t.Helper()
	l := lexer.New(input)
	p := parser.New(l)
	prog := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		t.Fatalf("unexpected parse errors for %q: %v", input, errs)
	}
	return Rewrite(prog)
}

func TestElseIfSplicesIntoNestedIf(t *testing.T) {
	src := "if a\n  b\nelse if c\n  d\nelse\n  e"
	prog, errs := parseAndRewrite(t, src)
	if len(errs) != 0 {
		t.Fatalf("unexpected rewrite errors: %v", errs)
	}
	top := prog.Statements[0].(*ast.If)
	if len(top.Else) != 1 {
		t.Fatalf("expected exactly one nested If in Else, got %d statements", len(top.Else))
	}
	nested, ok := top.Else[0].(*ast.If)
	if !ok {
		t.Fatalf("expected the spliced else-if to become an *ast.If, got %T", top.Else[0])
	}
	if len(nested.Else) != 1 {
		t.Fatalf("expected the nested if's own else body to survive, got %d statements", len(nested.Else))
	}
	if _, ok := nested.Else[0].(*ast.ElseIf); ok {
		t.Fatalf("no transient ElseIf node may survive rewrite")
	}
}

func TestIfRewriteIsIdempotent(t *testing.T) {
	src := "if a\n  b\nelse if c\n  d\nelse\n  e"
	prog, errs := parseAndRewrite(t, src)
	if len(errs) != 0 {
		t.Fatalf("unexpected rewrite errors: %v", errs)
	}
	first := prog.String()

	prog2, errs2 := Rewrite(prog)
	if len(errs2) != 0 {
		t.Fatalf("unexpected errors on second rewrite: %v", errs2)
	}
	second := prog2.String()

	if first != second {
		t.Fatalf("rewrite is not idempotent:\nfirst:  %q\nsecond: %q", first, second)
	}
}

func TestBreakOutsideLoopIsRejected(t *testing.T) {
	_, errs := parseAndRewrite(t, "break")
	if len(errs) == 0 {
		t.Fatalf("expected a NotInLoop error for top-level break")
	}
	if errs[0].(*Error).Kind != NotInLoop {
		t.Fatalf("expected NotInLoop, got %v", errs[0])
	}
}

func TestBreakInsideLoopIsAccepted(t *testing.T) {
	_, errs := parseAndRewrite(t, "loop\n  break")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
}

func TestBreakInsideFunctionNestedInLoopIsRejected(t *testing.T) {
	src := "loop\n  f = fn()\n    break"
	_, errs := parseAndRewrite(t, src)
	if len(errs) == 0 {
		t.Fatalf("expected a NotInLoop error: break cannot reach through a function boundary")
	}
	if errs[0].(*Error).Kind != NotInLoop {
		t.Fatalf("expected NotInLoop, got %v", errs[0])
	}
}

func TestContinueInsideWhileIsAccepted(t *testing.T) {
	_, errs := parseAndRewrite(t, "while true\n  continue")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
}

func TestAssignmentToNameIndexOrSuperIsValid(t *testing.T) {
	_, errs := parseAndRewrite(t, "x = 1\nt.a = 1\n.x = 1")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors for valid assignment targets: %v", errs)
	}
}

func TestAssignmentToNonPlaceIsRejected(t *testing.T) {
	_, errs := parseAndRewrite(t, "[1, x] = y")
	if len(errs) == 0 {
		t.Fatalf("expected a NotPlace error: a literal can't be a destructuring target")
	}
	if errs[0].(*Error).Kind != NotPlace {
		t.Fatalf("expected NotPlace, got %v", errs[0])
	}
}
