package parser

import (
	"testing"

	"github.com/scizzorz/mask/ast"
	"github.com/scizzorz/mask/lexer"
)

func parseProgram(t *testing.T, input string) *ast.Program {
	t.Helper()
	l := lexer.New(input)
	p := New(l)
	prog := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		t.Fatalf("unexpected parse errors for %q: %v", input, errs)
	}
	return prog
}

func TestPrecedenceAddThenMul(t *testing.T) {
	prog := parseProgram(t, "a + b * c")
	stmt, ok := prog.Statements[0].(*ast.ExpressionStatement)
	if !ok {
		t.Fatalf("expected an expression statement, got %T", prog.Statements[0])
	}
	bin, ok := stmt.Expr.(*ast.BinExpr)
	if !ok || string(bin.Op) != "+" {
		t.Fatalf("expected top-level +, got %#v", stmt.Expr)
	}
	if _, ok := bin.Left.(*ast.Name); !ok {
		t.Fatalf("expected left operand to be a bare name, got %#v", bin.Left)
	}
	right, ok := bin.Right.(*ast.BinExpr)
	if !ok || string(right.Op) != "*" {
		t.Fatalf("expected right operand to be a nested * expression, got %#v", bin.Right)
	}
}

func TestPrecedenceMulThenAdd(t *testing.T) {
	prog := parseProgram(t, "a * b + c")
	stmt := prog.Statements[0].(*ast.ExpressionStatement)
	bin, ok := stmt.Expr.(*ast.BinExpr)
	if !ok || string(bin.Op) != "+" {
		t.Fatalf("expected top-level +, got %#v", stmt.Expr)
	}
	left, ok := bin.Left.(*ast.BinExpr)
	if !ok || string(left.Op) != "*" {
		t.Fatalf("expected left operand to be a nested * expression, got %#v", bin.Left)
	}
}

func TestCaretIsRightAssociative(t *testing.T) {
	prog := parseProgram(t, "a ^ b ^ c")
	stmt := prog.Statements[0].(*ast.ExpressionStatement)
	bin := stmt.Expr.(*ast.BinExpr)
	if _, ok := bin.Left.(*ast.Name); !ok {
		t.Fatalf("expected a ^ (b ^ c), got left operand %#v", bin.Left)
	}
	if _, ok := bin.Right.(*ast.BinExpr); !ok {
		t.Fatalf("expected a ^ (b ^ c), got right operand %#v", bin.Right)
	}
}

func TestComparisonChainParsesAsSingleNode(t *testing.T) {
	prog := parseProgram(t, "a < b <= c")
	stmt := prog.Statements[0].(*ast.ExpressionStatement)
	cmp, ok := stmt.Expr.(*ast.CmpExpr)
	if !ok {
		t.Fatalf("expected a single CmpExpr, got %#v", stmt.Expr)
	}
	if len(cmp.Nodes) != 3 || len(cmp.Ops) != 2 {
		t.Fatalf("expected 3 operands and 2 ops, got %d/%d", len(cmp.Nodes), len(cmp.Ops))
	}
}

func TestIfWithElseIfChain(t *testing.T) {
	src := "if a\n  b\nelse if c\n  d\nelse\n  e"
	prog := parseProgram(t, src)
	ifStmt, ok := prog.Statements[0].(*ast.If)
	if !ok {
		t.Fatalf("expected an If statement, got %T", prog.Statements[0])
	}
	if len(ifStmt.Else) != 1 {
		t.Fatalf("expected the else clause to hold exactly one transient ElseIf node, got %d", len(ifStmt.Else))
	}
	if _, ok := ifStmt.Else[0].(*ast.ElseIf); !ok {
		t.Fatalf("expected an ElseIf node pre-rewrite, got %T", ifStmt.Else[0])
	}
}

func TestWhileLoop(t *testing.T) {
	prog := parseProgram(t, "while x < 3\n  x = x + 1")
	w, ok := prog.Statements[0].(*ast.While)
	if !ok {
		t.Fatalf("expected a While statement, got %T", prog.Statements[0])
	}
	if len(w.Body) != 1 {
		t.Fatalf("expected one statement in the while body, got %d", len(w.Body))
	}
}

func TestFuncDefAndCall(t *testing.T) {
	prog := parseProgram(t, "f = fn(a, b)\n  return a + b\nf(2, 3)")
	assn, ok := prog.Statements[0].(*ast.Assn)
	if !ok {
		t.Fatalf("expected an assignment, got %T", prog.Statements[0])
	}
	fn, ok := assn.Value.(*ast.FuncDef)
	if !ok {
		t.Fatalf("expected a FuncDef value, got %#v", assn.Value)
	}
	if len(fn.Params) != 2 || fn.Params[0] != "a" || fn.Params[1] != "b" {
		t.Fatalf("expected params [a b], got %v", fn.Params)
	}

	call := prog.Statements[1].(*ast.ExpressionStatement).Expr.(*ast.FuncCall)
	if len(call.Args) != 2 {
		t.Fatalf("expected 2 call args, got %d", len(call.Args))
	}
}

func TestMethodCallAndIndex(t *testing.T) {
	prog := parseProgram(t, "t.a = 1\nt:m(1, 2)\nt[0]")
	assn := prog.Statements[0].(*ast.Assn)
	idx, ok := assn.Target.(*ast.Index)
	if !ok {
		t.Fatalf("expected an Index assignment target, got %#v", assn.Target)
	}
	key, ok := idx.Key.(*ast.StrLit)
	if !ok || key.Value != "a" {
		t.Fatalf("expected .a to desugar to an index by string literal \"a\", got %#v", idx.Key)
	}

	mcall := prog.Statements[1].(*ast.ExpressionStatement).Expr.(*ast.MethodCall)
	if mcall.Name != "m" || len(mcall.Args) != 2 {
		t.Fatalf("expected method call m(1, 2), got %#v", mcall)
	}
}

func TestSuperLinkIsRightAssociative(t *testing.T) {
	prog := parseProgram(t, "a :: b :: c")
	stmt := prog.Statements[0].(*ast.ExpressionStatement)
	bin := stmt.Expr.(*ast.BinExpr)
	if _, ok := bin.Right.(*ast.BinExpr); !ok {
		t.Fatalf("expected a :: (b :: c), got right operand %#v", bin.Right)
	}
}

func TestCatchExpression(t *testing.T) {
	prog := parseProgram(t, "x = catch\n  panic('boom')")
	assn := prog.Statements[0].(*ast.Assn)
	if _, ok := assn.Value.(*ast.Catch); !ok {
		t.Fatalf("expected a Catch expression, got %#v", assn.Value)
	}
}

func TestDestructuringAssignment(t *testing.T) {
	prog := parseProgram(t, "[a, b] = c")
	assn, ok := prog.Statements[0].(*ast.Assn)
	if !ok {
		t.Fatalf("expected an assignment, got %T", prog.Statements[0])
	}
	mp, ok := assn.Target.(*ast.MultiPlace)
	if !ok || len(mp.Items) != 2 {
		t.Fatalf("expected a 2-item destructuring target, got %#v", assn.Target)
	}
}

func TestInvalidAssignmentTargetIsAnError(t *testing.T) {
	l := lexer.New("1 = 2")
	p := New(l)
	p.ParseProgram()
	if len(p.Errors()) == 0 {
		t.Fatalf("expected an error assigning into a literal target")
	}
}

func TestUnexpectedEOFIsReported(t *testing.T) {
	l := lexer.New("x = 1 +")
	p := New(l)
	p.ParseProgram()
	errs := p.Errors()
	if len(errs) == 0 {
		t.Fatalf("expected a parse error for a dangling operator")
	}
}
