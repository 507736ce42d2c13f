// Package rewrite implements the semantic rewriter for the mask
// programming language.
//
// It runs between parsing and compilation and performs three jobs:
//
//  1. If-chain splicing: every `else if` clause parsed as a transient
//     [ast.ElseIf] is spliced into a nested [ast.If], so the compiler only
//     ever sees the canonical `If{Cond, Body, Else}` shape.
//  2. Loop-context tracking: `break`/`continue` are only legal lexically
//     inside a `loop`/`while`/`for` body, and that context resets at every
//     [ast.FuncDef] boundary — a break written inside a function nested in
//     a loop is rejected even though it is lexically inside the loop's
//     text, because it no longer executes inside the loop's iteration.
//  3. Assignment place validation: an [ast.Assn] target (after flattening
//     any [ast.MultiPlace] destructuring) must be a Name, Index, or Super
//     node — anything else is not an assignable place.
//
// This mirrors, and in two places corrects, `semck.rs` in the original
// implementation: that file never actually spliced ElseIf/Else into nested
// Ifs, and never reset its loop flag at a function boundary. See DESIGN.md.
package rewrite

import (
	"fmt"

	"github.com/scizzorz/mask/ast"
)

// ErrorKind categorizes a semantic rewrite failure.
type ErrorKind string

const (
	NotInLoop ErrorKind = "NotInLoop"
	NotPlace  ErrorKind = "NotPlace"
	MissingIf ErrorKind = "MissingIf"
)

// Error is a single semantic rewrite failure.
type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Msg) }

// Rewriter walks a freshly parsed program and produces its canonical form.
type Rewriter struct {
	errors []error
	inLoop bool
}

// New creates a Rewriter.
func New() *Rewriter { return &Rewriter{} }

// Rewrite rewrites prog in place and returns it, along with any semantic
// errors found. A non-empty error slice does not stop the walk: the
// rewriter keeps going to surface as many problems as it can in one pass.
func Rewrite(prog *ast.Program) (*ast.Program, []error) {
	r := New()
	prog.Statements = r.statements(prog.Statements)
	return prog, r.errors
}

func (r *Rewriter) errorf(kind ErrorKind, format string, args ...any) {
	r.errors = append(r.errors, &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)})
}

func (r *Rewriter) statements(stmts []ast.Statement) []ast.Statement {
	out := make([]ast.Statement, 0, len(stmts))
	for _, s := range stmts {
		out = append(out, r.statement(s))
	}
	return out
}

func (r *Rewriter) statement(s ast.Statement) ast.Statement {
	switch n := s.(type) {
	case *ast.If:
		n.Cond = r.expr(n.Cond)
		n.Body = r.statements(n.Body)
		n.Else = r.elseChain(n.Else)
		return n

	case *ast.ElseIf:
		// Only reachable if a MissingIf-shaped tree sneaks an ElseIf in
		// somewhere other than an If's Else slot; treat it as a plain If.
		r.errorf(MissingIf, "else-if clause with no preceding if")
		rewritten := &ast.If{Token: n.Token, Cond: r.expr(n.Cond), Body: r.statements(n.Body), Else: r.elseChain(n.Else)}
		return rewritten

	case *ast.While:
		n.Cond = r.expr(n.Cond)
		n.Body = r.loopBody(n.Body)
		return n

	case *ast.For:
		n.Iter = r.expr(n.Iter)
		n.Body = r.loopBody(n.Body)
		return n

	case *ast.Loop:
		n.Body = r.loopBody(n.Body)
		return n

	case *ast.Break:
		if !r.inLoop {
			r.errorf(NotInLoop, "'break' outside of a loop")
		}
		return n

	case *ast.Continue:
		if !r.inLoop {
			r.errorf(NotInLoop, "'continue' outside of a loop")
		}
		return n

	case *ast.Return:
		if n.Value != nil {
			n.Value = r.expr(n.Value)
		}
		return n

	case *ast.Pass:
		return n

	case *ast.Assn:
		r.place(n.Target)
		n.Value = r.expr(n.Value)
		return n

	case *ast.ExpressionStatement:
		if n.Expr != nil {
			n.Expr = r.expr(n.Expr)
		}
		return n

	default:
		return s
	}
}

// loopBody rewrites a loop's body with inLoop set, restoring the previous
// value on return so nesting (and function boundaries within) behaves.
func (r *Rewriter) loopBody(stmts []ast.Statement) []ast.Statement {
	saved := r.inLoop
	r.inLoop = true
	out := r.statements(stmts)
	r.inLoop = saved
	return out
}

// funcBody rewrites a function body with inLoop cleared, since break/
// continue cannot reach through a function call boundary back to an
// enclosing loop's iteration.
func (r *Rewriter) funcBody(stmts []ast.Statement) []ast.Statement {
	saved := r.inLoop
	r.inLoop = false
	out := r.statements(stmts)
	r.inLoop = saved
	return out
}

// elseChain splices a lone transient ElseIf into a nested If, or rewrites a
// plain else body as-is.
func (r *Rewriter) elseChain(stmts []ast.Statement) []ast.Statement {
	if stmts == nil {
		return nil
	}
	if len(stmts) == 1 {
		if ei, ok := stmts[0].(*ast.ElseIf); ok {
			nested := &ast.If{
				Token: ei.Token,
				Cond:  r.expr(ei.Cond),
				Body:  r.statements(ei.Body),
				Else:  r.elseChain(ei.Else),
			}
			return []ast.Statement{nested}
		}
	}
	return r.statements(stmts)
}

// place validates that d (after flattening any destructuring) only ever
// names an assignable location.
func (r *Rewriter) place(d ast.Decl) {
	switch n := d.(type) {
	case *ast.Name, *ast.Index, *ast.Super:
		_ = n
	case *ast.MultiPlace:
		for _, item := range n.Items {
			r.place(item)
		}
	case nil:
		r.errorf(NotPlace, "missing assignment target")
	default:
		r.errorf(NotPlace, "%s is not an assignable place", d.String())
	}
}

func (r *Rewriter) expr(e ast.Expression) ast.Expression {
	switch n := e.(type) {
	case *ast.BinExpr:
		n.Left = r.expr(n.Left)
		n.Right = r.expr(n.Right)
		return n
	case *ast.UnExpr:
		n.Operand = r.expr(n.Operand)
		return n
	case *ast.CmpExpr:
		for i, sub := range n.Nodes {
			n.Nodes[i] = r.expr(sub)
		}
		return n
	case *ast.LogicExpr:
		for i, sub := range n.Nodes {
			n.Nodes[i] = r.expr(sub)
		}
		return n
	case *ast.Index:
		n.Recv = r.expr(n.Recv)
		n.Key = r.expr(n.Key)
		return n
	case *ast.FuncCall:
		n.Fn = r.expr(n.Fn)
		for i, a := range n.Args {
			n.Args[i] = r.expr(a)
		}
		return n
	case *ast.MethodCall:
		n.Recv = r.expr(n.Recv)
		for i, a := range n.Args {
			n.Args[i] = r.expr(a)
		}
		return n
	case *ast.FuncDef:
		n.Body = r.funcBody(n.Body)
		return n
	case *ast.Catch:
		n.Body = r.statements(n.Body)
		return n
	default:
		return e
	}
}
