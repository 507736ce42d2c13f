// Package compiler lowers a rewritten abstract syntax tree into the
// tree-shaped instructions of package code.
//
// Every statement compiles to an instruction sequence that leaves the data
// stack exactly as it found it; every expression compiles to a sequence
// that leaves exactly one more value on it than it found. Those two
// invariants are what let If/Loop/Catch/Returnable embed a statement list
// or an expression's instructions without any bookkeeping of their own:
// the shape of the sequence tells you its stack effect.
//
// Comparison and logical chains (CmpExpr, LogicExpr) are the one place
// that needs help keeping that invariant under short-circuiting: both
// compile to a body wrapped in OpReturnable, so an early exit (a failed
// comparison, a falsy `and`, a truthy `or`) can signal Return with
// whatever value it needs to surface without disturbing callers above it.
package compiler

import (
	"fmt"

	"github.com/scizzorz/mask/ast"
	"github.com/scizzorz/mask/code"
	"github.com/scizzorz/mask/token"
)

// ErrorKind categorizes a compile-time failure.
type ErrorKind string

const (
	// UnsupportedDestructuring is raised for an assignment whose target is
	// an ast.MultiPlace. original_source's own compiler.rs never finished
	// this either (it panics with "can't use multi places"); mask rejects
	// it statically instead of panicking at runtime.
	UnsupportedDestructuring ErrorKind = "UnsupportedDestructuring"
)

// Error is a single compile failure.
type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Msg) }

// Compiler lowers one program into one code.Module.
type Compiler struct {
	module *code.Module
	errors []error
}

// New creates a Compiler that will produce a Module named name.
func New(name string) *Compiler {
	return &Compiler{module: code.NewModule(name)}
}

// Compile lowers prog's statements into the Compiler's module and returns
// it, along with any errors found. Errors do not stop the walk.
func (c *Compiler) Compile(prog *ast.Program) (*code.Module, []error) {
	body := c.statements(prog.Statements)
	body = append(body, code.Instr{Op: code.OpPushConst, Const: c.constNull()})
	c.module.Body = body
	return c.module, c.errors
}

func (c *Compiler) errorf(kind ErrorKind, format string, args ...any) {
	c.errors = append(c.errors, &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)})
}

func (c *Compiler) constInt(v int64) int {
	return c.module.Intern(code.Const{Tag: code.ConstInt, Int: v})
}
func (c *Compiler) constFloat(v float64) int {
	return c.module.Intern(code.Const{Tag: code.ConstFloat, Float: v})
}
func (c *Compiler) constBool(v bool) int {
	return c.module.Intern(code.Const{Tag: code.ConstBool, Bool: v})
}
func (c *Compiler) constStr(v string) int {
	return c.module.Intern(code.Const{Tag: code.ConstStr, Str: v})
}
func (c *Compiler) constNull() int { return c.module.Intern(code.Const{Tag: code.ConstNull}) }

// statements compiles a statement list; the result's net stack effect is
// always zero.
func (c *Compiler) statements(stmts []ast.Statement) []code.Instr {
	out := make([]code.Instr, 0, len(stmts))
	for _, s := range stmts {
		out = append(out, c.statement(s)...)
	}
	return out
}

func (c *Compiler) statement(s ast.Statement) []code.Instr {
	switch n := s.(type) {
	case *ast.ExpressionStatement:
		if n.Expr == nil {
			return nil
		}
		return append(c.expr(n.Expr), code.Instr{Op: code.OpPop})

	case *ast.Assn:
		return c.assn(n)

	case *ast.If:
		instrs := c.expr(n.Cond)
		if n.Else == nil {
			return append(instrs, code.Instr{Op: code.OpIf, Body: c.statements(n.Body)})
		}
		return append(instrs, code.Instr{Op: code.OpIfElse, Body: c.statements(n.Body), Else: c.statements(n.Else)})

	case *ast.While:
		body := c.expr(n.Cond)
		body = append(body, code.Instr{Op: code.OpUnOp, Operator: token.Bang})
		body = append(body, code.Instr{Op: code.OpIf, Body: []code.Instr{{Op: code.OpBreak}}})
		body = append(body, c.statements(n.Body)...)
		return []code.Instr{{Op: code.OpLoop, Body: body}}

	case *ast.For:
		instrs := c.expr(n.Iter)
		body := []code.Instr{
			{Op: code.OpDup},
			{Op: code.OpCall, Argc: 0},
			{Op: code.OpForBreak, Name: n.Name},
		}
		body = append(body, c.statements(n.Body)...)
		instrs = append(instrs, code.Instr{Op: code.OpLoop, Body: body})
		instrs = append(instrs, code.Instr{Op: code.OpPop})
		return instrs

	case *ast.Loop:
		return []code.Instr{{Op: code.OpLoop, Body: c.statements(n.Body)}}

	case *ast.Break:
		return []code.Instr{{Op: code.OpBreak}}

	case *ast.Continue:
		return []code.Instr{{Op: code.OpContinue}}

	case *ast.Pass:
		return []code.Instr{{Op: code.OpNop}}

	case *ast.Return:
		var instrs []code.Instr
		if n.Value != nil {
			instrs = c.expr(n.Value)
		} else {
			instrs = []code.Instr{{Op: code.OpPushConst, Const: c.constNull()}}
		}
		return append(instrs, code.Instr{Op: code.OpReturn})

	default:
		return nil
	}
}

// assn compiles an assignment. The value is always computed first; the
// target then determines what gets pushed on top of it before OpSet, which
// always pops (table-item, key, value) in that order off the top.
func (c *Compiler) assn(n *ast.Assn) []code.Instr {
	if fd, ok := n.Value.(*ast.FuncDef); ok {
		if name, ok := n.Target.(*ast.Name); ok && fd.Name == "" {
			fd.Name = name.Value
		}
	}
	value := c.expr(n.Value)
	switch target := n.Target.(type) {
	case *ast.Name:
		return append(value,
			code.Instr{Op: code.OpPushConst, Const: c.constStr(target.Value)},
			code.Instr{Op: code.OpPushScope},
			code.Instr{Op: code.OpSet},
		)

	case *ast.Index:
		instrs := append(value, c.expr(target.Key)...)
		instrs = append(instrs, c.expr(target.Recv)...)
		return append(instrs, code.Instr{Op: code.OpSet})

	case *ast.Super:
		instrs := append(value, code.Instr{Op: code.OpPushConst, Const: c.constStr(target.Name)})
		instrs = append(instrs, code.Instr{Op: code.OpPushScope})
		for range target.Depth {
			instrs = append(instrs, code.Instr{Op: code.OpUnOp, Operator: token.Star})
		}
		return append(instrs, code.Instr{Op: code.OpSet})

	case *ast.MultiPlace:
		c.errorf(UnsupportedDestructuring, "destructuring assignment is not supported")
		return append(value, code.Instr{Op: code.OpPop})

	default:
		c.errorf(UnsupportedDestructuring, "%s is not an assignable place", n.Target.String())
		return append(value, code.Instr{Op: code.OpPop})
	}
}

// expr compiles an expression; the result's net stack effect is always +1.
func (c *Compiler) expr(e ast.Expression) []code.Instr {
	switch n := e.(type) {
	case *ast.NullLit:
		return []code.Instr{{Op: code.OpPushConst, Const: c.constNull()}}

	case *ast.BoolLit:
		return []code.Instr{{Op: code.OpPushConst, Const: c.constBool(n.Value)}}

	case *ast.IntLit:
		return []code.Instr{{Op: code.OpPushConst, Const: c.constInt(n.Value)}}

	case *ast.FloatLit:
		return []code.Instr{{Op: code.OpPushConst, Const: c.constFloat(n.Value)}}

	case *ast.StrLit:
		return []code.Instr{{Op: code.OpPushConst, Const: c.constStr(n.Value)}}

	case *ast.Local:
		return []code.Instr{{Op: code.OpPushScope}}

	case *ast.Name:
		return []code.Instr{
			{Op: code.OpPushConst, Const: c.constStr(n.Value)},
			{Op: code.OpPushScope},
			{Op: code.OpGet},
		}

	case *ast.Super:
		instrs := []code.Instr{
			{Op: code.OpPushConst, Const: c.constStr(n.Name)},
			{Op: code.OpPushScope},
		}
		for range n.Depth {
			instrs = append(instrs, code.Instr{Op: code.OpUnOp, Operator: token.Star})
		}
		return append(instrs, code.Instr{Op: code.OpGet})

	case *ast.Index:
		instrs := c.expr(n.Key)
		instrs = append(instrs, c.expr(n.Recv)...)
		return append(instrs, code.Instr{Op: code.OpGet})

	case *ast.BinExpr:
		instrs := c.expr(n.Left)
		instrs = append(instrs, c.expr(n.Right)...)
		return append(instrs, code.Instr{Op: code.OpBinOp, Operator: n.Op})

	case *ast.UnExpr:
		instrs := c.expr(n.Operand)
		return append(instrs, code.Instr{Op: code.OpUnOp, Operator: n.Op})

	case *ast.CmpExpr:
		return c.cmpChain(n)

	case *ast.LogicExpr:
		return c.logicChain(n)

	case *ast.FuncCall:
		instrs := c.expr(n.Fn)
		for _, a := range n.Args {
			instrs = append(instrs, c.expr(a)...)
		}
		return append(instrs, code.Instr{Op: code.OpCall, Argc: len(n.Args)})

	case *ast.MethodCall:
		instrs := c.expr(n.Recv)
		instrs = append(instrs, code.Instr{Op: code.OpMethodGet, Const: c.constStr(n.Name)})
		for _, a := range n.Args {
			instrs = append(instrs, c.expr(a)...)
		}
		return append(instrs, code.Instr{Op: code.OpCall, Argc: len(n.Args) + 1})

	case *ast.FuncDef:
		body := c.statements(n.Body)
		body = append(body, code.Instr{Op: code.OpPushConst, Const: c.constNull()})
		protoIdx := c.module.AddProto(code.Proto{
			Params: n.Params,
			Body:   []code.Instr{{Op: code.OpReturnable, Body: body}},
		})
		return []code.Instr{{Op: code.OpPushFunc, Const: protoIdx}}

	case *ast.Catch:
		body := c.statements(n.Body)
		body = append(body, code.Instr{Op: code.OpPushConst, Const: c.constNull()})
		return []code.Instr{{Op: code.OpCatch, Body: body}}

	default:
		return []code.Instr{{Op: code.OpPushConst, Const: c.constNull()}}
	}
}

// cmpChain compiles a CmpExpr. A single comparison (exactly one op) needs
// no chaining machinery at all: compile both operands and emit a bare
// CmpOp(op, chain=false), which just pushes the bool result.
//
// A chain of two or more ops is wrapped in a Returnable body: every link
// but the last runs with chain=true, popping (left, right) and on success
// replacing them with right (the next link's left), falling through to
// push the next operand; on failure it pushes Bool(false) and signals
// Return immediately, short-circuiting the rest of the chain. The last
// link runs with chain=false and just pushes its bool result, which the
// body then returns.
func (c *Compiler) cmpChain(n *ast.CmpExpr) []code.Instr {
	body := c.expr(n.Nodes[0])
	for i, op := range n.Ops {
		body = append(body, c.expr(n.Nodes[i+1])...)
		body = append(body, code.Instr{Op: code.OpCmpOp, Operator: op, Chain: i < len(n.Ops)-1})
	}
	if len(n.Ops) == 1 {
		return body
	}
	body = append(body, code.Instr{Op: code.OpReturn})
	return []code.Instr{{Op: code.OpReturnable, Body: body}}
}

// logicChain compiles a LogicExpr into a Returnable-wrapped body. Each link
// inspects the current accumulated value: `and` returns it early if it's
// falsy, `or` returns it early if it's truthy; otherwise the value is
// discarded and the next operand becomes the new accumulator. If the chain
// runs to its end, the final operand's value is returned as-is.
func (c *Compiler) logicChain(n *ast.LogicExpr) []code.Instr {
	body := c.expr(n.Nodes[0])
	for i, op := range n.Ops {
		body = append(body, code.Instr{Op: code.OpLogicOp, Operator: op})
		body = append(body, c.expr(n.Nodes[i+1])...)
	}
	body = append(body, code.Instr{Op: code.OpReturn})
	return []code.Instr{{Op: code.OpReturnable, Body: body}}
}
