// Package parser implements the syntactic analyzer for the mask
// programming language.
//
// It is a recursive-descent parser with a Pratt (precedence-climbing)
// layer for binary expressions. Block structure comes from the lexer's
// synthesized [token.Enter]/[token.Exit]/[token.End] tokens rather than
// braces, so every block-bearing construct (if/while/for/loop/fn/catch)
// is parsed as header-then-[Parser.parseBlock] rather than
// header-then-brace-matching.
//
// The expression grammar, from lowest to highest precedence:
//
//  1. multi-line expressions: `fn(...)` or `catch`, each followed by an
//     indented block
//  2. inline lambda sugar: `|params| expr`
//  3. logical chains: `a and b or c`            (single [ast.LogicExpr])
//  4. comparison chains: `a < b <= c`            (single [ast.CmpExpr])
//  5. binary arithmetic, mixed associativity: cat(@)=10 left, add/sub=20
//     left, mul/div=30 left, car(^)=40 right, sup(::)=50 right
//  6. unary prefix: `- ! ~ * $`
//  7. super-reference atoms: `.name`, `..name`, ...
//  8. postfix chains: `.name`, `[expr]`, `:name(args)`, `(args)`
//  9. atoms: literals, names, `local`, parenthesized expressions
package parser

import (
	"fmt"
	"strconv"

	"github.com/scizzorz/mask/ast"
	"github.com/scizzorz/mask/lexer"
	"github.com/scizzorz/mask/token"
)

// ErrorKind categorizes a parse error.
type ErrorKind string

const (
	UnexpectedToken       ErrorKind = "UnexpectedToken"
	UnexpectedEOF         ErrorKind = "UnexpectedEOF"
	UnknownBinaryOperator ErrorKind = "UnknownBinaryOperator"
	UnknownUnaryOperator  ErrorKind = "UnknownUnaryOperator"
	UnusedPlaces          ErrorKind = "UnusedPlaces"
)

// Error is a single parse failure.
type Error struct {
	Kind ErrorKind
	Msg  string
	Pos  int
}

func (e *Error) Error() string { return fmt.Sprintf("%s at %d: %s", e.Kind, e.Pos, e.Msg) }

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

// Parser turns a token stream from [lexer.Lexer] into an [ast.Program].
type Parser struct {
	l      *lexer.Lexer
	errors []error

	cur  token.Token
	peek token.Token
}

// New creates a Parser reading from l and primes the first two tokens.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}
	p.next()
	p.next()
	return p
}

// Errors returns every error accumulated during parsing.
func (p *Parser) Errors() []error { return p.errors }

func (p *Parser) next() {
	p.cur = p.peek
	p.peek = p.l.NextToken()
}

func (p *Parser) errorf(kind ErrorKind, format string, args ...any) {
	p.errors = append(p.errors, &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Pos: p.cur.Pos})
}

func (p *Parser) expect(t token.Type) bool {
	if p.cur.Type == t {
		p.next()
		return true
	}
	if p.cur.Type == token.EOF {
		p.errorf(UnexpectedEOF, "expected %s, got EOF", t)
	} else {
		p.errorf(UnexpectedToken, "expected %s, got %s %q", t, p.cur.Type, p.cur.Literal)
	}
	return false
}

func (p *Parser) expectName() string {
	if p.cur.Type != token.Name {
		p.errorf(UnexpectedToken, "expected a name, got %s %q", p.cur.Type, p.cur.Literal)
		return ""
	}
	name := p.cur.Literal
	p.next()
	return name
}

// ParseProgram parses a complete mask source file. Check [Parser.Errors]
// afterward for any accumulated syntax errors.
func (p *Parser) ParseProgram() *ast.Program {
	return &ast.Program{Statements: p.parseStatementList(token.EOF)}
}

// parseStatementList parses statements separated by token.End until term
// (exclusive) or EOF is reached.
func (p *Parser) parseStatementList(term token.Type) []ast.Statement {
	var stmts []ast.Statement
	for p.cur.Type != term && p.cur.Type != token.EOF {
		if stmt := p.parseStatement(); stmt != nil {
			stmts = append(stmts, stmt)
		}
		if p.cur.Type == token.End {
			p.next()
			continue
		}
		break
	}
	return stmts
}

// parseBlock parses an indented block: Enter, a statement list, Exit.
func (p *Parser) parseBlock() []ast.Statement {
	if !p.expect(token.Enter) {
		return nil
	}
	stmts := p.parseStatementList(token.Exit)
	p.expect(token.Exit)
	return stmts
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.cur.Type {
	case token.If:
		return p.parseIf()
	case token.While:
		return p.parseWhile()
	case token.For:
		return p.parseFor()
	case token.Loop:
		return p.parseLoop()
	case token.Break:
		t := p.cur
		p.next()
		return &ast.Break{Token: t}
	case token.Continue:
		t := p.cur
		p.next()
		return &ast.Continue{Token: t}
	case token.Pass:
		t := p.cur
		p.next()
		return &ast.Pass{Token: t}
	case token.Return:
		return p.parseReturn()
	default:
		return p.parseAssnOrExpr()
	}
}

func (p *Parser) parseIf() ast.Statement {
	t := p.cur
	p.next()
	cond := p.parseExpr()
	body := p.parseBlock()
	elseBody := p.parseElseTail()
	return &ast.If{Token: t, Cond: cond, Body: body, Else: elseBody}
}

// parseElseTail parses an optional `else` or `else if ...` clause. A chain
// of `else if` clauses is represented, pre-rewrite, as a single transient
// ast.ElseIf nested inside the returned body.
func (p *Parser) parseElseTail() []ast.Statement {
	if p.cur.Type == token.End && p.peek.Type == token.Else {
		p.next()
	}
	if p.cur.Type != token.Else {
		return nil
	}
	t := p.cur
	p.next()
	if p.cur.Type == token.If {
		p.next()
		cond := p.parseExpr()
		body := p.parseBlock()
		tail := p.parseElseTail()
		return []ast.Statement{&ast.ElseIf{Token: t, Cond: cond, Body: body, Else: tail}}
	}
	return p.parseBlock()
}

func (p *Parser) parseWhile() ast.Statement {
	t := p.cur
	p.next()
	cond := p.parseExpr()
	body := p.parseBlock()
	return &ast.While{Token: t, Cond: cond, Body: body}
}

func (p *Parser) parseFor() ast.Statement {
	t := p.cur
	p.next()
	name := p.expectName()
	p.expect(token.In)
	iter := p.parseExpr()
	body := p.parseBlock()
	return &ast.For{Token: t, Name: name, Iter: iter, Body: body}
}

func (p *Parser) parseLoop() ast.Statement {
	t := p.cur
	p.next()
	body := p.parseBlock()
	return &ast.Loop{Token: t, Body: body}
}

func (p *Parser) parseReturn() ast.Statement {
	t := p.cur
	p.next()
	if p.atStatementBoundary() {
		return &ast.Return{Token: t}
	}
	return &ast.Return{Token: t, Value: p.parseExpr()}
}

func (p *Parser) atStatementBoundary() bool {
	switch p.cur.Type {
	case token.End, token.Exit, token.EOF:
		return true
	default:
		return false
	}
}

// parseAssnOrExpr parses either a bare expression statement or an
// assignment `target = value`, including bracket-delimited destructuring
// targets.
func (p *Parser) parseAssnOrExpr() ast.Statement {
	if p.cur.Type == token.LBracket {
		t := p.cur
		target := p.parseMultiPlace()
		if !p.expect(token.Assign) {
			p.errorf(UnusedPlaces, "destructuring target is not followed by '='")
			return &ast.ExpressionStatement{Token: t}
		}
		value := p.parseExpr()
		return &ast.Assn{Token: t, Target: target, Value: value}
	}

	t := p.cur
	expr := p.parseExpr()
	if p.cur.Type != token.Assign {
		return &ast.ExpressionStatement{Token: t, Expr: expr}
	}
	p.next()
	decl, ok := expr.(ast.Decl)
	if !ok {
		p.errorf(UnexpectedToken, "%s is not a valid assignment target", expr.String())
	}
	value := p.parseExpr()
	return &ast.Assn{Token: t, Target: decl, Value: value}
}

func (p *Parser) parseMultiPlace() *ast.MultiPlace {
	t := p.cur
	p.expect(token.LBracket)
	m := &ast.MultiPlace{Token: t}
	if p.cur.Type == token.RBracket {
		p.next()
		return m
	}
	for {
		if p.cur.Type == token.LBracket {
			m.Items = append(m.Items, p.parseMultiPlace())
		} else {
			expr := p.parseExpr()
			decl, ok := expr.(ast.Decl)
			if !ok {
				p.errorf(UnexpectedToken, "%s is not a valid destructuring target", expr.String())
			}
			m.Items = append(m.Items, decl)
		}
		if p.cur.Type != token.Comma {
			break
		}
		p.next()
	}
	p.expect(token.RBracket)
	return m
}

// ---- expressions ----

// parseExpr is the single recursive-descent entry point for "parse an
// expression", reachable from any expression position (statements, call
// arguments, index expressions, binary operands...).
func (p *Parser) parseExpr() ast.Expression {
	switch p.cur.Type {
	case token.Fn:
		return p.parseFuncDef()
	case token.Catch:
		return p.parseCatch()
	case token.Pipe:
		return p.parseLambda()
	default:
		return p.parseLogicChain()
	}
}

func (p *Parser) parseFuncDef() ast.Expression {
	t := p.cur
	p.next()
	p.expect(token.LParen)
	params := p.parseParams()
	p.expect(token.RParen)
	body := p.parseBlock()
	return &ast.FuncDef{Token: t, Params: params, Body: body}
}

func (p *Parser) parseParams() []string {
	var params []string
	if p.cur.Type == token.RParen {
		return params
	}
	params = append(params, p.expectName())
	for p.cur.Type == token.Comma {
		p.next()
		params = append(params, p.expectName())
	}
	return params
}

func (p *Parser) parseLambda() ast.Expression {
	t := p.cur
	p.next()
	params := p.parseParams()
	p.expect(token.Pipe)
	body := p.parseExpr()
	return &ast.FuncDef{Token: t, Params: params, Body: []ast.Statement{&ast.Return{Token: t, Value: body}}}
}

func (p *Parser) parseCatch() ast.Expression {
	t := p.cur
	p.next()
	body := p.parseBlock()
	return &ast.Catch{Token: t, Body: body}
}

var logicOps = map[token.Type]bool{token.And: true, token.Or: true}

func (p *Parser) parseLogicChain() ast.Expression {
	left := p.parseCmpChain()
	if !logicOps[p.cur.Type] {
		return left
	}
	t := p.cur
	nodes := []ast.Expression{left}
	var ops []token.Type
	for logicOps[p.cur.Type] {
		ops = append(ops, p.cur.Type)
		p.next()
		nodes = append(nodes, p.parseCmpChain())
	}
	return &ast.LogicExpr{Token: t, Nodes: nodes, Ops: ops}
}

var cmpOps = map[token.Type]bool{
	token.Eq: true, token.NotEq: true,
	token.Lt: true, token.Le: true, token.Gt: true, token.Ge: true,
}

func (p *Parser) parseCmpChain() ast.Expression {
	left := p.parseBin(0)
	if !cmpOps[p.cur.Type] {
		return left
	}
	t := p.cur
	nodes := []ast.Expression{left}
	var ops []token.Type
	for cmpOps[p.cur.Type] {
		ops = append(ops, p.cur.Type)
		p.next()
		nodes = append(nodes, p.parseBin(0))
	}
	return &ast.CmpExpr{Token: t, Nodes: nodes, Ops: ops}
}

type binOp struct {
	prec       int
	rightAssoc bool
}

// binOps gives each binary operator its precedence and associativity, per
// spec.md §4.2.5: cat=10 left, add/sub=20 left, mul/div=30 left, car=40
// right, sup(::)=50 right.
var binOps = map[token.Type]binOp{
	token.At:        {10, false},
	token.Plus:      {20, false},
	token.Minus:     {20, false},
	token.Star:      {30, false},
	token.Slash:     {30, false},
	token.Caret:     {40, true},
	token.SuperLink: {50, true},
}

func (p *Parser) parseBin(minPrec int) ast.Expression {
	left := p.parseUnary()
	for {
		info, ok := binOps[p.cur.Type]
		if !ok || info.prec < minPrec {
			return left
		}
		t := p.cur
		op := p.cur.Type
		p.next()
		nextMin := info.prec + 1
		if info.rightAssoc {
			nextMin = info.prec
		}
		right := p.parseBin(nextMin)
		left = &ast.BinExpr{Token: t, Op: op, Left: left, Right: right}
	}
}

var unaryOps = map[token.Type]bool{
	token.Minus: true, token.Bang: true, token.Tilde: true,
	token.Star: true, token.Dollar: true,
}

func (p *Parser) parseUnary() ast.Expression {
	if unaryOps[p.cur.Type] {
		t := p.cur
		op := p.cur.Type
		p.next()
		return &ast.UnExpr{Token: t, Op: op, Operand: p.parseUnary()}
	}
	return p.parseSuperRef()
}

// parseSuperRef handles a leading `.name`/`..name`/... atom: Depth counts
// the dots. Dots encountered later, postfix on an already-parsed receiver,
// are ordinary attribute access and are handled by parsePostfix instead.
func (p *Parser) parseSuperRef() ast.Expression {
	if p.cur.Type != token.Dot {
		return p.parsePostfix(p.parseQuark())
	}
	t := p.cur
	depth := 0
	for p.cur.Type == token.Dot {
		depth++
		p.next()
	}
	name := p.expectName()
	return p.parsePostfix(&ast.Super{Token: t, Depth: depth, Name: name})
}

func (p *Parser) parsePostfix(node ast.Expression) ast.Expression {
	for {
		switch p.cur.Type {
		case token.Dot:
			t := p.cur
			p.next()
			name := p.expectName()
			node = &ast.Index{Token: t, Recv: node, Key: &ast.StrLit{Token: t, Value: name}}
		case token.LBracket:
			t := p.cur
			p.next()
			idx := p.parseExpr()
			p.expect(token.RBracket)
			node = &ast.Index{Token: t, Recv: node, Key: idx}
		case token.Colon:
			t := p.cur
			p.next()
			name := p.expectName()
			p.expect(token.LParen)
			args := p.parseArgs()
			p.expect(token.RParen)
			node = &ast.MethodCall{Token: t, Recv: node, Name: name, Args: args}
		case token.LParen:
			t := p.cur
			p.next()
			args := p.parseArgs()
			p.expect(token.RParen)
			node = &ast.FuncCall{Token: t, Fn: node, Args: args}
		default:
			return node
		}
	}
}

func (p *Parser) parseArgs() []ast.Expression {
	var args []ast.Expression
	if p.cur.Type == token.RParen {
		return args
	}
	args = append(args, p.parseExpr())
	for p.cur.Type == token.Comma {
		p.next()
		args = append(args, p.parseExpr())
	}
	return args
}

func (p *Parser) parseQuark() ast.Expression {
	t := p.cur
	switch t.Type {
	case token.Null:
		p.next()
		return &ast.NullLit{Token: t}
	case token.True, token.False:
		p.next()
		return &ast.BoolLit{Token: t, Value: t.Type == token.True}
	case token.Int:
		p.next()
		v, err := strconv.ParseInt(t.Literal, 10, 64)
		if err != nil {
			p.errorf(UnexpectedToken, "invalid integer literal %q", t.Literal)
		}
		return &ast.IntLit{Token: t, Value: v}
	case token.Float:
		p.next()
		v, err := strconv.ParseFloat(t.Literal, 64)
		if err != nil {
			p.errorf(UnexpectedToken, "invalid float literal %q", t.Literal)
		}
		return &ast.FloatLit{Token: t, Value: v}
	case token.Str:
		p.next()
		return &ast.StrLit{Token: t, Value: t.Literal}
	case token.UnclosedStr:
		p.next()
		p.errorf(UnexpectedEOF, "unterminated string literal")
		return &ast.StrLit{Token: t, Value: t.Literal}
	case token.Name, token.Table:
		p.next()
		return &ast.Name{Token: t, Value: t.Literal}
	case token.Local_:
		p.next()
		return &ast.Local{Token: t}
	case token.LParen:
		p.next()
		expr := p.parseExpr()
		p.expect(token.RParen)
		return expr
	case token.EOF:
		p.errorf(UnexpectedEOF, "unexpected end of input")
		return &ast.NullLit{Token: t}
	default:
		p.errorf(UnexpectedToken, "unexpected token %s %q", t.Type, t.Literal)
		p.next()
		return &ast.NullLit{Token: t}
	}
}
