// Package vm is the tree-walking interpreter for compiled mask modules.
//
// It executes the tree-shaped instructions of package code directly by
// recursion, rather than flattening them and running a fetch-decode-jump
// loop: an Instr with a Body field is a nested instruction sequence, and
// the interpreter just calls itself on it. Non-local control flow —
// break, continue, return, and exceptions — is modeled as a signal
// returned alongside any error, exactly as described by a Loop, a
// Returnable, or a Catch instruction: each of those is the one kind of
// frame that catches its respective signal, and everything else just
// propagates it upward.
package vm

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/scizzorz/mask/code"
	"github.com/scizzorz/mask/compiler"
	"github.com/scizzorz/mask/lexer"
	"github.com/scizzorz/mask/parser"
	"github.com/scizzorz/mask/rewrite"
	"github.com/scizzorz/mask/value"
)

// SignalKind tags the non-local control outcome of executing an
// instruction sequence.
type SignalKind int

//nolint:revive
const (
	SigNone SignalKind = iota
	SigBreak
	SigContinue
	SigReturn
	SigException
)

// Signal is returned by every execution method alongside a nil error to
// report break/continue/return/exception propagating out of a sequence.
// A zero Signal (SigNone) means the sequence ran to completion normally.
type Signal struct {
	Kind SignalKind
}

func (s Signal) String() string {
	switch s.Kind {
	case SigBreak:
		return "break"
	case SigContinue:
		return "continue"
	case SigReturn:
		return "return"
	case SigException:
		return "exception"
	default:
		return "none"
	}
}

// RuntimeError is a fatal, uncatchable failure: a compiler invariant
// broken, or the data stack underflowing where static analysis should
// have prevented it. These are never surfaced to a mask `catch` block.
type RuntimeError struct {
	Msg string
}

func (e *RuntimeError) Error() string { return e.Msg }

func runtimeErrorf(format string, args ...any) *RuntimeError {
	return &RuntimeError{Msg: fmt.Sprintf(format, args...)}
}

// runtimeModule bundles a compiled module with the fresh scope it
// executes against, whose Sup points at the engine's root scope.
type runtimeModule struct {
	mod   *code.Module
	scope value.Item
}

// Engine is the sole long-lived object in a running mask program: it
// owns every loaded module, the root scope that built-ins live in, and
// the shared data stack that instruction execution pushes and pops.
type Engine struct {
	ID uuid.UUID

	Stdout io.Writer

	root    value.Item
	modules map[string]*runtimeModule
	stack   []value.Item

	emptyStack       value.Item
	badArguments     value.Item
	badOperator      value.Item
	notCallable      value.Item
	assertionFailure value.Item
}

// New constructs an Engine with every built-in bound in its root scope.
func New() *Engine {
	e := &Engine{
		ID:      uuid.New(),
		Stdout:  os.Stdout,
		root:    value.Of(value.NewTable()),
		modules: make(map[string]*runtimeModule),

		emptyStack:       value.Of(value.Str{V: "Empty stack"}),
		badArguments:     value.Of(value.Str{V: "Bad arguments"}),
		badOperator:      value.Of(value.Str{V: "Bad operator"}),
		notCallable:      value.Of(value.Str{V: "Not callable"}),
		assertionFailure: value.Of(value.Str{V: "Assertion failure"}),
	}
	e.bindBuiltins()
	return e
}

// push appends an item to the data stack.
func (e *Engine) push(it value.Item) { e.stack = append(e.stack, it) }

// pop removes and returns the top of the data stack, or a RuntimeError if
// it's empty — stack underflow is always a bug upstream, never a mask-
// catchable condition.
func (e *Engine) pop() (value.Item, error) {
	if len(e.stack) == 0 {
		return value.Item{}, runtimeErrorf("empty stack")
	}
	it := e.stack[len(e.stack)-1]
	e.stack = e.stack[:len(e.stack)-1]
	return it, nil
}

// popN pops n items and returns them in original (bottom-to-top) order.
func (e *Engine) popN(n int) ([]value.Item, error) {
	if len(e.stack) < n {
		return nil, runtimeErrorf("empty stack")
	}
	items := make([]value.Item, n)
	copy(items, e.stack[len(e.stack)-n:])
	e.stack = e.stack[:len(e.stack)-n]
	return items, nil
}

// raise pushes exc and reports it as an Exception signal, mirroring the
// "panic helper" from the interpreter's error design: cached exception
// items avoid allocating on the failure path.
func (e *Engine) raise(exc value.Item) (Signal, error) {
	e.push(exc)
	return Signal{Kind: SigException}, nil
}

// Import reads filename, compiles it into a fresh module registered under
// that name, and executes its top-level body against a new runtime scope
// chained to the engine's root. A Return signal reaching the top level
// (from a top-level `return` statement) is absorbed as success; only
// SigException propagates as an error.
func (e *Engine) Import(filename string) error {
	src, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("import %s: %w", filename, err)
	}
	return e.ImportSource(filename, string(src))
}

// ImportSource compiles src under the module name `name` and executes it,
// the same as Import but without touching the filesystem — used for the
// `-code` snippet flag and the REPL.
func (e *Engine) ImportSource(name, src string) error {
	mod, err := Compile(name, src)
	if err != nil {
		return err
	}
	return e.run(mod)
}

// RunCaptured executes an already-compiled module the same way
// ImportSource does, but with Stdout temporarily redirected to w for the
// duration of the call — used by the REPL to capture what a snippet's
// print calls produced without disturbing the engine's normal output.
func (e *Engine) RunCaptured(mod *code.Module, w io.Writer) error {
	prev := e.Stdout
	e.Stdout = w
	defer func() { e.Stdout = prev }()
	return e.run(mod)
}

// Compile runs the full static pipeline — lex, parse, rewrite, compile —
// over src and returns the resulting module, or the first static error
// encountered at any stage.
func Compile(name, src string) (*code.Module, error) {
	l := lexer.New(src)
	p := parser.New(l)
	prog := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		return nil, fmt.Errorf("%s: parse error: %w", name, errs[0])
	}

	rewritten, errs := rewrite.Rewrite(prog)
	if len(errs) > 0 {
		return nil, fmt.Errorf("%s: semantic error: %w", name, errs[0])
	}

	c := compiler.New(name)
	mod, cerrs := c.Compile(rewritten)
	if len(cerrs) > 0 {
		return nil, fmt.Errorf("%s: compile error: %w", name, cerrs[0])
	}
	return mod, nil
}

func (e *Engine) run(mod *code.Module) error {
	rt := &runtimeModule{
		mod:   mod,
		scope: value.Item{Val: value.NewTable(), Sup: &e.root},
	}
	e.modules[mod.Name] = rt

	depth := len(e.stack)
	sig, err := e.execMany(rt, mod.Body)
	if err != nil {
		return err
	}
	switch sig.Kind {
	case SigNone, SigReturn:
		return nil
	case SigException:
		exc, _ := e.pop()
		e.stack = e.stack[:depth]
		return fmt.Errorf("%s: uncaught exception: %s", mod.Name, exc.Val.String())
	default:
		return runtimeErrorf("%s: %s escaped module top level", mod.Name, sig)
	}
}

// execMany runs a sequence of instructions, stopping at the first
// non-SigNone signal.
func (e *Engine) execMany(rt *runtimeModule, instrs []code.Instr) (Signal, error) {
	for i := range instrs {
		sig, err := e.execOne(rt, &instrs[i])
		if err != nil || sig.Kind != SigNone {
			return sig, err
		}
	}
	return Signal{}, nil
}
