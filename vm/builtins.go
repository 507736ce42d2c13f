package vm

import (
	"fmt"

	"github.com/scizzorz/mask/value"
)

// bindBuiltins binds every built-in named in spec.md §6 into the root
// scope: print, assert, panic, import, table, get, set. Grounded on
// original_source's core/mod.rs, adapted to Go's (Item, *Item) native
// function signature instead of mutating a shared engine stack directly.
func (e *Engine) bindBuiltins() {
	e.bind("print", e.builtinPrint)
	e.bind("assert", e.builtinAssert)
	e.bind("panic", e.builtinPanic)
	e.bind("import", e.builtinImport)
	e.bind("table", e.builtinTable)
	e.bind("get", e.builtinGet)
	e.bind("set", e.builtinSet)
}

func (e *Engine) bind(name string, fn value.NativeFn) {
	e.root.Set(value.Str{V: name}, value.Item{Val: &value.Native{Name: name, Fn: fn}})
}

// builtinPrint writes x's string form to the engine's configured output
// followed by a newline, and returns null.
func (e *Engine) builtinPrint(args []value.Item) (value.Item, *value.Item) {
	var x value.Item
	if len(args) > 0 {
		x = args[0]
	}
	fmt.Fprintln(e.Stdout, x.Val.String())
	return value.Of(value.Nil), nil
}

// builtinAssert raises the cached assertion-failure exception if x isn't
// truthy, otherwise returns null.
func (e *Engine) builtinAssert(args []value.Item) (value.Item, *value.Item) {
	var x value.Item
	if len(args) > 0 {
		x = args[0]
	}
	if !x.Truth() {
		exc := e.assertionFailure
		return value.Item{}, &exc
	}
	return value.Of(value.Nil), nil
}

// builtinPanic always raises, using whatever was passed as its payload
// (or null if called with none).
func (e *Engine) builtinPanic(args []value.Item) (value.Item, *value.Item) {
	exc := value.Of(value.Nil)
	if len(args) > 0 {
		exc = args[0]
	}
	return value.Item{}, &exc
}

// builtinImport delegates to Engine.Import, reading name from the
// filesystem and running it as its own module. A missing or non-string
// argument raises the cached "Bad arguments" exception; a read, compile or
// runtime failure raises an exception whose value is the error's message.
func (e *Engine) builtinImport(args []value.Item) (value.Item, *value.Item) {
	if len(args) == 0 {
		exc := e.badArguments
		return value.Item{}, &exc
	}
	name, ok := args[0].Val.(value.Str)
	if !ok {
		exc := e.badArguments
		return value.Item{}, &exc
	}
	if err := e.Import(name.V); err != nil {
		exc := value.Of(value.Str{V: err.Error()})
		return value.Item{}, &exc
	}
	return value.Of(value.Nil), nil
}

// builtinTable constructs and returns a fresh empty table.
func (e *Engine) builtinTable(args []value.Item) (value.Item, *value.Item) {
	return value.Of(value.NewTable()), nil
}

// builtinGet resolves key against scope directly, the same Get cascade
// the compiler emits for name and index expressions.
func (e *Engine) builtinGet(args []value.Item) (value.Item, *value.Item) {
	if len(args) < 2 {
		exc := e.badArguments
		return value.Item{}, &exc
	}
	scope, key := args[0], args[1]
	return scope.Get(key.Val), nil
}

// builtinSet binds key to val on scope and returns val, mirroring
// original_source's set_mask (the builtin named `set` there pushes val
// back so it can be chained, not the plain set that discards it).
func (e *Engine) builtinSet(args []value.Item) (value.Item, *value.Item) {
	if len(args) < 3 {
		exc := e.badArguments
		return value.Item{}, &exc
	}
	scope, key, val := args[0], args[1], args[2]
	scope.Set(key.Val, val)
	return val, nil
}
