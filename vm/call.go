package vm

import (
	"github.com/scizzorz/mask/code"
	"github.com/scizzorz/mask/token"
	"github.com/scizzorz/mask/value"
)

// execBinOp pops (left, right) in the order compiler.go's expr(BinExpr)
// leaves them (left below right) and pushes the result.
func (e *Engine) execBinOp(op token.Type) (Signal, error) {
	rhs, err := e.pop()
	if err != nil {
		return e.raise(e.emptyStack)
	}
	lhs, err := e.pop()
	if err != nil {
		return e.raise(e.emptyStack)
	}
	result, ok := e.binOp(op, lhs, rhs)
	if !ok {
		return e.raise(e.badArguments)
	}
	e.push(result)
	return Signal{}, nil
}

func (e *Engine) execUnOp(op token.Type) (Signal, error) {
	operand, err := e.pop()
	if err != nil {
		return e.raise(e.emptyStack)
	}
	result, ok := e.unOp(op, operand)
	if !ok {
		return e.raise(e.badArguments)
	}
	e.push(result)
	return Signal{}, nil
}

// execCmpOp implements one link of a comparison chain per spec.md §4.4:
// a non-chained (last) link just pushes its bool result; a chained link
// pushes false and signals Return on failure, or keeps rhs as the
// left-hand operand for the next link on success.
func (e *Engine) execCmpOp(op token.Type, chain bool) (Signal, error) {
	rhs, err := e.pop()
	if err != nil {
		return e.raise(e.emptyStack)
	}
	lhs, err := e.pop()
	if err != nil {
		return e.raise(e.emptyStack)
	}
	result, ok := cmp(op, lhs, rhs)
	if !ok {
		return e.raise(e.badArguments)
	}
	if chain {
		if !result {
			e.push(value.Of(value.Bool{V: false}))
			return Signal{Kind: SigReturn}, nil
		}
		e.push(rhs)
		return Signal{}, nil
	}
	e.push(value.Of(value.Bool{V: result}))
	return Signal{}, nil
}

// execLogicOp implements one link of a logical chain: `and` returns the
// top early if it's falsy, `or` returns it early if it's truthy;
// otherwise it's discarded and the next operand (compiled immediately
// after this instruction) becomes the new accumulator.
func (e *Engine) execLogicOp(op token.Type) (Signal, error) {
	top, err := e.pop()
	if err != nil {
		return e.raise(e.emptyStack)
	}
	switch op {
	case token.And:
		if !top.Truth() {
			e.push(top)
			return Signal{Kind: SigReturn}, nil
		}
		return Signal{}, nil
	case token.Or:
		if top.Truth() {
			e.push(top)
			return Signal{Kind: SigReturn}, nil
		}
		return Signal{}, nil
	default:
		return e.raise(e.badOperator)
	}
}

// execCall implements OpCall: pop Argc arguments (in the order they were
// pushed), pop the callee below them, and invoke it.
func (e *Engine) execCall(instr *code.Instr) (Signal, error) {
	args, err := e.popN(instr.Argc)
	if err != nil {
		return e.raise(e.emptyStack)
	}
	callee, err := e.pop()
	if err != nil {
		return e.raise(e.emptyStack)
	}
	return e.call(callee, args)
}

// call dispatches a user function, a native function, or raises
// "Not callable" for anything else, leaving exactly one result on the
// stack on success.
func (e *Engine) call(callee value.Item, args []value.Item) (Signal, error) {
	switch fn := callee.Val.(type) {
	case value.Func:
		return e.callFunc(fn, callee.Sup, args)

	case *value.Native:
		result, exc := fn.Fn(args)
		if exc != nil {
			return e.raise(*exc)
		}
		e.push(result)
		return Signal{}, nil

	default:
		return e.raise(e.notCallable)
	}
}

// callFunc invokes a user function: a fresh scope is created whose Sup is
// the scope the function closed over (captured at PushFunc time), its
// parameters are bound there by name, and the prototype's body — already
// wrapped in Returnable by the compiler — is executed against it.
func (e *Engine) callFunc(fn value.Func, closure *value.Item, args []value.Item) (Signal, error) {
	callRT, ok := e.modules[fn.Module]
	if !ok {
		return Signal{}, runtimeErrorf("call into unknown module %q", fn.Module)
	}
	if fn.ID < 0 || fn.ID >= len(callRT.mod.Protos) {
		return Signal{}, runtimeErrorf("call to out-of-range function id %d in %q", fn.ID, fn.Module)
	}
	proto := callRT.mod.Protos[fn.ID]

	frame := &runtimeModule{
		mod:   callRT.mod,
		scope: value.Item{Val: value.NewTable(), Sup: closure},
	}
	for i, name := range proto.Params {
		if i < len(args) {
			frame.scope.Set(value.Str{V: name}, args[i])
		} else {
			frame.scope.Set(value.Str{V: name}, value.Of(value.Nil))
		}
	}

	sig, err := e.execMany(frame, proto.Body)
	if err != nil {
		return Signal{}, err
	}
	if sig.Kind == SigException {
		return sig, nil
	}
	if sig.Kind != SigNone {
		return Signal{}, runtimeErrorf("%s escaped a function call", sig)
	}
	return Signal{}, nil
}
