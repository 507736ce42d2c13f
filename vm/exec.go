package vm

import (
	"github.com/scizzorz/mask/code"
	"github.com/scizzorz/mask/value"
)

// execOne dispatches a single instruction. Nested bodies are executed by
// recursive calls to execMany; there is no fetch-decode-jump loop because
// the instruction tree already encodes control structure directly.
func (e *Engine) execOne(rt *runtimeModule, instr *code.Instr) (Signal, error) {
	switch instr.Op {
	case code.OpPushConst:
		e.push(constItem(rt.mod.Consts[instr.Const]))
		return Signal{}, nil

	case code.OpPushScope:
		e.push(rt.scope)
		return Signal{}, nil

	case code.OpPushFunc:
		captured := rt.scope
		fn := value.Item{
			Val: value.Func{ID: instr.Const, Module: rt.mod.Name, Arity: len(rt.mod.Protos[instr.Const].Params)},
			Sup: &captured,
		}
		e.push(fn)
		return Signal{}, nil

	case code.OpPop:
		_, err := e.pop()
		return Signal{}, err

	case code.OpDup:
		top, err := e.pop()
		if err != nil {
			return Signal{}, err
		}
		e.push(top)
		e.push(top)
		return Signal{}, nil

	case code.OpNop:
		return Signal{}, nil

	case code.OpNewTable:
		e.push(value.Of(value.NewTable()))
		return Signal{}, nil

	case code.OpSet:
		return e.execSet()

	case code.OpGet:
		return e.execGet()

	case code.OpMethodGet:
		return e.execMethodGet(rt, instr)

	case code.OpCall:
		return e.execCall(instr)

	case code.OpReturn:
		return Signal{Kind: SigReturn}, nil

	case code.OpBreak:
		return Signal{Kind: SigBreak}, nil

	case code.OpContinue:
		return Signal{Kind: SigContinue}, nil

	case code.OpForBreak:
		return e.execForBreak(rt, instr)

	case code.OpIf:
		cond, err := e.pop()
		if err != nil {
			return Signal{}, err
		}
		if cond.Truth() {
			return e.execMany(rt, instr.Body)
		}
		return Signal{}, nil

	case code.OpIfElse:
		cond, err := e.pop()
		if err != nil {
			return Signal{}, err
		}
		if cond.Truth() {
			return e.execMany(rt, instr.Body)
		}
		return e.execMany(rt, instr.Else)

	case code.OpLoop:
		return e.execLoop(rt, instr)

	case code.OpReturnable:
		sig, err := e.execMany(rt, instr.Body)
		if err != nil {
			return Signal{}, err
		}
		if sig.Kind == SigReturn {
			return Signal{}, nil
		}
		return sig, nil

	case code.OpCatch:
		return e.execCatch(rt, instr)

	case code.OpBlock:
		return e.execMany(rt, instr.Body)

	case code.OpBinOp:
		return e.execBinOp(instr.Operator)

	case code.OpUnOp:
		return e.execUnOp(instr.Operator)

	case code.OpCmpOp:
		return e.execCmpOp(instr.Operator, instr.Chain)

	case code.OpLogicOp:
		return e.execLogicOp(instr.Operator)

	default:
		return Signal{}, runtimeErrorf("unknown opcode %d", instr.Op)
	}
}

// execLoop runs Body repeatedly, catching Break (exits the loop cleanly)
// and Continue (starts the next iteration); anything else propagates.
func (e *Engine) execLoop(rt *runtimeModule, instr *code.Instr) (Signal, error) {
	for {
		sig, err := e.execMany(rt, instr.Body)
		if err != nil {
			return Signal{}, err
		}
		switch sig.Kind {
		case SigNone, SigContinue:
			continue
		case SigBreak:
			return Signal{}, nil
		default:
			return sig, nil
		}
	}
}

// execCatch runs Body; a raised exception is absorbed by truncating the
// stack back to its entry depth and re-pushing the exception value. A
// normal completion leaves whatever Body itself left (its compiled form
// always ends with a null push, so Catch's own net effect is always +1).
func (e *Engine) execCatch(rt *runtimeModule, instr *code.Instr) (Signal, error) {
	depth := len(e.stack)
	sig, err := e.execMany(rt, instr.Body)
	if err != nil {
		return Signal{}, err
	}
	if sig.Kind == SigException {
		exc, perr := e.pop()
		if perr != nil {
			return Signal{}, perr
		}
		e.stack = e.stack[:depth]
		e.push(exc)
		return Signal{}, nil
	}
	return sig, nil
}

func (e *Engine) execSet() (Signal, error) {
	scope, err := e.pop()
	if err != nil {
		return e.raise(e.emptyStack)
	}
	key, err := e.pop()
	if err != nil {
		return e.raise(e.emptyStack)
	}
	val, err := e.pop()
	if err != nil {
		return e.raise(e.emptyStack)
	}
	scope.Set(key.Val, val)
	return Signal{}, nil
}

func (e *Engine) execGet() (Signal, error) {
	owner, err := e.pop()
	if err != nil {
		return e.raise(e.emptyStack)
	}
	key, err := e.pop()
	if err != nil {
		return e.raise(e.emptyStack)
	}
	e.push(owner.Get(key.Val))
	return Signal{}, nil
}

func (e *Engine) execMethodGet(rt *runtimeModule, instr *code.Instr) (Signal, error) {
	recv, err := e.pop()
	if err != nil {
		return e.raise(e.emptyStack)
	}
	name := rt.mod.Consts[instr.Const]
	method := recv.Get(value.Str{V: name.Str})
	e.push(method)
	e.push(recv)
	return Signal{}, nil
}

func (e *Engine) execForBreak(rt *runtimeModule, instr *code.Instr) (Signal, error) {
	result, err := e.pop()
	if err != nil {
		return e.raise(e.emptyStack)
	}
	if _, isNull := result.Val.(value.Null); isNull {
		return Signal{Kind: SigBreak}, nil
	}
	rt.scope.Set(value.Str{V: instr.Name}, result)
	return Signal{}, nil
}

func constItem(c code.Const) value.Item {
	switch c.Tag {
	case code.ConstInt:
		return value.Of(value.Int{V: c.Int})
	case code.ConstFloat:
		return value.Of(value.Float{V: c.Float})
	case code.ConstBool:
		return value.Of(value.Bool{V: c.Bool})
	case code.ConstStr:
		return value.Of(value.Str{V: c.Str})
	default:
		return value.Of(value.Nil)
	}
}
