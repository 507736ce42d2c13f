// Package code defines mask's compiled instruction set.
//
// Unlike a conventional stack-machine bytecode, mask instructions form a
// tree: any instruction that needs a nested body of code (If, Loop, Catch,
// a function prototype's own body...) embeds that body directly as a
// []Instr rather than compiling it out-of-line and jumping to it with an
// offset. The interpreter in package vm walks this tree with ordinary Go
// recursion instead of a fetch-decode-jump loop.
package code

import (
	"fmt"
	"math"

	"github.com/scizzorz/mask/token"
)

// Op identifies an instruction.
type Op int

//nolint:revive
const (
	OpPushConst  Op = iota // push Consts[Const]
	OpPushScope            // push the current innermost scope Item
	OpPushFunc             // push a fresh Func value bound to Protos[Const], closing over the current scope
	OpPop                  // discard the top of the data stack
	OpDup                  // duplicate the top of the data stack
	OpNop                  // do nothing
	OpNewTable             // push a freshly allocated, empty table
	OpSet                  // pop table-item, key, value; bind key->value on table-item
	OpGet                  // pop table-item, key; push the resolved value, cascading through Sup
	OpMethodGet            // pop receiver; push the method named Consts[Const] resolved on it, then the receiver back
	OpCall                 // pop Argc arguments, then a callee below them; invoke it and push its result
	OpReturn               // signal Return, taking the top of the data stack as the value
	OpBreak                // signal Break
	OpContinue             // signal Continue
	OpForBreak             // pop an iteration result; Break if Null, else bind it to Name and continue
	OpIf                   // pop a condition; run Body if truthy
	OpIfElse               // pop a condition; run Body if truthy, else Else
	OpLoop                 // run Body repeatedly, catching Break/Continue
	OpReturnable           // run Body, catching Return and leaving its value on the data stack
	OpCatch                // run Body; push Null if it completes normally, or the exception's value if one was raised
	OpBlock                // run Body as a plain nested sequence
	OpBinOp                // pop right, left; push the result of applying Operator
	OpUnOp                 // pop operand; push the result of applying Operator
	OpCmpOp                // one link of a comparison chain; see vm package doc
	OpLogicOp              // one link of a logical chain; see vm package doc
)

// Instr is a single tree-shaped instruction. Only the fields relevant to Op
// are meaningful; the rest are zero.
type Instr struct {
	Op       Op
	Const    int        // OpPushConst, OpPushFunc (proto index), OpMethodGet (name const index)
	Name     string     // OpForBreak: the name each iteration result binds to
	Argc     int        // OpCall: number of arguments on the stack above the callee
	Operator token.Type // OpBinOp, OpUnOp, OpCmpOp, OpLogicOp
	Chain    bool       // OpCmpOp: true for every link but the last in a chain
	Body     []Instr    // OpIf, OpIfElse, OpLoop, OpReturnable, OpCatch, OpBlock
	Else     []Instr    // OpIfElse
}

// ConstTag identifies the kind of value a Const holds.
type ConstTag int

//nolint:revive
const (
	ConstNull ConstTag = iota
	ConstInt
	ConstFloat
	ConstBool
	ConstStr
)

// Const is a compile-time literal value, interned into a Module's constant
// pool. Equality for dedup purposes is bitwise for floats (so 0.0 and -0.0
// remain distinct constants, and NaN equals itself) rather than IEEE
// equality.
type Const struct {
	Tag   ConstTag
	Int   int64
	Float float64
	Bool  bool
	Str   string
}

// key returns a comparable representation suitable for a Go map, using the
// float's bit pattern instead of its value so dedup matches spec.md's
// bitwise/total float ordering rather than IEEE equality.
func (c Const) key() any {
	switch c.Tag {
	case ConstInt:
		return [2]any{c.Tag, c.Int}
	case ConstFloat:
		return [2]any{c.Tag, math.Float64bits(c.Float)}
	case ConstBool:
		return [2]any{c.Tag, c.Bool}
	case ConstStr:
		return [2]any{c.Tag, c.Str}
	default:
		return c.Tag
	}
}

func (c Const) String() string {
	switch c.Tag {
	case ConstNull:
		return "null"
	case ConstInt:
		return fmt.Sprintf("%d", c.Int)
	case ConstFloat:
		return fmt.Sprintf("%v", c.Float)
	case ConstBool:
		return fmt.Sprintf("%v", c.Bool)
	case ConstStr:
		return fmt.Sprintf("%q", c.Str)
	default:
		return "?"
	}
}

// Proto is a compiled function prototype: its parameter names and body.
// Protos are referenced by index from OpPushFunc, and from a runtime
// closure value once it has been bound to an enclosing scope.
type Proto struct {
	Params []string
	Body   []Instr
}

// Module is the complete compiled output for one source file: its
// constant pool, its function prototypes, and its top-level instructions.
type Module struct {
	Name   string
	Consts []Const
	Protos []Proto
	Body   []Instr

	constIndex map[any]int
}

// NewModule creates an empty Module ready for Compiler output.
func NewModule(name string) *Module {
	return &Module{Name: name, constIndex: make(map[any]int)}
}

// Intern returns the index of c in the constant pool, appending it if this
// is the first time an equal (bitwise, for floats) constant is seen.
func (m *Module) Intern(c Const) int {
	if m.constIndex == nil {
		m.constIndex = make(map[any]int)
	}
	k := c.key()
	if idx, ok := m.constIndex[k]; ok {
		return idx
	}
	idx := len(m.Consts)
	m.Consts = append(m.Consts, c)
	m.constIndex[k] = idx
	return idx
}

// AddProto appends a function prototype and returns its index.
func (m *Module) AddProto(p Proto) int {
	m.Protos = append(m.Protos, p)
	return len(m.Protos) - 1
}
