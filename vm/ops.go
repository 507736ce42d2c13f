package vm

import (
	"math"

	"github.com/scizzorz/mask/token"
	"github.com/scizzorz/mask/value"
)

// numericPair extracts two operands as float64, reporting whether both
// sides were numeric (int or float) and whether either was a float, so
// callers can decide between an int or float result.
func numericPair(lhs, rhs value.Value) (x, y float64, bothInt, ok bool) {
	switch l := lhs.(type) {
	case value.Int:
		switch r := rhs.(type) {
		case value.Int:
			return float64(l.V), float64(r.V), true, true
		case value.Float:
			return float64(l.V), r.V, false, true
		}
	case value.Float:
		switch r := rhs.(type) {
		case value.Int:
			return l.V, float64(r.V), false, true
		case value.Float:
			return l.V, r.V, false, true
		}
	}
	return 0, 0, false, false
}

// binOp applies a BinExpr operator to lhs/rhs, matching
// original_source's core/bin.rs dispatch table plus two operators
// (cat, sup) that aren't pure arithmetic. Arithmetic on mixed int/float
// promotes to float; `/` always produces a float, even for two ints,
// per original_source's div always going through ex_bin_float.
func (e *Engine) binOp(op token.Type, lhs, rhs value.Item) (value.Item, bool) {
	switch op {
	case token.At:
		return value.Of(value.Str{V: lhs.Val.String() + rhs.Val.String()}), true

	case token.SuperLink:
		ret := value.Item{Val: lhs.Val}
		if _, isNull := rhs.Val.(value.Null); !isNull {
			r := rhs
			ret.Sup = &r
		}
		return ret, true
	}

	x, y, bothInt, ok := numericPair(lhs.Val, rhs.Val)
	if !ok {
		return value.Item{}, false
	}

	switch op {
	case token.Plus:
		if bothInt {
			return value.Of(value.Int{V: int64(x) + int64(y)}), true
		}
		return value.Of(value.Float{V: x + y}), true
	case token.Minus:
		if bothInt {
			return value.Of(value.Int{V: int64(x) - int64(y)}), true
		}
		return value.Of(value.Float{V: x - y}), true
	case token.Star:
		if bothInt {
			return value.Of(value.Int{V: int64(x) * int64(y)}), true
		}
		return value.Of(value.Float{V: x * y}), true
	case token.Slash:
		return value.Of(value.Float{V: x / y}), true
	case token.Caret:
		// Not implemented by original_source's runtime (it never wired a
		// backend for the `car` precedence slot); exponentiation is the
		// obvious reading of `^` and is always a float result.
		return value.Of(value.Float{V: math.Pow(x, y)}), true
	default:
		return value.Item{}, false
	}
}

// unOp applies a UnExpr operator to a single operand.
func (e *Engine) unOp(op token.Type, it value.Item) (value.Item, bool) {
	switch op {
	case token.Star:
		if it.Sup != nil {
			return *it.Sup, true
		}
		return value.Of(value.Nil), true

	case token.Minus:
		switch v := it.Val.(type) {
		case value.Int:
			return value.Of(value.Int{V: -v.V}), true
		case value.Float:
			return value.Of(value.Float{V: -v.V}), true
		}
		return value.Item{}, false

	case token.Bang:
		return value.Of(value.Bool{V: !it.Truth()}), true

	case token.Tilde:
		if v, ok := it.Val.(value.Int); ok {
			return value.Of(value.Int{V: ^v.V}), true
		}
		return value.Item{}, false

	case token.Dollar:
		// Also unimplemented upstream; stringification is the natural
		// reading given spec.md's string-forms table (§6).
		return value.Of(value.Str{V: it.Val.String()}), true

	default:
		return value.Item{}, false
	}
}

// cmpEq reports structural/identity equality between two items' values,
// grounded on original_source's core/cmp.rs eq_aux: numeric cross-type
// promotion, identity for tables and natives, id+module+arity for funcs.
func cmpEq(lhs, rhs value.Value) bool {
	switch l := lhs.(type) {
	case value.Null:
		_, ok := rhs.(value.Null)
		return ok
	case value.Bool:
		r, ok := rhs.(value.Bool)
		return ok && l.V == r.V
	case value.Str:
		r, ok := rhs.(value.Str)
		return ok && l.V == r.V
	case value.Func:
		r, ok := rhs.(value.Func)
		return ok && l == r
	case *value.Table:
		r, ok := rhs.(*value.Table)
		return ok && l == r
	case *value.Native:
		r, ok := rhs.(*value.Native)
		return ok && l == r
	}
	if x, y, _, ok := numericPair(lhs, rhs); ok {
		return x == y
	}
	return false
}

// cmpOrder reports lhs OP rhs for ordering comparisons, which
// original_source restricts to numeric (cross-promoting), bool, and
// string pairs; anything else is a "Bad arguments" exception.
func cmpOrder(op token.Type, lhs, rhs value.Value) (bool, bool) {
	if x, y, _, ok := numericPair(lhs, rhs); ok {
		return orderFloat(op, x, y), true
	}
	if l, ok := lhs.(value.Bool); ok {
		if r, ok := rhs.(value.Bool); ok {
			return orderBool(op, l.V, r.V), true
		}
	}
	if l, ok := lhs.(value.Str); ok {
		if r, ok := rhs.(value.Str); ok {
			return orderStr(op, l.V, r.V), true
		}
	}
	return false, false
}

func orderFloat(op token.Type, x, y float64) bool {
	switch op {
	case token.Lt:
		return x < y
	case token.Le:
		return x <= y
	case token.Gt:
		return x > y
	case token.Ge:
		return x >= y
	default:
		return false
	}
}

func orderBool(op token.Type, x, y bool) bool {
	xi, yi := 0, 0
	if x {
		xi = 1
	}
	if y {
		yi = 1
	}
	switch op {
	case token.Lt:
		return xi < yi
	case token.Le:
		return xi <= yi
	case token.Gt:
		return xi > yi
	case token.Ge:
		return xi >= yi
	default:
		return false
	}
}

func orderStr(op token.Type, x, y string) bool {
	switch op {
	case token.Lt:
		return x < y
	case token.Le:
		return x <= y
	case token.Gt:
		return x > y
	case token.Ge:
		return x >= y
	default:
		return false
	}
}

// cmp evaluates one comparison link, returning (result, ok); ok is false
// for an unrecognized operator or incomparable operand types.
func cmp(op token.Type, lhs, rhs value.Item) (bool, bool) {
	switch op {
	case token.Eq:
		return cmpEq(lhs.Val, rhs.Val), true
	case token.NotEq:
		return !cmpEq(lhs.Val, rhs.Val), true
	case token.Lt, token.Le, token.Gt, token.Ge:
		return cmpOrder(op, lhs.Val, rhs.Val)
	default:
		return false, false
	}
}
