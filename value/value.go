// Package value defines mask's runtime value model.
//
// A running program never manipulates a bare [Value]: every binding,
// argument, and intermediate result is an [Item], a value paired with an
// optional Sup back-reference. That one shape serves two distinct jobs
// (spec.md §3, §9): chaining scopes together (a function's local scope's
// Sup is the scope it closed over) and prototype-style "super" inheritance
// (a table's Sup is looked up whenever a key is missing locally). Both Get
// and Set cascade through Sup: a read walks up looking for the key, and a
// write walks up looking for the nearest ancestor whose Val is itself a
// table to bind the key on — see DESIGN.md's Open Question (d).
package value

import (
	"fmt"
	"math"
	"strconv"
)

// Value is any runtime mask value.
type Value interface {
	// Type is the name used in error messages and by spec.md's string forms.
	Type() string

	// String renders the display form used by `print`, `cat`, and string
	// coercion — for example an unquoted string's own contents.
	String() string

	// Truth is the value's boolean coercion: everything is truthy except
	// Null and the boolean false.
	Truth() bool
}

// Null is mask's singleton null value.
type Null struct{}

func (Null) Type() string   { return "null" }
func (Null) String() string { return "null" }
func (Null) Truth() bool    { return false }

// Nil is the single shared Null instance.
var Nil Value = Null{}

// Int is a 64-bit signed integer value.
type Int struct{ V int64 }

func (i Int) Type() string   { return "int" }
func (i Int) String() string { return strconv.FormatInt(i.V, 10) }
func (i Int) Truth() bool    { return true }

// Float is a 64-bit floating point value.
type Float struct{ V float64 }

func (f Float) Type() string   { return "float" }
func (f Float) String() string { return strconv.FormatFloat(f.V, 'g', -1, 64) }
func (f Float) Truth() bool    { return true }

// Bool is a boolean value.
type Bool struct{ V bool }

func (b Bool) Type() string   { return "bool" }
func (b Bool) String() string { return strconv.FormatBool(b.V) }
func (b Bool) Truth() bool    { return b.V }

// Str is a string value.
type Str struct{ V string }

func (s Str) Type() string   { return "str" }
func (s Str) String() string { return s.V }
func (s Str) Truth() bool    { return true }

// Func is a user-defined function value: a reference to a compiled
// prototype plus the module it was compiled in, closing over the scope it
// was created in via the enclosing Item's Sup chain. Two Funcs are equal
// when their ID, Module, and Arity all match (spec.md §9), a slightly
// looser rule than original_source's id+meta identity comparison.
type Func struct {
	ID     int
	Module string
	Arity  int
}

func (f Func) Type() string   { return "func" }
func (f Func) String() string { return fmt.Sprintf("func[%s:%d]", f.Module, f.ID) }
func (f Func) Truth() bool    { return true }

// NativeFn is the signature of a built-in function. It may raise an
// exception instead of returning a value by returning a non-nil *Item as
// the second result; the vm package turns that into the same Exception
// signal a `panic` call would raise.
type NativeFn func(args []Item) (Item, *Item)

// Native is a built-in function, compared by identity (spec.md §9: native
// functions compare equal only to themselves).
type Native struct {
	Name string
	Fn   NativeFn
}

func (n *Native) Type() string   { return "native" }
func (n *Native) String() string { return fmt.Sprintf("native[%s]", n.Name) }
func (n *Native) Truth() bool    { return true }

// Table is mask's sole composite value: a shared, mutable associative
// structure compared and hashed by identity, which keeps cyclic table
// graphs (a table that contains itself, directly or indirectly) safe to
// build and to compare.
type Table struct {
	entries map[key]Item
}

// NewTable allocates a fresh, empty table.
func NewTable() *Table { return &Table{entries: make(map[key]Item)} }

func (t *Table) Type() string   { return "table" }
func (t *Table) String() string { return "table" }
func (t *Table) Truth() bool    { return true }

func (t *Table) lookup(k Value) (Item, bool) {
	v, ok := t.entries[keyOf(k)]
	return v, ok
}

func (t *Table) set(k Value, v Item) {
	if t.entries == nil {
		t.entries = make(map[key]Item)
	}
	t.entries[keyOf(k)] = v
}

// key is a comparable encoding of a Value suitable for use as a Go map key.
// Tables and Natives are keyed by pointer identity; everything else is
// keyed structurally, with floats keyed by bit pattern so -0.0 and 0.0
// remain distinct and NaN is equal to itself (spec.md §3's float
// invariant), matching the behavior of the compiler's constant pool.
type key struct {
	tag int
	i   int64
	u   uint64
	s   string
	ptr any
}

func keyOf(v Value) key {
	switch n := v.(type) {
	case Null:
		return key{tag: 0}
	case Int:
		return key{tag: 1, i: n.V}
	case Float:
		return key{tag: 2, u: math.Float64bits(n.V)}
	case Bool:
		b := int64(0)
		if n.V {
			b = 1
		}
		return key{tag: 3, i: b}
	case Str:
		return key{tag: 4, s: n.V}
	case Func:
		return key{tag: 5, s: n.Module, i: int64(n.ID)}
	case *Native:
		return key{tag: 6, ptr: n}
	case *Table:
		return key{tag: 7, ptr: n}
	default:
		return key{tag: -1, ptr: v}
	}
}

// Item is a value paired with an optional super-link, mask's one and only
// binding cell. It represents a scope (Val is a table of bound names, Sup
// is the enclosing scope), a table with a prototype (Val is a table, Sup is
// the prototype it falls back to), or just a plain wrapped value (Sup nil).
type Item struct {
	Val Value
	Sup *Item
}

// Of wraps a bare Value with no super-link.
func Of(v Value) Item { return Item{Val: v} }

// Truth reports the item's boolean coercion.
func (it Item) Truth() bool { return it.Val.Truth() }

// Get resolves key against it, cascading up through Sup when it.Val isn't a
// table or doesn't contain the key. Resolves to a Null item when the key is
// not found anywhere in the chain.
func (it Item) Get(k Value) Item {
	if t, ok := it.Val.(*Table); ok {
		if v, found := t.lookup(k); found {
			return v
		}
	}
	if it.Sup != nil {
		return it.Sup.Get(k)
	}
	return Of(Nil)
}

// Set binds key to val on the nearest table-valued item in it's own Sup
// chain, starting at it itself: if it.Val isn't a table, Set recurses into
// it.Sup looking for one. This means a write can land on an ancestor
// scope or prototype rather than it itself — matching original_source's
// data.rs::Item::set_key, which recurses into meta the same way. If no
// item in the chain holds a table at all, Set is a silent no-op.
func (it *Item) Set(k Value, val Item) {
	if t, ok := it.Val.(*Table); ok {
		t.set(k, val)
		return
	}
	if it.Sup != nil {
		it.Sup.Set(k, val)
	}
}
