package code

import (
	"math"
	"testing"
)

func TestInternDedupsEqualConstants(t *testing.T) {
	m := NewModule("<test>")
	a := m.Intern(Const{Tag: ConstInt, Int: 42})
	b := m.Intern(Const{Tag: ConstInt, Int: 42})
	if a != b {
		t.Fatalf("expected interning the same int twice to return the same index, got %d and %d", a, b)
	}
	if len(m.Consts) != 1 {
		t.Fatalf("expected one pooled constant, got %d", len(m.Consts))
	}
}

func TestInternDistinguishesFloatZeroSigns(t *testing.T) {
	m := NewModule("<test>")
	pos := m.Intern(Const{Tag: ConstFloat, Float: 0.0})
	neg := m.Intern(Const{Tag: ConstFloat, Float: math.Copysign(0, -1)})
	if pos == neg {
		t.Fatalf("expected +0.0 and -0.0 to be distinct pooled constants")
	}
}

func TestInternTreatsNaNAsEqualToItself(t *testing.T) {
	m := NewModule("<test>")
	a := m.Intern(Const{Tag: ConstFloat, Float: math.NaN()})
	b := m.Intern(Const{Tag: ConstFloat, Float: math.NaN()})
	if a != b {
		t.Fatalf("expected two NaN constants to dedup to the same index (bitwise equality)")
	}
}

func TestInternDistinguishesByType(t *testing.T) {
	m := NewModule("<test>")
	i := m.Intern(Const{Tag: ConstInt, Int: 1})
	f := m.Intern(Const{Tag: ConstFloat, Float: 1})
	s := m.Intern(Const{Tag: ConstStr, Str: "1"})
	if i == f || i == s || f == s {
		t.Fatalf("expected int 1, float 1.0, and string \"1\" to intern as three distinct constants")
	}
}

func TestAddProtoReturnsSequentialIndices(t *testing.T) {
	m := NewModule("<test>")
	a := m.AddProto(Proto{Params: []string{"x"}})
	b := m.AddProto(Proto{Params: []string{"y", "z"}})
	if a != 0 || b != 1 {
		t.Fatalf("expected sequential indices 0, 1, got %d, %d", a, b)
	}
	if len(m.Protos[b].Params) != 2 {
		t.Fatalf("expected proto 1 to keep its own params")
	}
}
