package vm

import (
	"math"
	"testing"
)

func TestValue_Specials(t *testing.T) {
	tests := []struct {
		name  string
		value Value
	}{
		{"Nil", Nil},
		{"True", True},
		{"False", False},
		{"Undefined", Undefined},
	}

	for _, tt := range tests {
		if !tt.value.IsSpecial() {
			t.Errorf("%s: expected IsSpecial", tt.name)
		}
		if tt.value.IsFloat() {
			t.Errorf("%s: should not be a float", tt.name)
		}
		if tt.value.IsObject() || tt.value.IsFunc() || tt.value.IsAtom() || tt.value.IsSmallInt() {
			t.Errorf("%s: wrong tag classification", tt.name)
		}
	}

	if !Nil.IsNil() {
		t.Error("Nil.IsNil() = false")
	}
	if !Undefined.IsUndefined() {
		t.Error("Undefined.IsUndefined() = false")
	}
	if !True.IsBool() || !False.IsBool() {
		t.Error("True/False should be bools")
	}
	if Nil.IsBool() {
		t.Error("Nil should not be a bool")
	}
}

func TestValue_SmallIntRoundtrip(t *testing.T) {
	tests := []int64{0, 1, -1, 42, -17, MaxSmallInt, MinSmallInt}

	for _, n := range tests {
		v := FromSmallInt(n)
		if !v.IsSmallInt() {
			t.Errorf("FromSmallInt(%d): not a small int", n)
		}
		if got := v.SmallInt(); got != n {
			t.Errorf("SmallInt roundtrip: got %d, want %d", got, n)
		}
	}
}

func TestValue_SmallIntOutOfRange(t *testing.T) {
	if _, ok := TryFromSmallInt(MaxSmallInt + 1); ok {
		t.Error("TryFromSmallInt(MaxSmallInt+1) should fail")
	}
	if _, ok := TryFromSmallInt(MinSmallInt - 1); ok {
		t.Error("TryFromSmallInt(MinSmallInt-1) should fail")
	}
}

func TestValue_FloatRoundtrip(t *testing.T) {
	tests := []float64{0, 1.5, -3.25, math.Inf(1), math.Inf(-1), math.MaxFloat64}

	for _, f := range tests {
		v := FromFloat64(f)
		if !v.IsFloat() {
			t.Errorf("FromFloat64(%g): not a float", f)
		}
		if got := v.Float64(); got != f {
			t.Errorf("Float64 roundtrip: got %g, want %g", got, f)
		}
	}

	// A genuine NaN stays a float despite living in NaN space.
	v := FromFloat64(math.NaN())
	if !v.IsFloat() {
		t.Error("real NaN should classify as float")
	}
	if !math.IsNaN(v.Float64()) {
		t.Error("real NaN should roundtrip as NaN")
	}
}

func TestValue_AtomRoundtrip(t *testing.T) {
	v := FromAtomID(1234)
	if !v.IsAtom() {
		t.Error("FromAtomID: not an atom")
	}
	if got := v.AtomID(); got != 1234 {
		t.Errorf("AtomID: got %d, want 1234", got)
	}
}

func TestValue_FuncRoundtrip(t *testing.T) {
	fn := NewFuncBytecode(0, 2)
	v := fn.Box()

	if !v.IsFunc() {
		t.Error("Box: not a function value")
	}
	if got := v.FuncPtr(); got != fn {
		t.Errorf("FuncPtr: got %p, want %p", got, fn)
	}
}

func TestValue_NullFuncHandle(t *testing.T) {
	v := FromFuncPtr(nil)
	if !v.IsFunc() {
		t.Error("null function handle should still be function-tagged")
	}
	if got := v.FuncPtr(); got != nil {
		t.Errorf("FuncPtr: got %p, want nil", got)
	}
}

func TestValue_ObjectRoundtrip(t *testing.T) {
	h := NewHeap()
	o := h.Alloc(KindPlain, 16)
	v := o.Box()

	if !v.IsObject() {
		t.Error("Box: not an object value")
	}
	if got := ObjectFromValue(v); got != o {
		t.Errorf("ObjectFromValue: got %p, want %p", got, o)
	}
}

func TestValue_Truthiness(t *testing.T) {
	truthy := []Value{True, FromSmallInt(0), FromSmallInt(1), FromFloat64(0), FromAtomID(1)}
	falsy := []Value{False, Nil, Undefined}

	for _, v := range truthy {
		if !v.IsTruthy() {
			t.Errorf("%#x: expected truthy", uint64(v))
		}
	}
	for _, v := range falsy {
		if !v.IsFalsy() {
			t.Errorf("%#x: expected falsy", uint64(v))
		}
	}
}

func TestValue_AccessorPanics(t *testing.T) {
	tests := []struct {
		name string
		fn   func()
	}{
		{"SmallInt on float", func() { FromFloat64(1.5).SmallInt() }},
		{"Float64 on int", func() { FromSmallInt(1).Float64() }},
		{"FuncPtr on atom", func() { FromAtomID(1).FuncPtr() }},
		{"AtomID on nil", func() { Nil.AtomID() }},
		{"Bool on nil", func() { Nil.Bool() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("%s: expected panic", tt.name)
				}
			}()
			tt.fn()
		})
	}
}
