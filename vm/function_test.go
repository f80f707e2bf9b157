package vm

import "testing"

func TestFuncBuilder_Build(t *testing.T) {
	atoms := NewAtomTable()
	fb := NewFuncBuilder(atoms.Intern("add"), 2)
	fb.SetSource("fn add(a, b) { return a + b }")
	fb.SetFlags(FuncStrict)

	if idx := fb.AddLocal(); idx != 2 {
		t.Errorf("first local index: got %d, want 2", idx)
	}

	c0 := fb.AddConst(FromSmallInt(1))
	c1 := fb.AddConst(FromFloat64(2.5))
	if c0 != 0 || c1 != 1 {
		t.Errorf("const indices: got %d, %d, want 0, 1", c0, c1)
	}

	fb.Bytecode().EmitByte(OpGetLocal, 0)
	fb.Bytecode().EmitByte(OpGetLocal, 1)
	fb.Bytecode().Emit(OpAdd)
	fb.Bytecode().Emit(OpReturn)
	fn := fb.Build()

	if fn.Arity != 2 {
		t.Errorf("Arity: got %d, want 2", fn.Arity)
	}
	if fn.LocalCount != 3 {
		t.Errorf("LocalCount: got %d, want 3", fn.LocalCount)
	}
	if fn.Flags != FuncStrict {
		t.Errorf("Flags: got %v, want FuncStrict", fn.Flags)
	}
	if fn.ConstCount() != 2 {
		t.Errorf("ConstCount: got %d, want 2", fn.ConstCount())
	}
	if len(fn.Code) != 6 {
		t.Errorf("Code length: got %d, want 6", len(fn.Code))
	}
}

func TestFuncBytecode_GetConst(t *testing.T) {
	fb := NewFuncBuilder(0, 0)
	fb.AddConst(FromSmallInt(7))
	fn := fb.Build()

	if v := fn.GetConst(0); v.SmallInt() != 7 {
		t.Errorf("GetConst(0): got %d, want 7", v.SmallInt())
	}

	defer func() {
		if recover() == nil {
			t.Error("expected panic on out-of-range const index")
		}
	}()
	fn.GetConst(1)
}

func TestFuncBytecode_SourceLocation(t *testing.T) {
	fb := NewFuncBuilder(0, 0)
	fb.MarkSource(1, 1)
	fb.Bytecode().Emit(OpPushTrue)
	fb.MarkSource(2, 3)
	fb.Bytecode().Emit(OpReturn)
	fn := fb.Build()

	loc := fn.SourceLocation(0)
	if loc == nil || loc.Line != 1 {
		t.Errorf("offset 0: got %+v, want line 1", loc)
	}

	loc = fn.SourceLocation(1)
	if loc == nil || loc.Line != 2 || loc.Column != 3 {
		t.Errorf("offset 1: got %+v, want line 2 col 3", loc)
	}
}

func TestFuncBytecode_SourceLocationEmpty(t *testing.T) {
	fn := NewFuncBytecode(0, 0)
	if loc := fn.SourceLocation(0); loc != nil {
		t.Errorf("expected nil location, got %+v", loc)
	}
}

func TestFormatVersion_Stable(t *testing.T) {
	if FormatVersion() != BytecodeVersion {
		t.Errorf("FormatVersion: got %d, want %d", FormatVersion(), BytecodeVersion)
	}
	if FormatVersion() != FormatVersion() {
		t.Error("FormatVersion must be constant")
	}
}

func TestNewRuntime(t *testing.T) {
	rt := NewRuntime()
	if rt.Atoms == nil || rt.Heap == nil {
		t.Fatal("runtime tables should be initialized")
	}
	if rt.Atoms.Len() != 1 {
		t.Errorf("fresh atom table: got len %d, want 1", rt.Atoms.Len())
	}
}
