package vm

// ---------------------------------------------------------------------------
// FuncBytecode: Compiled function object
// ---------------------------------------------------------------------------

// FuncFlags carries per-function attribute bits.
type FuncFlags uint16

const (
	FuncStrict    FuncFlags = 1 << 0 // compiled in strict mode
	FuncArrow     FuncFlags = 1 << 1 // arrow function (no own this)
	FuncGenerator FuncFlags = 1 << 2 // generator function
	FuncAsync     FuncFlags = 1 << 3 // async function
)

// FuncBytecode is the engine's compiled-function record. It holds the
// executable bytecode plus the constant pool of values the code references
// by index. Constant-pool entries may themselves be function values
// (nested closures), including entries shared between functions or
// referring back to an enclosing function.
//
// The constant pool length is fixed when the function is built and is
// never mutated afterwards.
type FuncBytecode struct {
	// Function identity
	NameAtom uint32 // atom ID of the function name (0 for anonymous)
	Flags    FuncFlags

	// Signature
	Arity      int // number of declared parameters
	LocalCount int // total stack slots (parameters + locals)

	// Compiled code
	Code      []byte  // the bytecode instructions
	ConstPool []Value // constant pool (numbers, atoms, nested functions)

	// Debugging support
	Source    string      // original source text (often empty)
	SourceMap []SourceLoc // bytecode offset → source position
}

// SourceLoc maps a bytecode offset to a source position.
type SourceLoc struct {
	Offset int // bytecode offset
	Line   int // 1-based line number
	Column int // 1-based column number
}

// funcRegistry keeps compiled functions alive. NaN-boxing stores the
// FuncBytecode pointer as an integer payload, which Go's GC cannot trace;
// this registry maintains a Go-visible reference for every function that
// has been boxed into a Value.
var funcRegistry = make(map[*FuncBytecode]struct{})

// NewFuncBytecode creates an empty compiled function with the given name
// atom and arity.
func NewFuncBytecode(nameAtom uint32, arity int) *FuncBytecode {
	return &FuncBytecode{
		NameAtom:   nameAtom,
		Arity:      arity,
		LocalCount: arity,
		Code:       make([]byte, 0, 32),
		ConstPool:  make([]Value, 0, 8),
	}
}

// Box returns fn as a function-tagged Value and registers it so the
// boxed pointer stays live.
func (fn *FuncBytecode) Box() Value {
	if fn != nil {
		funcRegistry[fn] = struct{}{}
	}
	return FromFuncPtr(fn)
}

// GetConst returns the constant-pool entry at the given index.
// Panics if index is out of range.
func (fn *FuncBytecode) GetConst(index int) Value {
	if index < 0 || index >= len(fn.ConstPool) {
		panic("FuncBytecode.GetConst: index out of range")
	}
	return fn.ConstPool[index]
}

// ConstCount returns the number of constant-pool entries.
func (fn *FuncBytecode) ConstCount() int {
	return len(fn.ConstPool)
}

// SourceLocation returns the source location for a bytecode offset.
// Returns the most recent location at or before the offset.
func (fn *FuncBytecode) SourceLocation(offset int) *SourceLoc {
	if len(fn.SourceMap) == 0 {
		return nil
	}

	var result *SourceLoc
	for i := range fn.SourceMap {
		if fn.SourceMap[i].Offset <= offset {
			result = &fn.SourceMap[i]
		} else {
			break
		}
	}
	return result
}

// AddSourceLocation adds a source mapping entry.
func (fn *FuncBytecode) AddSourceLocation(offset, line, column int) {
	fn.SourceMap = append(fn.SourceMap, SourceLoc{
		Offset: offset,
		Line:   line,
		Column: column,
	})
}

// ---------------------------------------------------------------------------
// FuncBuilder: Helper for constructing functions
// ---------------------------------------------------------------------------

// FuncBuilder helps construct FuncBytecode instances.
type FuncBuilder struct {
	fn       *FuncBytecode
	bytecode *BytecodeBuilder
}

// NewFuncBuilder creates a new function builder.
func NewFuncBuilder(nameAtom uint32, arity int) *FuncBuilder {
	return &FuncBuilder{
		fn:       NewFuncBytecode(nameAtom, arity),
		bytecode: NewBytecodeBuilder(),
	}
}

// SetSource sets the source text.
func (b *FuncBuilder) SetSource(source string) *FuncBuilder {
	b.fn.Source = source
	return b
}

// SetFlags sets the function attribute bits.
func (b *FuncBuilder) SetFlags(flags FuncFlags) *FuncBuilder {
	b.fn.Flags = flags
	return b
}

// AddLocal increases the local slot count by 1 and returns the index.
func (b *FuncBuilder) AddLocal() int {
	idx := b.fn.LocalCount
	b.fn.LocalCount++
	return idx
}

// AddConst adds a constant-pool entry and returns its index.
func (b *FuncBuilder) AddConst(v Value) int {
	idx := len(b.fn.ConstPool)
	b.fn.ConstPool = append(b.fn.ConstPool, v)
	return idx
}

// Bytecode returns the bytecode builder for direct emission.
func (b *FuncBuilder) Bytecode() *BytecodeBuilder {
	return b.bytecode
}

// MarkSource adds a source mapping at the current bytecode position.
func (b *FuncBuilder) MarkSource(line, column int) {
	b.fn.AddSourceLocation(b.bytecode.Len(), line, column)
}

// Build finalizes and returns the compiled function.
func (b *FuncBuilder) Build() *FuncBytecode {
	b.fn.Code = b.bytecode.Bytes()
	return b.fn
}
