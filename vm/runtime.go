package vm

// BytecodeVersion identifies the compiled bytecode wire format this
// engine build reads and writes. Bump on any incompatible change to the
// opcode set, operand encodings, or the serialized function layout.
const BytecodeVersion uint32 = 7

// Runtime bundles the engine-owned global tables a single script engine
// instance carries: the interned-string table and the heap with its
// live-object list. Inspection reads these tables; it never creates or
// destroys entries in them.
type Runtime struct {
	Atoms *AtomTable
	Heap  *Heap
}

// NewRuntime creates a runtime with empty tables.
func NewRuntime() *Runtime {
	return &Runtime{
		Atoms: NewAtomTable(),
		Heap:  NewHeap(),
	}
}

// FormatVersion returns the bytecode wire-format version of this build.
// Pure and constant for the lifetime of the linked engine.
func FormatVersion() uint32 {
	return BytecodeVersion
}
