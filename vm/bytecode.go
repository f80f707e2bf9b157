package vm

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// ---------------------------------------------------------------------------
// Opcode definitions
// ---------------------------------------------------------------------------

// Opcode represents a single bytecode instruction.
type Opcode byte

// Stack Operations
const (
	OpNOP  Opcode = 0x00 // no operation
	OpDROP Opcode = 0x01 // discard top of stack
	OpDUP  Opcode = 0x02 // duplicate top of stack
	OpSWAP Opcode = 0x03 // swap top two stack entries
)

// Push Constants
const (
	OpPushNil     Opcode = 0x10 // push nil
	OpPushUndef   Opcode = 0x11 // push undefined
	OpPushTrue    Opcode = 0x12 // push true
	OpPushFalse   Opcode = 0x13 // push false
	OpPushInt8    Opcode = 0x14 // push 8-bit signed integer
	OpPushInt32   Opcode = 0x15 // push 32-bit signed integer
	OpPushConst   Opcode = 0x16 // push constant-pool entry (16-bit index)
	OpPushFloat   Opcode = 0x17 // push inline float64 (8 bytes)
	OpPushAtom    Opcode = 0x18 // push interned string (32-bit atom ID)
	OpPushClosure Opcode = 0x19 // push closure over constant-pool function (16-bit index)
)

// Variable Operations
const (
	OpGetLocal  Opcode = 0x20 // push local slot (8-bit index)
	OpSetLocal  Opcode = 0x21 // store into local slot (8-bit index)
	OpGetGlobal Opcode = 0x22 // push global by atom (32-bit atom ID)
	OpSetGlobal Opcode = 0x23 // store global by atom (32-bit atom ID)
	OpGetUpval  Opcode = 0x24 // push captured variable (8-bit index)
	OpSetUpval  Opcode = 0x25 // store captured variable (8-bit index)
	OpGetField  Opcode = 0x26 // pop object, push field (32-bit atom ID)
	OpSetField  Opcode = 0x27 // pop value+object, store field (32-bit atom ID)
	OpGetElem   Opcode = 0x28 // pop index+object, push element
	OpSetElem   Opcode = 0x29 // pop value+index+object, store element
)

// Arithmetic / comparison
const (
	OpAdd Opcode = 0x30 // pops 2, pushes sum
	OpSub Opcode = 0x31
	OpMul Opcode = 0x32
	OpDiv Opcode = 0x33
	OpMod Opcode = 0x34
	OpNeg Opcode = 0x35 // pops 1, pushes negation
	OpLT  Opcode = 0x36
	OpLE  Opcode = 0x37
	OpGT  Opcode = 0x38
	OpGE  Opcode = 0x39
	OpEQ  Opcode = 0x3A
	OpNE  Opcode = 0x3B
	OpNot Opcode = 0x3C // pops 1, pushes logical negation
)

// Calls
const (
	OpCall       Opcode = 0x40 // call function (8-bit argc)
	OpCallMethod Opcode = 0x41 // call method (32-bit atom ID, 8-bit argc)
	OpTailCall   Opcode = 0x42 // tail call (8-bit argc)
)

// Control Flow
const (
	OpJump      Opcode = 0x50 // unconditional jump (16-bit offset)
	OpJumpTrue  Opcode = 0x51 // pop, jump if truthy (16-bit offset)
	OpJumpFalse Opcode = 0x52 // pop, jump if falsy (16-bit offset)
	OpJumpNil   Opcode = 0x53 // pop, jump if nil (16-bit offset)
)

// Returns
const (
	OpReturn      Opcode = 0x60 // return top of stack
	OpReturnUndef Opcode = 0x61 // return undefined
)

// Object Creation
const (
	OpNewObject Opcode = 0x70 // create empty object
	OpNewArray  Opcode = 0x71 // create array from stack (8-bit size)
)

// ---------------------------------------------------------------------------
// Opcode metadata
// ---------------------------------------------------------------------------

// OpcodeInfo holds metadata about an opcode.
type OpcodeInfo struct {
	Name         string // human-readable name
	OperandBytes int    // number of operand bytes
	StackEffect  int    // net effect on stack (-1 = variable)
}

// opcodeTable maps opcodes to their metadata.
var opcodeTable = map[Opcode]OpcodeInfo{
	// Stack operations
	OpNOP:  {"NOP", 0, 0},
	OpDROP: {"DROP", 0, -1},
	OpDUP:  {"DUP", 0, 1},
	OpSWAP: {"SWAP", 0, 0},

	// Push constants
	OpPushNil:     {"PUSH_NIL", 0, 1},
	OpPushUndef:   {"PUSH_UNDEF", 0, 1},
	OpPushTrue:    {"PUSH_TRUE", 0, 1},
	OpPushFalse:   {"PUSH_FALSE", 0, 1},
	OpPushInt8:    {"PUSH_INT8", 1, 1},
	OpPushInt32:   {"PUSH_INT32", 4, 1},
	OpPushConst:   {"PUSH_CONST", 2, 1},
	OpPushFloat:   {"PUSH_FLOAT", 8, 1},
	OpPushAtom:    {"PUSH_ATOM", 4, 1},
	OpPushClosure: {"PUSH_CLOSURE", 2, 1},

	// Variables
	OpGetLocal:  {"GET_LOCAL", 1, 1},
	OpSetLocal:  {"SET_LOCAL", 1, 0},
	OpGetGlobal: {"GET_GLOBAL", 4, 1},
	OpSetGlobal: {"SET_GLOBAL", 4, 0},
	OpGetUpval:  {"GET_UPVAL", 1, 1},
	OpSetUpval:  {"SET_UPVAL", 1, 0},
	OpGetField:  {"GET_FIELD", 4, 0},  // pops 1, pushes 1
	OpSetField:  {"SET_FIELD", 4, -2}, // pops 2
	OpGetElem:   {"GET_ELEM", 0, -1},  // pops 2, pushes 1
	OpSetElem:   {"SET_ELEM", 0, -3},  // pops 3

	// Arithmetic / comparison
	OpAdd: {"ADD", 0, -1},
	OpSub: {"SUB", 0, -1},
	OpMul: {"MUL", 0, -1},
	OpDiv: {"DIV", 0, -1},
	OpMod: {"MOD", 0, -1},
	OpNeg: {"NEG", 0, 0},
	OpLT:  {"LT", 0, -1},
	OpLE:  {"LE", 0, -1},
	OpGT:  {"GT", 0, -1},
	OpGE:  {"GE", 0, -1},
	OpEQ:  {"EQ", 0, -1},
	OpNE:  {"NE", 0, -1},
	OpNot: {"NOT", 0, 0},

	// Calls
	OpCall:       {"CALL", 1, -1}, // variable: pops callee + args, pushes result
	OpCallMethod: {"CALL_METHOD", 5, -1},
	OpTailCall:   {"TAIL_CALL", 1, -1},

	// Control flow
	OpJump:      {"JUMP", 2, 0},
	OpJumpTrue:  {"JUMP_TRUE", 2, -1},
	OpJumpFalse: {"JUMP_FALSE", 2, -1},
	OpJumpNil:   {"JUMP_NIL", 2, -1},

	// Returns
	OpReturn:      {"RETURN", 0, -1},
	OpReturnUndef: {"RETURN_UNDEF", 0, 0},

	// Object creation
	OpNewObject: {"NEW_OBJECT", 0, 1},
	OpNewArray:  {"NEW_ARRAY", 1, -1}, // variable: pops N items
}

// Info returns the metadata for an opcode.
func (op Opcode) Info() OpcodeInfo {
	if info, ok := opcodeTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN_%02X", byte(op)), OperandBytes: 0, StackEffect: 0}
}

// Name returns the human-readable name for an opcode.
func (op Opcode) Name() string {
	return op.Info().Name
}

// OperandBytes returns the number of operand bytes for an opcode.
func (op Opcode) OperandBytes() int {
	return op.Info().OperandBytes
}

// String implements the Stringer interface.
func (op Opcode) String() string {
	return op.Name()
}

// ---------------------------------------------------------------------------
// BytecodeBuilder: Helper for constructing bytecode
// ---------------------------------------------------------------------------

// BytecodeBuilder helps construct bytecode sequences.
type BytecodeBuilder struct {
	bytes []byte
}

// NewBytecodeBuilder creates a new bytecode builder.
func NewBytecodeBuilder() *BytecodeBuilder {
	return &BytecodeBuilder{
		bytes: make([]byte, 0, 64),
	}
}

// Bytes returns the constructed bytecode.
func (b *BytecodeBuilder) Bytes() []byte {
	return b.bytes
}

// Len returns the current length.
func (b *BytecodeBuilder) Len() int {
	return len(b.bytes)
}

// Emit appends an opcode with no operands.
func (b *BytecodeBuilder) Emit(op Opcode) {
	b.bytes = append(b.bytes, byte(op))
}

// EmitByte appends an opcode with a single byte operand.
func (b *BytecodeBuilder) EmitByte(op Opcode, operand byte) {
	b.bytes = append(b.bytes, byte(op), operand)
}

// EmitInt8 appends an opcode with a signed 8-bit operand.
func (b *BytecodeBuilder) EmitInt8(op Opcode, operand int8) {
	b.bytes = append(b.bytes, byte(op), byte(operand))
}

// EmitUint16 appends an opcode with a 16-bit operand (little-endian).
func (b *BytecodeBuilder) EmitUint16(op Opcode, operand uint16) {
	b.bytes = append(b.bytes, byte(op), byte(operand), byte(operand>>8))
}

// EmitInt32 appends an opcode with a 32-bit operand (little-endian).
func (b *BytecodeBuilder) EmitInt32(op Opcode, operand int32) {
	b.bytes = append(b.bytes, byte(op))
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(operand))
	b.bytes = append(b.bytes, buf[:]...)
}

// EmitUint32 appends an opcode with a 32-bit unsigned operand (little-endian).
func (b *BytecodeBuilder) EmitUint32(op Opcode, operand uint32) {
	b.bytes = append(b.bytes, byte(op))
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], operand)
	b.bytes = append(b.bytes, buf[:]...)
}

// EmitFloat64 appends an opcode with a 64-bit float operand.
func (b *BytecodeBuilder) EmitFloat64(op Opcode, operand float64) {
	b.bytes = append(b.bytes, byte(op))
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(operand))
	b.bytes = append(b.bytes, buf[:]...)
}

// EmitCallMethod appends a CALL_METHOD instruction.
func (b *BytecodeBuilder) EmitCallMethod(nameAtom uint32, argc uint8) {
	b.bytes = append(b.bytes, byte(OpCallMethod))
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], nameAtom)
	b.bytes = append(b.bytes, buf[:]...)
	b.bytes = append(b.bytes, argc)
}

// ---------------------------------------------------------------------------
// Bytecode reader for disassembly
// ---------------------------------------------------------------------------

// BytecodeReader reads bytecode for interpretation or disassembly.
type BytecodeReader struct {
	bytes []byte
	pos   int
}

// NewBytecodeReader creates a reader for bytecode.
func NewBytecodeReader(bc []byte) *BytecodeReader {
	return &BytecodeReader{bytes: bc, pos: 0}
}

// Position returns the current read position.
func (r *BytecodeReader) Position() int {
	return r.pos
}

// HasMore returns true if there are more bytes to read.
func (r *BytecodeReader) HasMore() bool {
	return r.pos < len(r.bytes)
}

// ReadOpcode reads and returns the next opcode.
func (r *BytecodeReader) ReadOpcode() Opcode {
	if r.pos >= len(r.bytes) {
		panic("bytecode underflow")
	}
	op := Opcode(r.bytes[r.pos])
	r.pos++
	return op
}

// ReadByte reads a single byte operand.
func (r *BytecodeReader) ReadByte() byte {
	if r.pos >= len(r.bytes) {
		panic("bytecode underflow")
	}
	b := r.bytes[r.pos]
	r.pos++
	return b
}

// ReadInt8 reads a signed 8-bit operand.
func (r *BytecodeReader) ReadInt8() int8 {
	return int8(r.ReadByte())
}

// ReadUint16 reads a 16-bit operand (little-endian).
func (r *BytecodeReader) ReadUint16() uint16 {
	if r.pos+2 > len(r.bytes) {
		panic("bytecode underflow")
	}
	v := binary.LittleEndian.Uint16(r.bytes[r.pos:])
	r.pos += 2
	return v
}

// ReadInt16 reads a signed 16-bit operand (little-endian).
func (r *BytecodeReader) ReadInt16() int16 {
	return int16(r.ReadUint16())
}

// ReadUint32 reads a 32-bit operand (little-endian).
func (r *BytecodeReader) ReadUint32() uint32 {
	if r.pos+4 > len(r.bytes) {
		panic("bytecode underflow")
	}
	v := binary.LittleEndian.Uint32(r.bytes[r.pos:])
	r.pos += 4
	return v
}

// ReadInt32 reads a signed 32-bit operand (little-endian).
func (r *BytecodeReader) ReadInt32() int32 {
	return int32(r.ReadUint32())
}

// ReadFloat64 reads a 64-bit float operand.
func (r *BytecodeReader) ReadFloat64() float64 {
	if r.pos+8 > len(r.bytes) {
		panic("bytecode underflow")
	}
	bits := binary.LittleEndian.Uint64(r.bytes[r.pos:])
	r.pos += 8
	return math.Float64frombits(bits)
}

// Skip advances the position by n bytes.
func (r *BytecodeReader) Skip(n int) {
	r.pos += n
}

// Seek sets the read position.
func (r *BytecodeReader) Seek(pos int) {
	r.pos = pos
}

// ---------------------------------------------------------------------------
// Disassembly
// ---------------------------------------------------------------------------

// DisassembleInstruction disassembles a single instruction at the reader's position.
// Returns the string representation and advances the reader.
func DisassembleInstruction(r *BytecodeReader) string {
	pos := r.Position()
	op := r.ReadOpcode()
	info := op.Info()

	switch op {
	// No operands
	case OpNOP, OpDROP, OpDUP, OpSWAP,
		OpPushNil, OpPushUndef, OpPushTrue, OpPushFalse,
		OpAdd, OpSub, OpMul, OpDiv, OpMod, OpNeg,
		OpLT, OpLE, OpGT, OpGE, OpEQ, OpNE, OpNot,
		OpGetElem, OpSetElem,
		OpReturn, OpReturnUndef, OpNewObject:
		return fmt.Sprintf("%04d  %s", pos, info.Name)

	// 8-bit operand
	case OpPushInt8:
		v := r.ReadInt8()
		return fmt.Sprintf("%04d  %s %d", pos, info.Name, v)

	case OpGetLocal, OpSetLocal, OpGetUpval, OpSetUpval:
		idx := r.ReadByte()
		return fmt.Sprintf("%04d  %s %d", pos, info.Name, idx)

	case OpCall, OpTailCall:
		argc := r.ReadByte()
		return fmt.Sprintf("%04d  %s argc=%d", pos, info.Name, argc)

	case OpNewArray:
		size := r.ReadByte()
		return fmt.Sprintf("%04d  %s %d", pos, info.Name, size)

	// 16-bit operand
	case OpPushConst, OpPushClosure:
		idx := r.ReadUint16()
		return fmt.Sprintf("%04d  %s %d", pos, info.Name, idx)

	case OpJump, OpJumpTrue, OpJumpFalse, OpJumpNil:
		offset := r.ReadInt16()
		target := r.Position() + int(offset)
		return fmt.Sprintf("%04d  %s %d (-> %04d)", pos, info.Name, offset, target)

	// 32-bit operand
	case OpPushInt32:
		v := r.ReadInt32()
		return fmt.Sprintf("%04d  %s %d", pos, info.Name, v)

	case OpPushAtom, OpGetGlobal, OpSetGlobal, OpGetField, OpSetField:
		atom := r.ReadUint32()
		return fmt.Sprintf("%04d  %s atom=%d", pos, info.Name, atom)

	// 64-bit operand
	case OpPushFloat:
		v := r.ReadFloat64()
		return fmt.Sprintf("%04d  %s %f", pos, info.Name, v)

	// Complex operands
	case OpCallMethod:
		atom := r.ReadUint32()
		argc := r.ReadByte()
		return fmt.Sprintf("%04d  %s atom=%d argc=%d", pos, info.Name, atom, argc)

	default:
		// Skip unknown operands
		r.Skip(info.OperandBytes)
		return fmt.Sprintf("%04d  %s", pos, info.Name)
	}
}

// Disassemble returns a full disassembly of bytecode.
func Disassemble(bc []byte) string {
	r := NewBytecodeReader(bc)
	var sb strings.Builder
	for r.HasMore() {
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(DisassembleInstruction(r))
	}
	return sb.String()
}

// DisassembleFunc renders one compiled function as human-readable text:
// a header line with name, arity and sizes, the instruction listing, and
// a one-line-per-entry summary of the constant pool. The atom table
// resolves the function name; pass nil to render the raw atom ID.
func DisassembleFunc(fn *FuncBytecode, atoms *AtomTable) string {
	var sb strings.Builder

	name := fmt.Sprintf("atom:%d", fn.NameAtom)
	if atoms != nil {
		if n := atoms.Name(fn.NameAtom); n != "" {
			name = n
		} else if fn.NameAtom == 0 {
			name = "<anonymous>"
		}
	}

	fmt.Fprintf(&sb, "function %s  arity=%d locals=%d code=%dB consts=%d\n",
		name, fn.Arity, fn.LocalCount, len(fn.Code), len(fn.ConstPool))

	if len(fn.Code) > 0 {
		sb.WriteString(Disassemble(fn.Code))
		sb.WriteByte('\n')
	}

	for i, c := range fn.ConstPool {
		fmt.Fprintf(&sb, "  const[%d] = %s\n", i, describeConst(c, atoms))
	}

	return sb.String()
}

// describeConst renders a one-line summary of a constant-pool entry.
func describeConst(v Value, atoms *AtomTable) string {
	switch {
	case v == Nil:
		return "nil"
	case v == True:
		return "true"
	case v == False:
		return "false"
	case v == Undefined:
		return "undefined"
	case v.IsSmallInt():
		return fmt.Sprintf("%d", v.SmallInt())
	case v.IsFloat():
		return fmt.Sprintf("%g", v.Float64())
	case v.IsAtom():
		if atoms != nil {
			if n := atoms.Name(v.AtomID()); n != "" {
				return fmt.Sprintf("atom %q", n)
			}
		}
		return fmt.Sprintf("atom:%d", v.AtomID())
	case v.IsFunc():
		fn := v.FuncPtr()
		if fn == nil {
			return "function <absent>"
		}
		return fmt.Sprintf("function@%p", fn)
	case v.IsObject():
		return fmt.Sprintf("object@%p", v.ObjectPtr())
	default:
		return fmt.Sprintf("<unknown:0x%016x>", uint64(v))
	}
}
