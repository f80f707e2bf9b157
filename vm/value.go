package vm

import (
	"math"
	"unsafe"
)

// Value represents a Lumen runtime value using NaN-boxing.
//
// All values are represented as 64-bit IEEE 754 doubles. Non-float values
// are encoded in the NaN (Not-a-Number) space using the quiet NaN prefix
// and tag bits to distinguish types.
//
// Encoding scheme:
//   - Float: Native IEEE 754 double (if not a NaN, it's a float)
//   - SmallInt: Quiet NaN + tagInt + 48-bit signed payload
//   - Object: Quiet NaN + tagObject + 48-bit pointer to an Object header
//   - Function: Quiet NaN + tagFunc + 48-bit pointer to a FuncBytecode
//   - Atom: Quiet NaN + tagAtom + interned-string ID
//   - Special: Quiet NaN + tagSpecial + special value ID (nil/true/false/undefined)
type Value uint64

// NaN-boxing constants
const (
	// Quiet NaN prefix: exponent all 1s, quiet bit set, sign bit 0
	// 0x7FF8_0000_0000_0000
	nanBits uint64 = 0x7FF8000000000000

	// Tag mask: 3 bits within the NaN mantissa space
	// 0x0007_0000_0000_0000
	tagMask uint64 = 0x0007000000000000

	// Payload mask: 48 bits for pointer/int/id
	// 0x0000_FFFF_FFFF_FFFF
	payloadMask uint64 = 0x0000FFFFFFFFFFFF

	// Tag values (shifted into position)
	tagObject  uint64 = 0x0001000000000000 // Heap object pointer
	tagInt     uint64 = 0x0002000000000000 // 48-bit signed integer
	tagSpecial uint64 = 0x0003000000000000 // nil, true, false, undefined
	tagAtom    uint64 = 0x0004000000000000 // Interned string ID
	tagFunc    uint64 = 0x0005000000000000 // Compiled function bytecode pointer

	// Sign bit for 48-bit integer sign extension
	intSignBit uint64 = 0x0000800000000000

	// Mask for sign extension
	intSignExtend uint64 = 0xFFFF000000000000
)

// Special value payloads
const (
	specialNil       uint64 = 0
	specialTrue      uint64 = 1
	specialFalse     uint64 = 2
	specialUndefined uint64 = 3
)

// Pre-defined special values
const (
	Nil       Value = Value(nanBits | tagSpecial | specialNil)
	True      Value = Value(nanBits | tagSpecial | specialTrue)
	False     Value = Value(nanBits | tagSpecial | specialFalse)
	Undefined Value = Value(nanBits | tagSpecial | specialUndefined)
)

// SmallInt range (48-bit signed)
const (
	MaxSmallInt int64 = (1 << 47) - 1
	MinSmallInt int64 = -(1 << 47)
)

// ---------------------------------------------------------------------------
// Type checking
// ---------------------------------------------------------------------------

// IsFloat returns true if v represents a float64 value.
// A value is a float if it's not one of our tagged NaN values.
// This includes regular numbers, infinities, and "real" NaN values.
func (v Value) IsFloat() bool {
	bits := uint64(v)

	// Check if it's a NaN or Infinity (exponent all 1s)
	if (bits & 0x7FF0000000000000) != 0x7FF0000000000000 {
		return true
	}

	// Exponent is all 1s. Infinity has mantissa == 0 (ignoring sign bit).
	mantissa := bits & 0x000FFFFFFFFFFFFF
	if mantissa == 0 {
		return true
	}

	// It's a NaN. Our tagged values have the quiet NaN bit set plus a
	// non-zero tag; anything else is a genuine float NaN.
	if (bits & nanBits) != nanBits {
		return true
	}

	tag := bits & tagMask
	return tag == 0
}

// IsSmallInt returns true if v represents a small integer.
func (v Value) IsSmallInt() bool {
	return (uint64(v) & (nanBits | tagMask)) == (nanBits | tagInt)
}

// IsObject returns true if v represents a heap object pointer.
func (v Value) IsObject() bool {
	return (uint64(v) & (nanBits | tagMask)) == (nanBits | tagObject)
}

// IsFunc returns true if v represents a compiled function bytecode pointer.
func (v Value) IsFunc() bool {
	return (uint64(v) & (nanBits | tagMask)) == (nanBits | tagFunc)
}

// IsAtom returns true if v represents an interned string.
func (v Value) IsAtom() bool {
	return (uint64(v) & (nanBits | tagMask)) == (nanBits | tagAtom)
}

// IsNil returns true if v is the nil value.
func (v Value) IsNil() bool {
	return v == Nil
}

// IsUndefined returns true if v is the undefined value.
func (v Value) IsUndefined() bool {
	return v == Undefined
}

// IsBool returns true if v is true or false.
func (v Value) IsBool() bool {
	return v == True || v == False
}

// IsSpecial returns true if v is nil, true, false, or undefined.
func (v Value) IsSpecial() bool {
	return (uint64(v) & (nanBits | tagMask)) == (nanBits | tagSpecial)
}

// ---------------------------------------------------------------------------
// Float operations
// ---------------------------------------------------------------------------

// Float64 returns v as a float64.
// Panics if v is not a float.
func (v Value) Float64() float64 {
	if !v.IsFloat() {
		panic("Value.Float64: not a float")
	}
	return math.Float64frombits(uint64(v))
}

// FromFloat64 creates a Value from a float64.
func FromFloat64(f float64) Value {
	return Value(math.Float64bits(f))
}

// ---------------------------------------------------------------------------
// SmallInt operations
// ---------------------------------------------------------------------------

// SmallInt returns v as an int64.
// Panics if v is not a small integer.
func (v Value) SmallInt() int64 {
	if !v.IsSmallInt() {
		panic("Value.SmallInt: not a small integer")
	}
	payload := uint64(v) & payloadMask

	// Sign extend from 48 bits to 64 bits
	if (payload & intSignBit) != 0 {
		payload |= intSignExtend
	}
	return int64(payload)
}

// FromSmallInt creates a Value from an int64.
// Panics if n is outside the SmallInt range.
func FromSmallInt(n int64) Value {
	if n > MaxSmallInt || n < MinSmallInt {
		panic("FromSmallInt: value out of range")
	}
	return Value(nanBits | tagInt | (uint64(n) & payloadMask))
}

// TryFromSmallInt creates a Value from an int64, returning false if out of range.
func TryFromSmallInt(n int64) (Value, bool) {
	if n > MaxSmallInt || n < MinSmallInt {
		return Nil, false
	}
	return Value(nanBits | tagInt | (uint64(n) & payloadMask)), true
}

// ---------------------------------------------------------------------------
// Object pointer operations
// ---------------------------------------------------------------------------

// ObjectPtr returns v as an unsafe.Pointer to the heap object.
// Panics if v is not an object.
func (v Value) ObjectPtr() unsafe.Pointer {
	if !v.IsObject() {
		panic("Value.ObjectPtr: not an object")
	}
	ptr := uintptr(uint64(v) & payloadMask)
	return unsafe.Pointer(ptr)
}

// FromObjectPtr creates a Value from an unsafe.Pointer.
// The pointer must fit in 48 bits (true for all current architectures).
func FromObjectPtr(ptr unsafe.Pointer) Value {
	return Value(nanBits | tagObject | uint64(uintptr(ptr)))
}

// ---------------------------------------------------------------------------
// Function pointer operations
// ---------------------------------------------------------------------------

// FuncPtr returns the FuncBytecode pointer from a function value, or nil
// for a function value carrying a null payload. The engine represents
// lazily-initialized compiled functions as function-tagged values with a
// null payload, so a nil result is a valid state, not corruption.
// Panics if v is not a function value.
func (v Value) FuncPtr() *FuncBytecode {
	if !v.IsFunc() {
		panic("Value.FuncPtr: not a function")
	}
	ptr := uintptr(uint64(v) & payloadMask)
	return (*FuncBytecode)(unsafe.Pointer(ptr))
}

// FromFuncPtr creates a Value from a FuncBytecode pointer.
// A nil pointer yields a function-tagged value with a null payload.
func FromFuncPtr(fn *FuncBytecode) Value {
	ptr := uint64(uintptr(unsafe.Pointer(fn)))
	return Value(nanBits | tagFunc | (ptr & payloadMask))
}

// ---------------------------------------------------------------------------
// Atom operations
// ---------------------------------------------------------------------------

// AtomID returns the interned-string ID encoded in v.
// Panics if v is not an atom.
func (v Value) AtomID() uint32 {
	if !v.IsAtom() {
		panic("Value.AtomID: not an atom")
	}
	return uint32(uint64(v) & payloadMask)
}

// FromAtomID creates a Value from an interned-string ID.
func FromAtomID(id uint32) Value {
	return Value(nanBits | tagAtom | uint64(id))
}

// ---------------------------------------------------------------------------
// Boolean operations
// ---------------------------------------------------------------------------

// Bool returns v as a bool.
// Panics if v is not true or false.
func (v Value) Bool() bool {
	switch v {
	case True:
		return true
	case False:
		return false
	default:
		panic("Value.Bool: not a boolean")
	}
}

// FromBool creates a Value from a bool.
func FromBool(b bool) Value {
	if b {
		return True
	}
	return False
}

// ---------------------------------------------------------------------------
// Truthiness
// ---------------------------------------------------------------------------

// IsTruthy returns true if v is considered "truthy" in conditionals.
// Only false, nil, and undefined are falsy; everything else is truthy.
func (v Value) IsTruthy() bool {
	return v != False && v != Nil && v != Undefined
}

// IsFalsy returns true if v is considered "falsy" in conditionals.
func (v Value) IsFalsy() bool {
	return !v.IsTruthy()
}
