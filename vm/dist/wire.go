// Package dist serializes compiled-function graphs to a portable CBOR
// image so compiled code can be saved, shipped, and inspected offline.
package dist

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/lumenvm/lumen/vm"
)

// ErrVersionMismatch indicates an image written by an incompatible
// engine build.
var ErrVersionMismatch = errors.New("dist: bytecode version mismatch")

// cborEncMode uses canonical mode for deterministic encoding.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("dist: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Constant-pool entry kinds on the wire.
const (
	kindNil       uint8 = 0
	kindTrue      uint8 = 1
	kindFalse     uint8 = 2
	kindUndefined uint8 = 3
	kindInt       uint8 = 4
	kindFloat     uint8 = 5
	kindAtom      uint8 = 6
	kindFuncRef   uint8 = 7 // index into image function table
	kindAbsent    uint8 = 8 // function-tagged value with a null handle
)

// wireConst is one serialized constant-pool entry.
type wireConst struct {
	Kind  uint8   `cbor:"1,keyasint"`
	Int   int64   `cbor:"2,keyasint,omitempty"`
	Float float64 `cbor:"3,keyasint,omitempty"`
	Atom  uint32  `cbor:"4,keyasint,omitempty"` // index into image atom table
	Func  uint32  `cbor:"5,keyasint,omitempty"` // index into image function table
}

// wireFunc is one serialized compiled function.
type wireFunc struct {
	Name       uint32      `cbor:"1,keyasint"` // index into image atom table
	Flags      uint16      `cbor:"2,keyasint,omitempty"`
	Arity      int         `cbor:"3,keyasint"`
	LocalCount int         `cbor:"4,keyasint"`
	Code       []byte      `cbor:"5,keyasint"`
	Consts     []wireConst `cbor:"6,keyasint"`
	Source     string      `cbor:"7,keyasint,omitempty"`
}

// wireImage is the image envelope. Functions are stored flat with
// index-based references so shared subfunctions and cyclic constant
// pools serialize without duplication; index 0 is the entry function.
type wireImage struct {
	Version uint32     `cbor:"1,keyasint"`
	Atoms   []string   `cbor:"2,keyasint"`
	Funcs   []wireFunc `cbor:"3,keyasint"`
}

// ---------------------------------------------------------------------------
// Encoding
// ---------------------------------------------------------------------------

type encoder struct {
	atoms     *vm.AtomTable
	img       *wireImage
	funcIndex map[*vm.FuncBytecode]uint32
	atomIndex map[uint32]uint32 // engine atom ID -> image atom index
}

// EncodeFunc serializes fn and every function reachable through its
// constant pool to a version-tagged CBOR image. Atom names are resolved
// through atoms so the image is portable across runtimes.
func EncodeFunc(atoms *vm.AtomTable, fn *vm.FuncBytecode) ([]byte, error) {
	if fn == nil {
		return nil, errors.New("dist: encode nil function")
	}

	e := &encoder{
		atoms:     atoms,
		img:       &wireImage{Version: vm.BytecodeVersion},
		funcIndex: make(map[*vm.FuncBytecode]uint32),
		atomIndex: make(map[uint32]uint32),
	}
	if _, err := e.addFunc(fn); err != nil {
		return nil, err
	}

	data, err := cborEncMode.Marshal(e.img)
	if err != nil {
		return nil, fmt.Errorf("dist: marshal image: %w", err)
	}
	return data, nil
}

// addFunc assigns fn a slot in the image function table, then fills it.
// Reserving the slot before descending lets cyclic references resolve
// to the index already assigned.
func (e *encoder) addFunc(fn *vm.FuncBytecode) (uint32, error) {
	if idx, ok := e.funcIndex[fn]; ok {
		return idx, nil
	}

	idx := uint32(len(e.img.Funcs))
	e.funcIndex[fn] = idx
	e.img.Funcs = append(e.img.Funcs, wireFunc{})

	wf := wireFunc{
		Name:       e.addAtom(fn.NameAtom),
		Flags:      uint16(fn.Flags),
		Arity:      fn.Arity,
		LocalCount: fn.LocalCount,
		Code:       fn.Code,
		Source:     fn.Source,
	}
	for i, c := range fn.ConstPool {
		wc, err := e.addConst(c)
		if err != nil {
			return 0, fmt.Errorf("dist: const[%d] of %s: %w", i, e.atoms.Name(fn.NameAtom), err)
		}
		wf.Consts = append(wf.Consts, wc)
	}

	e.img.Funcs[idx] = wf
	return idx, nil
}

func (e *encoder) addConst(v vm.Value) (wireConst, error) {
	switch {
	case v == vm.Nil:
		return wireConst{Kind: kindNil}, nil
	case v == vm.True:
		return wireConst{Kind: kindTrue}, nil
	case v == vm.False:
		return wireConst{Kind: kindFalse}, nil
	case v == vm.Undefined:
		return wireConst{Kind: kindUndefined}, nil
	case v.IsSmallInt():
		return wireConst{Kind: kindInt, Int: v.SmallInt()}, nil
	case v.IsFloat():
		return wireConst{Kind: kindFloat, Float: v.Float64()}, nil
	case v.IsAtom():
		return wireConst{Kind: kindAtom, Atom: e.addAtom(v.AtomID())}, nil
	case v.IsFunc():
		fn := v.FuncPtr()
		if fn == nil {
			return wireConst{Kind: kindAbsent}, nil
		}
		idx, err := e.addFunc(fn)
		if err != nil {
			return wireConst{}, err
		}
		return wireConst{Kind: kindFuncRef, Func: idx}, nil
	default:
		return wireConst{}, errors.New("unsupported constant kind")
	}
}

// addAtom maps an engine atom ID to an image atom index, interning the
// name into the image atom table on first use.
func (e *encoder) addAtom(id uint32) uint32 {
	if idx, ok := e.atomIndex[id]; ok {
		return idx
	}
	idx := uint32(len(e.img.Atoms))
	e.img.Atoms = append(e.img.Atoms, e.atoms.Name(id))
	e.atomIndex[id] = idx
	return idx
}

// ---------------------------------------------------------------------------
// Decoding
// ---------------------------------------------------------------------------

// DecodeFunc deserializes an image previously produced by EncodeFunc,
// re-interning atom names into atoms, and returns the entry function.
// Returns ErrVersionMismatch for images written by an incompatible
// engine build.
func DecodeFunc(atoms *vm.AtomTable, data []byte) (*vm.FuncBytecode, error) {
	var img wireImage
	if err := cbor.Unmarshal(data, &img); err != nil {
		return nil, fmt.Errorf("dist: unmarshal image: %w", err)
	}
	if img.Version != vm.BytecodeVersion {
		return nil, fmt.Errorf("%w: image v%d, engine v%d",
			ErrVersionMismatch, img.Version, vm.BytecodeVersion)
	}
	if len(img.Funcs) == 0 {
		return nil, errors.New("dist: image has no functions")
	}

	// Re-intern the image atom table.
	atomIDs := make([]uint32, len(img.Atoms))
	for i, name := range img.Atoms {
		atomIDs[i] = atoms.Intern(name)
	}

	// Allocate every function up front so constant-pool references,
	// including cyclic ones, can be wired in a second pass.
	fns := make([]*vm.FuncBytecode, len(img.Funcs))
	for i := range img.Funcs {
		fns[i] = &vm.FuncBytecode{}
	}

	for i, wf := range img.Funcs {
		if int(wf.Name) >= len(atomIDs) {
			return nil, fmt.Errorf("dist: func[%d]: atom index out of range", i)
		}
		fn := fns[i]
		fn.NameAtom = atomIDs[wf.Name]
		fn.Flags = vm.FuncFlags(wf.Flags)
		fn.Arity = wf.Arity
		fn.LocalCount = wf.LocalCount
		fn.Code = wf.Code
		fn.Source = wf.Source

		fn.ConstPool = make([]vm.Value, 0, len(wf.Consts))
		for j, wc := range wf.Consts {
			v, err := decodeConst(wc, atomIDs, fns)
			if err != nil {
				return nil, fmt.Errorf("dist: func[%d] const[%d]: %w", i, j, err)
			}
			fn.ConstPool = append(fn.ConstPool, v)
		}
	}

	return fns[0], nil
}

func decodeConst(wc wireConst, atomIDs []uint32, fns []*vm.FuncBytecode) (vm.Value, error) {
	switch wc.Kind {
	case kindNil:
		return vm.Nil, nil
	case kindTrue:
		return vm.True, nil
	case kindFalse:
		return vm.False, nil
	case kindUndefined:
		return vm.Undefined, nil
	case kindInt:
		v, ok := vm.TryFromSmallInt(wc.Int)
		if !ok {
			return vm.Nil, fmt.Errorf("integer %d out of range", wc.Int)
		}
		return v, nil
	case kindFloat:
		return vm.FromFloat64(wc.Float), nil
	case kindAtom:
		if int(wc.Atom) >= len(atomIDs) {
			return vm.Nil, errors.New("atom index out of range")
		}
		return vm.FromAtomID(atomIDs[wc.Atom]), nil
	case kindFuncRef:
		if int(wc.Func) >= len(fns) {
			return vm.Nil, errors.New("function index out of range")
		}
		return fns[wc.Func].Box(), nil
	case kindAbsent:
		return vm.FromFuncPtr(nil), nil
	default:
		return vm.Nil, fmt.Errorf("unknown constant kind %d", wc.Kind)
	}
}
