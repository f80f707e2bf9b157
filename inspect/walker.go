package inspect

import (
	"strings"

	"github.com/lumenvm/lumen/vm"
)

// Markers bracketing each compiled-function disassembly block.
const (
	funcBeginMarker = ";; ---- function ----"
	funcEndMarker   = ";; ---- end function ----"
)

// RenderFunc is the engine-owned disassembly renderer for one compiled
// function. Its output format belongs to the engine, not to this
// package.
type RenderFunc func(fn *vm.FuncBytecode) string

// Inspector walks tagged values and disassembles every compiled
// function reachable through constant pools.
type Inspector struct {
	sink   *Sink
	render RenderFunc
}

// NewInspector creates an Inspector emitting through sink and rendering
// each function with render.
func NewInspector(sink *Sink, render RenderFunc) *Inspector {
	return &Inspector{sink: sink, render: render}
}

// Inspect disassembles every compiled function reachable from v,
// exactly once per distinct function identity, in depth-first
// ascending constant-pool index order. Values that are neither objects
// nor compiled functions produce no output. Constant pools may share
// entries or contain cycles (a function reaching itself through its own
// pool); the walk tracks visited identities per call and terminates
// regardless of graph shape.
func (i *Inspector) Inspect(v vm.Value) {
	seen := make(map[*vm.FuncBytecode]struct{})
	i.walk(v, seen)
}

func (i *Inspector) walk(v vm.Value, seen map[*vm.FuncBytecode]struct{}) {
	// Decode the tag once; everything below dispatches on the result.
	switch {
	case v.IsFunc():
		// handled below
	case v.IsObject():
		// Plain objects carry no constant pool; nothing to disassemble.
		return
	default:
		return
	}

	fn := v.FuncPtr()
	if fn == nil {
		// Lazily-initialized function slot; absent, not broken.
		return
	}
	if _, ok := seen[fn]; ok {
		return
	}
	seen[fn] = struct{}{}

	i.emitBlock(fn)

	for idx := 0; idx < fn.ConstCount(); idx++ {
		i.walk(fn.GetConst(idx), seen)
	}
}

// emitBlock renders one function between its markers.
func (i *Inspector) emitBlock(fn *vm.FuncBytecode) {
	i.sink.Writef("%s\n", funcBeginMarker)
	text := i.render(fn)
	if text != "" {
		i.sink.Writef("%s", text)
		if !strings.HasSuffix(text, "\n") {
			i.sink.Writef("\n")
		}
	}
	i.sink.Writef("%s\n", funcEndMarker)
}
