package inspect

import "github.com/lumenvm/lumen/vm"

// Markers bracketing the table sweeps.
const (
	atomsBeginMarker   = ";; ---- atoms ----"
	atomsEndMarker     = ";; ---- end atoms ----"
	objectsBeginMarker = ";; ---- objects ----"
	objectsEndMarker   = ";; ---- end objects ----"
)

// AtomSource is the engine capability the interned-string dump sweeps:
// iteration in the table's own native order.
type AtomSource interface {
	Len() int
	Each(fn func(id uint32, name string))
}

// ObjectSource is the engine capability the live-object dump sweeps:
// aggregate counters plus front-to-back iteration of the live list.
type ObjectSource interface {
	Stats() vm.HeapStats
	EachLive(fn func(o *vm.Object))
}

// DumpAtoms enumerates every entry of the engine's interned-string
// table, one line per atom, in the table's native order. Single pass,
// read-only.
func DumpAtoms(sink *Sink, atoms AtomSource) {
	sink.Writef("%s\n", atomsBeginMarker)
	atoms.Each(func(id uint32, name string) {
		sink.Writef("atom[%d] = %q\n", id, name)
	})
	sink.Writef("%s\n", atomsEndMarker)
}

// DumpObjects renders one aggregate header line, then one line per
// live object front-to-back. Read-only single pass: it must not run
// concurrently with, or trigger, a collection on the same runtime,
// since that would invalidate the list iteration.
func DumpObjects(sink *Sink, heap ObjectSource) {
	sink.Writef("%s\n", objectsBeginMarker)

	stats := heap.Stats()
	sink.Writef("live=%d total=%d bytes=%d\n", stats.Live, stats.TotalAlloc, stats.LiveBytes)

	heap.EachLive(func(o *vm.Object) {
		sink.Writef("%p %s refs=%d size=%d\n", o, o.Kind, o.RefCount, o.Size)
	})

	sink.Writef("%s\n", objectsEndMarker)
}

// FormatVersion returns the bytecode wire-format version of the linked
// engine build.
func FormatVersion() uint32 {
	return vm.FormatVersion()
}
