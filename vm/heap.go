package vm

import "unsafe"

// ---------------------------------------------------------------------------
// Heap: engine-owned object headers and the live-object list
// ---------------------------------------------------------------------------

// ObjectKind classifies a heap object header.
type ObjectKind uint8

const (
	KindPlain ObjectKind = iota // plain object
	KindArray
	KindString
	KindClosure
	KindError
)

// kindNames maps object kinds to display names.
var kindNames = [...]string{
	KindPlain:   "object",
	KindArray:   "array",
	KindString:  "string",
	KindClosure: "closure",
	KindError:   "error",
}

// String returns the display name of the kind.
func (k ObjectKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Object is the header every heap-allocated engine object carries. Live
// objects are threaded on an intrusive doubly-linked list owned by the
// Heap, so diagnostics can enumerate every allocation without walking
// from roots.
type Object struct {
	Kind     ObjectKind
	RefCount int32
	Size     int // payload bytes, for accounting only

	prev *Object
	next *Object
}

// Box returns the object as an object-tagged Value.
func (o *Object) Box() Value {
	return FromObjectPtr(unsafe.Pointer(o))
}

// ObjectFromValue returns the Object header for an object-tagged value,
// or nil for a null payload.
func ObjectFromValue(v Value) *Object {
	return (*Object)(v.ObjectPtr())
}

// HeapStats holds aggregate allocation counters.
type HeapStats struct {
	Live       int   // objects currently on the live list
	TotalAlloc int64 // objects ever allocated
	LiveBytes  int64 // payload bytes of live objects
}

// Heap owns the live-object list and its counters. It is not a memory
// manager: objects are ordinary Go allocations, the heap only tracks
// headers for diagnostics and refcount bookkeeping.
type Heap struct {
	// Sentinel node; head.next is the front of the live list.
	head Object

	// objects keeps boxed headers visible to Go's GC, since NaN-boxed
	// Values store the pointer as an integer payload.
	objects map[*Object]struct{}

	stats HeapStats
}

// NewHeap creates an empty heap.
func NewHeap() *Heap {
	h := &Heap{
		objects: make(map[*Object]struct{}),
	}
	h.head.prev = &h.head
	h.head.next = &h.head
	return h
}

// Alloc creates a new object header of the given kind, links it at the
// back of the live list, and returns it with a refcount of 1.
func (h *Heap) Alloc(kind ObjectKind, size int) *Object {
	o := &Object{
		Kind:     kind,
		RefCount: 1,
		Size:     size,
	}

	// Link at the back, before the sentinel.
	o.prev = h.head.prev
	o.next = &h.head
	h.head.prev.next = o
	h.head.prev = o

	h.objects[o] = struct{}{}
	h.stats.Live++
	h.stats.TotalAlloc++
	h.stats.LiveBytes += int64(size)
	return o
}

// Free unlinks an object from the live list. Calling Free on an object
// not owned by this heap is a caller error.
func (h *Heap) Free(o *Object) {
	if _, ok := h.objects[o]; !ok {
		panic("Heap.Free: object not on live list")
	}
	o.prev.next = o.next
	o.next.prev = o.prev
	o.prev = nil
	o.next = nil

	delete(h.objects, o)
	h.stats.Live--
	h.stats.LiveBytes -= int64(o.Size)
}

// Stats returns the current allocation counters.
func (h *Heap) Stats() HeapStats {
	return h.stats
}

// EachLive calls fn for every live object front-to-back. The list must
// not be mutated during the sweep; fn must not allocate on or free from
// this heap.
func (h *Heap) EachLive(fn func(o *Object)) {
	for o := h.head.next; o != &h.head; o = o.next {
		fn(o)
	}
}
