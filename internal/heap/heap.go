// Package heap is the allocator and garbage collector every heap object in
// the interpreter passes through: a precise tracing mark-sweep collector
// with a weak string-intern table, single-generation and stop-the-world.
package heap

import (
	"hash/maphash"

	"ember/internal/value"
)

const (
	initialNextGC = 1 << 20 // 1 MiB startup threshold
	growFactor    = 2
)

// Heap owns every object allocation and the intern table. It has no
// knowledge of the compiler or VM beyond the Roots its caller hands to
// Collect: callers are responsible for supplying every live reference.
type Heap struct {
	first          value.Obj
	bytesAllocated int
	nextGC         int
	strings        map[string]*value.StringObj
	gray           []value.Obj
	seed           maphash.Seed
	minThreshold   int

	LogGC  bool
	onGC   func(freed, kept int, nextGC int)
}

// New returns an empty heap with the default growth policy.
func New() *Heap {
	return NewWithThreshold(initialNextGC)
}

// NewWithThreshold returns an empty heap whose first collection fires after
// thresholdBytes of live allocation, overriding the 1 MiB default (used by
// the driver when ember.toml sets gc.initial_threshold_bytes).
func NewWithThreshold(thresholdBytes int) *Heap {
	if thresholdBytes <= 0 {
		thresholdBytes = initialNextGC
	}
	return &Heap{
		nextGC:       thresholdBytes,
		minThreshold: thresholdBytes,
		strings:      make(map[string]*value.StringObj),
		seed:         maphash.MakeSeed(),
	}
}

// OnGC installs a callback invoked after every collection, reporting bytes
// freed, bytes still live, and the new collection threshold. Used by the
// driver to print the optional GC banner.
func (h *Heap) OnGC(fn func(freedBytes, liveBytes, nextGC int)) { h.onGC = fn }

// BytesAllocated reports the live allocation total tracked by the heap.
func (h *Heap) BytesAllocated() int { return h.bytesAllocated }

// NextGC reports the byte threshold that will trigger the next collection.
func (h *Heap) NextGC() int { return h.nextGC }

// ShouldCollect reports whether bytesAllocated has crossed nextGC. Callers
// (the VM, chiefly) check this after every allocation-heavy opcode.
func (h *Heap) ShouldCollect() bool { return h.bytesAllocated > h.nextGC }

func (h *Heap) track(o value.Obj, size int) {
	value.SetNext(o, h.first)
	h.first = o
	h.bytesAllocated += size
}

// sizeOf is a rough per-kind accounting figure; it need not be exact, only
// proportionate, since it only drives when the next collection fires.
func sizeOf(o value.Obj) int {
	switch v := o.(type) {
	case *value.StringObj:
		return 32 + len(v.Chars)
	case *value.FunctionObj:
		return 64
	case *value.NativeObj:
		return 48
	case *value.ClosureObj:
		return 32 + 8*len(v.Upvalues)
	case *value.UpvalueObj:
		return 24
	case *value.ClassObj:
		return 48
	case *value.InstanceObj:
		return 48 + 32*len(v.Fields)
	case *value.BoundMethodObj:
		return 32
	default:
		return 16
	}
}

// NewFunction allocates an uninitialized function object.
func (h *Heap) NewFunction() *value.FunctionObj {
	o := &value.FunctionObj{}
	h.track(o, sizeOf(o))
	return o
}

// NewNative allocates a native function object.
func (h *Heap) NewNative(name string, arity int, fn value.NativeFn) *value.NativeObj {
	o := &value.NativeObj{Name: name, Arity: arity, Fn: fn}
	h.track(o, sizeOf(o))
	return o
}

// NewClosure allocates a closure over fn with the given upvalue slots
// (already resolved by the caller).
func (h *Heap) NewClosure(fn *value.FunctionObj, upvalues []*value.UpvalueObj) *value.ClosureObj {
	o := &value.ClosureObj{Function: fn, Upvalues: upvalues}
	h.track(o, sizeOf(o))
	return o
}

// NewUpvalue allocates an open upvalue pointing at stack slot idx.
func (h *Heap) NewUpvalue(idx int) *value.UpvalueObj {
	o := &value.UpvalueObj{StackIdx: idx}
	h.track(o, sizeOf(o))
	return o
}

// NewClass allocates a class named name with an empty method table.
func (h *Heap) NewClass(name *value.StringObj) *value.ClassObj {
	o := &value.ClassObj{Name: name, Methods: make(map[*value.StringObj]*value.ClosureObj)}
	h.track(o, sizeOf(o))
	return o
}

// NewInstance allocates an instance of class with an empty field table.
func (h *Heap) NewInstance(class *value.ClassObj) *value.InstanceObj {
	o := &value.InstanceObj{Class: class, Fields: make(map[*value.StringObj]value.Value)}
	h.track(o, sizeOf(o))
	return o
}

// NewBoundMethod allocates a bound method pairing receiver and method.
func (h *Heap) NewBoundMethod(receiver value.Value, method *value.ClosureObj) *value.BoundMethodObj {
	o := &value.BoundMethodObj{Receiver: receiver, Method: method}
	h.track(o, sizeOf(o))
	return o
}

// Intern returns the canonical StringObj for s, allocating and recording it
// in the intern table on first sight. Every subsequent call with an equal
// byte sequence returns the exact same pointer, which is what lets the VM
// treat string equality as pointer equality.
func (h *Heap) Intern(s string) *value.StringObj {
	if existing, ok := h.strings[s]; ok {
		return existing
	}
	o := &value.StringObj{Chars: s, Hash: h.hash(s)}
	h.strings[s] = o
	h.track(o, sizeOf(o))
	return o
}

func (h *Heap) hash(s string) uint32 {
	var mh maphash.Hash
	mh.SetSeed(h.seed)
	mh.WriteString(s)
	return uint32(mh.Sum64())
}
