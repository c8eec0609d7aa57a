package heap

import "ember/internal/value"

// Roots is every place a live object reference can be found outside the
// heap's own object graph. Collect walks exactly these before tracing.
type Roots struct {
	Stack         []value.Value
	Globals       map[*value.StringObj]value.Value
	FrameClosures []*value.ClosureObj
	OpenUpvalues  *value.UpvalueObj // head of the open-upvalue linked list
	Compiling     []value.Obj       // in-progress compiler function chain, if any
}

// Collect runs one full mark-sweep cycle: mark every root, trace the object
// graph to a fixed point, drop intern-table entries for strings that turned
// out unreachable, then sweep every unmarked allocation. It always runs
// unconditionally; callers use ShouldCollect to decide whether to call it.
func (h *Heap) Collect(roots Roots) {
	h.gray = h.gray[:0]
	h.markRoots(roots)
	h.traceReferences()
	h.removeWhiteStrings()
	freed := h.sweep()

	live := h.bytesAllocated
	h.nextGC = live * growFactor
	if h.nextGC < h.minThreshold {
		h.nextGC = h.minThreshold
	}
	if h.onGC != nil {
		h.onGC(freed, live, h.nextGC)
	}
}

func (h *Heap) markRoots(roots Roots) {
	for _, v := range roots.Stack {
		h.markValue(v)
	}
	for name, v := range roots.Globals {
		h.markObject(name)
		h.markValue(v)
	}
	for _, c := range roots.FrameClosures {
		h.markObject(c)
	}
	for up := roots.OpenUpvalues; up != nil; up = up.NextOpen {
		h.markObject(up)
	}
	for _, o := range roots.Compiling {
		h.markObject(o)
	}
	// Intern-table entries are weak roots: they are marked only if reached
	// from somewhere else above, then unreached ones are dropped by
	// removeWhiteStrings after tracing completes.
}

func (h *Heap) markValue(v value.Value) {
	if v.IsObj() {
		h.markObject(v.Obj)
	}
}

func (h *Heap) markObject(o value.Obj) {
	if o == nil || value.MarkedOf(o) {
		return
	}
	value.SetMarked(o, true)
	h.gray = append(h.gray, o)
}

func (h *Heap) traceReferences() {
	for len(h.gray) > 0 {
		o := h.gray[len(h.gray)-1]
		h.gray = h.gray[:len(h.gray)-1]
		h.blacken(o)
	}
}

// blacken marks every object directly reachable from o. StringObj and
// NativeObj have no outgoing references.
func (h *Heap) blacken(o value.Obj) {
	switch v := o.(type) {
	case *value.FunctionObj:
		if v.Name != nil {
			h.markObject(v.Name)
		}
		if c, ok := v.Chunk.(chunkConstants); ok {
			for _, cst := range c.ConstantValues() {
				h.markValue(cst)
			}
		}
	case *value.ClosureObj:
		h.markObject(v.Function)
		for _, up := range v.Upvalues {
			h.markObject(up)
		}
	case *value.UpvalueObj:
		if v.IsClosed {
			h.markValue(v.Closed)
		}
	case *value.ClassObj:
		h.markObject(v.Name)
		for name, method := range v.Methods {
			h.markObject(name)
			h.markObject(method)
		}
	case *value.InstanceObj:
		h.markObject(v.Class)
		for name, field := range v.Fields {
			h.markObject(name)
			h.markValue(field)
		}
	case *value.BoundMethodObj:
		h.markValue(v.Receiver)
		h.markObject(v.Method)
	}
}

// chunkConstants lets the collector reach into a *chunk.Chunk stored behind
// FunctionObj.Chunk's interface{} field without package heap importing
// package chunk.
type chunkConstants interface {
	ConstantValues() []value.Value
}

func (h *Heap) removeWhiteStrings() {
	for s, obj := range h.strings {
		if !value.MarkedOf(obj) {
			delete(h.strings, s)
		}
	}
}

func (h *Heap) sweep() int {
	var prev value.Obj
	freed := 0
	for o := h.first; o != nil; {
		next := value.NextOf(o)
		if value.MarkedOf(o) {
			value.SetMarked(o, false)
			prev = o
			o = next
			continue
		}
		freed += sizeOf(o)
		if prev == nil {
			h.first = next
		} else {
			value.SetNext(prev, next)
		}
		o = next
	}
	h.bytesAllocated -= freed
	return freed
}
