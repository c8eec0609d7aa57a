// Package natives is the set of host functions exposed to language code.
// Each native self-registers from an init() function, so adding a new one
// never touches this file.
package natives

import (
	"ember/internal/heap"
	"ember/internal/value"
)

// Native is one registered host function: its global binding name, its
// fixed arity (or -1 for variadic), and the Go function implementing it.
type Native struct {
	Name  string
	Arity int
	Fn    value.NativeFn
}

var registry []Native

// Register records a native for later installation into a VM's globals.
// Called from each native file's init().
func Register(n Native) { registry = append(registry, n) }

// heapRef is the allocator every native allocating a value (a string,
// chiefly) interns through. Install sets it once, before any native runs.
var heapRef *heap.Heap

// Install binds heapRef so natives can allocate, and returns every
// registered native ready to be defined as a VM global.
func Install(h *heap.Heap) []Native {
	heapRef = h
	out := make([]Native, len(registry))
	copy(out, registry)
	return out
}
