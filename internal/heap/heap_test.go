package heap_test

import (
	"testing"

	"ember/internal/heap"
	"ember/internal/value"
)

func TestIntern_EqualBytesShareIdentity(t *testing.T) {
	h := heap.New()
	a := h.Intern("hello")
	b := h.Intern("hello")
	if a != b {
		t.Fatalf("Intern returned distinct objects for equal content: %p != %p", a, b)
	}
}

func TestIntern_DifferentBytesAreDistinct(t *testing.T) {
	h := heap.New()
	a := h.Intern("hello")
	b := h.Intern("world")
	if a == b {
		t.Fatal("Intern returned the same object for different content")
	}
}

func TestCollect_RootedObjectSurvives(t *testing.T) {
	h := heap.New()
	s := h.Intern("kept")
	before := h.BytesAllocated()
	h.Collect(heap.Roots{Stack: []value.Value{value.FromObj(s)}})
	if h.BytesAllocated() != before {
		t.Fatalf("rooted allocation should survive unchanged: before=%d after=%d", before, h.BytesAllocated())
	}
	// Re-interning the same content must still return the exact same
	// object: it was marked reachable, so the weak intern table kept it.
	if again := h.Intern("kept"); again != s {
		t.Fatal("rooted string lost its interned identity across a collection")
	}
}

func TestCollect_UnreachableStringIsSweptAndReinterned(t *testing.T) {
	h := heap.New()
	first := h.Intern("gone")
	h.Collect(heap.Roots{}) // no roots at all: "gone" is unreachable
	second := h.Intern("gone")
	if first == second {
		t.Fatal("unreachable string survived collection: intern table should have dropped it")
	}
}

func TestCollect_ClassGraphReachableThroughInstanceSurvives(t *testing.T) {
	h := heap.New()
	className := h.Intern("Point")
	class := h.NewClass(className)
	methodName := h.Intern("m")
	fn := h.NewFunction()
	closure := h.NewClosure(fn, nil)
	class.Methods[methodName] = closure
	inst := h.NewInstance(class)
	fieldName := h.Intern("x")
	inst.Fields[fieldName] = value.Number(42)
	before := h.BytesAllocated()

	h.Collect(heap.Roots{Stack: []value.Value{value.FromObj(inst)}})

	// The class, its method, and the field value are only reachable via
	// inst; they must not have been swept either.
	if h.BytesAllocated() != before {
		t.Fatalf("objects reachable through inst were swept: before=%d after=%d", before, h.BytesAllocated())
	}
	if h.Intern("Point") != className {
		t.Fatal("class name reachable through inst lost its interned identity")
	}
	if _, ok := class.Methods[methodName]; !ok {
		t.Fatal("method table should still contain the method after collection")
	}
	if v, ok := inst.Fields[fieldName]; !ok || v.Num != 42 {
		t.Fatal("instance field should have survived collection")
	}
}

func TestCollect_ThresholdTracksLiveBytesAfterSweep(t *testing.T) {
	h := heap.NewWithThreshold(64)
	var roots []value.Value
	for i := 0; i < 50; i++ {
		roots = append(roots, value.FromObj(h.Intern(string(rune('a'+i%26))+string(rune('0'+i/26)))))
	}
	live := h.BytesAllocated()
	h.Collect(heap.Roots{Stack: roots})
	if got, want := h.NextGC(), live*2; got != want {
		t.Fatalf("nextGC = %d, want live(%d)*growFactor = %d", got, live, want)
	}
}
