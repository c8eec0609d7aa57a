package natives

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"ember/internal/value"
)

func init() {
	Register(Native{Name: "heapBytes", Arity: 0, Fn: heapBytes})
	Register(Native{Name: "humanizeBytes", Arity: 1, Fn: humanizeBytes})
}

func heapBytes(args []value.Value) (value.Value, error) {
	return value.Number(float64(heapRef.BytesAllocated())), nil
}

func humanizeBytes(args []value.Value) (value.Value, error) {
	n := args[0]
	if n.Kind != value.KindNumber {
		return value.Value{}, fmt.Errorf("humanizeBytes expects a number")
	}
	return value.FromObj(heapRef.Intern(humanize.Bytes(uint64(n.Num)))), nil
}
