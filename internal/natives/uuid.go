package natives

import (
	"github.com/google/uuid"

	"ember/internal/value"
)

func init() {
	Register(Native{Name: "uuid", Arity: 0, Fn: newUUID})
}

func newUUID(args []value.Value) (value.Value, error) {
	return value.FromObj(heapRef.Intern(uuid.NewString())), nil
}
