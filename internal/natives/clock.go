package natives

import (
	"time"

	"ember/internal/value"
)

func init() {
	Register(Native{Name: "clock", Arity: 0, Fn: clock})
}

func clock(args []value.Value) (value.Value, error) {
	return value.Number(float64(time.Now().UnixNano()) / 1e9), nil
}
