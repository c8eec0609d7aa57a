package natives

import (
	"math"

	"ember/internal/value"
)

func init() {
	Register(Native{Name: "sqrt", Arity: 1, Fn: sqrt})
	Register(Native{Name: "floor", Arity: 1, Fn: floor})
	Register(Native{Name: "ceil", Arity: 1, Fn: ceil})
	Register(Native{Name: "abs", Arity: 1, Fn: absFn})
	Register(Native{Name: "pow", Arity: 2, Fn: pow})
}

func numberArg(args []value.Value, i int, who string) (float64, error) {
	v := args[i]
	if v.Kind != value.KindNumber {
		return 0, argTypeError(who, i)
	}
	return v.Num, nil
}

func sqrt(args []value.Value) (value.Value, error) {
	n, err := numberArg(args, 0, "sqrt")
	if err != nil {
		return value.Value{}, err
	}
	return value.Number(math.Sqrt(n)), nil
}

func floor(args []value.Value) (value.Value, error) {
	n, err := numberArg(args, 0, "floor")
	if err != nil {
		return value.Value{}, err
	}
	return value.Number(math.Floor(n)), nil
}

func ceil(args []value.Value) (value.Value, error) {
	n, err := numberArg(args, 0, "ceil")
	if err != nil {
		return value.Value{}, err
	}
	return value.Number(math.Ceil(n)), nil
}

func absFn(args []value.Value) (value.Value, error) {
	n, err := numberArg(args, 0, "abs")
	if err != nil {
		return value.Value{}, err
	}
	return value.Number(math.Abs(n)), nil
}

func pow(args []value.Value) (value.Value, error) {
	base, err := numberArg(args, 0, "pow")
	if err != nil {
		return value.Value{}, err
	}
	exp, err := numberArg(args, 1, "pow")
	if err != nil {
		return value.Value{}, err
	}
	return value.Number(math.Pow(base, exp)), nil
}
