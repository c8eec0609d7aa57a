package natives

import (
	"strings"

	"ember/internal/value"
)

func init() {
	Register(Native{Name: "strUpper", Arity: 1, Fn: strUpper})
	Register(Native{Name: "strLower", Arity: 1, Fn: strLower})
	Register(Native{Name: "strTrim", Arity: 1, Fn: strTrim})
	Register(Native{Name: "strContains", Arity: 2, Fn: strContains})
	Register(Native{Name: "strIndexOf", Arity: 2, Fn: strIndexOf})
	Register(Native{Name: "strLen", Arity: 1, Fn: strLen})
}

func stringArg(args []value.Value, i int, who string) (string, error) {
	v := args[i]
	if !v.IsString() {
		return "", argTypeError(who, i)
	}
	return v.String(), nil
}

func strUpper(args []value.Value) (value.Value, error) {
	s, err := stringArg(args, 0, "strUpper")
	if err != nil {
		return value.Value{}, err
	}
	return value.FromObj(heapRef.Intern(strings.ToUpper(s))), nil
}

func strLower(args []value.Value) (value.Value, error) {
	s, err := stringArg(args, 0, "strLower")
	if err != nil {
		return value.Value{}, err
	}
	return value.FromObj(heapRef.Intern(strings.ToLower(s))), nil
}

func strTrim(args []value.Value) (value.Value, error) {
	s, err := stringArg(args, 0, "strTrim")
	if err != nil {
		return value.Value{}, err
	}
	return value.FromObj(heapRef.Intern(strings.TrimSpace(s))), nil
}

func strContains(args []value.Value) (value.Value, error) {
	s, err := stringArg(args, 0, "strContains")
	if err != nil {
		return value.Value{}, err
	}
	sub, err := stringArg(args, 1, "strContains")
	if err != nil {
		return value.Value{}, err
	}
	return value.BoolV(strings.Contains(s, sub)), nil
}

func strIndexOf(args []value.Value) (value.Value, error) {
	s, err := stringArg(args, 0, "strIndexOf")
	if err != nil {
		return value.Value{}, err
	}
	sub, err := stringArg(args, 1, "strIndexOf")
	if err != nil {
		return value.Value{}, err
	}
	return value.Number(float64(strings.Index(s, sub))), nil
}

func strLen(args []value.Value) (value.Value, error) {
	s, err := stringArg(args, 0, "strLen")
	if err != nil {
		return value.Value{}, err
	}
	return value.Number(float64(len(s))), nil
}
