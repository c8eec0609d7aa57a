package natives

import "ember/internal/value"

func init() {
	Register(Native{Name: "typeOf", Arity: 1, Fn: typeOf})
}

func typeOf(args []value.Value) (value.Value, error) {
	v := args[0]
	var name string
	switch {
	case v.IsNil():
		name = "nil"
	case v.Kind == value.KindBool:
		name = "bool"
	case v.Kind == value.KindNumber:
		name = "number"
	case v.IsString():
		name = "string"
	case v.IsObj():
		switch v.Obj.Type() {
		case value.ObjFunction, value.ObjClosure, value.ObjNative, value.ObjBoundMethod:
			name = "function"
		case value.ObjClass:
			name = "class"
		case value.ObjInstance:
			name = "instance"
		default:
			name = "object"
		}
	}
	return value.FromObj(heapRef.Intern(name)), nil
}
