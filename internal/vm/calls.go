package vm

import (
	"ember/internal/chunk"
	"ember/internal/value"
)

// callValue dispatches a call-site value to the right kind of callable:
// a closure, a native, a bound method, or a class (construction). It
// reports failure through vm.lastErr and returns false rather than an
// error value so every OpCall/OpInvoke case in run() can check it the same
// way.
func (vm *VM) callValue(callee value.Value, argCount int) bool {
	if !callee.IsObj() {
		vm.lastErr = vm.runtimeError("Can only call functions and classes.")
		return false
	}
	switch obj := callee.Obj.(type) {
	case *value.ClosureObj:
		return vm.call(obj, argCount)
	case *value.NativeObj:
		return vm.callNative(obj, argCount)
	case *value.BoundMethodObj:
		vm.stack[vm.sp-argCount-1] = obj.Receiver
		return vm.call(obj.Method, argCount)
	case *value.ClassObj:
		inst := vm.heap.NewInstance(obj)
		vm.stack[vm.sp-argCount-1] = value.FromObj(inst)
		vm.maybeCollect()
		if init, ok := obj.Methods[vm.initString]; ok {
			return vm.call(init, argCount)
		}
		if argCount != 0 {
			vm.lastErr = vm.runtimeError("Expected 0 arguments but got %d.", argCount)
			return false
		}
		return true
	default:
		vm.lastErr = vm.runtimeError("Can only call functions and classes.")
		return false
	}
}

func (vm *VM) callNative(native *value.NativeObj, argCount int) bool {
	if native.Arity >= 0 && argCount != native.Arity {
		vm.lastErr = vm.runtimeError("Expected %d arguments but got %d.", native.Arity, argCount)
		return false
	}
	args := vm.stack[vm.sp-argCount : vm.sp]
	result, err := native.Fn(args)
	if err != nil {
		vm.lastErr = vm.runtimeError("%s", err.Error())
		return false
	}
	vm.sp -= argCount + 1
	vm.push(result)
	return true
}

func (vm *VM) call(closure *value.ClosureObj, argCount int) bool {
	fn := closure.Function
	if argCount != fn.Arity {
		vm.lastErr = vm.runtimeError("Expected %d arguments but got %d.", fn.Arity, argCount)
		return false
	}
	if len(vm.frames) >= maxFrames {
		vm.lastErr = vm.runtimeError("Stack overflow.")
		return false
	}
	vm.frames = append(vm.frames, Frame{
		closure: closure,
		chunk:   fn.Chunk.(*chunk.Chunk),
		ip:      0,
		base:    vm.sp - argCount - 1,
	})
	return true
}

func (vm *VM) invoke(name *value.StringObj, argCount int) bool {
	receiver := vm.peek(argCount)
	inst, ok := receiver.Obj.(*value.InstanceObj)
	if !ok {
		vm.lastErr = vm.runtimeError("Only instances have methods.")
		return false
	}
	if field, ok := inst.Fields[name]; ok {
		vm.stack[vm.sp-argCount-1] = field
		return vm.callValue(field, argCount)
	}
	return vm.invokeFromClass(inst.Class, name, argCount)
}

func (vm *VM) invokeFromClass(class *value.ClassObj, name *value.StringObj, argCount int) bool {
	method, ok := class.Methods[name]
	if !ok {
		vm.lastErr = vm.runtimeError("Undefined property '%s'.", name.Chars)
		return false
	}
	return vm.call(method, argCount)
}

func (vm *VM) bindMethod(class *value.ClassObj, name *value.StringObj, receiver value.Value) bool {
	method, ok := class.Methods[name]
	if !ok {
		vm.lastErr = vm.runtimeError("Undefined property '%s'.", name.Chars)
		return false
	}
	bound := vm.heap.NewBoundMethod(receiver, method)
	vm.push(value.FromObj(bound))
	vm.maybeCollect()
	return true
}

func (vm *VM) defineMethod(name *value.StringObj) {
	method := vm.pop().Obj.(*value.ClosureObj)
	class := vm.peek(0).Obj.(*value.ClassObj)
	class.Methods[name] = method
}

// captureUpvalue finds-or-creates the open upvalue for stack slot idx. The
// open list stays sorted by strictly descending StackIdx so closing a
// frame's upvalues only ever has to walk a prefix of it.
func (vm *VM) captureUpvalue(idx int) *value.UpvalueObj {
	var prev *value.UpvalueObj
	cur := vm.open
	for cur != nil && cur.StackIdx > idx {
		prev = cur
		cur = cur.NextOpen
	}
	if cur != nil && cur.StackIdx == idx {
		return cur
	}
	created := vm.heap.NewUpvalue(idx)
	created.NextOpen = cur
	if prev == nil {
		vm.open = created
	} else {
		prev.NextOpen = created
	}
	return created
}

// closeUpvalues closes every open upvalue pointing at a stack slot >= base,
// copying its value off the stack before the frame that owns that slot is
// torn down.
func (vm *VM) closeUpvalues(base int) {
	for vm.open != nil && vm.open.StackIdx >= base {
		up := vm.open
		up.Closed = vm.stack[up.StackIdx]
		up.IsClosed = true
		vm.open = up.NextOpen
		up.NextOpen = nil
	}
}

func (vm *VM) upvalueValue(up *value.UpvalueObj) value.Value {
	if up.IsClosed {
		return up.Closed
	}
	return vm.stack[up.StackIdx]
}

func (vm *VM) setUpvalueValue(up *value.UpvalueObj, v value.Value) {
	if up.IsClosed {
		up.Closed = v
		return
	}
	vm.stack[up.StackIdx] = v
}
