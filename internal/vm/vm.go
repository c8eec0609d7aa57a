// Package vm is the stack-based bytecode interpreter: it executes the
// chunks the compiler produces, manages call frames and upvalues, and
// triggers garbage collection as it allocates.
package vm

import (
	"fmt"
	"io"

	"ember/internal/chunk"
	"ember/internal/heap"
	"ember/internal/value"
)

const (
	maxFrames = 64
	stackMax  = maxFrames * 256
)

// Frame is one call's activation record: the closure it is executing, the
// instruction pointer into that closure's chunk, and the stack index its
// locals start at.
type Frame struct {
	closure *value.ClosureObj
	chunk   *chunk.Chunk
	ip      int
	base    int
}

// VM is one interpreter instance: its value stack, call frames, globals and
// the heap it allocates from. A VM is not safe for concurrent use.
type VM struct {
	stack [stackMax]value.Value
	sp    int

	frames []Frame

	globals map[*value.StringObj]value.Value
	heap    *heap.Heap
	open    *value.UpvalueObj // head of the open-upvalue list, sorted by descending StackIdx

	initString *value.StringObj
	out        io.Writer

	// lastErr carries the error out of call()/invoke() family helpers that
	// report failure as a bool, so the dispatch loop doesn't thread an
	// extra return value through every opcode case.
	lastErr error
}

// New creates a VM that allocates from h and writes `print` output to out.
func New(h *heap.Heap, out io.Writer) *VM {
	return &VM{
		frames:     make([]Frame, 0, maxFrames),
		globals:    make(map[*value.StringObj]value.Value),
		heap:       h,
		initString: h.Intern("init"),
		out:        out,
	}
}

// Run wraps fn (as compiled for the top level) in a closure and executes it
// to completion.
func (vm *VM) Run(fn *value.FunctionObj) error {
	// A previous Run that stopped on a runtime error leaves its frames and
	// stack slots behind; every run starts from an empty stack.
	vm.sp = 0
	vm.frames = vm.frames[:0]
	vm.open = nil
	closure := vm.heap.NewClosure(fn, nil)
	vm.push(value.FromObj(closure))
	if !vm.call(closure, 0) {
		return vm.lastErr
	}
	return vm.run()
}

// DefineNative binds name in the VM's global scope to a native function,
// the way the compiler's OpDefineGlobal would for a language-level
// declaration.
func (vm *VM) DefineNative(name string, arity int, fn value.NativeFn) {
	vm.globals[vm.heap.Intern(name)] = value.FromObj(vm.heap.NewNative(name, arity, fn))
}

func (vm *VM) push(v value.Value) {
	vm.stack[vm.sp] = v
	vm.sp++
}

func (vm *VM) pop() value.Value {
	vm.sp--
	return vm.stack[vm.sp]
}

func (vm *VM) peek(distance int) value.Value { return vm.stack[vm.sp-1-distance] }

func (vm *VM) run() error {
	frame := &vm.frames[len(vm.frames)-1]

	readByte := func() byte {
		b := frame.chunk.Code[frame.ip]
		frame.ip++
		return b
	}
	readShort := func() int {
		hi := readByte()
		lo := readByte()
		return int(hi)<<8 | int(lo)
	}
	readConstant := func() value.Value { return frame.chunk.Constants[readByte()] }
	readString := func() *value.StringObj { return readConstant().Obj.(*value.StringObj) }

	for {
		op := chunk.OpCode(readByte())
		switch op {
		case chunk.OpConstant:
			vm.push(readConstant())
		case chunk.OpNil:
			vm.push(value.Nil())
		case chunk.OpTrue:
			vm.push(value.BoolV(true))
		case chunk.OpFalse:
			vm.push(value.BoolV(false))
		case chunk.OpPop:
			vm.pop()
		case chunk.OpGetLocal:
			vm.push(vm.stack[frame.base+int(readByte())])
		case chunk.OpSetLocal:
			vm.stack[frame.base+int(readByte())] = vm.peek(0)
		case chunk.OpGetGlobal:
			name := readString()
			v, ok := vm.globals[name]
			if !ok {
				vm.lastErr = vm.runtimeError("Undefined variable '%s'.", name.Chars)
				return vm.lastErr
			}
			vm.push(v)
		case chunk.OpDefineGlobal:
			vm.globals[readString()] = vm.pop()
		case chunk.OpSetGlobal:
			name := readString()
			if _, ok := vm.globals[name]; !ok {
				vm.lastErr = vm.runtimeError("Undefined variable '%s'.", name.Chars)
				return vm.lastErr
			}
			vm.globals[name] = vm.peek(0)
		case chunk.OpGetUpvalue:
			up := frame.closure.Upvalues[readByte()]
			vm.push(vm.upvalueValue(up))
		case chunk.OpSetUpvalue:
			up := frame.closure.Upvalues[readByte()]
			vm.setUpvalueValue(up, vm.peek(0))
		case chunk.OpGetProperty:
			if err := vm.getProperty(readString()); err != nil {
				return err
			}
		case chunk.OpSetProperty:
			name := readString()
			inst, ok := vm.peek(1).Obj.(*value.InstanceObj)
			if !ok {
				vm.lastErr = vm.runtimeError("Only instances have fields.")
				return vm.lastErr
			}
			inst.Fields[name] = vm.peek(0)
			v := vm.pop()
			vm.pop()
			vm.push(v)
		case chunk.OpGetSuper:
			name := readString()
			super := vm.pop().Obj.(*value.ClassObj)
			receiver := vm.pop()
			if !vm.bindMethod(super, name, receiver) {
				return vm.lastErr
			}
		case chunk.OpEqual:
			b := vm.pop()
			a := vm.pop()
			vm.push(value.BoolV(value.Equal(a, b)))
		case chunk.OpGreater:
			if err := vm.binaryCmp(func(a, b float64) bool { return a > b }); err != nil {
				return err
			}
		case chunk.OpLess:
			if err := vm.binaryCmp(func(a, b float64) bool { return a < b }); err != nil {
				return err
			}
		case chunk.OpAdd:
			if err := vm.add(); err != nil {
				return err
			}
		case chunk.OpSubtract:
			if err := vm.binaryArith(func(a, b float64) float64 { return a - b }); err != nil {
				return err
			}
		case chunk.OpMultiply:
			if err := vm.binaryArith(func(a, b float64) float64 { return a * b }); err != nil {
				return err
			}
		case chunk.OpDivide:
			if err := vm.binaryArith(func(a, b float64) float64 { return a / b }); err != nil {
				return err
			}
		case chunk.OpNot:
			vm.push(value.BoolV(vm.pop().Falsey()))
		case chunk.OpNegate:
			v := vm.peek(0)
			if v.Kind != value.KindNumber {
				vm.lastErr = vm.runtimeError("Operand must be a number.")
				return vm.lastErr
			}
			vm.pop()
			vm.push(value.Number(-v.Num))
		case chunk.OpPrint:
			fmt.Fprintln(vm.out, vm.pop().String())
		case chunk.OpJump:
			offset := readShort()
			frame.ip += offset
		case chunk.OpJumpIfFalse:
			offset := readShort()
			if vm.peek(0).Falsey() {
				frame.ip += offset
			}
		case chunk.OpLoop:
			offset := readShort()
			frame.ip -= offset
		case chunk.OpCall:
			argCount := int(readByte())
			if !vm.callValue(vm.peek(argCount), argCount) {
				return vm.lastErr
			}
			frame = &vm.frames[len(vm.frames)-1]
		case chunk.OpInvoke:
			name := readString()
			argCount := int(readByte())
			if !vm.invoke(name, argCount) {
				return vm.lastErr
			}
			frame = &vm.frames[len(vm.frames)-1]
		case chunk.OpSuperInvoke:
			name := readString()
			argCount := int(readByte())
			super := vm.pop().Obj.(*value.ClassObj)
			if !vm.invokeFromClass(super, name, argCount) {
				return vm.lastErr
			}
			frame = &vm.frames[len(vm.frames)-1]
		case chunk.OpClosure:
			fn := readConstant().Obj.(*value.FunctionObj)
			upvalues := make([]*value.UpvalueObj, fn.UpvalueCount)
			for i := range upvalues {
				isLocal := readByte()
				index := int(readByte())
				if isLocal != 0 {
					upvalues[i] = vm.captureUpvalue(frame.base + index)
				} else {
					upvalues[i] = frame.closure.Upvalues[index]
				}
			}
			vm.push(value.FromObj(vm.heap.NewClosure(fn, upvalues)))
			vm.maybeCollect()
		case chunk.OpCloseUpvalue:
			vm.closeUpvalues(vm.sp - 1)
			vm.pop()
		case chunk.OpReturn:
			result := vm.pop()
			vm.closeUpvalues(frame.base)
			vm.frames = vm.frames[:len(vm.frames)-1]
			if len(vm.frames) == 0 {
				return nil
			}
			vm.sp = frame.base // drop the callee slot along with its args/receiver
			vm.push(result)
			frame = &vm.frames[len(vm.frames)-1]
		case chunk.OpClass:
			vm.push(value.FromObj(vm.heap.NewClass(readString())))
			vm.maybeCollect()
		case chunk.OpInherit:
			superVal := vm.peek(1)
			super, ok := superVal.Obj.(*value.ClassObj)
			if !ok {
				vm.lastErr = vm.runtimeError("Superclass must be a class.")
				return vm.lastErr
			}
			sub := vm.peek(0).Obj.(*value.ClassObj)
			for name, method := range super.Methods {
				sub.Methods[name] = method
			}
			vm.pop() // subclass
		case chunk.OpMethod:
			vm.defineMethod(readString())
		default:
			vm.lastErr = vm.runtimeError("unknown opcode %d", op)
			return vm.lastErr
		}
	}
}

func (vm *VM) binaryArith(op func(a, b float64) float64) error {
	b := vm.peek(0)
	a := vm.peek(1)
	if a.Kind != value.KindNumber || b.Kind != value.KindNumber {
		vm.lastErr = vm.runtimeError("Operands must be numbers.")
		return vm.lastErr
	}
	vm.pop()
	vm.pop()
	vm.push(value.Number(op(a.Num, b.Num)))
	return nil
}

func (vm *VM) binaryCmp(op func(a, b float64) bool) error {
	b := vm.peek(0)
	a := vm.peek(1)
	if a.Kind != value.KindNumber || b.Kind != value.KindNumber {
		vm.lastErr = vm.runtimeError("Operands must be numbers.")
		return vm.lastErr
	}
	vm.pop()
	vm.pop()
	vm.push(value.BoolV(op(a.Num, b.Num)))
	return nil
}

func (vm *VM) add() error {
	b := vm.peek(0)
	a := vm.peek(1)
	switch {
	case a.Kind == value.KindNumber && b.Kind == value.KindNumber:
		vm.pop()
		vm.pop()
		vm.push(value.Number(a.Num + b.Num))
	case a.IsString() && b.IsString():
		vm.pop()
		vm.pop()
		as := a.Obj.(*value.StringObj).Chars
		bs := b.Obj.(*value.StringObj).Chars
		vm.push(value.FromObj(vm.heap.Intern(as + bs)))
		vm.maybeCollect()
	default:
		vm.lastErr = vm.runtimeError("Operands must be two numbers or two strings.")
		return vm.lastErr
	}
	return nil
}

func (vm *VM) getProperty(name *value.StringObj) error {
	inst, ok := vm.peek(0).Obj.(*value.InstanceObj)
	if !ok {
		vm.lastErr = vm.runtimeError("Only instances have properties.")
		return vm.lastErr
	}
	if field, ok := inst.Fields[name]; ok {
		vm.pop()
		vm.push(field)
		return nil
	}
	receiver := vm.pop()
	if !vm.bindMethod(inst.Class, name, receiver) {
		return vm.lastErr
	}
	return nil
}

// maybeCollect is called after every allocation-bearing opcode; it snapshots
// the VM's current roots and hands them to the heap if the collector's
// threshold has been crossed.
func (vm *VM) maybeCollect() {
	if !vm.heap.ShouldCollect() {
		return
	}
	closures := make([]*value.ClosureObj, len(vm.frames))
	for i, fr := range vm.frames {
		closures[i] = fr.closure
	}
	vm.heap.Collect(heap.Roots{
		Stack:         vm.stack[:vm.sp],
		Globals:       vm.globals,
		FrameClosures: closures,
		OpenUpvalues:  vm.open,
	})
}
