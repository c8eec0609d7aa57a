// Package chunk defines the bytecode container the compiler emits into and
// the VM executes out of: a flat instruction stream, a constant pool, and a
// run-length-encoded line table for diagnostics.
package chunk

import "ember/internal/value"

// OpCode is a single bytecode instruction.
type OpCode uint8

const (
	OpConstant OpCode = iota
	OpNil
	OpTrue
	OpFalse
	OpPop
	OpGetLocal
	OpSetLocal
	OpGetGlobal
	OpDefineGlobal
	OpSetGlobal
	OpGetUpvalue
	OpSetUpvalue
	OpGetProperty
	OpSetProperty
	OpGetSuper
	OpEqual
	OpGreater
	OpLess
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpNot
	OpNegate
	OpPrint
	OpJump
	OpJumpIfFalse
	OpLoop
	OpCall
	OpInvoke
	OpSuperInvoke
	OpClosure
	OpCloseUpvalue
	OpReturn
	OpClass
	OpInherit
	OpMethod
)

var names = map[OpCode]string{
	OpConstant:     "OP_CONSTANT",
	OpNil:          "OP_NIL",
	OpTrue:         "OP_TRUE",
	OpFalse:        "OP_FALSE",
	OpPop:          "OP_POP",
	OpGetLocal:     "OP_GET_LOCAL",
	OpSetLocal:     "OP_SET_LOCAL",
	OpGetGlobal:    "OP_GET_GLOBAL",
	OpDefineGlobal: "OP_DEFINE_GLOBAL",
	OpSetGlobal:    "OP_SET_GLOBAL",
	OpGetUpvalue:   "OP_GET_UPVALUE",
	OpSetUpvalue:   "OP_SET_UPVALUE",
	OpGetProperty:  "OP_GET_PROPERTY",
	OpSetProperty:  "OP_SET_PROPERTY",
	OpGetSuper:     "OP_GET_SUPER",
	OpEqual:        "OP_EQUAL",
	OpGreater:      "OP_GREATER",
	OpLess:         "OP_LESS",
	OpAdd:          "OP_ADD",
	OpSubtract:     "OP_SUBTRACT",
	OpMultiply:     "OP_MULTIPLY",
	OpDivide:       "OP_DIVIDE",
	OpNot:          "OP_NOT",
	OpNegate:       "OP_NEGATE",
	OpPrint:        "OP_PRINT",
	OpJump:         "OP_JUMP",
	OpJumpIfFalse:  "OP_JUMP_IF_FALSE",
	OpLoop:         "OP_LOOP",
	OpCall:         "OP_CALL",
	OpInvoke:       "OP_INVOKE",
	OpSuperInvoke:  "OP_SUPER_INVOKE",
	OpClosure:      "OP_CLOSURE",
	OpCloseUpvalue: "OP_CLOSE_UPVALUE",
	OpReturn:       "OP_RETURN",
	OpClass:        "OP_CLASS",
	OpInherit:      "OP_INHERIT",
	OpMethod:       "OP_METHOD",
}

func (op OpCode) String() string {
	if n, ok := names[op]; ok {
		return n
	}
	return "OP_UNKNOWN"
}

// lineRun is one run of the RLE line table: Count consecutive bytes of code
// all originated from source Line.
type lineRun struct {
	Line  int
	Count int
}

// Chunk is a unit of compiled bytecode: one per function (the top-level
// script compiles to its own implicit Chunk too).
type Chunk struct {
	Code      []byte
	Constants []value.Value
	lines     []lineRun
}

// Write appends one byte of code, originating from source line, to the
// chunk and extends or starts an RLE run in the line table.
func (c *Chunk) Write(b byte, line int) {
	c.Code = append(c.Code, b)
	if n := len(c.lines); n > 0 && c.lines[n-1].Line == line {
		c.lines[n-1].Count++
		return
	}
	c.lines = append(c.lines, lineRun{Line: line, Count: 1})
}

// AddConstant appends v to the constant pool and returns its index,
// deduplicating against an existing equal constant first so repeated
// literals don't bloat the pool.
func (c *Chunk) AddConstant(v value.Value) int {
	for i, existing := range c.Constants {
		if value.Equal(existing, v) {
			return i
		}
	}
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}

// ConstantValues exposes the constant pool to package heap. Package value
// declares FunctionObj.Chunk as an opaque interface{}, so the collector
// recovers this narrow view via its chunkConstants interface when tracing.
func (c *Chunk) ConstantValues() []value.Value { return c.Constants }

// LineAt returns the source line that produced the byte at offset.
func (c *Chunk) LineAt(offset int) int {
	remaining := offset
	for _, run := range c.lines {
		if remaining < run.Count {
			return run.Line
		}
		remaining -= run.Count
	}
	if len(c.lines) > 0 {
		return c.lines[len(c.lines)-1].Line
	}
	return 0
}
