package chunk

import (
	"fmt"
	"io"

	"ember/internal/value"
)

// Disassemble writes a human-readable listing of every instruction in c to
// w, labelled name. It is used by the `ember disasm` driver subcommand.
func (c *Chunk) Disassemble(w io.Writer, name string) {
	fmt.Fprintf(w, "== %s ==\n", name)
	for offset := 0; offset < len(c.Code); {
		offset = c.disassembleInstruction(w, offset)
	}
}

func (c *Chunk) disassembleInstruction(w io.Writer, offset int) int {
	line := c.LineAt(offset)
	fmt.Fprintf(w, "%04d %4d  ", offset, line)

	op := OpCode(c.Code[offset])
	switch op {
	case OpConstant, OpGetGlobal, OpDefineGlobal, OpSetGlobal, OpClass,
		OpGetProperty, OpSetProperty, OpMethod, OpGetSuper:
		return c.constantInstruction(w, op, offset)
	case OpGetLocal, OpSetLocal, OpGetUpvalue, OpSetUpvalue, OpCall:
		return c.byteInstruction(w, op, offset)
	case OpInvoke, OpSuperInvoke:
		return c.invokeInstruction(w, op, offset)
	case OpJump, OpJumpIfFalse:
		return c.jumpInstruction(w, op, offset, 1)
	case OpLoop:
		return c.jumpInstruction(w, op, offset, -1)
	case OpClosure:
		return c.closureInstruction(w, offset)
	default:
		fmt.Fprintf(w, "%-16s\n", op)
		return offset + 1
	}
}

func (c *Chunk) constantInstruction(w io.Writer, op OpCode, offset int) int {
	idx := c.Code[offset+1]
	fmt.Fprintf(w, "%-16s %4d '%s'\n", op, idx, c.Constants[idx].String())
	return offset + 2
}

func (c *Chunk) byteInstruction(w io.Writer, op OpCode, offset int) int {
	slot := c.Code[offset+1]
	fmt.Fprintf(w, "%-16s %4d\n", op, slot)
	return offset + 2
}

func (c *Chunk) invokeInstruction(w io.Writer, op OpCode, offset int) int {
	idx := c.Code[offset+1]
	argCount := c.Code[offset+2]
	fmt.Fprintf(w, "%-16s (%d args) %4d '%s'\n", op, argCount, idx, c.Constants[idx].String())
	return offset + 3
}

func (c *Chunk) jumpInstruction(w io.Writer, op OpCode, offset int, sign int) int {
	jump := int(c.Code[offset+1])<<8 | int(c.Code[offset+2])
	fmt.Fprintf(w, "%-16s %4d -> %d\n", op, offset, offset+3+sign*jump)
	return offset + 3
}

func (c *Chunk) closureInstruction(w io.Writer, offset int) int {
	idx := c.Code[offset+1]
	fmt.Fprintf(w, "%-16s %4d '%s'\n", OpClosure, idx, c.Constants[idx].String())
	offset += 2

	upvalueCount := 0
	if fn, ok := c.Constants[idx].Obj.(*value.FunctionObj); ok {
		upvalueCount = fn.UpvalueCount
	}
	for i := 0; i < upvalueCount; i++ {
		isLocal := c.Code[offset]
		index := c.Code[offset+1]
		kind := "upvalue"
		if isLocal != 0 {
			kind = "local"
		}
		fmt.Fprintf(w, "%04d      |                     %s %d\n", offset, kind, index)
		offset += 2
	}
	return offset
}
