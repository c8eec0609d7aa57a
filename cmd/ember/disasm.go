package main

import (
	"io"

	"ember/internal/chunk"
	"ember/internal/value"
)

func disassemble(fn *value.FunctionObj, w io.Writer) {
	name := "<script>"
	if fn.Name != nil {
		name = fn.Name.Chars
	}
	disassembleFunction(fn, name, w)
}

func disassembleFunction(fn *value.FunctionObj, name string, w io.Writer) {
	c := fn.Chunk.(*chunk.Chunk)
	c.Disassemble(w, name)
	for _, cst := range c.Constants {
		if inner, ok := cst.Obj.(*value.FunctionObj); ok {
			innerName := "<anonymous>"
			if inner.Name != nil {
				innerName = inner.Name.Chars
			}
			disassembleFunction(inner, innerName, w)
		}
	}
}
