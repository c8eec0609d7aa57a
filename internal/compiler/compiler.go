// Package compiler is a single-pass Pratt compiler: it never builds an AST,
// instead emitting bytecode directly as it parses, in the classic
// expression-precedence style.
package compiler

import (
	"fmt"

	"ember/internal/chunk"
	"ember/internal/heap"
	"ember/internal/lexer"
	"ember/internal/token"
	"ember/internal/value"
)

// Error is a single compile-time diagnostic, reported at the source line
// where it was raised.
type Error struct {
	Line    int
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("[line %d] %s", e.Line, e.Message) }

type funcKind int

const (
	kindScript funcKind = iota
	kindFunction
	kindMethod
	kindInitializer
)

type local struct {
	name       string
	depth      int // -1 means declared but not yet initialized
	isCaptured bool
}

type upvalueRef struct {
	index   uint8
	isLocal bool
}

// funcState tracks the compiler state for one function body: its own
// locals, upvalues and in-progress chunk. Nesting function literals chains
// these through enclosing.
type funcState struct {
	enclosing *funcState
	fn        *value.FunctionObj
	chunk     *chunk.Chunk
	kind      funcKind

	locals     []local
	upvalues   []upvalueRef
	scopeDepth int
}

type classState struct {
	enclosing      *classState
	hasSuperclass  bool
}

// Compiler drives the Pratt parser. It holds exactly one lexical token of
// lookahead (current) plus the token already consumed (previous), as a
// single-pass compiler needs no more.
type Compiler struct {
	lex *lexer.Lexer
	h   *heap.Heap

	previous token.Token
	current  token.Token

	hadError  bool
	panicMode bool
	errs      []error

	fn    *funcState
	class *classState
}

// Compile compiles source into the implicit top-level function. On failure
// it returns a nil function and the full list of diagnostics collected
// during panic-mode recovery (every synchronized error, not just the
// first).
func Compile(source string, h *heap.Heap) (*value.FunctionObj, []error) {
	c := &Compiler{lex: lexer.New(source), h: h}
	c.pushFunc(kindScript, "")
	c.advance()

	for !c.match(token.EOF) {
		c.declaration()
	}
	c.consume(token.EOF, "Expect end of expression.")

	fn := c.popFunc()
	if c.hadError {
		return nil, c.errs
	}
	return fn, nil
}

func (c *Compiler) pushFunc(kind funcKind, name string) {
	fn := c.h.NewFunction()
	fn.Chunk = &chunk.Chunk{}
	if name != "" {
		fn.Name = c.h.Intern(name)
	}
	fs := &funcState{enclosing: c.fn, fn: fn, chunk: fn.Chunk.(*chunk.Chunk), kind: kind}
	// Slot 0 of every frame is reserved: `this` for methods, the closure
	// value itself otherwise, so it is never a usable named local.
	if kind == kindMethod || kind == kindInitializer {
		fs.locals = append(fs.locals, local{name: "this", depth: 0})
	} else {
		fs.locals = append(fs.locals, local{name: "", depth: 0})
	}
	c.fn = fs
}

func (c *Compiler) popFunc() *value.FunctionObj {
	c.emitReturn()
	fn := c.fn.fn
	fn.UpvalueCount = len(c.fn.upvalues)
	c.fn = c.fn.enclosing
	return fn
}

func (c *Compiler) chunk() *chunk.Chunk { return c.fn.chunk }

// --- token stream -----------------------------------------------------

func (c *Compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.lex.NextToken()
		if c.current.Kind != token.Illegal {
			break
		}
		c.errorAtCurrent(c.current.Lexeme)
	}
}

func (c *Compiler) check(k token.Kind) bool { return c.current.Kind == k }

func (c *Compiler) match(k token.Kind) bool {
	if !c.check(k) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(k token.Kind, msg string) {
	if c.current.Kind == k {
		c.advance()
		return
	}
	c.errorAtCurrent(msg)
}

func (c *Compiler) errorAtCurrent(msg string) { c.errorAt(c.current, msg) }
func (c *Compiler) error(msg string)          { c.errorAt(c.previous, msg) }

func (c *Compiler) errorAt(tok token.Token, msg string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.hadError = true
	c.errs = append(c.errs, &Error{Line: tok.Line, Message: msg})
}

// synchronize discards tokens until it reaches something that plausibly
// starts a new statement, so one diagnostic doesn't cascade into dozens.
func (c *Compiler) synchronize() {
	c.panicMode = false
	for c.current.Kind != token.EOF {
		if c.previous.Kind == token.Semicolon {
			return
		}
		switch c.current.Kind {
		case token.Class, token.Fun, token.Var, token.For,
			token.If, token.While, token.Print, token.Return:
			return
		}
		c.advance()
	}
}

// --- emit helpers -------------------------------------------------------

func (c *Compiler) emitByte(b byte) { c.chunk().Write(b, c.previous.Line) }
func (c *Compiler) emitOp(op chunk.OpCode) { c.emitByte(byte(op)) }
func (c *Compiler) emitBytes(op chunk.OpCode, b byte) {
	c.emitOp(op)
	c.emitByte(b)
}

func (c *Compiler) emitConstant(v value.Value) {
	idx := c.chunk().AddConstant(v)
	if idx > 255 {
		c.error("Too many constants in one chunk.")
		idx = 0
	}
	c.emitBytes(chunk.OpConstant, byte(idx))
}

func (c *Compiler) emitReturn() {
	if c.fn.kind == kindInitializer {
		c.emitBytes(chunk.OpGetLocal, 0)
	} else {
		c.emitOp(chunk.OpNil)
	}
	c.emitOp(chunk.OpReturn)
}

// emitJump writes a jump opcode with a two-byte placeholder operand and
// returns the offset of the first operand byte, to be patched later.
func (c *Compiler) emitJump(op chunk.OpCode) int {
	c.emitOp(op)
	c.emitByte(0xff)
	c.emitByte(0xff)
	return len(c.chunk().Code) - 2
}

func (c *Compiler) patchJump(offset int) {
	jump := len(c.chunk().Code) - offset - 2
	if jump > 0xffff {
		c.error("Too much code to jump over.")
	}
	c.chunk().Code[offset] = byte(jump >> 8)
	c.chunk().Code[offset+1] = byte(jump)
}

func (c *Compiler) emitLoop(loopStart int) {
	c.emitOp(chunk.OpLoop)
	offset := len(c.chunk().Code) - loopStart + 2
	if offset > 0xffff {
		c.error("Loop body too large.")
	}
	c.emitByte(byte(offset >> 8))
	c.emitByte(byte(offset))
}

// --- scopes & locals ------------------------------------------------

func (c *Compiler) beginScope() { c.fn.scopeDepth++ }

func (c *Compiler) endScope() {
	c.fn.scopeDepth--
	locs := c.fn.locals
	for len(locs) > 0 && locs[len(locs)-1].depth > c.fn.scopeDepth {
		if locs[len(locs)-1].isCaptured {
			c.emitOp(chunk.OpCloseUpvalue)
		} else {
			c.emitOp(chunk.OpPop)
		}
		locs = locs[:len(locs)-1]
	}
	c.fn.locals = locs
}

func (c *Compiler) declareVariable(name string) {
	if c.fn.scopeDepth == 0 {
		return
	}
	for i := len(c.fn.locals) - 1; i >= 0; i-- {
		l := c.fn.locals[i]
		if l.depth != -1 && l.depth < c.fn.scopeDepth {
			break
		}
		if l.name == name {
			c.error("Already a variable with this name in this scope.")
		}
	}
	c.addLocal(name)
}

func (c *Compiler) addLocal(name string) {
	if len(c.fn.locals) >= 256 {
		c.error("Too many local variables in function.")
		return
	}
	c.fn.locals = append(c.fn.locals, local{name: name, depth: -1})
}

func (c *Compiler) markInitialized() {
	if c.fn.scopeDepth == 0 {
		return
	}
	c.fn.locals[len(c.fn.locals)-1].depth = c.fn.scopeDepth
}

func resolveLocal(fs *funcState, name string) int {
	for i := len(fs.locals) - 1; i >= 0; i-- {
		if fs.locals[i].name == name {
			return i
		}
	}
	return -1
}

func addUpvalue(fs *funcState, index uint8, isLocal bool) int {
	for i, u := range fs.upvalues {
		if u.index == index && u.isLocal == isLocal {
			return i
		}
	}
	fs.upvalues = append(fs.upvalues, upvalueRef{index: index, isLocal: isLocal})
	return len(fs.upvalues) - 1
}

// resolveUpvalue looks for name in every enclosing function, threading an
// upvalue reference through each intervening function's own upvalue table
// so nested closures can share a captured variable.
func resolveUpvalue(fs *funcState, name string) int {
	if fs.enclosing == nil {
		return -1
	}
	if idx := resolveLocal(fs.enclosing, name); idx != -1 {
		fs.enclosing.locals[idx].isCaptured = true
		return addUpvalue(fs, uint8(idx), true)
	}
	if idx := resolveUpvalue(fs.enclosing, name); idx != -1 {
		return addUpvalue(fs, uint8(idx), false)
	}
	return -1
}

func (c *Compiler) identifierConstant(name string) byte {
	idx := c.chunk().AddConstant(value.FromObj(c.h.Intern(name)))
	if idx > 255 {
		c.error("Too many constants in one chunk.")
		return 0
	}
	return byte(idx)
}
