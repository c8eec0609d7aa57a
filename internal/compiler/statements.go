package compiler

import (
	"ember/internal/chunk"
	"ember/internal/token"
	"ember/internal/value"
)

func (c *Compiler) declaration() {
	switch {
	case c.match(token.Class):
		c.classDeclaration()
	case c.match(token.Fun):
		c.funDeclaration()
	case c.match(token.Var):
		c.varDeclaration()
	default:
		c.statement()
	}
	if c.panicMode {
		c.synchronize()
	}
}

func (c *Compiler) classDeclaration() {
	c.consume(token.Identifier, "Expect class name.")
	nameTok := c.previous
	nameConst := c.identifierConstant(nameTok.Lexeme)
	c.declareVariable(nameTok.Lexeme)
	c.markInitialized()

	c.emitBytes(chunk.OpClass, nameConst)
	c.defineVariable(nameConst)

	cs := &classState{enclosing: c.class}
	c.class = cs

	if c.match(token.Lt) {
		c.consume(token.Identifier, "Expect superclass name.")
		c.namedVariable(c.previous.Lexeme, false)
		if c.previous.Lexeme == nameTok.Lexeme {
			c.error("A class cannot inherit from itself.")
		}

		c.beginScope()
		c.addLocal("super")
		c.markInitialized()

		c.namedVariable(nameTok.Lexeme, false)
		c.emitOp(chunk.OpInherit)
		cs.hasSuperclass = true
	}

	c.namedVariable(nameTok.Lexeme, false)
	c.consume(token.LBrace, "Expect '{' before class body.")
	for !c.check(token.RBrace) && !c.check(token.EOF) {
		c.method()
	}
	c.consume(token.RBrace, "Expect '}' after class body.")
	c.emitOp(chunk.OpPop) // the class value pushed for method binding

	if cs.hasSuperclass {
		c.endScope()
	}
	c.class = cs.enclosing
}

func (c *Compiler) method() {
	c.consume(token.Identifier, "Expect method name.")
	name := c.previous.Lexeme
	nameConst := c.identifierConstant(name)

	kind := kindMethod
	if name == "init" {
		kind = kindInitializer
	}
	c.functionBody(kind)
	c.emitBytes(chunk.OpMethod, nameConst)
}

func (c *Compiler) funDeclaration() {
	c.consume(token.Identifier, "Expect function name.")
	name := c.previous.Lexeme
	nameConst := c.identifierConstant(name)
	c.declareVariable(name)
	c.markInitialized()
	c.functionBody(kindFunction)
	c.defineVariable(nameConst)
}

func (c *Compiler) functionBody(kind funcKind) {
	name := c.previous.Lexeme
	c.pushFunc(kind, name)
	c.beginScope()

	c.consume(token.LParen, "Expect '(' after function name.")
	if !c.check(token.RParen) {
		for {
			c.fn.fn.Arity++
			if c.fn.fn.Arity > 255 {
				c.errorAtCurrent("Can't have more than 255 parameters.")
			}
			c.consume(token.Identifier, "Expect parameter name.")
			c.declareVariable(c.previous.Lexeme)
			c.markInitialized()
			if !c.match(token.Comma) {
				break
			}
		}
	}
	c.consume(token.RParen, "Expect ')' after parameters.")
	c.consume(token.LBrace, "Expect '{' before function body.")
	c.block()

	finished := c.fn
	fn := c.popFunc()

	idx := c.chunk().AddConstant(value.FromObj(fn))
	if idx > 255 {
		c.error("Too many constants in one chunk.")
		idx = 0
	}
	c.emitBytes(chunk.OpClosure, byte(idx))
	for _, u := range finished.upvalues {
		if u.isLocal {
			c.emitByte(1)
		} else {
			c.emitByte(0)
		}
		c.emitByte(u.index)
	}
}

func (c *Compiler) varDeclaration() {
	c.consume(token.Identifier, "Expect variable name.")
	name := c.previous.Lexeme
	c.declareVariable(name)

	if c.match(token.Assign) {
		c.expression()
	} else {
		c.emitOp(chunk.OpNil)
	}
	c.consume(token.Semicolon, "Expect ';' after variable declaration.")

	if c.fn.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	nameConst := c.identifierConstant(name)
	c.emitBytes(chunk.OpDefineGlobal, nameConst)
}

func (c *Compiler) defineVariable(nameConst byte) {
	if c.fn.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitBytes(chunk.OpDefineGlobal, nameConst)
}

func (c *Compiler) statement() {
	switch {
	case c.match(token.Print):
		c.printStatement()
	case c.match(token.If):
		c.ifStatement()
	case c.match(token.Return):
		c.returnStatement()
	case c.match(token.While):
		c.whileStatement()
	case c.match(token.For):
		c.forStatement()
	case c.match(token.LBrace):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) block() {
	for !c.check(token.RBrace) && !c.check(token.EOF) {
		c.declaration()
	}
	c.consume(token.RBrace, "Expect '}' after block.")
}

func (c *Compiler) printStatement() {
	c.expression()
	c.consume(token.Semicolon, "Expect ';' after value.")
	c.emitOp(chunk.OpPrint)
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(token.Semicolon, "Expect ';' after expression.")
	c.emitOp(chunk.OpPop)
}

// returnStatement also fires at script scope: the top-level source is
// compiled as an implicit zero-arity function, so `return` there just ends
// it early rather than being illegal.
func (c *Compiler) returnStatement() {
	if c.match(token.Semicolon) {
		c.emitReturn()
		return
	}
	if c.fn.kind == kindInitializer {
		c.error("Can't return a value from an initializer.")
	}
	c.expression()
	c.consume(token.Semicolon, "Expect ';' after return value.")
	c.emitOp(chunk.OpReturn)
}

func (c *Compiler) ifStatement() {
	c.consume(token.LParen, "Expect '(' after 'if'.")
	c.expression()
	c.consume(token.RParen, "Expect ')' after condition.")

	thenJump := c.emitJump(chunk.OpJumpIfFalse)
	c.emitOp(chunk.OpPop)
	c.statement()

	elseJump := c.emitJump(chunk.OpJump)
	c.patchJump(thenJump)
	c.emitOp(chunk.OpPop)

	if c.match(token.Else) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *Compiler) whileStatement() {
	loopStart := len(c.chunk().Code)

	c.consume(token.LParen, "Expect '(' after 'while'.")
	c.expression()
	c.consume(token.RParen, "Expect ')' after condition.")

	exitJump := c.emitJump(chunk.OpJumpIfFalse)
	c.emitOp(chunk.OpPop)
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitOp(chunk.OpPop)
}

func (c *Compiler) forStatement() {
	c.beginScope()
	c.consume(token.LParen, "Expect '(' after 'for'.")

	if c.match(token.Semicolon) {
		// no initializer
	} else if c.match(token.Var) {
		c.varDeclaration()
	} else {
		c.expressionStatement()
	}

	loopStart := len(c.chunk().Code)

	exitJump := -1
	if !c.match(token.Semicolon) {
		c.expression()
		c.consume(token.Semicolon, "Expect ';' after loop condition.")
		exitJump = c.emitJump(chunk.OpJumpIfFalse)
		c.emitOp(chunk.OpPop)
	}

	if !c.match(token.RParen) {
		bodyJump := c.emitJump(chunk.OpJump)
		incrementStart := len(c.chunk().Code)
		c.expression()
		c.emitOp(chunk.OpPop)
		c.consume(token.RParen, "Expect ')' after for clauses.")

		c.emitLoop(loopStart)
		loopStart = incrementStart
		c.patchJump(bodyJump)
	}

	c.statement()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emitOp(chunk.OpPop)
	}

	c.endScope()
}
