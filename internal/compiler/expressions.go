package compiler

import (
	"strconv"

	"ember/internal/chunk"
	"ember/internal/token"
	"ember/internal/value"
)

type precedence int

const (
	precNone       precedence = iota
	precAssignment            // =
	precOr                    // or
	precAnd                   // and
	precEquality              // == !=
	precComparison            // < > <= >=
	precTerm                  // + -
	precFactor                // * /
	precUnary                 // ! -
	precCall                  // . ()
	precPrimary
)

type parseFn func(canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence precedence
}

func (c *Compiler) rules() map[token.Kind]parseRule {
	return map[token.Kind]parseRule{
		token.LParen:     {c.grouping, c.call, precCall},
		token.Dot:        {nil, c.dot, precCall},
		token.Minus:      {c.unary, c.binary, precTerm},
		token.Plus:       {nil, c.binary, precTerm},
		token.Slash:      {nil, c.binary, precFactor},
		token.Star:       {nil, c.binary, precFactor},
		token.Bang:       {c.unary, nil, precNone},
		token.BangEq:     {nil, c.binary, precEquality},
		token.Assign:     {nil, nil, precNone},
		token.Eq:         {nil, c.binary, precEquality},
		token.Gt:         {nil, c.binary, precComparison},
		token.GtEq:       {nil, c.binary, precComparison},
		token.Lt:         {nil, c.binary, precComparison},
		token.LtEq:       {nil, c.binary, precComparison},
		token.Identifier: {c.variable, nil, precNone},
		token.String:     {c.string, nil, precNone},
		token.Number:     {c.number, nil, precNone},
		token.And:        {nil, c.and, precAnd},
		token.Or:         {nil, c.or, precOr},
		token.False:      {c.literal, nil, precNone},
		token.Nil:        {c.literal, nil, precNone},
		token.True:       {c.literal, nil, precNone},
		token.This:       {c.this, nil, precNone},
		token.Super:      {c.super, nil, precNone},
	}
}

func (c *Compiler) expression() { c.parsePrecedence(precAssignment) }

func (c *Compiler) parsePrecedence(prec precedence) {
	rules := c.rules()
	c.advance()
	rule := rules[c.previous.Kind]
	if rule.prefix == nil {
		c.error("Expect expression.")
		return
	}
	canAssign := prec <= precAssignment
	rule.prefix(canAssign)

	for prec <= rules[c.current.Kind].precedence {
		c.advance()
		infix := rules[c.previous.Kind].infix
		infix(canAssign)
	}

	if canAssign && c.match(token.Assign) {
		c.error("Invalid assignment target.")
	}
}

func (c *Compiler) grouping(canAssign bool) {
	c.expression()
	c.consume(token.RParen, "Expect ')' after expression.")
}

func (c *Compiler) number(canAssign bool) {
	n, _ := strconv.ParseFloat(c.previous.Lexeme, 64)
	c.emitConstant(value.Number(n))
}

func (c *Compiler) string(canAssign bool) {
	c.emitConstant(value.FromObj(c.h.Intern(c.previous.Lexeme)))
}

func (c *Compiler) literal(canAssign bool) {
	switch c.previous.Kind {
	case token.False:
		c.emitOp(chunk.OpFalse)
	case token.True:
		c.emitOp(chunk.OpTrue)
	case token.Nil:
		c.emitOp(chunk.OpNil)
	}
}

func (c *Compiler) unary(canAssign bool) {
	opKind := c.previous.Kind
	c.parsePrecedence(precUnary)
	switch opKind {
	case token.Minus:
		c.emitOp(chunk.OpNegate)
	case token.Bang:
		c.emitOp(chunk.OpNot)
	}
}

func (c *Compiler) binary(canAssign bool) {
	opKind := c.previous.Kind
	rules := c.rules()
	c.parsePrecedence(rules[opKind].precedence + 1)
	switch opKind {
	case token.Plus:
		c.emitOp(chunk.OpAdd)
	case token.Minus:
		c.emitOp(chunk.OpSubtract)
	case token.Star:
		c.emitOp(chunk.OpMultiply)
	case token.Slash:
		c.emitOp(chunk.OpDivide)
	case token.BangEq:
		c.emitOp(chunk.OpEqual)
		c.emitOp(chunk.OpNot)
	case token.Eq:
		c.emitOp(chunk.OpEqual)
	case token.Gt:
		c.emitOp(chunk.OpGreater)
	case token.GtEq:
		c.emitOp(chunk.OpLess)
		c.emitOp(chunk.OpNot)
	case token.Lt:
		c.emitOp(chunk.OpLess)
	case token.LtEq:
		c.emitOp(chunk.OpGreater)
		c.emitOp(chunk.OpNot)
	}
}

func (c *Compiler) and(canAssign bool) {
	endJump := c.emitJump(chunk.OpJumpIfFalse)
	c.emitOp(chunk.OpPop)
	c.parsePrecedence(precAnd)
	c.patchJump(endJump)
}

func (c *Compiler) or(canAssign bool) {
	elseJump := c.emitJump(chunk.OpJumpIfFalse)
	endJump := c.emitJump(chunk.OpJump)
	c.patchJump(elseJump)
	c.emitOp(chunk.OpPop)
	c.parsePrecedence(precOr)
	c.patchJump(endJump)
}

func (c *Compiler) variable(canAssign bool) {
	c.namedVariable(c.previous.Lexeme, canAssign)
}

func (c *Compiler) namedVariable(name string, canAssign bool) {
	var getOp, setOp chunk.OpCode
	var arg byte

	if idx := resolveLocal(c.fn, name); idx != -1 {
		if c.fn.locals[idx].depth == -1 {
			c.error("Can't read local variable in its own initializer.")
		}
		getOp, setOp, arg = chunk.OpGetLocal, chunk.OpSetLocal, byte(idx)
	} else if idx := resolveUpvalue(c.fn, name); idx != -1 {
		getOp, setOp, arg = chunk.OpGetUpvalue, chunk.OpSetUpvalue, byte(idx)
	} else {
		arg = c.identifierConstant(name)
		getOp, setOp = chunk.OpGetGlobal, chunk.OpSetGlobal
	}

	if canAssign && c.match(token.Assign) {
		c.expression()
		c.emitBytes(setOp, arg)
	} else {
		c.emitBytes(getOp, arg)
	}
}

func (c *Compiler) this(canAssign bool) {
	if c.class == nil {
		c.error("Can't use 'this' outside of a class.")
		return
	}
	c.namedVariable("this", false)
}

func (c *Compiler) super(canAssign bool) {
	if c.class == nil {
		c.error("Can't use 'super' outside of a class.")
	} else if !c.class.hasSuperclass {
		c.error("Can't use 'super' in a class with no superclass.")
	}

	c.consume(token.Dot, "Expect '.' after 'super'.")
	c.consume(token.Identifier, "Expect superclass method name.")
	nameConst := c.identifierConstant(c.previous.Lexeme)

	c.namedVariable("this", false)
	if c.match(token.LParen) {
		argCount := c.argumentList()
		c.namedVariable("super", false)
		c.emitBytes(chunk.OpSuperInvoke, nameConst)
		c.emitByte(argCount)
		return
	}
	c.namedVariable("super", false)
	c.emitBytes(chunk.OpGetSuper, nameConst)
}

func (c *Compiler) call(canAssign bool) {
	argCount := c.argumentList()
	c.emitBytes(chunk.OpCall, argCount)
}

func (c *Compiler) argumentList() byte {
	var count int
	if !c.check(token.RParen) {
		for {
			c.expression()
			if count == 255 {
				c.error("Can't have more than 255 arguments.")
			}
			count++
			if !c.match(token.Comma) {
				break
			}
		}
	}
	c.consume(token.RParen, "Expect ')' after arguments.")
	return byte(count)
}

func (c *Compiler) dot(canAssign bool) {
	c.consume(token.Identifier, "Expect property name after '.'.")
	nameConst := c.identifierConstant(c.previous.Lexeme)

	switch {
	case canAssign && c.match(token.Assign):
		c.expression()
		c.emitBytes(chunk.OpSetProperty, nameConst)
	case c.match(token.LParen):
		argCount := c.argumentList()
		c.emitBytes(chunk.OpInvoke, nameConst)
		c.emitByte(argCount)
	default:
		c.emitBytes(chunk.OpGetProperty, nameConst)
	}
}
