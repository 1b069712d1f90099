package compiler

import (
	"strconv"

	"vslc/pkg/bytecode"
	"vslc/pkg/stdlib"
)

// binOp is a binary operator waiting on the shunting-yard stack.
type binOp int

const (
	opOr binOp = iota + 1
	opAnd
	opEqual
	opNotEqual
	opLess
	opGreater
	opLessEqual
	opGreaterEqual
	opAdd
	opSub
	opMul
	opDiv
)

var binOps = map[TokenType]binOp{
	OR:         opOr,
	AND:        opAnd,
	EQUALS:     opEqual,
	NOT_EQ:     opNotEqual,
	LESS:       opLess,
	GREATER:    opGreater,
	LESS_EQ:    opLessEqual,
	GREATER_EQ: opGreaterEqual,
	PLUS:       opAdd,
	MINUS:      opSub,
	STAR:       opMul,
	SLASH:      opDiv,
}

func (op binOp) precedence() int {
	switch op {
	case opOr:
		return 1
	case opAnd:
		return 2
	case opEqual, opNotEqual:
		return 3
	case opLess, opGreater, opLessEqual, opGreaterEqual:
		return 4
	case opAdd, opSub:
		return 5
	case opMul, opDiv:
		return 6
	}
	return 0
}

func (op binOp) String() string {
	switch op {
	case opOr:
		return "or"
	case opAnd:
		return "and"
	case opEqual:
		return "equal comparison"
	case opNotEqual:
		return "not equal comparison"
	case opLess:
		return "less than comparison"
	case opGreater:
		return "greater than comparison"
	case opLessEqual:
		return "less than or equal comparison"
	case opGreaterEqual:
		return "greater than or equal comparison"
	case opAdd:
		return "addition"
	case opSub:
		return "subtraction"
	case opMul:
		return "multiplication"
	case opDiv:
		return "division"
	}
	return "binOp(" + strconv.Itoa(int(op)) + ")"
}

// opcode returns the instruction that applies op to two operands of type t.
// and/or work on any operand type; vectors support nothing else.
func (op binOp) opcode(t bytecode.ValueType) (bytecode.Opcode, bool) {
	switch op {
	case opAnd:
		return bytecode.OpAnd, true
	case opOr:
		return bytecode.OpOr, true
	}

	switch t {
	case bytecode.TypeInt:
		switch op {
		case opAdd:
			return bytecode.OpIAdd, true
		case opSub:
			return bytecode.OpISub, true
		case opMul:
			return bytecode.OpIMul, true
		case opDiv:
			return bytecode.OpIDiv, true
		case opEqual:
			return bytecode.OpIEqual, true
		case opNotEqual:
			return bytecode.OpINotEqual, true
		case opLess:
			return bytecode.OpILess, true
		case opGreater:
			return bytecode.OpIGreater, true
		case opLessEqual:
			return bytecode.OpILessEqual, true
		case opGreaterEqual:
			return bytecode.OpIGreaterEqual, true
		}
	case bytecode.TypeFloat:
		switch op {
		case opAdd:
			return bytecode.OpFAdd, true
		case opSub:
			return bytecode.OpFSub, true
		case opMul:
			return bytecode.OpFMul, true
		case opDiv:
			return bytecode.OpFDiv, true
		case opEqual:
			return bytecode.OpFEqual, true
		case opNotEqual:
			return bytecode.OpFNotEqual, true
		case opLess:
			return bytecode.OpFLess, true
		case opGreater:
			return bytecode.OpFGreater, true
		case opLessEqual:
			return bytecode.OpFLessEqual, true
		case opGreaterEqual:
			return bytecode.OpFGreaterEqual, true
		}
	case bytecode.TypeString:
		switch op {
		case opAdd:
			return bytecode.OpSAdd, true
		case opEqual:
			return bytecode.OpSEqual, true
		case opNotEqual:
			return bytecode.OpSNotEqual, true
		}
	}
	return 0, false
}

// expression compiles operand (binop operand)* in postfix order. want is
// the type every operand must have and ceiling the highest security level
// any operand may carry.
//
// After and/or the active type is taken again from the next operand, so a
// condition may combine comparisons of different types.
func (c *Compiler) expression(want bytecode.ValueType, ceiling int64) {
	typ := want
	var stack []binOp

	c.operand(typ, ceiling)
	for {
		tok := c.peek()
		op, ok := binOps[tok.Type]
		if !ok {
			break
		}
		c.advance()

		if op == opAnd || op == opOr {
			stack = c.reduce(stack, typ, 0, tok)
			stack = append(stack, op)
			typ = c.deriveType()
		} else {
			stack = c.reduce(stack, typ, op.precedence(), tok)
			stack = append(stack, op)
		}
		c.operand(typ, ceiling)
	}
	c.reduce(stack, typ, 0, c.peek())
}

// reduce emits and pops every stacked operator whose precedence is at least
// min. A min of 0 drains the stack.
func (c *Compiler) reduce(stack []binOp, typ bytecode.ValueType, min int, at Token) []binOp {
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.precedence() < min {
			break
		}
		stack = stack[:len(stack)-1]
		if code, ok := top.opcode(typ); ok {
			c.buf.Emit(code)
		} else {
			c.errorAt(at, "Type does not support %s", top)
		}
	}
	return stack
}

// typeDesc names a value type the way literal diagnostics do.
func typeDesc(t bytecode.ValueType) string {
	if t == bytecode.TypeInt {
		return "integer"
	}
	return t.String()
}

func (c *Compiler) operand(want bytecode.ValueType, ceiling int64) {
	tok := c.peek()
	switch tok.Type {
	case INTEGER:
		if want != bytecode.TypeInt {
			c.errorAt(tok, "Expected %s, got '%s'", typeDesc(want), tok.Lexeme)
		}
		c.advance()
		n, err := strconv.ParseInt(tok.Lexeme, 10, 64)
		if err != nil {
			c.errorAt(tok, "Integer '%s' is out of range", tok.Lexeme)
		}
		c.buf.Emit(bytecode.OpIConstant, n)

	case FLOAT:
		if want != bytecode.TypeFloat {
			c.errorAt(tok, "Expected %s, got '%s'", typeDesc(want), tok.Lexeme)
		}
		c.advance()
		f, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil {
			c.errorAt(tok, "Float '%s' is out of range", tok.Lexeme)
		}
		c.buf.EmitFloat(f)

	case STRING:
		if want != bytecode.TypeString {
			c.errorAt(tok, "Expected %s, got '\"%s\"'", typeDesc(want), tok.Lexeme)
		}
		c.stringConstant()

	case IDENTIFIER:
		if c.peekAt(1).Type != LPAREN {
			c.loadVariable(want, ceiling)
			return
		}
		if b, ok := c.builtins.Lookup(tok.Lexeme); ok {
			if b.Returns != bytecode.TypeAny && b.Returns != want {
				c.errorAt(tok, "Type mismatch: function '%s'", tok.Lexeme)
			}
			c.builtinCall(b, want)
			return
		}
		c.userCall(want, ceiling, true)

	case LPAREN:
		c.advance()
		c.expression(want, ceiling)
		if !c.check(RPAREN) {
			c.errorAt(c.peek(), "No closing parenthesis")
		}
		c.advance()

	default:
		c.errorAt(tok, "Invalid token: expected either literal or grouped expression, got '%s'", tok.Lexeme)
		c.advance()
	}
}

func (c *Compiler) stringConstant() {
	tok := c.advance()
	chars, bad := decodeString(tok.Lexeme)
	if bad > 0 {
		c.errorAt(tok, "Expect 'n' after backslash in token \"%s\"", tok.Lexeme)
	}
	c.buf.EmitString(chars)
}

// loadVariable pushes a variable. Its value flows into a sink whose
// security is ceiling, so the variable's own level must not exceed it.
func (c *Compiler) loadVariable(want bytecode.ValueType, ceiling int64) {
	tok := c.advance()
	v, ok := c.syms.Lookup(tok.Lexeme)
	if !ok {
		c.errorAt(tok, "Undeclared variable '%s'", tok.Lexeme)
		c.buf.Emit(bytecode.OpLocalLoad, 0)
		return
	}
	if v.Type != want {
		c.errorAt(tok, "Type mismatch: identifier '%s'", v.Name)
	}
	if v.Security > ceiling {
		c.errorAt(tok, "Max security level exceeded with '%s'", v.Name)
	}
	if v.Depth > c.depth {
		c.errorAt(tok, "Variable '%s' is not found within this scope", v.Name)
	}
	if v.IsArg {
		c.buf.Emit(bytecode.OpArgLoad, v.Slot)
	} else {
		c.buf.Emit(bytecode.OpLocalLoad, v.Slot)
	}
}

// userCall compiles a call to a function defined in the program. When
// checked is set the call's value flows into a sink of type want and
// security ceiling.
func (c *Compiler) userCall(want bytecode.ValueType, ceiling int64, checked bool) {
	tok := c.advance()
	f, ok := c.syms.Function(tok.Lexeme)
	if !ok {
		c.errorAt(tok, "Unknown function '%s'", tok.Lexeme)
		n := c.arguments(nil, nil)
		c.buf.Emit(bytecode.OpCall, 0, int64(n))
		return
	}
	if checked {
		if f.ReturnType != want {
			c.errorAt(tok, "Type mismatch: function '%s'", f.Name)
		}
		if f.Security > ceiling {
			c.errorAt(tok, "Max security level exceeded with '%s'", f.Name)
		}
	}
	if n := c.arguments(f.ArgTypes, f.ArgSecurities); int64(n) != f.NumArgs() {
		c.errorAt(tok, "Function '%s' takes %d arguments, got %d", f.Name, f.NumArgs(), n)
	}
	c.buf.Emit(bytecode.OpCall, f.Address, f.NumArgs())
}

// builtinCall compiles an invocation of a built-in. want is the type the
// surrounding expression demands; built-ins with a type operand (read)
// produce that type.
func (c *Compiler) builtinCall(b stdlib.Builtin, want bytecode.ValueType) {
	if b.Variadic {
		c.printCall(b)
		return
	}
	tok := c.advance()
	if n := c.arguments(b.Params, nil); n != len(b.Params) {
		c.errorAt(tok, "Function '%s' takes %d arguments, got %d", b.Name, len(b.Params), n)
	}
	c.buf.EmitUse(b.ID, b.TypeOperand, want)
}

// printCall compiles each printed value followed by its own use
// instruction, which carries the value's type.
func (c *Compiler) printCall(b stdlib.Builtin) {
	c.advance()
	c.expect(LPAREN)
	if !c.check(RPAREN) {
		for {
			tok := c.peek()
			switch tok.Type {
			case INTEGER, FLOAT, STRING, IDENTIFIER, LPAREN:
				t := c.deriveType()
				if t == bytecode.TypeVoid || t.IsVector() {
					c.errorAt(tok, "Type %s cannot be printed", t)
				}
				c.expression(t, MaxSecurity)
				c.buf.EmitUse(b.ID, b.TypeOperand, t)
			default:
				c.errorAt(tok, "Unknown token '%s', expected beginning of expression", tok.Lexeme)
			}
			if !c.check(COMMA) {
				break
			}
			c.advance()
		}
	}
	c.expect(RPAREN)
}

// arguments compiles a parenthesised argument list. Argument i is compiled
// against types[i] and, when secs is given, secs[i]; built-in parameters
// accept any security level. Surplus arguments are compiled with the type of
// their first operand. It returns the number of arguments found.
func (c *Compiler) arguments(types []bytecode.ValueType, secs []int64) int {
	c.expect(LPAREN)
	n := 0
	if !c.check(RPAREN) {
		for {
			switch {
			case n < len(types) && secs != nil:
				c.expression(types[n], secs[n])
			case n < len(types):
				c.expression(types[n], MaxSecurity)
			default:
				c.expression(c.deriveType(), MaxSecurity)
			}
			n++
			if !c.check(COMMA) {
				break
			}
			c.advance()
		}
	}
	c.expect(RPAREN)
	return n
}

// deriveType predicts the type of the expression starting at the current
// token from its first operand, looking past any opening parentheses.
// Anything it cannot tell is int.
func (c *Compiler) deriveType() bytecode.ValueType {
	i := c.pos
	for i < len(c.tokens)-1 && c.tokens[i].Type == LPAREN {
		i++
	}
	tok := c.tokens[i]
	switch tok.Type {
	case FLOAT:
		return bytecode.TypeFloat
	case STRING:
		return bytecode.TypeString
	case IDENTIFIER:
		if c.tokens[i+1].Type == LPAREN {
			if b, ok := c.builtins.Lookup(tok.Lexeme); ok {
				if b.Returns == bytecode.TypeAny {
					return bytecode.TypeInt
				}
				return b.Returns
			}
			if f, ok := c.syms.Function(tok.Lexeme); ok {
				return f.ReturnType
			}
			return bytecode.TypeInt
		}
		if v, ok := c.syms.Lookup(tok.Lexeme); ok {
			return v.Type
		}
	}
	return bytecode.TypeInt
}
