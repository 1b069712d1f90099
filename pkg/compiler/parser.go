package compiler

import (
	"strconv"

	"vslc/pkg/bytecode"
)

// Grammar compiled by the main pass. Code is emitted while parsing; there is
// no syntax tree.
//
//	program  = fnDecl* EOF
//	fnDecl   = "fn" ( "void" | type ":" INTEGER ) IDENTIFIER "(" params? ")" block
//	params   = param ( "," param )*
//	param    = IDENTIFIER ":"? type ":" INTEGER
//	block    = "{" stmt* "}"
//	stmt     = "let" IDENTIFIER ":"? type ":" INTEGER "=" expr ";"
//	         | IDENTIFIER "=" expr ";"
//	         | IDENTIFIER "(" args? ")" ";"
//	         | "if" expr block ( "else" "if" expr block )* ( "else" block )?
//	         | "while" expr block
//	         | "break" ";"
//	         | "return" expr? ";"

// peek returns the current token without consuming it.
func (c *Compiler) peek() Token {
	return c.tokens[c.pos]
}

// peekAt returns the token n positions ahead, or the final EOF token.
func (c *Compiler) peekAt(n int) Token {
	if c.pos+n >= len(c.tokens) {
		return c.tokens[len(c.tokens)-1]
	}
	return c.tokens[c.pos+n]
}

// advance consumes the current token and returns it. It never moves past the
// final EOF token.
func (c *Compiler) advance() Token {
	t := c.tokens[c.pos]
	if c.pos < len(c.tokens)-1 {
		c.pos++
	}
	return t
}

func (c *Compiler) check(tt TokenType) bool {
	return c.peek().Type == tt
}

func (c *Compiler) atEnd() bool {
	return c.pos >= len(c.tokens)-1
}

// errorAt reports a diagnostic on the line of tok.
func (c *Compiler) errorAt(tok Token, format string, args ...any) {
	c.diag.report(tok.Line, format, args...)
}

// describe returns how an expected token kind is named in diagnostics.
func describe(tt TokenType) string {
	switch tt {
	case IDENTIFIER:
		return "identifier"
	case INTEGER:
		return "integer"
	case FLOAT:
		return "float"
	case STRING:
		return "string"
	case INT_TYPE, FLOAT_TYPE, STRING_TYPE, VEC_INT, VEC_FLOAT, VEC_STRING:
		return "type"
	case EOF:
		return "end of file"
	}
	for word, kw := range keywords {
		if kw == tt {
			return "'" + word + "'"
		}
	}
	return "'" + symbols[tt] + "'"
}

// expect consumes a token of kind tt. On mismatch it reports the problem
// and still consumes one token, except for ';', which is left so that the
// next statement can start from it.
func (c *Compiler) expect(tt TokenType) (Token, bool) {
	tok := c.peek()
	if tok.Type == tt {
		c.advance()
		return tok, true
	}
	c.errorAt(tok, "Expected %s, got '%s'", describe(tt), tok.Lexeme)
	if tt != SEMICOLON {
		c.advance()
	}
	return tok, false
}

// valueType maps a type keyword to its value type.
func valueType(tt TokenType) (bytecode.ValueType, bool) {
	switch tt {
	case INT_TYPE:
		return bytecode.TypeInt, true
	case FLOAT_TYPE:
		return bytecode.TypeFloat, true
	case STRING_TYPE:
		return bytecode.TypeString, true
	case VEC_INT:
		return bytecode.TypeVecInt, true
	case VEC_FLOAT:
		return bytecode.TypeVecFloat, true
	case VEC_STRING:
		return bytecode.TypeVecString, true
	}
	return bytecode.TypeInt, false
}

// expectType consumes a type keyword. A missing type is reported and int is
// assumed.
func (c *Compiler) expectType() bytecode.ValueType {
	tok := c.advance()
	t, ok := valueType(tok.Type)
	if !ok {
		c.errorAt(tok, "Expected type, got '%s'", tok.Lexeme)
	}
	return t
}

// expectSecurity consumes a security level and checks its range.
func (c *Compiler) expectSecurity() int64 {
	tok, ok := c.expect(INTEGER)
	if !ok {
		return MinSecurity
	}
	sec, err := strconv.ParseInt(tok.Lexeme, 10, 64)
	switch {
	case err != nil || sec > MaxSecurity:
		c.errorAt(tok, "'%s' exceeds the maximum security of %d", tok.Lexeme, MaxSecurity)
	case sec < MinSecurity:
		c.errorAt(tok, "'%s' is below the lowest security of %d", tok.Lexeme, MinSecurity)
	}
	return sec
}

// fnDecl compiles one function declaration.
func (c *Compiler) fnDecl() {
	clean := !c.diag.hadError
	c.expect(FN)

	sig := &Function{ReturnType: bytecode.TypeVoid, Start: -1}
	if c.check(VOID) {
		c.advance()
	} else {
		sig.ReturnType = c.expectType()
		c.expect(COLON)
		sig.Security = c.expectSecurity()
	}

	nameTok, _ := c.expect(IDENTIFIER)
	sig.Name = nameTok.Lexeme
	sig.Line = nameTok.Line

	c.fn = sig
	c.nextSlot = 0
	c.locals = c.locals[:0]
	c.returns = 0
	c.loopDepth = 0

	if _, ok := c.builtins.Lookup(sig.Name); ok {
		c.errorAt(nameTok, "Function name '%s' cannot be the same as a standard library function", sig.Name)
	}
	if sig.Name == "main" && sig.ReturnType != bytecode.TypeVoid {
		c.errorAt(nameTok, "Function 'main' must be of type void")
	}
	rec, known := c.syms.Function(sig.Name)
	if known {
		rec.TimesParsed++
		if rec.TimesParsed > 1 {
			c.errorAt(nameTok, "Function with name '%s' already exists", sig.Name)
		}
	}

	c.expect(LPAREN)
	c.params(sig)
	c.expect(RPAREN)
	if sig.Name == "main" && len(sig.ArgTypes) > 0 {
		c.errorAt(nameTok, "Function 'main' cannot take parameters")
	}

	if known && rec.TimesParsed == 1 {
		rec.Start = c.buf.Len()
		sig.Start = rec.Start
		if clean && rec.Start != rec.Address {
			c.errorAt(nameTok, "Internal error: function '%s' starts at %d but calls target %d",
				sig.Name, rec.Start, rec.Address)
		}
	}

	var breaks []bytecode.Fixup
	c.block(&breaks)
	// a break outside any loop was reported; give its jump a target anyway
	for _, f := range breaks {
		c.buf.Patch(f, c.buf.Len())
	}

	if c.returns == 0 {
		c.diag.report(0, "Function '%s' has no return statement", sig.Name)
	}
}

// params registers the parameter list as argument records at depth 0.
func (c *Compiler) params(sig *Function) {
	if c.check(RPAREN) {
		return
	}
	for {
		nameTok, _ := c.expect(IDENTIFIER)
		if c.check(COLON) {
			c.advance()
		}
		typ := c.expectType()
		c.expect(COLON)
		sec := c.expectSecurity()

		v := Variable{
			Name:     nameTok.Lexeme,
			Slot:     sig.NumArgs(),
			Type:     typ,
			Security: sec,
			IsArg:    true,
			Depth:    0,
			Function: sig.Name,
		}
		sig.ArgTypes = append(sig.ArgTypes, typ)
		sig.ArgSecurities = append(sig.ArgSecurities, sec)
		if !c.syms.Declare(v) {
			c.errorAt(nameTok, "Identifier '%s' already declared", v.Name)
		}

		if !c.check(COMMA) {
			return
		}
		c.advance()
	}
}

// block compiles "{" stmt* "}". Records declared inside are purged when the
// block closes. breaks collects the jumps of break statements for the
// innermost enclosing loop.
func (c *Compiler) block(breaks *[]bytecode.Fixup) {
	c.expect(LBRACE)
	c.depth++
	for !c.atEnd() && !c.check(RBRACE) {
		c.statement(breaks)
	}
	c.expect(RBRACE)
	c.syms.Purge(c.fn.Name, c.depth)
	c.depth--
}

func (c *Compiler) statement(breaks *[]bytecode.Fixup) {
	tok := c.peek()
	switch tok.Type {
	case LET:
		c.letDecl()
		c.expect(SEMICOLON)
	case IDENTIFIER:
		if c.peekAt(1).Type == LPAREN {
			c.callStatement()
		} else {
			c.assignment()
		}
		c.expect(SEMICOLON)
	case IF:
		c.ifStatement(breaks)
	case WHILE:
		c.whileStatement()
	case BREAK:
		c.breakStatement(breaks)
		c.expect(SEMICOLON)
	case RETURN:
		c.returnStatement()
		c.expect(SEMICOLON)
	default:
		c.errorAt(tok, "Beginning of unknown statement type")
		c.advance()
	}
}

func (c *Compiler) letDecl() {
	c.advance() // let
	nameTok, _ := c.expect(IDENTIFIER)
	if _, live := c.syms.Lookup(nameTok.Lexeme); live {
		c.errorAt(nameTok, "Identifier '%s' already declared", nameTok.Lexeme)
	}
	if c.check(COLON) {
		c.advance()
	}
	typ := c.expectType()
	c.expect(COLON)
	sec := c.expectSecurity()
	c.expect(ASSIGN)

	c.expression(typ, sec)

	slot := c.nextSlot
	c.nextSlot++
	c.locals = append(c.locals, slot)
	c.syms.Declare(Variable{
		Name:     nameTok.Lexeme,
		Slot:     slot,
		Type:     typ,
		Security: sec,
		Depth:    c.depth,
		Function: c.fn.Name,
	})
	c.buf.Emit(bytecode.OpLocalStore, slot)
}

func (c *Compiler) assignment() {
	nameTok := c.advance()
	c.expect(ASSIGN)

	v, ok := c.syms.Lookup(nameTok.Lexeme)
	if !ok {
		c.errorAt(nameTok, "Undeclared variable '%s'", nameTok.Lexeme)
		c.expression(c.deriveType(), MaxSecurity)
		c.buf.Emit(bytecode.OpLocalStore, 0)
		return
	}
	if v.Depth > c.depth {
		c.errorAt(nameTok, "Variable '%s' is not found within this scope", v.Name)
	}
	c.expression(v.Type, v.Security)
	if v.IsArg {
		c.buf.Emit(bytecode.OpArgStore, v.Slot)
	} else {
		c.buf.Emit(bytecode.OpLocalStore, v.Slot)
	}
}

// callStatement compiles a call whose result would be discarded, so the
// callee must be void.
func (c *Compiler) callStatement() {
	tok := c.peek()
	if b, ok := c.builtins.Lookup(tok.Lexeme); ok {
		if b.Returns != bytecode.TypeVoid {
			c.errorAt(tok, "Function not within an expression must be void")
		}
		c.builtinCall(b, bytecode.TypeVoid)
		return
	}
	if f, ok := c.syms.Function(tok.Lexeme); ok && f.ReturnType != bytecode.TypeVoid {
		c.errorAt(tok, "Function not within an expression must be void")
	}
	c.userCall(bytecode.TypeVoid, MaxSecurity, false)
}

// condition compiles the controlling expression of if and while. Its type
// is taken from its first operand and any security level may be read.
func (c *Compiler) condition() {
	c.expression(c.deriveType(), MaxSecurity)
}

func (c *Compiler) ifStatement(breaks *[]bytecode.Fixup) {
	var ends []bytecode.Fixup
	for {
		c.expect(IF)
		c.condition()
		skip := c.buf.EmitFixup(bytecode.OpJumpIfFalse)
		c.block(breaks)
		ends = append(ends, c.buf.EmitFixup(bytecode.OpJump))
		c.buf.Patch(skip, c.buf.Len())

		if !c.check(ELSE) {
			break
		}
		c.advance()
		if c.check(LBRACE) {
			c.block(breaks)
			break
		}
	}
	for _, f := range ends {
		c.buf.Patch(f, c.buf.Len())
	}
}

func (c *Compiler) whileStatement() {
	c.advance() // while
	head := c.buf.Len()
	c.condition()
	skip := c.buf.EmitFixup(bytecode.OpJumpIfFalse)

	var breaks []bytecode.Fixup
	c.loopDepth++
	c.block(&breaks)
	c.loopDepth--
	c.buf.Emit(bytecode.OpJump, head)

	end := c.buf.Len()
	c.buf.Patch(skip, end)
	for _, f := range breaks {
		c.buf.Patch(f, end)
	}
}

func (c *Compiler) breakStatement(breaks *[]bytecode.Fixup) {
	tok := c.advance()
	if c.loopDepth == 0 {
		c.errorAt(tok, "Cannot break out of a non loop")
	}
	*breaks = append(*breaks, c.buf.EmitFixup(bytecode.OpJump))
}

func (c *Compiler) returnStatement() {
	tok := c.advance()
	if c.depth == 0 {
		c.returns++
	}

	if !c.check(SEMICOLON) {
		if c.fn.ReturnType == bytecode.TypeVoid {
			c.errorAt(tok, "Cannot return value from void function")
			c.expression(c.deriveType(), MaxSecurity)
		} else {
			c.expression(c.fn.ReturnType, c.fn.Security)
		}
		c.emitPops()
		c.buf.Emit(bytecode.OpReturnVal)
		return
	}

	if c.fn.ReturnType != bytecode.TypeVoid {
		c.errorAt(tok, "Must return value from non-void function")
	}
	c.emitPops()
	if c.fn.Name == "main" {
		c.buf.Emit(bytecode.OpHalt)
	} else {
		c.buf.Emit(bytecode.OpReturnNonVal)
	}
}

// emitPops releases every local of the current function, highest slot
// first. Slots are handed out in increasing order, so that is the reverse
// of declaration order.
func (c *Compiler) emitPops() {
	for i := len(c.locals) - 1; i >= 0; i-- {
		c.buf.Emit(bytecode.OpPop, c.locals[i])
	}
}
