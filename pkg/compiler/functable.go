package compiler

import (
	"strconv"

	"vslc/pkg/bytecode"
)

// indexFunctions is the sizing prepass. It walks every token once, keeping a
// running count of the words the main pass will emit, and records each
// function's start address and signature so that calls to functions defined
// later in the file can be emitted with their final address.
//
// Nothing is validated here; malformed input only produces wrong addresses,
// and the main pass reports the malformation itself.
func (c *Compiler) indexFunctions() {
	counter := entryCost()
	lets := 0 // locals declared so far in the current function
	last := len(c.tokens) - 1

	for i := 0; i < last; i++ {
		tok := c.tokens[i]
		switch tok.Type {
		case FN:
			f, next := c.scanSignature(i, counter)
			if f.Name != "" {
				c.syms.DefineFunction(f)
			}
			lets = 0
			i = next - 1

		case INTEGER:
			// security levels follow a colon and are not code
			if i == 0 || c.tokens[i-1].Type != COLON {
				counter += intConstantCost()
			}

		case FLOAT:
			counter += floatConstantCost()

		case STRING:
			counter += stringCost(tok.Lexeme)

		case LET:
			counter += loadStoreCost()
			lets++
			if c.tokens[i+1].Type == IDENTIFIER {
				i++ // the declared name is stored, never loaded
			}

		case IDENTIFIER:
			if c.tokens[i+1].Type != LPAREN {
				counter += loadStoreCost()
				continue
			}
			b, ok := c.builtins.Lookup(tok.Lexeme)
			switch {
			case !ok:
				counter += userCallCost()
			case b.Variadic:
				counter += builtinCallCost(b) * int64(c.countPrintArgs(i+1))
			default:
				counter += builtinCallCost(b)
			}

		case PLUS, MINUS, STAR, SLASH, EQUALS, NOT_EQ, LESS, GREATER, LESS_EQ, GREATER_EQ, AND, OR:
			counter += operatorCost()

		case IF, WHILE:
			counter += branchHeadCost()

		case BREAK:
			counter += breakCost()

		case RETURN:
			counter += returnCost(lets)
		}
	}
}

// scanSignature reads "fn type:sec name(params)" starting at the fn token
// and returns the function record and the index just past the signature.
func (c *Compiler) scanSignature(i int, addr int64) (*Function, int) {
	last := len(c.tokens) - 1
	f := &Function{Address: addr, Start: -1, ReturnType: bytecode.TypeVoid}

	j := i + 1
	if j < last && c.tokens[j].Type == VOID {
		j++
	} else if t, ok := valueType(c.tokens[j].Type); ok {
		f.ReturnType = t
		j++
		f.Security, j = c.scanSecurity(j)
	}

	if j < last && c.tokens[j].Type == IDENTIFIER {
		f.Name = c.tokens[j].Lexeme
		f.Line = c.tokens[j].Line
		j++
	}

	if j < last && c.tokens[j].Type == LPAREN {
		j++
		for j < last && c.tokens[j].Type != RPAREN && c.tokens[j].Type != LBRACE {
			t, ok := valueType(c.tokens[j].Type)
			j++
			if !ok {
				continue
			}
			var sec int64
			sec, j = c.scanSecurity(j)
			f.ArgTypes = append(f.ArgTypes, t)
			f.ArgSecurities = append(f.ArgSecurities, sec)
		}
		if c.tokens[j].Type == RPAREN {
			j++
		}
	}
	return f, j
}

// scanSecurity reads an optional ":" INTEGER at j.
func (c *Compiler) scanSecurity(j int) (int64, int) {
	if j+1 < len(c.tokens) && c.tokens[j].Type == COLON && c.tokens[j+1].Type == INTEGER {
		sec, _ := strconv.ParseInt(c.tokens[j+1].Lexeme, 10, 64)
		return sec, j + 2
	}
	return 0, j
}

// countPrintArgs counts the top-level arguments of the call whose "(" is at
// lparen. Parentheses of nested calls and groups are skipped.
func (c *Compiler) countPrintArgs(lparen int) int {
	last := len(c.tokens) - 1
	if lparen+1 <= last && c.tokens[lparen+1].Type == RPAREN {
		return 0
	}
	depth := 0
	args := 1
	for j := lparen; j < last; j++ {
		switch c.tokens[j].Type {
		case LPAREN:
			depth++
		case RPAREN:
			depth--
			if depth == 0 {
				return args
			}
		case COMMA:
			if depth == 1 {
				args++
			}
		case SEMICOLON, LBRACE, RBRACE:
			return args
		}
	}
	return args
}
