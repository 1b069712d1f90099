package compiler

import "fmt"

// TokenType identifies the category of a lexed token.
type TokenType int

const (
	EOF TokenType = iota // sentinel: end of input

	// Literals
	IDENTIFIER // variable / function name
	INTEGER    // decimal integer literal
	FLOAT      // decimal float literal
	STRING     // string literal "..."

	// Keywords
	FN     // "fn"
	LET    // "let"
	IF     // "if"
	ELSE   // "else"
	WHILE  // "while"
	RETURN // "return"
	BREAK  // "break"
	VOID   // "void"
	AND    // "and"
	OR     // "or"

	// Type keywords
	INT_TYPE    // "int"
	FLOAT_TYPE  // "float"
	STRING_TYPE // "string"
	VEC_INT     // "vec_int"
	VEC_FLOAT   // "vec_float"
	VEC_STRING  // "vec_string"

	// Paired delimiters
	LBRACE // {
	RBRACE // }
	LPAREN // (
	RPAREN // )

	// Punctuation
	SEMICOLON // ;
	COLON     // :
	COMMA     // ,
	ASSIGN    // =

	// Arithmetic operators
	PLUS  // +
	MINUS // -
	STAR  // *
	SLASH // /

	// Comparison
	EQUALS     // ==
	NOT_EQ     // !=
	LESS       // <
	GREATER    // >
	LESS_EQ    // <=
	GREATER_EQ // >=

	numTokenTypes
)

var tokenNames = [...]string{
	EOF:         "EOF",
	IDENTIFIER:  "IDENTIFIER",
	INTEGER:     "INTEGER",
	FLOAT:       "FLOAT",
	STRING:      "STRING",
	FN:          "FN",
	LET:         "LET",
	IF:          "IF",
	ELSE:        "ELSE",
	WHILE:       "WHILE",
	RETURN:      "RETURN",
	BREAK:       "BREAK",
	VOID:        "VOID",
	AND:         "AND",
	OR:          "OR",
	INT_TYPE:    "INT_TYPE",
	FLOAT_TYPE:  "FLOAT_TYPE",
	STRING_TYPE: "STRING_TYPE",
	VEC_INT:     "VEC_INT",
	VEC_FLOAT:   "VEC_FLOAT",
	VEC_STRING:  "VEC_STRING",
	LBRACE:      "LBRACE",
	RBRACE:      "RBRACE",
	LPAREN:      "LPAREN",
	RPAREN:      "RPAREN",
	SEMICOLON:   "SEMICOLON",
	COLON:       "COLON",
	COMMA:       "COMMA",
	ASSIGN:      "ASSIGN",
	PLUS:        "PLUS",
	MINUS:       "MINUS",
	STAR:        "STAR",
	SLASH:       "SLASH",
	EQUALS:      "EQUALS",
	NOT_EQ:      "NOT_EQ",
	LESS:        "LESS",
	GREATER:     "GREATER",
	LESS_EQ:     "LESS_EQ",
	GREATER_EQ:  "GREATER_EQ",
}

// tokenNames must name every TokenType.
var _ = [1]struct{}{}[len(tokenNames)-int(numTokenTypes)]

func (tt TokenType) String() string {
	if int(tt) >= 0 && int(tt) < len(tokenNames) {
		return tokenNames[tt]
	}
	return fmt.Sprintf("TokenType(%d)", int(tt))
}

// symbols spells every punctuation and operator token. The lexer reads it
// longest match first; diagnostics quote it.
var symbols = map[TokenType]string{
	LBRACE: "{", RBRACE: "}", LPAREN: "(", RPAREN: ")",
	SEMICOLON: ";", COLON: ":", COMMA: ",", ASSIGN: "=",
	PLUS: "+", MINUS: "-", STAR: "*", SLASH: "/",
	EQUALS: "==", NOT_EQ: "!=", LESS: "<", GREATER: ">", LESS_EQ: "<=", GREATER_EQ: ">=",
}

// Token is a single lexical unit produced by the Lexer.
type Token struct {
	Type   TokenType
	Lexeme string // source text; for STRING the raw text between the quotes
	Line   int    // 1-based source line
}

func (t Token) String() string {
	return fmt.Sprintf("%-11s %-14q  line %d", t.Type, t.Lexeme, t.Line)
}
