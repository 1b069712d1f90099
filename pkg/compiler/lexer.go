package compiler

import (
	"fmt"
	"unicode"
)

// keywords maps reserved words, including the type names, to their kinds.
var keywords = map[string]TokenType{
	"fn":         FN,
	"let":        LET,
	"if":         IF,
	"else":       ELSE,
	"while":      WHILE,
	"return":     RETURN,
	"break":      BREAK,
	"void":       VOID,
	"and":        AND,
	"or":         OR,
	"int":        INT_TYPE,
	"float":      FLOAT_TYPE,
	"string":     STRING_TYPE,
	"vec_int":    VEC_INT,
	"vec_float":  VEC_FLOAT,
	"vec_string": VEC_STRING,
}

// oneRune and twoRune invert symbols by length, so that two-rune operators
// are tried before their one-rune prefixes.
var oneRune, twoRune = func() (map[string]TokenType, map[string]TokenType) {
	one := make(map[string]TokenType)
	two := make(map[string]TokenType)
	for tt, s := range symbols {
		if len([]rune(s)) == 2 {
			two[s] = tt
		} else {
			one[s] = tt
		}
	}
	return one, two
}()

// LexError is the first character sequence that is not a VSL token.
type LexError struct {
	Line int
	Msg  string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%s on line %d", e.Msg, e.Line)
}

// Lexer holds the state of one scan over src.
type Lexer struct {
	src  []rune
	pos  int
	line int
}

func newLexer(src string) *Lexer {
	return &Lexer{src: []rune(src), line: 1}
}

func (l *Lexer) atEnd() bool {
	return l.pos >= len(l.src)
}

// peekAt returns the rune n positions ahead, or 0 past the end.
func (l *Lexer) peekAt(n int) rune {
	if l.pos+n >= len(l.src) {
		return 0
	}
	return l.src[l.pos+n]
}

func (l *Lexer) advance() rune {
	r := l.peekAt(0)
	if l.atEnd() {
		return r
	}
	l.pos++
	if r == '\n' {
		l.line++
	}
	return r
}

// skipTrivia skips whitespace and // comments.
func (l *Lexer) skipTrivia() {
	for !l.atEnd() {
		switch r := l.peekAt(0); {
		case unicode.IsSpace(r):
			l.advance()
		case r == '/' && l.peekAt(1) == '/':
			for !l.atEnd() && l.peekAt(0) != '\n' {
				l.advance()
			}
		default:
			return
		}
	}
}

// takeWhile consumes runes while keep holds and returns them.
func (l *Lexer) takeWhile(keep func(rune) bool) string {
	start := l.pos
	for !l.atEnd() && keep(l.peekAt(0)) {
		l.advance()
	}
	return string(l.src[start:l.pos])
}

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (l *Lexer) word() Token {
	tok := Token{Type: IDENTIFIER, Line: l.line}
	tok.Lexeme = l.takeWhile(isIdentRune)
	if kw, ok := keywords[tok.Lexeme]; ok {
		tok.Type = kw
	}
	return tok
}

// number scans digits, and a fraction when '.' is followed by a digit. A '.'
// without one is left for the caller to reject.
func (l *Lexer) number() Token {
	tok := Token{Type: INTEGER, Line: l.line}
	lexeme := l.takeWhile(unicode.IsDigit)
	if l.peekAt(0) == '.' && unicode.IsDigit(l.peekAt(1)) {
		l.advance()
		lexeme += "." + l.takeWhile(unicode.IsDigit)
		tok.Type = FLOAT
	}
	tok.Lexeme = lexeme
	return tok
}

// str scans a string literal. The lexeme is the text between the quotes with
// escapes left in; a backslash only keeps the next rune from closing it.
func (l *Lexer) str() (Token, error) {
	line := l.line
	l.advance()
	start := l.pos
	for {
		switch l.peekAt(0) {
		case '"':
			raw := string(l.src[start:l.pos])
			l.advance()
			return Token{Type: STRING, Lexeme: raw, Line: line}, nil
		case '\\':
			l.advance()
		}
		if l.atEnd() || l.peekAt(0) == '\n' {
			return Token{}, &LexError{Line: line, Msg: "unterminated string literal"}
		}
		l.advance()
	}
}

func (l *Lexer) symbol() (Token, error) {
	line := l.line
	if l.pos+1 < len(l.src) {
		if tt, ok := twoRune[string(l.src[l.pos:l.pos+2])]; ok {
			l.advance()
			l.advance()
			return Token{Type: tt, Lexeme: symbols[tt], Line: line}, nil
		}
	}
	r := l.advance()
	if tt, ok := oneRune[string(r)]; ok {
		return Token{Type: tt, Lexeme: symbols[tt], Line: line}, nil
	}
	return Token{}, &LexError{Line: line, Msg: fmt.Sprintf("unexpected character %q", r)}
}

func (l *Lexer) next() (Token, error) {
	l.skipTrivia()
	r := l.peekAt(0)
	switch {
	case l.atEnd():
		return Token{Type: EOF, Line: l.line}, nil
	case r == '_' || unicode.IsLetter(r):
		return l.word(), nil
	case unicode.IsDigit(r):
		return l.number(), nil
	case r == '"':
		return l.str()
	}
	return l.symbol()
}

// Lex tokenises src. The result always ends with EOF unless an error is
// returned, in which case it holds the tokens before the offending text.
func Lex(src string) ([]Token, error) {
	l := newLexer(src)
	var tokens []Token
	for {
		tok, err := l.next()
		if err != nil {
			return tokens, err
		}
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			return tokens, nil
		}
	}
}
