package compiler

import (
	"fmt"
	"io"
	"os"

	"vslc/pkg/bytecode"
	"vslc/pkg/stdlib"
)

// Compiler holds all state of one compilation. It is single use.
type Compiler struct {
	tokens   []Token
	pos      int
	buf      *bytecode.Buffer
	syms     *SymbolTable
	builtins *stdlib.Table
	diag     *diagnostics

	fn        *Function // signature of the function being compiled
	depth     int       // -1 outside functions, 0 for a function body
	nextSlot  int64
	locals    []int64 // slots declared so far in fn, in declaration order
	returns   int     // returns seen at depth 0 of fn
	loopDepth int
}

// Option configures a compilation.
type Option func(*Compiler)

// WithOutput sends diagnostics to w instead of os.Stdout. A nil w only
// collects them in Result.Diagnostics.
func WithOutput(w io.Writer) Option {
	return func(c *Compiler) { c.diag.out = w }
}

// WithBuiltins compiles against t instead of stdlib.Default().
func WithBuiltins(t *stdlib.Table) Option {
	return func(c *Compiler) { c.builtins = t }
}

// Result is the outcome of a compilation. Code is always produced; it is
// only meant to be run when HadError is false.
type Result struct {
	Code        []int64
	HadError    bool
	Functions   map[string]Function
	Diagnostics []Diagnostic
	Symbols     *SymbolTable
}

// Compile lexes and compiles src. The error is non-nil only when src cannot
// be tokenised; problems in the program itself are diagnostics.
func Compile(src string, opts ...Option) (*Result, error) {
	tokens, err := Lex(src)
	if err != nil {
		return nil, fmt.Errorf("lex: %w", err)
	}
	return CompileTokens(tokens, opts...), nil
}

// CompileTokens compiles an already lexed program. It runs the sizing
// prepass, emits the call to main and compiles every function in order.
func CompileTokens(tokens []Token, opts ...Option) *Result {
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != EOF {
		line := 1
		if len(tokens) > 0 {
			line = tokens[len(tokens)-1].Line
		}
		tokens = append(tokens[:len(tokens):len(tokens)], Token{Type: EOF, Line: line})
	}

	c := &Compiler{
		tokens: tokens,
		buf:    bytecode.NewBuffer(),
		syms:   NewSymbolTable(),
		diag:   &diagnostics{out: os.Stdout},
		depth:  -1,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.builtins == nil {
		c.builtins = stdlib.Default()
	}

	c.indexFunctions()
	if entry, ok := c.syms.Function("main"); ok {
		c.buf.Emit(bytecode.OpCall, entry.Address, 0)
	} else {
		c.diag.report(0, "No main function found in program")
	}

	for !c.atEnd() {
		c.fnDecl()
	}

	return &Result{
		Code:        c.buf.Words(),
		HadError:    c.diag.hadError,
		Functions:   c.syms.Functions(),
		Diagnostics: c.diag.list,
		Symbols:     c.syms,
	}
}
