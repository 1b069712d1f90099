// Command vslc compiles a VSL program to bytecode.
//
//	vslc -in prog.vsl                  writes ./program
//	vslc -in prog.vsl -disasm -symbols also prints the listing and symbols
//	vslc -in prog.vasm -out prog.bin   assembles a listing instead
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"vslc/pkg/asm"
	"vslc/pkg/bytecode"
	"vslc/pkg/compiler"
	"vslc/pkg/stdlib"
	"vslc/pkg/utils"
)

type options struct {
	in      string
	out     string
	stdlib  string
	tokens  bool
	disasm  bool
	symbols bool
	color   string
}

func main() {
	var opts options
	flag.StringVar(&opts.in, "in", "", "input file: VSL source, or a "+utils.ListingExt+" listing to assemble")
	flag.StringVar(&opts.out, "out", bytecode.DefaultArtifact, "output bytecode file path")
	flag.StringVar(&opts.stdlib, "stdlib", "", "YAML built-in table (default: the embedded table)")
	flag.BoolVar(&opts.tokens, "tokens", false, "print the token stream")
	flag.BoolVar(&opts.disasm, "disasm", false, "print a disassembly of the produced bytecode")
	flag.BoolVar(&opts.symbols, "symbols", false, "print the function table after compiling")
	flag.StringVar(&opts.color, "color", "auto", "colour diagnostics: auto, always or never")
	flag.Parse()

	if opts.in == "" {
		fmt.Fprintln(os.Stderr, "nothing to do: provide -in <file>")
		flag.Usage()
		os.Exit(2)
	}
	os.Exit(run(opts, os.Stdout, os.Stderr))
}

// run performs one invocation and returns the exit status: 0 on success, 1
// when the program had errors or a file could not be read or written, 2 on
// bad flags.
func run(opts options, stdout, stderr io.Writer) int {
	in, err := utils.ResolveInput(opts.in)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	builtins := stdlib.Default()
	if opts.stdlib != "" {
		if builtins, err = stdlib.LoadFile(opts.stdlib); err != nil {
			fmt.Fprintf(stderr, "failed to load built-in table: %v\n", err)
			return 1
		}
	}

	colored, err := useColor(opts.color, stdout)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	source, err := os.ReadFile(in.FullPath)
	if err != nil {
		fmt.Fprintf(stderr, "failed to read input file %q: %v\n", opts.in, err)
		return 1
	}

	var code []int64
	switch in.Kind {
	case utils.KindListing:
		code, _, err = asm.Assemble(string(source))
		if err != nil {
			fmt.Fprintf(stderr, "assembly failed: %v\n", err)
			return 1
		}

	default:
		tokens, err := compiler.Lex(string(source))
		if err != nil {
			fmt.Fprintf(stderr, "compilation failed: %v\n", err)
			return 1
		}
		if opts.tokens {
			fmt.Fprintf(stdout, "Tokens (%d)\n", len(tokens))
			for _, tok := range tokens {
				fmt.Fprintln(stdout, " ", tok)
			}
			fmt.Fprintln(stdout)
		}

		var diagOut io.Writer = stdout
		if colored {
			diagOut = &colorWriter{w: stdout, color: ansiRed}
		}
		res := compiler.CompileTokens(tokens, compiler.WithOutput(diagOut), compiler.WithBuiltins(builtins))
		if opts.symbols {
			fmt.Fprint(stdout, res.Symbols)
			fmt.Fprintln(stdout)
		}
		if res.HadError {
			fmt.Fprintf(stderr, "compilation failed with %d error(s); %s not written\n", len(res.Diagnostics), opts.out)
			return 1
		}
		code = res.Code
	}

	if opts.disasm {
		if err := bytecode.Disassemble(code, builtins.Typed, stdout); err != nil {
			fmt.Fprintf(stderr, "disassembly failed: %v\n", err)
			return 1
		}
		fmt.Fprintln(stdout)
	}

	if err := bytecode.WriteFile(opts.out, code); err != nil {
		fmt.Fprintf(stderr, "failed to write bytecode file %q: %v\n", opts.out, err)
		return 1
	}
	fmt.Fprintf(stdout, "%s %d words (%d bytes) -> %s\n", verb(in.Kind), len(code), len(code)*bytecode.WordSize, opts.out)
	return 0
}

func verb(k utils.InputKind) string {
	if k == utils.KindListing {
		return "assembled"
	}
	return "compiled"
}

const (
	ansiRed   = "\x1b[31m"
	ansiReset = "\x1b[0m"
)

// colorWriter wraps every write in an ANSI colour. The compiler writes one
// diagnostic per call.
type colorWriter struct {
	w     io.Writer
	color string
}

func (c *colorWriter) Write(p []byte) (int, error) {
	if _, err := io.WriteString(c.w, c.color); err != nil {
		return 0, err
	}
	n, err := c.w.Write(p)
	if err != nil {
		return n, err
	}
	_, err = io.WriteString(c.w, ansiReset)
	return n, err
}

// useColor decides whether diagnostics written to w are coloured.
func useColor(mode string, w io.Writer) (bool, error) {
	switch mode {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "auto", "":
		f, ok := w.(*os.File)
		return ok && isTerminal(f.Fd()), nil
	}
	return false, fmt.Errorf("invalid -color %q: want auto, always or never", mode)
}
