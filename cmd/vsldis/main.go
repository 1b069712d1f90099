// Command vsldis prints a listing of a serialized VSL program. The output is
// accepted by pkg/asm, so a program can be edited and reassembled with
// vslc -in file.vasm.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"vslc/pkg/bytecode"
	"vslc/pkg/stdlib"
)

func main() {
	stdlibPath := flag.String("stdlib", "", "YAML built-in table the program was compiled against")
	names := flag.Bool("names", true, "annotate use instructions with the built-in name")
	flag.Parse()

	path := bytecode.DefaultArtifact
	if flag.NArg() > 0 {
		path = flag.Arg(0)
	}

	builtins := stdlib.Default()
	if *stdlibPath != "" {
		var err error
		if builtins, err = stdlib.LoadFile(*stdlibPath); err != nil {
			fmt.Fprintln(os.Stderr, "load error:", err)
			os.Exit(1)
		}
	}

	code, err := bytecode.ReadFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read error:", err)
		os.Exit(1)
	}

	if err := list(os.Stdout, code, builtins, *names); err != nil {
		fmt.Fprintln(os.Stderr, "decode error:", err)
		os.Exit(1)
	}
}

// list writes one "addr: instruction" line per instruction. Instructions
// decoded before a malformed word are still written.
func list(w io.Writer, code []int64, builtins *stdlib.Table, names bool) error {
	instrs, err := bytecode.Instructions(code, builtins.Typed)
	for _, ins := range instrs {
		line := fmt.Sprintf("%d: %s", ins.Addr, ins)
		if names && ins.Op == bytecode.OpUse {
			if b, ok := builtins.ByID(ins.Operands[0]); ok {
				line += " ; " + b.Name
			}
		}
		if _, werr := fmt.Fprintln(w, line); werr != nil {
			return werr
		}
	}
	return err
}
