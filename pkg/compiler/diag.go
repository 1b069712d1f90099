package compiler

import (
	"fmt"
	"io"
)

// Diagnostic is one problem found in the compiled program. Line is 0 for
// problems that belong to no single line.
type Diagnostic struct {
	Line    int
	Message string
}

func (d Diagnostic) String() string {
	if d.Line > 0 {
		return fmt.Sprintf("%s on line %d.", d.Message, d.Line)
	}
	return d.Message + "."
}

// diagnostics prints each problem as it is found and keeps the sticky error
// flag. Reporting never stops the compile.
type diagnostics struct {
	out      io.Writer
	list     []Diagnostic
	hadError bool
}

func (d *diagnostics) report(line int, format string, args ...any) {
	diag := Diagnostic{Line: line, Message: fmt.Sprintf(format, args...)}
	d.list = append(d.list, diag)
	d.hadError = true
	if d.out != nil {
		fmt.Fprintln(d.out, diag)
	}
}
