// Package asm assembles VSL bytecode listings, the text written by
// bytecode.Disassemble, back into words. Listings may also be written by
// hand, with labels in place of jump and call targets.
//
//	0: call main 0        ; address prefixes are optional but must be exact
//	main:
//	   i_constant 5
//	   s_constant "hi\n"
//	   use 0 string
//	   halt
package asm

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"vslc/pkg/bytecode"
)

type Assembler struct {
	labels map[string]int64
}

type parsedLine struct {
	lineNo   int
	addr     int64 // -1 when the line has no address prefix
	labels   []string
	mnemonic string
	operands []string
}

func NewAssembler() *Assembler {
	return &Assembler{
		labels: make(map[string]int64),
	}
}

// Assemble returns the program and a map from instruction address to the
// source line it came from.
func Assemble(code string) ([]int64, map[int64]int, error) {
	return NewAssembler().Assemble(code)
}

func (a *Assembler) Assemble(code string) ([]int64, map[int64]int, error) {
	lines := strings.Split(code, "\n")

	if err := a.pass1(lines); err != nil {
		return nil, nil, err
	}

	return a.pass2(lines)
}

// pass1 assigns an address to every label and checks address prefixes.
func (a *Assembler) pass1(lines []string) error {
	var address int64

	for i, raw := range lines {
		lineNo := i + 1
		p, err := parseLine(raw, lineNo)
		if err != nil {
			return err
		}

		if p.addr >= 0 && p.addr != address {
			return fmt.Errorf("address %d on line %d does not match assembled address %d", p.addr, lineNo, address)
		}

		for _, lbl := range p.labels {
			key := normalizeLabel(lbl)
			if _, exists := a.labels[key]; exists {
				return fmt.Errorf("duplicate label '%s' on line %d", lbl, lineNo)
			}
			a.labels[key] = address
		}

		if p.mnemonic == "" {
			continue
		}

		length, err := instructionLength(p)
		if err != nil {
			return err
		}
		address += length
	}

	return nil
}

func (a *Assembler) pass2(lines []string) ([]int64, map[int64]int, error) {
	program := make([]int64, 0)
	sourceMap := make(map[int64]int)

	for i, raw := range lines {
		lineNo := i + 1
		p, err := parseLine(raw, lineNo)
		if err != nil {
			return nil, nil, err
		}

		if p.mnemonic == "" {
			continue
		}

		sourceMap[int64(len(program))] = lineNo
		ops := p.operands

		if p.mnemonic == ".word" {
			val, err := a.parseImmediate(ops[0], lineNo)
			if err != nil {
				return nil, nil, err
			}
			program = append(program, val)
			continue
		}

		op, _ := bytecode.Lookup(p.mnemonic)
		program = append(program, int64(op))

		switch op {
		case bytecode.OpSConstant:
			for _, r := range ops[0] {
				program = append(program, int64(r))
			}
			program = append(program, 0)

		case bytecode.OpFConstant:
			f, err := strconv.ParseFloat(ops[0], 64)
			if err != nil {
				return nil, nil, fmt.Errorf("invalid float '%s' on line %d", ops[0], lineNo)
			}
			program = append(program, int64(math.Float64bits(f)))

		case bytecode.OpUse:
			id, err := a.parseImmediate(ops[0], lineNo)
			if err != nil {
				return nil, nil, err
			}
			program = append(program, id)
			if len(ops) == 2 {
				t, err := parseValueType(ops[1], lineNo)
				if err != nil {
					return nil, nil, err
				}
				program = append(program, int64(t))
			}

		default:
			for _, o := range ops {
				val, err := a.parseImmediate(o, lineNo)
				if err != nil {
					return nil, nil, err
				}
				program = append(program, val)
			}
		}
	}

	return program, sourceMap, nil
}

func parseLine(raw string, lineNo int) (parsedLine, error) {
	p := parsedLine{lineNo: lineNo, addr: -1}

	line := strings.TrimSpace(stripComments(raw))
	if line == "" {
		return p, nil
	}

	for {
		// colons inside a string operand are not label separators
		limit := strings.IndexByte(line, '"')
		if limit < 0 {
			limit = len(line)
		}
		colon := strings.IndexByte(line[:limit], ':')
		if colon <= 0 {
			break
		}

		beforeColon := strings.TrimSpace(line[:colon])
		if strings.ContainsAny(beforeColon, " \t") {
			break
		}

		switch {
		case isAddress(beforeColon):
			if p.addr >= 0 || len(p.labels) > 0 {
				return p, fmt.Errorf("address '%s' must start line %d", beforeColon, lineNo)
			}
			addr, err := strconv.ParseInt(beforeColon, 10, 64)
			if err != nil {
				return p, fmt.Errorf("invalid address '%s' on line %d", beforeColon, lineNo)
			}
			p.addr = addr
		case isIdentifier(beforeColon):
			p.labels = append(p.labels, beforeColon)
		default:
			return p, fmt.Errorf("invalid label '%s' on line %d", beforeColon, lineNo)
		}

		line = strings.TrimSpace(line[colon+1:])
		if line == "" {
			return p, nil
		}
	}

	fields := strings.Fields(line)
	p.mnemonic = strings.ToLower(fields[0])
	rest := strings.TrimSpace(line[len(fields[0]):])

	if p.mnemonic == "s_constant" {
		text, err := strconv.Unquote(rest)
		if err != nil {
			return p, fmt.Errorf("invalid string literal on line %d", lineNo)
		}
		p.operands = []string{text}
		return p, nil
	}

	rest = normalizeInstructionText(rest)
	if f := strings.Fields(rest); len(f) > 0 {
		p.operands = f
	}
	return p, nil
}

// stripComments cuts a ';' or '//' comment that is not inside a string.
func stripComments(line string) string {
	inString := false
	escaped := false
	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case escaped:
			escaped = false
		case inString && ch == '\\':
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == ';':
			return line[:i]
		case ch == '/' && i+1 < len(line) && line[i+1] == '/':
			return line[:i]
		}
	}
	return line
}

func normalizeInstructionText(line string) string {
	replacer := strings.NewReplacer(",", " ")
	return replacer.Replace(line)
}

func parseValueType(token string, lineNo int) (bytecode.ValueType, error) {
	if n, err := strconv.ParseInt(token, 10, 64); err == nil {
		return bytecode.ValueType(n), nil
	}
	t, err := bytecode.ParseValueType(token)
	if err != nil {
		return 0, fmt.Errorf("invalid value type '%s' on line %d", token, lineNo)
	}
	return t, nil
}

func (a *Assembler) parseImmediate(token string, lineNo int) (int64, error) {
	if value, err := strconv.ParseInt(token, 0, 64); err == nil {
		return value, nil
	}

	label := normalizeLabel(token)
	if addr, ok := a.labels[label]; ok {
		return addr, nil
	}

	if isIdentifier(token) {
		return 0, fmt.Errorf("undefined label '%s' on line %d", token, lineNo)
	}

	return 0, fmt.Errorf("invalid immediate '%s' on line %d", token, lineNo)
}

// instructionLength returns the number of words the line assembles to and
// checks its operand count.
func instructionLength(p parsedLine) (int64, error) {
	n := len(p.operands)

	if p.mnemonic == ".word" {
		if n != 1 {
			return 0, fmt.Errorf(".word expects exactly one operand on line %d", p.lineNo)
		}
		return 1, nil
	}

	op, ok := bytecode.Lookup(p.mnemonic)
	if !ok {
		return 0, fmt.Errorf("unknown instruction on line %d: %s", p.lineNo, p.mnemonic)
	}

	switch op {
	case bytecode.OpSConstant:
		return bytecode.StringWidth(len([]rune(p.operands[0]))), nil
	case bytecode.OpUse:
		if n != 1 && n != 2 {
			return 0, fmt.Errorf("use expects 1 or 2 operands on line %d", p.lineNo)
		}
		return bytecode.Width(op) + int64(n-1), nil
	}

	if n != op.Operands() {
		return 0, fmt.Errorf("%s expects %d operands on line %d", op, op.Operands(), p.lineNo)
	}
	return bytecode.Width(op), nil
}

func isAddress(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		if i == 0 {
			if !unicode.IsLetter(r) && r != '_' {
				return false
			}
			continue
		}

		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}

	return true
}

func normalizeLabel(label string) string {
	return strings.ToUpper(label)
}
