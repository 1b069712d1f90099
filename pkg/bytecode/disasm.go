package bytecode

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Instruction is one decoded instruction.
type Instruction struct {
	Addr     int64
	Op       Opcode
	Operands []int64
	// Text holds the characters of an s_constant.
	Text []rune
}

// TypedFunc reports whether the built-in with the given id is followed by a
// value-type word when invoked through use.
type TypedFunc func(id int64) bool

// Instructions splits code into instructions. typed may be nil, in which
// case no use instruction carries a type word.
func Instructions(code []int64, typed TypedFunc) ([]Instruction, error) {
	var out []Instruction
	ip := 0
	for ip < len(code) {
		op := Opcode(code[ip])
		if !op.Valid() {
			return out, fmt.Errorf("bad opcode %d at %d", code[ip], ip)
		}
		ins := Instruction{Addr: int64(ip), Op: op}
		ip++

		if op == OpSConstant {
			for ip < len(code) && code[ip] != 0 {
				ins.Text = append(ins.Text, rune(code[ip]))
				ip++
			}
			if ip >= len(code) {
				return out, fmt.Errorf("unterminated s_constant at %d", ins.Addr)
			}
			ip++ // terminator
			out = append(out, ins)
			continue
		}

		n := op.Operands()
		if op == OpUse && ip < len(code) && typed != nil && typed(code[ip]) {
			n++
		}
		if ip+n > len(code) {
			return out, fmt.Errorf("%s at %d is missing operands", op, ins.Addr)
		}
		ins.Operands = append([]int64(nil), code[ip:ip+n]...)
		ip += n
		out = append(out, ins)
	}
	return out, nil
}

// String renders the instruction in the listing format read by pkg/asm.
func (ins Instruction) String() string {
	var sb strings.Builder
	sb.WriteString(ins.Op.String())
	switch ins.Op {
	case OpSConstant:
		sb.WriteString(" ")
		sb.WriteString(strconv.Quote(string(ins.Text)))
	case OpFConstant:
		f := math.Float64frombits(uint64(ins.Operands[0]))
		sb.WriteString(" ")
		sb.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	case OpUse:
		fmt.Fprintf(&sb, " %d", ins.Operands[0])
		if len(ins.Operands) > 1 {
			sb.WriteString(" ")
			sb.WriteString(ValueType(ins.Operands[1]).String())
		}
	default:
		for _, o := range ins.Operands {
			fmt.Fprintf(&sb, " %d", o)
		}
	}
	return sb.String()
}

// Disassemble writes one "addr: instruction" line per instruction to w.
func Disassemble(code []int64, typed TypedFunc, w io.Writer) error {
	instrs, err := Instructions(code, typed)
	for _, ins := range instrs {
		if _, werr := fmt.Fprintf(w, "%d: %s\n", ins.Addr, ins); werr != nil {
			return werr
		}
	}
	return err
}
