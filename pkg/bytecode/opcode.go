// Package bytecode defines the VSL instruction set shared by every tool in
// this repository: the compiler's emitter and sizing prepass, the
// serializer, the disassembler and the listing assembler.
//
// A program is a flat sequence of signed 64-bit words. Every opcode and every
// immediate operand occupies exactly one word.
package bytecode

import (
	"fmt"
	"strings"
)

// Opcode is the first word of every instruction.
type Opcode int64

const (
	OpPop        Opcode = 1
	OpLocalLoad  Opcode = 2
	OpLocalStore Opcode = 3

	OpIConstant     Opcode = 4
	OpIAdd          Opcode = 5
	OpISub          Opcode = 6
	OpIMul          Opcode = 7
	OpIDiv          Opcode = 8
	OpIEqual        Opcode = 9
	OpILess         Opcode = 10
	OpIGreater      Opcode = 11
	OpINotEqual     Opcode = 12
	OpILessEqual    Opcode = 13
	OpIGreaterEqual Opcode = 14

	OpFConstant     Opcode = 15
	OpFAdd          Opcode = 16
	OpFSub          Opcode = 17
	OpFMul          Opcode = 18
	OpFDiv          Opcode = 19
	OpFEqual        Opcode = 20
	OpFLess         Opcode = 21
	OpFGreater      Opcode = 22
	OpFNotEqual     Opcode = 23
	OpFLessEqual    Opcode = 24
	OpFGreaterEqual Opcode = 25

	OpSConstant Opcode = 26
	OpSAdd      Opcode = 27
	OpSEqual    Opcode = 28
	OpSNotEqual Opcode = 29

	OpAnd Opcode = 30
	OpOr  Opcode = 31

	OpJumpIfFalse Opcode = 32
	OpJump        Opcode = 33

	OpCall         Opcode = 34
	OpReturnVal    Opcode = 35
	OpReturnNonVal Opcode = 36
	OpArgLoad      Opcode = 37
	OpArgStore     Opcode = 38

	OpUse Opcode = 39

	OpHalt Opcode = 40

	numOpcodes = OpHalt + 1
)

type opInfo struct {
	name     string
	operands int
}

// opTable is indexed by Opcode. Operand counts are the fixed immediates that
// follow the opcode word. s_constant is followed by a zero-terminated run of
// character words instead; use carries one extra value-type word for
// built-ins that take one (see stdlib.Builtin.TypeOperand).
var opTable = [...]opInfo{
	OpPop:        {"pop", 1},
	OpLocalLoad:  {"local_load", 1},
	OpLocalStore: {"local_store", 1},

	OpIConstant:     {"i_constant", 1},
	OpIAdd:          {"i_add", 0},
	OpISub:          {"i_sub", 0},
	OpIMul:          {"i_mul", 0},
	OpIDiv:          {"i_div", 0},
	OpIEqual:        {"i_equal", 0},
	OpILess:         {"i_less", 0},
	OpIGreater:      {"i_greater", 0},
	OpINotEqual:     {"i_not_equal", 0},
	OpILessEqual:    {"i_less_equal", 0},
	OpIGreaterEqual: {"i_greater_equal", 0},

	OpFConstant:     {"f_constant", 1},
	OpFAdd:          {"f_add", 0},
	OpFSub:          {"f_sub", 0},
	OpFMul:          {"f_mul", 0},
	OpFDiv:          {"f_div", 0},
	OpFEqual:        {"f_equal", 0},
	OpFLess:         {"f_less", 0},
	OpFGreater:      {"f_greater", 0},
	OpFNotEqual:     {"f_not_equal", 0},
	OpFLessEqual:    {"f_less_equal", 0},
	OpFGreaterEqual: {"f_greater_equal", 0},

	OpSConstant: {"s_constant", 0},
	OpSAdd:      {"s_add", 0},
	OpSEqual:    {"s_equal", 0},
	OpSNotEqual: {"s_not_equal", 0},

	OpAnd: {"and", 0},
	OpOr:  {"or", 0},

	OpJumpIfFalse: {"jump_if_false", 1},
	OpJump:        {"jump", 1},

	OpCall:         {"call", 2},
	OpReturnVal:    {"return_val", 0},
	OpReturnNonVal: {"return_non_val", 0},
	OpArgLoad:      {"arg_load", 1},
	OpArgStore:     {"arg_store", 1},

	OpUse: {"use", 1},

	OpHalt: {"halt", 0},
}

// Fails to compile if an opcode is added without a table entry.
var _ = [1]struct{}{}[len(opTable)-int(numOpcodes)]

var byName = func() map[string]Opcode {
	m := make(map[string]Opcode, len(opTable))
	for i, info := range opTable {
		if info.name != "" {
			m[info.name] = Opcode(i)
		}
	}
	return m
}()

// Valid reports whether op names an instruction.
func (op Opcode) Valid() bool {
	return op > 0 && op < numOpcodes
}

// Operands returns the number of fixed immediate words following op.
func (op Opcode) Operands() int {
	if !op.Valid() {
		return 0
	}
	return opTable[op].operands
}

func (op Opcode) String() string {
	if op.Valid() {
		return opTable[op].name
	}
	return fmt.Sprintf("Opcode(%d)", int64(op))
}

// Width returns the number of words an instruction with opcode op occupies,
// excluding the character run of s_constant and the optional type word of use.
func Width(op Opcode) int64 {
	return 1 + int64(op.Operands())
}

// StringWidth returns the number of words s_constant occupies for a string of
// n characters: the opcode, one word per character and the terminator.
func StringWidth(n int) int64 {
	return Width(OpSConstant) + int64(n) + 1
}

// Lookup returns the opcode with the given mnemonic (case-insensitive).
func Lookup(mnemonic string) (Opcode, bool) {
	op, ok := byName[strings.ToLower(mnemonic)]
	return op, ok
}

// ValueType is the encoding of a VSL value type. It appears as the type
// operand of typed use instructions.
type ValueType int64

const (
	TypeVoid      ValueType = 0
	TypeInt       ValueType = 1
	TypeFloat     ValueType = 2
	TypeString    ValueType = 3
	TypeVecInt    ValueType = 4
	TypeVecFloat  ValueType = 5
	TypeVecString ValueType = 6

	// TypeAny is never encoded. It marks a built-in whose result type is
	// chosen by the expression it appears in.
	TypeAny ValueType = -1
)

var typeNames = map[ValueType]string{
	TypeVoid:      "void",
	TypeInt:       "int",
	TypeFloat:     "float",
	TypeString:    "string",
	TypeVecInt:    "vec_int",
	TypeVecFloat:  "vec_float",
	TypeVecString: "vec_string",
	TypeAny:       "any",
}

func (t ValueType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ValueType(%d)", int64(t))
}

// IsVector reports whether t is one of the vector element types.
func (t ValueType) IsVector() bool {
	return t == TypeVecInt || t == TypeVecFloat || t == TypeVecString
}

// ParseValueType is the inverse of ValueType.String.
func ParseValueType(s string) (ValueType, error) {
	for t, name := range typeNames {
		if name == strings.ToLower(s) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown value type %q", s)
}
