package asm

import (
	"math"
	"reflect"
	"strings"
	"testing"

	"vslc/pkg/bytecode"
)

// words builds an expected program from opcodes and raw operand words.
func words(ws ...int64) []int64 {
	return ws
}

func op(o bytecode.Opcode) int64 {
	return int64(o)
}

func TestHelperFunctions(t *testing.T) {
	// Test isIdentifier
	tests := []struct {
		input string
		want  bool
	}{
		{"abc", true},
		{"_abc", true},
		{"abc1", true},
		{"1abc", false},
		{"", false},
		{"ab-c", false},
	}
	for _, tc := range tests {
		if got := isIdentifier(tc.input); got != tc.want {
			t.Errorf("isIdentifier(%q) = %v; want %v", tc.input, got, tc.want)
		}
	}

	// Test normalizeLabel
	if got := normalizeLabel("label"); got != "LABEL" {
		t.Errorf("normalizeLabel(\"label\") = %q; want \"LABEL\"", got)
	}

	// Test instructionLength (in words)
	lenTests := []struct {
		line    parsedLine
		wantLen int64
		wantErr bool
	}{
		{parsedLine{mnemonic: "halt"}, 1, false},
		{parsedLine{mnemonic: "i_constant", operands: []string{"5"}}, 2, false},
		{parsedLine{mnemonic: "call", operands: []string{"main", "0"}}, 3, false},
		{parsedLine{mnemonic: "use", operands: []string{"2"}}, 2, false},
		{parsedLine{mnemonic: "use", operands: []string{"0", "int"}}, 3, false},
		{parsedLine{mnemonic: "s_constant", operands: []string{"ab"}}, 4, false},
		{parsedLine{mnemonic: ".word", operands: []string{"7"}}, 1, false},
		{parsedLine{mnemonic: "jump"}, 0, true},
		{parsedLine{mnemonic: "invalid"}, 0, true},
	}
	for _, tc := range lenTests {
		gotLen, err := instructionLength(tc.line)
		if (err != nil) != tc.wantErr || gotLen != tc.wantLen {
			t.Errorf("instructionLength(%v) = %d, %v; want %d, err %v", tc.line, gotLen, err, tc.wantLen, tc.wantErr)
		}
	}
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		line    string
		want    parsedLine
		wantErr bool
	}{
		{
			"i_constant 5",
			parsedLine{lineNo: 1, addr: -1, mnemonic: "i_constant", operands: []string{"5"}},
			false,
		},
		{
			"  CALL main, 0  ; comment",
			parsedLine{lineNo: 1, addr: -1, mnemonic: "call", operands: []string{"main", "0"}},
			false,
		},
		{
			"12: local_store 0 // trailing",
			parsedLine{lineNo: 1, addr: 12, mnemonic: "local_store", operands: []string{"0"}},
			false,
		},
		{
			"START: halt",
			parsedLine{lineNo: 1, addr: -1, labels: []string{"START"}, mnemonic: "halt"},
			false,
		},
		{
			"LABEL1: LABEL2: return_non_val",
			parsedLine{lineNo: 1, addr: -1, labels: []string{"LABEL1", "LABEL2"}, mnemonic: "return_non_val"},
			false,
		},
		{
			`s_constant "a; b: c\n"`,
			parsedLine{lineNo: 1, addr: -1, mnemonic: "s_constant", operands: []string{"a; b: c\n"}},
			false,
		},
		{
			"use 0 float",
			parsedLine{lineNo: 1, addr: -1, mnemonic: "use", operands: []string{"0", "float"}},
			false,
		},
		// Invalid cases
		{
			"1LABEL: halt",
			parsedLine{lineNo: 1},
			true,
		},
		{
			"main: 4: halt",
			parsedLine{lineNo: 1},
			true,
		},
		{
			`s_constant "unterminated`,
			parsedLine{lineNo: 1},
			true,
		},
		{
			"s_constant missing_quote",
			parsedLine{lineNo: 1},
			true,
		},
	}

	for _, tc := range tests {
		got, err := parseLine(tc.line, 1)
		if (err != nil) != tc.wantErr {
			t.Errorf("parseLine(%q) error = %v, wantErr %v", tc.line, err, tc.wantErr)
			continue
		}
		if !tc.wantErr {
			if got.lineNo != tc.want.lineNo || got.addr != tc.want.addr {
				t.Errorf("parseLine(%q) lineNo/addr = %d/%d, want %d/%d", tc.line, got.lineNo, got.addr, tc.want.lineNo, tc.want.addr)
			}
			if got.mnemonic != tc.want.mnemonic {
				t.Errorf("parseLine(%q) mnemonic = %q, want %q", tc.line, got.mnemonic, tc.want.mnemonic)
			}
			if !reflect.DeepEqual(got.labels, tc.want.labels) && !(len(got.labels) == 0 && len(tc.want.labels) == 0) {
				t.Errorf("parseLine(%q) labels = %v, want %v", tc.line, got.labels, tc.want.labels)
			}
			if !reflect.DeepEqual(got.operands, tc.want.operands) && !(len(got.operands) == 0 && len(tc.want.operands) == 0) {
				t.Errorf("parseLine(%q) operands = %v, want %v", tc.line, got.operands, tc.want.operands)
			}
		}
	}
}

func TestAssemble(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		want    []int64
		wantErr bool
	}{
		{
			"Basic Instructions",
			`
			i_constant 10
			i_constant 3
			i_add
			halt
			`,
			words(op(bytecode.OpIConstant), 10, op(bytecode.OpIConstant), 3, op(bytecode.OpIAdd), op(bytecode.OpHalt)),
			false,
		},
		{
			"Labels and Jumps",
			// call main 0   -> words 0-2
			// main:         -> addr 3
			// i_constant 1  -> words 3-4
			// jump_if_false done -> words 5-6, target = 9
			// jump main     -> words 7-8, target = 3
			// done: halt    -> word 9
			`
			call main 0
			main:
			i_constant 1
			jump_if_false done
			jump main
			done: halt
			`,
			words(
				op(bytecode.OpCall), 3, 0,
				op(bytecode.OpIConstant), 1,
				op(bytecode.OpJumpIfFalse), 9,
				op(bytecode.OpJump), 3,
				op(bytecode.OpHalt),
			),
			false,
		},
		{
			"Address Prefixes",
			`
			0: call 3 0
			3: return_non_val
			`,
			words(op(bytecode.OpCall), 3, 0, op(bytecode.OpReturnNonVal)),
			false,
		},
		{
			"Strings Floats and Use",
			`
			s_constant "a\nb"
			use 0 string
			f_constant 1.5
			use 0 2
			use 4
			`,
			words(
				op(bytecode.OpSConstant), 'a', 10, 'b', 0,
				op(bytecode.OpUse), 0, int64(bytecode.TypeString),
				op(bytecode.OpFConstant), int64(math.Float64bits(1.5)),
				op(bytecode.OpUse), 0, int64(bytecode.TypeFloat),
				op(bytecode.OpUse), 4,
			),
			false,
		},
		{
			".word",
			`
			.word -7
			`,
			words(-7),
			false,
		},
		{
			"Wrong Address Prefix",
			`
			0: halt
			2: halt
			`,
			nil,
			true,
		},
		{
			"Undefined Label",
			"jump nowhere",
			nil,
			true,
		},
		{
			"Duplicate Label",
			"x: halt\nx: halt",
			nil,
			true,
		},
		{
			"Operand Count",
			"call 3",
			nil,
			true,
		},
		{
			"Bad Value Type",
			"use 0 matrix",
			nil,
			true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, _, err := Assemble(tc.code)
			if (err != nil) != tc.wantErr {
				t.Fatalf("Assemble() error = %v, wantErr %v", err, tc.wantErr)
			}
			if !tc.wantErr && !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Assemble() = %v, want %v", got, tc.want)
			}
		})
	}
}

// A disassembled listing assembles back to the same words.
func TestDisassemblyRoundTrip(t *testing.T) {
	program := words(
		op(bytecode.OpCall), 3, 0,
		op(bytecode.OpSConstant), 'h', 'i', ';', ' ', '"', 10, 0,
		op(bytecode.OpUse), 0, int64(bytecode.TypeString),
		op(bytecode.OpFConstant), int64(math.Float64bits(-0.25)),
		op(bytecode.OpLocalStore), 0,
		op(bytecode.OpPop), 0,
		op(bytecode.OpHalt),
	)
	typed := func(id int64) bool { return id == 0 }

	var sb strings.Builder
	if err := bytecode.Disassemble(program, typed, &sb); err != nil {
		t.Fatalf("Disassemble: %v", err)
	}
	got, _, err := Assemble(sb.String())
	if err != nil {
		t.Fatalf("Assemble(%q): %v", sb.String(), err)
	}
	if !reflect.DeepEqual(got, program) {
		t.Errorf("round trip = %v, want %v", got, program)
	}
}
