package bytecode

import (
	"math"
	"strings"
	"testing"
)

func typedPrint(id int64) bool { return id == 0 || id == 1 }

func TestInstructions(t *testing.T) {
	code := []int64{
		34, 3, 0,
		26, 'o', 'k', 0,
		39, 0, 3,
		39, 8,
		15, int64(math.Float64bits(2.5)),
		40,
	}
	instrs, err := Instructions(code, typedPrint)
	if err != nil {
		t.Fatal(err)
	}
	var addrs []int64
	var lines []string
	for _, ins := range instrs {
		addrs = append(addrs, ins.Addr)
		lines = append(lines, ins.String())
	}
	wantAddrs := []int64{0, 3, 7, 10, 12, 14}
	wantLines := []string{"call 3 0", `s_constant "ok"`, "use 0 string", "use 8", "f_constant 2.5", "halt"}
	for i := range wantLines {
		if i >= len(instrs) {
			t.Fatalf("got %d instructions, want %d", len(instrs), len(wantLines))
		}
		if addrs[i] != wantAddrs[i] || lines[i] != wantLines[i] {
			t.Errorf("instruction %d = %d %q, want %d %q", i, addrs[i], lines[i], wantAddrs[i], wantLines[i])
		}
	}

	// without a typed func use never carries a type word
	instrs, err = Instructions([]int64{39, 0, 40}, nil)
	if err != nil || len(instrs) != 2 || instrs[1].Op != OpHalt {
		t.Errorf("untyped decode = %v, %v", instrs, err)
	}
}

func TestInstructionsErrors(t *testing.T) {
	tests := []struct {
		name string
		code []int64
	}{
		{"bad opcode", []int64{40, 77}},
		{"unterminated string", []int64{26, 'a', 'b'}},
		{"missing operands", []int64{34, 3}},
		{"missing type word", []int64{39, 0}},
	}
	for _, tc := range tests {
		if _, err := Instructions(tc.code, typedPrint); err == nil {
			t.Errorf("%s: expected an error", tc.name)
		}
	}
}

func TestDisassemble(t *testing.T) {
	var sb strings.Builder
	err := Disassemble([]int64{34, 3, 0, 2, 1, 40}, typedPrint, &sb)
	if err != nil {
		t.Fatal(err)
	}
	want := "0: call 3 0\n3: local_load 1\n5: halt\n"
	if sb.String() != want {
		t.Errorf("Disassemble() =\n%s\nwant\n%s", sb.String(), want)
	}

	sb.Reset()
	if err := Disassemble([]int64{40, 0}, nil, &sb); err == nil {
		t.Error("expected an error for a bad opcode")
	}
	if sb.String() != "0: halt\n" {
		t.Errorf("instructions before the error not written: %q", sb.String())
	}
}
