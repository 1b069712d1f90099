package main

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"vslc/pkg/bytecode"
)

func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunCompile(t *testing.T) {
	in := writeInput(t, "hello.vsl", `fn void main() { print("hi"); return; }`)
	out := filepath.Join(t.TempDir(), "program")

	var stdout, stderr bytes.Buffer
	status := run(options{in: in, out: out, disasm: true, symbols: true, color: "never"}, &stdout, &stderr)
	if status != 0 {
		t.Fatalf("run() = %d, stderr:\n%s", status, stderr.String())
	}

	code, err := bytecode.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	want := []int64{34, 3, 0, 26, 'h', 'i', 0, 39, 0, 3, 40}
	if !reflect.DeepEqual(code, want) {
		t.Errorf("written code = %v, want %v", code, want)
	}

	for _, s := range []string{
		"main",                    // symbols
		"3: s_constant \"hi\"\n",  // disassembly
		"7: use 0 string\n",       // typed use from the embedded table
		"compiled 11 words (88 bytes)",
	} {
		if !strings.Contains(stdout.String(), s) {
			t.Errorf("stdout missing %q:\n%s", s, stdout.String())
		}
	}
}

func TestRunCompileErrors(t *testing.T) {
	in := writeInput(t, "bad.vsl", "fn void main() {\n let x int:0 = y;\n return;\n}")
	out := filepath.Join(t.TempDir(), "program")

	var stdout, stderr bytes.Buffer
	if status := run(options{in: in, out: out, color: "always"}, &stdout, &stderr); status != 1 {
		t.Fatalf("run() = %d, want 1", status)
	}
	if got, want := stdout.String(), ansiRed+"Undeclared variable 'y' on line 2.\n"+ansiReset; got != want {
		t.Errorf("stdout = %q, want %q", got, want)
	}
	if !strings.Contains(stderr.String(), "1 error(s)") {
		t.Errorf("stderr = %q", stderr.String())
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("bytecode written despite errors: %v", err)
	}
}

func TestRunAssemble(t *testing.T) {
	in := writeInput(t, "prog.vasm", "call main 0\nmain:\nhalt\n")
	out := filepath.Join(t.TempDir(), "prog.bin")

	var stdout, stderr bytes.Buffer
	if status := run(options{in: in, out: out, color: "never"}, &stdout, &stderr); status != 0 {
		t.Fatalf("run() = %d, stderr:\n%s", status, stderr.String())
	}
	code, err := bytecode.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(code, []int64{34, 3, 0, 40}) {
		t.Errorf("written code = %v", code)
	}
	if !strings.Contains(stdout.String(), "assembled 4 words") {
		t.Errorf("stdout = %q", stdout.String())
	}
}

func TestRunCustomBuiltins(t *testing.T) {
	table := writeInput(t, "builtins.yaml", "builtins:\n  - name: beep\n    id: 3\n")
	in := writeInput(t, "beep.vsl", "fn void main() { beep(); return; }")
	out := filepath.Join(t.TempDir(), "program")

	var stdout, stderr bytes.Buffer
	if status := run(options{in: in, out: out, stdlib: table, tokens: true, color: "never"}, &stdout, &stderr); status != 0 {
		t.Fatalf("run() = %d, stderr:\n%s\nstdout:\n%s", status, stderr.String(), stdout.String())
	}
	if !strings.Contains(stdout.String(), "Tokens (") {
		t.Errorf("token dump missing:\n%s", stdout.String())
	}
	code, _ := bytecode.ReadFile(out)
	if !reflect.DeepEqual(code, []int64{34, 3, 0, 39, 3, 40}) {
		t.Errorf("written code = %v", code)
	}

	// print is not in the custom table
	in = writeInput(t, "print.vsl", `fn void main() { print(1); return; }`)
	stdout.Reset()
	if status := run(options{in: in, out: out, stdlib: table, color: "never"}, &stdout, &stderr); status != 1 {
		t.Errorf("run() with an unknown built-in = %d, want 1", status)
	}
}

func TestRunFailures(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name   string
		opts   options
		status int
	}{
		{"missing input", options{in: filepath.Join(dir, "none.vsl"), out: filepath.Join(dir, "p")}, 1},
		{"lex error", options{in: writeInput(t, "lex.vsl", "fn void main() { @ }"), out: filepath.Join(dir, "p")}, 1},
		{"bad listing", options{in: writeInput(t, "bad.vasm", "jump nowhere"), out: filepath.Join(dir, "p")}, 1},
		{"bad table", options{in: writeInput(t, "ok.vsl", "fn void main() { return; }"), stdlib: filepath.Join(dir, "none.yaml")}, 1},
		{"bad color", options{in: writeInput(t, "ok2.vsl", "fn void main() { return; }"), color: "rainbow"}, 2},
		{"unwritable output", options{in: writeInput(t, "ok3.vsl", "fn void main() { return; }"), out: filepath.Join(dir, "no", "such", "dir")}, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if status := run(tc.opts, &stdout, &stderr); status != tc.status {
				t.Errorf("run() = %d, want %d; stderr:\n%s", status, tc.status, stderr.String())
			}
			if stderr.Len() == 0 {
				t.Error("no error message")
			}
		})
	}
}

func TestUseColor(t *testing.T) {
	var buf bytes.Buffer
	tests := []struct {
		mode string
		want bool
	}{
		{"always", true},
		{"never", false},
		{"auto", false}, // not a terminal
	}
	for _, tc := range tests {
		got, err := useColor(tc.mode, &buf)
		if err != nil || got != tc.want {
			t.Errorf("useColor(%q) = %v, %v; want %v", tc.mode, got, err, tc.want)
		}
	}
}
