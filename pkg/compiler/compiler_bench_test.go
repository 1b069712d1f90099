package compiler

import "testing"

// simpleSource is a minimal VSL program used for benchmarking the fast path.
const simpleSource = `
fn int:0 add(a int:0, b int:0) {
	return a + b;
}

fn void main() {
	let x int:0 = add(3, 4);
	print(x);
	return;
}
`

// complexSource is a larger program exercising loops, nested branches,
// vectors, strings, floats and recursive calls.
const complexSource = `
fn int:0 abs_val(n int:0) {
	if n < 0 {
		return 0 - n;
	}
	return n;
}

fn int:0 sum_vec(v vec_int:0) {
	let total int:0 = 0;
	let i int:0 = 0;
	while i < vec_int_len(v) {
		total = total + vec_int_get(v, i);
		i = i + 1;
	}
	return total;
}

fn int:0 fib(n int:0) {
	if n == 0 {
		return 0;
	} else if n == 1 {
		return 1;
	}
	return fib(n - 1) + fib(n - 2);
}

fn int:0 max_vec(v vec_int:0) {
	let best int:0 = vec_int_get(v, 0);
	let i int:0 = 1;
	while i < vec_int_len(v) {
		if vec_int_get(v, i) > best {
			best = vec_int_get(v, i);
		}
		i = i + 1;
	}
	return best;
}

fn float:20 mean(v vec_int:0) {
	let n int:0 = vec_int_len(v);
	if n == 0 {
		return 0.0;
	}
	return int_to_float(sum_vec(v)) / int_to_float(n);
}

fn string:0 label(score int:0) {
	if score > 100 and score < 1000 {
		return "large";
	} else if score > 10 or score == 10 {
		return "medium";
	}
	return "small";
}

fn void main() {
	let v vec_int:0 = vec_int_new();
	vec_int_push(v, 3);
	vec_int_push(v, 1);
	vec_int_push(v, 4);
	vec_int_push(v, 1);
	vec_int_push(v, 5);
	vec_int_push(v, 9);
	vec_int_push(v, 2);
	vec_int_push(v, 6);

	let s int:0 = sum_vec(v);
	let m int:0 = max_vec(v);
	let f int:0 = fib(8);
	let a int:0 = abs_val(0 - 42);
	let avg float:50 = mean(v);

	let total int:0 = s + m + f + a;
	print("total: ", total, " avg: ", avg);
	print("label: " + label(total) + "\n");
	return;
}
`

// --- Lex benchmarks ---

func BenchmarkLex_Simple(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, err := Lex(simpleSource)
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkLex_Complex(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, err := Lex(complexSource)
		if err != nil {
			b.Fatal(err)
		}
	}
}

// --- Compile benchmarks ---
// Tokens are pre-computed outside the timed region.

func BenchmarkCompileTokens_Simple(b *testing.B) {
	tokens, err := Lex(simpleSource)
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if res := CompileTokens(tokens, WithOutput(nil)); res.HadError {
			b.Fatal(res.Diagnostics)
		}
	}
}

func BenchmarkCompileTokens_Complex(b *testing.B) {
	tokens, err := Lex(complexSource)
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if res := CompileTokens(tokens, WithOutput(nil)); res.HadError {
			b.Fatal(res.Diagnostics)
		}
	}
}

// --- Full pipeline benchmarks (Lex + CompileTokens) ---

func BenchmarkCompilerPipeline_Simple(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		res, err := Compile(simpleSource, WithOutput(nil))
		if err != nil {
			b.Fatal(err)
		}
		if res.HadError {
			b.Fatal(res.Diagnostics)
		}
	}
}

func BenchmarkCompilerPipeline_Complex(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		res, err := Compile(complexSource, WithOutput(nil))
		if err != nil {
			b.Fatal(err)
		}
		if res.HadError {
			b.Fatal(res.Diagnostics)
		}
	}
}
