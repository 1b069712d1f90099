// Package compiler is a single-pass compiler for VSL, a small typed
// language in which every variable, parameter and function result carries a
// security level from 0 to 100.
//
// Pipeline: source → Lex → sizing prepass (function addresses) → one
// parse-and-emit pass → flat []int64 bytecode (see package bytecode).
//
// A value may only flow into a sink whose security level is at least its
// own. Violations and all other problems are reported as diagnostics; the
// compile always runs to the end of the input.
package compiler
