package compiler

import (
	"vslc/pkg/bytecode"
	"vslc/pkg/stdlib"
)

// Word costs of the constructs the sizing prepass can see. Every rule is
// expressed through bytecode.Width so it cannot drift from what the main
// pass emits through bytecode.Buffer.

// entryCost is the call to main that opens every program.
func entryCost() int64 {
	return bytecode.Width(bytecode.OpCall)
}

func intConstantCost() int64 {
	return bytecode.Width(bytecode.OpIConstant)
}

func floatConstantCost() int64 {
	return bytecode.Width(bytecode.OpFConstant)
}

func stringCost(raw string) int64 {
	chars, _ := decodeString(raw)
	return bytecode.StringWidth(len(chars))
}

// loadStoreCost covers local_load, local_store, arg_load and arg_store.
func loadStoreCost() int64 {
	return bytecode.Width(bytecode.OpLocalStore)
}

func operatorCost() int64 {
	return bytecode.Width(bytecode.OpIAdd)
}

func userCallCost() int64 {
	return bytecode.Width(bytecode.OpCall)
}

// builtinCallCost is the use instruction of one built-in invocation; for
// print it is paid once per printed value.
func builtinCallCost(b stdlib.Builtin) int64 {
	n := bytecode.Width(bytecode.OpUse)
	if b.TypeOperand {
		n++
	}
	return n
}

// branchHeadCost is the jump_if_false and the trailing jump of one if or
// else-if branch, or of a while loop.
func branchHeadCost() int64 {
	return bytecode.Width(bytecode.OpJumpIfFalse) + bytecode.Width(bytecode.OpJump)
}

func breakCost() int64 {
	return bytecode.Width(bytecode.OpJump)
}

// returnCost is the pops of every local declared so far in the function
// followed by return_val, return_non_val or halt.
func returnCost(locals int) int64 {
	return int64(locals)*bytecode.Width(bytecode.OpPop) + bytecode.Width(bytecode.OpReturnVal)
}

// decodeString resolves the escapes of a string literal. The only escape is
// \n; every other backslash pair is dropped and counted in bad. Raw quotes
// are never emitted.
func decodeString(raw string) (chars []rune, bad int) {
	escaped := false
	for _, r := range raw {
		if escaped {
			if r == 'n' {
				chars = append(chars, '\n')
			} else {
				bad++
			}
			escaped = false
			continue
		}
		switch r {
		case '\\':
			escaped = true
		case '"':
		default:
			chars = append(chars, r)
		}
	}
	if escaped {
		bad++
	}
	return chars, bad
}
