package bytecode

import (
	"fmt"
	"math"
)

// Fixup is the buffer position of an address operand whose value is not yet
// known. It is resolved exactly once with Buffer.Patch.
type Fixup int

// Buffer is the append-only instruction buffer. Words may only be changed
// after emission through Patch.
type Buffer struct {
	words   []int64
	pending map[Fixup]bool
}

func NewBuffer() *Buffer {
	return &Buffer{pending: make(map[Fixup]bool)}
}

// Len returns the address the next emitted word will have.
func (b *Buffer) Len() int64 {
	return int64(len(b.words))
}

// Words returns the emitted program. The slice aliases the buffer.
func (b *Buffer) Words() []int64 {
	return b.words
}

// Emit appends op and its fixed operands. A wrong operand count is a bug in
// the caller, not a property of the compiled program, so it panics.
func (b *Buffer) Emit(op Opcode, operands ...int64) {
	if !op.Valid() {
		panic(fmt.Sprintf("bytecode: emit of invalid opcode %d", int64(op)))
	}
	if len(operands) != op.Operands() {
		panic(fmt.Sprintf("bytecode: %s takes %d operands, got %d", op, op.Operands(), len(operands)))
	}
	b.words = append(b.words, int64(op))
	b.words = append(b.words, operands...)
}

// EmitUse appends a built-in invocation. typ is only written when typed is
// set (print and read carry the value type they operate on).
func (b *Buffer) EmitUse(id int64, typed bool, typ ValueType) {
	b.Emit(OpUse, id)
	if typed {
		b.words = append(b.words, int64(typ))
	}
}

// EmitFloat appends f_constant with the IEEE-754 bit pattern of f.
func (b *Buffer) EmitFloat(f float64) {
	b.Emit(OpFConstant, int64(math.Float64bits(f)))
}

// EmitString appends s_constant, one word per character and a zero
// terminator.
func (b *Buffer) EmitString(chars []rune) {
	b.Emit(OpSConstant)
	for _, c := range chars {
		b.words = append(b.words, int64(c))
	}
	b.words = append(b.words, 0)
}

// EmitFixup appends a single-operand jump whose target is filled in later.
func (b *Buffer) EmitFixup(op Opcode) Fixup {
	if op.Operands() != 1 {
		panic(fmt.Sprintf("bytecode: %s cannot take a fixup", op))
	}
	b.words = append(b.words, int64(op), 0)
	f := Fixup(len(b.words) - 1)
	b.pending[f] = true
	return f
}

// Patch writes addr into the operand reserved by f.
func (b *Buffer) Patch(f Fixup, addr int64) {
	if !b.pending[f] {
		panic(fmt.Sprintf("bytecode: fixup %d is not pending", int(f)))
	}
	delete(b.pending, f)
	b.words[f] = addr
}

// Unresolved returns the number of fixups that were never patched.
func (b *Buffer) Unresolved() int {
	return len(b.pending)
}
