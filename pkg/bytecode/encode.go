package bytecode

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// WordSize is the serialized size of one word in bytes.
const WordSize = 8

// DefaultArtifact is the file name the compiler writes when none is given.
const DefaultArtifact = "program"

// Encode serializes code as consecutive big-endian 8-byte words, with no
// header or length prefix.
func Encode(code []int64) []byte {
	out := make([]byte, len(code)*WordSize)
	for i, w := range code {
		binary.BigEndian.PutUint64(out[i*WordSize:], uint64(w))
	}
	return out
}

// Write streams code to w in the Encode format.
func Write(w io.Writer, code []int64) error {
	bw := bufio.NewWriter(w)
	var word [WordSize]byte
	for _, c := range code {
		binary.BigEndian.PutUint64(word[:], uint64(c))
		if _, err := bw.Write(word[:]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile writes code to path, replacing any existing file.
func WriteFile(path string, code []int64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, code); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// Decode is the inverse of Encode.
func Decode(data []byte) ([]int64, error) {
	if len(data)%WordSize != 0 {
		return nil, fmt.Errorf("bytecode length %d is not a multiple of %d", len(data), WordSize)
	}
	code := make([]int64, len(data)/WordSize)
	for i := range code {
		code[i] = int64(binary.BigEndian.Uint64(data[i*WordSize:]))
	}
	return code, nil
}

// ReadFile loads and decodes a serialized program.
func ReadFile(path string) ([]int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	code, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return code, nil
}
