package vm

import "github.com/AbeetoChan/tundraix/pkg/core/value"

// MaxConstants is the size limit of a chunk's constant pool; indices are
// single bytes.
const MaxConstants = 256

// Chunk pairs a flat bytecode stream with its constant pool. Each code
// byte records the source line of the token that produced it, which is
// what makes runtime errors line-accurate. Chunks are append-only during
// compilation and read-only during execution.
type Chunk struct {
	Code      []byte        `cbor:"code"`
	Lines     []int         `cbor:"lines"`
	Constants []value.Value `cbor:"constants"`
}

// NewChunk creates an empty chunk.
func NewChunk() *Chunk {
	return &Chunk{}
}

// Write appends one instruction or operand byte tagged with its source line.
func (c *Chunk) Write(b byte, line int) {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
}

// AddConstant appends a value to the constant pool and returns its index.
// The compiler is responsible for rejecting indices beyond MaxConstants-1.
func (c *Chunk) AddConstant(v value.Value) int {
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}
