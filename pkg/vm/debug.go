package vm

import (
	"fmt"
	"strings"
)

// DisassembleChunk renders a human-readable listing of a chunk, one
// instruction per line, with offsets, source lines and constant operands.
func DisassembleChunk(c *Chunk, name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s ==\n", name)

	for offset := 0; offset < len(c.Code); {
		offset = disassembleInstruction(&b, c, offset)
	}
	return b.String()
}

func disassembleInstruction(b *strings.Builder, c *Chunk, offset int) int {
	fmt.Fprintf(b, "%04d ", offset)
	if offset > 0 && c.Lines[offset] == c.Lines[offset-1] {
		b.WriteString("   | ")
	} else {
		fmt.Fprintf(b, "%4d ", c.Lines[offset])
	}

	op := OpCode(c.Code[offset])
	if !op.hasOperand() {
		fmt.Fprintf(b, "%s\n", op)
		return offset + 1
	}

	if offset+1 >= len(c.Code) {
		fmt.Fprintf(b, "%s <truncated>\n", op)
		return offset + 1
	}

	idx := c.Code[offset+1]
	fmt.Fprintf(b, "%-16s %4d '%s'\n", op.String(), idx, c.Constants[idx].Format())
	return offset + 2
}
