package vm_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AbeetoChan/tundraix/pkg/core/value"
	"github.com/AbeetoChan/tundraix/pkg/vm"
)

// asm hand-assembles a chunk, tagging every byte with line 1.
func asm(constants []value.Value, code ...byte) *vm.Chunk {
	c := vm.NewChunk()
	for _, v := range constants {
		c.AddConstant(v)
	}
	for _, b := range code {
		c.Write(b, 1)
	}
	return c
}

// capture returns a print sink appending to out.
func capture(out *[]string) vm.PrintFunc {
	return func(text string) error {
		*out = append(*out, text)
		return nil
	}
}

func TestMachineStackOps(t *testing.T) {
	m := vm.New(nil)

	m.Push(value.Number(42))
	require.Equal(t, 1, m.SP)

	v := m.Pop()
	require.Equal(t, 42.0, v.AsNumber())
	require.Equal(t, 0, m.SP)
}

func TestMachineArithmetic(t *testing.T) {
	// 3 + 4 * 2, compiled shape: 3 4 2 MULTIPLY ADD PRINT RETURN
	chunk := asm(
		[]value.Value{value.Number(3), value.Number(4), value.Number(2)},
		byte(vm.OpConstant), 0,
		byte(vm.OpConstant), 1,
		byte(vm.OpConstant), 2,
		byte(vm.OpMultiply),
		byte(vm.OpAdd),
		byte(vm.OpPrint),
		byte(vm.OpReturn),
	)

	var out []string
	require.NoError(t, vm.New(capture(&out)).Interpret(chunk))
	require.Equal(t, []string{"11\n"}, out)
}

func TestMachineTypeErrors(t *testing.T) {
	tests := []struct {
		name string
		c    *vm.Chunk
		want string
	}{
		{
			name: "negate non-number",
			c: asm([]value.Value{value.String("s")},
				byte(vm.OpConstant), 0, byte(vm.OpNegate), byte(vm.OpReturn)),
			want: "[line 1] Error: Operand(s) must be a number.",
		},
		{
			name: "subtract strings",
			c: asm([]value.Value{value.String("a"), value.String("b")},
				byte(vm.OpConstant), 0, byte(vm.OpConstant), 1,
				byte(vm.OpSubtract), byte(vm.OpReturn)),
			want: "[line 1] Error: Operands must be numbers.",
		},
		{
			name: "compare number to nil",
			c: asm([]value.Value{value.Number(1)},
				byte(vm.OpConstant), 0, byte(vm.OpNil),
				byte(vm.OpLess), byte(vm.OpReturn)),
			want: "[line 1] Error: Operands must be numbers.",
		},
		{
			name: "add string and number",
			c: asm([]value.Value{value.String("a"), value.Number(1)},
				byte(vm.OpConstant), 0, byte(vm.OpConstant), 1,
				byte(vm.OpAdd), byte(vm.OpReturn)),
			want: "[line 1] Error: Invalid operands.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := vm.New(nil).Interpret(tt.c)
			require.EqualError(t, err, tt.want)
		})
	}
}

func TestMachineConcatenation(t *testing.T) {
	chunk := asm(
		[]value.Value{value.String("foo"), value.String("bar")},
		byte(vm.OpConstant), 0,
		byte(vm.OpConstant), 1,
		byte(vm.OpAdd),
		byte(vm.OpPrint),
		byte(vm.OpReturn),
	)

	var out []string
	require.NoError(t, vm.New(capture(&out)).Interpret(chunk))
	require.Equal(t, []string{"foobar\n"}, out, "left operand comes first")
}

func TestMachineDivisionByZero(t *testing.T) {
	chunk := asm(
		[]value.Value{value.Number(1), value.Number(0)},
		byte(vm.OpConstant), 0,
		byte(vm.OpConstant), 1,
		byte(vm.OpDivide),
		byte(vm.OpPrint),
		byte(vm.OpReturn),
	)

	var out []string
	require.NoError(t, vm.New(capture(&out)).Interpret(chunk), "IEEE semantics, not an error")
	require.Equal(t, []string{"inf\n"}, out)
}

func TestMachineFalsiness(t *testing.T) {
	tests := []struct {
		name string
		v    value.Value
		want string
	}{
		{"nil is falsey", value.Nil(), "true\n"},
		{"false is falsey", value.Bool(false), "true\n"},
		{"true is truthy", value.Bool(true), "false\n"},
		{"zero is truthy", value.Number(0), "false\n"},
		{"empty string is truthy", value.String(""), "false\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunk := asm([]value.Value{tt.v},
				byte(vm.OpConstant), 0, byte(vm.OpNot), byte(vm.OpPrint), byte(vm.OpReturn))

			var out []string
			require.NoError(t, vm.New(capture(&out)).Interpret(chunk))
			require.Equal(t, []string{tt.want}, out)
		})
	}
}

func TestMachineGlobals(t *testing.T) {
	// var x = 7; print x; x = 9; print x;
	chunk := asm(
		[]value.Value{value.String("x"), value.Number(7), value.String("x"), value.String("x"), value.Number(9), value.String("x")},
		byte(vm.OpConstant), 1,
		byte(vm.OpDefineGlobal), 0,
		byte(vm.OpGetGlobal), 2,
		byte(vm.OpPrint),
		byte(vm.OpConstant), 4,
		byte(vm.OpSetGlobal), 3,
		byte(vm.OpPop),
		byte(vm.OpGetGlobal), 5,
		byte(vm.OpPrint),
		byte(vm.OpReturn),
	)

	var out []string
	m := vm.New(capture(&out))
	require.NoError(t, m.Interpret(chunk))
	require.Equal(t, []string{"7\n", "9\n"}, out)
	require.True(t, m.Globals["x"].Equal(value.Number(9)))
}

func TestMachineUndefinedVariable(t *testing.T) {
	t.Run("get", func(t *testing.T) {
		chunk := asm([]value.Value{value.String("y")},
			byte(vm.OpGetGlobal), 0, byte(vm.OpPrint), byte(vm.OpReturn))

		var out []string
		err := vm.New(capture(&out)).Interpret(chunk)
		require.EqualError(t, err, "[line 1] Error: Undefined variable y")
		require.Empty(t, out, "no output before the error")
	})

	t.Run("set", func(t *testing.T) {
		chunk := asm([]value.Value{value.Number(1), value.String("y")},
			byte(vm.OpConstant), 0, byte(vm.OpSetGlobal), 1, byte(vm.OpReturn))

		err := vm.New(nil).Interpret(chunk)
		require.EqualError(t, err, "[line 1] Error: Undefined variable y")
	})
}

func TestMachineSetGlobalKeepsValueOnStack(t *testing.T) {
	// x must end up on the stack top after SetGlobal so assignment works
	// as an expression: define x, assign 5, print the assignment itself.
	chunk := asm(
		[]value.Value{value.String("x"), value.Number(5)},
		byte(vm.OpNil),
		byte(vm.OpDefineGlobal), 0,
		byte(vm.OpConstant), 1,
		byte(vm.OpSetGlobal), 0,
		byte(vm.OpPrint),
		byte(vm.OpReturn),
	)

	var out []string
	require.NoError(t, vm.New(capture(&out)).Interpret(chunk))
	require.Equal(t, []string{"5\n"}, out)
}

func TestMachineRuntimeErrorLine(t *testing.T) {
	c := vm.NewChunk()
	c.AddConstant(value.String("s"))
	c.Write(byte(vm.OpConstant), 1)
	c.Write(0, 1)
	c.Write(byte(vm.OpNegate), 3) // the failing opcode sits on line 3
	c.Write(byte(vm.OpReturn), 3)

	err := vm.New(nil).Interpret(c)
	require.EqualError(t, err, "[line 3] Error: Operand(s) must be a number.")
}

func TestMachinePrintSinkError(t *testing.T) {
	sinkErr := errors.New("sink closed")
	chunk := asm(
		[]value.Value{value.Number(1), value.Number(2)},
		byte(vm.OpConstant), 0,
		byte(vm.OpPrint),
		byte(vm.OpConstant), 1,
		byte(vm.OpPrint),
		byte(vm.OpReturn),
	)

	calls := 0
	err := vm.New(func(string) error {
		calls++
		return sinkErr
	}).Interpret(chunk)

	require.ErrorIs(t, err, sinkErr)
	require.Equal(t, 1, calls, "execution stops at the first sink failure")
}

func TestMachineStackOverflowIsError(t *testing.T) {
	c := vm.NewChunk()
	c.AddConstant(value.Number(1))
	for i := 0; i <= vm.StackDepth; i++ {
		c.Write(byte(vm.OpConstant), 1)
		c.Write(0, 1)
	}
	c.Write(byte(vm.OpReturn), 1)

	err := vm.New(nil).Interpret(c)
	require.ErrorIs(t, err, vm.ErrStackOverflow)
}

func TestMachineStackUnderflowIsError(t *testing.T) {
	chunk := asm(nil, byte(vm.OpPop), byte(vm.OpReturn))
	err := vm.New(nil).Interpret(chunk)
	require.ErrorIs(t, err, vm.ErrStackUnderflow)
}

func TestMachineMalformedBytecodeIsError(t *testing.T) {
	t.Run("constant index out of range", func(t *testing.T) {
		chunk := asm(nil, byte(vm.OpConstant), 5, byte(vm.OpReturn))
		err := vm.New(nil).Interpret(chunk)
		require.ErrorIs(t, err, vm.ErrMalformedBytecode)
		require.NotErrorIs(t, err, vm.ErrStackUnderflow)
	})

	t.Run("missing return sentinel", func(t *testing.T) {
		chunk := asm([]value.Value{value.Number(1)}, byte(vm.OpConstant), 0, byte(vm.OpPop))
		err := vm.New(nil).Interpret(chunk)
		require.ErrorIs(t, err, vm.ErrMalformedBytecode)
	})
}

func TestMachineGlobalsPersistAcrossInterprets(t *testing.T) {
	m := vm.New(nil)

	def := asm([]value.Value{value.String("x"), value.Number(1)},
		byte(vm.OpConstant), 1, byte(vm.OpDefineGlobal), 0, byte(vm.OpReturn))
	require.NoError(t, m.Interpret(def))

	use := asm([]value.Value{value.String("x")},
		byte(vm.OpGetGlobal), 0, byte(vm.OpPop), byte(vm.OpReturn))
	require.NoError(t, m.Interpret(use), "repl-style reuse keeps globals")
}
