package vm_test

import (
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/require"

	"github.com/AbeetoChan/tundraix/pkg/core/value"
	"github.com/AbeetoChan/tundraix/pkg/vm"
)

func imageChunk() *vm.Chunk {
	c := vm.NewChunk()
	c.AddConstant(value.String("greeting"))
	c.AddConstant(value.String("hello"))
	c.AddConstant(value.Number(2.5))
	c.AddConstant(value.Bool(true))
	c.AddConstant(value.Nil())
	c.Write(byte(vm.OpConstant), 1)
	c.Write(1, 1)
	c.Write(byte(vm.OpDefineGlobal), 1)
	c.Write(0, 1)
	c.Write(byte(vm.OpReturn), 2)
	return c
}

func TestChunkImageRoundTrip(t *testing.T) {
	orig := imageChunk()

	data, err := vm.MarshalChunk(orig)
	require.NoError(t, err)

	loaded, err := vm.UnmarshalChunk(data)
	require.NoError(t, err)
	require.Equal(t, orig, loaded)
}

func TestChunkImageDeterministic(t *testing.T) {
	a, err := vm.MarshalChunk(imageChunk())
	require.NoError(t, err)
	b, err := vm.MarshalChunk(imageChunk())
	require.NoError(t, err)
	require.Equal(t, a, b, "canonical encoding is byte-identical")
}

func TestChunkImageBadInput(t *testing.T) {
	_, err := vm.UnmarshalChunk([]byte("not cbor at all"))
	require.Error(t, err)
}

func TestChunkImageVersionMismatch(t *testing.T) {
	data, err := cbor.Marshal(map[string]any{
		"version": vm.ImageVersion + 1,
		"chunk":   vm.NewChunk(),
	})
	require.NoError(t, err)

	_, err = vm.UnmarshalChunk(data)
	require.ErrorContains(t, err, "unsupported image version")
}

func TestChunkImageCorruptLineRecords(t *testing.T) {
	c := imageChunk()
	c.Lines = c.Lines[:1]

	data, err := vm.MarshalChunk(c)
	require.NoError(t, err)

	_, err = vm.UnmarshalChunk(data)
	require.ErrorContains(t, err, "corrupt image")
}

func TestChunkImageRunsAfterReload(t *testing.T) {
	c := vm.NewChunk()
	c.AddConstant(value.Number(6))
	c.AddConstant(value.Number(7))
	c.Write(byte(vm.OpConstant), 1)
	c.Write(0, 1)
	c.Write(byte(vm.OpConstant), 1)
	c.Write(1, 1)
	c.Write(byte(vm.OpMultiply), 1)
	c.Write(byte(vm.OpPrint), 1)
	c.Write(byte(vm.OpReturn), 1)

	data, err := vm.MarshalChunk(c)
	require.NoError(t, err)
	loaded, err := vm.UnmarshalChunk(data)
	require.NoError(t, err)

	var out []string
	require.NoError(t, vm.New(capture(&out)).Interpret(loaded))
	require.Equal(t, []string{"42\n"}, out)
}
