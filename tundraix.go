// Package tundraix is the embedding surface for the tundra scripting
// language: a single-pass bytecode compiler and a stack-based virtual
// machine.
//
// The language covers arithmetic and boolean expressions, string
// concatenation, global variables, print, and lexical blocks (parsed but
// not scoped). Hosts supply the source text and a print sink:
//
//	err := tundraix.Interpret(`print "hello";`, func(text string) error {
//		_, err := io.WriteString(os.Stdout, text)
//		return err
//	})
//
// Compile and Run split the pipeline for hosts that cache compiled
// chunks. All diagnostics, compile-time and runtime, are formatted as
// "[line N] Error: <message>" and terminate the run they occur in.
package tundraix

import (
	"github.com/AbeetoChan/tundraix/pkg/compiler"
	"github.com/AbeetoChan/tundraix/pkg/vm"
)

// Compile translates source into a chunk, returning the first compile
// diagnostic on malformed input.
func Compile(source string) (*vm.Chunk, error) {
	return compiler.Compile(source)
}

// Run executes a compiled chunk against a fresh machine, sending print
// output through sink. A sink error aborts the run and is returned as the
// interpretation's result.
func Run(chunk *vm.Chunk, sink vm.PrintFunc) error {
	return vm.New(sink).Interpret(chunk)
}

// Interpret compiles and runs source in one step.
func Interpret(source string, sink vm.PrintFunc) error {
	chunk, err := Compile(source)
	if err != nil {
		return err
	}
	return Run(chunk, sink)
}
