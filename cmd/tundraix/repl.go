package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/AbeetoChan/tundraix/pkg/compiler"
	"github.com/AbeetoChan/tundraix/pkg/vm"
)

// runREPL reads one line at a time, compiling and running each against a
// single machine so globals carry over between lines. Errors are printed
// and the session continues.
func runREPL(logger *slog.Logger) {
	logger.Debug("starting repl")
	fmt.Println("tundraix repl - empty line or ctrl-d to exit")

	machine := vm.New(stdoutSink)
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			break
		}

		chunk, err := compiler.Compile(line)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}

		if err := machine.Interpret(chunk); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}

	if err := scanner.Err(); err != nil {
		logger.Error("repl input error", "error", err)
	}
}
