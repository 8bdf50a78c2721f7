// Tundraix CLI - compiles and runs tundra scripts.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"

	"github.com/AbeetoChan/tundraix/pkg/compiler"
	"github.com/AbeetoChan/tundraix/pkg/config"
	"github.com/AbeetoChan/tundraix/pkg/vm"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.FindAndLoad(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		runScript(logger, cfg, os.Args[2:])
	case "build":
		buildChunk(logger, os.Args[2:])
	case "exec":
		execChunk(logger, os.Args[2:])
	case "repl":
		runREPL(logger)
	default:
		fmt.Fprintln(os.Stderr, "Unknown command:", os.Args[1])
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: tundraix <command> [options]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  run <file.tnx>              Compile and run a script\n")
	fmt.Fprintf(os.Stderr, "  build <file.tnx> [-o out]   Compile a script to a chunk image\n")
	fmt.Fprintf(os.Stderr, "  exec <file.tnxc>            Run a compiled chunk image\n")
	fmt.Fprintf(os.Stderr, "  repl                        Start an interactive session\n\n")
	fmt.Fprintf(os.Stderr, "Examples:\n")
	fmt.Fprintf(os.Stderr, "  tundraix run script.tnx -disasm\n")
	fmt.Fprintf(os.Stderr, "  tundraix run script.tnx -watch\n")
	fmt.Fprintf(os.Stderr, "  tundraix build script.tnx -o script.tnxc\n")
}

func newLogger(cfg config.Log) (*slog.Logger, error) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info", "":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown log level %q", cfg.Level)
	}

	var handler slog.Handler
	switch cfg.Format {
	case "text":
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	case "tint", "":
		handler = tint.NewHandler(os.Stderr, &tint.Options{Level: level})
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	return slog.New(handler), nil
}

// stdoutSink is the print sink for script output. Diagnostics go through
// the logger; script output goes to stdout untouched.
func stdoutSink(text string) error {
	_, err := os.Stdout.WriteString(text)
	return err
}

func runScript(logger *slog.Logger, cfg *config.Config, args []string) {
	runCmd := flag.NewFlagSet("run", flag.ExitOnError)
	disasm := runCmd.Bool("disasm", cfg.Run.Disassemble, "Print the compiled bytecode before running")
	watch := runCmd.Bool("watch", false, "Rerun the script whenever the file changes")

	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: tundraix run <file.tnx> [-disasm] [-watch]")
		os.Exit(1)
	}
	scriptPath := args[0]
	runCmd.Parse(args[1:])

	if *watch {
		if err := watchAndRun(logger, cfg, scriptPath, *disasm); err != nil {
			logger.Error("watch failed", "path", scriptPath, "error", err)
			os.Exit(1)
		}
		return
	}

	if err := compileAndRun(logger, scriptPath, *disasm); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func compileAndRun(logger *slog.Logger, scriptPath string, disasm bool) error {
	src, err := os.ReadFile(scriptPath)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", scriptPath, err)
	}

	chunk, err := compiler.Compile(string(src))
	if err != nil {
		return err
	}
	logger.Debug("compiled", "path", scriptPath, "bytes", len(chunk.Code), "constants", len(chunk.Constants))

	if disasm {
		fmt.Fprint(os.Stderr, vm.DisassembleChunk(chunk, scriptPath))
	}

	return vm.New(stdoutSink).Interpret(chunk)
}

func buildChunk(logger *slog.Logger, args []string) {
	buildCmd := flag.NewFlagSet("build", flag.ExitOnError)
	out := buildCmd.String("o", "", "Output path (default: source path with .tnxc extension)")

	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: tundraix build <file.tnx> [-o out.tnxc]")
		os.Exit(1)
	}
	scriptPath := args[0]
	buildCmd.Parse(args[1:])

	src, err := os.ReadFile(scriptPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		os.Exit(1)
	}

	chunk, err := compiler.Compile(string(src))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	data, err := vm.MarshalChunk(chunk)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding chunk: %v\n", err)
		os.Exit(1)
	}

	outPath := *out
	if outPath == "" {
		outPath = strings.TrimSuffix(scriptPath, ".tnx") + ".tnxc"
	}

	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", outPath, err)
		os.Exit(1)
	}
	logger.Info("built chunk image", "in", scriptPath, "out", outPath, "bytes", len(data))
}

func execChunk(logger *slog.Logger, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: tundraix exec <file.tnxc>")
		os.Exit(1)
	}
	imagePath := args[0]

	data, err := os.ReadFile(imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		os.Exit(1)
	}

	chunk, err := vm.UnmarshalChunk(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading image: %v\n", err)
		os.Exit(1)
	}
	logger.Debug("loaded chunk image", "path", imagePath, "bytes", len(chunk.Code))

	if err := vm.New(stdoutSink).Interpret(chunk); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
