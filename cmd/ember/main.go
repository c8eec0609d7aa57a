package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"ember"
	"ember/internal/compiler"
	"ember/internal/config"
	"ember/internal/heap"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		repl()
		return
	}

	switch os.Args[1] {
	case "run":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "error: run requires a source file")
			os.Exit(64)
		}
		os.Exit(exitCode(cmdRun(os.Args[2])))
	case "disasm":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "error: disasm requires a source file")
			os.Exit(64)
		}
		if err := cmdDisasm(os.Args[2]); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
	case "help", "-h", "--help":
		usage()
	case "version", "-v", "--version":
		fmt.Println("ember", version)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		usage()
		os.Exit(64)
	}
}

// exitCode maps an interpreter Status onto the conventional Unix exit
// codes for this tool: 0 ok, 65 compile error, 70 runtime error.
func exitCode(s ember.Status) int {
	switch s {
	case ember.StatusCompileError:
		return 65
	case ember.StatusRuntimeError:
		return 70
	default:
		return 0
	}
}

func usage() {
	fmt.Println(`Ember language CLI

Usage:
  ember                 Start a REPL
  ember run <file.ember> Compile and run a source file
  ember disasm <file.ember> Print the compiled bytecode for a source file

Flags:
  version  Print the interpreter version
  help     Print this message`)
}

func newLogger(cfg config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Log.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Log.JSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func cmdRun(path string) ember.Status {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return ember.StatusRuntimeError
	}

	cfg, err := config.Load(".")
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return ember.StatusRuntimeError
	}
	logger := newLogger(cfg)

	onGC := func(freed, live, next int) {}
	if cfg.GC.LogCollections {
		onGC = func(freed, live, next int) {
			logger.Debug("gc",
				"freed", humanize.Bytes(uint64(freed)),
				"live", humanize.Bytes(uint64(live)),
				"next", humanize.Bytes(uint64(next)))
		}
	}

	in := ember.New(ember.Config{
		Stdout:                os.Stdout,
		Logger:                logger,
		InitialThresholdBytes: cfg.GC.InitialThresholdBytes,
		OnGC:                  onGC,
	})
	status, runErr := in.Run(string(src))
	if runErr != nil {
		fmt.Fprintln(os.Stderr, runErr)
	}
	return status
}

func cmdDisasm(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	h := heap.New()
	fn, errs := compiler.Compile(string(src), h)
	if errs != nil {
		for _, e := range errs {
			fmt.Fprintln(os.Stderr, e)
		}
		os.Exit(65)
	}
	disassemble(fn, os.Stdout)
	return nil
}

func repl() {
	cfg, _ := config.Load(".")
	logger := newLogger(cfg)
	in := ember.New(ember.Config{Stdout: os.Stdout, Logger: logger})

	// Only draw the "> " prompt when stdin is an actual terminal; a piped
	// or redirected script read through the REPL shouldn't have prompt
	// bytes interleaved with its output.
	interactive := isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	if interactive {
		fmt.Println("ember", version, "— press Ctrl-D to exit")
	}
	scanner := bufio.NewScanner(os.Stdin)
	for {
		if interactive {
			fmt.Print("> ")
		}
		if !scanner.Scan() {
			if interactive {
				fmt.Println()
			}
			return
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		if status, err := in.Run(line); status != ember.StatusOK && err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
}
