// Package ember is the embeddable entry point to the interpreter: compile
// source, run it against a fresh VM and heap, and report the outcome the
// way a host program (the CLI driver, a test) would want it.
package ember

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"ember/internal/compiler"
	"ember/internal/heap"
	"ember/internal/natives"
	"ember/internal/vm"
)

// Status is the three-way outcome of Interpret: callers map it onto a
// process exit code (see cmd/ember's exitCode).
type Status int

const (
	StatusOK Status = iota
	StatusCompileError
	StatusRuntimeError
)

// CompileError wraps every diagnostic collected during one compilation
// attempt (panic-mode recovery means there can be more than one).
type CompileError struct {
	Errs []error
}

func (e *CompileError) Error() string {
	if len(e.Errs) == 1 {
		return e.Errs[0].Error()
	}
	return fmt.Sprintf("%s (and %d more)", e.Errs[0].Error(), len(e.Errs)-1)
}

// RuntimeError is returned by Run when compilation succeeds but execution
// fails; it wraps the VM's own error type.
type RuntimeError struct {
	Err error
}

func (e *RuntimeError) Error() string { return e.Err.Error() }
func (e *RuntimeError) Unwrap() error { return e.Err }

// Interpreter is a reusable session: its own heap and global bindings
// persist across calls to Run, the way a REPL needs them to.
type Interpreter struct {
	heap *heap.Heap
	vm   *vm.VM
	log  *slog.Logger
}

// Config tunes an Interpreter away from its defaults.
type Config struct {
	Stdout                io.Writer
	Logger                *slog.Logger
	InitialThresholdBytes int // 0 uses the heap package's 1 MiB default
	OnGC                  func(freedBytes, liveBytes, nextGC int)
}

// New builds an Interpreter, wiring every registered native into the VM's
// global scope.
func New(cfg Config) *Interpreter {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	h := heap.NewWithThreshold(cfg.InitialThresholdBytes)
	if cfg.OnGC != nil {
		h.OnGC(cfg.OnGC)
	}
	v := vm.New(h, cfg.Stdout)
	for _, n := range natives.Install(h) {
		v.DefineNative(n.Name, n.Arity, n.Fn)
	}
	return &Interpreter{heap: h, vm: v, log: cfg.Logger}
}

// Run compiles and executes source, returning the status and, on failure,
// the error describing what went wrong.
func (in *Interpreter) Run(source string) (Status, error) {
	fn, errs := compiler.Compile(source, in.heap)
	if errs != nil {
		in.log.Debug("compile failed", "diagnostics", len(errs))
		return StatusCompileError, &CompileError{Errs: errs}
	}
	if err := in.vm.Run(fn); err != nil {
		in.log.Debug("runtime error", "err", err)
		return StatusRuntimeError, &RuntimeError{Err: err}
	}
	return StatusOK, nil
}

// Interpret is a one-shot convenience wrapper around New+Run for callers
// that don't need a persistent session. w receives only `print` output;
// diagnostics go to os.Stderr, the same split cmd/ember's driver keeps.
func Interpret(source string, w io.Writer) Status {
	in := New(Config{Stdout: w})
	status, err := in.Run(source)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	return status
}
