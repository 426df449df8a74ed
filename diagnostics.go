package main

import "fmt"

// CompileError is a diagnostic raised by the compiler, carrying the 1-based
// source line it occurred on and the raw text scanned so far on that line
// (SPEC_FULL.md's supplemented source-annotated diagnostics). Plain mode
// prints just "<line>: <message>", matching spec.md §7's minimal error
// format; the source text is printed only in -s mode, via Detailed.
type CompileError struct {
	Line    int
	Message string
	Source  string // always captured; printed only by Detailed (-s mode)
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%d: %s", e.Line, e.Message)
}

// Detailed formats the diagnostic with its source line appended, for -s
// mode's source-annotated error reporting (SPEC_FULL.md §5). Plain Error()
// stays minimal to match spec.md §7 in every other mode.
func (e *CompileError) Detailed() string {
	if e.Source == "" {
		return e.Error()
	}
	return fmt.Sprintf("%d: %s\n    %s", e.Line, e.Message, e.Source)
}

// errf builds a CompileError at the compiler's current line, capturing the
// raw source text scanned so far on that line for -s mode's benefit even
// though plain Error() never prints it.
func (c *Compiler) errf(format string, args ...interface{}) error {
	return &CompileError{
		Line:    c.lex.Line(),
		Message: fmt.Sprintf(format, args...),
		Source:  c.lex.SourceLine(),
	}
}

// RuntimeError is raised by the VM when it halts abnormally: an illegal
// opcode, division by zero, or a stack/memory fault, including one hit
// while a syscall reads its arguments (a failing host syscall itself only
// returns -1 in the accumulator) (spec.md §7's "runtime
// faults during VM execution abort with a distinct, identifiable status").
type RuntimeError struct {
	PC      int
	Message string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("vm fault at pc=%d: %s", e.PC, e.Message)
}
