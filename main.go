package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/minic-lang/minic/internal/logio"
)

func main() {
	var (
		dump     bool
		trace    bool
		memLimit uint
		timeout  time.Duration
	)
	flag.BoolVar(&dump, "s", false, "print a disassembly of the compiled program")
	flag.BoolVar(&trace, "d", false, "trace every instruction the VM executes")
	flag.UintVar(&memLimit, "mem-limit", 0, "limit the VM's address space in bytes (0 = unlimited)")
	flag.DurationVar(&timeout, "timeout", 0, "abort the run after this long (0 = unlimited)")
	flag.Parse()

	log := logio.Logger{}
	log.SetOutput(os.Stderr)
	exitCode := 0
	defer func() { os.Exit(exitCode) }()
	defer func() {
		if c := log.ExitCode(); c != 0 {
			exitCode = c
		}
	}()

	args := flag.Args()
	if len(args) < 1 {
		log.ErrorIf(fmt.Errorf("usage: %s [flags] source.c [args...]", os.Args[0]))
		return
	}
	srcPath, argv := args[0], args[1:]

	f, err := os.Open(srcPath)
	if err != nil {
		log.ErrorIf(err)
		return
	}
	defer f.Close()

	prog, err := CompileSource(srcPath, f)
	if err != nil {
		if dump {
			// -s's source-annotated diagnostics (SPEC_FULL.md §5): print the
			// offending line alongside the message instead of the bare
			// "<line>: message" spec.md §7 otherwise requires.
			if ce, ok := err.(*CompileError); ok {
				log.ErrorIf(fmt.Errorf("%s", ce.Detailed()))
				return
			}
		}
		log.ErrorIf(err)
		return
	}

	if dump {
		// -s prints a disassembly listing of the compiled code, labelled by
		// function name, and suppresses execution (spec.md §6): the compiler
		// exits 0 after parsing, never running the VM. Source lines are not
		// interleaved into the listing.
		newDumper(prog.Code, os.Stdout).dump(prog.Table)
		return
	}

	ctx := context.Background()
	if timeout != 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	opts := []MachineOption{
		WithLogf(log.Leveledf("TRACE")),
	}
	if memLimit != 0 {
		// Cap the whole shared address space at memLimit and start the
		// stack right at that cap so it grows down within bounds, while the
		// data segment/heap grow up from 0 (memory.go, vm.go).
		prog.Data.Memory().SetLimit(memLimit)
		opts = append(opts, WithStackTop(int(memLimit)))
	}

	var sink *traceSink
	if trace {
		sink = newTraceSink(ctx, os.Stderr)
		opts = append(opts, sink.Hook())
	}

	runErr := Run(ctx, prog, append([]string{srcPath}, argv...), opts...)
	if sink != nil {
		log.ErrorIf(sink.Close())
	}

	if _, ok := runErr.(haltError); runErr != nil && !ok {
		log.ErrorIf(runErr)
		return
	}
	exitCode = ExitCode(runErr)
}
