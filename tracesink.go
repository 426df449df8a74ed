package main

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/minic-lang/minic/internal/panicerr"
)

// traceLine is one formatted -d trace record, queued by the VM's per-step
// hook and drained concurrently so tracing never blocks execution on a
// slow writer (e.g. a piped terminal).
type traceLine string

// traceSink buffers formatted trace lines off of the VM's hot path and
// drains them to out on its own goroutine, matching spec.md's SUPPLEMENTED
// FEATURES request for -d single-step tracing without perturbing timing.
type traceSink struct {
	lines chan traceLine
	group *errgroup.Group
}

// newTraceSink starts the drain goroutine. Call Hook to obtain a
// MachineOption wiring the VM's trace callback into it, and Close once the
// run is done to flush and join the goroutine.
func newTraceSink(ctx context.Context, out io.Writer) *traceSink {
	group, ctx := errgroup.WithContext(ctx)
	ts := &traceSink{lines: make(chan traceLine, 256), group: group}
	group.Go(func() error {
		return panicerr.Recover("tracesink", func() error {
			w := bufio.NewWriter(out)
			defer w.Flush()
			for {
				select {
				case line, ok := <-ts.lines:
					if !ok {
						return nil
					}
					if _, err := io.WriteString(w, string(line)+"\n"); err != nil {
						return err
					}
				case <-ctx.Done():
					return nil
				}
			}
		})
	})
	return ts
}

// Hook returns a MachineOption that formats every instruction the VM steps
// through and queues it, dropping the line when the queue is full.
func (ts *traceSink) Hook() MachineOption {
	return WithTrace(func(pc int, op Op, operand int, a, sp, bp int) {
		line := traceLine(fmt.Sprintf("pc=%-5d %-4s %-8d a=%-8d sp=%-8d bp=%-8d", pc, op, operand, a, sp, bp))
		select {
		case ts.lines <- line:
		default:
			// drop rather than block the VM if the drain falls behind
		}
	})
}

// Close stops accepting lines and waits for the drain goroutine to finish
// flushing.
func (ts *traceSink) Close() error {
	close(ts.lines)
	return ts.group.Wait()
}
