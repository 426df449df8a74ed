package main

import (
	"fmt"
	"io"
)

// dumper disassembles a code buffer for the -s flag, printing a line per
// instruction so a reader can see exactly what the compiler emitted,
// matching spec.md's "supplemented" disassembly listing. Grounded on the
// teacher's own vmDumper, but walking a flat []int code buffer instead of a
// unified Forth memory image.
type dumper struct {
	code *Buffer
	out  io.Writer
}

func newDumper(code *Buffer, out io.Writer) *dumper {
	return &dumper{code: code, out: out}
}

// dump writes the full buffer's disassembly, annotating any address a
// function symbol names.
func (d *dumper) dump(table *Table) {
	labels := labelsByAddr(table)
	for pc := 0; pc < d.code.Len(); {
		if name, ok := labels[pc]; ok {
			fmt.Fprintf(d.out, "%s:\n", name)
		}
		pc = d.dumpOne(pc)
	}
}

// dumpOne writes the instruction at pc and returns the address of the next
// one.
func (d *dumper) dumpOne(pc int) int {
	op := Op(d.code.At(pc))
	if op.takesImmediate() {
		operand := d.code.At(pc + 1)
		fmt.Fprintf(d.out, "  %5d  %-4s %d\n", pc, op, operand)
		return pc + 2
	}
	fmt.Fprintf(d.out, "  %5d  %-4s\n", pc, op)
	return pc + 1
}

// labelsByAddr maps a function's entry address back to its name.
func labelsByAddr(table *Table) map[int]string {
	out := make(map[int]string)
	table.Each(func(name string, sym *Symbol) {
		if sym.Kind == KindFunc {
			out[sym.Value] = name
		}
	})
	return out
}
