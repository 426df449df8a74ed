package main

import (
	"context"
	"io"

	"github.com/minic-lang/minic/internal/fileinput"
	"github.com/minic-lang/minic/internal/panicerr"
)

// Program holds the compiled artifacts needed to execute a source file:
// the code buffer, the shared data/heap/stack address space, and the
// symbol table that named main() (spec.md §3's data model).
type Program struct {
	Code  *Buffer
	Data  *Data
	Table *Table
	Entry int
}

// poolSizes are the fixed pool capacities spec.md §5 requires be allocated
// once up front, before any parsing begins.
type poolSizes struct{ symbols, code, data int }

var defaultPools = poolSizes{symbols: 1 << 12, code: 1 << 16, data: 1 << 18}

// PoolOption overrides one of the fixed-size pool capacities.
type PoolOption func(*poolSizes)

func WithSymbolPool(n int) PoolOption { return func(p *poolSizes) { p.symbols = n } }
func WithCodePool(n int) PoolOption   { return func(p *poolSizes) { p.code = n } }
func WithDataPool(n int) PoolOption   { return func(p *poolSizes) { p.data = n } }

type namedReader struct {
	io.Reader
	name string
}

func (nr namedReader) Name() string { return nr.name }

// CompileSource compiles a single named source file (spec.md's
// single-translation-unit restriction) into a Program ready to Run.
func CompileSource(name string, r io.Reader, opts ...PoolOption) (*Program, error) {
	pools := defaultPools
	for _, o := range opts {
		o(&pools)
	}

	table := NewTable(pools.symbols)
	code := NewBuffer(pools.code)
	data := NewData(pools.data)

	in := &fileinput.Input{Queue: []io.Reader{namedReader{r, name}}}
	lex := NewLexer(in, table, data)
	comp := NewCompiler(lex, table, code, data)
	if err := comp.Compile(); err != nil {
		return nil, err
	}
	return &Program{Code: code, Data: data, Table: table, Entry: comp.Entry()}, nil
}

// Run executes prog on a fresh Machine, recovering any panic or runtime.Goexit
// from deep inside the VM loop as a plain error return, the way the
// top-level driver isolates a single run (spec.md §7).
func Run(ctx context.Context, prog *Program, argv []string, opts ...MachineOption) error {
	return panicerr.Recover("vm", func() error {
		m := NewMachine(prog.Code, prog.Data.Memory(), prog.Entry, opts...)
		return m.Run(ctx, argv)
	})
}
