package main

import "github.com/pkg/errors"

// Compiler is the single-pass parser+codegen (C4): it walks the token
// stream exactly once, emitting code directly with no intermediate AST, per
// spec.md §4.4. State that would be a handful of global variables in the
// original C source (tk, ival, ty, loc) becomes fields here instead.
type Compiler struct {
	lex   *Lexer
	table *Table
	code  *Buffer
	data  *Data

	tok Tok
	val int
	sym Handle

	curType Type // "ty": the type of the expression just generated
	loc     int  // "loc": local-variable frame base for the function being compiled

	entry int // code address of main(), once found
}

// NewCompiler creates a compiler over lex, sharing table/code/data with the
// rest of the toolchain, and pre-seeds the symbol table with keywords and
// syscall names (spec.md §4.1/§6).
func NewCompiler(lex *Lexer, table *Table, code *Buffer, data *Data) *Compiler {
	seedKeywords(table)
	seedSyscalls(table)
	return &Compiler{lex: lex, table: table, code: code, data: data}
}

func seedKeywords(t *Table) {
	for _, kw := range keywords {
		t.InternKeyword(kw.name, KindKeyword, Type{}, int(kw.tok))
	}
}

func seedSyscalls(t *Table) {
	for _, sc := range syscalls {
		t.InternKeyword(sc.name, KindSysFunc, Type{Base: INT}, int(sc.op))
	}
}

// Entry returns the code address main() was compiled to.
func (c *Compiler) Entry() int { return c.entry }

func (c *Compiler) next() error {
	if err := c.lex.Next(); err != nil {
		return errors.Wrap(err, "lex")
	}
	c.tok, c.val, c.sym = c.lex.Tok, c.lex.Val, c.lex.Sym
	return nil
}

func (c *Compiler) expect(tok Tok, what string) error {
	if c.tok != tok {
		return c.errf("%s expected", what)
	}
	return c.next()
}

// Compile parses and emits code for the whole translation unit (spec.md
// §4.4's top-level declaration loop), then resolves main().
func (c *Compiler) Compile() error {
	if err := c.next(); err != nil {
		return err
	}
	for c.tok != tokEOF {
		if err := c.declaration(); err != nil {
			return err
		}
	}

	h := c.table.Intern([]byte("main"), hashIdent([]byte("main")))
	main := c.table.Get(h)
	if main.Kind != KindFunc {
		return errors.New("main() not defined")
	}
	c.entry = main.Value
	return nil
}

// declaration parses one top-level group of declarations sharing a base
// type: a bare enum, or one or more comma-separated globals/functions of
// the same int/char base type (spec.md §4.4).
func (c *Compiler) declaration() error {
	bt := Type{Base: INT}
	switch c.tok {
	case tokInt:
		if err := c.next(); err != nil {
			return err
		}
	case tokChar:
		bt = Type{Base: CHAR}
		if err := c.next(); err != nil {
			return err
		}
	case tokEnum:
		if err := c.enumDecl(); err != nil {
			return err
		}
	}

	for c.tok != ';' && c.tok != '}' {
		ty := bt
		for c.tok == tokMul {
			if err := c.next(); err != nil {
				return err
			}
			ty = ty.AddPtr()
		}
		if c.tok != tokIdent {
			return c.errf("bad global declaration")
		}
		h := c.sym
		sym := c.table.Get(h)
		if sym.Kind != KindUnresolved {
			return c.errf("duplicate global definition")
		}
		if err := c.next(); err != nil {
			return err
		}
		sym.Type = ty

		if c.tok == '(' {
			if err := c.functionBody(h); err != nil {
				return err
			}
		} else {
			sym.Kind = KindGlobal
			addr, err := c.data.AllocGlobal()
			if err != nil {
				return err
			}
			sym.Value = addr
		}

		if c.tok == ',' {
			if err := c.next(); err != nil {
				return err
			}
		}
	}
	return c.next()
}

// enumDecl parses "enum [tag] { Ident [= Num] , ... }" (spec.md §4.4),
// assigning each member KindNum with successive (or explicitly assigned)
// values. The enclosing declaration loop still runs afterward, so "enum {
// A, B } x;" also declares x as a plain int, matching the source this was
// distilled from.
func (c *Compiler) enumDecl() error {
	if err := c.next(); err != nil {
		return err
	}
	if c.tok != '{' {
		if err := c.next(); err != nil { // skip an optional tag name
			return err
		}
	}
	if c.tok != '{' {
		return nil
	}
	if err := c.next(); err != nil {
		return err
	}
	v := 0
	for c.tok != '}' {
		if c.tok != tokIdent {
			return c.errf("bad enum identifier")
		}
		h := c.sym
		if err := c.next(); err != nil {
			return err
		}
		if c.tok == tokAssign {
			if err := c.next(); err != nil {
				return err
			}
			if c.tok != tokNum {
				return c.errf("bad enum initializer")
			}
			v = c.val
			if err := c.next(); err != nil {
				return err
			}
		}
		sym := c.table.Get(h)
		sym.Kind, sym.Type, sym.Value = KindNum, Type{Base: INT}, v
		v++
		if c.tok == ',' {
			if err := c.next(); err != nil {
				return err
			}
		}
	}
	return c.next()
}

// functionBody parses a function's parameter list, local declarations, and
// body, having already consumed its name and return type. h names the
// function's own symbol.
func (c *Compiler) functionBody(h Handle) error {
	sym := c.table.Get(h)
	sym.Kind = KindFunc
	sym.Value = c.code.Here()

	if err := c.next(); err != nil { // consume '('
		return err
	}
	n := 0
	for c.tok != ')' {
		ty := Type{Base: INT}
		switch c.tok {
		case tokInt:
			if err := c.next(); err != nil {
				return err
			}
		case tokChar:
			ty = Type{Base: CHAR}
			if err := c.next(); err != nil {
				return err
			}
		}
		for c.tok == tokMul {
			if err := c.next(); err != nil {
				return err
			}
			ty = ty.AddPtr()
		}
		if c.tok != tokIdent {
			return c.errf("bad parameter declaration")
		}
		ph := c.sym
		psym := c.table.Get(ph)
		if psym.Kind == KindLocal {
			return c.errf("duplicate parameter definition")
		}
		c.table.SnapshotLocal(ph, KindLocal, ty, n)
		n++
		if err := c.next(); err != nil {
			return err
		}
		if c.tok == ',' {
			if err := c.next(); err != nil {
				return err
			}
		}
	}
	if err := c.next(); err != nil { // consume ')'
		return err
	}
	if c.tok != '{' {
		return c.errf("bad function definition")
	}
	c.loc = n + 1
	n = c.loc
	if err := c.next(); err != nil { // consume '{'
		return err
	}

	for c.tok == tokInt || c.tok == tokChar {
		bt := Type{Base: INT}
		if c.tok == tokChar {
			bt = Type{Base: CHAR}
		}
		if err := c.next(); err != nil {
			return err
		}
		for c.tok != ';' {
			ty := bt
			for c.tok == tokMul {
				if err := c.next(); err != nil {
					return err
				}
				ty = ty.AddPtr()
			}
			if c.tok != tokIdent {
				return c.errf("bad local declaration")
			}
			lh := c.sym
			lsym := c.table.Get(lh)
			if lsym.Kind == KindLocal {
				return c.errf("duplicate local definition")
			}
			n++
			c.table.SnapshotLocal(lh, KindLocal, ty, n)
			if err := c.next(); err != nil {
				return err
			}
			if c.tok == ',' {
				if err := c.next(); err != nil {
					return err
				}
			}
		}
		if err := c.next(); err != nil { // consume ';'
			return err
		}
	}

	c.code.Emit2(OpENT, n-c.loc)
	for c.tok != '}' {
		if err := c.stmt(); err != nil {
			return err
		}
	}
	// The closing '}' is left as the current token: it ends declaration's
	// declarator loop, whose final next() consumes it.
	c.code.Emit1(int(OpLEV))
	c.table.RestoreLocals()
	return nil
}
