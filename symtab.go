package main

import "bytes"

// Kind classifies what a Symbol currently names.
type Kind int

const (
	KindUnresolved Kind = iota
	KindNum
	KindGlobal
	KindLocal
	KindFunc
	KindSysFunc
	KindKeyword
)

// Base is the scalar base type underlying a Type.
type Base int

const (
	CHAR Base = iota
	INT
)

// Type is CHAR, INT, or k levels of pointer indirection over either.
// Ptr == 0 means a plain scalar; Ptr == k means k levels of "*".
type Type struct {
	Base Base
	Ptr  int
}

func (t Type) IsPointer() bool { return t.Ptr > 0 }

func (t Type) Deref() Type {
	t.Ptr--
	return t
}

func (t Type) AddPtr() Type {
	t.Ptr++
	return t
}

// Size is the size in bytes of one value of this type: 1 for a plain
// (non-pointer) CHAR, wordSize for everything else, since every pointer is
// word-sized regardless of what it points to. There is no way to express
// other widths (spec.md §9).
func (t Type) Size(wordSize int) int {
	if t.Ptr == 0 && t.Base == CHAR {
		return 1
	}
	return wordSize
}

// Stride is the scaling factor applied to arithmetic on a value of this
// type: wordSize for a pointer to anything but CHAR, 1 for everything else
// (a plain CHAR or INT, or a pointer-to-CHAR) (spec.md §4.4's "stride" rule).
func (t Type) Stride(wordSize int) int {
	if t.Ptr == 0 {
		return 1
	}
	if t.Ptr == 1 && t.Base == CHAR {
		return 1
	}
	return wordSize
}

// Shadow stashes a symbol's outer binding while a parameter or local of the
// same name is in scope, so RestoreLocals can put it back.
type Shadow struct {
	Kind  Kind
	Type  Type
	Value int
}

// Symbol is one entry in the flat symbol table (spec.md §3/§4.1).
type Symbol struct {
	Name  []byte
	Hash  uint64
	Kind  Kind
	Type  Type
	Value int

	Shadow Shadow
}

// Handle addresses a Symbol in a Table; the zero Handle never names a
// symbol, mirroring the spec's "unresolved identifier" sentinel.
type Handle int

// Table is the append-only symbol table (C1). Lookup is linear with a hash
// pre-filter, per spec.md §4.1: identifier hash collisions are resolved by
// an exact name comparison, never assumed unique.
type Table struct {
	syms []Symbol
}

// NewTable preallocates a fixed-size pool of symbol records, matching
// spec.md §5's "four memory regions... allocated once up front from
// fixed-size pools".
func NewTable(capacity int) *Table {
	return &Table{syms: make([]Symbol, 0, capacity)}
}

func (t *Table) Get(h Handle) *Symbol {
	if h <= 0 || int(h) > len(t.syms) {
		return nil
	}
	return &t.syms[h-1]
}

// Intern returns the handle of the existing entry whose hash and name both
// match, or appends a fresh unresolved-identifier entry.
func (t *Table) Intern(name []byte, hash uint64) Handle {
	for i := range t.syms {
		if t.syms[i].Hash == hash && bytes.Equal(t.syms[i].Name, name) {
			return Handle(i + 1)
		}
	}
	t.syms = append(t.syms, Symbol{Name: append([]byte(nil), name...), Hash: hash})
	return Handle(len(t.syms))
}

// InternKeyword installs a fixed table entry outside of lexing, used to
// pre-seed keywords and syscalls at startup (spec.md §4.1).
func (t *Table) InternKeyword(name string, kind Kind, typ Type, value int) Handle {
	h := t.Intern([]byte(name), hashIdent([]byte(name)))
	sym := t.Get(h)
	sym.Kind = kind
	sym.Type = typ
	sym.Value = value
	return h
}

// SnapshotLocal stashes the symbol's current (kind, type, value) into its
// shadow, then overwrites with the parameter/local binding. Used whenever a
// declaration shadows an outer name.
func (t *Table) SnapshotLocal(h Handle, kind Kind, typ Type, value int) {
	sym := t.Get(h)
	sym.Shadow = Shadow{Kind: sym.Kind, Type: sym.Type, Value: sym.Value}
	sym.Kind, sym.Type, sym.Value = kind, typ, value
}

// RestoreLocals walks the table restoring the shadow of every entry whose
// current kind is KindLocal, returning the table to its pre-function state
// (spec.md §8 property 2). Called once at the end of a function body.
func (t *Table) RestoreLocals() {
	for i := range t.syms {
		if t.syms[i].Kind == KindLocal {
			s := &t.syms[i]
			s.Kind, s.Type, s.Value = s.Shadow.Kind, s.Shadow.Type, s.Shadow.Value
			s.Shadow = Shadow{}
		}
	}
}

// Each calls fn for every interned symbol, in table order. Used by the
// disassembler to label function entry addresses.
func (t *Table) Each(fn func(name string, sym *Symbol)) {
	for i := range t.syms {
		fn(string(t.syms[i].Name), &t.syms[i])
	}
}

// hashIdent computes the identifier hash per spec.md §4.2:
// h := h*147 + c for each byte, then h := (h<<6) + length.
func hashIdent(name []byte) uint64 {
	var h uint64
	for _, c := range name {
		h = h*147 + uint64(c)
	}
	return (h << 6) + uint64(len(name))
}
