package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeSizeAndStride(t *testing.T) {
	const word = 8
	cases := []struct {
		name         string
		ty           Type
		size, stride int
	}{
		{"char", Type{Base: CHAR}, 1, 1},
		{"int", Type{Base: INT}, word, 1},
		{"char*", Type{Base: CHAR, Ptr: 1}, word, 1},
		{"int*", Type{Base: INT, Ptr: 1}, word, word},
		{"char**", Type{Base: CHAR, Ptr: 2}, word, word},
		{"int**", Type{Base: INT, Ptr: 2}, word, word},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.size, c.ty.Size(word), "Size")
			assert.Equal(t, c.stride, c.ty.Stride(word), "Stride")
		})
	}
}

func TestTableInternDedupesByHashAndName(t *testing.T) {
	table := NewTable(8)
	h1 := table.Intern([]byte("foo"), hashIdent([]byte("foo")))
	h2 := table.Intern([]byte("foo"), hashIdent([]byte("foo")))
	h3 := table.Intern([]byte("bar"), hashIdent([]byte("bar")))
	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
}

func TestTableSnapshotAndRestoreLocals(t *testing.T) {
	table := NewTable(8)
	h := table.Intern([]byte("x"), hashIdent([]byte("x")))
	sym := table.Get(h)
	sym.Kind, sym.Type, sym.Value = KindGlobal, Type{Base: INT}, 42

	table.SnapshotLocal(h, KindLocal, Type{Base: CHAR, Ptr: 1}, 0)
	require.Equal(t, KindLocal, table.Get(h).Kind)
	assert.Equal(t, Type{Base: CHAR, Ptr: 1}, table.Get(h).Type)

	table.RestoreLocals()
	got := table.Get(h)
	assert.Equal(t, KindGlobal, got.Kind)
	assert.Equal(t, Type{Base: INT}, got.Type)
	assert.Equal(t, 42, got.Value)
}

func TestHashIdentMatchesSpecFormula(t *testing.T) {
	name := []byte("ab")
	var want uint64
	for _, c := range name {
		want = want*147 + uint64(c)
	}
	want = (want << 6) + uint64(len(name))
	assert.Equal(t, want, hashIdent(name))
}
