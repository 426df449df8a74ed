package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferEmitAndPatch(t *testing.T) {
	b := NewBuffer(16)
	assert.Equal(t, 0, b.Here())

	pos := b.Emit2(OpBZ, 0)
	assert.Equal(t, 0, pos)
	assert.Equal(t, 2, b.Here())

	b.Emit1(int(OpLEV))
	b.Patch(pos, b.Here())
	assert.Equal(t, 3, b.At(pos+1))
	assert.Equal(t, OpLEV, b.LastOp())
}

func TestBufferTruncateForAddressOf(t *testing.T) {
	b := NewBuffer(16)
	b.Emit2(OpIMM, 5)
	pos := b.Emit1(int(OpLC))
	b.Truncate(pos)
	assert.Equal(t, OpIMM, b.LastOp())
	assert.Equal(t, 2, b.Len())
}

func TestBufferPatchOp(t *testing.T) {
	b := NewBuffer(16)
	pos := b.Emit1(int(OpLC))
	b.PatchOp(pos, OpPSH)
	assert.Equal(t, OpPSH, Op(b.At(pos)))
}

func TestDataAppendStringWordAligns(t *testing.T) {
	d := NewData(1 << 10)
	addr1, err := d.AppendString([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 0, addr1)
	assert.Equal(t, 0, d.Here()%wordSize)

	s, err := d.Memory().LoadCString(addr1)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(s))
}

func TestDataAllocGlobalIsZeroedAndWordSized(t *testing.T) {
	d := NewData(1 << 10)
	addr, err := d.AllocGlobal()
	require.NoError(t, err)
	v, err := d.Memory().LoadWord(addr)
	require.NoError(t, err)
	assert.Equal(t, 0, v)

	addr2, err := d.AllocGlobal()
	require.NoError(t, err)
	assert.Equal(t, wordSize, addr2-addr)
}
