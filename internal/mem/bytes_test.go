package mem_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/minic-lang/minic/internal/mem"
)

func Test_Bytes(t *testing.T) {
	var m mem.Bytes
	m.PageSize = 4

	v, err := m.Load(0)
	require.NoError(t, err)
	require.Equal(t, byte(0), v, "unallocated page reads back as 0")

	require.NoError(t, m.Stor(2, 1, 2, 3))
	v, err = m.Load(2)
	require.NoError(t, err)
	require.Equal(t, byte(1), v)

	// crosses the page-size-4 boundary at address 8
	require.NoError(t, m.Stor(6, 9, 8, 7))
	buf := make([]byte, 8)
	require.NoError(t, m.LoadInto(0, buf))
	require.Equal(t, []byte{0, 0, 1, 2, 3, 0, 9, 8}, buf)
}

func Test_Bytes_Limit(t *testing.T) {
	var m mem.Bytes
	m.PageSize = 4
	m.Limit = 8

	require.NoError(t, m.Stor(4, 1))
	_, err := m.Load(9)
	require.Error(t, err)
	var limErr mem.LimitError
	require.ErrorAs(t, err, &limErr)
}
