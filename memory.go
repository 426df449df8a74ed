package main

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/minic-lang/minic/internal/mem"
)

// wordSize is the machine word size picked once and used consistently for
// stack slots, globals, and pointer scaling (spec.md §9's Design Notes).
const wordSize = 8

// errOOM is returned once a memory region would grow past its configured
// limit; it is the runtime analogue of a start-up pool allocation failure
// (spec.md §7).
var errOOM = errors.New("out of memory")

// Memory is the VM's single byte-addressable address space: the data
// segment, the malloc heap, and the stack are all regions within it, so
// that a LEA-derived stack address and an IMM-derived data-segment address
// can both be handed to LC/LI/SC/SI uniformly, exactly as spec.md §4.5
// describes ("a <- load-word/byte at a") without regard to which region a
// produced it. It is grounded on the teacher's internals.go grow/load/stor
// trio, generalized from an []int "main memory" to byte granularity and
// backed by the paged mem.Bytes store instead of a flat growing slice, so
// that widely separated regions (low data segment, high stack) don't force
// a single multi-megabyte allocation.
type Memory struct {
	bytes mem.Bytes
	limit uint
}

// NewMemory creates a memory region with an optional hard address limit (0
// means unbounded). NewData passes 0; the "-mem-limit" flag installs a limit
// later through SetLimit.
func NewMemory(limit uint) *Memory {
	m := &Memory{limit: limit}
	m.bytes.PageSize = mem.DefaultBytesPageSize
	if limit != 0 {
		m.bytes.Limit = limit
	}
	return m
}

// SetLimit installs a hard address limit after construction, realizing the
// "-mem-limit" flag: every load/store past limit then fails with errOOM.
// 0 means unbounded.
func (m *Memory) SetLimit(limit uint) {
	m.limit = limit
	m.bytes.Limit = limit
}

func (m *Memory) LoadByte(addr int) (byte, error) {
	b, err := m.bytes.Load(uint(addr))
	return b, wrapMemErr(err)
}

func (m *Memory) StoreByte(addr int, val byte) error {
	return wrapMemErr(m.bytes.Stor(uint(addr), val))
}

func (m *Memory) LoadWord(addr int) (int, error) {
	var buf [wordSize]byte
	if err := m.bytes.LoadInto(uint(addr), buf[:]); err != nil {
		return 0, wrapMemErr(err)
	}
	return int(int64(binary.LittleEndian.Uint64(buf[:]))), nil
}

func (m *Memory) StoreWord(addr int, val int) error {
	var buf [wordSize]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(int64(val)))
	return wrapMemErr(m.bytes.Stor(uint(addr), buf[:]...))
}

// LoadCString reads a NUL-terminated byte run starting at addr, e.g. for the
// printf syscall's %s formatting.
func (m *Memory) LoadCString(addr int) ([]byte, error) {
	var out []byte
	for i := 0; ; i++ {
		b, err := m.LoadByte(addr + i)
		if err != nil {
			return nil, err
		}
		if b == 0 {
			return out, nil
		}
		out = append(out, b)
	}
}

func wrapMemErr(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(mem.LimitError); ok {
		return errors.Wrap(errOOM, err.Error())
	}
	return err
}
