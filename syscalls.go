package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/minic-lang/minic/internal/flushio"
	"github.com/minic-lang/minic/internal/runeio"
)

// Syscalls is the pluggable host side of the VM's pre-declared syscall
// table (spec.md §1: "the concrete host-syscall implementations ... are
// specified only as an interface"). memset/memcmp/exit need no host
// resource and are handled directly by the Machine against its shared
// Memory.
type Syscalls interface {
	Open(path string, flags int) (fd int, err error)
	Read(fd int, buf []byte) (n int, err error)
	Close(fd int) error
	// Printf formats args against format the way C's printf does, writing
	// to the host's standard output, and returns the byte count written.
	Printf(format string, args []int, mem *Memory) (n int, err error)
	Malloc(size int) (addr int, err error)
	Free(addr int)
}

// HostSyscalls is the default Syscalls implementation, backed by real
// files and a bump allocator carved out of the shared Memory above the
// data segment (spec.md §6's syscall table; malloc/free have no reuse
// policy, matching the source's own lack of a free list).
type HostSyscalls struct {
	mem     *Memory
	out     flushio.WriteFlusher
	files   map[int]*os.File
	nextFD  int
	heapTop int
}

const heapBase = 1 << 20

// NewHostSyscalls creates the default host-backed syscall implementation,
// sharing mem with the compiler's data segment so malloc addresses land in
// the same address space as globals and stack slots. Printf output is
// buffered and flushed through out, matching the rest of the toolchain's
// flushio-based output handling.
func NewHostSyscalls(mem *Memory, out io.Writer) *HostSyscalls {
	return &HostSyscalls{
		mem:     mem,
		out:     flushio.NewWriteFlusher(out),
		files:   make(map[int]*os.File),
		nextFD:  3, // 0,1,2 reserved for stdin/stdout/stderr
		heapTop: heapBase,
	}
}

// Flush drains any buffered Printf output; callers should defer it once
// after a run completes.
func (h *HostSyscalls) Flush() error { return h.out.Flush() }

func (h *HostSyscalls) Open(path string, flags int) (int, error) {
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return -1, errors.Wrap(err, "open")
	}
	fd := h.nextFD
	h.nextFD++
	h.files[fd] = f
	return fd, nil
}

func (h *HostSyscalls) Read(fd int, buf []byte) (int, error) {
	f, err := h.fileFor(fd)
	if err != nil {
		return -1, err
	}
	n, err := f.Read(buf)
	if err != nil && n == 0 {
		return -1, errors.Wrap(err, "read")
	}
	return n, nil
}

func (h *HostSyscalls) Close(fd int) error {
	f, err := h.fileFor(fd)
	if err != nil {
		return err
	}
	delete(h.files, fd)
	return f.Close()
}

func (h *HostSyscalls) fileFor(fd int) (*os.File, error) {
	switch fd {
	case 0:
		return os.Stdin, nil
	case 1:
		return os.Stdout, nil
	case 2:
		return os.Stderr, nil
	}
	f, ok := h.files[fd]
	if !ok {
		return nil, errors.Errorf("bad file descriptor %d", fd)
	}
	return f, nil
}

// Printf supports the %d/%s/%c/%x/%% conversions the source's own library
// calls exercise; any other verb is written out verbatim, '%' included, and
// consumes no argument. %s args are addresses, resolved against mem as
// NUL-terminated C strings.
func (h *HostSyscalls) Printf(format string, args []int, mem *Memory) (int, error) {
	var sb strings.Builder
	ai := 0
	next := func() int {
		if ai < len(args) {
			v := args[ai]
			ai++
			return v
		}
		return 0
	}
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' || i+1 >= len(format) {
			sb.WriteByte(c)
			continue
		}
		i++
		switch format[i] {
		case 'd':
			fmt.Fprintf(&sb, "%d", next())
		case 'x':
			fmt.Fprintf(&sb, "%x", next())
		case 'c':
			// The argument is truncated to a byte and written through
			// WriteANSIRune, the way the teacher's echo primitive handles
			// non-ASCII bytes: ASCII as is, 0x80-0x9f in their 7-bit ESC
			// form, 0xa0-0xff as UTF-8.
			if _, err := runeio.WriteANSIRune(&sb, rune(byte(next()))); err != nil {
				return 0, errors.Wrap(err, "printf")
			}
		case 's':
			s, err := mem.LoadCString(next())
			if err != nil {
				return 0, err
			}
			sb.Write(s)
		case '%':
			sb.WriteByte('%')
		default:
			sb.WriteByte('%')
			sb.WriteByte(format[i])
		}
	}
	n, err := h.out.Write([]byte(sb.String()))
	return n, errors.Wrap(err, "printf")
}

func (h *HostSyscalls) Malloc(size int) (int, error) {
	if size <= 0 {
		return 0, nil
	}
	addr := h.heapTop
	h.heapTop += size
	if rem := h.heapTop % wordSize; rem != 0 {
		h.heapTop += wordSize - rem
	}
	return addr, nil
}

// Free is a no-op: the source this was distilled from never implements a
// free list either, so reclaimed memory is never reused within one run.
func (h *HostSyscalls) Free(addr int) {}
