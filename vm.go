package main

import (
	"context"
	"os"

	"github.com/pkg/errors"
)

// defaultStackTop picks the VM stack's starting address, high enough above
// the data segment and malloc heap that ordinary programs never collide
// with it (spec.md §5's "four memory regions ... allocated once up front").
const defaultStackTop = 1 << 24

// haltError is a deliberate, successful VM halt (an EXIT syscall), as
// opposed to a RuntimeError fault. It carries the process exit code.
type haltError struct{ code int }

func (h haltError) Error() string { return "exit" }

// Machine is the VM (C5): four registers plus a private stack, running the
// code buffer produced by the Compiler against the same unified Memory the
// data segment and malloc heap live in (spec.md §4.5).
type Machine struct {
	code *Buffer
	mem  *Memory

	pc int // code-buffer index
	sp int // stack pointer, a byte address into mem
	bp int // frame pointer, a byte address into mem
	a  int // accumulator

	stackTop int
	syscalls Syscalls
	trace    func(pc int, op Op, operand int, a, sp, bp int)
	logf     func(mess string, args ...interface{})

	cycles int
}

// NewMachine creates a Machine ready to execute code starting at entry,
// sharing mem with the compiler's data segment so that globals, the heap,
// and the stack address uniformly.
func NewMachine(code *Buffer, mem *Memory, entry int, opts ...MachineOption) *Machine {
	m := &Machine{code: code, mem: mem, pc: entry, stackTop: defaultStackTop}
	defaultMachineOptions.apply(m)
	MachineOptions(opts...).apply(m)
	if m.syscalls == nil {
		m.syscalls = NewHostSyscalls(mem, os.Stdout)
	}
	return m
}

// Run sets up main's initial stack frame and executes until EXIT, an
// unhandled fault, or ctx's deadline. It returns nil on a clean EXIT(0),
// and otherwise an error describing why execution stopped; the process
// exit code for a non-nil haltError is available via ExitCode.
func (m *Machine) Run(ctx context.Context, argv []string) (err error) {
	if flusher, ok := m.syscalls.(interface{ Flush() error }); ok {
		defer flusher.Flush()
	}
	defer func() {
		if r := recover(); r != nil {
			if re, ok := r.(*RuntimeError); ok {
				err = re
				return
			}
			panic(r)
		}
	}()

	m.setupFrame(argv)
	for {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "vm")
		}
		if err := m.step(); err != nil {
			var h haltError
			if errors.As(err, &h) {
				if h.code == 0 {
					return nil
				}
				return err
			}
			return err
		}
	}
}

// ExitCode extracts the process exit status carried by a Run error that
// wraps a haltError, or 0 if err is nil or not a halt.
func ExitCode(err error) int {
	var h haltError
	if errors.As(err, &h) {
		return h.code
	}
	return 0
}

// setupFrame builds main's synthetic caller (spec.md §4.5's calling
// convention note): a tiny PSH;EXIT epilogue appended to the code buffer,
// whose address is pushed as main's return pc, below argc and an argv
// table copied just above the stack's starting address.
func (m *Machine) setupFrame(argv []string) {
	epilogue := m.code.Here()
	m.code.Emit1(int(OpPSH))
	m.code.Emit1(int(OpEXIT))

	m.bp = m.stackTop
	m.sp = m.stackTop

	argvAddr := m.copyArgv(argv)

	m.push(epilogue)  // sentinel slot below main's arguments; never popped
	m.push(len(argv)) // argc: first argument, so deepest, as callers push left to right
	m.push(argvAddr)
	m.push(epilogue) // return address: the slot main's LEV pops into pc
}

// copyArgv lays out argv's strings and a pointer table in the shared
// Memory starting eight words above the stack's starting address, where
// the downward-growing stack never reaches. It returns the table's address.
func (m *Machine) copyArgv(argv []string) int {
	if len(argv) == 0 {
		return 0
	}
	ptrs := make([]int, len(argv))
	base := m.stackTop + wordSize*8
	cur := base + wordSize*len(argv)
	for i, s := range argv {
		ptrs[i] = cur
		for j := 0; j < len(s); j++ {
			if err := m.mem.StoreByte(cur+j, s[j]); err != nil {
				panic(&RuntimeError{PC: m.pc, Message: err.Error()})
			}
		}
		if err := m.mem.StoreByte(cur+len(s), 0); err != nil {
			panic(&RuntimeError{PC: m.pc, Message: err.Error()})
		}
		cur += len(s) + 1
	}
	for i, p := range ptrs {
		if err := m.mem.StoreWord(base+wordSize*i, p); err != nil {
			panic(&RuntimeError{PC: m.pc, Message: err.Error()})
		}
	}
	return base
}

func (m *Machine) push(v int) {
	m.sp -= wordSize
	if err := m.mem.StoreWord(m.sp, v); err != nil {
		panic(&RuntimeError{PC: m.pc, Message: err.Error()})
	}
}

func (m *Machine) pop() int {
	v, err := m.mem.LoadWord(m.sp)
	if err != nil {
		panic(&RuntimeError{PC: m.pc, Message: err.Error()})
	}
	m.sp += wordSize
	return v
}

func (m *Machine) fetch() int {
	v := m.code.At(m.pc)
	m.pc++
	return v
}

// step executes exactly one instruction, the fetch-decode-execute body
// (spec.md §4.5/§6). Faults (bad opcode, memory errors) are returned as
// *RuntimeError; EXIT is signaled by returning a haltError value.
func (m *Machine) step() (err error) {
	defer func() {
		if r := recover(); r != nil {
			if re, ok := r.(*RuntimeError); ok {
				err = re
				return
			}
			panic(r)
		}
	}()

	startPC := m.pc
	op := Op(m.fetch())
	var operand int
	if op.takesImmediate() {
		operand = m.fetch()
	}
	m.cycles++

	if m.trace != nil {
		m.trace(startPC, op, operand, m.a, m.sp, m.bp)
	}

	switch op {
	case OpLEA:
		m.a = m.bp + operand*wordSize
	case OpIMM:
		m.a = operand
	case OpJMP:
		m.pc = operand
	case OpJSR:
		m.push(m.pc)
		m.pc = operand
	case OpBZ:
		if m.a == 0 {
			m.pc = operand
		}
	case OpBNZ:
		if m.a != 0 {
			m.pc = operand
		}
	case OpENT:
		m.push(m.bp)
		m.bp = m.sp
		m.sp -= operand * wordSize
	case OpADJ:
		m.sp += operand * wordSize
	case OpLEV:
		m.sp = m.bp
		m.bp = m.pop()
		m.pc = m.pop()
	case OpLI:
		m.a = m.loadWord(m.a)
	case OpLC:
		m.a = int(m.loadByte(m.a))
	case OpSI:
		m.storeWord(m.pop(), m.a)
	case OpSC:
		m.storeByte(m.pop(), byte(m.a))
		m.a = int(byte(m.a))
	case OpPSH:
		m.push(m.a)

	case OpOR:
		m.a = m.pop() | m.a
	case OpXOR:
		m.a = m.pop() ^ m.a
	case OpAND:
		m.a = m.pop() & m.a
	case OpEQ:
		m.a = boolInt(m.pop() == m.a)
	case OpNE:
		m.a = boolInt(m.pop() != m.a)
	case OpLT:
		m.a = boolInt(m.pop() < m.a)
	case OpGT:
		m.a = boolInt(m.pop() > m.a)
	case OpLE:
		m.a = boolInt(m.pop() <= m.a)
	case OpGE:
		m.a = boolInt(m.pop() >= m.a)
	case OpSHL:
		m.a = m.pop() << uint(m.a)
	case OpSHR:
		m.a = m.pop() >> uint(m.a)
	case OpADD:
		m.a = m.pop() + m.a
	case OpSUB:
		m.a = m.pop() - m.a
	case OpMUL:
		m.a = m.pop() * m.a
	case OpDIV:
		m.a = m.divmod(m.pop(), m.a, false)
	case OpMOD:
		m.a = m.divmod(m.pop(), m.a, true)

	case OpOPEN, OpREAD, OpCLOS, OpPRTF, OpMALC, OpFREE, OpMSET, OpMCMP:
		m.a = m.syscall(op)
	case OpEXIT:
		return haltError{code: m.pop()}

	default:
		return &RuntimeError{PC: startPC, Message: "unknown instruction"}
	}
	return nil
}

func (m *Machine) divmod(x, y int, mod bool) int {
	if y == 0 {
		panic(&RuntimeError{PC: m.pc, Message: "division by zero"})
	}
	if mod {
		return x % y
	}
	return x / y
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (m *Machine) loadWord(addr int) int {
	v, err := m.mem.LoadWord(addr)
	if err != nil {
		panic(&RuntimeError{PC: m.pc, Message: err.Error()})
	}
	return v
}

func (m *Machine) storeWord(addr, v int) {
	if err := m.mem.StoreWord(addr, v); err != nil {
		panic(&RuntimeError{PC: m.pc, Message: err.Error()})
	}
}

func (m *Machine) loadByte(addr int) byte {
	v, err := m.mem.LoadByte(addr)
	if err != nil {
		panic(&RuntimeError{PC: m.pc, Message: err.Error()})
	}
	return v
}

func (m *Machine) storeByte(addr int, v byte) {
	if err := m.mem.StoreByte(addr, v); err != nil {
		panic(&RuntimeError{PC: m.pc, Message: err.Error()})
	}
}

// syscall dispatches one pre-declared syscall (spec.md §6), reading its
// arguments from the stack without popping them — the compiler always
// follows a syscall with an ADJ that pops them in one step (spec.md
// §4.4's call codegen).
func (m *Machine) syscall(op Op) int {
	switch op {
	case OpOPEN:
		pathAddr := m.loadWord(m.sp + wordSize)
		flags := m.loadWord(m.sp)
		path, err := m.mem.LoadCString(pathAddr)
		if err != nil {
			panic(&RuntimeError{PC: m.pc, Message: err.Error()})
		}
		fd, err := m.syscalls.Open(string(path), flags)
		if err != nil {
			return -1
		}
		return fd

	case OpREAD:
		fd := m.loadWord(m.sp + 2*wordSize)
		bufAddr := m.loadWord(m.sp + wordSize)
		n := m.loadWord(m.sp)
		buf := make([]byte, n)
		got, err := m.syscalls.Read(fd, buf)
		if err != nil {
			return -1
		}
		for i := 0; i < got; i++ {
			m.storeByte(bufAddr+i, buf[i])
		}
		return got

	case OpCLOS:
		fd := m.loadWord(m.sp)
		if err := m.syscalls.Close(fd); err != nil {
			return -1
		}
		return 0

	case OpPRTF:
		// pc already points at the ADJ that follows this call; its operand
		// is the pushed argument count, peeked ahead per spec.md §6's note
		// that PRTF reads it before ADJ itself executes.
		n := m.code.At(m.pc + 1)
		t := m.sp + n*wordSize
		formatAddr := m.loadWord(t - wordSize)
		format, err := m.mem.LoadCString(formatAddr)
		if err != nil {
			panic(&RuntimeError{PC: m.pc, Message: err.Error()})
		}
		args := make([]int, n-1)
		for i := range args {
			args[i] = m.loadWord(t - wordSize*(2+i))
		}
		written, err := m.syscalls.Printf(string(format), args, m.mem)
		if err != nil {
			return -1
		}
		return written

	case OpMALC:
		size := m.loadWord(m.sp)
		addr, err := m.syscalls.Malloc(size)
		if err != nil {
			return 0
		}
		return addr

	case OpFREE:
		m.syscalls.Free(m.loadWord(m.sp))
		return 0

	case OpMSET:
		addr := m.loadWord(m.sp + 2*wordSize)
		val := byte(m.loadWord(m.sp + wordSize))
		n := m.loadWord(m.sp)
		for i := 0; i < n; i++ {
			m.storeByte(addr+i, val)
		}
		return addr

	case OpMCMP:
		addrA := m.loadWord(m.sp + 2*wordSize)
		addrB := m.loadWord(m.sp + wordSize)
		n := m.loadWord(m.sp)
		for i := 0; i < n; i++ {
			ba, bb := m.loadByte(addrA+i), m.loadByte(addrB+i)
			if ba != bb {
				return int(ba) - int(bb)
			}
		}
		return 0

	default:
		panic(&RuntimeError{PC: m.pc, Message: "unreachable syscall dispatch"})
	}
}
