package main

import "github.com/pkg/errors"

// Buffer is the append-only code buffer (C3): opcodes and their inline
// operands as a flat sequence of machine words, addressed by position. Its
// cursor moves forward during parsing except when Truncate drops a trailing
// load for prefix &; Patch overwrites an already-emitted operand once its
// jump target is known.
type Buffer struct {
	words []int
	limit int
}

// NewBuffer preallocates a fixed-size pool for the code buffer (spec.md §5).
func NewBuffer(capacity int) *Buffer {
	return &Buffer{words: make([]int, 0, capacity)}
}

// Here returns the position the next Emit1 will land at.
func (b *Buffer) Here() int { return len(b.words) }

// Emit1 appends a single word (an opcode with no immediate, or an operand)
// and returns the position it landed at.
func (b *Buffer) Emit1(word int) int {
	pos := len(b.words)
	b.words = append(b.words, word)
	return pos
}

// Emit2 appends an opcode immediately followed by its operand word,
// satisfying the code buffer invariant that every opcode taking an
// immediate is followed by exactly one operand (spec.md §3). Returns the
// opcode's position so the caller can hold onto it as a JumpHole.
func (b *Buffer) Emit2(op Op, imm int) int {
	pos := b.Emit1(int(op))
	b.Emit1(imm)
	return pos
}

// Patch overwrites the operand word at pos+1, used to back-patch a forward
// jump's operand once its target address is known. pos must name the
// opcode position a prior Emit2 returned.
func (b *Buffer) Patch(pos int, word int) { b.words[pos+1] = word }

// PatchOp overwrites the opcode itself at pos (used by assignment and
// ++/-- to rewrite a trailing LC/LI into PSH).
func (b *Buffer) PatchOp(pos int, op Op) { b.words[pos] = int(op) }

// At returns the word at pos.
func (b *Buffer) At(pos int) int { return b.words[pos] }

// Len returns the number of words emitted so far.
func (b *Buffer) Len() int { return len(b.words) }

// Truncate drops every word from pos onward, used by prefix & to delete the
// trailing LC/LI it invalidates.
func (b *Buffer) Truncate(pos int) { b.words = b.words[:pos] }

// LastOp returns the last opcode emitted, or -1 if the buffer is empty.
func (b *Buffer) LastOp() Op {
	if len(b.words) == 0 {
		return -1
	}
	return Op(b.words[len(b.words)-1])
}

// Data is the data segment (C3's sibling): string literals laid out
// contiguously each followed by a NUL and word-aligned between literals,
// plus one word per global variable.
type Data struct {
	mem   *Memory
	cur   int
	limit int
}

// NewData creates a data segment over its own region of addressable memory.
// capacity is the fixed-size pool's advisory size (spec.md §5): it bounds
// how far the data segment itself may grow, but is never forwarded as the
// backing Memory's hard address limit, since that same Memory also hosts
// the VM's stack far above the data segment's own addresses (vm.go) — a
// low-capacity data pool must not make every stack push look like an
// out-of-bounds address.
func NewData(capacity int) *Data {
	return &Data{mem: NewMemory(0), limit: capacity}
}

// Here returns the data segment's current cursor, i.e. the address the next
// AppendString/AllocGlobal will land at.
func (d *Data) Here() int { return d.cur }

// Memory exposes the backing address space, so the VM can share it as the
// low region of its unified address space.
func (d *Data) Memory() *Memory { return d.mem }

// AppendString lays out s followed by a NUL, returning its start address,
// then rounds the cursor up to a word boundary (spec.md §8 property 3 and
// §4.2's escaping rules, applied by the lexer before calling this).
func (d *Data) AppendString(s []byte) (addr int, err error) {
	if d.limit > 0 && d.cur+len(s)+1 > d.limit {
		return 0, errors.Wrap(errOOM, "data segment pool exhausted")
	}
	addr = d.cur
	for _, b := range s {
		if err := d.mem.StoreByte(d.cur, b); err != nil {
			return 0, errors.Wrap(err, "data segment")
		}
		d.cur++
	}
	if err := d.mem.StoreByte(d.cur, 0); err != nil {
		return 0, errors.Wrap(err, "data segment")
	}
	d.cur++
	d.align()
	return addr, nil
}

// AllocGlobal reserves one zeroed machine word for a global variable,
// returning its address.
func (d *Data) AllocGlobal() (addr int, err error) {
	if d.limit > 0 && d.cur+wordSize > d.limit {
		return 0, errors.Wrap(errOOM, "data segment pool exhausted")
	}
	addr = d.cur
	if err := d.mem.StoreWord(d.cur, 0); err != nil {
		return 0, errors.Wrap(err, "data segment")
	}
	d.cur += wordSize
	return addr, nil
}

func (d *Data) align() {
	if rem := d.cur % wordSize; rem != 0 {
		d.cur += wordSize - rem
	}
}
