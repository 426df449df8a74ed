package main

// MachineOption configures a Machine at construction time, following the
// functional-options idiom (spec.md's CLI flags -mem-limit/-d map onto
// WithStackTop/WithTrace below; -mem-limit also calls Memory.SetLimit).
type MachineOption interface{ apply(m *Machine) }

var defaultMachineOptions = MachineOptions()

// MachineOptions flattens a list of options into one, so callers can build
// up option sets incrementally (e.g. only attaching WithTrace under -d).
func MachineOptions(opts ...MachineOption) MachineOption {
	var res options
	for _, opt := range opts {
		switch impl := opt.(type) {
		case nil, noption:
		case options:
			res = append(res, impl...)
		default:
			res = append(res, opt)
		}
	}
	switch len(res) {
	case 0:
		return noption{}
	case 1:
		return res[0]
	default:
		return res
	}
}

type noption struct{}

func (noption) apply(*Machine) {}

type options []MachineOption

func (opts options) apply(m *Machine) {
	for _, opt := range opts {
		if opt != nil {
			opt.apply(m)
		}
	}
}

type syscallsOption struct{ Syscalls }

// WithSyscalls overrides the host-backed default Syscalls implementation,
// e.g. with a fake for testing OPEN/READ/CLOS without touching real files.
func WithSyscalls(sc Syscalls) MachineOption { return syscallsOption{sc} }

func (o syscallsOption) apply(m *Machine) { m.syscalls = o.Syscalls }

type stackTopOption int

// WithStackTop overrides the address the VM stack starts at and grows
// down from.
func WithStackTop(addr int) MachineOption { return stackTopOption(addr) }

func (o stackTopOption) apply(m *Machine) { m.stackTop = int(o) }

type logfOption func(mess string, args ...interface{})

// WithLogf attaches a leveled logging sink (spec.md's ambient logging
// facility). The Machine stores it; no instruction currently logs through it.
func WithLogf(fn func(mess string, args ...interface{})) MachineOption { return logfOption(fn) }

func (fn logfOption) apply(m *Machine) { m.logf = fn }

type traceOption func(pc int, op Op, operand int, a, sp, bp int)

// WithTrace attaches a per-instruction trace hook, realizing -d single-step
// tracing (spec.md's SUPPLEMENTED FEATURES).
func WithTrace(fn func(pc int, op Op, operand int, a, sp, bp int)) MachineOption {
	return traceOption(fn)
}

func (fn traceOption) apply(m *Machine) { m.trace = fn }
