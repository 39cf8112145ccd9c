// Package vm implements Component E of spec.md §2/§4.E: a
// single-threaded stack machine that fetches, decodes and executes the
// instruction stream internal/compiler (or a hand-written instruction
// text file) produces.
package vm

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/nilnovi/nnp/internal/code"
	"github.com/nilnovi/nnp/internal/nnperr"
)

// Observer is notified around every executed instruction. It exists so
// internal/dashboard can drive a live view of the stack and
// instruction list without this package importing a TUI library.
type Observer interface {
	BeforeStep(vm *VM, instr code.Instruction)
	AfterStep(vm *VM, instr code.Instruction)
}

// DefaultMaxStack bounds the stack when the caller never calls
// SetMaxStack, matching internal/config.DefaultStackSize.
const DefaultMaxStack = 4096

// VM holds the registers and stack of spec.md §4.E: base (the current
// activation record's origin), co (the 1-based program counter) and
// the flat int stack that both evaluation values and activation
// records live in. ip is never stored explicitly — it is always
// len(stack)-1, the "VM stack invariant" of spec.md §8.
type VM struct {
	instructions []code.Instruction
	stack        []int
	base         int
	co           int
	maxStack     int

	in  io.Reader
	out io.Writer

	observer Observer
	log      *zap.SugaredLogger
}

// New constructs a VM ready to execute instructions, reading get()
// input from in and writing put() output to out.
func New(instructions []code.Instruction, in io.Reader, out io.Writer) *VM {
	return &VM{instructions: instructions, in: in, out: out, co: 1, maxStack: DefaultMaxStack, log: zap.NewNop().Sugar()}
}

// SetObserver installs a step observer (or clears it, with nil).
func (vm *VM) SetObserver(o Observer) {
	vm.observer = o
}

// SetLogger installs a logger for per-instruction fetch/decode/execute,
// per SPEC_FULL.md §4.F's Debug level (only meaningful with
// cmd/nnp-exec's "-d"). A nil logger is ignored, leaving the no-op
// default installed by New.
func (vm *VM) SetLogger(log *zap.SugaredLogger) {
	if log != nil {
		vm.log = log
	}
}

// SetMaxStack overrides the stack capacity enforced by push, per
// SPEC_FULL.md §4.H's configurable "stack.size". n <= 0 disables the
// check entirely.
func (vm *VM) SetMaxStack(n int) {
	vm.maxStack = n
}

// IP reports the current top-of-stack index.
func (vm *VM) IP() int { return len(vm.stack) - 1 }

// Base reports the current activation record's origin.
func (vm *VM) Base() int { return vm.base }

// CO reports the 1-based address of the next instruction to execute.
func (vm *VM) CO() int { return vm.co }

// Stack returns a snapshot of the current stack contents.
func (vm *VM) Stack() []int {
	out := make([]int, len(vm.stack))
	copy(out, vm.stack)
	return out
}

// Instructions returns the program being executed.
func (vm *VM) Instructions() []code.Instruction {
	return vm.instructions
}

// Run executes instructions in co order until finProg halts cleanly
// (returning nnperr.ErrHalted), an erreur/runtime failure occurs, or co
// runs past the end of the instruction stream. Callers distinguish a
// clean halt from a real failure with nnperr.Is(err, ...) or
// errors.Is(err, nnperr.ErrHalted).
func (vm *VM) Run() error {
	for vm.co <= len(vm.instructions) {
		instr := vm.instructions[vm.co-1]
		vm.log.Debugw("fetch", "co", vm.co, "base", vm.base, "instr", instr.String())

		if vm.observer != nil {
			vm.observer.BeforeStep(vm, instr)
		}
		err := vm.execute(instr)
		if vm.observer != nil {
			vm.observer.AfterStep(vm, instr)
		}
		if err != nil {
			vm.log.Debugw("execute failed", "co", vm.co, "instr", instr.String(), "error", err)
			return err
		}
		vm.co++
	}
	return nil
}

// Step executes exactly one instruction, for nnp-exec's "-s" stepped
// mode. It returns the instruction just executed alongside any error.
func (vm *VM) Step() (code.Instruction, error) {
	if vm.co > len(vm.instructions) {
		return code.Instruction{}, nnperr.ErrHalted
	}
	instr := vm.instructions[vm.co-1]
	vm.log.Debugw("fetch", "co", vm.co, "base", vm.base, "instr", instr.String())

	if vm.observer != nil {
		vm.observer.BeforeStep(vm, instr)
	}
	err := vm.execute(instr)
	if vm.observer != nil {
		vm.observer.AfterStep(vm, instr)
	}
	if err == nil {
		vm.co++
	}
	return instr, err
}

// Done reports whether the fetch loop has run past the end of the
// instruction stream (used by stepped-execution drivers).
func (vm *VM) Done() bool {
	return vm.co > len(vm.instructions)
}

func (vm *VM) push(v int) error {
	if vm.maxStack > 0 && len(vm.stack) >= vm.maxStack {
		return nnperr.Runtimef("stack overflow (limit %d)", vm.maxStack)
	}
	vm.stack = append(vm.stack, v)
	return nil
}

func (vm *VM) pop() (int, error) {
	if len(vm.stack) == 0 {
		return 0, nnperr.Runtimef("stack underflow")
	}
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v, nil
}

func (vm *VM) top() (int, error) {
	if len(vm.stack) == 0 {
		return 0, nnperr.Runtimef("stack underflow")
	}
	return vm.stack[len(vm.stack)-1], nil
}

func (vm *VM) checkIndex(i int) error {
	if i < 0 || i >= len(vm.stack) {
		return nnperr.Runtimef("stack index %d out of range [0,%d)", i, len(vm.stack))
	}
	return nil
}

// execute dispatches a single instruction per the opcode table of
// spec.md §4.E.
func (vm *VM) execute(instr code.Instruction) error {
	switch instr.Op {
	case code.DebutProg:
		if err := vm.push(0); err != nil {
			return err
		}
		if err := vm.push(0); err != nil {
			return err
		}
		vm.base = 0
		return nil

	case code.FinProg:
		return nnperr.ErrHalted

	case code.Reserver:
		for i := 0; i < instr.Params[0]; i++ {
			if err := vm.push(0); err != nil {
				return err
			}
		}
		return nil

	case code.Empiler:
		return vm.push(instr.Params[0])

	case code.EmpilerAd:
		return vm.push(vm.base + 2 + instr.Params[0])

	case code.EmpilerParam:
		idx := vm.base + 2 + instr.Params[0]
		if err := vm.checkIndex(idx); err != nil {
			return err
		}
		return vm.push(vm.stack[idx])

	case code.Affectation:
		val, err := vm.pop()
		if err != nil {
			return err
		}
		dst, err := vm.pop()
		if err != nil {
			return err
		}
		if err := vm.checkIndex(dst); err != nil {
			return err
		}
		vm.stack[dst] = val
		return nil

	case code.ValeurPile:
		addr, err := vm.top()
		if err != nil {
			return err
		}
		if err := vm.checkIndex(addr); err != nil {
			return err
		}
		vm.stack[len(vm.stack)-1] = vm.stack[addr]
		return nil

	case code.Get:
		idx, err := vm.pop()
		if err != nil {
			return err
		}
		if err := vm.checkIndex(idx); err != nil {
			return err
		}
		var n int
		if _, err := fmt.Fscan(vm.in, &n); err != nil {
			return nnperr.Runtimef("invalid input to get: %v", err)
		}
		vm.stack[idx] = n
		return nil

	case code.Put:
		v, err := vm.pop()
		if err != nil {
			return err
		}
		fmt.Fprintln(vm.out, v)
		return nil

	case code.Moins:
		v, err := vm.top()
		if err != nil {
			return err
		}
		vm.stack[len(vm.stack)-1] = -v
		return nil

	case code.Sous, code.Add, code.Mult, code.Div:
		b, err := vm.pop()
		if err != nil {
			return err
		}
		a, err := vm.top()
		if err != nil {
			return err
		}
		var result int
		switch instr.Op {
		case code.Sous:
			result = a - b
		case code.Add:
			result = a + b
		case code.Mult:
			result = a * b
		case code.Div:
			if b == 0 {
				return nnperr.Runtimef("division by zero")
			}
			result = a / b
		}
		vm.stack[len(vm.stack)-1] = result
		return nil

	case code.Egal, code.Diff, code.Inf, code.Infeg, code.Sup, code.Supeg, code.Et, code.Ou:
		b, err := vm.pop()
		if err != nil {
			return err
		}
		a, err := vm.top()
		if err != nil {
			return err
		}
		var truth bool
		switch instr.Op {
		case code.Egal:
			truth = a == b
		case code.Diff:
			truth = a != b
		case code.Inf:
			truth = a < b
		case code.Infeg:
			truth = a <= b
		case code.Sup:
			truth = a > b
		case code.Supeg:
			truth = a >= b
		case code.Et:
			truth = a != 0 && b != 0
		case code.Ou:
			truth = a != 0 || b != 0
		}
		vm.stack[len(vm.stack)-1] = boolToInt(truth)
		return nil

	case code.Non:
		v, err := vm.top()
		if err != nil {
			return err
		}
		vm.stack[len(vm.stack)-1] = boolToInt(v == 0)
		return nil

	case code.Tra:
		vm.co = instr.Params[0] - 1
		return nil

	case code.Tze:
		v, err := vm.pop()
		if err != nil {
			return err
		}
		if v == 0 {
			vm.co = instr.Params[0] - 1
		}
		return nil

	case code.ReserverBloc:
		if err := vm.push(vm.base); err != nil {
			return err
		}
		return vm.push(0)

	case code.TraStat:
		a, nbp := instr.Params[0], instr.Params[1]
		linkIndex := (len(vm.stack) - 1) - nbp
		if err := vm.checkIndex(linkIndex); err != nil {
			return err
		}
		vm.base = linkIndex - 1
		vm.stack[linkIndex] = vm.co + 1
		vm.co = a - 1
		return nil

	case code.RetourProc:
		if err := vm.checkIndex(vm.base); err != nil {
			return err
		}
		if err := vm.checkIndex(vm.base + 1); err != nil {
			return err
		}
		ar := vm.stack[vm.base+1]
		oldBase := vm.stack[vm.base]
		vm.stack = vm.stack[:vm.base]
		vm.base = oldBase
		vm.co = ar - 1
		return nil

	case code.RetourFonct:
		val, err := vm.top()
		if err != nil {
			return err
		}
		if err := vm.checkIndex(vm.base); err != nil {
			return err
		}
		if err := vm.checkIndex(vm.base + 1); err != nil {
			return err
		}
		ar := vm.stack[vm.base+1]
		oldBase := vm.stack[vm.base]
		vm.stack = vm.stack[:vm.base]
		if err := vm.push(val); err != nil {
			return err
		}
		vm.base = oldBase
		vm.co = ar - 1
		return nil

	case code.Erreur:
		return nnperr.Runtimef("erreur instruction executed")

	default:
		return nnperr.Runtimef("unknown opcode %q", instr.Op)
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
