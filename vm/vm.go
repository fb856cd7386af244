package vm

import (
	"fmt"

	"ped/builtins"
	"ped/trace"
)

// DefaultMaxSteps bounds the dispatch loop against runaway macro
// recursion (a macro that calls itself, directly or through others,
// with no base case). It plays the role barn/task's TickLimit plays
// for MOO verb execution, generalized from a per-verb tick budget to a
// per-eval op-dispatch budget.
const DefaultMaxSteps = 1_000_000

// VM executes a compiled Op stream against a value stack, a text
// arena, and a call-frame stack (spec.md §4.4), dispatching
// CallBuiltinCommand/CallMacroCommand/CallRequestCommand the way
// barn/vm.VM.ExecuteLoop dispatches MOO opcodes against its registers
// and call stack.
type VM struct {
	Ops       []Op
	Locations []SourceLocation
	Texts     []byte

	Stack    []StackValue
	Frames   []Frame // committed call stack (macro activations)
	Prepared []Frame // pending frames awaiting their call op

	Builtins *builtins.Registry
	Requests RequestHandler

	// MacroStarts[i] is the Ops index of macro i's first instruction.
	MacroStarts []int

	MaxSteps int

	Output []byte

	bang      bool             // bang flag of the command currently executing a builtin body
	operation builtins.Operation // last non-None CommandOperation a builtin surfaced this run

	pending *pendingRequest // set while a CallRequestCommand has yielded to the host
}

// pendingRequest captures the prepared-frame state a yielded
// CallRequestCommand needs to resume from once the host supplies a
// result (spec.md §4.4: "pop the prepared frame, truncate the arena
// and stack to the frame's baselines, push one empty value, and yield
// a host-visible external request").
type pendingRequest struct {
	resumeIP int
	prepared Frame
	args     builtins.Args
}

// RequestHandler is notified of a yielded CallRequestCommand so the
// host can schedule it; it does not return a result synchronously —
// the host resumes execution later via VM.Resume, per spec.md §4.4's
// "the host is expected to schedule completion and resume by pushing a
// replacement value onto the stack and continuing at the next op".
type RequestHandler interface {
	HandleRequest(index int, args builtins.Args)
}

// NewVM constructs a VM ready to run ops compiled against registry and
// requests. Stack/Frame/Texts slices start empty; the caller (command.
// Manager, per spec.md §4.5) grows and truncates Texts across
// successive evals.
func NewVM(registry *builtins.Registry, requests RequestHandler) *VM {
	return &VM{
		Builtins: registry,
		Requests: requests,
		MaxSteps: DefaultMaxSteps,
	}
}

// WriteOutput implements builtins.Context: it appends s to the VM's
// accumulated output, which is kept across evals (spec.md §4.5's
// write_output).
func (vm *VM) WriteOutput(s string) { vm.Output = append(vm.Output, s...) }

// Fmtf implements builtins.Context: it appends a formatted string to
// the eval's accumulated output (spec.md §4.5's fmt_output).
func (vm *VM) Fmtf(format string, args ...interface{}) {
	vm.Output = append(vm.Output, fmt.Sprintf(format, args...)...)
}

// Bang implements builtins.Context: it reports whether the currently
// executing builtin was invoked with a trailing "!".
func (vm *VM) Bang() bool { return vm.bang }

// Text returns the string a StackValue names in the text arena.
func (vm *VM) Text(v StackValue) string {
	return string(vm.Texts[v.Start:v.End])
}

func (vm *VM) push(s string) {
	start := uint32(len(vm.Texts))
	vm.Texts = append(vm.Texts, s...)
	vm.Stack = append(vm.Stack, StackValue{Start: start, End: uint32(len(vm.Texts))})
}

func (vm *VM) top() StackValue { return vm.Stack[len(vm.Stack)-1] }

// relocate truncates the text arena back to the given watermark while
// keeping v alive, and returns the relocated value. A value whose bytes
// lie below the watermark (a literal, or a binding from an outer frame)
// is returned unchanged; one born inside the frame being torn down is
// copied down to start at the watermark (spec.md §4.4's frame-exit
// relocation rule), using Go's overlap-safe copy() the same way
// barn/vm.VM collapses its eval stack on verb return.
func (vm *VM) relocate(v StackValue, textsWatermark int) StackValue {
	if int(v.Start) < textsWatermark {
		vm.Texts = vm.Texts[:textsWatermark]
		return v
	}
	n := v.Len()
	copy(vm.Texts[textsWatermark:textsWatermark+n], vm.Texts[v.Start:v.End])
	vm.Texts = vm.Texts[:textsWatermark+n]
	return StackValue{Start: uint32(textsWatermark), End: uint32(textsWatermark + n)}
}

// RunResult is the outcome of a Run or Resume call: either a completed
// eval (Value/Output/Operation set, Suspended false) or a yielded
// request awaiting the host's Resume (spec.md §4.4).
type RunResult struct {
	Value     string             // the final top-of-stack value, decoded to a Go string
	Output    string             // everything written via WriteOutput/Fmtf since the VM was created
	Operation builtins.Operation // the last CommandOperation a builtin surfaced, if any

	Suspended    bool // true if execution yielded on a CallRequestCommand
	RequestIndex int
	RequestArgs  builtins.Args
}

// Run executes the Op stream starting at startOp until the top-level
// Return (or an empty Ops stream falls through to implicit completion)
// unwinds with an empty Frames stack, until a CommandError aborts
// execution (spec.md §4.4/§7), or until a CallRequestCommand yields to
// the host (Resume continues from there). Each Run starts from an empty
// value stack, no open frames, and no surfaced CommandOperation.
func (vm *VM) Run(startOp int) (RunResult, *ExecError) {
	vm.Stack = vm.Stack[:0]
	vm.Frames = vm.Frames[:0]
	vm.Prepared = vm.Prepared[:0]
	vm.operation = builtins.OpNone
	return vm.runLoop(startOp)
}

// Resume continues a Run that yielded on a CallRequestCommand, with
// result as the request's completed value (spec.md §4.4: the host
// "pushes a replacement value onto the stack and continues at the next
// op"). Resume panics if no request is pending — a host/Manager bug,
// not a recoverable eval error.
func (vm *VM) Resume(result string) (RunResult, *ExecError) {
	if vm.pending == nil {
		panic("vm: Resume called with no pending request")
	}
	p := vm.pending
	vm.pending = nil

	vm.Stack = vm.Stack[:p.prepared.StackLenOnEntry]
	vm.Texts = vm.Texts[:p.prepared.TextsLenOnEntry]
	vm.push(result)

	return vm.runLoop(p.resumeIP)
}

func (vm *VM) runLoop(startOp int) (RunResult, *ExecError) {
	ip := startOp
	steps := 0

	for {
		if ip >= len(vm.Ops) {
			return vm.finish(), nil
		}

		steps++
		if steps > vm.MaxSteps {
			return RunResult{}, vm.execErr(ip, Aborted, nil)
		}

		op := vm.Ops[ip]
		if trace.IsEnabled() {
			trace.Op(ip, op.Kind.String(), "")
		}
		switch op.Kind {
		case OpReturn:
			if len(vm.Frames) == 0 {
				return vm.finish(), nil
			}
			frame := vm.Frames[len(vm.Frames)-1]
			vm.Frames = vm.Frames[:len(vm.Frames)-1]

			ret := vm.relocate(vm.top(), frame.TextsLenOnEntry)
			vm.Stack = vm.Stack[:frame.StackLenOnEntry]
			vm.Stack = append(vm.Stack, ret)
			ip = frame.ReturnOpIndex
			continue

		case OpPop:
			vm.Stack = vm.Stack[:len(vm.Stack)-1]

		case OpPushStringLiteral:
			start := int(op.Start)
			end := start + int(op.Len)
			vm.Stack = append(vm.Stack, StackValue{Start: uint32(start), End: uint32(end)})

		case OpDuplicateAt:
			frame := vm.bindingWatermark()
			src := vm.Stack[frame+int(op.Index)]
			vm.Stack = append(vm.Stack, src)

		case OpPopAsFlag:
			v := vm.top()
			vm.Stack = vm.Stack[:len(vm.Stack)-1]
			frame := vm.Prepared[len(vm.Prepared)-1]
			vm.Stack[frame.StackLenOnEntry+int(op.Index)] = v

		case OpPrepareStackFrame:
			vm.Prepared = append(vm.Prepared, Frame{
				StackLenOnEntry: len(vm.Stack),
				TextsLenOnEntry: len(vm.Texts),
			})

		case OpCallBuiltinCommand:
			if err := vm.callBuiltin(ip, op); err != nil {
				return RunResult{}, err
			}

		case OpCallMacroCommand:
			prepared := vm.Prepared[len(vm.Prepared)-1]
			vm.Prepared = vm.Prepared[:len(vm.Prepared)-1]
			vm.Frames = append(vm.Frames, Frame{
				ReturnOpIndex:   ip + 1,
				TextsLenOnEntry: prepared.TextsLenOnEntry,
				StackLenOnEntry: prepared.StackLenOnEntry,
			})
			ip = vm.MacroStarts[op.Index]
			continue

		case OpCallRequestCommand:
			suspended, err := vm.callRequest(ip, op)
			if err != nil {
				return RunResult{}, err
			}
			if suspended {
				return RunResult{
					Suspended:    true,
					RequestIndex: int(op.Index),
					RequestArgs:  vm.pending.args,
				}, nil
			}

		default:
			return RunResult{}, vm.execErr(ip, Aborted, fmt.Errorf("unknown op kind %v", op.Kind))
		}

		ip++
	}
}

func (vm *VM) finish() RunResult {
	res := RunResult{Output: string(vm.Output), Operation: vm.operation}
	if len(vm.Stack) > 0 {
		res.Value = vm.Text(vm.top())
	}
	return res
}

// bindingWatermark returns the stack index DuplicateAt indices are
// relative to: the innermost committed frame (a macro body referencing
// its own parameters) if one is open, else 0 (top level). Prepared
// frames never shift this — a binding reference nested inside a call's
// still-being-assembled argument list (e.g. "cmd1 (cmd2 $x)") names a
// slot in the enclosing macro/top-level scope, the one the compiler's
// own scope table was resolved against, not the call being built.
func (vm *VM) bindingWatermark() int {
	if len(vm.Frames) > 0 {
		return vm.Frames[len(vm.Frames)-1].StackLenOnEntry
	}
	return 0
}

func (vm *VM) execErr(ip int, kind ExecErrorKind, wrapped error) *ExecError {
	loc := SourceLocation{}
	if ip >= 0 && ip < len(vm.Locations) {
		loc = vm.Locations[ip]
	}
	return &ExecError{Kind: kind, Loc: loc, Wrapped: wrapped}
}

func (vm *VM) callBuiltin(ip int, op Op) *ExecError {
	prepared := vm.Prepared[len(vm.Prepared)-1]
	vm.Prepared = vm.Prepared[:len(vm.Prepared)-1]

	spec, ok := vm.Builtins.Get(int(op.Index))
	if !ok {
		return vm.execErr(ip, BuiltinError, fmt.Errorf("builtin index %d not registered", op.Index))
	}
	if op.Bang && !spec.AcceptsBang {
		return vm.execErr(ip, CommandDoesNotAcceptBang, nil)
	}

	flagCount := len(spec.Flags)
	argStart := prepared.StackLenOnEntry + flagCount
	if argStart > len(vm.Stack) {
		return vm.execErr(ip, TooFewArguments, nil)
	}
	flagValues := vm.Stack[prepared.StackLenOnEntry:argStart]
	positional := vm.Stack[argStart:]

	args := builtins.Args{Bang: op.Bang}
	if flagCount > 0 {
		args.Flags = make(map[string]string, flagCount)
		for i, name := range spec.Flags {
			args.Flags[name] = vm.Text(flagValues[i])
		}
	}
	args.Positional = make([]string, len(positional))
	for i, v := range positional {
		args.Positional[i] = vm.Text(v)
	}

	outputWatermark := len(vm.Output)
	vm.bang = op.Bang
	outcome, err := spec.Func(vm, args)
	vm.bang = false
	if err != nil {
		return vm.execErr(ip, BuiltinError, err)
	}
	if outcome.Operation != builtins.OpNone {
		vm.operation = outcome.Operation
	}

	// The call's return value is exactly what the body wrote via
	// WriteOutput/Fmtf during its own call (spec.md §6) — not a second,
	// independently-settable channel.
	value := string(vm.Output[outputWatermark:])

	vm.Stack = vm.Stack[:prepared.StackLenOnEntry]
	vm.Texts = vm.Texts[:prepared.TextsLenOnEntry]
	vm.push(value)
	return nil
}

// callRequest parks the call as a pendingRequest and notifies
// vm.Requests, returning suspended=true so runLoop stops and reports
// the yield to the host (spec.md §4.4). It does not itself produce a
// result — the host completes the request later via Resume.
func (vm *VM) callRequest(ip int, op Op) (bool, *ExecError) {
	prepared := vm.Prepared[len(vm.Prepared)-1]
	vm.Prepared = vm.Prepared[:len(vm.Prepared)-1]

	args := builtins.Args{Bang: op.Bang}
	positional := vm.Stack[prepared.StackLenOnEntry:]
	args.Positional = make([]string, len(positional))
	for i, v := range positional {
		args.Positional[i] = vm.Text(v)
	}

	if vm.Requests == nil {
		return false, vm.execErr(ip, BuiltinError, fmt.Errorf("no request handler registered"))
	}

	vm.pending = &pendingRequest{
		resumeIP: ip + 1,
		prepared: prepared,
		args:     args,
	}
	vm.Requests.HandleRequest(int(op.Index), args)
	return true, nil
}
