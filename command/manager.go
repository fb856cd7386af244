package command

import (
	"ped/builtins"
	"ped/trace"
	"ped/vm"
)

// Manager owns one VM instance and everything that accumulates across
// its successive evals — the command collection, the source-path
// table, and command history — the way barn/task.Manager owns one
// database and the verb-call stack that runs against it. It implements
// spec.md §4.5's eval()/write_output()/find_command() surface plus the
// history accessors of §3.
type Manager struct {
	VM         *vm.VM
	Collection *Collection
	Sources    *Sources
	History    *History

	suspended *evalWatermarks // set while an eval is parked on a CallRequestCommand
}

// evalWatermarks is the state Eval needs to finish truncation once a
// suspended eval resumes (spec.md §5: the VM "surrenders control to
// the host ... the host is expected to schedule completion and resume
// by pushing a replacement value onto the stack").
type evalWatermarks struct {
	opWatermark, textsWatermark, locWatermark, macroWatermark int
	topLevelOps, topLevelTexts                                int
}

// NewManager wires a fresh VM, command collection, source table, and
// history together. requests (may be nil) receives yielded
// CallRequestCommand notifications; pass a host type implementing
// vm.RequestHandler to support request commands at all.
func NewManager(registry *builtins.Registry, requests vm.RequestHandler) *Manager {
	machine := vm.NewVM(registry, requests)
	return &Manager{
		VM:         machine,
		Collection: NewCollection(machine, registry),
		Sources:    NewSources(),
		History:    &History{},
	}
}

// EvalOutcome is the result of a completed eval (spec.md §4.5): the
// final top-of-stack value and any CommandOperation a builtin
// surfaced along the way, for the command-mode dispatcher to map onto
// a ModeOperation (spec.md §4.8's outcome table).
type EvalOutcome struct {
	Value     string
	Operation builtins.Operation

	// Suspended is true if eval yielded on a CallRequestCommand rather
	// than completing; the caller dispatched RequestIndex/RequestArgs to
	// vm.Requests already and must eventually call Manager.Resume with
	// the request's completed value to finish this eval.
	Suspended    bool
	RequestIndex int
	RequestArgs  builtins.Args
}

// Eval compiles and runs source, attached to the given source handle
// (0 for unnamed/ad-hoc input; see Sources), and returns its outcome.
//
// On a compile or exec error, the VM's Ops/Locations/Texts and the
// collection's macro table are rolled back to exactly how they stood
// before this call — discarding even macros this same source partially
// or fully defined, since the eval as a whole failed (spec.md §4.4:
// "the VM is left in a state where the top-level caller can truncate
// ... back to the definitions-only watermark captured before
// compilation began").
//
// On success, Ops/Locations/Texts are truncated back to the point just
// after this eval's own macro definitions were compiled but before its
// top-level statements ran, discarding only the throwaway top-level
// program bytecode while preserving any macros this eval defined
// (spec.md §4.5).
func (m *Manager) Eval(source string, sourceHandle int) (EvalOutcome, error) {
	marks := evalWatermarks{
		opWatermark:    len(m.VM.Ops),
		textsWatermark: len(m.VM.Texts),
		locWatermark:   len(m.VM.Locations),
		macroWatermark: m.Collection.macroCount(),
	}

	compiler := vm.NewCompiler(m.VM, m.Collection, sourceHandle, []byte(source))
	result, cerr := compiler.Compile()
	if cerr != nil {
		m.rollback(marks)
		trace.Eval(source, "", cerr)
		return EvalOutcome{}, cerr
	}
	marks.topLevelOps = result.TopLevelOps
	marks.topLevelTexts = result.TopLevelTexts

	run, eerr := m.VM.Run(result.OpStart)
	if eerr != nil {
		m.rollback(marks)
		trace.Eval(source, "", eerr)
		return EvalOutcome{}, eerr
	}
	if run.Suspended {
		m.suspended = &marks
		return EvalOutcome{Suspended: true, RequestIndex: run.RequestIndex, RequestArgs: run.RequestArgs}, nil
	}

	m.finish(marks)
	trace.Eval(source, run.Value, nil)
	return EvalOutcome{Value: run.Value, Operation: run.Operation}, nil
}

// Resume completes an eval that suspended on a CallRequestCommand,
// with result as the request's value, per spec.md §5. It panics if no
// eval is currently suspended — a host bug, not a recoverable error.
func (m *Manager) Resume(result string) (EvalOutcome, error) {
	if m.suspended == nil {
		panic("command: Resume called with no suspended eval")
	}
	marks := *m.suspended
	m.suspended = nil

	run, eerr := m.VM.Resume(result)
	if eerr != nil {
		m.rollback(marks)
		return EvalOutcome{}, eerr
	}
	if run.Suspended {
		m.suspended = &marks
		return EvalOutcome{Suspended: true, RequestIndex: run.RequestIndex, RequestArgs: run.RequestArgs}, nil
	}

	m.finish(marks)
	return EvalOutcome{Value: run.Value, Operation: run.Operation}, nil
}

func (m *Manager) finish(marks evalWatermarks) {
	m.VM.Ops = m.VM.Ops[:marks.topLevelOps]
	m.VM.Locations = m.VM.Locations[:marks.topLevelOps]
	m.VM.Texts = m.VM.Texts[:marks.topLevelTexts]
}

func (m *Manager) rollback(marks evalWatermarks) {
	m.VM.Ops = m.VM.Ops[:marks.opWatermark]
	m.VM.Locations = m.VM.Locations[:marks.locWatermark]
	m.VM.Texts = m.VM.Texts[:marks.textsWatermark]
	m.Collection.truncateMacros(marks.macroWatermark)
}

// WriteOutput appends to the VM's output arena, for external callers
// that need to seed output ahead of an eval (rare; most output comes
// from builtin bodies via their own ctx.WriteOutput).
func (m *Manager) WriteOutput(s string) { m.VM.WriteOutput(s) }

// FindCommand implements spec.md §4.5's find_command(name_hash).
func (m *Manager) FindCommand(nameHash uint64) (vm.Resolution, bool) {
	return m.Collection.Resolve(nameHash)
}

// HistoryLen implements spec.md §3's history_len.
func (m *Manager) HistoryLen() int { return m.History.Len() }

// HistoryEntry implements spec.md §3's history_entry(i).
func (m *Manager) HistoryEntry(i int) (string, bool) { return m.History.Entry(i) }

// AddToHistory implements spec.md §3's add_to_history(entry).
func (m *Manager) AddToHistory(entry string) { m.History.Add(entry) }
