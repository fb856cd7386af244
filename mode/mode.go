// Package mode implements the editor's modal dispatcher (spec.md
// §4.7): a fixed set of named modes, each routing keystrokes through
// the same three-hook contract, with transitions that always fire
// on_exit/on_enter in order.
package mode

import (
	"ped/key"
	"ped/keymap"
	"ped/trace"
)

// Kind names one of the dispatcher's five modes.
type Kind int

const (
	Normal Kind = iota
	Insert
	Command
	ReadLine
	Picker
)

func (k Kind) String() string {
	switch k {
	case Normal:
		return "Normal"
	case Insert:
		return "Insert"
	case Command:
		return "Command"
	case ReadLine:
		return "ReadLine"
	case Picker:
		return "Picker"
	default:
		return "Unknown"
	}
}

// OperationKind tags the variants of ModeOperation (spec.md §4.7).
type OperationKind int

const (
	Pending OperationKind = iota
	Quit
	QuitAll
	ExecuteMacro
)

// Operation is a ModeOperation: the value on_client_keys returns to
// ask the host loop to act, propagated unchanged up through the
// dispatcher (spec.md §4.7). Register is set only for ExecuteMacro.
type Operation struct {
	Kind     OperationKind
	Register key.Key
}

// Handler is the three-hook contract every mode implements (spec.md
// §4.7's on_enter/on_exit/on_client_keys). OnClientKeys returns ok=
// false when there is no ModeOperation to report (the Option<...> the
// spec describes).
type Handler interface {
	OnEnter(d *Dispatcher)
	OnExit(d *Dispatcher)
	OnClientKeys(d *Dispatcher, keys []key.Key) (Operation, bool)
}

// Dispatcher owns the active mode and, in named fields (not a map),
// each mode's own Handler instance — so a mode switch always resumes
// the exact same handler and the state it has accumulated across prior
// activations (spec.md §4.7: "the dispatcher holds each mode's state
// in a fixed, named field so mode switches preserve that mode's state
// across activations").
type Dispatcher struct {
	Current Kind

	NormalMode   Handler
	InsertMode   Handler
	CommandMode  Handler
	ReadLineMode Handler
	PickerMode   Handler

	// Keymap is consulted by a mode's Handler when it sees a key it
	// doesn't otherwise recognize (keymap.Map's own contract); nil
	// means no key-map was loaded, so nothing falls through to a macro.
	Keymap *keymap.Map
}

func (d *Dispatcher) handler(k Kind) Handler {
	switch k {
	case Normal:
		return d.NormalMode
	case Insert:
		return d.InsertMode
	case Command:
		return d.CommandMode
	case ReadLine:
		return d.ReadLineMode
	case Picker:
		return d.PickerMode
	default:
		return nil
	}
}

// ChangeTo fires on_exit on the current mode then on_enter on next,
// with Current already updated before on_enter runs (spec.md §4.7).
// Re-entering the current mode still fires both hooks.
func (d *Dispatcher) ChangeTo(next Kind) {
	prev := d.Current
	if h := d.handler(prev); h != nil {
		h.OnExit(d)
	}
	d.Current = next
	if h := d.handler(next); h != nil {
		h.OnEnter(d)
	}
	trace.ModeChange(prev.String(), next.String())
}

// HandleKeys routes keys to the current mode's handler and returns
// whatever ModeOperation it reports, if any.
func (d *Dispatcher) HandleKeys(keys []key.Key) (Operation, bool) {
	h := d.handler(d.Current)
	if h == nil {
		return Operation{}, false
	}
	return h.OnClientKeys(d, keys)
}
