// Package cmdmode implements command mode (spec.md §4.8): the mode
// that drives read-line input through history navigation and
// autocompletion and, on submission, through the VM via
// command.Manager.Eval.
package cmdmode

import (
	"ped/builtins"
	"ped/command"
	"ped/key"
	"ped/mode"
	"ped/readline"
	"ped/status"
	"ped/token"
	"ped/vm"
)

// maxSubmitBytes is spec.md §4.8's "reject inputs longer than 256
// bytes" cutoff.
const maxSubmitBytes = 256

// PickerState is command mode's own picker variant (spec.md §3: "the
// per-mode state is {picker: NavigatingHistory(index) |
// TypingCommand(completion_state), completion_index}"), distinct from
// mode.PickerState (the UI-facing entries/cursor the core only sets).
type PickerState int

const (
	NavigatingHistory PickerState = iota
	TypingCommand
)

// CompletionTarget classifies what the cursor's trailing token names
// (spec.md §4.8).
type CompletionTarget int

const (
	TargetValue CompletionTarget = iota
	TargetFlagName
	TargetFlagValue
)

// Mode implements mode.Handler for command mode.
type Mode struct {
	Line    *readline.Line
	Manager *command.Manager
	Status  *status.Bar
	Picker  *mode.PickerState

	picker          PickerState
	historyIndex    int
	completionIndex int
}

// New returns a command mode bound to the given read-line, command
// manager, status bar, and UI-facing picker.
func New(line *readline.Line, mgr *command.Manager, st *status.Bar, picker *mode.PickerState) *Mode {
	return &Mode{Line: line, Manager: mgr, Status: st, Picker: picker}
}

// OnEnter implements mode.Handler (spec.md §4.8's "On enter").
func (m *Mode) OnEnter(d *mode.Dispatcher) {
	m.Line.Prompt = ":"
	m.Line.Clear()
	m.resetToHistory()
}

// OnExit implements mode.Handler (spec.md §4.8's "On exit").
func (m *Mode) OnExit(d *mode.Dispatcher) {
	m.Line.Clear()
}

// OnClientKeys implements mode.Handler, delegating one key at a time
// to read-line then reacting per spec.md §4.8.
func (m *Mode) OnClientKeys(d *mode.Dispatcher, keys []key.Key) (mode.Operation, bool) {
	for _, k := range keys {
		if op, ok := m.handleKey(d, k); ok {
			return op, ok
		}
		if d.Current != mode.Command {
			return mode.Operation{}, false
		}
	}
	return mode.Operation{}, false
}

func (m *Mode) handleKey(d *mode.Dispatcher, k key.Key) (mode.Operation, bool) {
	switch m.Line.Handle(k) {
	case readline.Canceled:
		d.ChangeTo(mode.Normal)
		return mode.Operation{}, false

	case readline.Submitted:
		return m.submit(d)

	default: // Pending
		switch {
		case k.Equal(key.Ctrl('n')) || k.Equal(key.Ctrl('j')):
			m.navigateHistory(1)
		case k.Equal(key.Ctrl('p')) || k.Equal(key.Ctrl('k')):
			m.navigateHistory(-1)
		default:
			m.updateCompletion()
		}
		return mode.Operation{}, false
	}
}

func (m *Mode) resetToHistory() {
	m.picker = NavigatingHistory
	m.historyIndex = m.Manager.HistoryLen()
	if m.Picker != nil {
		m.Picker.Entries = nil
		m.Picker.Cursor = 0
	}
}

// navigateHistory implements the Ctrl-n/Ctrl-j (dir=+1) and Ctrl-p/
// Ctrl-k (dir=-1) reactions of spec.md §4.8: in NavigatingHistory it
// saturates at the history's ends; in TypingCommand it instead moves
// the completion cursor and overwrites the input's tail with the
// picked entry.
func (m *Mode) navigateHistory(dir int) {
	if m.picker == NavigatingHistory {
		n := m.Manager.HistoryLen()
		if n == 0 {
			return
		}
		idx := saturate(m.historyIndex+dir, 0, n-1)
		m.historyIndex = idx
		if entry, ok := m.Manager.HistoryEntry(idx); ok {
			m.Line.Input = entry
		}
		return
	}

	if m.Picker == nil || len(m.Picker.Entries) == 0 {
		return
	}
	cursor := saturate(m.Picker.Cursor+dir, 0, len(m.Picker.Entries)-1)
	m.Picker.Cursor = cursor
	m.Line.Input = m.Line.Input[:m.completionIndex] + m.Picker.Entries[cursor]
}

func saturate(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// updateCompletion re-tokenizes the current input, classifies the
// completion target the cursor sits in, and repopulates the picker
// (spec.md §4.8). Typing anything switches the picker out of history
// navigation and into live completion.
func (m *Mode) updateCompletion() {
	if m.Line.Input == "" {
		m.resetToHistory()
		return
	}

	m.picker = TypingCommand
	_, idx, candidates := m.classify()
	m.completionIndex = idx

	prefix := m.Line.Input[idx:]
	var entries []string
	for _, c := range candidates {
		if hasPrefix(c, prefix) {
			entries = append(entries, c)
		}
	}
	if m.Picker != nil {
		m.Picker.Entries = entries
		m.Picker.Cursor = 0
	}
}

// classify implements spec.md §4.8's completion-target classification
// over a re-tokenization of the current input with the token package's
// tokenizer (tokenizing stops at the first error): the trailing
// token names either the command itself, a flag name, or a flag/
// positional value, each with its own candidate source.
func (m *Mode) classify() (CompletionTarget, int, []string) {
	toks := token.New([]byte(m.Line.Input))
	var seen []token.Token
	for {
		tk, err := toks.Next()
		if err != nil || tk.Kind == token.EndOfSource {
			break
		}
		seen = append(seen, tk)
	}

	if len(seen) <= 1 {
		idx := 0
		if len(seen) == 1 {
			idx = seen[0].Pos.Column
		}
		return TargetValue, idx, m.Manager.Collection.CommandNames()
	}

	res, resolved := m.Manager.Collection.ResolveName(seen[0].Text)
	var spec builtins.Spec
	hasSpec := false
	if resolved && res.Kind == vm.CommandBuiltin {
		spec, hasSpec = m.Manager.Collection.BuiltinSpec(res.Index)
	}

	last := seen[len(seen)-1]

	switch last.Kind {
	case token.Flag:
		idx := last.Pos.Column + 1
		if resolved {
			return TargetFlagName, idx, res.Flags
		}
		return TargetFlagName, idx, nil

	case token.Equals:
		if len(seen) >= 2 && seen[len(seen)-2].Kind == token.Flag {
			flagName := seen[len(seen)-2].Text
			idx := last.Pos.Column + 1
			if hasSpec {
				return TargetFlagValue, idx, spec.FlagCompletions[flagName]
			}
			return TargetFlagValue, idx, nil
		}

	case token.Literal, token.QuotedLiteral:
		if len(seen) >= 3 && seen[len(seen)-2].Kind == token.Equals && seen[len(seen)-3].Kind == token.Flag {
			flagName := seen[len(seen)-3].Text
			idx := last.Pos.Column
			if hasSpec {
				return TargetFlagValue, idx, spec.FlagCompletions[flagName]
			}
			return TargetFlagValue, idx, nil
		}

		argIndex := positionalIndex(seen)
		idx := last.Pos.Column
		if hasSpec && argIndex >= 0 && argIndex < len(spec.PositionalCompletions) {
			return TargetValue, idx, spec.PositionalCompletions[argIndex]
		}
		return TargetValue, idx, nil
	}

	return TargetValue, last.Pos.Column, nil
}

// positionalIndex counts how many positional arguments precede the
// trailing (still-being-typed) token in seen, skipping the command
// name and any flag/flag-value pairs.
func positionalIndex(seen []token.Token) int {
	count := 0
	i := 1
	for i < len(seen)-1 {
		if seen[i].Kind == token.Flag {
			if i+1 < len(seen)-1 && seen[i+1].Kind == token.Equals {
				i += 3
			} else {
				i++
			}
			continue
		}
		count++
		i++
	}
	return count
}

func hasPrefix(s, prefix string) bool {
	if len(prefix) > len(s) {
		return false
	}
	return s[:len(prefix)] == prefix
}

// submit implements spec.md §4.8's "On submit": record history, reject
// over-length input, hand the rest to the command manager, and map its
// outcome onto a ModeOperation.
func (m *Mode) submit(d *mode.Dispatcher) (mode.Operation, bool) {
	input := m.Line.Input
	m.Manager.AddToHistory(input)

	if len(input) > maxSubmitBytes {
		if m.Status != nil {
			m.Status.SetError("command too long")
		}
		d.ChangeTo(mode.Normal)
		return mode.Operation{}, false
	}

	outcome, err := m.Manager.Eval(input, 0)
	if err != nil {
		if !isAborted(err) && m.Status != nil {
			m.Status.SetError(err.Error())
		}
		d.ChangeTo(mode.Normal)
		return mode.Operation{}, false
	}

	var op mode.Operation
	hasOp := false
	switch outcome.Operation {
	case builtins.OpQuit:
		op, hasOp = mode.Operation{Kind: mode.Quit}, true
	case builtins.OpQuitAll:
		op, hasOp = mode.Operation{Kind: mode.QuitAll}, true
	}

	if d.Current == mode.Command {
		d.ChangeTo(mode.Normal)
	}
	return op, hasOp
}

// isAborted reports whether err is the VM's own Aborted execution
// error, which submit treats as silent (spec.md §4.8: "Err(Aborted) ->
// no ModeOperation", distinct from every other error kind, which is
// surfaced to the status bar).
func isAborted(err error) bool {
	ee, ok := err.(*vm.ExecError)
	return ok && ee.Kind == vm.Aborted
}
