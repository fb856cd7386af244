package mode

import "ped/key"

// PickerState is the UI-facing completion/selection list spec.md §3
// names: "owned externally; the core only sets its cursor and
// entries." Command mode's autocomplete (cmdmode) writes Entries and
// Cursor directly; PickerState's own key handling (Down/Ctrl-n and
// Up/Ctrl-p move the cursor, Esc and Enter return to Normal) applies
// only when the picker is used as a standalone mode (e.g. a file
// picker), not to command-mode's inline completion.
type PickerState struct {
	Entries []string
	Cursor  int
}

func (s *PickerState) OnEnter(d *Dispatcher) {
	s.Cursor = 0
}

func (s *PickerState) OnExit(d *Dispatcher) {
	s.Entries = nil
	s.Cursor = 0
}

func (s *PickerState) OnClientKeys(d *Dispatcher, keys []key.Key) (Operation, bool) {
	for _, k := range keys {
		switch {
		case k.Equal(key.Esc()):
			d.ChangeTo(Normal)
			return Operation{}, false

		case k.Equal(key.Down()) || k.Equal(key.Ctrl('n')):
			if s.Cursor < len(s.Entries)-1 {
				s.Cursor++
			}

		case k.Equal(key.Up()) || k.Equal(key.Ctrl('p')):
			if s.Cursor > 0 {
				s.Cursor--
			}

		case k.Equal(key.Enter()):
			d.ChangeTo(Normal)
			return Operation{}, false
		}
	}
	return Operation{}, false
}
