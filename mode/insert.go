package mode

import "ped/key"

// InsertState is Insert mode's per-activation state. Text insertion
// into a buffer is out of scope (spec.md §1's buffer/piece-table
// exclusion); InsertState only tracks the Esc-to-Normal transition
// every modal editor's insert mode shares.
type InsertState struct{}

func (s *InsertState) OnEnter(d *Dispatcher) {}

func (s *InsertState) OnExit(d *Dispatcher) {}

func (s *InsertState) OnClientKeys(d *Dispatcher, keys []key.Key) (Operation, bool) {
	for _, k := range keys {
		if k.Equal(key.Esc()) {
			d.ChangeTo(Normal)
			return Operation{}, false
		}
	}
	return Operation{}, false
}
