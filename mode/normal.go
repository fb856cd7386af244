package mode

import "ped/key"

// NormalState is Normal mode's per-activation state (spec.md §4.7's
// example: "Normal remembers its last motion count"). Buffer
// navigation itself is out of scope (spec.md §1); NormalState only
// tracks the pending numeric prefix a motion would consume and the
// transition into Command mode on ':'.
type NormalState struct {
	MotionCount int
}

func (s *NormalState) OnEnter(d *Dispatcher) {}

func (s *NormalState) OnExit(d *Dispatcher) {}

func (s *NormalState) OnClientKeys(d *Dispatcher, keys []key.Key) (Operation, bool) {
	for _, k := range keys {
		switch {
		case k.Kind == key.KindChar && k.Char == ':':
			d.ChangeTo(Command)
			return Operation{}, false

		case k.Kind == key.KindChar && k.Char == 'i':
			d.ChangeTo(Insert)
			return Operation{}, false

		case k.Kind == key.KindChar && k.Char >= '0' && k.Char <= '9':
			s.MotionCount = s.MotionCount*10 + int(k.Char-'0')

		default:
			s.MotionCount = 0
			if d.Keymap != nil {
				if _, ok := d.Keymap.Lookup("normal", k); ok {
					return Operation{Kind: ExecuteMacro, Register: k}, true
				}
			}
		}
	}
	return Operation{}, false
}
