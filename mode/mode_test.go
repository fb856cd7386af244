package mode

import (
	"testing"

	"ped/key"
	"ped/keymap"
)

func TestChangeToFiresExitThenEnter(t *testing.T) {
	var events []string
	normal := &recordingHandler{name: "normal", events: &events}
	insert := &recordingHandler{name: "insert", events: &events}

	d := &Dispatcher{NormalMode: normal, InsertMode: insert}
	d.ChangeTo(Insert)

	want := []string{"normal:exit", "insert:enter"}
	if len(events) != len(want) {
		t.Fatalf("expected %v, got %v", want, events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, events)
		}
	}
	if d.Current != Insert {
		t.Fatalf("expected Current=Insert, got %v", d.Current)
	}
}

func TestNormalModeEntersCommandOnColon(t *testing.T) {
	cmd := &recordingHandler{name: "command", events: &[]string{}}
	d := &Dispatcher{NormalMode: &NormalState{}, CommandMode: cmd}
	d.ChangeTo(Normal)

	d.HandleKeys([]key.Key{key.Char(':')})
	if d.Current != Command {
		t.Fatalf("expected Current=Command, got %v", d.Current)
	}
}

func TestNormalModeExecutesKeymapMacroOnUnrecognizedKey(t *testing.T) {
	m, err := keymap.Parse([]byte("binds:\n  normal:\n    g: goto-top\n"))
	if err != nil {
		t.Fatalf("unexpected error parsing keymap: %v", err)
	}

	s := &NormalState{}
	d := &Dispatcher{NormalMode: s, Keymap: m}
	d.ChangeTo(Normal)

	op, ok := d.HandleKeys([]key.Key{key.Char('g')})
	if !ok {
		t.Fatal("expected a ModeOperation for a bound key")
	}
	if op.Kind != ExecuteMacro {
		t.Fatalf("expected ExecuteMacro, got %v", op.Kind)
	}
	if !op.Register.Equal(key.Char('g')) {
		t.Fatalf("expected Register to carry the pressed key, got %v", op.Register)
	}
}

func TestNormalModeUnboundKeyResetsMotionCountWithoutOperation(t *testing.T) {
	m, err := keymap.Parse([]byte("binds:\n  normal:\n    g: goto-top\n"))
	if err != nil {
		t.Fatalf("unexpected error parsing keymap: %v", err)
	}

	s := &NormalState{MotionCount: 3}
	d := &Dispatcher{NormalMode: s, Keymap: m}
	d.ChangeTo(Normal)

	op, ok := d.HandleKeys([]key.Key{key.Char('z')})
	if ok {
		t.Fatalf("expected no ModeOperation for an unbound key, got %v", op)
	}
	if s.MotionCount != 0 {
		t.Fatalf("expected MotionCount reset, got %d", s.MotionCount)
	}
}

func TestPickerStateCursorNavigationSaturates(t *testing.T) {
	s := &PickerState{Entries: []string{"a", "b", "c"}}
	d := &Dispatcher{NormalMode: &NormalState{}}

	s.OnClientKeys(d, []key.Key{key.Ctrl('p')})
	if s.Cursor != 0 {
		t.Fatalf("expected cursor to saturate at 0, got %d", s.Cursor)
	}

	s.OnClientKeys(d, []key.Key{key.Down(), key.Down(), key.Down(), key.Down()})
	if s.Cursor != 2 {
		t.Fatalf("expected cursor to saturate at len(Entries)-1=2, got %d", s.Cursor)
	}

	s.OnClientKeys(d, []key.Key{key.Up()})
	if s.Cursor != 1 {
		t.Fatalf("expected cursor to decrement to 1, got %d", s.Cursor)
	}
}

func TestPickerStateEscAndEnterReturnToNormal(t *testing.T) {
	s := &PickerState{Entries: []string{"a"}}
	d := &Dispatcher{NormalMode: &NormalState{}, PickerMode: s}
	d.ChangeTo(Picker)

	s.OnClientKeys(d, []key.Key{key.Esc()})
	if d.Current != Normal {
		t.Fatalf("expected Esc to return to Normal, got %v", d.Current)
	}

	d.ChangeTo(Picker)
	s.OnClientKeys(d, []key.Key{key.Enter()})
	if d.Current != Normal {
		t.Fatalf("expected Enter to return to Normal, got %v", d.Current)
	}
}

func TestPickerStateOnEnterResetsCursor(t *testing.T) {
	s := &PickerState{Cursor: 5}
	d := &Dispatcher{}
	s.OnEnter(d)
	if s.Cursor != 0 {
		t.Fatalf("expected OnEnter to reset cursor to 0, got %d", s.Cursor)
	}
}

type recordingHandler struct {
	name   string
	events *[]string
}

func (h *recordingHandler) OnEnter(d *Dispatcher) { *h.events = append(*h.events, h.name+":enter") }
func (h *recordingHandler) OnExit(d *Dispatcher)  { *h.events = append(*h.events, h.name+":exit") }
func (h *recordingHandler) OnClientKeys(d *Dispatcher, keys []key.Key) (Operation, bool) {
	return Operation{}, false
}
