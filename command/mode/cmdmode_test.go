package cmdmode

import (
	"testing"

	"ped/builtins"
	"ped/command"
	"ped/key"
	"ped/mode"
	"ped/readline"
	"ped/status"
)

type stubHandler struct{}

func (stubHandler) OnEnter(d *mode.Dispatcher) {}
func (stubHandler) OnExit(d *mode.Dispatcher)  {}
func (stubHandler) OnClientKeys(d *mode.Dispatcher, keys []key.Key) (mode.Operation, bool) {
	return mode.Operation{}, false
}

func newTestSetup(t *testing.T) (*mode.Dispatcher, *Mode) {
	t.Helper()
	reg := builtins.NewRegistry()
	builtins.RegisterCore(reg)
	mgr := command.NewManager(reg, nil)

	line := &readline.Line{}
	st := &status.Bar{}
	picker := &mode.PickerState{}
	cm := New(line, mgr, st, picker)

	d := &mode.Dispatcher{NormalMode: stubHandler{}, CommandMode: cm}
	return d, cm
}

func typeText(d *mode.Dispatcher, s string) {
	keys := make([]key.Key, len(s))
	for i := 0; i < len(s); i++ {
		keys[i] = key.Char(s[i])
	}
	d.HandleKeys(keys)
}

func TestCommandModeEvalOnSubmit(t *testing.T) {
	d, cm := newTestSetup(t)
	d.ChangeTo(mode.Command)

	typeText(d, "echo hi")
	d.HandleKeys([]key.Key{key.Enter()})

	if d.Current != mode.Normal {
		t.Fatalf("expected to return to Normal after submit, got %v", d.Current)
	}
	if cm.Line.Input != "" {
		t.Fatalf("expected input cleared on exit, got %q", cm.Line.Input)
	}
}

func TestCommandModeQuitOperation(t *testing.T) {
	d, _ := newTestSetup(t)
	d.ChangeTo(mode.Command)

	typeText(d, "quit")
	op, ok := d.HandleKeys([]key.Key{key.Enter()})

	if !ok {
		t.Fatal("expected a ModeOperation from quit")
	}
	if op.Kind != mode.Quit {
		t.Fatalf("expected mode.Quit, got %v", op.Kind)
	}
}

func TestCommandModeEscCancels(t *testing.T) {
	d, cm := newTestSetup(t)
	d.ChangeTo(mode.Command)

	typeText(d, "echo hi")
	d.HandleKeys([]key.Key{key.Esc()})

	if d.Current != mode.Normal {
		t.Fatalf("expected Esc to return to Normal, got %v", d.Current)
	}
	if cm.Line.Input != "" {
		t.Fatalf("expected input cleared, got %q", cm.Line.Input)
	}
}

func TestCommandModeHistoryNavigation(t *testing.T) {
	d, cm := newTestSetup(t)

	d.ChangeTo(mode.Command)
	typeText(d, "echo first")
	d.HandleKeys([]key.Key{key.Enter()})

	d.ChangeTo(mode.Command)
	typeText(d, "echo second")
	d.HandleKeys([]key.Key{key.Enter()})

	d.ChangeTo(mode.Command)
	d.HandleKeys([]key.Key{key.Ctrl('p')})
	if cm.Line.Input != "echo second" {
		t.Fatalf("expected most recent history entry, got %q", cm.Line.Input)
	}
	d.HandleKeys([]key.Key{key.Ctrl('p')})
	if cm.Line.Input != "echo first" {
		t.Fatalf("expected older history entry, got %q", cm.Line.Input)
	}
}

func TestCommandModeCompletionOnCommandName(t *testing.T) {
	d, cm := newTestSetup(t)
	d.ChangeTo(mode.Command)

	typeText(d, "ech")
	found := false
	for _, e := range cm.Picker.Entries {
		if e == "echo" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected %q among completion entries, got %v", "echo", cm.Picker.Entries)
	}
}
