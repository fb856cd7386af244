package keymap

import (
	"testing"

	"ped/key"
)

func TestParseLoadsBindingsByMode(t *testing.T) {
	doc := []byte(`
binds:
  normal:
    g: goto-top
    "<c-w>": close-window
  insert:
    "<esc>": leave-insert
`)
	m, err := Parse(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	macro, ok := m.Lookup("normal", key.Char('g'))
	if !ok || macro != "goto-top" {
		t.Fatalf("expected normal/g -> goto-top, got %q ok=%v", macro, ok)
	}

	macro, ok = m.Lookup("normal", key.Ctrl('w'))
	if !ok || macro != "close-window" {
		t.Fatalf("expected normal/<c-w> -> close-window, got %q ok=%v", macro, ok)
	}

	macro, ok = m.Lookup("insert", key.Esc())
	if !ok || macro != "leave-insert" {
		t.Fatalf("expected insert/<esc> -> leave-insert, got %q ok=%v", macro, ok)
	}
}

func TestLookupMissingBindingReturnsFalse(t *testing.T) {
	m, err := Parse([]byte("binds:\n  normal:\n    g: goto-top\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := m.Lookup("normal", key.Char('x')); ok {
		t.Fatal("expected no binding for unmapped key")
	}
	if _, ok := m.Lookup("command", key.Char('g')); ok {
		t.Fatal("expected no bindings for unknown mode")
	}
}

func TestParseRejectsInvalidChordText(t *testing.T) {
	_, err := Parse([]byte("binds:\n  normal:\n    \"<unknown>\": noop\n"))
	if err == nil {
		t.Fatal("expected an error for an unparseable chord")
	}
}

func TestParseRejectsTrailingChordInput(t *testing.T) {
	_, err := Parse([]byte("binds:\n  normal:\n    \"<enter>x\": noop\n"))
	if err == nil {
		t.Fatal("expected an error for trailing input after the chord")
	}
}
