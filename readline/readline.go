// Package readline implements the single-character-step input line of
// spec.md §4.6: a small Emacs-flavored editing core shared by every
// mode that asks the user to type a line (command mode, search, ...).
package readline

import (
	"unicode/utf8"

	"ped/clipboard"
	"ped/key"
)

// PollResult is what Handle reports after consuming one key, per
// spec.md §4.6's response table.
type PollResult int

const (
	Pending PollResult = iota
	Canceled
	Submitted
)

func (r PollResult) String() string {
	switch r {
	case Pending:
		return "Pending"
	case Canceled:
		return "Canceled"
	case Submitted:
		return "Submitted"
	default:
		return "Unknown"
	}
}

// Line is the read-line state one mode owns: a prompt it sets on
// entry and the input typed so far (spec.md §4.6: "prompt is mutated
// only by the mode that owns the read-line"; "input is always valid
// UTF-8; truncation always happens on a character boundary").
type Line struct {
	Prompt string
	Input  string

	Clipboard clipboard.Reader // nil disables Ctrl-y
	pastes    clipboard.PasteLog
}

// Clear resets Input to empty, leaving Prompt untouched.
func (l *Line) Clear() { l.Input = "" }

// Handle consumes one key and returns the poll result spec.md §4.6
// assigns it. Esc and Enter mutate nothing; every other recognized key
// edits Input in place.
func (l *Line) Handle(k key.Key) PollResult {
	switch {
	case k.Equal(key.Esc()):
		return Canceled

	case k.Equal(key.Enter()):
		return Submitted

	case k.Equal(key.Home()) || k.Equal(key.Ctrl('u')):
		l.Clear()
		return Pending

	case k.Equal(key.Ctrl('w')):
		l.deleteTrailingWord()
		return Pending

	case k.Equal(key.Backspace()) || k.Equal(key.Ctrl('h')):
		l.truncateLastRune()
		return Pending

	case k.Equal(key.Ctrl('y')):
		if l.Clipboard != nil {
			if s, err := l.Clipboard.Read(); err == nil {
				l.pastes.Record(s)
				l.Input += s
			}
		}
		return Pending

	case k.Kind == key.KindChar:
		l.Input += string(rune(k.Char))
		return Pending

	default:
		return Pending
	}
}

// truncateLastRune drops the final rune of Input, preserving UTF-8
// validity (spec.md §4.6's "truncation always happens on a character
// boundary").
func (l *Line) truncateLastRune() {
	if l.Input == "" {
		return
	}
	_, size := utf8.DecodeLastRuneInString(l.Input)
	l.Input = l.Input[:len(l.Input)-size]
}

func isWordByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9') || b == '_'
}

// deleteTrailingWord implements Ctrl-w: skip any trailing run of
// non-word bytes, then delete the word run behind it — the same
// iteration rule a word database uses to find "the previous word" from
// a cursor position, specialized here to the line's tail.
func (l *Line) deleteTrailingWord() {
	i := len(l.Input)
	for i > 0 && !isWordByte(l.Input[i-1]) {
		i--
	}
	for i > 0 && isWordByte(l.Input[i-1]) {
		i--
	}
	l.Input = l.Input[:i]
}
