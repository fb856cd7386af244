// Package key implements the editor's closed key-symbol alphabet and its
// textual syntax: <name> for named keys, <c-X>/<a-X> for control/alt
// chords, and bare ASCII for printable characters.
package key

import (
	"fmt"
)

// Kind is the tag of a Key's variant.
type Kind int

const (
	KindNone Kind = iota
	KindBackspace
	KindEnter
	KindLeft
	KindRight
	KindUp
	KindDown
	KindHome
	KindEnd
	KindPageUp
	KindPageDown
	KindTab
	KindDelete
	KindEsc
	KindF
	KindChar
	KindCtrl
	KindAlt
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "None"
	case KindBackspace:
		return "Backspace"
	case KindEnter:
		return "Enter"
	case KindLeft:
		return "Left"
	case KindRight:
		return "Right"
	case KindUp:
		return "Up"
	case KindDown:
		return "Down"
	case KindHome:
		return "Home"
	case KindEnd:
		return "End"
	case KindPageUp:
		return "PageUp"
	case KindPageDown:
		return "PageDown"
	case KindTab:
		return "Tab"
	case KindDelete:
		return "Delete"
	case KindEsc:
		return "Esc"
	case KindF:
		return "F"
	case KindChar:
		return "Char"
	case KindCtrl:
		return "Ctrl"
	case KindAlt:
		return "Alt"
	default:
		return "Unknown"
	}
}

// Key is a single key symbol: a tagged variant over the closed alphabet
// named in spec.md §3. Func holds the F-key number (1..=12) when
// Kind == KindF; Char holds the literal byte for Char/Ctrl/Alt.
type Key struct {
	Kind Kind
	Char byte
	Func int
}

func None() Key           { return Key{Kind: KindNone} }
func Backspace() Key      { return Key{Kind: KindBackspace} }
func Enter() Key          { return Key{Kind: KindEnter} }
func Left() Key           { return Key{Kind: KindLeft} }
func Right() Key          { return Key{Kind: KindRight} }
func Up() Key             { return Key{Kind: KindUp} }
func Down() Key           { return Key{Kind: KindDown} }
func Home() Key           { return Key{Kind: KindHome} }
func End() Key            { return Key{Kind: KindEnd} }
func PageUp() Key         { return Key{Kind: KindPageUp} }
func PageDown() Key       { return Key{Kind: KindPageDown} }
func Tab() Key            { return Key{Kind: KindTab} }
func Delete() Key         { return Key{Kind: KindDelete} }
func Esc() Key            { return Key{Kind: KindEsc} }
func F(n int) Key         { return Key{Kind: KindF, Func: n} }
func Char(c byte) Key     { return Key{Kind: KindChar, Char: c} }
func Ctrl(c byte) Key     { return Key{Kind: KindCtrl, Char: c} }
func Alt(c byte) Key      { return Key{Kind: KindAlt, Char: c} }

// Equal reports whether two keys name the same symbol.
func (k Key) Equal(other Key) bool {
	return k.Kind == other.Kind && k.Char == other.Char && k.Func == other.Func
}

func isAsciiAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

var namedKeys = map[string]Key{
	"backspace": Backspace(),
	"space":     Char(' '),
	"enter":     Enter(),
	"left":      Left(),
	"right":     Right(),
	"up":        Up(),
	"down":      Down(),
	"home":      Home(),
	"end":       End(),
	"pageup":    PageUp(),
	"pagedown":  PageDown(),
	"tab":       Tab(),
	"delete":    Delete(),
	"esc":       Esc(),
}

// Display returns the canonical textual form of k, as accepted by Parse.
func (k Key) Display() string {
	switch k.Kind {
	case KindNone:
		return ""
	case KindBackspace:
		return "<backspace>"
	case KindEnter:
		return "<enter>"
	case KindLeft:
		return "<left>"
	case KindRight:
		return "<right>"
	case KindUp:
		return "<up>"
	case KindDown:
		return "<down>"
	case KindHome:
		return "<home>"
	case KindEnd:
		return "<end>"
	case KindPageUp:
		return "<pageup>"
	case KindPageDown:
		return "<pagedown>"
	case KindTab:
		return "<tab>"
	case KindDelete:
		return "<delete>"
	case KindEsc:
		return "<esc>"
	case KindF:
		return fmt.Sprintf("<f%d>", k.Func)
	case KindCtrl:
		return fmt.Sprintf("<c-%c>", k.Char)
	case KindAlt:
		return fmt.Sprintf("<a-%c>", k.Char)
	case KindChar:
		switch k.Char {
		case ' ':
			return "<space>"
		case '\\':
			return "\\\\"
		case '<':
			return "\\<"
		default:
			return string(k.Char)
		}
	default:
		return ""
	}
}

// ParseError is returned by Parse on malformed key syntax.
type ParseError struct {
	UnexpectedEnd bool
	Char          rune
}

func (e *ParseError) Error() string {
	if e.UnexpectedEnd {
		return "unexpected end of input while parsing key"
	}
	return fmt.Sprintf("invalid character %q in key", e.Char)
}

func errUnexpectedEnd() error { return &ParseError{UnexpectedEnd: true} }
func errInvalidChar(c rune) error { return &ParseError{Char: c} }

// Parse consumes one key's worth of textual syntax from the head of s and
// returns the parsed key together with the unconsumed remainder. It is
// single-pass and byte-at-a-time, matching the grammar in spec.md §4.1.
func Parse(s string) (Key, string, error) {
	if len(s) == 0 {
		return Key{}, s, errUnexpectedEnd()
	}

	c := s[0]
	switch c {
	case '\\':
		if len(s) < 2 {
			return Key{}, s, errUnexpectedEnd()
		}
		switch s[1] {
		case '\\':
			return Char('\\'), s[2:], nil
		case '<':
			return Char('<'), s[2:], nil
		default:
			return Key{}, s, errInvalidChar(rune(s[1]))
		}
	case '<':
		return parseNamed(s)
	default:
		if c < 0x20 || c > 0x7e {
			return Key{}, s, errInvalidChar(rune(c))
		}
		return Char(c), s[1:], nil
	}
}

// parseNamed parses a "<...>" token: a named key, a function key, or a
// control/alt chord. s[0] == '<' on entry.
func parseNamed(s string) (Key, string, error) {
	end := indexByte(s[1:], '>')
	if end < 0 {
		return Key{}, s, errUnexpectedEnd()
	}
	body := s[1 : 1+end]
	rest := s[1+end+1:]

	if len(body) == 0 {
		return Key{}, s, errInvalidChar('>')
	}

	// <c-X> / <a-X>
	if len(body) == 3 && body[1] == '-' && (body[0] == 'c' || body[0] == 'a') {
		x := body[2]
		if !isAsciiAlnum(x) {
			return Key{}, s, errInvalidChar(rune(x))
		}
		if body[0] == 'c' {
			return Ctrl(x), rest, nil
		}
		return Alt(x), rest, nil
	}

	// <fN>
	if len(body) >= 2 && (body[0] == 'f' || body[0] == 'F') {
		if n, ok := parseFuncNumber(body[1:]); ok {
			return F(n), rest, nil
		}
	}

	if k, ok := namedKeys[body]; ok {
		return k, rest, nil
	}

	return Key{}, s, errInvalidChar(rune(body[0]))
}

// parseFuncNumber accepts exactly "1".."9" or "10"|"11"|"12".
func parseFuncNumber(digits string) (int, bool) {
	switch digits {
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		return int(digits[0] - '0'), true
	case "10":
		return 10, true
	case "11":
		return 11, true
	case "12":
		return 12, true
	default:
		return 0, false
	}
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}
