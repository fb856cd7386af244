// Package status implements the editor's one-line status bar, the
// sink command mode writes eval errors and input-too-long rejections
// to (spec.md §4.8).
package status

// Kind distinguishes an informational status line from an error one.
type Kind int

const (
	Info Kind = iota
	Error
)

// Bar holds the single current status message. Setting it replaces
// whatever was there; there is no history.
type Bar struct {
	Kind    Kind
	Message string
}

// SetInfo replaces the bar with an informational message.
func (b *Bar) SetInfo(message string) { *b = Bar{Kind: Info, Message: message} }

// SetError replaces the bar with an error message.
func (b *Bar) SetError(message string) { *b = Bar{Kind: Error, Message: message} }

// Clear empties the bar.
func (b *Bar) Clear() { *b = Bar{} }
