// Package clipboard declares the platform clipboard as an external
// collaborator (spec.md §4.6's Ctrl-y: "read via platform abstraction").
// The core only needs to read it; writing is out of scope here.
package clipboard

import "golang.org/x/crypto/ripemd160"

// Reader is implemented by whatever the host uses to reach the
// platform clipboard (X11 selection, macOS pasteboard, a terminal's
// OSC 52 sequence, ...). The core depends only on this interface.
type Reader interface {
	Read() (string, error)
}

// Fake is an in-process Reader for tests and for hosts with no real
// clipboard access: it always returns a fixed string.
type Fake struct {
	Contents string
}

func (f Fake) Read() (string, error) { return f.Contents, nil }

// PasteLog tracks whether a Ctrl-y yank repeats the previous one, by
// content hash rather than by retaining the pasted text itself. Unlike
// command.History's "identical to the current most-recent entry is not
// re-added" rule (spec.md §3), a repeat paste is not suppressed — §4.6
// requires every Ctrl-y to append unconditionally — so Record's result
// is informational only (e.g. a status hint), never a gate on the
// append itself.
type PasteLog struct {
	lastHash []byte
	has      bool
}

// Record hashes content and reports whether it differs from the last
// recorded paste, updating the log's notion of "most recent" either
// way. A fresh PasteLog always reports true on its first Record.
func (p *PasteLog) Record(content string) bool {
	h := ripemd160.New()
	h.Write([]byte(content))
	sum := h.Sum(nil)

	if p.has && bytesEqual(p.lastHash, sum) {
		return false
	}
	p.lastHash = sum
	p.has = true
	return true
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
